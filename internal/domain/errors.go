package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrRateUnavailable means the snapshot has no way to derive the
	// requested rate. "No data", not a hard failure.
	ErrRateUnavailable = errors.New("rate unavailable")

	// ErrUnknownSource is returned when a refresh names a provider alias
	// nobody registered.
	ErrUnknownSource = errors.New("unknown rate source")

	ErrUserNotFound      = errors.New("user not found")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrPortfolioNotFound = errors.New("portfolio not found")
)

// ProviderError is any failure scoped to a single provider fetch:
// transport, non-2xx status, malformed body or missing expected fields.
// Recorded per run, never fatal to the overall refresh.
type ProviderError struct {
	Source string
	Reason string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// CurrencyNotFoundError is raised for codes outside the currency registry.
type CurrencyNotFoundError struct {
	Code string
}

func (e *CurrencyNotFoundError) Error() string {
	return fmt.Sprintf("unknown currency %q", e.Code)
}

// InsufficientFundsError carries the exact shortfall for user display.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Required  decimal.Decimal
	Code      string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: %s %s < %s %s",
		e.Available.StringFixed(4), e.Code, e.Required.StringFixed(4), e.Code)
}

// PersistenceError is a failed atomic document replace. The prior file is
// guaranteed intact; the operation that triggered the write has failed.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
