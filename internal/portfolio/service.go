package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/adapters"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/rate"
)

var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrBaseCurrencyTrade = errors.New("base currency cannot be traded")
	ErrNoHoldings        = errors.New("no holdings to sell")
)

// RateSource resolves conversion rates for trades and valuation. Satisfied
// by *rate.Service.
type RateSource interface {
	GetRate(from, to string) (domain.RateInfo, *rate.Staleness, error)
}

// Service executes portfolio operations for an authenticated user. Every
// mutation is persisted before it is reported back.
type Service struct {
	portfolios adapters.PortfolioStore
	rates      RateSource

	baseCurrency string
}

func NewService(portfolios adapters.PortfolioStore, rates RateSource, baseCurrency string) *Service {
	return &Service{
		portfolios:   portfolios,
		rates:        rates,
		baseCurrency: strings.ToUpper(baseCurrency),
	}
}

// DepositResult reports a base-currency top-up.
type DepositResult struct {
	Currency   string
	Amount     decimal.Decimal
	OldBalance decimal.Decimal
	NewBalance decimal.Decimal
}

// TradeResult carries everything the caller needs to report a completed
// buy or sell: the executed rate, the base-currency leg and both wallet
// balances before and after.
type TradeResult struct {
	Action         string
	Currency       string
	Amount         decimal.Decimal
	Rate           float64
	Converted      decimal.Decimal
	BaseCurrency   string
	OldBalance     decimal.Decimal
	NewBalance     decimal.Decimal
	OldBaseBalance decimal.Decimal
	NewBaseBalance decimal.Decimal
	Staleness      *rate.Staleness
}

// Deposit adds funds to the base-currency wallet.
func (s *Service) Deposit(user domain.User, amount decimal.Decimal) (DepositResult, error) {
	if !amount.IsPositive() {
		return DepositResult{}, ErrNonPositiveAmount
	}

	p, err := s.loadPortfolio(user.ID)
	if err != nil {
		return DepositResult{}, err
	}

	wallet := p.BaseWallet()
	old := wallet.Balance
	wallet.Deposit(amount)

	if err := s.portfolios.Save(p); err != nil {
		return DepositResult{}, err
	}

	logrus.Infof("Deposit: user=%d +%s %s", user.ID, amount.StringFixed(4), p.BaseCurrency)
	return DepositResult{
		Currency:   p.BaseCurrency,
		Amount:     amount,
		OldBalance: old,
		NewBalance: wallet.Balance,
	}, nil
}

// Buy purchases amount units of currency, paying from the base wallet at
// the current base→currency rate.
func (s *Service) Buy(user domain.User, currency string, amount decimal.Decimal) (TradeResult, error) {
	code, err := validateTrade(currency, amount)
	if err != nil {
		return TradeResult{}, err
	}

	p, err := s.loadPortfolio(user.ID)
	if err != nil {
		return TradeResult{}, err
	}
	if code == p.BaseCurrency {
		return TradeResult{}, fmt.Errorf("%w: %s", ErrBaseCurrencyTrade, code)
	}

	info, stale, err := s.rates.GetRate(p.BaseCurrency, code)
	if err != nil {
		return TradeResult{}, err
	}

	// The rate is base→currency, so the base-currency cost is amount/rate.
	cost := amount.Div(decimal.NewFromFloat(info.Rate))

	baseWallet := p.BaseWallet()
	oldBase := baseWallet.Balance
	if err := baseWallet.Withdraw(cost); err != nil {
		return TradeResult{}, err
	}

	target := p.EnsureWallet(code)
	oldTarget := target.Balance
	target.Deposit(amount)

	if err := s.portfolios.Save(p); err != nil {
		return TradeResult{}, err
	}

	logrus.Infof("Buy: user=%d %s %s for %s %s", user.ID,
		amount.StringFixed(4), code, cost.StringFixed(4), p.BaseCurrency)
	return TradeResult{
		Action:         "buy",
		Currency:       code,
		Amount:         amount,
		Rate:           info.Rate,
		Converted:      cost,
		BaseCurrency:   p.BaseCurrency,
		OldBalance:     oldTarget,
		NewBalance:     target.Balance,
		OldBaseBalance: oldBase,
		NewBaseBalance: baseWallet.Balance,
		Staleness:      stale,
	}, nil
}

// Sell disposes amount units of currency, crediting the base wallet at the
// current currency→base rate.
func (s *Service) Sell(user domain.User, currency string, amount decimal.Decimal) (TradeResult, error) {
	code, err := validateTrade(currency, amount)
	if err != nil {
		return TradeResult{}, err
	}

	p, err := s.loadPortfolio(user.ID)
	if err != nil {
		return TradeResult{}, err
	}
	if code == p.BaseCurrency {
		return TradeResult{}, fmt.Errorf("%w: %s", ErrBaseCurrencyTrade, code)
	}

	target, ok := p.Wallets[code]
	if !ok {
		return TradeResult{}, fmt.Errorf("%w: %s", ErrNoHoldings, code)
	}

	info, stale, err := s.rates.GetRate(code, p.BaseCurrency)
	if err != nil {
		return TradeResult{}, err
	}

	revenue := amount.Mul(decimal.NewFromFloat(info.Rate))

	oldTarget := target.Balance
	if err := target.Withdraw(amount); err != nil {
		return TradeResult{}, err
	}

	baseWallet := p.BaseWallet()
	oldBase := baseWallet.Balance
	baseWallet.Deposit(revenue)

	if err := s.portfolios.Save(p); err != nil {
		return TradeResult{}, err
	}

	logrus.Infof("Sell: user=%d %s %s for %s %s", user.ID,
		amount.StringFixed(4), code, revenue.StringFixed(4), p.BaseCurrency)
	return TradeResult{
		Action:         "sell",
		Currency:       code,
		Amount:         amount,
		Rate:           info.Rate,
		Converted:      revenue,
		BaseCurrency:   p.BaseCurrency,
		OldBalance:     oldTarget,
		NewBalance:     target.Balance,
		OldBaseBalance: oldBase,
		NewBaseBalance: baseWallet.Balance,
		Staleness:      stale,
	}, nil
}

// ValuationRow is one wallet priced in the valuation base. Available is
// false when no rate could be resolved; such rows do not count toward the
// total.
type ValuationRow struct {
	Currency  string
	Balance   decimal.Decimal
	Value     decimal.Decimal
	Available bool
}

// Valuation is the full portfolio priced in one base currency.
type Valuation struct {
	Base           string
	Rows           []ValuationRow
	Total          decimal.Decimal
	HasUnavailable bool
	Staleness      *rate.Staleness
}

// Valuation prices every wallet in base (the portfolio's own base when
// empty). Wallets whose rate cannot be resolved are marked unavailable
// rather than failing the whole valuation.
func (s *Service) Valuation(user domain.User, base string) (Valuation, error) {
	p, err := s.loadPortfolio(user.ID)
	if err != nil {
		return Valuation{}, err
	}

	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		base = p.BaseCurrency
	}
	if _, err := domain.GetCurrency(base); err != nil {
		return Valuation{}, err
	}

	codes := make([]string, 0, len(p.Wallets))
	for code := range p.Wallets {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	v := Valuation{Base: base, Total: decimal.Zero}
	for _, code := range codes {
		wallet := p.Wallets[code]
		row := ValuationRow{Currency: code, Balance: wallet.Balance}

		info, stale, rateErr := s.rates.GetRate(code, base)
		if stale != nil {
			v.Staleness = stale
		}
		switch {
		case rateErr == nil:
			row.Value = wallet.Balance.Mul(decimal.NewFromFloat(info.Rate))
			row.Available = true
			v.Total = v.Total.Add(row.Value)
		case errors.Is(rateErr, domain.ErrRateUnavailable):
			v.HasUnavailable = true
		default:
			return Valuation{}, rateErr
		}
		v.Rows = append(v.Rows, row)
	}
	return v, nil
}

// loadPortfolio fetches the user's portfolio, creating an empty one with
// the default base currency on first use.
func (s *Service) loadPortfolio(userID int) (*domain.Portfolio, error) {
	p, err := s.portfolios.Get(userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrPortfolioNotFound) {
		return nil, err
	}
	p = domain.NewPortfolio(userID, s.baseCurrency)
	if err := s.portfolios.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

func validateTrade(currency string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", ErrNonPositiveAmount
	}
	code := strings.ToUpper(strings.TrimSpace(currency))
	if _, err := domain.GetCurrency(code); err != nil {
		return "", err
	}
	return code, nil
}
