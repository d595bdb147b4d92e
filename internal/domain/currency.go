package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Currency is one entry of the supported-currency registry.
type Currency interface {
	Code() string
	Name() string
	DisplayInfo() string
}

type FiatCurrency struct {
	code           string
	name           string
	issuingCountry string
}

func (c FiatCurrency) Code() string { return c.code }
func (c FiatCurrency) Name() string { return c.name }

func (c FiatCurrency) DisplayInfo() string {
	return fmt.Sprintf("[FIAT] %s — %s (%s)", c.code, c.name, c.issuingCountry)
}

type CryptoCurrency struct {
	code      string
	name      string
	algorithm string
	marketCap float64
}

func (c CryptoCurrency) Code() string { return c.code }
func (c CryptoCurrency) Name() string { return c.name }

func (c CryptoCurrency) DisplayInfo() string {
	return fmt.Sprintf("[CRYPTO] %s — %s (Algo: %s, MCAP: %.2e)",
		c.code, c.name, c.algorithm, c.marketCap)
}

var currencyRegistry = map[string]Currency{
	"USD": FiatCurrency{"USD", "US Dollar", "United States"},
	"EUR": FiatCurrency{"EUR", "Euro", "Eurozone"},
	"GBP": FiatCurrency{"GBP", "Pound Sterling", "United Kingdom"},
	"RUB": FiatCurrency{"RUB", "Russian Ruble", "Russia"},
	"BTC": CryptoCurrency{"BTC", "Bitcoin", "SHA-256", 1.12e12},
	"ETH": CryptoCurrency{"ETH", "Ethereum", "Ethash", 5.6e11},
	"SOL": CryptoCurrency{"SOL", "Solana", "Proof of History", 8.5e10},
}

// GetCurrency looks a code up in the registry.
func GetCurrency(code string) (Currency, error) {
	c, ok := currencyRegistry[strings.ToUpper(code)]
	if !ok {
		return nil, &CurrencyNotFoundError{Code: code}
	}
	return c, nil
}

// SupportedCodes returns all registry codes, sorted.
func SupportedCodes() []string {
	codes := make([]string, 0, len(currencyRegistry))
	for code := range currencyRegistry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
