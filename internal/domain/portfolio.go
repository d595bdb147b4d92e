package domain

import (
	"github.com/shopspring/decimal"
)

// Wallet holds a user's balance in one currency.
type Wallet struct {
	CurrencyCode string
	Balance      decimal.Decimal
}

func (w *Wallet) Deposit(amount decimal.Decimal) {
	w.Balance = w.Balance.Add(amount)
}

func (w *Wallet) Withdraw(amount decimal.Decimal) error {
	if amount.GreaterThan(w.Balance) {
		return &InsufficientFundsError{
			Available: w.Balance,
			Required:  amount,
			Code:      w.CurrencyCode,
		}
	}
	w.Balance = w.Balance.Sub(amount)
	return nil
}

// Portfolio is one user's set of wallets. The base-currency wallet always
// exists.
type Portfolio struct {
	UserID       int
	BaseCurrency string
	Wallets      map[string]*Wallet
}

func NewPortfolio(userID int, baseCurrency string) *Portfolio {
	p := &Portfolio{
		UserID:       userID,
		BaseCurrency: baseCurrency,
		Wallets:      map[string]*Wallet{},
	}
	p.EnsureWallet(baseCurrency)
	return p
}

// EnsureWallet returns the wallet for code, creating an empty one if needed.
func (p *Portfolio) EnsureWallet(code string) *Wallet {
	if w, ok := p.Wallets[code]; ok {
		return w
	}
	w := &Wallet{CurrencyCode: code, Balance: decimal.Zero}
	p.Wallets[code] = w
	return w
}

func (p *Portfolio) BaseWallet() *Wallet {
	return p.EnsureWallet(p.BaseCurrency)
}
