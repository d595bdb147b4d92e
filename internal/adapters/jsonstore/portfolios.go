package jsonstore

import (
	"sync"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"

	"github.com/shopspring/decimal"
)

type walletDoc struct {
	CurrencyCode string  `json:"currency_code"`
	Balance      float64 `json:"balance"`
}

type portfolioDoc struct {
	UserID       int                  `json:"user_id"`
	BaseCurrency string               `json:"base_currency"`
	Wallets      map[string]walletDoc `json:"wallets"`
}

// PortfolioStore persists portfolios as a JSON array in portfolios.json,
// one element per user.
type PortfolioStore struct {
	mu   sync.Mutex
	path string
}

func NewPortfolioStore(path string) *PortfolioStore {
	return &PortfolioStore{path: path}
}

func (s *PortfolioStore) Get(userID int) (*domain.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.load() {
		if doc.UserID == userID {
			return fromPortfolioDoc(doc), nil
		}
	}
	return nil, domain.ErrPortfolioNotFound
}

// Save replaces the user's portfolio element, appending it if new.
// Zero-balance wallets other than the base wallet are not written.
func (s *PortfolioStore) Save(p *domain.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.load()
	kept := docs[:0]
	for _, doc := range docs {
		if doc.UserID != p.UserID {
			kept = append(kept, doc)
		}
	}
	kept = append(kept, toPortfolioDoc(p))
	return writeAtomic(s.path, kept)
}

func (s *PortfolioStore) load() []portfolioDoc {
	var docs []portfolioDoc
	if !readDocument(s.path, &docs) {
		return nil
	}
	return docs
}

func toPortfolioDoc(p *domain.Portfolio) portfolioDoc {
	wallets := map[string]walletDoc{}
	for code, w := range p.Wallets {
		if w.Balance.IsZero() && code != p.BaseCurrency {
			continue
		}
		wallets[code] = walletDoc{
			CurrencyCode: w.CurrencyCode,
			Balance:      w.Balance.InexactFloat64(),
		}
	}
	return portfolioDoc{
		UserID:       p.UserID,
		BaseCurrency: p.BaseCurrency,
		Wallets:      wallets,
	}
}

func fromPortfolioDoc(doc portfolioDoc) *domain.Portfolio {
	p := domain.NewPortfolio(doc.UserID, doc.BaseCurrency)
	for _, w := range doc.Wallets {
		p.Wallets[w.CurrencyCode] = &domain.Wallet{
			CurrencyCode: w.CurrencyCode,
			Balance:      decimal.NewFromFloat(w.Balance),
		}
	}
	return p
}
