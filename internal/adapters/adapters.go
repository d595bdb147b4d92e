package adapters

import (
	"context"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
)

// QuoteProvider fetches one batch of currency-pair quotes from a single
// external source. Implementations must be side-effect free apart from the
// remote call, must report both directions of every pair they cover, and
// must tag each quote with their own Name.
type QuoteProvider interface {
	Name() string
	Fetch(ctx context.Context) (map[string]domain.Quote, error)
}

// SnapshotStore is the durable current view of all known rates, replaced
// atomically as one document.
type SnapshotStore interface {
	Read() (domain.Snapshot, error)
	Write(pairs map[string]domain.PairEntry, completedAt string) error
}

// HistoryLog records every individual quote ever fetched. Append-only.
type HistoryLog interface {
	Append(record domain.HistoryRecord) error
}

// RateCache is an in-memory cache of resolved conversion lookups,
// invalidated wholesale after a refresh lands new data.
type RateCache interface {
	Get(pairKey string) (domain.RateInfo, bool)
	Set(pairKey string, info domain.RateInfo)
	Clear()
}

// UserStore persists registered accounts.
type UserStore interface {
	Create(user domain.User) (domain.User, error)
	FindByUsername(username string) (domain.User, error)
}

// PortfolioStore persists one portfolio per user.
type PortfolioStore interface {
	Get(userID int) (*domain.Portfolio, error)
	Save(p *domain.Portfolio) error
}
