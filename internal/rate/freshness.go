package rate

import (
	"fmt"
	"time"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
)

type StalenessReason string

const (
	// StaleNoTimestamp: the snapshot has never recorded a refresh.
	StaleNoTimestamp StalenessReason = "no_timestamp"
	// StaleExpired: last refresh is older than the configured TTL.
	StaleExpired StalenessReason = "expired"
	// StaleParseError: last_refresh is present but not a valid timestamp.
	StaleParseError StalenessReason = "parse_error"
)

// Staleness is an advisory attached to otherwise-successful reads.
// It never blocks the read.
type Staleness struct {
	Reason      StalenessReason
	LastRefresh string
	TTL         time.Duration
}

func (s *Staleness) String() string {
	switch s.Reason {
	case StaleNoTimestamp:
		return "rates data has no refresh timestamp; run 'update-rates'"
	case StaleParseError:
		return fmt.Sprintf("rates data has a malformed refresh timestamp %q", s.LastRefresh)
	default:
		return fmt.Sprintf("rates data is stale (last refresh: %s, TTL: %.1f minutes); run 'update-rates'",
			s.LastRefresh, s.TTL.Minutes())
	}
}

// CheckFreshness reports nil when the snapshot is within ttl of now.
func CheckFreshness(snap domain.Snapshot, ttl time.Duration, now time.Time) *Staleness {
	if snap.LastRefresh == "" {
		return &Staleness{Reason: StaleNoTimestamp, TTL: ttl}
	}
	last, err := domain.ParseTime(snap.LastRefresh)
	if err != nil {
		return &Staleness{Reason: StaleParseError, LastRefresh: snap.LastRefresh, TTL: ttl}
	}
	if now.UTC().Sub(last) > ttl {
		return &Staleness{Reason: StaleExpired, LastRefresh: snap.LastRefresh, TTL: ttl}
	}
	return nil
}
