package domain

import (
	"strings"
	"time"
)

// TimeFormat is the canonical UTC timestamp layout used everywhere:
// in snapshot entries, history records and refresh results.
// No sub-second precision, always a literal Z suffix.
const TimeFormat = "2006-01-02T15:04:05Z"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeFormat, s)
}

// Quote is a single observation of a currency pair from one provider.
// Immutable once created.
type Quote struct {
	From      string
	To        string
	Rate      float64
	Source    string
	FetchedAt string // TimeFormat
	Meta      map[string]any
}

func (q Quote) PairKey() string {
	return MakePairKey(q.From, q.To)
}

// PairEntry is the cached view of one directional pair inside a snapshot.
type PairEntry struct {
	Rate      float64 `json:"rate"`
	UpdatedAt string  `json:"updated_at"`
	Source    string  `json:"source"`
}

// Snapshot is the single current cached view of all known exchange rates.
// Only the updater mutates it; everybody else reads.
type Snapshot struct {
	Pairs       map[string]PairEntry
	LastRefresh string // TimeFormat, "" when the snapshot was never refreshed
}

func EmptySnapshot() Snapshot {
	return Snapshot{Pairs: map[string]PairEntry{}}
}

// ClonePairs returns a copy of the pairs map safe to mutate.
func (s Snapshot) ClonePairs() map[string]PairEntry {
	out := make(map[string]PairEntry, len(s.Pairs))
	for k, v := range s.Pairs {
		out[k] = v
	}
	return out
}

// RefreshResult summarizes one merge run. Transient, never persisted.
type RefreshResult struct {
	PairsTotal   int
	PairsFetched int
	Errors       []string
	CompletedAt  string
}

// RateInfo is the answer to a conversion lookup.
type RateInfo struct {
	Rate        float64
	InverseRate float64
	UpdatedAt   string
}

// MakePairKey builds the directional "FROM_TO" key.
func MakePairKey(from, to string) string {
	return strings.ToUpper(from) + "_" + strings.ToUpper(to)
}

// SplitPairKey splits "FROM_TO" back into its codes.
func SplitPairKey(key string) (from, to string, ok bool) {
	from, to, ok = strings.Cut(key, "_")
	if !ok || from == "" || to == "" {
		return "", "", false
	}
	return from, to, true
}

// InverseRate computes 1/rate, mapping a zero rate to 0.0 instead of
// dividing. Consumers must treat 0.0 as "unavailable".
func InverseRate(rate float64) float64 {
	if rate == 0 {
		return 0
	}
	return 1 / rate
}
