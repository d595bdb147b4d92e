package rate

import (
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
)

// bridgeCurrency is the intermediate for two-hop derivation.
const bridgeCurrency = "USD"

// Resolve derives the from→to rate from a snapshot. Order of attempts:
// same-code identity, direct entry, inverse entry, then a single
// USD-bridged hop (each leg direct/inverse only, so the recursion is
// bounded by construction). Zero and negative cached rates are treated as
// unavailable, never divided by.
//
// updatedAt reports the winning entry's timestamp; it is empty for
// identity and bridged results, where no single entry owns the rate.
func Resolve(snap domain.Snapshot, from, to string) (rate float64, updatedAt string, ok bool) {
	if from == to {
		return 1.0, "", true
	}
	if rate, updatedAt, ok = lookup(snap, from, to); ok {
		return rate, updatedAt, true
	}
	if from != bridgeCurrency && to != bridgeCurrency {
		left, _, okLeft := lookup(snap, from, bridgeCurrency)
		right, _, okRight := lookup(snap, bridgeCurrency, to)
		if okLeft && okRight {
			return left * right, "", true
		}
	}
	return 0, "", false
}

// lookup tries the direct entry, then the inverse entry.
func lookup(snap domain.Snapshot, from, to string) (float64, string, bool) {
	if e, ok := snap.Pairs[domain.MakePairKey(from, to)]; ok && e.Rate > 0 {
		return e.Rate, e.UpdatedAt, true
	}
	if e, ok := snap.Pairs[domain.MakePairKey(to, from)]; ok && e.Rate > 0 {
		return 1 / e.Rate, e.UpdatedAt, true
	}
	return 0, "", false
}
