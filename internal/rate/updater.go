package rate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/adapters"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SourceAll selects every registered provider.
const SourceAll = "all"

// Updater runs the merge pipeline: fetch quotes from the selected
// providers, audit-log every observation, merge into the existing snapshot
// under a recency tie-break and persist the result atomically.
type Updater struct {
	mu        sync.Mutex // serializes the whole read-merge-write sequence
	providers []adapters.QuoteProvider
	byAlias   map[string]adapters.QuoteProvider
	snapshots adapters.SnapshotStore
	history   adapters.HistoryLog
}

func NewUpdater(snapshots adapters.SnapshotStore, history adapters.HistoryLog) *Updater {
	return &Updater{
		snapshots: snapshots,
		history:   history,
		byAlias:   map[string]adapters.QuoteProvider{},
	}
}

// Register adds a provider under its selection aliases. Aliases are
// matched case-insensitively.
func (u *Updater) Register(p adapters.QuoteProvider, aliases ...string) {
	u.providers = append(u.providers, p)
	for _, alias := range aliases {
		u.byAlias[strings.ToLower(alias)] = p
	}
}

// Run executes one refresh. source is SourceAll (or empty) for every
// provider, or a single provider alias; an unknown alias fails the request
// up front with domain.ErrUnknownSource.
//
// A provider failure is recorded in the result and never fatal; a
// persistence failure aborts the run and propagates.
func (u *Updater) Run(ctx context.Context, source string) (domain.RefreshResult, error) {
	execID := uuid.NewString()

	selected, err := u.selectProviders(source)
	if err != nil {
		return domain.RefreshResult{}, err
	}
	logrus.Infof("Refresh %s started: %d provider(s) selected", execID, len(selected))

	u.mu.Lock()
	defer u.mu.Unlock()

	existing, err := u.snapshots.Read()
	if err != nil {
		return domain.RefreshResult{}, err
	}
	combined := existing.ClonePairs()

	var errs []string
	totalFetched := 0

	for _, p := range selected {
		quotes, fetchErr := p.Fetch(ctx)
		if fetchErr != nil {
			logrus.Warnf("Refresh %s: %s failed: %v", execID, p.Name(), fetchErr)
			errs = append(errs, fetchErr.Error())
			continue
		}
		totalFetched += len(quotes)

		// Deterministic order so the history log is reproducible.
		for _, key := range sortedKeys(quotes) {
			q := quotes[key]
			if histErr := u.history.Append(domain.NewHistoryRecord(q)); histErr != nil {
				return domain.RefreshResult{}, histErr
			}
			mergeQuote(combined, key, q)
		}
		logrus.Infof("Refresh %s: %s returned %d quotes", execID, p.Name(), len(quotes))
	}

	completedAt := domain.FormatTime(time.Now())

	// A run that observed nothing leaves the snapshot file untouched,
	// last_refresh included.
	if totalFetched > 0 && len(combined) > 0 {
		if err := u.snapshots.Write(combined, completedAt); err != nil {
			return domain.RefreshResult{}, err
		}
	}

	result := domain.RefreshResult{
		PairsTotal:   len(combined),
		PairsFetched: totalFetched,
		Errors:       errs,
		CompletedAt:  completedAt,
	}
	if len(errs) > 0 {
		logrus.Warnf("Refresh %s finished with %d error(s)", execID, len(errs))
	} else {
		logrus.Infof("Refresh %s finished: %d quotes fetched, %d pairs total", execID, totalFetched, len(combined))
	}
	return result, nil
}

// mergeQuote applies the recency tie-break: the incoming quote wins unless
// it is strictly older than the cached entry (lexicographic comparison of
// canonical UTC timestamps; an absent entry counts as older).
func mergeQuote(combined map[string]domain.PairEntry, key string, q domain.Quote) {
	if existing, ok := combined[key]; ok && q.FetchedAt < existing.UpdatedAt {
		return
	}
	combined[key] = domain.PairEntry{
		Rate:      q.Rate,
		UpdatedAt: q.FetchedAt,
		Source:    q.Source,
	}
}

func (u *Updater) selectProviders(source string) ([]adapters.QuoteProvider, error) {
	s := strings.ToLower(strings.TrimSpace(source))
	if s == "" || s == SourceAll {
		return u.providers, nil
	}
	p, ok := u.byAlias[s]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSource, source)
	}
	return []adapters.QuoteProvider{p}, nil
}

func sortedKeys(quotes map[string]domain.Quote) []string {
	keys := make([]string, 0, len(quotes))
	for k := range quotes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
