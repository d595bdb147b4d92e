package rate

import (
	"context"
	"errors"
	"testing"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/adapters/httpclient"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Testify mocks ---

type MockQuoteProvider struct {
	mock.Mock
	name string
}

func (m *MockQuoteProvider) Name() string { return m.name }

func (m *MockQuoteProvider) Fetch(ctx context.Context) (map[string]domain.Quote, error) {
	args := m.Called(ctx)
	quotes, _ := args.Get(0).(map[string]domain.Quote)
	return quotes, args.Error(1)
}

type MockSnapshotStore struct{ mock.Mock }

func (m *MockSnapshotStore) Read() (domain.Snapshot, error) {
	args := m.Called()
	snap, _ := args.Get(0).(domain.Snapshot)
	return snap, args.Error(1)
}

func (m *MockSnapshotStore) Write(pairs map[string]domain.PairEntry, completedAt string) error {
	args := m.Called(pairs, completedAt)
	return args.Error(0)
}

type MockHistoryLog struct{ mock.Mock }

func (m *MockHistoryLog) Append(record domain.HistoryRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

type MockRateCache struct{ mock.Mock }

func (m *MockRateCache) Get(pairKey string) (domain.RateInfo, bool) {
	args := m.Called(pairKey)
	info, _ := args.Get(0).(domain.RateInfo)
	return info, args.Bool(1)
}

func (m *MockRateCache) Set(pairKey string, info domain.RateInfo) {
	m.Called(pairKey, info)
}

func (m *MockRateCache) Clear() { m.Called() }

// --- helpers ---

func btcSnapshot(rate float64, updatedAt string) domain.Snapshot {
	return domain.Snapshot{
		Pairs: map[string]domain.PairEntry{
			"BTC_USD": {Rate: rate, UpdatedAt: updatedAt, Source: "X"},
		},
		LastRefresh: updatedAt,
	}
}

func btcQuote(rate float64, fetchedAt string) map[string]domain.Quote {
	return map[string]domain.Quote{
		"BTC_USD": {From: "BTC", To: "USD", Rate: rate, Source: "CoinGecko", FetchedAt: fetchedAt},
	}
}

// --- Run ---

func TestUpdater_Run_NewerQuoteWins(t *testing.T) {
	snapshots := new(MockSnapshotStore)
	history := new(MockHistoryLog)
	provider := &MockQuoteProvider{name: "CoinGecko"}

	snapshots.On("Read").Return(btcSnapshot(50000, "2024-01-01T00:00:00Z"), nil).Once()
	provider.On("Fetch", mock.Anything).Return(btcQuote(52000, "2024-01-02T00:00:00Z"), nil).Once()
	history.On("Append", mock.MatchedBy(func(r domain.HistoryRecord) bool {
		return r.ID == "BTC_USD_2024-01-02T00:00:00Z" && r.Rate == 52000
	})).Return(nil).Once()
	snapshots.On("Write", mock.MatchedBy(func(pairs map[string]domain.PairEntry) bool {
		return pairs["BTC_USD"].Rate == 52000 && pairs["BTC_USD"].UpdatedAt == "2024-01-02T00:00:00Z"
	}), mock.Anything).Return(nil).Once()

	u := NewUpdater(snapshots, history)
	u.Register(provider, "coingecko")

	result, err := u.Run(context.Background(), SourceAll)
	require.NoError(t, err)
	require.Equal(t, 1, result.PairsTotal)
	require.Equal(t, 1, result.PairsFetched)
	require.Empty(t, result.Errors)
	require.NotEmpty(t, result.CompletedAt)

	snapshots.AssertExpectations(t)
	history.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestUpdater_Run_OlderQuoteLosesButIsLogged(t *testing.T) {
	snapshots := new(MockSnapshotStore)
	history := new(MockHistoryLog)
	provider := &MockQuoteProvider{name: "CoinGecko"}

	snapshots.On("Read").Return(btcSnapshot(52000, "2024-01-02T00:00:00Z"), nil).Once()
	provider.On("Fetch", mock.Anything).Return(btcQuote(48000, "2024-01-01T00:00:00Z"), nil).Once()
	// the losing observation still lands in the audit log
	history.On("Append", mock.MatchedBy(func(r domain.HistoryRecord) bool {
		return r.Rate == 48000
	})).Return(nil).Once()
	snapshots.On("Write", mock.MatchedBy(func(pairs map[string]domain.PairEntry) bool {
		return pairs["BTC_USD"].Rate == 52000 // existing entry survives unchanged
	}), mock.Anything).Return(nil).Once()

	u := NewUpdater(snapshots, history)
	u.Register(provider, "coingecko")

	result, err := u.Run(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 1, result.PairsFetched)

	snapshots.AssertExpectations(t)
	history.AssertExpectations(t)
}

func TestUpdater_Run_EqualTimestampIncomingWins(t *testing.T) {
	snapshots := new(MockSnapshotStore)
	history := new(MockHistoryLog)
	provider := &MockQuoteProvider{name: "CoinGecko"}

	ts := "2024-01-01T00:00:00Z"
	snapshots.On("Read").Return(btcSnapshot(50000, ts), nil).Once()
	provider.On("Fetch", mock.Anything).Return(btcQuote(51000, ts), nil).Once()
	history.On("Append", mock.Anything).Return(nil).Once()
	snapshots.On("Write", mock.MatchedBy(func(pairs map[string]domain.PairEntry) bool {
		return pairs["BTC_USD"].Rate == 51000
	}), mock.Anything).Return(nil).Once()

	u := NewUpdater(snapshots, history)
	u.Register(provider, "coingecko")

	_, err := u.Run(context.Background(), SourceAll)
	require.NoError(t, err)
	snapshots.AssertExpectations(t)
}

func TestUpdater_Run_CarriesForwardAbsentPairs(t *testing.T) {
	snapshots := new(MockSnapshotStore)
	history := new(MockHistoryLog)
	provider := &MockQuoteProvider{name: "ExchangeRate-API"}

	existing := domain.Snapshot{
		Pairs: map[string]domain.PairEntry{
			"BTC_USD": {Rate: 50000, UpdatedAt: "2024-01-01T00:00:00Z", Source: "X"},
		},
	}
	incoming := map[string]domain.Quote{
		"USD_EUR": {From: "USD", To: "EUR", Rate: 0.9, Source: "ExchangeRate-API", FetchedAt: "2024-01-02T00:00:00Z"},
	}

	snapshots.On("Read").Return(existing, nil).Once()
	provider.On("Fetch", mock.Anything).Return(incoming, nil).Once()
	history.On("Append", mock.Anything).Return(nil).Once()
	snapshots.On("Write", mock.MatchedBy(func(pairs map[string]domain.PairEntry) bool {
		_, hasBTC := pairs["BTC_USD"]
		_, hasEUR := pairs["USD_EUR"]
		return hasBTC && hasEUR && len(pairs) == 2
	}), mock.Anything).Return(nil).Once()

	u := NewUpdater(snapshots, history)
	u.Register(provider, "exchangerate")

	result, err := u.Run(context.Background(), SourceAll)
	require.NoError(t, err)
	require.Equal(t, 2, result.PairsTotal)

	snapshots.AssertExpectations(t)
}

func TestUpdater_Run_EmptyFetchLeavesStoreUntouched(t *testing.T) {
	snapshots := new(MockSnapshotStore)
	history := new(MockHistoryLog)
	provider := &MockQuoteProvider{name: "ExchangeRate-API"}

	prior := btcSnapshot(50000, "2024-01-01T00:00:00Z")
	snapshots.On("Read").Return(prior, nil).Once()
	provider.On("Fetch", mock.Anything).Return(map[string]domain.Quote{}, nil).Once()

	u := NewUpdater(snapshots, history)
	u.Register(provider, "exchangerate")

	result, err := u.Run(context.Background(), SourceAll)
	require.NoError(t, err)
	require.Zero(t, result.PairsFetched)
	require.Equal(t, 1, result.PairsTotal)
	require.Empty(t, result.Errors)

	// no Write expectation set: a write would fail the test
	snapshots.AssertExpectations(t)
	history.AssertNotCalled(t, "Append", mock.Anything)
}

func TestUpdater_Run_PartialProviderFailure(t *testing.T) {
	snapshots := new(MockSnapshotStore)
	history := new(MockHistoryLog)
	failing := &MockQuoteProvider{name: "CoinGecko"}
	working := &MockQuoteProvider{name: "ExchangeRate-API"}

	snapshots.On("Read").Return(domain.EmptySnapshot(), nil).Once()
	failing.On("Fetch", mock.Anything).
		Return(nil, &domain.ProviderError{Source: "CoinGecko", Reason: "timeout"}).Once()
	working.On("Fetch", mock.Anything).Return(map[string]domain.Quote{
		"USD_EUR": {From: "USD", To: "EUR", Rate: 0.9, Source: "ExchangeRate-API", FetchedAt: "2024-01-02T00:00:00Z"},
	}, nil).Once()
	history.On("Append", mock.Anything).Return(nil).Once()
	snapshots.On("Write", mock.MatchedBy(func(pairs map[string]domain.PairEntry) bool {
		return pairs["USD_EUR"].Rate == 0.9
	}), mock.Anything).Return(nil).Once()

	u := NewUpdater(snapshots, history)
	u.Register(failing, "coingecko")
	u.Register(working, "exchangerate")

	result, err := u.Run(context.Background(), SourceAll)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "CoinGecko")
	require.Equal(t, 1, result.PairsFetched)

	snapshots.AssertExpectations(t)
}

func TestUpdater_Run_AllProvidersFailNoWrite(t *testing.T) {
	snapshots := new(MockSnapshotStore)
	history := new(MockHistoryLog)
	provider := &MockQuoteProvider{name: "CoinGecko"}

	snapshots.On("Read").Return(btcSnapshot(50000, "2024-01-01T00:00:00Z"), nil).Once()
	provider.On("Fetch", mock.Anything).
		Return(nil, &domain.ProviderError{Source: "CoinGecko", Reason: "boom"}).Once()

	u := NewUpdater(snapshots, history)
	u.Register(provider, "coingecko")

	result, err := u.Run(context.Background(), SourceAll)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	require.Zero(t, result.PairsFetched)

	snapshots.AssertExpectations(t)
	snapshots.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
}

func TestUpdater_Run_UnknownSourceAlias(t *testing.T) {
	u := NewUpdater(new(MockSnapshotStore), new(MockHistoryLog))
	u.Register(&MockQuoteProvider{name: "CoinGecko"}, "coingecko")

	_, err := u.Run(context.Background(), "binance")
	require.True(t, errors.Is(err, domain.ErrUnknownSource))
}

func TestUpdater_Run_SingleSourceSelection(t *testing.T) {
	snapshots := new(MockSnapshotStore)
	history := new(MockHistoryLog)
	crypto := &MockQuoteProvider{name: "CoinGecko"}
	fiat := &MockQuoteProvider{name: "ExchangeRate-API"}

	snapshots.On("Read").Return(domain.EmptySnapshot(), nil).Once()
	fiat.On("Fetch", mock.Anything).Return(map[string]domain.Quote{
		"USD_EUR": {From: "USD", To: "EUR", Rate: 0.9, Source: "ExchangeRate-API", FetchedAt: "2024-01-02T00:00:00Z"},
	}, nil).Once()
	history.On("Append", mock.Anything).Return(nil).Once()
	snapshots.On("Write", mock.Anything, mock.Anything).Return(nil).Once()

	u := NewUpdater(snapshots, history)
	u.Register(crypto, "coingecko")
	u.Register(fiat, "exchangerate", "exchange_rate", "exchange-rate", "exchangerate-api")

	// alias matching is case-insensitive
	_, err := u.Run(context.Background(), "Exchange-Rate")
	require.NoError(t, err)

	crypto.AssertNotCalled(t, "Fetch", mock.Anything)
	fiat.AssertExpectations(t)
}

// Every published provider alias must select a provider once registered the
// way the application wires them; an alias missing from the list would turn
// into a hard ErrUnknownSource at the CLI.
func TestUpdater_Run_AllPublishedAliasesSelect(t *testing.T) {
	aliases := append(append([]string{}, httpclient.CoinGeckoAliases...), httpclient.ExchangeRateAliases...)
	require.Contains(t, aliases, "exchange-rate")

	for _, alias := range aliases {
		snapshots := new(MockSnapshotStore)
		history := new(MockHistoryLog)
		snapshots.On("Read").Return(domain.EmptySnapshot(), nil).Once()
		provider := &MockQuoteProvider{name: alias}
		provider.On("Fetch", mock.Anything).Return(map[string]domain.Quote{}, nil).Once()

		u := NewUpdater(snapshots, history)
		u.Register(&MockQuoteProvider{name: "other"}, "other")
		if alias == "coingecko" {
			u.Register(provider, httpclient.CoinGeckoAliases...)
		} else {
			u.Register(provider, httpclient.ExchangeRateAliases...)
		}

		_, err := u.Run(context.Background(), alias)
		require.NoError(t, err, "alias %q", alias)
		provider.AssertExpectations(t)
	}
}

func TestUpdater_Run_HistoryPersistenceErrorAborts(t *testing.T) {
	snapshots := new(MockSnapshotStore)
	history := new(MockHistoryLog)
	provider := &MockQuoteProvider{name: "CoinGecko"}

	snapshots.On("Read").Return(domain.EmptySnapshot(), nil).Once()
	provider.On("Fetch", mock.Anything).Return(btcQuote(50000, "2024-01-01T00:00:00Z"), nil).Once()
	persistErr := &domain.PersistenceError{Path: "exchange_rates.json", Err: errors.New("disk full")}
	history.On("Append", mock.Anything).Return(persistErr).Once()

	u := NewUpdater(snapshots, history)
	u.Register(provider, "coingecko")

	_, err := u.Run(context.Background(), SourceAll)
	var pe *domain.PersistenceError
	require.True(t, errors.As(err, &pe))
	snapshots.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
}

func TestUpdater_Run_SnapshotWriteErrorPropagates(t *testing.T) {
	snapshots := new(MockSnapshotStore)
	history := new(MockHistoryLog)
	provider := &MockQuoteProvider{name: "CoinGecko"}

	snapshots.On("Read").Return(domain.EmptySnapshot(), nil).Once()
	provider.On("Fetch", mock.Anything).Return(btcQuote(50000, "2024-01-01T00:00:00Z"), nil).Once()
	history.On("Append", mock.Anything).Return(nil).Once()
	persistErr := &domain.PersistenceError{Path: "rates.json", Err: errors.New("disk full")}
	snapshots.On("Write", mock.Anything, mock.Anything).Return(persistErr).Once()

	u := NewUpdater(snapshots, history)
	u.Register(provider, "coingecko")

	_, err := u.Run(context.Background(), SourceAll)
	var pe *domain.PersistenceError
	require.True(t, errors.As(err, &pe))
}
