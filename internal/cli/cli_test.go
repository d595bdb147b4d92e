package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/adapters/jsonstore"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/auth"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/portfolio"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/rate"
)

type noopCache struct{}

func (noopCache) Get(string) (domain.RateInfo, bool) { return domain.RateInfo{}, false }
func (noopCache) Set(string, domain.RateInfo)        {}
func (noopCache) Clear()                             {}

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	users := jsonstore.NewUserStore(filepath.Join(dir, "users.json"))
	portfolioStore := jsonstore.NewPortfolioStore(filepath.Join(dir, "portfolios.json"))
	snapshots := jsonstore.NewSnapshotStore(filepath.Join(dir, "rates.json"))
	history := jsonstore.NewHistoryStore(filepath.Join(dir, "exchange_rates.json"))

	// Seed one pair so rate lookups have something to resolve.
	require.NoError(t, snapshots.Write(map[string]domain.PairEntry{
		"BTC_USD": {Rate: 50000.0, UpdatedAt: domain.FormatTime(time.Now()), Source: "coingecko"},
	}, domain.FormatTime(time.Now())))

	updater := rate.NewUpdater(snapshots, history)
	rateSvc := rate.NewService(snapshots, updater, noopCache{}, time.Hour)
	authSvc := auth.NewService(users, portfolioStore, "USD", 4)
	portfolioSvc := portfolio.NewService(portfolioStore, rateSvc, "USD")
	scheduler := rate.NewScheduler(rateSvc, time.Minute)

	out := &bytes.Buffer{}
	shell := NewShell(authSvc, portfolioSvc, rateSvc, scheduler)
	shell.out = out
	return shell, out
}

func run(shell *Shell, out *bytes.Buffer, line string) string {
	out.Reset()
	shell.dispatch(context.Background(), line)
	return out.String()
}

func TestDispatch_UnknownCommand(t *testing.T) {
	shell, out := newTestShell(t)
	got := run(shell, out, "frobnicate")
	require.Contains(t, got, "Unknown command")
}

func TestDispatch_Help(t *testing.T) {
	shell, out := newTestShell(t)
	got := run(shell, out, "help")
	require.Contains(t, got, "register")
	require.Contains(t, got, "update-rates")
	require.Contains(t, got, "BTC")
}

func TestDispatch_Exit(t *testing.T) {
	shell, _ := newTestShell(t)
	require.True(t, shell.dispatch(context.Background(), "exit"))
	require.False(t, shell.dispatch(context.Background(), "help"))
}

func TestDispatch_RegisterLoginFlow(t *testing.T) {
	shell, out := newTestShell(t)

	got := run(shell, out, "register --username alice --password secret")
	require.Contains(t, got, "registered")
	require.Nil(t, shell.session)

	got = run(shell, out, "login --username alice --password wrong")
	require.Contains(t, got, "Error")
	require.Nil(t, shell.session)

	got = run(shell, out, "login --username alice --password secret")
	require.Contains(t, got, "Logged in as 'alice'")
	require.NotNil(t, shell.session)
}

func TestDispatch_RequiresLogin(t *testing.T) {
	shell, out := newTestShell(t)

	for _, cmd := range []string{
		"deposit --amount 100",
		"buy --currency BTC --amount 1",
		"sell --currency BTC --amount 1",
		"show-portfolio",
	} {
		got := run(shell, out, cmd)
		require.Contains(t, got, "Log in first", "command %q", cmd)
	}
}

func TestDispatch_DepositAndPortfolio(t *testing.T) {
	shell, out := newTestShell(t)
	run(shell, out, "register --username alice --password secret")
	run(shell, out, "login --username alice --password secret")

	got := run(shell, out, "deposit --amount 1000")
	require.Contains(t, got, "Deposited 1000.0000 USD")

	got = run(shell, out, "show-portfolio")
	require.Contains(t, got, "Portfolio of 'alice' (base: USD)")
	require.Contains(t, got, "1000.0000")
	require.Contains(t, got, "Total:")
}

func TestDispatch_BuyAndSell(t *testing.T) {
	shell, out := newTestShell(t)
	run(shell, out, "register --username alice --password secret")
	run(shell, out, "login --username alice --password secret")
	run(shell, out, "deposit --amount 10000")

	// BTC_USD=50000, so USD->BTC resolves via inverse: 0.1 BTC costs 5000 USD.
	got := run(shell, out, "buy --currency BTC --amount 0.1")
	require.Contains(t, got, "Bought 0.1000 BTC")
	require.Contains(t, got, "5000.0000 USD")

	got = run(shell, out, "sell --currency BTC --amount 0.05")
	require.Contains(t, got, "Sold 0.0500 BTC")
	require.Contains(t, got, "2500.0000 USD")
}

func TestDispatch_BuyInsufficientFunds(t *testing.T) {
	shell, out := newTestShell(t)
	run(shell, out, "register --username alice --password secret")
	run(shell, out, "login --username alice --password secret")
	run(shell, out, "deposit --amount 10")

	got := run(shell, out, "buy --currency BTC --amount 1")
	require.Contains(t, got, "Insufficient funds")
}

func TestDispatch_GetRate(t *testing.T) {
	shell, out := newTestShell(t)

	got := run(shell, out, "get-rate --from BTC --to USD")
	require.Contains(t, got, "Rate BTC->USD: 50000.000000")
	require.Contains(t, got, "Reverse rate USD->BTC")

	got = run(shell, out, "get-rate --from EUR --to GBP")
	require.Contains(t, got, "update-rates")

	got = run(shell, out, "get-rate --from XYZ --to USD")
	require.Contains(t, got, "Unknown currency")
}

func TestDispatch_ShowRates(t *testing.T) {
	shell, out := newTestShell(t)

	got := run(shell, out, "show-rates")
	require.Contains(t, got, "BTC -> USD")
	require.Contains(t, got, "coingecko")

	got = run(shell, out, "show-rates --currency EUR")
	require.Contains(t, got, "No rates match")
}

func TestDispatch_UpdateRatesUnknownSource(t *testing.T) {
	shell, out := newTestShell(t)

	got := run(shell, out, "update-rates --source bogus")
	require.Contains(t, got, "Known sources")
}

func TestDispatch_BadFlags(t *testing.T) {
	shell, out := newTestShell(t)

	got := run(shell, out, "register --bogus x")
	require.Contains(t, got, "Bad arguments")
}

func TestDispatch_InvalidAmount(t *testing.T) {
	shell, out := newTestShell(t)
	run(shell, out, "register --username alice --password secret")
	run(shell, out, "login --username alice --password secret")

	got := run(shell, out, "deposit --amount abc")
	require.Contains(t, got, "invalid amount")
}

func TestDispatch_StartScheduler(t *testing.T) {
	shell, out := newTestShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := strings.TrimSpace(run(shell, out, ""))
	require.Empty(t, got)

	out.Reset()
	shell.dispatch(ctx, "start-scheduler")
	require.Contains(t, out.String(), "Background refresh started")

	out.Reset()
	shell.dispatch(ctx, "start-scheduler")
	require.Contains(t, out.String(), "already running")

	require.NoError(t, shell.scheduler.Shutdown())
}
