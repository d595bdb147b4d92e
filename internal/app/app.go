package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/adapters/cache"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/adapters/httpclient"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/adapters/jsonstore"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/auth"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/cli"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/config"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/portfolio"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/rate"
)

// Run wires the application components and hands control to the
// interactive shell. The scheduler is created stopped; the user starts it
// with 'start-scheduler'.
func Run() error {
	appCfg, err := config.Init()
	if err != nil {
		return err
	}

	// Logger
	logrus.SetOutput(os.Stdout)
	if parsedLvl, parseErr := logrus.ParseLevel(appCfg.Logging.Level); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.Info("Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// File-backed stores
	users := jsonstore.NewUserStore(appCfg.Data.UsersPath())
	portfolios := jsonstore.NewPortfolioStore(appCfg.Data.PortfoliosPath())
	snapshots := jsonstore.NewSnapshotStore(appCfg.Data.RatesPath())
	history := jsonstore.NewHistoryStore(appCfg.Data.HistoryPath())

	// Base HTTP client (configurable timeout)
	httpTimeout := appCfg.HTTPClient.Timeout()
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	baseHTTPClient := &http.Client{Timeout: httpTimeout}

	// External quote providers
	coinGecko := httpclient.NewCoinGeckoClient(
		baseHTTPClient,
		appCfg.CoinGecko.URL,
		appCfg.HTTPClient.UserAgent,
		appCfg.Rates.BaseCurrency,
		httpclient.DefaultCryptoIDs,
	)
	exchangeRate := httpclient.NewExchangeRateClient(
		baseHTTPClient,
		appCfg.ExchangeRate.APIURL,
		appCfg.ExchangeRate.FallbackURL,
		appCfg.ExchangeRate.APIKey,
		appCfg.HTTPClient.UserAgent,
		appCfg.Rates.BaseCurrency,
		appCfg.Rates.Fiat,
	)

	// Refresh pipeline
	updater := rate.NewUpdater(snapshots, history)
	updater.Register(coinGecko, httpclient.CoinGeckoAliases...)
	updater.Register(exchangeRate, httpclient.ExchangeRateAliases...)

	// Memoized lookup cache
	rateCache, err := cache.NewRateCache(appCfg.Cache.MaxItems)
	if err != nil {
		logrus.WithError(err).Error("Failed to create rate cache")
		return err
	}
	defer rateCache.Close()

	// Services. The scheduler drives the service, not the updater, so
	// scheduled refreshes invalidate the lookup cache too.
	rateService := rate.NewService(snapshots, updater, rateCache, appCfg.Rates.TTL())
	scheduler := rate.NewScheduler(rateService, appCfg.Scheduler.Interval())
	defer func() {
		if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
		}
	}()

	authService := auth.NewService(users, portfolios, appCfg.Rates.BaseCurrency, appCfg.Auth.MinPasswordLength)
	portfolioService := portfolio.NewService(portfolios, rateService, appCfg.Rates.BaseCurrency)

	logrus.Info("Starting interactive shell")
	shell := cli.NewShell(authService, portfolioService, rateService, scheduler)
	if shellErr := shell.Run(ctx); shellErr != nil && ctx.Err() == nil {
		logrus.Errorf("Shell error: %v", shellErr)
		return shellErr
	}
	return nil
}
