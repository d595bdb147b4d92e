package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Data struct {
	Dir            string `mapstructure:"dir"`
	UsersFile      string `mapstructure:"users_file"`
	PortfoliosFile string `mapstructure:"portfolios_file"`
	RatesFile      string `mapstructure:"rates_file"`
	HistoryFile    string `mapstructure:"history_file"`
}

func (d *Data) UsersPath() string      { return filepath.Join(d.Dir, d.UsersFile) }
func (d *Data) PortfoliosPath() string { return filepath.Join(d.Dir, d.PortfoliosFile) }
func (d *Data) RatesPath() string      { return filepath.Join(d.Dir, d.RatesFile) }
func (d *Data) HistoryPath() string    { return filepath.Join(d.Dir, d.HistoryFile) }

type Logging struct {
	Level string `mapstructure:"level"`
}

type HTTPClient struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

func (c *HTTPClient) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type Rates struct {
	BaseCurrency string   `mapstructure:"base_currency"`
	TTLSeconds   int      `mapstructure:"ttl_seconds"`
	Fiat         []string `mapstructure:"fiat"`
}

func (r *Rates) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

type CoinGecko struct {
	URL string `mapstructure:"url"`
}

type ExchangeRate struct {
	APIURL      string `mapstructure:"api_url"`
	APIKey      string `mapstructure:"api_key"`
	FallbackURL string `mapstructure:"fallback_url"`
}

type Scheduler struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

func (s *Scheduler) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

type Auth struct {
	MinPasswordLength int `mapstructure:"min_password_length"`
}

type Cache struct {
	MaxItems int64 `mapstructure:"max_items"`
}

type AppConfig struct {
	Data         Data         `mapstructure:"data"`
	Logging      Logging      `mapstructure:"logging"`
	HTTPClient   HTTPClient   `mapstructure:"http_client"`
	Rates        Rates        `mapstructure:"rates"`
	CoinGecko    CoinGecko    `mapstructure:"coingecko"`
	ExchangeRate ExchangeRate `mapstructure:"exchangerate"`
	Scheduler    Scheduler    `mapstructure:"scheduler"`
	Auth         Auth         `mapstructure:"auth"`
	Cache        Cache        `mapstructure:"cache"`
}

// Init loads config.yaml and .env when present; every key has a default so
// the application runs with no config files at all.
func Init() (*AppConfig, error) {
	var cfg AppConfig

	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile("config.yaml")
	v.SetConfigType("yaml")
	if _, err := os.Stat("config.yaml"); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.users_file", "users.json")
	v.SetDefault("data.portfolios_file", "portfolios.json")
	v.SetDefault("data.rates_file", "rates.json")
	v.SetDefault("data.history_file", "exchange_rates.json")
	v.SetDefault("logging.level", "info")
	v.SetDefault("http_client.timeout_seconds", 10)
	v.SetDefault("http_client.user_agent", "valutatrade-hub/1.0")
	v.SetDefault("rates.base_currency", "USD")
	v.SetDefault("rates.ttl_seconds", 3600)
	v.SetDefault("rates.fiat", []string{"EUR", "GBP", "RUB"})
	v.SetDefault("coingecko.url", "https://api.coingecko.com/api/v3/simple/price")
	v.SetDefault("exchangerate.api_url", "https://v6.exchangerate-api.com/v6")
	v.SetDefault("exchangerate.fallback_url", "https://open.er-api.com/v6/latest")
	v.SetDefault("scheduler.interval_seconds", 300)
	v.SetDefault("auth.min_password_length", 4)
	v.SetDefault("cache.max_items", 1024)

	_ = v.BindEnv("data.dir", "DATA_DIR")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("http_client.timeout_seconds", "HTTP_CLIENT_TIMEOUT_SECONDS")
	_ = v.BindEnv("rates.ttl_seconds", "RATES_TTL_SECONDS")
	_ = v.BindEnv("exchangerate.api_key", "EXCHANGERATE_API_KEY")
	_ = v.BindEnv("scheduler.interval_seconds", "SCHEDULER_INTERVAL_SECONDS")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &cfg, nil
}
