package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
)

const exchangeRateSource = "ExchangeRate-API"

// ExchangeRateAliases are the selection aliases accepted by
// 'update-rates --source' for this provider.
var ExchangeRateAliases = []string{"exchangerate", "exchange_rate", "exchange-rate", "exchangerate-api"}

// ExchangeRateClient fetches fiat rates relative to one base currency.
// With an API key it calls the keyed endpoint ({base_url}/{key}/latest/{code},
// responding with "conversion_rates"); without one it falls back to the
// public endpoint ({fallback_url}/{code}, responding with "rates").
type ExchangeRateClient struct {
	http        *http.Client
	apiURL      string
	fallbackURL string
	apiKey      string
	userAgent   string
	base        string
	fiatCodes   []string
}

func NewExchangeRateClient(httpClient *http.Client, apiURL, fallbackURL, apiKey, userAgent, baseCurrency string, fiatCodes []string) *ExchangeRateClient {
	return &ExchangeRateClient{
		http:        httpClient,
		apiURL:      strings.TrimSuffix(apiURL, "/"),
		fallbackURL: strings.TrimSuffix(fallbackURL, "/"),
		apiKey:      apiKey,
		userAgent:   userAgent,
		base:        strings.ToUpper(baseCurrency),
		fiatCodes:   fiatCodes,
	}
}

func (c *ExchangeRateClient) Name() string { return exchangeRateSource }

type exchangeRateResponse struct {
	Rates           map[string]float64 `json:"rates"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func (c *ExchangeRateClient) Fetch(ctx context.Context) (map[string]domain.Quote, error) {
	endpoint := c.fallbackURL + "/" + c.base
	if c.apiKey != "" {
		endpoint = c.apiURL + "/" + c.apiKey + "/latest/" + c.base
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &domain.ProviderError{Source: exchangeRateSource, Reason: "create request", Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Source: exchangeRateSource, Reason: "execute request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.ProviderError{
			Source: exchangeRateSource,
			Reason: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	var body exchangeRateResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &domain.ProviderError{Source: exchangeRateSource, Reason: "decode response", Err: err}
	}

	rates := body.Rates
	if len(rates) == 0 {
		rates = body.ConversionRates
	}
	if len(rates) == 0 {
		return nil, &domain.ProviderError{Source: exchangeRateSource, Reason: "response is missing 'rates'"}
	}

	ts := domain.FormatTime(time.Now())
	result := make(map[string]domain.Quote, 2*len(c.fiatCodes))

	for _, code := range c.fiatCodes {
		code = strings.ToUpper(code)
		if code == c.base {
			continue
		}
		rate, ok := rates[code]
		if !ok {
			continue
		}
		meta := map[string]any{"status_code": resp.StatusCode}

		direct := domain.Quote{
			From: c.base, To: code,
			Rate:      rate,
			Source:    exchangeRateSource,
			FetchedAt: ts,
			Meta:      meta,
		}
		inverse := domain.Quote{
			From: code, To: c.base,
			Rate:      domain.InverseRate(rate),
			Source:    exchangeRateSource,
			FetchedAt: ts,
			Meta:      meta,
		}
		result[direct.PairKey()] = direct
		result[inverse.PairKey()] = inverse
	}

	return result, nil
}
