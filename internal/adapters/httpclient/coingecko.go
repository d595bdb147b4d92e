package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
)

const coinGeckoSource = "CoinGecko"

// CoinGeckoAliases are the selection aliases accepted by
// 'update-rates --source' for this provider.
var CoinGeckoAliases = []string{"coingecko"}

// DefaultCryptoIDs maps currency codes to CoinGecko asset identifiers.
var DefaultCryptoIDs = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
	"SOL": "solana",
}

// CoinGeckoClient fetches crypto quotes against one base fiat currency.
// The response is keyed by provider-internal asset ids, e.g.
// {"bitcoin": {"usd": 59337.21}}.
type CoinGeckoClient struct {
	http      *http.Client
	baseURL   string
	userAgent string
	base      string            // quoting fiat currency, USD
	idByCode  map[string]string // currency code -> CoinGecko asset id
}

func NewCoinGeckoClient(httpClient *http.Client, baseURL, userAgent, baseCurrency string, idByCode map[string]string) *CoinGeckoClient {
	return &CoinGeckoClient{
		http:      httpClient,
		baseURL:   baseURL,
		userAgent: userAgent,
		base:      strings.ToUpper(baseCurrency),
		idByCode:  idByCode,
	}
}

func (c *CoinGeckoClient) Name() string { return coinGeckoSource }

func (c *CoinGeckoClient) Fetch(ctx context.Context) (map[string]domain.Quote, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, &domain.ProviderError{Source: coinGeckoSource, Reason: "invalid base URL", Err: err}
	}

	q := u.Query()
	q.Set("ids", strings.Join(c.sortedIDs(), ","))
	q.Set("vs_currencies", strings.ToLower(c.base))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &domain.ProviderError{Source: coinGeckoSource, Reason: "create request", Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Source: coinGeckoSource, Reason: "execute request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.ProviderError{
			Source: coinGeckoSource,
			Reason: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	var body map[string]map[string]float64
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &domain.ProviderError{Source: coinGeckoSource, Reason: "decode response", Err: err}
	}

	ts := domain.FormatTime(time.Now())
	result := make(map[string]domain.Quote, 2*len(c.idByCode))

	for code, rawID := range c.idByCode {
		rate, ok := body[rawID][strings.ToLower(c.base)]
		if !ok {
			continue
		}
		meta := map[string]any{"raw_id": rawID, "status_code": resp.StatusCode}

		direct := domain.Quote{
			From: code, To: c.base,
			Rate:      rate,
			Source:    coinGeckoSource,
			FetchedAt: ts,
			Meta:      meta,
		}
		inverse := domain.Quote{
			From: c.base, To: code,
			Rate:      domain.InverseRate(rate),
			Source:    coinGeckoSource,
			FetchedAt: ts,
			Meta:      meta,
		}
		result[direct.PairKey()] = direct
		result[inverse.PairKey()] = inverse
	}

	if len(result) == 0 {
		return nil, &domain.ProviderError{
			Source: coinGeckoSource,
			Reason: "response contains no known asset identifiers",
		}
	}
	return result, nil
}

func (c *CoinGeckoClient) sortedIDs() []string {
	ids := make([]string, 0, len(c.idByCode))
	for _, id := range c.idByCode {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
