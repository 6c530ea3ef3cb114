package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Yahoo Finance v8 chart provider (cached)

var (
	ErrNoResult     = errors.New("yahoo: no result")
	ErrNoMarketData = errors.New("yahoo: no market data")
)

type cachedQuote struct {
	price   decimal.Decimal
	fetched time.Time
}

// YahooClient quotes prices from the Yahoo Finance chart API. Quotes are
// cached for a short TTL so bursts of valuations do not hammer the API.
type YahooClient struct {
	cli     *http.Client
	baseURL string
	ttl     time.Duration
	mu      sync.RWMutex
	cache   map[string]cachedQuote
}

// NewYahooClient creates a client with a 60s quote cache.
func NewYahooClient() *YahooClient {
	return &YahooClient{
		cli:     &http.Client{Timeout: 8 * time.Second},
		baseURL: "https://query2.finance.yahoo.com",
		ttl:     60 * time.Second,
		cache:   make(map[string]cachedQuote),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []float64 `json:"open"`
					High  []float64 `json:"high"`
					Low   []float64 `json:"low"`
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// Quote implements PriceOracle.
func (c *YahooClient) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return decimal.Zero, ErrNoMarketData
	}

	c.mu.RLock()
	if cached, ok := c.cache[symbol]; ok && time.Since(cached.fetched) < c.ttl {
		c.mu.RUnlock()
		return cached.price, nil
	}
	c.mu.RUnlock()

	raw, err := c.fetchChart(ctx, symbol, "1d", "1m")
	if err != nil {
		return decimal.Zero, err
	}

	r := raw.Chart.Result[0]
	price := r.Meta.RegularMarketPrice

	// Fall back to the last non-zero close if meta is missing.
	if price <= 0 && len(r.Indicators.Quote) > 0 {
		closes := r.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] > 0 {
				price = closes[i]
				break
			}
		}
	}
	if price <= 0 {
		return decimal.Zero, ErrNoMarketData
	}

	dec := decimal.NewFromFloat(price)
	c.mu.Lock()
	c.cache[symbol] = cachedQuote{price: dec, fetched: time.Now()}
	c.mu.Unlock()

	return dec, nil
}

// Candle is one OHLC bar of daily history.
type Candle struct {
	Timestamp int64   `json:"t"` // unix millis
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
}

var validPeriods = map[string]bool{"1mo": true, "3mo": true, "6mo": true, "1y": true}

// Candles returns daily OHLC history for charting. Period is one of
// 1mo, 3mo, 6mo, 1y; anything else defaults to 1mo.
func (c *YahooClient) Candles(ctx context.Context, symbol, period string) ([]Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrNoMarketData
	}
	if !validPeriods[period] {
		period = "1mo"
	}

	raw, err := c.fetchChart(ctx, symbol, period, "1d")
	if err != nil {
		return nil, err
	}

	r := raw.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, ErrNoMarketData
	}
	q := r.Indicators.Quote[0]

	candles := make([]Candle, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(q.Open) || i >= len(q.High) || i >= len(q.Low) || i >= len(q.Close) {
			break
		}
		if q.Close[i] <= 0 {
			continue
		}
		candles = append(candles, Candle{
			Timestamp: ts * 1000,
			Open:      q.Open[i],
			High:      q.High[i],
			Low:       q.Low[i],
			Close:     q.Close[i],
		})
	}
	return candles, nil
}

func (c *YahooClient) fetchChart(ctx context.Context, symbol, rng, interval string) (*chartResponse, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s", c.baseURL, symbol, interval, rng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "portfolio-service/1.0")

	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo http %d", resp.StatusCode)
	}

	var raw chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	if len(raw.Chart.Result) == 0 {
		return nil, ErrNoResult
	}
	return &raw, nil
}
