package oracle

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeYahoo(t *testing.T, handler http.HandlerFunc) *YahooClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &YahooClient{
		cli:     srv.Client(),
		baseURL: srv.URL,
		ttl:     time.Minute,
		cache:   make(map[string]cachedQuote),
	}
}

func chartBody(meta float64, timestamps []int64, closes []float64) string {
	ts := "["
	closeStr := "["
	openStr := "["
	for i := range timestamps {
		if i > 0 {
			ts += ","
			closeStr += ","
			openStr += ","
		}
		ts += fmt.Sprintf("%d", timestamps[i])
		closeStr += fmt.Sprintf("%g", closes[i])
		openStr += fmt.Sprintf("%g", closes[i])
	}
	ts += "]"
	closeStr += "]"
	openStr += "]"

	return fmt.Sprintf(`{"chart":{"result":[{
		"meta":{"regularMarketPrice":%g},
		"timestamp":%s,
		"indicators":{"quote":[{"open":%s,"high":%s,"low":%s,"close":%s}]}
	}],"error":null}}`, meta, ts, openStr, openStr, openStr, closeStr)
}

func TestQuoteUsesMetaPrice(t *testing.T) {
	hits := 0
	c := newFakeYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, chartBody(189.5, []int64{1700000000}, []float64{188.0}))
	})

	price, err := c.Quote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(189.5)))

	// Second call within the TTL is served from cache
	_, err = c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestQuoteFallsBackToLastClose(t *testing.T) {
	c := newFakeYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody(0, []int64{1, 2, 3}, []float64{101, 102, 0}))
	})

	price, err := c.Quote(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(102)))
}

func TestQuoteNoMarketData(t *testing.T) {
	c := newFakeYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody(0, nil, nil))
	})

	_, err := c.Quote(context.Background(), "MSFT")
	assert.ErrorIs(t, err, ErrNoMarketData)
}

func TestQuoteEmptyResult(t *testing.T) {
	c := newFakeYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":{"code":"Not Found"}}}`)
	})

	_, err := c.Quote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestQuoteHTTPError(t *testing.T) {
	c := newFakeYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Quote(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestCandlesSkipsEmptyBars(t *testing.T) {
	var gotRange string
	c := newFakeYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.URL.Query().Get("range")
		fmt.Fprint(w, chartBody(100, []int64{10, 20, 30}, []float64{50, 0, 52}))
	})

	candles, err := c.Candles(context.Background(), "AAPL", "3mo")
	require.NoError(t, err)
	assert.Equal(t, "3mo", gotRange)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(10000), candles[0].Timestamp) // millis
	assert.Equal(t, 50.0, candles[0].Close)
	assert.Equal(t, 52.0, candles[1].Close)
}

func TestCandlesDefaultsBadPeriod(t *testing.T) {
	var gotRange string
	c := newFakeYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.URL.Query().Get("range")
		fmt.Fprint(w, chartBody(100, []int64{10}, []float64{50}))
	})

	_, err := c.Candles(context.Background(), "AAPL", "42y")
	require.NoError(t, err)
	assert.Equal(t, "1mo", gotRange)
}
