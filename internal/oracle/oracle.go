package oracle

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/neonstocks/portfolio-service/internal/models"
)

// PriceOracle returns the current market price for a symbol. It is
// treated as an untrusted, possibly slow, possibly failing service.
type PriceOracle interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Quality tags how a resolved price was obtained.
type Quality string

const (
	QualityLive     Quality = "live"     // fresh oracle quote
	QualityFallback Quality = "fallback" // static reference table
	QualityUnpriced Quality = "unpriced" // no quote, no table entry: price 0
)

// DefaultFallbackPrices returns the static reference table used when the
// oracle cannot be reached.
func DefaultFallbackPrices() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"AAPL":  decimal.NewFromInt(180),
		"TSLA":  decimal.NewFromInt(250),
		"GOOGL": decimal.NewFromInt(140),
		"AMZN":  decimal.NewFromInt(155),
		"MSFT":  decimal.NewFromInt(320),
		"META":  decimal.NewFromInt(220),
	}
}

// ReferenceSymbols lists the fallback-table symbols in stable order.
func ReferenceSymbols(fallback map[string]decimal.Decimal) []string {
	symbols := make([]string, 0, len(fallback))
	for s := range fallback {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Resolver applies the price-source policy: "auto" and "live" ask the
// oracle and fall back to the reference table on failure; "fixed" reads
// the table directly. A symbol unknown to the table resolves to price 0
// tagged unpriced, with ErrPriceUnavailable so callers can tell the
// degraded result apart from a normal quote.
type Resolver struct {
	oracle   PriceOracle
	fallback map[string]decimal.Decimal
	timeout  time.Duration
	log      zerolog.Logger
}

// NewResolver creates a resolver. The timeout bounds each oracle call so
// a slow quote cannot block the per-account critical path indefinitely.
func NewResolver(o PriceOracle, fallback map[string]decimal.Decimal, timeout time.Duration, log zerolog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{
		oracle:   o,
		fallback: fallback,
		timeout:  timeout,
		log:      log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve returns the price for symbol under the given source policy.
func (r *Resolver) Resolve(ctx context.Context, symbol string, source models.PriceSource) (decimal.Decimal, Quality, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if source == models.SourceAuto || source == models.SourceLive || source == "" {
		quoteCtx, cancel := context.WithTimeout(ctx, r.timeout)
		price, err := r.oracle.Quote(quoteCtx, symbol)
		cancel()
		if err == nil {
			return price, QualityLive, nil
		}
		r.log.Warn().
			Err(err).
			Str("symbol", symbol).
			Msg("Oracle quote failed, using fallback table")
	}

	if price, ok := r.fallback[symbol]; ok {
		return price, QualityFallback, nil
	}

	r.log.Warn().Str("symbol", symbol).Msg("Symbol missing from fallback table, priced at zero")
	return decimal.Zero, QualityUnpriced, models.ErrPriceUnavailable
}
