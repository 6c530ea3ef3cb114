package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neonstocks/portfolio-service/internal/db"
	"github.com/neonstocks/portfolio-service/internal/models"
	"github.com/neonstocks/portfolio-service/internal/oracle"
	"github.com/neonstocks/portfolio-service/internal/store"
)

// selectiveOracle quotes only the symbols it knows and errors on the rest.
type selectiveOracle struct {
	prices map[string]decimal.Decimal
}

func (s *selectiveOracle) Quote(_ context.Context, symbol string) (decimal.Decimal, error) {
	if price, ok := s.prices[symbol]; ok {
		return price, nil
	}
	return decimal.Zero, errors.New("no quote")
}

func newTestValuation(t *testing.T, o oracle.PriceOracle) (*Valuation, *store.AccountStore, string) {
	t.Helper()

	database := db.SetupTestDB(t)
	log := zerolog.Nop()
	accounts := store.NewAccountStore(database, log)
	resolver := oracle.NewResolver(o, oracle.DefaultFallbackPrices(), time.Second, log)

	account, err := accounts.CreateAccount(context.Background(), "Valuation Tester")
	require.NoError(t, err)

	return NewValuation(accounts, resolver, log), accounts, account.ID
}

func seedPosition(t *testing.T, accounts *store.AccountStore, accountID, symbol string, qty int64, avgCost int64) {
	t.Helper()
	_, err := accounts.ApplyDelta(context.Background(), accountID, decimal.Zero, &store.PositionUpdate{
		Symbol: symbol, Quantity: qty, AvgCost: decimal.NewFromInt(avgCost),
	})
	require.NoError(t, err)
}

func TestComputeEmptyPortfolio(t *testing.T) {
	v, accounts, id := newTestValuation(t, &selectiveOracle{})
	ctx := context.Background()

	_, err := accounts.ApplyDelta(ctx, id, decimal.NewFromInt(500), nil)
	require.NoError(t, err)

	view, err := v.Compute(ctx, id)
	require.NoError(t, err)
	assert.True(t, view.CashBalance.Equal(decimal.NewFromInt(500)))
	assert.Empty(t, view.Positions)
	assert.True(t, view.TotalValue.IsZero())
	assert.True(t, view.TotalPL.IsZero())
}

func TestComputeValuesAndTotals(t *testing.T) {
	v, accounts, id := newTestValuation(t, &selectiveOracle{prices: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(200),
		"TSLA": decimal.NewFromInt(240),
	}})
	ctx := context.Background()

	seedPosition(t, accounts, id, "AAPL", 5, 180)
	seedPosition(t, accounts, id, "TSLA", 2, 250)

	view, err := v.Compute(ctx, id)
	require.NoError(t, err)
	require.Len(t, view.Positions, 2)

	aapl := view.Positions[0]
	assert.Equal(t, "AAPL", aapl.Symbol)
	assert.True(t, aapl.Value.Equal(decimal.NewFromInt(1000)))
	assert.True(t, aapl.CostBasis.Equal(decimal.NewFromInt(900)))
	assert.True(t, aapl.ProfitLoss.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, oracle.QualityLive, aapl.PriceQuality)

	tsla := view.Positions[1]
	assert.True(t, tsla.ProfitLoss.Equal(decimal.NewFromInt(-20)))

	assert.True(t, view.TotalValue.Equal(decimal.NewFromInt(1480)))
	assert.True(t, view.TotalCost.Equal(decimal.NewFromInt(1400)))
	assert.True(t, view.TotalPL.Equal(decimal.NewFromInt(80)))
	// P/L identity holds for the totals too
	assert.True(t, view.TotalPL.Equal(view.TotalValue.Sub(view.TotalCost)))
}

func TestComputeDegradesPerSymbol(t *testing.T) {
	// Oracle knows AAPL only; MSFT degrades to its table price
	v, accounts, id := newTestValuation(t, &selectiveOracle{prices: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(200),
	}})
	ctx := context.Background()

	seedPosition(t, accounts, id, "AAPL", 1, 180)
	seedPosition(t, accounts, id, "MSFT", 1, 300)

	view, err := v.Compute(ctx, id)
	require.NoError(t, err)
	require.Len(t, view.Positions, 2)

	assert.Equal(t, oracle.QualityLive, view.Positions[0].PriceQuality)
	assert.Equal(t, oracle.QualityFallback, view.Positions[1].PriceQuality)
	assert.True(t, view.Positions[1].Price.Equal(decimal.NewFromInt(320)))
}

func TestComputeUnknownAccount(t *testing.T) {
	v, _, _ := newTestValuation(t, &selectiveOracle{})

	_, err := v.Compute(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestComputeIsIdempotent(t *testing.T) {
	v, accounts, id := newTestValuation(t, &selectiveOracle{prices: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(195),
	}})
	ctx := context.Background()

	seedPosition(t, accounts, id, "AAPL", 3, 180)

	first, err := v.Compute(ctx, id)
	require.NoError(t, err)
	second, err := v.Compute(ctx, id)
	require.NoError(t, err)

	assert.True(t, first.TotalValue.Equal(second.TotalValue))
	assert.True(t, first.TotalPL.Equal(second.TotalPL))
	assert.Equal(t, first.Positions, second.Positions)
}

func TestProfitDataShape(t *testing.T) {
	v, accounts, id := newTestValuation(t, &selectiveOracle{prices: map[string]decimal.Decimal{
		"AAPL": decimal.RequireFromString("190.505"),
		"TSLA": decimal.NewFromInt(240),
	}})
	ctx := context.Background()

	seedPosition(t, accounts, id, "AAPL", 2, 180)
	seedPosition(t, accounts, id, "TSLA", 1, 250)

	data, err := v.ProfitData(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "TSLA"}, data.Labels)
	require.Len(t, data.Data, 2)
	// 2 * (190.505 - 180) = 21.01, rounded to cents
	assert.InDelta(t, 21.01, data.Data[0], 0.001)
	assert.InDelta(t, -10.0, data.Data[1], 0.001)
}
