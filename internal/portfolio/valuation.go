package portfolio

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/neonstocks/portfolio-service/internal/models"
	"github.com/neonstocks/portfolio-service/internal/oracle"
	"github.com/neonstocks/portfolio-service/internal/store"
)

// PositionView is one valued holding.
type PositionView struct {
	Symbol       string          `json:"symbol"`
	Quantity     int64           `json:"quantity"`
	AvgCost      decimal.Decimal `json:"avg_cost"`
	Price        decimal.Decimal `json:"price"`
	Value        decimal.Decimal `json:"value"`
	CostBasis    decimal.Decimal `json:"cost_basis"`
	ProfitLoss   decimal.Decimal `json:"profit_loss"`
	PriceQuality oracle.Quality  `json:"price_quality"`
}

// View is the full portfolio view model.
type View struct {
	AccountID   string          `json:"account_id"`
	CashBalance decimal.Decimal `json:"cash_balance"`
	Positions   []PositionView  `json:"positions"`
	TotalValue  decimal.Decimal `json:"total_value"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	TotalPL     decimal.Decimal `json:"total_pl"`
}

// ProfitData is the per-holding P/L series for charting.
type ProfitData struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// Valuation derives portfolio views from store state and fresh prices.
// It is read-only and side-effect-free: computing the same state against
// the same oracle responses yields identical output.
type Valuation struct {
	accounts *store.AccountStore
	resolver *oracle.Resolver
	log      zerolog.Logger
}

func NewValuation(accounts *store.AccountStore, resolver *oracle.Resolver, log zerolog.Logger) *Valuation {
	return &Valuation{
		accounts: accounts,
		resolver: resolver,
		log:      log.With().Str("component", "valuation").Logger(),
	}
}

// Compute values every position at its current price. An oracle failure
// on one symbol degrades only that entry to its fallback price; other
// symbols are unaffected.
func (v *Valuation) Compute(ctx context.Context, accountID string) (*View, error) {
	balance, err := v.accounts.GetBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	positions, err := v.accounts.ListPositions(ctx, accountID)
	if err != nil {
		return nil, err
	}

	view := &View{
		AccountID:   accountID,
		CashBalance: balance,
		Positions:   make([]PositionView, 0, len(positions)),
		TotalValue:  decimal.Zero,
		TotalCost:   decimal.Zero,
		TotalPL:     decimal.Zero,
	}

	for _, pos := range positions {
		price, quality, _ := v.resolver.Resolve(ctx, pos.Symbol, models.SourceAuto)
		qty := decimal.NewFromInt(pos.Quantity)
		value := price.Mul(qty)
		costBasis := pos.AvgCost.Mul(qty)
		pl := value.Sub(costBasis)

		view.Positions = append(view.Positions, PositionView{
			Symbol:       pos.Symbol,
			Quantity:     pos.Quantity,
			AvgCost:      pos.AvgCost,
			Price:        price,
			Value:        value,
			CostBasis:    costBasis,
			ProfitLoss:   pl,
			PriceQuality: quality,
		})
		view.TotalValue = view.TotalValue.Add(value)
		view.TotalCost = view.TotalCost.Add(costBasis)
		view.TotalPL = view.TotalPL.Add(pl)
	}

	return view, nil
}

// ProfitData returns per-holding P/L rounded to 2 decimal places, in the
// shape the chart on the frontend consumes.
func (v *Valuation) ProfitData(ctx context.Context, accountID string) (*ProfitData, error) {
	view, err := v.Compute(ctx, accountID)
	if err != nil {
		return nil, err
	}

	data := &ProfitData{
		Labels: make([]string, 0, len(view.Positions)),
		Data:   make([]float64, 0, len(view.Positions)),
	}
	for _, pos := range view.Positions {
		data.Labels = append(data.Labels, pos.Symbol)
		data.Data = append(data.Data, pos.ProfitLoss.Round(2).InexactFloat64())
	}
	return data, nil
}
