package trading

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/neonstocks/portfolio-service/internal/models"
	"github.com/neonstocks/portfolio-service/internal/oracle"
	"github.com/neonstocks/portfolio-service/internal/store"
)

// Engine orchestrates the account store, the transaction log and the
// price resolver into atomic, invariant-preserving operations. It keeps
// no persistent state of its own.
//
// Every mutating operation runs under the account's lock, so the
// read-compute-write sequences here are race-free: two concurrent buys
// cannot both pass the sufficiency check against the same stale balance.
// Price resolution happens before the lock is taken; the price may be
// slightly stale by commit time, which is accepted.
type Engine struct {
	accounts *store.AccountStore
	ledger   *store.TransactionLog
	resolver *oracle.Resolver
	locks    *store.Locker
	log      zerolog.Logger
}

func NewEngine(accounts *store.AccountStore, ledger *store.TransactionLog, resolver *oracle.Resolver, log zerolog.Logger) *Engine {
	return &Engine{
		accounts: accounts,
		ledger:   ledger,
		resolver: resolver,
		locks:    store.NewLocker(),
		log:      log.With().Str("component", "engine").Logger(),
	}
}

// TradeResult summarizes one executed operation.
type TradeResult struct {
	TransactionID int64                  `json:"transaction_id"`
	AccountID     string                 `json:"account_id"`
	Kind          models.TransactionKind `json:"kind"`
	Symbol        string                 `json:"symbol,omitempty"`
	Quantity      int64                  `json:"quantity,omitempty"`
	Price         decimal.Decimal        `json:"price"`
	Total         decimal.Decimal        `json:"total"`
	NewBalance    decimal.Decimal        `json:"new_balance"`
	PriceQuality  oracle.Quality         `json:"price_quality,omitempty"`
}

// Deposit credits amount to the wallet and appends a ledger row.
func (e *Engine) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*TradeResult, error) {
	if !amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	e.locks.Lock(accountID)
	defer e.locks.Unlock(accountID)

	newBalance, err := e.accounts.ApplyDelta(ctx, accountID, amount, nil)
	if err != nil {
		return nil, err
	}

	rec := &models.TransactionRecord{
		AccountID: accountID,
		Kind:      models.KindDeposit,
		Price:     amount,
	}
	if err := e.append(ctx, rec); err != nil {
		return nil, err
	}

	e.log.Info().
		Str("account", accountID).
		Str("amount", amount.String()).
		Msg("Deposit executed")

	return &TradeResult{
		TransactionID: rec.ID,
		AccountID:     accountID,
		Kind:          models.KindDeposit,
		Price:         amount,
		Total:         amount,
		NewBalance:    newBalance,
	}, nil
}

// Buy purchases quantity shares of symbol at a price resolved under the
// given source policy, re-averaging the position's cost basis.
func (e *Engine) Buy(ctx context.Context, accountID, symbol string, quantity int64, source models.PriceSource) (*TradeResult, error) {
	if quantity <= 0 {
		return nil, models.ErrInvalidQuantity
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, models.ErrInvalidSymbol
	}

	// Resolve before locking so a slow oracle never blocks the account.
	price, quality, _ := e.resolver.Resolve(ctx, symbol, source)
	cost := price.Mul(decimal.NewFromInt(quantity))

	e.locks.Lock(accountID)
	defer e.locks.Unlock(accountID)

	balance, err := e.accounts.GetBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if cost.GreaterThan(balance) {
		return nil, models.ErrInsufficientFunds
	}

	update := store.PositionUpdate{Symbol: symbol, Quantity: quantity, AvgCost: price}
	existing, err := e.accounts.GetPosition(ctx, accountID, symbol)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		newQty := existing.Quantity + quantity
		held := existing.AvgCost.Mul(decimal.NewFromInt(existing.Quantity))
		added := price.Mul(decimal.NewFromInt(quantity))
		update.Quantity = newQty
		update.AvgCost = held.Add(added).Div(decimal.NewFromInt(newQty))
	}

	newBalance, err := e.accounts.ApplyDelta(ctx, accountID, cost.Neg(), &update)
	if err != nil {
		return nil, err
	}

	rec := &models.TransactionRecord{
		AccountID: accountID,
		Kind:      models.KindBuy,
		Symbol:    symbol,
		Quantity:  quantity,
		Price:     price,
	}
	if err := e.append(ctx, rec); err != nil {
		return nil, err
	}

	e.log.Info().
		Str("account", accountID).
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Str("price", price.String()).
		Str("quality", string(quality)).
		Msg("Buy executed")

	return &TradeResult{
		TransactionID: rec.ID,
		AccountID:     accountID,
		Kind:          models.KindBuy,
		Symbol:        symbol,
		Quantity:      quantity,
		Price:         price,
		Total:         cost,
		NewBalance:    newBalance,
		PriceQuality:  quality,
	}, nil
}

// Sell disposes quantity shares at the current oracle price. The average
// cost of the remaining shares is unchanged; selling the full quantity
// removes the position.
func (e *Engine) Sell(ctx context.Context, accountID, symbol string, quantity int64) (*TradeResult, error) {
	if quantity <= 0 {
		return nil, models.ErrInvalidQuantity
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, models.ErrInvalidSymbol
	}

	price, quality, _ := e.resolver.Resolve(ctx, symbol, models.SourceAuto)
	proceeds := price.Mul(decimal.NewFromInt(quantity))

	e.locks.Lock(accountID)
	defer e.locks.Unlock(accountID)

	position, err := e.accounts.GetPosition(ctx, accountID, symbol)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, models.ErrNoSuchPosition
	}
	if quantity > position.Quantity {
		return nil, models.ErrInsufficientShares
	}

	update := store.PositionUpdate{
		Symbol:   symbol,
		Quantity: position.Quantity - quantity,
		AvgCost:  position.AvgCost,
	}
	newBalance, err := e.accounts.ApplyDelta(ctx, accountID, proceeds, &update)
	if err != nil {
		return nil, err
	}

	rec := &models.TransactionRecord{
		AccountID: accountID,
		Kind:      models.KindSell,
		Symbol:    symbol,
		Quantity:  quantity,
		Price:     price,
	}
	if err := e.append(ctx, rec); err != nil {
		return nil, err
	}

	e.log.Info().
		Str("account", accountID).
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Str("price", price.String()).
		Str("quality", string(quality)).
		Msg("Sell executed")

	return &TradeResult{
		TransactionID: rec.ID,
		AccountID:     accountID,
		Kind:          models.KindSell,
		Symbol:        symbol,
		Quantity:      quantity,
		Price:         price,
		Total:         proceeds,
		NewBalance:    newBalance,
		PriceQuality:  quality,
	}, nil
}

// append writes the ledger row for an already-committed mutation. A
// failure here means the store and the ledger have diverged; that is
// surfaced as an error and logged loudly, never ignored.
func (e *Engine) append(ctx context.Context, rec *models.TransactionRecord) error {
	if err := e.ledger.Append(ctx, rec); err != nil {
		e.log.Error().
			Err(err).
			Str("account", rec.AccountID).
			Str("kind", string(rec.Kind)).
			Bool("ledger_divergence", true).
			Msg("Mutation committed but ledger append failed")
		return fmt.Errorf("ledger append after %s: %w", rec.Kind, err)
	}
	return nil
}
