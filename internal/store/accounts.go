package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/neonstocks/portfolio-service/internal/db"
	"github.com/neonstocks/portfolio-service/internal/models"
)

// PositionUpdate describes the position change applied together with a
// balance delta. Quantity is the new absolute quantity; 0 deletes the
// position (a position with quantity 0 does not exist).
type PositionUpdate struct {
	Symbol   string
	Quantity int64
	AvgCost  decimal.Decimal
}

// AccountStore is the durable keyed storage for wallet balances and
// positions. ApplyDelta is the single mutating entry point.
type AccountStore struct {
	db  *db.DB
	log zerolog.Logger
}

func NewAccountStore(database *db.DB, log zerolog.Logger) *AccountStore {
	return &AccountStore{
		db:  database,
		log: log.With().Str("repo", "accounts").Logger(),
	}
}

// CreateAccount creates an account and its zero-balance wallet.
func (s *AccountStore) CreateAccount(ctx context.Context, displayName string) (*models.Account, error) {
	account := &models.Account{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		s.db.Rebind("INSERT INTO accounts (id, display_name, created_at) VALUES (?, ?, ?)"),
		account.ID, account.DisplayName, account.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		s.db.Rebind("INSERT INTO wallets (account_id, balance) VALUES (?, ?)"),
		account.ID, decimal.Zero.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert wallet: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit account creation: %w", err)
	}

	s.log.Info().Str("account", account.ID).Str("name", displayName).Msg("Account created")
	return account, nil
}

// GetAccount returns one account by id.
func (s *AccountStore) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	var account models.Account
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		s.db.Rebind("SELECT id, display_name, created_at FROM accounts WHERE id = ?"),
		accountID,
	).Scan(&account.ID, &account.DisplayName, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("bad created_at for account %s: %w", accountID, err)
	}
	return &account, nil
}

// GetBalance returns the wallet balance for an account.
func (s *AccountStore) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind("SELECT balance FROM wallets WHERE account_id = ?"),
		accountID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, models.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad balance for account %s: %w", accountID, err)
	}
	return balance, nil
}

// GetPosition returns the position for a symbol, or nil when absent.
func (s *AccountStore) GetPosition(ctx context.Context, accountID, symbol string) (*models.Position, error) {
	row := s.db.QueryRowContext(ctx,
		s.db.Rebind("SELECT account_id, symbol, quantity, avg_cost FROM positions WHERE account_id = ? AND symbol = ?"),
		accountID, symbol,
	)
	pos, err := scanPosition(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return &pos, nil
}

// ListPositions returns all positions of an account, ordered by symbol.
func (s *AccountStore) ListPositions(ctx context.Context, accountID string) ([]models.Position, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind("SELECT account_id, symbol, quantity, avg_cost FROM positions WHERE account_id = ? ORDER BY symbol"),
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := make([]models.Position, 0)
	for rows.Next() {
		pos, err := scanPosition(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return positions, nil
}

// ApplyDelta applies a balance change and an optional position change as
// one atomic unit. The balance check and the mutation run inside the same
// SQL transaction, so a concurrent writer can never overdraw the wallet.
// Returns the committed balance.
func (s *AccountStore) ApplyDelta(ctx context.Context, accountID string, balanceDelta decimal.Decimal, update *PositionUpdate) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		s.db.Rebind("SELECT balance FROM wallets WHERE account_id = ?")+s.db.ForUpdate(),
		accountID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, models.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad balance for account %s: %w", accountID, err)
	}

	newBalance := balance.Add(balanceDelta)
	if newBalance.IsNegative() {
		return decimal.Zero, models.ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx,
		s.db.Rebind("UPDATE wallets SET balance = ? WHERE account_id = ?"),
		newBalance.String(), accountID,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to update balance: %w", err)
	}

	if update != nil {
		if update.Quantity == 0 {
			_, err = tx.ExecContext(ctx,
				s.db.Rebind("DELETE FROM positions WHERE account_id = ? AND symbol = ?"),
				accountID, update.Symbol,
			)
		} else {
			_, err = tx.ExecContext(ctx, s.db.Rebind(`
				INSERT INTO positions (account_id, symbol, quantity, avg_cost)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (account_id, symbol)
				DO UPDATE SET quantity = excluded.quantity, avg_cost = excluded.avg_cost
			`), accountID, update.Symbol, update.Quantity, update.AvgCost.String())
		}
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to update position: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit delta: %w", err)
	}
	return newBalance, nil
}

func scanPosition(scan func(...any) error) (models.Position, error) {
	var pos models.Position
	var avgCost string
	if err := scan(&pos.AccountID, &pos.Symbol, &pos.Quantity, &avgCost); err != nil {
		return models.Position{}, err
	}
	var err error
	pos.AvgCost, err = decimal.NewFromString(avgCost)
	if err != nil {
		return models.Position{}, fmt.Errorf("bad avg_cost for %s: %w", pos.Symbol, err)
	}
	return pos, nil
}
