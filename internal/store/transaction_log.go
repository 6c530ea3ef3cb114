package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/neonstocks/portfolio-service/internal/db"
	"github.com/neonstocks/portfolio-service/internal/models"
)

// TransactionLog is the durable append-only ledger. Rows are never
// updated or deleted; order within an account is the insertion order.
type TransactionLog struct {
	db  *db.DB
	log zerolog.Logger
}

func NewTransactionLog(database *db.DB, log zerolog.Logger) *TransactionLog {
	return &TransactionLog{
		db:  database,
		log: log.With().Str("repo", "transactions").Logger(),
	}
}

// Append inserts one ledger row and fills in its assigned id. Deposits
// carry the amount in the price column with NULL symbol and quantity.
func (l *TransactionLog) Append(ctx context.Context, rec *models.TransactionRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	symbol := sql.NullString{String: rec.Symbol, Valid: rec.Symbol != ""}
	quantity := sql.NullInt64{Int64: rec.Quantity, Valid: rec.Kind != models.KindDeposit}

	err := l.db.QueryRowContext(ctx, l.db.Rebind(`
		INSERT INTO transactions (account_id, kind, symbol, quantity, price, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`),
		rec.AccountID,
		string(rec.Kind),
		symbol,
		quantity,
		rec.Price.String(),
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	l.log.Debug().
		Int64("id", rec.ID).
		Str("account", rec.AccountID).
		Str("kind", string(rec.Kind)).
		Msg("Transaction appended")
	return nil
}

// ListFor returns all ledger rows of an account, most recent first.
func (l *TransactionLog) ListFor(ctx context.Context, accountID string) ([]models.TransactionRecord, error) {
	rows, err := l.db.QueryContext(ctx, l.db.Rebind(`
		SELECT id, account_id, kind, symbol, quantity, price, timestamp
		FROM transactions
		WHERE account_id = ?
		ORDER BY id DESC
	`), accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	records := make([]models.TransactionRecord, 0)
	for rows.Next() {
		var rec models.TransactionRecord
		var kind, price, timestamp string
		var symbol sql.NullString
		var quantity sql.NullInt64

		if err := rows.Scan(&rec.ID, &rec.AccountID, &kind, &symbol, &quantity, &price, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		rec.Kind = models.TransactionKind(kind)
		rec.Symbol = symbol.String
		rec.Quantity = quantity.Int64
		rec.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("bad price in transaction %d: %w", rec.ID, err)
		}
		rec.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("bad timestamp in transaction %d: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return records, nil
}
