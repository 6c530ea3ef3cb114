package db

import "fmt"

// Migrate creates the ledger schema. Monetary columns are stored as
// decimal strings so values round-trip exactly on both engines.
func (db *DB) Migrate() error {
	idCol := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.driver == DriverPostgres {
		idCol = "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS wallets (
			account_id TEXT PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
			balance TEXT NOT NULL DEFAULT '0'
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			symbol TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			avg_cost TEXT NOT NULL,
			UNIQUE (account_id, symbol)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS transactions (
			id %s,
			account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			symbol TEXT,
			quantity INTEGER,
			price TEXT NOT NULL,
			timestamp TEXT NOT NULL
		)`, idCol),
		`CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions (account_id, id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
