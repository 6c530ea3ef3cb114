package models

import "errors"

// Sentinel errors returned by the store and the trading engine.
// Validation errors are returned before any state is written.
var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrInvalidSymbol      = errors.New("symbol must not be empty")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrNoSuchPosition     = errors.New("no position in this symbol")
	ErrAccountNotFound    = errors.New("account not found")

	// ErrPriceUnavailable means the oracle failed and the symbol has no
	// reference-table entry. Operations degrade to price 0 rather than
	// aborting, but callers can distinguish the condition.
	ErrPriceUnavailable = errors.New("price unavailable")
)
