package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the type of a ledger entry.
type TransactionKind string

const (
	KindDeposit TransactionKind = "deposit"
	KindBuy     TransactionKind = "buy"
	KindSell    TransactionKind = "sell"
)

// PriceSource selects how the execution price of a buy is resolved.
// "auto" and "live" ask the oracle (falling back to the reference table
// on failure); "fixed" reads the reference table directly.
type PriceSource string

const (
	SourceAuto  PriceSource = "auto"
	SourceLive  PriceSource = "live"
	SourceFixed PriceSource = "fixed"
)

// Account owns exactly one wallet and a set of positions.
type Account struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Position is a holding of one symbol. A position with quantity 0 does
// not exist — it is deleted when a sell brings it to zero.
type Position struct {
	AccountID string          `json:"account_id"`
	Symbol    string          `json:"symbol"`
	Quantity  int64           `json:"quantity"`
	AvgCost   decimal.Decimal `json:"avg_cost"`
}

// TransactionRecord is one immutable row of the append-only ledger.
// Deposits carry the amount in Price; Symbol and Quantity are unset.
type TransactionRecord struct {
	ID        int64           `json:"id"`
	AccountID string          `json:"account_id"`
	Kind      TransactionKind `json:"kind"`
	Symbol    string          `json:"symbol,omitempty"`
	Quantity  int64           `json:"quantity,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// CreateAccountRequest - what the client sends to open an account
type CreateAccountRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}

// DepositRequest - what the client sends to add funds
type DepositRequest struct {
	AccountID string          `json:"account_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// BuyRequest - what the client sends to buy stocks
type BuyRequest struct {
	AccountID string      `json:"account_id" binding:"required"`
	Symbol    string      `json:"symbol" binding:"required"`
	Quantity  int64       `json:"quantity" binding:"required"`
	Source    PriceSource `json:"source"`
}

// SellRequest - what the client sends to sell stocks
type SellRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	Symbol    string `json:"symbol" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required"`
}
