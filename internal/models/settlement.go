package models

import "github.com/shopspring/decimal"

// SettlementBatch records one settle-up of a group.
type SettlementBatch struct {
	// ID is the unique identifier for the batch (UUID format).
	ID string

	// GroupID is the group that settled.
	GroupID string

	// CreatedAt is the Unix timestamp when the group settled.
	CreatedAt int64

	// CreatedBy is the user ID who triggered the settle-up.
	CreatedBy string

	// PaymentCount is how many payments this batch settled.
	PaymentCount int

	// Settlements are the transfers members must make.
	Settlements []*Settlement
}

// Settlement represents a payment between group members to clear debts.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// BatchID is the settle-up that produced this transfer.
	BatchID string

	// FromUserID is the user who pays (debtor settling up).
	FromUserID string

	// ToUserID is the user who receives payment (creditor being paid).
	ToUserID string

	// Amount is the payment amount, rounded to cents.
	Amount decimal.Decimal

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string

	// Note is an optional description for the settlement.
	Note string
}
