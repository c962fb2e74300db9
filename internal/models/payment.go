package models

import "github.com/shopspring/decimal"

// Payment represents an expense paid in full by one member on behalf of the
// whole group. It is split evenly across all members when the group settles.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// GroupID is the group this payment belongs to.
	GroupID string

	// PayerID is the user who paid.
	PayerID string

	// Amount is what the payer spent. Always positive.
	Amount decimal.Decimal

	// Description says what was bought (e.g., "Groceries").
	Description string

	// Category is an optional free-form label (e.g., "utilities").
	Category string

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64

	// CreatedBy is the user ID who recorded this payment.
	CreatedBy string

	// BatchID is the settlement batch that settled this payment.
	// Empty while the payment is unsettled.
	BatchID string
}

// Settled reports whether the payment has been included in a settle-up.
func (p *Payment) Settled() bool {
	return p.BatchID != ""
}
