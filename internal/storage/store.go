// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/housemates/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadySettled is returned when modifying a payment that belongs to a
	// settlement batch.
	ErrAlreadySettled = errors.New("payment already settled")

	// ErrAlreadyMember is returned when adding a user to a group twice.
	ErrAlreadyMember = errors.New("user is already a member")

	// ErrNothingToSettle is returned by SettleGroup when the group has no
	// unsettled payments.
	ErrNothingToSettle = errors.New("no unsettled payments")
)

// SettleFunc computes the transfers for a snapshot of a group's members and
// unsettled payments. It runs inside the settle transaction, holding the
// store, and must not call back into it. ctx is the caller's context.
type SettleFunc func(ctx context.Context, members []string, payments []*models.Payment) ([]*models.Settlement, error)

// UserStore defines user persistence operations.
type UserStore interface {
	// CreateUser inserts a new user.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns nil and no error when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns ErrNotFound when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Store defines the interface for household storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore

	// CreateGroup persists a new group. The creator becomes its first member.
	// The group.ID and CreatedAt fields will be populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns every group the user belongs to.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// AddGroupMember adds a user to a group.
	AddGroupMember(ctx context.Context, groupID, userID string) error

	// CreatePayment records an unsettled payment.
	CreatePayment(ctx context.Context, payment *models.Payment) error

	// GetPayment retrieves a payment by ID.
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)

	// ListPayments returns a group's payments, newest first. Settled payments
	// are included only when includeSettled is true.
	ListPayments(ctx context.Context, groupID string, includeSettled bool) ([]*models.Payment, error)

	// DeletePayment removes an unsettled payment.
	DeletePayment(ctx context.Context, paymentID string) error

	// SettleGroup reads the group's members and unsettled payments, calls
	// compute, and records the resulting transfers as one batch, marking those
	// payments settled. Everything happens in one transaction; if compute
	// fails nothing is written.
	SettleGroup(ctx context.Context, groupID, createdBy string, compute SettleFunc) (*models.SettlementBatch, error)

	// ListSettlements returns a group's recorded transfers, newest first.
	ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}
