package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/housemates/internal/models"
	"github.com/mmynk/housemates/internal/storage"
)

const paymentColumns = `id, group_id, payer_id, amount, description, category, created_at, created_by, batch_id`

// CreatePayment persists a new unsettled payment.
func (s *SQLiteStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	// Generate ID if not set
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.CreatedAt == 0 {
		payment.CreatedAt = time.Now().Unix()
	}
	if payment.BatchID != "" {
		return fmt.Errorf("%w: new payment %s cannot belong to a batch", storage.ErrAlreadySettled, payment.ID)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		payment.ID, payment.GroupID, payment.PayerID, payment.Amount, payment.Description,
		nullable(payment.Category), payment.CreatedAt, payment.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// GetPayment retrieves a payment by ID.
func (s *SQLiteStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := scanPayment(s.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`,
		paymentID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment %s", storage.ErrNotFound, paymentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// ListPayments retrieves a group's payments, newest first.
func (s *SQLiteStore) ListPayments(ctx context.Context, groupID string, includeSettled bool) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE group_id = ?`
	if !includeSettled {
		query += ` AND batch_id IS NULL`
	}
	query += ` ORDER BY created_at DESC, id`

	return listPayments(ctx, s.db, query, groupID)
}

func listPayments(ctx context.Context, q querier, query string, args ...interface{}) ([]*models.Payment, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

// DeletePayment removes an unsettled payment by ID.
func (s *SQLiteStore) DeletePayment(ctx context.Context, paymentID string) error {
	var batchID sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT batch_id FROM payments WHERE id = ?", paymentID).Scan(&batchID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: payment %s", storage.ErrNotFound, paymentID)
	}
	if err != nil {
		return fmt.Errorf("failed to check payment existence: %w", err)
	}
	if batchID.Valid {
		return fmt.Errorf("%w: payment %s in batch %s", storage.ErrAlreadySettled, paymentID, batchID.String)
	}

	// The batch_id guard keeps a concurrent settle-up from losing the row.
	res, err := s.db.ExecContext(ctx, "DELETE FROM payments WHERE id = ? AND batch_id IS NULL", paymentID)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: payment %s", storage.ErrAlreadySettled, paymentID)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	payment := &models.Payment{}
	var category, batchID sql.NullString
	if err := row.Scan(
		&payment.ID,
		&payment.GroupID,
		&payment.PayerID,
		&payment.Amount,
		&payment.Description,
		&category,
		&payment.CreatedAt,
		&payment.CreatedBy,
		&batchID,
	); err != nil {
		return nil, err
	}
	if category.Valid {
		payment.Category = category.String
	}
	if batchID.Valid {
		payment.BatchID = batchID.String
	}
	return payment, nil
}
