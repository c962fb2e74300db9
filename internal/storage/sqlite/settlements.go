package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/housemates/internal/models"
	"github.com/mmynk/housemates/internal/storage"
)

// SettleGroup records a settle-up of every unsettled payment in a group.
//
// Reading the snapshot, computing and writing the result happen in a single
// transaction on the store's only connection, so payments recorded while the
// settle-up runs land either fully before or fully after it.
func (s *SQLiteStore) SettleGroup(ctx context.Context, groupID, createdBy string, compute storage.SettleFunc) (*models.SettlementBatch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	group, err := getGroup(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}

	payments, err := listPayments(ctx, tx,
		`SELECT `+paymentColumns+` FROM payments WHERE group_id = ? AND batch_id IS NULL ORDER BY created_at, id`,
		groupID,
	)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, fmt.Errorf("%w: group %s", storage.ErrNothingToSettle, groupID)
	}

	settlements, err := compute(ctx, group.MemberIDs(), payments)
	if err != nil {
		return nil, err
	}

	batch := &models.SettlementBatch{
		ID:           uuid.New().String(),
		GroupID:      groupID,
		CreatedAt:    time.Now().Unix(),
		CreatedBy:    createdBy,
		PaymentCount: len(payments),
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO settlement_batches (id, group_id, created_at, created_by, payment_count) VALUES (?, ?, ?, ?, ?)",
		batch.ID, batch.GroupID, batch.CreatedAt, batch.CreatedBy, batch.PaymentCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert settlement batch: %w", err)
	}

	for _, settlement := range settlements {
		settlement.ID = uuid.New().String()
		settlement.GroupID = groupID
		settlement.BatchID = batch.ID
		settlement.CreatedAt = batch.CreatedAt
		settlement.CreatedBy = createdBy
		if err := insertSettlement(ctx, tx, settlement); err != nil {
			return nil, err
		}
	}

	for _, payment := range payments {
		_, err = tx.ExecContext(ctx,
			"UPDATE payments SET batch_id = ? WHERE id = ? AND batch_id IS NULL",
			batch.ID, payment.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to mark payment settled: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	batch.Settlements = settlements
	return batch, nil
}

func insertSettlement(ctx context.Context, q querier, settlement *models.Settlement) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, batch_id, from_user_id, to_user_id, amount, created_at, created_by, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.BatchID, settlement.FromUserID, settlement.ToUserID,
		settlement.Amount, settlement.CreatedAt, settlement.CreatedBy, nullable(settlement.Note),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// ListSettlements retrieves all settlements for a group, newest first.
func (s *SQLiteStore) ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, batch_id, from_user_id, to_user_id, amount, created_at, created_by, note
		 FROM settlements WHERE group_id = ? ORDER BY created_at DESC, batch_id, rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		var note sql.NullString

		if err := rows.Scan(&settlement.ID, &settlement.GroupID, &settlement.BatchID,
			&settlement.FromUserID, &settlement.ToUserID, &settlement.Amount,
			&settlement.CreatedAt, &settlement.CreatedBy, &note); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}

		if note.Valid {
			settlement.Note = note.String
		}

		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}
