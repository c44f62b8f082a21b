package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tabsplit/tabsplit/internal/models"
)

// UpsertParticipant inserts or replaces a participant row.
func (s *SQLiteStore) UpsertParticipant(ctx context.Context, p *models.Participant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO participants (receipt_id, participant_key, display_name,
			joined_at, is_submitted, submitted_at,
			payment_status, payment_method, payment_amount,
			payment_marked_at, payment_confirmed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ReceiptID, p.Key, p.DisplayName,
		p.JoinedAt, p.IsSubmitted, p.SubmittedAt,
		string(p.PaymentStatus), string(p.PaymentMethod), int64(p.PaymentAmount),
		p.PaymentMarkedAt, p.PaymentConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert participant: %w", err)
	}
	return nil
}

const participantColumns = `receipt_id, participant_key, display_name,
	joined_at, is_submitted, submitted_at,
	payment_status, payment_method, payment_amount,
	payment_marked_at, payment_confirmed_at`

func scanParticipant(row interface{ Scan(...interface{}) error }) (*models.Participant, error) {
	p := &models.Participant{}
	var status, method string
	err := row.Scan(
		&p.ReceiptID, &p.Key, &p.DisplayName,
		&p.JoinedAt, &p.IsSubmitted, &p.SubmittedAt,
		&status, &method, &p.PaymentAmount,
		&p.PaymentMarkedAt, &p.PaymentConfirmedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.PaymentStatus, err = models.ParsePaymentStatus(status); err != nil {
		return nil, err
	}
	if method != "" {
		if p.PaymentMethod, err = models.ParsePaymentMethod(method); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// GetParticipant retrieves one participant row. Returns (nil, nil) when the
// participant never joined.
func (s *SQLiteStore) GetParticipant(ctx context.Context, receiptID, participantKey string) (*models.Participant, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+participantColumns+" FROM participants WHERE receipt_id = ? AND participant_key = ?",
		receiptID, participantKey,
	)
	p, err := scanParticipant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// GetParticipants returns all participant rows for a receipt, ordered by
// join time then key for determinism.
func (s *SQLiteStore) GetParticipants(ctx context.Context, receiptID string) ([]*models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+participantColumns+" FROM participants WHERE receipt_id = ? ORDER BY joined_at, participant_key",
		receiptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

// DeleteParticipant removes a participant and all their claims in one
// transaction, freeing their claimed quantities back to the pool.
func (s *SQLiteStore) DeleteParticipant(ctx context.Context, receiptID, participantKey string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM claims WHERE receipt_id = ? AND participant_key = ?",
		receiptID, participantKey,
	); err != nil {
		return fmt.Errorf("failed to delete claims: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM participants WHERE receipt_id = ? AND participant_key = ?",
		receiptID, participantKey,
	); err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
