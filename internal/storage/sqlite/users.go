package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tabsplit/tabsplit/internal/models"
)

// CreateUser persists a new account.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves an account for login. Returns (nil, nil) when no
// account uses the email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?",
		email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// SetPaymentOptions replaces the payment options for a participant key.
func (s *SQLiteStore) SetPaymentOptions(ctx context.Context, participantKey string, options []models.PaymentOption) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM payment_options WHERE participant_key = ?", participantKey,
	); err != nil {
		return fmt.Errorf("failed to clear payment options: %w", err)
	}
	for _, opt := range options {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO payment_options (participant_key, method, handle) VALUES (?, ?, ?)",
			participantKey, string(opt.Method), opt.Handle,
		); err != nil {
			return fmt.Errorf("failed to insert payment option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPaymentOptions returns the configured payment options for a participant
// key, empty when none are set.
func (s *SQLiteStore) GetPaymentOptions(ctx context.Context, participantKey string) ([]models.PaymentOption, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT participant_key, method, handle FROM payment_options WHERE participant_key = ? ORDER BY method",
		participantKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment options: %w", err)
	}
	defer rows.Close()

	var options []models.PaymentOption
	for rows.Next() {
		var opt models.PaymentOption
		var method string
		if err := rows.Scan(&opt.ParticipantKey, &method, &opt.Handle); err != nil {
			return nil, fmt.Errorf("failed to scan payment option: %w", err)
		}
		if opt.Method, err = models.ParsePaymentMethod(method); err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment options: %w", err)
	}
	return options, nil
}
