package sqlite

import (
	"context"
	"fmt"

	"github.com/tabsplit/tabsplit/internal/models"
)

// GetClaims returns the full claim set for a receipt.
func (s *SQLiteStore) GetClaims(ctx context.Context, receiptID string) (models.ClaimSet, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT item_key, participant_key, quantity FROM claims WHERE receipt_id = ?",
		receiptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get claims: %w", err)
	}
	defer rows.Close()

	claims := make(models.ClaimSet)
	for rows.Next() {
		var itemKey, participantKey string
		var qty int64
		if err := rows.Scan(&itemKey, &participantKey, &qty); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims.Set(itemKey, participantKey, qty)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}
	return claims, nil
}

// SetClaim upserts a claim quantity; qty <= 0 deletes the row.
func (s *SQLiteStore) SetClaim(ctx context.Context, receiptID, itemKey, participantKey string, qty int64) error {
	if qty <= 0 {
		_, err := s.db.ExecContext(ctx,
			"DELETE FROM claims WHERE receipt_id = ? AND item_key = ? AND participant_key = ?",
			receiptID, itemKey, participantKey,
		)
		if err != nil {
			return fmt.Errorf("failed to delete claim: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO claims (receipt_id, item_key, participant_key, quantity) VALUES (?, ?, ?, ?)",
		receiptID, itemKey, participantKey, qty,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert claim: %w", err)
	}
	return nil
}
