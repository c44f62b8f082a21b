package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tabsplit/tabsplit/internal/models"
	"github.com/tabsplit/tabsplit/internal/money"
)

// nullCents converts an optional amount for binding.
func nullCents(c *money.Cents) interface{} {
	if c == nil {
		return nil
	}
	return int64(*c)
}

// centsPtr converts a scanned nullable column back to an optional amount.
func centsPtr(n sql.NullInt64) *money.Cents {
	if !n.Valid {
		return nil
	}
	c := money.Cents(n.Int64)
	return &c
}

const receiptColumns = `id, client_receipt_id, owner_key, share_code,
	receipt_total, subtotal, tax, gratuity, extra_fees_total,
	phase, is_active, archived_reason, items_json,
	created_at, updated_at, finalized_at`

// scanReceipt reads one receipt row. The legacy items_json blob, when
// present, is returned for normalization by the caller.
func scanReceipt(row interface{ Scan(...interface{}) error }) (*models.Receipt, sql.NullString, error) {
	r := &models.Receipt{}
	var receiptTotal, subtotal, tax, gratuity sql.NullInt64
	var itemsJSON sql.NullString
	var phase, reason string
	err := row.Scan(
		&r.ID, &r.ClientReceiptID, &r.OwnerKey, &r.ShareCode,
		&receiptTotal, &subtotal, &tax, &gratuity, &r.ExtraFeesTotal,
		&phase, &r.IsActive, &reason, &itemsJSON,
		&r.CreatedAt, &r.UpdatedAt, &r.FinalizedAt,
	)
	if err != nil {
		return nil, itemsJSON, err
	}
	r.ReceiptTotal = centsPtr(receiptTotal)
	r.Subtotal = centsPtr(subtotal)
	r.Tax = centsPtr(tax)
	r.Gratuity = centsPtr(gratuity)
	if r.Phase, err = models.ParsePhase(phase); err != nil {
		return nil, itemsJSON, err
	}
	if r.ArchivedReason, err = models.ParseArchivedReason(reason); err != nil {
		return nil, itemsJSON, err
	}
	return r, itemsJSON, nil
}

// UpsertReceipt inserts the receipt or replaces it in place. A replace keeps
// the row identity (id, share code, created_at) but swaps the item list,
// deletes every claim, and resets all participants' submission and payment
// state. Positional item keys are not stable across replacement, so stale
// claims cannot be trusted.
func (s *SQLiteStore) UpsertReceipt(ctx context.Context, receipt *models.Receipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if receipt.CreatedAt == 0 {
		receipt.CreatedAt = now
	}
	receipt.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO receipts (id, client_receipt_id, owner_key, share_code,
			receipt_total, subtotal, tax, gratuity, extra_fees_total,
			phase, is_active, archived_reason, created_at, updated_at, finalized_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			receipt_total = excluded.receipt_total,
			subtotal = excluded.subtotal,
			tax = excluded.tax,
			gratuity = excluded.gratuity,
			extra_fees_total = excluded.extra_fees_total,
			phase = excluded.phase,
			is_active = excluded.is_active,
			archived_reason = excluded.archived_reason,
			items_json = NULL,
			updated_at = excluded.updated_at,
			finalized_at = excluded.finalized_at`,
		receipt.ID, receipt.ClientReceiptID, receipt.OwnerKey, receipt.ShareCode,
		nullCents(receipt.ReceiptTotal), nullCents(receipt.Subtotal),
		nullCents(receipt.Tax), nullCents(receipt.Gratuity), int64(receipt.ExtraFeesTotal),
		string(receipt.Phase), receipt.IsActive, string(receipt.ArchivedReason),
		receipt.CreatedAt, receipt.UpdatedAt, receipt.FinalizedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert receipt: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE receipt_id = ?", receipt.ID); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	for _, item := range receipt.Items {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO items (receipt_id, item_key, name, quantity, price, sort_order) VALUES (?, ?, ?, ?, ?, ?)",
			receipt.ID, item.Key, item.Name, item.Quantity, nullCents(item.Price), item.SortOrder,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM claims WHERE receipt_id = ?", receipt.ID); err != nil {
		return fmt.Errorf("failed to clear claims: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE participants SET
			is_submitted = 0, submitted_at = 0,
			payment_status = 'none', payment_method = '', payment_amount = 0,
			payment_marked_at = 0, payment_confirmed_at = 0
		WHERE receipt_id = ?`, receipt.ID)
	if err != nil {
		return fmt.Errorf("failed to reset participants: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetReceiptByShareCode retrieves an active receipt and its items.
// Returns (nil, nil) when no active receipt holds the code.
func (s *SQLiteStore) GetReceiptByShareCode(ctx context.Context, shareCode string) (*models.Receipt, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+receiptColumns+" FROM receipts WHERE share_code = ? AND is_active = 1",
		shareCode,
	)
	return s.finishReceipt(ctx, row)
}

// GetReceiptByClientID retrieves a receipt by its owner-scoped client id,
// active or not. Returns (nil, nil) when absent.
func (s *SQLiteStore) GetReceiptByClientID(ctx context.Context, ownerKey, clientReceiptID string) (*models.Receipt, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+receiptColumns+" FROM receipts WHERE owner_key = ? AND client_receipt_id = ?",
		ownerKey, clientReceiptID,
	)
	return s.finishReceipt(ctx, row)
}

func (s *SQLiteStore) finishReceipt(ctx context.Context, row *sql.Row) (*models.Receipt, error) {
	receipt, itemsJSON, err := scanReceipt(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	if itemsJSON.Valid && itemsJSON.String != "" {
		// Legacy record: normalize the JSON blob into item rows once.
		if err := s.normalizeLegacyItems(ctx, receipt, itemsJSON.String); err != nil {
			return nil, fmt.Errorf("failed to normalize legacy items: %w", err)
		}
		return receipt, nil
	}

	if receipt.Items, err = s.loadItems(ctx, receipt.ID); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *SQLiteStore) loadItems(ctx context.Context, receiptID string) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT item_key, name, quantity, price, sort_order FROM items WHERE receipt_id = ? ORDER BY sort_order",
		receiptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		var price sql.NullInt64
		if err := rows.Scan(&item.Key, &item.Name, &item.Quantity, &price, &item.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.Price = centsPtr(price)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// ListReceiptsByOwner returns all of an owner's receipts, newest first,
// items included.
func (s *SQLiteStore) ListReceiptsByOwner(ctx context.Context, ownerKey string) ([]*models.Receipt, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+receiptColumns+" FROM receipts WHERE owner_key = ? ORDER BY created_at DESC",
		ownerKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*models.Receipt
	for rows.Next() {
		receipt, _, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}

	for _, receipt := range receipts {
		if receipt.Items, err = s.loadItems(ctx, receipt.ID); err != nil {
			return nil, err
		}
	}
	return receipts, nil
}

// ShareCodeInUse reports whether an active receipt holds the code.
func (s *SQLiteStore) ShareCodeInUse(ctx context.Context, shareCode string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM receipts WHERE share_code = ? AND is_active = 1", shareCode,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check share code: %w", err)
	}
	return true, nil
}

// SetFinalized transitions the receipt to the finalized phase.
func (s *SQLiteStore) SetFinalized(ctx context.Context, receiptID string, finalizedAt int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE receipts SET phase = ?, finalized_at = ?, archived_reason = '', updated_at = ? WHERE id = ?",
		string(models.PhaseFinalized), finalizedAt, time.Now().Unix(), receiptID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize receipt: %w", err)
	}
	return nil
}

// SetArchived flips the active flag and records the reason.
func (s *SQLiteStore) SetArchived(ctx context.Context, receiptID string, active bool, reason models.ArchivedReason) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE receipts SET is_active = ?, archived_reason = ?, updated_at = ? WHERE id = ?",
		active, string(reason), time.Now().Unix(), receiptID,
	)
	if err != nil {
		return fmt.Errorf("failed to set archived state: %w", err)
	}
	return nil
}

// DeleteReceipt destroys a receipt; items, participants and claims cascade.
func (s *SQLiteStore) DeleteReceipt(ctx context.Context, receiptID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM receipts WHERE id = ?", receiptID)
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	return nil
}
