package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tabsplit/tabsplit/internal/models"
	"github.com/tabsplit/tabsplit/internal/money"
)

// legacyItem matches the ad hoc JSON blob the first prototype schema stored
// items in. Prices were dollars as floats back then.
type legacyItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Quantity int64    `json:"quantity"`
	Price    *float64 `json:"price"`
}

// normalizeLegacyItems converts a receipt's legacy items_json blob into item
// rows, exactly once: the blob is cleared in the same transaction that writes
// the rows, so subsequent reads take the strict schema path. New code never
// writes the blob.
func (s *SQLiteStore) normalizeLegacyItems(ctx context.Context, receipt *models.Receipt, blob string) error {
	var legacy []legacyItem
	if err := json.Unmarshal([]byte(blob), &legacy); err != nil {
		return fmt.Errorf("failed to parse legacy items: %w", err)
	}

	items := make([]models.Item, 0, len(legacy))
	for i, li := range legacy {
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		item := models.Item{
			Key:       models.ItemKey(li.ID, i),
			Name:      li.Name,
			Quantity:  qty,
			SortOrder: i,
		}
		if li.Price != nil {
			item.Price = money.Ptr(money.Cents(*li.Price*100 + 0.5))
		}
		items = append(items, item)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO items (receipt_id, item_key, name, quantity, price, sort_order) VALUES (?, ?, ?, ?, ?, ?)",
			receipt.ID, item.Key, item.Name, item.Quantity, nullCents(item.Price), item.SortOrder,
		)
		if err != nil {
			return fmt.Errorf("failed to insert normalized item: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, "UPDATE receipts SET items_json = NULL WHERE id = ?", receipt.ID); err != nil {
		return fmt.Errorf("failed to clear legacy blob: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	receipt.Items = items
	return nil
}
