package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tabsplit/tabsplit/internal/models"
	"github.com/tabsplit/tabsplit/internal/money"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testReceipt(owner, clientID, shareCode string) *models.Receipt {
	return &models.Receipt{
		ClientReceiptID: clientID,
		OwnerKey:        owner,
		ShareCode:       shareCode,
		Items: []models.Item{
			{Key: "item-1", Name: "Pad Thai", Quantity: 2, Price: money.Ptr(1800), SortOrder: 0},
			{Key: "item-2", Name: "Spring Rolls", Quantity: 1, Price: money.Ptr(650), SortOrder: 1},
		},
		Subtotal:       money.Ptr(2450),
		Tax:            money.Ptr(220),
		ExtraFeesTotal: 220,
		Phase:          models.PhaseClaiming,
		IsActive:       true,
	}
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("UpsertReceipt generates ID and timestamps", func(t *testing.T) {
		receipt := testReceipt("auth:host-1", "client-a", "123456")
		if err := store.UpsertReceipt(ctx, receipt); err != nil {
			t.Fatalf("UpsertReceipt failed: %v", err)
		}
		if receipt.ID == "" {
			t.Error("Expected receipt ID to be generated")
		}
		if receipt.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("GetReceiptByShareCode retrieves complete receipt", func(t *testing.T) {
		original := testReceipt("auth:host-1", "client-b", "234567")
		if err := store.UpsertReceipt(ctx, original); err != nil {
			t.Fatalf("UpsertReceipt failed: %v", err)
		}

		retrieved, err := store.GetReceiptByShareCode(ctx, "234567")
		if err != nil {
			t.Fatalf("GetReceiptByShareCode failed: %v", err)
		}
		if retrieved == nil {
			t.Fatal("Expected receipt, got nil")
		}
		if retrieved.ID != original.ID {
			t.Errorf("ID mismatch: got %s, want %s", retrieved.ID, original.ID)
		}
		if len(retrieved.Items) != 2 {
			t.Fatalf("Items count mismatch: got %d, want 2", len(retrieved.Items))
		}
		if retrieved.Items[0].Key != "item-1" || retrieved.Items[1].Key != "item-2" {
			t.Errorf("Items out of order: %q, %q", retrieved.Items[0].Key, retrieved.Items[1].Key)
		}
		if retrieved.Items[0].Price == nil || *retrieved.Items[0].Price != 1800 {
			t.Errorf("Item price mismatch: got %v, want 1800", retrieved.Items[0].Price)
		}
		if retrieved.Tax == nil || *retrieved.Tax != 220 {
			t.Errorf("Tax mismatch: got %v, want 220", retrieved.Tax)
		}
		if retrieved.Gratuity != nil {
			t.Errorf("Expected nil gratuity, got %v", *retrieved.Gratuity)
		}
		if retrieved.Phase != models.PhaseClaiming {
			t.Errorf("Phase mismatch: got %s, want claiming", retrieved.Phase)
		}
	})

	t.Run("GetReceiptByShareCode returns nil for unknown code", func(t *testing.T) {
		retrieved, err := store.GetReceiptByShareCode(ctx, "999999")
		if err != nil {
			t.Fatalf("GetReceiptByShareCode failed: %v", err)
		}
		if retrieved != nil {
			t.Errorf("Expected nil, got receipt %s", retrieved.ID)
		}
	})

	t.Run("Upsert with same ID resets claims and participants", func(t *testing.T) {
		receipt := testReceipt("auth:host-1", "client-c", "345678")
		if err := store.UpsertReceipt(ctx, receipt); err != nil {
			t.Fatalf("UpsertReceipt failed: %v", err)
		}

		guest := &models.Participant{
			ReceiptID:     receipt.ID,
			Key:           "guest:dev-1",
			DisplayName:   "Alice",
			JoinedAt:      100,
			IsSubmitted:   true,
			SubmittedAt:   200,
			PaymentStatus: models.PaymentPending,
			PaymentMethod: models.MethodVenmo,
			PaymentAmount: 1234,
		}
		if err := store.UpsertParticipant(ctx, guest); err != nil {
			t.Fatalf("UpsertParticipant failed: %v", err)
		}
		if err := store.SetClaim(ctx, receipt.ID, "item-1", "guest:dev-1", 2); err != nil {
			t.Fatalf("SetClaim failed: %v", err)
		}

		// Resubmit the same receipt with a changed item list.
		receipt.Items = []models.Item{
			{Key: "item-1", Name: "Pad Thai", Quantity: 1, Price: money.Ptr(900), SortOrder: 0},
		}
		if err := store.UpsertReceipt(ctx, receipt); err != nil {
			t.Fatalf("UpsertReceipt (replace) failed: %v", err)
		}

		claims, err := store.GetClaims(ctx, receipt.ID)
		if err != nil {
			t.Fatalf("GetClaims failed: %v", err)
		}
		if len(claims) != 0 {
			t.Errorf("Expected claims cleared after replace, got %v", claims)
		}

		p, err := store.GetParticipant(ctx, receipt.ID, "guest:dev-1")
		if err != nil {
			t.Fatalf("GetParticipant failed: %v", err)
		}
		if p == nil {
			t.Fatal("Participant should survive replace")
		}
		if p.IsSubmitted || p.SubmittedAt != 0 {
			t.Error("Submission state should be reset after replace")
		}
		if p.PaymentStatus != models.PaymentNone || p.PaymentAmount != 0 {
			t.Errorf("Payment state should be reset, got %s/%d", p.PaymentStatus, p.PaymentAmount)
		}
		if p.DisplayName != "Alice" {
			t.Errorf("Display name should survive replace, got %q", p.DisplayName)
		}

		retrieved, err := store.GetReceiptByShareCode(ctx, "345678")
		if err != nil {
			t.Fatalf("GetReceiptByShareCode failed: %v", err)
		}
		if len(retrieved.Items) != 1 {
			t.Errorf("Expected replaced item list of 1, got %d", len(retrieved.Items))
		}
	})

	t.Run("SetFinalized and SetArchived", func(t *testing.T) {
		receipt := testReceipt("auth:host-1", "client-d", "456789")
		if err := store.UpsertReceipt(ctx, receipt); err != nil {
			t.Fatalf("UpsertReceipt failed: %v", err)
		}

		if err := store.SetFinalized(ctx, receipt.ID, 5000); err != nil {
			t.Fatalf("SetFinalized failed: %v", err)
		}
		retrieved, err := store.GetReceiptByShareCode(ctx, "456789")
		if err != nil || retrieved == nil {
			t.Fatalf("GetReceiptByShareCode failed: %v", err)
		}
		if retrieved.Phase != models.PhaseFinalized || retrieved.FinalizedAt != 5000 {
			t.Errorf("Finalize not applied: phase=%s finalized_at=%d", retrieved.Phase, retrieved.FinalizedAt)
		}

		if err := store.SetArchived(ctx, receipt.ID, false, models.ArchivedManual); err != nil {
			t.Fatalf("SetArchived failed: %v", err)
		}
		// Archived receipts disappear from share-code lookup ...
		retrieved, err = store.GetReceiptByShareCode(ctx, "456789")
		if err != nil {
			t.Fatalf("GetReceiptByShareCode failed: %v", err)
		}
		if retrieved != nil {
			t.Error("Archived receipt should not resolve by share code")
		}
		// ... but stay reachable by client id.
		retrieved, err = store.GetReceiptByClientID(ctx, "auth:host-1", "client-d")
		if err != nil || retrieved == nil {
			t.Fatalf("GetReceiptByClientID failed: %v, receipt=%v", err, retrieved)
		}
		if retrieved.IsActive || retrieved.ArchivedReason != models.ArchivedManual {
			t.Errorf("Archive not applied: active=%v reason=%q", retrieved.IsActive, retrieved.ArchivedReason)
		}

		in, err := store.ShareCodeInUse(ctx, "456789")
		if err != nil {
			t.Fatalf("ShareCodeInUse failed: %v", err)
		}
		if in {
			t.Error("Archived receipt should free its share code")
		}
	})

	t.Run("Claims round trip", func(t *testing.T) {
		receipt := testReceipt("auth:host-1", "client-e", "567890")
		if err := store.UpsertReceipt(ctx, receipt); err != nil {
			t.Fatalf("UpsertReceipt failed: %v", err)
		}

		if err := store.SetClaim(ctx, receipt.ID, "item-1", "guest:a", 1); err != nil {
			t.Fatalf("SetClaim failed: %v", err)
		}
		if err := store.SetClaim(ctx, receipt.ID, "item-1", "guest:b", 1); err != nil {
			t.Fatalf("SetClaim failed: %v", err)
		}

		claims, err := store.GetClaims(ctx, receipt.ID)
		if err != nil {
			t.Fatalf("GetClaims failed: %v", err)
		}
		if claims.ItemTotal("item-1") != 2 {
			t.Errorf("ItemTotal = %d, want 2", claims.ItemTotal("item-1"))
		}
		if claims.Get("item-1", "guest:a") != 1 {
			t.Errorf("Get = %d, want 1", claims.Get("item-1", "guest:a"))
		}

		// qty <= 0 deletes the row.
		if err := store.SetClaim(ctx, receipt.ID, "item-1", "guest:a", 0); err != nil {
			t.Fatalf("SetClaim (delete) failed: %v", err)
		}
		claims, err = store.GetClaims(ctx, receipt.ID)
		if err != nil {
			t.Fatalf("GetClaims failed: %v", err)
		}
		if claims.Get("item-1", "guest:a") != 0 {
			t.Error("Claim should be deleted at qty 0")
		}
		if claims.ItemTotal("item-1") != 1 {
			t.Errorf("ItemTotal = %d, want 1", claims.ItemTotal("item-1"))
		}
	})

	t.Run("DeleteParticipant removes claims", func(t *testing.T) {
		receipt := testReceipt("auth:host-1", "client-f", "678901")
		if err := store.UpsertReceipt(ctx, receipt); err != nil {
			t.Fatalf("UpsertReceipt failed: %v", err)
		}
		p := &models.Participant{
			ReceiptID:     receipt.ID,
			Key:           "guest:gone",
			DisplayName:   "Bob",
			JoinedAt:      100,
			PaymentStatus: models.PaymentNone,
		}
		if err := store.UpsertParticipant(ctx, p); err != nil {
			t.Fatalf("UpsertParticipant failed: %v", err)
		}
		if err := store.SetClaim(ctx, receipt.ID, "item-2", "guest:gone", 1); err != nil {
			t.Fatalf("SetClaim failed: %v", err)
		}

		if err := store.DeleteParticipant(ctx, receipt.ID, "guest:gone"); err != nil {
			t.Fatalf("DeleteParticipant failed: %v", err)
		}
		got, err := store.GetParticipant(ctx, receipt.ID, "guest:gone")
		if err != nil {
			t.Fatalf("GetParticipant failed: %v", err)
		}
		if got != nil {
			t.Error("Participant should be gone")
		}
		claims, err := store.GetClaims(ctx, receipt.ID)
		if err != nil {
			t.Fatalf("GetClaims failed: %v", err)
		}
		if claims.ItemTotal("item-2") != 0 {
			t.Error("Expected removed participant's claims to be freed")
		}
	})

	t.Run("DeleteReceipt cascades", func(t *testing.T) {
		receipt := testReceipt("auth:host-1", "client-g", "789012")
		if err := store.UpsertReceipt(ctx, receipt); err != nil {
			t.Fatalf("UpsertReceipt failed: %v", err)
		}
		p := &models.Participant{ReceiptID: receipt.ID, Key: "guest:x", JoinedAt: 1, PaymentStatus: models.PaymentNone}
		if err := store.UpsertParticipant(ctx, p); err != nil {
			t.Fatalf("UpsertParticipant failed: %v", err)
		}
		if err := store.DeleteReceipt(ctx, receipt.ID); err != nil {
			t.Fatalf("DeleteReceipt failed: %v", err)
		}
		got, err := store.GetReceiptByClientID(ctx, "auth:host-1", "client-g")
		if err != nil {
			t.Fatalf("GetReceiptByClientID failed: %v", err)
		}
		if got != nil {
			t.Error("Receipt should be deleted")
		}
		participants, err := store.GetParticipants(ctx, receipt.ID)
		if err != nil {
			t.Fatalf("GetParticipants failed: %v", err)
		}
		if len(participants) != 0 {
			t.Errorf("Expected participants cascade-deleted, got %d", len(participants))
		}
	})

	t.Run("ListReceiptsByOwner newest first", func(t *testing.T) {
		owner := "auth:lister"
		first := testReceipt(owner, "list-1", "810000")
		first.CreatedAt = 1000
		if err := store.UpsertReceipt(ctx, first); err != nil {
			t.Fatalf("UpsertReceipt failed: %v", err)
		}
		second := testReceipt(owner, "list-2", "820000")
		second.CreatedAt = 2000
		if err := store.UpsertReceipt(ctx, second); err != nil {
			t.Fatalf("UpsertReceipt failed: %v", err)
		}

		receipts, err := store.ListReceiptsByOwner(ctx, owner)
		if err != nil {
			t.Fatalf("ListReceiptsByOwner failed: %v", err)
		}
		if len(receipts) != 2 {
			t.Fatalf("Expected 2 receipts, got %d", len(receipts))
		}
		if receipts[0].ClientReceiptID != "list-2" {
			t.Errorf("Expected newest first, got %s", receipts[0].ClientReceiptID)
		}
		if len(receipts[0].Items) == 0 {
			t.Error("Listed receipts should include items")
		}
	})

	t.Run("Users and payment options", func(t *testing.T) {
		user := &models.User{Name: "Carol", Email: "carol@example.com", PasswordHash: "x"}
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if user.ID == "" {
			t.Error("Expected user ID to be generated")
		}

		got, err := store.GetUserByEmail(ctx, "carol@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got == nil || got.ID != user.ID {
			t.Fatalf("GetUserByEmail mismatch: %v", got)
		}

		missing, err := store.GetUserByEmail(ctx, "nobody@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if missing != nil {
			t.Error("Expected nil for unknown email")
		}

		key := "auth:" + user.ID
		opts := []models.PaymentOption{
			{ParticipantKey: key, Method: models.MethodVenmo, Handle: "@carol"},
			{ParticipantKey: key, Method: models.MethodZelle, Handle: "carol@example.com"},
		}
		if err := store.SetPaymentOptions(ctx, key, opts); err != nil {
			t.Fatalf("SetPaymentOptions failed: %v", err)
		}
		stored, err := store.GetPaymentOptions(ctx, key)
		if err != nil {
			t.Fatalf("GetPaymentOptions failed: %v", err)
		}
		if len(stored) != 2 {
			t.Fatalf("Expected 2 options, got %d", len(stored))
		}

		// Replacement drops options not in the new set.
		if err := store.SetPaymentOptions(ctx, key, opts[:1]); err != nil {
			t.Fatalf("SetPaymentOptions (replace) failed: %v", err)
		}
		stored, err = store.GetPaymentOptions(ctx, key)
		if err != nil {
			t.Fatalf("GetPaymentOptions failed: %v", err)
		}
		if len(stored) != 1 || stored[0].Method != models.MethodVenmo {
			t.Errorf("Replacement not applied: %v", stored)
		}
	})
}

func TestLegacyItemsNormalization(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	receipt := testReceipt("auth:host-legacy", "legacy-1", "901234")
	receipt.Items = nil
	if err := store.UpsertReceipt(ctx, receipt); err != nil {
		t.Fatalf("UpsertReceipt failed: %v", err)
	}

	// Plant a legacy blob the way the first schema stored items: dollars as
	// floats, no rows in the items table.
	blob := `[{"id":"it-1","name":"Burger","quantity":2,"price":12.99},{"name":"Fries","quantity":0}]`
	if _, err := store.db.ExecContext(ctx,
		"UPDATE receipts SET items_json = ? WHERE id = ?", blob, receipt.ID,
	); err != nil {
		t.Fatalf("Failed to plant legacy blob: %v", err)
	}

	retrieved, err := store.GetReceiptByShareCode(ctx, "901234")
	if err != nil {
		t.Fatalf("GetReceiptByShareCode failed: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Expected receipt")
	}
	if len(retrieved.Items) != 2 {
		t.Fatalf("Expected 2 normalized items, got %d", len(retrieved.Items))
	}
	if retrieved.Items[0].Key != "it-1" {
		t.Errorf("Expected client id key, got %q", retrieved.Items[0].Key)
	}
	if retrieved.Items[0].Price == nil || *retrieved.Items[0].Price != 1299 {
		t.Errorf("Expected 1299 cents, got %v", retrieved.Items[0].Price)
	}
	if retrieved.Items[1].Key != "pos-1" {
		t.Errorf("Expected positional fallback key, got %q", retrieved.Items[1].Key)
	}
	if retrieved.Items[1].Quantity != 1 {
		t.Errorf("Zero quantity should normalize to 1, got %d", retrieved.Items[1].Quantity)
	}

	// Normalization is one-shot: the blob is cleared and the second read
	// takes the item-row path.
	var blobAfter interface{}
	if err := store.db.QueryRowContext(ctx,
		"SELECT items_json FROM receipts WHERE id = ?", receipt.ID,
	).Scan(&blobAfter); err != nil {
		t.Fatalf("Failed to read blob column: %v", err)
	}
	if blobAfter != nil {
		t.Errorf("Legacy blob should be cleared, got %v", blobAfter)
	}

	again, err := store.GetReceiptByShareCode(ctx, "901234")
	if err != nil {
		t.Fatalf("Second read failed: %v", err)
	}
	if len(again.Items) != 2 {
		t.Errorf("Second read should return normalized rows, got %d items", len(again.Items))
	}
}
