package sqlite

import (
	"database/sql"
	"fmt"
)

// Schema changes append to this list; versions already recorded in
// schema_migrations are skipped on startup. Statements in one migration run
// inside a single transaction.
var migrations = []string{
	// v1: initial schema. Amounts are integer cents; optional amounts are
	// nullable. items_json is the legacy blob column carried over from the
	// first prototype schema; it is normalized into item rows the first
	// time a legacy receipt is read (see legacy.go), never written by new
	// code.
	`
CREATE TABLE IF NOT EXISTS receipts (
    id TEXT PRIMARY KEY,
    client_receipt_id TEXT NOT NULL,
    owner_key TEXT NOT NULL,
    share_code TEXT NOT NULL,
    receipt_total INTEGER,
    subtotal INTEGER,
    tax INTEGER,
    gratuity INTEGER,
    extra_fees_total INTEGER NOT NULL DEFAULT 0,
    phase TEXT NOT NULL DEFAULT 'claiming',
    is_active INTEGER NOT NULL DEFAULT 1,
    archived_reason TEXT NOT NULL DEFAULT '',
    items_json TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    finalized_at INTEGER NOT NULL DEFAULT 0,
    UNIQUE (owner_key, client_receipt_id)
);

CREATE TABLE IF NOT EXISTS items (
    receipt_id TEXT NOT NULL,
    item_key TEXT NOT NULL,
    name TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    price INTEGER,
    sort_order INTEGER NOT NULL,
    PRIMARY KEY (receipt_id, item_key),
    FOREIGN KEY (receipt_id) REFERENCES receipts(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS participants (
    receipt_id TEXT NOT NULL,
    participant_key TEXT NOT NULL,
    display_name TEXT NOT NULL DEFAULT '',
    joined_at INTEGER NOT NULL,
    is_submitted INTEGER NOT NULL DEFAULT 0,
    submitted_at INTEGER NOT NULL DEFAULT 0,
    payment_status TEXT NOT NULL DEFAULT 'none',
    payment_method TEXT NOT NULL DEFAULT '',
    payment_amount INTEGER NOT NULL DEFAULT 0,
    payment_marked_at INTEGER NOT NULL DEFAULT 0,
    payment_confirmed_at INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (receipt_id, participant_key),
    FOREIGN KEY (receipt_id) REFERENCES receipts(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS claims (
    receipt_id TEXT NOT NULL,
    item_key TEXT NOT NULL,
    participant_key TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    PRIMARY KEY (receipt_id, item_key, participant_key),
    FOREIGN KEY (receipt_id) REFERENCES receipts(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS payment_options (
    participant_key TEXT NOT NULL,
    method TEXT NOT NULL,
    handle TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (participant_key, method)
);

CREATE INDEX IF NOT EXISTS idx_receipts_owner ON receipts(owner_key);
CREATE INDEX IF NOT EXISTS idx_items_receipt ON items(receipt_id);
CREATE INDEX IF NOT EXISTS idx_participants_receipt ON participants(receipt_id);
CREATE INDEX IF NOT EXISTS idx_claims_receipt ON claims(receipt_id);
`,
	// v2: share codes must be unique among active receipts only, so an
	// archived receipt frees its code for reuse.
	`
CREATE UNIQUE INDEX IF NOT EXISTS idx_receipts_share_code_active
    ON receipts(share_code) WHERE is_active = 1;
`,
}

// runMigrations applies any schema versions not yet recorded.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, applied_at INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", version, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, strftime('%s','now'))`, version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", version, err)
		}
	}

	return nil
}
