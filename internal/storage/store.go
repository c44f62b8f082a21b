// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/tabsplit/tabsplit/internal/models"
)

// Store defines the interface for receipt, participant, claim and account
// storage. This abstraction allows swapping storage backends (SQLite,
// PostgreSQL, etc.) without changing the service layer.
//
// Every method is individually transactional: it either fully applies or
// returns an error with no effect. Cross-call atomicity (the per-receipt
// read-modify-write sections) is the service layer's responsibility.
//
// Lookups return (nil, nil) when the row does not exist.
type Store interface {
	// UpsertReceipt inserts a receipt or, when a row with the same ID already
	// exists, replaces it in place: items are replaced, all claims deleted,
	// and every participant's submission and payment state reset.
	UpsertReceipt(ctx context.Context, receipt *models.Receipt) error

	// GetReceiptByShareCode retrieves an active receipt with its items.
	GetReceiptByShareCode(ctx context.Context, shareCode string) (*models.Receipt, error)

	// GetReceiptByClientID retrieves a receipt (active or not) by its
	// owner-scoped client id, with its items.
	GetReceiptByClientID(ctx context.Context, ownerKey, clientReceiptID string) (*models.Receipt, error)

	// ListReceiptsByOwner returns all of an owner's receipts, newest first.
	ListReceiptsByOwner(ctx context.Context, ownerKey string) ([]*models.Receipt, error)

	// ShareCodeInUse reports whether an active receipt holds the code.
	ShareCodeInUse(ctx context.Context, shareCode string) (bool, error)

	// SetFinalized transitions a receipt to the finalized phase and clears
	// any archived reason.
	SetFinalized(ctx context.Context, receiptID string, finalizedAt int64) error

	// SetArchived flips the active flag and records the reason.
	SetArchived(ctx context.Context, receiptID string, active bool, reason models.ArchivedReason) error

	// DeleteReceipt destroys a receipt, cascading to items, participants and
	// claims.
	DeleteReceipt(ctx context.Context, receiptID string) error

	// UpsertParticipant inserts or replaces a participant row.
	UpsertParticipant(ctx context.Context, p *models.Participant) error

	// GetParticipant retrieves one participant row.
	GetParticipant(ctx context.Context, receiptID, participantKey string) (*models.Participant, error)

	// GetParticipants returns all participant rows for a receipt, ordered by
	// join time.
	GetParticipants(ctx context.Context, receiptID string) ([]*models.Participant, error)

	// DeleteParticipant removes a participant and all their claims.
	DeleteParticipant(ctx context.Context, receiptID, participantKey string) error

	// GetClaims returns the full claim set for a receipt.
	GetClaims(ctx context.Context, receiptID string) (models.ClaimSet, error)

	// SetClaim upserts a claim quantity; qty <= 0 deletes the row.
	SetClaim(ctx context.Context, receiptID, itemKey, participantKey string, qty int64) error

	// CreateUser persists a new account. The ID is populated by the store.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves an account for login.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// SetPaymentOptions replaces the payment options for a participant key.
	SetPaymentOptions(ctx context.Context, participantKey string, options []models.PaymentOption) error

	// GetPaymentOptions returns the configured payment options, empty when
	// none are set.
	GetPaymentOptions(ctx context.Context, participantKey string) ([]models.PaymentOption, error)

	// Close releases any resources held by the store.
	Close() error
}
