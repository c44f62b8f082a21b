package models

import (
	"fmt"

	"github.com/tabsplit/tabsplit/internal/money"
)

// Phase is the settlement phase of a receipt.
type Phase string

const (
	// PhaseClaiming is the open-editing phase: participants join, claim item
	// quantities, and toggle their submission flag.
	PhaseClaiming Phase = "claiming"

	// PhaseFinalized means amounts are frozen and payment tracking is active.
	PhaseFinalized Phase = "finalized"
)

// ParsePhase validates an external phase string.
func ParsePhase(s string) (Phase, error) {
	switch Phase(s) {
	case PhaseClaiming, PhaseFinalized:
		return Phase(s), nil
	}
	return "", fmt.Errorf("invalid settlement phase: %q", s)
}

// ArchivedReason records why a receipt was deactivated.
type ArchivedReason string

const (
	// ArchivedNone means the receipt is not archived (or was unarchived).
	ArchivedNone ArchivedReason = ""

	// ArchivedManual means the host archived the receipt explicitly.
	ArchivedManual ArchivedReason = "manual"

	// ArchivedAutoSettled means archival was triggered automatically when
	// every payable participant's payment was confirmed.
	ArchivedAutoSettled ArchivedReason = "auto_settled"
)

// ParseArchivedReason validates an external archived-reason string.
func ParseArchivedReason(s string) (ArchivedReason, error) {
	switch ArchivedReason(s) {
	case ArchivedNone, ArchivedManual, ArchivedAutoSettled:
		return ArchivedReason(s), nil
	}
	return "", fmt.Errorf("invalid archived reason: %q", s)
}

// Receipt represents a receipt being split among participants.
type Receipt struct {
	// ID is the unique identifier for the receipt (UUID format).
	ID string

	// ClientReceiptID is the client-supplied identifier. Resubmitting the
	// same client id replaces the receipt in place and resets all
	// participants' submission and payment state.
	ClientReceiptID string

	// OwnerKey is the derived participant key of the host.
	OwnerKey string

	// ShareCode is the 6-digit public code used to join the receipt.
	// Unique among active receipts.
	ShareCode string

	// Items are the line items, in sort order.
	Items []Item

	// ReceiptTotal is the declared grand total, if the scan produced one.
	ReceiptTotal *money.Cents

	// Subtotal is the declared pre-fee total, if present. It is the basis
	// for proportional fee allocation.
	Subtotal *money.Cents

	// Tax and Gratuity are the declared fee breakdown, if present.
	Tax      *money.Cents
	Gratuity *money.Cents

	// ExtraFeesTotal is the cached total of all fees (tax + gratuity +
	// anything else). Recomputable from the declared totals.
	ExtraFeesTotal money.Cents

	// Phase is the settlement phase: claiming or finalized.
	Phase Phase

	// IsActive is false once the receipt is archived. Archival is orthogonal
	// to the settlement phase.
	IsActive bool

	// ArchivedReason is set when IsActive is false.
	ArchivedReason ArchivedReason

	// CreatedAt, UpdatedAt and FinalizedAt are Unix timestamps.
	// FinalizedAt is zero while the receipt is still claiming.
	CreatedAt   int64
	UpdatedAt   int64
	FinalizedAt int64
}

// OtherFees returns the portion of ExtraFeesTotal not covered by the declared
// tax/gratuity breakdown. Zero when the breakdown exceeds the total.
func (r *Receipt) OtherFees() money.Cents {
	other := r.ExtraFeesTotal
	if r.Tax != nil {
		other -= *r.Tax
	}
	if r.Gratuity != nil {
		other -= *r.Gratuity
	}
	if other < 0 {
		return 0
	}
	return other
}

// HasFeeBreakdown reports whether the receipt declares tax or gratuity
// separately from the undifferentiated fee total.
func (r *Receipt) HasFeeBreakdown() bool {
	return r.Tax != nil || r.Gratuity != nil
}

// SubtotalBasis returns the subtotal used to scale fee allocation: the
// declared subtotal when present, else the sum of priced items.
func (r *Receipt) SubtotalBasis() money.Cents {
	if r.Subtotal != nil && *r.Subtotal > 0 {
		return *r.Subtotal
	}
	var sum money.Cents
	for _, item := range r.Items {
		if item.Price != nil {
			sum += *item.Price
		}
	}
	return sum
}

// ItemByKey returns the item with the given key, or nil.
func (r *Receipt) ItemByKey(key string) *Item {
	for i := range r.Items {
		if r.Items[i].Key == key {
			return &r.Items[i]
		}
	}
	return nil
}

// Item represents a single line item on a receipt.
type Item struct {
	// Key is the stable identifier for the item within its receipt. Derived
	// from the client-supplied id when present, or a positional fallback
	// otherwise. Positional keys are not stable across item-list replacement.
	Key string

	// Name is the item description from the scan (e.g. "Pad Thai").
	Name string

	// Quantity is the number of units on the line (positive).
	Quantity int64

	// Price is the total price for the full quantity, if the scan produced
	// one. Unit price is Price / Quantity.
	Price *money.Cents

	// SortOrder preserves the line order from the original receipt.
	SortOrder int
}

// ItemKey derives the stable key for an item: the client id when supplied,
// else a positional fallback.
func ItemKey(clientID string, position int) string {
	if clientID != "" {
		return clientID
	}
	return fmt.Sprintf("pos-%d", position)
}

// DeriveExtraFees computes the cached fee total from declared amounts:
// receiptTotal - subtotal when both are present, else tax + gratuity.
func DeriveExtraFees(receiptTotal, subtotal, tax, gratuity *money.Cents) money.Cents {
	if receiptTotal != nil && subtotal != nil {
		if extra := *receiptTotal - *subtotal; extra > 0 {
			return extra
		}
		return 0
	}
	var extra money.Cents
	if tax != nil {
		extra += *tax
	}
	if gratuity != nil {
		extra += *gratuity
	}
	return extra
}
