package models

import "github.com/tabsplit/tabsplit/internal/money"

// ParticipantTotals is one participant's computed share of the receipt.
type ParticipantTotals struct {
	// ItemSubtotal is the sum of this participant's claimed item shares.
	ItemSubtotal money.Cents `json:"item_subtotal"`

	// TaxShare, GratuityShare and OtherShare are this participant's
	// allocation of each fee pool.
	TaxShare      money.Cents `json:"tax_share"`
	GratuityShare money.Cents `json:"gratuity_share"`
	OtherShare    money.Cents `json:"other_share"`

	// RoundingAdjustment is a diagnostic: allocated fee cents minus the even
	// per-head floor share. It is not re-applied anywhere.
	RoundingAdjustment money.Cents `json:"rounding_adjustment"`

	// TotalDue is what this participant owes the host.
	TotalDue money.Cents `json:"total_due"`
}

// SnapshotParticipant is a participant plus their computed totals, as seen by
// settlement observers.
type SnapshotParticipant struct {
	Key           string            `json:"participant_key"`
	DisplayName   string            `json:"display_name"`
	IsHost        bool              `json:"is_host"`
	JoinedAt      int64             `json:"joined_at"`
	IsSubmitted   bool              `json:"is_submitted"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	PaymentMethod PaymentMethod     `json:"payment_method,omitempty"`
	PaymentAmount money.Cents       `json:"payment_amount"`
	Totals        ParticipantTotals `json:"totals"`
}

// SnapshotItem is an item plus its current claim state.
type SnapshotItem struct {
	Key          string           `json:"key"`
	Name         string           `json:"name"`
	Quantity     int64            `json:"quantity"`
	Price        *money.Cents     `json:"price,omitempty"`
	SortOrder    int              `json:"sort_order"`
	ClaimedTotal int64            `json:"claimed_total"`
	Claims       map[string]int64 `json:"claims,omitempty"`
}

// SettlementSnapshot is an immutable point-in-time projection of a receipt's
// settlement state. Observers receive a sequence of these; each one was valid
// at some point, with no stronger cross-snapshot guarantee.
type SettlementSnapshot struct {
	ReceiptID      string                `json:"receipt_id"`
	ShareCode      string                `json:"share_code"`
	Phase          Phase                 `json:"phase"`
	IsActive       bool                  `json:"is_active"`
	ArchivedReason ArchivedReason        `json:"archived_reason,omitempty"`
	Subtotal       *money.Cents          `json:"subtotal,omitempty"`
	Tax            *money.Cents          `json:"tax,omitempty"`
	Gratuity       *money.Cents          `json:"gratuity,omitempty"`
	ExtraFeesTotal money.Cents           `json:"extra_fees_total"`
	Items          []SnapshotItem        `json:"items"`
	Participants   []SnapshotParticipant `json:"participants"`
}
