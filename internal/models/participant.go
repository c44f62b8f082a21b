package models

import (
	"fmt"

	"github.com/tabsplit/tabsplit/internal/money"
)

// PaymentStatus tracks a participant's payment lifecycle after finalize.
type PaymentStatus string

const (
	// PaymentNone means the participant has not reported paying.
	PaymentNone PaymentStatus = "none"

	// PaymentPending means the participant reported sending payment and is
	// waiting for the host to confirm receipt.
	PaymentPending PaymentStatus = "pending"

	// PaymentConfirmed means the host confirmed receiving the payment.
	PaymentConfirmed PaymentStatus = "confirmed"
)

// ParsePaymentStatus validates an external payment status string.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentNone, PaymentPending, PaymentConfirmed:
		return PaymentStatus(s), nil
	}
	return "", fmt.Errorf("invalid payment status: %q", s)
}

// PaymentMethod is the out-of-band channel a guest pays the host through.
type PaymentMethod string

const (
	MethodVenmo   PaymentMethod = "venmo"
	MethodPayPal  PaymentMethod = "paypal"
	MethodZelle   PaymentMethod = "zelle"
	MethodCashApp PaymentMethod = "cash_app"
	MethodCash    PaymentMethod = "cash"
	MethodOther   PaymentMethod = "other"
)

// ParsePaymentMethod validates an external payment method string.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case MethodVenmo, MethodPayPal, MethodZelle, MethodCashApp, MethodCash, MethodOther:
		return PaymentMethod(s), nil
	}
	return "", fmt.Errorf("invalid payment method: %q", s)
}

// Participant represents one person on a receipt, keyed by their derived
// participant key. The host is the participant whose key equals the receipt's
// OwnerKey; a host row is synthesized into views even if the host never
// explicitly joined.
type Participant struct {
	// ReceiptID is the receipt this participant belongs to.
	ReceiptID string

	// Key is the derived participant key ("auth:<userID>" or
	// "guest:<deviceID>").
	Key string

	// DisplayName is the name shown to other participants.
	DisplayName string

	// JoinedAt is the Unix timestamp of the first join.
	JoinedAt int64

	// IsSubmitted is true once the participant locked in their claims.
	// Submitted participants' claims cannot change.
	IsSubmitted bool

	// SubmittedAt is the Unix timestamp of the last submit, zero if never.
	SubmittedAt int64

	// PaymentStatus, PaymentMethod and PaymentAmount track payment intent
	// after finalize. PaymentAmount is the total due frozen at the moment
	// the participant marked intent.
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	PaymentAmount money.Cents

	// PaymentMarkedAt and PaymentConfirmedAt are Unix timestamps, zero when
	// the corresponding event has not happened.
	PaymentMarkedAt    int64
	PaymentConfirmedAt int64
}

// IsHost reports whether this participant is the receipt owner.
func (p *Participant) IsHost(r *Receipt) bool {
	return p.Key == r.OwnerKey
}

// ClearPayment resets all payment intent state, e.g. when the participant
// unsubmits during the claiming phase.
func (p *Participant) ClearPayment() {
	p.PaymentStatus = PaymentNone
	p.PaymentMethod = ""
	p.PaymentAmount = 0
	p.PaymentMarkedAt = 0
	p.PaymentConfirmedAt = 0
}
