// Package service implements the claim/settlement engine: the receipt
// lifecycle state machine, the claim ledger rules, and the participant
// registry, composed over a transactional store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tabsplit/tabsplit/internal/calculator"
	"github.com/tabsplit/tabsplit/internal/models"
	"github.com/tabsplit/tabsplit/internal/money"
	"github.com/tabsplit/tabsplit/internal/storage"
)

// SettlementService owns all receipt mutations. Every operation that reads
// then writes receipt state runs inside that receipt's critical section, so
// concurrent callers always observe a consistent snapshot and can never
// jointly over-claim an item.
type SettlementService struct {
	store            storage.Store
	hub              *SnapshotHub
	locks            *receiptLocks
	absorbExtraCents bool
}

// NewSettlementService creates a settlement service over the given store.
// When absorbExtraCents is set, floor-rounding remainders are assigned to the
// host instead of the largest claimant.
func NewSettlementService(store storage.Store, hub *SnapshotHub, absorbExtraCents bool) *SettlementService {
	return &SettlementService{
		store:            store,
		hub:              hub,
		locks:            newReceiptLocks(),
		absorbExtraCents: absorbExtraCents,
	}
}

// Hub exposes the snapshot hub for the delivery layer.
func (s *SettlementService) Hub() *SnapshotHub { return s.hub }

// ItemInput is one line item as submitted by the scan producer.
type ItemInput struct {
	// ClientID is the client-supplied item id; when absent the item gets a
	// positional key that is not stable across item-list replacement.
	ClientID string
	Name     string
	Quantity int64
	Price    *money.Cents
}

// ReceiptInput is the declared receipt content from the scan producer.
type ReceiptInput struct {
	Items        []ItemInput
	ReceiptTotal *money.Cents
	Subtotal     *money.Cents
	Tax          *money.Cents
	Gratuity     *money.Cents
}

// CreateReceipt creates a receipt, or replaces it in place when the owner
// resubmits the same client id. Replacement resets every participant's
// submission and payment state and deletes all claims, since the item list
// may have changed. Replacing a finalized or archived receipt reopens it.
func (s *SettlementService) CreateReceipt(ctx context.Context, owner models.Identity, clientReceiptID string, input ReceiptInput) (*models.Receipt, error) {
	if owner.IsZero() {
		return nil, models.ErrNoIdentity
	}
	if clientReceiptID == "" {
		return nil, fmt.Errorf("client receipt id required")
	}
	if len(input.Items) == 0 {
		return nil, models.ErrEmptyReceipt
	}
	for _, amount := range []*money.Cents{input.ReceiptTotal, input.Subtotal, input.Tax, input.Gratuity} {
		if amount != nil && *amount < 0 {
			return nil, fmt.Errorf("declared totals must be non-negative")
		}
	}

	items := make([]models.Item, len(input.Items))
	for i, in := range input.Items {
		qty := in.Quantity
		if qty <= 0 {
			qty = 1
		}
		if in.Price != nil && *in.Price < 0 {
			return nil, fmt.Errorf("item price must be non-negative")
		}
		items[i] = models.Item{
			Key:       models.ItemKey(in.ClientID, i),
			Name:      in.Name,
			Quantity:  qty,
			Price:     in.Price,
			SortOrder: i,
		}
	}

	ownerKey := owner.ParticipantKey()
	receipt := &models.Receipt{
		ClientReceiptID: clientReceiptID,
		OwnerKey:        ownerKey,
		Items:           items,
		ReceiptTotal:    input.ReceiptTotal,
		Subtotal:        input.Subtotal,
		Tax:             input.Tax,
		Gratuity:        input.Gratuity,
		ExtraFeesTotal:  models.DeriveExtraFees(input.ReceiptTotal, input.Subtotal, input.Tax, input.Gratuity),
		Phase:           models.PhaseClaiming,
		IsActive:        true,
	}

	existing, err := s.store.GetReceiptByClientID(ctx, ownerKey, clientReceiptID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		// Full reset, same identity: keep the id and share code.
		unlock := s.locks.lock(existing.ID)
		defer unlock()
		receipt.ID = existing.ID
		receipt.ShareCode = existing.ShareCode
		receipt.CreatedAt = existing.CreatedAt
	} else {
		code, err := s.generateShareCode(ctx)
		if err != nil {
			return nil, err
		}
		receipt.ShareCode = code
	}

	if err := s.store.UpsertReceipt(ctx, receipt); err != nil {
		return nil, err
	}

	slog.Info("Receipt created", "receipt_id", receipt.ID, "share_code", receipt.ShareCode, "items", len(items))
	s.broadcast(ctx, receipt)
	return receipt, nil
}

// GetReceipt retrieves an active receipt by share code. Returns (nil, nil)
// when the code is unknown or the receipt was deactivated.
func (s *SettlementService) GetReceipt(ctx context.Context, shareCode string) (*models.Receipt, error) {
	if !ValidShareCode(shareCode) {
		return nil, models.ErrInvalidShareCode
	}
	return s.store.GetReceiptByShareCode(ctx, shareCode)
}

// Snapshot computes the current settlement projection for a receipt.
// Returns (nil, nil) when the receipt is unknown or inactive.
func (s *SettlementService) Snapshot(ctx context.Context, shareCode string) (*models.SettlementSnapshot, error) {
	receipt, err := s.GetReceipt(ctx, shareCode)
	if err != nil || receipt == nil {
		return nil, err
	}
	return s.buildSnapshot(ctx, receipt)
}

// Join registers an identity as a participant. Idempotent: re-joining
// refreshes the display name but preserves an existing non-generic one.
// Once the receipt is finalized join is a read-only no-op: late joiners may
// view, but must not appear as unsettled participants.
func (s *SettlementService) Join(ctx context.Context, shareCode string, id models.Identity, displayName string) (*models.Receipt, error) {
	if id.IsZero() {
		return nil, models.ErrNoIdentity
	}
	receipt, err := s.GetReceipt(ctx, shareCode)
	if err != nil || receipt == nil {
		return nil, err
	}

	unlock := s.locks.lock(receipt.ID)
	defer unlock()

	receipt, err = s.store.GetReceiptByShareCode(ctx, shareCode)
	if err != nil || receipt == nil {
		return nil, err
	}
	if receipt.Phase == models.PhaseFinalized {
		return receipt, nil
	}

	key := id.ParticipantKey()
	existing, err := s.store.GetParticipant(ctx, receipt.ID, key)
	if err != nil {
		return nil, err
	}

	p := existing
	if p == nil {
		p = &models.Participant{
			ReceiptID:     receipt.ID,
			Key:           key,
			JoinedAt:      time.Now().Unix(),
			PaymentStatus: models.PaymentNone,
		}
	}
	// An existing non-generic name always wins over whatever the client sent.
	if displayName != "" && isGenericName(p.DisplayName) {
		p.DisplayName = displayName
	}
	if p.DisplayName == "" {
		p.DisplayName = genericGuestName(key)
	}

	if err := s.store.UpsertParticipant(ctx, p); err != nil {
		return nil, err
	}
	s.broadcast(ctx, receipt)
	return receipt, nil
}

// AdjustClaim applies a signed quantity delta to the caller's claim on one
// item. Positive deltas clamp to the item's unclaimed quantity rather than
// erroring, so "claim the rest" never races on exact counts; negative deltas
// clamp to the caller's own claim. An applied delta of zero is a no-op
// signal, not an error.
func (s *SettlementService) AdjustClaim(ctx context.Context, shareCode, itemKey string, id models.Identity, delta int64) (applied, newQty int64, err error) {
	if id.IsZero() {
		return 0, 0, models.ErrNoIdentity
	}
	receipt, err := s.GetReceipt(ctx, shareCode)
	if err != nil {
		return 0, 0, err
	}
	if receipt == nil {
		return 0, 0, models.ErrReceiptInactive
	}

	unlock := s.locks.lock(receipt.ID)
	defer unlock()

	// Re-read inside the critical section: the phase may have flipped while
	// we waited on the lock.
	receipt, err = s.store.GetReceiptByShareCode(ctx, shareCode)
	if err != nil {
		return 0, 0, err
	}
	if receipt == nil {
		return 0, 0, models.ErrReceiptInactive
	}
	if receipt.Phase != models.PhaseClaiming {
		return 0, 0, models.ErrAlreadyFinalized
	}

	item := receipt.ItemByKey(itemKey)
	if item == nil {
		return 0, 0, models.ErrUnknownItem
	}

	key := id.ParticipantKey()
	participant, err := s.store.GetParticipant(ctx, receipt.ID, key)
	if err != nil {
		return 0, 0, err
	}
	if participant == nil {
		// Claims create participants lazily, same as join.
		participant = &models.Participant{
			ReceiptID:     receipt.ID,
			Key:           key,
			DisplayName:   genericGuestName(key),
			JoinedAt:      time.Now().Unix(),
			PaymentStatus: models.PaymentNone,
		}
		if err := s.store.UpsertParticipant(ctx, participant); err != nil {
			return 0, 0, err
		}
	}
	if participant.IsSubmitted {
		return 0, 0, models.ErrClaimsLocked
	}

	claims, err := s.store.GetClaims(ctx, receipt.ID)
	if err != nil {
		return 0, 0, err
	}
	total := claims.ItemTotal(itemKey)
	existing := claims.Get(itemKey, key)

	switch {
	case delta > 0:
		available := item.Quantity - total
		if available < 0 {
			available = 0
		}
		applied = delta
		if applied > available {
			applied = available
		}
	case delta < 0:
		applied = delta
		if -applied > existing {
			applied = -existing
		}
	}

	newQty = existing + applied
	if applied == 0 {
		return 0, newQty, nil
	}

	if err := s.store.SetClaim(ctx, receipt.ID, itemKey, key, newQty); err != nil {
		return 0, 0, err
	}
	if newQty < 0 {
		newQty = 0
	}

	s.broadcast(ctx, receipt)
	return applied, newQty, nil
}

// SetSubmissionStatus toggles the caller's submitted flag. Submitting locks
// their claims; unsubmitting clears any previously computed payment intent.
// Fails once the receipt is finalized.
func (s *SettlementService) SetSubmissionStatus(ctx context.Context, shareCode string, id models.Identity, submitted bool) error {
	if id.IsZero() {
		return models.ErrNoIdentity
	}
	receipt, err := s.GetReceipt(ctx, shareCode)
	if err != nil {
		return err
	}
	if receipt == nil {
		return models.ErrReceiptInactive
	}

	unlock := s.locks.lock(receipt.ID)
	defer unlock()

	receipt, err = s.store.GetReceiptByShareCode(ctx, shareCode)
	if err != nil {
		return err
	}
	if receipt == nil {
		return models.ErrReceiptInactive
	}
	if receipt.Phase == models.PhaseFinalized {
		return models.ErrAlreadyFinalized
	}

	key := id.ParticipantKey()
	p, err := s.store.GetParticipant(ctx, receipt.ID, key)
	if err != nil {
		return err
	}
	if p == nil {
		p = &models.Participant{
			ReceiptID:     receipt.ID,
			Key:           key,
			DisplayName:   genericGuestName(key),
			JoinedAt:      time.Now().Unix(),
			PaymentStatus: models.PaymentNone,
		}
	}

	p.IsSubmitted = submitted
	if submitted {
		p.SubmittedAt = time.Now().Unix()
	} else {
		p.SubmittedAt = 0
		p.ClearPayment()
	}

	if err := s.store.UpsertParticipant(ctx, p); err != nil {
		return err
	}
	s.broadcast(ctx, receipt)
	return nil
}

// RemoveParticipant removes a guest and frees their claimed quantities back
// to the pool. Host-only, claiming phase only, and the host cannot remove
// themselves.
func (s *SettlementService) RemoveParticipant(ctx context.Context, shareCode string, host models.Identity, participantKey string) error {
	receipt, err := s.GetReceipt(ctx, shareCode)
	if err != nil {
		return err
	}
	if receipt == nil {
		return models.ErrReceiptInactive
	}

	unlock := s.locks.lock(receipt.ID)
	defer unlock()

	receipt, err = s.store.GetReceiptByShareCode(ctx, shareCode)
	if err != nil {
		return err
	}
	if receipt == nil {
		return models.ErrReceiptInactive
	}
	if host.ParticipantKey() != receipt.OwnerKey {
		return models.ErrNotHost
	}
	if receipt.Phase != models.PhaseClaiming {
		return models.ErrAlreadyFinalized
	}
	if participantKey == receipt.OwnerKey {
		return models.ErrHostNotPayable
	}

	if err := s.store.DeleteParticipant(ctx, receipt.ID, participantKey); err != nil {
		return err
	}
	s.broadcast(ctx, receipt)
	return nil
}

// Finalize freezes the settlement: host-only, and only when every
// participant has submitted, every item is fully claimed, and the host has a
// payment option for guests to pay through. Idempotent once finalized.
func (s *SettlementService) Finalize(ctx context.Context, shareCode string, host models.Identity) error {
	receipt, err := s.GetReceipt(ctx, shareCode)
	if err != nil {
		return err
	}
	if receipt == nil {
		return models.ErrReceiptInactive
	}

	unlock := s.locks.lock(receipt.ID)
	defer unlock()

	receipt, err = s.store.GetReceiptByShareCode(ctx, shareCode)
	if err != nil {
		return err
	}
	if receipt == nil {
		return models.ErrReceiptInactive
	}
	if host.ParticipantKey() != receipt.OwnerKey {
		return models.ErrNotHost
	}
	if receipt.Phase == models.PhaseFinalized {
		return nil
	}

	participants, err := s.store.GetParticipants(ctx, receipt.ID)
	if err != nil {
		return err
	}
	if len(participants) == 0 {
		return models.ErrNoParticipants
	}
	for _, p := range participants {
		if !p.IsSubmitted {
			return models.ErrNotAllSubmitted
		}
	}

	claims, err := s.store.GetClaims(ctx, receipt.ID)
	if err != nil {
		return err
	}
	if !models.FullyClaimed(receipt.Items, claims) {
		return models.ErrUnclaimedItems
	}

	options, err := s.store.GetPaymentOptions(ctx, receipt.OwnerKey)
	if err != nil {
		return err
	}
	if len(options) == 0 {
		return models.ErrNoHostPaymentOption
	}

	now := time.Now().Unix()
	if err := s.store.SetFinalized(ctx, receipt.ID, now); err != nil {
		return err
	}
	receipt.Phase = models.PhaseFinalized
	receipt.FinalizedAt = now

	slog.Info("Settlement finalized", "receipt_id", receipt.ID, "participants", len(participants))
	s.broadcast(ctx, receipt)
	return nil
}

// MarkPaymentIntent records that a guest is paying the host: it freezes
// their total due as the payment amount and flips their status to pending.
// Non-host only, finalized receipts only.
func (s *SettlementService) MarkPaymentIntent(ctx context.Context, shareCode string, id models.Identity, method models.PaymentMethod) (*models.Participant, error) {
	if id.IsZero() {
		return nil, models.ErrNoIdentity
	}
	receipt, err := s.GetReceipt(ctx, shareCode)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, models.ErrReceiptInactive
	}

	unlock := s.locks.lock(receipt.ID)
	defer unlock()

	receipt, err = s.store.GetReceiptByShareCode(ctx, shareCode)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, models.ErrReceiptInactive
	}
	if receipt.Phase != models.PhaseFinalized {
		return nil, models.ErrNotFinalized
	}

	key := id.ParticipantKey()
	if key == receipt.OwnerKey {
		return nil, models.ErrHostNotPayable
	}
	p, err := s.store.GetParticipant(ctx, receipt.ID, key)
	if err != nil || p == nil {
		return nil, err
	}

	totals, err := s.computeTotals(ctx, receipt)
	if err != nil {
		return nil, err
	}
	due := totals[key]
	if due == nil || due.TotalDue <= 0 {
		return nil, models.ErrNoPaymentDue
	}

	p.PaymentStatus = models.PaymentPending
	p.PaymentMethod = method
	p.PaymentAmount = due.TotalDue
	p.PaymentMarkedAt = time.Now().Unix()
	p.PaymentConfirmedAt = 0

	if err := s.store.UpsertParticipant(ctx, p); err != nil {
		return nil, err
	}
	s.broadcast(ctx, receipt)
	return p, nil
}

// ConfirmPayment records the host's confirmation that a guest's payment
// arrived. When every payable guest is confirmed the receipt auto-archives;
// the check runs on a snapshot taken after this confirmation, inside the
// same critical section. Returns whether the confirmation applied and
// whether the receipt archived.
func (s *SettlementService) ConfirmPayment(ctx context.Context, shareCode string, host models.Identity, participantKey string) (confirmed, archived bool, err error) {
	receipt, err := s.GetReceipt(ctx, shareCode)
	if err != nil {
		return false, false, err
	}
	if receipt == nil {
		return false, false, models.ErrReceiptInactive
	}

	unlock := s.locks.lock(receipt.ID)
	defer unlock()

	receipt, err = s.store.GetReceiptByShareCode(ctx, shareCode)
	if err != nil {
		return false, false, err
	}
	if receipt == nil {
		return false, false, models.ErrReceiptInactive
	}
	if host.ParticipantKey() != receipt.OwnerKey {
		return false, false, models.ErrNotHost
	}
	if receipt.Phase != models.PhaseFinalized {
		return false, false, models.ErrNotFinalized
	}
	if participantKey == receipt.OwnerKey {
		return false, false, models.ErrHostNotPayable
	}

	p, err := s.store.GetParticipant(ctx, receipt.ID, participantKey)
	if err != nil {
		return false, false, err
	}
	if p == nil {
		return false, false, nil
	}

	p.PaymentStatus = models.PaymentConfirmed
	p.PaymentConfirmedAt = time.Now().Unix()
	if err := s.store.UpsertParticipant(ctx, p); err != nil {
		return false, false, err
	}

	// Auto-archive check, from state that includes the confirmation just
	// applied.
	participants, err := s.store.GetParticipants(ctx, receipt.ID)
	if err != nil {
		return true, false, err
	}
	totals, err := s.computeTotals(ctx, receipt)
	if err != nil {
		return true, false, err
	}

	allPaid := true
	for _, other := range participants {
		if other.Key == receipt.OwnerKey {
			continue
		}
		due := totals[other.Key]
		if due == nil || due.TotalDue <= 0 {
			continue
		}
		if other.PaymentStatus != models.PaymentConfirmed {
			allPaid = false
			break
		}
	}

	if allPaid {
		if err := s.store.SetArchived(ctx, receipt.ID, false, models.ArchivedAutoSettled); err != nil {
			return true, false, err
		}
		slog.Info("Receipt auto-settled", "receipt_id", receipt.ID)
		s.hub.Gone(receipt.ID)
		return true, true, nil
	}

	s.broadcast(ctx, receipt)
	return true, false, nil
}

// Archive deactivates a receipt manually. Returns false when the owner has
// no receipt with that client id.
func (s *SettlementService) Archive(ctx context.Context, owner models.Identity, clientReceiptID string) (bool, error) {
	receipt, err := s.store.GetReceiptByClientID(ctx, owner.ParticipantKey(), clientReceiptID)
	if err != nil || receipt == nil {
		return false, err
	}

	unlock := s.locks.lock(receipt.ID)
	defer unlock()

	if err := s.store.SetArchived(ctx, receipt.ID, false, models.ArchivedManual); err != nil {
		return false, err
	}
	s.hub.Gone(receipt.ID)
	return true, nil
}

// Unarchive reactivates a receipt. Fails if its share code has since been
// taken by another active receipt.
func (s *SettlementService) Unarchive(ctx context.Context, owner models.Identity, clientReceiptID string) (bool, error) {
	receipt, err := s.store.GetReceiptByClientID(ctx, owner.ParticipantKey(), clientReceiptID)
	if err != nil || receipt == nil {
		return false, err
	}

	unlock := s.locks.lock(receipt.ID)
	defer unlock()

	if err := s.store.SetArchived(ctx, receipt.ID, true, models.ArchivedNone); err != nil {
		return false, err
	}
	return true, nil
}

// Destroy deletes a receipt and everything under it. Returns false when the
// owner has no receipt with that client id.
func (s *SettlementService) Destroy(ctx context.Context, owner models.Identity, clientReceiptID string) (bool, error) {
	receipt, err := s.store.GetReceiptByClientID(ctx, owner.ParticipantKey(), clientReceiptID)
	if err != nil || receipt == nil {
		return false, err
	}

	unlock := s.locks.lock(receipt.ID)
	defer unlock()

	if err := s.store.DeleteReceipt(ctx, receipt.ID); err != nil {
		return false, err
	}
	s.hub.Gone(receipt.ID)
	return true, nil
}

// ListReceipts returns the caller's receipts, newest first.
func (s *SettlementService) ListReceipts(ctx context.Context, owner models.Identity) ([]*models.Receipt, error) {
	if owner.IsZero() {
		return nil, models.ErrNoIdentity
	}
	return s.store.ListReceiptsByOwner(ctx, owner.ParticipantKey())
}

// computeTotals runs the settlement calculator over the receipt's current
// participants and claims. The host is synthesized into the participant set
// even without a row.
func (s *SettlementService) computeTotals(ctx context.Context, receipt *models.Receipt) (map[string]*models.ParticipantTotals, error) {
	participants, err := s.store.GetParticipants(ctx, receipt.ID)
	if err != nil {
		return nil, err
	}
	claims, err := s.store.GetClaims(ctx, receipt.ID)
	if err != nil {
		return nil, err
	}
	return s.totalsFor(receipt, participants, claims), nil
}

func (s *SettlementService) totalsFor(receipt *models.Receipt, participants []*models.Participant, claims models.ClaimSet) map[string]*models.ParticipantTotals {
	calcParticipants := make([]calculator.Participant, 0, len(participants)+1)
	hostPresent := false
	for _, p := range participants {
		if p.Key == receipt.OwnerKey {
			hostPresent = true
		}
		calcParticipants = append(calcParticipants, calculator.Participant{Key: p.Key, JoinedAt: p.JoinedAt})
	}
	if !hostPresent {
		calcParticipants = append(calcParticipants, calculator.Participant{Key: receipt.OwnerKey, JoinedAt: receipt.CreatedAt})
	}

	return calculator.ComputeSettlement(calculator.Input{
		Items:            receipt.Items,
		Claims:           claims,
		Participants:     calcParticipants,
		SubtotalBasis:    receipt.SubtotalBasis(),
		Tax:              receipt.Tax,
		Gratuity:         receipt.Gratuity,
		ExtraFeesTotal:   receipt.ExtraFeesTotal,
		HostKey:          receipt.OwnerKey,
		AbsorbExtraCents: s.absorbExtraCents,
	})
}

// buildSnapshot assembles the observer-facing projection of a receipt.
func (s *SettlementService) buildSnapshot(ctx context.Context, receipt *models.Receipt) (*models.SettlementSnapshot, error) {
	participants, err := s.store.GetParticipants(ctx, receipt.ID)
	if err != nil {
		return nil, err
	}
	claims, err := s.store.GetClaims(ctx, receipt.ID)
	if err != nil {
		return nil, err
	}

	hostPresent := false
	for _, p := range participants {
		if p.Key == receipt.OwnerKey {
			hostPresent = true
			break
		}
	}
	if !hostPresent {
		participants = append([]*models.Participant{{
			ReceiptID:     receipt.ID,
			Key:           receipt.OwnerKey,
			DisplayName:   "Host",
			JoinedAt:      receipt.CreatedAt,
			PaymentStatus: models.PaymentNone,
		}}, participants...)
	}

	totals := s.totalsFor(receipt, participants, claims)

	snapshot := &models.SettlementSnapshot{
		ReceiptID:      receipt.ID,
		ShareCode:      receipt.ShareCode,
		Phase:          receipt.Phase,
		IsActive:       receipt.IsActive,
		ArchivedReason: receipt.ArchivedReason,
		Subtotal:       receipt.Subtotal,
		Tax:            receipt.Tax,
		Gratuity:       receipt.Gratuity,
		ExtraFeesTotal: receipt.ExtraFeesTotal,
	}

	for _, item := range receipt.Items {
		si := models.SnapshotItem{
			Key:          item.Key,
			Name:         item.Name,
			Quantity:     item.Quantity,
			Price:        item.Price,
			SortOrder:    item.SortOrder,
			ClaimedTotal: claims.ItemTotal(item.Key),
		}
		if byParticipant := claims[item.Key]; len(byParticipant) > 0 {
			si.Claims = make(map[string]int64, len(byParticipant))
			for key, qty := range byParticipant {
				si.Claims[key] = qty
			}
		}
		snapshot.Items = append(snapshot.Items, si)
	}

	for _, p := range participants {
		sp := models.SnapshotParticipant{
			Key:           p.Key,
			DisplayName:   p.DisplayName,
			IsHost:        p.Key == receipt.OwnerKey,
			JoinedAt:      p.JoinedAt,
			IsSubmitted:   p.IsSubmitted,
			PaymentStatus: p.PaymentStatus,
			PaymentMethod: p.PaymentMethod,
			PaymentAmount: p.PaymentAmount,
		}
		if t := totals[p.Key]; t != nil {
			sp.Totals = *t
		}
		snapshot.Participants = append(snapshot.Participants, sp)
	}

	return snapshot, nil
}

// broadcast recomputes the snapshot and fans it out to live observers.
// Failures are logged, never surfaced: observation is best-effort.
func (s *SettlementService) broadcast(ctx context.Context, receipt *models.Receipt) {
	if s.hub == nil || s.hub.SubscriberCount(receipt.ID) == 0 {
		return
	}
	snapshot, err := s.buildSnapshot(ctx, receipt)
	if err != nil {
		slog.Warn("Failed to build settlement snapshot", "receipt_id", receipt.ID, "error", err)
		return
	}
	s.hub.Broadcast(receipt.ID, snapshot)
}

// isGenericName reports whether a display name is a placeholder we are free
// to overwrite.
func isGenericName(name string) bool {
	return name == "" || name == "Guest" || len(name) > 6 && name[:6] == "Guest " || name == "Host"
}

// genericGuestName derives a short placeholder name from a participant key.
func genericGuestName(key string) string {
	suffix := key
	if i := len(key) - 4; i > 0 {
		suffix = key[i:]
	}
	return "Guest " + suffix
}
