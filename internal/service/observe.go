package service

import (
	"context"

	"github.com/tabsplit/tabsplit/internal/models"
)

// ObserveSettlement opens a live settlement subscription: the current
// snapshot immediately, then a frame after every mutation, and finally a
// terminal Gone frame if the receipt is deactivated. Returns all-nil when
// the share code resolves to nothing.
//
// The caller owns the stream lifecycle and must call cancel when done; the
// hub drops frames for subscribers that stop draining.
func (s *SettlementService) ObserveSettlement(ctx context.Context, shareCode string) (*models.SettlementSnapshot, <-chan SnapshotEvent, func(), error) {
	receipt, err := s.GetReceipt(ctx, shareCode)
	if err != nil || receipt == nil {
		return nil, nil, nil, err
	}

	// Subscribe before the initial snapshot so no mutation between the two
	// can be missed; at worst the first frames duplicate the snapshot.
	ch, cancel := s.hub.Subscribe(receipt.ID)

	initial, err := s.buildSnapshot(ctx, receipt)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return initial, ch, cancel, nil
}
