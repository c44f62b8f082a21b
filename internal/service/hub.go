package service

import (
	"encoding/json"
	"sync"

	"github.com/tabsplit/tabsplit/internal/models"
)

// SnapshotEvent is one frame on a settlement subscription.
type SnapshotEvent struct {
	// Snapshot is nil on the terminal frame.
	Snapshot *models.SettlementSnapshot

	// Gone marks the terminal frame: the receipt was archived or destroyed
	// and the subscription will produce nothing further.
	Gone bool
}

// SnapshotHub fans settlement snapshots out to live observers, keyed by
// receipt id. Slow subscribers drop frames rather than block writers; every
// frame a subscriber does see was a valid snapshot at some point.
type SnapshotHub struct {
	mu   sync.Mutex
	subs map[string]map[chan SnapshotEvent]struct{}
}

// NewSnapshotHub creates an empty hub.
func NewSnapshotHub() *SnapshotHub {
	return &SnapshotHub{subs: make(map[string]map[chan SnapshotEvent]struct{})}
}

// Subscribe registers an observer for a receipt. Returns the event channel
// and an unsubscribe func. The channel is closed on unsubscribe or after a
// terminal frame.
func (h *SnapshotHub) Subscribe(receiptID string) (<-chan SnapshotEvent, func()) {
	ch := make(chan SnapshotEvent, 16)

	h.mu.Lock()
	if h.subs[receiptID] == nil {
		h.subs[receiptID] = make(map[chan SnapshotEvent]struct{})
	}
	h.subs[receiptID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[receiptID]; ok {
				if _, live := set[ch]; live {
					delete(set, ch)
					close(ch)
				}
				if len(set) == 0 {
					delete(h.subs, receiptID)
				}
			}
			h.mu.Unlock()
		})
	}
	return ch, unsub
}

// Broadcast delivers a fresh snapshot to every observer of the receipt.
func (h *SnapshotHub) Broadcast(receiptID string, snapshot *models.SettlementSnapshot) {
	h.send(receiptID, SnapshotEvent{Snapshot: snapshot})
}

// Gone sends the terminal frame to every observer and tears the receipt's
// subscription set down.
func (h *SnapshotHub) Gone(receiptID string) {
	h.mu.Lock()
	set := h.subs[receiptID]
	delete(h.subs, receiptID)
	h.mu.Unlock()

	for ch := range set {
		select {
		case ch <- SnapshotEvent{Gone: true}:
		default:
		}
		close(ch)
	}
}

// SubscriberCount returns the number of live observers for a receipt.
func (h *SnapshotHub) SubscriberCount(receiptID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[receiptID])
}

func (h *SnapshotHub) send(receiptID string, ev SnapshotEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[receiptID] {
		select {
		case ch <- ev:
		default:
			// Observer too slow; drop the frame, the next one supersedes it.
		}
	}
}

// MarshalJSON renders an event the way the wire layer sends it.
func (e SnapshotEvent) MarshalJSON() ([]byte, error) {
	if e.Gone {
		return json.Marshal(map[string]bool{"gone": true})
	}
	return json.Marshal(e.Snapshot)
}
