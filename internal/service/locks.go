package service

import "sync"

// receiptLocks serializes mutations per receipt. Every read-modify-write in
// the service runs inside the critical section for its receipt id, which is
// what keeps two guests racing for the last unit of an item from jointly
// over-claiming it. There is no cross-receipt coordination.
type receiptLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newReceiptLocks() *receiptLocks {
	return &receiptLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for a receipt id and returns its unlock func.
// Lock entries are never removed; the per-receipt footprint is one mutex.
func (l *receiptLocks) lock(receiptID string) func() {
	l.mu.Lock()
	m, ok := l.locks[receiptID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[receiptID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
