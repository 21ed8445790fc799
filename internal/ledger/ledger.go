package ledger

import (
	"context"
	"sync"

	"signal_bot/internal/models"
)

// Journal persists fired keys so a restarted process can seed its ledger.
type Journal interface {
	Record(ctx context.Context, key models.DedupKey) error
	Recent(ctx context.Context, limit int) ([]models.DedupKey, error)
}

// Ledger is a bounded set of fired dedup keys. When full, the oldest inserted
// key is evicted first. Keys never expire by time.
type Ledger struct {
	mu    sync.Mutex
	cap   int
	ring  []models.DedupID
	head  int // next slot to overwrite once the ring is full
	index map[models.DedupID]struct{}
}

func New(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ledger{
		cap:   capacity,
		ring:  make([]models.DedupID, 0, capacity),
		index: make(map[models.DedupID]struct{}, capacity),
	}
}

func (l *Ledger) HasFired(key models.DedupKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.index[key.ID()]
	return ok
}

// MarkFired is idempotent.
func (l *Ledger) MarkFired(key models.DedupKey) {
	l.TryMark(key)
}

// TryMark records key and returns true, or returns false if it was already
// present. Lookup and insertion happen under one lock.
func (l *Ledger) TryMark(key models.DedupKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := key.ID()
	if _, ok := l.index[id]; ok {
		return false
	}
	if len(l.ring) < l.cap {
		l.ring = append(l.ring, id)
	} else {
		delete(l.index, l.ring[l.head])
		l.ring[l.head] = id
		l.head = (l.head + 1) % l.cap
	}
	l.index[id] = struct{}{}
	return true
}

// Restore seeds the ledger, oldest first.
func (l *Ledger) Restore(keys []models.DedupKey) {
	for _, k := range keys {
		l.TryMark(k)
	}
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.index)
}

func (l *Ledger) Cap() int { return l.cap }
