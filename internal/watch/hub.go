// Package watch implements the live-query mechanism: a standing,
// cancelable subscription that re-delivers the full matching appointment
// snapshot on every change. It is eventually consistent and in-process;
// cross-device consistency is whatever the transport layer fans out.
package watch

import (
	"sync"

	"barberagenda/internal/domain"
)

// AllOwners subscribes to every owner's changes (staff views).
const AllOwners = ""

type Hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscription is a scoped resource: the caller owns it from Subscribe
// until Close, unconditionally.
type Subscription struct {
	ownerID string
	ch      chan []domain.Appointment
	hub     *Hub
	once    sync.Once
}

// C delivers full snapshots. A slow consumer only ever misses intermediate
// snapshots, never the latest one.
func (s *Subscription) C() <-chan []domain.Appointment {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

func (h *Hub) Subscribe(ownerID string) *Subscription {
	sub := &Subscription{
		ownerID: ownerID,
		ch:      make(chan []domain.Appointment, 1),
		hub:     h,
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Publish pushes a snapshot to every subscriber matching ownerID. Sends
// never block: a full buffer is drained so the latest snapshot wins.
func (h *Hub) Publish(ownerID string, snapshot []domain.Appointment) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if sub.ownerID != AllOwners && sub.ownerID != ownerID {
			continue
		}
		select {
		case sub.ch <- snapshot:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snapshot:
			default:
			}
		}
	}
}

// Len reports the number of active subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
