package matchmaking

import (
	"container/list"
	"time"

	"github.com/Gadfx/duhuze/internal/domain"
)

// Pool is the FIFO set of participants seeking a partner. It stores IDs
// only; the records stay owned by the Registry.
// Pool is not safe for concurrent use; Hub serializes access.
type Pool struct {
	registry *Registry
	capacity int
	order    *list.List
	index    map[domain.ParticipantID]*list.Element
}

func NewPool(registry *Registry, capacity int) *Pool {
	return &Pool{
		registry: registry,
		capacity: capacity,
		order:    list.New(),
		index:    make(map[domain.ParticipantID]*list.Element),
	}
}

// Enqueue appends id to the tail and marks it waiting. Enqueueing an id that
// is already present keeps its position.
func (p *Pool) Enqueue(id domain.ParticipantID, at time.Time) error {
	participant, ok := p.registry.Lookup(id)
	if !ok {
		return domain.ErrUnknownParticipant
	}
	if _, ok := p.index[id]; ok {
		return nil
	}
	if participant.State == domain.StatePaired {
		return domain.ErrAlreadyPaired
	}
	if p.capacity > 0 && p.order.Len() >= p.capacity {
		return domain.ErrResourceExhausted
	}

	p.index[id] = p.order.PushBack(id)
	participant.State = domain.StateWaiting
	participant.WaitingSince = at
	return nil
}

// DequeueOldest pops the head of the pool.
func (p *Pool) DequeueOldest() (domain.ParticipantID, bool) {
	front := p.order.Front()
	if front == nil {
		return "", false
	}
	return p.take(front), true
}

// DequeueFirst pops the oldest id accepted by eligible, probing at most limit
// entries from the head (limit <= 0 scans the whole pool). Skipped entries
// keep their relative order.
func (p *Pool) DequeueFirst(eligible func(domain.ParticipantID) bool, limit int) (domain.ParticipantID, bool) {
	scanned := 0
	for e := p.order.Front(); e != nil; e = e.Next() {
		if limit > 0 && scanned >= limit {
			break
		}
		scanned++
		if eligible(e.Value.(domain.ParticipantID)) {
			return p.take(e), true
		}
	}
	return "", false
}

// Remove drops id from the pool if present.
func (p *Pool) Remove(id domain.ParticipantID) bool {
	e, ok := p.index[id]
	if !ok {
		return false
	}
	p.take(e)
	return true
}

func (p *Pool) Contains(id domain.ParticipantID) bool {
	_, ok := p.index[id]
	return ok
}

func (p *Pool) Len() int {
	return p.order.Len()
}

// IDs returns the pool content, oldest first.
func (p *Pool) IDs() []domain.ParticipantID {
	out := make([]domain.ParticipantID, 0, p.order.Len())
	for e := p.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(domain.ParticipantID))
	}
	return out
}

// WaitingBefore returns the ids enqueued before cutoff, oldest first.
func (p *Pool) WaitingBefore(cutoff time.Time) []domain.ParticipantID {
	var out []domain.ParticipantID
	for e := p.order.Front(); e != nil; e = e.Next() {
		id := e.Value.(domain.ParticipantID)
		participant, ok := p.registry.Lookup(id)
		if !ok || !participant.WaitingSince.Before(cutoff) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// take unlinks e. The participant state is left to the caller, which either
// pairs it or returns it to idle.
func (p *Pool) take(e *list.Element) domain.ParticipantID {
	id := p.order.Remove(e).(domain.ParticipantID)
	delete(p.index, id)
	return id
}
