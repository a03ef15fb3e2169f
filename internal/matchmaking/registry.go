package matchmaking

import (
	"time"

	"github.com/Gadfx/duhuze/internal/domain"
)

// Registry owns every Participant record, one per live connection.
// It keeps a user identity index so eviction by user is a map lookup.
// Registry is not safe for concurrent use; Hub serializes access.
type Registry struct {
	capacity     int
	participants map[domain.ParticipantID]*domain.Participant
	byUser       map[string]map[domain.ParticipantID]struct{}
}

// NewRegistry creates a registry holding at most capacity participants.
// A capacity <= 0 means unbounded.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		capacity:     capacity,
		participants: make(map[domain.ParticipantID]*domain.Participant),
		byUser:       make(map[string]map[domain.ParticipantID]struct{}),
	}
}

// Register creates an Idle participant or fails with ErrResourceExhausted
// when the registry is full.
func (r *Registry) Register(userID string, sink domain.Sink, at time.Time) (*domain.Participant, error) {
	if r.capacity > 0 && len(r.participants) >= r.capacity {
		return nil, domain.ErrResourceExhausted
	}

	p := domain.NewParticipant(userID, sink, at)
	r.participants[p.ID] = p

	if userID != "" {
		ids, ok := r.byUser[userID]
		if !ok {
			ids = make(map[domain.ParticipantID]struct{})
			r.byUser[userID] = ids
		}
		ids[p.ID] = struct{}{}
	}
	return p, nil
}

// Lookup returns the live record, not a copy.
func (r *Registry) Lookup(id domain.ParticipantID) (*domain.Participant, bool) {
	p, ok := r.participants[id]
	return p, ok
}

// Unregister removes the record only. Pool and room membership must have
// been cleared by the caller.
func (r *Registry) Unregister(id domain.ParticipantID) {
	p, ok := r.participants[id]
	if !ok {
		return
	}
	delete(r.participants, id)

	if p.UserID == "" {
		return
	}
	if ids, ok := r.byUser[p.UserID]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(r.byUser, p.UserID)
		}
	}
}

// ByUser returns the live connections of a user identity.
func (r *Registry) ByUser(userID string) []domain.ParticipantID {
	ids := r.byUser[userID]
	if len(ids) == 0 {
		return nil
	}
	out := make([]domain.ParticipantID, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.participants)
}

// Sinks returns the outbound handles of all live participants.
func (r *Registry) Sinks() []domain.Sink {
	out := make([]domain.Sink, 0, len(r.participants))
	for _, p := range r.participants {
		if p.Sink != nil {
			out = append(out, p.Sink)
		}
	}
	return out
}
