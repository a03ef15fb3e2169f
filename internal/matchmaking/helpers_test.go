package matchmaking

import (
	"testing"
	"time"

	"github.com/Gadfx/duhuze/internal/domain"
	"github.com/stretchr/testify/require"
)

type nopSink struct{}

func (nopSink) Deliver(domain.SignalMessage) bool { return true }
func (nopSink) Close()                            {}

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// fakeClock advances one second per call so enqueue times are ordered.
func fakeClock() func() time.Time {
	now := epoch
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

// requireConsistent checks that the registry, the pool and the room table
// agree with each other.
func requireConsistent(t *testing.T, h *Hub) {
	t.Helper()
	req := require.New(t)

	h.mu.Lock()
	defer h.mu.Unlock()

	members := make(map[domain.ParticipantID]domain.RoomID)
	for id, room := range h.rooms.rooms {
		req.Equal(id, room.ID)
		req.NotEqual(room.Members[0].ID, room.Members[1].ID)
		req.NotEqual(room.Members[0].Role, room.Members[1].Role)
		for _, m := range room.Members {
			_, twice := members[m.ID]
			req.False(twice, "participant %s in two rooms", m.ID)
			members[m.ID] = id

			req.False(h.pool.Contains(m.ID), "paired participant %s still waiting", m.ID)
			p, ok := h.registry.Lookup(m.ID)
			req.True(ok)
			req.Equal(domain.StatePaired, p.State)
			req.Equal(id, p.RoomID)
			req.Equal(m.Role, p.Role)
			req.Equal(id, h.rooms.byParticipant[m.ID])
		}
	}
	req.Len(h.rooms.byParticipant, len(members))

	for _, id := range h.pool.IDs() {
		p, ok := h.registry.Lookup(id)
		req.True(ok)
		req.Equal(domain.StateWaiting, p.State)
	}

	for id, p := range h.registry.participants {
		switch p.State {
		case domain.StatePaired:
			req.Contains(members, id)
		case domain.StateWaiting:
			req.True(h.pool.Contains(id))
		default:
			req.NotContains(members, id)
			req.False(h.pool.Contains(id))
			req.Empty(p.RoomID)
		}
	}
}

func mustRegister(t *testing.T, h *Hub, userID string) domain.ParticipantID {
	t.Helper()
	p, err := h.Register(userID, nopSink{})
	require.NoError(t, err)
	return p.ID
}
