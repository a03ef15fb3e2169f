package matchmaking

import (
	"sync"
	"time"

	"github.com/Gadfx/duhuze/internal/domain"
)

type Options struct {
	MaxParticipants int
	MaxWaiting      int
	MaxScan         int
	Clock           func() time.Time
}

// Hub is the single owner of the registry, the waiting pool and the room
// table. Every exported method is one critical section and returns value
// snapshots. Mutating methods accept a notify callback that runs inside
// that section, so messages describing a transition are queued on the sinks
// before any later transition can queue its own. notify may be nil and must
// only call Sink.Deliver, never back into the Hub.
type Hub struct {
	mu       sync.Mutex
	registry *Registry
	pool     *Pool
	rooms    *RoomTable
	pairing  *Pairing
	now      func() time.Time
}

func NewHub(opts Options) *Hub {
	registry := NewRegistry(opts.MaxParticipants)
	pool := NewPool(registry, opts.MaxWaiting)
	rooms := NewRoomTable(registry)

	clock := opts.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	return &Hub{
		registry: registry,
		pool:     pool,
		rooms:    rooms,
		pairing:  NewPairing(registry, pool, rooms, opts.MaxScan),
		now:      clock,
	}
}

// FindResult is the outcome of a find-partner transition. Partner is only
// set when the requester got paired.
type FindResult struct {
	PairResult
	Self    domain.Participant
	Partner domain.Participant
}

// Teardown describes what a leave or disconnect undid. Room is nil when the
// participant was not paired.
type Teardown struct {
	Self       domain.Participant
	Room       *domain.Room
	Partner    domain.Participant
	WasWaiting bool
}

// Route is the resolved destination of a relayed message.
type Route struct {
	RoomID    domain.RoomID
	PartnerID domain.ParticipantID
	Sink      domain.Sink
}

type Stats struct {
	Online  int `json:"online"`
	Waiting int `json:"waiting"`
	Rooms   int `json:"rooms"`
}

// Register admits a new connection in the Idle state.
func (h *Hub) Register(userID string, sink domain.Sink) (domain.Participant, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, err := h.registry.Register(userID, sink, h.now())
	if err != nil {
		return domain.Participant{}, err
	}
	return *p, nil
}

// Lookup returns a snapshot of the participant.
func (h *Hub) Lookup(id domain.ParticipantID) (domain.Participant, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.registry.Lookup(id)
	if !ok {
		return domain.Participant{}, false
	}
	return *p, true
}

// FindPartner stores the match request on the participant and runs the
// pairing engine in the same critical section. notify sees the result of a
// successful transition, waiting or paired.
func (h *Hub) FindPartner(id domain.ParticipantID, request domain.MatchRequest, blocked map[string]struct{}, notify func(FindResult)) (FindResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.registry.Lookup(id)
	if !ok {
		return FindResult{}, domain.ErrUnknownParticipant
	}
	if p.State == domain.StatePaired {
		return FindResult{Self: *p}, domain.ErrAlreadyPaired
	}
	p.Request = request.Normalized()
	p.Blocked = blocked

	result, err := h.pairing.TryPair(id, h.now())
	if err != nil {
		return FindResult{Self: *p}, err
	}

	out := FindResult{PairResult: result, Self: *p}
	if result.Paired() {
		if partner, ok := h.registry.Lookup(result.PartnerID); ok {
			out.Partner = *partner
		}
	}
	if notify != nil {
		notify(out)
	}
	return out, nil
}

// Unpair destroys the participant's room, if any, and leaves it registered
// and idle. Pool membership is untouched.
func (h *Hub) Unpair(id domain.ParticipantID, notify func(Teardown)) (Teardown, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.registry.Lookup(id)
	if !ok {
		return Teardown{}, domain.ErrUnknownParticipant
	}
	td := h.destroyRoomOf(id)
	td.Self = *p
	if notify != nil {
		notify(td)
	}
	return td, nil
}

// Disconnect removes every trace of the participant. A second call for the
// same id reports ErrUnknownParticipant and changes nothing.
func (h *Hub) Disconnect(id domain.ParticipantID, notify func(Teardown)) (Teardown, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.registry.Lookup(id)
	if !ok {
		return Teardown{}, domain.ErrUnknownParticipant
	}

	td := h.destroyRoomOf(id)
	td.WasWaiting = h.pool.Remove(id)
	p.Unpair()
	td.Self = *p
	h.registry.Unregister(id)
	if notify != nil {
		notify(td)
	}
	return td, nil
}

// Route resolves the partner of sender for relaying. notify runs while the
// room is still guaranteed to exist.
func (h *Hub) Route(sender domain.ParticipantID, notify func(Route)) (Route, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.registry.Lookup(sender); !ok {
		return Route{}, domain.ErrUnknownParticipant
	}
	partnerID, roomID, ok := h.rooms.Partner(sender)
	if !ok {
		return Route{}, domain.ErrNotPaired
	}
	partner, ok := h.registry.Lookup(partnerID)
	if !ok {
		return Route{}, domain.ErrNotPaired
	}
	route := Route{RoomID: roomID, PartnerID: partnerID, Sink: partner.Sink}
	if notify != nil {
		notify(route)
	}
	return route, nil
}

// ParticipantsOf returns the live connections of a user identity.
func (h *Hub) ParticipantsOf(userID string) []domain.ParticipantID {
	if userID == "" {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.ByUser(userID)
}

// ExpireWaiting returns participants waiting since before cutoff to idle.
func (h *Hub) ExpireWaiting(cutoff time.Time, notify func(domain.Participant)) []domain.Participant {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := h.pool.WaitingBefore(cutoff)
	out := make([]domain.Participant, 0, len(ids))
	for _, id := range ids {
		h.pool.Remove(id)
		if p, ok := h.registry.Lookup(id); ok {
			p.Unpair()
			out = append(out, *p)
			if notify != nil {
				notify(*p)
			}
		}
	}
	return out
}

func (h *Hub) Sinks() []domain.Sink {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.Sinks()
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		Online:  h.registry.Len(),
		Waiting: h.pool.Len(),
		Rooms:   h.rooms.Len(),
	}
}

// destroyRoomOf must be called with h.mu held.
func (h *Hub) destroyRoomOf(id domain.ParticipantID) Teardown {
	roomID, ok := h.rooms.RoomOf(id)
	if !ok {
		return Teardown{}
	}
	room, ok := h.rooms.Destroy(roomID)
	if !ok {
		return Teardown{}
	}

	td := Teardown{Room: room}
	if member, ok := room.Partner(id); ok {
		if partner, ok := h.registry.Lookup(member.ID); ok {
			td.Partner = *partner
		}
	}
	return td
}
