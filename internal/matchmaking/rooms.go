package matchmaking

import (
	"time"

	"github.com/Gadfx/duhuze/internal/domain"
)

// RoomTable owns the active rooms. The participant -> room map is the only
// source of truth for "current room", which makes double booking a checked
// invariant instead of a scan.
// RoomTable is not safe for concurrent use; Hub serializes access.
type RoomTable struct {
	registry      *Registry
	rooms         map[domain.RoomID]*domain.Room
	byParticipant map[domain.ParticipantID]domain.RoomID
}

func NewRoomTable(registry *Registry) *RoomTable {
	return &RoomTable{
		registry:      registry,
		rooms:         make(map[domain.RoomID]*domain.Room),
		byParticipant: make(map[domain.ParticipantID]domain.RoomID),
	}
}

// Create binds two registered, unpaired participants into a new room.
func (t *RoomTable) Create(a domain.Member, b domain.Member, mode domain.MatchMode, at time.Time) (*domain.Room, error) {
	if a.ID == b.ID || a.Role == b.Role {
		return nil, domain.ErrInvariantViolation
	}
	pa, ok := t.registry.Lookup(a.ID)
	if !ok {
		return nil, domain.ErrUnknownParticipant
	}
	pb, ok := t.registry.Lookup(b.ID)
	if !ok {
		return nil, domain.ErrUnknownParticipant
	}
	if _, busy := t.byParticipant[a.ID]; busy {
		return nil, domain.ErrInvariantViolation
	}
	if _, busy := t.byParticipant[b.ID]; busy {
		return nil, domain.ErrInvariantViolation
	}

	room := domain.NewRoom(a, b, mode, at)
	t.rooms[room.ID] = room
	t.byParticipant[a.ID] = room.ID
	t.byParticipant[b.ID] = room.ID

	for _, pair := range []struct {
		p *domain.Participant
		m domain.Member
	}{{pa, a}, {pb, b}} {
		pair.p.State = domain.StatePaired
		pair.p.RoomID = room.ID
		pair.p.Role = pair.m.Role
		pair.p.WaitingSince = time.Time{}
	}
	return room, nil
}

// Partner resolves the other member of id's room.
func (t *RoomTable) Partner(id domain.ParticipantID) (domain.ParticipantID, domain.RoomID, bool) {
	roomID, ok := t.byParticipant[id]
	if !ok {
		return "", "", false
	}
	partner, ok := t.rooms[roomID].Partner(id)
	if !ok {
		return "", "", false
	}
	return partner.ID, roomID, true
}

func (t *RoomTable) Get(id domain.RoomID) (*domain.Room, bool) {
	room, ok := t.rooms[id]
	return room, ok
}

// RoomOf returns the room id currently held by a participant.
func (t *RoomTable) RoomOf(id domain.ParticipantID) (domain.RoomID, bool) {
	roomID, ok := t.byParticipant[id]
	return roomID, ok
}

// Destroy removes the room and returns both members to idle. Unknown ids are
// ignored.
func (t *RoomTable) Destroy(id domain.RoomID) (*domain.Room, bool) {
	room, ok := t.rooms[id]
	if !ok {
		return nil, false
	}
	delete(t.rooms, id)
	for _, m := range room.Members {
		delete(t.byParticipant, m.ID)
		if p, ok := t.registry.Lookup(m.ID); ok {
			p.Unpair()
		}
	}
	return room, true
}

func (t *RoomTable) Len() int {
	return len(t.rooms)
}
