package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoomID string

func NewRoomID() RoomID {
	return RoomID(uuid.NewString())
}

type Member struct {
	ID   ParticipantID
	Role Role
}

// Room is a two-party session. Members never change after creation.
type Room struct {
	ID        RoomID
	Members   [2]Member
	Mode      MatchMode
	CreatedAt time.Time
}

func NewRoom(a, b Member, mode MatchMode, at time.Time) *Room {
	return &Room{
		ID:        NewRoomID(),
		Members:   [2]Member{a, b},
		Mode:      mode,
		CreatedAt: at,
	}
}

func (r *Room) Has(id ParticipantID) bool {
	return r.Members[0].ID == id || r.Members[1].ID == id
}

// Partner returns the member opposite to id.
func (r *Room) Partner(id ParticipantID) (Member, bool) {
	switch id {
	case r.Members[0].ID:
		return r.Members[1], true
	case r.Members[1].ID:
		return r.Members[0], true
	}
	return Member{}, false
}

func (r *Room) Initiator() Member {
	if r.Members[0].Role == RoleInitiator {
		return r.Members[0]
	}
	return r.Members[1]
}

func (r *Room) Responder() Member {
	if r.Members[0].Role == RoleResponder {
		return r.Members[0]
	}
	return r.Members[1]
}
