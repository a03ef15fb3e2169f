package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ParticipantID string

func NewParticipantID() ParticipantID {
	return ParticipantID(uuid.NewString())
}

type ParticipantState string

const (
	StateIdle    ParticipantState = "idle"
	StateWaiting ParticipantState = "waiting"
	StatePaired  ParticipantState = "paired"
)

// Role decides which side of a room creates the SDP offer.
type Role string

const (
	RoleInitiator Role = "initiator"
	RoleResponder Role = "responder"
)

func (r Role) Opposite() Role {
	if r == RoleInitiator {
		return RoleResponder
	}
	return RoleInitiator
}

// Sink is the outbound half of a live connection. Deliver must not block;
// it reports false when the message could not be queued.
type Sink interface {
	Deliver(msg SignalMessage) bool
	Close()
}

// Participant represents one live connection known to the registry.
// RoomID and Role are set only while State is StatePaired.
type Participant struct {
	ID           ParticipantID
	UserID       string
	State        ParticipantState
	RoomID       RoomID
	Role         Role
	Request      MatchRequest
	Blocked      map[string]struct{}
	ConnectedAt  time.Time
	WaitingSince time.Time
	Sink         Sink
}

func NewParticipant(userID string, sink Sink, at time.Time) *Participant {
	return &Participant{
		ID:          NewParticipantID(),
		UserID:      userID,
		State:       StateIdle,
		ConnectedAt: at,
		Sink:        sink,
	}
}

// Anonymous reports whether the connection carries no user identity.
func (p *Participant) Anonymous() bool {
	return p.UserID == ""
}

// Blocks reports whether p refuses to be matched with the given user.
func (p *Participant) Blocks(userID string) bool {
	if userID == "" || p.Blocked == nil {
		return false
	}
	_, ok := p.Blocked[userID]
	return ok
}

// Profile returns the opaque display metadata handed to the partner.
func (p *Participant) Profile() json.RawMessage {
	return p.Request.Profile
}

// Unpair returns the participant to StateIdle.
func (p *Participant) Unpair() {
	p.State = StateIdle
	p.RoomID = ""
	p.Role = ""
	p.WaitingSince = time.Time{}
}
