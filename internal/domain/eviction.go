package domain

// Eviction is a moderation decision pushed by the external gate. Either
// ParticipantID or UserID identifies the target; UserID covers every live
// connection of that identity.
type Eviction struct {
	ParticipantID ParticipantID `json:"participant_id,omitempty"`
	UserID        string        `json:"user_id,omitempty"`
	Action        EvictAction   `json:"action"`
	Reason        string        `json:"reason,omitempty"`
}

func (e Eviction) Valid() bool {
	if e.ParticipantID == "" && e.UserID == "" {
		return false
	}
	return e.Action == ActionKick || e.Action == ActionBan
}
