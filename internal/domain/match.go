package domain

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

type MatchMode string

const (
	ModeRandom        MatchMode = "random"
	ModeInterestBased MatchMode = "interest_based"
)

const (
	defaultAgeMin = 18
	defaultAgeMax = 100
)

// Traits describe a participant for interest based matching.
type Traits struct {
	Age       int      `json:"age,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

// Preferences filter candidates. Interests falls back to the requester's own
// traits when empty.
type Preferences struct {
	AgeMin          int      `json:"age_min,omitempty"`
	AgeMax          int      `json:"age_max,omitempty"`
	PreferredGender string   `json:"preferred_gender,omitempty"`
	Interests       []string `json:"interests,omitempty"`
}

// MatchRequest is the optional body of a find-partner message.
// Profile is never inspected, only handed over to the partner.
type MatchRequest struct {
	Mode        MatchMode       `json:"mode,omitempty"`
	Profile     json.RawMessage `json:"profile,omitempty"`
	Traits      Traits          `json:"traits"`
	Preferences Preferences     `json:"preferences"`
}

func (r MatchRequest) Normalized() MatchRequest {
	if r.Mode != ModeInterestBased {
		r.Mode = ModeRandom
	}
	if r.Preferences.AgeMin <= 0 {
		r.Preferences.AgeMin = defaultAgeMin
	}
	if r.Preferences.AgeMax <= 0 {
		r.Preferences.AgeMax = defaultAgeMax
	}
	r.Traits.Gender = strings.ToLower(strings.TrimSpace(r.Traits.Gender))
	r.Preferences.PreferredGender = strings.ToLower(strings.TrimSpace(r.Preferences.PreferredGender))
	return r
}

// Accepts reports whether other satisfies the preferences of r.
// Unknown age (0) is accepted.
func (r MatchRequest) Accepts(other Traits) bool {
	if r.Mode != ModeInterestBased {
		return true
	}
	if other.Age != 0 && (other.Age < r.Preferences.AgeMin || other.Age > r.Preferences.AgeMax) {
		return false
	}
	if r.Preferences.PreferredGender != "" && other.Gender != r.Preferences.PreferredGender {
		return false
	}
	wanted := r.Preferences.Interests
	if len(wanted) == 0 {
		wanted = r.Traits.Interests
	}
	if len(wanted) > 0 && len(other.Interests) > 0 {
		return slices.ContainsFunc(wanted, func(interest string) bool {
			return slices.Contains(other.Interests, interest)
		})
	}
	return true
}

type LeaveReason string

const (
	ReasonSkip       LeaveReason = "skip"
	ReasonDisconnect LeaveReason = "disconnect"
	ReasonEvicted    LeaveReason = "evicted"
)

type EvictAction string

const (
	ActionKick EvictAction = "kick"
	ActionBan  EvictAction = "ban"
)

// Match is the diagnostics record of one room. Chat content is never
// part of it.
type Match struct {
	RoomID        RoomID
	InitiatorID   ParticipantID
	ResponderID   ParticipantID
	InitiatorUser string
	ResponderUser string
	Mode          MatchMode
	CreatedAt     time.Time
	EndedAt       time.Time
	EndReason     LeaveReason
}

func (m *Match) Duration() time.Duration {
	if m.EndedAt.IsZero() {
		return 0
	}
	return m.EndedAt.Sub(m.CreatedAt)
}
