package converter

import (
	"time"

	"github.com/Gadfx/duhuze/internal/domain"
	"github.com/samber/lo"
)

// MatchResponse leaves out user identities: history is exposed for
// diagnostics only.
type MatchResponse struct {
	RoomID      string     `json:"room_id"`
	InitiatorID string     `json:"initiator_id"`
	ResponderID string     `json:"responder_id"`
	Mode        string     `json:"mode"`
	CreatedAt   time.Time  `json:"created_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	EndReason   string     `json:"end_reason,omitempty"`
	DurationSec float64    `json:"duration_sec"`
}

func MatchToApi(m *domain.Match) *MatchResponse {
	resp := &MatchResponse{
		RoomID:      string(m.RoomID),
		InitiatorID: string(m.InitiatorID),
		ResponderID: string(m.ResponderID),
		Mode:        string(m.Mode),
		CreatedAt:   m.CreatedAt,
		EndReason:   string(m.EndReason),
		DurationSec: m.Duration().Seconds(),
	}
	if !m.EndedAt.IsZero() {
		endedAt := m.EndedAt
		resp.EndedAt = &endedAt
	}
	return resp
}

func MatchesToApi(matches []*domain.Match) []*MatchResponse {
	return lo.Map(matches, func(m *domain.Match, _ int) *MatchResponse {
		return MatchToApi(m)
	})
}
