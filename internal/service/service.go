package service

import (
	"context"

	"github.com/Gadfx/duhuze/internal/domain"
)

// MatchInteractor is the lifecycle surface used by the transport layer.
type MatchInteractor interface {
	Connect(ctx context.Context, userID string, sink domain.Sink) (domain.Participant, error)
	FindPartner(ctx context.Context, id domain.ParticipantID, request domain.MatchRequest) error
	Skip(ctx context.Context, id domain.ParticipantID) error
	Disconnect(ctx context.Context, id domain.ParticipantID) error
	Evict(ctx context.Context, eviction domain.Eviction) (int, error)
	Relay(ctx context.Context, id domain.ParticipantID, msg domain.SignalMessage) error
	Stats() Stats
}

type Stats struct {
	Online        int    `json:"online"`
	Waiting       int    `json:"waiting"`
	Rooms         int    `json:"rooms"`
	Relayed       uint64 `json:"relayed"`
	RoutingMisses uint64 `json:"routing_misses"`
}
