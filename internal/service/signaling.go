package service

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/Gadfx/duhuze/internal/domain"
	"github.com/Gadfx/duhuze/internal/matchmaking"
)

// SignalRouter forwards offers, answers, ICE candidates and chat text to
// the sender's partner. It only reads the room table.
type SignalRouter struct {
	hub     *matchmaking.Hub
	log     *slog.Logger
	relayed atomic.Uint64
	misses  atomic.Uint64
}

func NewSignalRouter(hub *matchmaking.Hub, log *slog.Logger) *SignalRouter {
	if log == nil {
		log = slog.Default()
	}
	return &SignalRouter{hub: hub, log: log}
}

// Relay delivers msg to the partner of sender. A sender without a room is a
// routing miss: the message is dropped and counted, never reported back.
// Per-sender order holds because each sender relays from a single reader
// and each partner has a single FIFO outbox. The forward is queued while the
// room still exists, so it can never trail the partner-left that ends it.
func (r *SignalRouter) Relay(sender domain.ParticipantID, msg domain.SignalMessage) error {
	const op = "service.signaling.relay"
	log := r.log.With(
		slog.String("op", op),
		slog.String("participant_id", string(sender)),
		slog.String("type", string(msg.Type)),
	)

	if !msg.Type.Relayable() {
		return ErrUnsupportedMessage
	}

	delivered := false
	route, err := r.hub.Route(sender, func(route matchmaking.Route) {
		if route.Sink == nil {
			return
		}
		delivered = route.Sink.Deliver(domain.SignalMessage{
			Type:    msg.Type,
			Room:    string(route.RoomID),
			Payload: msg.Payload,
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotPaired) || errors.Is(err, domain.ErrUnknownParticipant) {
			r.misses.Add(1)
			log.Debug("dropping stale signal", slog.String("reason", err.Error()))
			return nil
		}
		return err
	}

	if !delivered {
		r.misses.Add(1)
		log.Warn("partner outbox rejected signal", slog.String("partner_id", string(route.PartnerID)))
		return nil
	}

	r.relayed.Add(1)
	return nil
}

func (r *SignalRouter) Relayed() uint64 {
	return r.relayed.Load()
}

func (r *SignalRouter) RoutingMisses() uint64 {
	return r.misses.Load()
}
