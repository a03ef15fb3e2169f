package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Gadfx/duhuze/internal/domain"
	"github.com/Gadfx/duhuze/internal/matchmaking"
	"github.com/Gadfx/duhuze/internal/repository"
	"github.com/Gadfx/duhuze/lib/logger/sl"
	"github.com/pion/webrtc/v3"
	"github.com/samber/lo"
)

var ErrUnsupportedMessage = errors.New("unsupported message type")

const historyTimeout = 5 * time.Second

type MatchOptions struct {
	ICEServers      []webrtc.ICEServer
	BroadcastOnline bool
	WaitTimeout     time.Duration
	SweepInterval   time.Duration
	Clock           func() time.Time
}

// MatchService drives the participant state machine
// Idle -> Waiting -> Paired -> (Idle | gone). Notifications about a state
// change are queued inside the same hub critical section, so a client never
// sees paired after the partner-left that ends that room. Sink.Deliver only
// enqueues; socket writes and history I/O happen outside the lock.
type MatchService struct {
	hub     *matchmaking.Hub
	router  *SignalRouter
	gate    ModerationGate
	matches repository.MatchRepository
	opts    MatchOptions
	now     func() time.Time
	log     *slog.Logger
}

func NewMatchService(
	hub *matchmaking.Hub,
	router *SignalRouter,
	gate ModerationGate,
	matches repository.MatchRepository,
	opts MatchOptions,
	log *slog.Logger,
) *MatchService {
	if log == nil {
		log = slog.Default()
	}
	if router == nil {
		router = NewSignalRouter(hub, log)
	}
	now := opts.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &MatchService{
		hub:     hub,
		router:  router,
		gate:    gate,
		matches: matches,
		opts:    opts,
		now:     now,
		log:     log,
	}
}

func (s *MatchService) Connect(ctx context.Context, userID string, sink domain.Sink) (domain.Participant, error) {
	const op = "service.match.connect"
	log := s.log.With(slog.String("op", op), slog.String("user_id", userID))

	if userID != "" && s.gate != nil {
		banned, reason, err := s.gate.BanStatus(ctx, userID)
		if err != nil {
			log.Warn("ban status unavailable, admitting", sl.Err(err))
		} else if banned {
			log.Info("rejecting banned user", slog.String("reason", reason))
			return domain.Participant{}, domain.ErrBanned
		}
	}

	p, err := s.hub.Register(userID, sink)
	if err != nil {
		log.Warn("registration rejected", sl.Err(err))
		return domain.Participant{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("participant connected", slog.String("participant_id", string(p.ID)))
	s.broadcastOnline()
	return p, nil
}

func (s *MatchService) FindPartner(ctx context.Context, id domain.ParticipantID, request domain.MatchRequest) error {
	const op = "service.match.findPartner"
	log := s.log.With(slog.String("op", op), slog.String("participant_id", string(id)))

	self, ok := s.hub.Lookup(id)
	if !ok {
		log.Debug("ignoring find-partner", sl.Err(domain.ErrUnknownParticipant))
		return nil
	}

	res, err := s.hub.FindPartner(id, request, s.blockedSet(ctx, self.UserID), func(res matchmaking.FindResult) {
		if !res.Paired() {
			deliver(res.Self.Sink, domain.WaitingMessage())
			return
		}
		// The initiator learns about the room first: it owns the offer.
		deliver(res.Partner.Sink, domain.PairedMessage(res.Room.ID, res.Partner.Role, res.Self.Profile(), s.opts.ICEServers))
		deliver(res.Self.Sink, domain.PairedMessage(res.Room.ID, res.Role, res.Partner.Profile(), s.opts.ICEServers))
	})
	switch {
	case errors.Is(err, domain.ErrUnknownParticipant):
		log.Debug("ignoring find-partner", sl.Err(err))
		return nil
	case errors.Is(err, domain.ErrAlreadyPaired):
		log.Debug("find-partner while paired", slog.String("room_id", string(res.Self.RoomID)))
		return nil
	case errors.Is(err, domain.ErrResourceExhausted):
		log.Warn("waiting pool is full")
		deliver(self.Sink, domain.ErrorMessage("waiting pool is full"))
		return fmt.Errorf("%s: %w", op, err)
	case err != nil:
		log.Error("pairing failed", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if !res.Paired() {
		log.Info("participant waiting")
		return nil
	}

	room := res.Room
	log.Info("participants paired",
		slog.String("room_id", string(room.ID)),
		slog.String("partner_id", string(res.PartnerID)),
		slog.String("mode", string(room.Mode)),
	)

	s.recordOpen(ctx, &domain.Match{
		RoomID:        room.ID,
		InitiatorID:   res.Partner.ID,
		ResponderID:   res.Self.ID,
		InitiatorUser: res.Partner.UserID,
		ResponderUser: res.Self.UserID,
		Mode:          room.Mode,
		CreatedAt:     room.CreatedAt,
	})
	return nil
}

// Skip leaves the current room and immediately looks for a new partner with
// the same match request. The former partner is only told; it decides on
// its own whether to search again.
func (s *MatchService) Skip(ctx context.Context, id domain.ParticipantID) error {
	const op = "service.match.skip"
	log := s.log.With(slog.String("op", op), slog.String("participant_id", string(id)))

	td, err := s.hub.Unpair(id, func(td matchmaking.Teardown) {
		notifyPartnerLeft(td, domain.ReasonSkip)
	})
	if err != nil {
		log.Debug("ignoring skip", sl.Err(err))
		return nil
	}
	if td.Room != nil {
		log.Info("participant skipped", slog.String("room_id", string(td.Room.ID)))
		s.recordClose(ctx, td.Room.ID, domain.ReasonSkip)
	}

	return s.FindPartner(ctx, id, td.Self.Request)
}

// Disconnect removes the participant for good. Duplicate calls, e.g. an
// explicit stop racing the socket close, find nothing to do.
func (s *MatchService) Disconnect(ctx context.Context, id domain.ParticipantID) error {
	const op = "service.match.disconnect"
	log := s.log.With(slog.String("op", op), slog.String("participant_id", string(id)))

	td, err := s.hub.Disconnect(id, func(td matchmaking.Teardown) {
		notifyPartnerLeft(td, domain.ReasonDisconnect)
	})
	if err != nil {
		log.Debug("ignoring disconnect", sl.Err(err))
		return nil
	}

	log.Info("participant disconnected", slog.Bool("was_waiting", td.WasWaiting))
	s.closeRecord(ctx, td, domain.ReasonDisconnect)
	if td.Self.Sink != nil {
		td.Self.Sink.Close()
	}
	s.broadcastOnline()
	return nil
}

// Evict force-disconnects the target. The partner is told before the
// evicted connection receives its reason, and the connection is closed last.
// It returns the number of connections evicted.
func (s *MatchService) Evict(ctx context.Context, eviction domain.Eviction) (int, error) {
	const op = "service.match.evict"
	log := s.log.With(
		slog.String("op", op),
		slog.String("participant_id", string(eviction.ParticipantID)),
		slog.String("user_id", eviction.UserID),
		slog.String("action", string(eviction.Action)),
	)

	if !eviction.Valid() {
		return 0, fmt.Errorf("%s: invalid eviction", op)
	}

	targets := lo.Compact([]domain.ParticipantID{eviction.ParticipantID})
	targets = lo.Uniq(append(targets, s.hub.ParticipantsOf(eviction.UserID)...))

	evicted := 0
	for _, id := range targets {
		td, err := s.hub.Disconnect(id, func(td matchmaking.Teardown) {
			notifyPartnerLeft(td, domain.ReasonEvicted)
			deliver(td.Self.Sink, domain.EvictedMessage(eviction.Action, eviction.Reason))
		})
		if err != nil {
			log.Debug("eviction target already gone", slog.String("target", string(id)))
			continue
		}

		s.closeRecord(ctx, td, domain.ReasonEvicted)
		if td.Self.Sink != nil {
			td.Self.Sink.Close()
		}
		evicted++
	}

	if evicted > 0 {
		log.Info("participants evicted", slog.Int("count", evicted))
		s.broadcastOnline()
	}
	return evicted, nil
}

func (s *MatchService) Relay(_ context.Context, id domain.ParticipantID, msg domain.SignalMessage) error {
	return s.router.Relay(id, msg)
}

// ExpireWaiting returns participants waiting longer than the configured
// timeout to idle and tells them so.
func (s *MatchService) ExpireWaiting() int {
	if s.opts.WaitTimeout <= 0 {
		return 0
	}
	expired := s.hub.ExpireWaiting(s.now().Add(-s.opts.WaitTimeout), func(p domain.Participant) {
		deliver(p.Sink, domain.WaitExpiredMessage())
	})
	if len(expired) > 0 {
		s.log.Info("waiting participants expired", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// RunExpiry sweeps the waiting pool until ctx is done. It returns at once
// when no wait timeout is configured.
func (s *MatchService) RunExpiry(ctx context.Context) {
	if s.opts.WaitTimeout <= 0 {
		return
	}
	interval := s.opts.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ExpireWaiting()
		}
	}
}

func (s *MatchService) Stats() Stats {
	hs := s.hub.Stats()
	return Stats{
		Online:        hs.Online,
		Waiting:       hs.Waiting,
		Rooms:         hs.Rooms,
		Relayed:       s.router.Relayed(),
		RoutingMisses: s.router.RoutingMisses(),
	}
}

// notifyPartnerLeft runs inside the hub transition that destroyed the room.
// The remaining member is only told, never re-enqueued.
func notifyPartnerLeft(td matchmaking.Teardown, reason domain.LeaveReason) {
	if td.Room == nil {
		return
	}
	deliver(td.Partner.Sink, domain.PartnerLeftMessage(td.Room.ID, reason))
}

func (s *MatchService) closeRecord(ctx context.Context, td matchmaking.Teardown, reason domain.LeaveReason) {
	if td.Room == nil {
		return
	}
	s.recordClose(ctx, td.Room.ID, reason)
}

func (s *MatchService) blockedSet(ctx context.Context, userID string) map[string]struct{} {
	if userID == "" || s.gate == nil {
		return nil
	}
	blocked, err := s.gate.BlockedUsers(ctx, userID)
	if err != nil {
		s.log.Warn("block list unavailable", slog.String("user_id", userID), sl.Err(err))
		return nil
	}
	if len(blocked) == 0 {
		return nil
	}
	return lo.SliceToMap(blocked, func(u string) (string, struct{}) {
		return u, struct{}{}
	})
}

func (s *MatchService) broadcastOnline() {
	if !s.opts.BroadcastOnline {
		return
	}
	sinks := s.hub.Sinks()
	msg := domain.OnlineMessage(len(sinks))
	for _, sink := range sinks {
		sink.Deliver(msg)
	}
}

func (s *MatchService) recordOpen(ctx context.Context, match *domain.Match) {
	if s.matches == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()
	if err := s.matches.Create(ctx, match); err != nil {
		s.log.Error("failed to record match", slog.String("room_id", string(match.RoomID)), sl.Err(err))
	}
}

func (s *MatchService) recordClose(ctx context.Context, roomID domain.RoomID, reason domain.LeaveReason) {
	if s.matches == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()
	if err := s.matches.Close(ctx, roomID, s.now(), reason); err != nil {
		s.log.Error("failed to close match", slog.String("room_id", string(roomID)), sl.Err(err))
	}
}

func deliver(sink domain.Sink, msg domain.SignalMessage) {
	if sink == nil {
		return
	}
	sink.Deliver(msg)
}
