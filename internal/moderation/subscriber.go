package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Gadfx/duhuze/internal/domain"
	"github.com/Gadfx/duhuze/lib/logger/sl"
	"github.com/redis/go-redis/v9"
)

var ErrInvalidEviction = errors.New("invalid eviction")

type Evictor interface {
	Evict(ctx context.Context, eviction domain.Eviction) (int, error)
}

// Subscriber consumes eviction events published by the moderation side on a
// Redis channel and forwards them to the evictor.
type Subscriber struct {
	rdb     *redis.Client
	channel string
	evictor Evictor
	log     *slog.Logger
}

func NewSubscriber(rdb *redis.Client, channel string, evictor Evictor, log *slog.Logger) *Subscriber {
	return &Subscriber{
		rdb:     rdb,
		channel: channel,
		evictor: evictor,
		log:     log,
	}
}

// Run blocks until ctx is done or the subscription is closed.
func (s *Subscriber) Run(ctx context.Context) error {
	const op = "moderation.subscriber.run"
	log := s.log.With(slog.String("op", op), slog.String("channel", s.channel))

	ps := s.rdb.Subscribe(ctx, s.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("listening for evictions")

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := s.Handle(ctx, msg.Payload); err != nil {
				log.Warn("eviction event rejected", sl.Err(err))
			}
		}
	}
}

// Handle decodes one eviction event and applies it.
func (s *Subscriber) Handle(ctx context.Context, payload string) error {
	eviction, err := DecodeEviction([]byte(payload))
	if err != nil {
		return err
	}

	n, err := s.evictor.Evict(ctx, eviction)
	if err != nil {
		return err
	}
	s.log.Debug("eviction applied",
		slog.String("user_id", eviction.UserID),
		slog.String("participant_id", string(eviction.ParticipantID)),
		slog.Int("connections", n),
	)
	return nil
}

func DecodeEviction(data []byte) (domain.Eviction, error) {
	var eviction domain.Eviction
	if err := json.Unmarshal(data, &eviction); err != nil {
		return domain.Eviction{}, fmt.Errorf("%w: %s", ErrInvalidEviction, err.Error())
	}
	if !eviction.Valid() {
		return domain.Eviction{}, ErrInvalidEviction
	}
	return eviction, nil
}

// Publish announces an eviction to every instance listening on channel.
func Publish(ctx context.Context, rdb redis.Cmdable, channel string, eviction domain.Eviction) error {
	const op = "moderation.publish"

	if !eviction.Valid() {
		return ErrInvalidEviction
	}
	data, err := json.Marshal(eviction)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := rdb.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
