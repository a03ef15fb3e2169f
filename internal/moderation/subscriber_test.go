package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/Gadfx/duhuze/internal/domain"
	"github.com/Gadfx/duhuze/lib/logger/slogdiscard"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"
)

type evictorFunc func(ctx context.Context, eviction domain.Eviction) (int, error)

func (f evictorFunc) Evict(ctx context.Context, eviction domain.Eviction) (int, error) {
	return f(ctx, eviction)
}

func TestSubscriber_Handle(t *testing.T) {
	var got []domain.Eviction
	evictor := evictorFunc(func(_ context.Context, e domain.Eviction) (int, error) {
		if e.UserID == "broken" {
			return 0, errors.New("boom")
		}
		got = append(got, e)
		return 1, nil
	})
	sub := NewSubscriber(nil, "moderation:evictions", evictor, slogdiscard.NewDiscardLogger())

	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{name: "Ban by user", payload: `{"user_id":"u1","action":"ban","reason":"spam"}`},
		{name: "Kick by participant", payload: `{"participant_id":"p1","action":"kick"}`},
		{name: "Malformed json", payload: `{"user_id":`, wantErr: ErrInvalidEviction},
		{name: "No target", payload: `{"action":"kick"}`, wantErr: ErrInvalidEviction},
		{name: "Unknown action", payload: `{"user_id":"u1","action":"mute"}`, wantErr: ErrInvalidEviction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sub.Handle(context.Background(), tt.payload)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}

	req := require.New(t)
	req.Len(got, 2)
	req.Equal(domain.Eviction{UserID: "u1", Action: domain.ActionBan, Reason: "spam"}, got[0])
	req.Equal(domain.ParticipantID("p1"), got[1].ParticipantID)

	req.Error(sub.Handle(context.Background(), `{"user_id":"broken","action":"kick"}`))
}

func TestPublish(t *testing.T) {
	req := require.New(t)
	db, mock := redismock.NewClientMock()
	eviction := domain.Eviction{UserID: "u1", Action: domain.ActionKick, Reason: "rude"}

	mock.ExpectPublish("moderation:evictions", []byte(`{"user_id":"u1","action":"kick","reason":"rude"}`)).SetVal(1)

	req.NoError(Publish(context.Background(), db, "moderation:evictions", eviction))
	req.ErrorIs(Publish(context.Background(), db, "moderation:evictions", domain.Eviction{}), ErrInvalidEviction)
	req.NoError(mock.ExpectationsWereMet())
}
