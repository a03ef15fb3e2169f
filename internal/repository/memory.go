package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Gadfx/duhuze/internal/domain"
)

type InMemoryMatchRepository struct {
	mu      sync.RWMutex
	matches map[domain.RoomID]*domain.Match
}

func NewInMemoryMatchRepository() *InMemoryMatchRepository {
	return &InMemoryMatchRepository{
		matches: make(map[domain.RoomID]*domain.Match),
	}
}

func (r *InMemoryMatchRepository) Create(ctx context.Context, match *domain.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.matches[match.RoomID]; ok {
		return ErrMatchExists
	}

	stored := *match
	r.matches[match.RoomID] = &stored
	return nil
}

func (r *InMemoryMatchRepository) Close(ctx context.Context, roomID domain.RoomID, endedAt time.Time, reason domain.LeaveReason) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	match, ok := r.matches[roomID]
	if !ok {
		return ErrMatchNotFound
	}

	match.EndedAt = endedAt
	match.EndReason = reason
	return nil
}

func (r *InMemoryMatchRepository) GetByRoom(ctx context.Context, roomID domain.RoomID) (*domain.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	match, ok := r.matches[roomID]
	if !ok {
		return nil, ErrMatchNotFound
	}

	out := *match
	return &out, nil
}

func (r *InMemoryMatchRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	result := make([]*domain.Match, 0, len(r.matches))
	for _, match := range r.matches {
		out := *match
		result = append(result, &out)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
