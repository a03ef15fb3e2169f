package repository

//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=../mocks/mock_match_repository.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"github.com/Gadfx/duhuze/internal/domain"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrMatchExists   = errors.New("match already exists")
)

// MatchRepository keeps the diagnostics history of rooms.
type MatchRepository interface {
	Create(ctx context.Context, match *domain.Match) error
	Close(ctx context.Context, roomID domain.RoomID, endedAt time.Time, reason domain.LeaveReason) error
	GetByRoom(ctx context.Context, roomID domain.RoomID) (*domain.Match, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.Match, error)
}
