package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Gadfx/duhuze/internal/domain"
	"github.com/Gadfx/duhuze/internal/repository/model"
	"gorm.io/gorm"
)

type PostgresMatchRepository struct {
	db *gorm.DB
}

func NewPostgresMatchRepository(db *gorm.DB) *PostgresMatchRepository {
	return &PostgresMatchRepository{db: db}
}

func (r *PostgresMatchRepository) Create(ctx context.Context, match *domain.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if match == nil {
		return errors.New("match is nil")
	}

	if err := r.db.WithContext(ctx).Create(toModelMatch(match)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrMatchExists
		}
		return err
	}
	return nil
}

func (r *PostgresMatchRepository) Close(ctx context.Context, roomID domain.RoomID, endedAt time.Time, reason domain.LeaveReason) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).
		Model(&model.Match{}).
		Where("room_id = ?", string(roomID)).
		Updates(map[string]any{
			"ended_at":   endedAt,
			"end_reason": string(reason),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (r *PostgresMatchRepository) GetByRoom(ctx context.Context, roomID domain.RoomID) (*domain.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var match model.Match
	err := r.db.WithContext(ctx).First(&match, "room_id = ?", string(roomID)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	return toDomainMatch(&match), nil
}

func (r *PostgresMatchRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var matches []model.Match
	if err := query.Find(&matches).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.Match, 0, len(matches))
	for i := range matches {
		result = append(result, toDomainMatch(&matches[i]))
	}
	return result, nil
}

func toModelMatch(match *domain.Match) *model.Match {
	m := &model.Match{
		RoomID:        string(match.RoomID),
		InitiatorID:   string(match.InitiatorID),
		ResponderID:   string(match.ResponderID),
		InitiatorUser: optionalString(match.InitiatorUser),
		ResponderUser: optionalString(match.ResponderUser),
		Mode:          string(match.Mode),
		CreatedAt:     match.CreatedAt,
		EndReason:     string(match.EndReason),
	}
	if !match.EndedAt.IsZero() {
		endedAt := match.EndedAt
		m.EndedAt = &endedAt
	}
	return m
}

func toDomainMatch(m *model.Match) *domain.Match {
	match := &domain.Match{
		RoomID:      domain.RoomID(m.RoomID),
		InitiatorID: domain.ParticipantID(m.InitiatorID),
		ResponderID: domain.ParticipantID(m.ResponderID),
		Mode:        domain.MatchMode(m.Mode),
		CreatedAt:   m.CreatedAt,
		EndReason:   domain.LeaveReason(m.EndReason),
	}
	if m.InitiatorUser != nil {
		match.InitiatorUser = *m.InitiatorUser
	}
	if m.ResponderUser != nil {
		match.ResponderUser = *m.ResponderUser
	}
	if m.EndedAt != nil {
		match.EndedAt = *m.EndedAt
	}
	return match
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
