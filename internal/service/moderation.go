package service

//go:generate go run go.uber.org/mock/mockgen -source=moderation.go -destination=../mocks/mock_moderation_gate.go -package=mocks

import "context"

// ModerationGate is the external moderation collaborator. Policy lives
// outside this service; only its decisions are consumed here.
type ModerationGate interface {
	BanStatus(ctx context.Context, userID string) (banned bool, reason string, err error)
	BlockedUsers(ctx context.Context, userID string) ([]string, error)
}
