package domain

import "errors"

var (
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrResourceExhausted  = errors.New("resource exhausted")
	ErrRoutingMiss        = errors.New("routing miss")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrNotPaired          = errors.New("participant is not paired")
	ErrAlreadyPaired      = errors.New("participant is already paired")
	ErrBanned             = errors.New("participant is banned")
	ErrIdentityRequired   = errors.New("identity is required")
)
