package matchmaking

import (
	"fmt"
	"time"

	"github.com/Gadfx/duhuze/internal/domain"
)

type Outcome string

const (
	OutcomePaired   Outcome = "paired"
	OutcomeEnqueued Outcome = "enqueued"
)

// PairResult is returned to the requester. Role is the requester's role.
type PairResult struct {
	Outcome   Outcome
	Room      domain.Room
	Role      domain.Role
	PartnerID domain.ParticipantID
}

func (r PairResult) Paired() bool {
	return r.Outcome == OutcomePaired
}

// Pairing implements pop-or-enqueue over the pool. The participant already
// waiting becomes the initiator since it has to send the offer once the
// newcomer is attached.
// Pairing is not safe for concurrent use; Hub serializes access.
type Pairing struct {
	registry *Registry
	pool     *Pool
	rooms    *RoomTable
	maxScan  int
}

func NewPairing(registry *Registry, pool *Pool, rooms *RoomTable, maxScan int) *Pairing {
	return &Pairing{
		registry: registry,
		pool:     pool,
		rooms:    rooms,
		maxScan:  maxScan,
	}
}

func (e *Pairing) TryPair(requesterID domain.ParticipantID, at time.Time) (PairResult, error) {
	const op = "matchmaking.pairing.tryPair"

	requester, ok := e.registry.Lookup(requesterID)
	if !ok {
		return PairResult{}, domain.ErrUnknownParticipant
	}
	if requester.State == domain.StatePaired {
		return PairResult{}, domain.ErrAlreadyPaired
	}

	candidateID, found := e.pool.DequeueFirst(func(id domain.ParticipantID) bool {
		if id == requesterID {
			return false
		}
		candidate, ok := e.registry.Lookup(id)
		return ok && Compatible(requester, candidate)
	}, e.maxScan)

	if !found {
		if err := e.pool.Enqueue(requesterID, at); err != nil {
			return PairResult{}, fmt.Errorf("%s: %w", op, err)
		}
		return PairResult{Outcome: OutcomeEnqueued}, nil
	}

	candidate, _ := e.registry.Lookup(candidateID)
	e.pool.Remove(requesterID)

	room, err := e.rooms.Create(
		domain.Member{ID: candidateID, Role: domain.RoleInitiator},
		domain.Member{ID: requesterID, Role: domain.RoleResponder},
		roomMode(requester, candidate),
		at,
	)
	if err != nil {
		if candidate != nil {
			candidate.Unpair()
		}
		requester.Unpair()
		return PairResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return PairResult{
		Outcome:   OutcomePaired,
		Room:      *room,
		Role:      domain.RoleResponder,
		PartnerID: candidateID,
	}, nil
}
