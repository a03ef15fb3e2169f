package matchmaking

import (
	"sync"
	"testing"
	"time"

	"github.com/Gadfx/duhuze/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestHub_FindPartner_Pairs_Waiting_As_Initiator(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{Clock: fakeClock()})
	a := mustRegister(t, hub, "")
	b := mustRegister(t, hub, "")

	// Given A is waiting
	res, err := hub.FindPartner(a, domain.MatchRequest{}, nil, nil)
	req.NoError(err)
	req.Equal(OutcomeEnqueued, res.Outcome)
	req.Equal(domain.StateWaiting, res.Self.State)

	// When B looks for a partner
	res, err = hub.FindPartner(b, domain.MatchRequest{}, nil, nil)
	req.NoError(err)

	// Then B joins A, A initiates
	req.True(res.Paired())
	req.Equal(a, res.PartnerID)
	req.Equal(domain.RoleResponder, res.Role)
	req.Equal(a, res.Room.Initiator().ID)
	req.Equal(b, res.Room.Responder().ID)
	req.Equal(domain.RoleInitiator, res.Partner.Role)
	req.Equal(res.Room.ID, res.Partner.RoomID)

	requireConsistent(t, hub)
	req.Equal(Stats{Online: 2, Waiting: 0, Rooms: 1}, hub.Stats())
}

func TestHub_FindPartner_FIFO(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{Clock: fakeClock()})

	// Given A, B and C wait in that order and cannot match each other
	picky := domain.MatchRequest{
		Mode:        domain.ModeInterestBased,
		Traits:      domain.Traits{Gender: "male"},
		Preferences: domain.Preferences{PreferredGender: "female"},
	}
	var waiting []domain.ParticipantID
	for i := 0; i < 3; i++ {
		id := mustRegister(t, hub, "")
		res, err := hub.FindPartner(id, picky, nil, nil)
		req.NoError(err)
		req.Equal(OutcomeEnqueued, res.Outcome)
		waiting = append(waiting, id)
	}

	// When D arrives
	d := mustRegister(t, hub, "")
	res, err := hub.FindPartner(d, domain.MatchRequest{
		Mode:        domain.ModeInterestBased,
		Traits:      domain.Traits{Gender: "female"},
		Preferences: domain.Preferences{PreferredGender: "male"},
	}, nil, nil)
	req.NoError(err)

	// Then D pairs with the oldest one and the rest keep their order
	req.True(res.Paired())
	req.Equal(waiting[0], res.PartnerID)
	req.Equal(domain.ModeInterestBased, res.Room.Mode)

	hub.mu.Lock()
	req.Equal(waiting[1:], hub.pool.IDs())
	hub.mu.Unlock()
	requireConsistent(t, hub)
}

func TestHub_FindPartner_Bounded_Scan(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{MaxScan: 1, Clock: fakeClock()})

	blocked := mustRegister(t, hub, "user-blocked")
	open := mustRegister(t, hub, "user-open")
	_, err := hub.FindPartner(blocked, domain.MatchRequest{}, nil, nil)
	req.NoError(err)
	_, err = hub.FindPartner(open, domain.MatchRequest{}, map[string]struct{}{"user-blocked": {}}, nil)
	req.NoError(err)

	// Given the head of the pool blocks the newcomer, only one entry is scanned
	c := mustRegister(t, hub, "user-c")
	_, err = hub.FindPartner(blocked, domain.MatchRequest{}, map[string]struct{}{"user-c": {}}, nil)
	req.NoError(err)

	res, err := hub.FindPartner(c, domain.MatchRequest{}, nil, nil)
	req.NoError(err)

	// Then the newcomer waits behind the others
	req.Equal(OutcomeEnqueued, res.Outcome)
	hub.mu.Lock()
	req.Equal([]domain.ParticipantID{blocked, open, c}, hub.pool.IDs())
	hub.mu.Unlock()
	requireConsistent(t, hub)
}

func TestHub_FindPartner_Block_Relation_Both_Directions(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{Clock: fakeClock()})

	a := mustRegister(t, hub, "user-a")
	b := mustRegister(t, hub, "user-b")

	_, err := hub.FindPartner(a, domain.MatchRequest{}, map[string]struct{}{"user-b": {}}, nil)
	req.NoError(err)

	// When B, blocked by A, looks for a partner
	res, err := hub.FindPartner(b, domain.MatchRequest{}, nil, nil)
	req.NoError(err)

	// Then they are never paired
	req.Equal(OutcomeEnqueued, res.Outcome)
	req.Equal(0, hub.Stats().Rooms)
}

func TestHub_FindPartner_Same_User_Not_Paired(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{Clock: fakeClock()})

	first := mustRegister(t, hub, "user-a")
	second := mustRegister(t, hub, "user-a")
	_, err := hub.FindPartner(first, domain.MatchRequest{}, nil, nil)
	req.NoError(err)

	res, err := hub.FindPartner(second, domain.MatchRequest{}, nil, nil)
	req.NoError(err)
	req.Equal(OutcomeEnqueued, res.Outcome)
}

func TestHub_FindPartner_Waiting_Retry_Keeps_Position(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{Clock: fakeClock()})

	a := mustRegister(t, hub, "")
	_, err := hub.FindPartner(a, domain.MatchRequest{}, nil, nil)
	req.NoError(err)

	// When A asks again with nobody around
	res, err := hub.FindPartner(a, domain.MatchRequest{}, nil, nil)
	req.NoError(err)

	// Then it is still waiting exactly once
	req.Equal(OutcomeEnqueued, res.Outcome)
	req.Equal(1, hub.Stats().Waiting)
	requireConsistent(t, hub)
}

func TestHub_FindPartner_Errors(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{Clock: fakeClock()})

	_, err := hub.FindPartner("missing", domain.MatchRequest{}, nil, nil)
	req.ErrorIs(err, domain.ErrUnknownParticipant)

	a := mustRegister(t, hub, "")
	b := mustRegister(t, hub, "")
	_, _ = hub.FindPartner(a, domain.MatchRequest{}, nil, nil)
	_, _ = hub.FindPartner(b, domain.MatchRequest{}, nil, nil)

	_, err = hub.FindPartner(a, domain.MatchRequest{}, nil, nil)
	req.ErrorIs(err, domain.ErrAlreadyPaired)
	requireConsistent(t, hub)
}

func TestHub_Concurrent_FindPartner_Atomicity(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{})

	const n = 200
	ids := make([]domain.ParticipantID, n)
	for i := range ids {
		ids[i] = mustRegister(t, hub, "")
	}

	// When every participant looks for a partner at the same time
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, n)
	for _, id := range ids {
		wg.Add(1)
		go func(id domain.ParticipantID) {
			defer wg.Done()
			<-start
			if _, err := hub.FindPartner(id, domain.MatchRequest{}, nil, nil); err != nil {
				errs <- err
			}
		}(id)
	}
	close(start)
	wg.Wait()
	close(errs)
	req.Empty(errs)

	// Then exactly n/2 rooms cover everybody once
	req.Equal(Stats{Online: n, Waiting: 0, Rooms: n / 2}, hub.Stats())
	requireConsistent(t, hub)
}

func TestHub_Concurrent_Churn_Keeps_Invariants(t *testing.T) {
	hub := NewHub(Options{})

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				p, err := hub.Register("", nopSink{})
				if err != nil {
					continue
				}
				_, _ = hub.FindPartner(p.ID, domain.MatchRequest{}, nil, nil)
				_, _ = hub.Route(p.ID, nil)
				switch i % 3 {
				case 0:
					_, _ = hub.Unpair(p.ID, nil)
					_, _ = hub.FindPartner(p.ID, domain.MatchRequest{}, nil, nil)
				case 1:
					_, _ = hub.Disconnect(p.ID, nil)
				}
			}
		}()
	}
	wg.Wait()

	requireConsistent(t, hub)
}

func TestHub_Disconnect_Idempotent(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{Clock: fakeClock()})
	a := mustRegister(t, hub, "")
	b := mustRegister(t, hub, "")
	_, _ = hub.FindPartner(a, domain.MatchRequest{}, nil, nil)
	res, _ := hub.FindPartner(b, domain.MatchRequest{}, nil, nil)

	// When A disconnects
	td, err := hub.Disconnect(a, nil)
	req.NoError(err)

	// Then the room is gone and B is idle
	req.NotNil(td.Room)
	req.Equal(res.Room.ID, td.Room.ID)
	req.Equal(b, td.Partner.ID)
	req.Equal(domain.StateIdle, td.Partner.State)

	// When A disconnects again
	td, err = hub.Disconnect(a, nil)

	// Then nothing happens
	req.ErrorIs(err, domain.ErrUnknownParticipant)
	req.Nil(td.Room)
	req.Equal(Stats{Online: 1}, hub.Stats())
	requireConsistent(t, hub)
}

func TestHub_Disconnect_Waiting(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{Clock: fakeClock()})
	a := mustRegister(t, hub, "user-a")
	_, _ = hub.FindPartner(a, domain.MatchRequest{}, nil, nil)

	td, err := hub.Disconnect(a, nil)
	req.NoError(err)
	req.True(td.WasWaiting)
	req.Nil(td.Room)
	req.Nil(hub.ParticipantsOf("user-a"))
	req.Equal(Stats{}, hub.Stats())
}

func TestHub_Route(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{Clock: fakeClock()})
	a := mustRegister(t, hub, "")
	b := mustRegister(t, hub, "")

	_, err := hub.Route(a, nil)
	req.ErrorIs(err, domain.ErrNotPaired)
	_, err = hub.Route("missing", nil)
	req.ErrorIs(err, domain.ErrUnknownParticipant)

	_, _ = hub.FindPartner(a, domain.MatchRequest{}, nil, nil)
	res, _ := hub.FindPartner(b, domain.MatchRequest{}, nil, nil)

	route, err := hub.Route(a, nil)
	req.NoError(err)
	req.Equal(b, route.PartnerID)
	req.Equal(res.Room.ID, route.RoomID)
	req.NotNil(route.Sink)

	// When B is gone, A's messages have nowhere to go
	_, _ = hub.Disconnect(b, nil)
	_, err = hub.Route(a, nil)
	req.ErrorIs(err, domain.ErrNotPaired)
}

func TestHub_Unpair(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{Clock: fakeClock()})
	a := mustRegister(t, hub, "")
	b := mustRegister(t, hub, "")
	_, _ = hub.FindPartner(a, domain.MatchRequest{}, nil, nil)
	_, _ = hub.FindPartner(b, domain.MatchRequest{}, nil, nil)

	td, err := hub.Unpair(b, nil)
	req.NoError(err)
	req.NotNil(td.Room)
	req.Equal(a, td.Partner.ID)
	req.Equal(domain.StateIdle, td.Self.State)

	// A second unpair has no room to tear down
	td, err = hub.Unpair(b, nil)
	req.NoError(err)
	req.Nil(td.Room)
	req.Equal(Stats{Online: 2}, hub.Stats())
	requireConsistent(t, hub)
}

func TestHub_ExpireWaiting(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{Clock: fakeClock()})
	a := mustRegister(t, hub, "")
	_, _ = hub.FindPartner(a, domain.MatchRequest{}, nil, nil)

	req.Empty(hub.ExpireWaiting(epoch, nil))

	expired := hub.ExpireWaiting(epoch.Add(time.Hour), nil)
	req.Len(expired, 1)
	req.Equal(a, expired[0].ID)
	req.Equal(domain.StateIdle, expired[0].State)
	req.Equal(Stats{Online: 1}, hub.Stats())
	requireConsistent(t, hub)
}

func TestHub_Register_Capacity(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{MaxParticipants: 1})
	mustRegister(t, hub, "")

	_, err := hub.Register("", nopSink{})
	req.ErrorIs(err, domain.ErrResourceExhausted)
}

func TestHub_Notify_Runs_Inside_Critical_Section(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{Clock: fakeClock()})
	a := mustRegister(t, hub, "")
	b := mustRegister(t, hub, "")

	locked := func() bool {
		if hub.mu.TryLock() {
			hub.mu.Unlock()
			return false
		}
		return true
	}

	var calls []string
	_, err := hub.FindPartner(a, domain.MatchRequest{}, nil, func(res FindResult) {
		req.True(locked())
		req.False(res.Paired())
		calls = append(calls, "waiting")
	})
	req.NoError(err)

	_, err = hub.FindPartner(b, domain.MatchRequest{}, nil, func(res FindResult) {
		req.True(locked())
		req.True(res.Paired())
		req.Equal(a, res.Partner.ID)
		calls = append(calls, "paired")
	})
	req.NoError(err)

	_, err = hub.Route(a, func(route Route) {
		req.True(locked())
		req.Equal(b, route.PartnerID)
		calls = append(calls, "route")
	})
	req.NoError(err)

	_, err = hub.Disconnect(b, func(td Teardown) {
		req.True(locked())
		req.NotNil(td.Room)
		req.Equal(a, td.Partner.ID)
		calls = append(calls, "disconnect")
	})
	req.NoError(err)

	// A failed transition notifies nobody.
	_, err = hub.Disconnect(b, func(Teardown) { calls = append(calls, "again") })
	req.ErrorIs(err, domain.ErrUnknownParticipant)

	req.Equal([]string{"waiting", "paired", "route", "disconnect"}, calls)
	requireConsistent(t, hub)
}
