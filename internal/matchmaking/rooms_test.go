package matchmaking

import (
	"testing"

	"github.com/Gadfx/duhuze/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestRoomTable_Create_Destroy(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0)
	rooms := NewRoomTable(registry)
	a, _ := registry.Register("", nopSink{}, epoch)
	b, _ := registry.Register("", nopSink{}, epoch)

	// When a room is created
	room, err := rooms.Create(
		domain.Member{ID: a.ID, Role: domain.RoleInitiator},
		domain.Member{ID: b.ID, Role: domain.RoleResponder},
		domain.ModeRandom, epoch,
	)
	req.NoError(err)

	// Then both members are paired with their roles
	req.Equal(domain.StatePaired, a.State)
	req.Equal(room.ID, a.RoomID)
	req.Equal(domain.RoleInitiator, a.Role)
	req.Equal(domain.RoleResponder, b.Role)

	partner, roomID, ok := rooms.Partner(a.ID)
	req.True(ok)
	req.Equal(b.ID, partner)
	req.Equal(room.ID, roomID)

	// When it is destroyed twice
	_, ok = rooms.Destroy(room.ID)
	req.True(ok)
	_, ok = rooms.Destroy(room.ID)
	req.False(ok)

	// Then both members are idle again
	req.Equal(domain.StateIdle, a.State)
	req.Empty(a.RoomID)
	req.Empty(b.Role)
	_, _, ok = rooms.Partner(b.ID)
	req.False(ok)
	req.Zero(rooms.Len())
}

func TestRoomTable_Create_Rejects_Double_Booking(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0)
	rooms := NewRoomTable(registry)
	a, _ := registry.Register("", nopSink{}, epoch)
	b, _ := registry.Register("", nopSink{}, epoch)
	c, _ := registry.Register("", nopSink{}, epoch)

	_, err := rooms.Create(
		domain.Member{ID: a.ID, Role: domain.RoleInitiator},
		domain.Member{ID: b.ID, Role: domain.RoleResponder},
		domain.ModeRandom, epoch,
	)
	req.NoError(err)

	_, err = rooms.Create(
		domain.Member{ID: c.ID, Role: domain.RoleInitiator},
		domain.Member{ID: a.ID, Role: domain.RoleResponder},
		domain.ModeRandom, epoch,
	)
	req.ErrorIs(err, domain.ErrInvariantViolation)

	_, err = rooms.Create(
		domain.Member{ID: c.ID, Role: domain.RoleInitiator},
		domain.Member{ID: c.ID, Role: domain.RoleResponder},
		domain.ModeRandom, epoch,
	)
	req.ErrorIs(err, domain.ErrInvariantViolation)

	req.Equal(domain.StateIdle, c.State)
	req.Equal(1, rooms.Len())
}
