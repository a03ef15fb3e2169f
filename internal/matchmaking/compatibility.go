package matchmaking

import "github.com/Gadfx/duhuze/internal/domain"

// Compatible reports whether a and b may share a room. The check is
// symmetric: identities, block relations in both directions and the
// preferences of each side that asked for interest based matching.
func Compatible(a, b *domain.Participant) bool {
	if a.ID == b.ID {
		return false
	}
	if !a.Anonymous() && a.UserID == b.UserID {
		return false
	}
	if a.Blocks(b.UserID) || b.Blocks(a.UserID) {
		return false
	}
	return a.Request.Accepts(b.Request.Traits) && b.Request.Accepts(a.Request.Traits)
}

func roomMode(a, b *domain.Participant) domain.MatchMode {
	if a.Request.Mode == domain.ModeInterestBased || b.Request.Mode == domain.ModeInterestBased {
		return domain.ModeInterestBased
	}
	return domain.ModeRandom
}
