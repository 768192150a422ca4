package brackets

import (
	"context"
	"errors"

	"github.com/courtsync/tournament-system/models"
)

// ErrInsufficientCouples is returned by every generator when fewer than two
// couples are supplied.
var ErrInsufficientCouples = errors.New("at least 2 couples are required to generate matches")

// GroupMatchSlot is one generated pairing inside a group. Round is only
// meaningful for formats that produce distinct rounds (swiss); round robin
// and custom emit 0 and leave round assignment to the allocator.
type GroupMatchSlot struct {
	Couple1ID int
	Couple2ID int
	Round     int
	Order     int
}

// GenerateGroupParams carries everything a group format needs. CoupleIDs is
// the group's membership; order does not matter, generators sort internally
// for determinism.
type GenerateGroupParams struct {
	GroupID   int
	CoupleIDs []int
	Rules     models.MatchRules
}

// GroupGenerator produces the complete pairing set for one group.
type GroupGenerator interface {
	GenerateGroup(ctx context.Context, params GenerateGroupParams) ([]GroupMatchSlot, error)

	Name() string
}

// ForFormat selects the generator implementing the given match format.
// Unknown formats fall back to round robin, matching the staging API's
// historical behaviour.
func ForFormat(format models.MatchFormat) GroupGenerator {
	switch format {
	case models.FormatSwiss:
		return NewSwissGenerator()
	case models.FormatCustom:
		return NewCustomGenerator()
	default:
		return NewRoundRobinGenerator()
	}
}
