package brackets

import (
	"context"
	"sort"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() GroupGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

// GenerateGroup creates exactly one match per unordered pair of couples,
// multiplied by MatchesPerOpponent for double round robins. For n couples a
// single round robin yields n*(n-1)/2 slots.
func (g *RoundRobinGenerator) GenerateGroup(ctx context.Context, params GenerateGroupParams) ([]GroupMatchSlot, error) {
	couples := sortedCoupleIDs(params.CoupleIDs)
	n := len(couples)
	if n < 2 {
		return nil, ErrInsufficientCouples
	}

	legs := params.Rules.MatchesPerOpponent
	if legs < 1 {
		legs = 1
	}

	slots := make([]GroupMatchSlot, 0, legs*n*(n-1)/2)
	order := 0
	for leg := 0; leg < legs; leg++ {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				order++
				c1, c2 := couples[i], couples[j]
				if leg%2 == 1 {
					// Swap sides on return legs.
					c1, c2 = c2, c1
				}
				slots = append(slots, GroupMatchSlot{
					Couple1ID: c1,
					Couple2ID: c2,
					Order:     order,
				})
			}
		}
	}

	return slots, nil
}

func sortedCoupleIDs(ids []int) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	sort.Ints(out)
	return out
}
