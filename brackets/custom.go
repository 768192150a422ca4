package brackets

import "context"

type CustomGenerator struct{}

func NewCustomGenerator() GroupGenerator {
	return &CustomGenerator{}
}

func (g *CustomGenerator) Name() string {
	return "Custom"
}

// GenerateGroup builds matches incrementally, always picking the pair with
// the fewest combined matches generated so far (ties broken by couple id
// order). Generation stops once MaxMatchesPerGroup is reached, or once every
// couple has MinMatchesPerCouple matches when no hard cap is set. Pairings
// may repeat once all distinct pairs are used.
func (g *CustomGenerator) GenerateGroup(ctx context.Context, params GenerateGroupParams) ([]GroupMatchSlot, error) {
	couples := sortedCoupleIDs(params.CoupleIDs)
	n := len(couples)
	if n < 2 {
		return nil, ErrInsufficientCouples
	}

	maxMatches := params.Rules.MaxMatchesPerGroup
	minPerCouple := params.Rules.MinMatchesPerCouple
	if maxMatches <= 0 && minPerCouple <= 0 {
		// Nothing bounds generation; fall back to a single round robin.
		return NewRoundRobinGenerator().GenerateGroup(ctx, params)
	}

	played := make(map[int]int, n)
	pairUses := make(map[[2]int]int)

	done := func(total int) bool {
		if maxMatches > 0 && total >= maxMatches {
			return true
		}
		if minPerCouple > 0 {
			for _, c := range couples {
				if played[c] < minPerCouple {
					return false
				}
			}
			return true
		}
		return false
	}

	var slots []GroupMatchSlot
	for !done(len(slots)) {
		bestI, bestJ := -1, -1
		bestLoad := 0
		bestUses := 0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				load := played[couples[i]] + played[couples[j]]
				uses := pairUses[[2]int{couples[i], couples[j]}]
				// Least loaded pair first, fresh pairings before repeats,
				// iteration order settles remaining ties by couple id.
				if bestI == -1 || load < bestLoad || (load == bestLoad && uses < bestUses) {
					bestI, bestJ = i, j
					bestLoad, bestUses = load, uses
				}
			}
		}

		c1, c2 := couples[bestI], couples[bestJ]
		slots = append(slots, GroupMatchSlot{
			Couple1ID: c1,
			Couple2ID: c2,
			Order:     len(slots) + 1,
		})
		played[c1]++
		played[c2]++
		pairUses[[2]int{c1, c2}]++
	}

	return slots, nil
}
