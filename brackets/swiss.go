package brackets

import "context"

// phantom marks the bye slot added when the couple count is odd.
const phantom = -1

type SwissGenerator struct{}

func NewSwissGenerator() GroupGenerator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) Name() string {
	return "Swiss"
}

// GenerateGroup produces min(SwissRounds, n-1) successive rounds of
// pairings. No pairing repeats across rounds of one run. Rotation follows
// the circle method over the couples in id order, which pairs neighbouring
// seeds early on; no results exist at generation time, so seed proximity
// stands in for accumulated standing. With an odd couple count one couple
// sits out each round and the bye rotates.
func (g *SwissGenerator) GenerateGroup(ctx context.Context, params GenerateGroupParams) ([]GroupMatchSlot, error) {
	couples := sortedCoupleIDs(params.CoupleIDs)
	n := len(couples)
	if n < 2 {
		return nil, ErrInsufficientCouples
	}

	rounds := params.Rules.SwissRounds
	if rounds < 1 || rounds > n-1 {
		rounds = n - 1
	}

	ring := couples
	if n%2 == 1 {
		ring = append(append([]int{}, couples...), phantom)
	}
	m := len(ring)

	slots := make([]GroupMatchSlot, 0, rounds*m/2)
	order := 0

	for r := 0; r < rounds; r++ {
		// First entry stays fixed, the rest rotate by one per round.
		rotated := make([]int, m)
		rotated[0] = ring[0]
		for i := 1; i < m; i++ {
			rotated[i] = ring[1+((i-1+r)%(m-1))]
		}

		for i := 0; i < m/2; i++ {
			a, b := rotated[i], rotated[m-1-i]
			if a == phantom || b == phantom {
				continue // bye for the other couple this round
			}
			if b < a {
				a, b = b, a
			}
			order++
			slots = append(slots, GroupMatchSlot{
				Couple1ID: a,
				Couple2ID: b,
				Round:     r + 1,
				Order:     order,
			})
		}
	}

	return slots, nil
}
