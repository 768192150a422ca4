package brackets

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/google/uuid"
)

// BracketMatch is one slot in a generated elimination tree. Couple ids are
// nil until known: round 1 slots carry the seeded couples, later rounds stay
// empty until progression back-fills winners. SlotUID is stable before any
// database id exists, so later-round slots can reference their sources.
type BracketMatch struct {
	SlotUID  string
	Round    int
	Position int

	Couple1ID *int
	Couple2ID *int

	// Winner destination. Empty on the final.
	NextMatchUID string
	WinnerToSlot int

	IsBye       bool
	ByeCoupleID *int
}

// BracketPlan is the full generated tree plus its progression graph. Edges
// run from each match to the match its winner feeds.
type BracketPlan struct {
	Matches []*BracketMatch
	Rounds  int

	tree graph.Graph[string, *BracketMatch]
}

// Successor follows the slot's outgoing progression edge. Every slot except
// the final has exactly one.
func (p *BracketPlan) Successor(slotUID string) (*BracketMatch, bool) {
	adjacency, err := p.tree.AdjacencyMap()
	if err != nil {
		return nil, false
	}
	for nextUID := range adjacency[slotUID] {
		next, err := p.tree.Vertex(nextUID)
		if err != nil {
			return nil, false
		}
		return next, true
	}
	return nil, false
}

// Match looks a slot up by UID.
func (p *BracketPlan) Match(slotUID string) (*BracketMatch, bool) {
	m, err := p.tree.Vertex(slotUID)
	if err != nil {
		return nil, false
	}
	return m, true
}

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() *SingleEliminationGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// Generate builds a complete single elimination tree for the couples in seed
// order (index 0 is seed 1). Seed 1 meets seed n in round 1 under the
// standard bracket draw. When n is not a power of two the lowest seed
// numbers receive round 1 byes and advance without a recorded match.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, seededCoupleIDs []int) (*BracketPlan, error) {
	n := len(seededCoupleIDs)
	if n < 2 {
		return nil, ErrInsufficientCouples
	}

	rounds := int(math.Ceil(math.Log2(float64(n))))
	size := 1 << uint(rounds)

	// Standard seed placement: recursively interleave so that seed s meets
	// seed size+1-s in round 1.
	positions := []int{1}
	for len(positions) < size {
		next := make([]int, 0, len(positions)*2)
		mirror := len(positions)*2 + 1
		for _, p := range positions {
			next = append(next, p, mirror-p)
		}
		positions = next
	}

	tree := graph.New(func(m *BracketMatch) string { return m.SlotUID }, graph.Directed(), graph.Acyclic())

	// Allocate every slot of every round first so round 1 slots know their
	// destination before byes are propagated.
	slots := make([][]*BracketMatch, rounds+1)
	for r := 1; r <= rounds; r++ {
		count := size >> uint(r)
		slots[r] = make([]*BracketMatch, count)
		for i := 0; i < count; i++ {
			bm := &BracketMatch{
				SlotUID:  uuid.NewString(),
				Round:    r,
				Position: i + 1,
			}
			slots[r][i] = bm
			if err := tree.AddVertex(bm); err != nil {
				return nil, fmt.Errorf("failed to add bracket slot: %w", err)
			}
		}
	}

	for r := 1; r < rounds; r++ {
		for i, bm := range slots[r] {
			next := slots[r+1][i/2]
			bm.NextMatchUID = next.SlotUID
			bm.WinnerToSlot = i%2 + 1
			if err := tree.AddEdge(bm.SlotUID, next.SlotUID); err != nil {
				return nil, fmt.Errorf("failed to link bracket slots: %w", err)
			}
		}
	}

	plan := &BracketPlan{Rounds: rounds, tree: tree}

	// Fill round 1 from the seed placement. Seed numbers beyond n are byes.
	for i := 0; i < size; i += 2 {
		bm := slots[1][i/2]
		s1, s2 := positions[i], positions[i+1]

		var c1, c2 *int
		if s1 <= n {
			id := seededCoupleIDs[s1-1]
			c1 = &id
		}
		if s2 <= n {
			id := seededCoupleIDs[s2-1]
			c2 = &id
		}

		switch {
		case c1 != nil && c2 != nil:
			bm.Couple1ID = c1
			bm.Couple2ID = c2
		case c1 != nil:
			bm.IsBye = true
			bm.ByeCoupleID = c1
			bm.Couple1ID = c1
		case c2 != nil:
			bm.IsBye = true
			bm.ByeCoupleID = c2
			bm.Couple1ID = c2
		default:
			return nil, fmt.Errorf("seed placement produced an empty round 1 slot at position %d", i/2+1)
		}

		if bm.IsBye {
			next, ok := plan.Successor(bm.SlotUID)
			if !ok {
				return nil, fmt.Errorf("bye at position %d has no successor slot", bm.Position)
			}
			setSlotCouple(next, bm.WinnerToSlot, *bm.ByeCoupleID)
		}
	}

	for r := 1; r <= rounds; r++ {
		plan.Matches = append(plan.Matches, slots[r]...)
	}
	sort.SliceStable(plan.Matches, func(i, j int) bool {
		if plan.Matches[i].Round != plan.Matches[j].Round {
			return plan.Matches[i].Round < plan.Matches[j].Round
		}
		return plan.Matches[i].Position < plan.Matches[j].Position
	})

	return plan, nil
}

func setSlotCouple(bm *BracketMatch, slot int, coupleID int) {
	if slot == 1 {
		bm.Couple1ID = &coupleID
	} else {
		bm.Couple2ID = &coupleID
	}
}
