package scheduling

import (
	"sort"

	"github.com/courtsync/tournament-system/models"
)

// Allocator turns a flat set of generated matches into a play order with
// court assignments. It never persists anything; the caller writes the
// mutated ordering fields back in its own transaction.
type Allocator struct {
	Strategy models.AllocationStrategy
}

// OrderStage orders and court-assigns the matches of one stage. startOrder
// is the first display order to hand out, so consecutive stages of a
// tournament get a contiguous global sequence. The returned slice is the
// play order; every match in it has DisplayOrder, OrderInStage and CourtID
// set (court only when courts were supplied).
func (a Allocator) OrderStage(kind models.StageKind, matches []*models.Match, courts []*models.Court, startOrder int) []*models.Match {
	if len(matches) == 0 {
		return matches
	}
	courts = sortedCourts(courts)

	var ordered []*models.Match
	if kind == models.StageKindElimination {
		ordered = orderElimination(matches, courts)
	} else {
		switch a.Strategy {
		case models.StrategyCourtEfficient:
			ordered = orderCourtEfficient(matches, courts)
		case models.StrategyGroupClustered:
			ordered = orderGroupClustered(matches, courts)
		default:
			ordered = orderBalancedLoad(matches, courts)
		}
	}

	stamp(ordered, startOrder)
	return ordered
}

// BasicAssign is the degraded fallback when the strategy path fails: keep
// the generation order and deal courts round robin. It cannot fail.
func BasicAssign(matches []*models.Match, courts []*models.Court, startOrder int) []*models.Match {
	courts = sortedCourts(courts)
	ordered := make([]*models.Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	for i, m := range ordered {
		if len(courts) > 0 {
			id := courts[i%len(courts)].ID
			m.CourtID = &id
		}
	}
	stamp(ordered, startOrder)
	return ordered
}

// orderBalancedLoad is the default strategy. How courts map onto groups
// depends on the fit between group count G and court count C:
//
//   - G == C: every group gets a dedicated court and the per-group queues
//     are interleaved, so all courts run in parallel with no cross-group
//     contention.
//   - C > G: every group gets at least one court and the spares go to the
//     groups with the most matches; a group rotates over its own courts.
//   - G > C (or no courts): one global rest-aware order over all groups,
//     courts dealt round robin across it.
func orderBalancedLoad(matches []*models.Match, courts []*models.Court) []*models.Match {
	groups := splitByGroup(matches)

	if len(groups) <= 1 || len(courts) == 0 || len(courts) < len(groups) {
		global := OrderByRest(sortedByID(matches))
		for i, m := range global {
			round := i/maxInt(len(courts), 1) + 1
			m.RoundNumber = &round
			if len(courts) > 0 {
				id := courts[i%len(courts)].ID
				m.CourtID = &id
			}
		}
		return global
	}

	courtsByGroup := distributeCourts(groups, courts)

	queues := make([][]*models.Match, len(groups))
	longest := 0
	for gi, g := range groups {
		queues[gi] = OrderByRest(sortedByID(g.matches))
		if len(queues[gi]) > longest {
			longest = len(queues[gi])
		}
	}

	// Interleave: position k of every group's queue plays in wave k.
	ordered := make([]*models.Match, 0, len(matches))
	for k := 0; k < longest; k++ {
		for gi := range groups {
			if k >= len(queues[gi]) {
				continue
			}
			m := queues[gi][k]
			round := k + 1
			m.RoundNumber = &round
			own := courtsByGroup[gi]
			id := own[k%len(own)].ID
			m.CourtID = &id
			ordered = append(ordered, m)
		}
	}
	return ordered
}

// orderCourtEfficient fills each court's timeline before moving to the
// next, ignoring cross-group balance. Matches stay in generation order and
// are cut into one contiguous run per court.
func orderCourtEfficient(matches []*models.Match, courts []*models.Court) []*models.Match {
	ordered := sortedByID(matches)
	OrderByRest(ordered) // scores only; order stays by id

	if len(courts) == 0 {
		for i, m := range ordered {
			round := i + 1
			m.RoundNumber = &round
		}
		return ordered
	}

	perCourt := (len(ordered) + len(courts) - 1) / len(courts)
	for i, m := range ordered {
		court := courts[i/perCourt]
		id := court.ID
		m.CourtID = &id
		round := i%perCourt + 1
		m.RoundNumber = &round
	}
	return ordered
}

// orderGroupClustered plays each group to completion before the next group
// starts. Rest ordering still applies inside a group, and each group sticks
// to one court so spectators of a group stay put.
func orderGroupClustered(matches []*models.Match, courts []*models.Court) []*models.Match {
	groups := splitByGroup(matches)

	ordered := make([]*models.Match, 0, len(matches))
	for gi, g := range groups {
		queue := OrderByRest(sortedByID(g.matches))
		for k, m := range queue {
			round := k + 1
			m.RoundNumber = &round
			if len(courts) > 0 {
				id := courts[gi%len(courts)].ID
				m.CourtID = &id
			}
		}
		ordered = append(ordered, queue...)
	}
	return ordered
}

// orderElimination orders bracket matches round by round, main bracket
// before side brackets, and always deals courts round robin. Rest heuristics
// do not apply: the tree already forces a gap between a couple's matches.
func orderElimination(matches []*models.Match, courts []*models.Court) []*models.Match {
	ordered := make([]*models.Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if ra, rb := derefInt(a.RoundNumber), derefInt(b.RoundNumber); ra != rb {
			return ra < rb
		}
		if ba, bb := derefInt(a.BracketID), derefInt(b.BracketID); ba != bb {
			return ba < bb
		}
		return derefInt(a.BracketPosition) < derefInt(b.BracketPosition)
	})

	for i, m := range ordered {
		if len(courts) > 0 {
			id := courts[i%len(courts)].ID
			m.CourtID = &id
		}
	}
	return ordered
}

// stamp writes the global and per-scope sequence numbers onto the ordered
// matches.
func stamp(ordered []*models.Match, startOrder int) {
	perGroup := make(map[int]int)
	for i, m := range ordered {
		display := startOrder + i
		inStage := i + 1
		m.DisplayOrder = &display
		m.OrderInStage = &inStage

		if m.GroupID != nil {
			perGroup[*m.GroupID]++
			inGroup := perGroup[*m.GroupID]
			m.OrderInGroup = &inGroup
		}
	}
}

type groupMatches struct {
	groupID int
	matches []*models.Match
}

// splitByGroup buckets matches by group id, groups sorted ascending.
// Matches without a group id land in a single bucket keyed 0.
func splitByGroup(matches []*models.Match) []groupMatches {
	byGroup := make(map[int][]*models.Match)
	for _, m := range matches {
		gid := 0
		if m.GroupID != nil {
			gid = *m.GroupID
		}
		byGroup[gid] = append(byGroup[gid], m)
	}

	ids := make([]int, 0, len(byGroup))
	for gid := range byGroup {
		ids = append(ids, gid)
	}
	sort.Ints(ids)

	out := make([]groupMatches, 0, len(ids))
	for _, gid := range ids {
		out = append(out, groupMatches{groupID: gid, matches: byGroup[gid]})
	}
	return out
}

// distributeCourts hands every group at least one court and then gives each
// spare court to the group with the highest matches-per-court ratio. Called
// only when len(courts) >= len(groups).
func distributeCourts(groups []groupMatches, courts []*models.Court) [][]*models.Court {
	counts := make([]int, len(groups))
	for gi := range groups {
		counts[gi] = 1
	}
	for spare := len(courts) - len(groups); spare > 0; spare-- {
		best := 0
		bestRatio := float64(len(groups[0].matches)) / float64(counts[0])
		for gi := 1; gi < len(groups); gi++ {
			ratio := float64(len(groups[gi].matches)) / float64(counts[gi])
			if ratio > bestRatio {
				best = gi
				bestRatio = ratio
			}
		}
		counts[best]++
	}

	out := make([][]*models.Court, len(groups))
	next := 0
	for gi := range groups {
		out[gi] = courts[next : next+counts[gi]]
		next += counts[gi]
	}
	return out
}

func sortedCourts(courts []*models.Court) []*models.Court {
	out := make([]*models.Court, len(courts))
	copy(out, courts)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedByID(matches []*models.Match) []*models.Match {
	out := make([]*models.Match, len(matches))
	copy(out, matches)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
