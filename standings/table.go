package standings

import (
	"sort"

	"github.com/courtsync/tournament-system/models"
)

// Row is one line of a computed standings table.
type Row struct {
	Stats    models.CoupleStats `json:"stats"`
	Position int                `json:"position"`
}

// HeadToHeadFunc returns the points each couple earned in completed matches
// played among the given couples only. It is consulted when the
// head_to_head tiebreaker has to split a tied subset.
type HeadToHeadFunc func(coupleIDs []int) map[int]int

// Rank orders the stats into a standings table. Total points rank first;
// each configured tiebreaker is then applied only to subsets still tied
// after the previous criteria. Couples tied through the whole chain are
// ordered by couple id so the table is deterministic. Positions are 1-based
// in final table order.
func Rank(stats []models.CoupleStats, tiebreakers []models.Tiebreaker, h2h HeadToHeadFunc) []Row {
	rows := make([]Row, len(stats))
	for i, s := range stats {
		rows[i] = Row{Stats: s}
	}

	sortRows(rows, func(r Row) int { return r.Stats.TotalPoints })

	ordered := make([]Row, 0, len(rows))
	for _, tied := range tiedGroups(rows, func(r Row) int { return r.Stats.TotalPoints }) {
		ordered = append(ordered, breakTies(tied, tiebreakers, h2h)...)
	}

	for i := range ordered {
		ordered[i].Position = i + 1
	}
	return ordered
}

// breakTies resolves one tied subset with the remaining tiebreakers,
// recursing into any subset a criterion fails to split further.
func breakTies(tied []Row, tiebreakers []models.Tiebreaker, h2h HeadToHeadFunc) []Row {
	if len(tied) <= 1 {
		return tied
	}
	if len(tiebreakers) == 0 {
		sort.Slice(tied, func(i, j int) bool { return tied[i].Stats.CoupleID < tied[j].Stats.CoupleID })
		return tied
	}

	key := tiebreakerKey(tied, tiebreakers[0], h2h)
	if key == nil {
		// Criterion not applicable, fall through to the next one.
		return breakTies(tied, tiebreakers[1:], h2h)
	}

	sortRows(tied, key)

	out := make([]Row, 0, len(tied))
	for _, sub := range tiedGroups(tied, key) {
		out = append(out, breakTies(sub, tiebreakers[1:], h2h)...)
	}
	return out
}

// tiebreakerKey maps a criterion to a per-row score, higher ranks first.
// Returns nil when the criterion cannot be evaluated.
func tiebreakerKey(tied []Row, tb models.Tiebreaker, h2h HeadToHeadFunc) func(Row) int {
	switch tb {
	case models.TiebreakerPoints:
		return func(r Row) int { return r.Stats.TotalPoints }
	case models.TiebreakerGamesDiff:
		return func(r Row) int { return r.Stats.GamesWon - r.Stats.GamesLost }
	case models.TiebreakerGamesWon:
		return func(r Row) int { return r.Stats.GamesWon }
	case models.TiebreakerMatchesWon:
		return func(r Row) int { return r.Stats.MatchesWon }
	case models.TiebreakerHeadToHead:
		if h2h == nil {
			return nil
		}
		ids := make([]int, len(tied))
		for i, r := range tied {
			ids[i] = r.Stats.CoupleID
		}
		points := h2h(ids)
		return func(r Row) int { return points[r.Stats.CoupleID] }
	}
	return nil
}

func sortRows(rows []Row, key func(Row) int) {
	sort.SliceStable(rows, func(i, j int) bool { return key(rows[i]) > key(rows[j]) })
}

// tiedGroups cuts an already sorted slice into runs of equal key.
func tiedGroups(rows []Row, key func(Row) int) [][]Row {
	var groups [][]Row
	start := 0
	for i := 1; i <= len(rows); i++ {
		if i == len(rows) || key(rows[i]) != key(rows[start]) {
			groups = append(groups, rows[start:i])
			start = i
		}
	}
	return groups
}
