package scheduling

import (
	"testing"

	"github.com/courtsync/tournament-system/models"
)

func groupMatch(id, groupID, c1, c2 int) *models.Match {
	return &models.Match{
		ID:        id,
		GroupID:   &groupID,
		Couple1ID: &c1,
		Couple2ID: &c2,
		Status:    models.MatchStatusPending,
	}
}

func TestOrderByRestPrefersFreshCouples(t *testing.T) {
	// Round robin over couples 1..4 in id order of generation.
	matches := []*models.Match{
		groupMatch(1, 1, 1, 2),
		groupMatch(2, 1, 1, 3),
		groupMatch(3, 1, 1, 4),
		groupMatch(4, 1, 2, 3),
		groupMatch(5, 1, 2, 4),
		groupMatch(6, 1, 3, 4),
	}

	ordered := OrderByRest(matches)
	if len(ordered) != 6 {
		t.Fatalf("got %d matches, want 6", len(ordered))
	}

	// The unseen bonus pulls (3,4) forward past three lower ids, and the
	// rest penalty then keeps the sequence spreading appearances out.
	wantIDs := []int{1, 6, 2, 5, 3, 4}
	for i, m := range ordered {
		if m.ID != wantIDs[i] {
			t.Fatalf("position %d has match %d, want %d (full order %v)", i, m.ID, wantIDs[i], ids(ordered))
		}
	}
}

func ids(matches []*models.Match) []int {
	out := make([]int, len(matches))
	for i, m := range matches {
		out[i] = m.ID
	}
	return out
}

func TestOrderByRestSetsPriorityScores(t *testing.T) {
	matches := []*models.Match{
		groupMatch(1, 1, 1, 2),
		groupMatch(2, 1, 3, 4),
		groupMatch(3, 1, 1, 3),
	}
	for _, m := range OrderByRest(matches) {
		if m.PriorityScore == nil {
			t.Fatalf("match %d has no priority score", m.ID)
		}
	}
}

func TestOrderByRestTieBreaksByLowestID(t *testing.T) {
	// All four couples unseen, both matches score identically, so the
	// lower id must come first.
	matches := []*models.Match{
		groupMatch(9, 1, 5, 6),
		groupMatch(2, 1, 7, 8),
	}
	ordered := OrderByRest(matches)
	if ordered[0].ID != 2 {
		t.Fatalf("first match is %d, want 2", ordered[0].ID)
	}
}

func TestOrderByRestSingleMatchUntouched(t *testing.T) {
	matches := []*models.Match{groupMatch(1, 1, 1, 2)}
	ordered := OrderByRest(matches)
	if len(ordered) != 1 || ordered[0].ID != 1 {
		t.Fatalf("single match pool reordered: %+v", ordered)
	}
}
