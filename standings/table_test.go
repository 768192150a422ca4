package standings

import (
	"testing"

	"github.com/courtsync/tournament-system/models"
)

func statsRow(coupleID, points, gamesWon, gamesLost, matchesWon int) models.CoupleStats {
	return models.CoupleStats{
		CoupleID:    coupleID,
		TotalPoints: points,
		GamesWon:    gamesWon,
		GamesLost:   gamesLost,
		MatchesWon:  matchesWon,
	}
}

func positions(rows []Row) map[int]int {
	out := make(map[int]int, len(rows))
	for _, r := range rows {
		out[r.Stats.CoupleID] = r.Position
	}
	return out
}

func TestRankByTotalPoints(t *testing.T) {
	rows := Rank([]models.CoupleStats{
		statsRow(1, 3, 2, 4, 1),
		statsRow(2, 9, 6, 1, 3),
		statsRow(3, 6, 4, 3, 2),
	}, nil, nil)

	pos := positions(rows)
	if pos[2] != 1 || pos[3] != 2 || pos[1] != 3 {
		t.Errorf("positions %v, want 2>3>1", pos)
	}
	for i, r := range rows {
		if r.Position != i+1 {
			t.Errorf("row %d has position %d", i, r.Position)
		}
	}
}

func TestRankGamesDiffTiebreaker(t *testing.T) {
	tiebreakers := []models.Tiebreaker{models.TiebreakerGamesDiff}
	rows := Rank([]models.CoupleStats{
		statsRow(1, 6, 4, 4, 2),
		statsRow(2, 6, 6, 2, 2),
		statsRow(3, 9, 5, 3, 3),
	}, tiebreakers, nil)

	pos := positions(rows)
	if pos[3] != 1 {
		t.Fatalf("couple 3 at position %d, want 1 on points", pos[3])
	}
	if pos[2] != 2 || pos[1] != 3 {
		t.Errorf("tied couples ranked %v, want games diff to put 2 before 1", pos)
	}
}

func TestRankHeadToHeadOnTiedSubsetOnly(t *testing.T) {
	tiebreakers := []models.Tiebreaker{models.TiebreakerHeadToHead, models.TiebreakerGamesWon}

	var asked []int
	h2h := func(coupleIDs []int) map[int]int {
		asked = append([]int{}, coupleIDs...)
		// Couple 2 beat couple 1 in their meeting.
		return map[int]int{1: 0, 2: 3}
	}

	rows := Rank([]models.CoupleStats{
		statsRow(1, 6, 8, 2, 2),
		statsRow(2, 6, 5, 5, 2),
		statsRow(3, 3, 4, 6, 1),
	}, tiebreakers, h2h)

	if len(asked) != 2 {
		t.Fatalf("head to head consulted for %v, want only the tied pair", asked)
	}
	pos := positions(rows)
	if pos[2] != 1 || pos[1] != 2 || pos[3] != 3 {
		t.Errorf("positions %v, want head to head to rank 2 first despite fewer games", pos)
	}
}

func TestRankFallsThroughInapplicableTiebreaker(t *testing.T) {
	// No head to head callback supplied: the criterion is skipped and
	// games won decides.
	tiebreakers := []models.Tiebreaker{models.TiebreakerHeadToHead, models.TiebreakerGamesWon}
	rows := Rank([]models.CoupleStats{
		statsRow(1, 6, 3, 3, 2),
		statsRow(2, 6, 5, 5, 2),
	}, tiebreakers, nil)

	pos := positions(rows)
	if pos[2] != 1 || pos[1] != 2 {
		t.Errorf("positions %v, want games won to decide when head to head is unavailable", pos)
	}
}

func TestRankFullTieFallsBackToCoupleID(t *testing.T) {
	tiebreakers := []models.Tiebreaker{models.TiebreakerGamesDiff, models.TiebreakerGamesWon}
	rows := Rank([]models.CoupleStats{
		statsRow(7, 6, 4, 4, 2),
		statsRow(3, 6, 4, 4, 2),
		statsRow(5, 6, 4, 4, 2),
	}, tiebreakers, nil)

	wantOrder := []int{3, 5, 7}
	for i, r := range rows {
		if r.Stats.CoupleID != wantOrder[i] {
			t.Fatalf("position %d is couple %d, want %d", i+1, r.Stats.CoupleID, wantOrder[i])
		}
	}
}

// TestGroupTableFromResults runs three recorded results through the delta
// pipeline and ranks the accumulated table, the way the group standings
// endpoint does.
func TestGroupTableFromResults(t *testing.T) {
	scoring := models.ScoringSystem{Win: 3, Draw: 1, Loss: 0}
	rules := models.MatchRules{WinCriteria: models.WinCriteriaBestOf, GamesPerMatch: 3}

	pair := func(c1, c2 int, games ...models.GameScore) *models.Match {
		return &models.Match{Couple1ID: &c1, Couple2ID: &c2, Games: games}
	}
	played := []*models.Match{
		pair(1, 2, game(6, 2), game(6, 3)),             // couple 1 wins 2-0
		pair(3, 4, game(6, 4), game(2, 6), game(6, 3)), // couple 3 wins 2-1
		pair(1, 3, game(6, 1), game(6, 2)),             // couple 1 wins 2-0
	}

	table := make(map[int]*models.CoupleStats)
	for _, c := range []int{1, 2, 3, 4} {
		table[c] = &models.CoupleStats{CoupleID: c}
	}
	for _, m := range played {
		res, err := Decide(m, rules)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		for _, d := range Deltas(m, res, scoring) {
			Accumulate(table[d.CoupleID], d)
		}
	}

	stats := make([]models.CoupleStats, 0, len(table))
	for _, c := range []int{1, 2, 3, 4} {
		stats = append(stats, *table[c])
	}
	rows := Rank(stats, []models.Tiebreaker{models.TiebreakerGamesDiff}, nil)

	pos := positions(rows)
	if pos[1] != 1 {
		t.Errorf("couple 1 at position %d, want 1 with two wins", pos[1])
	}
	if pos[3] != 2 {
		t.Errorf("couple 3 at position %d, want 2 with one win", pos[3])
	}
	if pos[4] != 3 {
		t.Errorf("couple 4 at position %d, want 3 on games diff -1", pos[4])
	}
	if pos[2] != 4 {
		t.Errorf("couple 2 at position %d, want 4 on games diff -2", pos[2])
	}
}

func TestRankEmptyInput(t *testing.T) {
	if rows := Rank(nil, nil, nil); len(rows) != 0 {
		t.Fatalf("got %d rows from empty stats", len(rows))
	}
}
