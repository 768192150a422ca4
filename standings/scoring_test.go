package standings

import (
	"errors"
	"testing"

	"github.com/courtsync/tournament-system/models"
)

func matchWithGames(games ...models.GameScore) *models.Match {
	c1, c2 := 1, 2
	return &models.Match{
		ID:        10,
		Couple1ID: &c1,
		Couple2ID: &c2,
		Games:     games,
	}
}

func game(s1, s2 int) models.GameScore {
	return models.GameScore{Couple1Score: s1, Couple2Score: s2}
}

func TestDecideBestOf(t *testing.T) {
	rules := models.MatchRules{WinCriteria: models.WinCriteriaBestOf, GamesPerMatch: 3}

	m := matchWithGames(game(6, 3), game(4, 6), game(6, 2))
	res, err := Decide(m, rules)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.WinnerCoupleID == nil || *res.WinnerCoupleID != 1 {
		t.Errorf("winner %v, want couple 1", res.WinnerCoupleID)
	}
	if res.Games1 != 2 || res.Games2 != 1 {
		t.Errorf("games %d-%d, want 2-1", res.Games1, res.Games2)
	}
}

func TestDecideBestOfNoClinch(t *testing.T) {
	rules := models.MatchRules{WinCriteria: models.WinCriteriaBestOf, GamesPerMatch: 3}

	// One game each: neither couple reached two wins.
	m := matchWithGames(game(6, 3), game(4, 6))
	if _, err := Decide(m, rules); !errors.Is(err, ErrInvalidGames) {
		t.Fatalf("got %v, want ErrInvalidGames", err)
	}
}

func TestDecideAllGames(t *testing.T) {
	rules := models.MatchRules{WinCriteria: models.WinCriteriaAllGames, GamesPerMatch: 4}

	m := matchWithGames(game(6, 3), game(2, 6), game(6, 4), game(3, 6))
	res, err := Decide(m, rules)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.WinnerCoupleID != nil {
		t.Errorf("winner %d, want draw on 2-2 games", *res.WinnerCoupleID)
	}
}

func TestDecideTimeBased(t *testing.T) {
	rules := models.MatchRules{WinCriteria: models.WinCriteriaTimeBased, TimeLimited: true}

	// Couple 2 loses more games but scores more total points.
	m := matchWithGames(game(6, 5), game(6, 5), game(0, 15))
	res, err := Decide(m, rules)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.WinnerCoupleID == nil || *res.WinnerCoupleID != 2 {
		t.Errorf("winner %v, want couple 2 on points 25-12", res.WinnerCoupleID)
	}
}

func TestDecideRejectsEmptyGames(t *testing.T) {
	rules := models.MatchRules{WinCriteria: models.WinCriteriaBestOf, GamesPerMatch: 3}
	if _, err := Decide(matchWithGames(), rules); !errors.Is(err, ErrInvalidGames) {
		t.Fatalf("got %v, want ErrInvalidGames", err)
	}
}

func TestDeltasWinnerAndLoser(t *testing.T) {
	scoring := models.ScoringSystem{Win: 3, Draw: 1, Loss: 0, GameWin: 1, GameLoss: 0}
	m := matchWithGames(game(6, 3), game(6, 4))
	winner := 1
	res := Result{WinnerCoupleID: &winner, Games1: 2, Games2: 0}

	deltas := Deltas(m, res, scoring)
	if len(deltas) != 2 {
		t.Fatalf("got %d deltas, want 2", len(deltas))
	}

	d1, d2 := deltas[0], deltas[1]
	if d1.CoupleID != 1 || d2.CoupleID != 2 {
		t.Fatalf("delta couples %d/%d, want 1/2", d1.CoupleID, d2.CoupleID)
	}
	if d1.MatchesWon != 1 || d1.MatchesLost != 0 || d1.GamesWon != 2 || d1.GamesLost != 0 {
		t.Errorf("winner delta %+v", d1)
	}
	// 3 for the win plus one per game won.
	if d1.TotalPoints != 5 {
		t.Errorf("winner points %d, want 5", d1.TotalPoints)
	}
	if d2.MatchesLost != 1 || d2.TotalPoints != 0 {
		t.Errorf("loser delta %+v", d2)
	}
}

func TestDeltasDraw(t *testing.T) {
	scoring := models.ScoringSystem{Win: 3, Draw: 1, Loss: 0, GameWin: 1, GameLoss: 0}
	m := matchWithGames(game(6, 3), game(3, 6))
	res := Result{Games1: 1, Games2: 1}

	deltas := Deltas(m, res, scoring)
	for _, d := range deltas {
		if d.MatchesDrawn != 1 || d.MatchesWon != 0 {
			t.Errorf("draw delta %+v", d)
		}
		if d.TotalPoints != 2 { // 1 for the draw, 1 for the game won
			t.Errorf("draw points %d, want 2", d.TotalPoints)
		}
	}
}

func TestNegateReversesAccumulate(t *testing.T) {
	scoring := models.ScoringSystem{Win: 3, Draw: 1, Loss: 0, GameWin: 1, GameLoss: 0}
	m := matchWithGames(game(6, 3), game(6, 4))
	winner := 1
	res := Result{WinnerCoupleID: &winner, Games1: 2, Games2: 0}

	stats := models.CoupleStats{CoupleID: 1, MatchesPlayed: 4, MatchesWon: 2, TotalPoints: 9, GamesWon: 5, GamesLost: 3}
	before := stats

	d := Deltas(m, res, scoring)[0]
	Accumulate(&stats, d)
	Accumulate(&stats, d.Negate())

	if stats != before {
		t.Errorf("stats %+v after apply and negate, want %+v", stats, before)
	}
}
