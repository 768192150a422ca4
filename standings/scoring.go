package standings

import (
	"errors"

	"github.com/courtsync/tournament-system/models"
)

// ErrInvalidGames signals a result set the win criteria cannot interpret.
var ErrInvalidGames = errors.New("standings: game scores do not satisfy win criteria")

// Outcome is a decided match from one couple's point of view.
type Outcome int

const (
	OutcomeDraw Outcome = iota
	OutcomeWin
	OutcomeLoss
)

// Result is the decided outcome of a match: the winner (nil on a draw) and
// per-couple game tallies.
type Result struct {
	WinnerCoupleID *int
	Games1         int
	Games2         int
}

// Decide derives the match result from its recorded games under the stage's
// win criteria.
//
//   - best_of: first couple to win more than half of GamesPerMatch; games
//     past the clinch are tolerated but do not change the winner.
//   - all_games: every game counts, most game wins takes the match, equal
//     wins is a draw.
//   - time_based: total points scored across games decides, equal totals is
//     a draw.
func Decide(m *models.Match, rules models.MatchRules) (Result, error) {
	if len(m.Games) == 0 {
		return Result{}, ErrInvalidGames
	}
	if m.Couple1ID == nil || m.Couple2ID == nil {
		return Result{}, ErrInvalidGames
	}

	var wins1, wins2, pts1, pts2 int
	for _, g := range m.Games {
		pts1 += g.Couple1Score
		pts2 += g.Couple2Score
		switch {
		case g.Couple1Score > g.Couple2Score:
			wins1++
		case g.Couple2Score > g.Couple1Score:
			wins2++
		}
	}

	res := Result{Games1: wins1, Games2: wins2}

	switch rules.WinCriteria {
	case models.WinCriteriaBestOf:
		need := rules.GamesPerMatch/2 + 1
		switch {
		case wins1 >= need:
			res.WinnerCoupleID = m.Couple1ID
		case wins2 >= need:
			res.WinnerCoupleID = m.Couple2ID
		default:
			return Result{}, ErrInvalidGames
		}
	case models.WinCriteriaAllGames:
		switch {
		case wins1 > wins2:
			res.WinnerCoupleID = m.Couple1ID
		case wins2 > wins1:
			res.WinnerCoupleID = m.Couple2ID
		}
	case models.WinCriteriaTimeBased:
		switch {
		case pts1 > pts2:
			res.WinnerCoupleID = m.Couple1ID
		case pts2 > pts1:
			res.WinnerCoupleID = m.Couple2ID
		}
	default:
		return Result{}, ErrInvalidGames
	}

	return res, nil
}

// StatsDelta is the increment one completed match contributes to a couple's
// accumulated stats. Negated, it reverses the same match.
type StatsDelta struct {
	CoupleID      int
	MatchesPlayed int
	MatchesWon    int
	MatchesLost   int
	MatchesDrawn  int
	GamesWon      int
	GamesLost     int
	TotalPoints   int
}

// Negate flips the delta so an applied result can be backed out before a
// correction is applied.
func (d StatsDelta) Negate() StatsDelta {
	return StatsDelta{
		CoupleID:      d.CoupleID,
		MatchesPlayed: -d.MatchesPlayed,
		MatchesWon:    -d.MatchesWon,
		MatchesLost:   -d.MatchesLost,
		MatchesDrawn:  -d.MatchesDrawn,
		GamesWon:      -d.GamesWon,
		GamesLost:     -d.GamesLost,
		TotalPoints:   -d.TotalPoints,
	}
}

// Deltas converts a decided match into the two per-couple stat increments.
// Game counts are game wins, not raw rally points, so a 6-3 6-4 match adds
// two games won for the winner and none for the loser.
func Deltas(m *models.Match, res Result, scoring models.ScoringSystem) []StatsDelta {
	d1 := StatsDelta{CoupleID: *m.Couple1ID, MatchesPlayed: 1, GamesWon: res.Games1, GamesLost: res.Games2}
	d2 := StatsDelta{CoupleID: *m.Couple2ID, MatchesPlayed: 1, GamesWon: res.Games2, GamesLost: res.Games1}

	switch {
	case res.WinnerCoupleID == nil:
		d1.MatchesDrawn, d2.MatchesDrawn = 1, 1
		d1.TotalPoints, d2.TotalPoints = scoring.Draw, scoring.Draw
	case *res.WinnerCoupleID == *m.Couple1ID:
		d1.MatchesWon, d2.MatchesLost = 1, 1
		d1.TotalPoints, d2.TotalPoints = scoring.Win, scoring.Loss
	default:
		d2.MatchesWon, d1.MatchesLost = 1, 1
		d2.TotalPoints, d1.TotalPoints = scoring.Win, scoring.Loss
	}

	d1.TotalPoints += res.Games1*scoring.GameWin + res.Games2*scoring.GameLoss
	d2.TotalPoints += res.Games2*scoring.GameWin + res.Games1*scoring.GameLoss

	return []StatsDelta{d1, d2}
}

// Accumulate applies a delta to a stats row in place.
func Accumulate(s *models.CoupleStats, d StatsDelta) {
	s.MatchesPlayed += d.MatchesPlayed
	s.MatchesWon += d.MatchesWon
	s.MatchesLost += d.MatchesLost
	s.MatchesDrawn += d.MatchesDrawn
	s.GamesWon += d.GamesWon
	s.GamesLost += d.GamesLost
	s.TotalPoints += d.TotalPoints
}
