package models

import "time"

// CoupleStats is a materialized view over completed matches, scoped to a
// tournament and optionally a group. It is never authoritative: a full
// rebuild from the completed match set must reproduce it exactly.
type CoupleStats struct {
	ID            int       `json:"id"`
	TournamentID  int       `json:"tournament_id"`
	CoupleID      int       `json:"couple_id"`
	GroupID       *int      `json:"group_id,omitempty"`
	MatchesPlayed int       `json:"matches_played"`
	MatchesWon    int       `json:"matches_won"`
	MatchesLost   int       `json:"matches_lost"`
	MatchesDrawn  int       `json:"matches_drawn"`
	GamesWon      int       `json:"games_won"`
	GamesLost     int       `json:"games_lost"`
	TotalPoints   int       `json:"total_points"`
	LastUpdated   time.Time `json:"last_updated"`
}
