package models

import "time"

// Couple is a two-player team. Membership is append-only per tournament:
// once matches reference a couple its players are never reassigned, because
// doing so would invalidate historical results.
type Couple struct {
	ID             int        `json:"id"`
	TournamentID   int        `json:"tournament_id"`
	FirstPlayerID  int        `json:"first_player_id"`
	SecondPlayerID int        `json:"second_player_id"`
	Name           string     `json:"name"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}
