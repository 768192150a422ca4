package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type MatchStatus string

const (
	MatchStatusPending     MatchStatus = "pending"
	MatchStatusInProgress  MatchStatus = "in_progress"
	MatchStatusCompleted   MatchStatus = "completed"
	MatchStatusTimeExpired MatchStatus = "time_expired"
	MatchStatusForfeited   MatchStatus = "forfeited"
)

// GameScore is one game inside a match. The shape is fixed; unknown extra
// fields from older writers are ignored on decode.
type GameScore struct {
	GameNumber      int  `json:"game_number"`
	Couple1Score    int  `json:"couple1_score"`
	Couple2Score    int  `json:"couple2_score"`
	WinnerCoupleID  *int `json:"winner_couple_id,omitempty"`
	DurationMinutes *int `json:"duration_minutes,omitempty"`
}

// GameScores persists as an ordered JSONB array on the match row.
type GameScores []GameScore

func (g GameScores) Value() (driver.Value, error) {
	if g == nil {
		return json.Marshal([]GameScore{})
	}
	return json.Marshal(g)
}

func (g *GameScores) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, g)
	case string:
		return json.Unmarshal([]byte(v), g)
	case nil:
		*g = nil
		return nil
	default:
		return fmt.Errorf("unsupported type %T for GameScores", src)
	}
}

// Match is the unit the engine generates, schedules and records results on.
// A match belongs to exactly one of group or bracket. Couple references are
// nil on later-round bracket placeholders until progression fills them in.
type Match struct {
	ID           int  `json:"id"`
	TournamentID int  `json:"tournament_id"`
	StageID      *int `json:"stage_id,omitempty"`
	GroupID      *int `json:"group_id,omitempty"`
	BracketID    *int `json:"bracket_id,omitempty"`

	Couple1ID      *int `json:"couple1_id,omitempty"`
	Couple2ID      *int `json:"couple2_id,omitempty"`
	WinnerCoupleID *int `json:"winner_couple_id,omitempty"`

	Games  GameScores  `json:"games"`
	Status MatchStatus `json:"status"`

	CourtID          *int       `json:"court_id,omitempty"`
	ScheduledStart   *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd     *time.Time `json:"scheduled_end,omitempty"`
	IsTimeLimited    bool       `json:"is_time_limited"`
	TimeLimitMinutes *int       `json:"time_limit_minutes,omitempty"`

	DisplayOrder    *int     `json:"display_order,omitempty"`
	OrderInStage    *int     `json:"order_in_stage,omitempty"`
	OrderInGroup    *int     `json:"order_in_group,omitempty"`
	BracketPosition *int     `json:"bracket_position,omitempty"`
	RoundNumber     *int     `json:"round_number,omitempty"`
	PriorityScore   *float64 `json:"priority_score,omitempty"`

	// Bracket progression plumbing: SlotUID identifies this match's slot in
	// the generated tree, NextMatchUID/WinnerToSlot say where the winner goes.
	SlotUID      *string `json:"slot_uid,omitempty"`
	NextMatchUID *string `json:"next_match_uid,omitempty"`
	WinnerToSlot *int    `json:"winner_to_slot,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Couples returns the non-nil couple ids of the match.
func (m *Match) Couples() []int {
	ids := make([]int, 0, 2)
	if m.Couple1ID != nil {
		ids = append(ids, *m.Couple1ID)
	}
	if m.Couple2ID != nil {
		ids = append(ids, *m.Couple2ID)
	}
	return ids
}

// IsCompleted reports whether the match has a terminal result.
func (m *Match) IsCompleted() bool {
	switch m.Status {
	case MatchStatusCompleted, MatchStatusTimeExpired, MatchStatusForfeited:
		return true
	}
	return false
}
