package models

import "time"

type Group struct {
	ID        int        `json:"id"`
	StageID   int        `json:"stage_id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// GroupCouple is the membership record tying a couple to a group. A couple
// may belong to at most one group per stage.
type GroupCouple struct {
	ID        int        `json:"id"`
	GroupID   int        `json:"group_id"`
	CoupleID  int        `json:"couple_id"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
