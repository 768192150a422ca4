package models

import "time"

type BracketType string

const (
	BracketMain   BracketType = "main"
	BracketSilver BracketType = "silver"
	BracketBronze BracketType = "bronze"
)

type Bracket struct {
	ID        int         `json:"id"`
	StageID   int         `json:"stage_id"`
	Type      BracketType `json:"bracket_type"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	DeletedAt *time.Time  `json:"deleted_at,omitempty"`
}
