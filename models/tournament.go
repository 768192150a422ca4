package models

import "time"

type Tournament struct {
	ID           int       `json:"id"`
	CompanyID    int       `json:"company_id"`
	Name         string    `json:"name"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	CouplesCount int       `json:"couples_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
