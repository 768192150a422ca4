package models

import "time"

// Court is a physical court owned by a company and shared across all of the
// company's tournaments. The optional availability window bounds time based
// scheduling; a nil bound means the tournament dates apply.
type Court struct {
	ID                int        `json:"id"`
	CompanyID         int        `json:"company_id"`
	Name              string     `json:"name"`
	AvailabilityStart *time.Time `json:"availability_start,omitempty"`
	AvailabilityEnd   *time.Time `json:"availability_end,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
}
