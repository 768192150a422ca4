package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/courtsync/tournament-system/models"
)

var ErrCourtNotFound = errors.New("court not found")

// BusyInterval is a scheduled slot already taken on a court.
type BusyInterval struct {
	MatchID int
	Start   time.Time
	End     time.Time
}

type CourtRepository interface {
	Create(ctx context.Context, exec SQLExecutor, court *models.Court) error
	GetByID(ctx context.Context, id int) (*models.Court, error)
	ListByCompany(ctx context.Context, companyID int) ([]*models.Court, error)
	UpdateAvailability(ctx context.Context, exec SQLExecutor, id int, start, end *time.Time) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error

	// BusyIntervals returns the scheduled slots on a court within a window,
	// ordered by start time. excludeMatchID skips one match, so a reschedule
	// does not conflict with the match's own current slot.
	BusyIntervals(ctx context.Context, exec SQLExecutor, courtID int, from, to time.Time, excludeMatchID int) ([]BusyInterval, error)
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) Create(ctx context.Context, exec SQLExecutor, court *models.Court) error {
	query := `
		INSERT INTO courts (company_id, name, availability_start, availability_end)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		court.CompanyID,
		court.Name,
		court.AvailabilityStart,
		court.AvailabilityEnd,
	).Scan(&court.ID, &court.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create court: %w", err)
	}
	return nil
}

func (r *postgresCourtRepository) GetByID(ctx context.Context, id int) (*models.Court, error) {
	query := `
		SELECT id, company_id, name, availability_start, availability_end, created_at, deleted_at
		FROM courts
		WHERE id = $1 AND deleted_at IS NULL`

	court := &models.Court{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&court.ID,
		&court.CompanyID,
		&court.Name,
		&court.AvailabilityStart,
		&court.AvailabilityEnd,
		&court.CreatedAt,
		&court.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to scan court by id %d: %w", id, err)
	}
	return court, nil
}

func (r *postgresCourtRepository) ListByCompany(ctx context.Context, companyID int) ([]*models.Court, error) {
	query := `
		SELECT id, company_id, name, availability_start, availability_end, created_at, deleted_at
		FROM courts
		WHERE company_id = $1 AND deleted_at IS NULL
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query courts for company %d: %w", companyID, err)
	}
	defer rows.Close()

	courts := make([]*models.Court, 0)
	for rows.Next() {
		var court models.Court
		if scanErr := rows.Scan(
			&court.ID,
			&court.CompanyID,
			&court.Name,
			&court.AvailabilityStart,
			&court.AvailabilityEnd,
			&court.CreatedAt,
			&court.DeletedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan court row: %w", scanErr)
		}
		courts = append(courts, &court)
	}
	return courts, rows.Err()
}

func (r *postgresCourtRepository) UpdateAvailability(ctx context.Context, exec SQLExecutor, id int, start, end *time.Time) error {
	query := `UPDATE courts SET availability_start = $1, availability_end = $2 WHERE id = $3 AND deleted_at IS NULL`
	result, err := exec.ExecContext(ctx, query, start, end, id)
	if err != nil {
		return fmt.Errorf("failed to update availability for court %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func (r *postgresCourtRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	query := `UPDATE courts SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete court %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func (r *postgresCourtRepository) BusyIntervals(ctx context.Context, exec SQLExecutor, courtID int, from, to time.Time, excludeMatchID int) ([]BusyInterval, error) {
	if exec == nil {
		exec = r.db
	}
	query := `
		SELECT id, scheduled_start, scheduled_end
		FROM matches
		WHERE court_id = $1
		  AND scheduled_start IS NOT NULL AND scheduled_end IS NOT NULL
		  AND scheduled_start < $3 AND scheduled_end > $2
		  AND id <> $4
		ORDER BY scheduled_start ASC`

	rows, err := exec.QueryContext(ctx, query, courtID, from, to, excludeMatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query busy intervals for court %d: %w", courtID, err)
	}
	defer rows.Close()

	intervals := make([]BusyInterval, 0)
	for rows.Next() {
		var iv BusyInterval
		if scanErr := rows.Scan(&iv.MatchID, &iv.Start, &iv.End); scanErr != nil {
			return nil, fmt.Errorf("failed to scan busy interval row: %w", scanErr)
		}
		intervals = append(intervals, iv)
	}
	return intervals, rows.Err()
}
