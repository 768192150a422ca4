package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtsync/tournament-system/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	ListByCompany(ctx context.Context, companyID int) ([]*models.Tournament, error)
	Update(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	UpdateCouplesCount(ctx context.Context, exec SQLExecutor, id int, delta int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments (company_id, name, start_date, end_date, couples_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		tournament.CompanyID,
		tournament.Name,
		tournament.StartDate,
		tournament.EndDate,
		tournament.CouplesCount,
	).Scan(&tournament.ID, &tournament.CreatedAt, &tournament.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `
		SELECT id, company_id, name, start_date, end_date, couples_count, created_at, updated_at
		FROM tournaments
		WHERE id = $1`

	t := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.CompanyID,
		&t.Name,
		&t.StartDate,
		&t.EndDate,
		&t.CouplesCount,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament by id %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) ListByCompany(ctx context.Context, companyID int) ([]*models.Tournament, error) {
	query := `
		SELECT id, company_id, name, start_date, end_date, couples_count, created_at, updated_at
		FROM tournaments
		WHERE company_id = $1
		ORDER BY start_date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments for company %d: %w", companyID, err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID,
			&t.CompanyID,
			&t.Name,
			&t.StartDate,
			&t.EndDate,
			&t.CouplesCount,
			&t.CreatedAt,
			&t.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, &t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error {
	query := `
		UPDATE tournaments
		SET name = $1, start_date = $2, end_date = $3, updated_at = NOW()
		WHERE id = $4`

	result, err := exec.ExecContext(ctx, query,
		tournament.Name,
		tournament.StartDate,
		tournament.EndDate,
		tournament.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tournament %d: %w", tournament.ID, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateCouplesCount(ctx context.Context, exec SQLExecutor, id int, delta int) error {
	query := `UPDATE tournaments SET couples_count = couples_count + $1, updated_at = NOW() WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to update couples count for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
