package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtsync/tournament-system/models"
)

var ErrCoupleNotFound = errors.New("couple not found")

type CoupleRepository interface {
	Create(ctx context.Context, exec SQLExecutor, couple *models.Couple) error
	GetByID(ctx context.Context, id int) (*models.Couple, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Couple, error)
	Rename(ctx context.Context, exec SQLExecutor, id int, name string) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresCoupleRepository struct {
	db *sql.DB
}

func NewPostgresCoupleRepository(db *sql.DB) CoupleRepository {
	return &postgresCoupleRepository{db: db}
}

func (r *postgresCoupleRepository) Create(ctx context.Context, exec SQLExecutor, couple *models.Couple) error {
	query := `
		INSERT INTO tournament_couples (tournament_id, first_player_id, second_player_id, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		couple.TournamentID,
		couple.FirstPlayerID,
		couple.SecondPlayerID,
		couple.Name,
	).Scan(&couple.ID, &couple.CreatedAt, &couple.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create couple: %w", err)
	}
	return nil
}

func (r *postgresCoupleRepository) GetByID(ctx context.Context, id int) (*models.Couple, error) {
	query := `
		SELECT id, tournament_id, first_player_id, second_player_id, name, created_at, updated_at, deleted_at
		FROM tournament_couples
		WHERE id = $1 AND deleted_at IS NULL`

	couple := &models.Couple{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&couple.ID,
		&couple.TournamentID,
		&couple.FirstPlayerID,
		&couple.SecondPlayerID,
		&couple.Name,
		&couple.CreatedAt,
		&couple.UpdatedAt,
		&couple.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCoupleNotFound
		}
		return nil, fmt.Errorf("failed to scan couple by id %d: %w", id, err)
	}
	return couple, nil
}

func (r *postgresCoupleRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Couple, error) {
	query := `
		SELECT id, tournament_id, first_player_id, second_player_id, name, created_at, updated_at, deleted_at
		FROM tournament_couples
		WHERE tournament_id = $1 AND deleted_at IS NULL
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query couples for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	couples := make([]*models.Couple, 0)
	for rows.Next() {
		var couple models.Couple
		if scanErr := rows.Scan(
			&couple.ID,
			&couple.TournamentID,
			&couple.FirstPlayerID,
			&couple.SecondPlayerID,
			&couple.Name,
			&couple.CreatedAt,
			&couple.UpdatedAt,
			&couple.DeletedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan couple row: %w", scanErr)
		}
		couples = append(couples, &couple)
	}
	return couples, rows.Err()
}

func (r *postgresCoupleRepository) Rename(ctx context.Context, exec SQLExecutor, id int, name string) error {
	query := `UPDATE tournament_couples SET name = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`
	result, err := exec.ExecContext(ctx, query, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename couple %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrCoupleNotFound)
}

func (r *postgresCoupleRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	query := `UPDATE tournament_couples SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete couple %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrCoupleNotFound)
}
