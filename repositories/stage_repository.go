package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtsync/tournament-system/models"
	"github.com/lib/pq"
)

var (
	ErrStageNotFound       = errors.New("stage not found")
	ErrStageOrderConflict  = errors.New("stage order already taken in tournament")
	ErrStageTournamentGone = errors.New("stage references missing tournament")
)

type StageRepository interface {
	Create(ctx context.Context, exec SQLExecutor, stage *models.Stage) error
	GetByID(ctx context.Context, id int) (*models.Stage, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Stage, error)
	UpdateConfig(ctx context.Context, exec SQLExecutor, id int, config models.StageConfig) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresStageRepository struct {
	db *sql.DB
}

func NewPostgresStageRepository(db *sql.DB) StageRepository {
	return &postgresStageRepository{db: db}
}

const stageColumns = `id, tournament_id, name, stage_type, stage_order, config, created_at, updated_at, deleted_at`

func (r *postgresStageRepository) Create(ctx context.Context, exec SQLExecutor, stage *models.Stage) error {
	query := `
		INSERT INTO tournament_stages (tournament_id, name, stage_type, stage_order, config)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		stage.TournamentID,
		stage.Name,
		stage.Kind,
		stage.Order,
		stage.Config,
	).Scan(&stage.ID, &stage.CreatedAt, &stage.UpdatedAt)

	return r.handleStageError(err)
}

func (r *postgresStageRepository) GetByID(ctx context.Context, id int) (*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM tournament_stages WHERE id = $1 AND deleted_at IS NULL`

	stage := &models.Stage{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&stage.ID,
		&stage.TournamentID,
		&stage.Name,
		&stage.Kind,
		&stage.Order,
		&stage.Config,
		&stage.CreatedAt,
		&stage.UpdatedAt,
		&stage.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, fmt.Errorf("failed to scan stage by id %d: %w", id, err)
	}
	return stage, nil
}

func (r *postgresStageRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Stage, error) {
	query := `SELECT ` + stageColumns + `
		FROM tournament_stages
		WHERE tournament_id = $1 AND deleted_at IS NULL
		ORDER BY stage_order ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	stages := make([]*models.Stage, 0)
	for rows.Next() {
		var stage models.Stage
		if scanErr := rows.Scan(
			&stage.ID,
			&stage.TournamentID,
			&stage.Name,
			&stage.Kind,
			&stage.Order,
			&stage.Config,
			&stage.CreatedAt,
			&stage.UpdatedAt,
			&stage.DeletedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan stage row: %w", scanErr)
		}
		stages = append(stages, &stage)
	}
	return stages, rows.Err()
}

func (r *postgresStageRepository) UpdateConfig(ctx context.Context, exec SQLExecutor, id int, config models.StageConfig) error {
	query := `UPDATE tournament_stages SET config = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`
	result, err := exec.ExecContext(ctx, query, config, id)
	if err != nil {
		return r.handleStageError(err)
	}
	return checkAffectedRows(result, ErrStageNotFound)
}

func (r *postgresStageRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	query := `UPDATE tournament_stages SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete stage %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrStageNotFound)
}

func (r *postgresStageRepository) handleStageError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			if pqErr.Constraint == "unique_stage_order_per_tournament" {
				return ErrStageOrderConflict
			}
		case "foreign_key_violation":
			return ErrStageTournamentGone
		}
	}
	return fmt.Errorf("stage repository error: %w", err)
}
