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
	ErrBracketNotFound     = errors.New("bracket not found")
	ErrBracketTypeConflict = errors.New("bracket type already exists in stage")
)

type BracketRepository interface {
	Create(ctx context.Context, exec SQLExecutor, bracket *models.Bracket) error
	GetByID(ctx context.Context, id int) (*models.Bracket, error)
	GetByStageAndType(ctx context.Context, exec SQLExecutor, stageID int, bracketType models.BracketType) (*models.Bracket, error)
	ListByStage(ctx context.Context, stageID int) ([]*models.Bracket, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresBracketRepository struct {
	db *sql.DB
}

func NewPostgresBracketRepository(db *sql.DB) BracketRepository {
	return &postgresBracketRepository{db: db}
}

func (r *postgresBracketRepository) Create(ctx context.Context, exec SQLExecutor, bracket *models.Bracket) error {
	query := `
		INSERT INTO tournament_brackets (stage_id, bracket_type)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query, bracket.StageID, bracket.Type).
		Scan(&bracket.ID, &bracket.CreatedAt, &bracket.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrBracketTypeConflict
		}
		return fmt.Errorf("failed to create bracket: %w", err)
	}
	return nil
}

func (r *postgresBracketRepository) GetByID(ctx context.Context, id int) (*models.Bracket, error) {
	query := `
		SELECT id, stage_id, bracket_type, created_at, updated_at, deleted_at
		FROM tournament_brackets
		WHERE id = $1 AND deleted_at IS NULL`

	bracket := &models.Bracket{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&bracket.ID,
		&bracket.StageID,
		&bracket.Type,
		&bracket.CreatedAt,
		&bracket.UpdatedAt,
		&bracket.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, fmt.Errorf("failed to scan bracket by id %d: %w", id, err)
	}
	return bracket, nil
}

func (r *postgresBracketRepository) GetByStageAndType(ctx context.Context, exec SQLExecutor, stageID int, bracketType models.BracketType) (*models.Bracket, error) {
	query := `
		SELECT id, stage_id, bracket_type, created_at, updated_at, deleted_at
		FROM tournament_brackets
		WHERE stage_id = $1 AND bracket_type = $2 AND deleted_at IS NULL`

	bracket := &models.Bracket{}
	err := exec.QueryRowContext(ctx, query, stageID, bracketType).Scan(
		&bracket.ID,
		&bracket.StageID,
		&bracket.Type,
		&bracket.CreatedAt,
		&bracket.UpdatedAt,
		&bracket.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, fmt.Errorf("failed to scan bracket for stage %d type %s: %w", stageID, bracketType, err)
	}
	return bracket, nil
}

func (r *postgresBracketRepository) ListByStage(ctx context.Context, stageID int) ([]*models.Bracket, error) {
	query := `
		SELECT id, stage_id, bracket_type, created_at, updated_at, deleted_at
		FROM tournament_brackets
		WHERE stage_id = $1 AND deleted_at IS NULL
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query brackets for stage %d: %w", stageID, err)
	}
	defer rows.Close()

	brackets := make([]*models.Bracket, 0)
	for rows.Next() {
		var bracket models.Bracket
		if scanErr := rows.Scan(
			&bracket.ID,
			&bracket.StageID,
			&bracket.Type,
			&bracket.CreatedAt,
			&bracket.UpdatedAt,
			&bracket.DeletedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan bracket row: %w", scanErr)
		}
		brackets = append(brackets, &bracket)
	}
	return brackets, rows.Err()
}

func (r *postgresBracketRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	query := `UPDATE tournament_brackets SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete bracket %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrBracketNotFound)
}
