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
	ErrGroupNotFound       = errors.New("group not found")
	ErrGroupCoupleConflict = errors.New("couple already assigned to the group")
	ErrGroupCoupleInvalid  = errors.New("group or couple reference invalid")
)

type GroupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, group *models.Group) error
	GetByID(ctx context.Context, id int) (*models.Group, error)
	ListByStage(ctx context.Context, stageID int) ([]*models.Group, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error

	AssignCouple(ctx context.Context, exec SQLExecutor, groupID, coupleID int) error
	RemoveCouple(ctx context.Context, exec SQLExecutor, groupID, coupleID int) error
	ListCoupleIDs(ctx context.Context, exec SQLExecutor, groupID int) ([]int, error)
}

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

func (r *postgresGroupRepository) Create(ctx context.Context, exec SQLExecutor, group *models.Group) error {
	query := `
		INSERT INTO tournament_groups (stage_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query, group.StageID, group.Name).
		Scan(&group.ID, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return r.handleGroupError(err)
	}
	return nil
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, id int) (*models.Group, error) {
	query := `
		SELECT id, stage_id, name, created_at, updated_at, deleted_at
		FROM tournament_groups
		WHERE id = $1 AND deleted_at IS NULL`

	group := &models.Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID,
		&group.StageID,
		&group.Name,
		&group.CreatedAt,
		&group.UpdatedAt,
		&group.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to scan group by id %d: %w", id, err)
	}
	return group, nil
}

func (r *postgresGroupRepository) ListByStage(ctx context.Context, stageID int) ([]*models.Group, error) {
	query := `
		SELECT id, stage_id, name, created_at, updated_at, deleted_at
		FROM tournament_groups
		WHERE stage_id = $1 AND deleted_at IS NULL
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups for stage %d: %w", stageID, err)
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		var group models.Group
		if scanErr := rows.Scan(
			&group.ID,
			&group.StageID,
			&group.Name,
			&group.CreatedAt,
			&group.UpdatedAt,
			&group.DeletedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", scanErr)
		}
		groups = append(groups, &group)
	}
	return groups, rows.Err()
}

func (r *postgresGroupRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	query := `UPDATE tournament_groups SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete group %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

func (r *postgresGroupRepository) AssignCouple(ctx context.Context, exec SQLExecutor, groupID, coupleID int) error {
	query := `INSERT INTO tournament_group_couples (group_id, couple_id) VALUES ($1, $2)`
	if _, err := exec.ExecContext(ctx, query, groupID, coupleID); err != nil {
		return r.handleGroupError(err)
	}
	return nil
}

func (r *postgresGroupRepository) RemoveCouple(ctx context.Context, exec SQLExecutor, groupID, coupleID int) error {
	query := `
		UPDATE tournament_group_couples SET deleted_at = NOW()
		WHERE group_id = $1 AND couple_id = $2 AND deleted_at IS NULL`
	result, err := exec.ExecContext(ctx, query, groupID, coupleID)
	if err != nil {
		return fmt.Errorf("failed to remove couple %d from group %d: %w", coupleID, groupID, err)
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

func (r *postgresGroupRepository) ListCoupleIDs(ctx context.Context, exec SQLExecutor, groupID int) ([]int, error) {
	query := `
		SELECT couple_id FROM tournament_group_couples
		WHERE group_id = $1 AND deleted_at IS NULL
		ORDER BY couple_id ASC`

	rows, err := exec.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query couples for group %d: %w", groupID, err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan group couple row: %w", scanErr)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresGroupRepository) handleGroupError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			if pqErr.Constraint == "unique_couple_per_group" {
				return ErrGroupCoupleConflict
			}
		case "foreign_key_violation":
			return ErrGroupCoupleInvalid
		}
	}
	return fmt.Errorf("group repository error: %w", err)
}
