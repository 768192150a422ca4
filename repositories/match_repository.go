package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/courtsync/tournament-system/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchReferenceBroken = errors.New("match references missing entity")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	GetBySlotUID(ctx context.Context, exec SQLExecutor, bracketID int, slotUID string) (*models.Match, error)

	CountByGroup(ctx context.Context, exec SQLExecutor, groupID int) (int, error)
	CountByBracket(ctx context.Context, exec SQLExecutor, bracketID int) (int, error)

	ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.Match, error)
	ListByBracket(ctx context.Context, exec SQLExecutor, bracketID int) ([]*models.Match, error)
	ListByStage(ctx context.Context, exec SQLExecutor, stageID int) ([]*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	ListUnscheduled(ctx context.Context, exec SQLExecutor, stageID int) ([]*models.Match, error)
	ListCompletedBetween(ctx context.Context, exec SQLExecutor, tournamentID int, groupID *int, coupleIDs []int) ([]*models.Match, error)

	UpdateOrdering(ctx context.Context, exec SQLExecutor, match *models.Match) error
	UpdateSchedule(ctx context.Context, exec SQLExecutor, id int, courtID *int, start, end *time.Time) error
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, games models.GameScores, status models.MatchStatus, winnerCoupleID *int) error
	SetSlotCouple(ctx context.Context, exec SQLExecutor, id int, slot int, coupleID int) error
	MaxDisplayOrder(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)

	DeleteUnplayedByStage(ctx context.Context, exec SQLExecutor, stageID int) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, tournament_id, stage_id, group_id, bracket_id,
	couple1_id, couple2_id, winner_couple_id, games, status,
	court_id, scheduled_start, scheduled_end, is_time_limited, time_limit_minutes,
	display_order, order_in_stage, order_in_group, bracket_position, round_number, priority_score,
	slot_uid, next_match_uid, winner_to_slot, created_at, updated_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.StageID, &m.GroupID, &m.BracketID,
		&m.Couple1ID, &m.Couple2ID, &m.WinnerCoupleID, &m.Games, &m.Status,
		&m.CourtID, &m.ScheduledStart, &m.ScheduledEnd, &m.IsTimeLimited, &m.TimeLimitMinutes,
		&m.DisplayOrder, &m.OrderInStage, &m.OrderInGroup, &m.BracketPosition, &m.RoundNumber, &m.PriorityScore,
		&m.SlotUID, &m.NextMatchUID, &m.WinnerToSlot, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, stage_id, group_id, bracket_id, couple1_id, couple2_id,
			 games, status, is_time_limited, time_limit_minutes,
			 bracket_position, round_number, slot_uid, next_match_uid, winner_to_slot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		match.TournamentID,
		match.StageID,
		match.GroupID,
		match.BracketID,
		match.Couple1ID,
		match.Couple2ID,
		match.Games,
		match.Status,
		match.IsTimeLimited,
		match.TimeLimitMinutes,
		match.BracketPosition,
		match.RoundNumber,
		match.SlotUID,
		match.NextMatchUID,
		match.WinnerToSlot,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	m, err := scanMatch(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) GetBySlotUID(ctx context.Context, exec SQLExecutor, bracketID int, slotUID string) (*models.Match, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + matchColumns + ` FROM matches WHERE bracket_id = $1 AND slot_uid = $2`
	m, err := scanMatch(exec.QueryRowContext(ctx, query, bracketID, slotUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by slot %s: %w", slotUID, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) CountByGroup(ctx context.Context, exec SQLExecutor, groupID int) (int, error) {
	return r.count(ctx, exec, `SELECT COUNT(*) FROM matches WHERE group_id = $1`, groupID)
}

func (r *postgresMatchRepository) CountByBracket(ctx context.Context, exec SQLExecutor, bracketID int) (int, error) {
	return r.count(ctx, exec, `SELECT COUNT(*) FROM matches WHERE bracket_id = $1`, bracketID)
}

func (r *postgresMatchRepository) count(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (int, error) {
	if exec == nil {
		exec = r.db
	}
	var n int
	if err := exec.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return n, nil
}

func (r *postgresMatchRepository) ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches WHERE group_id = $1
		ORDER BY display_order ASC NULLS LAST, id ASC`
	return r.list(ctx, exec, query, groupID)
}

func (r *postgresMatchRepository) ListByBracket(ctx context.Context, exec SQLExecutor, bracketID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches WHERE bracket_id = $1
		ORDER BY round_number ASC, bracket_position ASC, id ASC`
	return r.list(ctx, exec, query, bracketID)
}

func (r *postgresMatchRepository) ListByStage(ctx context.Context, exec SQLExecutor, stageID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches WHERE stage_id = $1
		ORDER BY display_order ASC NULLS LAST, id ASC`
	return r.list(ctx, exec, query, stageID)
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches WHERE tournament_id = $1
		ORDER BY display_order ASC NULLS LAST, id ASC`
	return r.list(ctx, nil, query, tournamentID)
}

func (r *postgresMatchRepository) ListUnscheduled(ctx context.Context, exec SQLExecutor, stageID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE stage_id = $1 AND scheduled_start IS NULL AND status = 'pending'
		ORDER BY display_order ASC NULLS LAST, id ASC`
	return r.list(ctx, exec, query, stageID)
}

// ListCompletedBetween returns completed matches where both sides belong to
// the given couple set, optionally narrowed to a group. Used for the
// head to head tiebreaker.
func (r *postgresMatchRepository) ListCompletedBetween(ctx context.Context, exec SQLExecutor, tournamentID int, groupID *int, coupleIDs []int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1
		  AND status IN ('completed', 'time_expired', 'forfeited')
		  AND couple1_id = ANY($2) AND couple2_id = ANY($2)
		  AND ($3::int IS NULL OR group_id = $3)
		ORDER BY id ASC`
	return r.list(ctx, exec, query, tournamentID, pq.Array(coupleIDs), groupID)
}

func (r *postgresMatchRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	if exec == nil {
		exec = r.db
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) UpdateOrdering(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET display_order = $1, order_in_stage = $2, order_in_group = $3,
		    round_number = $4, priority_score = $5, court_id = $6, updated_at = NOW()
		WHERE id = $7`

	result, err := exec.ExecContext(ctx, query,
		match.DisplayOrder,
		match.OrderInStage,
		match.OrderInGroup,
		match.RoundNumber,
		match.PriorityScore,
		match.CourtID,
		match.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateSchedule(ctx context.Context, exec SQLExecutor, id int, courtID *int, start, end *time.Time) error {
	query := `
		UPDATE matches
		SET court_id = $1, scheduled_start = $2, scheduled_end = $3, updated_at = NOW()
		WHERE id = $4`

	result, err := exec.ExecContext(ctx, query, courtID, start, end, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, games models.GameScores, status models.MatchStatus, winnerCoupleID *int) error {
	query := `
		UPDATE matches
		SET games = $1, status = $2, winner_couple_id = $3, updated_at = NOW()
		WHERE id = $4`

	result, err := exec.ExecContext(ctx, query, games, status, winnerCoupleID, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// SetSlotCouple fills one side of a bracket placeholder with the couple
// progressing into it.
func (r *postgresMatchRepository) SetSlotCouple(ctx context.Context, exec SQLExecutor, id int, slot int, coupleID int) error {
	var query string
	switch slot {
	case 1:
		query = `UPDATE matches SET couple1_id = $1, updated_at = NOW() WHERE id = $2`
	case 2:
		query = `UPDATE matches SET couple2_id = $1, updated_at = NOW() WHERE id = $2`
	default:
		return fmt.Errorf("invalid slot %d, want 1 or 2", slot)
	}

	result, err := exec.ExecContext(ctx, query, coupleID, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) MaxDisplayOrder(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	query := `SELECT COALESCE(MAX(display_order), 0) FROM matches WHERE tournament_id = $1`
	return r.count(ctx, exec, query, tournamentID)
}

// DeleteUnplayedByStage removes every match of the stage that has no
// recorded result yet and returns how many rows went. Used before a stage
// is regenerated.
func (r *postgresMatchRepository) DeleteUnplayedByStage(ctx context.Context, exec SQLExecutor, stageID int) (int, error) {
	if exec == nil {
		exec = r.db
	}
	query := `DELETE FROM matches WHERE stage_id = $1 AND status IN ('pending', 'in_progress')`
	result, err := exec.ExecContext(ctx, query, stageID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete unplayed matches for stage %d: %w", stageID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(affected), nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
		return ErrMatchReferenceBroken
	}
	return fmt.Errorf("match repository error: %w", err)
}
