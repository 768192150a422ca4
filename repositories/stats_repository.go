package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtsync/tournament-system/models"
)

var ErrStatsNotFound = errors.New("couple stats not found")

type StatsRepository interface {
	// ApplyDelta upserts the stats row for (tournament, couple, group) and
	// adds the increments to it in one statement.
	ApplyDelta(ctx context.Context, exec SQLExecutor, tournamentID, coupleID int, groupID *int,
		played, won, lost, drawn, gamesWon, gamesLost, points int) error

	ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]models.CoupleStats, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.CoupleStats, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
	DeleteByGroup(ctx context.Context, exec SQLExecutor, groupID int) error
	DeleteByGroupAndCouple(ctx context.Context, exec SQLExecutor, groupID, coupleID int) error
}

type postgresStatsRepository struct {
	db *sql.DB
}

func NewPostgresStatsRepository(db *sql.DB) StatsRepository {
	return &postgresStatsRepository{db: db}
}

func (r *postgresStatsRepository) ApplyDelta(ctx context.Context, exec SQLExecutor, tournamentID, coupleID int, groupID *int,
	played, won, lost, drawn, gamesWon, gamesLost, points int) error {

	// The unique constraint treats NULL group_id rows as distinct, so the
	// upsert keys on a COALESCE'd expression index would be needed for pure
	// ON CONFLICT. Instead try the update first and insert on zero rows;
	// callers hold the stage advisory lock, so the two steps cannot race.
	update := `
		UPDATE couple_stats
		SET matches_played = matches_played + $1,
		    matches_won    = matches_won + $2,
		    matches_lost   = matches_lost + $3,
		    matches_drawn  = matches_drawn + $4,
		    games_won      = games_won + $5,
		    games_lost     = games_lost + $6,
		    total_points   = total_points + $7,
		    last_updated   = NOW()
		WHERE tournament_id = $8 AND couple_id = $9 AND group_id IS NOT DISTINCT FROM $10`

	result, err := exec.ExecContext(ctx, update,
		played, won, lost, drawn, gamesWon, gamesLost, points,
		tournamentID, coupleID, groupID)
	if err != nil {
		return fmt.Errorf("failed to update stats for couple %d: %w", coupleID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	insert := `
		INSERT INTO couple_stats
			(tournament_id, couple_id, group_id, matches_played, matches_won,
			 matches_lost, matches_drawn, games_won, games_lost, total_points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	if _, err := exec.ExecContext(ctx, insert,
		tournamentID, coupleID, groupID,
		played, won, lost, drawn, gamesWon, gamesLost, points); err != nil {
		return fmt.Errorf("failed to insert stats for couple %d: %w", coupleID, err)
	}
	return nil
}

const statsColumns = `id, tournament_id, couple_id, group_id, matches_played, matches_won,
	matches_lost, matches_drawn, games_won, games_lost, total_points, last_updated`

func (r *postgresStatsRepository) ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]models.CoupleStats, error) {
	query := `SELECT ` + statsColumns + ` FROM couple_stats WHERE group_id = $1 ORDER BY couple_id ASC`
	return r.list(ctx, exec, query, groupID)
}

func (r *postgresStatsRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.CoupleStats, error) {
	query := `SELECT ` + statsColumns + ` FROM couple_stats WHERE tournament_id = $1 ORDER BY couple_id ASC`
	return r.list(ctx, exec, query, tournamentID)
}

func (r *postgresStatsRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.CoupleStats, error) {
	if exec == nil {
		exec = r.db
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query couple stats: %w", err)
	}
	defer rows.Close()

	stats := make([]models.CoupleStats, 0)
	for rows.Next() {
		var s models.CoupleStats
		if scanErr := rows.Scan(
			&s.ID, &s.TournamentID, &s.CoupleID, &s.GroupID,
			&s.MatchesPlayed, &s.MatchesWon, &s.MatchesLost, &s.MatchesDrawn,
			&s.GamesWon, &s.GamesLost, &s.TotalPoints, &s.LastUpdated,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan couple stats row: %w", scanErr)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *postgresStatsRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM couple_stats WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to delete stats for tournament %d: %w", tournamentID, err)
	}
	return nil
}

func (r *postgresStatsRepository) DeleteByGroup(ctx context.Context, exec SQLExecutor, groupID int) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM couple_stats WHERE group_id = $1`, groupID); err != nil {
		return fmt.Errorf("failed to delete stats for group %d: %w", groupID, err)
	}
	return nil
}

func (r *postgresStatsRepository) DeleteByGroupAndCouple(ctx context.Context, exec SQLExecutor, groupID, coupleID int) error {
	query := `DELETE FROM couple_stats WHERE group_id = $1 AND couple_id = $2`
	if _, err := exec.ExecContext(ctx, query, groupID, coupleID); err != nil {
		return fmt.Errorf("failed to delete stats for couple %d in group %d: %w", coupleID, groupID, err)
	}
	return nil
}
