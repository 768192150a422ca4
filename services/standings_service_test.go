package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/courtsync/tournament-system/repositories"
)

func newStandingsFixture(t *testing.T) (StandingsService, sqlmock.Sqlmock) {
	db, mock := newMockDB(t)
	svc := NewStandingsService(
		db, testLogger(),
		repositories.NewPostgresTournamentRepository(db),
		repositories.NewPostgresStageRepository(db),
		repositories.NewPostgresGroupRepository(db),
		repositories.NewPostgresMatchRepository(db),
		repositories.NewPostgresStatsRepository(db),
	)
	return svc, mock
}

// A rebuild that meets a completed match whose games cannot be decoded
// must fail loudly instead of silently producing a table missing that
// match's contribution.
func TestRebuildStatsFailsOnUndecodableResult(t *testing.T) {
	svc, mock := newStandingsFixture(t)

	windowStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	config := `{"match_rules":{"format":"round_robin","games_per_match":3,"win_criteria":"best_of"}}`

	mock.ExpectQuery(`FROM tournaments`).
		WithArgs(10).
		WillReturnRows(tournamentRow(10, 1, windowStart, windowStart.Add(72*time.Hour)))
	mock.ExpectQuery(`FROM tournament_stages`).
		WithArgs(10).
		WillReturnRows(stageRow(3, 10, "group", config))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM couple_stats WHERE tournament_id`).
		WithArgs(10).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectQuery(`FROM tournament_groups`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stage_id", "name", "created_at", "updated_at", "deleted_at"}))
	mock.ExpectQuery(`FROM matches\s+WHERE tournament_id`).
		WithArgs(10).
		WillReturnRows(matchRows(matchFixture{
			id: 55, tournamentID: 10, stageID: 3, groupID: 4,
			couple1: 1, couple2: 2, games: []byte(`[]`), status: "completed",
		}))
	mock.ExpectRollback()

	err := svc.RebuildStats(context.Background(), 10, 1)
	if !errors.Is(err, ErrInvalidResult) {
		t.Fatalf("got %v, want ErrInvalidResult", err)
	}
	if !strings.Contains(err.Error(), "match 55") {
		t.Errorf("error %q does not name the offending match", err)
	}
}
