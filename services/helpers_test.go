package services

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var matchCols = []string{
	"id", "tournament_id", "stage_id", "group_id", "bracket_id",
	"couple1_id", "couple2_id", "winner_couple_id", "games", "status",
	"court_id", "scheduled_start", "scheduled_end", "is_time_limited", "time_limit_minutes",
	"display_order", "order_in_stage", "order_in_group", "bracket_position", "round_number", "priority_score",
	"slot_uid", "next_match_uid", "winner_to_slot", "created_at", "updated_at",
}

// matchFixture describes the handful of columns the tests vary; everything
// else in the row is NULL or a constant.
type matchFixture struct {
	id            int
	tournamentID  int
	stageID       interface{}
	groupID       interface{}
	couple1       interface{}
	couple2       interface{}
	games         interface{}
	status        string
	courtID       interface{}
	start         interface{}
	end           interface{}
	isTimeLimited bool
}

func matchRows(fixtures ...matchFixture) *sqlmock.Rows {
	rows := sqlmock.NewRows(matchCols)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, f := range fixtures {
		rows.AddRow(
			f.id, f.tournamentID, f.stageID, f.groupID, nil,
			f.couple1, f.couple2, nil, f.games, f.status,
			f.courtID, f.start, f.end, f.isTimeLimited, nil,
			nil, nil, nil, nil, nil, nil,
			nil, nil, nil, now, now,
		)
	}
	return rows
}

var stageCols = []string{
	"id", "tournament_id", "name", "stage_type", "stage_order",
	"config", "created_at", "updated_at", "deleted_at",
}

func stageRow(id, tournamentID int, kind string, config string) *sqlmock.Rows {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(stageCols).
		AddRow(id, tournamentID, "Stage", kind, 1, []byte(config), now, now, nil)
}

var tournamentCols = []string{
	"id", "company_id", "name", "start_date", "end_date",
	"couples_count", "created_at", "updated_at",
}

func tournamentRow(id, companyID int, start, end time.Time) *sqlmock.Rows {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(tournamentCols).
		AddRow(id, companyID, "Open", start, end, 8, now, now)
}

var courtCols = []string{
	"id", "company_id", "name", "availability_start", "availability_end",
	"created_at", "deleted_at",
}

func courtRow(id, companyID int) *sqlmock.Rows {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(courtCols).
		AddRow(id, companyID, "Court 1", nil, nil, now, nil)
}
