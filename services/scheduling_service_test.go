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

func newSchedulingFixture(t *testing.T) (SchedulingService, sqlmock.Sqlmock) {
	db, mock := newMockDB(t)
	svc := NewSchedulingService(
		db, testLogger(),
		repositories.NewPostgresTournamentRepository(db),
		repositories.NewPostgresStageRepository(db),
		repositories.NewPostgresCourtRepository(db),
		repositories.NewPostgresMatchRepository(db),
	)
	return svc, mock
}

func TestUnscheduleMatchClearsCourtAndTimes(t *testing.T) {
	svc, mock := newSchedulingFixture(t)

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM matches WHERE id =`).
		WithArgs(42).
		WillReturnRows(matchRows(matchFixture{
			id: 42, tournamentID: 10, stageID: 3,
			couple1: 1, couple2: 2, status: "pending",
			courtID: 5, start: start, end: end,
		}))
	mock.ExpectQuery(`FROM tournaments`).
		WithArgs(10).
		WillReturnRows(tournamentRow(10, 1, start, start.Add(72*time.Hour)))
	mock.ExpectExec(`UPDATE matches\s+SET court_id`).
		WithArgs(nil, nil, nil, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := svc.UnscheduleMatch(context.Background(), 42, 1); err != nil {
		t.Fatalf("UnscheduleMatch: %v", err)
	}
}

func TestUnscheduleMatchForeignCompany(t *testing.T) {
	svc, mock := newSchedulingFixture(t)

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM matches WHERE id =`).
		WithArgs(42).
		WillReturnRows(matchRows(matchFixture{
			id: 42, tournamentID: 10, stageID: 3,
			couple1: 1, couple2: 2, status: "pending",
			courtID: 5, start: start,
		}))
	mock.ExpectQuery(`FROM tournaments`).
		WithArgs(10).
		WillReturnRows(tournamentRow(10, 2, start, start.Add(72*time.Hour)))
	mock.ExpectRollback()

	err := svc.UnscheduleMatch(context.Background(), 42, 1)
	if !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("got %v, want ErrForbiddenOperation", err)
	}
}

func TestScheduleMatchCourtConflictNamesMatch(t *testing.T) {
	svc, mock := newSchedulingFixture(t)

	windowStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.Add(7 * 24 * time.Hour)
	start := windowStart.Add(10 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM matches WHERE id =`).
		WithArgs(42).
		WillReturnRows(matchRows(matchFixture{
			id: 42, tournamentID: 10, stageID: 3,
			couple1: 1, couple2: 2, status: "pending",
		}))
	mock.ExpectQuery(`FROM tournament_stages`).
		WithArgs(3).
		WillReturnRows(stageRow(3, 10, "group", `{}`))
	mock.ExpectQuery(`FROM tournaments`).
		WithArgs(10).
		WillReturnRows(tournamentRow(10, 1, windowStart, windowEnd))
	mock.ExpectQuery(`FROM courts`).
		WithArgs(7).
		WillReturnRows(courtRow(7, 1))
	mock.ExpectQuery(`WHERE court_id`).
		WithArgs(7, start, start.Add(90*time.Minute), 42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scheduled_start", "scheduled_end"}).
			AddRow(77, start.Add(-30*time.Minute), start.Add(60*time.Minute)))
	mock.ExpectRollback()

	_, err := svc.ScheduleMatch(context.Background(), 42, 7, start, nil, 1)
	if !errors.Is(err, ErrCourtConflict) {
		t.Fatalf("got %v, want ErrCourtConflict", err)
	}
	if !strings.Contains(err.Error(), "match 77") {
		t.Errorf("conflict error %q does not name the blocking match", err)
	}
}

func TestScheduleMatchExplicitEnd(t *testing.T) {
	svc, mock := newSchedulingFixture(t)

	windowStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.Add(7 * 24 * time.Hour)
	start := windowStart.Add(10 * time.Hour)
	end := start.Add(2 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM matches WHERE id =`).
		WithArgs(42).
		WillReturnRows(matchRows(matchFixture{
			id: 42, tournamentID: 10, stageID: 3,
			couple1: 1, couple2: 2, status: "pending",
		}))
	mock.ExpectQuery(`FROM tournament_stages`).
		WithArgs(3).
		WillReturnRows(stageRow(3, 10, "group", `{"scheduling":{"overlap_allowed":true}}`))
	mock.ExpectQuery(`FROM tournaments`).
		WithArgs(10).
		WillReturnRows(tournamentRow(10, 1, windowStart, windowEnd))
	mock.ExpectQuery(`FROM courts`).
		WithArgs(7).
		WillReturnRows(courtRow(7, 1))
	mock.ExpectExec(`UPDATE matches\s+SET court_id`).
		WithArgs(7, start, end, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	match, err := svc.ScheduleMatch(context.Background(), 42, 7, start, &end, 1)
	if err != nil {
		t.Fatalf("ScheduleMatch: %v", err)
	}
	if match.ScheduledEnd == nil || !match.ScheduledEnd.Equal(end) {
		t.Errorf("scheduled end %v, want %v", match.ScheduledEnd, end)
	}
}

func TestScheduleMatchEndBeforeStart(t *testing.T) {
	svc, _ := newSchedulingFixture(t)

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	_, err := svc.ScheduleMatch(context.Background(), 42, 7, start, &end, 1)
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("got %v, want ErrValidationFailed", err)
	}
}
