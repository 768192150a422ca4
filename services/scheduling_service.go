package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/courtsync/tournament-system/models"
	"github.com/courtsync/tournament-system/repositories"
	"github.com/courtsync/tournament-system/scheduling"
)

// Matches with no explicit time limit block their court for this long.
const defaultMatchMinutes = 90

// SchedulingService pins matches to courts and times. It is the only writer
// of scheduled_start/scheduled_end.
type SchedulingService interface {
	// ScheduleMatch books a match onto a court at a fixed start time. The
	// slot must fit the court's availability window and must not overlap
	// another match on the court, or a match of either couple elsewhere,
	// unless the stage allows overlaps. A nil end derives the slot end from
	// the match duration; an explicit end must lie after start.
	ScheduleMatch(ctx context.Context, matchID, courtID int, start time.Time, end *time.Time, companyID int) (*models.Match, error)

	// UnscheduleMatch clears the match's court and both time fields so a
	// later schedule call starts from a clean slate.
	UnscheduleMatch(ctx context.Context, matchID int, companyID int) error

	// AutoScheduleStage books every unscheduled pending match of a stage
	// into the tournament window, in display order, packing courts from the
	// earliest free slot. Nothing is persisted when any match does not fit.
	AutoScheduleStage(ctx context.Context, stageID int, companyID int) ([]*models.Match, error)

	// CourtAvailability reports the booked and free intervals of one court
	// for a single day, clamped to the court's availability window.
	CourtAvailability(ctx context.Context, courtID int, day time.Time, companyID int) (*CourtAvailability, error)
}

// CourtAvailability is one court's day plan: the bounds consulted, what is
// already booked and what remains open.
type CourtAvailability struct {
	CourtID int                   `json:"court_id"`
	Window  scheduling.Interval   `json:"window"`
	Busy    []scheduling.Interval `json:"busy"`
	Free    []scheduling.Interval `json:"free"`
}

type schedulingService struct {
	db             *sql.DB
	logger         *slog.Logger
	tournamentRepo repositories.TournamentRepository
	stageRepo      repositories.StageRepository
	courtRepo      repositories.CourtRepository
	matchRepo      repositories.MatchRepository
}

func NewSchedulingService(
	db *sql.DB,
	logger *slog.Logger,
	tournamentRepo repositories.TournamentRepository,
	stageRepo repositories.StageRepository,
	courtRepo repositories.CourtRepository,
	matchRepo repositories.MatchRepository,
) SchedulingService {
	return &schedulingService{
		db:             db,
		logger:         logger,
		tournamentRepo: tournamentRepo,
		stageRepo:      stageRepo,
		courtRepo:      courtRepo,
		matchRepo:      matchRepo,
	}
}

func (s *schedulingService) ScheduleMatch(ctx context.Context, matchID, courtID int, start time.Time, end *time.Time, companyID int) (*models.Match, error) {
	if end != nil && !end.After(start) {
		return nil, fmt.Errorf("%w: end must be after start", ErrValidationFailed)
	}

	var match *models.Match
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		match, err = s.matchRepo.GetByID(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if match.IsCompleted() {
			return ErrAlreadyCompleted
		}
		stage, err := s.stageRepo.GetByID(ctx, *match.StageID)
		if err != nil {
			return err
		}
		tournament, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
		if err != nil {
			return err
		}
		if err := ensureCompanyOwns(tournament, companyID); err != nil {
			return err
		}
		court, err := s.courtRepo.GetByID(ctx, courtID)
		if err != nil {
			return err
		}
		if court.CompanyID != tournament.CompanyID {
			return ErrCourtOutsideCompany
		}

		slotEnd := start.Add(s.matchDuration(match))
		if end != nil {
			slotEnd = *end
		}
		slot := scheduling.Interval{Start: start, End: slotEnd}

		window := scheduling.CourtWindow(court, scheduling.Interval{
			Start: tournament.StartDate,
			End:   tournament.EndDate,
		})
		if slot.Start.Before(window.Start) || slot.End.After(window.End) {
			return ErrCourtUnavailable
		}

		if !stage.Config.Scheduling.OverlapAllowed {
			if err := s.checkCourtFree(ctx, tx, courtID, slot, matchID); err != nil {
				return err
			}
			if err := s.checkCouplesFree(ctx, tx, match, slot); err != nil {
				return err
			}
		}

		end := slot.End
		if err := s.matchRepo.UpdateSchedule(ctx, tx, matchID, &courtID, &start, &end); err != nil {
			return err
		}
		match.CourtID = &courtID
		match.ScheduledStart = &start
		match.ScheduledEnd = &end
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.InfoContext(ctx, "scheduled match",
		slog.Int("match_id", matchID),
		slog.Int("court_id", courtID),
		slog.Time("start", start),
	)
	return match, nil
}

func (s *schedulingService) UnscheduleMatch(ctx context.Context, matchID int, companyID int) error {
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		match, err := s.matchRepo.GetByID(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if match.IsCompleted() {
			return ErrAlreadyCompleted
		}
		tournament, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
		if err != nil {
			return err
		}
		if err := ensureCompanyOwns(tournament, companyID); err != nil {
			return err
		}
		return s.matchRepo.UpdateSchedule(ctx, tx, matchID, nil, nil, nil)
	})
	return mapRepoError(err)
}

func (s *schedulingService) AutoScheduleStage(ctx context.Context, stageID int, companyID int) ([]*models.Match, error) {
	stage, err := s.stageRepo.GetByID(ctx, stageID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, stage.TournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := ensureCompanyOwns(tournament, companyID); err != nil {
		return nil, err
	}
	courts, err := s.courtRepo.ListByCompany(ctx, tournament.CompanyID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if len(courts) == 0 {
		return nil, ErrSchedulingConflict
	}

	window := scheduling.Interval{Start: tournament.StartDate, End: tournament.EndDate}

	var placed []*models.Match
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		pending, err := s.matchRepo.ListUnscheduled(ctx, tx, stageID)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}

		timelines := make([]*scheduling.CourtTimeline, 0, len(courts))
		for _, court := range courts {
			busy, err := s.courtRepo.BusyIntervals(ctx, tx, court.ID, window.Start, window.End, 0)
			if err != nil {
				return err
			}
			taken := make([]scheduling.Interval, len(busy))
			for i, b := range busy {
				taken[i] = scheduling.Interval{Start: b.Start, End: b.End}
			}
			timelines = append(timelines, scheduling.NewCourtTimeline(court, window, taken))
		}

		var unplaced []*models.Match
		placed, unplaced = scheduling.AssignTimes(pending, timelines, func(m *models.Match) time.Duration {
			return s.matchDuration(m)
		})
		if len(unplaced) > 0 {
			return ErrSchedulingConflict
		}

		for _, m := range placed {
			if err := s.matchRepo.UpdateSchedule(ctx, tx, m.ID, m.CourtID, m.ScheduledStart, m.ScheduledEnd); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.InfoContext(ctx, "auto scheduled stage",
		slog.Int("stage_id", stageID),
		slog.Int("matches", len(placed)),
	)
	return placed, nil
}

func (s *schedulingService) CourtAvailability(ctx context.Context, courtID int, day time.Time, companyID int) (*CourtAvailability, error) {
	court, err := s.courtRepo.GetByID(ctx, courtID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if court.CompanyID != companyID {
		return nil, ErrForbiddenOperation
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	window := scheduling.CourtWindow(court, scheduling.Interval{
		Start: dayStart,
		End:   dayStart.Add(24 * time.Hour),
	})

	busy, err := s.courtRepo.BusyIntervals(ctx, nil, courtID, window.Start, window.End, 0)
	if err != nil {
		return nil, mapRepoError(err)
	}

	taken := make([]scheduling.Interval, len(busy))
	for i, b := range busy {
		taken[i] = scheduling.Interval{Start: b.Start, End: b.End}
	}

	return &CourtAvailability{
		CourtID: court.ID,
		Window:  window,
		Busy:    taken,
		Free:    scheduling.FreeSlots(window, taken),
	}, nil
}

func (s *schedulingService) matchDuration(m *models.Match) time.Duration {
	if m.TimeLimitMinutes != nil && *m.TimeLimitMinutes > 0 {
		return time.Duration(*m.TimeLimitMinutes) * time.Minute
	}
	return defaultMatchMinutes * time.Minute
}

func (s *schedulingService) checkCourtFree(ctx context.Context, tx *sql.Tx, courtID int, slot scheduling.Interval, excludeMatchID int) error {
	busy, err := s.courtRepo.BusyIntervals(ctx, tx, courtID, slot.Start, slot.End, excludeMatchID)
	if err != nil {
		return err
	}
	for _, b := range busy {
		if slot.Overlaps(scheduling.Interval{Start: b.Start, End: b.End}) {
			return fmt.Errorf("%w: match %d already holds court %d", ErrCourtConflict, b.MatchID, courtID)
		}
	}
	return nil
}

// checkCouplesFree rejects the slot when either couple already plays an
// overlapping match anywhere in the tournament.
func (s *schedulingService) checkCouplesFree(ctx context.Context, tx *sql.Tx, match *models.Match, slot scheduling.Interval) error {
	if match.Couple1ID == nil && match.Couple2ID == nil {
		return nil
	}
	all, err := s.matchRepo.ListByTournament(ctx, match.TournamentID)
	if err != nil {
		return err
	}
	couples := make(map[int]bool, 2)
	for _, c := range match.Couples() {
		couples[c] = true
	}
	for _, other := range all {
		if other.ID == match.ID || other.ScheduledStart == nil || other.ScheduledEnd == nil {
			continue
		}
		shares := false
		for _, c := range other.Couples() {
			if couples[c] {
				shares = true
				break
			}
		}
		if !shares {
			continue
		}
		if slot.Overlaps(scheduling.Interval{Start: *other.ScheduledStart, End: *other.ScheduledEnd}) {
			return fmt.Errorf("%w: couple already plays match %d in that slot", ErrSchedulingConflict, other.ID)
		}
	}
	return nil
}
