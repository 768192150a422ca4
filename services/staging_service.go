package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/courtsync/tournament-system/brackets"
	"github.com/courtsync/tournament-system/models"
	"github.com/courtsync/tournament-system/repositories"
	"github.com/courtsync/tournament-system/scheduling"
)

// StagingService owns the stage structure of a tournament and runs match
// generation for groups and brackets.
type StagingService interface {
	CreateStage(ctx context.Context, input CreateStageInput, companyID int) (*models.Stage, error)
	GetStage(ctx context.Context, id int, companyID int) (*models.Stage, error)
	ListStages(ctx context.Context, tournamentID int, companyID int) ([]*models.Stage, error)
	UpdateStageConfig(ctx context.Context, stageID int, config models.StageConfig, companyID int) error
	DeleteStage(ctx context.Context, stageID int, companyID int) error

	CreateGroup(ctx context.Context, stageID int, name string, companyID int) (*models.Group, error)
	ListGroups(ctx context.Context, stageID int, companyID int) ([]*models.Group, error)
	DeleteGroup(ctx context.Context, groupID int, companyID int) error
	AssignCoupleToGroup(ctx context.Context, groupID, coupleID int, companyID int) error
	RemoveCoupleFromGroup(ctx context.Context, groupID, coupleID int, companyID int) error

	CreateBracket(ctx context.Context, stageID int, bracketType models.BracketType, companyID int) (*models.Bracket, error)
	ListBrackets(ctx context.Context, stageID int, companyID int) ([]*models.Bracket, error)

	// GenerateStageMatches generates matches for every group of a group
	// stage in one pass, so court allocation can balance across groups.
	GenerateStageMatches(ctx context.Context, stageID int, companyID int) ([]*models.Match, error)

	// GenerateBracketMatches builds the full elimination tree for a bracket.
	// seededCoupleIDs is seed order; when empty, every tournament couple
	// enters in registration order.
	GenerateBracketMatches(ctx context.Context, bracketID int, seededCoupleIDs []int, companyID int) ([]*models.Match, error)

	// BuildBracketInTx is GenerateBracketMatches inside a caller-owned
	// transaction, so progression can advance couples and build the target
	// bracket atomically. The caller has already authorized the company.
	BuildBracketInTx(ctx context.Context, tx *sql.Tx, stage *models.Stage, bracketID int, seededCoupleIDs []int, courts []*models.Court) ([]*models.Match, error)

	// DeleteUnplayedMatches clears the stage's matches that have no result
	// yet, freeing the stage for regeneration. Played matches stay.
	DeleteUnplayedMatches(ctx context.Context, stageID int, companyID int) (int, error)
}

type CreateStageInput struct {
	TournamentID int                 `json:"tournament_id"`
	Name         string              `json:"name"`
	Kind         models.StageKind    `json:"stage_type"`
	Order        int                 `json:"order"`
	Config       *models.StageConfig `json:"config,omitempty"`
}

type stagingService struct {
	db             *sql.DB
	logger         *slog.Logger
	tournamentRepo repositories.TournamentRepository
	stageRepo      repositories.StageRepository
	groupRepo      repositories.GroupRepository
	bracketRepo    repositories.BracketRepository
	coupleRepo     repositories.CoupleRepository
	courtRepo      repositories.CourtRepository
	matchRepo      repositories.MatchRepository
	statsRepo      repositories.StatsRepository
}

func NewStagingService(
	db *sql.DB,
	logger *slog.Logger,
	tournamentRepo repositories.TournamentRepository,
	stageRepo repositories.StageRepository,
	groupRepo repositories.GroupRepository,
	bracketRepo repositories.BracketRepository,
	coupleRepo repositories.CoupleRepository,
	courtRepo repositories.CourtRepository,
	matchRepo repositories.MatchRepository,
	statsRepo repositories.StatsRepository,
) StagingService {
	return &stagingService{
		db:             db,
		logger:         logger,
		tournamentRepo: tournamentRepo,
		stageRepo:      stageRepo,
		groupRepo:      groupRepo,
		bracketRepo:    bracketRepo,
		coupleRepo:     coupleRepo,
		courtRepo:      courtRepo,
		matchRepo:      matchRepo,
		statsRepo:      statsRepo,
	}
}

// authorizedStage loads the stage and verifies the caller's company owns
// its tournament.
func (s *stagingService) authorizedStage(ctx context.Context, stageID, companyID int) (*models.Stage, error) {
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
	return stage, nil
}

// authorizedGroup is authorizedStage reached through a group id.
func (s *stagingService) authorizedGroup(ctx context.Context, groupID, companyID int) (*models.Group, *models.Stage, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}
	stage, err := s.authorizedStage(ctx, group.StageID, companyID)
	if err != nil {
		return nil, nil, err
	}
	return group, stage, nil
}

func (s *stagingService) CreateStage(ctx context.Context, input CreateStageInput, companyID int) (*models.Stage, error) {
	if strings.TrimSpace(input.Name) == "" || input.Order < 1 {
		return nil, ErrValidationFailed
	}
	switch input.Kind {
	case models.StageKindGroup, models.StageKindElimination:
	default:
		return nil, ErrValidationFailed
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, input.TournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := ensureCompanyOwns(tournament, companyID); err != nil {
		return nil, err
	}

	config := models.DefaultStageConfig()
	if input.Config != nil {
		config = *input.Config
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	stage := &models.Stage{
		TournamentID: input.TournamentID,
		Name:         strings.TrimSpace(input.Name),
		Kind:         input.Kind,
		Order:        input.Order,
		Config:       config,
	}
	if err := s.stageRepo.Create(ctx, s.db, stage); err != nil {
		return nil, mapRepoError(err)
	}
	return stage, nil
}

func (s *stagingService) GetStage(ctx context.Context, id int, companyID int) (*models.Stage, error) {
	return s.authorizedStage(ctx, id, companyID)
}

func (s *stagingService) ListStages(ctx context.Context, tournamentID int, companyID int) ([]*models.Stage, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := ensureCompanyOwns(tournament, companyID); err != nil {
		return nil, err
	}
	stages, err := s.stageRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return stages, nil
}

func (s *stagingService) UpdateStageConfig(ctx context.Context, stageID int, config models.StageConfig, companyID int) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if _, err := s.authorizedStage(ctx, stageID, companyID); err != nil {
		return err
	}
	// Config changes are rejected once matches exist, otherwise recorded
	// results could be re-read under different rules.
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		total, err := s.countStageMatches(ctx, tx, stageID)
		if err != nil {
			return err
		}
		if total > 0 {
			return ErrAlreadyGenerated
		}
		return s.stageRepo.UpdateConfig(ctx, tx, stageID, config)
	})
	return mapRepoError(err)
}

func (s *stagingService) countStageMatches(ctx context.Context, exec repositories.SQLExecutor, stageID int) (int, error) {
	matches, err := s.matchRepo.ListByStage(ctx, exec, stageID)
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

func (s *stagingService) DeleteStage(ctx context.Context, stageID int, companyID int) error {
	if _, err := s.authorizedStage(ctx, stageID, companyID); err != nil {
		return err
	}
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		total, err := s.countStageMatches(ctx, tx, stageID)
		if err != nil {
			return err
		}
		if total > 0 {
			return ErrAlreadyGenerated
		}
		return s.stageRepo.Delete(ctx, tx, stageID)
	})
	return mapRepoError(err)
}

func (s *stagingService) CreateGroup(ctx context.Context, stageID int, name string, companyID int) (*models.Group, error) {
	stage, err := s.authorizedStage(ctx, stageID, companyID)
	if err != nil {
		return nil, err
	}
	if stage.Kind != models.StageKindGroup {
		return nil, ErrStageKindMismatch
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrValidationFailed
	}

	group := &models.Group{StageID: stageID, Name: strings.TrimSpace(name)}
	if err := s.groupRepo.Create(ctx, s.db, group); err != nil {
		return nil, mapRepoError(err)
	}
	return group, nil
}

func (s *stagingService) ListGroups(ctx context.Context, stageID int, companyID int) ([]*models.Group, error) {
	if _, err := s.authorizedStage(ctx, stageID, companyID); err != nil {
		return nil, err
	}
	groups, err := s.groupRepo.ListByStage(ctx, stageID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return groups, nil
}

func (s *stagingService) DeleteGroup(ctx context.Context, groupID int, companyID int) error {
	if _, _, err := s.authorizedGroup(ctx, groupID, companyID); err != nil {
		return err
	}
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		count, err := s.matchRepo.CountByGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyGenerated
		}
		return s.groupRepo.Delete(ctx, tx, groupID)
	})
	return mapRepoError(err)
}

func (s *stagingService) AssignCoupleToGroup(ctx context.Context, groupID, coupleID int, companyID int) error {
	_, stage, err := s.authorizedGroup(ctx, groupID, companyID)
	if err != nil {
		return err
	}
	couple, err := s.coupleRepo.GetByID(ctx, coupleID)
	if err != nil {
		return mapRepoError(err)
	}
	if couple.TournamentID != stage.TournamentID {
		return ErrCoupleOutsideTournament
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		count, err := s.matchRepo.CountByGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyGenerated
		}
		if err := s.groupRepo.AssignCouple(ctx, tx, groupID, coupleID); err != nil {
			return err
		}
		// Seed zero stats rows so standings list the couple before it has
		// played anything.
		if err := s.statsRepo.ApplyDelta(ctx, tx, stage.TournamentID, coupleID, &groupID, 0, 0, 0, 0, 0, 0, 0); err != nil {
			return err
		}
		return s.statsRepo.ApplyDelta(ctx, tx, stage.TournamentID, coupleID, nil, 0, 0, 0, 0, 0, 0, 0)
	})
	return mapRepoError(err)
}

func (s *stagingService) RemoveCoupleFromGroup(ctx context.Context, groupID, coupleID int, companyID int) error {
	if _, _, err := s.authorizedGroup(ctx, groupID, companyID); err != nil {
		return err
	}
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		count, err := s.matchRepo.CountByGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyGenerated
		}
		if err := s.groupRepo.RemoveCouple(ctx, tx, groupID, coupleID); err != nil {
			return err
		}
		// The group row is the zero seed from assignment; removal is only
		// reachable before any group match exists.
		return s.statsRepo.DeleteByGroupAndCouple(ctx, tx, groupID, coupleID)
	})
	return mapRepoError(err)
}

func (s *stagingService) CreateBracket(ctx context.Context, stageID int, bracketType models.BracketType, companyID int) (*models.Bracket, error) {
	stage, err := s.authorizedStage(ctx, stageID, companyID)
	if err != nil {
		return nil, err
	}
	if stage.Kind != models.StageKindElimination {
		return nil, ErrStageKindMismatch
	}

	bracket := &models.Bracket{StageID: stageID, Type: bracketType}
	if err := s.bracketRepo.Create(ctx, s.db, bracket); err != nil {
		return nil, mapRepoError(err)
	}
	return bracket, nil
}

func (s *stagingService) ListBrackets(ctx context.Context, stageID int, companyID int) ([]*models.Bracket, error) {
	if _, err := s.authorizedStage(ctx, stageID, companyID); err != nil {
		return nil, err
	}
	list, err := s.bracketRepo.ListByStage(ctx, stageID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return list, nil
}

func (s *stagingService) GenerateStageMatches(ctx context.Context, stageID int, companyID int) ([]*models.Match, error) {
	stage, err := s.stageRepo.GetByID(ctx, stageID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if stage.Kind != models.StageKindGroup {
		return nil, ErrStageKindMismatch
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, stage.TournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := ensureCompanyOwns(tournament, companyID); err != nil {
		return nil, err
	}
	groups, err := s.groupRepo.ListByStage(ctx, stageID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if len(groups) == 0 {
		return nil, ErrInsufficientParticipants
	}
	courts, err := s.courtRepo.ListByCompany(ctx, tournament.CompanyID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	generator := brackets.ForFormat(stage.Config.MatchRules.Format)
	rules := stage.Config.MatchRules

	var created []*models.Match
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		created = created[:0]

		for _, group := range groups {
			if err := repositories.LockGroupGeneration(ctx, tx, group.ID); err != nil {
				return err
			}
			count, err := s.matchRepo.CountByGroup(ctx, tx, group.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrAlreadyGenerated
			}

			coupleIDs, err := s.groupRepo.ListCoupleIDs(ctx, tx, group.ID)
			if err != nil {
				return err
			}
			if len(coupleIDs) < 2 {
				return ErrInsufficientParticipants
			}

			slots, err := generator.GenerateGroup(ctx, brackets.GenerateGroupParams{
				GroupID:   group.ID,
				CoupleIDs: coupleIDs,
				Rules:     rules,
			})
			if err != nil {
				if err == brackets.ErrInsufficientCouples {
					return ErrInsufficientParticipants
				}
				return err
			}

			for _, slot := range slots {
				match := s.newGroupMatch(stage, group.ID, slot, rules)
				if err := s.matchRepo.Create(ctx, tx, match); err != nil {
					return err
				}
				created = append(created, match)
			}
		}

		return s.orderAndPersist(ctx, tx, stage, created, courts)
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.InfoContext(ctx, "generated group stage matches",
		slog.Int("stage_id", stageID),
		slog.Int("groups", len(groups)),
		slog.Int("matches", len(created)),
		slog.String("format", generator.Name()),
	)
	return created, nil
}

func (s *stagingService) newGroupMatch(stage *models.Stage, groupID int, slot brackets.GroupMatchSlot, rules models.MatchRules) *models.Match {
	c1, c2 := slot.Couple1ID, slot.Couple2ID
	match := &models.Match{
		TournamentID:  stage.TournamentID,
		StageID:       &stage.ID,
		GroupID:       &groupID,
		Couple1ID:     &c1,
		Couple2ID:     &c2,
		Status:        models.MatchStatusPending,
		IsTimeLimited: rules.TimeLimited,
	}
	if rules.TimeLimited {
		limit := rules.TimeLimitMinutes
		match.TimeLimitMinutes = &limit
	}
	if slot.Round > 0 {
		round := slot.Round
		match.RoundNumber = &round
	}
	return match
}

func (s *stagingService) GenerateBracketMatches(ctx context.Context, bracketID int, seededCoupleIDs []int, companyID int) ([]*models.Match, error) {
	bracket, err := s.bracketRepo.GetByID(ctx, bracketID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	stage, err := s.stageRepo.GetByID(ctx, bracket.StageID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if stage.Kind != models.StageKindElimination {
		return nil, ErrStageKindMismatch
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, stage.TournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := ensureCompanyOwns(tournament, companyID); err != nil {
		return nil, err
	}

	if len(seededCoupleIDs) == 0 {
		couples, err := s.coupleRepo.ListByTournament(ctx, stage.TournamentID)
		if err != nil {
			return nil, mapRepoError(err)
		}
		for _, c := range couples {
			seededCoupleIDs = append(seededCoupleIDs, c.ID)
		}
	}
	if len(seededCoupleIDs) < 2 {
		return nil, ErrInsufficientParticipants
	}

	courts, err := s.courtRepo.ListByCompany(ctx, tournament.CompanyID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	var created []*models.Match
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		created = created[:0]
		var genErr error
		created, genErr = s.BuildBracketInTx(ctx, tx, stage, bracketID, seededCoupleIDs, courts)
		return genErr
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.InfoContext(ctx, "generated bracket matches",
		slog.Int("bracket_id", bracketID),
		slog.Int("couples", len(seededCoupleIDs)),
		slog.Int("matches", len(created)),
	)
	return created, nil
}

func (s *stagingService) BuildBracketInTx(ctx context.Context, tx *sql.Tx, stage *models.Stage, bracketID int, seededCoupleIDs []int, courts []*models.Court) ([]*models.Match, error) {
	if err := repositories.LockBracketGeneration(ctx, tx, bracketID); err != nil {
		return nil, err
	}
	count, err := s.matchRepo.CountByBracket(ctx, tx, bracketID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyGenerated
	}

	plan, err := brackets.NewSingleEliminationGenerator().Generate(ctx, seededCoupleIDs)
	if err != nil {
		if err == brackets.ErrInsufficientCouples {
			return nil, ErrInsufficientParticipants
		}
		return nil, err
	}

	rules := stage.Config.MatchRules
	created := make([]*models.Match, 0, len(plan.Matches))
	for _, bm := range plan.Matches {
		if bm.IsBye {
			// A bye is not a recorded match; the couple was already
			// propagated into its round 2 slot by the generator.
			continue
		}
		match := &models.Match{
			TournamentID:  stage.TournamentID,
			StageID:       &stage.ID,
			BracketID:     &bracketID,
			Couple1ID:     bm.Couple1ID,
			Couple2ID:     bm.Couple2ID,
			Status:        models.MatchStatusPending,
			IsTimeLimited: rules.TimeLimited,
		}
		if rules.TimeLimited {
			limit := rules.TimeLimitMinutes
			match.TimeLimitMinutes = &limit
		}
		round, pos, uid := bm.Round, bm.Position, bm.SlotUID
		match.RoundNumber = &round
		match.BracketPosition = &pos
		match.SlotUID = &uid
		if bm.NextMatchUID != "" {
			next, slot := bm.NextMatchUID, bm.WinnerToSlot
			match.NextMatchUID = &next
			match.WinnerToSlot = &slot
		}
		if err := s.matchRepo.Create(ctx, tx, match); err != nil {
			return nil, err
		}
		created = append(created, match)
	}

	if err := s.orderAndPersist(ctx, tx, stage, created, courts); err != nil {
		return nil, err
	}
	return created, nil
}

// orderAndPersist runs the configured allocation strategy over the freshly
// created matches and writes the resulting ordering fields. A panicking
// strategy degrades to the basic round robin assignment instead of failing
// the generation.
func (s *stagingService) orderAndPersist(ctx context.Context, tx *sql.Tx, stage *models.Stage, matches []*models.Match, courts []*models.Court) error {
	startOrder, err := s.matchRepo.MaxDisplayOrder(ctx, tx, stage.TournamentID)
	if err != nil {
		return err
	}
	startOrder++

	ordered := s.runStrategy(ctx, stage, matches, courts, startOrder)
	for _, m := range ordered {
		if err := s.matchRepo.UpdateOrdering(ctx, tx, m); err != nil {
			return err
		}
	}

	// Time-based scheduling needs a known match duration; without a time
	// limit the stage stays order-only.
	if stage.Config.Scheduling.AutoSchedule && stage.Config.MatchRules.TimeLimited && len(courts) > 0 {
		return s.assignTimesInTx(ctx, tx, stage, ordered, courts)
	}
	return nil
}

// assignTimesInTx books the ordered matches into the tournament window.
// Matches that do not fit stay order-only; generation never fails over a
// full calendar.
func (s *stagingService) assignTimesInTx(ctx context.Context, tx *sql.Tx, stage *models.Stage, ordered []*models.Match, courts []*models.Court) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, stage.TournamentID)
	if err != nil {
		return err
	}
	window := scheduling.Interval{Start: tournament.StartDate, End: tournament.EndDate}

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

	duration := time.Duration(stage.Config.MatchRules.TimeLimitMinutes) * time.Minute
	placed, unplaced := scheduling.AssignTimes(ordered, timelines, func(*models.Match) time.Duration {
		return duration
	})
	if len(unplaced) > 0 {
		s.logger.WarnContext(ctx, "some generated matches did not fit the tournament window",
			slog.Int("stage_id", stage.ID),
			slog.Int("unplaced", len(unplaced)),
		)
	}

	for _, m := range placed {
		if err := s.matchRepo.UpdateSchedule(ctx, tx, m.ID, m.CourtID, m.ScheduledStart, m.ScheduledEnd); err != nil {
			return err
		}
	}
	return nil
}

func (s *stagingService) DeleteUnplayedMatches(ctx context.Context, stageID int, companyID int) (int, error) {
	if _, err := s.authorizedStage(ctx, stageID, companyID); err != nil {
		return 0, err
	}

	deleted, err := s.matchRepo.DeleteUnplayedByStage(ctx, nil, stageID)
	if err != nil {
		return 0, mapRepoError(err)
	}

	s.logger.InfoContext(ctx, "deleted unplayed matches",
		slog.Int("stage_id", stageID),
		slog.Int("deleted", deleted),
	)
	return deleted, nil
}

func (s *stagingService) runStrategy(ctx context.Context, stage *models.Stage, matches []*models.Match, courts []*models.Court, startOrder int) (ordered []*models.Match) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.ErrorContext(ctx, "allocation strategy failed, using basic assignment",
				slog.Int("stage_id", stage.ID),
				slog.Any("panic", p),
			)
			ordered = scheduling.BasicAssign(matches, courts, startOrder)
		}
	}()

	allocator := scheduling.Allocator{Strategy: stage.Config.Scheduling.Strategy}
	ordered = allocator.OrderStage(stage.Kind, matches, courts, startOrder)
	return ordered
}
