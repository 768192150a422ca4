package services

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"

	"github.com/courtsync/tournament-system/models"
	"github.com/courtsync/tournament-system/repositories"
	"github.com/courtsync/tournament-system/standings"
)

// AdvancementResult reports what one advancement produced.
type AdvancementResult struct {
	StageID        int             `json:"stage_id"`
	TargetStageID  int             `json:"target_stage_id"`
	BracketID      int             `json:"bracket_id"`
	SeededCouples  []int           `json:"seeded_couples"`
	BracketMatches []*models.Match `json:"bracket_matches"`
}

// ProgressionService moves couples from a finished group stage into the
// configured bracket of the next elimination stage.
type ProgressionService interface {
	// AdvanceCouples ranks every group of the stage, takes the configured
	// top N from each, seeds them into the target bracket and generates the
	// bracket matches, all in one transaction. Each group needs at least
	// top N couples with a recorded match; the call refuses to run twice.
	AdvanceCouples(ctx context.Context, stageID int, companyID int) (*AdvancementResult, error)
}

type progressionService struct {
	db             *sql.DB
	logger         *slog.Logger
	tournamentRepo repositories.TournamentRepository
	stageRepo      repositories.StageRepository
	groupRepo      repositories.GroupRepository
	bracketRepo    repositories.BracketRepository
	courtRepo      repositories.CourtRepository
	matchRepo      repositories.MatchRepository
	statsRepo      repositories.StatsRepository
	staging        StagingService
}

func NewProgressionService(
	db *sql.DB,
	logger *slog.Logger,
	tournamentRepo repositories.TournamentRepository,
	stageRepo repositories.StageRepository,
	groupRepo repositories.GroupRepository,
	bracketRepo repositories.BracketRepository,
	courtRepo repositories.CourtRepository,
	matchRepo repositories.MatchRepository,
	statsRepo repositories.StatsRepository,
	staging StagingService,
) ProgressionService {
	return &progressionService{
		db:             db,
		logger:         logger,
		tournamentRepo: tournamentRepo,
		stageRepo:      stageRepo,
		groupRepo:      groupRepo,
		bracketRepo:    bracketRepo,
		courtRepo:      courtRepo,
		matchRepo:      matchRepo,
		statsRepo:      statsRepo,
		staging:        staging,
	}
}

func (s *progressionService) AdvanceCouples(ctx context.Context, stageID int, companyID int) (*AdvancementResult, error) {
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

	targetStage, err := s.findTargetStage(ctx, stage)
	if err != nil {
		return nil, err
	}
	bracket, err := s.bracketRepo.GetByStageAndType(ctx, s.db, targetStage.ID, stage.Config.AdvancementRules.ToBracket)
	if err != nil {
		return nil, mapRepoError(err)
	}

	groups, err := s.groupRepo.ListByStage(ctx, stageID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })

	courts, err := s.courtRepo.ListByCompany(ctx, tournament.CompanyID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	result := &AdvancementResult{StageID: stageID, TargetStageID: targetStage.ID, BracketID: bracket.ID}
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repositories.LockStageAdvancement(ctx, tx, stageID); err != nil {
			return err
		}
		existing, err := s.matchRepo.CountByBracket(ctx, tx, bracket.ID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyAdvanced
		}

		qualified, err := s.qualifiedByGroup(ctx, tx, stage, groups)
		if err != nil {
			return err
		}

		result.SeededCouples = interleaveSeeds(qualified)
		if len(result.SeededCouples) < 2 {
			return ErrInsufficientParticipants
		}

		result.BracketMatches, err = s.staging.BuildBracketInTx(ctx, tx, targetStage, bracket.ID, result.SeededCouples, courts)
		return err
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.InfoContext(ctx, "advanced couples to bracket",
		slog.Int("stage_id", stageID),
		slog.Int("bracket_id", bracket.ID),
		slog.Int("couples", len(result.SeededCouples)),
	)
	return result, nil
}

// findTargetStage returns the nearest later elimination stage.
func (s *progressionService) findTargetStage(ctx context.Context, stage *models.Stage) (*models.Stage, error) {
	stages, err := s.stageRepo.ListByTournament(ctx, stage.TournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	for _, candidate := range stages {
		if candidate.Order > stage.Order && candidate.Kind == models.StageKindElimination {
			return candidate, nil
		}
	}
	return nil, ErrStageNotFound
}

// groupReady reports whether enough couples in the group have played at
// least one match to fill the advancement quota. Advancing mid-stage is
// fine as long as the table has that many real entries.
func groupReady(stats []models.CoupleStats, topN int) bool {
	recorded := 0
	for _, s := range stats {
		if s.MatchesPlayed > 0 {
			recorded++
		}
	}
	return recorded >= topN
}

// qualifiedByGroup ranks each group and keeps its top N couples in table
// order.
func (s *progressionService) qualifiedByGroup(ctx context.Context, tx *sql.Tx, stage *models.Stage, groups []*models.Group) ([][]int, error) {
	topN := stage.Config.AdvancementRules.TopN
	qualified := make([][]int, 0, len(groups))

	for _, group := range groups {
		stats, err := s.statsRepo.ListByGroup(ctx, tx, group.ID)
		if err != nil {
			return nil, err
		}
		if !groupReady(stats, topN) {
			return nil, ErrStageNotReady
		}
		groupID := group.ID
		h2h := func(coupleIDs []int) map[int]int {
			matches, err := s.matchRepo.ListCompletedBetween(ctx, tx, stage.TournamentID, &groupID, coupleIDs)
			if err != nil {
				return nil
			}
			points := make(map[int]int, len(coupleIDs))
			for _, m := range matches {
				res, err := resultForStats(m, stage.Config.MatchRules)
				if err != nil {
					continue
				}
				for _, d := range standings.Deltas(m, res, stage.Config.ScoringSystem) {
					points[d.CoupleID] += d.TotalPoints
				}
			}
			return points
		}

		table := standings.Rank(stats, stage.Config.AdvancementRules.Tiebreakers, h2h)
		take := topN
		if take > len(table) {
			take = len(table)
		}
		ids := make([]int, 0, take)
		for _, row := range table[:take] {
			ids = append(ids, row.Stats.CoupleID)
		}
		qualified = append(qualified, ids)
	}
	return qualified, nil
}

// interleaveSeeds orders qualifiers by finishing position first, group
// second: all group winners, then all runners-up, and so on. Same-position
// couples from the same group can then only rematch deep in the bracket.
func interleaveSeeds(qualified [][]int) []int {
	seeds := make([]int, 0)
	for pos := 0; ; pos++ {
		added := false
		for _, group := range qualified {
			if pos < len(group) {
				seeds = append(seeds, group[pos])
				added = true
			}
		}
		if !added {
			return seeds
		}
	}
}
