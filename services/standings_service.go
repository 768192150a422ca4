package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/courtsync/tournament-system/models"
	"github.com/courtsync/tournament-system/repositories"
	"github.com/courtsync/tournament-system/standings"
)

// StandingsService computes ranking tables and owns the stats lifecycle.
type StandingsService interface {
	GroupStandings(ctx context.Context, groupID int, companyID int) ([]standings.Row, error)
	TournamentStandings(ctx context.Context, tournamentID int, companyID int) ([]standings.Row, error)

	// RebuildStats drops and recomputes every stats row of a tournament
	// from its completed matches. The result must match what incremental
	// updates produced; it exists to recover from manual data surgery.
	RebuildStats(ctx context.Context, tournamentID int, companyID int) error
}

type standingsService struct {
	db             *sql.DB
	logger         *slog.Logger
	tournamentRepo repositories.TournamentRepository
	stageRepo      repositories.StageRepository
	groupRepo      repositories.GroupRepository
	matchRepo      repositories.MatchRepository
	statsRepo      repositories.StatsRepository
}

func NewStandingsService(
	db *sql.DB,
	logger *slog.Logger,
	tournamentRepo repositories.TournamentRepository,
	stageRepo repositories.StageRepository,
	groupRepo repositories.GroupRepository,
	matchRepo repositories.MatchRepository,
	statsRepo repositories.StatsRepository,
) StandingsService {
	return &standingsService{
		db:             db,
		logger:         logger,
		tournamentRepo: tournamentRepo,
		stageRepo:      stageRepo,
		groupRepo:      groupRepo,
		matchRepo:      matchRepo,
		statsRepo:      statsRepo,
	}
}

func (s *standingsService) authorize(ctx context.Context, tournamentID, companyID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return mapRepoError(err)
	}
	return ensureCompanyOwns(tournament, companyID)
}

func (s *standingsService) GroupStandings(ctx context.Context, groupID int, companyID int) ([]standings.Row, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	stage, err := s.stageRepo.GetByID(ctx, group.StageID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := s.authorize(ctx, stage.TournamentID, companyID); err != nil {
		return nil, err
	}
	stats, err := s.statsRepo.ListByGroup(ctx, nil, groupID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	h2h := s.headToHeadFunc(ctx, nil, stage, &groupID)
	return standings.Rank(stats, stage.Config.AdvancementRules.Tiebreakers, h2h), nil
}

func (s *standingsService) TournamentStandings(ctx context.Context, tournamentID int, companyID int) ([]standings.Row, error) {
	if err := s.authorize(ctx, tournamentID, companyID); err != nil {
		return nil, err
	}
	all, err := s.statsRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	// Keep only the tournament-wide rows, group rows have their own table.
	global := all[:0:0]
	for _, row := range all {
		if row.GroupID == nil {
			global = append(global, row)
		}
	}
	return standings.Rank(global, []models.Tiebreaker{
		models.TiebreakerGamesDiff,
		models.TiebreakerGamesWon,
		models.TiebreakerMatchesWon,
	}, nil), nil
}

// headToHeadFunc builds the tiebreaker callback: points each couple earned
// in completed matches strictly among the tied set. Lookup failures degrade
// to an empty table, which keeps the tie instead of failing the request.
func (s *standingsService) headToHeadFunc(ctx context.Context, exec repositories.SQLExecutor, stage *models.Stage, groupID *int) standings.HeadToHeadFunc {
	return func(coupleIDs []int) map[int]int {
		matches, err := s.matchRepo.ListCompletedBetween(ctx, exec, stage.TournamentID, groupID, coupleIDs)
		if err != nil {
			s.logger.WarnContext(ctx, "head to head lookup failed",
				slog.Int("tournament_id", stage.TournamentID),
				slog.Any("error", err),
			)
			return nil
		}
		points := make(map[int]int, len(coupleIDs))
		for _, m := range matches {
			result, err := resultForStats(m, stage.Config.MatchRules)
			if err != nil {
				continue
			}
			for _, d := range standings.Deltas(m, result, stage.Config.ScoringSystem) {
				points[d.CoupleID] += d.TotalPoints
			}
		}
		return points
	}
}

func (s *standingsService) RebuildStats(ctx context.Context, tournamentID int, companyID int) error {
	if err := s.authorize(ctx, tournamentID, companyID); err != nil {
		return err
	}
	stages, err := s.stageRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return mapRepoError(err)
	}
	configByStage := make(map[int]models.StageConfig, len(stages))
	for _, stage := range stages {
		configByStage[stage.ID] = stage.Config
	}

	var rebuilt int
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.statsRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
			return err
		}
		if err := s.reseedZeroRows(ctx, tx, tournamentID, stages); err != nil {
			return err
		}

		matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
		if err != nil {
			return err
		}
		for _, m := range matches {
			if !m.IsCompleted() || m.Couple1ID == nil || m.Couple2ID == nil || m.StageID == nil {
				continue
			}
			config, ok := configByStage[*m.StageID]
			if !ok {
				continue
			}
			result, err := resultForStats(m, config.MatchRules)
			if err != nil {
				return fmt.Errorf("%w: match %d has an undecodable result", ErrInvalidResult, m.ID)
			}
			for _, d := range standings.Deltas(m, result, config.ScoringSystem) {
				if m.GroupID != nil {
					if err := s.statsRepo.ApplyDelta(ctx, tx, tournamentID, d.CoupleID, m.GroupID,
						d.MatchesPlayed, d.MatchesWon, d.MatchesLost, d.MatchesDrawn,
						d.GamesWon, d.GamesLost, d.TotalPoints); err != nil {
						return err
					}
				}
				if err := s.statsRepo.ApplyDelta(ctx, tx, tournamentID, d.CoupleID, nil,
					d.MatchesPlayed, d.MatchesWon, d.MatchesLost, d.MatchesDrawn,
					d.GamesWon, d.GamesLost, d.TotalPoints); err != nil {
					return err
				}
			}
			rebuilt++
		}
		return nil
	})
	if err != nil {
		return mapRepoError(err)
	}

	s.logger.InfoContext(ctx, "rebuilt couple stats",
		slog.Int("tournament_id", tournamentID),
		slog.Int("matches", rebuilt),
	)
	return nil
}

// reseedZeroRows restores the zero stats rows that group assignment seeds,
// so a rebuild lists couples that have not played yet.
func (s *standingsService) reseedZeroRows(ctx context.Context, tx *sql.Tx, tournamentID int, stages []*models.Stage) error {
	for _, stage := range stages {
		if stage.Kind != models.StageKindGroup {
			continue
		}
		groups, err := s.groupRepo.ListByStage(ctx, stage.ID)
		if err != nil {
			return err
		}
		for _, group := range groups {
			coupleIDs, err := s.groupRepo.ListCoupleIDs(ctx, tx, group.ID)
			if err != nil {
				return err
			}
			groupID := group.ID
			for _, coupleID := range coupleIDs {
				if err := s.statsRepo.ApplyDelta(ctx, tx, tournamentID, coupleID, &groupID, 0, 0, 0, 0, 0, 0, 0); err != nil {
					return err
				}
				if err := s.statsRepo.ApplyDelta(ctx, tx, tournamentID, coupleID, nil, 0, 0, 0, 0, 0, 0, 0); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// resultForStats derives the stats-relevant result of a completed match.
// Forfeits carry no games and count as a bare win.
func resultForStats(m *models.Match, rules models.MatchRules) (standings.Result, error) {
	if m.Status == models.MatchStatusForfeited {
		return standings.Result{WinnerCoupleID: m.WinnerCoupleID}, nil
	}
	return standings.Decide(m, rules)
}
