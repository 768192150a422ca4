package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"reflect"

	"github.com/courtsync/tournament-system/models"
	"github.com/courtsync/tournament-system/repositories"
	"github.com/courtsync/tournament-system/standings"
)

// MatchService records and corrects match results and keeps couple stats
// and bracket progression consistent with them.
type MatchService interface {
	GetMatch(ctx context.Context, id int, companyID int) (*models.Match, error)
	ListStageMatches(ctx context.Context, stageID int, companyID int) ([]*models.Match, error)
	ListTournamentMatches(ctx context.Context, tournamentID int, companyID int) ([]*models.Match, error)

	// RecordResult finalizes a pending match. timeExpired marks a
	// time-limited match that ran out of clock; it is an error on a match
	// without a time limit. Re-submitting the identical result is a no-op;
	// submitting a different result for a completed match is rejected, use
	// CorrectResult for that.
	RecordResult(ctx context.Context, matchID int, games models.GameScores, timeExpired bool, companyID int) (*models.Match, error)

	// Forfeit completes a match without games in favor of the given couple.
	Forfeit(ctx context.Context, matchID int, winnerCoupleID int, companyID int) (*models.Match, error)

	// CorrectResult replaces the result of a completed match, reversing the
	// old stats contribution before applying the new one. A bracket match
	// whose successor already has a result cannot be corrected.
	CorrectResult(ctx context.Context, matchID int, games models.GameScores, companyID int) (*models.Match, error)
}

type matchService struct {
	db             *sql.DB
	logger         *slog.Logger
	tournamentRepo repositories.TournamentRepository
	stageRepo      repositories.StageRepository
	matchRepo      repositories.MatchRepository
	statsRepo      repositories.StatsRepository
}

func NewMatchService(
	db *sql.DB,
	logger *slog.Logger,
	tournamentRepo repositories.TournamentRepository,
	stageRepo repositories.StageRepository,
	matchRepo repositories.MatchRepository,
	statsRepo repositories.StatsRepository,
) MatchService {
	return &matchService{
		db:             db,
		logger:         logger,
		tournamentRepo: tournamentRepo,
		stageRepo:      stageRepo,
		matchRepo:      matchRepo,
		statsRepo:      statsRepo,
	}
}

func (s *matchService) authorize(ctx context.Context, tournamentID, companyID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return mapRepoError(err)
	}
	return ensureCompanyOwns(tournament, companyID)
}

func (s *matchService) GetMatch(ctx context.Context, id int, companyID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := s.authorize(ctx, match.TournamentID, companyID); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchService) ListStageMatches(ctx context.Context, stageID int, companyID int) ([]*models.Match, error) {
	stage, err := s.stageRepo.GetByID(ctx, stageID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := s.authorize(ctx, stage.TournamentID, companyID); err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByStage(ctx, nil, stageID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return matches, nil
}

func (s *matchService) ListTournamentMatches(ctx context.Context, tournamentID int, companyID int) ([]*models.Match, error) {
	if err := s.authorize(ctx, tournamentID, companyID); err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return matches, nil
}

// resolveResultStatus picks the terminal status for a recorded result.
// Plain completion stays completed even under time-based rules; the
// time_expired status is reserved for matches whose clock actually ran out.
func resolveResultStatus(match *models.Match, timeExpired bool) (models.MatchStatus, error) {
	if !timeExpired {
		return models.MatchStatusCompleted, nil
	}
	if !match.IsTimeLimited {
		return "", ErrInvalidResult
	}
	return models.MatchStatusTimeExpired, nil
}

func (s *matchService) RecordResult(ctx context.Context, matchID int, games models.GameScores, timeExpired bool, companyID int) (*models.Match, error) {
	var match *models.Match
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		match, err = s.matchRepo.GetByID(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, match.TournamentID, companyID); err != nil {
			return err
		}
		if match.Couple1ID == nil || match.Couple2ID == nil {
			return ErrMatchMissingParticipants
		}
		if match.IsCompleted() {
			if reflect.DeepEqual(match.Games, games) {
				// Idempotent re-submit of the same result.
				return nil
			}
			return ErrAlreadyCompleted
		}

		stage, err := s.stageRepo.GetByID(ctx, *match.StageID)
		if err != nil {
			return err
		}
		result, err := standings.Decide(&models.Match{
			Couple1ID: match.Couple1ID,
			Couple2ID: match.Couple2ID,
			Games:     games,
		}, stage.Config.MatchRules)
		if err != nil {
			return ErrInvalidResult
		}
		if match.BracketID != nil && result.WinnerCoupleID == nil {
			// Elimination matches cannot end in a draw.
			return ErrInvalidResult
		}

		status, err := resolveResultStatus(match, timeExpired)
		if err != nil {
			return err
		}
		if err := s.matchRepo.UpdateResult(ctx, tx, matchID, games, status, result.WinnerCoupleID); err != nil {
			return err
		}
		match.Games = games
		match.Status = status
		match.WinnerCoupleID = result.WinnerCoupleID

		if err := s.applyStats(ctx, tx, match, result, stage.Config.ScoringSystem, false); err != nil {
			return err
		}
		return s.propagateWinner(ctx, tx, match)
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.InfoContext(ctx, "recorded match result",
		slog.Int("match_id", matchID),
		slog.Any("winner_couple_id", match.WinnerCoupleID),
	)
	return match, nil
}

func (s *matchService) Forfeit(ctx context.Context, matchID int, winnerCoupleID int, companyID int) (*models.Match, error) {
	var match *models.Match
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		match, err = s.matchRepo.GetByID(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, match.TournamentID, companyID); err != nil {
			return err
		}
		if match.Couple1ID == nil || match.Couple2ID == nil {
			return ErrMatchMissingParticipants
		}
		if winnerCoupleID != *match.Couple1ID && winnerCoupleID != *match.Couple2ID {
			return ErrInvalidResult
		}
		if match.IsCompleted() {
			if match.Status == models.MatchStatusForfeited &&
				match.WinnerCoupleID != nil && *match.WinnerCoupleID == winnerCoupleID {
				return nil
			}
			return ErrAlreadyCompleted
		}

		stage, err := s.stageRepo.GetByID(ctx, *match.StageID)
		if err != nil {
			return err
		}
		if err := s.matchRepo.UpdateResult(ctx, tx, matchID, nil, models.MatchStatusForfeited, &winnerCoupleID); err != nil {
			return err
		}
		match.Games = nil
		match.Status = models.MatchStatusForfeited
		match.WinnerCoupleID = &winnerCoupleID

		// A forfeit counts as a win with no games played.
		result := standings.Result{WinnerCoupleID: &winnerCoupleID}
		if err := s.applyStats(ctx, tx, match, result, stage.Config.ScoringSystem, false); err != nil {
			return err
		}
		return s.propagateWinner(ctx, tx, match)
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return match, nil
}

func (s *matchService) CorrectResult(ctx context.Context, matchID int, games models.GameScores, companyID int) (*models.Match, error) {
	var match *models.Match
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		match, err = s.matchRepo.GetByID(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, match.TournamentID, companyID); err != nil {
			return err
		}
		if !match.IsCompleted() {
			return ErrInvalidResult
		}
		stage, err := s.stageRepo.GetByID(ctx, *match.StageID)
		if err != nil {
			return err
		}

		oldWinner := match.WinnerCoupleID
		oldResult, err := resultForStats(match, stage.Config.MatchRules)
		if err != nil {
			return ErrInvalidResult
		}
		newResult, err := standings.Decide(&models.Match{
			Couple1ID: match.Couple1ID,
			Couple2ID: match.Couple2ID,
			Games:     games,
		}, stage.Config.MatchRules)
		if err != nil {
			return ErrInvalidResult
		}
		if match.BracketID != nil && newResult.WinnerCoupleID == nil {
			return ErrInvalidResult
		}

		winnerChanged := !sameWinner(oldWinner, newResult.WinnerCoupleID)
		if winnerChanged && match.NextMatchUID != nil {
			successor, err := s.matchRepo.GetBySlotUID(ctx, tx, *match.BracketID, *match.NextMatchUID)
			if err != nil && !errors.Is(err, repositories.ErrMatchNotFound) {
				return err
			}
			if successor != nil {
				if successor.IsCompleted() {
					return ErrAlreadyAdvanced
				}
				// Swap the propagated couple in the successor slot.
				if newResult.WinnerCoupleID != nil {
					if err := s.matchRepo.SetSlotCouple(ctx, tx, successor.ID, *match.WinnerToSlot, *newResult.WinnerCoupleID); err != nil {
						return err
					}
				}
			}
		}

		if err := s.applyStats(ctx, tx, match, oldResult, stage.Config.ScoringSystem, true); err != nil {
			return err
		}

		// A correction rewrites the games, not how the match ended.
		status := models.MatchStatusCompleted
		if match.Status == models.MatchStatusTimeExpired {
			status = models.MatchStatusTimeExpired
		}
		if err := s.matchRepo.UpdateResult(ctx, tx, matchID, games, status, newResult.WinnerCoupleID); err != nil {
			return err
		}
		match.Games = games
		match.Status = status
		match.WinnerCoupleID = newResult.WinnerCoupleID

		return s.applyStats(ctx, tx, match, newResult, stage.Config.ScoringSystem, false)
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.InfoContext(ctx, "corrected match result",
		slog.Int("match_id", matchID),
		slog.Any("winner_couple_id", match.WinnerCoupleID),
	)
	return match, nil
}

// applyStats writes the match's stat contribution, or reverses it when
// negate is set. Group matches feed both the group table and the tournament
// wide totals; bracket matches only the latter.
func (s *matchService) applyStats(ctx context.Context, tx *sql.Tx, match *models.Match, result standings.Result, scoring models.ScoringSystem, negate bool) error {
	deltas := standings.Deltas(match, result, scoring)
	for _, d := range deltas {
		if negate {
			d = d.Negate()
		}
		if match.GroupID != nil {
			if err := s.statsRepo.ApplyDelta(ctx, tx, match.TournamentID, d.CoupleID, match.GroupID,
				d.MatchesPlayed, d.MatchesWon, d.MatchesLost, d.MatchesDrawn,
				d.GamesWon, d.GamesLost, d.TotalPoints); err != nil {
				return err
			}
		}
		if err := s.statsRepo.ApplyDelta(ctx, tx, match.TournamentID, d.CoupleID, nil,
			d.MatchesPlayed, d.MatchesWon, d.MatchesLost, d.MatchesDrawn,
			d.GamesWon, d.GamesLost, d.TotalPoints); err != nil {
			return err
		}
	}
	return nil
}

// propagateWinner fills the winner into its successor bracket slot.
func (s *matchService) propagateWinner(ctx context.Context, tx *sql.Tx, match *models.Match) error {
	if match.BracketID == nil || match.NextMatchUID == nil || match.WinnerCoupleID == nil {
		return nil
	}
	successor, err := s.matchRepo.GetBySlotUID(ctx, tx, *match.BracketID, *match.NextMatchUID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil
		}
		return err
	}
	return s.matchRepo.SetSlotCouple(ctx, tx, successor.ID, *match.WinnerToSlot, *match.WinnerCoupleID)
}

func sameWinner(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
