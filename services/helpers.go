package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/courtsync/tournament-system/models"
	"github.com/courtsync/tournament-system/repositories"
)

// runInTx wraps fn in a transaction: rollback on error or panic, commit
// otherwise.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (txErr error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("Error during rollback: %v. Original error: %v", rbErr, txErr)
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else {
			if cErr := tx.Commit(); cErr != nil {
				txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
			}
		}
	}()

	txErr = fn(tx)
	return txErr
}

// mapRepoError translates repository sentinels into service sentinels so
// handlers only ever see the service taxonomy.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrStageNotFound):
		return ErrStageNotFound
	case errors.Is(err, repositories.ErrGroupNotFound):
		return ErrGroupNotFound
	case errors.Is(err, repositories.ErrBracketNotFound):
		return ErrBracketNotFound
	case errors.Is(err, repositories.ErrCoupleNotFound):
		return ErrCoupleNotFound
	case errors.Is(err, repositories.ErrCourtNotFound):
		return ErrCourtNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrStageOrderConflict):
		return ErrStageOrderTaken
	case errors.Is(err, repositories.ErrBracketTypeConflict):
		return ErrBracketTypeTaken
	case errors.Is(err, repositories.ErrGroupCoupleConflict):
		return ErrCoupleInGroup
	}
	return err
}

// ensureCompanyOwns rejects cross-company access to a tournament. Every
// engine operation authorizes through it with the company id from the JWT.
func ensureCompanyOwns(t *models.Tournament, companyID int) error {
	if t.CompanyID != companyID {
		return ErrForbiddenOperation
	}
	return nil
}

func validateDateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return ErrTournamentInvalidDates
	}
	return nil
}
