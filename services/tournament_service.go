package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/courtsync/tournament-system/models"
	"github.com/courtsync/tournament-system/repositories"
	"golang.org/x/sync/errgroup"
)

// TournamentService owns the registry entities: tournaments, couples and
// courts. Stage structure and matches live in StagingService.
type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int, companyID int) (*models.Tournament, error)
	GetTournamentDetail(ctx context.Context, id int, companyID int) (*TournamentDetail, error)
	ListTournaments(ctx context.Context, companyID int) ([]*models.Tournament, error)

	CreateCouple(ctx context.Context, input CreateCoupleInput, companyID int) (*models.Couple, error)
	ListCouples(ctx context.Context, tournamentID int, companyID int) ([]*models.Couple, error)
	RemoveCouple(ctx context.Context, coupleID int, companyID int) error

	CreateCourt(ctx context.Context, input CreateCourtInput) (*models.Court, error)
	ListCourts(ctx context.Context, companyID int) ([]*models.Court, error)
	UpdateCourtAvailability(ctx context.Context, courtID int, start, end *time.Time, companyID int) error
	RemoveCourt(ctx context.Context, courtID int, companyID int) error
}

type CreateTournamentInput struct {
	CompanyID int       `json:"company_id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// TournamentDetail bundles a tournament with its couples and the owning
// company's courts, the pieces a tournament screen renders together.
type TournamentDetail struct {
	Tournament *models.Tournament `json:"tournament"`
	Couples    []*models.Couple   `json:"couples"`
	Courts     []*models.Court    `json:"courts"`
}

type CreateCoupleInput struct {
	TournamentID   int    `json:"tournament_id"`
	FirstPlayerID  int    `json:"first_player_id"`
	SecondPlayerID int    `json:"second_player_id"`
	Name           string `json:"name"`
}

type CreateCourtInput struct {
	CompanyID         int        `json:"company_id"`
	Name              string     `json:"name"`
	AvailabilityStart *time.Time `json:"availability_start,omitempty"`
	AvailabilityEnd   *time.Time `json:"availability_end,omitempty"`
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	coupleRepo     repositories.CoupleRepository
	courtRepo      repositories.CourtRepository
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	coupleRepo repositories.CoupleRepository,
	courtRepo repositories.CourtRepository,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		coupleRepo:     coupleRepo,
		courtRepo:      courtRepo,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrValidationFailed
	}
	if err := validateDateRange(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		CompanyID: input.CompanyID,
		Name:      strings.TrimSpace(input.Name),
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	if err := s.tournamentRepo.Create(ctx, s.db, tournament); err != nil {
		return nil, mapRepoError(err)
	}
	return tournament, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int, companyID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := ensureCompanyOwns(tournament, companyID); err != nil {
		return nil, err
	}
	return tournament, nil
}

// GetTournamentDetail loads the tournament and its related collections.
// The couple and court lists are independent reads, so they run in
// parallel on the pool.
func (s *tournamentService) GetTournamentDetail(ctx context.Context, id int, companyID int) (*TournamentDetail, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := ensureCompanyOwns(tournament, companyID); err != nil {
		return nil, err
	}

	detail := &TournamentDetail{Tournament: tournament}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		couples, err := s.coupleRepo.ListByTournament(gctx, tournament.ID)
		if err != nil {
			return err
		}
		detail.Couples = couples
		return nil
	})
	g.Go(func() error {
		courts, err := s.courtRepo.ListByCompany(gctx, tournament.CompanyID)
		if err != nil {
			return err
		}
		detail.Courts = courts
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, mapRepoError(err)
	}

	return detail, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, companyID int) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return tournaments, nil
}

func (s *tournamentService) CreateCouple(ctx context.Context, input CreateCoupleInput, companyID int) (*models.Couple, error) {
	if input.FirstPlayerID == input.SecondPlayerID {
		return nil, ErrValidationFailed
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrValidationFailed
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, input.TournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := ensureCompanyOwns(tournament, companyID); err != nil {
		return nil, err
	}

	couple := &models.Couple{
		TournamentID:   input.TournamentID,
		FirstPlayerID:  input.FirstPlayerID,
		SecondPlayerID: input.SecondPlayerID,
		Name:           strings.TrimSpace(input.Name),
	}
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.coupleRepo.Create(ctx, tx, couple); err != nil {
			return err
		}
		return s.tournamentRepo.UpdateCouplesCount(ctx, tx, input.TournamentID, 1)
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return couple, nil
}

func (s *tournamentService) ListCouples(ctx context.Context, tournamentID int, companyID int) ([]*models.Couple, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := ensureCompanyOwns(tournament, companyID); err != nil {
		return nil, err
	}
	couples, err := s.coupleRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return couples, nil
}

func (s *tournamentService) RemoveCouple(ctx context.Context, coupleID int, companyID int) error {
	couple, err := s.coupleRepo.GetByID(ctx, coupleID)
	if err != nil {
		return mapRepoError(err)
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, couple.TournamentID)
	if err != nil {
		return mapRepoError(err)
	}
	if err := ensureCompanyOwns(tournament, companyID); err != nil {
		return err
	}
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.coupleRepo.Delete(ctx, tx, coupleID); err != nil {
			return err
		}
		return s.tournamentRepo.UpdateCouplesCount(ctx, tx, couple.TournamentID, -1)
	})
	return mapRepoError(err)
}

func (s *tournamentService) CreateCourt(ctx context.Context, input CreateCourtInput) (*models.Court, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrValidationFailed
	}
	if input.AvailabilityStart != nil && input.AvailabilityEnd != nil &&
		!input.AvailabilityStart.Before(*input.AvailabilityEnd) {
		return nil, ErrValidationFailed
	}

	court := &models.Court{
		CompanyID:         input.CompanyID,
		Name:              strings.TrimSpace(input.Name),
		AvailabilityStart: input.AvailabilityStart,
		AvailabilityEnd:   input.AvailabilityEnd,
	}
	if err := s.courtRepo.Create(ctx, s.db, court); err != nil {
		return nil, mapRepoError(err)
	}
	return court, nil
}

func (s *tournamentService) ListCourts(ctx context.Context, companyID int) ([]*models.Court, error) {
	courts, err := s.courtRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return courts, nil
}

func (s *tournamentService) UpdateCourtAvailability(ctx context.Context, courtID int, start, end *time.Time, companyID int) error {
	if start != nil && end != nil && !start.Before(*end) {
		return ErrValidationFailed
	}
	if err := s.authorizeCourt(ctx, courtID, companyID); err != nil {
		return err
	}
	return mapRepoError(s.courtRepo.UpdateAvailability(ctx, s.db, courtID, start, end))
}

func (s *tournamentService) RemoveCourt(ctx context.Context, courtID int, companyID int) error {
	if err := s.authorizeCourt(ctx, courtID, companyID); err != nil {
		return err
	}
	return mapRepoError(s.courtRepo.Delete(ctx, s.db, courtID))
}

func (s *tournamentService) authorizeCourt(ctx context.Context, courtID, companyID int) error {
	court, err := s.courtRepo.GetByID(ctx, courtID)
	if err != nil {
		return mapRepoError(err)
	}
	if court.CompanyID != companyID {
		return ErrForbiddenOperation
	}
	return nil
}
