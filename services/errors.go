package services

import "errors"

// Shared errors returned by the service layer and mapped to HTTP statuses
// by the handlers.
var (
	ErrNotFound = errors.New("requested resource not found")

	ErrForbiddenOperation = errors.New("operation not allowed for the current company")

	// Validation and business rule failures.
	ErrValidationFailed         = errors.New("validation failed")
	ErrInsufficientParticipants = errors.New("not enough couples to generate matches")
	ErrInvalidResult            = errors.New("game scores do not produce a valid result")
	ErrStageNotReady            = errors.New("not enough couples with recorded matches to advance")
	ErrTournamentInvalidDates   = errors.New("tournament end date must be after start date")
	ErrStageKindMismatch        = errors.New("operation does not apply to this stage type")
	ErrCoupleOutsideTournament  = errors.New("couple does not belong to the tournament")
	ErrCourtOutsideCompany      = errors.New("court does not belong to the tournament's company")
	ErrCourtUnavailable         = errors.New("court is not available at the requested time")
	ErrMatchMissingParticipants = errors.New("match participants are not determined yet")

	// Conflicts.
	ErrAlreadyGenerated   = errors.New("matches already generated for this scope")
	ErrAlreadyAdvanced    = errors.New("couples already advanced out of this stage")
	ErrAlreadyCompleted   = errors.New("match already has a different recorded result")
	ErrCourtConflict      = errors.New("court already has a match in the requested slot")
	ErrSchedulingConflict = errors.New("no conflict-free slot for the requested schedule")
	ErrStageOrderTaken    = errors.New("stage order already taken in tournament")
	ErrBracketTypeTaken   = errors.New("bracket of this type already exists in stage")
	ErrCoupleInGroup      = errors.New("couple is already assigned to the group")

	// Specific not-found variants for clearer responses.
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrStageNotFound      = errors.New("stage not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrBracketNotFound    = errors.New("bracket not found")
	ErrCoupleNotFound     = errors.New("couple not found")
	ErrCourtNotFound      = errors.New("court not found")
	ErrMatchNotFound      = errors.New("match not found")
)
