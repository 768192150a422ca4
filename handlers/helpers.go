package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/courtsync/tournament-system/middleware"
	"github.com/courtsync/tournament-system/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	if err != nil {
		return err
	}

	return nil
}

func urlParamInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s parameter %q", name, raw)
	}
	return id, nil
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusConflict, err.Error())
}

func unprocessableResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusNotFound, err.Error())
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusForbidden, err.Error())
}

// companyFromRequest extracts the authenticated company id set by the JWT
// middleware. A missing claim is a 401 written here, the caller just
// returns.
func companyFromRequest(w http.ResponseWriter, r *http.Request) (int, bool) {
	companyID, err := middleware.GetCompanyIDFromContext(r.Context())
	if err != nil {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return 0, false
	}
	return companyID, true
}

// mapServiceErrorToHTTP translates the service error taxonomy into HTTP
// responses. Anything unrecognized is a 500.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrStageNotFound),
		errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrBracketNotFound),
		errors.Is(err, services.ErrCoupleNotFound),
		errors.Is(err, services.ErrCourtNotFound),
		errors.Is(err, services.ErrMatchNotFound):
		notFoundResponse(w, r, err)

	case errors.Is(err, services.ErrForbiddenOperation):
		forbiddenResponse(w, r, err)

	case errors.Is(err, services.ErrAlreadyGenerated),
		errors.Is(err, services.ErrAlreadyAdvanced),
		errors.Is(err, services.ErrAlreadyCompleted),
		errors.Is(err, services.ErrCourtConflict),
		errors.Is(err, services.ErrSchedulingConflict),
		errors.Is(err, services.ErrStageOrderTaken),
		errors.Is(err, services.ErrBracketTypeTaken),
		errors.Is(err, services.ErrCoupleInGroup),
		errors.Is(err, services.ErrStageNotReady):
		conflictResponse(w, r, err)

	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrInsufficientParticipants),
		errors.Is(err, services.ErrInvalidResult),
		errors.Is(err, services.ErrTournamentInvalidDates),
		errors.Is(err, services.ErrStageKindMismatch),
		errors.Is(err, services.ErrCoupleOutsideTournament),
		errors.Is(err, services.ErrCourtOutsideCompany),
		errors.Is(err, services.ErrCourtUnavailable),
		errors.Is(err, services.ErrMatchMissingParticipants):
		unprocessableResponse(w, r, err)

	default:
		serverErrorResponse(w, r, err)
	}
}
