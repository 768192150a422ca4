package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/courtsync/tournament-system/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

// CreateHandler handles POST /tournaments.
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.CompanyID = companyID

	tournament, err := h.tournamentService.CreateTournament(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler handles GET /tournaments/{tournamentID}.
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetDetailHandler handles GET /tournaments/{tournamentID}/detail.
func (h *TournamentHandler) GetDetailHandler(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	detail, err := h.tournamentService.GetTournamentDetail(r.Context(), id, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament_detail": detail}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /tournaments for the caller's company.
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	tournaments, err := h.tournamentService.ListTournaments(r.Context(), companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateCoupleHandler handles POST /tournaments/{tournamentID}/couples.
func (h *TournamentHandler) CreateCoupleHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateCoupleInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TournamentID = tournamentID

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	couple, err := h.tournamentService.CreateCouple(r.Context(), input, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"couple": couple}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListCouplesHandler handles GET /tournaments/{tournamentID}/couples.
func (h *TournamentHandler) ListCouplesHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	couples, err := h.tournamentService.ListCouples(r.Context(), tournamentID, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"couples": couples}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteCoupleHandler handles DELETE /couples/{coupleID}.
func (h *TournamentHandler) DeleteCoupleHandler(w http.ResponseWriter, r *http.Request) {
	coupleID, err := urlParamInt(r, "coupleID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.tournamentService.RemoveCouple(r.Context(), coupleID, companyID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateCourtHandler handles POST /courts.
func (h *TournamentHandler) CreateCourtHandler(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	var input services.CreateCourtInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.CompanyID = companyID

	court, err := h.tournamentService.CreateCourt(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListCourtsHandler handles GET /courts.
func (h *TournamentHandler) ListCourtsHandler(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	courts, err := h.tournamentService.ListCourts(r.Context(), companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"courts": courts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateCourtAvailabilityHandler handles PUT /courts/{courtID}/availability.
func (h *TournamentHandler) UpdateCourtAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	courtID, err := urlParamInt(r, "courtID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		AvailabilityStart *time.Time `json:"availability_start"`
		AvailabilityEnd   *time.Time `json:"availability_end"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.tournamentService.UpdateCourtAvailability(r.Context(), courtID, input.AvailabilityStart, input.AvailabilityEnd, companyID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCourtHandler handles DELETE /courts/{courtID}.
func (h *TournamentHandler) DeleteCourtHandler(w http.ResponseWriter, r *http.Request) {
	courtID, err := urlParamInt(r, "courtID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.tournamentService.RemoveCourt(r.Context(), courtID, companyID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseOptionalIntQuery reads an optional positive integer query parameter.
func parseOptionalIntQuery(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return nil, errors.New("invalid " + name + " query parameter")
	}
	return &id, nil
}
