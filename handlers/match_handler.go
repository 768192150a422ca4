package handlers

import (
	"net/http"
	"strconv"

	"github.com/courtsync/tournament-system/brackets"
	"github.com/courtsync/tournament-system/models"
	"github.com/courtsync/tournament-system/services"
)

type MatchHandler struct {
	matchService services.MatchService
	hub          *brackets.Hub
}

func NewMatchHandler(ms services.MatchService, hub *brackets.Hub) *MatchHandler {
	return &MatchHandler{matchService: ms, hub: hub}
}

// GetHandler handles GET /matches/{matchID}.
func (h *MatchHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByTournamentHandler handles GET /tournaments/{tournamentID}/matches,
// optionally filtered to one stage via ?stage_id=.
func (h *MatchHandler) ListByTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageID, err := parseOptionalIntQuery(r, "stage_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	var matches []*models.Match
	if stageID != nil {
		matches, err = h.matchService.ListStageMatches(r.Context(), *stageID, companyID)
	} else {
		matches, err = h.matchService.ListTournamentMatches(r.Context(), tournamentID, companyID)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordResultHandler handles POST /matches/{matchID}/result.
func (h *MatchHandler) RecordResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Games       models.GameScores `json:"games"`
		TimeExpired bool              `json:"time_expired"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	match, err := h.matchService.RecordResult(r.Context(), matchID, input.Games, input.TimeExpired, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.notifyUpdated(match)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CorrectResultHandler handles PUT /matches/{matchID}/result.
func (h *MatchHandler) CorrectResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Games models.GameScores `json:"games"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	match, err := h.matchService.CorrectResult(r.Context(), matchID, input.Games, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.notifyUpdated(match)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ForfeitHandler handles POST /matches/{matchID}/forfeit.
func (h *MatchHandler) ForfeitHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		WinnerCoupleID int `json:"winner_couple_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	match, err := h.matchService.Forfeit(r.Context(), matchID, input.WinnerCoupleID, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.notifyUpdated(match)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) notifyUpdated(match *models.Match) {
	if h.hub == nil || match == nil {
		return
	}
	room := strconv.Itoa(match.TournamentID)
	h.hub.BroadcastToRoom(room, brackets.EventMatchUpdated, match)
	if match.IsCompleted() {
		// Stats moved, clients should refetch their tables.
		h.hub.BroadcastToRoom(room, brackets.EventStandingsUpdated, jsonResponse{
			"tournament_id": match.TournamentID,
			"group_id":      match.GroupID,
		})
	}
}
