package handlers

import (
	"net/http"
	"strconv"

	"github.com/courtsync/tournament-system/brackets"
	"github.com/courtsync/tournament-system/services"
)

type StandingsHandler struct {
	standingsService   services.StandingsService
	progressionService services.ProgressionService
	hub                *brackets.Hub
}

func NewStandingsHandler(ss services.StandingsService, ps services.ProgressionService, hub *brackets.Hub) *StandingsHandler {
	return &StandingsHandler{standingsService: ss, progressionService: ps, hub: hub}
}

// GroupStandingsHandler handles GET /groups/{groupID}/standings.
func (h *StandingsHandler) GroupStandingsHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlParamInt(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	table, err := h.standingsService.GroupStandings(r.Context(), groupID, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": table}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// TournamentStandingsHandler handles GET /tournaments/{tournamentID}/standings.
func (h *StandingsHandler) TournamentStandingsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	table, err := h.standingsService.TournamentStandings(r.Context(), tournamentID, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": table}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RebuildStatsHandler handles POST /tournaments/{tournamentID}/stats/rebuild.
func (h *StandingsHandler) RebuildStatsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.standingsService.RebuildStats(r.Context(), tournamentID, companyID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdvanceHandler handles POST /stages/{stageID}/advance.
func (h *StandingsHandler) AdvanceHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := urlParamInt(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	result, err := h.progressionService.AdvanceCouples(r.Context(), stageID, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if h.hub != nil && len(result.BracketMatches) > 0 {
		room := strconv.Itoa(result.BracketMatches[0].TournamentID)
		h.hub.BroadcastToRoom(room, brackets.EventCouplesAdvanced, result)
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"advancement": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
