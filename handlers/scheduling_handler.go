package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/courtsync/tournament-system/brackets"
	"github.com/courtsync/tournament-system/models"
	"github.com/courtsync/tournament-system/services"
)

type SchedulingHandler struct {
	schedulingService services.SchedulingService
	hub               *brackets.Hub
}

func NewSchedulingHandler(ss services.SchedulingService, hub *brackets.Hub) *SchedulingHandler {
	return &SchedulingHandler{schedulingService: ss, hub: hub}
}

// ScheduleHandler handles POST /matches/{matchID}/schedule.
func (h *SchedulingHandler) ScheduleHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		CourtID int        `json:"court_id"`
		Start   time.Time  `json:"start"`
		End     *time.Time `json:"end,omitempty"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	match, err := h.schedulingService.ScheduleMatch(r.Context(), matchID, input.CourtID, input.Start, input.End, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.notifyScheduled(match)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UnscheduleHandler handles DELETE /matches/{matchID}/schedule.
func (h *SchedulingHandler) UnscheduleHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.schedulingService.UnscheduleMatch(r.Context(), matchID, companyID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AutoScheduleHandler handles POST /stages/{stageID}/schedule.
func (h *SchedulingHandler) AutoScheduleHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := urlParamInt(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	matches, err := h.schedulingService.AutoScheduleStage(r.Context(), stageID, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	for _, m := range matches {
		h.notifyScheduled(m)
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CourtAvailabilityHandler handles GET /courts/{courtID}/availability.
// The optional date query parameter (2006-01-02) defaults to today.
func (h *SchedulingHandler) CourtAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	courtID, err := urlParamInt(r, "courtID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err = time.Parse("2006-01-02", raw)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	availability, err := h.schedulingService.CourtAvailability(r.Context(), courtID, day, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"availability": availability}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SchedulingHandler) notifyScheduled(match *models.Match) {
	if h.hub == nil || match == nil {
		return
	}
	room := strconv.Itoa(match.TournamentID)
	h.hub.BroadcastToRoom(room, brackets.EventMatchScheduled, match)
}
