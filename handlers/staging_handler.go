package handlers

import (
	"net/http"
	"strconv"

	"github.com/courtsync/tournament-system/brackets"
	"github.com/courtsync/tournament-system/models"
	"github.com/courtsync/tournament-system/services"
)

type StagingHandler struct {
	stagingService services.StagingService
	hub            *brackets.Hub
}

func NewStagingHandler(ss services.StagingService, hub *brackets.Hub) *StagingHandler {
	return &StagingHandler{stagingService: ss, hub: hub}
}

// CreateStageHandler handles POST /tournaments/{tournamentID}/stages.
func (h *StagingHandler) CreateStageHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateStageInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TournamentID = tournamentID

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	stage, err := h.stagingService.CreateStage(r.Context(), input, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"stage": stage}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListStagesHandler handles GET /tournaments/{tournamentID}/stages.
func (h *StagingHandler) ListStagesHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	stages, err := h.stagingService.ListStages(r.Context(), tournamentID, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stages": stages}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStageHandler handles GET /stages/{stageID}.
func (h *StagingHandler) GetStageHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := urlParamInt(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	stage, err := h.stagingService.GetStage(r.Context(), stageID, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stage": stage}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateStageConfigHandler handles PUT /stages/{stageID}/config.
func (h *StagingHandler) UpdateStageConfigHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := urlParamInt(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var config models.StageConfig
	if err := readJSON(w, r, &config); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.stagingService.UpdateStageConfig(r.Context(), stageID, config, companyID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteStageHandler handles DELETE /stages/{stageID}.
func (h *StagingHandler) DeleteStageHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := urlParamInt(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.stagingService.DeleteStage(r.Context(), stageID, companyID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateGroupHandler handles POST /stages/{stageID}/groups.
func (h *StagingHandler) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := urlParamInt(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	group, err := h.stagingService.CreateGroup(r.Context(), stageID, input.Name, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"group": group}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListGroupsHandler handles GET /stages/{stageID}/groups.
func (h *StagingHandler) ListGroupsHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := urlParamInt(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	groups, err := h.stagingService.ListGroups(r.Context(), stageID, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"groups": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteGroupHandler handles DELETE /groups/{groupID}.
func (h *StagingHandler) DeleteGroupHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlParamInt(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.stagingService.DeleteGroup(r.Context(), groupID, companyID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignCoupleHandler handles POST /groups/{groupID}/couples.
func (h *StagingHandler) AssignCoupleHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlParamInt(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		CoupleID int `json:"couple_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.stagingService.AssignCoupleToGroup(r.Context(), groupID, input.CoupleID, companyID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveCoupleHandler handles DELETE /groups/{groupID}/couples/{coupleID}.
func (h *StagingHandler) RemoveCoupleHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlParamInt(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	coupleID, err := urlParamInt(r, "coupleID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.stagingService.RemoveCoupleFromGroup(r.Context(), groupID, coupleID, companyID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateBracketHandler handles POST /stages/{stageID}/brackets.
func (h *StagingHandler) CreateBracketHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := urlParamInt(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Type models.BracketType `json:"bracket_type"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	bracket, err := h.stagingService.CreateBracket(r.Context(), stageID, input.Type, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListBracketsHandler handles GET /stages/{stageID}/brackets.
func (h *StagingHandler) ListBracketsHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := urlParamInt(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	list, err := h.stagingService.ListBrackets(r.Context(), stageID, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"brackets": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateStageHandler handles POST /stages/{stageID}/generate.
func (h *StagingHandler) GenerateStageHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := urlParamInt(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	matches, err := h.stagingService.GenerateStageMatches(r.Context(), stageID, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.notifyGenerated(matches)
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteUnplayedMatchesHandler handles DELETE /stages/{stageID}/matches,
// clearing unplayed matches so the stage can be regenerated.
func (h *StagingHandler) DeleteUnplayedMatchesHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := urlParamInt(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	deleted, err := h.stagingService.DeleteUnplayedMatches(r.Context(), stageID, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"deleted": deleted}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateBracketHandler handles POST /brackets/{bracketID}/generate.
func (h *StagingHandler) GenerateBracketHandler(w http.ResponseWriter, r *http.Request) {
	bracketID, err := urlParamInt(r, "bracketID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		SeededCoupleIDs []int `json:"seeded_couple_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}

	matches, err := h.stagingService.GenerateBracketMatches(r.Context(), bracketID, input.SeededCoupleIDs, companyID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.notifyGenerated(matches)
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StagingHandler) notifyGenerated(matches []*models.Match) {
	if h.hub == nil || len(matches) == 0 {
		return
	}
	room := strconv.Itoa(matches[0].TournamentID)
	h.hub.BroadcastToRoom(room, brackets.EventMatchesGenerated, matches)
}
