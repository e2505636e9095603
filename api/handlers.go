package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pairline/auth"
	"pairline/metrics"
	"pairline/models"
	"pairline/service"
)

// handlers binds the domain services to the HTTP surface
type handlers struct {
	matchmaker service.MatchmakerService
	presence   service.PresenceService
	moderation service.ModerationService
}

// caller pulls the authenticated identity stamped by the middleware.
// A zero caller falls through to the services, which reject it.
func caller(r *http.Request) auth.Caller {
	c, _ := auth.FromContext(r.Context())
	return c
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed "+name)
		return 0, false
	}
	return id, true
}

// --- matchmaking ---

type findMatchResponse struct {
	Status string              `json:"status"`
	Match  *models.MatchResult `json:"match,omitempty"`
}

func (h *handlers) findMatch(w http.ResponseWriter, r *http.Request) {
	result, err := h.matchmaker.FindMatch(r.Context(), caller(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if result == nil {
		respondJSON(w, http.StatusAccepted, findMatchResponse{Status: "searching"})
		return
	}
	// Reconnects hand back an existing match and must not count as created
	if result.Created {
		metrics.MatchCreated()
	}
	respondJSON(w, http.StatusOK, findMatchResponse{Status: "matched", Match: result})
}

func (h *handlers) stopSearch(w http.ResponseWriter, r *http.Request) {
	if err := h.matchmaker.StopSearch(r.Context(), caller(r)); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) endMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.matchmaker.EndMatch(r.Context(), caller(r), matchID); err != nil {
		respondServiceError(w, err)
		return
	}
	metrics.MatchEnded(false)
	w.WriteHeader(http.StatusNoContent)
}

// --- rooms ---

type createRoomRequest struct {
	Name       string `json:"name"`
	Private    bool   `json:"private"`
	MaxMembers int    `json:"maxMembers"`
}

func (h *handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}

	room, err := h.presence.CreateRoom(r.Context(), caller(r), req.Name, req.Private, req.MaxMembers)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, room)
}

type listRoomsResponse struct {
	Rooms []*models.RoomSummary `json:"rooms"`
}

func (h *handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.presence.ListRooms(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if summaries == nil {
		summaries = []*models.RoomSummary{}
	}
	respondJSON(w, http.StatusOK, listRoomsResponse{Rooms: summaries})
}

func (h *handlers) joinRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.presence.JoinRoom(r.Context(), caller(r), roomID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) leaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.presence.LeaveRoom(r.Context(), caller(r), roomID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) touchPresence(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.presence.TouchPresence(r.Context(), caller(r), roomID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- reports ---

type createReportRequest struct {
	TargetID int64   `json:"targetId"`
	Context  string  `json:"context"`
	Reason   string  `json:"reason"`
	Details  *string `json:"details,omitempty"`
}

func (h *handlers) createReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.moderation.Report(r.Context(), caller(r), req.TargetID, req.Context, req.Reason, req.Details)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// --- moderation ---

type createBanRequest struct {
	Scope           models.BanScope `json:"scope"`
	TargetUserID    int64           `json:"targetUserId,omitempty"`
	TargetValue     string          `json:"targetValue,omitempty"`
	Reason          string          `json:"reason"`
	DurationSeconds int64           `json:"durationSeconds,omitempty"`
}

func (h *handlers) createBan(w http.ResponseWriter, r *http.Request) {
	var req createBanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.moderation.Ban(r.Context(), caller(r), req.Scope, req.TargetUserID, req.TargetValue, req.Reason, req.DurationSeconds)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	metrics.BanIssued()
	w.WriteHeader(http.StatusCreated)
}

func (h *handlers) deleteBans(w http.ResponseWriter, r *http.Request) {
	targetUserID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.moderation.Unban(r.Context(), caller(r), targetUserID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type banCheckResponse struct {
	Banned bool `json:"banned"`
}

func (h *handlers) checkBan(w http.ResponseWriter, r *http.Request) {
	scope := models.BanScope(r.URL.Query().Get("scope"))
	targetValue := r.URL.Query().Get("value")

	var targetUserID int64
	if raw := r.URL.Query().Get("userId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "malformed userId")
			return
		}
		targetUserID = parsed
	}

	banned, err := h.moderation.IsBanned(r.Context(), scope, targetUserID, targetValue)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, banCheckResponse{Banned: banned})
}

type endMatchForUserRequest struct {
	UserID int64 `json:"userId"`
}

type endMatchForUserResponse struct {
	Ended bool `json:"ended"`
}

func (h *handlers) endMatchForUser(w http.ResponseWriter, r *http.Request) {
	var req endMatchForUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ended, err := h.moderation.EndMatchForUser(r.Context(), caller(r), req.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if ended {
		metrics.MatchEnded(true)
	}
	respondJSON(w, http.StatusOK, endMatchForUserResponse{Ended: ended})
}

type listReportsResponse struct {
	Reports []*models.Report `json:"reports"`
}

func (h *handlers) listReports(w http.ResponseWriter, r *http.Request) {
	var targetID int64
	if raw := r.URL.Query().Get("targetId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "malformed targetId")
			return
		}
		targetID = parsed
	}

	var limit int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "malformed limit")
			return
		}
		limit = parsed
	}

	reports, err := h.moderation.RecentReports(r.Context(), caller(r), targetID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if reports == nil {
		reports = []*models.Report{}
	}
	respondJSON(w, http.StatusOK, listReportsResponse{Reports: reports})
}

type generateCodesRequest struct {
	Count   int    `json:"count"`
	Role    string `json:"role"`
	MaxUses int    `json:"maxUses,omitempty"`
	Note    string `json:"note,omitempty"`
}

type generateCodesResponse struct {
	Codes []string `json:"codes"`
}

func (h *handlers) generateCodes(w http.ResponseWriter, r *http.Request) {
	var req generateCodesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	codes, err := h.moderation.GenerateCodes(r.Context(), caller(r), req.Count, req.Role, req.MaxUses, req.Note)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, generateCodesResponse{Codes: codes})
}
