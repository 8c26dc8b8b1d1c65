package workouts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleListSessions returns the caller's sessions, newest first.
// GET /v1/workouts/sessions?limit=
func (h *Handlers) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	resp, err := h.service.ListSessions(r.Context(), limit)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleStartSession opens a strength session.
// POST /v1/workouts/sessions
func (h *Handlers) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON body")
		return
	}

	resp, err := h.service.StartSession(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleEndSession closes a session.
// POST /v1/workouts/sessions/{id}/end
func (h *Handlers) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	resp, err := h.service.EndSession(r.Context(), sessionID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleLogSet logs a set into an open session.
// POST /v1/workouts/sessions/{id}/sets
func (h *Handlers) HandleLogSet(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	var req LogSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON body")
		return
	}

	resp, err := h.service.LogSet(r.Context(), sessionID, req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleSessionSets returns the sets of one session, flat and grouped by exercise.
// GET /v1/workouts/sessions/{id}/sets
func (h *Handlers) HandleSessionSets(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	resp, err := h.service.SessionSets(r.Context(), sessionID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleLogClass records a gym class.
// POST /v1/workouts/classes
func (h *Handlers) HandleLogClass(w http.ResponseWriter, r *http.Request) {
	var req LogClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON body")
		return
	}

	resp, err := h.service.LogClass(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleWeeklyVolume returns per-day volume for the week containing date.
// GET /v1/workouts/volume/weekly?date=YYYY-MM-DD
func (h *Handlers) HandleWeeklyVolume(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"), h.service.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "date must be YYYY-MM-DD")
		return
	}

	resp, err := h.service.WeeklyVolume(r.Context(), date)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleRecords returns personal records.
// GET /v1/workouts/records
func (h *Handlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Records(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// Error handling
// ============================================================================

func (h *Handlers) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", "workout session not found")
	case errors.Is(err, ErrSessionClosed):
		writeError(w, http.StatusConflict, "session_closed", "workout session already ended")
	case errors.Is(err, ErrExerciseNotFound):
		writeError(w, http.StatusBadRequest, "exercise_not_found", err.Error())
	case errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// ============================================================================
// Helpers
// ============================================================================

func sessionIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid session id")
		return uuid.Nil, false
	}
	return sessionID, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
