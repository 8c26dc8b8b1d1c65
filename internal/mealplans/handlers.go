package mealplans

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Handler handles HTTP requests for meal plans.
type Handler struct {
	service *Service
}

// NewHandler creates a new meal plans handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleList handles GET /v1/meal-plans
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.List(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /v1/meal-plans/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	planID, ok := planIDFromPath(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Get(r.Context(), planID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCreate handles POST /v1/meal-plans
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req SaveMealPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON body")
		return
	}

	resp, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleReplace handles PUT /v1/meal-plans/{id}
func (h *Handler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	planID, ok := planIDFromPath(w, r)
	if !ok {
		return
	}

	var req SaveMealPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON body")
		return
	}

	resp, err := h.service.Replace(r.Context(), planID, req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDelete handles DELETE /v1/meal-plans/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	planID, ok := planIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), planID); err != nil {
		h.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleShoppingList handles GET /v1/meal-plans/{id}/shopping-list
func (h *Handler) HandleShoppingList(w http.ResponseWriter, r *http.Request) {
	planID, ok := planIDFromPath(w, r)
	if !ok {
		return
	}

	resp, err := h.service.ShoppingList(r.Context(), planID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGenerate handles POST /v1/meal-plans/generate
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON body")
		return
	}

	resp, err := h.service.Generate(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleExport handles GET /v1/meal-plans/{id}/export
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	planID, ok := planIDFromPath(w, r)
	if !ok {
		return
	}

	result, err := h.service.Export(r.Context(), planID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	if result.URL != "" {
		writeJSON(w, http.StatusOK, ExportResponse{URL: result.URL, ExpiresAt: result.ExpiresAt})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.PDF)))
	w.WriteHeader(http.StatusOK)
	w.Write(result.PDF)
}

// ============================================================================
// Error handling
// ============================================================================

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "meal_plan_not_found", "meal plan not found")
	case errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ErrGenerationFailed):
		writeError(w, http.StatusBadGateway, "generation_failed", "could not generate a meal plan, try again later")
	default:
		log.WithError(err).Error("meal plans request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// ============================================================================
// Helpers
// ============================================================================

func planIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	planID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid meal plan id")
		return uuid.Nil, false
	}
	return planID, true
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
