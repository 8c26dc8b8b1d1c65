package exercises

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleListMuscleGroups returns every muscle group with its exercises.
// GET /v1/exercises/muscle-groups
func (h *Handlers) HandleListMuscleGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.MuscleGroups())
}

// HandleSearch searches exercises by name or muscle group.
// GET /v1/exercises/search?q=
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Search(r.URL.Query().Get("q")))
}

// HandleGet returns one exercise.
// GET /v1/exercises/{id}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	ex, err := h.service.Get(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			writeError(w, http.StatusNotFound, "exercise_not_found", "exercise not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, ex)
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
