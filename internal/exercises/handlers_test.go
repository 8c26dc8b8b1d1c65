package exercises

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandlers(t *testing.T) (*Handlers, *Service) {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	svc := NewService(c, 0)
	return NewHandlers(svc), svc
}

func TestHandleListMuscleGroups(t *testing.T) {
	h, _ := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.HandleListMuscleGroups(w, httptest.NewRequest(http.MethodGet, "/v1/exercises/muscle-groups", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListMuscleGroupsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.MuscleGroups, 6)
}

func TestHandleSearch_UsesCache(t *testing.T) {
	h, svc := newTestHandlers(t)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		h.HandleSearch(w, httptest.NewRequest(http.MethodGet, "/v1/exercises/search?q=Press", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp SearchResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "press", resp.Query)
		assert.Equal(t, []string{"Bench Press", "Incline Dumbbell Press", "Leg Press", "Overhead Press"}, exerciseNames(resp.Exercises))
	}

	assert.Equal(t, int64(1), svc.CacheHits())
}

func TestHandleSearch_BlankQuery(t *testing.T) {
	h, _ := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.HandleSearch(w, httptest.NewRequest(http.MethodGet, "/v1/exercises/search?q=", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"query":"","exercises":[]}`, w.Body.String())
}

func TestHandleGet(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/v1/exercises/deadlift", nil), map[string]string{"id": "deadlift"})
	w := httptest.NewRecorder()
	h.HandleGet(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var ex Exercise
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ex))
	assert.Equal(t, "back", ex.MuscleGroupID)

	req = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/v1/exercises/nope", nil), map[string]string{"id": "nope"})
	w = httptest.NewRecorder()
	h.HandleGet(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "exercise_not_found")
}

func TestSearch_CorruptCacheEntryFallsBackToCatalog(t *testing.T) {
	_, svc := newTestHandlers(t)
	require.NoError(t, svc.cache.Set([]byte("search::press"), []byte("{not json"), searchCacheExpire))

	resp := svc.Search("Press")
	assert.Equal(t, []string{"Bench Press", "Incline Dumbbell Press", "Leg Press", "Overhead Press"}, exerciseNames(resp.Exercises))

	// the fresh result replaced the corrupt entry
	resp = svc.Search("press")
	assert.Len(t, resp.Exercises, 4)
	assert.Equal(t, int64(2), svc.CacheHits())
}
