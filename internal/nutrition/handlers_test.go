package nutrition

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/fitness-hub/internal/events"
	"github.com/fdg312/fitness-hub/internal/storage/memory"
	"github.com/fdg312/fitness-hub/internal/userctx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoals_DefaultsThenUpdate(t *testing.T) {
	mem := memory.New()
	hub := events.NewHub()
	h := NewHandler(NewService(mem, hub))
	userID := uuid.New()
	ctx := userctx.WithUserID(context.Background(), userID)

	// defaults
	getReq := httptest.NewRequest(http.MethodGet, "/v1/nutrition/goals", nil).WithContext(ctx)
	getW := httptest.NewRecorder()
	h.HandleGetGoals(getW, getReq)
	require.Equal(t, http.StatusOK, getW.Code, getW.Body.String())

	var got GetGoalsResponse
	require.NoError(t, json.NewDecoder(getW.Body).Decode(&got))
	assert.True(t, got.IsDefault)
	assert.Equal(t, DefaultGoals(), got.Goals.Macros)
	assert.Nil(t, got.Goals.UpdatedAt)

	ch, cancel := hub.Subscribe(userID)
	defer cancel()

	// update
	body := []byte(`{"calories":1800,"protein":140,"carbs":180,"fat":55}`)
	putReq := httptest.NewRequest(http.MethodPut, "/v1/nutrition/goals", bytes.NewReader(body)).WithContext(ctx)
	putW := httptest.NewRecorder()
	h.HandleUpdateGoals(putW, putReq)
	require.Equal(t, http.StatusOK, putW.Code, putW.Body.String())

	select {
	case ev := <-ch:
		assert.Equal(t, events.TypeGoalsUpdated, ev.Type)
	default:
		t.Fatal("expected goals.updated event")
	}

	getW = httptest.NewRecorder()
	h.HandleGetGoals(getW, httptest.NewRequest(http.MethodGet, "/v1/nutrition/goals", nil).WithContext(ctx))
	require.Equal(t, http.StatusOK, getW.Code)
	require.NoError(t, json.NewDecoder(getW.Body).Decode(&got))
	assert.False(t, got.IsDefault)
	assert.Equal(t, Macros{Calories: 1800, Protein: 140, Carbs: 180, Fat: 55}, got.Goals.Macros)
	assert.NotNil(t, got.Goals.UpdatedAt)
}

func TestGoals_UpdateValidation(t *testing.T) {
	h := NewHandler(NewService(memory.New(), nil))
	ctx := userctx.WithUserID(context.Background(), uuid.New())

	cases := map[string]string{
		"missing fat":   `{"calories":1800,"protein":140,"carbs":180}`,
		"negative":      `{"calories":-5,"protein":140,"carbs":180,"fat":55}`,
		"too many kcal": `{"calories":20000,"protein":140,"carbs":180,"fat":55}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleUpdateGoals(w, httptest.NewRequest(http.MethodPut, "/v1/nutrition/goals", bytes.NewReader([]byte(body))).WithContext(ctx))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid_request")
		})
	}

	w := httptest.NewRecorder()
	h.HandleUpdateGoals(w, httptest.NewRequest(http.MethodPut, "/v1/nutrition/goals", bytes.NewReader([]byte("{"))).WithContext(ctx))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_payload")
}

func TestGoals_Unauthorized(t *testing.T) {
	h := NewHandler(NewService(memory.New(), nil))
	w := httptest.NewRecorder()
	h.HandleGetGoals(w, httptest.NewRequest(http.MethodGet, "/v1/nutrition/goals", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleScale(t *testing.T) {
	h := NewHandler(NewService(memory.New(), nil))
	body := []byte(`{"macros":{"calories":250,"protein":10,"carbs":30,"fat":9},"scale_factor":5}`)

	w := httptest.NewRecorder()
	h.HandleScale(w, httptest.NewRequest(http.MethodPost, "/v1/nutrition/scale", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ScaleResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 3.0, resp.ScaleFactor)
	assert.Equal(t, Macros{Calories: 750, Protein: 30, Carbs: 90, Fat: 27}, resp.Macros)
	assert.Equal(t, Rounded{Calories: 750, Protein: 30, Carbs: 90, Fat: 27}, resp.Display)
}

func TestHandleScale_MissingFactorIsOnePortion(t *testing.T) {
	h := NewHandler(NewService(memory.New(), nil))
	body := []byte(`{"macros":{"calories":400,"protein":20,"carbs":50,"fat":10}}`)

	w := httptest.NewRecorder()
	h.HandleScale(w, httptest.NewRequest(http.MethodPost, "/v1/nutrition/scale", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ScaleResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 1.0, resp.ScaleFactor)
	assert.Equal(t, Macros{Calories: 400, Protein: 20, Carbs: 50, Fat: 10}, resp.Macros)
}

func TestHandleScale_RejectsOversizedMacros(t *testing.T) {
	h := NewHandler(NewService(memory.New(), nil))
	body := []byte(`{"macros":{"calories":1e308,"protein":0,"carbs":0,"fat":0},"scale_factor":3}`)

	w := httptest.NewRecorder()
	h.HandleScale(w, httptest.NewRequest(http.MethodPost, "/v1/nutrition/scale", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
