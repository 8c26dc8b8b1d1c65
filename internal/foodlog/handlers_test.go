package foodlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fdg312/fitness-hub/internal/nutrition"
	"github.com/fdg312/fitness-hub/internal/storage/memory"
	"github.com/fdg312/fitness-hub/internal/userctx"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGoals struct {
	goals nutrition.Macros
	err   error
}

func (m *mockGoals) GoalsFor(ctx context.Context, userID uuid.UUID) (nutrition.Macros, bool, error) {
	return m.goals, false, m.err
}

func newTestHandlers(goals GoalsSource) (*Handlers, *Service) {
	svc := NewService(memory.New(), goals, nil)
	svc.now = func() time.Time { return time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC) }
	return NewHandlers(svc), svc
}

func post(t *testing.T, h *Handlers, userID uuid.UUID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/food/entries", bytes.NewReader([]byte(body)))
	req = req.WithContext(userctx.WithUserID(context.Background(), userID))
	w := httptest.NewRecorder()
	h.HandleLog(w, req)
	return w
}

func get(h http.HandlerFunc, path string, userID uuid.UUID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(userctx.WithUserID(context.Background(), userID))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestLog_ScalesWithoutRounding(t *testing.T) {
	h, _ := newTestHandlers(&mockGoals{goals: nutrition.DefaultGoals()})
	userID := uuid.New()

	w := post(t, h, userID, `{"name":"Greek yogurt","macros":{"calories":97,"protein":9,"carbs":3.6,"fat":5},"scale_factor":1.6}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var entry EntryDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&entry))
	assert.Equal(t, 1.5, entry.ScaleFactor)
	assert.InDelta(t, 145.5, entry.Macros.Calories, 1e-9)
	assert.InDelta(t, 5.4, entry.Macros.Carbs, 1e-9)
	assert.Equal(t, 146, entry.Display.Calories)
	assert.Empty(t, entry.Components)
}

func TestLog_ComponentsOverrideMacros(t *testing.T) {
	h, _ := newTestHandlers(&mockGoals{goals: nutrition.DefaultGoals()})

	body := `{
		"name":"Chicken bowl",
		"macros":{"calories":1,"protein":1,"carbs":1,"fat":1},
		"components":[
			{"name":"Rice","grams":150,"per_100g":{"calories":130,"protein":2.7,"carbs":28,"fat":0.3}},
			{"name":"Chicken","grams":200,"per_100g":{"calories":165,"protein":31,"carbs":0,"fat":3.6}}
		]
	}`
	w := post(t, h, uuid.New(), body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var entry EntryDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&entry))
	assert.Equal(t, 1.0, entry.ScaleFactor)
	assert.InDelta(t, 525, entry.BaseMacros.Calories, 1e-9)
	assert.InDelta(t, 525, entry.Macros.Calories, 1e-9)
	assert.Len(t, entry.Components, 2)
}

func TestLog_Validation(t *testing.T) {
	h, _ := newTestHandlers(&mockGoals{})
	userID := uuid.New()

	for name, body := range map[string]string{
		"no name":        `{"macros":{"calories":1,"protein":1,"carbs":1,"fat":1}}`,
		"no macros":      `{"name":"Air"}`,
		"negative":       `{"name":"Air","macros":{"calories":-1,"protein":1,"carbs":1,"fat":1}}`,
		"zero grams":     `{"name":"Bowl","components":[{"name":"Rice","grams":0,"per_100g":{}}]}`,
		"component name": `{"name":"Bowl","components":[{"name":" ","grams":10,"per_100g":{}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := post(t, h, userID, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestLog_RejectsOutOfRangeMacros(t *testing.T) {
	h, _ := newTestHandlers(&mockGoals{goals: nutrition.DefaultGoals()})
	userID := uuid.New()

	for name, body := range map[string]string{
		"huge macros scaled": `{"name":"Cake","macros":{"calories":1e308,"protein":1,"carbs":1,"fat":1},"scale_factor":3}`,
		"over portion cap":   `{"name":"Cake","macros":{"calories":10001,"protein":1,"carbs":1,"fat":1}}`,
		"huge per 100g":      `{"name":"Bowl","components":[{"name":"Oil","grams":5000,"per_100g":{"calories":1e308}}]}`,
		"meal total too big": `{"name":"Bowl","components":[{"name":"Oil","grams":5000,"per_100g":{"calories":900}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := post(t, h, userID, body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var resp struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, "invalid_request", resp.Error.Code)
		})
	}

	// rejected entries never reach the day summary
	w := get(h.HandleDay, "/v1/food/day?date=2025-05-10", userID)
	require.Equal(t, http.StatusOK, w.Code)
	var day DaySummaryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&day))
	assert.Empty(t, day.Entries)
}

func TestLog_MaxPortionAtMaxScaleStaysFinite(t *testing.T) {
	h, _ := newTestHandlers(&mockGoals{goals: nutrition.DefaultGoals()})
	userID := uuid.New()

	w := post(t, h, userID, `{"name":"Feast","macros":{"calories":10000,"protein":1000,"carbs":1000,"fat":1000},"scale_factor":3}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = get(h.HandleDay, "/v1/food/day?date=2025-05-10", userID)
	require.Equal(t, http.StatusOK, w.Code)
	var day DaySummaryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&day))
	assert.Equal(t, 30000.0, day.Totals.Calories)
	assert.Equal(t, 1.0, day.Rings.Calories.Ratio)
	assert.Equal(t, 100, day.Rings.Calories.Percent)
}

func TestRecent_DistinctByName(t *testing.T) {
	h, svc := newTestHandlers(&mockGoals{})
	userID := uuid.New()
	base := time.Date(2025, 5, 10, 7, 0, 0, 0, time.UTC)

	for i, name := range []string{"Oats", "Banana", "oats ", "Coffee", "OATS"} {
		at := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return at }
		w := post(t, h, userID, `{"name":"`+name+`","macros":{"calories":100,"protein":1,"carbs":1,"fat":1}}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := get(h.HandleRecent, "/v1/food/recent", userID)
	require.Equal(t, http.StatusOK, w.Code)
	var resp RecentResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	names := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		names = append(names, item.Name)
	}
	assert.Equal(t, []string{"OATS", "Coffee", "Banana"}, names)

	w = get(h.HandleRecent, "/v1/food/recent?limit=2", userID)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Items, 2)

	w = get(h.HandleRecent, "/v1/food/recent", uuid.New())
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestDaySummary(t *testing.T) {
	goals := nutrition.Macros{Calories: 2000, Protein: 100, Carbs: 200, Fat: 0}
	h, svc := newTestHandlers(&mockGoals{goals: goals})
	userID := uuid.New()

	w := post(t, h, userID, `{"name":"Lunch","macros":{"calories":800,"protein":60,"carbs":250,"fat":20}}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = post(t, h, userID, `{"name":"Dinner","macros":{"calories":800,"protein":0,"carbs":0,"fat":0},"logged_at":"2025-05-11T01:00:00Z"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = get(h.HandleDay, "/v1/food/day?date=2025-05-10", userID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var day DaySummaryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&day))
	assert.Equal(t, "2025-05-10", day.Date)
	require.Len(t, day.Entries, 1)
	assert.Equal(t, 800.0, day.Totals.Calories)
	assert.InDelta(t, 0.4, day.Rings.Calories.Ratio, 1e-9)
	assert.InDelta(t, 0.6, day.Rings.Protein.Ratio, 1e-9)
	assert.Equal(t, 1.0, day.Rings.Carbs.Ratio)
	assert.Equal(t, 0.0, day.Rings.Fat.Ratio)
	assert.Equal(t, 1200.0, day.Remaining.Calories)
	assert.Equal(t, 0.0, day.Remaining.Carbs)

	// default date is today
	w = get(h.HandleDay, "/v1/food/day", userID)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&day))
	assert.Equal(t, "2025-05-10", day.Date)

	svc.goals = &mockGoals{err: errors.New("boom")}
	w = get(h.HandleDay, "/v1/food/day", userID)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDeleteEntry(t *testing.T) {
	h, _ := newTestHandlers(&mockGoals{})
	owner := uuid.New()

	w := post(t, h, owner, `{"name":"Toast","macros":{"calories":80,"protein":3,"carbs":15,"fat":1}}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var entry EntryDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&entry))

	del := func(userID uuid.UUID) int {
		req := httptest.NewRequest(http.MethodDelete, "/v1/food/entries/"+entry.ID.String(), nil)
		req = req.WithContext(userctx.WithUserID(context.Background(), userID))
		req = mux.SetURLVars(req, map[string]string{"id": entry.ID.String()})
		rec := httptest.NewRecorder()
		h.HandleDelete(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNotFound, del(uuid.New()))
	assert.Equal(t, http.StatusNoContent, del(owner))
	assert.Equal(t, http.StatusNotFound, del(owner))
}
