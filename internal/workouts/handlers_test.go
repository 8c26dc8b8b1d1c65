package workouts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fdg312/fitness-hub/internal/exercises"
	"github.com/fdg312/fitness-hub/internal/storage/memory"
	"github.com/fdg312/fitness-hub/internal/userctx"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestHandlers(t *testing.T) (*Handlers, *testClock) {
	t.Helper()
	catalog, err := exercises.DefaultCatalog()
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2025, 3, 4, 18, 0, 0, 0, time.UTC)}
	svc := NewService(memory.New(), catalog, nil)
	svc.now = clock.Now
	return NewHandlers(svc), clock
}

func do(t *testing.T, handler http.HandlerFunc, method, path string, userID uuid.UUID, body interface{}, vars map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(userctx.WithUserID(context.Background(), userID))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestWorkoutSessionLifecycle(t *testing.T) {
	h, clock := newTestHandlers(t)
	userID := uuid.New()

	w := do(t, h.HandleStartSession, http.MethodPost, "/v1/workouts/sessions", userID, StartSessionRequest{Name: "Push day"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session SessionDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&session))
	assert.True(t, session.IsOpen)
	assert.Equal(t, "strength", session.Kind)

	vars := map[string]string{"id": session.ID.String()}
	setsPath := "/v1/workouts/sessions/" + session.ID.String() + "/sets"

	logged := []LogSetRequest{
		{ExerciseID: "bench_press", WeightLbs: 135, Reps: 10},
		{ExerciseID: "bench_press", WeightLbs: 155, Reps: 8},
		{ExerciseID: "cable_fly", WeightLbs: 30, Reps: 12},
		{ExerciseID: "bench_press", WeightLbs: 175, Reps: 5},
	}
	for _, req := range logged {
		clock.Advance(3 * time.Minute)
		w = do(t, h.HandleLogSet, http.MethodPost, setsPath, userID, req, vars)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	var third SetDTO
	w = do(t, h.HandleLogSet, http.MethodPost, setsPath, userID, LogSetRequest{ExerciseID: "cable_fly", WeightLbs: 35, Reps: 10}, vars)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&third))
	assert.Equal(t, 2, third.SetNumber)

	// unknown exercise
	w = do(t, h.HandleLogSet, http.MethodPost, setsPath, userID, LogSetRequest{ExerciseID: "moon_walk", WeightLbs: 0, Reps: 1}, vars)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "exercise_not_found")

	// grouped sets
	w = do(t, h.HandleSessionSets, http.MethodGet, setsPath, userID, nil, vars)
	require.Equal(t, http.StatusOK, w.Code)
	var setsResp SessionSetsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&setsResp))
	assert.Len(t, setsResp.Sets, 5)
	require.Len(t, setsResp.Groups, 2)
	assert.Equal(t, "bench_press", setsResp.Groups[0].ExerciseID)
	assert.Equal(t, "Bench Press", setsResp.Groups[0].ExerciseName)
	require.Len(t, setsResp.Groups[0].Sets, 3)
	for i, s := range setsResp.Groups[0].Sets {
		assert.Equal(t, i+1, s.SetNumber)
	}
	assert.Equal(t, "cable_fly", setsResp.Groups[1].ExerciseID)

	// end session
	clock.Advance(10*time.Minute + 20*time.Second)
	w = do(t, h.HandleEndSession, http.MethodPost, "/v1/workouts/sessions/"+session.ID.String()+"/end", userID, nil, vars)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ended SessionDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ended))
	assert.False(t, ended.IsOpen)
	require.NotNil(t, ended.DurationMinutes)
	assert.Equal(t, 22, *ended.DurationMinutes)

	// closed session rejects more sets and a second end
	w = do(t, h.HandleLogSet, http.MethodPost, setsPath, userID, LogSetRequest{ExerciseID: "bench_press", WeightLbs: 135, Reps: 10}, vars)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = do(t, h.HandleEndSession, http.MethodPost, "/end", userID, nil, vars)
	assert.Equal(t, http.StatusConflict, w.Code)

	// records
	w = do(t, h.HandleRecords, http.MethodGet, "/v1/workouts/records", userID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records RecordsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&records))
	require.Len(t, records.Records, 2)
	assert.Equal(t, "bench_press", records.Records[0].ExerciseID)
	assert.Equal(t, 175.0, records.Records[0].MaxWeightLbs)
	assert.Equal(t, 35.0, records.Records[1].MaxWeightLbs)

	// weekly volume
	w = do(t, h.HandleWeeklyVolume, http.MethodGet, "/v1/workouts/volume/weekly?date=2025-03-06", userID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var volume WeeklyVolumeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&volume))
	assert.Equal(t, "2025-03-03", volume.WeekStart)
	assert.Equal(t, 5, volume.TotalSets)
	assert.Equal(t, 135.0*10+155*8+30*12+175*5+35*10, volume.TotalVolume)
	assert.Equal(t, 5, volume.Days[1].Sets)
	assert.Equal(t, 1, volume.Sessions)
	assert.Equal(t, 22, volume.Minutes)
}

func TestWorkoutSessions_OtherUserGets404(t *testing.T) {
	h, _ := newTestHandlers(t)
	owner, stranger := uuid.New(), uuid.New()

	w := do(t, h.HandleStartSession, http.MethodPost, "/v1/workouts/sessions", owner, StartSessionRequest{}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var session SessionDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&session))
	assert.Equal(t, "Workout", session.Name)

	vars := map[string]string{"id": session.ID.String()}
	w = do(t, h.HandleSessionSets, http.MethodGet, "/sets", stranger, nil, vars)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h.HandleLogSet, http.MethodPost, "/sets", stranger, LogSetRequest{ExerciseID: "deadlift", WeightLbs: 315, Reps: 1}, vars)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h.HandleSessionSets, http.MethodGet, "/sets", owner, nil, map[string]string{"id": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogClassAndListSessions(t *testing.T) {
	h, clock := newTestHandlers(t)
	userID := uuid.New()

	w := do(t, h.HandleLogClass, http.MethodPost, "/v1/workouts/classes", userID, LogClassRequest{Type: "yoga", DurationMinutes: 45}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var class SessionDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&class))
	assert.Equal(t, "Yoga", class.Name)
	assert.Equal(t, "class", class.Kind)
	assert.False(t, class.IsOpen)
	assert.Equal(t, 45, *class.DurationMinutes)

	for _, bad := range []LogClassRequest{{Type: "Crossfit", DurationMinutes: 30}, {Type: "Spin", DurationMinutes: 0}, {Type: "Spin", DurationMinutes: 301}} {
		w = do(t, h.HandleLogClass, http.MethodPost, "/v1/workouts/classes", userID, bad, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	clock.Advance(time.Hour)
	w = do(t, h.HandleStartSession, http.MethodPost, "/v1/workouts/sessions", userID, StartSessionRequest{Name: "Legs"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, h.HandleListSessions, http.MethodGet, "/v1/workouts/sessions", userID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list ListSessionsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list.Sessions, 2)
	assert.Equal(t, "Legs", list.Sessions[0].Name)

	w = do(t, h.HandleListSessions, http.MethodGet, "/v1/workouts/sessions?limit=1", userID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list.Sessions, 1)

	w = do(t, h.HandleListSessions, http.MethodGet, "/v1/workouts/sessions?limit=abc", userID, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkouts_EmptyListsAndAuth(t *testing.T) {
	h, _ := newTestHandlers(t)

	w := do(t, h.HandleRecords, http.MethodGet, "/v1/workouts/records", uuid.New(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"records":[]}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/v1/workouts/sessions", nil)
	rec := httptest.NewRecorder()
	h.HandleListSessions(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	w = do(t, h.HandleWeeklyVolume, http.MethodGet, "/v1/workouts/volume/weekly?date=03/05/2025", uuid.New(), nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
