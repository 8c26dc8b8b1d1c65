package mealplans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fdg312/fitness-hub/internal/ai"
	"github.com/fdg312/fitness-hub/internal/blob"
	"github.com/fdg312/fitness-hub/internal/events"
	"github.com/fdg312/fitness-hub/internal/nutrition"
	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/fdg312/fitness-hub/internal/storage/memory"
	"github.com/fdg312/fitness-hub/internal/telemetry/metrics"
	"github.com/fdg312/fitness-hub/internal/userctx"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test fakes
// ============================================================================

type mockGoals struct {
	goals nutrition.Macros
}

func (m *mockGoals) GoalsFor(ctx context.Context, userID uuid.UUID) (nutrition.Macros, bool, error) {
	return m.goals, false, nil
}

type failingProvider struct{}

func (failingProvider) PlanMeals(ctx context.Context, req ai.PlanRequest) (ai.PlanResponse, error) {
	return ai.PlanResponse{}, errors.New("upstream timeout")
}

var fixedNow = time.Date(2025, 3, 5, 9, 30, 0, 0, time.UTC)

func newTestHandler(t *testing.T, export ExportConfig) (*Handler, *Service) {
	t.Helper()
	goals := &mockGoals{goals: nutrition.Macros{Calories: 2000, Protein: 160, Carbs: 200, Fat: 60}}
	svc := NewService(memory.New(), goals, ai.NewMockProvider(), nil, export)
	svc.now = func() time.Time { return fixedNow }
	return NewHandler(svc), svc
}

func do(t *testing.T, handler http.HandlerFunc, method string, userID uuid.UUID, body interface{}, vars map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, "/v1/meal-plans", &buf)
	req = req.WithContext(userctx.WithUserID(context.Background(), userID))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func samplePlan() SaveMealPlanRequest {
	return SaveMealPlanRequest{
		Title:     "  Cut week  ",
		StartDate: "2025-03-03",
		EndDate:   "2025-03-05",
		Meals: []storage.PlannedMeal{
			{DayIndex: 1, Slot: "dinner", Title: "Salmon", Macros: storage.Macros{Calories: 600, Protein: 40, Carbs: 50, Fat: 20}},
			{DayIndex: 0, Slot: "Lunch", Title: "Chicken bowl", Macros: storage.Macros{Calories: 700, Protein: 50, Carbs: 70, Fat: 15}},
			{DayIndex: 0, Slot: "breakfast", Title: "Oats", Macros: storage.Macros{Calories: 450, Protein: 20, Carbs: 60, Fat: 10}},
		},
		ShoppingList: []storage.ShoppingItem{
			{Category: "dairy", Name: "Milk", Amount: "1 l"},
			{Category: "Meat & Fish", Name: "Cod", Amount: "400 g"},
			{Category: "", Name: "Foil", Amount: "1 roll"},
			{Category: "Spices", Name: "Paprika", Amount: "1 jar"},
		},
	}
}

func decodePlan(t *testing.T, w *httptest.ResponseRecorder) MealPlanDTO {
	t.Helper()
	var dto MealPlanDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
	return dto
}

// ============================================================================
// CRUD
// ============================================================================

func TestMealPlanLifecycle(t *testing.T) {
	h, _ := newTestHandler(t, ExportConfig{})
	userID := uuid.New()

	w := do(t, h.HandleCreate, http.MethodPost, userID, samplePlan(), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodePlan(t, w)

	assert.Equal(t, "Cut week", created.Title)
	assert.Equal(t, storage.MealPlanSourceManual, created.Source)
	assert.Equal(t, 3, created.Days)
	require.Len(t, created.Meals, 3)
	assert.Equal(t, "Oats", created.Meals[0].Title)
	assert.Equal(t, "lunch", created.Meals[1].Slot)
	assert.Equal(t, "Salmon", created.Meals[2].Title)

	require.Len(t, created.DayTotals, 3)
	assert.Equal(t, float64(1150), created.DayTotals[0].Totals.Calories)
	assert.Equal(t, "2025-03-04", created.DayTotals[1].Date)
	assert.Equal(t, float64(0), created.DayTotals[2].Totals.Calories)
	assert.Equal(t, "Dairy", created.ShoppingList[0].Category)
	assert.Equal(t, "Other", created.ShoppingList[2].Category)

	vars := map[string]string{"id": created.ID}

	w = do(t, h.HandleGet, http.MethodGet, userID, nil, vars)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decodePlan(t, w).ID)

	update := samplePlan()
	update.Title = "Cut week v2"
	update.EndDate = "2025-03-03"
	update.Meals = update.Meals[1:]
	w = do(t, h.HandleReplace, http.MethodPut, userID, update, vars)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	replaced := decodePlan(t, w)
	assert.Equal(t, "Cut week v2", replaced.Title)
	assert.Equal(t, 1, replaced.Days)
	assert.Len(t, replaced.Meals, 2)

	w = do(t, h.HandleList, http.MethodGet, userID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list ListMealPlansResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list.Plans, 1)
	assert.Equal(t, "Cut week v2", list.Plans[0].Title)

	w = do(t, h.HandleDelete, http.MethodDelete, userID, nil, vars)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h.HandleGet, http.MethodGet, userID, nil, vars)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMealPlan_OtherUserGets404(t *testing.T) {
	h, _ := newTestHandler(t, ExportConfig{})
	owner, stranger := uuid.New(), uuid.New()

	w := do(t, h.HandleCreate, http.MethodPost, owner, samplePlan(), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	vars := map[string]string{"id": decodePlan(t, w).ID}

	for name, handler := range map[string]http.HandlerFunc{
		"get":      h.HandleGet,
		"delete":   h.HandleDelete,
		"shopping": h.HandleShoppingList,
		"export":   h.HandleExport,
	} {
		w := do(t, handler, http.MethodGet, stranger, nil, vars)
		assert.Equal(t, http.StatusNotFound, w.Code, name)
	}

	w = do(t, h.HandleReplace, http.MethodPut, stranger, samplePlan(), vars)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMealPlan_EmptyListIsArray(t *testing.T) {
	h, _ := newTestHandler(t, ExportConfig{})

	w := do(t, h.HandleList, http.MethodGet, uuid.New(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"plans":[]}`, w.Body.String())
}

func TestMealPlan_Validation(t *testing.T) {
	tooManyItems := make([]storage.ShoppingItem, maxShoppingItems+1)
	for i := range tooManyItems {
		tooManyItems[i] = storage.ShoppingItem{Name: "x"}
	}

	tests := []struct {
		name   string
		mutate func(r *SaveMealPlanRequest)
	}{
		{"blank title", func(r *SaveMealPlanRequest) { r.Title = "   " }},
		{"long title", func(r *SaveMealPlanRequest) { r.Title = strings.Repeat("a", maxTitleLen+1) }},
		{"bad date", func(r *SaveMealPlanRequest) { r.StartDate = "03/03/2025" }},
		{"end before start", func(r *SaveMealPlanRequest) { r.EndDate = "2025-03-01" }},
		{"range too long", func(r *SaveMealPlanRequest) { r.EndDate = "2025-03-31" }},
		{"day out of range", func(r *SaveMealPlanRequest) { r.Meals[0].DayIndex = 3 }},
		{"negative day", func(r *SaveMealPlanRequest) { r.Meals[0].DayIndex = -1 }},
		{"unknown slot", func(r *SaveMealPlanRequest) { r.Meals[0].Slot = "brunch" }},
		{"duplicate slot", func(r *SaveMealPlanRequest) { r.Meals[1].Slot = "breakfast" }},
		{"negative macros", func(r *SaveMealPlanRequest) { r.Meals[0].Macros.Fat = -1 }},
		{"blank item name", func(r *SaveMealPlanRequest) { r.ShoppingList[0].Name = " " }},
		{"too many items", func(r *SaveMealPlanRequest) { r.ShoppingList = tooManyItems }},
	}

	h, _ := newTestHandler(t, ExportConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := samplePlan()
			tt.mutate(&req)
			w := do(t, h.HandleCreate, http.MethodPost, uuid.New(), req, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), "invalid_request")
		})
	}
}

func TestMealPlan_28DaysAllowed(t *testing.T) {
	req := samplePlan()
	req.EndDate = "2025-03-30"
	content, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, 28, dayCount(content.start, content.end))
}

func TestMealPlan_Unauthorized(t *testing.T) {
	h, _ := newTestHandler(t, ExportConfig{})
	req := httptest.NewRequest(http.MethodGet, "/v1/meal-plans", nil)
	w := httptest.NewRecorder()
	h.HandleList(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMealPlan_InvalidID(t *testing.T) {
	h, _ := newTestHandler(t, ExportConfig{})
	w := do(t, h.HandleGet, http.MethodGet, uuid.New(), nil, map[string]string{"id": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ============================================================================
// Shopping list
// ============================================================================

func TestMealPlan_ShoppingListSections(t *testing.T) {
	h, _ := newTestHandler(t, ExportConfig{})
	userID := uuid.New()

	w := do(t, h.HandleCreate, http.MethodPost, userID, samplePlan(), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	vars := map[string]string{"id": decodePlan(t, w).ID}

	w = do(t, h.HandleShoppingList, http.MethodGet, userID, nil, vars)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ShoppingListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 4, resp.TotalItems)

	categories := make([]string, 0, len(resp.Sections))
	for _, s := range resp.Sections {
		categories = append(categories, s.Category)
		assert.NotEmpty(t, s.Items)
	}
	assert.Equal(t, []string{"Dairy", "Meat & Fish", "Other", "Spices"}, categories)
	assert.Equal(t, "cart", resp.Sections[3].Style.Icon)
	assert.Equal(t, "Paprika", resp.Sections[3].Items[0].Name)
}

// ============================================================================
// Generation
// ============================================================================

func TestMealPlan_GenerateUsesGoals(t *testing.T) {
	h, svc := newTestHandler(t, ExportConfig{})
	hub := events.NewHub()
	svc.publisher = hub
	userID := uuid.New()
	ch, cancel := hub.Subscribe(userID)
	defer cancel()

	w := do(t, h.HandleGenerate, http.MethodPost, userID, GenerateRequest{Days: 3, Preferences: "vegetarian"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	plan := decodePlan(t, w)

	assert.Equal(t, storage.MealPlanSourceGenerated, plan.Source)
	assert.Equal(t, "2025-03-05", plan.StartDate)
	assert.Equal(t, "2025-03-07", plan.EndDate)
	assert.Equal(t, "Vegetarian meal plan from Mar 5", plan.Title)
	assert.Len(t, plan.Meals, 12)
	for _, day := range plan.DayTotals {
		assert.Equal(t, float64(2000), day.Totals.Calories)
		assert.Equal(t, float64(160), day.Totals.Protein)
	}
	assert.NotEmpty(t, plan.ShoppingList)

	select {
	case ev := <-ch:
		assert.Equal(t, events.TypeMealPlansChanged, ev.Type)
		assert.Equal(t, plan.ID, ev.ID)
	default:
		t.Fatal("expected a mealplans.changed event")
	}
}

func TestMealPlan_GenerateValidation(t *testing.T) {
	h, _ := newTestHandler(t, ExportConfig{})

	for _, req := range []GenerateRequest{
		{Days: 29},
		{Days: -1},
		{StartDate: "tomorrow"},
		{Preferences: strings.Repeat("x", maxPrefsLen+1)},
	} {
		w := do(t, h.HandleGenerate, http.MethodPost, uuid.New(), req, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%+v", req)
	}
}

func TestMealPlan_GenerateProviderFailure(t *testing.T) {
	h, svc := newTestHandler(t, ExportConfig{})
	svc.provider = failingProvider{}

	w := do(t, h.HandleGenerate, http.MethodPost, uuid.New(), GenerateRequest{}, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "generation_failed")
}

// ============================================================================
// Export
// ============================================================================

func TestMealPlan_ExportStreamsPDF(t *testing.T) {
	m := metrics.NewTestManager()
	h, _ := newTestHandler(t, ExportConfig{Counter: m.CounterMealPlanExports})
	userID := uuid.New()

	w := do(t, h.HandleCreate, http.MethodPost, userID, samplePlan(), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	vars := map[string]string{"id": decodePlan(t, w).ID}

	w = do(t, h.HandleExport, http.MethodGet, userID, nil, vars)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "meal-plan-2025-03-03.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterMealPlanExports.WithLabelValues(DeliveryStream)))
}

func TestMealPlan_ExportUploadsToBlobStore(t *testing.T) {
	store := blob.NewMemoryStore()
	h, _ := newTestHandler(t, ExportConfig{Store: store, PresignTTL: 10 * time.Minute})
	userID := uuid.New()

	w := do(t, h.HandleCreate, http.MethodPost, userID, samplePlan(), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	planID := decodePlan(t, w).ID
	vars := map[string]string{"id": planID}

	w = do(t, h.HandleExport, http.MethodGet, userID, nil, vars)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ExportResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	key := "meal-plans/" + userID.String() + "/" + planID + ".pdf"
	assert.Equal(t, "memory://"+key+"?ttl=600", resp.URL)
	assert.True(t, fixedNow.Add(10*time.Minute).Equal(resp.ExpiresAt))

	obj, ok := store.Object(key)
	require.True(t, ok)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Equal(t, "meal-plan-2025-03-03.pdf", obj.Filename)
	assert.True(t, bytes.HasPrefix(obj.Body, []byte("%PDF")))

	w = do(t, h.HandleDelete, http.MethodDelete, userID, nil, vars)
	require.Equal(t, http.StatusNoContent, w.Code)
	_, ok = store.Object(key)
	assert.False(t, ok)
}

func TestRenderPDF_EmptyPlan(t *testing.T) {
	data, err := renderPDF(storage.MealPlan{
		Title:     "Empty",
		StartDate: fixedNow,
		EndDate:   fixedNow,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
