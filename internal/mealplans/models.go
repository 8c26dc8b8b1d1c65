package mealplans

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fdg312/fitness-hub/internal/ai"
	"github.com/fdg312/fitness-hub/internal/shopping"
	"github.com/fdg312/fitness-hub/internal/storage"
)

const (
	dateLayout       = "2006-01-02"
	maxTitleLen      = 200
	maxMealTitleLen  = 200
	maxPlanDays      = 28
	defaultPlanDays  = 7
	maxShoppingItems = 200
	maxItemNameLen   = 100
	maxAmountLen     = 50
	maxMacroValue    = 10000
	maxPrefsLen      = 500
)

// slotOrder ranks slots within a day; it doubles as the set of valid slots.
var slotOrder = map[string]int{
	ai.SlotBreakfast: 0,
	ai.SlotLunch:     1,
	ai.SlotDinner:    2,
	ai.SlotSnack:     3,
}

// ============================================================================
// DTOs
// ============================================================================

type MealPlanDTO struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Source       string                 `json:"source"`
	StartDate    string                 `json:"start_date"`
	EndDate      string                 `json:"end_date"`
	Days         int                    `json:"days"`
	Meals        []storage.PlannedMeal  `json:"meals"`
	DayTotals    []DayTotalDTO          `json:"day_totals"`
	ShoppingList []storage.ShoppingItem `json:"shopping_list"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type DayTotalDTO struct {
	DayIndex int            `json:"day_index"`
	Date     string         `json:"date"`
	Totals   storage.Macros `json:"totals"`
}

type ListMealPlansResponse struct {
	Plans []MealPlanDTO `json:"plans"`
}

type ShoppingListResponse struct {
	PlanID     string             `json:"plan_id"`
	TotalItems int                `json:"total_items"`
	Sections   []shopping.Section `json:"sections"`
}

type ExportResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ============================================================================
// Requests
// ============================================================================

// SaveMealPlanRequest is the body of create and replace.
type SaveMealPlanRequest struct {
	Title        string                 `json:"title"`
	StartDate    string                 `json:"start_date"`
	EndDate      string                 `json:"end_date"`
	Meals        []storage.PlannedMeal  `json:"meals"`
	ShoppingList []storage.ShoppingItem `json:"shopping_list"`
}

// Validate checks the request and returns the normalized plan content.
func (r *SaveMealPlanRequest) Validate() (planContent, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" || len([]rune(title)) > maxTitleLen {
		return planContent{}, fmt.Errorf("title must be 1..%d characters", maxTitleLen)
	}

	start, err := time.Parse(dateLayout, strings.TrimSpace(r.StartDate))
	if err != nil {
		return planContent{}, fmt.Errorf("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(r.EndDate))
	if err != nil {
		return planContent{}, fmt.Errorf("end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return planContent{}, fmt.Errorf("end_date must not be before start_date")
	}

	days := dayCount(start, end)
	if days > maxPlanDays {
		return planContent{}, fmt.Errorf("plan must cover at most %d days", maxPlanDays)
	}

	meals, err := normalizeMeals(r.Meals, days)
	if err != nil {
		return planContent{}, err
	}

	items, err := normalizeShopping(r.ShoppingList)
	if err != nil {
		return planContent{}, err
	}

	return planContent{
		title:    title,
		start:    start,
		end:      end,
		meals:    meals,
		shopping: items,
	}, nil
}

// GenerateRequest asks the planner for a new plan sized to the caller's goals.
type GenerateRequest struct {
	Title       string `json:"title"`
	StartDate   string `json:"start_date"`
	Days        int    `json:"days"`
	Preferences string `json:"preferences"`
}

func (r *GenerateRequest) Validate(today time.Time) (time.Time, int, error) {
	start := today
	if raw := strings.TrimSpace(r.StartDate); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("start_date must be YYYY-MM-DD")
		}
		start = parsed
	}

	days := r.Days
	if days == 0 {
		days = defaultPlanDays
	}
	if days < 1 || days > maxPlanDays {
		return time.Time{}, 0, fmt.Errorf("days must be between 1 and %d", maxPlanDays)
	}
	if len(r.Preferences) > maxPrefsLen {
		return time.Time{}, 0, fmt.Errorf("preferences must be at most %d characters", maxPrefsLen)
	}
	if len([]rune(strings.TrimSpace(r.Title))) > maxTitleLen {
		return time.Time{}, 0, fmt.Errorf("title must be at most %d characters", maxTitleLen)
	}
	return start, days, nil
}

// ============================================================================
// Normalization
// ============================================================================

type planContent struct {
	title    string
	start    time.Time
	end      time.Time
	meals    []storage.PlannedMeal
	shopping []storage.ShoppingItem
}

func normalizeMeals(meals []storage.PlannedMeal, days int) ([]storage.PlannedMeal, error) {
	out := make([]storage.PlannedMeal, 0, len(meals))
	seen := make(map[string]bool, len(meals))
	for i, m := range meals {
		if m.DayIndex < 0 || m.DayIndex >= days {
			return nil, fmt.Errorf("meals[%d]: day_index must be between 0 and %d", i, days-1)
		}
		m.Slot = strings.ToLower(strings.TrimSpace(m.Slot))
		if _, ok := slotOrder[m.Slot]; !ok {
			return nil, fmt.Errorf("meals[%d]: slot must be one of breakfast, lunch, dinner, snack", i)
		}
		key := fmt.Sprintf("%d|%s", m.DayIndex, m.Slot)
		if seen[key] {
			return nil, fmt.Errorf("meals[%d]: duplicate %s on day %d", i, m.Slot, m.DayIndex)
		}
		seen[key] = true

		m.Title = strings.TrimSpace(m.Title)
		if m.Title == "" || len([]rune(m.Title)) > maxMealTitleLen {
			return nil, fmt.Errorf("meals[%d]: title must be 1..%d characters", i, maxMealTitleLen)
		}
		if err := validateMacros(m.Macros); err != nil {
			return nil, fmt.Errorf("meals[%d]: %v", i, err)
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DayIndex != out[j].DayIndex {
			return out[i].DayIndex < out[j].DayIndex
		}
		return slotOrder[out[i].Slot] < slotOrder[out[j].Slot]
	})
	return out, nil
}

func normalizeShopping(items []storage.ShoppingItem) ([]storage.ShoppingItem, error) {
	if len(items) > maxShoppingItems {
		return nil, fmt.Errorf("shopping_list must have at most %d items", maxShoppingItems)
	}

	out := make([]storage.ShoppingItem, 0, len(items))
	for i, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" || len([]rune(item.Name)) > maxItemNameLen {
			return nil, fmt.Errorf("shopping_list[%d]: name must be 1..%d characters", i, maxItemNameLen)
		}
		item.Amount = strings.TrimSpace(item.Amount)
		if len([]rune(item.Amount)) > maxAmountLen {
			return nil, fmt.Errorf("shopping_list[%d]: amount must be at most %d characters", i, maxAmountLen)
		}
		item.Category = shopping.Normalize(item.Category)
		out = append(out, item)
	}
	return out, nil
}

func validateMacros(m storage.Macros) error {
	for _, v := range [4]float64{m.Calories, m.Protein, m.Carbs, m.Fat} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > maxMacroValue {
			return fmt.Errorf("macros must be between 0 and %d", maxMacroValue)
		}
	}
	return nil
}

// dayCount is the number of days in the inclusive range [start, end].
func dayCount(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// ============================================================================
// Conversion
// ============================================================================

func planToDTO(p storage.MealPlan) MealPlanDTO {
	days := dayCount(p.StartDate, p.EndDate)

	meals := p.Meals
	if meals == nil {
		meals = []storage.PlannedMeal{}
	}
	items := p.ShoppingList
	if items == nil {
		items = []storage.ShoppingItem{}
	}

	totals := make([]DayTotalDTO, days)
	for i := range totals {
		totals[i] = DayTotalDTO{
			DayIndex: i,
			Date:     p.StartDate.AddDate(0, 0, i).Format(dateLayout),
		}
	}
	for _, m := range meals {
		if m.DayIndex < 0 || m.DayIndex >= days {
			continue
		}
		t := &totals[m.DayIndex].Totals
		t.Calories += m.Macros.Calories
		t.Protein += m.Macros.Protein
		t.Carbs += m.Macros.Carbs
		t.Fat += m.Macros.Fat
	}

	return MealPlanDTO{
		ID:           p.ID.String(),
		Title:        p.Title,
		Source:       p.Source,
		StartDate:    p.StartDate.Format(dateLayout),
		EndDate:      p.EndDate.Format(dateLayout),
		Days:         days,
		Meals:        meals,
		DayTotals:    totals,
		ShoppingList: items,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func shoppingItems(items []storage.ShoppingItem) []shopping.Item {
	out := make([]shopping.Item, len(items))
	for i, it := range items {
		out[i] = shopping.Item(it)
	}
	return out
}
