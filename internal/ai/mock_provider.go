package ai

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fdg312/fitness-hub/internal/shopping"
	"github.com/fdg312/fitness-hub/internal/storage"
)

// slotShare is the part of the daily goal each slot receives.
var slotShare = map[string]float64{
	SlotBreakfast: 0.25,
	SlotLunch:     0.35,
	SlotDinner:    0.30,
	SlotSnack:     0.10,
}

type ingredient struct {
	category string
	name     string
	qty      float64
	unit     string
}

type dish struct {
	title       string
	ingredients []ingredient
}

var standardMenu = map[string][]dish{
	SlotBreakfast: {
		{"Overnight oats with berries", []ingredient{
			{shopping.CategoryBreadsGrains, "Rolled oats", 80, "g"},
			{shopping.CategoryDairy, "Greek yogurt", 150, "g"},
			{shopping.CategoryFruitVeg, "Blueberries", 100, "g"},
		}},
		{"Scrambled eggs on toast", []ingredient{
			{shopping.CategoryDairy, "Eggs", 3, "pcs"},
			{shopping.CategoryBreadsGrains, "Wholemeal bread", 2, "slices"},
			{shopping.CategoryFruitVeg, "Cherry tomatoes", 80, "g"},
		}},
		{"Protein pancakes", []ingredient{
			{shopping.CategoryBreadsGrains, "Rolled oats", 60, "g"},
			{shopping.CategoryDairy, "Eggs", 2, "pcs"},
			{shopping.CategoryFruitVeg, "Banana", 1, "pcs"},
		}},
	},
	SlotLunch: {
		{"Chicken and quinoa bowl", []ingredient{
			{shopping.CategoryMeatFish, "Chicken breast", 180, "g"},
			{shopping.CategoryStoreCupboard, "Quinoa", 75, "g"},
			{shopping.CategoryFruitVeg, "Spinach", 60, "g"},
		}},
		{"Tuna pasta salad", []ingredient{
			{shopping.CategoryStoreCupboard, "Canned tuna", 1, "tin"},
			{shopping.CategoryStoreCupboard, "Wholewheat pasta", 90, "g"},
			{shopping.CategoryFruitVeg, "Cucumber", 0.5, "pcs"},
		}},
		{"Turkey wrap", []ingredient{
			{shopping.CategoryMeatFish, "Turkey slices", 120, "g"},
			{shopping.CategoryBreadsGrains, "Tortilla wraps", 2, "pcs"},
			{shopping.CategoryFruitVeg, "Mixed salad", 50, "g"},
		}},
	},
	SlotDinner: {
		{"Salmon with sweet potato", []ingredient{
			{shopping.CategoryMeatFish, "Salmon fillet", 160, "g"},
			{shopping.CategoryFruitVeg, "Sweet potato", 250, "g"},
			{shopping.CategoryFrozen, "Green beans", 100, "g"},
		}},
		{"Beef stir fry", []ingredient{
			{shopping.CategoryMeatFish, "Lean beef strips", 170, "g"},
			{shopping.CategoryStoreCupboard, "Basmati rice", 80, "g"},
			{shopping.CategoryFrozen, "Stir fry vegetables", 150, "g"},
		}},
		{"Cod with roasted vegetables", []ingredient{
			{shopping.CategoryMeatFish, "Cod fillet", 180, "g"},
			{shopping.CategoryFruitVeg, "Bell peppers", 2, "pcs"},
			{shopping.CategoryStoreCupboard, "Olive oil", 1, "tbsp"},
		}},
	},
	SlotSnack: {
		{"Apple with peanut butter", []ingredient{
			{shopping.CategoryFruitVeg, "Apples", 1, "pcs"},
			{shopping.CategoryStoreCupboard, "Peanut butter", 30, "g"},
		}},
		{"Cottage cheese and pineapple", []ingredient{
			{shopping.CategoryDairy, "Cottage cheese", 150, "g"},
			{shopping.CategoryFruitVeg, "Pineapple", 80, "g"},
		}},
	},
}

var vegetarianMenu = map[string][]dish{
	SlotBreakfast: standardMenu[SlotBreakfast],
	SlotLunch: {
		{"Chickpea and feta salad", []ingredient{
			{shopping.CategoryStoreCupboard, "Chickpeas", 1, "tin"},
			{shopping.CategoryDairy, "Feta", 60, "g"},
			{shopping.CategoryFruitVeg, "Cucumber", 0.5, "pcs"},
		}},
		{"Lentil soup with bread", []ingredient{
			{shopping.CategoryStoreCupboard, "Red lentils", 90, "g"},
			{shopping.CategoryFruitVeg, "Carrots", 2, "pcs"},
			{shopping.CategoryBreadsGrains, "Wholemeal bread", 2, "slices"},
		}},
	},
	SlotDinner: {
		{"Tofu vegetable curry", []ingredient{
			{shopping.CategoryOther, "Firm tofu", 200, "g"},
			{shopping.CategoryStoreCupboard, "Coconut milk", 0.5, "tin"},
			{shopping.CategoryStoreCupboard, "Basmati rice", 80, "g"},
		}},
		{"Halloumi and roasted veg traybake", []ingredient{
			{shopping.CategoryDairy, "Halloumi", 100, "g"},
			{shopping.CategoryFruitVeg, "Bell peppers", 2, "pcs"},
			{shopping.CategoryFrozen, "Butternut squash", 200, "g"},
		}},
	},
	SlotSnack: standardMenu[SlotSnack],
}

// MockProvider rotates a fixed menu and sizes every meal to the daily goals.
// The same request always yields the same plan.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) PlanMeals(ctx context.Context, req PlanRequest) (PlanResponse, error) {
	if err := ctx.Err(); err != nil {
		return PlanResponse{}, err
	}
	if req.Days <= 0 {
		return PlanResponse{}, fmt.Errorf("%w: days must be positive", ErrInvalidResponse)
	}

	menu := standardMenu
	title := "Balanced meal plan"
	if isVegetarian(req.Preferences) {
		menu = vegetarianMenu
		title = "Vegetarian meal plan"
	}
	if !req.StartDate.IsZero() {
		title = fmt.Sprintf("%s from %s", title, req.StartDate.Format("Jan 2"))
	}

	meals := make([]storage.PlannedMeal, 0, req.Days*len(Slots))
	list := newShoppingTotals()
	for day := 0; day < req.Days; day++ {
		for _, slot := range Slots {
			options := menu[slot]
			d := options[day%len(options)]
			meals = append(meals, storage.PlannedMeal{
				DayIndex: day,
				Slot:     slot,
				Title:    d.title,
				Macros:   shareOf(req.Goals, slotShare[slot]),
			})
			for _, ing := range d.ingredients {
				list.add(ing)
			}
		}
	}

	return PlanResponse{
		Title:    title,
		Meals:    meals,
		Shopping: list.items(),
	}, nil
}

func isVegetarian(preferences string) bool {
	p := strings.ToLower(preferences)
	return strings.Contains(p, "vegetarian") || strings.Contains(p, "vegan") || strings.Contains(p, "no meat")
}

func shareOf(goals storage.Macros, share float64) storage.Macros {
	return storage.Macros{
		Calories: math.Round(goals.Calories * share),
		Protein:  math.Round(goals.Protein * share),
		Carbs:    math.Round(goals.Carbs * share),
		Fat:      math.Round(goals.Fat * share),
	}
}

// shoppingTotals sums ingredient quantities by name and unit, keeping first-seen order.
type shoppingTotals struct {
	order []string
	byKey map[string]*ingredient
}

func newShoppingTotals() *shoppingTotals {
	return &shoppingTotals{byKey: make(map[string]*ingredient)}
}

func (t *shoppingTotals) add(ing ingredient) {
	key := strings.ToLower(ing.name) + "|" + ing.unit
	if existing, ok := t.byKey[key]; ok {
		existing.qty += ing.qty
		return
	}
	copied := ing
	t.byKey[key] = &copied
	t.order = append(t.order, key)
}

func (t *shoppingTotals) items() []storage.ShoppingItem {
	out := make([]storage.ShoppingItem, 0, len(t.order))
	for _, key := range t.order {
		ing := t.byKey[key]
		out = append(out, storage.ShoppingItem{
			Category: ing.category,
			Name:     ing.name,
			Amount:   strconv.FormatFloat(ing.qty, 'f', -1, 64) + " " + ing.unit,
		})
	}
	return out
}
