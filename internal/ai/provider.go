// Package ai builds meal plans sized to a user's macro goals, either from a
// deterministic built-in menu or through an OpenAI-compatible chat API.
package ai

import (
	"context"
	"errors"
	"time"

	"github.com/fdg312/fitness-hub/internal/storage"
)

// Meal slots in the order they appear within a day.
const (
	SlotBreakfast = "breakfast"
	SlotLunch     = "lunch"
	SlotDinner    = "dinner"
	SlotSnack     = "snack"
)

var Slots = []string{SlotBreakfast, SlotLunch, SlotDinner, SlotSnack}

// ErrInvalidResponse is returned when a provider answer cannot be turned into a plan.
var ErrInvalidResponse = errors.New("invalid provider response")

type Provider interface {
	PlanMeals(ctx context.Context, req PlanRequest) (PlanResponse, error)
}

type PlanRequest struct {
	StartDate   time.Time
	Days        int
	Goals       storage.Macros
	Preferences string
}

type PlanResponse struct {
	Title    string
	Meals    []storage.PlannedMeal
	Shopping []storage.ShoppingItem
}
