package foodlog

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fdg312/fitness-hub/internal/nutrition"
	"github.com/fdg312/fitness-hub/internal/progress"
	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/google/uuid"
)

const (
	maxNameLen       = 200
	maxComponents    = 50
	maxComponentGram = 5000
	defaultRecent    = 20
	maxRecent        = 100
)

type ComponentDTO struct {
	Name    string           `json:"name"`
	Grams   float64          `json:"grams"`
	Per100g nutrition.Macros `json:"per_100g"`
}

// LogFoodRequest is the request body for POST /v1/food/entries.
// When components are present they override macros.
type LogFoodRequest struct {
	Name        string            `json:"name"`
	Macros      *nutrition.Macros `json:"macros,omitempty"`
	Components  []ComponentDTO    `json:"components,omitempty"`
	ScaleFactor *float64          `json:"scale_factor,omitempty"`
	LoggedAt    *time.Time        `json:"logged_at,omitempty"`
}

func (r *LogFoodRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len([]rune(r.Name)) > maxNameLen {
		return fmt.Errorf("name must be at most %d characters", maxNameLen)
	}

	if len(r.Components) == 0 && r.Macros == nil {
		return fmt.Errorf("macros or components are required")
	}
	if len(r.Components) > maxComponents {
		return fmt.Errorf("at most %d components are allowed", maxComponents)
	}
	for i := range r.Components {
		c := &r.Components[i]
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return fmt.Errorf("components[%d].name is required", i)
		}
		if math.IsNaN(c.Grams) || c.Grams <= 0 || c.Grams > maxComponentGram {
			return fmt.Errorf("components[%d].grams must be between 0 and %d", i, maxComponentGram)
		}
		if err := c.Per100g.ValidateAtMost(nutrition.MaxPer100gValue); err != nil {
			return fmt.Errorf("components[%d].per_100g: %v", i, err)
		}
	}
	if len(r.Components) == 0 {
		if err := r.Macros.ValidateAtMost(nutrition.MaxPortionValue); err != nil {
			return fmt.Errorf("macros: %v", err)
		}
	}

	return nil
}

func (r *LogFoodRequest) storageComponents() []storage.MealComponent {
	if len(r.Components) == 0 {
		return nil
	}
	out := make([]storage.MealComponent, len(r.Components))
	for i, c := range r.Components {
		out[i] = storage.MealComponent{Name: c.Name, Grams: c.Grams, Per100g: storage.Macros(c.Per100g)}
	}
	return out
}

type EntryDTO struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	BaseMacros  nutrition.Macros  `json:"base_macros"`
	ScaleFactor float64           `json:"scale_factor"`
	Macros      nutrition.Macros  `json:"macros"`
	Display     nutrition.Rounded `json:"display"`
	Components  []ComponentDTO    `json:"components"`
	LoggedAt    time.Time         `json:"logged_at"`
}

func entryToDTO(e storage.FoodEntry) EntryDTO {
	macros := nutrition.Macros(e.Macros)
	components := make([]ComponentDTO, 0, len(e.Components))
	for _, c := range e.Components {
		components = append(components, ComponentDTO{Name: c.Name, Grams: c.Grams, Per100g: nutrition.Macros(c.Per100g)})
	}
	return EntryDTO{
		ID:          e.ID,
		Name:        e.Name,
		BaseMacros:  nutrition.Macros(e.BaseMacros),
		ScaleFactor: e.ScaleFactor,
		Macros:      macros,
		Display:     macros.Rounded(),
		Components:  components,
		LoggedAt:    e.LoggedAt,
	}
}

type RecentResponse struct {
	Items []EntryDTO `json:"items"`
}

type DaySummaryResponse struct {
	Date          string            `json:"date"`
	Entries       []EntryDTO        `json:"entries"`
	Totals        nutrition.Macros  `json:"totals"`
	TotalsDisplay nutrition.Rounded `json:"totals_display"`
	Goals         nutrition.Macros  `json:"goals"`
	GoalsDefault  bool              `json:"goals_default"`
	Remaining     nutrition.Macros  `json:"remaining"`
	Rings         progress.RingSet  `json:"rings"`
}
