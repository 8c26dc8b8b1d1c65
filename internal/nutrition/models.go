package nutrition

import (
	"fmt"
	"math"
	"time"
)

// Default goals returned until the user saves their own.
const (
	DefaultCalories = 2200
	DefaultProtein  = 120
	DefaultCarbs    = 250
	DefaultFat      = 70

	maxCalories = 10000
	maxMacro    = 1000

	// MaxPortionValue bounds each macro of a single logged portion or meal.
	MaxPortionValue = 10000
	// MaxPer100gValue bounds each macro of an ingredient's per-100g values.
	MaxPer100gValue = 1000
)

// Macros holds calories (kcal) and grams of protein, carbs and fat.
// It is convertible to and from storage.Macros.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// DefaultGoals returns the goals used when none are stored.
func DefaultGoals() Macros {
	return Macros{Calories: DefaultCalories, Protein: DefaultProtein, Carbs: DefaultCarbs, Fat: DefaultFat}
}

// Add returns the element-wise sum.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fat:      m.Fat + o.Fat,
	}
}

// Values returns calories, protein, carbs and fat in that order.
func (m Macros) Values() [4]float64 {
	return [4]float64{m.Calories, m.Protein, m.Carbs, m.Fat}
}

// Validate checks that every value is finite and not negative.
func (m Macros) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"calories", m.Calories},
		{"protein", m.Protein},
		{"carbs", m.Carbs},
		{"fat", m.Fat},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%s must be a finite number", f.name)
		}
		if f.value < 0 {
			return fmt.Errorf("%s must be >= 0", f.name)
		}
	}
	return nil
}

// ValidateAtMost is Validate plus an upper bound on every value.
func (m Macros) ValidateAtMost(limit float64) error {
	if err := m.Validate(); err != nil {
		return err
	}
	for _, v := range m.Values() {
		if v > limit {
			return fmt.Errorf("calories, protein, carbs and fat must be <= %g", limit)
		}
	}
	return nil
}

// GoalsDTO is the wire shape of the macro goals.
type GoalsDTO struct {
	Macros
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// GetGoalsResponse contains goals and a flag indicating if they are defaults.
type GetGoalsResponse struct {
	Goals     GoalsDTO `json:"goals"`
	IsDefault bool     `json:"is_default"`
}

// UpdateGoalsRequest is the request body for PUT /v1/nutrition/goals.
type UpdateGoalsRequest struct {
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
}

// Validate validates the update request and returns the goals it describes.
func (r *UpdateGoalsRequest) Validate() (Macros, error) {
	if r.Calories == nil || r.Protein == nil || r.Carbs == nil || r.Fat == nil {
		return Macros{}, fmt.Errorf("calories, protein, carbs and fat are required")
	}

	m := Macros{Calories: *r.Calories, Protein: *r.Protein, Carbs: *r.Carbs, Fat: *r.Fat}
	if err := m.Validate(); err != nil {
		return Macros{}, err
	}

	if m.Calories > maxCalories {
		return Macros{}, fmt.Errorf("calories must be <= %d", maxCalories)
	}
	if m.Protein > maxMacro || m.Carbs > maxMacro || m.Fat > maxMacro {
		return Macros{}, fmt.Errorf("protein, carbs and fat must be <= %d", maxMacro)
	}

	return m, nil
}

// ScaleRequest is the request body for POST /v1/nutrition/scale.
// A missing scale_factor means a single portion.
type ScaleRequest struct {
	Macros      Macros   `json:"macros"`
	ScaleFactor *float64 `json:"scale_factor,omitempty"`
}

type ScaleResponse struct {
	ScaleFactor float64 `json:"scale_factor"`
	Macros      Macros  `json:"macros"`
	Display     Rounded `json:"display"`
}
