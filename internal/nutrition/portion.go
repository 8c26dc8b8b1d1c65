package nutrition

import (
	"math"

	"github.com/fdg312/fitness-hub/internal/storage"
)

// Portion scale bounds and step.
const (
	MinScale  = 0.25
	MaxScale  = 3.0
	ScaleStep = 0.25
)

// ClampScale clamps f to [MinScale, MaxScale] and snaps it to the nearest
// ScaleStep. NaN yields 1.
func ClampScale(f float64) float64 {
	if math.IsNaN(f) {
		return 1
	}
	if f < MinScale {
		return MinScale
	}
	if f > MaxScale {
		return MaxScale
	}
	return math.Round(f/ScaleStep) * ScaleStep
}

// Scale multiplies every value by f. Nothing is rounded.
func (m Macros) Scale(f float64) Macros {
	return Macros{
		Calories: m.Calories * f,
		Protein:  m.Protein * f,
		Carbs:    m.Carbs * f,
		Fat:      m.Fat * f,
	}
}

// ComponentMacros sums per_100g * grams / 100 over the components.
func ComponentMacros(components []storage.MealComponent) Macros {
	var total Macros
	for _, c := range components {
		if c.Grams <= 0 {
			continue
		}
		total = total.Add(Macros(c.Per100g).Scale(c.Grams / 100))
	}
	return total
}

// Rounded is the integer rendering of Macros used for display.
type Rounded struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

func (m Macros) Rounded() Rounded {
	return Rounded{
		Calories: roundInt(m.Calories),
		Protein:  roundInt(m.Protein),
		Carbs:    roundInt(m.Carbs),
		Fat:      roundInt(m.Fat),
	}
}

func roundInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}
