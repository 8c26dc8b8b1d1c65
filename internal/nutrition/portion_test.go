package nutrition

import (
	"math"
	"testing"

	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestClampScale(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"below minimum", 0.1, 0.25},
		{"zero", 0, 0.25},
		{"negative", -2, 0.25},
		{"above maximum", 5, 3.0},
		{"infinite", math.Inf(1), 3.0},
		{"exact step", 1.5, 1.5},
		{"snaps down", 1.1, 1.0},
		{"snaps up", 1.2, 1.25},
		{"nan", math.NaN(), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampScale(tt.in))
		})
	}
}

func TestClampScale_AlwaysInRange(t *testing.T) {
	for f := -1.0; f <= 4.0; f += 0.01 {
		got := ClampScale(f)
		assert.GreaterOrEqual(t, got, MinScale)
		assert.LessOrEqual(t, got, MaxScale)
		assert.InDelta(t, 0, math.Mod(got, ScaleStep), 1e-9)
	}
}

func TestMacrosScale_NoRounding(t *testing.T) {
	m := Macros{Calories: 333, Protein: 10.5, Carbs: 41, Fat: 7}
	got := m.Scale(1.5)

	assert.InDelta(t, 499.5, got.Calories, 1e-9)
	assert.InDelta(t, 15.75, got.Protein, 1e-9)
	assert.InDelta(t, 61.5, got.Carbs, 1e-9)
	assert.InDelta(t, 10.5, got.Fat, 1e-9)

	r := got.Rounded()
	assert.Equal(t, Rounded{Calories: 500, Protein: 16, Carbs: 62, Fat: 11}, r)
}

func TestComponentMacros(t *testing.T) {
	components := []storage.MealComponent{
		{Name: "Rice", Grams: 150, Per100g: storage.Macros{Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3}},
		{Name: "Chicken", Grams: 200, Per100g: storage.Macros{Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6}},
		{Name: "Nothing", Grams: 0, Per100g: storage.Macros{Calories: 900}},
	}

	got := ComponentMacros(components)

	assert.InDelta(t, 195+330, got.Calories, 1e-9)
	assert.InDelta(t, 4.05+62, got.Protein, 1e-9)
	assert.InDelta(t, 42, got.Carbs, 1e-9)
	assert.InDelta(t, 0.45+7.2, got.Fat, 1e-9)
}

func TestComponentMacros_Empty(t *testing.T) {
	assert.Equal(t, Macros{}, ComponentMacros(nil))
}

func TestUpdateGoalsRequest_Validate(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	valid := UpdateGoalsRequest{Calories: f(2000), Protein: f(150), Carbs: f(200), Fat: f(60)}
	m, err := valid.Validate()
	assert.NoError(t, err)
	assert.Equal(t, Macros{Calories: 2000, Protein: 150, Carbs: 200, Fat: 60}, m)

	bad := []UpdateGoalsRequest{
		{Calories: f(2000), Protein: f(150), Carbs: f(200)},
		{Calories: f(-1), Protein: f(150), Carbs: f(200), Fat: f(60)},
		{Calories: f(math.NaN()), Protein: f(150), Carbs: f(200), Fat: f(60)},
		{Calories: f(10001), Protein: f(150), Carbs: f(200), Fat: f(60)},
		{Calories: f(2000), Protein: f(1001), Carbs: f(200), Fat: f(60)},
	}
	for i, req := range bad {
		_, err := req.Validate()
		assert.Error(t, err, "case %d", i)
	}
}
