package progress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio_Examples(t *testing.T) {
	assert.InDelta(t, 0.8, Ratio(1600, 2000), 1e-9)
	assert.Equal(t, 0.0, Ratio(120, 0))
	assert.Equal(t, 1.0, Ratio(250, 200))
}

func TestRatio_NonPositiveGoalIsZero(t *testing.T) {
	for _, goal := range []float64{0, -1, -2000, math.Inf(-1)} {
		for _, current := range []float64{0, 1, 500, 1e9} {
			assert.Equal(t, 0.0, Ratio(current, goal), "current=%v goal=%v", current, goal)
		}
	}
}

func TestRatio_BoundedAndMonotonic(t *testing.T) {
	goals := []float64{0.5, 1, 70, 2000, 1e6}
	for _, goal := range goals {
		prev := -1.0
		for current := 0.0; current <= goal*2; current += goal / 37 {
			r := Ratio(current, goal)
			assert.GreaterOrEqual(t, r, 0.0)
			assert.LessOrEqual(t, r, 1.0)
			assert.GreaterOrEqual(t, r, prev, "ratio must not decrease (goal=%v current=%v)", goal, current)
			prev = r
		}
	}
}

func TestRatio_NonFiniteInputs(t *testing.T) {
	assert.Equal(t, 0.0, Ratio(math.NaN(), 100))
	assert.Equal(t, 0.0, Ratio(50, math.NaN()))
	assert.Equal(t, 0.0, Ratio(50, math.Inf(1)))
	assert.Equal(t, 1.0, Ratio(math.Inf(1), 100))
	assert.Equal(t, 0.0, Ratio(math.Inf(-1), 100))
}

func TestRatio_MonotonicUpToInfinity(t *testing.T) {
	currents := []float64{-1, 0, 1000, 2000, 1e300, math.MaxFloat64, math.Inf(1)}
	prev := Ratio(math.Inf(-1), 2000)
	for _, c := range currents {
		r := Ratio(c, 2000)
		assert.GreaterOrEqual(t, r, prev, "current=%g", c)
		prev = r
	}
	assert.Equal(t, 1.0, prev)
}

func TestPercentAndRemaining(t *testing.T) {
	assert.Equal(t, 80, Percent(1600, 2000))
	assert.Equal(t, 100, Percent(250, 200))
	assert.Equal(t, 0, Percent(10, 0))
	assert.Equal(t, 400.0, Remaining(1600, 2000))
	assert.Equal(t, 0.0, Remaining(2500, 2000))
}

func TestRings(t *testing.T) {
	rs := Rings([4]float64{1600, 60, 300, 0}, [4]float64{2000, 120, 250, 0})

	assert.InDelta(t, 0.8, rs.Calories.Ratio, 1e-9)
	assert.InDelta(t, 0.5, rs.Protein.Ratio, 1e-9)
	assert.Equal(t, 1.0, rs.Carbs.Ratio)
	assert.Equal(t, 0.0, rs.Fat.Ratio)
	assert.Equal(t, 60.0, rs.Protein.Remaining)
}
