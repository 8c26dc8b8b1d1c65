// Package progress computes the clamped current/goal fractions that drive
// progress rings and pie charts.
package progress

import "math"

// Ratio returns current/goal clamped to [0, 1]. A NaN current, or a goal that
// is non-finite or not positive, yields 0. An infinite current clamps like any
// other value.
func Ratio(current, goal float64) float64 {
	if math.IsNaN(current) || !isFinite(goal) || goal <= 0 {
		return 0
	}

	r := current / goal
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// Percent is Ratio expressed as a whole percentage.
func Percent(current, goal float64) int {
	return int(math.Round(Ratio(current, goal) * 100))
}

// Remaining is how much of goal is left, never negative.
func Remaining(current, goal float64) float64 {
	if !isFinite(current) || !isFinite(goal) {
		return 0
	}
	return math.Max(goal-current, 0)
}

// Ring is the data behind a single progress ring.
type Ring struct {
	Current   float64 `json:"current"`
	Goal      float64 `json:"goal"`
	Ratio     float64 `json:"ratio"`
	Percent   int     `json:"percent"`
	Remaining float64 `json:"remaining"`
}

// NewRing builds a Ring for one current/goal pair.
func NewRing(current, goal float64) Ring {
	return Ring{
		Current:   current,
		Goal:      goal,
		Ratio:     Ratio(current, goal),
		Percent:   Percent(current, goal),
		Remaining: Remaining(current, goal),
	}
}

// RingSet holds one ring per tracked macro.
type RingSet struct {
	Calories Ring `json:"calories"`
	Protein  Ring `json:"protein"`
	Carbs    Ring `json:"carbs"`
	Fat      Ring `json:"fat"`
}

// Rings builds the four macro rings. Arguments are ordered calories, protein, carbs, fat.
func Rings(consumed, goals [4]float64) RingSet {
	return RingSet{
		Calories: NewRing(consumed[0], goals[0]),
		Protein:  NewRing(consumed[1], goals[1]),
		Carbs:    NewRing(consumed[2], goals[2]),
		Fat:      NewRing(consumed[3], goals[3]),
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
