package workouts

import (
	"sort"

	"github.com/fdg312/fitness-hub/internal/storage"
)

// GroupSets buckets sets by exercise id. Each bucket is ordered by ascending
// set number; sets with equal numbers keep their input order.
func GroupSets(sets []storage.WorkoutSet) map[string][]storage.WorkoutSet {
	groups := make(map[string][]storage.WorkoutSet)
	for _, s := range sets {
		groups[s.ExerciseID] = append(groups[s.ExerciseID], s)
	}
	for id := range groups {
		group := groups[id]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].SetNumber < group[j].SetNumber
		})
	}
	return groups
}

// SortedExerciseIDs returns the keys of groups in ascending order.
func SortedExerciseIDs(groups map[string][]storage.WorkoutSet) []string {
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
