package workouts

import (
	"sort"

	"github.com/fdg312/fitness-hub/internal/storage"
)

// PersonalRecord is the heaviest set of an exercise.
type PersonalRecord struct {
	ExerciseID string
	Set        storage.WorkoutSet
}

// PersonalRecords returns one record per exercise, sorted by exercise id.
// Equal weights prefer more reps, then the earliest completion.
func PersonalRecords(sets []storage.WorkoutSet) []PersonalRecord {
	best := make(map[string]storage.WorkoutSet)
	for _, s := range sets {
		current, ok := best[s.ExerciseID]
		if !ok || beats(s, current) {
			best[s.ExerciseID] = s
		}
	}

	records := make([]PersonalRecord, 0, len(best))
	for id, s := range best {
		records = append(records, PersonalRecord{ExerciseID: id, Set: s})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ExerciseID < records[j].ExerciseID
	})
	return records
}

func beats(candidate, current storage.WorkoutSet) bool {
	if candidate.WeightLbs != current.WeightLbs {
		return candidate.WeightLbs > current.WeightLbs
	}
	if candidate.Reps != current.Reps {
		return candidate.Reps > current.Reps
	}
	return candidate.CompletedAt.Before(current.CompletedAt)
}
