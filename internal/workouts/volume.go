package workouts

import (
	"time"

	"github.com/fdg312/fitness-hub/internal/storage"
)

const dateLayout = "2006-01-02"

// WeekStart returns midnight UTC of the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// SetVolume is weight times reps.
func SetVolume(s storage.WorkoutSet) float64 {
	return s.WeightLbs * float64(s.Reps)
}

// weeklyVolume aggregates the sets and sessions of the week starting at start.
// Sets and sessions outside the week are ignored.
func weeklyVolume(start time.Time, sessions []storage.WorkoutSession, sets []storage.WorkoutSet) *WeeklyVolumeResponse {
	end := start.AddDate(0, 0, 7)

	resp := &WeeklyVolumeResponse{
		WeekStart: start.Format(dateLayout),
		WeekEnd:   end.AddDate(0, 0, -1).Format(dateLayout),
		Days:      make([]DayVolumeDTO, 7),
	}
	for i := range resp.Days {
		resp.Days[i].Date = start.AddDate(0, 0, i).Format(dateLayout)
	}

	for _, s := range sets {
		at := s.CompletedAt.UTC()
		if at.Before(start) || !at.Before(end) {
			continue
		}
		idx := int(at.Sub(start) / (24 * time.Hour))
		v := SetVolume(s)
		resp.Days[idx].Volume += v
		resp.Days[idx].Sets++
		resp.TotalVolume += v
		resp.TotalSets++
	}

	for _, sess := range sessions {
		at := sess.StartedAt.UTC()
		if at.Before(start) || !at.Before(end) {
			continue
		}
		resp.Sessions++
		if sess.DurationMinutes != nil {
			resp.Minutes += *sess.DurationMinutes
		}
	}

	return resp
}
