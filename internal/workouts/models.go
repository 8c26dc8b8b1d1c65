package workouts

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/google/uuid"
)

const (
	defaultSessionsLimit = 50
	maxSessionsLimit     = 200

	maxSessionNameLen  = 100
	maxWeightLbs       = 2000
	maxReps            = 1000
	minClassMinutes    = 1
	maxClassMinutes    = 300
	defaultSessionName = "Workout"
)

// ClassTypes lists the gym classes that can be logged, in display order.
var ClassTypes = []string{"Spin", "Yoga", "HIIT", "Pilates", "Boxing", "Bodypump", "Zumba", "Other"}

// normalizeClassType maps a class type to its canonical spelling.
func normalizeClassType(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, t := range ClassTypes {
		if strings.EqualFold(t, raw) {
			return t, true
		}
	}
	return "", false
}

// ============================================================================
// DTOs
// ============================================================================

type SessionDTO struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Kind            string     `json:"kind"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	IsOpen          bool       `json:"is_open"`
}

func sessionToDTO(s storage.WorkoutSession) SessionDTO {
	return SessionDTO{
		ID:              s.ID,
		Name:            s.Name,
		Kind:            s.Kind,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
		DurationMinutes: s.DurationMinutes,
		IsOpen:          s.EndedAt == nil,
	}
}

type SetDTO struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	ExerciseID  string    `json:"exercise_id"`
	SetNumber   int       `json:"set_number"`
	WeightLbs   float64   `json:"weight_lbs"`
	Reps        int       `json:"reps"`
	CompletedAt time.Time `json:"completed_at"`
}

func setToDTO(s storage.WorkoutSet) SetDTO {
	return SetDTO{
		ID:          s.ID,
		SessionID:   s.SessionID,
		ExerciseID:  s.ExerciseID,
		SetNumber:   s.SetNumber,
		WeightLbs:   s.WeightLbs,
		Reps:        s.Reps,
		CompletedAt: s.CompletedAt,
	}
}

func setsToDTO(sets []storage.WorkoutSet) []SetDTO {
	out := make([]SetDTO, 0, len(sets))
	for _, s := range sets {
		out = append(out, setToDTO(s))
	}
	return out
}

type ListSessionsResponse struct {
	Sessions []SessionDTO `json:"sessions"`
}

// SetGroupDTO is the sets of one exercise within a session.
type SetGroupDTO struct {
	ExerciseID   string   `json:"exercise_id"`
	ExerciseName string   `json:"exercise_name,omitempty"`
	Sets         []SetDTO `json:"sets"`
}

type SessionSetsResponse struct {
	Session SessionDTO    `json:"session"`
	Sets    []SetDTO      `json:"sets"`
	Groups  []SetGroupDTO `json:"groups"`
}

type DayVolumeDTO struct {
	Date   string  `json:"date"`
	Volume float64 `json:"volume"`
	Sets   int     `json:"sets"`
}

type WeeklyVolumeResponse struct {
	WeekStart   string         `json:"week_start"`
	WeekEnd     string         `json:"week_end"`
	Days        []DayVolumeDTO `json:"days"`
	TotalVolume float64        `json:"total_volume"`
	TotalSets   int            `json:"total_sets"`
	Sessions    int            `json:"sessions"`
	Minutes     int            `json:"minutes"`
}

type PersonalRecordDTO struct {
	ExerciseID   string    `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name,omitempty"`
	MaxWeightLbs float64   `json:"max_weight_lbs"`
	Reps         int       `json:"reps"`
	AchievedAt   time.Time `json:"achieved_at"`
	SessionID    uuid.UUID `json:"session_id"`
}

type RecordsResponse struct {
	Records []PersonalRecordDTO `json:"records"`
}

// ============================================================================
// Requests
// ============================================================================

type StartSessionRequest struct {
	Name string `json:"name"`
}

func (r *StartSessionRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		r.Name = defaultSessionName
	}
	if len([]rune(r.Name)) > maxSessionNameLen {
		return fmt.Errorf("name must be at most %d characters", maxSessionNameLen)
	}
	return nil
}

type LogSetRequest struct {
	ExerciseID string  `json:"exercise_id"`
	WeightLbs  float64 `json:"weight_lbs"`
	Reps       int     `json:"reps"`
	SetNumber  *int    `json:"set_number,omitempty"`
}

func (r *LogSetRequest) Validate() error {
	r.ExerciseID = strings.TrimSpace(r.ExerciseID)
	if r.ExerciseID == "" {
		return fmt.Errorf("exercise_id is required")
	}
	if math.IsNaN(r.WeightLbs) || math.IsInf(r.WeightLbs, 0) || r.WeightLbs < 0 || r.WeightLbs > maxWeightLbs {
		return fmt.Errorf("weight_lbs must be between 0 and %d", maxWeightLbs)
	}
	if r.Reps < 1 || r.Reps > maxReps {
		return fmt.Errorf("reps must be between 1 and %d", maxReps)
	}
	if r.SetNumber != nil && *r.SetNumber < 1 {
		return fmt.Errorf("set_number must be >= 1")
	}
	return nil
}

type LogClassRequest struct {
	Type            string `json:"type"`
	DurationMinutes int    `json:"duration_minutes"`
}

func (r *LogClassRequest) Validate() error {
	canonical, ok := normalizeClassType(r.Type)
	if !ok {
		return fmt.Errorf("type must be one of %s", strings.Join(ClassTypes, ", "))
	}
	r.Type = canonical
	if r.DurationMinutes < minClassMinutes || r.DurationMinutes > maxClassMinutes {
		return fmt.Errorf("duration_minutes must be between %d and %d", minClassMinutes, maxClassMinutes)
	}
	return nil
}
