package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("conflict")
)

// Macros is the persisted shape of calories and macronutrients.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Storage aggregates every storage concern of the API.
type Storage interface {
	UsersStorage
	MacroGoalsStorage
	WorkoutsStorage
	FoodLogStorage
	MealPlansStorage

	// Close releases the underlying connections (Postgres only).
	Close() error
}

// ---------- Users ----------

// User is an account that owns all other rows.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type UsersStorage interface {
	// CreateUser returns ErrConflict when the email is already registered.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByEmail returns ErrNotFound for unknown emails.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
}

// ---------- Macro goals ----------

// MacroGoals is the daily macro target snapshot of a user.
type MacroGoals struct {
	UserID    uuid.UUID
	Macros    Macros
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MacroGoalsStorage interface {
	// GetGoals returns nil without error when the user never set goals.
	GetGoals(ctx context.Context, userID uuid.UUID) (*MacroGoals, error)

	UpsertGoals(ctx context.Context, userID uuid.UUID, macros Macros) (*MacroGoals, error)
}

// ---------- Workouts ----------

const (
	SessionKindStrength = "strength"
	SessionKindClass    = "class"
)

// WorkoutSession is open while EndedAt is nil.
type WorkoutSession struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Name            string
	Kind            string
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationMinutes *int
}

// WorkoutSet belongs to exactly one session.
type WorkoutSet struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	UserID      uuid.UUID
	ExerciseID  string
	SetNumber   int
	WeightLbs   float64
	Reps        int
	CompletedAt time.Time
}

type WorkoutsStorage interface {
	CreateSession(ctx context.Context, session *WorkoutSession) error

	// GetSession returns ErrNotFound when the session is missing or not owned by userID.
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*WorkoutSession, error)

	// ListSessions returns sessions newest first.
	ListSessions(ctx context.Context, userID uuid.UUID, limit int) ([]WorkoutSession, error)

	// ListSessionsBetween returns sessions with started_at in [from, to).
	ListSessionsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]WorkoutSession, error)

	EndSession(ctx context.Context, userID, sessionID uuid.UUID, endedAt time.Time, durationMinutes int) (*WorkoutSession, error)

	// AddSet returns ErrNotFound when the session is not owned by set.UserID. A zero
	// SetNumber is replaced, atomically with the insert, by one past the highest
	// number logged for that exercise in the session.
	AddSet(ctx context.Context, set *WorkoutSet) error

	// ListSets returns the sets of one session ordered by completed_at.
	ListSets(ctx context.Context, userID, sessionID uuid.UUID) ([]WorkoutSet, error)

	// ListSetsBetween returns sets with completed_at in [from, to).
	ListSetsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]WorkoutSet, error)

	ListAllSets(ctx context.Context, userID uuid.UUID) ([]WorkoutSet, error)
}

// ---------- Food log ----------

// MealComponent is one ingredient of a composite meal.
type MealComponent struct {
	Name    string  `json:"name"`
	Grams   float64 `json:"grams"`
	Per100g Macros  `json:"per_100g"`
}

// FoodEntry is a logged food or composite meal. Macros is BaseMacros scaled by ScaleFactor.
type FoodEntry struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	BaseMacros  Macros
	ScaleFactor float64
	Macros      Macros
	Components  []MealComponent
	LoggedAt    time.Time
}

type FoodLogStorage interface {
	AddEntry(ctx context.Context, entry *FoodEntry) error

	// DeleteEntry returns ErrNotFound when the entry is missing or not owned by userID.
	DeleteEntry(ctx context.Context, userID, entryID uuid.UUID) error

	// ListEntriesBetween returns entries with logged_at in [from, to), oldest first.
	ListEntriesBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]FoodEntry, error)

	// ListRecentEntries returns up to limit entries, newest first.
	ListRecentEntries(ctx context.Context, userID uuid.UUID, limit int) ([]FoodEntry, error)
}

// ---------- Meal plans ----------

const (
	MealPlanSourceManual    = "manual"
	MealPlanSourceGenerated = "generated"
)

type PlannedMeal struct {
	DayIndex int    `json:"day_index"`
	Slot     string `json:"slot"`
	Title    string `json:"title"`
	Macros   Macros `json:"macros"`
}

type ShoppingItem struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
}

// MealPlan covers the inclusive date range [StartDate, EndDate].
type MealPlan struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Title        string
	Source       string
	StartDate    time.Time
	EndDate      time.Time
	Meals        []PlannedMeal
	ShoppingList []ShoppingItem
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type MealPlansStorage interface {
	CreateMealPlan(ctx context.Context, plan *MealPlan) error

	// ReplaceMealPlan overwrites title, dates, meals and shopping list. ErrNotFound when not owned.
	ReplaceMealPlan(ctx context.Context, plan *MealPlan) error

	GetMealPlan(ctx context.Context, userID, planID uuid.UUID) (*MealPlan, error)

	// ListMealPlans returns plans newest first.
	ListMealPlans(ctx context.Context, userID uuid.UUID) ([]MealPlan, error)

	DeleteMealPlan(ctx context.Context, userID, planID uuid.UUID) error
}
