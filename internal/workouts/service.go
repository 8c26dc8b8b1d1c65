package workouts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fdg312/fitness-hub/internal/events"
	"github.com/fdg312/fitness-hub/internal/exercises"
	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/fdg312/fitness-hub/internal/userctx"
	"github.com/google/uuid"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionClosed    = errors.New("session already ended")
	ErrExerciseNotFound = errors.New("exercise not found")
)

// ExerciseLookup resolves catalog exercises by id.
type ExerciseLookup interface {
	Exercise(id string) (exercises.Exercise, bool)
}

// Service provides workout session management.
type Service struct {
	storage   storage.WorkoutsStorage
	catalog   ExerciseLookup
	publisher events.Publisher
	now       func() time.Time
}

// NewService creates a new workouts service.
func NewService(workoutsStorage storage.WorkoutsStorage, catalog ExerciseLookup, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Service{
		storage:   workoutsStorage,
		catalog:   catalog,
		publisher: publisher,
		now:       time.Now,
	}
}

// ListSessions returns the caller's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, limit int) (*ListSessionsResponse, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if limit <= 0 {
		limit = defaultSessionsLimit
	}
	if limit > maxSessionsLimit {
		limit = maxSessionsLimit
	}

	sessions, err := s.storage.ListSessions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	resp := &ListSessionsResponse{Sessions: make([]SessionDTO, 0, len(sessions))}
	for _, sess := range sessions {
		resp.Sessions = append(resp.Sessions, sessionToDTO(sess))
	}
	return resp, nil
}

// StartSession opens a new strength session.
func (s *Service) StartSession(ctx context.Context, req StartSessionRequest) (*SessionDTO, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	session := &storage.WorkoutSession{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      req.Name,
		Kind:      storage.SessionKindStrength,
		StartedAt: s.now().UTC(),
	}
	if err := s.storage.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.publish(userID, session.ID)
	dto := sessionToDTO(*session)
	return &dto, nil
}

// EndSession closes an open session and records its rounded duration.
func (s *Service) EndSession(ctx context.Context, sessionID uuid.UUID) (*SessionDTO, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	session, err := s.getSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.EndedAt != nil {
		return nil, ErrSessionClosed
	}

	endedAt := s.now().UTC()
	minutes := int(math.Round(endedAt.Sub(session.StartedAt).Minutes()))
	if minutes < 1 {
		minutes = 1
	}

	ended, err := s.storage.EndSession(ctx, userID, sessionID, endedAt, minutes)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("end session: %w", err)
	}

	s.publish(userID, sessionID)
	dto := sessionToDTO(*ended)
	return &dto, nil
}

// LogSet appends a set to an open session.
func (s *Service) LogSet(ctx context.Context, sessionID uuid.UUID, req LogSetRequest) (*SetDTO, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if _, ok := s.catalog.Exercise(req.ExerciseID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrExerciseNotFound, req.ExerciseID)
	}

	session, err := s.getSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.EndedAt != nil {
		return nil, ErrSessionClosed
	}

	// zero lets storage assign the next number for the exercise
	setNumber := 0
	if req.SetNumber != nil {
		setNumber = *req.SetNumber
	}

	set := &storage.WorkoutSet{
		ID:          uuid.New(),
		SessionID:   sessionID,
		UserID:      userID,
		ExerciseID:  req.ExerciseID,
		SetNumber:   setNumber,
		WeightLbs:   req.WeightLbs,
		Reps:        req.Reps,
		CompletedAt: s.now().UTC(),
	}
	if err := s.storage.AddSet(ctx, set); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("add set: %w", err)
	}

	s.publish(userID, sessionID)
	dto := setToDTO(*set)
	return &dto, nil
}

// SessionSets returns the flat and grouped sets of one session.
func (s *Service) SessionSets(ctx context.Context, sessionID uuid.UUID) (*SessionSetsResponse, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	session, err := s.getSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	sets, err := s.storage.ListSets(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}

	groups := GroupSets(sets)
	resp := &SessionSetsResponse{
		Session: sessionToDTO(*session),
		Sets:    setsToDTO(sets),
		Groups:  make([]SetGroupDTO, 0, len(groups)),
	}
	for _, id := range SortedExerciseIDs(groups) {
		resp.Groups = append(resp.Groups, SetGroupDTO{
			ExerciseID:   id,
			ExerciseName: s.exerciseName(id),
			Sets:         setsToDTO(groups[id]),
		})
	}
	return resp, nil
}

// LogClass records a finished gym class ending now.
func (s *Service) LogClass(ctx context.Context, req LogClassRequest) (*SessionDTO, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	endedAt := s.now().UTC()
	duration := req.DurationMinutes
	session := &storage.WorkoutSession{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            req.Type,
		Kind:            storage.SessionKindClass,
		StartedAt:       endedAt.Add(-time.Duration(duration) * time.Minute),
		EndedAt:         &endedAt,
		DurationMinutes: &duration,
	}
	if err := s.storage.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create class session: %w", err)
	}

	s.publish(userID, session.ID)
	dto := sessionToDTO(*session)
	return &dto, nil
}

// WeeklyVolume aggregates the Monday-start UTC week containing date.
func (s *Service) WeeklyVolume(ctx context.Context, date time.Time) (*WeeklyVolumeResponse, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	start := WeekStart(date)
	end := start.AddDate(0, 0, 7)

	sets, err := s.storage.ListSetsBetween(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	sessions, err := s.storage.ListSessionsBetween(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return weeklyVolume(start, sessions, sets), nil
}

// Records returns the caller's personal record per exercise.
func (s *Service) Records(ctx context.Context) (*RecordsResponse, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	sets, err := s.storage.ListAllSets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}

	records := PersonalRecords(sets)
	resp := &RecordsResponse{Records: make([]PersonalRecordDTO, 0, len(records))}
	for _, r := range records {
		resp.Records = append(resp.Records, PersonalRecordDTO{
			ExerciseID:   r.ExerciseID,
			ExerciseName: s.exerciseName(r.ExerciseID),
			MaxWeightLbs: r.Set.WeightLbs,
			Reps:         r.Set.Reps,
			AchievedAt:   r.Set.CompletedAt,
			SessionID:    r.Set.SessionID,
		})
	}
	return resp, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Service) getSession(ctx context.Context, userID, sessionID uuid.UUID) (*storage.WorkoutSession, error) {
	session, err := s.storage.GetSession(ctx, userID, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (s *Service) exerciseName(id string) string {
	if ex, ok := s.catalog.Exercise(id); ok {
		return ex.Name
	}
	return ""
}

func (s *Service) publish(userID, sessionID uuid.UUID) {
	s.publisher.Publish(userID, events.Event{Type: events.TypeWorkoutsChanged, ID: sessionID.String()})
}

func parseDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.UTC(), nil
	}
	return time.ParseInLocation(dateLayout, raw, time.UTC)
}
