package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/google/uuid"
)

type workoutsStorage struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*storage.WorkoutSession
	sets     map[uuid.UUID][]storage.WorkoutSet // key: session_id
}

func newWorkoutsStorage() *workoutsStorage {
	return &workoutsStorage{
		sessions: make(map[uuid.UUID]*storage.WorkoutSession),
		sets:     make(map[uuid.UUID][]storage.WorkoutSet),
	}
}

func (s *workoutsStorage) CreateSession(ctx context.Context, session *storage.WorkoutSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	copied := copySession(*session)
	s.sessions[session.ID] = &copied
	return nil
}

func (s *workoutsStorage) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*storage.WorkoutSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return nil, storage.ErrNotFound
	}

	copied := copySession(*sess)
	return &copied, nil
}

func (s *workoutsStorage) ListSessions(ctx context.Context, userID uuid.UUID, limit int) ([]storage.WorkoutSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.WorkoutSession, 0)
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			result = append(result, copySession(*sess))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *workoutsStorage) ListSessionsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]storage.WorkoutSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.WorkoutSession, 0)
	for _, sess := range s.sessions {
		if sess.UserID != userID {
			continue
		}
		if sess.StartedAt.Before(from) || !sess.StartedAt.Before(to) {
			continue
		}
		result = append(result, copySession(*sess))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.Before(result[j].StartedAt)
	})
	return result, nil
}

func (s *workoutsStorage) EndSession(ctx context.Context, userID, sessionID uuid.UUID, endedAt time.Time, durationMinutes int) (*storage.WorkoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return nil, storage.ErrNotFound
	}

	ended := endedAt
	minutes := durationMinutes
	sess.EndedAt = &ended
	sess.DurationMinutes = &minutes

	copied := copySession(*sess)
	return &copied, nil
}

func (s *workoutsStorage) AddSet(ctx context.Context, set *storage.WorkoutSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[set.SessionID]
	if !ok || sess.UserID != set.UserID {
		return storage.ErrNotFound
	}

	if set.ID == uuid.Nil {
		set.ID = uuid.New()
	}
	if set.SetNumber == 0 {
		highest := 0
		for _, existing := range s.sets[set.SessionID] {
			if existing.ExerciseID == set.ExerciseID && existing.SetNumber > highest {
				highest = existing.SetNumber
			}
		}
		set.SetNumber = highest + 1
	}
	s.sets[set.SessionID] = append(s.sets[set.SessionID], *set)
	return nil
}

func (s *workoutsStorage) ListSets(ctx context.Context, userID, sessionID uuid.UUID) ([]storage.WorkoutSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return nil, storage.ErrNotFound
	}

	result := append([]storage.WorkoutSet{}, s.sets[sessionID]...)
	sortSetsByCompletion(result)
	return result, nil
}

func (s *workoutsStorage) ListSetsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]storage.WorkoutSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.WorkoutSet, 0)
	for _, sets := range s.sets {
		for _, set := range sets {
			if set.UserID != userID {
				continue
			}
			if set.CompletedAt.Before(from) || !set.CompletedAt.Before(to) {
				continue
			}
			result = append(result, set)
		}
	}

	sortSetsByCompletion(result)
	return result, nil
}

func (s *workoutsStorage) ListAllSets(ctx context.Context, userID uuid.UUID) ([]storage.WorkoutSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.WorkoutSet, 0)
	for _, sets := range s.sets {
		for _, set := range sets {
			if set.UserID == userID {
				result = append(result, set)
			}
		}
	}

	sortSetsByCompletion(result)
	return result, nil
}

func sortSetsByCompletion(sets []storage.WorkoutSet) {
	sort.SliceStable(sets, func(i, j int) bool {
		return sets[i].CompletedAt.Before(sets[j].CompletedAt)
	})
}

func copySession(sess storage.WorkoutSession) storage.WorkoutSession {
	if sess.EndedAt != nil {
		ended := *sess.EndedAt
		sess.EndedAt = &ended
	}
	if sess.DurationMinutes != nil {
		minutes := *sess.DurationMinutes
		sess.DurationMinutes = &minutes
	}
	return sess
}
