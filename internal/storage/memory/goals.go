package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/google/uuid"
)

type goalsStorage struct {
	mu    sync.RWMutex
	goals map[uuid.UUID]*storage.MacroGoals
}

func newGoalsStorage() *goalsStorage {
	return &goalsStorage{
		goals: make(map[uuid.UUID]*storage.MacroGoals),
	}
}

func (s *goalsStorage) GetGoals(ctx context.Context, userID uuid.UUID) (*storage.MacroGoals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[userID]
	if !ok {
		return nil, nil
	}

	copied := *g
	return &copied, nil
}

func (s *goalsStorage) UpsertGoals(ctx context.Context, userID uuid.UUID, macros storage.Macros) (*storage.MacroGoals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	existing, ok := s.goals[userID]
	if ok {
		existing.Macros = macros
		existing.UpdatedAt = now

		copied := *existing
		return &copied, nil
	}

	g := &storage.MacroGoals{
		UserID:    userID,
		Macros:    macros,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.goals[userID] = g

	copied := *g
	return &copied, nil
}
