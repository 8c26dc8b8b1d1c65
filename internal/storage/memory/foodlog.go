package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/google/uuid"
)

type foodLogStorage struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]storage.FoodEntry
}

func newFoodLogStorage() *foodLogStorage {
	return &foodLogStorage{
		entries: make(map[uuid.UUID]storage.FoodEntry),
	}
}

func (s *foodLogStorage) AddEntry(ctx context.Context, entry *storage.FoodEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	copied := *entry
	copied.Components = append([]storage.MealComponent(nil), entry.Components...)
	s.entries[entry.ID] = copied
	return nil
}

func (s *foodLogStorage) DeleteEntry(ctx context.Context, userID, entryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryID]
	if !ok || e.UserID != userID {
		return storage.ErrNotFound
	}

	delete(s.entries, entryID)
	return nil
}

func (s *foodLogStorage) ListEntriesBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]storage.FoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.FoodEntry, 0)
	for _, e := range s.entries {
		if e.UserID != userID {
			continue
		}
		if e.LoggedAt.Before(from) || !e.LoggedAt.Before(to) {
			continue
		}
		result = append(result, copyEntry(e))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].LoggedAt.Before(result[j].LoggedAt)
	})
	return result, nil
}

func (s *foodLogStorage) ListRecentEntries(ctx context.Context, userID uuid.UUID, limit int) ([]storage.FoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.FoodEntry, 0)
	for _, e := range s.entries {
		if e.UserID == userID {
			result = append(result, copyEntry(e))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].LoggedAt.After(result[j].LoggedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func copyEntry(e storage.FoodEntry) storage.FoodEntry {
	e.Components = append([]storage.MealComponent(nil), e.Components...)
	return e
}
