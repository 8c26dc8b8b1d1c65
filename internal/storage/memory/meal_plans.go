package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/google/uuid"
)

type mealPlansStorage struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]storage.MealPlan
}

func newMealPlansStorage() *mealPlansStorage {
	return &mealPlansStorage{
		plans: make(map[uuid.UUID]storage.MealPlan),
	}
}

func (s *mealPlansStorage) CreateMealPlan(ctx context.Context, plan *storage.MealPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	s.plans[plan.ID] = copyPlan(*plan)
	return nil
}

func (s *mealPlansStorage) ReplaceMealPlan(ctx context.Context, plan *storage.MealPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.plans[plan.ID]
	if !ok || existing.UserID != plan.UserID {
		return storage.ErrNotFound
	}

	plan.CreatedAt = existing.CreatedAt
	plan.UpdatedAt = time.Now().UTC()

	s.plans[plan.ID] = copyPlan(*plan)
	return nil
}

func (s *mealPlansStorage) GetMealPlan(ctx context.Context, userID, planID uuid.UUID) (*storage.MealPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[planID]
	if !ok || p.UserID != userID {
		return nil, storage.ErrNotFound
	}

	copied := copyPlan(p)
	return &copied, nil
}

func (s *mealPlansStorage) ListMealPlans(ctx context.Context, userID uuid.UUID) ([]storage.MealPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.MealPlan, 0)
	for _, p := range s.plans {
		if p.UserID == userID {
			result = append(result, copyPlan(p))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *mealPlansStorage) DeleteMealPlan(ctx context.Context, userID, planID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[planID]
	if !ok || p.UserID != userID {
		return storage.ErrNotFound
	}

	delete(s.plans, planID)
	return nil
}

func copyPlan(p storage.MealPlan) storage.MealPlan {
	p.Meals = append([]storage.PlannedMeal(nil), p.Meals...)
	p.ShoppingList = append([]storage.ShoppingItem(nil), p.ShoppingList...)
	return p
}
