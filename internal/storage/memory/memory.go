package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/google/uuid"
)

var _ storage.Storage = (*MemoryStorage)(nil)

// MemoryStorage is the in-memory implementation used when no DATABASE_URL is configured.
type MemoryStorage struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]storage.User
	byEmail map[string]uuid.UUID

	*goalsStorage
	*workoutsStorage
	*foodLogStorage
	*mealPlansStorage
}

// New creates an empty MemoryStorage.
func New() *MemoryStorage {
	return &MemoryStorage{
		users:            make(map[uuid.UUID]storage.User),
		byEmail:          make(map[string]uuid.UUID),
		goalsStorage:     newGoalsStorage(),
		workoutsStorage:  newWorkoutsStorage(),
		foodLogStorage:   newFoodLogStorage(),
		mealPlansStorage: newMealPlansStorage(),
	}
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) CreateUser(ctx context.Context, user *storage.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := m.byEmail[email]; exists {
		return storage.ErrConflict
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Email = email

	m.users[user.ID] = *user
	m.byEmail[email] = user.ID

	return nil
}

func (m *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	u := m.users[id]
	return &u, nil
}

func (m *MemoryStorage) GetUser(ctx context.Context, id uuid.UUID) (*storage.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return &u, nil
}
