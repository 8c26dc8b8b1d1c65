package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type foodLogStorage struct {
	pool *pgxpool.Pool
}

const entryColumns = `id, user_id, name,
	base_calories, base_protein, base_carbs, base_fat,
	scale_factor,
	calories, protein, carbs, fat,
	components, logged_at`

func (s *foodLogStorage) AddEntry(ctx context.Context, entry *storage.FoodEntry) error {
	query := `
		INSERT INTO food_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	components := entry.Components
	if components == nil {
		components = []storage.MealComponent{}
	}
	componentsJSON, err := json.Marshal(components)
	if err != nil {
		return fmt.Errorf("failed to encode meal components: %w", err)
	}

	_, err = s.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Name,
		entry.BaseMacros.Calories,
		entry.BaseMacros.Protein,
		entry.BaseMacros.Carbs,
		entry.BaseMacros.Fat,
		entry.ScaleFactor,
		entry.Macros.Calories,
		entry.Macros.Protein,
		entry.Macros.Carbs,
		entry.Macros.Fat,
		componentsJSON,
		entry.LoggedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add food entry: %w", err)
	}

	return nil
}

func (s *foodLogStorage) DeleteEntry(ctx context.Context, userID, entryID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM food_entries WHERE id = $1 AND user_id = $2`, entryID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete food entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *foodLogStorage) ListEntriesBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]storage.FoodEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM food_entries
		WHERE user_id = $1 AND logged_at >= $2 AND logged_at < $3
		ORDER BY logged_at ASC
	`

	rows, err := s.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list food entries: %w", err)
	}
	return collectEntries(rows)
}

func (s *foodLogStorage) ListRecentEntries(ctx context.Context, userID uuid.UUID, limit int) ([]storage.FoodEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM food_entries
		WHERE user_id = $1
		ORDER BY logged_at DESC
		LIMIT NULLIF($2::int, 0)
	`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent food entries: %w", err)
	}
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]storage.FoodEntry, error) {
	defer rows.Close()

	result := []storage.FoodEntry{}
	for rows.Next() {
		var (
			e              storage.FoodEntry
			componentsJSON []byte
		)
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Name,
			&e.BaseMacros.Calories,
			&e.BaseMacros.Protein,
			&e.BaseMacros.Carbs,
			&e.BaseMacros.Fat,
			&e.ScaleFactor,
			&e.Macros.Calories,
			&e.Macros.Protein,
			&e.Macros.Carbs,
			&e.Macros.Fat,
			&componentsJSON,
			&e.LoggedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food entry: %w", err)
		}
		if len(componentsJSON) > 0 {
			if err := json.Unmarshal(componentsJSON, &e.Components); err != nil {
				return nil, fmt.Errorf("failed to decode meal components: %w", err)
			}
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating food entries: %w", err)
	}
	return result, nil
}
