package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type goalsStorage struct {
	pool *pgxpool.Pool
}

func (s *goalsStorage) GetGoals(ctx context.Context, userID uuid.UUID) (*storage.MacroGoals, error) {
	query := `
		SELECT user_id, calories, protein, carbs, fat, created_at, updated_at
		FROM macro_goals
		WHERE user_id = $1
	`

	var g storage.MacroGoals
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&g.UserID,
		&g.Macros.Calories,
		&g.Macros.Protein,
		&g.Macros.Carbs,
		&g.Macros.Fat,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get macro goals: %w", err)
	}

	return &g, nil
}

func (s *goalsStorage) UpsertGoals(ctx context.Context, userID uuid.UUID, macros storage.Macros) (*storage.MacroGoals, error) {
	query := `
		INSERT INTO macro_goals (user_id, calories, protein, carbs, fat)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id)
		DO UPDATE SET
			calories = EXCLUDED.calories,
			protein = EXCLUDED.protein,
			carbs = EXCLUDED.carbs,
			fat = EXCLUDED.fat,
			updated_at = now()
		RETURNING user_id, calories, protein, carbs, fat, created_at, updated_at
	`

	var g storage.MacroGoals
	err := s.pool.QueryRow(ctx, query, userID, macros.Calories, macros.Protein, macros.Carbs, macros.Fat).Scan(
		&g.UserID,
		&g.Macros.Calories,
		&g.Macros.Protein,
		&g.Macros.Carbs,
		&g.Macros.Fat,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert macro goals: %w", err)
	}

	return &g, nil
}
