package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type mealPlansStorage struct {
	pool *pgxpool.Pool
}

const planColumns = `id, user_id, title, source, start_date, end_date, meals, shopping_list, created_at, updated_at`

func (s *mealPlansStorage) CreateMealPlan(ctx context.Context, plan *storage.MealPlan) error {
	query := `
		INSERT INTO meal_plans (id, user_id, title, source, start_date, end_date, meals, shopping_list)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}

	mealsJSON, shoppingJSON, err := encodePlanBody(plan)
	if err != nil {
		return err
	}

	err = s.pool.QueryRow(ctx, query,
		plan.ID,
		plan.UserID,
		plan.Title,
		plan.Source,
		plan.StartDate,
		plan.EndDate,
		mealsJSON,
		shoppingJSON,
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create meal plan: %w", err)
	}

	return nil
}

func (s *mealPlansStorage) ReplaceMealPlan(ctx context.Context, plan *storage.MealPlan) error {
	query := `
		UPDATE meal_plans
		SET title = $3, source = $4, start_date = $5, end_date = $6,
			meals = $7, shopping_list = $8, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING created_at, updated_at
	`

	mealsJSON, shoppingJSON, err := encodePlanBody(plan)
	if err != nil {
		return err
	}

	err = s.pool.QueryRow(ctx, query,
		plan.ID,
		plan.UserID,
		plan.Title,
		plan.Source,
		plan.StartDate,
		plan.EndDate,
		mealsJSON,
		shoppingJSON,
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to replace meal plan: %w", err)
	}

	return nil
}

func (s *mealPlansStorage) GetMealPlan(ctx context.Context, userID, planID uuid.UUID) (*storage.MealPlan, error) {
	query := `SELECT ` + planColumns + ` FROM meal_plans WHERE id = $1 AND user_id = $2`

	plan, err := scanPlan(s.pool.QueryRow(ctx, query, planID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal plan: %w", err)
	}

	return plan, nil
}

func (s *mealPlansStorage) ListMealPlans(ctx context.Context, userID uuid.UUID) ([]storage.MealPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM meal_plans
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans: %w", err)
	}
	defer rows.Close()

	plans := []storage.MealPlan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meal plans: %w", err)
	}

	return plans, nil
}

func (s *mealPlansStorage) DeleteMealPlan(ctx context.Context, userID, planID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM meal_plans WHERE id = $1 AND user_id = $2`, planID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete meal plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func encodePlanBody(plan *storage.MealPlan) ([]byte, []byte, error) {
	meals := plan.Meals
	if meals == nil {
		meals = []storage.PlannedMeal{}
	}
	shopping := plan.ShoppingList
	if shopping == nil {
		shopping = []storage.ShoppingItem{}
	}

	mealsJSON, err := json.Marshal(meals)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode meals: %w", err)
	}
	shoppingJSON, err := json.Marshal(shopping)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode shopping list: %w", err)
	}
	return mealsJSON, shoppingJSON, nil
}

func scanPlan(row pgx.Row) (*storage.MealPlan, error) {
	var (
		plan         storage.MealPlan
		mealsJSON    []byte
		shoppingJSON []byte
	)
	err := row.Scan(
		&plan.ID,
		&plan.UserID,
		&plan.Title,
		&plan.Source,
		&plan.StartDate,
		&plan.EndDate,
		&mealsJSON,
		&shoppingJSON,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(mealsJSON, &plan.Meals); err != nil {
		return nil, fmt.Errorf("failed to decode meals: %w", err)
	}
	if err := json.Unmarshal(shoppingJSON, &plan.ShoppingList); err != nil {
		return nil, fmt.Errorf("failed to decode shopping list: %w", err)
	}

	return &plan, nil
}
