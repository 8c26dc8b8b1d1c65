package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type workoutsStorage struct {
	pool *pgxpool.Pool
}

const sessionColumns = `id, user_id, name, kind, started_at, ended_at, duration_minutes`

const setColumns = `id, session_id, user_id, exercise_id, set_number, weight_lbs, reps, completed_at`

func (s *workoutsStorage) CreateSession(ctx context.Context, session *storage.WorkoutSession) error {
	query := `
		INSERT INTO workout_sessions (id, user_id, name, kind, started_at, ended_at, duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	_, err := s.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Name,
		session.Kind,
		session.StartedAt,
		session.EndedAt,
		session.DurationMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to create workout session: %w", err)
	}

	return nil
}

func (s *workoutsStorage) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*storage.WorkoutSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM workout_sessions WHERE id = $1 AND user_id = $2`

	sess, err := scanSession(s.pool.QueryRow(ctx, query, sessionID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workout session: %w", err)
	}

	return sess, nil
}

func (s *workoutsStorage) ListSessions(ctx context.Context, userID uuid.UUID, limit int) ([]storage.WorkoutSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM workout_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT NULLIF($2::int, 0)
	`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout sessions: %w", err)
	}
	return collectSessions(rows)
}

func (s *workoutsStorage) ListSessionsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]storage.WorkoutSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM workout_sessions
		WHERE user_id = $1 AND started_at >= $2 AND started_at < $3
		ORDER BY started_at ASC
	`

	rows, err := s.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout sessions: %w", err)
	}
	return collectSessions(rows)
}

func (s *workoutsStorage) EndSession(ctx context.Context, userID, sessionID uuid.UUID, endedAt time.Time, durationMinutes int) (*storage.WorkoutSession, error) {
	query := `
		UPDATE workout_sessions
		SET ended_at = $3, duration_minutes = $4
		WHERE id = $1 AND user_id = $2
		RETURNING ` + sessionColumns

	sess, err := scanSession(s.pool.QueryRow(ctx, query, sessionID, userID, endedAt, durationMinutes))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to end workout session: %w", err)
	}

	return sess, nil
}

// AddSet locks the owning session row so that a zero SetNumber is replaced by
// the next number for the exercise without racing concurrent inserts.
func (s *workoutsStorage) AddSet(ctx context.Context, set *storage.WorkoutSet) error {
	if set.ID == uuid.Nil {
		set.ID = uuid.New()
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var locked uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT id FROM workout_sessions WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			set.SessionID, set.UserID,
		).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}

		if set.SetNumber == 0 {
			err = tx.QueryRow(ctx,
				`SELECT COALESCE(MAX(set_number), 0) + 1 FROM workout_sets WHERE session_id = $1 AND exercise_id = $2`,
				set.SessionID, set.ExerciseID,
			).Scan(&set.SetNumber)
			if err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO workout_sets (id, session_id, user_id, exercise_id, set_number, weight_lbs, reps, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			set.ID,
			set.SessionID,
			set.UserID,
			set.ExerciseID,
			set.SetNumber,
			set.WeightLbs,
			set.Reps,
			set.CompletedAt,
		)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to add workout set: %w", err)
	}

	return nil
}

func (s *workoutsStorage) ListSets(ctx context.Context, userID, sessionID uuid.UUID) ([]storage.WorkoutSet, error) {
	if _, err := s.GetSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + setColumns + `
		FROM workout_sets
		WHERE session_id = $1 AND user_id = $2
		ORDER BY completed_at ASC
	`

	rows, err := s.pool.Query(ctx, query, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout sets: %w", err)
	}
	return collectSets(rows)
}

func (s *workoutsStorage) ListSetsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]storage.WorkoutSet, error) {
	query := `
		SELECT ` + setColumns + `
		FROM workout_sets
		WHERE user_id = $1 AND completed_at >= $2 AND completed_at < $3
		ORDER BY completed_at ASC
	`

	rows, err := s.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout sets: %w", err)
	}
	return collectSets(rows)
}

func (s *workoutsStorage) ListAllSets(ctx context.Context, userID uuid.UUID) ([]storage.WorkoutSet, error) {
	query := `
		SELECT ` + setColumns + `
		FROM workout_sets
		WHERE user_id = $1
		ORDER BY completed_at ASC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout sets: %w", err)
	}
	return collectSets(rows)
}

func scanSession(row pgx.Row) (*storage.WorkoutSession, error) {
	var sess storage.WorkoutSession
	err := row.Scan(
		&sess.ID,
		&sess.UserID,
		&sess.Name,
		&sess.Kind,
		&sess.StartedAt,
		&sess.EndedAt,
		&sess.DurationMinutes,
	)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func collectSessions(rows pgx.Rows) ([]storage.WorkoutSession, error) {
	defer rows.Close()

	result := []storage.WorkoutSession{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workout session: %w", err)
		}
		result = append(result, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workout sessions: %w", err)
	}
	return result, nil
}

func collectSets(rows pgx.Rows) ([]storage.WorkoutSet, error) {
	defer rows.Close()

	result := []storage.WorkoutSet{}
	for rows.Next() {
		var set storage.WorkoutSet
		err := rows.Scan(
			&set.ID,
			&set.SessionID,
			&set.UserID,
			&set.ExerciseID,
			&set.SetNumber,
			&set.WeightLbs,
			&set.Reps,
			&set.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workout set: %w", err)
		}
		result = append(result, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workout sets: %w", err)
	}
	return result, nil
}
