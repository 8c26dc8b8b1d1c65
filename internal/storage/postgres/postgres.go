package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ storage.Storage = (*PostgresStorage)(nil)

const uniqueViolation = "23505"

// PostgresStorage is the pgx-backed implementation of storage.Storage.
type PostgresStorage struct {
	pool *pgxpool.Pool

	*goalsStorage
	*workoutsStorage
	*foodLogStorage
	*mealPlansStorage
}

// New connects to Postgres and verifies the connection.
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStorage{
		pool:             pool,
		goalsStorage:     &goalsStorage{pool: pool},
		workoutsStorage:  &workoutsStorage{pool: pool},
		foodLogStorage:   &foodLogStorage{pool: pool},
		mealPlansStorage: &mealPlansStorage{pool: pool},
	}, nil
}

// Pool exposes the connection pool for metrics collection.
func (p *PostgresStorage) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresStorage) CreateUser(ctx context.Context, user *storage.User) error {
	query := `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = strings.ToLower(user.Email)

	err := p.pool.QueryRow(ctx, query, user.ID, user.Email, user.PasswordHash).Scan(&user.CreatedAt)
	if isUniqueViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (p *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`

	return p.scanUser(p.pool.QueryRow(ctx, query, strings.ToLower(email)))
}

func (p *PostgresStorage) GetUser(ctx context.Context, id uuid.UUID) (*storage.User, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`

	return p.scanUser(p.pool.QueryRow(ctx, query, id))
}

func (p *PostgresStorage) scanUser(row pgx.Row) (*storage.User, error) {
	var u storage.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
