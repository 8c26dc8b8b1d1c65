package dbmigrate

import (
	"errors"

	"github.com/fdg312/fitness-hub/internal/config"
)

const DefaultMigrationsDir = "migrations"

var (
	ErrNoDatabaseURL     = errors.New("no database URL configured (set DATABASE_URL_DIRECT or DATABASE_URL)")
	ErrDirectURLRequired = errors.New("DATABASE_URL_DIRECT is required for DDL/migrations")
)

// Target is the connection migrations run against.
type Target struct {
	URL     string
	Source  string // env var the URL came from
	Warning string
}

// SelectTarget picks the migration URL: DIRECT > DATABASE_URL > POOLED (with a warning).
// With requireDirect only DATABASE_URL_DIRECT is accepted.
func SelectTarget(cfg *config.Config, requireDirect bool) (Target, error) {
	if cfg.DatabaseURLDirect != "" {
		return Target{URL: cfg.DatabaseURLDirect, Source: "DATABASE_URL_DIRECT"}, nil
	}
	if requireDirect {
		return Target{}, ErrDirectURLRequired
	}

	switch {
	case cfg.DatabaseURLRaw != "":
		return Target{URL: cfg.DatabaseURLRaw, Source: "DATABASE_URL"}, nil
	case cfg.DatabaseURLPooled != "":
		return Target{
			URL:     cfg.DatabaseURLPooled,
			Source:  "DATABASE_URL_POOLED",
			Warning: "using pooled connection for DDL is not recommended; set DATABASE_URL_DIRECT",
		}, nil
	}

	return Target{}, ErrNoDatabaseURL
}
