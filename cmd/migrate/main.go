package main

import (
	"context"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/fitness-hub/internal/config"
	"github.com/fdg312/fitness-hub/internal/dbmigrate"
	"github.com/fdg312/fitness-hub/internal/logging"
	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: go run ./cmd/migrate [up|status|down]")
	}

	command := os.Args[1]
	if !dbmigrate.IsSupported(command) {
		log.Fatalf("unsupported command %q (allowed: up, status, down)", command)
	}

	cfg := config.Load()
	logging.Setup(logging.LoggerSetupParams{
		LogToStdout:   true,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogJSON,
	})

	target, err := dbmigrate.SelectTarget(cfg, false)
	if err != nil {
		log.Fatal(err)
	}
	if target.Warning != "" {
		log.Warnf("migrate: %s", target.Warning)
	}
	log.Infof("migrate: command=%s using=%s", command, target.Source)

	if err := dbmigrate.Run(context.Background(), command, target.URL, dbmigrate.DefaultMigrationsDir); err != nil {
		log.Fatal(err)
	}

	log.Infof("migrate: %s completed successfully", command)
}
