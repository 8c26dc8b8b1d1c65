package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/fitness-hub/internal/config"
	"github.com/fdg312/fitness-hub/internal/dbmigrate"
	"github.com/fdg312/fitness-hub/internal/httpserver"
	"github.com/fdg312/fitness-hub/internal/logging"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	hostname, _ := os.Hostname()
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogFile,
		LogToStdout:      true,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogJSON,
		Environment:      cfg.Env,
		SentryDSN:        cfg.SentryDSN,
		SentryServerName: hostname,
	})

	printStartupBanner(cfg)

	if problems := cfg.ValidateProduction(); len(problems) > 0 {
		log.Fatalf("invalid production config: %s", strings.Join(problems, "; "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrationsOnStartup {
		target, err := dbmigrate.SelectTarget(cfg, true)
		if err != nil {
			log.Fatalf("startup migrations: %s", err)
		}

		log.Infof("startup migrations: command=up using=%s", target.Source)
		if err := dbmigrate.Run(ctx, "up", target.URL, dbmigrate.DefaultMigrationsDir); err != nil {
			log.Fatalf("startup migrations failed: %s", err)
		}
		log.Info("startup migrations: completed")
	}

	server, err := httpserver.New(ctx, cfg)
	if err != nil {
		log.Fatalf("create server: %s", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Errorf("server stopped: %s", err)
		}
		if closeErr := server.Close(); closeErr != nil {
			log.Errorf("close server: %s", closeErr)
		}
		os.Exit(1)
	case <-ctx.Done():
		log.Info("received interrupt signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("graceful shutdown: %s", err)
	}
	if err := <-serveErr; err != nil {
		log.Errorf("server stopped: %s", err)
	}
	log.Info("server shut down")
}

// printStartupBanner logs the resolved configuration. Secrets only show as set / not set.
func printStartupBanner(cfg *config.Config) {
	log.Info("========== Fitness Hub API ==========")
	log.Infof("  env              = %s", cfg.Env)
	log.Infof("  port             = %d", cfg.Port)
	log.Infof("  log_level        = %s", cfg.LogLevel)

	log.Info("---- database ----")
	log.Infof("  runtime_url      = %s", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled))
	log.Infof("  direct           = %s", setOrNot(cfg.DatabaseURLDirect))
	log.Infof("  migrations_on_startup = %t", cfg.RunMigrationsOnStartup)

	log.Info("---- auth ----")
	log.Infof("  jwt_secret       = %s", secretStatus(cfg.JWTSecret))
	log.Infof("  jwt_ttl_minutes  = %d", cfg.JWTTTLMinutes)
	log.Infof("  redis            = %s", nonEmptyOrDash(cfg.RedisAddr))

	log.Info("---- blob ----")
	log.Infof("  blob_mode        = %s", cfg.Blob.Mode)
	if cfg.Blob.Mode != config.BlobModeLocal {
		log.WithFields(cfg.Blob.S3.LogFields()).Infof("  s3: %s", cfg.Blob.S3.State())
	}

	log.Info("---- ai ----")
	log.Infof("  ai_mode          = %s", cfg.AIMode)
	if cfg.AIMode == config.AIModeOpenAI {
		log.Infof("  openai_model     = %s", cfg.OpenAIModel)
		log.Infof("  openai_api_key   = %s", setOrNot(cfg.OpenAIAPIKey))
	}

	log.Info("=====================================")
}

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func nonEmptyOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func secretStatus(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return "not set"
	case v == config.DefaultJWTSecret:
		return fmt.Sprintf("set (DEFAULT, insecure %q)", v)
	default:
		return "set (custom)"
	}
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set (will use in-memory storage)"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}
