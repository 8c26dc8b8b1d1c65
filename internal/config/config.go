package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	BlobModeLocal = "local"
	BlobModeS3    = "s3"
	BlobModeAuto  = "auto"

	AIModeMock   = "mock"
	AIModeOpenAI = "openai"

	DefaultJWTSecret = "change_me"
)

type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// MissingRequired lists the env vars an S3 export store still needs.
func (c S3Config) MissingRequired() []string {
	required := []struct{ env, value string }{
		{"S3_ENDPOINT", c.Endpoint},
		{"S3_REGION", c.Region},
		{"S3_BUCKET", c.Bucket},
		{"S3_ACCESS_KEY_ID", c.AccessKeyID},
		{"S3_SECRET_ACCESS_KEY", c.SecretAccessKey},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.env)
		}
	}
	return missing
}

func (c S3Config) IsConfigured() bool {
	return len(c.MissingRequired()) == 0
}

type S3State string

const (
	S3NotConfigured S3State = "s3_not_configured"
	S3Partial       S3State = "s3_partial_config"
	S3Ready         S3State = "s3_ready"
)

func (c S3Config) State() S3State {
	switch len(c.MissingRequired()) {
	case 0:
		return S3Ready
	case 5:
		return S3NotConfigured
	default:
		return S3Partial
	}
}

// LogFields describes the config for startup logs. Credentials are reported
// only as present or absent.
func (c S3Config) LogFields() map[string]any {
	return map[string]any{
		"endpoint":          c.Endpoint,
		"region":            c.Region,
		"bucket":            c.Bucket,
		"path_style":        c.UsePathStyle,
		"access_key_id":     strings.TrimSpace(c.AccessKeyID) != "",
		"secret_access_key": strings.TrimSpace(c.SecretAccessKey) != "",
	}
}

type BlobConfig struct {
	Mode string // local|s3|auto
	S3   S3Config
}

// Config holds the application configuration.
type Config struct {
	Env      string // local | staging | prod
	Port     int
	LogLevel string
	LogJSON  bool
	LogFile  string

	SentryDSN string

	// Database
	DatabaseURL       string // runtime connection (resolved: pooled > url > direct)
	DatabaseURLRaw    string // DATABASE_URL as provided
	DatabaseURLPooled string // DATABASE_URL_POOLED as provided
	DatabaseURLDirect string // for migrations / DDL (may be empty)

	// CORS
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// Rate Limiting
	RateLimitRPS   int
	RateLimitBurst int

	// per IP and minute on signup/signin, enforced only when Redis is configured
	AuthRateLimitPerMin int

	// Authentication
	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int
	BcryptCost    int

	// Redis (token revocation); empty address keeps revocations in memory
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Blob storage for meal plan exports
	Blob                    BlobConfig
	ExportPresignTTLSeconds int

	// AI
	AIMode           string // mock | openai
	AITimeoutSeconds int
	AIMaxTokens      int
	AITemperature    float64
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string

	// Exercise search cache
	SearchCacheMB int

	// Migrations
	RunMigrationsOnStartup bool
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Env))
	return env == "prod" || env == "production"
}

// Load reads the configuration from environment variables.
func Load() *Config {
	env := envString("APP_ENV", envString("ENV", "local"))

	// runtime pool prefers the pooled URL; the direct URL is last because
	// poolers often reject it
	dbPooled := envString("DATABASE_URL_POOLED", "")
	dbURL := envString("DATABASE_URL", "")
	dbDirect := envString("DATABASE_URL_DIRECT", "")
	runtimeDB := firstNonEmpty(dbPooled, dbURL, dbDirect)

	jwtSecret := envString("JWT_SECRET", DefaultJWTSecret)
	if jwtSecret == DefaultJWTSecret && env != "local" {
		log.Warn("JWT_SECRET is set to 'change_me' in non-local environment!")
	}

	bcryptCost := envInt("BCRYPT_COST", 10)
	if bcryptCost < 4 || bcryptCost > 31 {
		log.Warnf("BCRYPT_COST=%d out of range, fallback to 10", bcryptCost)
		bcryptCost = 10
	}

	aiMode := strings.ToLower(envString("AI_MODE", AIModeMock))
	if aiMode != AIModeMock && aiMode != AIModeOpenAI {
		log.Warnf("unknown AI_MODE=%q, fallback to mock", aiMode)
		aiMode = AIModeMock
	}
	openAIAPIKey := envString("OPENAI_API_KEY", "")
	if aiMode == AIModeOpenAI && openAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY is required when AI_MODE=openai")
	}

	aiTemperature := envFloat("AI_TEMPERATURE", 0.4)
	aiTemperature = max(0, min(aiTemperature, 2))

	return &Config{
		Env:       env,
		Port:      envInt("PORT", 8080),
		LogLevel:  envString("LOG_LEVEL", "debug"),
		LogJSON:   parseBoolEnv("LOG_JSON"),
		LogFile:   envString("LOG_FILE", ""),
		SentryDSN: envString("SENTRY_DSN", ""),

		DatabaseURL:       runtimeDB,
		DatabaseURLRaw:    dbURL,
		DatabaseURLPooled: dbPooled,
		DatabaseURLDirect: dbDirect,

		CORSAllowedOrigins:   parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"), env),
		CORSAllowCredentials: parseBoolEnv("CORS_ALLOW_CREDENTIALS"),

		RateLimitRPS:        envInt("RATE_LIMIT_RPS", 0),
		RateLimitBurst:      envInt("RATE_LIMIT_BURST", 0),
		AuthRateLimitPerMin: envInt("AUTH_RATE_LIMIT_PER_MIN", 10),

		JWTSecret:     jwtSecret,
		JWTIssuer:     envString("JWT_ISSUER", "fitness-hub"),
		JWTTTLMinutes: envPositiveInt("JWT_TTL_MINUTES", 10080),
		BcryptCost:    bcryptCost,

		RedisAddr:     envString("REDIS_ADDR", ""),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		Blob: BlobConfig{
			Mode: parseBlobMode("BLOB_MODE", BlobModeLocal),
			S3: S3Config{
				Endpoint:        envString("S3_ENDPOINT", ""),
				Region:          envString("S3_REGION", ""),
				Bucket:          envString("S3_BUCKET", ""),
				AccessKeyID:     envString("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: envString("S3_SECRET_ACCESS_KEY", ""),
				UsePathStyle:    parseBoolEnv("S3_USE_PATH_STYLE"),
			},
		},
		ExportPresignTTLSeconds: envPositiveInt("EXPORT_PRESIGN_TTL_SECONDS", 900),

		AIMode:           aiMode,
		AITimeoutSeconds: envPositiveInt("AI_TIMEOUT_SECONDS", 30),
		AIMaxTokens:      envPositiveInt("AI_MAX_OUTPUT_TOKENS", 2000),
		AITemperature:    aiTemperature,
		OpenAIAPIKey:     openAIAPIKey,
		OpenAIModel:      envString("OPENAI_MODEL", "gpt-4.1-mini"),
		OpenAIBaseURL:    strings.TrimRight(envString("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),

		SearchCacheMB: envPositiveInt("SEARCH_CACHE_MB", 16),

		RunMigrationsOnStartup: parseBoolEnv("RUN_MIGRATIONS_ON_STARTUP"),
	}
}

// ValidateProduction returns the problems that must stop a production start.
func (c *Config) ValidateProduction() []string {
	if !c.IsProduction() {
		return nil
	}

	var problems []string
	if c.JWTSecret == DefaultJWTSecret || len(c.JWTSecret) < 32 {
		problems = append(problems, "JWT_SECRET must be set to at least 32 characters")
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		problems = append(problems, "DATABASE_URL (or DATABASE_URL_POOLED) is required")
	}
	if c.Blob.Mode == BlobModeS3 && !c.Blob.S3.IsConfigured() {
		problems = append(problems, fmt.Sprintf("BLOB_MODE=s3 but missing %s", strings.Join(c.Blob.S3.MissingRequired(), ", ")))
	}
	return problems
}

// parseCORSOrigins parses CORS_ALLOWED_ORIGINS env var.
// In local mode, defaults to localhost origins if empty.
func parseCORSOrigins(raw, env string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if env == "local" {
			return []string{"http://localhost:3000", "http://localhost:8081"}
		}
		return nil // prod: deny by default
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func parseBlobMode(key string, defaultVal string) string {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if mode == "" {
		return defaultVal
	}
	switch mode {
	case BlobModeLocal, BlobModeS3, BlobModeAuto:
		return mode
	default:
		log.Warnf("unknown %s=%q, fallback to %s", key, mode, defaultVal)
		return defaultVal
	}
}

func envString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// envPositiveInt is envInt that also rejects zero and negatives.
func envPositiveInt(key string, defaultVal int) int {
	if v := envInt(key, defaultVal); v > 0 {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func envFloat(key string, defaultVal float64) float64 {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
