package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the ContentGen server.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	AI       AIConfig
	Jobs     JobsConfig
}

type ServerConfig struct {
	Port            int
	Env             string
	CORSOrigins     []string
	RateLimitPerMin int
}

type LogConfig struct {
	Level slog.Level
	File  string
}

type StoreConfig struct {
	Backend string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	Mode string
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	PromptsFile      string
	Poe              PoeConfig
}

type PoeConfig struct {
	APIKey  string
	BaseURL string
}

type JobsConfig struct {
	VideoTimeout   time.Duration
	WebhookTimeout time.Duration
	Retention      time.Duration
	SweepInterval  time.Duration
}

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	AuthModeHeader = "header"
	AuthModeAPIKey = "apikey"

	ProviderPoe  = "poe"
	ProviderMock = "mock"
)

var validProviders = map[string]bool{
	ProviderPoe:  true,
	ProviderMock: true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("CONTENTGEN_PORT", 8000),
			Env:             envString("CONTENTGEN_ENV", "development"),
			CORSOrigins:     envList("CORS_ORIGINS", []string{"*"}),
			RateLimitPerMin: envInt("RATE_LIMIT_PER_MIN", 60),
		},
		Log: LogConfig{
			Level: envLevel("LOG_LEVEL", slog.LevelInfo),
			File:  os.Getenv("LOG_FILE"),
		},
		Store: StoreConfig{
			Backend: envString("STORE_BACKEND", StoreMemory),
		},
		Database: databaseFromEnv(),
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Auth: AuthConfig{
			Mode: envString("AUTH_MODE", AuthModeHeader),
		},
		AI: AIConfig{
			Provider:         envString("AI_PROVIDER", ProviderPoe),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 120*time.Second),
			PromptsFile:      os.Getenv("PROMPTS_FILE"),
			Poe: PoeConfig{
				APIKey:  os.Getenv("POE_API_KEY"),
				BaseURL: envString("POE_BASE_URL", "https://api.poe.com/v1"),
			},
		},
		Jobs: JobsConfig{
			VideoTimeout:   envDurationSecs("VIDEO_TIMEOUT_SECS", 10*time.Minute),
			WebhookTimeout: envDuration("WEBHOOK_TIMEOUT", 10*time.Second),
			Retention:      envDuration("JOB_RETENTION", 24*time.Hour),
			SweepInterval:  envDuration("SWEEP_INTERVAL", time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase reads only the database settings. Admin tooling uses it so it
// does not need the server's Redis and provider settings.
func LoadDatabase() (DatabaseConfig, error) {
	db := databaseFromEnv()
	if db.URL == "" {
		return db, fmt.Errorf("DATABASE_URL is required")
	}
	return db, nil
}

func databaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		URL:             os.Getenv("DATABASE_URL"),
		MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is postgres")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of memory, postgres; got %q", c.Store.Backend)
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	switch c.Auth.Mode {
	case AuthModeHeader:
	case AuthModeAPIKey:
		if c.Store.Backend != StorePostgres {
			return fmt.Errorf("AUTH_MODE apikey requires STORE_BACKEND postgres")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of header, apikey; got %q", c.Auth.Mode)
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of poe, mock; got %q", c.AI.Provider)
	}
	if c.AI.Provider == ProviderPoe && c.AI.Poe.APIKey == "" {
		return fmt.Errorf("POE_API_KEY is required when AI_PROVIDER is poe")
	}

	if c.Jobs.VideoTimeout <= 0 {
		return fmt.Errorf("VIDEO_TIMEOUT_SECS must be positive")
	}
	if c.Jobs.SweepInterval < time.Second {
		return fmt.Errorf("SWEEP_INTERVAL must be at least 1s, got %s", c.Jobs.SweepInterval)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func envLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return lvl
}
