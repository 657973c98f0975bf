package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"github.com/soaringjerry/Talentflow/internal/utils"
)

type ChaosConfig struct {
	Enabled         bool
	LatencyMin      time.Duration
	LatencyMax      time.Duration
	FailRate        float64
	ReorderFailRate float64
}

type Config struct {
	Addr          string
	Env           string
	SQLitePath    string
	MigrationsDir string
	JWTSecret     string
	StrictSubmit  bool

	Chaos ChaosConfig

	NATSURL         string
	NATSConnTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	OTelEndpoint string

	Commit    string
	BuildTime string
}

// Development reports whether human readable logs and dev defaults are wanted.
func (c *Config) Development() bool { return c.Env == "development" }

// Load reads an optional .env file (or the given files) and then the process environment.
// Values already present in the environment take precedence over the files.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	cfg := &Config{
		Addr:          utils.SafeEnv("TALENTFLOW_ADDR", ":8080"),
		Env:           utils.SafeEnv("TALENTFLOW_ENV", "production"),
		SQLitePath:    utils.SafeEnv("TALENTFLOW_SQLITE_PATH", "talentflow.sqlite"),
		MigrationsDir: utils.SafeEnv("TALENTFLOW_MIGRATIONS_DIR", ""),
		JWTSecret:     utils.SafeEnv("TALENTFLOW_JWT_SECRET", ""),
		StrictSubmit:  utils.EnvBool("TALENTFLOW_STRICT_SUBMIT", false),
		Chaos: ChaosConfig{
			Enabled:         utils.EnvBool("TALENTFLOW_CHAOS_ENABLED", false),
			LatencyMin:      utils.EnvDuration("TALENTFLOW_CHAOS_LATENCY_MIN", 200*time.Millisecond),
			LatencyMax:      utils.EnvDuration("TALENTFLOW_CHAOS_LATENCY_MAX", 1200*time.Millisecond),
			FailRate:        utils.EnvFloat("TALENTFLOW_CHAOS_FAIL_RATE", 0.08),
			ReorderFailRate: utils.EnvFloat("TALENTFLOW_CHAOS_REORDER_FAIL_RATE", 0.1),
		},
		NATSURL:         utils.SafeEnv("TALENTFLOW_NATS_URL", ""),
		NATSConnTimeout: utils.EnvDuration("TALENTFLOW_NATS_CONN_TIMEOUT", 5*time.Second),
		RedisAddr:       utils.SafeEnv("TALENTFLOW_REDIS_ADDR", ""),
		RedisPassword:   utils.SafeEnv("TALENTFLOW_REDIS_PASSWORD", ""),
		RedisDB:         utils.EnvInt("TALENTFLOW_REDIS_DB", 0),
		CacheTTL:        utils.EnvDuration("TALENTFLOW_CACHE_TTL", 10*time.Minute),
		OTelEndpoint:    utils.SafeEnv("TALENTFLOW_OTEL_ENDPOINT", ""),
		Commit:          utils.SafeEnv("TALENTFLOW_COMMIT", ""),
		BuildTime:       utils.SafeEnv("TALENTFLOW_BUILD_TIME", ""),
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.SQLitePath == "" {
		return errors.New("TALENTFLOW_SQLITE_PATH must not be empty")
	}
	ch := c.Chaos
	if ch.LatencyMin < 0 || ch.LatencyMax < ch.LatencyMin {
		return fmt.Errorf("chaos latency range %s..%s is invalid", ch.LatencyMin, ch.LatencyMax)
	}
	if ch.FailRate < 0 || ch.FailRate > 1 || ch.ReorderFailRate < 0 || ch.ReorderFailRate > 1 {
		return errors.New("chaos failure rates must be within [0, 1]")
	}
	return nil
}
