package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const EnvProduction = "production"

type Config struct {
	// Database (all required)
	DBHost     string `envconfig:"DB_HOST" validate:"required"`
	DBPort     int    `envconfig:"DB_PORT" validate:"required,min=1,max=65535"`
	DBName     string `envconfig:"DB_NAME" validate:"required"`
	DBUser     string `envconfig:"DB_USER" validate:"required"`
	DBPassword string `envconfig:"DB_PASSWORD" validate:"required"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// Connection pool
	DBMaxConns       int           `envconfig:"DB_MAX_CONNS" default:"10" validate:"min=1"`
	DBIdleTimeout    time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"20s"`
	DBConnectTimeout time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"10s" validate:"min=1s"`

	ServerPort  int      `envconfig:"PORT" default:"3002" validate:"min=1,max=65535"`
	Environment string   `envconfig:"ENVIRONMENT" default:"development"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	// Redis is optional: without it the change feed and rate limiting are off
	RedisURL string `envconfig:"REDIS_URL"`

	// Rate limiting
	RateLimitMaxRequests int           `envconfig:"RATE_LIMIT_MAX_REQUESTS" default:"100" validate:"min=1"`
	RateLimitWindow      time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m" validate:"min=1s"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report env var names instead of Go field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("envconfig")
	})
	return v
}

// Load reads the process environment (plus an optional .env file) and validates it.
// Every missing required variable is reported in one error.
func Load() (*Config, error) {
	// A missing .env is fine: containers pass variables directly
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("config: %w", err)
	}

	var missing, invalid []string
	for _, fe := range validationErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid = append(invalid, fmt.Sprintf("%s (%s=%s)", fe.Field(), fe.Tag(), fe.Param()))
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required environment variables: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid environment variables: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("config: %s", strings.Join(parts, "; "))
}

// IsProduction controls verbose error bodies and debug logging
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// RedisEnabled reports whether the optional Redis features should start
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}
