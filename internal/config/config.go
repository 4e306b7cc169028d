package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "change-me"

type Config struct {
	Port             string        `mapstructure:"APP_PORT"`
	Env              string        `mapstructure:"APP_ENV"`
	DatabaseDriver   string        `mapstructure:"DATABASE_DRIVER"`
	DatabaseDSN      string        `mapstructure:"DATABASE_DSN"`
	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	JWTTTL           time.Duration `mapstructure:"JWT_TTL"`
	RabbitMQURL      string        `mapstructure:"RABBITMQ_URL"`
	RabbitMQExchange string        `mapstructure:"RABBITMQ_EXCHANGE"`
	RabbitMQQueue    string        `mapstructure:"RABBITMQ_QUEUE"`
	RedisURL         string        `mapstructure:"REDIS_URL"`
	SelectCacheTTL   time.Duration `mapstructure:"SELECT_CACHE_TTL"`
	UploadDriver     string        `mapstructure:"UPLOAD_DRIVER"`
	UploadDir        string        `mapstructure:"UPLOAD_DIR"`
	UploadMaxBytes   int64         `mapstructure:"UPLOAD_MAX_BYTES"`
	S3Bucket         string        `mapstructure:"S3_BUCKET"`
	S3Region         string        `mapstructure:"S3_REGION"`
	S3Prefix         string        `mapstructure:"S3_PREFIX"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	LogFormat        string        `mapstructure:"LOG_FORMAT"`
	LogEnabled       bool          `mapstructure:"LOG_ENABLED"`
}

var defaults = map[string]interface{}{
	"APP_PORT":          ":8080",
	"APP_ENV":           "development",
	"DATABASE_DRIVER":   "postgres",
	"DATABASE_DSN":      "host=127.0.0.1 user=postgres password=postgres dbname=farmacia port=5432 sslmode=disable",
	"JWT_SECRET":        DefaultJWTSecret,
	"JWT_TTL":           "24h",
	"RABBITMQ_URL":      "",
	"RABBITMQ_EXCHANGE": "farmacia.events",
	"RABBITMQ_QUEUE":    "medicamento_events",
	"REDIS_URL":         "",
	"SELECT_CACHE_TTL":  "5m",
	"UPLOAD_DRIVER":     "local",
	"UPLOAD_DIR":        "public/uploads",
	"UPLOAD_MAX_BYTES":  5 * 1024 * 1024,
	"S3_BUCKET":         "",
	"S3_REGION":         "us-east-1",
	"S3_PREFIX":         "medicamentos/",
	"LOG_LEVEL":         "info",
	"LOG_FORMAT":        "",
	"LOG_ENABLED":       true,
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is fine; a
// malformed one is an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
		// Bind explicitly so Unmarshal picks up environment overrides.
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DatabaseDriver = strings.ToLower(cfg.DatabaseDriver)
	cfg.UploadDriver = strings.ToLower(cfg.UploadDriver)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
		if cfg.IsDev() {
			cfg.LogFormat = "console"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is consistent enough to start.
func (c *Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be \"postgres\" or \"sqlite\", got %q", c.DatabaseDriver))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN is required"))
	}

	switch c.UploadDriver {
	case "local":
		if c.UploadDir == "" {
			errs = append(errs, errors.New("UPLOAD_DIR is required when UPLOAD_DRIVER is \"local\""))
		}
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when UPLOAD_DRIVER is \"s3\""))
		}
	default:
		errs = append(errs, fmt.Errorf("UPLOAD_DRIVER must be \"local\" or \"s3\", got %q", c.UploadDriver))
	}
	if c.UploadMaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be changed in production"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}

	return errors.Join(errs...)
}
