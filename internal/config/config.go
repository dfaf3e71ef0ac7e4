package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Env        string `mapstructure:"env"`
	ServerPort string `mapstructure:"server_port"`

	DatabaseType   string `mapstructure:"database_type"` // sqlite, postgres or mysql
	DatabasePath   string `mapstructure:"database_path"` // sqlite only
	DatabaseURL    string `mapstructure:"-"`             // postgres/mysql DSN, loaded from environment
	MigrationsPath string `mapstructure:"migrations_path"`
	DBMaxOpenConns int    `mapstructure:"database_max_open_conns"` // 0 keeps the engine default

	LocalEngine string `mapstructure:"local_engine"` // sqlite or json
	LocalPath   string `mapstructure:"local_path"`

	RemoteTimeout  time.Duration `mapstructure:"remote_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	OutboxInterval time.Duration `mapstructure:"outbox_interval"`
	SessionSize    int           `mapstructure:"session_size"`

	WordBankDir string `mapstructure:"wordbank_dir"` // empty uses the embedded banks

	JWTSecret       string        `mapstructure:"-"`
	SessionDuration time.Duration `mapstructure:"session_duration"`

	AWSRegion      string `mapstructure:"aws_region"`
	ReportFrom     string `mapstructure:"report_from"`
	ReportFromName string `mapstructure:"report_from_name"`
	ReportSchedule string `mapstructure:"report_schedule"`
}

// ErrMissingSecret is returned when no JWT secret is configured outside local mode
var ErrMissingSecret = errors.New("missing required environment variable JWT_SECRET")

// Load reads configuration from an optional config file, .env and environment variables
func Load() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("server_port", "PORT")
	_ = v.BindEnv("database_type", "DB_TYPE")
	_ = v.BindEnv("database_path", "DB_PATH")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("migrations_path", "MIGRATIONS_PATH")
	_ = v.BindEnv("database_max_open_conns", "DB_MAX_OPEN_CONNS")
	_ = v.BindEnv("local_engine", "LOCAL_ENGINE")
	_ = v.BindEnv("local_path", "LOCAL_PATH")
	_ = v.BindEnv("wordbank_dir", "WORDBANK_DIR")
	_ = v.BindEnv("jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("aws_region", "AWS_REGION")
	_ = v.BindEnv("report_from", "SES_FROM_EMAIL")
	_ = v.BindEnv("report_from_name", "SES_FROM_NAME")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	cfg.DatabaseURL = v.GetString("database_url")
	cfg.JWTSecret = v.GetString("jwt_secret")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("server_port", "8080")
	v.SetDefault("database_type", "sqlite")
	v.SetDefault("database_path", "./galactic.db")
	v.SetDefault("migrations_path", "")
	v.SetDefault("database_max_open_conns", 0)
	v.SetDefault("local_engine", "sqlite")
	v.SetDefault("local_path", "./device/local.db")
	v.SetDefault("remote_timeout", "5s")
	v.SetDefault("max_retries", 3)
	v.SetDefault("outbox_interval", "30s")
	v.SetDefault("session_size", 10)
	v.SetDefault("wordbank_dir", "")
	v.SetDefault("session_duration", "24h")
	v.SetDefault("aws_region", "eu-west-1")
	v.SetDefault("report_from", "")
	v.SetDefault("report_from_name", "Galactische Vrienden")
	v.SetDefault("report_schedule", "0 18 * * 0")
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.Env != "local" {
			return ErrMissingSecret
		}
		c.JWTSecret = "local-development-secret"
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("remote_timeout must be positive, got %s", c.RemoteTimeout)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.DBMaxOpenConns < 0 {
		return fmt.Errorf("database_max_open_conns must not be negative, got %d", c.DBMaxOpenConns)
	}
	if c.SessionSize < 1 {
		return fmt.Errorf("session_size must be at least 1, got %d", c.SessionSize)
	}
	return nil
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
