// Package config loads devboard settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Port           string   `env:"PORT" envDefault:"3000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	FrontendURL    string   `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	Store  StoreConfig
	Tokens TokenConfig
	Mail   MailConfig
	Log    LogConfig
	Policy PolicyConfig

	TokenSweepInterval time.Duration `env:"TOKEN_SWEEP_INTERVAL" envDefault:"10m"`
}

type StoreConfig struct {
	Driver        string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"devboard"`
}

type TokenConfig struct {
	AccessSecret  string        `env:"ACCESS_TOKEN_SECRET,required"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshSecret string        `env:"REFRESH_TOKEN_SECRET,required"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	OneTimeTTL    time.Duration `env:"ONE_TIME_TOKEN_TTL" envDefault:"20m"`
}

// MailConfig is empty-hosted when mail delivery is disabled.
type MailConfig struct {
	Host        string `env:"MAIL_HOST"`
	Port        int    `env:"MAIL_PORT" envDefault:"587"`
	Username    string `env:"MAIL_USERNAME"`
	Password    string `env:"MAIL_PASSWORD"`
	Sender      string `env:"MAIL_SENDER" envDefault:"no-reply@devboard.local"`
	ProductName string `env:"MAIL_PRODUCT_NAME" envDefault:"Devboard"`
	ProductLink string `env:"MAIL_PRODUCT_LINK" envDefault:"http://localhost:3000"`
}

func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	File  string `env:"LOG_FILE"`
}

// PolicyConfig toggles membership checks that are off by default.
type PolicyConfig struct {
	TaskListRequiresMembership   bool `env:"POLICY_TASK_LIST_REQUIRES_MEMBERSHIP" envDefault:"false"`
	NoteCreateRequiresMembership bool `env:"POLICY_NOTE_CREATE_REQUIRES_MEMBERSHIP" envDefault:"false"`
}

// LoadDotEnv reads a .env file into the process environment if one exists.
func LoadDotEnv(paths ...string) error {
	return godotenv.Load(paths...)
}

func Load() (*Config, error) {
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store driver %q", c.Store.Driver)
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for store driver %q", c.Store.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Tokens.AccessTTL <= 0 || c.Tokens.RefreshTTL <= 0 || c.Tokens.OneTimeTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}

	if c.TokenSweepInterval <= 0 {
		return fmt.Errorf("TOKEN_SWEEP_INTERVAL must be positive")
	}

	return nil
}
