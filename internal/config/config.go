package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // chat.timezone must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`   // trace|debug|info|warn|error
	Format string `yaml:"format" envconfig:"FORMAT"` // json|console
}

type StorageConfig struct {
	Driver        string `yaml:"driver" envconfig:"DRIVER"` // memory|sqlite3|postgres|redis|badger
	DSN           string `yaml:"dsn" envconfig:"DSN"`
	RedisAddr     string `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" envconfig:"REDIS_DB"`
	BadgerPath    string `yaml:"badger_path" envconfig:"BADGER_PATH"`
}

type AuthConfig struct {
	CookieSecret string        `yaml:"cookie_secret" envconfig:"COOKIE_SECRET"`
	Latency      time.Duration `yaml:"latency" envconfig:"LATENCY"`
}

type ChatConfig struct {
	Timezone string `yaml:"timezone" envconfig:"TIMEZONE"`
}

type NewsConfig struct {
	Feeds []string `yaml:"feeds" envconfig:"FEEDS"`
}

type SMTPConfig struct {
	Host     string `yaml:"host" envconfig:"HOST"`
	Port     string `yaml:"port" envconfig:"PORT"`
	Username string `yaml:"username" envconfig:"USERNAME"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	From     string `yaml:"from" envconfig:"FROM"`
}

type Config struct {
	Addr    string        `yaml:"addr" envconfig:"ADDR"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Chat    ChatConfig    `yaml:"chat"`
	News    NewsConfig    `yaml:"news"`
	SMTP    SMTPConfig    `yaml:"smtp"`
}

// EnvPrefix prefixes every environment override, e.g. NEWSPORTAL_ADDR.
const EnvPrefix = "NEWSPORTAL"

var drivers = map[string]bool{
	"memory":   true,
	"sqlite3":  true,
	"postgres": true,
	"redis":    true,
	"badger":   true,
}

// Load reads the YAML file at path (skipped when path is empty or missing),
// applies .env and NEWSPORTAL_* overrides, fills defaults and validates.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// .env is optional
	_ = godotenv.Load()
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite3"
	}
	if c.Storage.Driver == "sqlite3" && c.Storage.DSN == "" {
		c.Storage.DSN = "newsportal.db"
	}
	if c.Storage.Driver == "badger" && c.Storage.BadgerPath == "" {
		c.Storage.BadgerPath = "data/badger"
	}
	if c.Storage.Driver == "redis" && c.Storage.RedisAddr == "" {
		c.Storage.RedisAddr = "localhost:6379"
	}
	if c.Auth.CookieSecret == "" {
		c.Auth.CookieSecret = "super-secret-key-change-me-in-production"
	}
	if c.Auth.Latency == 0 {
		c.Auth.Latency = time.Second
	}
	if c.Chat.Timezone == "" {
		c.Chat.Timezone = "Europe/Moscow"
	}
	if c.SMTP.Port == "" {
		c.SMTP.Port = "587"
	}
}

// Validate performs minimal sanity checks.
func (c *Config) Validate() error {
	if !drivers[c.Storage.Driver] {
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return errors.New("storage.dsn is required for postgres")
	}
	if c.Auth.Latency < 0 {
		return errors.New("auth.latency must not be negative")
	}
	if _, err := time.LoadLocation(c.Chat.Timezone); err != nil {
		return fmt.Errorf("chat.timezone: %w", err)
	}
	return nil
}
