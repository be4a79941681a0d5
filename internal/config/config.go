package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override (BOT_TOKEN, BOT_DB_HOST, ...).
const EnvPrefix = "BOT_"

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token          string        `yaml:"token" env:"TOKEN"`
	Mode           string        `yaml:"mode" env:"MODE"` // polling | webhook
	WebhookURL     string        `yaml:"webhook_url" env:"WEBHOOK_URL"`
	WebhookPath    string        `yaml:"webhook_path" env:"WEBHOOK_PATH"`
	Workers        int           `yaml:"workers" env:"WORKERS"`
	Language       string        `yaml:"language" env:"LANGUAGE"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	Debug          bool          `yaml:"debug" env:"TELEGRAM_DEBUG"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL"`   // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"LOG_FORMAT"` // json|console
	Sampling bool   `yaml:"sampling" env:"LOG_SAMPLING"`
}

type AdminConfig struct {
	Port int `yaml:"port" env:"ADMIN_PORT"`
}

type DatabaseConfig struct {
	URL         string `yaml:"url" env:"DB_URL"`
	Host        string `yaml:"host" env:"DB_HOST"`
	Port        int    `yaml:"port" env:"DB_PORT"`
	User        string `yaml:"user" env:"DB_USER"`
	Password    string `yaml:"password" env:"DB_PASS"`
	Name        string `yaml:"name" env:"DB_BASE"`
	SSLMode     string `yaml:"sslmode" env:"DB_SSLMODE"`
	Echo        bool   `yaml:"echo" env:"DB_ECHO"`
	MaxConns    int32  `yaml:"max_conns" env:"DB_MAX_CONNS"`
	AutoMigrate *bool  `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
}

type RedisConfig struct {
	URL        string        `yaml:"url" env:"REDIS_URL"`
	Password   string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB         int           `yaml:"db" env:"REDIS_DB"`
	RateLimit  int           `yaml:"rate_limit" env:"REDIS_RATE_LIMIT"`
	RateWindow time.Duration `yaml:"rate_window" env:"REDIS_RATE_WINDOW"`
}

type Config struct {
	Environment string         `yaml:"environment" env:"ENVIRONMENT"`
	Bot         BotConfig      `yaml:"bot"`
	Log         LogConfig      `yaml:"log"`
	Admin       AdminConfig    `yaml:"admin"`
	Database    DatabaseConfig `yaml:"database"`
	Redis       RedisConfig    `yaml:"redis"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig builds the process configuration once at startup: the YAML file
// at path (optional), then .env, then BOT_* environment overrides.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// env-only deployments
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// .env is optional; real environment variables take precedence over it.
	_ = godotenv.Load()

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.Bot.Mode == "" {
		c.Bot.Mode = "polling"
	}
	c.Bot.Mode = strings.ToLower(c.Bot.Mode)
	if c.Bot.WebhookPath == "" {
		c.Bot.WebhookPath = "/telegram/webhook"
	}
	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 8
	}
	if c.Bot.Language == "" {
		c.Bot.Language = "en"
	}
	if c.Bot.RequestTimeout <= 0 {
		c.Bot.RequestTimeout = 30 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "debug"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Admin.Port == 0 {
		c.Admin.Port = 8080
	}
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.User == "" {
		c.Database.User = "postgres"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Database.AutoMigrate == nil {
		on := true
		c.Database.AutoMigrate = &on
	}
	if c.Redis.RateLimit <= 0 {
		c.Redis.RateLimit = 20
	}
	if c.Redis.RateWindow <= 0 {
		c.Redis.RateWindow = time.Minute
	}
}

func (c *Config) validate() error {
	if c.Bot.Token == "" && !c.Runtime.Dev {
		return errors.New("bot.token is required")
	}
	switch c.Bot.Mode {
	case "polling":
	case "webhook":
		if c.Bot.WebhookURL == "" {
			return errors.New("bot.webhook_url is required in webhook mode")
		}
	default:
		return fmt.Errorf("bot.mode %q is not supported", c.Bot.Mode)
	}
	if c.Database.URL == "" && c.Database.Name == "" {
		return errors.New("database.url or database.name is required")
	}
	return nil
}

// DSN returns database.url when set, otherwise assembles a postgres URL
// from the individual connection settings.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

func (d DatabaseConfig) MigrateOnStart() bool {
	return d.AutoMigrate == nil || *d.AutoMigrate
}
