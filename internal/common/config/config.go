package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/leonid6372/crypto-tracker/pkg/log"
)

const (
	EnvProd = "prod"
	EnvTest = "test"
)

type Config struct {
	Env       string `yaml:"env" env:"ENV" env-upd:"" env-default:"prod"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-upd:"" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-upd:"" env-default:"console"`

	Postgres  Postgres  `yaml:"postgres"`
	CoinGecko CoinGecko `yaml:"coingecko"`
	SMTP      SMTP      `yaml:"smtp"`
	Bot       Bot       `yaml:"bot"`
	Schedule  Schedule  `yaml:"schedule"`
	Sync      Sync      `yaml:"sync"`
	Admin     Admin     `yaml:"admin"`
}

type Postgres struct {
	Database string `yaml:"database" env:"POSTGRES_DATABASE" env-upd:""`
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-upd:"" env-default:"localhost"`
	Schema   string `yaml:"schema" env:"POSTGRES_SCHEMA" env-upd:"" env-default:"crypto_tracker"`
	Username string `yaml:"username" env:"POSTGRES_USER" env-upd:""`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-upd:""`
	Port     int64  `yaml:"port" env:"POSTGRES_PORT" env-upd:"" env-default:"5432"`
}

type CoinGecko struct {
	BaseURL    string        `yaml:"base_url" env:"COINGECKO_BASE_URL" env-upd:"" env-default:"https://api.coingecko.com/api/v3"`
	APIKey     string        `yaml:"api_key" env:"COINGECKO_API_KEY" env-upd:""`
	VsCurrency string        `yaml:"vs_currency" env:"COINGECKO_VS_CURRENCY" env-upd:"" env-default:"usd"`
	Timeout    time.Duration `yaml:"timeout" env:"COINGECKO_TIMEOUT" env-upd:"" env-default:"15s"`
	RateLimit  float64       `yaml:"rate_limit" env:"COINGECKO_RATE_LIMIT" env-upd:"" env-default:"1"` // requests per second
}

type SMTP struct {
	Host     string `yaml:"host" env:"EMAIL_HOST" env-upd:""`
	Port     int    `yaml:"port" env:"EMAIL_PORT" env-upd:"" env-default:"587"`
	Username string `yaml:"username" env:"EMAIL_USER" env-upd:""`
	Password string `yaml:"password" env:"EMAIL_PASS" env-upd:""`
	From     string `yaml:"from" env:"EMAIL_FROM" env-upd:""`
}

// Enabled reports whether enough is configured to send email.
func (s *SMTP) Enabled() bool {
	return s.Host != ""
}

// Sender returns the From address, falling back to the SMTP user.
func (s *SMTP) Sender() string {
	if s.From != "" {
		return s.From
	}
	return s.Username
}

type Bot struct {
	APIKey  string        `yaml:"api_key" env:"BOT_API_KEY" env-upd:""`
	Timeout time.Duration `yaml:"timeout" env:"BOT_TIMEOUT" env-upd:"" env-default:"10s"`
}

// Schedule holds standard five-field cron specs, evaluated in UTC.
type Schedule struct {
	PriceSync    string `yaml:"price_sync" env:"SCHEDULE_PRICE_SYNC" env-upd:"" env-default:"*/30 * * * *"`
	DailyDigest  string `yaml:"daily_digest" env:"SCHEDULE_DAILY_DIGEST" env-upd:"" env-default:"0 9 * * *"`
	WeeklyDigest string `yaml:"weekly_digest" env:"SCHEDULE_WEEKLY_DIGEST" env-upd:"" env-default:"0 10 * * 0"`
}

type Sync struct {
	Concurrency int `yaml:"concurrency" env:"SYNC_CONCURRENCY" env-upd:"" env-default:"8"`
}

type Admin struct {
	Addr string `yaml:"addr" env:"ADMIN_ADDR" env-upd:"" env-default:":8080"`
}

func (c *Config) GetPostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Postgres.Username, c.Postgres.Password, c.Postgres.Host, c.Postgres.Port, c.Postgres.Database)
}

// Load reads configPath and overlays the environment.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config path is required")
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cleanenv.UpdateEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to update config from env: %w", err)
	}

	return &cfg, nil
}

func GetConfig(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}
