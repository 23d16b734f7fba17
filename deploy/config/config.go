package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/langowen/metals/internal/entities"
	"github.com/robfig/cron/v3"
	"log"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Storage    Storage
	Redis      Redis
	HTTPServer HTTPServer
	Dashboard  Dashboard
	Fetcher    Fetcher
}

type Storage struct {
	Driver     string        `env:"STORAGE_DRIVER" env-default:"postgres"`
	Timeout    time.Duration `env:"BD_TIMEOUT" env-default:"10s"`
	Host       string        `env:"BD_HOST" env-default:"localhost"`
	Port       int           `env:"BD_PORT" env-default:"5432"`
	User       string        `env:"BD_USER" env-default:"metals"`
	Password   string        `env:"BD_PASSWORD"`
	DBName     string        `env:"BD_DBNAME" env-default:"metals"`
	SSLMode    string        `env:"BD_SSL_MODE" env-default:"disable"`
	Schema     string        `env:"BD_SCHEMA" env-default:"public"`
	SQLitePath string        `env:"SQLITE_PATH" env-default:"database/database.sqlite"`
}

// Redis is optional: an empty host disables update notifications.
type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
	Channel  string `env:"REDIS_CHANNEL" env-default:"metal_rates_updated"`
}

type HTTPServer struct {
	Port        string        `env:"HTTP_PORT" env-default:"12000"`
	Timeout     time.Duration `env:"HTTP_TIMEOUT" env-default:"2m"`
	IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Dashboard struct {
	DefaultMetal string        `env:"DASHBOARD_DEFAULT_METAL" env-default:"gold"`
	Window       time.Duration `env:"DASHBOARD_WINDOW" env-default:"8760h"`
	IgnoreNull   bool          `env:"DASHBOARD_IGNORE_NULL" env-default:"true"`
	Locale       string        `env:"DASHBOARD_LOCALE" env-default:"ru"`
	ChartWidth   int           `env:"DASHBOARD_CHART_WIDTH" env-default:"1024"`
	ChartHeight  int           `env:"DASHBOARD_CHART_HEIGHT" env-default:"400"`
}

type Fetcher struct {
	URL          string        `env:"FETCHER_URL" env-default:"http://www.cbr.ru/scripts/xml_metall.asp"`
	Schedule     string        `env:"FETCHER_SCHEDULE" env-default:"@every 4h"`
	StartDate    string        `env:"FETCHER_START_DATE" env-default:"2000-01-01"`
	Timeout      time.Duration `env:"FETCHER_TIMEOUT" env-default:"30s"`
	RequestDelay time.Duration `env:"FETCHER_REQUEST_DELAY" env-default:"60s"`
	Cookies      string        `env:"FETCHER_COOKIES"`
	RunOnStart   bool          `env:"FETCHER_RUN_ON_START" env-default:"true"`
}

func NewConfig() *Config {
	_ = godotenv.Load(".env")

	cfg, err := Read()
	if err != nil {
		log.Fatalf("Error reading env: %v", err)
	}

	return cfg
}

// Read loads the configuration from the environment and validates it.
func Read() (*Config, error) {
	cfg := &Config{}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	if _, err := entities.ParseMetal(c.Dashboard.DefaultMetal); err != nil {
		return fmt.Errorf("config: default metal: %w", err)
	}

	if _, err := cron.ParseStandard(c.Fetcher.Schedule); err != nil {
		return fmt.Errorf("config: fetcher schedule: %w", err)
	}

	if _, err := c.Fetcher.Start(); err != nil {
		return fmt.Errorf("config: fetcher start date: %w", err)
	}

	return nil
}

// DSN is the Postgres connection string.
func (s Storage) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		s.Host,
		s.Port,
		s.User,
		s.Password,
		s.DBName,
		s.SSLMode,
		s.Schema,
	)
}

func (f Fetcher) Start() (time.Time, error) {
	return time.Parse(entities.DateKeyFormat, f.StartDate)
}

// String hides secrets when the config is logged.
func (c Config) String() string {
	c.Storage.Password = mask(c.Storage.Password)
	c.Redis.Password = mask(c.Redis.Password)
	c.Fetcher.Cookies = mask(c.Fetcher.Cookies)
	return fmt.Sprintf("%+v", struct {
		Storage    Storage
		Redis      Redis
		HTTPServer HTTPServer
		Dashboard  Dashboard
		Fetcher    Fetcher
	}(c))
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
