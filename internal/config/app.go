package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port string `mapstructure:"port" validate:"required,numeric"`
}

type DbServer struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     string `mapstructure:"port" validate:"required,numeric"`
	User     string `mapstructure:"user" validate:"required"`
	Pass     string `mapstructure:"pass"`
	Name     string `mapstructure:"name" validate:"required"`
	MaxConns int32  `mapstructure:"max_conns" validate:"gte=0"`
}

func (config *DbServer) GetConnectionStr() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		config.User, config.Pass, config.Host, config.Port, config.Name,
	)
}

type HTTPClient struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"gt=0"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

// Bundesbank holds the provider endpoint and the parts of its series keys,
// e.g. BBEX3.D.<CODE>.EUR.BB.AC.000.
type Bundesbank struct {
	BaseURL      string `mapstructure:"base_url" validate:"required,url"`
	SeriesPrefix string `mapstructure:"series_prefix" validate:"required"`
	Frequency    string `mapstructure:"frequency" validate:"required"`
	BaseCurrency string `mapstructure:"base_currency" validate:"required,len=3,uppercase"`
	SeriesSuffix string `mapstructure:"series_suffix" validate:"required"`
}

type Sync struct {
	Workers               int    `mapstructure:"workers" validate:"gt=0,lte=64"`
	BatchSize             int    `mapstructure:"batch_size" validate:"gt=0"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"gt=0"`
	RatesCron             string `mapstructure:"rates_cron" validate:"required"`
	CurrenciesCron        string `mapstructure:"currencies_cron" validate:"required"`
	Timezone              string `mapstructure:"timezone" validate:"required"`
}

type Cache struct {
	MaxItems int64 `mapstructure:"max_items" validate:"gt=0"`
}

type RateLimit struct {
	Rate string `mapstructure:"rate" validate:"required"`
}

type AppConfig struct {
	HTTPServer HTTPServer `mapstructure:"http_server"`
	DbServer   DbServer   `mapstructure:"db_server"`
	HTTPClient HTTPClient `mapstructure:"http_client"`
	Logging    Logging    `mapstructure:"logging"`
	Bundesbank Bundesbank `mapstructure:"bundesbank"`
	Sync       Sync       `mapstructure:"sync"`
	Cache      Cache      `mapstructure:"cache"`
	RateLimit  RateLimit  `mapstructure:"rate_limit"`
}

func Init() (*AppConfig, error) {
	return Load("config.yaml")
}

// Load reads the yaml file at path, overlays environment variables (optionally from .env) and validates the result.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.SetDefault("http_server.port", "8080")
	v.SetDefault("db_server.max_conns", 10)
	v.SetDefault("http_client.timeout_seconds", 30)
	v.SetDefault("logging.level", "info")
	v.SetDefault("bundesbank.base_url", "https://api.statistiken.bundesbank.de/rest")
	v.SetDefault("bundesbank.series_prefix", "BBEX3")
	v.SetDefault("bundesbank.frequency", "D")
	v.SetDefault("bundesbank.base_currency", "EUR")
	v.SetDefault("bundesbank.series_suffix", "BB.AC.000")
	v.SetDefault("sync.workers", 5)
	v.SetDefault("sync.batch_size", 1000)
	v.SetDefault("sync.request_timeout_seconds", 60)
	v.SetDefault("sync.rates_cron", "0 16 * * 1-5")
	v.SetDefault("sync.currencies_cron", "0 0 * * *")
	v.SetDefault("sync.timezone", "Europe/Berlin")
	v.SetDefault("cache.max_items", 10000)
	v.SetDefault("rate_limit.rate", "100-M")

	// db server env vars
	_ = v.BindEnv("db_server.host", "DB_HOST")
	_ = v.BindEnv("db_server.port", "DB_PORT")
	_ = v.BindEnv("db_server.user", "DB_USER")
	_ = v.BindEnv("db_server.pass", "DB_PASS")
	_ = v.BindEnv("db_server.name", "DB_NAME")
	_ = v.BindEnv("db_server.max_conns", "DB_MAX_CONNS")

	// http env vars
	_ = v.BindEnv("http_server.port", "HTTP_PORT")
	_ = v.BindEnv("http_client.timeout_seconds", "HTTP_CLIENT_TIMEOUT_SECONDS")

	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("bundesbank.base_url", "BUNDESBANK_BASE_URL")
	_ = v.BindEnv("sync.workers", "SYNC_WORKERS")
	_ = v.BindEnv("sync.rates_cron", "SYNC_RATES_CRON")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
