// Package config handles configuration loading for news2alpha.
// It supports a YAML config file, a .env file for API keys and
// NEWS2ALPHA_* environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/slowdive42/news2alpha/pkg/models"
	"github.com/slowdive42/news2alpha/pkg/utils"
)

// EnvPrefix prefixes every environment override, e.g. NEWS2ALPHA_NEWS_QUERY.
const EnvPrefix = "NEWS2ALPHA"

// API key environment variables, read after .env is loaded.
const (
	EnvNewsAPIKey     = "NEWS_API_KEY"
	EnvCryptoPanicKey = "CRYPTOPANIC_API_KEY"
)

// Config represents the complete application configuration.
type Config struct {
	News    NewsConfig    `mapstructure:"news"    yaml:"news"`
	Market  MarketConfig  `mapstructure:"market"  yaml:"market"`
	Paths   PathsConfig   `mapstructure:"paths"   yaml:"paths"`
	HTTP    HTTPConfig    `mapstructure:"http"    yaml:"http"`
	Report  ReportConfig  `mapstructure:"report"  yaml:"report"`
	Store   StoreConfig   `mapstructure:"store"   yaml:"store"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// NewsConfig selects the news source and query window.
type NewsConfig struct {
	Source            string   `mapstructure:"source"             yaml:"source"             validate:"required,oneof=newsapi cryptopanic rss"`
	Query             string   `mapstructure:"query"              yaml:"query"              validate:"required_if=Source newsapi"`
	FromDate          string   `mapstructure:"from_date"          yaml:"from_date"          validate:"required,datetime=2006-01-02"`
	ToDate            string   `mapstructure:"to_date"            yaml:"to_date"            validate:"required,datetime=2006-01-02"`
	Currencies        string   `mapstructure:"currencies"         yaml:"currencies"`
	Feeds             []string `mapstructure:"feeds"              yaml:"feeds"              validate:"required_if=Source rss,dive,url"`
	MaxPages          int      `mapstructure:"max_pages"          yaml:"max_pages"          validate:"gt=0"`
	EnrichContent     bool     `mapstructure:"enrich_content"     yaml:"enrich_content"`
	MinContentLength  int      `mapstructure:"min_content_length" yaml:"min_content_length" validate:"gte=0"`
	EnrichConcurrency int      `mapstructure:"enrich_concurrency" yaml:"enrich_concurrency" validate:"gt=0"`

	NewsAPIKey     string `mapstructure:"newsapi_key"     yaml:"-"`
	CryptoPanicKey string `mapstructure:"cryptopanic_key" yaml:"-"`
}

// MarketConfig selects the traded symbol and bar interval.
type MarketConfig struct {
	Symbol     string `mapstructure:"symbol"      yaml:"symbol"      validate:"required,alphanum"`
	Interval   string `mapstructure:"interval"    yaml:"interval"    validate:"required"`
	TimeColumn string `mapstructure:"time_column" yaml:"time_column" validate:"required"`
}

// PathsConfig holds the data directory layout root.
type PathsConfig struct {
	DataDir string `mapstructure:"data_dir" yaml:"data_dir" validate:"required"`
}

// HTTPConfig controls the shared HTTP client.
type HTTPConfig struct {
	Timeout            time.Duration `mapstructure:"timeout"              yaml:"timeout"              validate:"gt=0"`
	UserAgent          string        `mapstructure:"user_agent"           yaml:"user_agent"`
	RequestsPerSecond  float64       `mapstructure:"requests_per_second"  yaml:"requests_per_second"  validate:"gte=0"`
	Burst              int           `mapstructure:"burst"                yaml:"burst"                validate:"gt=0"`
	NewsAPIBaseURL     string        `mapstructure:"newsapi_base_url"     yaml:"newsapi_base_url"     validate:"omitempty,url"`
	CryptoPanicBaseURL string        `mapstructure:"cryptopanic_base_url" yaml:"cryptopanic_base_url" validate:"omitempty,url"`
	BinanceBaseURL     string        `mapstructure:"binance_base_url"     yaml:"binance_base_url"     validate:"omitempty,url"`
}

// ReportConfig toggles the HTML report.
type ReportConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	PDF     bool `mapstructure:"pdf"     yaml:"pdf"`
}

// StoreConfig configures the SQL feature store export.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Driver  string `mapstructure:"driver"  yaml:"driver"  validate:"omitempty,oneof=sqlite postgres"`
	DSN     string `mapstructure:"dsn"     yaml:"dsn"     validate:"required_if=Enabled true"`
	Table   string `mapstructure:"table"   yaml:"table"`
}

// MetricsConfig sets the Prometheus textfile destination; empty disables it.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// TracingConfig toggles OpenTelemetry stage spans.
type TracingConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Output  string `mapstructure:"output"  yaml:"output"` // stdout, stderr or a file path
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output" yaml:"output"`
}

// From returns news.from_date as UTC midnight.
func (c *Config) From() time.Time {
	t, _ := utils.ParseDate(c.News.FromDate)
	return t
}

// To returns news.to_date as UTC midnight.
func (c *Config) To() time.Time {
	t, _ := utils.ParseDate(c.News.ToDate)
	return t
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config.yaml
//  2. ./config/config.yaml
//  3. ~/.news2alpha/config.yaml
//
// A .env file in the working directory is loaded first if present.
// Environment variables override config file values.
// Format: NEWS2ALPHA_<SECTION>_<KEY>, e.g., NEWS2ALPHA_MARKET_SYMBOL
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".news2alpha"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	// Missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// News defaults
	v.SetDefault("news.source", "newsapi")
	v.SetDefault("news.query", "bitcoin")
	v.SetDefault("news.currencies", "BTC")
	v.SetDefault("news.feeds", []string{})
	v.SetDefault("news.max_pages", 5)
	v.SetDefault("news.enrich_content", false)
	v.SetDefault("news.min_content_length", 200)
	v.SetDefault("news.enrich_concurrency", 4)
	v.SetDefault("news.newsapi_key", "")
	v.SetDefault("news.cryptopanic_key", "")

	// Market defaults
	v.SetDefault("market.symbol", "BTCUSDT")
	v.SetDefault("market.interval", "1d")
	v.SetDefault("market.time_column", "Date")

	// Paths
	v.SetDefault("paths.data_dir", "data")

	// HTTP defaults
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.requests_per_second", 2.0)
	v.SetDefault("http.burst", 1)
	v.SetDefault("http.newsapi_base_url", "")
	v.SetDefault("http.cryptopanic_base_url", "")
	v.SetDefault("http.binance_base_url", "")

	// Outputs
	v.SetDefault("report.enabled", true)
	v.SetDefault("report.pdf", false)
	v.SetDefault("store.enabled", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.table", "aligned_features")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.output", "stderr")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
}

// overrideFromEnv reads API keys from their conventional variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv(EnvNewsAPIKey); key != "" {
		cfg.News.NewsAPIKey = key
	}
	if key := os.Getenv(EnvCryptoPanicKey); key != "" {
		cfg.News.CryptoPanicKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// ── Validation ──

// ValidationError lists every problem found in a Config.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Problems, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks field rules and cross-field constraints.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			problems = append(problems, fieldMessage(fe))
		}
	}

	from, errFrom := utils.ParseDate(c.News.FromDate)
	to, errTo := utils.ParseDate(c.News.ToDate)
	if errFrom == nil && errTo == nil && from.After(to) {
		problems = append(problems, "news.from_date must not be after news.to_date")
	}

	if c.Market.Interval != "" {
		d := models.Interval(c.Market.Interval).Duration()
		switch {
		case d == 0:
			problems = append(problems, fmt.Sprintf("market.interval %q is not a known interval", c.Market.Interval))
		case d < 24*time.Hour:
			problems = append(problems, fmt.Sprintf("market.interval %q is finer than one day", c.Market.Interval))
		}
	}

	if c.Store.Enabled && c.Store.Driver == "" {
		problems = append(problems, "store.driver is required when store.enabled is true")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
