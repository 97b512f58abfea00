package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port                     string `mapstructure:"port"`
	ReadHeaderTimeoutSeconds int    `mapstructure:"read_header_timeout_seconds"`
	WriteTimeoutSeconds      int    `mapstructure:"write_timeout_seconds"`
	ShutdownTimeoutSeconds   int    `mapstructure:"shutdown_timeout_seconds"`
}

type DbServer struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
	Name     string `mapstructure:"name"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
	// MaxConnIdleSeconds closes pooled connections idle for longer; zero keeps the pgx default.
	MaxConnIdleSeconds int    `mapstructure:"max_conn_idle_seconds"`
	AppName            string `mapstructure:"app_name"`
}

func (config *DbServer) GetConnectionStr() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		config.User, config.Pass, config.Host, config.Port, config.Name,
	)
}

type HTTPClient struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RateFeed describes where exchange rates come from and when they are refreshed.
type RateFeed struct {
	URL            string `mapstructure:"url"`
	Format         string `mapstructure:"format"`
	DailyAt        string `mapstructure:"daily_at"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type Pricing struct {
	PivotCurrency       string   `mapstructure:"pivot_currency"`
	SupportedCurrencies []string `mapstructure:"supported_currencies"`
}

type Cache struct {
	MaxItems   int64 `mapstructure:"max_items"`
	TTLSeconds int   `mapstructure:"ttl_seconds"`
}

type AppConfig struct {
	HTTPServer HTTPServer `mapstructure:"http_server"`
	DbServer   DbServer   `mapstructure:"db_server"`
	HTTPClient HTTPClient `mapstructure:"http_client"`
	Logging    Logging    `mapstructure:"logging"`
	RateFeed   RateFeed   `mapstructure:"rate_feed"`
	Pricing    Pricing    `mapstructure:"pricing"`
	Cache      Cache      `mapstructure:"cache"`
}

const (
	FeedFormatTCMB            = "tcmb"
	FeedFormatExchangeRateAPI = "exchangerate_api"
)

func Init() (*AppConfig, error) {
	return Load("config.yaml")
}

// Load reads the yaml file at path, overlays environment variables and validates the result.
// A missing .env file is not an error.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	setDefaults(v)
	bindEnv(v)

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_server.port", "8080")
	v.SetDefault("http_server.read_header_timeout_seconds", 5)
	v.SetDefault("http_server.write_timeout_seconds", 30)
	v.SetDefault("http_server.shutdown_timeout_seconds", 10)
	v.SetDefault("db_server.max_conns", 10)
	v.SetDefault("db_server.min_conns", 1)
	v.SetDefault("db_server.max_conn_idle_seconds", 300)
	v.SetDefault("db_server.app_name", "laundry")
	v.SetDefault("http_client.timeout_seconds", 10)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("rate_feed.url", "https://www.tcmb.gov.tr/kurlar/today.xml")
	v.SetDefault("rate_feed.format", FeedFormatTCMB)
	v.SetDefault("rate_feed.daily_at", "07:00")
	v.SetDefault("rate_feed.timeout_seconds", 10)
	v.SetDefault("pricing.pivot_currency", "TRY")
	v.SetDefault("pricing.supported_currencies", []string{"TRY", "USD", "EUR", "GBP"})
	v.SetDefault("cache.max_items", 10000)
	v.SetDefault("cache.ttl_seconds", 300)
}

func bindEnv(v *viper.Viper) {
	// db server env vars
	_ = v.BindEnv("db_server.host", "DB_HOST")
	_ = v.BindEnv("db_server.port", "DB_PORT")
	_ = v.BindEnv("db_server.user", "DB_USER")
	_ = v.BindEnv("db_server.pass", "DB_PASS")
	_ = v.BindEnv("db_server.name", "DB_NAME")
	_ = v.BindEnv("db_server.max_conns", "DB_MAX_CONNS")
	_ = v.BindEnv("db_server.min_conns", "DB_MIN_CONNS")

	_ = v.BindEnv("http_server.port", "HTTP_PORT")
	_ = v.BindEnv("http_client.timeout_seconds", "HTTP_CLIENT_TIMEOUT_SECONDS")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")

	// rate feed env vars
	_ = v.BindEnv("rate_feed.url", "RATE_FEED_URL")
	_ = v.BindEnv("rate_feed.format", "RATE_FEED_FORMAT")
	_ = v.BindEnv("rate_feed.daily_at", "RATE_FEED_DAILY_AT")
}

func (c *AppConfig) normalize() error {
	c.Pricing.PivotCurrency = strings.ToUpper(strings.TrimSpace(c.Pricing.PivotCurrency))
	if len(c.Pricing.PivotCurrency) != 3 {
		return fmt.Errorf("pricing.pivot_currency must be a 3-letter code, got %q", c.Pricing.PivotCurrency)
	}

	codes := make([]string, 0, len(c.Pricing.SupportedCurrencies)+1)
	seen := make(map[string]struct{}, len(c.Pricing.SupportedCurrencies)+1)
	for _, raw := range append([]string{c.Pricing.PivotCurrency}, c.Pricing.SupportedCurrencies...) {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if len(code) != 3 {
			return fmt.Errorf("pricing.supported_currencies: invalid code %q", raw)
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	c.Pricing.SupportedCurrencies = codes

	switch c.RateFeed.Format {
	case FeedFormatTCMB, FeedFormatExchangeRateAPI:
	default:
		return fmt.Errorf("rate_feed.format must be %q or %q, got %q", FeedFormatTCMB, FeedFormatExchangeRateAPI, c.RateFeed.Format)
	}
	if c.RateFeed.URL == "" {
		return errors.New("rate_feed.url is required")
	}
	return nil
}
