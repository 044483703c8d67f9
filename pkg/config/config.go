package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration: the enumerated fields of
// spec.md §6 plus the ambient settings (log level, HTTP port, Gamma API URL,
// feed credentials) a deployed instance of this system carries.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Basket identity
	EventID   int64
	MarketIDs []int64

	// Paper-trading parameters
	Threshold      decimal.Decimal
	Qty            decimal.Decimal
	FeeRate        decimal.Decimal
	FixedFeePerLeg decimal.Decimal

	// Stream client
	WSURL            string
	GammaAPIURL      string
	PolymarketAPIKey string
	PolymarketSecret string
	PolymarketPass   string
	PingIntervalS    time.Duration
	RecvTimeoutS     time.Duration

	// Coordinator cadence
	PrintIntervalS  time.Duration
	ReconnectDelayS time.Duration

	// Persistence
	WriteDB     bool
	DatabaseURL string
	DBIntervalS time.Duration
	WriteTicks  bool
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	marketIDs, err := getInt64ListOrDefault("MARKET_IDS", nil)
	if err != nil {
		return nil, fmt.Errorf("parse MARKET_IDS: %w", err)
	}

	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		EventID:   getInt64OrDefault("EVENT_ID", 0),
		MarketIDs: marketIDs,

		Threshold:      getDecimalOrDefault("THRESHOLD", decimal.NewFromInt(1)),
		Qty:            getDecimalOrDefault("QTY", decimal.NewFromInt(1)),
		FeeRate:        getDecimalOrDefault("FEE_RATE", decimal.Zero),
		FixedFeePerLeg: getDecimalOrDefault("FIXED_FEE_PER_LEG", decimal.Zero),

		WSURL:            getEnvOrDefault("WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),
		GammaAPIURL:      getEnvOrDefault("GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		PolymarketAPIKey: os.Getenv("POLYMARKET_API_KEY"),
		PolymarketSecret: os.Getenv("POLYMARKET_SECRET"),
		PolymarketPass:   os.Getenv("POLYMARKET_PASSPHRASE"),
		PingIntervalS:    getDurationOrDefault("PING_INTERVAL_S", 5*time.Second),
		RecvTimeoutS:     getDurationOrDefault("RECV_TIMEOUT_S", 0), // 0 = streamclient default

		PrintIntervalS:  getDurationOrDefault("PRINT_INTERVAL_S", 1*time.Second),
		ReconnectDelayS: getDurationOrDefault("RECONNECT_DELAY_S", 3*time.Second),

		WriteDB:     getBoolOrDefault("WRITE_DB", false),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBIntervalS: getDurationOrDefault("DB_INTERVAL_S", 5*time.Second),
		WriteTicks:  getBoolOrDefault("WRITE_TICKS", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT cannot be empty")
	}

	if c.WSURL == "" {
		return errors.New("WS_URL cannot be empty")
	}

	if c.GammaAPIURL == "" {
		return errors.New("GAMMA_API_URL cannot be empty")
	}

	if len(c.MarketIDs) == 0 {
		return errors.New("MARKET_IDS must name at least one market")
	}

	if c.Threshold.Sign() <= 0 {
		return fmt.Errorf("THRESHOLD must be positive, got %s", c.Threshold)
	}

	if c.Qty.Sign() <= 0 {
		return fmt.Errorf("QTY must be positive, got %s", c.Qty)
	}

	if c.FeeRate.Sign() < 0 {
		return fmt.Errorf("FEE_RATE must be non-negative, got %s", c.FeeRate)
	}

	if c.PingIntervalS <= 0 {
		return fmt.Errorf("PING_INTERVAL_S must be positive, got %s", c.PingIntervalS)
	}

	if c.ReconnectDelayS <= 0 {
		return fmt.Errorf("RECONNECT_DELAY_S must be positive, got %s", c.ReconnectDelayS)
	}

	if c.WriteDB && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required when WRITE_DB is enabled")
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getInt64ListOrDefault(key string, defaultValue []int64) ([]int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parts := strings.Split(value, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid market id %q: %w", p, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func getDecimalOrDefault(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return defaultValue
	}

	return d
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}
