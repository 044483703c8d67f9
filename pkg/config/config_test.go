package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t, "LOG_LEVEL", "HTTP_PORT", "EVENT_ID", "THRESHOLD", "QTY", "FEE_RATE",
		"WS_URL", "GAMMA_API_URL", "PING_INTERVAL_S", "RECONNECT_DELAY_S", "WRITE_DB")
	t.Setenv("MARKET_IDS", "1,2,3,4")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, []int64{1, 2, 3, 4}, cfg.MarketIDs)
	require.True(t, cfg.Threshold.Equal(decimal.NewFromInt(1)))
	require.True(t, cfg.Qty.Equal(decimal.NewFromInt(1)))
	require.True(t, cfg.FeeRate.Equal(decimal.Zero))
	require.Equal(t, 5*time.Second, cfg.PingIntervalS)
	require.Equal(t, 3*time.Second, cfg.ReconnectDelayS)
	require.False(t, cfg.WriteDB)
}

func TestLoadFromEnv_ParsesMarketIDList(t *testing.T) {
	t.Setenv("MARKET_IDS", " 10, 20 ,30")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.Equal(t, []int64{10, 20, 30}, cfg.MarketIDs)
}

func TestLoadFromEnv_InvalidMarketIDIsAnError(t *testing.T) {
	t.Setenv("MARKET_IDS", "1,not-a-number")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestValidate_RequiresAtLeastOneMarket(t *testing.T) {
	cfg := &Config{
		HTTPPort:        "8080",
		WSURL:           "wss://example.com",
		GammaAPIURL:     "https://example.com",
		Threshold:       decimal.NewFromInt(1),
		Qty:             decimal.NewFromInt(1),
		PingIntervalS:   time.Second,
		ReconnectDelayS: time.Second,
	}

	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidate_RequiresDatabaseURLWhenWriteDBEnabled(t *testing.T) {
	cfg := &Config{
		HTTPPort:        "8080",
		WSURL:           "wss://example.com",
		GammaAPIURL:     "https://example.com",
		MarketIDs:       []int64{1},
		Threshold:       decimal.NewFromInt(1),
		Qty:             decimal.NewFromInt(1),
		PingIntervalS:   time.Second,
		ReconnectDelayS: time.Second,
		WriteDB:         true,
	}

	err := cfg.Validate()
	require.Error(t, err)

	cfg.DatabaseURL = "postgres://localhost/db"
	require.NoError(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveThreshold(t *testing.T) {
	cfg := &Config{
		HTTPPort:        "8080",
		WSURL:           "wss://example.com",
		GammaAPIURL:     "https://example.com",
		MarketIDs:       []int64{1},
		Threshold:       decimal.Zero,
		Qty:             decimal.NewFromInt(1),
		PingIntervalS:   time.Second,
		ReconnectDelayS: time.Second,
	}

	err := cfg.Validate()
	require.Error(t, err)
}
