package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "db_server:\n  host: db\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "db", cfg.DbServer.Host)
	require.Equal(t, int32(10), cfg.DbServer.MaxConns)
	require.Equal(t, int32(1), cfg.DbServer.MinConns)
	require.Equal(t, "laundry", cfg.DbServer.AppName)
	require.Equal(t, 5, cfg.HTTPServer.ReadHeaderTimeoutSeconds)
	require.Equal(t, 10, cfg.HTTPServer.ShutdownTimeoutSeconds)
	require.Equal(t, "TRY", cfg.Pricing.PivotCurrency)
	require.Equal(t, []string{"TRY", "USD", "EUR", "GBP"}, cfg.Pricing.SupportedCurrencies)
	require.Equal(t, FeedFormatTCMB, cfg.RateFeed.Format)
	require.Equal(t, "07:00", cfg.RateFeed.DailyAt)
	require.Equal(t, int64(10000), cfg.Cache.MaxItems)
	require.Equal(t, 300, cfg.Cache.TTLSeconds)
}

func TestLoad_NormalizesCurrencies(t *testing.T) {
	path := writeConfig(t, `
pricing:
  pivot_currency: " usd "
  supported_currencies: [eur, USD, gbp, eur]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "USD", cfg.Pricing.PivotCurrency)
	// pivot always first, duplicates dropped
	require.Equal(t, []string{"USD", "EUR", "GBP"}, cfg.Pricing.SupportedCurrencies)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad pivot":    "pricing:\n  pivot_currency: DOLLAR\n",
		"bad currency": "pricing:\n  supported_currencies: [TRY, EU]\n",
		"bad format":   "rate_feed:\n  format: csv\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("DB_HOST", "from-env")
	t.Setenv("RATE_FEED_FORMAT", FeedFormatExchangeRateAPI)
	path := writeConfig(t, "db_server:\n  host: from-file\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.DbServer.Host)
	require.Equal(t, FeedFormatExchangeRateAPI, cfg.RateFeed.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDbServer_GetConnectionStr(t *testing.T) {
	cfg := DbServer{Host: "h", Port: "5432", User: "u", Pass: "p", Name: "n"}
	require.Equal(t, "user=u password=p host=h port=5432 dbname=n sslmode=disable", cfg.GetConnectionStr())
}
