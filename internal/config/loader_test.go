package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("TypedDecode", func(t *testing.T) {
		v := viper.New()
		v.Set("engine.timeout", "45s")
		v.Set("engine.rate", 20.0)
		v.Set("engine.burst", 5)
		v.Set("engine.order", "platform")
		v.Set("sessions.persist", true)
		v.Set("sessions.ttl", "30m")
		v.Set("server.host", "0.0.0.0")
		v.Set("server.port", 9000)
		v.Set("logging.level", "debug")
		v.Set("proxies", []string{"http://127.0.0.1:8080"})

		cfg, err := Load(v)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, 45*time.Second, cfg.Engine.Timeout)
		assert.Equal(t, 20.0, cfg.Engine.Rate)
		assert.Equal(t, 5, cfg.Engine.Burst)
		assert.Equal(t, "platform", cfg.Engine.Order)
		assert.True(t, cfg.Sessions.Persist)
		assert.Equal(t, 30*time.Minute, cfg.Sessions.TTL)
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, []string{"http://127.0.0.1:8080"}, cfg.Proxies)
	})

	t.Run("ProxyListFromCommaString", func(t *testing.T) {
		v := viper.New()
		v.Set("proxies", "http://one:8080,http://two:8080")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, []string{"http://one:8080", "http://two:8080"}, cfg.Proxies)
	})

	t.Run("DefaultStorePathInjected", func(t *testing.T) {
		v := viper.New()

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(cfg.Store.Path, "handlescan.db"), cfg.Store.Path)
	})

	t.Run("ExplicitStoreURLWins", func(t *testing.T) {
		v := viper.New()
		v.Set("store.url", "libsql://example.turso.io")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Empty(t, cfg.Store.Path)
		assert.Equal(t, "libsql://example.turso.io", cfg.Store.URL)
	})

	t.Run("RejectsNegativeRate", func(t *testing.T) {
		v := viper.New()
		v.Set("engine.rate", -1.0)

		_, err := Load(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "engine.rate")
	})

	t.Run("RejectsBadPort", func(t *testing.T) {
		v := viper.New()
		v.Set("server.port", 123456)

		_, err := Load(v)
		require.Error(t, err)
	})
}

func TestGetConfig(t *testing.T) {
	v := viper.New()
	v.Set("server.port", 8123)

	cfg, err := Load(v)
	require.NoError(t, err)

	retrieved := GetConfig()
	require.NotNil(t, retrieved)
	assert.Equal(t, cfg.Server.Port, retrieved.Server.Port)
}

func TestDefaultPaths(t *testing.T) {
	assert.True(t, strings.HasSuffix(DefaultStorePath(), "handlescan.db"))

	configPath := DefaultConfigPath()
	assert.NotEmpty(t, configPath)
	assert.Contains(t, configPath, "handlescan")
}
