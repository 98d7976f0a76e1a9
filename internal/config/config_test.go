package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("does-not-exist")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite3", cfg.DB.Driver)
	assert.Equal(t, "harmony.db", cfg.DB.DSN)
	assert.Equal(t, 24*time.Hour, cfg.Token.TTL)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HARMONY_SERVER_ADDR", ":9999")
	t.Setenv("HARMONY_TOKEN_SECRET", "from-env")

	cfg, err := Load("does-not-exist")
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "from-env", cfg.Token.Secret)
}
