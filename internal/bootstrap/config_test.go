package bootstrap_test

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guess-who-arena/internal/bootstrap"
	"guess-who-arena/internal/infra/setup"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("WS_AUTH_REQUIRED", "")
	t.Setenv("GAME_REWARD", "")
	t.Setenv("ROOM_SWEEP_INTERVAL", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := bootstrap.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, setup.DriverMySQL, cfg.DB.Driver)
	assert.Equal(t, 8, cfg.Game.Reward)
	assert.Equal(t, 20, cfg.Game.CreateMinImages)
	assert.Equal(t, 18, cfg.Game.StartMinImages)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.WSAuthRequired)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/gw.db")
	t.Setenv("GAME_REWARD", "12")
	t.Setenv("START_MIN_IMAGES", "10")
	t.Setenv("ROOM_SWEEP_INTERVAL", "0s")
	t.Setenv("WS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "loud")

	cfg, err := bootstrap.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, setup.DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "/tmp/gw.db", cfg.DB.SQLitePath)
	assert.Equal(t, 12, cfg.Game.Reward)
	assert.Equal(t, 10, cfg.Game.StartMinImages)
	assert.Zero(t, cfg.SweepInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":       {"DB_DRIVER": "postgres"},
		"reward":       {"GAME_REWARD": "abc"},
		"zero reward":  {"GAME_REWARD": "0"},
		"duration":     {"IMAGE_CACHE_TTL": "soon"},
		"auth w/o key": {"WS_AUTH_REQUIRED": "true", "JWT_SECRET": ""},
		"bad bool":     {"WS_AUTH_REQUIRED": "maybe"},
		"rate limit":   {"RATE_LIMIT_MAX": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := bootstrap.LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	log := bootstrap.NewLogger(&bootstrap.Config{AppEnv: "production", LogLevel: "warn"})
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
	t.Cleanup(func() { logrus.SetLevel(logrus.InfoLevel) })
}
