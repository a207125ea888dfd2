package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "STORE_DRIVER", "DB_DSN", "SQLITE_PATH", "TELEGRAM_TOKEN",
		"TELEGRAM_CHAT_ID", "REMINDER_CRON", "ACTIVITY_LOG_LIMIT", "ACTIVITY_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "edubook.db", cfg.SQLitePath)
	assert.Equal(t, "0 8 * * *", cfg.ReminderCron)
	assert.Equal(t, 1000, cfg.ActivityLogLimit)
	assert.Equal(t, "info", cfg.ActivityLogLevel)
	assert.False(t, cfg.NotificationsEnabled())
	assert.False(t, cfg.IsProduction())
}

func TestPostgresRequiresDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "Postgres")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "DB_DSN")

	t.Setenv("DB_DSN", "postgres://localhost/edubook")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
}

func TestUnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "redis")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "unknown STORE_DRIVER")
}

func TestTelegramSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_CHAT_ID", "abc")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "TELEGRAM_TOKEN")

	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
	assert.True(t, cfg.NotificationsEnabled())
}

func TestActivityLogLimit(t *testing.T) {
	clearEnv(t)
	t.Setenv("ACTIVITY_LOG_LIMIT", "0")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("ACTIVITY_LOG_LIMIT", "250")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.ActivityLogLimit)
}
