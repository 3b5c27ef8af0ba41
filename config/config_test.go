package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "session_key: secret\n"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3002", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "./data", cfg.Database.Path)

	assert.Equal(t, "daily-like-digest", cfg.Digest.JobName)
	assert.Equal(t, "Daily Likes Notification", cfg.Digest.Subject)
	assert.Equal(t, 24, cfg.Digest.WindowHours)
	assert.Equal(t, "cron", cfg.Digest.Schedule.Kind)
	assert.Equal(t, "0", cfg.Digest.Schedule.Minute)
	assert.Equal(t, "8", cfg.Digest.Schedule.Hour)
	assert.Equal(t, "UTC", cfg.Digest.Schedule.Timezone)

	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.False(t, cfg.Email.Enabled)
	assert.Equal(t, "memory", cfg.Cache.Type)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
session_key: secret
digest:
  window_hours: 48
  schedule:
    kind: interval
    every: 12
    period: hours
`))
	require.NoError(t, err)

	assert.Equal(t, 48, cfg.Digest.WindowHours)
	assert.Equal(t, "interval", cfg.Digest.Schedule.Kind)
	assert.Equal(t, 12, cfg.Digest.Schedule.Every)
}

func TestLoadRejectsMissingSessionKey(t *testing.T) {
	_, err := Load(writeConfig(t, "listen: 0.0.0.0:3002\n"))
	require.ErrorContains(t, err, "session_key")
}

func TestValidateSchedule(t *testing.T) {
	_, err := Load(writeConfig(t, `
session_key: secret
digest:
  schedule:
    kind: sometimes
`))
	require.ErrorContains(t, err, "digest.schedule.kind")

	_, err = Load(writeConfig(t, `
session_key: secret
digest:
  schedule:
    kind: interval
    every: 0
    period: hours
`))
	require.ErrorContains(t, err, "digest.schedule.every")

	_, err = Load(writeConfig(t, `
session_key: secret
digest:
  schedule:
    kind: interval
    every: 2
    period: fortnights
`))
	require.ErrorContains(t, err, "digest.schedule.period")
}

func TestValidateEmail(t *testing.T) {
	_, err := Load(writeConfig(t, `
session_key: secret
email:
  enabled: true
`))
	require.ErrorContains(t, err, "email.smtp_host")
}

func TestValidateWebPush(t *testing.T) {
	_, err := Load(writeConfig(t, `
session_key: secret
webpush:
  enabled: true
`))
	require.ErrorContains(t, err, "VAPID")
}

func TestValidateRedisCache(t *testing.T) {
	_, err := Load(writeConfig(t, `
session_key: secret
cache:
  type: redis
`))
	require.ErrorContains(t, err, "cache.redis_url")
}
