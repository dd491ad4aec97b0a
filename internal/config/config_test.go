package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pseng/MyH5P-pages/internal/config"
)

func environ(vars ...string) config.Option {
	return config.WithEnviron(func() []string { return vars })
}

func noDotenv() config.Option {
	return config.WithEnvFile("")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "learnpath:", cfg.Storage.Redis.Prefix)
	assert.True(t, cfg.Storage.Postgres.Migrate)
	assert.Equal(t, 10*time.Second, cfg.Tracking.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.Sessions.IdleTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Encryption.Enabled())
}

func TestLoad_Layers(t *testing.T) {
	file := writeFile(t, "learnpath.yaml", `
server:
  addr: ":9000"
  read_timeout: 5s
storage:
  driver: redis
  redis:
    addr: "redis:6379"
    db: 1
log:
  level: debug
`)
	dotenv := writeFile(t, ".env", "LEARNPATH_STORAGE_REDIS_DB=3\nLEARNPATH_LOG_FORMAT=json\n")

	cfg, err := config.Load(file,
		config.WithEnvFile(dotenv),
		environ(
			"LEARNPATH_STORAGE_REDIS_DB=4",
			"LEARNPATH_SERVER_CORS_ORIGINS=https://a.example,https://b.example",
			"LEARNPATH_SESSIONS_IDLE_TIMEOUT=90m",
			"UNRELATED=1",
		),
	)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr, "file overrides defaults")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout, "defaults survive a partial file")
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 4, cfg.Storage.Redis.DB, "process env overrides .env")
	assert.Equal(t, "json", cfg.Log.Format, ".env overrides the file")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 90*time.Minute, cfg.Sessions.IdleTimeout)
}

func TestLoad_MissingDotenvIsIgnored(t *testing.T) {
	cfg, err := config.Load("", config.WithEnvFile(filepath.Join(t.TempDir(), "nope.env")), environ())
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     []string
		wantErr string
	}{
		{
			name:    "unknown driver",
			env:     []string{"LEARNPATH_STORAGE_DRIVER=mongo"},
			wantErr: "Driver",
		},
		{
			name:    "unknown key",
			yaml:    "server:\n  adress: \":1\"\n",
			wantErr: "adress",
		},
		{
			name:    "postgres without url",
			env:     []string{"LEARNPATH_STORAGE_DRIVER=postgres"},
			wantErr: "storage.postgres.url",
		},
		{
			name:    "bad duration",
			env:     []string{"LEARNPATH_TRACKING_TIMEOUT=soon"},
			wantErr: "timeout",
		},
		{
			name:    "short encryption key",
			env:     []string{"LEARNPATH_ENCRYPTION_KEY=abcd"},
			wantErr: "Key",
		},
		{
			name:    "bad log level",
			yaml:    "log:\n  level: loud\n",
			wantErr: "Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.yaml != "" {
				path = writeFile(t, "c.yaml", tt.yaml)
			}
			_, err := config.Load(path, noDotenv(), environ(tt.env...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_EncryptionKeys(t *testing.T) {
	key := strings.Repeat("ab", 32)
	old := strings.Repeat("cd", 32)

	cfg, err := config.Load("", noDotenv(), environ(
		"LEARNPATH_ENCRYPTION_KEY="+key,
		"LEARNPATH_ENCRYPTION_FALLBACK_KEYS="+old,
	))
	require.NoError(t, err)
	assert.True(t, cfg.Encryption.Enabled())
	assert.Equal(t, []string{old}, cfg.Encryption.FallbackKeys)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), noDotenv(), environ())
	require.Error(t, err)
}
