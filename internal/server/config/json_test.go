package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestParseJson_OverlaysOnlyPresentFields(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"http_addr":                      "www.example:9000",
		"database_dsn":                   "file:dreams.db",
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "2h",
		"collaborator_timeout":           int64(30 * time.Second),
		"ark_api_key":                    "ark-key",
		"google_api_key":                 "g-key",
		"retrieval_k":                    3,
		"image_store":                    "s3",
		"s3_presign_ttl":                 "5m",
	})

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseJson(cfg, []string{"-config", path}))

	assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
	assert.Equal(t, "file:dreams.db", cfg.DatabaseDSN)
	assert.Equal(t, "my_secret_key", cfg.SecretKey)
	assert.Equal(t, 2*time.Hour, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 30*time.Second, cfg.CollaboratorTimeout)
	assert.Equal(t, "ark-key", cfg.ArkAPIKey)
	assert.Equal(t, "g-key", cfg.GoogleAPIKey)
	assert.Equal(t, 3, cfg.RetrievalK)
	assert.Equal(t, "s3", cfg.ImageStore)
	assert.Equal(t, 5*time.Minute, cfg.S3PresignTTL)

	// untouched defaults
	assert.Equal(t, "Asia/Kolkata", cfg.DisplayTimezone)
	assert.Equal(t, 1500, cfg.ChunkSize)
	assert.Equal(t, "dreams", cfg.S3Bucket)
}

func TestParseJson_EnvVarPointsAtFile(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"http_addr": ":7000"})
	t.Setenv(ConfigEnvVar, path)

	cfg := &Config{}
	require.NoError(t, parseJson(cfg, nil))
	assert.Equal(t, ":7000", cfg.HTTPAddr)
}

func TestParseJson_NoFileIsNoop(t *testing.T) {
	cfg := &Config{HTTPAddr: ":1"}
	require.NoError(t, parseJson(cfg, []string{"-a", ":2"}))
	assert.Equal(t, ":1", cfg.HTTPAddr)
}

func TestParseJson_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		err := parseJson(&Config{}, []string{"-c", filepath.Join(t.TempDir(), "nope.json")})
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		assert.Error(t, parseJson(&Config{}, []string{"-c", path}))
	})

	t.Run("invalid duration", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"collaborator_timeout": "forever"})
		assert.Error(t, parseJson(&Config{}, []string{"-c", path}))
	})
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"http_addr":        ":7000",
		"display_timezone": "Europe/Riga",
		"log_level":        "warn",
	})
	t.Setenv("DISPLAY_TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load([]string{"-c", path, "-l", "debug"})
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.HTTPAddr, "json beats defaults")
	assert.Equal(t, "UTC", cfg.DisplayTimezone, "env beats json")
	assert.Equal(t, "debug", cfg.LogLevel, "flags beat env")
}
