package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("ACCESS_TOKEN_VALIDITY", "45m")
	t.Setenv("COLLABORATOR_TIMEOUT", "2s")
	t.Setenv("STABILITY_API_KEY", "sk-test")
	t.Setenv("RETRIEVAL_K", "7")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, 45*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 2*time.Second, cfg.CollaboratorTimeout)
	assert.Equal(t, "sk-test", cfg.StabilityAPIKey)
	assert.Equal(t, 7, cfg.RetrievalK)
	assert.Equal(t, "Asia/Kolkata", cfg.DisplayTimezone, "unset variables keep defaults")
}

func TestParseEnv_BadValue(t *testing.T) {
	t.Setenv("RETRIEVAL_K", "many")
	assert.Error(t, parseEnv(&Config{}))
}
