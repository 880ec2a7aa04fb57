package config_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gematik/sell-oauth/pkg/config"
	"github.com/gematik/sell-oauth/pkg/oauth2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	require.NoError(t, config.BindEnv(v))
	return v
}

func clearEnv(t *testing.T) {
	// viper treats empty variables as unset
	for _, env := range []string{
		"ZENDESK_CLIENT_ID", "ZENDESK_CLIENT_SECRET", "REDIRECT_URI", "PORT",
		"AUTH_URL", "TOKEN_URL", "SESSION_SECRET", "SESSION_STORE", "SESSION_TTL",
		"VALKEY_ADDR", "TOKEN_TIMEOUT", "LOG_TOKENS", "CONFIG_FILE",
	} {
		t.Setenv(env, "")
	}
}

func setRequiredEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ZENDESK_CLIENT_ID", "client-id")
	t.Setenv("ZENDESK_CLIENT_SECRET", "s3cret")
	t.Setenv("REDIRECT_URI", "http://localhost:5000/callback")
}

func TestLoadFromEnv(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, "client-id", cfg.ClientID)
	assert.Equal(t, "s3cret", cfg.ClientSecret)
	assert.Equal(t, "http://localhost:5000/callback", cfg.RedirectURI)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, ":5000", cfg.ListenAddr())
	assert.Equal(t, oauth2.DefaultAuthURL, cfg.AuthURL)
	assert.Equal(t, oauth2.DefaultTokenURL, cfg.TokenURL)
	assert.Equal(t, config.SessionStoreMemory, cfg.SessionStore)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.LogTokens)
	assert.Zero(t, cfg.TokenTimeout)

	key, err := cfg.SessionKey()
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	secret := base64.StdEncoding.EncodeToString(make([]byte, 32))
	t.Setenv("PORT", "8080")
	t.Setenv("SESSION_SECRET", secret)
	t.Setenv("SESSION_STORE", "Valkey")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("VALKEY_ADDR", "10.0.0.1:6379, 10.0.0.2:6379")
	t.Setenv("TOKEN_TIMEOUT", "5s")
	t.Setenv("LOG_TOKENS", "false")

	cfg, err := config.Load(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, config.SessionStoreValkey, cfg.SessionStore)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"10.0.0.1:6379", "10.0.0.2:6379"}, cfg.ValkeyAddrs())
	assert.Equal(t, 5*time.Second, cfg.TokenTimeout)
	assert.False(t, cfg.LogTokens)

	key, err := cfg.SessionKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)

	oauth2Cfg := cfg.OAuth2()
	assert.Equal(t, "client-id", oauth2Cfg.ClientID)
	assert.Equal(t, 5*time.Second, oauth2Cfg.Timeout)
}

func TestLoadMissingRequired(t *testing.T) {
	clearEnv(t)
	t.Setenv("ZENDESK_CLIENT_ID", "client-id")

	_, err := config.Load(newViper(t))
	assert.Error(t, err)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := map[string]string{
		"SESSION_STORE":  "memcached",
		"REDIRECT_URI":   "not a url",
		"PORT":           "70000",
		"SESSION_SECRET": "%%%",
	}

	for env, value := range tests {
		t.Run(env, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(env, value)
			_, err := config.Load(newViper(t))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sell-oauth.yaml")
	err := os.WriteFile(path, []byte(`
client_id: file-client
client_secret: file-secret
redirect_uri: https://example.com/callback
port: 9000
session_ttl: 30m
log_tokens: false
`), 0o600)
	require.NoError(t, err)

	clearEnv(t)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ZENDESK_CLIENT_ID", "env-client")

	cfg, err := config.Load(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, "env-client", cfg.ClientID, "environment wins over file")
	assert.Equal(t, "file-secret", cfg.ClientSecret)
	assert.Equal(t, "https://example.com/callback", cfg.RedirectURI)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.LogTokens)
}

func TestLoadMissingConfigFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := config.Load(newViper(t))
	assert.Error(t, err)
}
