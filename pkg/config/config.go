// configuration of the Sell OAuth client
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gematik/sell-oauth/pkg/oauth2"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreValkey = "valkey"
)

type Config struct {
	ClientID      string        `yaml:"client_id" validate:"required"`
	ClientSecret  string        `yaml:"client_secret" validate:"required"`
	RedirectURI   string        `yaml:"redirect_uri" validate:"required,url"`
	Port          int           `yaml:"port" validate:"min=1,max=65535"`
	AuthURL       string        `yaml:"auth_url" validate:"required,url"`
	TokenURL      string        `yaml:"token_url" validate:"required,url"`
	SessionSecret string        `yaml:"session_secret" validate:"omitempty,base64"`
	SessionStore  string        `yaml:"session_store" validate:"oneof=memory valkey"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	ValkeyAddr    string        `yaml:"valkey_addr" validate:"required_if=SessionStore valkey"`
	TokenTimeout  time.Duration `yaml:"token_timeout"`
	LogTokens     bool          `yaml:"log_tokens"`
}

// keys and the environment variables they are read from
var envBindings = map[string]string{
	"client_id":      "ZENDESK_CLIENT_ID",
	"client_secret":  "ZENDESK_CLIENT_SECRET",
	"redirect_uri":   "REDIRECT_URI",
	"port":           "PORT",
	"auth_url":       "AUTH_URL",
	"token_url":      "TOKEN_URL",
	"session_secret": "SESSION_SECRET",
	"session_store":  "SESSION_STORE",
	"session_ttl":    "SESSION_TTL",
	"valkey_addr":    "VALKEY_ADDR",
	"token_timeout":  "TOKEN_TIMEOUT",
	"log_tokens":     "LOG_TOKENS",
	"config_file":    "CONFIG_FILE",
}

func Defaults() *Config {
	return &Config{
		Port:         5000,
		AuthURL:      oauth2.DefaultAuthURL,
		TokenURL:     oauth2.DefaultTokenURL,
		SessionStore: SessionStoreMemory,
		SessionTTL:   24 * time.Hour,
		ValkeyAddr:   "127.0.0.1:6379",
		LogTokens:    true,
	}
}

// BindEnv registers the environment variable names with viper.
func BindEnv(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}

// Load builds the configuration from defaults, the optional yaml file named
// by config_file and finally the values set in viper (environment, flags).
func Load(v *viper.Viper) (*Config, error) {
	cfg := Defaults()

	if path := v.GetString("config_file"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if v.IsSet("client_id") {
		cfg.ClientID = v.GetString("client_id")
	}
	if v.IsSet("client_secret") {
		cfg.ClientSecret = v.GetString("client_secret")
	}
	if v.IsSet("redirect_uri") {
		cfg.RedirectURI = v.GetString("redirect_uri")
	}
	if v.IsSet("port") {
		cfg.Port = v.GetInt("port")
	}
	if v.IsSet("auth_url") {
		cfg.AuthURL = v.GetString("auth_url")
	}
	if v.IsSet("token_url") {
		cfg.TokenURL = v.GetString("token_url")
	}
	if v.IsSet("session_secret") {
		cfg.SessionSecret = v.GetString("session_secret")
	}
	if v.IsSet("session_store") {
		cfg.SessionStore = strings.ToLower(v.GetString("session_store"))
	}
	if v.IsSet("session_ttl") {
		cfg.SessionTTL = v.GetDuration("session_ttl")
	}
	if v.IsSet("valkey_addr") {
		cfg.ValkeyAddr = v.GetString("valkey_addr")
	}
	if v.IsSet("token_timeout") {
		cfg.TokenTimeout = v.GetDuration("token_timeout")
	}
	if v.IsSet("log_tokens") {
		cfg.LogTokens = v.GetBool("log_tokens")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return fmt.Errorf("unmarshal config file '%s': %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("validate config: session_ttl must not be negative")
	}
	if c.TokenTimeout < 0 {
		return fmt.Errorf("validate config: token_timeout must not be negative")
	}
	return nil
}

// SessionKey returns the decoded session signing key, nil if none is configured.
func (c *Config) SessionKey() ([]byte, error) {
	if c.SessionSecret == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("decode session_secret: %w", err)
	}
	return key, nil
}

func (c *Config) ValkeyAddrs() []string {
	var addrs []string
	for _, addr := range strings.Split(c.ValkeyAddr, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) OAuth2() oauth2.Config {
	return oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURI:  c.RedirectURI,
		AuthURL:      c.AuthURL,
		TokenURL:     c.TokenURL,
		Timeout:      c.TokenTimeout,
	}
}
