// Package config loads snowkit configuration from a JSON file or from
// SNOWKIT_-prefixed environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultAPIPath = "/api/now/v1"

// Config is the top-level snowkit configuration.
type Config struct {
	Instance InstanceConfig `json:"instance"`
	Auth     AuthConfig     `json:"auth"`
	API      APIConfig      `json:"api"`
	LogLevel string         `json:"log_level,omitempty"`
}

// InstanceConfig holds the target ServiceNow instance settings.
type InstanceConfig struct {
	URL     string `json:"url"`                // e.g. https://dev12345.service-now.com
	APIPath string `json:"api_path,omitempty"` // defaults to /api/now/v1
	Timeout int    `json:"timeout,omitempty"`  // seconds, default 30
}

// AuthConfig selects and configures the authentication scheme.
type AuthConfig struct {
	Type   string           `json:"type"` // "basic", "token" or "apikey"
	Basic  *BasicAuthConfig `json:"basic,omitempty"`
	Token  string           `json:"token,omitempty"`
	APIKey *APIKeyConfig    `json:"apikey,omitempty"`
}

// BasicAuthConfig holds username/password credentials.
type BasicAuthConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// APIKeyConfig holds an instance API key and an optional header override.
type APIKeyConfig struct {
	Key    string `json:"key"`
	Header string `json:"header,omitempty"`
}

// APIConfig holds the tool API server settings.
type APIConfig struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Key         string `json:"api_key,omitempty"` // Bearer key, empty disables auth
	CallLogSize int    `json:"call_log_size,omitempty"`
}

// APIURL returns the REST base URL for the configured instance.
func (c *Config) APIURL() string {
	path := c.Instance.APIPath
	if path == "" {
		path = defaultAPIPath
	}
	return strings.TrimRight(c.Instance.URL, "/") + path
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv builds a config from SNOWKIT_ environment variables. A .env
// file in the working directory is loaded first if present.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Instance: InstanceConfig{
			URL:     os.Getenv("SNOWKIT_INSTANCE_URL"),
			APIPath: os.Getenv("SNOWKIT_API_PATH"),
			Timeout: getenvInt("SNOWKIT_TIMEOUT", 30),
		},
		API: APIConfig{
			Host:        getenv("SNOWKIT_API_HOST", "0.0.0.0"),
			Port:        getenvInt("SNOWKIT_API_PORT", 8090),
			Key:         os.Getenv("SNOWKIT_API_KEY"),
			CallLogSize: getenvInt("SNOWKIT_CALL_LOG_SIZE", 256),
		},
		LogLevel: getenv("SNOWKIT_LOG_LEVEL", "info"),
	}

	switch {
	case os.Getenv("SNOWKIT_USERNAME") != "":
		cfg.Auth = AuthConfig{
			Type: "basic",
			Basic: &BasicAuthConfig{
				Username: os.Getenv("SNOWKIT_USERNAME"),
				Password: os.Getenv("SNOWKIT_PASSWORD"),
			},
		}
	case os.Getenv("SNOWKIT_TOKEN") != "":
		cfg.Auth = AuthConfig{Type: "token", Token: os.Getenv("SNOWKIT_TOKEN")}
	case os.Getenv("SNOWKIT_APIKEY") != "":
		cfg.Auth = AuthConfig{
			Type: "apikey",
			APIKey: &APIKeyConfig{
				Key:    os.Getenv("SNOWKIT_APIKEY"),
				Header: os.Getenv("SNOWKIT_APIKEY_HEADER"),
			},
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Instance.Timeout == 0 {
		cfg.Instance.Timeout = 30
	}
	if cfg.API.Host == "" {
		cfg.API.Host = "0.0.0.0"
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 8090
	}
	if cfg.API.CallLogSize == 0 {
		cfg.API.CallLogSize = 256
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// Validate checks for required fields, collecting every problem.
func (c *Config) Validate() error {
	var errs []string

	if c.Instance.URL == "" {
		errs = append(errs, "instance.url is required")
	} else if !strings.HasPrefix(c.Instance.URL, "http://") && !strings.HasPrefix(c.Instance.URL, "https://") {
		errs = append(errs, "instance.url must be an http(s) URL")
	}
	if c.Instance.Timeout < 0 {
		errs = append(errs, "instance.timeout must not be negative")
	}

	switch c.Auth.Type {
	case "basic":
		if c.Auth.Basic == nil || c.Auth.Basic.Username == "" || c.Auth.Basic.Password == "" {
			errs = append(errs, "auth.basic.username and auth.basic.password are required for basic auth")
		}
	case "token":
		if c.Auth.Token == "" {
			errs = append(errs, "auth.token is required for token auth")
		}
	case "apikey":
		if c.Auth.APIKey == nil || c.Auth.APIKey.Key == "" {
			errs = append(errs, "auth.apikey.key is required for apikey auth")
		}
	case "":
		errs = append(errs, "auth.type is required (basic, token or apikey)")
	default:
		errs = append(errs, fmt.Sprintf("auth.type %q is not one of basic, token, apikey", c.Auth.Type))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
