package config

import (
	"net/url"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Backend   BackendConfig   `mapstructure:"backend" yaml:"backend" validate:"required"`
	Push      PushConfig      `mapstructure:"push" yaml:"push" validate:"required"`
	Poll      PollConfig      `mapstructure:"poll" yaml:"poll" validate:"required"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard" validate:"required"`
	Web       WebConfig       `mapstructure:"web" yaml:"web"`
	Log       LogConfig       `mapstructure:"log" yaml:"log" validate:"required"`
}

// BackendConfig locates the task-processing backend.
type BackendConfig struct {
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
	WSPath         string        `mapstructure:"ws_path" yaml:"ws_path" validate:"required,startswith=/"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" validate:"gt=0"`
}

// PushConfig contains the push channel lifecycle settings.
type PushConfig struct {
	ReconnectInterval    time.Duration `mapstructure:"reconnect_interval" yaml:"reconnect_interval" validate:"gt=0"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts" yaml:"max_reconnect_attempts" validate:"gte=0"`
	PongWait             time.Duration `mapstructure:"pong_wait" yaml:"pong_wait" validate:"gt=0"`
	WriteWait            time.Duration `mapstructure:"write_wait" yaml:"write_wait" validate:"gt=0"`
}

// PollConfig controls the periodic full-list refresh.
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"gt=0"`
}

// DashboardConfig controls what the presenter is handed.
type DashboardConfig struct {
	DisplayLimit int `mapstructure:"display_limit" yaml:"display_limit" validate:"gt=0"`
}

// WebConfig controls the local status surface.
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr" validate:"required_if=Enabled true"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
}

// PushURL derives the WebSocket endpoint from the backend base URL,
// mapping http to ws and https to wss.
func (b BackendConfig) PushURL() (string, error) {
	u, err := url.Parse(b.BaseURL)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + b.WSPath
	return u.String(), nil
}

// YAML renders the effective configuration in the same layout a config file
// uses, so the output can be saved and passed back with --config.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
