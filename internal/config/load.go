package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads.
const EnvPrefix = "TASKDASH"

// Load reads configuration from defaults, an optional config file, and
// environment variables. Environment variables take precedence over values
// from the file. An empty path means no file is read.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind critical environment variables
	for _, key := range []string{"backend.base_url", "web.addr"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:8080")
	v.SetDefault("backend.ws_path", "/api/v1/ws/tasks")
	v.SetDefault("backend.request_timeout", "30s")

	v.SetDefault("push.reconnect_interval", "5s")
	v.SetDefault("push.max_reconnect_attempts", 10)
	v.SetDefault("push.pong_wait", "60s")
	v.SetDefault("push.write_wait", "10s")

	v.SetDefault("poll.interval", "5s")

	v.SetDefault("dashboard.display_limit", 20)

	v.SetDefault("web.enabled", false)
	v.SetDefault("web.addr", "127.0.0.1:8090")

	v.SetDefault("log.level", "info")
}
