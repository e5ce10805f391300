// Package config loads the server configuration: a JSON file pointed at by
// $CONFIG_PATH, merged over defaults, with a couple of environment
// overrides for deployment.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
)

const defaultConfigPath = "./deployment/config.json"

// Config is the complete server configuration.
type Config struct {
	Port int `json:"port"`

	HaURL  string `json:"ha_url"`
	ShlURL string `json:"shl_url"`
	SseURL string `json:"sse_url"`

	ApnHost    string `json:"apn_host"`
	ApnKeyPath string `json:"apn_key_path"`
	ApnKeyID   string `json:"apn_key_id"`
	ApnTeamID  string `json:"apn_team_id"`
	ApnTopic   string `json:"apn_topic"`

	DbPath string `json:"db_path"`
	APIKey string `json:"api_key"`

	// SseSleep is the pause between SSE frame reads, in milliseconds.
	SseSleep int `json:"sse_sleep"`
	// Poll switches the live transport from SSE to the polling fallback.
	Poll bool `json:"poll"`
}

func defaults() Config {
	return Config{
		Port:     8080,
		DbPath:   "./db",
		SseSleep: 100,
	}
}

// SseSleepDuration returns the frame pause as a duration.
func (c Config) SseSleepDuration() time.Duration {
	return time.Duration(c.SseSleep) * time.Millisecond
}

// Load reads the configuration. A .env file in the working directory is
// honored before the environment is consulted. Any failure here is fatal to
// the caller; the server cannot run half-configured.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := mergo.Merge(&cfg, defaults()); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}

	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.DbPath = dbPath
	}
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("parse PORT %q: %w", port, err)
		}
		cfg.Port = p
	}

	slog.Info("configuration loaded", "path", path, "port", cfg.Port, "db_path", cfg.DbPath, "poll", cfg.Poll)
	return &cfg, nil
}
