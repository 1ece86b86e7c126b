// Package config loads server settings from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Port the HTTP server listens on.
	Port string
	// Model used for both credential validation and generation.
	Model string
	// DataDir holds stored previews and generated results.
	DataDir string
	// SessionTTL is how long an idle session lives before being swept.
	SessionTTL time.Duration
	// SoftUploadLimitMB is advisory only, surfaced to the UI. Uploads are
	// hard-capped separately to bound memory.
	SoftUploadLimitMB int
	// HistoryLimit bounds the in-memory generation history.
	HistoryLimit int
}

// fileConfig is the YAML shape; durations are strings so "30m" works.
type fileConfig struct {
	Port              string `yaml:"port"`
	Model             string `yaml:"model"`
	DataDir           string `yaml:"data_dir"`
	SessionTTL        string `yaml:"session_ttl"`
	SoftUploadLimitMB *int   `yaml:"soft_upload_limit_mb"`
	HistoryLimit      *int   `yaml:"history_limit"`
}

func Default() Config {
	return Config{
		Port:              "8888",
		Model:             "gemini-2.5-flash-image-preview",
		DataDir:           "data",
		SessionTTL:        2 * time.Hour,
		SoftUploadLimitMB: 5,
		HistoryLimit:      1000,
	}
}

// Load starts from defaults, overlays the YAML file at path when it exists,
// and applies environment overrides last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing config file is fine, defaults apply.
		case err != nil:
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		default:
			var fc fileConfig
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return cfg, fmt.Errorf("failed to parse config file: %w", err)
			}
			if err := fc.apply(&cfg); err != nil {
				return cfg, err
			}
		}
	}

	if v := os.Getenv("ECHOFRAME_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("ECHOFRAME_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("ECHOFRAME_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("ECHOFRAME_SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid ECHOFRAME_SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = ttl
	}
	if v := os.Getenv("ECHOFRAME_SOFT_UPLOAD_LIMIT_MB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid ECHOFRAME_SOFT_UPLOAD_LIMIT_MB: %w", err)
		}
		cfg.SoftUploadLimitMB = n
	}
	if v := os.Getenv("ECHOFRAME_HISTORY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid ECHOFRAME_HISTORY_LIMIT: %w", err)
		}
		cfg.HistoryLimit = n
	}

	return cfg, nil
}

func (fc fileConfig) apply(cfg *Config) error {
	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.Model != "" {
		cfg.Model = fc.Model
	}
	if fc.DataDir != "" {
		cfg.DataDir = fc.DataDir
	}
	if fc.SessionTTL != "" {
		ttl, err := time.ParseDuration(fc.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid session_ttl: %w", err)
		}
		cfg.SessionTTL = ttl
	}
	if fc.SoftUploadLimitMB != nil {
		cfg.SoftUploadLimitMB = *fc.SoftUploadLimitMB
	}
	if fc.HistoryLimit != nil {
		cfg.HistoryLimit = *fc.HistoryLimit
	}
	return nil
}
