// Package config loads the demo client's ambient configuration: a YAML
// file plus .env-sourced environment variable overrides, in the style of
// the teacher's own startup configuration loading.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Defaults holds the client-facing settings that SPEC_FULL.md's demo
// command and integration tests may want to override without recompiling:
// the target base URI, a static bearer token (for services that don't need
// the refreshing adapter), and HTTP timeouts.
type Defaults struct {
	BaseURI        string        `yaml:"base-uri"`
	BearerToken    string        `yaml:"bearer-token"`
	RequestTimeout time.Duration `yaml:"request-timeout"`
	ProxyURL       string        `yaml:"proxy-url"`
	Debug          bool          `yaml:"debug"`
}

// DefaultRequestTimeout is used when a loaded config omits request-timeout.
const DefaultRequestTimeout = 30 * time.Second

// Load reads YAML configuration from path (if it exists), then applies
// SUNDAY_-prefixed environment variable overrides, having first loaded a
// ".env" file from the current working directory if present. A missing
// config file is not an error: Load returns zero-value Defaults with
// RequestTimeout set.
func Load(path string) (*Defaults, error) {
	cfg := &Defaults{RequestTimeout: DefaultRequestTimeout}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("config: failed to load .env file")
	}

	applyEnvOverrides(cfg)

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Defaults) {
	if v, ok := lookupEnv("SUNDAY_BASE_URI"); ok {
		cfg.BaseURI = v
	}
	if v, ok := lookupEnv("SUNDAY_BEARER_TOKEN"); ok {
		cfg.BearerToken = v
	}
	if v, ok := lookupEnv("SUNDAY_PROXY_URL"); ok {
		cfg.ProxyURL = v
	}
	if v, ok := lookupEnv("SUNDAY_DEBUG"); ok {
		cfg.Debug = v == "1" || strings.EqualFold(v, "true")
	}
	if v, ok := lookupEnv("SUNDAY_REQUEST_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}
