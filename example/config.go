package example

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "FLOWDEMO_"

// Config is the configuration of the demo server
type Config struct {
	// Addr is the listening address, see tnet.Listen
	Addr string `koanf:"addr"`

	// Tokens maps accepted bearer tokens to user names
	Tokens map[string]string `koanf:"tokens"`

	CORSOrigins    []string      `koanf:"cors_origins"`
	Compress       bool          `koanf:"compress"`
	LogBodies      bool          `koanf:"log_bodies"`
	Seed           bool          `koanf:"seed"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

var defaults = map[string]any{
	"addr":            ":8080",
	"tokens":          map[string]any{"demo-token": "demo"},
	"cors_origins":    []string{"*"},
	"compress":        true,
	"log_bodies":      false,
	"seed":            true,
	"request_timeout": "5s",
}

// LoadConfig reads the configuration from a YAML file (if path is not empty),
// then from FLOWDEMO_* environment variables, then applies overrides.
//
// Nested keys in environment variables are separated by a double underscore:
// FLOWDEMO_TOKENS__SECRET=alice.
func LoadConfig(path string, overrides map[string]any) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("config file %s does not exist", path)
			}
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, value); err != nil {
				return Config{}, err
			}
		}
	}
	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid configuration: request_timeout must be positive, got %s", cfg.RequestTimeout)
	}
	return cfg, nil
}
