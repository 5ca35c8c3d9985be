// Package config assembles a logger and its handler set from YAML files,
// raw bytes, config maps, and FANLOG_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "FANLOG_"

var validate = validator.New()

// Config describes a logger and its handlers.
type Config struct {
	// Context is the logical name propagated to every handler.
	Context string `koanf:"context" validate:"required"`

	Handlers []HandlerConfig `koanf:"handlers" validate:"required,min=1,dive"`
}

// HandlerConfig describes one handler. Only the stream- and HTTP-backed
// kinds are constructible from configuration; broker-backed sinks need
// live client handles and are wired in code.
type HandlerConfig struct {
	Type string `koanf:"type" validate:"required,oneof=file console error-stream null syslog webhook slack teams loki"`

	// Name makes the handler addressable by name.
	Name string `koanf:"name"`

	// Level is the minimum severity; defaults to debug.
	Level string `koanf:"level"`

	// Formatter overrides the handler default: line, json, or human.
	Formatter string `koanf:"formatter" validate:"omitempty,oneof=line json human"`

	// Path is the destination of a file handler.
	Path string `koanf:"path"`

	// URL is the endpoint of the webhook, slack, teams, and loki kinds.
	URL string `koanf:"url"`

	// Labels are the static stream labels of a loki handler.
	Labels map[string]string `koanf:"labels"`

	Transport TransportConfig `koanf:"transport"`
}

// TransportConfig carries the HTTP engine settings of a handler.
type TransportConfig struct {
	Method            string `koanf:"method"`
	TimeoutSeconds    int    `koanf:"timeout_seconds" validate:"min=0,max=300"`
	Retries           int    `koanf:"retries" validate:"min=0,max=10"`
	RetryDelaySeconds int    `koanf:"retry_delay_seconds" validate:"min=0"`
}

// Load reads the YAML file at path, overlays the environment, and
// validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("config: cannot load %s: %w", path, err)
	}
	return finish(k)
}

// LoadBytes parses raw YAML, overlays the environment, and validates the
// result.
func LoadBytes(data []byte) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("config: cannot parse configuration: %w", err)
	}
	return finish(k)
}

// LoadMap builds a configuration from an in-memory map. Used mostly by
// tests and embedding hosts.
func LoadMap(values map[string]any) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return nil, fmt.Errorf("config: cannot load map: %w", err)
	}
	return finish(k)
}

// finish overlays FANLOG_ environment variables, unmarshals, and
// validates.
func finish(k *koanf.Koanf) (*Config, error) {
	err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, envPrefix)
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("config: cannot load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: cannot unmarshal: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &cfg, nil
}
