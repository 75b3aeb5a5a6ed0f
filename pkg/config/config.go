// Package config loads the run configuration for the rpki-coreutil
// entrypoint: the trust anchor locator list, the on-disk authority-tree
// store path, and the log level, following the struct-tag +
// creasty/defaults + go-playground/validator + yaml.v2 pattern used for
// pathvector's configuration loader.
package config

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// TAL describes one trust anchor locator entry: a name used as the
// Certificate.TAL tag plus the path to its self-signed certificate.
type TAL struct {
	Name string `yaml:"name" validate:"required"`
	Path string `yaml:"path" validate:"required"`
}

// Config is the top-level run configuration for rpki-coreutil.
type Config struct {
	TALs []TAL `yaml:"tals" validate:"required,min=1,dive"`

	// StorePath is the bbolt file backing the authority lookup tree and
	// BRK index. Empty means an in-memory store, not persisted across
	// runs.
	StorePath string `yaml:"store-path" default:""`

	LogLevel string `yaml:"log-level" default:"info" validate:"oneof=debug info warn error"`

	// ParseCacheTTLSeconds is the TTL for the (filename, digest)-keyed
	// parse-result cache; zero disables expiry.
	ParseCacheTTLSeconds int `yaml:"parse-cache-ttl-seconds" default:"3600"`

	// ListenAddr is the HTTP/3 transport's bind address, e.g. ":8443".
	ListenAddr string `yaml:"listen-addr" default:":8443"`
}

// Load parses and validates a YAML configuration document.
func Load(raw []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config: set defaults: %w", err)
	}
	if err := yaml.UnmarshalStrict(raw, &c); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validator.New().Struct(&c); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &c, nil
}
