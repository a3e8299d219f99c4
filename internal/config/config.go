// Package config loads peptrack settings.
//
// Sources are layered with koanf, later ones overriding earlier ones:
// built-in defaults, an optional YAML file, PEPTRACK_* environment
// variables, and finally flags the user set explicitly.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"peptrack/internal/catalog"
	"peptrack/internal/report"
	"peptrack/internal/snapshot"
)

// DefaultEnvPrefix is the environment variable prefix.
const DefaultEnvPrefix = "PEPTRACK_"

// ErrInvalid marks a configuration that loaded but cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Config is the resolved configuration.
type Config struct {
	Source struct {
		URL     string        `koanf:"url"`
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"source"`
	State struct {
		Path    string `koanf:"path"`
		Rewrite bool   `koanf:"rewrite"`
	} `koanf:"state"`
	History struct {
		Path string `koanf:"path"`
	} `koanf:"history"`
	Metrics struct {
		File string `koanf:"file"`
	} `koanf:"metrics"`
	Output struct {
		Format string `koanf:"format"`
		Color  bool   `koanf:"color"`
		Label  string `koanf:"label"`
	} `koanf:"output"`
	Log struct {
		File  string `koanf:"file"`
		Debug bool   `koanf:"debug"`
	} `koanf:"log"`
}

// Defaults returns the built-in values as a flat koanf map.
func Defaults() map[string]any {
	return map[string]any{
		"source.url":     catalog.DefaultURL,
		"source.timeout": catalog.DefaultConfig().Timeout.String(),
		"state.path":     snapshot.DefaultPath,
		"state.rewrite":  false,
		"history.path":   "",
		"metrics.file":   "",
		"output.format":  string(report.FormatPretty),
		"output.color":   true,
		"output.label":   report.DefaultLabel,
		"log.file":       "",
		"log.debug":      false,
	}
}

// DefaultFile returns $XDG_CONFIG_HOME/peptrack/config.yaml (or the
// platform equivalent) when that file exists, and "" otherwise.
func DefaultFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, "peptrack", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Loader assembles a Config from its sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML file to read. An empty path skips the file.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load layers defaults, file, environment and flags, then validates.
// flags holds only the values the user set on the command line, keyed
// like the file (e.g. "state.path").
func (l *Loader) Load(flags map[string]any) (Config, error) {
	var cfg Config

	if err := l.k.Load(mapProvider(Defaults()), nil); err != nil {
		return cfg, fmt.Errorf("load defaults: %w", err)
	}
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("load file %s: %w", l.filePath, err)
		}
	}
	if err := l.k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return cfg, fmt.Errorf("load env: %w", err)
	}
	if len(flags) > 0 {
		if err := l.k.Load(mapProvider(flags), nil); err != nil {
			return cfg, fmt.Errorf("load flags: %w", err)
		}
	}

	if err := l.k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// envKey maps PEPTRACK_SOURCE_URL to source.url.
func (l *Loader) envKey(s string) string {
	s = strings.TrimPrefix(s, l.envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// Validate rejects values no component can act on.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Source.URL) == "" {
		return fmt.Errorf("%w: source.url is empty", ErrInvalid)
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("%w: source.timeout must be positive, got %s", ErrInvalid, c.Source.Timeout)
	}
	if strings.TrimSpace(c.State.Path) == "" {
		return fmt.Errorf("%w: state.path is empty", ErrInvalid)
	}
	if _, err := report.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("%w: output.format: %v", ErrInvalid, err)
	}
	return nil
}
