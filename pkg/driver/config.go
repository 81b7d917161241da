package driver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"rpncalc/core-go/pkg/program"
)

// Stack modes accepted in the config file.
const (
	StackBig     = "big"
	StackClassic = "classic"
)

// DefaultStateFile is where sessions are saved when nothing else is named.
const DefaultStateFile = "rpncore.state"

// Config models the rpncore.yaml session configuration.
type Config struct {
	Path           string
	Stack          string
	Trace          bool
	LogLevel       string
	Color          bool
	RefreshMillis  uint32
	MaxReturnDepth int
	StateFile      string
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Stack:          StackBig,
		LogLevel:       zerolog.InfoLevel.String(),
		Color:          true,
		RefreshMillis:  250,
		MaxReturnDepth: program.DefaultMaxFrames,
		StateFile:      DefaultStateFile,
	}
}

// LoadConfig parses path on top of the defaults. A missing file is not an
// error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	raw := cfg.toDisk()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", abs, err)
	}
	cfg = raw.toConfig()
	cfg.Path = abs
	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", abs, err)
	}
	return cfg, nil
}

// WriteConfig serialises cfg to path, or to cfg.Path when path is empty.
func WriteConfig(cfg *Config, path string) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}
	if path == "" {
		if cfg.Path == "" {
			return fmt.Errorf("config: missing path")
		}
		path = cfg.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: resolve %s: %w", path, err)
	}
	if err := cfg.normalize(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg.Path = abs

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.toDisk()); err != nil {
		return fmt.Errorf("config: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", abs, err)
	}
	return nil
}

// Level returns the configured log level; Trace wins over LogLevel.
func (c *Config) Level() zerolog.Level {
	if c.Trace {
		return zerolog.TraceLevel
	}
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// BigStack reports whether the dynamic depth stack is selected.
func (c *Config) BigStack() bool { return c.Stack != StackClassic }

func (c *Config) normalize() error {
	c.Stack = strings.ToLower(strings.TrimSpace(c.Stack))
	switch c.Stack {
	case "":
		c.Stack = StackBig
	case StackBig, StackClassic:
	default:
		return fmt.Errorf("stack must be %q or %q, got %q", StackBig, StackClassic, c.Stack)
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = zerolog.InfoLevel.String()
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.MaxReturnDepth <= 0 {
		c.MaxReturnDepth = program.DefaultMaxFrames
	}
	if c.RefreshMillis == 0 {
		c.RefreshMillis = 250
	}
	c.StateFile = strings.TrimSpace(c.StateFile)
	if c.StateFile == "" {
		c.StateFile = DefaultStateFile
	}
	return nil
}

type configDisk struct {
	Stack          string      `yaml:"stack"`
	Trace          bool        `yaml:"trace"`
	LogLevel       string      `yaml:"log_level"`
	Display        displayDisk `yaml:"display"`
	MaxReturnDepth int         `yaml:"max_return_depth"`
	StateFile      string      `yaml:"state_file"`
}

type displayDisk struct {
	Color     bool   `yaml:"color"`
	RefreshMS uint32 `yaml:"refresh_ms"`
}

func (c *Config) toDisk() configDisk {
	return configDisk{
		Stack:    c.Stack,
		Trace:    c.Trace,
		LogLevel: c.LogLevel,
		Display: displayDisk{
			Color:     c.Color,
			RefreshMS: c.RefreshMillis,
		},
		MaxReturnDepth: c.MaxReturnDepth,
		StateFile:      c.StateFile,
	}
}

func (d configDisk) toConfig() *Config {
	return &Config{
		Stack:          d.Stack,
		Trace:          d.Trace,
		LogLevel:       d.LogLevel,
		Color:          d.Display.Color,
		RefreshMillis:  d.Display.RefreshMS,
		MaxReturnDepth: d.MaxReturnDepth,
		StateFile:      d.StateFile,
	}
}
