package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where gritscan looks for its configuration when --config is
// not given.
const DefaultPath = ".gritscan.yaml"

// Output formats accepted by Format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for an output format other than text, json
// or yaml.
var ErrUnknownFormat = errors.New("unknown output format")

// Config holds gritscan settings. Zero fields are filled from Default.
type Config struct {
	// Database is the SQLite file holding indexed checkpoints.
	Database string `yaml:"database"`
	// Format is the CLI output format.
	Format string `yaml:"format"`
	// Verbosity is the commonlog verbosity; 0 logs errors only.
	Verbosity int `yaml:"verbosity"`
	// LogFile sends logs to a file instead of stderr.
	LogFile string `yaml:"log_file"`
	// Addr is the listen address of the scan service.
	Addr string `yaml:"addr"`
	// Languages maps extra file extensions to registered language names.
	Languages map[string]string `yaml:"languages"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:  ".gritscan.db",
		Format:    FormatText,
		Verbosity: 0,
		Addr:      "127.0.0.1:8765",
	}
}

// Load reads the YAML configuration at path from fs. A missing file yields
// the defaults.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.merge(file)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if err := CheckFormat(c.Format); err != nil {
		return err
	}
	if c.Verbosity < 0 {
		return fmt.Errorf("verbosity %d: must not be negative", c.Verbosity)
	}
	return nil
}

// CheckFormat reports ErrUnknownFormat for anything but text, json or yaml.
func CheckFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("%q: %w", format, ErrUnknownFormat)
}

// LanguageFor returns the language configured for extension ext, if any.
func (c Config) LanguageFor(ext string) (string, bool) {
	name, ok := c.Languages[ext]
	return name, ok
}

func (c *Config) merge(o Config) {
	if o.Database != "" {
		c.Database = o.Database
	}
	if o.Format != "" {
		c.Format = o.Format
	}
	if o.Verbosity != 0 {
		c.Verbosity = o.Verbosity
	}
	if o.LogFile != "" {
		c.LogFile = o.LogFile
	}
	if o.Addr != "" {
		c.Addr = o.Addr
	}
	if len(o.Languages) > 0 {
		c.Languages = o.Languages
	}
}
