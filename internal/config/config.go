package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-json-experiment/json"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/tsgonest/tskeys/internal/literal"
)

// DefaultMaxDepth matches the flattening engine's default nesting limit.
const DefaultMaxDepth = 20

// FileNames are the config files Discover looks for, in order.
var FileNames = []string{"tskeys.config.json", "tskeys.config.yaml", "tskeys.config.yml"}

// Config represents the tskeys configuration.
type Config struct {
	// Module is the import specifier the marker function comes from.
	Module string `json:"module" yaml:"module"`
	// Function is the exported name of the marker function.
	Function string `json:"function" yaml:"function"`
	// Output is "records" (default) or "paths".
	Output string `json:"output" yaml:"output"`
	// MaxDepth bounds nesting; deeper properties are emitted as leaves.
	MaxDepth int `json:"maxDepth" yaml:"maxDepth"`

	Include []string `json:"include,omitempty" yaml:"include,omitempty"` // Glob patterns for source files to scan
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	// Strict turns flattening notes into build errors.
	Strict bool `json:"strict,omitempty" yaml:"strict,omitempty"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Module:   "ts-transformer-keys",
		Function: "keys",
		Output:   string(literal.ModeRecords),
		MaxDepth: DefaultMaxDepth,
		Include:  []string{"**/*.ts", "**/*.tsx", "**/*.mts", "**/*.cts"},
	}
}

// Discover returns the first config file found in dir, or "" if none.
func Discover(dir string) string {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Load reads and parses a tskeys config file. The format follows the file
// extension: .json, or .yaml / .yml. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("failed to read config file %q: %w", path, err)
	}

	config, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, errors.Errorf("failed to parse config file %q: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Errorf("invalid config in %q: %w", path, err)
	}

	return config, nil
}

// Parse decodes data on top of DefaultConfig. ext selects the format.
func Parse(data []byte, ext string) (*Config, error) {
	config := DefaultConfig()
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &config, json.RejectUnknownMembers(true)); err != nil {
			return nil, errors.Errorf("decoding json: %w", err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to io.EOF and leaves the defaults.
		if err := dec.Decode(&config); err != nil && len(bytes.TrimSpace(data)) > 0 {
			return nil, errors.Errorf("decoding yaml: %w", err)
		}
	default:
		return nil, errors.Errorf("unsupported config format %q", ext)
	}
	return &config, nil
}

// Validate checks the config for logical errors.
func (c *Config) Validate() error {
	if c.Module == "" {
		return errors.New("module must not be empty")
	}
	if c.Function == "" {
		return errors.New("function must not be empty")
	}
	if _, err := literal.ParseMode(c.Output); err != nil {
		return errors.Errorf("output: %w", err)
	}
	if c.MaxDepth < 1 {
		return errors.Errorf("maxDepth must be at least 1, got %d", c.MaxDepth)
	}
	if len(c.Include) == 0 {
		return errors.New("include must have at least one pattern")
	}
	return nil
}

// Mode returns the parsed output mode. Call after Validate.
func (c *Config) Mode() literal.Mode {
	m, err := literal.ParseMode(c.Output)
	if err != nil {
		return literal.ModeRecords
	}
	return m
}
