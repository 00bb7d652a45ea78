// Package config loads and validates inspector configuration. YAML and
// TOML are both supported; the file extension picks the format.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/dapscope/internal/uri"
)

// Adapter describes how to reach one debug adapter.
type Adapter struct {
	// Command launches the adapter as a subprocess when set.
	Command []string `yaml:"command" toml:"command"`

	// Address connects to an already running adapter when set. Command
	// and Address are mutually exclusive.
	Address string `yaml:"address" toml:"address"`

	// ID is the adapterID sent in the initialize handshake. Defaults to
	// the adapter's map key.
	ID string `yaml:"id" toml:"id"`
}

// View is a named buffer definition bound to an entity address.
type View struct {
	// Name identifies the view.
	Name string `yaml:"name" toml:"name"`

	// URI is the entity address the view tracks.
	URI string `yaml:"uri" toml:"uri"`

	// Optional views render empty instead of erroring when their anchor
	// has no focus value.
	Optional bool `yaml:"optional" toml:"optional"`
}

// Picker holds the selection flow options.
type Picker struct {
	// MaxResults caps the candidates shown by the selection surface.
	// Zero means no cap.
	MaxResults int `yaml:"max_results" toml:"max_results"`
}

// Config is the full inspector configuration.
type Config struct {
	// Adapters maps adapter names to their definitions.
	Adapters map[string]Adapter `yaml:"adapters" toml:"adapters"`

	// Views are the buffers opened at startup.
	Views []View `yaml:"views" toml:"views"`

	// Picker configures the selection flow.
	Picker Picker `yaml:"picker" toml:"picker"`

	// LabelScript is an optional Lua script overriding entity labels.
	LabelScript string `yaml:"label_script" toml:"label_script"`
}

// Default returns the configuration used when no file exists: a focus
// driven three-pane layout against a local delve adapter.
func Default() *Config {
	return &Config{
		Adapters: map[string]Adapter{
			"go": {Command: []string{"dlv", "dap"}},
		},
		Views: []View{
			{Name: "threads", URI: "sessions/threads"},
			{Name: "stack", URI: "@thread/stack/frames", Optional: true},
			{Name: "locals", URI: "@frame/scopes/Locals/variables", Optional: true},
		},
	}
}

// Load reads and validates a configuration file. A missing file yields
// the default configuration, not an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates configuration data in the format implied by
// the extension (".yaml", ".yml" or ".toml").
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	for name, a := range c.Adapters {
		if len(a.Command) == 0 && a.Address == "" {
			return fmt.Errorf("%w: adapter %q has neither command nor address", ErrInvalidAdapter, name)
		}
		if len(a.Command) > 0 && a.Address != "" {
			return fmt.Errorf("%w: adapter %q has both command and address", ErrInvalidAdapter, name)
		}
	}

	seen := make(map[string]bool, len(c.Views))
	for _, v := range c.Views {
		if v.Name == "" {
			return fmt.Errorf("%w: view with empty name", ErrInvalidView)
		}
		if seen[v.Name] {
			return fmt.Errorf("%w: duplicate view %q", ErrInvalidView, v.Name)
		}
		seen[v.Name] = true

		if _, err := uri.Parse(v.URI); err != nil {
			return fmt.Errorf("%w: view %q: %v", ErrInvalidView, v.Name, err)
		}
	}

	if c.Picker.MaxResults < 0 {
		return fmt.Errorf("%w: picker max_results must not be negative", ErrInvalidPicker)
	}

	return nil
}

// AdapterID returns the adapterID to hand the initialize request for a
// named adapter.
func (c *Config) AdapterID(name string) string {
	a, ok := c.Adapters[name]
	if !ok || a.ID == "" {
		return name
	}
	return a.ID
}
