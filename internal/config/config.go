// Package config loads rhinoview settings: defaults, then a YAML file, then
// environment variables. Command-line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvComputeURL = "RHINO_COMPUTE_URL"
	EnvComputeKey = "RHINO_COMPUTE_KEY"
	EnvLogLevel   = "RHINOVIEW_LOG_LEVEL"
)

type Config struct {
	Compute    Compute    `yaml:"compute"`
	Definition Definition `yaml:"definition"`
	Viewer     Viewer     `yaml:"viewer"`
	Server     Server     `yaml:"server"`
	Log        Log        `yaml:"log"`
}

type Compute struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Definition is the Grasshopper definition the viewer evaluates and the
// sliders feeding it. Parameter order is the order the definition declares
// its inputs.
type Definition struct {
	Source     string      `yaml:"source"`
	Parameters []Parameter `yaml:"parameters"`
}

type Parameter struct {
	Name    string  `yaml:"name"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Step    float64 `yaml:"step"`
	Default float64 `yaml:"default"`
}

// Names lists the parameter names in order.
func (d Definition) Names() []string {
	names := make([]string, len(d.Parameters))
	for i, p := range d.Parameters {
		names[i] = p.Name
	}
	return names
}

// Defaults maps every parameter to its default value.
func (d Definition) Defaults() map[string]float64 {
	out := make(map[string]float64, len(d.Parameters))
	for _, p := range d.Parameters {
		out[p.Name] = p.Default
	}
	return out
}

type Viewer struct {
	Wireframe bool    `yaml:"wireframe"`
	FitOffset float64 `yaml:"fit_offset"`
	// Overlap is "cancel" or "queue".
	Overlap   string `yaml:"overlap"`
	ExportDir string `yaml:"export_dir"`
}

type Server struct {
	Addr       string  `yaml:"addr"`
	StaticDir  string  `yaml:"static_dir"`
	Definition string  `yaml:"definition"`
	Inputs     []Input `yaml:"inputs"`
	Redis      Redis   `yaml:"redis"`
}

// Input binds a /compute query parameter to a definition input.
type Input struct {
	Query string `yaml:"query"`
	Param string `yaml:"param"`
}

// Redis enables the response cache when Addr is set.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type Log struct {
	Level string `yaml:"level"`
	// File receives the TUI's log output; empty discards it.
	File string `yaml:"file"`
}

// Default mirrors the stock demo: the branching node definition with its three
// sliders and the spiky proxy on :3000. The compute URL is left empty so it
// is resolved from the credential store.
func Default() *Config {
	return &Config{
		Compute: Compute{
			Timeout: 60 * time.Second,
		},
		Definition: Definition{
			Source: "BranchNodeRnd.gh",
			Parameters: []Parameter{
				{Name: "Height", Min: 10, Max: 100, Step: 1, Default: 50},
				{Name: "Radius", Min: 1, Max: 30, Step: 1, Default: 10},
				{Name: "Offset", Min: 0, Max: 10, Step: 0.5, Default: 2},
			},
		},
		Viewer: Viewer{
			FitOffset: 1.1,
			Overlap:   "cancel",
			ExportDir: ".",
		},
		Server: Server{
			Addr:       ":3000",
			StaticDir:  "public",
			Definition: "spiky_thing.gh",
			Inputs: []Input{
				{Query: "frequency", Param: "Frequency"},
				{Query: "size", Param: "Size"},
			},
			Redis: Redis{TTL: 10 * time.Minute},
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults and applies the environment. A missing
// file is not an error when path is empty.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvComputeURL); ok && v != "" {
		c.Compute.URL = v
	}
	if v, ok := lookup(EnvComputeKey); ok {
		c.Compute.APIKey = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate checks the parameter table and server input bindings.
func (c *Config) Validate() error {
	var errs []error
	seen := map[string]bool{}
	for i, p := range c.Definition.Parameters {
		switch {
		case strings.TrimSpace(p.Name) == "":
			errs = append(errs, fmt.Errorf("definition.parameters[%d]: name is required", i))
		case seen[p.Name]:
			errs = append(errs, fmt.Errorf("definition.parameters[%d]: duplicate name %q", i, p.Name))
		}
		seen[p.Name] = true
		if p.Min > p.Max {
			errs = append(errs, fmt.Errorf("parameter %s: min %g > max %g", p.Name, p.Min, p.Max))
		}
		if p.Step < 0 {
			errs = append(errs, fmt.Errorf("parameter %s: negative step", p.Name))
		}
	}
	for i, in := range c.Server.Inputs {
		if in.Query == "" || in.Param == "" {
			errs = append(errs, fmt.Errorf("server.inputs[%d]: query and param are required", i))
		}
	}
	if c.Compute.Timeout < 0 {
		errs = append(errs, errors.New("compute.timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// Clamp limits v to the parameter's range.
func (p Parameter) Clamp(v float64) float64 {
	if v < p.Min {
		return p.Min
	}
	if v > p.Max {
		return p.Max
	}
	return v
}
