package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/surveynotes/internal/notes"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverKuzu   = "kuzu"
)

// DefaultSectionOrder is the canonical section order of a heating survey.
var DefaultSectionOrder = []string{
	"Needs",
	"Working at heights",
	"System characteristics",
	"Components that require assistance",
	"Restrictions to work",
	"External hazards",
	"Delivery notes",
	"Office notes",
	"New boiler and controls",
	"Flue",
	"Pipe work",
	"Disruption",
	"Customer actions",
	"Future plans",
}

// StoreConfig selects the session persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver,omitempty"`
	Path   string `yaml:"path,omitempty"`
}

// ProjectConfig holds settings loaded from surveynotes.yml.
type ProjectConfig struct {
	Endpoint           string      `yaml:"endpoint,omitempty"`
	SectionOrder       []string    `yaml:"sectionOrder,omitempty"`
	DuplicateThreshold float64     `yaml:"duplicateThreshold,omitempty"`
	LineThreshold      float64     `yaml:"lineThreshold,omitempty"`
	Sentinel           string      `yaml:"sentinel,omitempty"`
	PollInterval       string      `yaml:"pollInterval,omitempty"`
	Debounce           string      `yaml:"debounce,omitempty"`
	Store              StoreConfig `yaml:"store,omitempty"`
	LogLevel           string      `yaml:"logLevel,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *ProjectConfig {
	cfg := &ProjectConfig{}
	cfg.applyDefaults()
	return cfg
}

// Load attempts to read surveynotes.yml or surveynotes.yaml from the given
// directory. Returns the default config (not an error) if no config file
// exists. Fields left empty in the file take their default values.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"surveynotes.yml", "surveynotes.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.applyDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
		return &cfg, nil
	}
	return Default(), nil
}

func (c *ProjectConfig) applyDefaults() {
	if len(c.SectionOrder) == 0 {
		c.SectionOrder = append([]string(nil), DefaultSectionOrder...)
	}
	if c.DuplicateThreshold == 0 {
		c.DuplicateThreshold = notes.DefaultDuplicateThreshold
	}
	if c.LineThreshold == 0 {
		c.LineThreshold = notes.DefaultLineThreshold
	}
	if c.Sentinel == "" {
		c.Sentinel = notes.DefaultSentinel
	}
	if c.PollInterval == "" {
		c.PollInterval = "15s"
	}
	if c.Debounce == "" {
		c.Debounce = "500ms"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverSQLite
	}
	if c.Store.Path == "" {
		switch c.Store.Driver {
		case DriverSQLite:
			c.Store.Path = filepath.Join(".surveynotes", "sessions.db")
		case DriverKuzu:
			c.Store.Path = filepath.Join(".surveynotes", "kuzu")
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports the first invalid setting.
func (c *ProjectConfig) Validate() error {
	if c.DuplicateThreshold <= 0 || c.DuplicateThreshold > 1 {
		return fmt.Errorf("duplicateThreshold must be in (0,1], got %v", c.DuplicateThreshold)
	}
	if c.LineThreshold <= 0 || c.LineThreshold > 1 {
		return fmt.Errorf("lineThreshold must be in (0,1], got %v", c.LineThreshold)
	}
	if d, err := time.ParseDuration(c.PollInterval); err != nil || d <= 0 {
		return fmt.Errorf("pollInterval %q is not a positive duration", c.PollInterval)
	}
	if d, err := time.ParseDuration(c.Debounce); err != nil || d < 0 {
		return fmt.Errorf("debounce %q is not a valid duration", c.Debounce)
	}
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite, DriverKuzu:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// StorePath returns the store path resolved against dir when relative.
func (c *ProjectConfig) StorePath(dir string) string {
	if c.Store.Path == "" || filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(dir, c.Store.Path)
}

// Interval returns the parsed poll interval.
func (c *ProjectConfig) Interval() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	return d
}

// DebounceDuration returns the parsed watcher debounce.
func (c *ProjectConfig) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(c.Debounce)
	return d
}

// Reconciler builds a section reconciler from the configured order and tuning.
func (c *ProjectConfig) Reconciler() *notes.Reconciler {
	return notes.NewReconciler(c.SectionOrder,
		notes.WithDuplicateThreshold(c.DuplicateThreshold),
		notes.WithLineThreshold(c.LineThreshold),
		notes.WithSentinel(c.Sentinel),
	)
}
