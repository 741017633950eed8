package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDomainFile       = "domain.yaml"
	DefaultProbeConcurrency = 4
	DefaultProbeLimit       = 256
)

var validate = validator.New()

type ProjectConfig struct {
	Project    string      `yaml:"project" validate:"required"`
	Version    int         `yaml:"version" validate:"eq=1"`
	DomainFile string      `yaml:"domain_file"`
	Log        LogConfig   `yaml:"log"`
	World      WorldConfig `yaml:"world"`
	Probe      ProbeConfig `yaml:"probe"`
	KB         KBConfig    `yaml:"kb"`

	dir string
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// WorldConfig selects the domain whose world is built at startup and the
// values it is seeded with.
type WorldConfig struct {
	Domain string `yaml:"domain" validate:"required"`
	Title  string `yaml:"title"`
	Values []int  `yaml:"values"`
}

type ProbeConfig struct {
	Concurrency int  `yaml:"concurrency" validate:"gte=0"`
	Limit       int  `yaml:"limit" validate:"gte=0"`
	Dedupe      bool `yaml:"dedupe"`
}

type KBConfig struct {
	// Rules is a path to a mangle source file, relative to the config file.
	Rules string `yaml:"rules"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	cfg.applyDefaults()
	cfg.dir = filepath.Dir(path)
	return &cfg, nil
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if strings.TrimSpace(cfg.World.Domain) == "" {
		return fmt.Errorf("world domain is required")
	}
	return nil
}

func (c *ProjectConfig) applyDefaults() {
	if c.DomainFile == "" {
		c.DomainFile = DefaultDomainFile
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Probe.Concurrency == 0 {
		c.Probe.Concurrency = DefaultProbeConcurrency
	}
	if c.Probe.Limit == 0 {
		c.Probe.Limit = DefaultProbeLimit
	}
}

// Path resolves p against the directory holding the config file.
func (c *ProjectConfig) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "eq":
		return fmt.Sprintf("unsupported %s: %v", field, e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
