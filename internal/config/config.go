package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/saltyorg/rtsweep/internal/category"
	"github.com/saltyorg/rtsweep/internal/sweep"
	"gopkg.in/yaml.v3"
)

// Config is a run configuration. The sweep categories live at the top level
// of the same file and are decoded separately by Sweep, so no config key may
// share a category name.
type Config struct {
	Template          string   `yaml:"template"`
	Database          string   `yaml:"database"`
	AqueousDatabase   string   `yaml:"aqueous_database"`
	CatabolicPathways string   `yaml:"catabolic_pathways"`
	NumberOfFiles     int      `yaml:"number_of_files"`
	Seed              *uint64  `yaml:"seed"`
	Workers           int      `yaml:"workers"`
	Conditions        []string `yaml:"conditions"`

	RestartChain *RestartChainConfig `yaml:"restart_chain"`
	Layout       LayoutConfig        `yaml:"layout"`
	Output       OutputConfig        `yaml:"destination"`

	Manifest        string `yaml:"manifest"`
	MetricsTextfile string `yaml:"metrics_textfile"`

	dir  string
	node yaml.Node
}

// RestartChainConfig splits every run into restarted stages.
type RestartChainConfig struct {
	Stages         int         `yaml:"stages"`
	SpatialProfile [][]float64 `yaml:"spatial_profile"`
}

// LayoutConfig holds text/template patterns for output names. Patterns see
// .Run, .Stage, .Base and .Ext.
type LayoutConfig struct {
	RunDir        string `yaml:"run_dir"`
	FileName      string `yaml:"file_name"`
	StageFileName string `yaml:"stage_file_name"`
}

// OutputConfig says where run directories are written.
type OutputConfig struct {
	Dir string    `yaml:"dir"`
	S3  *S3Config `yaml:"s3"`
}

// S3Config configures the object storage sink.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// Default layout patterns.
const (
	DefaultRunDir        = "run{{.Run}}"
	DefaultFileName      = "{{.Base}}.{{.Ext}}"
	DefaultStageFileName = "{{.Base}}_stage{{.Stage}}.{{.Ext}}"
	DefaultOutputDir     = "."
)

// Load reads and parses a config file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}

	cfg, err := Parse(data, filepath.Dir(abs))
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Parse decodes a config document. Relative paths resolve against dir.
func Parse(data []byte, dir string) (*Config, error) {
	cfg := &Config{dir: dir}
	if err := yaml.Unmarshal(data, &cfg.node); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if len(cfg.node.Content) > 0 {
		if err := cfg.node.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Layout.RunDir == "" {
		c.Layout.RunDir = DefaultRunDir
	}
	if c.Layout.FileName == "" {
		c.Layout.FileName = DefaultFileName
	}
	if c.Layout.StageFileName == "" {
		c.Layout.StageFileName = DefaultStageFileName
	}
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}
}

// Validate checks the configuration for required fields and consistency.
func (c *Config) Validate() error {
	if c.Template == "" {
		return fmt.Errorf("template is required")
	}
	if c.NumberOfFiles <= 0 {
		return fmt.Errorf("number_of_files must be positive, got %d", c.NumberOfFiles)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}

	if rc := c.RestartChain; rc != nil {
		if rc.Stages < 1 {
			return fmt.Errorf("restart_chain.stages must be at least 1, got %d", rc.Stages)
		}
		if rc.SpatialProfile != nil && len(rc.SpatialProfile) != rc.Stages {
			return fmt.Errorf("restart_chain.spatial_profile has %d entries for %d stages", len(rc.SpatialProfile), rc.Stages)
		}
	}

	if s3 := c.Output.S3; s3 != nil {
		if s3.Bucket == "" {
			return fmt.Errorf("destination.s3.bucket is required")
		}
		if s3.Region == "" {
			return fmt.Errorf("destination.s3.region is required")
		}
	}

	if err := validateFile(c.TemplatePath(), "template"); err != nil {
		return err
	}
	if c.Database != "" {
		if err := validateFile(c.DatabasePath(), "database"); err != nil {
			return err
		}
	}
	for key, path := range c.AuxPaths() {
		if err := validateFile(path, key); err != nil {
			return err
		}
	}

	return nil
}

// validateFile checks that a path exists and is a regular file.
func validateFile(path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s does not exist: %s", name, path)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory: %s", name, path)
	}
	return nil
}

// Sweep decodes the sweep categories from the same document.
func (c *Config) Sweep() (*sweep.Spec, error) {
	return sweep.Decode(&c.node)
}

// SeedValue returns the configured seed, or one drawn from the clock.
func (c *Config) SeedValue() uint64 {
	if c.Seed != nil {
		return *c.Seed
	}
	return uint64(time.Now().UnixNano())
}

// Stages returns the number of restart stages, or 0 without a restart chain.
func (c *Config) Stages() int {
	if c.RestartChain == nil {
		return 0
	}
	return c.RestartChain.Stages
}

// Dir returns the directory relative paths resolve against.
func (c *Config) Dir() string {
	return c.dir
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.dir, path)
}

// TemplatePath returns the full path to the template input file.
func (c *Config) TemplatePath() string {
	return c.resolve(c.Template)
}

// DatabasePath returns the full path to the thermodynamic database, or "".
func (c *Config) DatabasePath() string {
	return c.resolve(c.Database)
}

// AuxPaths returns the configured namelist files keyed by config key.
func (c *Config) AuxPaths() map[string]string {
	out := make(map[string]string)
	if c.AqueousDatabase != "" {
		out[category.AqueousDatabase] = c.resolve(c.AqueousDatabase)
	}
	if c.CatabolicPathways != "" {
		out[category.CatabolicPathways] = c.resolve(c.CatabolicPathways)
	}
	return out
}

// OutputDir returns the full path run directories are written under.
func (c *Config) OutputDir() string {
	return c.resolve(c.Output.Dir)
}

// ManifestPath returns the full path to the run manifest, or "".
func (c *Config) ManifestPath() string {
	return c.resolve(c.Manifest)
}

// MetricsPath returns the full path to the metrics textfile, or "".
func (c *Config) MetricsPath() string {
	return c.resolve(c.MetricsTextfile)
}
