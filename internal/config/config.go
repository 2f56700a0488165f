// Package config loads blissctl settings from YAML with built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/blissctl/internal/infra"
)

const (
	// DefaultDataDirName is created under the user's home directory.
	DefaultDataDirName = ".blissctl"
	// DefaultConfigFile is the config file name inside the data directory.
	DefaultConfigFile = "config.yaml"
	// DefaultLogFile is the log file name inside the data directory.
	DefaultLogFile = "blissctl.log"
)

// Config is the full blissctl configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Poll    PollConfig    `yaml:"poll"`
	Quotes  QuotesConfig  `yaml:"quotes"`
	Clock   ClockConfig   `yaml:"clock"`
	Log     LogConfig     `yaml:"log"`
	Helper  HelperConfig  `yaml:"helper"`
	Metrics MetricsConfig `yaml:"metrics"`
	DataDir string        `yaml:"data_dir"`
}

type EngineConfig struct {
	Path            string `yaml:"path"`
	DevPath         string `yaml:"dev_path"`
	InstalledPath   string `yaml:"installed_path"`
	OverrideCommand string `yaml:"override_command"`
}

type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type QuotesConfig struct {
	Dir      string `yaml:"dir"`
	LocalDir string `yaml:"local_dir"`
}

type ClockConfig struct {
	EndTimePath string `yaml:"end_time_path"`
}

type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

type HelperConfig struct {
	ProcessName string `yaml:"process_name"`
}

type MetricsConfig struct {
	// Addr serves /metrics when set, e.g. "127.0.0.1:9464".
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration for home.
func Default(home string) Config {
	dataDir := filepath.Join(home, DefaultDataDirName)
	defaults := infra.DefaultEnginePaths()
	return Config{
		Engine: EngineConfig{
			DevPath:         filepath.Join(home, "Developer", "bliss", "build", "bliss"),
			InstalledPath:   infra.DefaultInstalledPath,
			OverrideCommand: "panic",
		},
		Poll:    PollConfig{Interval: 2 * time.Second},
		Quotes:  QuotesConfig{Dir: infra.DefaultQuotesDir, LocalDir: "quotes"},
		Clock:   ClockConfig{EndTimePath: infra.DefaultEndTimePath},
		Log:     LogConfig{Path: filepath.Join(dataDir, DefaultLogFile), Level: "info"},
		Helper:  HelperConfig{ProcessName: infra.DefaultHelperProcessName},
		DataDir: dataDir,
	}.withEngineOverride(defaults.Override)
}

// DefaultPath returns ~/.blissctl/config.yaml.
func DefaultPath(home string) string {
	return filepath.Join(home, DefaultDataDirName, DefaultConfigFile)
}

// Load reads path over the defaults. A missing file is not an error.
// BLISS_BIN, when set, wins over engine.path.
func Load(path string) (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get home directory: %w", err)
	}
	cfg := Default(home)
	if path == "" {
		path = DefaultPath(home)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(home), fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg = cfg.withEngineOverride(os.Getenv(infra.EngineEnvVar))
	cfg.expand(home)

	if err := cfg.Validate(); err != nil {
		return Default(home), err
	}
	return cfg, nil
}

// Validate rejects settings the controller cannot run with.
func (c Config) Validate() error {
	if c.Poll.Interval < 100*time.Millisecond {
		return fmt.Errorf("poll.interval must be at least 100ms, got %s", c.Poll.Interval)
	}
	if c.Engine.OverrideCommand == "" {
		return errors.New("engine.override_command must not be empty")
	}
	return nil
}

// EnginePaths returns executable candidates in resolution order.
func (c Config) EnginePaths() infra.EnginePaths {
	return infra.EnginePaths{
		Override:  c.Engine.Path,
		DevPath:   c.Engine.DevPath,
		Installed: c.Engine.InstalledPath,
	}
}

// QuoteDirs returns the quote directories in lookup order.
func (c Config) QuoteDirs() []string {
	return []string{c.Quotes.Dir, c.Quotes.LocalDir}
}

func (c Config) withEngineOverride(path string) Config {
	if path != "" {
		c.Engine.Path = path
	}
	return c
}

func (c *Config) expand(home string) {
	c.Engine.Path = infra.ExpandHome(home, c.Engine.Path)
	c.Engine.DevPath = infra.ExpandHome(home, c.Engine.DevPath)
	c.DataDir = infra.ExpandHome(home, c.DataDir)
	c.Log.Path = infra.ExpandHome(home, c.Log.Path)
	c.Quotes.Dir = infra.ExpandHome(home, c.Quotes.Dir)
}
