package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envConfig = "CALSCAN_CONFIG"

// Config is the calscan configuration file (~/.config/calscan/config.yaml).
// Values only apply when the matching flag was not given.
type Config struct {
	// Scanning
	Variant  string `yaml:"variant"`
	Leniency string `yaml:"leniency"`
	MaxAxis  *int64 `yaml:"max_axis"`
	Raw      *bool  `yaml:"raw"`

	// Output
	Format    string `yaml:"format"`
	Quiet     *bool  `yaml:"quiet"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
	MaxUpload     *int64 `yaml:"max_upload"`
	StoreCapacity *int64 `yaml:"store_capacity"`
}

func resolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if env := os.Getenv(envConfig); env != "" {
		return env
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "calscan", "config.yaml")
}

// LoadConfig reads the config file at path. A missing file yields a zero
// Config unless required is set; a malformed file is always an error.
func LoadConfig(path string, required bool) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

func applyLogConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyScanConfig fills scan and inspect flag variables from the config file.
func applyScanConfig(c *cli.Command, cfg Config, variant, leniency *string, maxAxis *int64, raw *bool) {
	if cfg.Variant != "" && !c.IsSet("variant") {
		*variant = cfg.Variant
	}
	if cfg.Leniency != "" && !c.IsSet("leniency") {
		*leniency = cfg.Leniency
	}
	if cfg.MaxAxis != nil && !c.IsSet("max-axis") {
		*maxAxis = *cfg.MaxAxis
	}
	if cfg.Raw != nil && !c.IsSet("raw") {
		*raw = *cfg.Raw
	}
}

func applyOutputConfig(c *cli.Command, cfg Config, format *string, quiet *bool) {
	if cfg.Format != "" && !c.IsSet("format") {
		*format = cfg.Format
	}
	if cfg.Quiet != nil && !c.IsSet("quiet") {
		*quiet = *cfg.Quiet
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string, maxUpload, capacity *int64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxUpload != nil && !c.IsSet("max-upload") {
		*maxUpload = *cfg.MaxUpload
	}
	if cfg.StoreCapacity != nil && !c.IsSet("store-capacity") {
		*capacity = *cfg.StoreCapacity
	}
}
