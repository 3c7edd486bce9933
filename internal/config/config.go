// Package config holds the launcher configuration.
//
// Values are layered: built-in defaults, then an optional YAML file,
// then VCULAUNCH_* environment variables. Command line flags are applied
// last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up next to the executable.
const FileName = "vculaunch.yaml"

// Robocopy modes.
const (
	RobocopyAuto   = "auto"
	RobocopyAlways = "always"
	RobocopyNever  = "never"
)

// Config holds the application configuration.
type Config struct {
	ProjectDirName string `yaml:"project_dir"`
	MSYSDistName   string `yaml:"msys_dist"`
	EnvVar         string `yaml:"env_var"`
	AppRoot        string `yaml:"app_root"`
	ResourceRoot   string `yaml:"resource_root"`
	Robocopy       string `yaml:"robocopy"`
	WebAddr        string `yaml:"web_addr"`
	Debug          bool   `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ProjectDirName: "VCU_compile - selftest",
		MSYSDistName:   "MSYS-1.0.10-selftest",
		EnvVar:         "MSYS_FLAG",
		Robocopy:       RobocopyAuto,
		WebAddr:        "127.0.0.1:8080",
	}
}

// Load builds a Config from defaults, the YAML file at path (if non-empty
// and present) and the environment. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.mergeEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fromFile Config
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.overlay(fromFile)
	return nil
}

// overlay copies every non-zero field of o onto c.
func (c *Config) overlay(o Config) {
	if o.ProjectDirName != "" {
		c.ProjectDirName = o.ProjectDirName
	}
	if o.MSYSDistName != "" {
		c.MSYSDistName = o.MSYSDistName
	}
	if o.EnvVar != "" {
		c.EnvVar = o.EnvVar
	}
	if o.AppRoot != "" {
		c.AppRoot = o.AppRoot
	}
	if o.ResourceRoot != "" {
		c.ResourceRoot = o.ResourceRoot
	}
	if o.Robocopy != "" {
		c.Robocopy = o.Robocopy
	}
	if o.WebAddr != "" {
		c.WebAddr = o.WebAddr
	}
	if o.Debug {
		c.Debug = true
	}
}

func (c *Config) mergeEnv(getenv func(string) string) {
	c.overlay(Config{
		AppRoot:      getenv("VCULAUNCH_APP_ROOT"),
		ResourceRoot: getenv("VCULAUNCH_RESOURCE_ROOT"),
		Robocopy:     getenv("VCULAUNCH_ROBOCOPY"),
		WebAddr:      getenv("VCULAUNCH_WEB_ADDR"),
		Debug:        parseBool(getenv("VCULAUNCH_DEBUG")),
	})
}

// Validate rejects values the rest of the program cannot work with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ProjectDirName) == "" {
		return errors.New("config: project_dir must not be empty")
	}
	if strings.TrimSpace(c.MSYSDistName) == "" {
		return errors.New("config: msys_dist must not be empty")
	}
	if strings.TrimSpace(c.EnvVar) == "" || strings.ContainsAny(c.EnvVar, "= \t") {
		return fmt.Errorf("config: invalid env_var %q", c.EnvVar)
	}
	switch c.Robocopy {
	case RobocopyAuto, RobocopyAlways, RobocopyNever:
	default:
		return fmt.Errorf("config: robocopy must be one of auto, always, never (got %q)", c.Robocopy)
	}
	return nil
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
