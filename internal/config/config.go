package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/mitchellh/mapstructure"
)

const (
	// DefaultFileName is the primary config file name that is auto-discovered.
	DefaultFileName = ".lagdiff.yaml"
	alternateName   = ".lagdiff.yml"

	// EnvPrefix prefixes environment overrides, e.g.
	// LAGDIFF_CLUSTER1_BOOTSTRAP_SERVER.
	EnvPrefix = "LAGDIFF_"
	// DotEnvFile is loaded from the working directory when present.
	DotEnvFile = ".env"
)

// Cluster holds the admin tool settings of one cluster.
type Cluster struct {
	BootstrapServer string `koanf:"bootstrap_server"`
	CommandConfig   string `koanf:"command_config"`
	CLIDir          string `koanf:"cli_dir"`
}

// Config holds defaults loaded from .lagdiff.yaml and LAGDIFF_* variables.
type Config struct {
	Cluster1    Cluster       `koanf:"cluster1"`
	Cluster2    Cluster       `koanf:"cluster2"`
	Tool        string        `koanf:"tool"`
	Summary     *bool         `koanf:"summary"`
	Interval    time.Duration `koanf:"interval"`
	HasInterval bool          `koanf:"-"`
	Output      string        `koanf:"output"`
	LogFormat   string        `koanf:"log_format"`
}

// Validate checks values that flags cannot check for us.
func (c *Config) Validate() error {
	if c.HasInterval && c.Interval <= 0 {
		return fmt.Errorf("interval must be greater than zero, got %s", c.Interval)
	}
	return nil
}

// Load auto-discovers and loads a config file, then applies environment
// overrides.
// Search order:
// 1) current working directory
// 2) user home directory
//
// The returned path is empty when no file was found.
func Load() (*Config, string, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, "", err
	}

	paths, err := defaultPaths()
	if err != nil {
		return nil, "", err
	}

	for _, path := range paths {
		_, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("read config %q: %w", path, err)
		}

		cfg, err := LoadFromPath(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	cfg, err := load("")
	if err != nil {
		return nil, "", err
	}
	return cfg, "", nil
}

// LoadFromPath loads and parses a config file from an explicit path, then
// applies environment overrides.
func LoadFromPath(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := &Config{}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}

		// Unknown keys in the file are mistakes; unknown environment
		// variables are not, so the file is decoded on its own first.
		err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
			DecoderConfig: &mapstructure.DecoderConfig{
				DecodeHook: mapstructure.ComposeDecodeHookFunc(
					mapstructure.StringToTimeDurationHookFunc()),
				Result:           cfg,
				WeaklyTypedInput: true,
				ErrorUnused:      true,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.HasInterval = k.Exists("interval")
	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if err := cfg.Validate(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
		return nil, err
	}

	return cfg, nil
}

// envKey maps LAGDIFF_CLUSTER1_BOOTSTRAP_SERVER to cluster1.bootstrap_server.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, cluster := range []string{"cluster1", "cluster2"} {
		if rest, ok := strings.CutPrefix(key, cluster+"_"); ok {
			return cluster + "." + rest
		}
	}
	return key
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func defaultPaths() ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve current directory: %w", err)
	}

	paths := []string{
		filepath.Join(cwd, DefaultFileName),
		filepath.Join(cwd, alternateName),
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		homeDefault := filepath.Join(home, DefaultFileName)
		homeAlt := filepath.Join(home, alternateName)
		if !containsPath(paths, homeDefault) {
			paths = append(paths, homeDefault)
		}
		if !containsPath(paths, homeAlt) {
			paths = append(paths, homeAlt)
		}
	}

	return paths, nil
}

func containsPath(paths []string, target string) bool {
	for _, path := range paths {
		if path == target {
			return true
		}
	}
	return false
}
