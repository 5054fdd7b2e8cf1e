package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"bibdb/src/internal/entry"
	"bibdb/src/internal/logger"
	"bibdb/src/internal/stringsx"
)

const envPrefix = "BIB_"

// Load merges environment, the YAML file at path (or the default location
// when path is empty) and defaults, then validates the result.
func Load(path string) (*Config, error) {
	return newConfigBuilder().withEnv().withFile(path).withDefaults().build()
}

type configBuilder struct {
	configs []*Config
	err     error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{configs: make([]*Config, 0, 3)}
}

func (b *configBuilder) build() (*Config, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occurred during building config: %w", b.err)
	}
	cfg := new(Config)
	for _, c := range b.configs {
		if err := mergo.Merge(cfg, c); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	return cfg, cfg.validate()
}

func (b *configBuilder) withEnv() *configBuilder {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("error getting env configs: %w", err))
		return b
	}
	b.configs = append(b.configs, cfg)
	return b
}

// withFile reads the YAML config. An explicit path (argument or BIB_CONFIG)
// must exist; the default location is optional.
func (b *configBuilder) withFile(path string) *configBuilder {
	explicit := true
	if strings.TrimSpace(path) == "" {
		for _, c := range b.configs {
			if c.FilePath != "" {
				path = c.FilePath
			}
		}
	}
	if strings.TrimSpace(path) == "" {
		explicit = false
		path = defaultConfigPath()
	}
	if path == "" {
		return b
	}
	cfg, err := parseYAMLFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return b
		}
		b.err = errors.Join(b.err, err)
		return b
	}
	b.configs = append(b.configs, cfg)
	return b
}

func (b *configBuilder) withDefaults() *configBuilder {
	b.configs = append(b.configs, defaults())
	return b
}

func defaults() *Config {
	return &Config{
		Database: Database{File: DefaultDatabaseFile},
		Commands: Commands{Edit: Edit{
			DefaultEntryType: DefaultEntryType,
			Editor:           stringsx.FirstNonEmpty(os.Getenv("EDITOR"), DefaultEditor),
		}},
		Logging: Logging{Level: "warn"},
		Network: Network{
			Timeout:        DefaultTimeout,
			DOIURL:         DefaultDOIURL,
			ArxivURL:       DefaultArxivURL,
			OpenLibraryURL: DefaultOpenLibraryURL,
			GoogleBooksURL: DefaultGoogleBooksURL,
		},
	}
}

func defaultConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "bib", "config.yaml")
}

func parseYAMLFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (cfg *Config) expandPaths() error {
	var err error
	if cfg.Database.File != "" {
		if cfg.Database.File, err = entry.AbsPath(cfg.Database.File); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDatabaseConfig, err)
		}
	}
	if cfg.Logging.File != "" {
		if cfg.Logging.File, err = entry.AbsPath(cfg.Logging.File); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidLoggingConfig, err)
		}
	}
	return nil
}

func (cfg *Config) validate() error {
	if strings.TrimSpace(cfg.Database.File) == "" {
		return ErrInvalidDatabaseConfig
	}
	if strings.TrimSpace(cfg.Commands.Edit.DefaultEntryType) == "" || strings.TrimSpace(cfg.Commands.Edit.Editor) == "" {
		return ErrInvalidCommandsConfig
	}
	if _, err := logger.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLoggingConfig, err)
	}
	if cfg.Network.Timeout <= 0 {
		return ErrInvalidNetworkConfig
	}
	return nil
}
