package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	configPathEnv     = "CONFIG_PATH"
	defaultConfigPath = "./config.yaml"
)

// Load reads the configuration named by CONFIG_PATH, falling back to
// ./config.yaml. Priority: ENV > YAML > env-default tags.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv(configPathEnv))
}

// LoadFrom reads the configuration from path. An empty path means the default
// location, which may be absent; then only ENV and defaults apply. A path that
// was named explicitly must exist.
func LoadFrom(path string) (*Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	case explicit || !errors.Is(statErr, fs.ErrNotExist):
		return nil, fmt.Errorf("config: file %s: %w", path, statErr)
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}
