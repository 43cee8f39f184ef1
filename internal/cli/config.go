package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the CLI configuration, loaded from
// $XDG_CONFIG_HOME/tidemark/config.toml. Flags override config values.
type Config struct {
	Repository RepositoryConfig `toml:"repository"`
	Cache      CacheConfig      `toml:"cache"`
	Archive    ArchiveConfig    `toml:"archive"`
}

// RepositoryConfig identifies the repository to talk to.
type RepositoryConfig struct {
	URL         string `toml:"url"`
	AccessToken string `toml:"access_token"`
}

// CacheConfig configures the HTTP response cache.
type CacheConfig struct {
	// Dir overrides the default response cache directory.
	Dir string `toml:"dir"`
	// Redis, when set (host:port), stores responses in redis instead of
	// on disk so several machines can share one cache.
	Redis string `toml:"redis"`
}

// ArchiveConfig configures the mongo document mirror.
type ArchiveConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

func (a ArchiveConfig) withDefaults() ArchiveConfig {
	if a.URI == "" {
		a.URI = "mongodb://localhost:27017"
	}
	if a.Database == "" {
		a.Database = "tidemark"
	}
	if a.Collection == "" {
		a.Collection = "documents"
	}
	return a
}

// configPath returns the config file location.
func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, "tidemark", "config.toml"), nil
}

// loadConfig reads the config file at path. A missing file yields the
// zero config, not an error.
func loadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// cacheDir returns the response cache directory, honoring the config
// override.
func cacheDir(cfg Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return filepath.Join(dir, "tidemark", "responses"), nil
}
