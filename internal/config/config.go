package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ServerURL string `toml:"server_url"`
	StateDir  string `toml:"state_dir"`
	DBPath    string `toml:"db_path"`
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerURL: "http://localhost:15610",
		StateDir:  filepath.Join(home, ".config", "tnscribe"),
		DBPath:    filepath.Join(home, ".config", "tnscribe", "archive.db"),
	}

	cfgPath := filepath.Join(home, ".config", "tnscribe", "config.toml")
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// TNSCRIBE_SERVER wins over the config file, handy for pointing one-off
	// commands at a staging portal.
	if v := os.Getenv("TNSCRIBE_SERVER"); v != "" {
		cfg.ServerURL = v
	}

	cfg.StateDir = expandHome(cfg.StateDir, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	return cfg, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
