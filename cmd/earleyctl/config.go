package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
)

// fileConfig is the on-disk TOML representation of earleyctl's default flag
// values. Anything left unset keeps the flag's own default; flags given on
// the command line still take precedence over anything loaded from a file.
type fileConfig struct {
	Grammar string `toml:"grammar"`
	Direct  bool   `toml:"direct"`
	Command string `toml:"command"`
}

// resolveConfigFile loads the --config/EARLEYCTL_CONFIG TOML file, if any
// was given. A zero-valued fileConfig is returned (no error) if neither is
// set.
func resolveConfigFile() (fileConfig, error) {
	path := os.Getenv(EnvConfig)
	if pflag.Lookup("config").Changed {
		path = *flagConfig
	}
	if path == "" {
		return fileConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// applyConfigDefaults fills in any flag the caller did not set explicitly
// from cfg.
func applyConfigDefaults(cfg fileConfig) {
	if cfg.Grammar != "" && !pflag.Lookup("grammar").Changed {
		*flagGrammar = cfg.Grammar
	}
	if cfg.Direct && !pflag.Lookup("direct").Changed {
		*flagDirect = true
	}
	if cfg.Command != "" && !pflag.Lookup("command").Changed {
		*flagCommand = cfg.Command
	}
}
