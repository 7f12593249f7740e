package main

import (
	"os"

	"github.com/pelletier/go-toml"
)

// Config holds defaults a user keeps next to their rule file.
// Command line flags override anything set here.
type Config struct {
	// Jobs is the worker pool size.
	Jobs int
	// Shell runs recipe lines, via 'shell -c line'.
	Shell string
	// RuleFile is the rule file to load.
	RuleFile string
}

func defaultConfig() Config {
	return Config{
		Jobs:     4,
		Shell:    "sh",
		RuleFile: "plmake.yml",
	}
}

// loadConfig reads the config file at path.
// A missing file is not an error; the defaults are returned.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	tree, err := toml.LoadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	err = tree.Unmarshal(&cfg)
	if err != nil {
		return cfg, err
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	return cfg, nil
}
