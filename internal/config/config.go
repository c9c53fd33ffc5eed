// Package config loads the daoctl YAML configuration.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"sputnik_dao/sdk"
)

// Config holds everything daoctl needs to open and drive a DAO.
type Config struct {
	// Storage
	DataDir    string `yaml:"data_dir"`
	InMemory   bool   `yaml:"in_memory"`
	SyncWrites bool   `yaml:"sync_writes"`

	Logging LoggingConfig `yaml:"logging"`
	DAO     DAOConfig     `yaml:"dao"`
	Staking StakingConfig `yaml:"staking"`
}

// LoggingConfig configures the zap logger and its file rotation.
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json, console
	File       string `yaml:"file"`   // empty logs to stderr only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DAOConfig bootstraps the DAO on `daoctl init`.
type DAOConfig struct {
	Account  string `yaml:"account"`
	Name     string `yaml:"name"`
	Purpose  string `yaml:"purpose"`
	Metadata string `yaml:"metadata"`
	// Council is the legacy shorthand policy. Ignored when PolicyFile is set.
	Council    []string `yaml:"council"`
	PolicyFile string   `yaml:"policy_file"`
	StakingID  string   `yaml:"staking_id"`
}

// StakingConfig configures the staking collaborator.
type StakingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Account       string `yaml:"account"`
	Token         string `yaml:"token"`
	UnstakePeriod string `yaml:"unstake_period"`
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// DefaultConfig is what daoctl runs with when no file is given.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/dao",
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		DAO: DAOConfig{
			Account: "dao.near",
			Name:    "dao",
		},
		Staking: StakingConfig{
			Account:       "staking.near",
			Token:         "vote.near",
			UnstakePeriod: "24h",
		},
	}
}

// Load reads path on top of the defaults. An empty path or a missing file yields the
// defaults. DAOCTL_DATA_DIR and DAOCTL_LOG_LEVEL override the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, errors.Wrap(err, "read config")
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", path)
			}
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML, creating the directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write config")
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("DAOCTL_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if lvl := os.Getenv("DAOCTL_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
}

// Validate reports the first problem found.
func (c *Config) Validate() error {
	if !c.InMemory && c.DataDir == "" {
		return errors.New("data_dir is required unless in_memory is set")
	}
	if !validLevels[c.Logging.Level] {
		return errors.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return errors.Errorf("invalid logging.format %q (json or console)", c.Logging.Format)
	}
	if !sdk.Address(c.DAO.Account).IsValid() {
		return errors.Errorf("invalid dao.account %q", c.DAO.Account)
	}
	for _, m := range c.DAO.Council {
		if !sdk.Address(m).IsValid() {
			return errors.Errorf("invalid council member %q", m)
		}
	}
	if c.DAO.StakingID != "" && !sdk.Address(c.DAO.StakingID).IsValid() {
		return errors.Errorf("invalid dao.staking_id %q", c.DAO.StakingID)
	}
	if c.Staking.Enabled {
		if !sdk.Address(c.Staking.Account).IsValid() {
			return errors.Errorf("invalid staking.account %q", c.Staking.Account)
		}
		if !sdk.Address(c.Staking.Token).IsValid() {
			return errors.Errorf("invalid staking.token %q", c.Staking.Token)
		}
		if _, err := time.ParseDuration(c.Staking.UnstakePeriod); err != nil {
			return errors.Wrap(err, "staking.unstake_period")
		}
	}
	return nil
}

// UnstakePeriod returns the cooldown in nanoseconds, the unit block timestamps use.
func (c *Config) UnstakePeriod() uint64 {
	d, err := time.ParseDuration(c.Staking.UnstakePeriod)
	if err != nil || d < 0 {
		return uint64(24 * time.Hour)
	}
	return uint64(d)
}

// CouncilAddresses converts the configured council.
func (c *Config) CouncilAddresses() []sdk.Address {
	out := make([]sdk.Address, 0, len(c.DAO.Council))
	for _, m := range c.DAO.Council {
		out = append(out, sdk.Address(m))
	}
	return out
}
