package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sputnik_dao/internal/config"
	"sputnik_dao/sdk"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, uint64(24*time.Hour), cfg.UnstakePeriod())
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	t.Setenv("DAOCTL_DATA_DIR", "")
	t.Setenv("DAOCTL_LOG_LEVEL", "")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("DAOCTL_DATA_DIR", "")
	t.Setenv("DAOCTL_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "nested", "daoctl.yaml")

	cfg := config.DefaultConfig()
	cfg.DAO.Council = []string{"alice.near", "bob.near"}
	cfg.Staking.Enabled = true
	cfg.Staking.UnstakePeriod = "90m"
	require.NoError(t, cfg.Save(path))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
	assert.Equal(t, []sdk.Address{"alice.near", "bob.near"}, got.CouncilAddresses())
	assert.Equal(t, uint64(90*time.Minute), got.UnstakePeriod())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	t.Setenv("DAOCTL_DATA_DIR", "")
	t.Setenv("DAOCTL_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "daoctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dao:\n  name: guild\n  council: [carol.near]\n"), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "guild", cfg.DAO.Name)
	assert.Equal(t, "dao.near", cfg.DAO.Account)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DAOCTL_DATA_DIR", "/tmp/elsewhere")
	t.Setenv("DAOCTL_LOG_LEVEL", "debug")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/elsewhere", cfg.DataDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daoctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dao: [unterminated"), 0644))
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"level", func(c *config.Config) { c.Logging.Level = "loud" }},
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"dao account", func(c *config.Config) { c.DAO.Account = "Not Valid" }},
		{"council", func(c *config.Config) { c.DAO.Council = []string{"x"} }},
		{"staking id", func(c *config.Config) { c.DAO.StakingID = "UPPER.near" }},
		{"data dir", func(c *config.Config) { c.DataDir = "" }},
		{"unstake period", func(c *config.Config) {
			c.Staking.Enabled = true
			c.Staking.UnstakePeriod = "soon"
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := config.DefaultConfig()
	cfg.DataDir = ""
	cfg.InMemory = true
	assert.NoError(t, cfg.Validate())
}
