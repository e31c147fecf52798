package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Confluence.Hostname = "https://example.atlassian.net"
	cfg.Confluence.Username = "bot@example.com"
	cfg.Confluence.APIToken = "token"
	cfg.Lifecycle.Space = "DOCS"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2500, cfg.Lifecycle.MaxPages)
	assert.Equal(t, 90, cfg.Lifecycle.StaleDays)
	assert.Equal(t, 180, cfg.Lifecycle.RottenDays)
	assert.Equal(t, "lifecycle_phase=fresh", cfg.Lifecycle.FreshLabel)
	assert.Equal(t, "Confluence Page Lifecycle Report", cfg.Report.PageTitle)
	assert.True(t, cfg.Confluence.Cloud)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRequiresCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Confluence.Hostname = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Confluence.Username = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Confluence.APIToken = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Lifecycle.Space = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := validConfig()
	cfg.Lifecycle.StaleDays = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Lifecycle.StaleDays = 180
	cfg.Lifecycle.RottenDays = 90
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rotten_days")
}

func TestValidateAllowsEqualThresholds(t *testing.T) {
	cfg := validConfig()
	cfg.Lifecycle.StaleDays = 90
	cfg.Lifecycle.RottenDays = 90
	assert.NoError(t, cfg.Validate())
}

func TestValidateRequiresReportPageID(t *testing.T) {
	cfg := validConfig()
	cfg.Report.Update = true
	cfg.Report.PageID = ""
	assert.Error(t, cfg.Validate())

	cfg.Report.PageID = "12345"
	assert.NoError(t, cfg.Validate())
}

func TestValidateFillsWorkerDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.Lifecycle.Workers = 0
	cfg.Lifecycle.PageLimit = 0

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 15, cfg.Lifecycle.Workers)
	assert.Equal(t, 500, cfg.Lifecycle.PageLimit)
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	content := `
[confluence]
hostname = "https://wiki.example.com"
username = "bot@example.com"
api_token = "secret"
cloud = false

[lifecycle]
space = "ENG"
max_pages = 100
stale_days = 30
rotten_days = 60

[report]
update = true
page_id = "98765"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://wiki.example.com", cfg.Confluence.Hostname)
	assert.False(t, cfg.Confluence.Cloud)
	assert.Equal(t, "ENG", cfg.Lifecycle.Space)
	assert.Equal(t, 100, cfg.Lifecycle.MaxPages)
	assert.Equal(t, 30, cfg.Lifecycle.StaleDays)
	assert.Equal(t, 60, cfg.Lifecycle.RottenDays)
	assert.True(t, cfg.Report.Update)

	// Defaults survive for sections the file omits
	assert.Equal(t, "lifecycle_phase=fresh", cfg.Lifecycle.FreshLabel)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CONFLUENCE_HOSTNAME", "https://env.example.com")
	t.Setenv("CONFLUENCE_USERNAME", "env-user")
	t.Setenv("CONFLUENCE_API_TOKEN", "env-token")
	t.Setenv("CONFLUENCE_SPACE", "ENV")
	t.Setenv("LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[lifecycle]\nspace = \"FILE\"\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Confluence.Hostname)
	assert.Equal(t, "env-user", cfg.Confluence.Username)
	assert.Equal(t, "env-token", cfg.Confluence.APIToken)
	assert.Equal(t, "ENV", cfg.Lifecycle.Space)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
