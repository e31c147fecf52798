package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Confluence ConfluenceConfig `toml:"confluence"`
	Lifecycle  LifecycleConfig  `toml:"lifecycle"`
	Report     ReportConfig     `toml:"report"`
	Storage    StorageConfig    `toml:"storage"`
	Logging    LoggingConfig    `toml:"logging"`
}

// ConfluenceConfig contains connection settings for the Confluence instance.
type ConfluenceConfig struct {
	Hostname string `toml:"hostname"`
	Username string `toml:"username"`
	APIToken string `toml:"api_token"`
	Cloud    bool   `toml:"cloud"`
	Timeout  int    `toml:"timeout_seconds"`
}

// LifecycleConfig controls which space is walked and how pages are classified.
type LifecycleConfig struct {
	Space       string `toml:"space"`
	MaxPages    int    `toml:"max_pages"`
	PageLimit   int    `toml:"page_limit"`
	StaleDays   int    `toml:"stale_days"`
	RottenDays  int    `toml:"rotten_days"`
	FreshLabel  string `toml:"fresh_label"`
	StaleLabel  string `toml:"stale_label"`
	RottenLabel string `toml:"rotten_label"`
	Workers     int    `toml:"workers"`
	ReadOnly    bool   `toml:"read_only"`
}

// ReportConfig controls the summary page written back to Confluence.
type ReportConfig struct {
	Update    bool   `toml:"update"`
	PageID    string `toml:"page_id"`
	PageTitle string `toml:"page_title"`
}

// StorageConfig contains run-history storage settings. An empty database
// path disables run history.
type StorageConfig struct {
	DatabasePath string `toml:"database_path"`
}

type LoggingConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	Output     string `toml:"output"`
	MaxSize    int    `toml:"max_size"`
	MaxBackups int    `toml:"max_backups"`
}

func DefaultConfig() *Config {
	return &Config{
		Confluence: ConfluenceConfig{
			Cloud:   true,
			Timeout: 30,
		},
		Lifecycle: LifecycleConfig{
			MaxPages:    2500,
			PageLimit:   500,
			StaleDays:   90,
			RottenDays:  180,
			FreshLabel:  "lifecycle_phase=fresh",
			StaleLabel:  "lifecycle_phase=stale",
			RottenLabel: "lifecycle_phase=rotten",
			Workers:     15,
		},
		Report: ReportConfig{
			PageTitle: "Confluence Page Lifecycle Report",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "both",
			MaxSize:    100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration with priority: defaults -> TOML file ->
// environment overrides. Validation is deferred to the caller so CLI flag
// overrides can be applied first.
func LoadConfig(configFile string) (*Config, error) {
	config := DefaultConfig()

	if configFile == "" {
		// Auto-detect config file next to the executable or in the
		// working directory
		execPath, _ := os.Executable()
		execDir := filepath.Dir(execPath)
		execName := filepath.Base(execPath)
		execName = execName[:len(execName)-len(filepath.Ext(execName))]

		possiblePaths := []string{
			filepath.Join(execDir, execName+".toml"),
			filepath.Join(execDir, "config.toml"),
			"config.toml",
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			applyEnvOverrides(config)
			return config, nil
		}
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(config)

	return config, nil
}

func applyEnvOverrides(config *Config) {
	if hostname := os.Getenv("CONFLUENCE_HOSTNAME"); hostname != "" {
		config.Confluence.Hostname = hostname
	}
	if username := os.Getenv("CONFLUENCE_USERNAME"); username != "" {
		config.Confluence.Username = username
	}
	if token := os.Getenv("CONFLUENCE_API_TOKEN"); token != "" {
		config.Confluence.APIToken = token
	}
	if space := os.Getenv("CONFLUENCE_SPACE"); space != "" {
		config.Lifecycle.Space = space
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		config.Storage.DatabasePath = dbPath
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.Logging.Level = logLevel
	}
	if logOutput := os.Getenv("LOG_OUTPUT"); logOutput != "" {
		config.Logging.Output = logOutput
	}

	if maxPages := os.Getenv("LIFECYCLE_MAX_PAGES"); maxPages != "" {
		if n, err := strconv.Atoi(maxPages); err == nil {
			config.Lifecycle.MaxPages = n
		}
	}
}

func (c *Config) Validate() error {
	if c.Confluence.Hostname == "" {
		return fmt.Errorf("confluence hostname is required")
	}
	if c.Confluence.Username == "" {
		return fmt.Errorf("confluence username is required")
	}
	if c.Confluence.APIToken == "" {
		return fmt.Errorf("confluence api_token is required")
	}
	if c.Lifecycle.Space == "" {
		return fmt.Errorf("lifecycle space is required")
	}

	if c.Lifecycle.StaleDays <= 0 {
		return fmt.Errorf("stale_days must be positive, got %d", c.Lifecycle.StaleDays)
	}
	if c.Lifecycle.RottenDays < c.Lifecycle.StaleDays {
		return fmt.Errorf("rotten_days (%d) must be >= stale_days (%d)",
			c.Lifecycle.RottenDays, c.Lifecycle.StaleDays)
	}

	if c.Lifecycle.MaxPages <= 0 {
		return fmt.Errorf("max_pages must be positive, got %d", c.Lifecycle.MaxPages)
	}
	if c.Lifecycle.PageLimit <= 0 {
		c.Lifecycle.PageLimit = 500
	}
	if c.Lifecycle.Workers <= 0 {
		c.Lifecycle.Workers = 15
	}

	if c.Lifecycle.FreshLabel == "" || c.Lifecycle.StaleLabel == "" || c.Lifecycle.RottenLabel == "" {
		return fmt.Errorf("lifecycle labels must not be empty")
	}

	if c.Report.Update && c.Report.PageID == "" {
		return fmt.Errorf("report page_id is required when report update is enabled")
	}

	validLogLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validLevel := false
	for _, level := range validLogLevels {
		if c.Logging.Level == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validOutputs := []string{"console", "file", "both"}
	validOutput := false
	for _, output := range validOutputs {
		if c.Logging.Output == output {
			validOutput = true
			break
		}
	}
	if !validOutput {
		return fmt.Errorf("invalid log output: %s", c.Logging.Output)
	}

	return nil
}
