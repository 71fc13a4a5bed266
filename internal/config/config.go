package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/harrison/everything/internal/logger"
	"github.com/harrison/everything/internal/models"
	"gopkg.in/yaml.v3"
)

// SearchConfig represents search defaults
type SearchConfig struct {
	// MatchCase makes name matching case-sensitive
	MatchCase bool `yaml:"match_case"`

	// Literal escapes regular expression metacharacters in search text
	Literal bool `yaml:"literal"`

	// DefaultSort is the column results are ordered by
	DefaultSort string `yaml:"default_sort"`
}

// ReindexConfig represents reindex behavior
type ReindexConfig struct {
	// Shadow builds the new catalog beside the old one and swaps it in
	Shadow bool `yaml:"shadow"`

	// Lock guards reindex and search with a lock file next to the database
	Lock bool `yaml:"lock"`
}

// Config represents everything configuration options
type Config struct {
	// Root is the directory whose immediate children are cataloged
	Root string `yaml:"root"`

	// DBPath is the catalog database file; relative paths resolve against the home
	// directory and an empty value means $EVERYTHING_HOME/catalog.db
	DBPath string `yaml:"db_path"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written; empty disables file logging
	LogDir string `yaml:"log_dir"`

	Search  SearchConfig  `yaml:"search"`
	Reindex ReindexConfig `yaml:"reindex"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	root, err := os.UserHomeDir()
	if err != nil {
		root = "."
	}
	return &Config{
		Root:     root,
		DBPath:   "",
		LogLevel: "info",
		LogDir:   "",
		Search: SearchConfig{
			MatchCase:   false,
			Literal:     false,
			DefaultSort: models.ColumnName,
		},
		Reindex: ReindexConfig{
			Shadow: false,
			Lock:   true,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlCfg Config
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if yamlCfg.Root != "" {
		cfg.Root = yamlCfg.Root
	}
	if yamlCfg.DBPath != "" {
		cfg.DBPath = yamlCfg.DBPath
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}

	// Booleans in nested sections only override defaults when the key is present,
	// so "lock: false" can turn off a default of true.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if searchMap, ok := rawMap["search"].(map[string]interface{}); ok {
			if _, exists := searchMap["match_case"]; exists {
				cfg.Search.MatchCase = yamlCfg.Search.MatchCase
			}
			if _, exists := searchMap["literal"]; exists {
				cfg.Search.Literal = yamlCfg.Search.Literal
			}
			if _, exists := searchMap["default_sort"]; exists {
				cfg.Search.DefaultSort = yamlCfg.Search.DefaultSort
			}
		}
		if reindexMap, ok := rawMap["reindex"].(map[string]interface{}); ok {
			if _, exists := reindexMap["shadow"]; exists {
				cfg.Reindex.Shadow = yamlCfg.Reindex.Shadow
			}
			if _, exists := reindexMap["lock"]; exists {
				cfg.Reindex.Lock = yamlCfg.Reindex.Lock
			}
		}
	}

	return cfg, nil
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(root *string, dbPath *string, logLevel *string, logDir *string) {
	if root != nil {
		c.Root = *root
	}
	if dbPath != nil {
		c.DBPath = *dbPath
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if !logger.IsValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if strings.TrimSpace(c.Root) == "" {
		return fmt.Errorf("root cannot be empty")
	}

	if !IsSortColumn(c.Search.DefaultSort) {
		return fmt.Errorf("invalid search.default_sort %q, must be one of: %s",
			c.Search.DefaultSort, strings.Join(models.Columns, ", "))
	}

	return nil
}

// DBFile returns the catalog database path: DBPath resolved against the home
// directory, or the default location when DBPath is unset.
func (c *Config) DBFile() (string, error) {
	if strings.TrimSpace(c.DBPath) == "" {
		return GetDBPath()
	}
	return ResolvePath(c.DBPath)
}

// IsSortColumn reports whether name is a catalog column results can be ordered by.
func IsSortColumn(name string) bool {
	for _, col := range models.Columns {
		if col == name {
			return true
		}
	}
	return false
}
