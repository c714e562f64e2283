package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// ConfigVersion is the current configuration schema version.
const ConfigVersion = 1

// ProjectConfigName is the project config filename looked up in the
// project root (a .yml variant is also accepted).
const ProjectConfigName = ".grepmcp.yaml"

// Defaults for every tunable. These are the values NewConfig starts from;
// user config, project config, and GREPMCP_* env vars override them in
// that order.
const (
	DefaultContextLines      = 2
	DefaultLogLevel          = "info"
	DefaultLogMaxSizeMB      = 10
	DefaultLogMaxFiles       = 5
	DefaultHistoryMaxEntries = 1000
	DefaultWatchDebounceMS   = 200
	DefaultWatchEventBuffer  = 100
)

// defaultTextExtensions is the built-in allow-list of file extensions
// treated as searchable text. Lowercase with leading dot; comparisons
// lowercase the candidate extension before membership checks.
var defaultTextExtensions = []string{
	".py", ".html", ".css", ".js", ".ts", ".json",
	".yaml", ".yml", ".toml", ".ini", ".cfg", ".conf",
	".txt", ".md", ".java", ".cpp", ".c", ".h", ".hpp",
	".rs", ".go", ".rb", ".php", ".sh", ".xml",
}

// DefaultTextExtensions returns a fresh copy of the built-in text
// extension allow-list.
func DefaultTextExtensions() []string {
	exts := make([]string, len(defaultTextExtensions))
	copy(exts, defaultTextExtensions)
	return exts
}

// Config represents the complete grepmcp configuration.
// A Config is immutable after Load returns it; callers must not mutate
// shared instances.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	History HistoryConfig `yaml:"history" json:"history"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
}

// SearchConfig configures search defaults. Individual CLI invocations and
// MCP tool calls can override context_lines and case_sensitive per call;
// these are the values used when a call doesn't specify them.
type SearchConfig struct {
	// ContextLines is the default number of context lines shown around
	// each file match. nil means unset; 0 is a valid configured value
	// (matched line only), so a plain int cannot represent "not set".
	ContextLines *int `yaml:"context_lines" json:"context_lines"`

	// CaseSensitive makes matching case-sensitive by default.
	// false is the default, so an explicit `case_sensitive: false` in
	// YAML is indistinguishable from unset; use GREPMCP_CASE_SENSITIVE
	// to force it off over an inherited true.
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`

	// TextExtensions is the allow-list of extensions searched during
	// directory scans. A non-empty list in config REPLACES the default
	// allow-list rather than appending to it.
	TextExtensions []string `yaml:"text_extensions" json:"text_extensions"`
}

// ContextLinesOrDefault returns the configured context line count, or
// DefaultContextLines when unset.
func (s *SearchConfig) ContextLinesOrDefault() int {
	if s.ContextLines == nil {
		return DefaultContextLines
	}
	return *s.ContextLines
}

// LoggingConfig configures the rotating JSON log.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`

	// File is the log file path. Empty means the per-user default
	// (~/.grepmcp/logs/server.log).
	File string `yaml:"file" json:"file"`

	MaxSizeMB int `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int `yaml:"max_files" json:"max_files"`
}

// HistoryConfig configures the search history store.
type HistoryConfig struct {
	// Enabled turns history recording on or off. nil means unset
	// (history on); a pointer so an explicit `enabled: false` in YAML
	// survives the non-zero merge.
	Enabled *bool `yaml:"enabled" json:"enabled"`

	// Path is the SQLite database path. Empty means the per-user
	// default (~/.grepmcp/history.db).
	Path string `yaml:"path" json:"path"`

	MaxEntries int `yaml:"max_entries" json:"max_entries"`
}

// IsEnabled reports whether history recording is on.
func (h *HistoryConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// WatchConfig configures the directory watcher.
type WatchConfig struct {
	// DebounceMS is the quiet window before a burst of file events is
	// flushed as one batch. 0 disables coalescing entirely; since 0 is
	// also the zero value it cannot be set via YAML, only via
	// GREPMCP_WATCH_DEBOUNCE_MS.
	DebounceMS int `yaml:"debounce_ms" json:"debounce_ms"`

	// EventBuffer is the capacity of the batch channel between the
	// watcher and its consumer.
	EventBuffer int `yaml:"event_buffer" json:"event_buffer"`
}

// NewConfig creates a new Config with all defaults applied.
func NewConfig() *Config {
	contextLines := DefaultContextLines
	historyEnabled := true
	return &Config{
		Version: ConfigVersion,
		Search: SearchConfig{
			ContextLines:   &contextLines,
			CaseSensitive:  false,
			TextExtensions: DefaultTextExtensions(),
		},
		Logging: LoggingConfig{
			Level:     DefaultLogLevel,
			File:      "",
			MaxSizeMB: DefaultLogMaxSizeMB,
			MaxFiles:  DefaultLogMaxFiles,
		},
		History: HistoryConfig{
			Enabled:    &historyEnabled,
			Path:       "",
			MaxEntries: DefaultHistoryMaxEntries,
		},
		Watch: WatchConfig{
			DebounceMS:  DefaultWatchDebounceMS,
			EventBuffer: DefaultWatchEventBuffer,
		},
	}
}

// GetUserConfigPath returns the path to the user-level configuration file.
// Respects XDG_CONFIG_HOME; defaults to ~/.config/grepmcp/config.yaml.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "grepmcp", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback - should rarely happen
		return filepath.Join(os.TempDir(), ".config", "grepmcp", "config.yaml")
	}
	return filepath.Join(home, ".config", "grepmcp", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// DefaultHistoryPath returns the default search history database path.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".grepmcp", "history.db")
	}
	return filepath.Join(home, ".grepmcp", "history.db")
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()

	if !fileExists(configPath) {
		return nil, nil // No user config is fine
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// Load loads configuration for the given directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/grepmcp/config.yaml)
//  3. Project config (.grepmcp.yaml in dir)
//  4. Environment variables (GREPMCP_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	// Step 1: Load user/global config (if exists)
	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	// Step 2: Load project config (overrides user config)
	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	// Step 3: Apply environment variable overrides (highest precedence)
	cfg.applyEnvOverrides()

	// Step 4: Normalize and validate the final configuration
	cfg.normalizeExtensions()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .grepmcp.yaml or .grepmcp.yml.
func (c *Config) loadFromFile(dir string) error {
	// Try .yaml first (takes precedence)
	yamlPath := filepath.Join(dir, ".grepmcp.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	// Try .yml as fallback
	ymlPath := filepath.Join(dir, ".grepmcp.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Use a temporary struct for parsing to detect type errors
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Merge parsed values with defaults (only non-zero values)
	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
// Pointer fields (search.context_lines, history.enabled) merge whenever
// the pointer is set, so explicit zero values survive.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Search
	if other.Search.ContextLines != nil {
		c.Search.ContextLines = other.Search.ContextLines
	}
	if other.Search.CaseSensitive {
		c.Search.CaseSensitive = true
	}
	if len(other.Search.TextExtensions) > 0 {
		// Replace the allow-list rather than append: a configured list
		// is the complete set of searchable extensions.
		c.Search.TextExtensions = other.Search.TextExtensions
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}

	// History
	if other.History.Enabled != nil {
		c.History.Enabled = other.History.Enabled
	}
	if other.History.Path != "" {
		c.History.Path = other.History.Path
	}
	if other.History.MaxEntries != 0 {
		c.History.MaxEntries = other.History.MaxEntries
	}

	// Watch
	if other.Watch.DebounceMS != 0 {
		c.Watch.DebounceMS = other.Watch.DebounceMS
	}
	if other.Watch.EventBuffer != 0 {
		c.Watch.EventBuffer = other.Watch.EventBuffer
	}
}

// applyEnvOverrides applies GREPMCP_* environment variable overrides.
// Values that fail to coerce are ignored, keeping the previous setting.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GREPMCP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GREPMCP_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("GREPMCP_CONTEXT_LINES"); v != "" {
		if n, err := cast.ToIntE(v); err == nil && n >= 0 {
			c.Search.ContextLines = &n
		}
	}
	if v := os.Getenv("GREPMCP_CASE_SENSITIVE"); v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			c.Search.CaseSensitive = b
		}
	}
	if v := os.Getenv("GREPMCP_HISTORY_ENABLED"); v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			c.History.Enabled = &b
		}
	}
	if v := os.Getenv("GREPMCP_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("GREPMCP_HISTORY_MAX_ENTRIES"); v != "" {
		if n, err := cast.ToIntE(v); err == nil && n > 0 {
			c.History.MaxEntries = n
		}
	}
	if v := os.Getenv("GREPMCP_WATCH_DEBOUNCE_MS"); v != "" {
		if n, err := cast.ToIntE(v); err == nil && n >= 0 {
			c.Watch.DebounceMS = n
		}
	}
}

// normalizeExtensions lowercases the extension allow-list and ensures a
// leading dot on every entry, so membership checks against a lowercased
// file extension behave regardless of how the list was written.
func (c *Config) normalizeExtensions() {
	for i, ext := range c.Search.TextExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Search.TextExtensions[i] = ext
	}
}

// FindProjectRoot finds the project root directory.
// It looks for a .git directory or .grepmcp.yaml/.yml file by walking up
// the directory tree. If neither is found, the starting directory is
// returned.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		// Check for .git directory
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}

		// Check for .grepmcp.yaml or .grepmcp.yml
		if fileExists(filepath.Join(currentDir, ".grepmcp.yaml")) ||
			fileExists(filepath.Join(currentDir, ".grepmcp.yml")) {
			return currentDir, nil
		}

		// Move up one directory
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root, return original directory
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.ContextLines != nil && *c.Search.ContextLines < 0 {
		return fmt.Errorf("search.context_lines must be non-negative, got %d", *c.Search.ContextLines)
	}

	if len(c.Search.TextExtensions) == 0 {
		return fmt.Errorf("search.text_extensions must not be empty")
	}
	for _, ext := range c.Search.TextExtensions {
		if ext == "" || ext == "." {
			return fmt.Errorf("search.text_extensions contains an empty entry")
		}
	}

	// Validate log level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	if c.Logging.MaxSizeMB <= 0 {
		return fmt.Errorf("logging.max_size_mb must be positive, got %d", c.Logging.MaxSizeMB)
	}
	if c.Logging.MaxFiles <= 0 {
		return fmt.Errorf("logging.max_files must be positive, got %d", c.Logging.MaxFiles)
	}

	if c.History.MaxEntries <= 0 {
		return fmt.Errorf("history.max_entries must be positive, got %d", c.History.MaxEntries)
	}

	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must be non-negative, got %d", c.Watch.DebounceMS)
	}
	if c.Watch.EventBuffer <= 0 {
		return fmt.Errorf("watch.event_buffer must be positive, got %d", c.Watch.EventBuffer)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
