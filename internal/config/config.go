// Package config loads cmoskb settings from defaults, YAML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	kberrors "github.com/cmos-dev/cmoskb/internal/errors"
)

// ProjectConfigNames are looked up, in order, in the working directory.
var ProjectConfigNames = []string{".cmoskb.yaml", ".cmoskb.yml"}

// Config is the complete configuration.
type Config struct {
	Version int          `yaml:"version" json:"version"`
	KB      KBConfig     `yaml:"kb" json:"kb"`
	Search  SearchConfig `yaml:"search" json:"search"`
	Recall  RecallConfig `yaml:"recall" json:"recall"`
	Watch   WatchConfig  `yaml:"watch" json:"watch"`
	Log     LogConfig    `yaml:"log" json:"log"`
}

// KBConfig locates the corpus and the database.
type KBConfig struct {
	// Root is the knowledge base directory holding docs/ and research/.
	Root string `yaml:"root" json:"root"`
	// DBPath is the SQLite database file.
	DBPath     string   `yaml:"db_path" json:"db_path"`
	Extensions []string `yaml:"extensions" json:"extensions"`
	SourceDirs []string `yaml:"source_dirs" json:"source_dirs"`
}

// SearchConfig tunes the ranked query path.
type SearchConfig struct {
	DefaultLimit      int      `yaml:"default_limit" json:"default_limit"`
	SnippetLimit      int      `yaml:"snippet_limit" json:"snippet_limit"`
	ValidationQueries []string `yaml:"validation_queries" json:"validation_queries"`
	ValidationLimit   int      `yaml:"validation_limit" json:"validation_limit"`
}

// RecallConfig tunes the heuristic recall path.
type RecallConfig struct {
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" json:"fuzzy_threshold"`
	SubstringBonus float64 `yaml:"substring_bonus" json:"substring_bonus"`
	TokenBonus     float64 `yaml:"token_bonus" json:"token_bonus"`
	CacheRoots     int     `yaml:"cache_roots" json:"cache_roots"`
}

// WatchConfig tunes `index --watch`.
type WatchConfig struct {
	Debounce string `yaml:"debounce" json:"debounce"`
}

// LogConfig tunes file logging.
type LogConfig struct {
	Level     string `yaml:"level" json:"level"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		KB: KBConfig{
			Root:       "cmos",
			DBPath:     filepath.Join(".cmos", "memory.db"),
			Extensions: []string{".md", ".markdown", ".txt", ".rst"},
			SourceDirs: []string{"docs", "research"},
		},
		Search: SearchConfig{
			DefaultLimit:      5,
			SnippetLimit:      280,
			ValidationQueries: []string{"FTS5 search", "trigger registry", "Sprint transition"},
			ValidationLimit:   3,
		},
		Recall: RecallConfig{
			FuzzyThreshold: 0.6,
			SubstringBonus: 1.0,
			TokenBonus:     0.25,
			CacheRoots:     64,
		},
		Watch: WatchConfig{Debounce: "500ms"},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// UserConfigPath returns $XDG_CONFIG_HOME/cmoskb/config.yaml, or
// ~/.config/cmoskb/config.yaml when XDG_CONFIG_HOME is unset.
func UserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cmoskb", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "cmoskb", "config.yaml")
	}
	return filepath.Join(home, ".config", "cmoskb", "config.yaml")
}

// Load builds the configuration for dir. Later sources win:
//  1. defaults
//  2. user config
//  3. project config (.cmoskb.yaml in dir)
//  4. CMOSKB_* environment variables
//
// Relative KB.Root and KB.DBPath are resolved against dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := UserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}
	for _, name := range ProjectConfigNames {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			if err := cfg.loadYAML(path); err != nil {
				return nil, err
			}
			break
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.KB.Root = resolve(dir, cfg.KB.Root)
	cfg.KB.DBPath = resolve(dir, cfg.KB.DBPath)
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return kberrors.ConfigError("failed to read config file "+path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return kberrors.ConfigError("failed to parse config file "+path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith copies the non-zero fields of other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.KB.Root != "" {
		c.KB.Root = other.KB.Root
	}
	if other.KB.DBPath != "" {
		c.KB.DBPath = other.KB.DBPath
	}
	if len(other.KB.Extensions) > 0 {
		c.KB.Extensions = other.KB.Extensions
	}
	if len(other.KB.SourceDirs) > 0 {
		c.KB.SourceDirs = other.KB.SourceDirs
	}

	if other.Search.DefaultLimit != 0 {
		c.Search.DefaultLimit = other.Search.DefaultLimit
	}
	if other.Search.SnippetLimit != 0 {
		c.Search.SnippetLimit = other.Search.SnippetLimit
	}
	if len(other.Search.ValidationQueries) > 0 {
		c.Search.ValidationQueries = other.Search.ValidationQueries
	}
	if other.Search.ValidationLimit != 0 {
		c.Search.ValidationLimit = other.Search.ValidationLimit
	}

	if other.Recall.FuzzyThreshold != 0 {
		c.Recall.FuzzyThreshold = other.Recall.FuzzyThreshold
	}
	if other.Recall.SubstringBonus != 0 {
		c.Recall.SubstringBonus = other.Recall.SubstringBonus
	}
	if other.Recall.TokenBonus != 0 {
		c.Recall.TokenBonus = other.Recall.TokenBonus
	}
	if other.Recall.CacheRoots != 0 {
		c.Recall.CacheRoots = other.Recall.CacheRoots
	}

	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.MaxSizeMB != 0 {
		c.Log.MaxSizeMB = other.Log.MaxSizeMB
	}
	if other.Log.MaxFiles != 0 {
		c.Log.MaxFiles = other.Log.MaxFiles
	}
}

// applyEnvOverrides reads CMOSKB_* variables. Unparseable numbers are
// ignored; explicit zeros are honored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CMOSKB_ROOT"); v != "" {
		c.KB.Root = v
	}
	if v := os.Getenv("CMOSKB_DB"); v != "" {
		c.KB.DBPath = v
	}
	if v := os.Getenv("CMOSKB_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CMOSKB_FUZZY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			c.Recall.FuzzyThreshold = f
		}
	}
	if v := os.Getenv("CMOSKB_SEARCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.Search.DefaultLimit = n
		}
	}
	if v := os.Getenv("CMOSKB_WATCH_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.KB.Root == "" {
		return kberrors.ConfigError("kb.root must not be empty", nil)
	}
	if c.KB.DBPath == "" {
		return kberrors.ConfigError("kb.db_path must not be empty", nil)
	}
	for _, ext := range c.KB.Extensions {
		if strings.TrimSpace(ext) == "" {
			return kberrors.ConfigError("kb.extensions must not contain empty entries", nil)
		}
	}
	if c.Search.DefaultLimit < 0 {
		return kberrors.ConfigError(fmt.Sprintf("search.default_limit must be non-negative, got %d", c.Search.DefaultLimit), nil)
	}
	if c.Search.SnippetLimit <= 3 {
		return kberrors.ConfigError(fmt.Sprintf("search.snippet_limit must be greater than 3, got %d", c.Search.SnippetLimit), nil)
	}
	if c.Recall.FuzzyThreshold < 0 || c.Recall.FuzzyThreshold > 1 {
		return kberrors.ConfigError(fmt.Sprintf("recall.fuzzy_threshold must be between 0 and 1, got %g", c.Recall.FuzzyThreshold), nil)
	}
	if c.Recall.SubstringBonus < 0 || c.Recall.TokenBonus < 0 {
		return kberrors.ConfigError("recall bonuses must be non-negative", nil)
	}
	if c.Recall.CacheRoots < 1 {
		return kberrors.ConfigError(fmt.Sprintf("recall.cache_roots must be positive, got %d", c.Recall.CacheRoots), nil)
	}
	if _, err := c.WatchDebounce(); err != nil {
		return kberrors.ConfigError("watch.debounce is not a duration", err)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return kberrors.ConfigError(fmt.Sprintf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level), nil)
	}
	return nil
}

// WatchDebounce parses Watch.Debounce.
func (c *Config) WatchDebounce() (time.Duration, error) {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}

// WriteYAML writes c to path, used by `cmoskb init`.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// FindProjectRoot walks up from startDir to the first directory holding
// a project config or a .git directory. It returns startDir (absolute)
// when none is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	for dir := absDir; ; {
		for _, name := range ProjectConfigNames {
			if fileExists(filepath.Join(dir, name)) {
				return dir, nil
			}
		}
		if dirExists(filepath.Join(dir, ".git")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir, nil
		}
		dir = parent
	}
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
