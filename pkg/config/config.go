package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the X scraper
type Config struct {
	// Browser session settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Scroll-and-extract loop settings
	Collection CollectionConfig `yaml:"collection" json:"collection"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Sentiment and word frequency settings
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`

	// Job API settings
	Server ServerConfig `yaml:"server" json:"server"`

	// Job submission throttling
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserConfig holds the Chrome session configuration
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	RemoteURL         string        `yaml:"remote_url" json:"remote_url"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	AcceptLanguage    string        `yaml:"accept_language" json:"accept_language"`
	CookieFile        string        `yaml:"cookie_file" json:"cookie_file"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	NavigationRetries int           `yaml:"navigation_retries" json:"navigation_retries"`

	// Login credentials are only read from the environment or the credential store
	Username string `yaml:"-" json:"-"`
	Password string `yaml:"-" json:"-"`
}

// CollectionConfig holds the collection loop configuration
type CollectionConfig struct {
	MaxRecords        int           `yaml:"max_records" json:"max_records"`
	MaxNoGrowthStreak int           `yaml:"max_no_growth_streak" json:"max_no_growth_streak"`
	ScrollDelay       time.Duration `yaml:"scroll_delay" json:"scroll_delay"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay"`
	MaxRetryDelay     time.Duration `yaml:"max_retry_delay" json:"max_retry_delay"`
	Tab               string        `yaml:"tab" json:"tab"`
	Language          string        `yaml:"language" json:"language"`
}

// OutputConfig holds output location configuration
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	File      string `yaml:"file" json:"file"`
}

// AnalysisConfig holds text analysis configuration
type AnalysisConfig struct {
	Sentiment        bool   `yaml:"sentiment" json:"sentiment"`
	Language         string `yaml:"language" json:"language"`
	MinWordLength    int    `yaml:"min_word_length" json:"min_word_length"`
	ExcludeStopWords bool   `yaml:"exclude_stop_words" json:"exclude_stop_words"`
	TopWords         int    `yaml:"top_words" json:"top_words"`
}

// ServerConfig holds the job API configuration
type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`
	Workers         int           `yaml:"workers" json:"workers"`
	JobsDatabase    string        `yaml:"jobs_database" json:"jobs_database"`
	LogLines        int           `yaml:"log_lines" json:"log_lines"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// RateLimitConfig holds job submission throttling
type RateLimitConfig struct {
	JobsPerMinute int `yaml:"jobs_per_minute" json:"jobs_per_minute"`
	Burst         int `yaml:"burst" json:"burst"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnComplete       bool   `yaml:"on_complete" json:"on_complete"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	OnExhausted      bool   `yaml:"on_exhausted" json:"on_exhausted"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:          true,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			AcceptLanguage:    "en-US,en;q=0.9",
			CookieFile:        "x_cookies.json",
			NavigationTimeout: 60 * time.Second,
			NavigationRetries: 3,
		},
		Collection: CollectionConfig{
			MaxRecords:        0, // 0 means unbounded
			MaxNoGrowthStreak: 3,
			ScrollDelay:       500 * time.Millisecond,
			RetryDelay:        3 * time.Second,
			MaxRetryDelay:     30 * time.Second,
			Tab:               "latest",
		},
		Output: OutputConfig{
			Directory: "out",
			File:      "tweets.json",
		},
		Analysis: AnalysisConfig{
			Sentiment:        true,
			Language:         "en",
			MinWordLength:    2,
			ExcludeStopWords: true,
			TopWords:         100,
		},
		Server: ServerConfig{
			Addr:            ":3000",
			Workers:         2,
			JobsDatabase:    filepath.Join("out", "jobs.db"),
			LogLines:        200,
			ShutdownTimeout: 15 * time.Second,
		},
		RateLimit: RateLimitConfig{
			JobsPerMinute: 6,
			Burst:         2,
		},
		Notifications: NotificationConfig{
			Enabled:          true,
			OnComplete:       true,
			OnError:          true,
			OnExhausted:      true,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	// Credentials
	if user := os.Getenv("TWITTER_USER"); user != "" {
		c.Browser.Username = user
	}
	if pass := os.Getenv("TWITTER_PASS"); pass != "" {
		c.Browser.Password = pass
	}

	// Browser
	if headless := os.Getenv("XSCRAPER_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) != "false"
	}
	if remote := os.Getenv("XSCRAPER_REMOTE_URL"); remote != "" {
		c.Browser.RemoteURL = remote
	}
	if cookies := os.Getenv("XSCRAPER_COOKIE_FILE"); cookies != "" {
		c.Browser.CookieFile = cookies
	}

	// Collection
	if limit := os.Getenv("XSCRAPER_LIMIT"); limit != "" {
		val, err := strconv.Atoi(limit)
		if err != nil {
			errs = append(errs, fmt.Errorf("XSCRAPER_LIMIT: %w", err))
		} else {
			c.Collection.MaxRecords = val
		}
	}
	if maxNoNew := os.Getenv("XSCRAPER_MAX_NO_NEW"); maxNoNew != "" {
		val, err := strconv.Atoi(maxNoNew)
		if err != nil {
			errs = append(errs, fmt.Errorf("XSCRAPER_MAX_NO_NEW: %w", err))
		} else {
			c.Collection.MaxNoGrowthStreak = val
		}
	}
	if delay := os.Getenv("XSCRAPER_SCROLL_DELAY"); delay != "" {
		val, err := parseMillis(delay)
		if err != nil {
			errs = append(errs, fmt.Errorf("XSCRAPER_SCROLL_DELAY: %w", err))
		} else {
			c.Collection.ScrollDelay = val
		}
	}
	if lang := os.Getenv("XSCRAPER_LANG"); lang != "" {
		c.Collection.Language = lang
		c.Analysis.Language = lang
	}

	// Output directory
	if outputDir := os.Getenv("XSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}

	// Server
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if addr := os.Getenv("XSCRAPER_SERVER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if workers := os.Getenv("XSCRAPER_WORKERS"); workers != "" {
		val, err := strconv.Atoi(workers)
		if err != nil {
			errs = append(errs, fmt.Errorf("XSCRAPER_WORKERS: %w", err))
		} else {
			c.Server.Workers = val
		}
	}

	// Notifications
	if notifEnabled := os.Getenv("XSCRAPER_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}

	// Logging
	if logLevel := os.Getenv("XSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("XSCRAPER_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return errors.Join(errs...)
}

// parseMillis accepts either a Go duration ("750ms") or a bare millisecond count
func parseMillis(value string) (time.Duration, error) {
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(value)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".xscraper.yaml",
		".xscraper.yml",
		filepath.Join(home, ".config", "xscraper", "config.yaml"),
		filepath.Join(home, ".config", "xscraper", "config.yml"),
		filepath.Join(home, ".xscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

var validTabs = map[string]bool{"latest": true, "top": true, "media": true}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Collection
	if c.Collection.MaxRecords < 0 {
		errs = append(errs, errors.New("max records cannot be negative"))
	}
	if c.Collection.MaxNoGrowthStreak <= 0 {
		errs = append(errs, errors.New("max no-growth streak must be positive"))
	}
	if c.Collection.ScrollDelay < 0 {
		errs = append(errs, errors.New("scroll delay cannot be negative"))
	}
	if c.Collection.RetryDelay <= 0 {
		errs = append(errs, errors.New("retry delay must be positive"))
	}
	if !validTabs[strings.ToLower(c.Collection.Tab)] {
		errs = append(errs, fmt.Errorf("invalid search tab %q", c.Collection.Tab))
	}

	// Browser
	if c.Browser.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("navigation timeout must be positive"))
	}
	if c.Browser.NavigationRetries < 1 {
		errs = append(errs, errors.New("navigation retries must be at least 1"))
	}

	// Output
	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.File == "" {
		errs = append(errs, errors.New("output file is required"))
	}

	// Analysis
	if c.Analysis.MinWordLength < 1 {
		errs = append(errs, errors.New("min word length must be at least 1"))
	}

	// Server
	if c.Server.Workers <= 0 {
		errs = append(errs, errors.New("server workers must be positive"))
	}
	if c.Server.Workers > 8 {
		errs = append(errs, errors.New("server workers should not exceed 8 browser sessions"))
	}
	if c.RateLimit.JobsPerMinute <= 0 {
		errs = append(errs, errors.New("jobs per minute must be positive"))
	}
	if c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("rate limit burst must be positive"))
	}

	// Logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	validNotifTypes := map[string]bool{
		"terminal": true, "desktop": true, "none": true,
	}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, errors.New("invalid notification type"))
	}

	return errors.Join(errs...)
}

// OutputPath returns the default store location for a search run
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.Output.File) || filepath.Dir(c.Output.File) != "." {
		return c.Output.File
	}
	return filepath.Join(c.Output.Directory, c.Output.File)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if remote, ok := flags["remote-url"].(string); ok && remote != "" {
		c.Browser.RemoteURL = remote
	}
	if cookies, ok := flags["cookies"].(string); ok && cookies != "" {
		c.Browser.CookieFile = cookies
	}
	if limit, ok := flags["limit"].(int); ok && limit >= 0 {
		c.Collection.MaxRecords = limit
	}
	if maxNoNew, ok := flags["max-no-new"].(int); ok && maxNoNew > 0 {
		c.Collection.MaxNoGrowthStreak = maxNoNew
	}
	if delay, ok := flags["scroll-delay"].(int); ok && delay >= 0 {
		c.Collection.ScrollDelay = time.Duration(delay) * time.Millisecond
	}
	if tab, ok := flags["tab"].(string); ok && tab != "" {
		c.Collection.Tab = tab
	}
	if lang, ok := flags["lang"].(string); ok && lang != "" {
		c.Collection.Language = lang
		c.Analysis.Language = lang
	}
	if outfile, ok := flags["outfile"].(string); ok && outfile != "" {
		c.Output.File = outfile
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if sentiment, ok := flags["sentiment"].(bool); ok {
		c.Analysis.Sentiment = sentiment
	}
	if addr, ok := flags["addr"].(string); ok && addr != "" {
		c.Server.Addr = addr
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Server.Workers = workers
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if noColor, ok := flags["no-color"].(bool); ok {
		c.Logging.NoColor = noColor
	}
	if notify, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = notify
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are not an error
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".xscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
