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

// Run modes for the pagination driver
const (
	ModeAuto         = "auto"
	ModeSequential   = "sequential"
	ModeCoordinated  = "coordinated"
	ModeSharedCursor = "shared-cursor"
)

// Cap policies applied when max_users is set
const (
	CapPolicyPage  = "page"
	CapPolicyExact = "exact"
)

// Config holds all configuration options for roparse
type Config struct {
	// Remote API settings
	Roblox RobloxConfig `yaml:"roblox" json:"roblox"`

	// Crawl settings
	Run RunConfig `yaml:"run" json:"run"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// RobloxConfig holds settings for the groups API
type RobloxConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// RunConfig holds pagination driver settings
type RunConfig struct {
	Workers       int           `yaml:"workers" json:"workers"`
	MaxUsers      int           `yaml:"max_users" json:"max_users"`
	Mode          string        `yaml:"mode" json:"mode"`
	CapPolicy     string        `yaml:"cap_policy" json:"cap_policy"`
	ThrottleDelay time.Duration `yaml:"throttle_delay" json:"throttle_delay"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// MetricsConfig holds the Prometheus exporter settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Roblox: RobloxConfig{
			BaseURL:        "https://groups.roblox.com",
			UserAgent:      "roparse/1.0",
			RequestTimeout: 10 * time.Second,
		},
		Run: RunConfig{
			Workers:       1,
			MaxUsers:      0, // 0 means collect everything
			Mode:          ModeAuto,
			CapPolicy:     CapPolicyPage,
			ThrottleDelay: 100 * time.Millisecond,
		},
		Output: OutputConfig{
			Directory: ".",
		},
		Notifications: NotificationConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9464",
		},
	}
}

// EffectiveMode resolves ModeAuto against the worker count
func (c *Config) EffectiveMode() string {
	if c.Run.Mode == "" || c.Run.Mode == ModeAuto {
		if c.Run.Workers > 1 {
			return ModeCoordinated
		}
		return ModeSequential
	}
	return c.Run.Mode
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("ROPARSE_BASE_URL"); baseURL != "" {
		c.Roblox.BaseURL = baseURL
	}
	if userAgent := os.Getenv("ROPARSE_USER_AGENT"); userAgent != "" {
		c.Roblox.UserAgent = userAgent
	}
	if timeout := os.Getenv("ROPARSE_REQUEST_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid ROPARSE_REQUEST_TIMEOUT: %w", err)
		}
		c.Roblox.RequestTimeout = d
	}

	if workers := os.Getenv("ROPARSE_WORKERS"); workers != "" {
		val, err := strconv.Atoi(workers)
		if err != nil {
			return fmt.Errorf("invalid ROPARSE_WORKERS: %w", err)
		}
		c.Run.Workers = val
	}
	if maxUsers := os.Getenv("ROPARSE_MAX_USERS"); maxUsers != "" {
		val, err := strconv.Atoi(maxUsers)
		if err != nil {
			return fmt.Errorf("invalid ROPARSE_MAX_USERS: %w", err)
		}
		c.Run.MaxUsers = val
	}
	if mode := os.Getenv("ROPARSE_MODE"); mode != "" {
		c.Run.Mode = strings.ToLower(mode)
	}
	if policy := os.Getenv("ROPARSE_CAP_POLICY"); policy != "" {
		c.Run.CapPolicy = strings.ToLower(policy)
	}
	if throttle := os.Getenv("ROPARSE_THROTTLE_DELAY"); throttle != "" {
		d, err := time.ParseDuration(throttle)
		if err != nil {
			return fmt.Errorf("invalid ROPARSE_THROTTLE_DELAY: %w", err)
		}
		c.Run.ThrottleDelay = d
	}

	if outputDir := os.Getenv("ROPARSE_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}

	if notifEnabled := os.Getenv("ROPARSE_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}

	if logLevel := os.Getenv("ROPARSE_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("ROPARSE_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	if addr := os.Getenv("ROPARSE_METRICS_ADDR"); addr != "" {
		c.Metrics.Enabled = true
		c.Metrics.Address = addr
	}

	return nil
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
		".roparse.yaml",
		".roparse.yml",
		filepath.Join(home, ".config", "roparse", "config.yaml"),
		filepath.Join(home, ".config", "roparse", "config.yml"),
		filepath.Join(home, ".roparse.yaml"),
		filepath.Join(home, ".roparse.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Roblox.BaseURL == "" {
		errs = append(errs, errors.New("roblox base URL is required"))
	}
	if c.Roblox.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Run.Workers < 1 {
		errs = append(errs, errors.New("worker count must be at least 1"))
	}
	if c.Run.MaxUsers < 0 {
		errs = append(errs, errors.New("max users cannot be negative"))
	}
	if c.Run.ThrottleDelay < 0 {
		errs = append(errs, errors.New("throttle delay cannot be negative"))
	}

	validModes := map[string]bool{
		"": true, ModeAuto: true, ModeSequential: true, ModeCoordinated: true, ModeSharedCursor: true,
	}
	if !validModes[c.Run.Mode] {
		errs = append(errs, fmt.Errorf("invalid run mode %q", c.Run.Mode))
	}
	if c.Run.Mode == ModeSequential && c.Run.Workers > 1 {
		errs = append(errs, errors.New("sequential mode runs a single worker"))
	}

	validPolicies := map[string]bool{
		"": true, CapPolicyPage: true, CapPolicyExact: true,
	}
	if !validPolicies[c.Run.CapPolicy] {
		errs = append(errs, fmt.Errorf("invalid cap policy %q", c.Run.CapPolicy))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if c.Metrics.Enabled && c.Metrics.Address == "" {
		errs = append(errs, errors.New("metrics address is required when metrics are enabled"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
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

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if workers, ok := flags["workers"].(int); ok {
		c.Run.Workers = workers
	}
	if maxUsers, ok := flags["max-users"].(int); ok {
		c.Run.MaxUsers = maxUsers
	}
	if mode, ok := flags["mode"].(string); ok && mode != "" {
		c.Run.Mode = strings.ToLower(mode)
	}
	if policy, ok := flags["cap-policy"].(string); ok && policy != "" {
		c.Run.CapPolicy = strings.ToLower(policy)
	}
	if throttle, ok := flags["throttle"].(time.Duration); ok {
		c.Run.ThrottleDelay = throttle
	}
	if timeout, ok := flags["timeout"].(time.Duration); ok {
		c.Roblox.RequestTimeout = timeout
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if enabled, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = enabled
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if addr, ok := flags["metrics-addr"].(string); ok && addr != "" {
		c.Metrics.Enabled = true
		c.Metrics.Address = addr
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".roparse.env"))

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
