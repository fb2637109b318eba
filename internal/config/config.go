// Package config loads and validates the application configuration from a
// YAML file plus environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/free-plinko-game/aff-web-gen/internal/apperr"
)

// Config represents the application configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Paths      PathsConfig      `yaml:"paths"`
	Deploy     DeployConfig     `yaml:"deploy"`
	Generation GenerationConfig `yaml:"generation"`
	Daemon     DaemonConfig     `yaml:"daemon"`
}

// DatabaseConfig points at the sqlite database file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// PathsConfig holds the local filesystem roots used by the renderer.
type PathsConfig struct {
	Templates string `yaml:"templates"`
	Assets    string `yaml:"assets"`
	Uploads   string `yaml:"uploads"`
	Output    string `yaml:"output"`
}

// DeployConfig describes the remote host releases are shipped to.
type DeployConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port,omitempty"`
	User              string `yaml:"user"`
	KeyPath           string `yaml:"key_path"`
	WebRoot           string `yaml:"web_root"`
	NginxAvailableDir string `yaml:"nginx_available_dir"`
	NginxEnabledDir   string `yaml:"nginx_enabled_dir"`
	CertbotEmail      string `yaml:"certbot_email,omitempty"`
	KeepReleases      int    `yaml:"keep_releases"`
}

// GenerationConfig configures the text-generation client and batch runner.
type GenerationConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKeyEnv    string        `yaml:"api_key_env"`
	Model        string        `yaml:"model"`
	MaxTokens    int           `yaml:"max_tokens"`
	ModelMax     int           `yaml:"model_max_tokens"`
	Workers      int           `yaml:"workers"`
	Timeout      time.Duration `yaml:"timeout"`
	RetryMode    string        `yaml:"retry_mode,omitempty"`
	RetryInitial time.Duration `yaml:"retry_initial,omitempty"`
	RetryMax     time.Duration `yaml:"retry_max,omitempty"`
	RetryCount   int           `yaml:"retry_count,omitempty"`
}

// DaemonConfig configures the long-running mode.
type DaemonConfig struct {
	SweepInterval      time.Duration `yaml:"sweep_interval"`
	FreshnessThreshold time.Duration `yaml:"freshness_threshold"`
	MetricsAddr        string        `yaml:"metrics_addr"`
	NATS               NATSConfig    `yaml:"nats"`
}

// NATSConfig enables lifecycle event publishing to JetStream.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env files if present; never overriding the real environment.
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, apperr.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath))
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expandedData := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "affgen.db"
	}
	if c.Paths.Templates == "" {
		c.Paths.Templates = "templates"
	}
	if c.Paths.Assets == "" {
		c.Paths.Assets = "assets"
	}
	if c.Paths.Uploads == "" {
		c.Paths.Uploads = "uploads"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "builds"
	}
	if c.Deploy.Port == 0 {
		c.Deploy.Port = 22
	}
	if c.Deploy.WebRoot == "" {
		c.Deploy.WebRoot = "/var/www"
	}
	if c.Deploy.NginxAvailableDir == "" {
		c.Deploy.NginxAvailableDir = "/etc/nginx/sites-available"
	}
	if c.Deploy.NginxEnabledDir == "" {
		c.Deploy.NginxEnabledDir = "/etc/nginx/sites-enabled"
	}
	if c.Deploy.KeepReleases <= 0 {
		c.Deploy.KeepReleases = 3
	}
	if c.Generation.APIKeyEnv == "" {
		c.Generation.APIKeyEnv = "GENERATION_API_KEY"
	}
	if c.Generation.Workers <= 0 {
		c.Generation.Workers = 5
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 4096
	}
	if c.Generation.ModelMax <= 0 {
		c.Generation.ModelMax = 16384
	}
	if c.Generation.Timeout <= 0 {
		c.Generation.Timeout = 120 * time.Second
	}
	if c.Generation.RetryCount <= 0 {
		c.Generation.RetryCount = 2
	}
	if c.Daemon.SweepInterval <= 0 {
		c.Daemon.SweepInterval = 15 * time.Minute
	}
	if c.Daemon.FreshnessThreshold <= 0 {
		c.Daemon.FreshnessThreshold = 24 * time.Hour
	}
	if c.Daemon.MetricsAddr == "" {
		c.Daemon.MetricsAddr = ":9109"
	}
	if c.Daemon.NATS.Subject == "" {
		c.Daemon.NATS.Subject = "affgen.events"
	}
}

// Validate checks cross-field invariants that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Generation.MaxTokens > c.Generation.ModelMax {
		return apperr.ConfigError("generation.max_tokens exceeds generation.model_max_tokens")
	}
	if c.Daemon.NATS.Enabled && c.Daemon.NATS.URL == "" {
		return apperr.ConfigError("daemon.nats.url is required when nats is enabled")
	}
	return nil
}

// APIKey resolves the generation API key from the configured env var.
func (c *Config) APIKey() string {
	return os.Getenv(c.Generation.APIKeyEnv)
}
