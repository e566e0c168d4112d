// Package config loads service configuration from a YAML file and the
// environment via viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Manager handles loading configuration.
type Manager struct {
	mu     sync.RWMutex
	config *Config
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	// Defaults are registered per leaf key, not per section: a config file
	// that sets one key of a section must not shadow its siblings.
	defaults := DefaultConfig()
	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.shutdown_timeout_seconds", defaults.Server.ShutdownTimeoutSeconds)
	viper.SetDefault("gcp.project_id", defaults.GCP.ProjectID)
	viper.SetDefault("gcp.bucket", defaults.GCP.Bucket)
	viper.SetDefault("gcp.sectioning_topic", defaults.GCP.SectioningTopic)
	viper.SetDefault("gcp.sectioning_sub", defaults.GCP.SectioningSub)
	viper.SetDefault("gcp.distillation_topic", defaults.GCP.DistillationTopic)
	viper.SetDefault("gcp.distillation_sub", defaults.GCP.DistillationSub)
	viper.SetDefault("llm.api_key", defaults.LLM.APIKey)
	viper.SetDefault("llm.model", defaults.LLM.Model)
	viper.SetDefault("llm.base_url", defaults.LLM.BaseURL)
	viper.SetDefault("llm.max_retries", defaults.LLM.MaxRetries)
	viper.SetDefault("llm.timeout_seconds", defaults.LLM.TimeoutSeconds)
	viper.SetDefault("auth.jwt_secret", defaults.Auth.JWTSecret)
	viper.SetDefault("batch.max_pages", defaults.Batch.MaxPages)
	viper.SetDefault("batch.max_tokens", defaults.Batch.MaxTokens)
	viper.SetDefault("worker.idle_wait_seconds", defaults.Worker.IdleWaitSeconds)
	viper.SetDefault("worker.max_idle_wait_seconds", defaults.Worker.MaxIdleWaitSeconds)

	// Environment variables with BOOKDISTILL_ prefix, e.g.
	// BOOKDISTILL_GCP_PROJECT_ID overrides gcp.project_id.
	viper.SetEnvPrefix("BOOKDISTILL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.bookdistill")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ResolvedLLMAPIKey returns the model API key with ${ENV_VAR} references
// expanded.
func (c *Config) ResolvedLLMAPIKey() string {
	return ResolveEnvVars(c.LLM.APIKey)
}

// ResolvedJWTSecret returns the bearer token secret with ${ENV_VAR}
// references expanded.
func (c *Config) ResolvedJWTSecret() string {
	return ResolveEnvVars(c.Auth.JWTSecret)
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# bookdistill configuration
# Secrets use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export OPENAI_API_KEY=xxx JWT_SECRET_KEY=xxx

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
