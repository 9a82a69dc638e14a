package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string // "development" or "production"

	// Classifier and execution tuning
	ClassifierThreshold float64
	MaxChainLength      int

	// Collaborator settings
	CacheTTL       time.Duration
	DatabasePath   string
	EnvFilePath    string
	GitHubAPIURL   string
	RequestTimeout time.Duration

	// Secrets
	EncryptionMasterKey string // 64 hex chars, empty disables token encryption

	// HTTP layer
	AllowedOrigins string
	EnableAuth     bool
	JWTSecret      string

	// OverridesFile optionally points at a YAML file that can replace
	// classifier tuning and workflow definitions.
	OverridesFile string
}

// Overrides is the YAML override file schema.
type Overrides struct {
	ClassifierThreshold *float64       `yaml:"classifier_threshold"`
	MaxChainLength      *int           `yaml:"max_chain_length"`
	Workflows           []WorkflowSpec `yaml:"workflows"`
}

// WorkflowSpec mirrors the workflow definition shape for YAML overrides.
type WorkflowSpec struct {
	Name  string `yaml:"name"`
	Steps []struct {
		Tool     string         `yaml:"tool"`
		Required bool           `yaml:"required"`
		Params   map[string]any `yaml:"params"`
	} `yaml:"steps"`
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3001"),
		Environment: getEnv("ENV", "development"),

		ClassifierThreshold: getFloatEnv("CLASSIFIER_THRESHOLD", 0.3),
		MaxChainLength:      getIntEnv("MAX_CHAIN_LENGTH", 10),

		CacheTTL:       time.Duration(getIntEnv("CACHE_TTL_SECONDS", 300)) * time.Second,
		DatabasePath:   getEnv("DATABASE_PATH", "gitpilot.db"),
		EnvFilePath:    getEnv("ENV_FILE", ".env"),
		GitHubAPIURL:   getEnv("GITHUB_API_URL", "https://api.github.com"),
		RequestTimeout: time.Duration(getIntEnv("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,

		EncryptionMasterKey: getEnv("ENCRYPTION_MASTER_KEY", ""),

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		EnableAuth:     getBoolEnv("ENABLE_AUTH", false),
		JWTSecret:      getEnv("JWT_SECRET", ""),

		OverridesFile: getEnv("OVERRIDES_FILE", ""),
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// LoadOverrides reads the YAML overrides file, if configured. A missing
// file is not an error; a malformed one is.
func (c *Config) LoadOverrides() (*Overrides, error) {
	if c.OverridesFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.OverridesFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}

	var ov Overrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("failed to parse overrides YAML: %w", err)
	}
	return &ov, nil
}

// Apply folds the overrides into the config.
func (c *Config) Apply(ov *Overrides) {
	if ov == nil {
		return
	}
	if ov.ClassifierThreshold != nil {
		c.ClassifierThreshold = *ov.ClassifierThreshold
	}
	if ov.MaxChainLength != nil {
		c.MaxChainLength = *ov.MaxChainLength
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
