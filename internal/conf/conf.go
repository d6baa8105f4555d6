package conf

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration
type Config struct {
	// Lark configuration
	Lark LarkConfig

	// Classifier sidecar configuration
	Classifier ClassifierConfig

	// Confirmation provider configuration (optional)
	LLM LLMConfig

	// Store configuration
	Store StoreConfig

	// Reminder configuration
	Reminder ReminderConfig

	// Query API configuration
	API APIConfig

	// Prompts configuration (loaded from YAML)
	Prompts *PromptsConfig

	// Debug mode
	Debug bool
}

// LarkConfig contains Lark app credentials
type LarkConfig struct {
	AppID     string
	AppSecret string
}

// ClassifierConfig contains the local classifier sidecar settings
type ClassifierConfig struct {
	BaseURL   string
	Threshold float64
}

// LLMConfig contains the confirmation provider settings
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// StoreConfig contains persistence settings
type StoreConfig struct {
	DataDir string
}

// ReminderConfig contains scheduler settings
type ReminderConfig struct {
	SweepInterval time.Duration
}

// APIConfig contains the localhost query API settings
type APIConfig struct {
	Port int
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data/promise_keeper"
	}

	classifierURL := os.Getenv("CLASSIFIER_URL")
	if classifierURL == "" {
		classifierURL = "http://127.0.0.1:8901"
	}

	threshold := 0.86
	if val := os.Getenv("CLASSIFIER_THRESHOLD"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			threshold = parsed
		}
	}

	sweepInterval := 60 * time.Second
	if val := os.Getenv("REMINDER_SWEEP_SECONDS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			sweepInterval = time.Duration(parsed) * time.Second
		}
	}

	apiPort := 9877
	if val := os.Getenv("API_PORT"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			apiPort = parsed
		}
	}

	// Load prompts from YAML
	promptsConfig, _ := LoadPromptsConfig(os.Getenv("PROMPTS_CONFIG_PATH"))

	return &Config{
		Lark: LarkConfig{
			AppID:     os.Getenv("LARK_APP_ID"),
			AppSecret: os.Getenv("LARK_APP_SECRET"),
		},
		Classifier: ClassifierConfig{
			BaseURL:   classifierURL,
			Threshold: threshold,
		},
		LLM: LLMConfig{
			BaseURL: os.Getenv("LLM_BASE_URL"),
			APIKey:  os.Getenv("LLM_API_KEY"),
			Model:   os.Getenv("LLM_MODEL"),
		},
		Store: StoreConfig{
			DataDir: dataDir,
		},
		Reminder: ReminderConfig{
			SweepInterval: sweepInterval,
		},
		API: APIConfig{
			Port: apiPort,
		},
		Prompts: promptsConfig,
		Debug:   os.Getenv("DEBUG") == "true",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Lark.AppID == "" {
		return &ConfigError{Field: "LARK_APP_ID", Message: "required"}
	}
	if c.Lark.AppSecret == "" {
		return &ConfigError{Field: "LARK_APP_SECRET", Message: "required"}
	}
	return nil
}
