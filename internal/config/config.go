package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultMaxPatchLength = 1500

type Config struct {
	Server  ServerConfig
	OpenAI  OpenAIConfig
	GitHub  GitHubConfig
	Review  ReviewConfig
	Manual  ManualConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

// TLSEnabled reports whether both certificate and key are configured
func (s ServerConfig) TLSEnabled() bool {
	return s.TLSCertFile != "" && s.TLSKeyFile != ""
}

type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	TopP        float64
	Timeout     time.Duration
	MaxRetries  int
}

// Enabled reports whether a provider credential is present. Without one the
// reviewer short-circuits every event.
func (o OpenAIConfig) Enabled() bool {
	return o.APIKey != ""
}

type GitHubConfig struct {
	Token         string
	WebhookSecret string
	BaseURL       string
}

type ReviewConfig struct {
	IncludePatterns []string
	IgnorePatterns  []string
	MaxPatchLength  int
	Timeout         time.Duration
	RulesFile       string
}

type ManualConfig struct {
	Token string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnvWithDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvWithDefault("SERVER_PORT", "3000"),
			ReadTimeout:  getDurationFromEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationFromEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			TLSCertFile:  os.Getenv("TLS_CERT_FILE"),
			TLSKeyFile:   os.Getenv("TLS_KEY_FILE"),
		},
		OpenAI: OpenAIConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			Model:       getEnvWithDefault("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:     getEnvWithDefault("OPENAI_BASE_URL", "https://api.openai.com"),
			MaxTokens:   getIntFromEnv("OPENAI_MAX_TOKENS", 1500),
			Temperature: getFloatFromEnv("OPENAI_TEMPERATURE", 0.5),
			TopP:        getFloatFromEnv("OPENAI_TOP_P", 0.3),
			Timeout:     getDurationFromEnv("OPENAI_TIMEOUT", 60*time.Second),
			MaxRetries:  getIntFromEnv("OPENAI_MAX_RETRIES", 2),
		},
		GitHub: GitHubConfig{
			Token:         os.Getenv("GITHUB_TOKEN"),
			WebhookSecret: os.Getenv("GITHUB_WEBHOOK_SECRET"),
			BaseURL:       os.Getenv("GITHUB_BASE_URL"),
		},
		Review: ReviewConfig{
			IncludePatterns: getListFromEnv("INCLUDE_PATTERNS"),
			IgnorePatterns:  getListFromEnv("IGNORE_PATTERNS"),
			MaxPatchLength:  getIntFromEnv("MAX_PATCH_LENGTH", DefaultMaxPatchLength),
			Timeout:         getDurationFromEnv("REVIEW_TIMEOUT", 5*time.Minute),
			RulesFile:       os.Getenv("REVIEW_RULES_FILE"),
		},
		Manual: ManualConfig{
			Token: os.Getenv("MANUAL_REVIEW_TOKEN"),
		},
		Logging: LoggingConfig{
			Level:  getEnvWithDefault("LOG_LEVEL", "info"),
			Format: getEnvWithDefault("LOG_FORMAT", "json"),
		},
	}

	if cfg.Review.RulesFile != "" {
		rules, err := LoadRulesFile(cfg.Review.RulesFile)
		if err != nil {
			return nil, err
		}
		rules.applyTo(&cfg.Review)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges that the env helpers cannot enforce
func (c *Config) Validate() error {
	if c.Review.MaxPatchLength <= 0 {
		return fmt.Errorf("MAX_PATCH_LENGTH must be positive, got %d", c.Review.MaxPatchLength)
	}
	if c.Review.Timeout <= 0 {
		return fmt.Errorf("REVIEW_TIMEOUT must be positive, got %s", c.Review.Timeout)
	}
	if c.OpenAI.MaxTokens <= 0 {
		return fmt.Errorf("OPENAI_MAX_TOKENS must be positive, got %d", c.OpenAI.MaxTokens)
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		return fmt.Errorf("OPENAI_TEMPERATURE must be within [0, 2], got %v", c.OpenAI.Temperature)
	}
	if c.OpenAI.TopP < 0 || c.OpenAI.TopP > 1 {
		return fmt.Errorf("OPENAI_TOP_P must be within [0, 1], got %v", c.OpenAI.TopP)
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		return fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntFromEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatFromEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getDurationFromEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getListFromEnv splits a comma-separated variable, dropping blank entries.
// Entries are otherwise kept verbatim since patterns may contain spaces.
func getListFromEnv(key string) []string {
	return SplitList(os.Getenv(key))
}

// SplitList splits a comma-separated list, dropping blank entries
func SplitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}
