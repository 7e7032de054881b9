// Package config provides configuration management for the Moneybird Slack bot.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Moneybird MoneybirdConfig
	Slack     SlackConfig
	Anthropic AnthropicConfig
	Server    ServerConfig
	Worker    WorkerConfig

	// AccountHintsPath points at an optional YAML chart-of-accounts file
	// used to steer journal entry suggestions. Empty disables hints.
	AccountHintsPath string
}

// MoneybirdConfig represents Moneybird API configuration.
type MoneybirdConfig struct {
	Token            string
	AdministrationID string
	APIURL           string
}

// SlackConfig represents Slack API configuration.
type SlackConfig struct {
	BotToken      string
	ChannelID     string
	SigningSecret string
}

// AnthropicConfig represents Anthropic API configuration.
type AnthropicConfig struct {
	APIKey string
	APIURL string
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Port string
}

// WorkerConfig represents background worker pool configuration.
type WorkerConfig struct {
	Count     int
	QueueSize int
}

// Load loads configuration from environment variables.
// It automatically loads a .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	workerCount, err := parseIntEnv("WORKER_COUNT", 4)
	if err != nil {
		return nil, err
	}

	queueSize, err := parseIntEnv("WORKER_QUEUE_SIZE", 64)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Moneybird: MoneybirdConfig{
			Token:            os.Getenv("MONEYBIRD_TOKEN"),
			AdministrationID: os.Getenv("MONEYBIRD_ADMINISTRATION_ID"),
			APIURL:           getEnvOrDefault("MONEYBIRD_API_URL", "https://moneybird.com/api/v2"),
		},
		Slack: SlackConfig{
			BotToken:      os.Getenv("SLACK_BOT_TOKEN"),
			ChannelID:     os.Getenv("SLACK_CHANNEL_ID"),
			SigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
		},
		Anthropic: AnthropicConfig{
			APIKey: os.Getenv("ANTHROPIC_API_KEY"),
			APIURL: getEnvOrDefault("ANTHROPIC_API_URL", "https://api.anthropic.com"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "5000"),
		},
		Worker: WorkerConfig{
			Count:     workerCount,
			QueueSize: queueSize,
		},
		AccountHintsPath: os.Getenv("ACCOUNT_HINTS_PATH"),
	}

	return config, nil
}

// Validate checks that all required configuration values are set.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"MONEYBIRD_TOKEN", c.Moneybird.Token},
		{"MONEYBIRD_ADMINISTRATION_ID", c.Moneybird.AdministrationID},
		{"SLACK_BOT_TOKEN", c.Slack.BotToken},
		{"SLACK_CHANNEL_ID", c.Slack.ChannelID},
		{"SLACK_SIGNING_SECRET", c.Slack.SigningSecret},
		{"ANTHROPIC_API_KEY", c.Anthropic.APIKey},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s\nPlease check your .env file or environment variables", strings.Join(missing, ", "))
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an int from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}

	return parsed, nil
}
