// Package config resolves service settings from defaults, an optional YAML
// file, a .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "factfind.yaml"

type Config struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	StoreDriver string        `yaml:"store_driver"`
	DatabaseURL string        `yaml:"database_url"`
	SQLitePath  string        `yaml:"sqlite_path"`
	CacheSize   int           `yaml:"cache_size"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`

	NatsURL   string `yaml:"nats_url"`
	NatsToken string `yaml:"nats_token"`

	LLMProvider         string        `yaml:"llm_provider"`
	AnthropicAPIKey     string        `yaml:"anthropic_api_key"`
	AnthropicModel      string        `yaml:"anthropic_model"`
	GeminiAPIKey        string        `yaml:"gemini_api_key"`
	GeminiModel         string        `yaml:"gemini_model"`
	ExtractionMaxTokens int           `yaml:"extraction_max_tokens"`
	ExtractionTimeout   time.Duration `yaml:"extraction_timeout"`

	ElevenLabsAPIKey        string `yaml:"xi_api_key"`
	ElevenLabsAgentID       string `yaml:"elevenlabs_agent_id"`
	ElevenLabsPhoneNumberID string `yaml:"elevenlabs_phone_number_id"`
	WebhookSecret           string `yaml:"elevenlabs_webhook_secret"`

	SlackBotToken string `yaml:"slack_bot_token"`
	SlackChannel  string `yaml:"slack_profiles_channel"`
}

func defaults() Config {
	return Config{
		Port:                    8760,
		LogLevel:                "info",
		StoreDriver:             "sqlite",
		SQLitePath:              "factfind.db",
		CacheSize:               512,
		CacheTTL:                30 * time.Second,
		LLMProvider:             "anthropic",
		AnthropicModel:          "claude-sonnet-4-20250514",
		GeminiModel:             "gemini-2.5-flash",
		ExtractionMaxTokens:     4096,
		ExtractionTimeout:       90 * time.Second,
		ElevenLabsAgentID:       "agent_4901kfrz4hkwf5hbz134xv9j0jc8",
		ElevenLabsPhoneNumberID: "phnum_2501kfsbbhfcfvjag6vytc7j2d98",
	}
}

// Load builds the configuration. A .env file never overrides variables that
// are already set. The YAML file named by FACTFIND_CONFIG must exist; the
// default factfind.yaml is optional.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	path := os.Getenv("FACTFIND_CONFIG")
	required := path != ""
	if !required {
		path = defaultConfigFile
	}
	if err := loadFile(path, required, &cfg); err != nil {
		return cfg, err
	}

	cfg.Port = envInt("FACTFIND_PORT", cfg.Port)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	cfg.StoreDriver = envStr("STORE_DRIVER", cfg.StoreDriver)
	cfg.DatabaseURL = envStr("DATABASE_URL", cfg.DatabaseURL)
	cfg.SQLitePath = envStr("SQLITE_PATH", cfg.SQLitePath)
	cfg.CacheSize = envInt("CACHE_SIZE", cfg.CacheSize)
	cfg.CacheTTL = envDuration("CACHE_TTL", cfg.CacheTTL)
	cfg.NatsURL = envStr("NATS_URL", cfg.NatsURL)
	cfg.NatsToken = envStr("NATS_TOKEN", cfg.NatsToken)
	cfg.LLMProvider = envStr("LLM_PROVIDER", cfg.LLMProvider)
	cfg.AnthropicAPIKey = envStr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.AnthropicModel = envStr("ANTHROPIC_MODEL", cfg.AnthropicModel)
	cfg.GeminiAPIKey = envStr("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = envStr("GEMINI_MODEL", cfg.GeminiModel)
	cfg.ExtractionMaxTokens = envInt("EXTRACTION_MAX_TOKENS", cfg.ExtractionMaxTokens)
	cfg.ExtractionTimeout = envDuration("EXTRACTION_TIMEOUT", cfg.ExtractionTimeout)
	cfg.ElevenLabsAPIKey = envStr("XI_API_KEY", cfg.ElevenLabsAPIKey)
	cfg.ElevenLabsAgentID = envStr("ELEVENLABS_AGENT_ID", cfg.ElevenLabsAgentID)
	cfg.ElevenLabsPhoneNumberID = envStr("ELEVENLABS_PHONE_NUMBER_ID", cfg.ElevenLabsPhoneNumberID)
	cfg.WebhookSecret = envStr("ELEVENLABS_WEBHOOK_SECRET", cfg.WebhookSecret)
	cfg.SlackBotToken = envStr("SLACK_BOT_TOKEN", cfg.SlackBotToken)
	cfg.SlackChannel = envStr("SLACK_PROFILES_CHANNEL", cfg.SlackChannel)

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("config: STORE_DRIVER=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.LLMProvider {
	case "anthropic", "gemini":
	default:
		return fmt.Errorf("config: unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	return nil
}

// LLMAPIKey returns the key for the selected provider.
func (c Config) LLMAPIKey() string {
	if c.LLMProvider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.AnthropicAPIKey
}

func loadFile(path string, required bool, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
