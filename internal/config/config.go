package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultMaxHistory        = 5
	defaultCooldown          = 2 * time.Second
	defaultCompletionTimeout = 120 * time.Second
)

// Load builds the config in three layers: defaults, then an optional
// YAML file (PARLEY_CONFIG), then environment variables. Secrets come
// from the environment only.
func Load() (*Config, error) {
	cfg := &Config{
		SystemPromptPath: "system_message.txt",
		LLM:              LLMConfig{Provider: "claude"},
		Agent: AgentConfig{
			MaxHistory:        defaultMaxHistory,
			Cooldown:          defaultCooldown,
			CompletionTimeout: defaultCompletionTimeout,
		},
	}

	if path := os.Getenv("PARLEY_CONFIG"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	apiKey, err := getAPIKey(cfg.LLM.Provider)
	if err != nil {
		return nil, err
	}
	cfg.LLM.APIKey = apiKey

	telegramToken := os.Getenv("TELEGRAM_TOKEN")
	discordToken := os.Getenv("DISCORD_TOKEN")

	cfg.Bots.Telegram = BotInstance{Enabled: telegramToken != "", Token: telegramToken}
	cfg.Bots.Discord = BotInstance{Enabled: discordToken != "", Token: discordToken}

	return cfg, nil
}

type fileConfig struct {
	SystemPrompt string `yaml:"system_prompt"`
	LLM          struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		BaseURL  string `yaml:"base_url"`
	} `yaml:"llm"`
	Agent struct {
		MaxHistory      int `yaml:"max_history"`
		CooldownSeconds int `yaml:"cooldown_seconds"`
		TimeoutSeconds  int `yaml:"completion_timeout_seconds"`
	} `yaml:"agent"`
	Bots struct {
		MinRoleID     string `yaml:"min_role_id"`
		AllowedChatID int64  `yaml:"allowed_chat_id"`
	} `yaml:"bots"`
	Heartbeat struct {
		Schedule  string `yaml:"schedule"`
		ChannelID string `yaml:"channel_id"`
	} `yaml:"heartbeat"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.SystemPrompt != "" {
		cfg.SystemPromptPath = fc.SystemPrompt
	}
	if fc.LLM.Provider != "" {
		cfg.LLM.Provider = fc.LLM.Provider
	}
	if fc.LLM.Model != "" {
		cfg.LLM.Model = fc.LLM.Model
	}
	if fc.LLM.BaseURL != "" {
		cfg.LLM.BaseURL = fc.LLM.BaseURL
	}
	if fc.Agent.MaxHistory > 0 {
		cfg.Agent.MaxHistory = fc.Agent.MaxHistory
	}
	if fc.Agent.CooldownSeconds > 0 {
		cfg.Agent.Cooldown = time.Duration(fc.Agent.CooldownSeconds) * time.Second
	}
	if fc.Agent.TimeoutSeconds > 0 {
		cfg.Agent.CompletionTimeout = time.Duration(fc.Agent.TimeoutSeconds) * time.Second
	}
	if fc.Bots.MinRoleID != "" {
		cfg.Bots.MinRoleID = fc.Bots.MinRoleID
	}
	if fc.Bots.AllowedChatID != 0 {
		cfg.Bots.AllowedChatID = fc.Bots.AllowedChatID
	}
	if fc.Heartbeat.Schedule != "" {
		cfg.Heartbeat.Schedule = fc.Heartbeat.Schedule
	}
	if fc.Heartbeat.ChannelID != "" {
		cfg.Heartbeat.ChannelID = fc.Heartbeat.ChannelID
	}

	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PARLEY_SYSTEM_PROMPT"); v != "" {
		cfg.SystemPromptPath = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if n, err := strconv.Atoi(os.Getenv("MAX_HISTORY")); err == nil && n > 0 {
		cfg.Agent.MaxHistory = n
	}
	if n, err := strconv.Atoi(os.Getenv("COOLDOWN_SECONDS")); err == nil && n > 0 {
		cfg.Agent.Cooldown = time.Duration(n) * time.Second
	}
	if n, err := strconv.Atoi(os.Getenv("COMPLETION_TIMEOUT_SECONDS")); err == nil && n > 0 {
		cfg.Agent.CompletionTimeout = time.Duration(n) * time.Second
	}
	if v := os.Getenv("DISCORD_ROLE_ID"); v != "" {
		cfg.Bots.MinRoleID = v
	}
	if id, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64); err == nil {
		cfg.Bots.AllowedChatID = id
	}
	if v := os.Getenv("HEARTBEAT_SCHEDULE"); v != "" {
		cfg.Heartbeat.Schedule = v
	}
	if v := os.Getenv("HEARTBEAT_CHANNEL_ID"); v != "" {
		cfg.Heartbeat.ChannelID = v
	}
}

func getAPIKey(provider string) (string, error) {
	envKey := os.Getenv("LLM_API_KEY")
	if envKey != "" {
		return envKey, nil
	}

	switch provider {
	case "claude":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		return key, nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return "", fmt.Errorf("OPENAI_API_KEY not set")
		}
		return key, nil
	case "kimi":
		key := os.Getenv("KIMI_API_KEY")
		if key == "" {
			return "", fmt.Errorf("KIMI_API_KEY not set")
		}
		return key, nil
	case "ollama":
		// Ollama doesn't need an API key
		return "ollama", nil
	default:
		// convention: {PROVIDER}_API_KEY (e.g., MISTRAL_API_KEY, GROQ_API_KEY)
		key := os.Getenv(strings.ToUpper(provider) + "_API_KEY")
		if key == "" {
			return "", fmt.Errorf("%s_API_KEY not set", strings.ToUpper(provider))
		}
		return key, nil
	}
}
