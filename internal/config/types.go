package config

import "time"

type Config struct {
	SystemPromptPath string
	LLM              LLMConfig
	Bots             MultiBot
	Agent            AgentConfig
	Heartbeat        HeartbeatConfig
}

type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

type MultiBot struct {
	Telegram BotInstance
	Discord  BotInstance

	// Discord: role required to interact (this role or any ranked above)
	MinRoleID string

	// Telegram: restrict to this chat ID; 0 allows all
	AllowedChatID int64
}

type BotInstance struct {
	Enabled bool
	Token   string
}

type AgentConfig struct {
	MaxHistory        int
	Cooldown          time.Duration
	CompletionTimeout time.Duration
}

type HeartbeatConfig struct {
	Schedule  string
	ChannelID string
}
