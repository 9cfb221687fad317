package bot

import (
	"context"

	"github.com/ashgrove/parley/internal/alerts"
)

// Bot is one chat platform adapter. Each adapter owns the translation
// between platform events and the orchestrator: it normalizes inbound
// messages, resolves permissions its platform's way, and turns
// outcomes into channel sends.
type Bot interface {
	Start(ctx context.Context) error
	Send(channelID, message string) error
	SignalWorking(channelID string)
	SetAlerter(alerter *alerts.Alerter)
}

type Config struct {
	Provider string
	Token    string

	// Discord: users need this role, or any role ranked above it
	MinRoleID string

	// Telegram: restrict to this chat; 0 allows all chats
	AllowedChatID int64
}
