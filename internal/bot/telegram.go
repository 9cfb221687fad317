package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ashgrove/parley/internal/agent"
	"github.com/ashgrove/parley/internal/alerts"
	"github.com/ashgrove/parley/internal/llm"
	"github.com/ashgrove/parley/internal/logger"
	"github.com/ashgrove/parley/internal/router"
	"github.com/ashgrove/parley/internal/session"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegram struct {
	api   *tgbotapi.BotAPI
	agent *agent.Agent
	cfg   Config
}

func NewTelegram(cfg Config, model llm.LLM, sessions *session.Store, agentCfg agent.Config) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	t := &telegram{api: api, cfg: cfg}
	t.agent = agent.New(model, sessions, t, t.hasPermission, agentCfg)

	return t, nil
}

func (t *telegram) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			go t.handleMessage(ctx, update.Message)
		}
	}
}

func (t *telegram) SetAlerter(alerter *alerts.Alerter) {
	t.agent.SetAlerter(alerter)
}

func (t *telegram) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	channelID := strconv.FormatInt(msg.Chat.ID, 10)

	ev := router.Event{
		AuthorID:  fmt.Sprintf("telegram:%d", msg.From.ID),
		ChannelID: channelID,
		Text:      msg.Text,
		// a private chat is always a direct address
		MentionsAgent:  msg.Chat.IsPrivate() || strings.Contains(msg.Text, "@"+t.api.Self.UserName),
		IsReplyToAgent: msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil && msg.ReplyToMessage.From.ID == t.api.Self.ID,
		IsFromBot:      msg.From.IsBot,
	}

	if ev.IsFromBot {
		return
	}

	logger.Info("message received", "from", msg.From.UserName, "chat", channelID, "text", truncate(msg.Text, 50))

	out := t.agent.Handle(ctx, ev)
	deliver(t.Send, channelID, out)
}

func (t *telegram) Send(channelID, message string) error {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return fmt.Errorf("bad telegram channel id %q: %w", channelID, err)
	}

	msg := tgbotapi.NewMessage(chatID, message)
	if _, err := t.api.Send(msg); err != nil {
		logger.Error("telegram send failed", "error", err, "chatID", chatID)
		return err
	}

	logger.Info("telegram message sent", "chatID", chatID, "chars", len(message))
	return nil
}

func (t *telegram) SignalWorking(channelID string) {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return
	}

	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := t.api.Request(action); err != nil {
		logger.Debug("typing signal failed", "chatID", chatID, "error", err)
	}
}

// hasPermission restricts the bot to the configured chat, if one is set.
func (t *telegram) hasPermission(authorID, channelID string) bool {
	if t.cfg.AllowedChatID == 0 {
		return true
	}

	return channelID == strconv.FormatInt(t.cfg.AllowedChatID, 10)
}
