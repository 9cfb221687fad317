package bot

import (
	"context"

	"github.com/ashgrove/parley/internal/agent"
	"github.com/ashgrove/parley/internal/alerts"
	"github.com/ashgrove/parley/internal/llm"
	"github.com/ashgrove/parley/internal/logger"
	"github.com/ashgrove/parley/internal/router"
	"github.com/ashgrove/parley/internal/session"
	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

type discord struct {
	session *discordgo.Session
	agent   *agent.Agent
	cfg     Config
	ctx     context.Context
}

// NewDiscord wires a Discord adapter around its own orchestrator: the
// adapter is the keep-alive sink (typing indicator) and the permission
// resolver (role rank) for the events it produces.
func NewDiscord(cfg Config, model llm.LLM, sessions *session.Store, agentCfg agent.Config) (Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}

	s.Identify.Intents |= discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	d := &discord{session: s, cfg: cfg}
	d.agent = agent.New(model, sessions, d, d.hasPermission, agentCfg)

	s.AddHandler(d.handleMessage)

	return d, nil
}

func (d *discord) Start(ctx context.Context) error {
	d.ctx = ctx

	if err := d.session.Open(); err != nil {
		return err
	}

	<-ctx.Done()
	return d.session.Close()
}

func (d *discord) SetAlerter(alerter *alerts.Alerter) {
	d.agent.SetAlerter(alerter)
}

func (d *discord) Send(channelID, message string) error {
	_, err := d.session.ChannelMessageSend(channelID, message)
	if err != nil {
		logger.Error("discord send failed", "error", err, "channelID", channelID)
	} else {
		logger.Info("discord message sent", "channelID", channelID, "chars", len(message))
	}
	return err
}

// SignalWorking shows the typing indicator. Best effort; Discord keeps
// it visible for roughly ten seconds per trigger.
func (d *discord) SignalWorking(channelID string) {
	if err := d.session.ChannelTyping(channelID); err != nil {
		logger.Debug("typing signal failed", "channelID", channelID, "error", err)
	}
}

// handleMessage runs once per inbound message; discordgo dispatches
// each invocation on its own goroutine.
func (d *discord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.Bot {
		return
	}

	ev := router.Event{
		AuthorID:       "discord:" + m.Author.ID,
		ChannelID:      m.ChannelID,
		Text:           m.Content,
		MentionsAgent:  mentionsUser(m.Mentions, s.State.User.ID),
		IsReplyToAgent: isReplyTo(m.ReferencedMessage, s.State.User.ID),
	}

	trace := uuid.New().String()[:8]
	logger.Info("message received", "trace", trace, "from", m.Author.Username, "channel", m.ChannelID, "text", truncate(m.Content, 50))

	out := d.agent.Handle(d.ctx, ev)
	deliver(d.Send, m.ChannelID, out)

	logger.Debug("message handled", "trace", trace, "outcome", out.Kind.String())
}

// hasPermission implements the role-rank check: the author needs the
// configured role or any role positioned above it in the guild.
func (d *discord) hasPermission(authorID, channelID string) bool {
	if d.cfg.MinRoleID == "" {
		return true
	}

	channel, err := d.session.State.Channel(channelID)
	if err != nil {
		if channel, err = d.session.Channel(channelID); err != nil {
			logger.Warn("channel lookup failed", "channelID", channelID, "error", err)
			return false
		}
	}

	// strip the platform prefix added when the event was built
	rawID := authorID
	if len(rawID) > len("discord:") && rawID[:len("discord:")] == "discord:" {
		rawID = rawID[len("discord:"):]
	}

	member, err := d.session.State.Member(channel.GuildID, rawID)
	if err != nil {
		if member, err = d.session.GuildMember(channel.GuildID, rawID); err != nil {
			logger.Warn("member lookup failed", "user", rawID, "error", err)
			return false
		}
	}

	required, err := d.session.State.Role(channel.GuildID, d.cfg.MinRoleID)
	if err != nil {
		logger.Warn("required role not found", "roleID", d.cfg.MinRoleID, "error", err)
		return false
	}

	for _, roleID := range member.Roles {
		role, err := d.session.State.Role(channel.GuildID, roleID)
		if err != nil {
			continue
		}
		if role.Position >= required.Position {
			return true
		}
	}

	return false
}

func mentionsUser(mentions []*discordgo.User, userID string) bool {
	for _, u := range mentions {
		if u.ID == userID {
			return true
		}
	}
	return false
}

func isReplyTo(ref *discordgo.Message, userID string) bool {
	return ref != nil && ref.Author != nil && ref.Author.ID == userID
}
