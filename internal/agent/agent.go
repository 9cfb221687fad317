package agent

import (
	"context"
	"time"

	"github.com/ashgrove/parley/internal/admission"
	"github.com/ashgrove/parley/internal/alerts"
	"github.com/ashgrove/parley/internal/llm"
	"github.com/ashgrove/parley/internal/logger"
	"github.com/ashgrove/parley/internal/router"
	"github.com/ashgrove/parley/internal/session"
)

const (
	defaultCooldown          = 2 * time.Second
	defaultKeepAliveInterval = 5 * time.Second
	defaultCompletionTimeout = 120 * time.Second
)

// Agent orchestrates one conversation exchange per inbound event:
// routing, permission, admission, the completion call with its
// keep-alive signal, and the state commit.
type Agent struct {
	llm           llm.LLM
	sessions      *session.Store
	admission     *admission.Controller
	sink          Sink
	hasPermission PermissionFunc
	alerts        *alerts.Alerter

	systemPrompt      string
	cooldown          time.Duration
	keepAliveInterval time.Duration
	completionTimeout time.Duration
}

func New(model llm.LLM, sessions *session.Store, sink Sink, perm PermissionFunc, cfg Config) *Agent {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	if cfg.KeepAliveInterval <= 0 {
		cfg.KeepAliveInterval = defaultKeepAliveInterval
	}
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = defaultCompletionTimeout
	}

	return &Agent{
		llm:               model,
		sessions:          sessions,
		admission:         admission.NewController(sessions),
		sink:              sink,
		hasPermission:     perm,
		systemPrompt:      cfg.SystemPrompt,
		cooldown:          cfg.Cooldown,
		keepAliveInterval: cfg.KeepAliveInterval,
		completionTimeout: cfg.CompletionTimeout,
	}
}

// SetAlerter wires operator alerting for completion failures.
func (a *Agent) SetAlerter(alerter *alerts.Alerter) {
	a.alerts = alerter
}

// Handle processes one inbound event end to end. Suppressed and Failed
// outcomes leave the session untouched: history, cooldown and the
// last-interaction marker move only on the success path, so a failed
// attempt never costs the user their cooldown.
func (a *Agent) Handle(ctx context.Context, ev router.Event) Outcome {
	if ev.IsFromBot {
		return Outcome{Kind: OutcomeSuppressed, Reason: ReasonNotTargeted}
	}

	last, err := a.sessions.LastInteraction(ev.AuthorID)
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Err: err}
	}

	if !router.ShouldEngage(ev, last, time.Now()) {
		return Outcome{Kind: OutcomeSuppressed, Reason: ReasonNotTargeted}
	}

	if !a.hasPermission(ev.AuthorID, ev.ChannelID) {
		logger.Info("permission denied", "user", ev.AuthorID, "channel", ev.ChannelID)
		return Outcome{Kind: OutcomeSuppressed, Reason: ReasonNoPermission}
	}

	admitted, err := a.admission.TryAdmit(ev.AuthorID)
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Err: err}
	}
	if !admitted {
		logger.Debug("cooldown active", "user", ev.AuthorID)
		return Outcome{Kind: OutcomeSuppressed, Reason: ReasonCooldown}
	}

	messages, err := a.compose(ev)
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Err: err}
	}

	// keep-alive runs for exactly the duration of the completion call
	// and is cancelled on both exit paths
	keepAliveCtx, stopKeepAlive := context.WithCancel(ctx)
	go a.keepAlive(keepAliveCtx, ev.ChannelID)

	callCtx, cancel := context.WithTimeout(ctx, a.completionTimeout)
	reply, err := a.llm.Chat(callCtx, a.systemPrompt, messages)
	cancel()
	stopKeepAlive()

	if err != nil {
		logger.Error("completion failed", "user", ev.AuthorID, "error", err)
		if a.alerts != nil {
			a.alerts.Critical("llm", "completion request failed", err)
		}
		return Outcome{Kind: OutcomeFailed, Err: err}
	}

	if err := a.commit(ev, reply); err != nil {
		return Outcome{Kind: OutcomeFailed, Err: err}
	}

	logger.Info("exchange completed", "user", ev.AuthorID, "chars", len(reply))
	return Outcome{Kind: OutcomeReplied, Reply: reply}
}

// compose builds the completion request: stored history in order, then
// the new user turn. The system prompt travels separately and the
// completion client places it first.
func (a *Agent) compose(ev router.Event) ([]llm.Message, error) {
	history, err := a.sessions.History(ev.AuthorID)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	messages = append(messages, llm.Message{Role: session.RoleUser, Content: ev.Text})
	return messages, nil
}

// commit records a completed exchange: history append with eviction,
// cooldown arming, last-interaction update. Success path only.
func (a *Agent) commit(ev router.Event, reply string) error {
	if err := a.sessions.AppendExchange(ev.AuthorID, ev.Text, reply); err != nil {
		return err
	}

	if err := a.admission.Arm(ev.AuthorID, a.cooldown); err != nil {
		return err
	}

	return a.sessions.RecordInteraction(ev.AuthorID, time.Now(), ev.ChannelID)
}

// keepAlive signals the channel that work is in progress until ctx is
// cancelled. The first signal fires immediately so the user sees
// activity before the first tick.
func (a *Agent) keepAlive(ctx context.Context, channelID string) {
	a.sink.SignalWorking(channelID)

	ticker := time.NewTicker(a.keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sink.SignalWorking(channelID)
		}
	}
}
