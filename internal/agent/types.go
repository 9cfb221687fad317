package agent

import "time"

// OutcomeKind classifies the result of handling one inbound event.
type OutcomeKind int

const (
	OutcomeReplied OutcomeKind = iota
	OutcomeSuppressed
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeReplied:
		return "replied"
	case OutcomeSuppressed:
		return "suppressed"
	default:
		return "failed"
	}
}

// SuppressReason says why an event produced no completion attempt.
type SuppressReason int

const (
	ReasonNone SuppressReason = iota
	ReasonNotTargeted
	ReasonNoPermission
	ReasonCooldown
)

// Outcome is what the platform adapter translates into zero or more
// channel sends: the segmented reply for Replied, user-visible notices
// for no-permission and cooldown suppressions, a failure notice for
// Failed. Not-targeted suppressions produce nothing.
type Outcome struct {
	Kind   OutcomeKind
	Reason SuppressReason
	Reply  string
	Err    error
}

// PermissionFunc resolves whether the author may interact with the
// agent. Platform adapters supply this; the orchestrator only consumes
// the verdict.
type PermissionFunc func(authorID, channelID string) bool

// Sink receives best-effort keep-alive signals while a completion call
// is outstanding.
type Sink interface {
	SignalWorking(channelID string)
}

type Config struct {
	SystemPrompt      string
	Cooldown          time.Duration
	KeepAliveInterval time.Duration
	CompletionTimeout time.Duration
}
