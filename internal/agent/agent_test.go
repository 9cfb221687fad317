package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ashgrove/parley/internal/llm"
	"github.com/ashgrove/parley/internal/router"
	"github.com/ashgrove/parley/internal/session"
)

type llmCall struct {
	system   string
	messages []llm.Message
}

// fakeLLM records every call and answers "r1", "r2", ... in order.
type fakeLLM struct {
	mu    sync.Mutex
	delay time.Duration
	err   error
	calls []llmCall
}

func (f *fakeLLM) Chat(ctx context.Context, systemPrompt string, messages []llm.Message) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, llmCall{system: systemPrompt, messages: messages})
	n := len(f.calls)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if f.err != nil {
		return "", f.err
	}

	return fmt.Sprintf("r%d", n), nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeLLM) call(i int) llmCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

type fakeSink struct {
	mu      sync.Mutex
	signals []string
}

func (f *fakeSink) SignalWorking(channelID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, channelID)
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.signals)
}

func allowAll(string, string) bool { return true }

func newTestAgent(model llm.LLM, perm PermissionFunc, cfg Config) (*Agent, *session.Store, *fakeSink) {
	sessions := session.NewStore(5)
	sink := &fakeSink{}
	if cfg.KeepAliveInterval == 0 {
		cfg.KeepAliveInterval = 20 * time.Millisecond
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = 60 * time.Millisecond
	}
	return New(model, sessions, sink, perm, cfg), sessions, sink
}

func mention(text string) router.Event {
	return router.Event{AuthorID: "u1", ChannelID: "c1", Text: text, MentionsAgent: true}
}

func TestHandleNotTargeted(t *testing.T) {
	model := &fakeLLM{}
	ag, _, _ := newTestAgent(model, allowAll, Config{})

	out := ag.Handle(context.Background(), router.Event{AuthorID: "u1", ChannelID: "c1", Text: "hello"})

	if out.Kind != OutcomeSuppressed || out.Reason != ReasonNotTargeted {
		t.Fatalf("expected not-targeted suppression, got %+v", out)
	}

	if model.callCount() != 0 {
		t.Error("unengaged event must not reach the completion service")
	}
}

func TestHandleBotEventIgnored(t *testing.T) {
	model := &fakeLLM{}
	ag, _, _ := newTestAgent(model, allowAll, Config{})

	ev := mention("hi")
	ev.IsFromBot = true

	out := ag.Handle(context.Background(), ev)
	if out.Kind != OutcomeSuppressed || out.Reason != ReasonNotTargeted {
		t.Fatalf("bot-authored event must be suppressed, got %+v", out)
	}

	if model.callCount() != 0 {
		t.Error("bot-authored event must not reach the completion service")
	}
}

func TestHandleNoPermission(t *testing.T) {
	model := &fakeLLM{}
	denyAll := func(string, string) bool { return false }
	ag, sessions, _ := newTestAgent(model, denyAll, Config{})

	out := ag.Handle(context.Background(), mention("hi"))
	if out.Kind != OutcomeSuppressed || out.Reason != ReasonNoPermission {
		t.Fatalf("expected no-permission suppression, got %+v", out)
	}

	if model.callCount() != 0 {
		t.Error("denied event must not reach the completion service")
	}

	history, _ := sessions.History("u1")
	if len(history) != 0 {
		t.Error("denied event must not mutate history")
	}
}

func TestHandleRepliedThenCooldown(t *testing.T) {
	model := &fakeLLM{}
	ag, sessions, _ := newTestAgent(model, allowAll, Config{Cooldown: 80 * time.Millisecond})

	out := ag.Handle(context.Background(), mention("hi"))
	if out.Kind != OutcomeReplied || out.Reply != "r1" {
		t.Fatalf("expected Replied r1, got %+v", out)
	}

	history, _ := sessions.History("u1")
	if len(history) != 2 || history[0].Content != "hi" || history[1].Content != "r1" {
		t.Fatalf("history after first exchange: %+v", history)
	}

	// immediate second event, even with a mention, is rejected for cooldown
	out = ag.Handle(context.Background(), mention("again"))
	if out.Kind != OutcomeSuppressed || out.Reason != ReasonCooldown {
		t.Fatalf("expected cooldown suppression, got %+v", out)
	}

	if model.callCount() != 1 {
		t.Error("cooldown-rejected event must not reach the completion service")
	}

	time.Sleep(120 * time.Millisecond)

	// after the cooldown elapses, a plain same-channel follow-up is
	// engaged via the recency rule, no mention needed
	out = ag.Handle(context.Background(), router.Event{AuthorID: "u1", ChannelID: "c1", Text: "still there?"})
	if out.Kind != OutcomeReplied {
		t.Fatalf("expected recency re-engagement, got %+v", out)
	}

	history, _ = sessions.History("u1")
	if len(history) != 4 {
		t.Fatalf("expected 4 turns after two exchanges, got %d", len(history))
	}
}

func TestHandleFailureLeavesStateUntouched(t *testing.T) {
	model := &fakeLLM{err: errors.New("upstream exploded")}
	ag, sessions, _ := newTestAgent(model, allowAll, Config{})

	out := ag.Handle(context.Background(), mention("hi"))
	if out.Kind != OutcomeFailed || out.Err == nil {
		t.Fatalf("expected Failed, got %+v", out)
	}

	history, _ := sessions.History("u1")
	if len(history) != 0 {
		t.Error("failed exchange must not mutate history")
	}

	last, _ := sessions.LastInteraction("u1")
	if !last.Timestamp.IsZero() {
		t.Error("failed exchange must not update last interaction")
	}

	// the failure must not have armed a cooldown: an immediate retry
	// reaches the completion service again instead of being rejected
	out = ag.Handle(context.Background(), mention("retry"))
	if out.Kind == OutcomeSuppressed {
		t.Fatalf("retry after failure should not be suppressed, got %+v", out)
	}

	if model.callCount() != 2 {
		t.Errorf("expected 2 completion attempts, got %d", model.callCount())
	}
}

func TestComposedRequestOrdering(t *testing.T) {
	model := &fakeLLM{}
	ag, _, _ := newTestAgent(model, allowAll, Config{
		SystemPrompt: "you are parley",
		Cooldown:     time.Millisecond,
	})

	for i := 1; i <= 3; i++ {
		out := ag.Handle(context.Background(), mention(fmt.Sprintf("q%d", i)))
		if out.Kind != OutcomeReplied {
			t.Fatalf("exchange %d: %+v", i, out)
		}
		time.Sleep(5 * time.Millisecond)
	}

	third := model.call(2)
	if third.system != "you are parley" {
		t.Errorf("system prompt not passed through: %q", third.system)
	}

	want := []llm.Message{
		{Role: "user", Content: "q1"},
		{Role: "assistant", Content: "r1"},
		{Role: "user", Content: "q2"},
		{Role: "assistant", Content: "r2"},
		{Role: "user", Content: "q3"},
	}
	if len(third.messages) != len(want) {
		t.Fatalf("expected %d messages, got %d: %+v", len(want), len(third.messages), third.messages)
	}
	for i, msg := range want {
		if third.messages[i] != msg {
			t.Errorf("message %d: got %+v, want %+v", i, third.messages[i], msg)
		}
	}
}

func TestKeepAliveRunsOnlyDuringCall(t *testing.T) {
	model := &fakeLLM{delay: 110 * time.Millisecond}
	ag, _, sink := newTestAgent(model, allowAll, Config{KeepAliveInterval: 25 * time.Millisecond})

	out := ag.Handle(context.Background(), mention("slow one"))
	if out.Kind != OutcomeReplied {
		t.Fatalf("expected Replied, got %+v", out)
	}

	// let any tick already in flight land before sampling
	time.Sleep(30 * time.Millisecond)

	// immediate signal plus ticks during the 110ms call
	got := sink.count()
	if got < 3 {
		t.Errorf("expected at least 3 keep-alive signals, got %d", got)
	}

	// the keep-alive loop must be cancelled, not left running
	time.Sleep(80 * time.Millisecond)
	if after := sink.count(); after != got {
		t.Errorf("keep-alive leaked: %d signals grew to %d after completion", got, after)
	}
}

func TestKeepAliveCancelledOnFailure(t *testing.T) {
	model := &fakeLLM{delay: 50 * time.Millisecond, err: errors.New("boom")}
	ag, _, sink := newTestAgent(model, allowAll, Config{KeepAliveInterval: 10 * time.Millisecond})

	out := ag.Handle(context.Background(), mention("hi"))
	if out.Kind != OutcomeFailed {
		t.Fatalf("expected Failed, got %+v", out)
	}

	time.Sleep(30 * time.Millisecond)

	got := sink.count()
	time.Sleep(60 * time.Millisecond)
	if after := sink.count(); after != got {
		t.Errorf("keep-alive leaked after failure: %d grew to %d", got, after)
	}
}

func TestCompletionTimeout(t *testing.T) {
	model := &fakeLLM{delay: time.Second}
	ag, _, _ := newTestAgent(model, allowAll, Config{CompletionTimeout: 50 * time.Millisecond})

	start := time.Now()
	out := ag.Handle(context.Background(), mention("hi"))
	if out.Kind != OutcomeFailed {
		t.Fatalf("expected Failed on timeout, got %+v", out)
	}

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
}
