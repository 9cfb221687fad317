package llm

import "context"

type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// Message is one turn of the composed request, in chronological order.
type Message struct {
	Role    string
	Content string
}

// LLM is the completion service. Chat sends the system prompt followed
// by messages and returns the assistant's text. Latency is unbounded
// from the caller's perspective; callers impose timeouts via ctx.
type LLM interface {
	Chat(ctx context.Context, systemPrompt string, messages []Message) (string, error)
}
