package session

import (
	"sync"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn is one message unit in a conversation, tagged with its speaker role.
type Turn struct {
	Role    string
	Content string
}

// Interaction records when and where a user's last exchange completed.
// The zero value means the user has never completed an exchange.
type Interaction struct {
	Timestamp time.Time
	ChannelID string
}

// Session is the per-user state bundle: bounded history, cooldown
// deadline, last-interaction marker. All fields are guarded by mu so
// concurrent events from the same user never race.
type Session struct {
	mu            sync.Mutex
	history       []Turn
	cooldownUntil time.Time
	last          Interaction
}

// Store keys sessions by user id. Sessions are created lazily on first
// access and live for the process lifetime; access to different users
// never contends beyond the map lookup.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	maxHistory int
}
