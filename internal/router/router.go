package router

import (
	"time"

	"github.com/ashgrove/parley/internal/session"
)

// RecencyWindow is how long after a completed exchange a follow-up in
// the same channel still counts as part of the conversation.
const RecencyWindow = 120 * time.Second

// Event is one inbound platform message, normalized for routing.
// Bot-authored events (IsFromBot) must be filtered out before routing.
type Event struct {
	AuthorID       string
	ChannelID      string
	Text           string
	MentionsAgent  bool
	IsReplyToAgent bool
	IsFromBot      bool
}

// ShouldEngage reports whether ev warrants a reply: a direct mention, a
// reply to one of the agent's messages, or a follow-up in the channel of
// the author's last completed exchange within RecencyWindow. Pure; no
// state is touched.
func ShouldEngage(ev Event, last session.Interaction, now time.Time) bool {
	if ev.MentionsAgent || ev.IsReplyToAgent {
		return true
	}

	if last.Timestamp.IsZero() {
		return false
	}

	return now.Sub(last.Timestamp) <= RecencyWindow && last.ChannelID == ev.ChannelID
}
