package bot

import (
	"github.com/ashgrove/parley/internal/agent"
	"github.com/ashgrove/parley/internal/logger"
	"github.com/ashgrove/parley/internal/segment"
)

// chunkLimit is the per-message character limit shared by both
// platforms (Discord's is exactly this; Telegram's is higher).
const chunkLimit = 2000

const (
	noPermissionNotice = "Sorry, you don't have permission to interact with me!"
	cooldownNotice     = "Please wait a bit before chatting again!"
	failureNotice      = "Something went wrong. Please try again."
)

type sendFunc func(channelID, message string) error

// deliver translates an orchestrator outcome into zero or more channel
// sends: the segmented reply, a user-visible notice, or nothing for
// not-targeted events.
func deliver(send sendFunc, channelID string, out agent.Outcome) {
	switch out.Kind {
	case agent.OutcomeReplied:
		for _, chunk := range segment.Split(out.Reply, chunkLimit) {
			if err := send(channelID, chunk); err != nil {
				logger.Error("send failed", "channel", channelID, "error", err)
				return
			}
		}
	case agent.OutcomeSuppressed:
		switch out.Reason {
		case agent.ReasonNoPermission:
			if err := send(channelID, noPermissionNotice); err != nil {
				logger.Error("notice send failed", "channel", channelID, "error", err)
			}
		case agent.ReasonCooldown:
			if err := send(channelID, cooldownNotice); err != nil {
				logger.Error("notice send failed", "channel", channelID, "error", err)
			}
		}
	case agent.OutcomeFailed:
		logger.Error("exchange failed", "channel", channelID, "error", out.Err)
		if err := send(channelID, failureNotice); err != nil {
			logger.Error("notice send failed", "channel", channelID, "error", err)
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max] + "..."
}
