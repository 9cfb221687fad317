package admission

import (
	"time"

	"github.com/ashgrove/parley/internal/logger"
	"github.com/ashgrove/parley/internal/session"
)

// Controller gates completion attempts behind a per-user cooldown. The
// cooldown state itself lives in the session store; the controller only
// decides and schedules.
type Controller struct {
	sessions *session.Store
}

func NewController(sessions *session.Store) *Controller {
	return &Controller{sessions: sessions}
}

// TryAdmit reports whether the user may start a new completion attempt.
// Admission never arms the cooldown; that happens only after a
// successful exchange, via Arm.
func (c *Controller) TryAdmit(userID string) (bool, error) {
	active, err := c.sessions.CooldownActive(userID, time.Now())
	if err != nil {
		return false, err
	}

	return !active, nil
}

// Arm starts a cooldown window of duration d and schedules the reset
// that clears the deadline once the window elapses. The reset is purely
// time based: later admits neither cancel nor extend it.
func (c *Controller) Arm(userID string, d time.Duration) error {
	if err := c.sessions.SetCooldown(userID, time.Now().Add(d)); err != nil {
		return err
	}

	time.AfterFunc(d, func() {
		if err := c.sessions.ClearCooldown(userID); err != nil {
			logger.Error("cooldown reset failed", "user", userID, "error", err)
		}
	})

	return nil
}
