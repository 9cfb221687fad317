package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/ashgrove/parley/internal/logger"
)

type Severity int

const (
	SeverityWarn Severity = iota
	SeverityCritical
)

type NotifyFunc func(message string)

// Alerter forwards operator-facing problems to a chat channel, with a
// per-message cooldown so a flapping failure doesn't flood the channel.
type Alerter struct {
	mu       sync.Mutex
	notify   NotifyFunc
	lastSent map[string]time.Time
	cooldown time.Duration
}

func New(notify NotifyFunc, cooldown time.Duration) *Alerter {
	return &Alerter{
		notify:   notify,
		lastSent: make(map[string]time.Time),
		cooldown: cooldown,
	}
}

func (a *Alerter) Alert(severity Severity, component, message string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := component + ":" + message

	if sent, ok := a.lastSent[key]; ok && time.Since(sent) < a.cooldown {
		logger.Debug("alert suppressed (cooldown)", "component", component, "message", message)
		return
	}

	var text string
	switch severity {
	case SeverityCritical:
		text = fmt.Sprintf("🚨 %s: %s", component, message)
	default:
		text = fmt.Sprintf("⚠️ %s: %s", component, message)
	}

	if err != nil {
		text += fmt.Sprintf("\n\nError: %v", err)
	}

	if a.notify != nil {
		a.notify(text)
		a.lastSent[key] = time.Now()
		logger.Info("alert sent", "component", component, "severity", severity)
	}
}

func (a *Alerter) Critical(component, message string, err error) {
	a.Alert(SeverityCritical, component, message, err)
}

func (a *Alerter) Warn(component, message string, err error) {
	a.Alert(SeverityWarn, component, message, err)
}
