package heartbeat

import (
	"fmt"
	"runtime"
	"time"

	"github.com/ashgrove/parley/internal/logger"
	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SessionCounter reports how many user sessions are live.
type SessionCounter interface {
	Len() int
}

// NotifyFunc delivers the status line to a chat channel.
type NotifyFunc func(channelID, text string)

// Reporter emits a periodic status report on a cron schedule: live
// session count, uptime, goroutines, host memory and CPU. The report
// always goes to the log; with a channel configured it is also sent
// to chat.
type Reporter struct {
	cron      *cron.Cron
	sessions  SessionCounter
	notify    NotifyFunc
	channelID string
	started   time.Time
}

func NewReporter(sessions SessionCounter, notify NotifyFunc, channelID string) *Reporter {
	return &Reporter{
		sessions:  sessions,
		notify:    notify,
		channelID: channelID,
		started:   time.Now(),
	}
}

// Start schedules reports on the given cron spec (standard five-field
// syntax) and runs until Stop.
func (r *Reporter) Start(spec string) error {
	c := cron.New()

	if _, err := c.AddFunc(spec, r.report); err != nil {
		return fmt.Errorf("bad heartbeat schedule %q: %w", spec, err)
	}

	c.Start()
	r.cron = c

	logger.Info("heartbeat scheduled", "spec", spec, "channel", r.channelID)
	return nil
}

func (r *Reporter) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

func (r *Reporter) report() {
	status := r.status()

	logger.Info("heartbeat",
		"sessions", status.Sessions,
		"uptime", status.Uptime,
		"goroutines", status.Goroutines,
		"mem_used_pct", fmt.Sprintf("%.1f", status.MemUsedPct),
		"cpu_pct", fmt.Sprintf("%.1f", status.CPUPct),
	)

	if r.notify != nil && r.channelID != "" {
		r.notify(r.channelID, status.String())
	}
}

type Status struct {
	Sessions   int
	Uptime     time.Duration
	Goroutines int
	MemUsedPct float64
	CPUPct     float64
}

func (s Status) String() string {
	return fmt.Sprintf("Still here. %d active sessions, up %s, %d goroutines, mem %.0f%%, cpu %.0f%%.",
		s.Sessions, s.Uptime, s.Goroutines, s.MemUsedPct, s.CPUPct)
}

func (r *Reporter) status() Status {
	status := Status{
		Sessions:   r.sessions.Len(),
		Uptime:     time.Since(r.started).Round(time.Second),
		Goroutines: runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		status.MemUsedPct = vm.UsedPercent
	}

	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		status.CPUPct = pcts[0]
	}

	return status
}
