package stats

import (
	"fmt"
	"sync"
	"time"

	c "github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/logger"
)

type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepDone
	StepFailed
	StepSkipped
)

func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepDone:
		return "done"
	case StepFailed:
		return "failed"
	case StepSkipped:
		return "skipped"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

func (s StepStatus) emoji() string {
	switch s {
	case StepRunning:
		return "\U0000231B" // hour glass
	case StepDone:
		return c.EmojiTick
	case StepFailed:
		return c.EmojiBang
	case StepSkipped:
		return "\U000023ED" // skip
	}
	return "\U0001F552" // clock
}

// StepWatcher records the lifecycle of a single pipeline step.
// The step calls StartWatching() and StopWatching() around its work.
type StepWatcher struct {
	mu        sync.RWMutex
	log       logger.Logger
	stepName  string
	status    StepStatus
	startTime time.Time
	endTime   time.Time
	err       error
}

type Stats struct {
	StepName       string `json:"stepName"`
	StatusText     string `json:"statusText"`
	StatusEmoji    string `json:"statusEmoji"`
	ElapsedTimeSec int    `json:"elapsedTimeSec"`
	Error          string `json:"error,omitempty"`
}

func NewStepWatcher(log logger.Logger, stepName string) *StepWatcher {
	return &StepWatcher{log: log, stepName: stepName, status: StepPending}
}

func (n *StepWatcher) StartWatching() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.startTime = time.Now()
	n.endTime = time.Time{}
	n.err = nil
	n.status = StepRunning
	n.log.Debug("STATS: ", n.stepName, " started")
}

// StopWatching marks the step done, or failed when err is not nil.
func (n *StepWatcher) StopWatching(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.endTime = time.Now()
	if err != nil {
		n.status = StepFailed
		n.err = err
	} else {
		n.status = StepDone
	}
	n.log.Debug("STATS: ", n.stepName, " ", n.status, " after ", n.endTime.Sub(n.startTime).Truncate(time.Millisecond))
}

// Skip marks a step that never started.
func (n *StepWatcher) Skip() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.status == StepPending {
		n.status = StepSkipped
	}
}

func (n *StepWatcher) GetStatus() StepStatus {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.status
}

// RenderStats gets a struct filled with stats at the point of time it is called.
func (n *StepWatcher) RenderStats() Stats {
	n.mu.RLock()
	defer n.mu.RUnlock()
	var elapsed time.Duration
	switch n.status {
	case StepRunning:
		elapsed = time.Since(n.startTime)
	case StepDone, StepFailed:
		elapsed = n.endTime.Sub(n.startTime)
	}
	s := Stats{
		StepName:       n.stepName,
		StatusText:     n.status.String(),
		StatusEmoji:    n.status.emoji(),
		ElapsedTimeSec: int(elapsed.Seconds()),
	}
	if n.err != nil {
		s.Error = n.err.Error()
	}
	return s
}

// String will format the stats for general logging.
func (s Stats) String() string {
	txt := fmt.Sprintf("Stats for %v %v %v elapsedTimeSec=%v", s.StepName, s.StatusText, s.StatusEmoji, s.ElapsedTimeSec)
	if s.Error != "" {
		txt += fmt.Sprintf(" error=%q", s.Error)
	}
	return txt
}
