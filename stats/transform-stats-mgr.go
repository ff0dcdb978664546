package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cevaris/ordered_map"
	c "github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/logger"
)

type StatsFetcher interface {
	GetStats() []Stats
}

var DefaultStatsDumpFrequencySeconds = c.StatsCaptureFrequencySeconds

// TransformStatsManager saves a StepWatcher per pipeline step, in the order steps were added,
// and dumps their stats periodically while the pipeline runs.
type TransformStatsManager struct {
	ticker              *time.Ticker
	tickerDone          chan struct{}
	tickerIsRunningFlag int32
	tickerFrequency     int
	mu                  sync.Mutex
	log                 logger.Logger
	mapStepStats        *ordered_map.OrderedMap // step name to *StepWatcher
}

// SetStatsDumpFrequency returns an option for NewTransformStats().
// Zero or less disables periodic dumps.
func SetStatsDumpFrequency(seconds int) func(t *TransformStatsManager) {
	return func(t *TransformStatsManager) {
		t.tickerFrequency = seconds
	}
}

func NewTransformStats(log logger.Logger, options ...func(t *TransformStatsManager)) *TransformStatsManager {
	t := &TransformStatsManager{log: log, tickerFrequency: DefaultStatsDumpFrequencySeconds}
	for _, option := range options {
		option(t)
	}
	t.tickerDone = make(chan struct{})
	t.mapStepStats = ordered_map.NewOrderedMap()
	return t
}

// AddStepWatcher creates a StepWatcher for stepName, replacing any existing one.
func (t *TransformStatsManager) AddStepWatcher(stepName string) *StepWatcher {
	t.mu.Lock()
	defer t.mu.Unlock()
	sw := NewStepWatcher(t.log, stepName)
	t.mapStepStats.Set(stepName, sw)
	return sw
}

func (t *TransformStatsManager) GetStepWatcher(stepName string) (*StepWatcher, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.mapStepStats.Get(stepName)
	if !ok {
		return nil, false
	}
	return v.(*StepWatcher), true
}

func (t *TransformStatsManager) StartDumping() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if atomic.LoadInt32(&t.tickerIsRunningFlag) != 0 {
		t.log.Debug("stats dumper ticker already running")
		return
	}
	if t.tickerFrequency <= 0 {
		t.log.Debug("stats dumper disabled")
		return
	}
	t.ticker = time.NewTicker(time.Second * time.Duration(t.tickerFrequency))
	atomic.StoreInt32(&t.tickerIsRunningFlag, 1)
	go func() {
		t.log.Debug("stats dumper ticker started")
		for {
			select {
			case <-t.tickerDone:
				t.log.Debug("stats dumper ticker stopped")
				return
			case <-t.ticker.C:
				t.mu.Lock()
				t.logStats()
				t.mu.Unlock()
			}
		}
	}()
}

// StopDumping stops the ticker, if running, and dumps the final stats.
// The final dump happens even when periodic dumping was disabled.
func (t *TransformStatsManager) StopDumping() {
	t.mu.Lock()
	running := atomic.LoadInt32(&t.tickerIsRunningFlag) > 0
	if running {
		atomic.StoreInt32(&t.tickerIsRunningFlag, 0)
		t.ticker.Stop()
	}
	t.mu.Unlock()
	if running {
		t.tickerDone <- struct{}{} // the goroutine may be waiting on mu so release it first
	}
	t.mu.Lock()
	t.logStats()
	t.mu.Unlock()
}

// logStats expects mu to be held.
func (t *TransformStatsManager) logStats() {
	iter := t.mapStepStats.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		t.log.Warn(kv.Value.(*StepWatcher).RenderStats().String())
	}
}

// GetStats implements interface StatsFetcher{}.
func (t *TransformStatsManager) GetStats() []Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	iter := t.mapStepStats.IterFunc()
	statsList := make([]Stats, 0)
	for kv, ok := iter(); ok; kv, ok = iter() {
		statsList = append(statsList, kv.Value.(*StepWatcher).RenderStats())
	}
	return statsList
}
