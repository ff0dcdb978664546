package stats

import "github.com/relloyd/eltpipe/logger"

// MockStatsManager hands out real step watchers but never dumps.
type MockStatsManager struct {
	log      logger.Logger
	Watchers map[string]*StepWatcher
}

func (s *MockStatsManager) StartDumping() {}

func (s *MockStatsManager) StopDumping() {}

func (s *MockStatsManager) AddStepWatcher(stepName string) *StepWatcher {
	sw := NewStepWatcher(s.log, stepName)
	s.Watchers[stepName] = sw
	return sw
}

func NewMockStatsManager(log logger.Logger) *MockStatsManager {
	return &MockStatsManager{log: log, Watchers: make(map[string]*StepWatcher)}
}
