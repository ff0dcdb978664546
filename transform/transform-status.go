package transform

import (
	"encoding/json"
	"fmt"
	"time"
)

type Status uint32

const (
	StatusMissing         = 0
	StatusStarting Status = iota + 1
	StatusRunning
	StatusComplete
	StatusCompleteWithError
	StatusShutdown
)

func (s Status) String() string {
	switch s {
	case StatusMissing:
		return ""
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusComplete:
		return "complete"
	case StatusCompleteWithError:
		return "complete with error"
	case StatusShutdown:
		return "shutdown by user"
	}
	return fmt.Sprintf("unknown(%d)", uint32(s))
}

func (s Status) MarshalJSON() ([]byte, error) {
	if s > StatusShutdown {
		return nil, fmt.Errorf("unhandled Status value %v in custom MarshalJSON() conversion", uint32(s))
	}
	return json.Marshal(s.String())
}

type TransformStatus struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    Status    `json:"pipeStatus"`
	Error     string    `json:"error"`
}

func (t *TransformStatus) TransformIsFinished() bool {
	return t.Status != StatusStarting && t.Status != StatusRunning
}
