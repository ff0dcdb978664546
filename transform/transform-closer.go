package transform

import (
	"sync"
	"sync/atomic"
)

// TransformCloser tracks the channels used to maintain transform status and whether it is shutdown or not.
type TransformCloser struct {
	flagClosedChanStatusAndShutdown int32 // 0 = open; 1 = closed
	flagShutdownRequested           int32 // 1 once a stop request or signal has been accepted
	mu                              sync.Mutex
	chanStatus                      chan TransformStatus
	chanShutdown                    chan error
}

func NewTransformCloser(chanStatus chan TransformStatus, chanShutdown chan error) *TransformCloser {
	return &TransformCloser{chanStatus: chanStatus, chanShutdown: chanShutdown}
}

// CloseChannels closes chanStatus and chanShutdown inside a mutex.
// flagClosedChanStatusAndShutdown is set to 1 when the channels are closed.
func (c *TransformCloser) CloseChannels(statusToSend *TransformStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if atomic.LoadInt32(&c.flagClosedChanStatusAndShutdown) == 0 {
		if statusToSend != nil {
			c.chanStatus <- *statusToSend
		}
		close(c.chanStatus) // causes the status consumer to exit.
		close(c.chanShutdown)
		atomic.StoreInt32(&c.flagClosedChanStatusAndShutdown, 1)
	}
}

// ChannelsAreOpen inspects flagClosedChanStatusAndShutdown (0 = open; 1 = closed) and returns true if 0.
func (c *TransformCloser) ChannelsAreOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return atomic.LoadInt32(&c.flagClosedChanStatusAndShutdown) == 0
}

// RequestShutdown asks a running transform to stop. The optional err is logged by the cleanup handler.
// It returns false if the transform has already finished or a request is pending.
func (c *TransformCloser) RequestShutdown(err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if atomic.LoadInt32(&c.flagClosedChanStatusAndShutdown) != 0 {
		return false
	}
	select {
	case c.chanShutdown <- err:
		return true
	default:
		return false
	}
}

func (c *TransformCloser) setShutdownRequested() {
	atomic.StoreInt32(&c.flagShutdownRequested, 1)
}

// ShutdownRequested is true once the cleanup handler has cancelled the transform.
func (c *TransformCloser) ShutdownRequested() bool {
	return atomic.LoadInt32(&c.flagShutdownRequested) == 1
}
