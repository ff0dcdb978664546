package transform

import (
	"sync"
	"time"

	"github.com/relloyd/eltpipe/stats"
)

type TransformInfo struct {
	Transform TransformDefinition
	Closer    *TransformCloser
	Status    TransformStatus `json:"transformStatus"`
	Stats     stats.StatsFetcher
}

// SafeMapTransformInfo wraps a map of pipeline guid to TransformInfo with locking, via Load() and Store() methods.
type SafeMapTransformInfo struct {
	sync.RWMutex
	Internal map[string]TransformInfo
}

func NewSafeMapTransformInfo() *SafeMapTransformInfo {
	ti := SafeMapTransformInfo{}
	ti.Internal = make(map[string]TransformInfo)
	return &ti
}

func (t *SafeMapTransformInfo) Load(key string) (ti TransformInfo, ok bool) {
	t.RLock()
	ti, ok = t.Internal[key]
	t.RUnlock()
	return
}

func (t *SafeMapTransformInfo) Store(key string, value TransformInfo) {
	t.Lock()
	t.Internal[key] = value
	t.Unlock()
}

func (t *SafeMapTransformInfo) Delete(key string) {
	t.Lock()
	delete(t.Internal, key)
	t.Unlock()
}

// Keys returns the guids of all pipelines.
func (t *SafeMapTransformInfo) Keys() []string {
	t.RLock()
	defer t.RUnlock()
	retval := make([]string, 0, len(t.Internal))
	for k := range t.Internal {
		retval = append(retval, k)
	}
	return retval
}

// ConsumeTransformStatusChanges loops until chanStatus is closed
// and updates t.Internal[transformGuid] with any statuses received.
func (t *SafeMapTransformInfo) ConsumeTransformStatusChanges(transformGuid string, chanStatus chan TransformStatus) {
	for status := range chanStatus {
		t.Lock()
		ti := t.Internal[transformGuid]
		switch status.Status {
		case StatusRunning:
			ti.Status.Status = status.Status
			ti.Status.StartTime = time.Now()
		case StatusComplete, StatusCompleteWithError, StatusShutdown:
			ti.Status.Status = status.Status
			ti.Status.EndTime = time.Now()
			ti.Status.Error = status.Error
		}
		t.Internal[transformGuid] = ti
		t.Unlock()
	}
}
