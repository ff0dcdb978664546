package transform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/relloyd/eltpipe/helper"
	"github.com/relloyd/eltpipe/logger"
	"github.com/relloyd/eltpipe/stats"
	"github.com/rs/xid"
)

func LaunchTransformJson(log logger.Logger, ti *SafeMapTransformInfo, transformJson string, blockUntilComplete bool, statsDumpFrequencySeconds int,
) (guid string, err error) {
	t := &TransformDefinition{}
	err = json.Unmarshal([]byte(transformJson), t)
	if err != nil {
		return "", fmt.Errorf("unable to unmarshal pipe: %w", err)
	}
	return LaunchTransformDefinition(log, ti, t, blockUntilComplete, statsDumpFrequencySeconds)
}

// LaunchTransformDefinition validates the supplied TransformDefinition and launches the transform.
// It stores the GUID of the new transform in ti and returns it.
// If blockUntilComplete is false then the transform is launched in a goroutine and only validation errors
// are returned. Otherwise the error of the first failing step is returned too.
func LaunchTransformDefinition(log logger.Logger, ti *SafeMapTransformInfo, t *TransformDefinition, blockUntilComplete bool, statsDumpFrequencySeconds int) (guid string, err error) {
	if err = ValidateTransformDefinition(t); err != nil {
		return "", err
	}
	s := stats.NewTransformStats(log, stats.SetStatsDumpFrequency(statsDumpFrequencySeconds))
	chanStatus := make(chan TransformStatus, 1) // channel for us to receive status messages back from the transform
	chanShutdown := make(chan error, 1)         // channel upon which we can stop the current transform
	tc := NewTransformCloser(chanStatus, chanShutdown)
	guid = xid.New().String()
	ti.Store(
		guid,
		TransformInfo{
			Closer:    tc,
			Stats:     s,
			Transform: *t,
			Status:    TransformStatus{Status: StatusStarting, StartTime: time.Now()},
		})
	go ti.ConsumeTransformStatusChanges(guid, chanStatus)
	log.Info("Launching transform ", guid)
	cleanupHandler := GetCleanupHandlerWithChannelsFunc()
	if blockUntilComplete {
		err = LaunchTransformWithControlChannels(log, t, guid, s, tc, cleanupHandler, LaunchTransform)
	} else {
		go func() {
			_ = LaunchTransformWithControlChannels(log, t, guid, s, tc, cleanupHandler, LaunchTransform)
		}()
	}
	return guid, err
}

// ValidateTransformDefinition checks that every sequence entry names a step, every step type is registered
// and every connection referenced by a step exists.
func ValidateTransformDefinition(t *TransformDefinition) error {
	if err := helper.ValidateStructIsPopulated(t); err != nil {
		return err
	}
	for _, stepName := range t.Sequence {
		step, ok := t.Steps[stepName]
		if !ok {
			return fmt.Errorf("step %q in sequence is not defined", stepName)
		}
		reg, ok := componentFuncs[step.Type]
		if !ok {
			return fmt.Errorf("unsupported step type %q used by step %q", step.Type, stepName)
		}
		connectionName := step.Data[reg.connectionKey]
		if connectionName == "" {
			if reg.connectionMandatory {
				return fmt.Errorf("step %q requires a value for %q", stepName, reg.connectionKey)
			}
			continue
		}
		if _, ok := t.Connections[connectionName]; !ok {
			return fmt.Errorf("connection %q used by step %q is not defined", connectionName, stepName)
		}
	}
	return nil
}

// LaunchTransformWithControlChannels launches a transform that can be stopped by a signal or a call to
// tc.RequestShutdown(). After the transform is complete it sends the final status and closes the channels in tc.
func LaunchTransformWithControlChannels(log logger.Logger,
	transformDefn *TransformDefinition,
	transformGuid string,
	s StatsManager,
	tc *TransformCloser,
	cleanupHandlerFn CleanupHandlerFunc,
	launcherFn LaunchTransformFunc,
) error {
	tc.chanStatus <- TransformStatus{Status: StatusRunning}
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	go cleanupHandlerFn(ctx, log, transformGuid, tc, cancelFunc)
	err := launcherFn(ctx, log, transformDefn, transformGuid, s)
	status := &TransformStatus{Status: StatusComplete}
	switch {
	case tc.ShutdownRequested():
		status.Status = StatusShutdown
		if err != nil {
			status.Error = err.Error()
		}
		log.Info("Shutdown complete for transform ", transformGuid)
	case err != nil:
		status.Status = StatusCompleteWithError
		status.Error = err.Error()
		log.Error("Transform ", transformGuid, " failed: ", err)
	default:
		log.Info("Transform ", transformGuid, " complete")
	}
	tc.CloseChannels(status)
	return err
}

// LaunchTransform runs the steps of transformDefn strictly in sequence.
// The first failure stops the run and every step after it is marked skipped.
func LaunchTransform(ctx context.Context, log logger.Logger, transformDefn *TransformDefinition, transformGuid string, s StatsManager) (err error) {
	tm := NewTransformManager(log, transformDefn, transformGuid)
	watchers := make([]*stats.StepWatcher, len(transformDefn.Sequence))
	for idx, stepName := range transformDefn.Sequence {
		watchers[idx] = s.AddStepWatcher(stepName)
	}
	s.StartDumping()
	defer s.StopDumping()
	for idx, stepName := range transformDefn.Sequence {
		if err = ctx.Err(); err != nil {
			err = fmt.Errorf("transform stopped before step %q: %w", stepName, err)
			skipRemaining(watchers[idx:])
			return err
		}
		step := transformDefn.Steps[stepName]
		log.Info("Executing step ", stepName)
		watchers[idx].StartWatching()
		err = launchStep(ctx, log, tm, stepName, step)
		watchers[idx].StopWatching(err)
		if err != nil {
			skipRemaining(watchers[idx+1:])
			return fmt.Errorf("step %q failed: %w", stepName, err)
		}
	}
	return nil
}

func launchStep(ctx context.Context, log logger.Logger, tm TransformManager, stepName string, step Step) (err error) {
	defer recoverStepPanic(&err)
	reg, ok := componentFuncs[step.Type]
	if !ok {
		return errors.New("unsupported step type " + step.Type)
	}
	return reg.launcherFunc(ctx, getStepLogger(log, stepName), tm, stepName, step)
}

func skipRemaining(watchers []*stats.StepWatcher) {
	for _, sw := range watchers {
		sw.Skip()
	}
}
