package transform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/relloyd/eltpipe/logger"
	"github.com/sirupsen/logrus"
)

// GetCleanupHandlerWithChannelsFunc returns a function that waits for CTRL-C, SIGTERM or a stop request on
// the closer's shutdown channel and then cancels the running transform.
// It returns without cancelling when ctx is done or the shutdown channel is closed on completion.
func GetCleanupHandlerWithChannelsFunc() CleanupHandlerFunc {
	return func(ctx context.Context, log logger.Logger, transformGuid string, tc *TransformCloser, cancelFunc context.CancelFunc) {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(c)
		select {
		case x := <-c:
			if isatty.IsTerminal(os.Stdout.Fd()) {
				fmt.Println() // clean CLI look n feel after ^C.
			}
			log.Info("Caught ", x.String())
		case e, ok := <-tc.chanShutdown:
			if !ok { // if the transform completed...
				return
			}
			if e != nil {
				log.Error(e)
			}
		case <-ctx.Done():
			return
		}
		log.Info("Shutting down transform ", transformGuid, "...")
		tc.setShutdownRequested()
		cancelFunc() // kills dbt and rolls back any open upsert.
	}
}

// recoverStepPanic converts a panic in a step into an error saved in errPtr.
func recoverStepPanic(errPtr *error) {
	r := recover()
	if r == nil {
		return
	}
	switch x := r.(type) {
	case *logrus.Entry:
		*errPtr = errors.New(x.Message)
	case error:
		*errPtr = x
	case string:
		*errPtr = errors.New(x)
	default:
		*errPtr = fmt.Errorf("unexpected panic: %v", x)
	}
}
