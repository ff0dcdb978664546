package actions

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/helper"
	"github.com/relloyd/eltpipe/logger"
	"github.com/relloyd/eltpipe/transform"
)

const (
	urlContext4Launch = "/launch"
)

var (
	shutdownGracePeriod = 15 * time.Second
	pipeStopTimeout     = 30 * time.Second
)

type WebServerConfig struct {
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	Scheme                    string `errorTxt:"scheme" mandatory:"no"`
	Addr                      net.IP `errorTxt:"address" mandatory:"no"`
	Port                      int    `errorTxt:"port" mandatory:"yes"`
	Connections               ConnectionLoader
	StatsDumpFrequencySeconds int
	StackDumpOnPanic          bool
	DbtBin                    string // dbt settings applied to every launched pipe
	DbtProjectDir             string
	DbtProfilesDir            string
	DbtExtraPath              string
}

// serverStepData returns the values for serverControlledStepData that this server applies to launched pipes.
func (web *WebServerConfig) serverStepData() map[string]string {
	m := make(map[string]string)
	for k, v := range map[string]string{
		transform.StepDataDbtBin:         web.DbtBin,
		transform.StepDataDbtProjectDir:  web.DbtProjectDir,
		transform.StepDataDbtProfilesDir: web.DbtProfilesDir,
		transform.StepDataDbtExtraPath:   web.DbtExtraPath,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

// RunWebServer serves the pipe API until /stop is requested or the process is interrupted.
func RunWebServer(web *WebServerConfig) error {
	if web == nil {
		return errors.New("nil pointer to web server config supplied")
	}
	if err := helper.ValidateStructIsPopulated(web); err != nil {
		return err
	}
	log := logger.NewLogger(constants.ServiceName, web.LogLevel, web.StackDumpOnPanic)
	srv, chanStopServer, allTransformInfo, err := runServer(log, web)
	if err != nil {
		return err
	}
	return waitForServer(log, srv, chanStopServer, allTransformInfo)
}

// newRouter registers the pipe API on a gorilla/mux router.
func newRouter(log logger.Logger, web *WebServerConfig, chanStopServer chan string, allTransformInfo *transform.SafeMapTransformInfo) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/stop", GetHandlerStopServer(log, chanStopServer))
	r.Path("/health").HandlerFunc(GetHandlerHealth(log))
	r.Path("/pipes").HandlerFunc(GetHandlerTransformList(log, allTransformInfo))
	r.Path("/pipes/{pipeId}/stats").HandlerFunc(GetHandlerTransformStats(log, allTransformInfo))
	r.Path("/pipes/{pipeId}/status").HandlerFunc(GetHandlerTransformStatus(log, allTransformInfo))
	r.Path("/pipes/{pipeId}/stop").HandlerFunc(GetHandlerTransformStop(log, allTransformInfo))
	r.Path(urlContext4Launch).Methods(http.MethodPost).Headers("Content-Type", "application/json").HandlerFunc(
		GetHandlerTransformLaunch(log, allTransformInfo, web.Connections, web.serverStepData(), web.StatsDumpFrequencySeconds))
	return r
}

// runServer starts a web server and returns:
// 1) the server;
// 2) a channel that can be used to stop the web server;
// 3) a pointer to info on the running pipes.
// The listener is bound before returning so callers can POST to it straight away.
func runServer(log logger.Logger, web *WebServerConfig) (*http.Server, chan string, *transform.SafeMapTransformInfo, error) {
	chanStopServer := make(chan string, 1)
	allTransformInfo := transform.NewSafeMapTransformInfo()
	addr := fmt.Sprintf("%v:%v", web.Addr, web.Port)
	if web.Addr == nil {
		addr = fmt.Sprintf(":%v", web.Port)
	}
	srv := &http.Server{
		Addr:         addr,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      newRouter(log, web, chanStopServer, allTransformInfo),
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "unable to listen on %v", addr)
	}
	go func() {
		if err := srv.Serve(ln); err != nil {
			if err == http.ErrServerClosed {
				log.Info(err)
			} else {
				log.Error(err)
				select {
				case chanStopServer <- err.Error():
				default:
				}
			}
		}
	}()
	scheme := web.Scheme
	if scheme == "" {
		scheme = "http"
	}
	log.Info(fmt.Sprintf("Listening on %v://%v", strings.ToLower(scheme), addr))
	return srv, chanStopServer, allTransformInfo, nil
}

// waitForServer blocks until a stop request or SIGINT/SIGTERM arrives.
// It then asks every running pipe to stop, waits for them to finish and shuts down the server.
func waitForServer(log logger.Logger, srv *http.Server, chanStopServer chan string, allTransformInfo *transform.SafeMapTransformInfo) error {
	chanOS := make(chan os.Signal, 1)
	signal.Notify(chanOS, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(chanOS)
	select {
	case <-chanStopServer:
	case <-chanOS:
	}
	log.Info("Shutting down web server...")
	stopAllPipes(log, allTransformInfo, pipeStopTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	return srv.Shutdown(ctx)
}

// stopAllPipes requests shutdown of unfinished pipes and polls until they finish or timeout passes.
func stopAllPipes(log logger.Logger, allTransformInfo *transform.SafeMapTransformInfo, timeout time.Duration) {
	for _, id := range allTransformInfo.Keys() {
		if ti, ok := allTransformInfo.Load(id); ok && !ti.Status.TransformIsFinished() {
			log.Info("Stopping pipe ", id)
			ti.Closer.RequestShutdown(nil)
		}
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		running := 0
		for _, id := range allTransformInfo.Keys() {
			if ti, ok := allTransformInfo.Load(id); ok && !ti.Status.TransformIsFinished() {
				running++
			}
		}
		if running == 0 {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	log.Warn("timed out waiting for pipes to stop")
}
