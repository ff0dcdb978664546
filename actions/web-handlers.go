package actions

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/relloyd/eltpipe/logger"
	"github.com/relloyd/eltpipe/transform"
)

type WebServerResponse uint32

const (
	Okay WebServerResponse = iota + 1
	Error
)

func (w WebServerResponse) MarshalJSON() ([]byte, error) {
	var retval string
	switch w {
	case Okay:
		retval = "ok"
	case Error:
		retval = "error"
	default:
		return nil, fmt.Errorf("unhandled WebServerResponse value %d in MarshalJSON() conversion", w)
	}
	return json.Marshal(retval)
}

func (w *WebServerResponse) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "ok":
		*w = Okay
	case "error":
		*w = Error
	default:
		return fmt.Errorf("unexpected WebServerResponse %q", s)
	}
	return nil
}

type ResponseSimple struct {
	ServerStatus WebServerResponse `json:"status"`
}

type ResponseTransformList struct {
	Status        WebServerResponse   `json:"status"`
	TransformList []TransformListItem `json:"pipes"`
}

type TransformListItem struct {
	TransformId          string           `json:"pipeId"`
	TransformDescription string           `json:"pipeDescription"`
	TransformStatus      transform.Status `json:"pipeStatus"`
}

type ResponseTransformStats struct {
	Status       WebServerResponse `json:"status"`
	Message      string            `json:"message"`
	StatsSummary interface{}       `json:"pipeStats"`
}

type ResponseTransformStatus struct {
	Status          WebServerResponse         `json:"status"`
	Message         string                    `json:"message"`
	TransformStatus transform.TransformStatus `json:"pipeStatus"`
}

type ResponseTransformStop struct {
	Status      WebServerResponse `json:"status"`
	Message     string            `json:"message"`
	TransformId string            `json:"pipeId"`
}

type ResponseTransformLaunch struct {
	Status      WebServerResponse `json:"status"`
	Message     string            `json:"message"`
	TransformId string            `json:"pipeId"`
}

func GetHandlerHealth(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(log, w, http.StatusOK, ResponseSimple{ServerStatus: Okay})
	}
}

func GetHandlerStopServer(log logger.Logger, chanStop chan string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case chanStop <- "stop":
			log.Info("Stop signal sent")
		default: // a stop is already pending
		}
		respond(log, w, http.StatusOK, ResponseSimple{ServerStatus: Okay})
	}
}

// serverControlledStepData lists the step data keys that a posted pipe may not set.
// They decide which executable runs with the connection credentials and which local files are read.
var serverControlledStepData = []string{
	transform.StepDataDbtBin,
	transform.StepDataDbtProjectDir,
	transform.StepDataDbtProfilesDir,
	transform.StepDataDbtExtraPath,
	transform.StepDataSourceDir,
	transform.StepDataFileNamesCSV,
}

// applyServerStepData replaces serverControlledStepData in every step of t with the values in serverData.
// Keys missing from serverData are removed so the step falls back to its defaults.
func applyServerStepData(log logger.Logger, t *transform.TransformDefinition, serverData map[string]string) {
	for name, step := range t.Steps {
		if step.Data == nil {
			step.Data = make(map[string]string)
		}
		for _, k := range serverControlledStepData {
			if v, ok := step.Data[k]; ok && v != serverData[k] {
				log.Warn("Ignoring ", k, " supplied for step ", name)
			}
			delete(step.Data, k)
			if v, ok := serverData[k]; ok {
				step.Data[k] = v
			}
		}
		t.Steps[name] = step
	}
}

func GetHandlerTransformLaunch(log logger.Logger, allTransformInfo *transform.SafeMapTransformInfo, c ConnectionLoader, serverData map[string]string, statsDumpFrequencySeconds int) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := ioutil.ReadAll(r.Body)
		if err != nil {
			logAndRespond(log, err, w,
				ResponseTransformLaunch{Status: Error, Message: fmt.Sprintf("error reading request: %v", err)})
			return
		}
		t := transform.TransformDefinition{}
		if err = json.Unmarshal(b, &t); err != nil {
			logAndRespond(log, err, w,
				ResponseTransformLaunch{Status: Error, Message: fmt.Sprintf("error unmarshalling JSON: %v", err)})
			return
		}
		applyServerStepData(log, &t, serverData)
		// Load connections from config if not in the pipe.
		if c != nil {
			if err := loadConnectionDataIfMissing(c, &t); err != nil {
				logAndRespond(log, err, w,
					ResponseTransformLaunch{Status: Error, Message: fmt.Sprintf("error loading connection details: %v", err)})
				return
			}
		}
		guid, err := transform.LaunchTransformDefinition(log, allTransformInfo, &t, false, statsDumpFrequencySeconds)
		if err != nil {
			logAndRespond(log, err, w,
				ResponseTransformLaunch{Status: Error, Message: fmt.Sprintf("invalid pipe definition supplied: %v", err)})
			return
		}
		respond(log, w, http.StatusOK, ResponseTransformLaunch{Status: Okay, Message: "pipe launched", TransformId: guid})
	}
}

func GetHandlerTransformStop(log logger.Logger, allTransformInfo *transform.SafeMapTransformInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["pipeId"]
		t, ok := allTransformInfo.Load(id)
		if !ok { // if the pipe doesn't exist...
			log.Info("HTTP request to stop pipe ", id, " that doesn't exist.")
			respond(log, w, http.StatusNotFound, ResponseTransformStop{Status: Error, Message: "pipe does not exist", TransformId: id})
			return
		}
		if t.Status.TransformIsFinished() || !t.Closer.RequestShutdown(nil) { // if the pipe has already finished or is stopping...
			log.Info("HTTP request to stop pipe ", id, " that has already ended.")
			respond(log, w, http.StatusOK, ResponseTransformStop{Status: Error, Message: "pipe already ended", TransformId: id})
			return
		}
		log.Info("Stopping pipe ", id)
		respond(log, w, http.StatusOK, ResponseTransformStop{Status: Okay, Message: "shutting down", TransformId: id})
	}
}

func GetHandlerTransformList(log logger.Logger, allTransformInfo *transform.SafeMapTransformInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		keys := allTransformInfo.Keys()
		sort.Strings(keys)
		trans := make([]TransformListItem, 0, len(keys))
		for _, id := range keys {
			if v, ok := allTransformInfo.Load(id); ok {
				trans = append(trans, TransformListItem{
					TransformId:          id,
					TransformDescription: v.Transform.Description,
					TransformStatus:      v.Status.Status,
				})
			}
		}
		respond(log, w, http.StatusOK, ResponseTransformList{Status: Okay, TransformList: trans})
	}
}

func GetHandlerTransformStats(log logger.Logger, allTransformInfo *transform.SafeMapTransformInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["pipeId"]
		s, ok := allTransformInfo.Load(id)
		if !ok {
			log.Info("HTTP request to fetch stats for pipe ", id, " that doesn't exist.")
			respond(log, w, http.StatusNotFound, ResponseTransformStats{Status: Error, Message: fmt.Sprintf("pipe %v does not exist", id)})
			return
		}
		respond(log, w, http.StatusOK, ResponseTransformStats{Status: Okay, StatsSummary: s.Stats.GetStats()})
	}
}

func GetHandlerTransformStatus(log logger.Logger, allTransformInfo *transform.SafeMapTransformInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["pipeId"]
		ti, ok := allTransformInfo.Load(id)
		if !ok {
			log.Info("HTTP request status of pipe ", id, " that doesn't exist.")
			respond(log, w, http.StatusNotFound, ResponseTransformStatus{Status: Error, Message: fmt.Sprintf("pipe %v does not exist", id)})
			return
		}
		respond(log, w, http.StatusOK, ResponseTransformStatus{Status: Okay, TransformStatus: ti.Status})
	}
}

// logAndRespond will log the error and write a http.StatusBadRequest with r to w.
func logAndRespond(log logger.Logger, err error, w http.ResponseWriter, r ResponseTransformLaunch) {
	log.Error(err)
	respond(log, w, http.StatusBadRequest, r)
}

// respond will marshal i to JSON and write it to w with the given status code.
func respond(log logger.Logger, w http.ResponseWriter, code int, i interface{}) {
	j, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		log.Error(err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(j); err != nil {
		log.Error(err)
	}
}
