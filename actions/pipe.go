package actions

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/helper"
	"github.com/relloyd/eltpipe/logger"
	"github.com/relloyd/eltpipe/rdbms"
	"github.com/relloyd/eltpipe/transform"
)

type PipeConfig struct {
	TransformFile             string           `errorTxt:"file" mandatory:"yes"`
	Connections               ConnectionLoader `errorTxt:"connections" mandatory:"yes"`
	WithWebService            bool             `errorTxt:"web-service" mandatory:"no"`
	LogLevel                  string
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
}

// RunConfig describes the default pipeline, or one step of it when StepName is set.
type RunConfig struct {
	ConnectionName            string           `errorTxt:"connection-name" mandatory:"yes"`
	Connections               ConnectionLoader `errorTxt:"connections" mandatory:"yes"`
	ArtifactsConnectionName   string
	DbtBin                    string
	DbtProjectDir             string
	DbtProfilesDir            string
	DbtExtraPath              string
	DatabaseName              string
	RoleName                  string
	Warehouse                 string
	SourceSchemaTable         rdbms.SchemaTable
	TargetSchemaTable         rdbms.SchemaTable
	TargetKeyCols             string
	TargetOtherCols           string
	ConstraintName            string
	StepName                  string
	OutputFormat              string // print the pipe as yaml or json instead of running it
	WithWebService            bool
	LogLevel                  string
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
	Out                       io.Writer
}

// RunPipeFromFile launches the pipe found in the YAML or JSON file pipe.TransformFile.
func RunPipeFromFile(pipe *PipeConfig, web *WebServerConfig) error {
	if pipe == nil {
		return fmt.Errorf("nil pointer for pipe config supplied")
	}
	if pipe.TransformFile == "" {
		return fmt.Errorf("supply a YAML or JSON file name to execute your pipe")
	}
	if err := helper.ValidateStructIsPopulated(pipe); err != nil {
		return err
	}
	log := logger.NewLogger(constants.ServiceName, pipe.LogLevel, pipe.StackDumpOnPanic)
	t, err := loadTransformFromFile(pipe.TransformFile)
	if err != nil {
		return err
	}
	if !pipe.WithWebService { // if we should run the pipe without an HTTP server...
		return launchPipe(log, t, pipe.Connections, pipe.StatsDumpFrequencySeconds)
	}
	if web == nil {
		return errors.New("nil pointer to web server config supplied")
	}
	web.Connections = pipe.Connections
	web.StatsDumpFrequencySeconds = pipe.StatsDumpFrequencySeconds
	return launchPipeWithServer(log, t, web)
}

// RunPipeline builds the default pipeline from cfg and launches it.
func RunPipeline(cfg *RunConfig, web *WebServerConfig) error {
	if cfg == nil {
		return fmt.Errorf("nil pointer for run config supplied")
	}
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	log := logger.NewLogger(constants.ServiceName, cfg.LogLevel, cfg.StackDumpOnPanic)
	t, err := newPipeline(log, cfg)
	if err != nil {
		return err
	}
	if cfg.OutputFormat != "" { // if the user only wants to see the pipe...
		return outputPipeDefinition(log, t, out(cfg.Out), cfg.OutputFormat, false)
	}
	if !cfg.WithWebService {
		return launchPipe(log, t, cfg.Connections, cfg.StatsDumpFrequencySeconds)
	}
	if web == nil {
		return errors.New("nil pointer to web server config supplied")
	}
	web.Connections = cfg.Connections
	web.StatsDumpFrequencySeconds = cfg.StatsDumpFrequencySeconds
	return launchPipeWithServer(log, t, web)
}

func newPipeline(log logger.Logger, cfg *RunConfig) (*transform.TransformDefinition, error) {
	conn, err := cfg.Connections.LoadConnection(cfg.ConnectionName)
	if err != nil {
		return nil, err
	}
	sf, err := rdbms.NewSnowflakeConnectionDetails(conn)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid connection %q", cfg.ConnectionName)
	}
	debugLogSnowflakeDBDetails(log, sf)
	o := transform.DefaultPipelineOptions{
		ConnectionName:    cfg.ConnectionName,
		Connection:        conn,
		DbtBin:            cfg.DbtBin,
		DbtProjectDir:     cfg.DbtProjectDir,
		DbtProfilesDir:    cfg.DbtProfilesDir,
		DbtExtraPath:      cfg.DbtExtraPath,
		DatabaseName:      cfg.DatabaseName,
		RoleName:          cfg.RoleName,
		Warehouse:         cfg.Warehouse,
		SourceSchemaTable: cfg.SourceSchemaTable,
		TargetSchemaTable: cfg.TargetSchemaTable,
		TargetKeyCols:     cfg.TargetKeyCols,
		TargetOtherCols:   cfg.TargetOtherCols,
		ConstraintName:    cfg.ConstraintName,
	}
	if cfg.ArtifactsConnectionName != "" {
		ac, err := cfg.Connections.LoadConnection(cfg.ArtifactsConnectionName)
		if err != nil {
			return nil, err
		}
		o.ArtifactsConnectionName = cfg.ArtifactsConnectionName
		o.ArtifactsConnection = ac
	}
	if cfg.StepName != "" {
		return transform.NewSingleStepTransformDefinition(o, cfg.StepName)
	}
	return transform.NewDefaultTransformDefinition(o), nil
}

// launchPipe runs t to completion and returns the error of the first failing step.
func launchPipe(log logger.Logger, t *transform.TransformDefinition, c ConnectionLoader, statsDumpFrequencySeconds int) error {
	if err := loadConnectionDataIfMissing(c, t); err != nil {
		return err
	}
	b, err := json.MarshalIndent(transform.TransformDefinition{
		Description: t.Description,
		Connections: deleteConnections(t.Connections),
		Steps:       t.Steps,
		Sequence:    t.Sequence,
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "error marshalling pipe")
	}
	log.Debug("TransformDefinition data: ", string(b))
	ti := transform.NewSafeMapTransformInfo()
	guid, err := transform.LaunchTransformDefinition(log, ti, t, true, statsDumpFrequencySeconds)
	if err != nil {
		if guid == "" { // if the pipe was rejected before it started...
			return errors.Wrap(err, "invalid pipe")
		}
		return errors.Wrapf(err, "pipe %v failed", guid)
	}
	log.Info("Pipe ", guid, " complete")
	return nil
}

// launchPipeWithServer starts the web server and launches t into it so the pipe can be monitored
// and stopped through the API. It returns once the server has been stopped.
func launchPipeWithServer(log logger.Logger, t *transform.TransformDefinition, web *WebServerConfig) error {
	if err := loadConnectionDataIfMissing(web.Connections, t); err != nil {
		return err
	}
	srv, chanStopServer, allTransformInfo, err := runServer(log, web)
	if err != nil {
		return err
	}
	guid, err := transform.LaunchTransformDefinition(log, allTransformInfo, t, false, web.StatsDumpFrequencySeconds)
	if err != nil { // if the pipe could not be launched...
		chanStopServer <- ""
		_ = waitForServer(log, srv, chanStopServer, allTransformInfo)
		return errors.Wrap(err, "error launching pipe")
	}
	log.Info("Launched pipe ", guid, " ", t.Description)
	return waitForServer(log, srv, chanStopServer, allTransformInfo)
}
