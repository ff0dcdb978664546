package transform

import (
	"context"

	"github.com/relloyd/eltpipe/logger"
	"github.com/relloyd/eltpipe/rdbms/shared"
)

// TransformDefinition is an ordered list of pipeline steps plus the connections they use.
type TransformDefinition struct {
	SchemaVersion int                  `json:"schemaVersion" errorTxt:"schema version" mandatory:"no"`
	Description   string               `json:"description" errorTxt:"description" mandatory:"no"`
	Connections   shared.DBConnections `json:"connections" errorTxt:"connections" mandatory:"no"`
	Steps         map[string]Step      `json:"steps" errorTxt:"steps" mandatory:"yes"`
	Sequence      []string             `json:"sequence" errorTxt:"sequence" mandatory:"yes"`
}

type Step struct {
	Type string            `json:"type" errorTxt:"step type" mandatory:"yes"`
	Data map[string]string `json:"data" errorTxt:"step data" mandatory:"no"`
}

// Keys found in Step.Data.
const (
	StepDataConnectionName    = "connectionName"
	StepDataS3ConnectionName  = "s3ConnectionName"
	StepDataDbtBin            = "dbtBin"
	StepDataDbtProjectDir     = "dbtProjectDir"
	StepDataDbtProfilesDir    = "dbtProfilesDir"
	StepDataDbtExtraPath      = "dbtExtraPath"
	StepDataDatabaseName      = "databaseName"
	StepDataRoleName          = "roleName"
	StepDataWarehouse         = "warehouse"
	StepDataSourceSchemaTable = "sourceSchemaTable"
	StepDataTargetSchemaTable = "targetSchemaTable"
	StepDataTargetKeyCols     = "targetKeyCols"
	StepDataTargetOtherCols   = "targetOtherCols"
	StepDataConstraintName    = "constraintName"
	StepDataSourceDir         = "sourceDir"
	StepDataFileNamesCSV      = "fileNamesCSV"
	StepDataKeyPrefix         = "keyPrefix"
)

// StepLauncherFunc runs one step to completion.
type StepLauncherFunc func(ctx context.Context, log logger.Logger, tm TransformManager, stepName string, step Step) error

type MapComponentFuncs map[string]ComponentRegistration

type ComponentRegistration struct {
	launcherFunc        StepLauncherFunc
	connectionKey       string // key in Step.Data that names an entry in TransformDefinition.Connections
	connectionMandatory bool
}

type CleanupHandlerFunc = func(ctx context.Context, log logger.Logger, transformGuid string, tc *TransformCloser, cancelFunc context.CancelFunc)

type LaunchTransformFunc = func(ctx context.Context, log logger.Logger, transformDefn *TransformDefinition, transformGuid string, stats StatsManager) error
