package transform

import (
	"context"

	"github.com/relloyd/eltpipe/aws/s3"
	"github.com/relloyd/eltpipe/components"
	"github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/helper"
	"github.com/relloyd/eltpipe/logger"
	"github.com/relloyd/eltpipe/rdbms"
)

// newS3Client is swapped out by tests.
var newS3Client = func(bucket, region, prefix string) (s3.BufferPutter, error) {
	return s3.NewBasicClient(bucket, region, prefix)
}

func getStepLogger(log logger.Logger, stepName string) logger.Logger {
	if l, ok := log.(*logger.LoggerImpl); ok {
		return l.WithStep(stepName)
	}
	return log
}

func dataOrDefault(step Step, key string, defaultValue string) string {
	if v := step.Data[key]; v != "" {
		return v
	}
	return defaultValue
}

// getSnowflakeConnectionDetails returns the parsed Snowflake connection named by the step.
// A step without a connection returns nil.
func getSnowflakeConnectionDetails(tm TransformManager, step Step) (*rdbms.SnowflakeConnectionDetails, error) {
	name := step.Data[StepDataConnectionName]
	if name == "" {
		return nil, nil
	}
	c, err := tm.getConnectionDetails(name)
	if err != nil {
		return nil, err
	}
	return rdbms.NewSnowflakeConnectionDetails(c)
}

func getDbtEnv(tm TransformManager, step Step) (map[string]string, error) {
	d, err := getSnowflakeConnectionDetails(tm, step)
	if err != nil || d == nil {
		return nil, err
	}
	return d.DbtEnv(), nil
}

func startShowEnv(ctx context.Context, log logger.Logger, tm TransformManager, stepName string, step Step) error {
	env, err := getDbtEnv(tm, step)
	if err != nil {
		return err
	}
	return components.ShowEnv(&components.ShowEnvConfig{
		Log:       log,
		Name:      stepName,
		Env:       env,
		ExtraPath: dataOrDefault(step, StepDataDbtExtraPath, constants.DbtExtraPathDefault),
	})
}

func getDbtLauncher(subcommand string) StepLauncherFunc {
	return func(ctx context.Context, log logger.Logger, tm TransformManager, stepName string, step Step) error {
		env, err := getDbtEnv(tm, step)
		if err != nil {
			return err
		}
		projectDir := dataOrDefault(step, StepDataDbtProjectDir, constants.DbtDirDefault)
		cfg := &components.DbtConfig{
			Log:         log,
			Name:        stepName,
			Bin:         dataOrDefault(step, StepDataDbtBin, constants.DbtBinDefault),
			ProjectDir:  projectDir,
			ProfilesDir: dataOrDefault(step, StepDataDbtProfilesDir, projectDir),
			ExtraPath:   dataOrDefault(step, StepDataDbtExtraPath, constants.DbtExtraPathDefault),
			Env:         env,
		}
		return components.RunDbt(ctx, cfg, subcommand)
	}
}

var (
	startDbtRun      = getDbtLauncher(constants.DbtSubcommandRun)
	startDbtTest     = getDbtLauncher(constants.DbtSubcommandTest)
	startDbtSnapshot = getDbtLauncher(constants.DbtSubcommandSnapshot)
)

// startSnowflakeUpsert falls back to the database, role and warehouse of the connection.
// The database name is checked before the connection is opened.
func startSnowflakeUpsert(ctx context.Context, log logger.Logger, tm TransformManager, stepName string, step Step) error {
	d, err := getSnowflakeConnectionDetails(tm, step)
	if err != nil {
		return err
	}
	if d == nil {
		d = &rdbms.SnowflakeConnectionDetails{}
	}
	dbName := dataOrDefault(step, StepDataDatabaseName, d.DBName)
	if dbName == "" {
		return components.ErrMissingDatabaseName
	}
	db, err := tm.openDbConnector(ctx, step.Data[StepDataConnectionName])
	if err != nil {
		return err
	}
	cfg := &components.SnowflakeUpsertConfig{
		Log:               log,
		Name:              stepName,
		Db:                db,
		RoleName:          dataOrDefault(step, StepDataRoleName, d.RoleName),
		Warehouse:         dataOrDefault(step, StepDataWarehouse, d.Warehouse),
		DatabaseName:      dbName,
		SourceSchemaTable: rdbms.NewSchemaTable(constants.UpsertSourceSchemaDefault, constants.UpsertSourceTableDefault),
		TargetSchemaTable: rdbms.NewSchemaTable(constants.UpsertTargetSchemaDefault, constants.UpsertTargetTableDefault),
		TargetKeyCols:     helper.TokensToOrderedMap(dataOrDefault(step, StepDataTargetKeyCols, constants.UpsertKeyColsDefault)),
		TargetOtherCols:   helper.TokensToOrderedMap(dataOrDefault(step, StepDataTargetOtherCols, constants.UpsertOtherColsDefault)),
		ConstraintName:    dataOrDefault(step, StepDataConstraintName, constants.UpsertConstraintNameDefault),
	}
	if v := step.Data[StepDataSourceSchemaTable]; v != "" {
		cfg.SourceSchemaTable = rdbms.SchemaTable{SchemaTable: v}
	}
	if v := step.Data[StepDataTargetSchemaTable]; v != "" {
		cfg.TargetSchemaTable = rdbms.SchemaTable{SchemaTable: v}
	}
	return components.RunSnowflakeUpsert(ctx, cfg)
}

// startCopyFilesToS3 uploads dbt artifacts under a key prefix that defaults to the pipeline guid.
func startCopyFilesToS3(ctx context.Context, log logger.Logger, tm TransformManager, stepName string, step Step) error {
	c, err := tm.getConnectionDetails(step.Data[StepDataS3ConnectionName])
	if err != nil {
		return err
	}
	b, err := s3.NewAwsBucket(&c)
	if err != nil {
		return err
	}
	client, err := newS3Client(b.Name, b.Region, b.Prefix)
	if err != nil {
		return err
	}
	fileNames := components.Defaults.DbtArtifacts
	if v := step.Data[StepDataFileNamesCSV]; v != "" {
		fileNames = helper.CsvToStringSliceTrimSpaces(v)
	}
	projectDir := dataOrDefault(step, StepDataDbtProjectDir, constants.DbtDirDefault)
	cfg := &components.CopyFilesToS3Config{
		Log:       log,
		Name:      stepName,
		SourceDir: dataOrDefault(step, StepDataSourceDir, components.DbtTargetDir(projectDir)),
		FileNames: fileNames,
		KeyPrefix: dataOrDefault(step, StepDataKeyPrefix, tm.getTransformGuid()),
		Client:    client,
	}
	n, err := components.CopyFilesToS3(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info(stepName, " copied ", n, " of ", len(fileNames), " file(s) to ", b.String())
	return nil
}
