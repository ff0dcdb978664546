package transform

import (
	"fmt"

	"github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/rdbms"
	"github.com/relloyd/eltpipe/rdbms/shared"
)

// DefaultPipelineOptions configure the five stage pipeline built by NewDefaultTransformDefinition.
// Empty values fall back to the step defaults.
type DefaultPipelineOptions struct {
	ConnectionName          string
	Connection              shared.ConnectionDetails
	DbtBin                  string
	DbtProjectDir           string
	DbtProfilesDir          string
	DbtExtraPath            string
	DatabaseName            string
	RoleName                string
	Warehouse               string
	SourceSchemaTable       rdbms.SchemaTable
	TargetSchemaTable       rdbms.SchemaTable
	TargetKeyCols           string // <col>:<type>,...
	TargetOtherCols         string
	ConstraintName          string
	ArtifactsConnectionName string // copy dbt artifacts to S3 when set
	ArtifactsConnection     shared.ConnectionDetails
}

// DefaultStepNames returns the step names of the default pipeline in order, excluding the optional artifacts copy.
func DefaultStepNames() []string {
	return []string{
		constants.StepNameShowEnv,
		constants.StepNameDbtRun,
		constants.StepNameMerge,
		constants.StepNameDbtTest,
		constants.StepNameDbtSnapshot,
	}
}

// NewDefaultTransformDefinition builds the pipeline: show-env, dbt run, merge, dbt test, dbt snapshot.
// A final step copying dbt artifacts to S3 is added if an artifacts connection is configured.
func NewDefaultTransformDefinition(o DefaultPipelineOptions) *TransformDefinition {
	connectionName := o.ConnectionName
	if connectionName == "" {
		connectionName = constants.DefaultConnectionName
	}
	conn := o.Connection
	if conn.LogicalName == "" {
		conn.LogicalName = connectionName
	}
	dbtData := func() map[string]string {
		m := map[string]string{StepDataConnectionName: connectionName}
		setIfNotEmpty(m, StepDataDbtBin, o.DbtBin)
		setIfNotEmpty(m, StepDataDbtProjectDir, o.DbtProjectDir)
		setIfNotEmpty(m, StepDataDbtProfilesDir, o.DbtProfilesDir)
		setIfNotEmpty(m, StepDataDbtExtraPath, o.DbtExtraPath)
		return m
	}
	mergeData := map[string]string{StepDataConnectionName: connectionName}
	setIfNotEmpty(mergeData, StepDataDatabaseName, o.DatabaseName)
	setIfNotEmpty(mergeData, StepDataRoleName, o.RoleName)
	setIfNotEmpty(mergeData, StepDataWarehouse, o.Warehouse)
	setIfNotEmpty(mergeData, StepDataSourceSchemaTable, o.SourceSchemaTable.String())
	setIfNotEmpty(mergeData, StepDataTargetSchemaTable, o.TargetSchemaTable.String())
	setIfNotEmpty(mergeData, StepDataTargetKeyCols, o.TargetKeyCols)
	setIfNotEmpty(mergeData, StepDataTargetOtherCols, o.TargetOtherCols)
	setIfNotEmpty(mergeData, StepDataConstraintName, o.ConstraintName)
	t := &TransformDefinition{
		SchemaVersion: 1,
		Description:   "dbt run, merge raw into staging, dbt test, dbt snapshot",
		Connections:   shared.DBConnections{connectionName: conn},
		Steps: map[string]Step{
			constants.StepNameShowEnv:     {Type: StepTypeShowEnv, Data: dbtData()},
			constants.StepNameDbtRun:      {Type: StepTypeDbtRun, Data: dbtData()},
			constants.StepNameMerge:       {Type: StepTypeSnowflakeUpsert, Data: mergeData},
			constants.StepNameDbtTest:     {Type: StepTypeDbtTest, Data: dbtData()},
			constants.StepNameDbtSnapshot: {Type: StepTypeDbtSnapshot, Data: dbtData()},
		},
		Sequence: DefaultStepNames(),
	}
	if o.ArtifactsConnectionName != "" {
		ac := o.ArtifactsConnection
		if ac.LogicalName == "" {
			ac.LogicalName = o.ArtifactsConnectionName
		}
		t.Connections[o.ArtifactsConnectionName] = ac
		data := map[string]string{StepDataS3ConnectionName: o.ArtifactsConnectionName}
		setIfNotEmpty(data, StepDataDbtProjectDir, o.DbtProjectDir)
		t.Steps[constants.StepNameArtifacts] = Step{Type: StepTypeCopyFilesToS3, Data: data}
		t.Sequence = append(t.Sequence, constants.StepNameArtifacts)
	}
	return t
}

// NewSingleStepTransformDefinition returns the default pipeline cut down to the one named step.
func NewSingleStepTransformDefinition(o DefaultPipelineOptions, stepName string) (*TransformDefinition, error) {
	t := NewDefaultTransformDefinition(o)
	if _, ok := t.Steps[stepName]; !ok {
		return nil, fmt.Errorf("unknown step %q, expected one of %v", stepName, t.Sequence)
	}
	t.Steps = map[string]Step{stepName: t.Steps[stepName]}
	t.Sequence = []string{stepName}
	t.Description = "single step " + stepName
	return t, nil
}

func setIfNotEmpty(m map[string]string, key string, value string) {
	if value != "" {
		m[key] = value
	}
}
