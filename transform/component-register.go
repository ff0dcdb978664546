package transform

import "sort"

// Step types.
const (
	StepTypeShowEnv         = "ShowEnv"
	StepTypeDbtRun          = "DbtRun"
	StepTypeDbtTest         = "DbtTest"
	StepTypeDbtSnapshot     = "DbtSnapshot"
	StepTypeSnowflakeUpsert = "SnowflakeUpsert"
	StepTypeCopyFilesToS3   = "CopyFilesToS3"
)

// The dbt steps use their Snowflake connection, if any, only to export DBT_* variables.
var componentFuncs = MapComponentFuncs{
	StepTypeShowEnv:         ComponentRegistration{startShowEnv, StepDataConnectionName, false},
	StepTypeDbtRun:          ComponentRegistration{startDbtRun, StepDataConnectionName, false},
	StepTypeDbtTest:         ComponentRegistration{startDbtTest, StepDataConnectionName, false},
	StepTypeDbtSnapshot:     ComponentRegistration{startDbtSnapshot, StepDataConnectionName, false},
	StepTypeSnowflakeUpsert: ComponentRegistration{startSnowflakeUpsert, StepDataConnectionName, true},
	StepTypeCopyFilesToS3:   ComponentRegistration{startCopyFilesToS3, StepDataS3ConnectionName, true},
}

// GetStepTypes returns the sorted names of the registered step types.
func GetStepTypes() []string {
	retval := make([]string, 0, len(componentFuncs))
	for k := range componentFuncs {
		retval = append(retval, k)
	}
	sort.Strings(retval)
	return retval
}
