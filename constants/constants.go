package constants

// Pipeline

const (
	StatsCaptureFrequencySeconds = 5
	TimeFormatYearSeconds        = "20060102T150405" // used for human readable S3 key prefixes
	TimeFormatYearSecondsRegex   = "[0-9]{4}[0-9]{2}[0-9]{2}T[0-9]{6}"
	EmojiBang                    = "\U0001F4A5"
	EmojiTick                    = "✅"
	EnvVarPrefix                 = "ELT" // prefixed for environment variables in twelveFactorMode
	ServiceName                  = "eltpipe"
	ConfigDirName                = ".eltpipe"
	ConnectionTypeSnowflake      = "snowflake"
	ConnectionTypeMockSnowflake  = "mockSnowflake"
	ConnectionTypeS3             = "s3"
	DefaultConnectionName        = "snowflake_conn"
)

// dbt

const (
	DbtBinDefault         = "dbt"
	DbtDirDefault         = "/opt/airflow/dbt"
	DbtExtraPathDefault   = "/home/airflow/.local/bin"
	DbtSchemaDefault      = "ANALYTICS"
	DbtSubcommandRun      = "run"
	DbtSubcommandTest     = "test"
	DbtSubcommandSnapshot = "snapshot"
	DbtEnvVarUser         = "DBT_USER"
	DbtEnvVarPassword     = "DBT_PASSWORD"
	DbtEnvVarAccount      = "DBT_ACCOUNT"
	DbtEnvVarSchema       = "DBT_SCHEMA"
	DbtEnvVarDatabase     = "DBT_DATABASE"
	DbtEnvVarRole         = "DBT_ROLE"
	DbtEnvVarWarehouse    = "DBT_WAREHOUSE"
	DbtEnvVarType         = "DBT_TYPE"
	DbtEnvVarPrefix       = "DBT_"
	DbtTargetDirName      = "target"
	DbtArtifactRunResults = "run_results.json"
	DbtArtifactManifest   = "manifest.json"
	DbtArtifactSources    = "sources.json"
	RedactedValue         = "xxxxx"
)

// Upsert defaults mirror the electricity RTO hourly tables.

const (
	UpsertSourceSchemaDefault   = "RAW"
	UpsertSourceTableDefault    = "RTO_REGION_HOURLY"
	UpsertTargetSchemaDefault   = "STAGING"
	UpsertTargetTableDefault    = "RTO_REGION_HOURLY_STAGING"
	UpsertConstraintNameDefault = "PK_RTO_REGION"
	UpsertKeyColsDefault        = "REGION:STRING,DATE:TIMESTAMP_NTZ,SERIES:STRING"
	UpsertOtherColsDefault      = "VALUE:FLOAT"
)

// Pipeline step names in the default sequence.

const (
	StepNameShowEnv     = "show-env"
	StepNameDbtRun      = "dbt-run"
	StepNameMerge       = "merge"
	StepNameDbtTest     = "dbt-test"
	StepNameDbtSnapshot = "dbt-snapshot"
	StepNameArtifacts   = "copy-artifacts"
)
