package cmd

import (
	"net"

	"github.com/relloyd/eltpipe/actions"
	"github.com/spf13/cobra"
)

var runCfg = actions.RunConfig{}
var runPipeFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ELT pipeline",
	Long: `Run the ELT pipeline in order, stopping at the first failure:

  1. show-env       print PATH and the DBT_* variables dbt will see
  2. dbt-run        build the dbt models
  3. merge          upsert the raw table into the staging table in Snowflake
  4. dbt-test       run the dbt tests
  5. dbt-snapshot   take dbt snapshots
  6. copy-artifacts copy dbt run results to S3 (only with --artifacts-connection)

Supply --file to run a pipe described in YAML or JSON instead, or use --output to print
the default pipe so it can be edited and saved.
Optionally run a web server to monitor progress and health remotely.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runPipeline()
	},
}

func runPipeline() error {
	runCfg.Connections = getConnectionLoader()
	runCfg.StackDumpOnPanic = stackDumpOnPanic
	serveConfig.LogLevel = runCfg.LogLevel
	serveConfig.DbtBin = runCfg.DbtBin
	serveConfig.DbtProjectDir = runCfg.DbtProjectDir
	serveConfig.DbtProfilesDir = runCfg.DbtProfilesDir
	serveConfig.DbtExtraPath = runCfg.DbtExtraPath
	if runPipeFile != "" { // if the user supplied their own pipe...
		return actions.RunPipeFromFile(&actions.PipeConfig{
			TransformFile:             runPipeFile,
			Connections:               runCfg.Connections,
			WithWebService:            runCfg.WithWebService,
			LogLevel:                  runCfg.LogLevel,
			StackDumpOnPanic:          runCfg.StackDumpOnPanic,
			StatsDumpFrequencySeconds: runCfg.StatsDumpFrequencySeconds,
		}, &serveConfig)
	}
	return actions.RunPipeline(&runCfg, &serveConfig)
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().SortFlags = false
	addCommonRunFlags(runCmd, &runCfg)
	switches.addFlag(runCmd, &runCfg.ArtifactsConnectionName, "artifacts-connection", "", false, "")
	addDbtFlags(runCmd, &runCfg)
	addMergeFlags(runCmd, &runCfg)
	switches.addFlag(runCmd, &runPipeFile, "file", "", false, "")
	_ = runCmd.MarkFlagFilename("file", "json", "yaml", "yml")
	switches.addFlag(runCmd, &runCfg.WithWebService, "web-service", "", false, "")
	runCmd.Flags().IPVarP(&serveConfig.Addr, "address", "a", net.IPv4(127, 0, 0, 1), "Address to listen on")
	switches.addFlag(runCmd, &serveConfig.Port, "port", "8080", false, "")
}
