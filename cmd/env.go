package cmd

import (
	"github.com/relloyd/eltpipe/actions"
	"github.com/relloyd/eltpipe/constants"
	"github.com/spf13/cobra"
)

var envCfg = actions.RunConfig{StepName: constants.StepNameShowEnv}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print PATH and the DBT_* variables that dbt will see",
	Long: `Print PATH and the DBT_* variables that dbt will see.
The variables are derived from the Snowflake connection. DBT_PASSWORD is redacted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runEnv()
	},
}

func runEnv() error {
	envCfg.Connections = getConnectionLoader()
	envCfg.StackDumpOnPanic = stackDumpOnPanic
	return actions.RunPipeline(&envCfg, nil)
}

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().SortFlags = false
	switches.addFlag(envCmd, &envCfg.ConnectionName, "connection-name", defaultConnectionName(), false, "")
	switches.addFlag(envCmd, &envCfg.DbtExtraPath, "dbt-extra-path", constants.DbtExtraPathDefault, false, "")
	switches.addFlag(envCmd, &envCfg.LogLevel, "log-level", "warn", false, "")
}
