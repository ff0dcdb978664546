package cmd

import (
	"github.com/relloyd/eltpipe/actions"
	"github.com/relloyd/eltpipe/constants"
	"github.com/spf13/cobra"
)

var mergeCfg = actions.RunConfig{StepName: constants.StepNameMerge}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Upsert the raw table into the staging table in Snowflake",
	Long: `Upsert the raw table into the staging table in Snowflake.

The staging table is created if it does not exist. Rows are matched on the key columns:
matching rows have their other columns updated and new keys are inserted. The merge runs
in a single transaction that is rolled back on any error.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runMerge()
	},
}

func runMerge() error {
	mergeCfg.Connections = getConnectionLoader()
	mergeCfg.StackDumpOnPanic = stackDumpOnPanic
	return actions.RunPipeline(&mergeCfg, nil)
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().SortFlags = false
	addCommonRunFlags(mergeCmd, &mergeCfg)
	addMergeFlags(mergeCmd, &mergeCfg)
}
