package cmd

import (
	"fmt"
	"strings"

	"github.com/relloyd/eltpipe/actions"
	"github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/transform"
	"github.com/spf13/cobra"
)

var stepCfg = actions.RunConfig{}

var stepCmd = &cobra.Command{
	Use:       fmt.Sprintf("step <%v>", strings.Join(stepNames(), "|")),
	Short:     "Run a single step of the ELT pipeline",
	Long:      `Run a single step of the ELT pipeline with the same flags as the run command.`,
	ValidArgs: stepNames(),
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactValidArgs(1)(cmd, args); err != nil {
			return err
		}
		stepCfg.StepName = args[0]
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runStep()
	},
}

func stepNames() []string {
	return append(transform.DefaultStepNames(), constants.StepNameArtifacts)
}

func runStep() error {
	stepCfg.Connections = getConnectionLoader()
	stepCfg.StackDumpOnPanic = stackDumpOnPanic
	if stepCfg.StepName == constants.StepNameArtifacts && stepCfg.ArtifactsConnectionName == "" {
		return fmt.Errorf("step %v requires --artifacts-connection", constants.StepNameArtifacts)
	}
	return actions.RunPipeline(&stepCfg, nil)
}

func init() {
	rootCmd.AddCommand(stepCmd)
	stepCmd.Flags().SortFlags = false
	addCommonRunFlags(stepCmd, &stepCfg)
	switches.addFlag(stepCmd, &stepCfg.ArtifactsConnectionName, "artifacts-connection", "", false, "")
	addDbtFlags(stepCmd, &stepCfg)
	addMergeFlags(stepCmd, &stepCfg)
}
