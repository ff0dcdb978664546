package cmd

import (
	"fmt"

	"github.com/relloyd/eltpipe/actions"
	"github.com/relloyd/eltpipe/config"
	"github.com/relloyd/eltpipe/constants"
	"github.com/spf13/cobra"
)

var configConnCmd = &cobra.Command{
	Use:   "connections",
	Short: "Configure connection details",
	Long: fmt.Sprintf(`Configure Snowflake and S3 connections for use by the pipeline where:

- Connections are stored in file %q
- The pipeline uses connection %q unless --connection-name is supplied
- dbt artifacts are copied to S3 only when --artifacts-connection names an S3 connection`,
		config.Connections.FullPath, constants.DefaultConnectionName),
}

var configConnAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a connection",
	Long: fmt.Sprintf(`Add a named connection of one of the types: %v

The Snowflake connection supplies credentials to dbt and to the merge of raw data into staging.
The S3 connection receives the dbt artifacts after the pipeline.`, actions.GetSupportedConnectionTypes()),
}

func init() {
	configCmd.AddCommand(configConnCmd)
	configCmd.Flags().SortFlags = false
	configConnCmd.AddCommand(configConnAddCmd)
	initConnList()
	initConnRemove()
}
