package cmd

import (
	"fmt"

	"github.com/relloyd/eltpipe/actions"
	"github.com/relloyd/eltpipe/config"
	"github.com/spf13/cobra"
)

var configConnListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Print all connections",
	Long: fmt.Sprintf(`List connections stored in config store %q
by printing them all to STDOUT with passwords redacted`,
		config.Connections.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		f, err := getConnectionGetterSetter()
		if err != nil {
			return err
		}
		return actions.RunConnectionList(&actions.ConnectionListConfig{ConfigFile: f, Out: cmd.OutOrStdout()})
	},
}

func initConnList() {
	configConnCmd.AddCommand(configConnListCmd)
}
