package cmd

import (
	"fmt"

	"github.com/relloyd/eltpipe/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure connections and default flag values",
	Long: fmt.Sprintf(`Configure connections & default parameters where:

- Connections are stored in file %q
- Default flag values are stored in file %q

Set %v to use another directory.
`, config.Connections.FullPath, config.Main.FullPath, config.ConfigDirEnvVar),
}

func init() {
	rootCmd.AddCommand(configCmd)
}
