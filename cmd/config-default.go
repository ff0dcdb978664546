package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/relloyd/eltpipe/actions"
	"github.com/relloyd/eltpipe/config"
	"github.com/spf13/cobra"
)

// noDefaultFlags are never read from the main config file: credentials belong in the connections file
// and the rest only make sense for a single invocation.
var noDefaultFlags = map[string]struct{}{
	"mock":             {},
	"dsn":              {},
	"s3-dsn":           {},
	"force-connection": {},
	"output":           {},
	"file":             {},
}

// defaultKeys returns the sorted flag names that can be given a saved default.
func (f cliFlags) defaultKeys() []string {
	seen := make(map[string]struct{})
	retval := make([]string, 0, len(f))
	for k, sw := range f {
		if _, ok := noDefaultFlags[k]; ok {
			continue
		}
		if _, ok := seen[sw.name]; ok {
			continue
		}
		seen[sw.name] = struct{}{}
		retval = append(retval, sw.name)
	}
	sort.Strings(retval)
	return retval
}

var defaultCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Save default flag values for run, step, merge and serve",
	Long: fmt.Sprintf(`Save default flag values so that repeated pipeline runs need fewer flags, where:

- Defaults are stored in config file %q
- The key is the long name of the flag, for example dbt-dir or connection-name
- Flags given on the command line override saved defaults
- Defaults are ignored when running in 12 factor mode, use ELT_ environment variables instead

Keys that accept defaults:
  %v`, config.Main.FullPath, strings.Join(switches.defaultKeys(), "\n  ")),
}

var defaultAddCfg = actions.DefaultAddConfig{}

var defaultAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Save a default flag value",
	Long: fmt.Sprintf(`Save a default flag value to config file %q

For example, to point every run at a checked out dbt project:
  eltpipe config defaults add -k dbt-dir -v /srv/dbt/eia`, config.Main.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultAddCfg.ConfigFile = config.Main
		defaultAddCfg.Keys = switches.defaultKeys()
		defaultAddCfg.Out = cmd.OutOrStdout()
		return actions.RunDefaultAdd(&defaultAddCfg)
	},
}

var defaultRemoveCfg = actions.DefaultRemoveConfig{}

var defaultRemoveCmd = &cobra.Command{
	Use:     "remove",
	Aliases: []string{"rm", "del", "delete"},
	Short:   "Remove a saved default flag value",
	Long:    fmt.Sprintf("Remove a saved default flag value from config file %q", config.Main.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultRemoveCfg.ConfigFile = config.Main
		defaultRemoveCfg.Out = cmd.OutOrStdout()
		return actions.RunDefaultRemove(&defaultRemoveCfg)
	},
}

var defaultListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Print saved default flag values",
	Long:    fmt.Sprintf("Print the default flag values saved in config file %q as <key>=<value>", config.Main.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		return actions.RunDefaultList(&actions.DefaultListConfig{ConfigFile: config.Main, Out: cmd.OutOrStdout()})
	},
}

func init() {
	configCmd.AddCommand(defaultCmd)
	defaultCmd.AddCommand(defaultAddCmd, defaultRemoveCmd, defaultListCmd)
	defaultAddCmd.Flags().SortFlags = false
	defaultAddCmd.Flags().StringVarP(&defaultAddCfg.Key, "key", "k", "", "* Long name of the flag to default, e.g. dbt-dir")
	defaultAddCmd.Flags().StringVarP(&defaultAddCfg.Value, "value", "v", "", "* The value to save")
	defaultAddCmd.Flags().BoolVarP(&defaultAddCfg.Force, "force", "f", false, "Overwrite a saved value")
	_ = defaultAddCmd.MarkFlagRequired("key")
	_ = defaultAddCmd.MarkFlagRequired("value")
	defaultAddCmd.SilenceUsage = true
	defaultRemoveCmd.Flags().StringVarP(&defaultRemoveCfg.Key, "key", "k", "", "* Long name of the flag whose default is removed")
	_ = defaultRemoveCmd.MarkFlagRequired("key")
	defaultRemoveCmd.SilenceUsage = true
}
