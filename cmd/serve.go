package cmd

import (
	"net"
	"strconv"

	"github.com/relloyd/eltpipe/actions"
	"github.com/relloyd/eltpipe/constants"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a web service and listen for pipes described in JSON",
	Long: `Start a web service and listen for pipes described in JSON.

  POST /launch              launch a pipe (Content-Type: application/json)
  GET  /pipes               list pipes and their status
  GET  /pipes/{id}/status   pipe status
  GET  /pipes/{id}/stats    step statistics
  GET  /pipes/{id}/stop     stop a running pipe
  GET  /health              health check
  GET  /stop                stop running pipes and shut down the server

Connections that are missing credentials in the pipe are loaded by name from config.
The dbt executable and directories always come from this command's flags: any supplied
in a posted pipe are ignored. The server has no authentication so it listens on
127.0.0.1 unless --address is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		serveConfig.Connections = getConnectionLoader()
		serveConfig.StackDumpOnPanic = stackDumpOnPanic
		cmd.SilenceUsage = true
		return actions.RunWebServer(&serveConfig)
	},
}

var serveConfig = actions.WebServerConfig{
	LogLevel:                  "info",
	Scheme:                    "http",
	Addr:                      net.IPv4(127, 0, 0, 1),
	Port:                      8080,
	StatsDumpFrequencySeconds: constants.StatsCaptureFrequencySeconds,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().SortFlags = false
	serveCmd.Flags().IPVarP(&serveConfig.Addr, "address", "a", net.IPv4(127, 0, 0, 1), "Address to listen on")
	switches.addFlag(serveCmd, &serveConfig.Port, "port", "8080", false, "")
	switches.addFlag(serveCmd, &serveConfig.LogLevel, "log-level", "info", false, "")
	switches.addFlag(serveCmd, &serveConfig.StatsDumpFrequencySeconds, "stats", strconv.Itoa(constants.StatsCaptureFrequencySeconds), false, "")
	switches.addFlag(serveCmd, &serveConfig.DbtProjectDir, "dbt-dir", constants.DbtDirDefault, false, "")
	switches.addFlag(serveCmd, &serveConfig.DbtProfilesDir, "dbt-profiles-dir", "", false, "")
	switches.addFlag(serveCmd, &serveConfig.DbtBin, "dbt-bin", constants.DbtBinDefault, false, "")
	switches.addFlag(serveCmd, &serveConfig.DbtExtraPath, "dbt-extra-path", constants.DbtExtraPathDefault, false, "")
}
