package components

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/helper"
	"github.com/relloyd/eltpipe/logger"
)

type ShowEnvConfig struct {
	Log       logger.Logger     `errorTxt:"logger" mandatory:"yes"`
	Name      string            `errorTxt:"step name" mandatory:"yes"`
	Env       map[string]string // variables exported to dbt on top of the current environment.
	ExtraPath string            // appended to PATH as it would be for dbt.
	Out       io.Writer         // defaults to stdout.
}

// ShowEnv prints the PATH and every DBT_* variable that dbt will see, sorted by name.
// The value of DBT_PASSWORD is redacted.
func ShowEnv(cfg *ShowEnvConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	env := helper.EnvToMap(helper.MergeEnv(os.Environ(), cfg.Env, cfg.ExtraPath))
	lines := make([]string, 0)
	for k, v := range env {
		if !strings.HasPrefix(k, constants.DbtEnvVarPrefix) {
			continue
		}
		if k == constants.DbtEnvVarPassword && v != "" {
			v = constants.RedactedValue
		}
		lines = append(lines, fmt.Sprintf("%v=%v", k, v))
	}
	sort.Strings(lines)
	if _, err := fmt.Fprintf(out, "PATH is: %v\n", env["PATH"]); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(out, l); err != nil {
			return err
		}
	}
	cfg.Log.Debug(cfg.Name, " printed ", len(lines), " dbt variables")
	return nil
}
