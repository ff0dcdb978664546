package config

import (
	"fmt"
	"os"
	"path"

	"github.com/mitchellh/go-homedir"
	"github.com/relloyd/eltpipe/constants"
)

// ConfigDirEnvVar overrides the config directory, which defaults to ~/.eltpipe
const ConfigDirEnvVar = constants.EnvVarPrefix + "_CONFIG_DIR"

// mustGetConfigHomeDir returns the full path to the home directory that stores all config files.
// Uses global variable.
func mustGetConfigHomeDir() string {
	if eltPipeHomeDir == "" {
		if d := os.Getenv(ConfigDirEnvVar); d != "" {
			eltPipeHomeDir = d
			return eltPipeHomeDir
		}
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		eltPipeHomeDir = path.Join(home, constants.ConfigDirName)
	}
	return eltPipeHomeDir
}

// makeDir will make the given directory if it does not already exist.
func makeDir(dir string) error {
	_, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if err = os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("error creating directory %v: %w", dir, err)
		}
	} else if err != nil {
		return err
	}
	return nil
}
