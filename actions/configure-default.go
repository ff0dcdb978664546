package actions

import (
	"fmt"
	"io"
	"strings"

	"github.com/relloyd/eltpipe/helper"
)

// DefaultsFile stores default flag values keyed by flag name.
type DefaultsFile interface {
	Get(key string, out interface{}) error
	Set(key string, val interface{}) error
	Delete(key string) error
	GetAllKeys() ([]string, error)
}

type DefaultAddConfig struct {
	ConfigFile DefaultsFile `errorTxt:"config-file" mandatory:"yes"`
	Key        string       `errorTxt:"key" mandatory:"yes"`
	Value      string       `errorTxt:"value" mandatory:"yes"`
	Force      bool
	Keys       []string // accepted keys; empty accepts any key
	Out        io.Writer
}

type DefaultRemoveConfig struct {
	ConfigFile DefaultsFile `errorTxt:"config-file" mandatory:"yes"`
	Key        string       `errorTxt:"key" mandatory:"yes"`
	Out        io.Writer
}

type DefaultListConfig struct {
	ConfigFile DefaultsFile `errorTxt:"config-file" mandatory:"yes"`
	Out        io.Writer
}

// RunDefaultAdd adds key+value to the given config file.
// If cfg.Force is not set then it returns an error when the key exists.
// Keys missing from cfg.Keys are refused since no flag would read them.
// The config file is created when the first value is saved.
func RunDefaultAdd(cfg *DefaultAddConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil { // if the basics were not supplied...
		return err
	}
	if len(cfg.Keys) > 0 && !isKnownKey(cfg.Key, cfg.Keys) {
		return fmt.Errorf("key %q is not a flag that accepts a default, choose one of: %v", cfg.Key, strings.Join(cfg.Keys, ", "))
	}
	var val string
	if err := cfg.ConfigFile.Get(cfg.Key, &val); err == nil && !cfg.Force { // if key exists and we're not allowed to overwrite...
		return fmt.Errorf("key %q exists, use force to update the value or remove it first", cfg.Key)
	} else if err != nil && !isMissingKeyOrFile(err) { // else there was an unexpected error...
		return err
	}
	if err := cfg.ConfigFile.Set(cfg.Key, cfg.Value); err != nil {
		return fmt.Errorf("error writing config file after adding: %w", err)
	}
	fmt.Fprintf(out(cfg.Out), "Key %q added\n", cfg.Key)
	return nil
}

func isKnownKey(key string, keys []string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// RunDefaultRemove removes a key from the given config file.
func RunDefaultRemove(cfg *DefaultRemoveConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil { // if the basics were not supplied...
		return err
	}
	if err := cfg.ConfigFile.Delete(cfg.Key); err != nil {
		return fmt.Errorf("unable to delete key %q from config: %w", cfg.Key, err)
	}
	fmt.Fprintf(out(cfg.Out), "Key %q removed\n", cfg.Key)
	return nil
}

// RunDefaultList prints key=value for every saved default.
func RunDefaultList(cfg *DefaultListConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	keys, err := cfg.ConfigFile.GetAllKeys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		var val string
		if err := cfg.ConfigFile.Get(k, &val); err != nil {
			return err
		}
		fmt.Fprintf(out(cfg.Out), "%v=%v\n", k, val)
	}
	return nil
}
