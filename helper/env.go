package helper

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/relloyd/eltpipe/constants"
)

// GetEnvVar fetches OS environment variable.
// If the variable is not set it returns empty string.
// It also returns an error if there is a missing value AND mandatory == true.
func GetEnvVar(k string, mandatory bool) (string, error) {
	if value := os.Getenv(k); value != "" {
		return value, nil
	} else if mandatory {
		return "", fmt.Errorf("environment variable %v is not set", k)
	}
	return "", nil
}

// ReadValueFromEnv will read the env var called name and populate the supplied val.
// If the env var is not set then return an error.
func ReadValueFromEnv(name string, val *string) error {
	v := os.Getenv(name)
	if v != "" { // if the environment variable was set...
		*val = v // update the callers value
		return nil
	}
	return fmt.Errorf("value for environment variable %v not found", name)
}

// ReadValueFromEnvWithDefault will read the value of name from the environment into v.
// If it's not set then it will apply the supplied defaultValue and return v.
func ReadValueFromEnvWithDefault(name string, defaultValue string) (v string) {
	_ = ReadValueFromEnv(name, &v)
	if v == "" && defaultValue != "" { // if the environment variable is not set and we have been given a default value...
		v = defaultValue
	}
	return
}

// GetDsnEnvVarName returns the variable holding the DSN for connectionName in 12 factor mode,
// e.g. ELT_SNOWFLAKE_DSN.
func GetDsnEnvVarName(connectionName string) string {
	n := strings.TrimSpace(strings.ToUpper(connectionName))
	n = strings.ReplaceAll(n, "-", "_")
	return fmt.Sprintf("%v_%v_DSN", constants.EnvVarPrefix, n)
}

func GetRegionEnvVarName(connectionName string) string {
	n := strings.TrimSpace(strings.ToUpper(connectionName))
	n = strings.ReplaceAll(n, "-", "_")
	return fmt.Sprintf("%v_%v_S3_REGION", constants.EnvVarPrefix, n)
}

// MergeEnv overlays the extra variables onto base, which is a slice of KEY=VALUE strings as returned by os.Environ().
// If extraPath is not empty it is appended to PATH, separated by the OS list separator.
// The result is sorted by key.
func MergeEnv(base []string, extra map[string]string, extraPath string) []string {
	m := make(map[string]string, len(base)+len(extra))
	for _, kv := range base {
		k, v := Split(kv, "=")
		m[k] = v
	}
	for k, v := range extra {
		m[k] = v
	}
	if extraPath != "" {
		if p, ok := m["PATH"]; ok && p != "" {
			m["PATH"] = p + string(os.PathListSeparator) + extraPath
		} else {
			m["PATH"] = extraPath
		}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	retval := make([]string, len(keys))
	for idx, k := range keys {
		retval[idx] = k + "=" + m[k]
	}
	return retval
}

// EnvToMap converts KEY=VALUE strings into a map.
func EnvToMap(env []string) map[string]string {
	m := make(map[string]string, len(env))
	for _, kv := range env {
		k, v := Split(kv, "=")
		m[k] = v
	}
	return m
}
