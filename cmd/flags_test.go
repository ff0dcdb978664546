package cmd

import (
	"os"
	"sort"
	"testing"

	"github.com/relloyd/eltpipe/config"
	"github.com/spf13/cobra"
)

func TestGetCliFlag(t *testing.T) {
	defer func() { twelveFactorMode = false }()
	fnGetConfig := func(key string, out interface{}) error {
		return config.KeyNotFoundError{}
	}
	flagName := "mock"
	mockEnvVar := flagNameToEnvVar(flagName)
	expected := "envTest"
	d := "myDefault"
	// Test 1 - test default value applied to mock CLI flag.
	twelveFactorMode = false
	got := switches.getCliFlag(flagName, d, fnGetConfig)
	if got.val != d { // if no default was applied...
		t.Fatalf("test 1 failed: expected default value %v to be applied to mock CLI flag, got %v", d, got.val)
	}
	// Test 2 - fetch flag value from environment when it is not set - expect default value to be applied.
	twelveFactorMode = true
	_ = os.Unsetenv(mockEnvVar)
	got = switches.getCliFlag(flagName, d, fnGetConfig)
	if got.val != d {
		t.Fatalf("test 2 failed: expected default value (%v) to be applied to mock CLI flag fetched via environment variable (%v)", d, mockEnvVar)
	}
	// Test 3 - fetch flag value from environment after setting it explicitly (requires twelveFactorMode).
	if err := os.Setenv(mockEnvVar, expected); err != nil {
		t.Fatalf("test 3 failed: unable to set environment variable %v", mockEnvVar)
	}
	defer os.Unsetenv(mockEnvVar)
	got = switches.getCliFlag(flagName, d, fnGetConfig)
	if got.val != expected {
		t.Fatalf("test 3 failed: expected value (%v) to be applied to mock CLI flag (%v) fetched from environment variable (%v); got: %v", expected, flagName, mockEnvVar, got.val)
	}
}

func TestGetCliFlagFromConfig(t *testing.T) {
	twelveFactorMode = false
	f := config.NewConfigFileWithDir(t.TempDir(), config.MainFileFullName)
	if err := f.Set("dbt-dir", "/srv/dbt"); err != nil {
		t.Fatal(err)
	}
	got := switches.getCliFlag("dbt-dir", "/opt/airflow/dbt", f.Get)
	if got.val != "/srv/dbt" {
		t.Fatalf("expected default from config, got %v", got.val)
	}
	got = switches.getCliFlag("dbt-bin", "dbt", f.Get)
	if got.val != "dbt" {
		t.Fatalf("expected fallback default, got %v", got.val)
	}
}

func TestFlagNameToEnvVar(t *testing.T) {
	cases := map[string]string{
		"dbt-dir":   "ELT_DBT_DIR",
		"dbt-bin":   "ELT_DBT_BIN",
		"log-level": "ELT_LOG_LEVEL",
	}
	for in, want := range cases {
		if got := flagNameToEnvVar(in); got != want {
			t.Fatalf("flagNameToEnvVar(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAddFlag(t *testing.T) {
	twelveFactorMode = false
	c := &cobra.Command{Use: "test"}
	var s string
	var n int
	var b bool
	switches.addFlag(c, &s, "mock", "abc", true, "")
	switches.addFlag(c, &n, "stats", "7", false, "")
	switches.addFlag(c, &b, "web-service", "", false, "")
	if s != "abc" || n != 7 || b {
		t.Fatalf("unexpected flag defaults: %q %v %v", s, n, b)
	}
	if err := c.Flags().Parse([]string{"--mock", "xyz", "-L", "3", "-w"}); err != nil {
		t.Fatal(err)
	}
	if s != "xyz" || n != 3 || !b {
		t.Fatalf("unexpected parsed flags: %q %v %v", s, n, b)
	}
	// Twelve factor mode reads the environment instead of registering flags.
	twelveFactorMode = true
	defer func() { twelveFactorMode = false }()
	_ = os.Setenv("ELT_STATS", "11")
	defer os.Unsetenv("ELT_STATS")
	c2 := &cobra.Command{Use: "test2"}
	switches.addFlag(c2, &n, "stats", "5", false, "")
	if n != 11 {
		t.Fatalf("expected stats from the environment, got %v", n)
	}
	if c2.Flags().Lookup("stats") != nil {
		t.Fatal("expected no flag to be registered in twelve factor mode")
	}
}

func TestDefaultKeys(t *testing.T) {
	keys := switches.defaultKeys()
	for _, want := range []string{"artifacts-connection", "connection-name", "dbt-bin", "dbt-dir", "key-cols", "target-table"} {
		found := false
		for _, k := range keys {
			found = found || k == want
		}
		if !found {
			t.Fatalf("expected %q to accept a default; got %v", want, keys)
		}
	}
	for _, k := range keys {
		if k == "dsn" || k == "mock" || k == "force" || k == "file" {
			t.Fatalf("expected %q to be refused as a default", k)
		}
	}
	if !sort.StringsAreSorted(keys) {
		t.Fatalf("expected sorted keys; got %v", keys)
	}
}
