package helper

import (
	"os"
	"testing"
)

func TestGetDsnEnvVarName(t *testing.T) {
	got := GetDsnEnvVarName("snowflake")
	expected := "ELT_SNOWFLAKE_DSN"
	if got != expected {
		t.Fatalf("expected %q; got %q", expected, got)
	}
	got = GetDsnEnvVarName(" my-s3 ")
	expected = "ELT_MY_S3_DSN"
	if got != expected {
		t.Fatalf("expected %q; got %q", expected, got)
	}
}

func TestReadValueFromEnvWithDefault(t *testing.T) {
	t.Setenv("ELT_TEST_VALUE", "abc")
	if got := ReadValueFromEnvWithDefault("ELT_TEST_VALUE", "def"); got != "abc" {
		t.Fatalf("expected %q; got %q", "abc", got)
	}
	if got := ReadValueFromEnvWithDefault("ELT_TEST_VALUE_UNSET", "def"); got != "def" {
		t.Fatalf("expected %q; got %q", "def", got)
	}
	if _, err := GetEnvVar("ELT_TEST_VALUE_UNSET", true); err == nil {
		t.Fatal("expected error for missing mandatory variable")
	}
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/usr/bin", "HOME=/root", "DBT_USER=old"}
	got := EnvToMap(MergeEnv(base, map[string]string{"DBT_USER": "new", "DBT_TYPE": "snowflake"}, "/opt/bin"))
	if got["PATH"] != "/usr/bin"+string(os.PathListSeparator)+"/opt/bin" {
		t.Fatalf("unexpected PATH %q", got["PATH"])
	}
	if got["DBT_USER"] != "new" {
		t.Fatalf("expected overlay to win; got %q", got["DBT_USER"])
	}
	if got["DBT_TYPE"] != "snowflake" || got["HOME"] != "/root" {
		t.Fatalf("unexpected env %v", got)
	}
	// No PATH in base.
	got = EnvToMap(MergeEnv(nil, nil, "/opt/bin"))
	if got["PATH"] != "/opt/bin" {
		t.Fatalf("unexpected PATH %q", got["PATH"])
	}
}
