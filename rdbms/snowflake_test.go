package rdbms

import (
	"strings"
	"testing"

	"github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/rdbms/shared"
)

func TestSnowflakeParseDSN(t *testing.T) {
	// Test 1, missing prefix.
	if _, err := SnowflakeParseDSN("bob:pw@xy12345/EIA_DB"); err == nil {
		t.Fatal("expected error for DSN without snowflake:// prefix")
	}
	// Test 2, all parts.
	d, err := SnowflakeParseDSN("snowflake://bob:pw@xy12345/EIA_DB?schema=PUBLIC&warehouse=COMPUTE_WH&role=TRANSFORMER")
	if err != nil {
		t.Fatal(err)
	}
	if d.User != "bob" || d.Password != "pw" || d.Account != "xy12345" || d.DBName != "EIA_DB" ||
		d.Schema != "PUBLIC" || d.Warehouse != "COMPUTE_WH" || d.RoleName != "TRANSFORMER" {
		t.Fatalf("unexpected connection details: %+v", d)
	}
	if strings.Contains(d.String(), "pw@") {
		t.Fatalf("expected password to be redacted; got %q", d.String())
	}
}

func TestSnowflakeConnectionDetails_DbtEnv(t *testing.T) {
	// Test 1, schema defaults to ANALYTICS and missing values are empty.
	d, err := NewSnowflakeConnectionDetails(shared.ConnectionDetails{
		Type:        constants.ConnectionTypeSnowflake,
		LogicalName: "snowflake_conn",
		Data:        map[string]string{"dsn": "snowflake://bob:pw@xy12345/EIA_DB?warehouse=COMPUTE_WH"},
	})
	if err != nil {
		t.Fatal(err)
	}
	env := d.DbtEnv()
	expected := map[string]string{
		"DBT_USER":      "bob",
		"DBT_PASSWORD":  "pw",
		"DBT_ACCOUNT":   "xy12345",
		"DBT_SCHEMA":    "ANALYTICS",
		"DBT_DATABASE":  "EIA_DB",
		"DBT_ROLE":      "",
		"DBT_WAREHOUSE": "COMPUTE_WH",
		"DBT_TYPE":      "snowflake",
	}
	if len(env) != len(expected) {
		t.Fatalf("expected %v variables; got %v", len(expected), env)
	}
	for k, v := range expected {
		got, ok := env[k]
		if !ok || got != v {
			t.Fatalf("expected %v=%q; got %q", k, v, got)
		}
	}
	// Test 2, explicit schema wins.
	d.Schema = "MARTS"
	if got := d.DbtEnv()["DBT_SCHEMA"]; got != "MARTS" {
		t.Fatalf("expected %q; got %q", "MARTS", got)
	}
	// Test 3, wrong connection type.
	if _, err := NewSnowflakeConnectionDetails(shared.ConnectionDetails{Type: "s3"}); err == nil {
		t.Fatal("expected error for non-Snowflake connection")
	}
}

func TestSnowflakeGetDSN(t *testing.T) {
	dsn, err := SnowflakeGetDSN(&SnowflakeConnectionDetails{Account: "xy12345", User: "bob", Password: "pw", DBName: "EIA_DB"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(dsn, "snowflake://") {
		t.Fatalf("expected snowflake:// prefix; got %q", dsn)
	}
	if !strings.Contains(dsn, "EIA_DB") || !strings.Contains(dsn, "bob") {
		t.Fatalf("expected database and user in generated DSN; got %q", dsn)
	}
}
