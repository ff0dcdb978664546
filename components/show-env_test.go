package components_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/relloyd/eltpipe/components"
	"github.com/relloyd/eltpipe/logger"
)

func TestShowEnv(t *testing.T) {
	log := logger.NewLogger("eltpipe", "info", true)
	t.Setenv("PATH", "/usr/bin")
	t.Setenv("DBT_PROFILES_DIR", "/opt/airflow/dbt")
	out := &bytes.Buffer{}
	err := components.ShowEnv(&components.ShowEnvConfig{
		Log:       log,
		Name:      "show-env",
		Env:       map[string]string{"DBT_USER": "bob", "DBT_PASSWORD": "secret", "DBT_ROLE": ""},
		ExtraPath: "/home/airflow/.local/bin",
		Out:       out,
	})
	if err != nil {
		t.Fatal(err)
	}
	expected := strings.Join([]string{
		"PATH is: /usr/bin" + string(os.PathListSeparator) + "/home/airflow/.local/bin",
		"DBT_PASSWORD=xxxxx",
		"DBT_PROFILES_DIR=/opt/airflow/dbt",
		"DBT_ROLE=",
		"DBT_USER=bob",
	}, "\n") + "\n"
	if out.String() != expected {
		t.Fatalf("expected %q; got %q", expected, out.String())
	}
	if strings.Contains(out.String(), "secret") {
		t.Fatal("password must not be printed")
	}
}
