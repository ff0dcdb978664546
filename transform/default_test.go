package transform

import (
	"reflect"
	"testing"

	"github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/rdbms"
	"github.com/relloyd/eltpipe/rdbms/shared"
)

func TestNewDefaultTransformDefinition(t *testing.T) {
	// Test 1: the five stages with the default connection name.
	d := NewDefaultTransformDefinition(DefaultPipelineOptions{Connection: shared.ConnectionDetails{Type: constants.ConnectionTypeSnowflake}})
	expected := []string{"show-env", "dbt-run", "merge", "dbt-test", "dbt-snapshot"}
	if !reflect.DeepEqual(d.Sequence, expected) {
		t.Fatalf("expected sequence %v; got %v", expected, d.Sequence)
	}
	c, ok := d.Connections[constants.DefaultConnectionName]
	if !ok || c.LogicalName != constants.DefaultConnectionName {
		t.Fatalf("expected connection %q; got %v", constants.DefaultConnectionName, d.Connections)
	}
	if d.Steps["merge"].Type != StepTypeSnowflakeUpsert {
		t.Fatalf("expected merge step of type %v; got %v", StepTypeSnowflakeUpsert, d.Steps["merge"].Type)
	}
	if err := ValidateTransformDefinition(d); err != nil {
		t.Fatal(err)
	}
	// Test 2: overrides are saved in step data.
	d = NewDefaultTransformDefinition(DefaultPipelineOptions{
		ConnectionName:    "sf",
		DbtProjectDir:     "/tmp/dbt",
		SourceSchemaTable: rdbms.NewSchemaTable("RAW2", "T1"),
		TargetKeyCols:     "ID:NUMBER",
	})
	if d.Steps["dbt-test"].Data[StepDataDbtProjectDir] != "/tmp/dbt" {
		t.Fatalf("expected dbt project dir override; got %v", d.Steps["dbt-test"].Data)
	}
	if d.Steps["merge"].Data[StepDataSourceSchemaTable] != "RAW2.T1" || d.Steps["merge"].Data[StepDataTargetKeyCols] != "ID:NUMBER" {
		t.Fatalf("expected merge overrides; got %v", d.Steps["merge"].Data)
	}
	if _, ok := d.Steps["merge"].Data[StepDataTargetSchemaTable]; ok {
		t.Fatal("expected unset target table to fall back to the step default")
	}
	// Test 3: the artifacts copy is appended.
	d = NewDefaultTransformDefinition(DefaultPipelineOptions{
		ArtifactsConnectionName: "s3conn",
		ArtifactsConnection:     shared.ConnectionDetails{Type: constants.ConnectionTypeS3},
	})
	if len(d.Sequence) != 6 || d.Sequence[5] != constants.StepNameArtifacts {
		t.Fatalf("expected artifacts step last; got %v", d.Sequence)
	}
	if d.Connections["s3conn"].LogicalName != "s3conn" {
		t.Fatalf("expected s3 connection logical name; got %v", d.Connections["s3conn"])
	}
}

func TestNewSingleStepTransformDefinition(t *testing.T) {
	d, err := NewSingleStepTransformDefinition(DefaultPipelineOptions{}, constants.StepNameDbtSnapshot)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(d.Sequence, []string{"dbt-snapshot"}) {
		t.Fatalf("unexpected sequence %v", d.Sequence)
	}
	if len(d.Steps) != 1 {
		t.Fatalf("expected one step, got %v", len(d.Steps))
	}
	if _, err = NewSingleStepTransformDefinition(DefaultPipelineOptions{}, "seed"); err == nil {
		t.Fatal("expected error for unknown step")
	}
}
