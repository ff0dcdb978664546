package transform

import (
	"encoding/json"
	"testing"
)

func TestStatusMarshalJSON(t *testing.T) {
	cases := map[Status]string{
		StatusMissing:           `""`,
		StatusStarting:          `"starting"`,
		StatusRunning:           `"running"`,
		StatusComplete:          `"complete"`,
		StatusCompleteWithError: `"complete with error"`,
		StatusShutdown:          `"shutdown by user"`,
	}
	for s, expected := range cases {
		b, err := json.Marshal(s)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != expected {
			t.Fatalf("expected %v; got %v", expected, string(b))
		}
	}
	if _, err := json.Marshal(Status(99)); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestTransformIsFinished(t *testing.T) {
	for _, s := range []Status{StatusStarting, StatusRunning} {
		ts := TransformStatus{Status: s}
		if ts.TransformIsFinished() {
			t.Fatalf("expected status %v to be unfinished", s)
		}
	}
	for _, s := range []Status{StatusComplete, StatusCompleteWithError, StatusShutdown} {
		ts := TransformStatus{Status: s}
		if !ts.TransformIsFinished() {
			t.Fatalf("expected status %v to be finished", s)
		}
	}
}
