package steps_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-kvcms/internal/objectstore"
	"github.com/goliatone/go-kvcms/internal/steps"
)

func TestSequenceRunsStepsInOrder(t *testing.T) {
	var calls []string
	record := func(name string) steps.Func {
		return func(context.Context) error {
			calls = append(calls, name)
			return nil
		}
	}

	seq := steps.New("content.delete", nil).
		Then("delete_object", record("delete_object")).
		Then("delete_states", record("delete_states")).
		Then("delete_versions", record("delete_versions"))

	report, err := seq.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Completed() {
		t.Fatalf("expected completed report, got %+v", report)
	}
	want := []string{"delete_object", "delete_states", "delete_versions"}
	for i, name := range want {
		if calls[i] != name {
			t.Fatalf("call %d: expected %s, got %s", i, name, calls[i])
		}
	}
}

func TestSequenceStopsOnRequiredFailure(t *testing.T) {
	boom := &objectstore.NotFoundError{Container: "content-item-state", Key: "bu_item-1"}
	ran := false

	seq := steps.New("content.delete", nil).
		Then("delete_object", func(context.Context) error { return nil }).
		Then("delete_states", func(context.Context) error { return boom }).
		Then("delete_versions", func(context.Context) error { ran = true; return nil })

	report, err := seq.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var stepErr *steps.StepError
	if !errors.As(err, &stepErr) || stepErr.Step != "delete_states" {
		t.Fatalf("expected StepError for delete_states, got %v", err)
	}
	if !objectstore.IsNotFound(err) {
		t.Fatalf("expected step error to unwrap to not found, got %v", err)
	}
	if ran {
		t.Fatal("steps after a required failure must not run")
	}

	outcomes := []steps.Outcome{steps.OutcomeDone, steps.OutcomeFailed, steps.OutcomeSkipped}
	for i, want := range outcomes {
		if report.Results[i].Outcome != want {
			t.Fatalf("result %d: expected %s, got %s", i, want, report.Results[i].Outcome)
		}
	}
}

func TestSequenceContinuesPastOptionalFailure(t *testing.T) {
	seq := steps.New("pages.delete", nil).
		ThenOptional("delete_component:a", func(context.Context) error { return errors.New("store down") }).
		Then("delete_page", func(context.Context) error { return nil })

	report, err := seq.Run(context.Background())
	if err != nil {
		t.Fatalf("optional failure should not abort: %v", err)
	}
	if report.Completed() {
		t.Fatal("report should not be completed with a failed step")
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Step != "delete_component:a" || !failed[0].Optional {
		t.Fatalf("unexpected failed steps %+v", failed)
	}
	if got := seq.Steps(); len(got) != 2 || got[1] != "delete_page" {
		t.Fatalf("unexpected step names %v", got)
	}
}
