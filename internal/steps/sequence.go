// Package steps runs cascading multi-object mutations as named, ordered,
// best-effort sequences. The object store has no transactions, so a failure
// partway through leaves earlier steps applied. The Report records exactly
// which steps ran, failed, or were skipped so callers and logs can show the
// partial state.
package steps

import (
	"context"
	"fmt"

	"github.com/goliatone/go-kvcms/internal/logging"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// Func is the body of a single step.
type Func func(ctx context.Context) error

// Step is one named action in a sequence. Optional steps record their error
// and let the sequence continue; required steps abort it.
type Step struct {
	Name     string
	Run      Func
	Optional bool
}

// Outcome describes what happened to a step.
type Outcome string

const (
	OutcomeDone    Outcome = "done"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Result is the per-step entry of a Report.
type Result struct {
	Step     string
	Outcome  Outcome
	Optional bool
	Err      error
}

// Report is the ordered record of a sequence run.
type Report struct {
	Sequence string
	Results  []Result
}

// Failed returns the results of steps that returned an error.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed {
			out = append(out, res)
		}
	}
	return out
}

// Completed reports whether every step ran without error.
func (r Report) Completed() bool {
	for _, res := range r.Results {
		if res.Outcome != OutcomeDone {
			return false
		}
	}
	return true
}

// StepError identifies the required step that aborted a sequence. It unwraps
// to the step's own error so category checks keep working upstream.
type StepError struct {
	Sequence string
	Step     string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: step %q failed: %v", e.Sequence, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Sequence is an ordered list of steps sharing a name used in logs.
type Sequence struct {
	name   string
	steps  []Step
	logger interfaces.Logger
}

// New creates an empty sequence. A nil logger discards step logs.
func New(name string, logger interfaces.Logger) *Sequence {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Sequence{name: name, logger: logger}
}

// Then appends a required step.
func (s *Sequence) Then(name string, fn Func) *Sequence {
	s.steps = append(s.steps, Step{Name: name, Run: fn})
	return s
}

// ThenOptional appends a step whose failure is logged and tolerated.
func (s *Sequence) ThenOptional(name string, fn Func) *Sequence {
	s.steps = append(s.steps, Step{Name: name, Run: fn, Optional: true})
	return s
}

// Steps returns the step names in execution order.
func (s *Sequence) Steps() []string {
	names := make([]string, len(s.steps))
	for i, step := range s.steps {
		names[i] = step.Name
	}
	return names
}

// Run executes the steps in order. It stops at the first failing required
// step, marks the remaining steps skipped, and returns a *StepError. The
// report is always returned, including on error.
func (s *Sequence) Run(ctx context.Context) (Report, error) {
	report := Report{Sequence: s.name, Results: make([]Result, 0, len(s.steps))}
	logger := s.logger.WithContext(ctx)

	for i, step := range s.steps {
		var err error
		if step.Run != nil {
			err = step.Run(ctx)
		}
		if err == nil {
			report.Results = append(report.Results, Result{Step: step.Name, Outcome: OutcomeDone, Optional: step.Optional})
			continue
		}

		report.Results = append(report.Results, Result{Step: step.Name, Outcome: OutcomeFailed, Optional: step.Optional, Err: err})
		if step.Optional {
			logger.Warn(s.name+".step_failed", "step", step.Name, "error", err)
			continue
		}

		logger.Error(s.name+".step_failed", "step", step.Name, "completed", completedNames(report), "error", err)
		for _, rest := range s.steps[i+1:] {
			report.Results = append(report.Results, Result{Step: rest.Name, Outcome: OutcomeSkipped, Optional: rest.Optional})
		}
		return report, &StepError{Sequence: s.name, Step: step.Name, Err: err}
	}
	return report, nil
}

func completedNames(report Report) []string {
	var names []string
	for _, res := range report.Results {
		if res.Outcome == OutcomeDone {
			names = append(names, res.Step)
		}
	}
	return names
}
