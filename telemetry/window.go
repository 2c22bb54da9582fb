package telemetry

import (
	"context"
	"errors"
	"time"

	"runmeter.sh/stats"
)

// ErrWindowUnresolved reports that a window source found no matching step
// or command record. The reporter degrades to an unbounded window with
// unknown duration instead of failing the report.
var ErrWindowUnresolved = errors.New("execution window unresolved")

// Window is the inclusive time span a report covers, in epoch
// milliseconds. An unbounded window keeps every fetched sample in scope
// and carries no duration.
type Window struct {
	Start     int64
	End       int64
	Duration  int64 // whole seconds between Start and End
	Unbounded bool
}

// FullStreamWindow returns the unbounded window.
func FullStreamWindow() Window {
	return Window{Unbounded: true}
}

// Contains reports whether a sample timestamp falls inside the window.
// Both endpoints are inclusive, so a sample taken exactly at the start or
// end instant is kept.
func (w Window) Contains(ms int64) bool {
	if w.Unbounded {
		return true
	}
	return ms >= w.Start && ms <= w.End
}

// WindowSource yields the execution window a report is scoped to.
type WindowSource interface {
	ResolveWindow(ctx context.Context) (Window, error)
}

// Step is a named execution step with its observed timestamps, as
// supplied by whatever system ran the job.
type Step struct {
	Name        string
	StartedAt   time.Time
	CompletedAt time.Time
}

// StepFinder looks up a step by name. A nil step with a nil error means
// the step was not found or has no recorded timestamps.
type StepFinder interface {
	FindStep(ctx context.Context, name string) (*Step, error)
}

// StepWindowSource resolves the window from a named step's recorded
// start and completion times.
type StepWindowSource struct {
	Finder StepFinder
	Name   string
}

func (s *StepWindowSource) ResolveWindow(ctx context.Context) (Window, error) {
	step, err := s.Finder.FindStep(ctx, s.Name)
	if err != nil {
		return Window{}, err
	}
	if step == nil {
		return Window{}, ErrWindowUnresolved
	}
	return StepWindow(step.StartedAt, step.CompletedAt)
}

// StepWindow builds the window covering a step: it spans from the step's
// start for its duration rounded to whole seconds.
func StepWindow(startedAt, completedAt time.Time) (Window, error) {
	if startedAt.IsZero() || completedAt.IsZero() {
		return Window{}, ErrWindowUnresolved
	}

	duration := completedAt.Sub(startedAt).Round(time.Second)
	if duration < 0 {
		return Window{}, ErrWindowUnresolved
	}
	return spanWindow(stats.Millis(startedAt), int64(duration/time.Second)), nil
}

// CommandRecord is one measured command invocation, written by the exec
// wrapper and read back when the report is scoped to that command.
type CommandRecord struct {
	Name        string `json:"name"`
	StartMs     int64  `json:"startMs"`
	DurationSec int64  `json:"durationSec"`
	ExitCode    int    `json:"exitCode"`
}

// CommandWindowSource resolves the window from a measured command
// record. A nil record resolves as unresolved.
type CommandWindowSource struct {
	Record *CommandRecord
}

func (s *CommandWindowSource) ResolveWindow(ctx context.Context) (Window, error) {
	if s.Record == nil {
		return Window{}, ErrWindowUnresolved
	}
	return spanWindow(s.Record.StartMs, s.Record.DurationSec), nil
}

func spanWindow(startMs, durationSec int64) Window {
	return Window{
		Start:    startMs,
		End:      startMs + durationSec*1000,
		Duration: durationSec,
	}
}
