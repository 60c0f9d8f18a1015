// Package trace records the ordered thought/action/observation steps taken
// while answering one turn. The trace is explainability only: it is attached
// to the final result's debug payload and must never be allowed to crash the
// primary response path.
package trace

import "github.com/campusmesh/campusmesh/core"

// Handle identifies a recorded step for later observation updates. It
// supports the "log the thought before the action result is known" pattern.
type Handle int

// StepSink is implemented by result containers able to receive a trace.
// core.Result satisfies it; anything else is silently skipped by Attach.
type StepSink interface {
	SetReasoningSteps(steps []core.ReasoningStep)
}

// Recorder accumulates the reasoning steps of a single turn. The step list is
// reset at the start of each turn and never accumulates across turns: that
// reset-then-append lifecycle is an invariant, not an accident, and guards
// against cross-request leakage. A Recorder is owned by exactly one in-flight
// turn and is not safe for concurrent use.
type Recorder struct {
	steps []core.ReasoningStep
}

// New constructs an empty Recorder.
func New() *Recorder {
	return &Recorder{steps: []core.ReasoningStep{}}
}

// Reset clears the step list. Call once per turn before any AddStep call.
func (r *Recorder) Reset() {
	r.steps = r.steps[:0]
}

// AddStep appends a step and returns a handle for observation updates. An
// optional observation may be supplied when the outcome is already known.
func (r *Recorder) AddStep(phase, thought, action string, observation ...string) Handle {
	step := core.NewReasoningStep(phase, thought, action)
	if len(observation) > 0 {
		step.Observation = observation[0]
	}
	r.steps = append(r.steps, step)
	return Handle(len(r.steps) - 1)
}

// UpdateObservation mutates the observation of a previously recorded step.
// Invalid handles are ignored.
func (r *Recorder) UpdateObservation(h Handle, observation string) {
	if int(h) < 0 || int(h) >= len(r.steps) {
		return
	}
	r.steps[int(h)].Observation = observation
}

// Steps returns a defensive copy of the recorded steps.
func (r *Recorder) Steps() []core.ReasoningStep {
	out := make([]core.ReasoningStep, len(r.steps))
	copy(out, r.steps)
	return out
}

// Len returns the number of recorded steps.
func (r *Recorder) Len() int { return len(r.steps) }

// Attach copies the current step list into the destination's debug payload.
// Destinations that are nil or do not implement StepSink are skipped silently.
func (r *Recorder) Attach(dst any) {
	if dst == nil {
		return
	}
	sink, ok := dst.(StepSink)
	if !ok {
		return
	}
	sink.SetReasoningSteps(r.Steps())
}
