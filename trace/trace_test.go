package trace

import (
	"testing"

	"github.com/campusmesh/campusmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ StepSink = (*core.Result)(nil)

func TestRecorder_ResetIsolatesTurns(t *testing.T) {
	// P6: steps recorded in a prior turn never leak into the next one.
	rec := New()
	rec.AddStep("dispatch", "old turn", "do something")
	rec.AddStep("dispatch", "old turn", "do more")
	rec.AddStep("render", "old turn", "format")
	require.Equal(t, 3, rec.Len())

	rec.Reset()
	rec.AddStep("resolve_intent", "new turn", "call classifier")
	rec.AddStep("dispatch", "new turn", "pick agent")

	steps := rec.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "resolve_intent", steps[0].Phase)
	assert.Equal(t, "dispatch", steps[1].Phase)
}

func TestRecorder_AddStepWithObservation(t *testing.T) {
	rec := New()
	rec.AddStep("fetch", "need rows", "GET /students", "200 rows=3")

	steps := rec.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, "200 rows=3", steps[0].Observation)
	assert.NotEmpty(t, steps[0].ID)
	assert.False(t, steps[0].Timestamp.IsZero())
}

func TestRecorder_UpdateObservation(t *testing.T) {
	rec := New()
	h := rec.AddStep("fetch", "thought first", "action before result is known")
	rec.UpdateObservation(h, "result arrived")

	assert.Equal(t, "result arrived", rec.Steps()[0].Observation)

	// Invalid handles are ignored, never panic.
	rec.UpdateObservation(Handle(-1), "x")
	rec.UpdateObservation(Handle(99), "x")
	assert.Equal(t, "result arrived", rec.Steps()[0].Observation)
}

func TestRecorder_StepsReturnsCopy(t *testing.T) {
	rec := New()
	rec.AddStep("dispatch", "a", "b")

	steps := rec.Steps()
	steps[0].Thought = "mutated"
	assert.Equal(t, "a", rec.Steps()[0].Thought)
}

func TestRecorder_AttachToResult(t *testing.T) {
	rec := New()
	rec.Reset()
	rec.AddStep("dispatch", "t", "a")

	res := &core.Result{}
	rec.Attach(res)
	require.Len(t, res.Debug.ReasoningSteps, 1)
	assert.Equal(t, "dispatch", res.Debug.ReasoningSteps[0].Phase)
}

func TestRecorder_AttachNonSinkIsNoOp(t *testing.T) {
	rec := New()
	rec.AddStep("dispatch", "t", "a")

	assert.NotPanics(t, func() {
		rec.Attach(nil)
		rec.Attach("not a sink")
		rec.Attach(struct{}{})
	})
}
