package core

import (
	"time"

	"github.com/google/uuid"
)

// Status reports whether a turn produced a complete answer or is waiting for
// further user input (mid-dialog).
type Status string

const (
	// StatusOK marks a completed answer.
	StatusOK Status = "ok"
	// StatusNeedsInput marks a dialog prompt awaiting the user's next reply.
	StatusNeedsInput Status = "needs_input"
)

// ReasoningStep is one recorded thought/action/observation entry in a turn's
// reasoning trace. Steps are ordered and scoped to a single turn.
type ReasoningStep struct {
	ID          string    `json:"id"`
	Phase       string    `json:"phase"`
	Thought     string    `json:"thought"`
	Action      string    `json:"action"`
	Observation string    `json:"observation,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewReasoningStep constructs a step with a generated id and UTC timestamp.
func NewReasoningStep(phase, thought, action string) ReasoningStep {
	return ReasoningStep{
		ID:        uuid.NewString(),
		Phase:     phase,
		Thought:   thought,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

// Debug is the explainability payload attached to every Result. It must never
// influence the primary response path.
type Debug struct {
	SessionID      string          `json:"session_id"`
	ReasoningSteps []ReasoningStep `json:"reasoning_steps,omitempty"`
	StateSnapshot  map[string]any  `json:"state_snapshot,omitempty"`
}

// Result is the single response contract produced for every turn. Exactly one
// Result is returned per turn regardless of which path (specialized agent,
// dialog, RAG fallback) answered it.
type Result struct {
	AnswerText string `json:"answer_text"`
	Status     Status `json:"status"`
	Intent     string `json:"intent,omitempty"`
	AgentID    string `json:"agent_id,omitempty"`
	Debug      Debug  `json:"debug"`
}

// SetReasoningSteps installs the reasoning trace into the debug payload. It
// satisfies the step-sink contract used by trace.Recorder.Attach.
func (r *Result) SetReasoningSteps(steps []ReasoningStep) {
	r.Debug.ReasoningSteps = steps
}
