package core

import "github.com/google/uuid"

// Well-known metadata keys on TurnContext.Metadata.
const (
	// MetaIntentRawOutput holds the opaque JSON payload produced by the
	// upstream classifier. The resolver parses it once into an IntentSignal;
	// all other consumers treat it as a pass-through blob.
	MetaIntentRawOutput = "intent_raw_model_output"
)

// Well-known keys on TurnContext.ExecutionState written by pipeline stages.
const (
	// ExecKeyIntent holds the *IntentResult stored by the resolve stage.
	ExecKeyIntent = "intent_result"
	// ExecKeyResolvedMode holds the mode string chosen by the resolver.
	ExecKeyResolvedMode = "resolved_mode"
	// ExecKeyLastFetch holds the *FetchResult of the most recent handler fetch.
	ExecKeyLastFetch = "last_fetch"
	// ExecKeyAgentOutput holds the structured output of the dispatched agent.
	ExecKeyAgentOutput = "agent_output"
)

// TurnContext is the mutable, per-turn value object owned by the router
// pipeline. It carries the raw query, correlation identifiers, upstream
// classifier metadata and a shared scratch space written by multiple pipeline
// stages within a single turn.
//
// A TurnContext is created fresh for every turn and must never be shared
// across concurrent turns; it is not safe for concurrent use.
type TurnContext struct {
	// TurnID uniquely identifies this turn for correlation in logs and traces.
	TurnID string
	// SessionID identifies the owning conversation.
	SessionID string
	// Query is the raw user utterance for this turn.
	Query string
	// Metadata carries upstream signals (classifier payloads, channel hints).
	Metadata map[string]any
	// ExecutionState is the shared scratch space for pipeline stages.
	ExecutionState map[string]any
}

// NewTurnContext constructs a TurnContext with a generated turn id and empty
// metadata / execution-state maps.
func NewTurnContext(sessionID, query string) *TurnContext {
	return &TurnContext{
		TurnID:         uuid.NewString(),
		SessionID:      sessionID,
		Query:          query,
		Metadata:       map[string]any{},
		ExecutionState: map[string]any{},
	}
}

// SetExec writes a value into the shared execution state.
func (tc *TurnContext) SetExec(key string, value any) { tc.ExecutionState[key] = value }

// GetExec returns a value from the shared execution state.
func (tc *TurnContext) GetExec(key string) (any, bool) {
	v, ok := tc.ExecutionState[key]
	return v, ok
}

// MetadataString returns the metadata value for key if it is a non-empty string.
func (tc *TurnContext) MetadataString(key string) (string, bool) {
	s, ok := tc.Metadata[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Intent returns the typed classifier result stored by the resolve stage, or
// nil if the stage has not run (or the classifier produced no signal).
func (tc *TurnContext) Intent() *IntentResult {
	v, ok := tc.ExecutionState[ExecKeyIntent]
	if !ok {
		return nil
	}
	res, _ := v.(*IntentResult)
	return res
}
