package core

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
)

var intentJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// IntentResult is the structured outcome of one classifier call. The router
// stores the full result into the turn's execution state; beyond the fields
// the resolver inspects, everything passes through untouched to downstream
// consumers (the RAG path receives the same context a specialized agent would).
type IntentResult struct {
	Intent              string  `json:"intent"`
	Action              string  `json:"action"`
	ActionConfidence    float64 `json:"action_confidence"`
	Urgency             string  `json:"urgency"`
	UrgencyConfidence   float64 `json:"urgency_confidence"`
	ToneMajor           string  `json:"tone_major"`
	ToneMajorConfidence float64 `json:"tone_major_confidence"`
	ToneMinor           string  `json:"tone_minor"`
	ToneMinorConfidence float64 `json:"tone_minor_confidence"`

	// RawModelOutput is the opaque JSON payload emitted by the classifier
	// backend. Parsed at most once per turn via ParseIntentSignal.
	RawModelOutput string `json:"intent_raw_model_output"`
}

// Classifier is the upstream intent classification boundary. Called exactly
// once per turn by the router's resolve stage.
type Classifier interface {
	Resolve(ctx context.Context, query string, sess *Session, tc *TurnContext) (*IntentResult, error)
}

// AnswerRequest carries the full turn context to the retrieval-augmented
// fallback so it has equal context to a specialized agent.
type AnswerRequest struct {
	Query          string
	Session        *Session
	Intent         string
	SessionFiles   []string
	Classification *IntentResult
}

// Answerer is the generic retrieval-augmented answering boundary used when no
// specialized agent claims the turn.
type Answerer interface {
	Answer(ctx context.Context, req AnswerRequest) (string, error)
}

// IntentSignal is the minimal typed view of the classifier's raw model
// output. It is validated once by ParseIntentSignal; call sites never re-parse
// the raw JSON.
type IntentSignal struct {
	// Heuristic is the rule-engine sub-object; its metadata may carry an
	// explicit mode selection.
	Heuristic *RuleSignal `mapstructure:"heuristic"`
	// LLM is the model sub-object carrying the predicted action.
	LLM *ModelSignal `mapstructure:"llm"`
}

// RuleSignal is the heuristic-rule portion of an IntentSignal.
type RuleSignal struct {
	Name     string         `mapstructure:"name"`
	Metadata map[string]any `mapstructure:"metadata"`
}

// Mode returns the explicit mode carried in the rule metadata, if any.
func (r *RuleSignal) Mode() string {
	if r == nil || r.Metadata == nil {
		return ""
	}
	m, _ := r.Metadata["mode"].(string)
	return m
}

// ModelSignal is the LLM portion of an IntentSignal.
type ModelSignal struct {
	Action     string  `mapstructure:"action"`
	Confidence float64 `mapstructure:"confidence"`
}

// ParseIntentSignal parses the opaque classifier payload into its typed view.
// Two shapes are accepted: the wrapped form with "heuristic"/"llm" sub-objects
// emitted by rule-engine frontends, and the flat completion form where the
// action sits at the top level of the object. Any failure (empty input,
// malformed JSON, wrong shape) yields (nil, false): classifier noise is
// treated as "no signal", never as a fatal error.
func ParseIntentSignal(raw string) (*IntentSignal, bool) {
	if raw == "" {
		return nil, false
	}

	var payload map[string]any
	if err := intentJSON.UnmarshalFromString(raw, &payload); err != nil {
		return nil, false
	}

	var sig IntentSignal
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &sig,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, false
	}

	if err := dec.Decode(payload); err != nil {
		return nil, false
	}

	if sig.Heuristic == nil && sig.LLM == nil {
		return flatSignal(raw)
	}

	return &sig, true
}

// flatSignal decodes the unwrapped completion shape ({"intent":...,
// "action":...}) into the same typed view.
func flatSignal(raw string) (*IntentSignal, bool) {
	var flat IntentResult
	if err := intentJSON.UnmarshalFromString(raw, &flat); err != nil || flat.Action == "" {
		return nil, false
	}
	return &IntentSignal{
		LLM: &ModelSignal{Action: flat.Action, Confidence: flat.ActionConfidence},
	}, true
}
