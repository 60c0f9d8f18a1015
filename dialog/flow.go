package dialog

import (
	_ "embed"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var flowJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Step is one state of a flow. A step usually declares a slot plus the parser
// that fills it; steps without a parser simply advance. OnResult is a branch
// table keyed by the parsed boolean rendered as "true"/"false"; when the
// parsed value has no branch target the engine falls back to the first step
// whose slot is still empty.
type Step struct {
	ID          string            `json:"id"`
	Slot        string            `json:"slot,omitempty"`
	Prompt      string            `json:"prompt"`
	RetryPrompt string            `json:"retry_prompt,omitempty"`
	Parser      string            `json:"parser,omitempty"`
	Next        string            `json:"next,omitempty"`
	OnResult    map[string]string `json:"on_result,omitempty"`
}

// Flow is a static dialog definition, loaded once per flow type.
type Flow struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// Step returns the step with the given id.
func (f *Flow) Step(id string) (*Step, bool) {
	for i := range f.Steps {
		if f.Steps[i].ID == id {
			return &f.Steps[i], true
		}
	}
	return nil, false
}

// Slots returns the slot names declared by the flow, in step order.
func (f *Flow) Slots() []string {
	slots := make([]string, 0, len(f.Steps))
	for _, s := range f.Steps {
		if s.Slot != "" {
			slots = append(slots, s.Slot)
		}
	}
	return slots
}

// LoadFlow decodes and validates a flow definition from JSON.
func LoadFlow(r io.Reader) (*Flow, error) {
	var f Flow
	if err := flowJSON.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode flow: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Flow) validate() error {
	if len(f.Steps) == 0 {
		return fmt.Errorf("flow %q has no steps", f.Name)
	}
	seen := map[string]bool{}
	for _, s := range f.Steps {
		if s.ID == "" {
			return fmt.Errorf("flow %q contains a step without an id", f.Name)
		}
		if seen[s.ID] {
			return fmt.Errorf("flow %q has duplicate step id %q", f.Name, s.ID)
		}
		seen[s.ID] = true
	}
	for _, s := range f.Steps {
		if s.Next != "" && !seen[s.Next] {
			return fmt.Errorf("flow %q step %q points to unknown next step %q", f.Name, s.ID, s.Next)
		}
		for branch, target := range s.OnResult {
			if branch != "true" && branch != "false" {
				return fmt.Errorf("flow %q step %q has invalid branch key %q", f.Name, s.ID, branch)
			}
			if target != "" && !seen[target] {
				return fmt.Errorf("flow %q step %q branches to unknown step %q", f.Name, s.ID, target)
			}
		}
	}
	return nil
}

//go:embed registration_flow.json
var registrationFlowJSON []byte

var registrationFlow = mustLoadFlow(registrationFlowJSON)

func mustLoadFlow(raw []byte) *Flow {
	var f Flow
	if err := flowJSON.Unmarshal(raw, &f); err != nil {
		panic(fmt.Sprintf("dialog: embedded flow is invalid: %v", err))
	}
	if err := f.validate(); err != nil {
		panic(fmt.Sprintf("dialog: embedded flow is invalid: %v", err))
	}
	return &f
}

// RegistrationFlow returns the built-in student registration intake flow.
func RegistrationFlow() *Flow { return registrationFlow }
