package dialog

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// SlotState is the mutable per-conversation dialog record a flow fills in,
// one slot per parsed user reply. Implementations are plain structs whose
// fields correspond 1:1 to the flow's slots.
type SlotState interface {
	// Slot returns the current value for the named slot; ok is false for
	// unknown slot names.
	Slot(name string) (value any, ok bool)
	// SetSlot writes a parsed value into the named slot. Unknown slot names
	// and mismatched types are ignored: dialog progress must never fail on a
	// stale flow definition.
	SetSlot(name string, value any)
	// Filled reports whether the named slot holds a value.
	Filled(name string) bool
	// Snapshot returns the state as a map for prompt rendering and
	// session persistence.
	Snapshot() map[string]any
}

// RegistrationState holds the slots collected by the registration intake
// flow. Fields map 1:1 to the flow's slot names.
type RegistrationState struct {
	SchoolYear       string `json:"school_year,omitempty" mapstructure:"school_year"`
	StudentFirstName string `json:"student_first_name,omitempty" mapstructure:"student_first_name"`
	StudentLastName  string `json:"student_last_name,omitempty" mapstructure:"student_last_name"`
	ParentFirstName  string `json:"parent_first_name,omitempty" mapstructure:"parent_first_name"`
	ParentLastName   string `json:"parent_last_name,omitempty" mapstructure:"parent_last_name"`
	PrefersEmail     *bool  `json:"prefers_email,omitempty" mapstructure:"prefers_email"`
	ParentEmail      string `json:"parent_email,omitempty" mapstructure:"parent_email"`
	ParentPhone      string `json:"parent_phone,omitempty" mapstructure:"parent_phone"`
}

// NewRegistrationState returns an empty registration record.
func NewRegistrationState() *RegistrationState { return &RegistrationState{} }

// RegistrationStateFromMap rebuilds a registration record from a persisted
// session-state map.
func RegistrationStateFromMap(m map[string]any) (*RegistrationState, error) {
	st := NewRegistrationState()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           st,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build state decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("decode registration state: %w", err)
	}
	return st, nil
}

// Slot returns the value of the named slot.
func (s *RegistrationState) Slot(name string) (any, bool) {
	switch name {
	case "school_year":
		return s.SchoolYear, true
	case "student_first_name":
		return s.StudentFirstName, true
	case "student_last_name":
		return s.StudentLastName, true
	case "parent_first_name":
		return s.ParentFirstName, true
	case "parent_last_name":
		return s.ParentLastName, true
	case "prefers_email":
		if s.PrefersEmail == nil {
			return nil, true
		}
		return *s.PrefersEmail, true
	case "parent_email":
		return s.ParentEmail, true
	case "parent_phone":
		return s.ParentPhone, true
	default:
		return nil, false
	}
}

// SetSlot writes a parsed value into the named slot.
func (s *RegistrationState) SetSlot(name string, value any) {
	switch name {
	case "school_year":
		s.setString(&s.SchoolYear, value)
	case "student_first_name":
		s.setString(&s.StudentFirstName, value)
	case "student_last_name":
		s.setString(&s.StudentLastName, value)
	case "parent_first_name":
		s.setString(&s.ParentFirstName, value)
	case "parent_last_name":
		s.setString(&s.ParentLastName, value)
	case "prefers_email":
		if b, ok := value.(bool); ok {
			s.PrefersEmail = &b
		}
	case "parent_email":
		s.setString(&s.ParentEmail, value)
	case "parent_phone":
		s.setString(&s.ParentPhone, value)
	}
}

func (s *RegistrationState) setString(dst *string, value any) {
	if str, ok := value.(string); ok {
		*dst = str
	}
}

// Filled reports whether the named slot holds a value.
func (s *RegistrationState) Filled(name string) bool {
	v, ok := s.Slot(name)
	if !ok || v == nil {
		return false
	}
	if str, isStr := v.(string); isStr {
		return str != ""
	}
	return true
}

// Snapshot returns the state as a map, omitting unfilled slots.
func (s *RegistrationState) Snapshot() map[string]any {
	snap := map[string]any{}
	for _, slot := range []string{
		"school_year", "student_first_name", "student_last_name",
		"parent_first_name", "parent_last_name", "prefers_email",
		"parent_email", "parent_phone",
	} {
		if !s.Filled(slot) {
			continue
		}
		v, _ := s.Slot(slot)
		snap[slot] = v
	}
	return snap
}
