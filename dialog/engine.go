package dialog

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/campusmesh/campusmesh/logging"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// menuPlaceholder expands to a numbered list of the current school-year options.
const menuPlaceholder = "school_year_menu"

// Options configures an Engine.
type Options struct {
	Logger logging.Logger
	// Now supplies the clock used to compute school-year options. Tests
	// override it for deterministic menus.
	Now func() time.Time
	// Parsers adds or overrides named parsers on top of the built-in table.
	Parsers map[string]ParseFunc
}

// Engine drives one flow: given the session's dialog state and the last
// prompted step, it consumes a user reply and produces the next prompt.
// An Engine is immutable after construction and safe for concurrent use;
// all mutable data lives in the SlotState owned by the in-flight turn.
type Engine struct {
	flow    *Flow
	logger  logging.Logger
	now     func() time.Time
	parsers map[string]ParseFunc
}

// New constructs an Engine for the given flow.
func New(flow *Flow, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Now:    time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	e := &Engine{flow: flow, logger: opts.Logger, now: opts.Now}
	e.parsers = builtinParsers(e.SchoolYearOptions)
	for name, p := range opts.Parsers {
		e.parsers[name] = p
	}
	return e
}

// Flow returns the engine's flow definition.
func (e *Engine) Flow() *Flow { return e.flow }

// SchoolYearOptions returns the currently offered school years.
func (e *Engine) SchoolYearOptions() []string { return SchoolYearOptions(e.now()) }

// StepForState returns the first step whose slot is still empty, or nil when
// every slot is filled (the implicit terminal state).
func (e *Engine) StepForState(st SlotState) *Step {
	for i := range e.flow.Steps {
		step := &e.flow.Steps[i]
		if step.Slot == "" {
			continue
		}
		if !st.Filled(step.Slot) {
			return step
		}
	}
	return nil
}

// Complete reports whether every slot in the flow is filled.
func (e *Engine) Complete(st SlotState) bool { return e.StepForState(st) == nil }

// HandleTurn performs one dialog transition. lastStepID names the step whose
// prompt the user is replying to ("" on the first turn of a flow). It returns
// the next prompt to show and the id of the step that prompt belongs to.
//
// A failed parse re-renders the step's retry prompt and keeps the same step
// id; the state is left untouched. There is no retry-count limit. When no
// next step remains the returned prompt and step id are both empty,
// signalling the caller that the flow is complete.
func (e *Engine) HandleTurn(st SlotState, userText, lastStepID string) (string, string) {
	var next *Step

	if lastStepID != "" {
		last, ok := e.flow.Step(lastStepID)
		if !ok {
			// Stale step id from an older flow definition: restart from the
			// first unfilled slot rather than failing the turn.
			e.logger.Warn("dialog: unknown step id %q in flow %q", lastStepID, e.flow.Name)
			next = e.StepForState(st)
			return e.renderStep(next, st)
		}

		if parser, ok := e.parsers[last.Parser]; ok && last.Parser != "" {
			value, parsed := parser(userText)
			if !parsed {
				prompt := last.RetryPrompt
				if prompt == "" {
					prompt = last.Prompt
				}
				return e.RenderPrompt(prompt, st), last.ID
			}
			if last.Slot != "" {
				st.SetSlot(last.Slot, value)
			}
			next = e.nextStep(last, value, st)
		} else {
			next = e.nextStep(last, nil, st)
		}
	} else {
		next = e.StepForState(st)
	}

	return e.renderStep(next, st)
}

func (e *Engine) renderStep(step *Step, st SlotState) (string, string) {
	if step == nil {
		return "", ""
	}
	return e.RenderPrompt(step.Prompt, st), step.ID
}

// nextStep picks the step following a successful parse: the branch target if
// the step declares one for the parsed boolean, else the step's static next,
// else the first step whose slot is still empty.
func (e *Engine) nextStep(step *Step, value any, st SlotState) *Step {
	if len(step.OnResult) > 0 {
		key := "false"
		if b, ok := value.(bool); ok && b {
			key = "true"
		}
		if target, ok := step.OnResult[key]; ok && target != "" {
			if s, found := e.flow.Step(target); found {
				return s
			}
		}
		return e.StepForState(st)
	}

	if step.Next != "" {
		if s, found := e.flow.Step(step.Next); found {
			return s
		}
	}

	return e.StepForState(st)
}

// RenderPrompt substitutes {{field}} tokens from the state plus the generated
// {{school_year_menu}} block. Substitution is total: unknown placeholders are
// left unresolved rather than failing the turn.
func (e *Engine) RenderPrompt(text string, st SlotState) string {
	if !strings.Contains(text, "{{") {
		return text
	}

	snap := st.Snapshot()

	return placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := placeholderPattern.FindStringSubmatch(token)[1]
		if name == menuPlaceholder {
			return e.renderSchoolYearMenu()
		}
		v, ok := snap[name]
		if !ok {
			return token
		}
		switch tv := v.(type) {
		case string:
			return tv
		case bool:
			return strconv.FormatBool(tv)
		default:
			return token
		}
	})
}

func (e *Engine) renderSchoolYearMenu() string {
	options := e.SchoolYearOptions()
	var b strings.Builder
	for i, opt := range options {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(opt)
	}
	return b.String()
}
