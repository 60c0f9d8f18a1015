package agents

import (
	"context"
	"fmt"

	"github.com/campusmesh/campusmesh/core"
	"github.com/campusmesh/campusmesh/dialog"
	"github.com/campusmesh/campusmesh/logging"
	"github.com/campusmesh/campusmesh/metrics"
	"github.com/campusmesh/campusmesh/trace"
)

// IntakeAgentID identifies the registration intake agent.
const IntakeAgentID = "intake"

// Session state keys owned by the intake agent.
const (
	stateKeyActiveFlow = "active_flow"
	stateKeyRegState   = "registration_state"
	stateKeyLastStep   = "registration_last_step"
)

// Submitter receives a completed registration. Implementations typically post
// to the school's enrollment backend.
type Submitter interface {
	SubmitRegistration(ctx context.Context, sess *core.Session, st *dialog.RegistrationState) error
}

// dialogLogger is the structured dialog record surface of
// logging.RouterLogger; plain loggers simply skip it.
type dialogLogger interface {
	LogDialogTurn(flow, stepID string, retried, complete bool)
}

// IntakeOptions configures an IntakeAgent.
type IntakeOptions struct {
	Logger logging.Logger
	// Metrics may be nil to disable instrumentation.
	Metrics *metrics.Metrics
	// Submitter receives completed registrations; nil means completions are
	// only acknowledged, not forwarded.
	Submitter Submitter
}

// IntakeAgent drives the registration dialog. Dialog progress lives entirely
// in the session state, so a conversation can resume after any interruption:
// the stored slot snapshot plus the last prompted step id are enough to pick
// up exactly where the parent left off.
type IntakeAgent struct {
	engine    *dialog.Engine
	logger    logging.Logger
	metrics   *metrics.Metrics
	submitter Submitter
}

// NewIntakeAgent constructs the agent around a dialog engine.
func NewIntakeAgent(engine *dialog.Engine, optFns ...func(o *IntakeOptions)) *IntakeAgent {
	opts := IntakeOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &IntakeAgent{
		engine:    engine,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		submitter: opts.Submitter,
	}
}

// ID implements the agent contract.
func (a *IntakeAgent) ID() string { return IntakeAgentID }

// CanHandle claims the turn when the classifier detected a registration
// intent or when a registration dialog is already in flight for the session.
func (a *IntakeAgent) CanHandle(tc *core.TurnContext, sess *core.Session) bool {
	if intent := tc.Intent(); intent != nil {
		if intent.Intent == "registration" || intent.Action == "start_registration" {
			return true
		}
	}
	return a.flowActive(sess)
}

func (a *IntakeAgent) flowActive(sess *core.Session) bool {
	if sess == nil {
		return false
	}
	v, ok := sess.GetState(stateKeyActiveFlow)
	if !ok {
		return false
	}
	name, _ := v.(string)
	return name == a.engine.Flow().Name
}

// Handle advances the dialog one turn.
func (a *IntakeAgent) Handle(ctx context.Context, tc *core.TurnContext, sess *core.Session, rec *trace.Recorder) (*core.Result, error) {
	st, lastStep := a.loadProgress(sess)
	resuming := a.flowActive(sess)
	if !resuming {
		// A fresh start: the triggering message ("I want to register my
		// child") is not an answer to any prompt.
		lastStep = ""
	}

	dialogStep := rec.AddStep("dialog",
		fmt.Sprintf("Advancing registration dialog from step %q", lastStep),
		"handle_turn")

	prompt, stepID := a.engine.HandleTurn(st, tc.Query, lastStep)

	retried := resuming && stepID == lastStep && stepID != ""
	if retried {
		a.metrics.ObserveDialogRetry()
		a.logger.Debug("intake: retrying step %s session=%s", stepID, tc.SessionID)
	}
	if dl, ok := a.logger.(dialogLogger); ok {
		dl.LogDialogTurn(a.engine.Flow().Name, stepID, retried, stepID == "")
	}

	if stepID == "" {
		rec.UpdateObservation(dialogStep, "flow complete")
		return a.complete(ctx, tc, sess, st, rec)
	}

	rec.UpdateObservation(dialogStep, fmt.Sprintf("next step %s", stepID))

	sess.ApplyStateDelta(map[string]any{
		stateKeyActiveFlow: a.engine.Flow().Name,
		stateKeyRegState:   st.Snapshot(),
		stateKeyLastStep:   stepID,
	})

	return &core.Result{
		AnswerText: prompt,
		Status:     core.StatusNeedsInput,
		AgentID:    IntakeAgentID,
	}, nil
}

// loadProgress restores the slot snapshot and last prompted step from the
// session state; any decode problem restarts the flow from scratch.
func (a *IntakeAgent) loadProgress(sess *core.Session) (*dialog.RegistrationState, string) {
	st := dialog.NewRegistrationState()
	lastStep := ""
	if sess == nil {
		return st, lastStep
	}

	if v, ok := sess.GetState(stateKeyRegState); ok {
		if snap, ok := v.(map[string]any); ok {
			if restored, err := dialog.RegistrationStateFromMap(snap); err == nil {
				st = restored
			} else {
				a.logger.Warn("intake: corrupt registration state in session %s, restarting", sess.ID)
			}
		}
	}
	if v, ok := sess.GetState(stateKeyLastStep); ok {
		lastStep, _ = v.(string)
	}
	return st, lastStep
}

func (a *IntakeAgent) complete(ctx context.Context, tc *core.TurnContext, sess *core.Session, st *dialog.RegistrationState, rec *trace.Recorder) (*core.Result, error) {
	if a.submitter != nil {
		submitStep := rec.AddStep("submit", "Submitting completed registration", "submit_registration")
		if err := a.submitter.SubmitRegistration(ctx, sess, st); err != nil {
			a.logger.Error("intake: submit failed session=%s err=%v", tc.SessionID, err)
			rec.UpdateObservation(submitStep, fmt.Sprintf("error: %v", err))
			// Keep the collected slots so the parent can simply try again.
			return &core.Result{
				AnswerText: "I could not save your registration just now. Please send any message to try again.",
				Status:     core.StatusOK,
				AgentID:    IntakeAgentID,
			}, nil
		}
		rec.UpdateObservation(submitStep, "submitted")
	}

	// The slot snapshot is destroyed with the flow: a later registration
	// intent in the same session starts a fresh dialog.
	sess.ApplyStateDelta(map[string]any{
		stateKeyActiveFlow: "",
		stateKeyRegState:   nil,
		stateKeyLastStep:   "",
	})

	return &core.Result{
		AnswerText: fmt.Sprintf(
			"Thank you! %s %s is registered for the %s school year. We will contact you with the next steps.",
			st.StudentFirstName, st.StudentLastName, st.SchoolYear),
		Status:  core.StatusOK,
		AgentID: IntakeAgentID,
	}, nil
}
