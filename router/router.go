// Package router implements the turn pipeline: touch the session, classify
// the intent, then dispatch the turn to the first claiming agent with the
// retrieval-augmented fallback as the universal catch-all. Every turn yields
// exactly one result.
package router

import (
	"context"
	"fmt"
	"time"

	"github.com/campusmesh/campusmesh/core"
	"github.com/campusmesh/campusmesh/logging"
	"github.com/campusmesh/campusmesh/metrics"
	"github.com/campusmesh/campusmesh/trace"
)

// Agent is a specialized turn handler the router can dispatch to. CanHandle
// must be side-effect free; Handle produces exactly one result.
type Agent interface {
	ID() string
	CanHandle(tc *core.TurnContext, sess *core.Session) bool
	Handle(ctx context.Context, tc *core.TurnContext, sess *core.Session, rec *trace.Recorder) (*core.Result, error)
}

// turnLogger is the richer surface of logging.RouterLogger. When the
// configured logger provides it, the pipeline additionally emits structured
// classifier and dispatch records correlated by session and turn id.
type turnLogger interface {
	WithTurn(sessionID, turnID string) *logging.RouterLogger
}

// Options configures a Router.
type Options struct {
	Logger logging.Logger
	// Metrics may be nil to disable instrumentation.
	Metrics *metrics.Metrics
}

// Router owns the per-turn pipeline. The classifier is called exactly once
// per turn; its raw payload is staged into the turn metadata before any agent
// sees the turn, so downstream mode resolution never re-calls the backend.
type Router struct {
	classifier core.Classifier
	agents     []Agent
	catchAll   Agent
	store      core.SessionStore
	logger     logging.Logger
	metrics    *metrics.Metrics
}

// New constructs a Router. agents are tried in order; catchAll answers every
// turn no specialist claims and must never decline.
func New(classifier core.Classifier, store core.SessionStore, agents []Agent, catchAll Agent, optFns ...func(o *Options)) *Router {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Router{
		classifier: classifier,
		agents:     agents,
		catchAll:   catchAll,
		store:      store,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Respond runs one turn through the pipeline and returns its single result.
func (r *Router) Respond(ctx context.Context, sessionID, query string) (*core.Result, error) {
	tc := core.NewTurnContext(sessionID, query)
	rec := trace.New()
	rl := r.contextual(tc)

	sess := r.touchSession(ctx, tc, rec)
	r.resolveIntent(ctx, tc, sess, rec, rl)

	start := time.Now()
	result, err := r.dispatch(ctx, tc, sess, rec)
	if err != nil {
		return nil, err
	}
	if rl != nil {
		rl.LogDispatch(result.AgentID, time.Since(start), string(result.Status))
	}

	r.finishTurn(ctx, tc, sess, result, rec)

	return result, nil
}

// contextual returns the logger scoped to this turn, or nil when the
// configured logger has no contextual surface.
func (r *Router) contextual(tc *core.TurnContext) *logging.RouterLogger {
	tl, ok := r.logger.(turnLogger)
	if !ok {
		return nil
	}
	return tl.WithTurn(tc.SessionID, tc.TurnID)
}

// touchSession loads (or lazily creates) the session and refreshes its
// expiry. A failing store degrades to a fresh unpersisted session: a turn is
// never refused because the session backend is down.
func (r *Router) touchSession(ctx context.Context, tc *core.TurnContext, rec *trace.Recorder) *core.Session {
	step := rec.AddStep("touch_session",
		fmt.Sprintf("Loading session %s", tc.SessionID),
		"touch")

	sess, err := r.store.Touch(ctx, tc.SessionID)
	if err != nil {
		r.logger.Error("router: session touch failed session=%s err=%v", tc.SessionID, err)
		rec.UpdateObservation(step, fmt.Sprintf("error: %v, using fresh session", err))
		return core.NewSession(tc.SessionID)
	}

	rec.UpdateObservation(step, fmt.Sprintf("%d prior turns", len(sess.GetTurns())))
	return sess
}

// resolveIntent calls the classifier once and stages both the typed result
// and the raw payload onto the turn. Classifier failure is downgraded to "no
// signal": later tiers still route the turn.
func (r *Router) resolveIntent(ctx context.Context, tc *core.TurnContext, sess *core.Session, rec *trace.Recorder, rl *logging.RouterLogger) {
	step := rec.AddStep("resolve_intent",
		fmt.Sprintf("Classifying %q", tc.Query),
		"classify")

	start := time.Now()
	intent, err := r.classifier.Resolve(ctx, tc.Query, sess, tc)
	if err != nil {
		r.metrics.ObserveClassifierError()
		if rl != nil {
			rl.LogClassifierCall("", "", time.Since(start), err)
		} else {
			r.logger.Warn("router: classifier failed turn=%s err=%v", tc.TurnID, err)
		}
		rec.UpdateObservation(step, fmt.Sprintf("error: %v", err))
		return
	}

	tc.SetExec(core.ExecKeyIntent, intent)
	if intent.RawModelOutput != "" {
		tc.Metadata[core.MetaIntentRawOutput] = intent.RawModelOutput
	}

	if rl != nil {
		rl.LogClassifierCall(intent.Intent, intent.Action, time.Since(start), nil)
	}
	rec.UpdateObservation(step, fmt.Sprintf("intent=%s action=%s in %s",
		intent.Intent, intent.Action, time.Since(start).Round(time.Millisecond)))
}

// dispatch hands the turn to the first claiming agent, falling back to the
// catch-all. The catch-all claims unconditionally, so exactly one agent
// answers every turn.
func (r *Router) dispatch(ctx context.Context, tc *core.TurnContext, sess *core.Session, rec *trace.Recorder) (*core.Result, error) {
	for _, agent := range r.agents {
		if !agent.CanHandle(tc, sess) {
			continue
		}
		rec.AddStep("dispatch",
			fmt.Sprintf("Agent %s claimed the turn", agent.ID()),
			"dispatch", agent.ID())

		result, err := agent.Handle(ctx, tc, sess, rec)
		if err != nil {
			r.logger.Error("router: agent %s failed turn=%s err=%v", agent.ID(), tc.TurnID, err)
			rec.AddStep("dispatch",
				fmt.Sprintf("Agent %s failed, falling back", agent.ID()),
				"fallback", err.Error())
			break
		}
		return result, nil
	}

	rec.AddStep("dispatch", "Dispatching to the catch-all", "dispatch", r.catchAll.ID())
	return r.catchAll.Handle(ctx, tc, sess, rec)
}

// finishTurn appends the turn record, persists the session and attaches the
// explainability payload. Persistence failures are logged, never surfaced:
// the user already has their answer.
func (r *Router) finishTurn(ctx context.Context, tc *core.TurnContext, sess *core.Session, result *core.Result, rec *trace.Recorder) {
	if intent := tc.Intent(); intent != nil && result.Intent == "" {
		result.Intent = intent.Intent
	}

	sess.AddTurn(core.TurnRecord{
		ID:         tc.TurnID,
		Query:      tc.Query,
		AnswerText: result.AnswerText,
		AgentID:    result.AgentID,
		Status:     result.Status,
		Timestamp:  time.Now().UTC(),
	})

	if err := r.store.Save(ctx, sess); err != nil {
		r.logger.Error("router: session save failed session=%s err=%v", sess.ID, err)
	}

	result.Debug.SessionID = sess.ID
	result.Debug.StateSnapshot = sess.StateSnapshot()
	rec.Attach(result)

	r.metrics.ObserveTurn(result.AgentID, string(result.Status))
	r.logger.Info("router: turn %s answered by %s status=%s", tc.TurnID, result.AgentID, result.Status)
}
