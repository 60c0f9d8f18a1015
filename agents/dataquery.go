package agents

import (
	"context"
	"fmt"

	"github.com/campusmesh/campusmesh/core"
	"github.com/campusmesh/campusmesh/logging"
	"github.com/campusmesh/campusmesh/metrics"
	"github.com/campusmesh/campusmesh/registry"
	"github.com/campusmesh/campusmesh/route"
	"github.com/campusmesh/campusmesh/trace"
)

// DataQueryAgentID identifies the data-query agent in results and metrics.
const DataQueryAgentID = "data_query"

// DefaultFetchLimit is the page size requested when none is configured.
const DefaultFetchLimit = 20

// DataQueryOptions configures a DataQueryAgent.
type DataQueryOptions struct {
	Logger logging.Logger
	// Metrics may be nil to disable instrumentation.
	Metrics *metrics.Metrics
	// FallbackMode is handed to the resolver's fallback tier.
	FallbackMode string
	// FetchLimit is the page size requested from handlers.
	FetchLimit int
}

// DataQueryAgent answers tabular questions: it resolves the turn to one
// registered handler mode, fetches a page of records and renders them as a
// markdown table. A failed fetch still completes the turn with a
// human-readable answer; the structured failure is only visible in the turn's
// execution state.
type DataQueryAgent struct {
	reg      *registry.Registry
	resolver *route.Resolver
	logger   logging.Logger
	metrics  *metrics.Metrics
	fallback string
	limit    int
}

// NewDataQueryAgent constructs the agent over the given registry.
func NewDataQueryAgent(reg *registry.Registry, optFns ...func(o *DataQueryOptions)) *DataQueryAgent {
	opts := DataQueryOptions{
		Logger:       logging.NoOpLogger{},
		FallbackMode: route.DefaultMode,
		FetchLimit:   DefaultFetchLimit,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &DataQueryAgent{
		reg:      reg,
		resolver: route.NewResolver(reg, func(o *route.Options) { o.Logger = opts.Logger }),
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		fallback: opts.FallbackMode,
		limit:    opts.FetchLimit,
	}
}

// ID implements the agent contract.
func (a *DataQueryAgent) ID() string { return DataQueryAgentID }

// CanHandle claims the turn when the classifier marked it a data query, or
// when mode resolution found an actual signal in the query (as opposed to an
// arbitrary fallback choice).
func (a *DataQueryAgent) CanHandle(tc *core.TurnContext, _ *core.Session) bool {
	if intent := tc.Intent(); intent != nil && intent.Intent == "data_query" {
		return true
	}
	_, tier := a.resolver.DetectModeTier(tc, a.fallback)
	return tier.Informed()
}

// Handle resolves the mode, fetches one page and renders it.
func (a *DataQueryAgent) Handle(ctx context.Context, tc *core.TurnContext, sess *core.Session, rec *trace.Recorder) (*core.Result, error) {
	mode, tier := a.resolver.DetectModeTier(tc, a.fallback)
	tc.SetExec(core.ExecKeyResolvedMode, mode)
	a.metrics.ObserveResolverTier(tier.String())
	rec.AddStep("resolve_mode",
		fmt.Sprintf("Picking the data table for %q", tc.Query),
		"detect_mode",
		fmt.Sprintf("mode=%s tier=%s", mode, tier))

	handler, ok := a.reg.Get(mode)
	if !ok {
		// Only reachable with an empty registry (the resolver's hard default).
		rec.AddStep("dispatch", "No handler registered for resolved mode", "abort", mode)
		return nil, fmt.Errorf("no handler registered for mode %q", mode)
	}

	fetchStep := rec.AddStep("fetch",
		fmt.Sprintf("Fetching %s records", handler.Label()),
		"fetch")

	result, err := handler.Fetch(ctx, tc, 0, a.limit)
	if err != nil {
		a.metrics.ObserveFetchError(mode)
		a.logger.Error("data query: fetch failed mode=%s err=%v", mode, err)
		rec.UpdateObservation(fetchStep, fmt.Sprintf("error: %v", err))
		tc.SetExec(core.ExecKeyAgentOutput, map[string]any{
			"ok":    false,
			"mode":  mode,
			"rows":  []core.Row{},
			"error": err.Error(),
		})
		return &core.Result{
			AnswerText: fmt.Sprintf("I could not retrieve the %s data right now. Please try again in a moment.", handler.Label()),
			Status:     core.StatusOK,
			AgentID:    DataQueryAgentID,
		}, nil
	}

	rec.UpdateObservation(fetchStep, fmt.Sprintf("%d rows", result.Meta.Count))
	tc.SetExec(core.ExecKeyAgentOutput, map[string]any{
		"ok":   true,
		"mode": mode,
		"rows": result.Rows,
		"meta": result.Meta,
	})

	return &core.Result{
		AnswerText: fmt.Sprintf("Here is the %s data:\n\n%s", handler.Label(), handler.ToMarkdown(result.Rows)),
		Status:     core.StatusOK,
		AgentID:    DataQueryAgentID,
	}, nil
}
