// Package campusmesh provides a high-level façade over the routing pipeline
// for conversational school administration. Most applications interact with
// this package by:
//  1. Creating a CampusMesh via New() with a classifier and an answering backend
//  2. Optionally registering extra data handlers (RegisterHandler)
//  3. Answering user turns with Respond()
//
// The façade delegates turn handling to router.Router while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a Redis session store, a
// structured logger and the data API base URL.
package campusmesh

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/campusmesh/campusmesh/agents"
	"github.com/campusmesh/campusmesh/core"
	"github.com/campusmesh/campusmesh/dialog"
	"github.com/campusmesh/campusmesh/logging"
	"github.com/campusmesh/campusmesh/metrics"
	"github.com/campusmesh/campusmesh/registry"
	"github.com/campusmesh/campusmesh/route"
	"github.com/campusmesh/campusmesh/router"
	"github.com/campusmesh/campusmesh/session"
	"github.com/campusmesh/campusmesh/source"
)

// Options configures the CampusMesh instance.
type Options struct {
	// SessionStore defaults to an in-memory implementation.
	SessionStore core.SessionStore
	// Logger defaults to the NoOp logger.
	Logger logging.Logger
	// Metrics may be nil to disable instrumentation.
	Metrics *metrics.Metrics

	// DataBaseURL, when set, registers the built-in handler catalog against
	// the school data API at that base URL.
	DataBaseURL string
	// HTTPClient is shared by the built-in handlers; defaults per source.New.
	HTTPClient *http.Client
	// FetchLimit is the page size requested from data handlers.
	FetchLimit int
	// FallbackMode is the handler used when no routing signal matches.
	FallbackMode string

	// RegistrationFlow overrides the built-in registration dialog.
	RegistrationFlow *dialog.Flow
	// Submitter receives completed registrations.
	Submitter agents.Submitter
	// Now supplies the dialog engine's clock; tests override it.
	Now func() time.Time
}

// CampusMesh is the high-level façade aggregating the router and its services.
type CampusMesh struct {
	opts   Options
	reg    *registry.Registry
	router *router.Router
}

// New creates a CampusMesh answering turns with the given classifier and
// generic answering backend. Any unset service is initialized with a safe
// default.
func New(classifier core.Classifier, answerer core.Answerer, optFns ...func(o *Options)) (*CampusMesh, error) {
	opts := Options{
		SessionStore:     session.NewInMemoryStore(),
		Logger:           logging.NoOpLogger{},
		FetchLimit:       agents.DefaultFetchLimit,
		FallbackMode:     route.DefaultMode,
		RegistrationFlow: dialog.RegistrationFlow(),
		Now:              time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	reg := registry.New(func(o *registry.Options) { o.Logger = opts.Logger })
	if opts.DataBaseURL != "" {
		err := source.RegisterAll(reg, opts.DataBaseURL, func(o *source.RegisterAllOptions) {
			o.Client = opts.HTTPClient
			o.Logger = opts.Logger
		})
		if err != nil {
			return nil, fmt.Errorf("register handler catalog: %w", err)
		}
	}

	engine := dialog.New(opts.RegistrationFlow, func(o *dialog.Options) {
		o.Logger = opts.Logger
		o.Now = opts.Now
	})

	intake := agents.NewIntakeAgent(engine, func(o *agents.IntakeOptions) {
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
		o.Submitter = opts.Submitter
	})
	dataQuery := agents.NewDataQueryAgent(reg, func(o *agents.DataQueryOptions) {
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
		o.FallbackMode = opts.FallbackMode
		o.FetchLimit = opts.FetchLimit
	})
	catchAll := agents.NewRAGAgent(answerer, func(o *agents.RAGOptions) {
		o.Logger = opts.Logger
	})

	r := router.New(classifier, opts.SessionStore, []router.Agent{intake, dataQuery}, catchAll,
		func(o *router.Options) {
			o.Logger = opts.Logger
			o.Metrics = opts.Metrics
		})

	return &CampusMesh{opts: opts, reg: reg, router: r}, nil
}

// RegisterHandler adds a data handler to the registry. Registering an
// existing mode replaces the previous handler.
func (m *CampusMesh) RegisterHandler(h core.QueryHandler) { m.reg.Register(h) }

// Registry exposes the handler registry for inspection.
func (m *CampusMesh) Registry() *registry.Registry { return m.reg }

// Respond answers one user turn within the given session.
func (m *CampusMesh) Respond(ctx context.Context, sessionID, query string) (*core.Result, error) {
	return m.router.Respond(ctx, sessionID, query)
}
