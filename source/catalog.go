package source

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/campusmesh/campusmesh/logging"
	"github.com/campusmesh/campusmesh/registry"
)

// tableSpec declares one school data table served by the backing API.
type tableSpec struct {
	mode      string
	path      string
	label     string
	keywords  []string
	preferred []string
}

// catalog lists every built-in table in registration order. The order is part
// of the contract: it fixes which handler wins the registry's first-registered
// tie break and keeps keyword collisions deterministic.
var catalog = []tableSpec{
	{
		mode:      "students",
		path:      "/students",
		label:     "Students",
		keywords:  []string{"student", "students", "pupil", "pupils", "enrollment"},
		preferred: []string{"first_name", "last_name", "class", "school_year"},
	},
	{
		mode:      "teachers",
		path:      "/teachers",
		label:     "Teachers",
		keywords:  []string{"teacher", "teachers", "staff"},
		preferred: []string{"first_name", "last_name", "subject", "email"},
	},
	{
		mode:      "materials",
		path:      "/materials",
		label:     "Course materials",
		keywords:  []string{"material", "materials", "handout", "handouts", "course material"},
		preferred: []string{"title", "subject", "school_year", "url"},
	},
	{
		mode:      "meetings",
		path:      "/meetings",
		label:     "Meetings",
		keywords:  []string{"meeting", "meetings", "appointment", "appointments"},
		preferred: []string{"title", "date", "time", "location"},
	},
	{
		mode:      "live_scorings",
		path:      "/live_scorings",
		label:     "Live scorings",
		keywords:  []string{"score", "scores", "scoring", "live scoring", "live scores"},
		preferred: []string{"event", "team", "score", "updated_at"},
	},
	{
		mode:      "payments",
		path:      "/payments",
		label:     "Payments",
		keywords:  []string{"payment", "payments", "invoice", "invoices", "fee", "fees"},
		preferred: []string{"reference", "amount", "status", "due_date"},
	},
}

// CatalogModes returns the built-in table modes in registration order.
func CatalogModes() []string {
	modes := make([]string, 0, len(catalog))
	for _, spec := range catalog {
		modes = append(modes, spec.mode)
	}
	return modes
}

// RegisterAllOptions configures the catalog bootstrap.
type RegisterAllOptions struct {
	// Client is shared across all handlers; defaults per New.
	Client *http.Client
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// RegisterAll builds an HTTP handler for each catalog table under baseURL and
// registers them in catalog order.
func RegisterAll(reg *registry.Registry, baseURL string, optFns ...func(o *RegisterAllOptions)) error {
	opts := RegisterAllOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return err
	}

	for _, spec := range catalog {
		spec := spec
		endpoint := base.JoinPath(spec.path).String()
		handler := New(spec.mode, endpoint, func(o *Options) {
			if opts.Client != nil {
				o.Client = opts.Client
			}
			o.Logger = opts.Logger
			o.Label = spec.label
			o.Keywords = spec.keywords
			o.PreferredColumns = spec.preferred
		})
		reg.Register(handler)
	}

	return nil
}
