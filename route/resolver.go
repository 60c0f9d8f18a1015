// Package route implements mode resolution: given the current turn's text
// and upstream classifier metadata, it picks exactly one registered mode
// using a strict precedence chain. Later tiers are strictly less informed
// than earlier ones (explicit classifier signal > lexical heuristic > generic
// keyword > arbitrary fallback), so precedence, not confidence scoring, is
// the tie-break discipline.
package route

import (
	"strings"

	"github.com/campusmesh/campusmesh/core"
	"github.com/campusmesh/campusmesh/logging"
	"github.com/campusmesh/campusmesh/registry"
)

// DefaultMode is the literal mode returned when the registry is empty.
const DefaultMode = "students"

// Tier identifies which precedence tier produced a resolution.
type Tier int

const (
	// TierClassifier is an explicit mode/action signal from the classifier payload.
	TierClassifier Tier = iota + 1
	// TierLexical is a fixed substring heuristic against the query text.
	TierLexical
	// TierKeyword is a registry keyword-index match.
	TierKeyword
	// TierFallback is the caller-provided fallback mode.
	TierFallback
	// TierFirstRegistered is the earliest registered handler.
	TierFirstRegistered
	// TierDefault is the hard-coded default used when the registry is empty.
	TierDefault
)

// String returns the tier's metric/log label.
func (t Tier) String() string {
	switch t {
	case TierClassifier:
		return "classifier"
	case TierLexical:
		return "lexical"
	case TierKeyword:
		return "keyword"
	case TierFallback:
		return "fallback"
	case TierFirstRegistered:
		return "first_registered"
	case TierDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Informed reports whether the tier represents an actual signal about the
// user's request, as opposed to an arbitrary catch-all choice. The dispatcher
// uses this to decide whether a data-query agent should claim the turn.
func (t Tier) Informed() bool { return t >= TierClassifier && t <= TierKeyword }

// actionModes maps case-folded classifier actions to handler modes.
var actionModes = map[string]string{
	"show_students_list":  "students",
	"show_teachers_list":  "teachers",
	"show_materials_list": "materials",
	"show_meetings_list":  "meetings",
	"show_live_scores":    "live_scorings",
	"show_payments_list":  "payments",
}

// lexicalRules is the short ordered list of fixed substring checks applied to
// the lower-cased query. Order matters: the first matching rule whose mode is
// registered wins.
var lexicalRules = []struct {
	substr string
	mode   string
}{
	{"live scoring", "live_scorings"},
	{"live scores", "live_scorings"},
	{"live score", "live_scorings"},
	{"materials", "materials"},
	{"meetings", "meetings"},
	{"payments", "payments"},
}

// Options configures a Resolver.
type Options struct {
	Logger logging.Logger
}

// Resolver picks exactly one registered mode per turn.
type Resolver struct {
	reg    *registry.Registry
	logger logging.Logger
}

// NewResolver constructs a Resolver over the given registry.
func NewResolver(reg *registry.Registry, optFns ...func(o *Options)) *Resolver {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Resolver{reg: reg, logger: opts.Logger}
}

// DetectMode resolves the mode for the turn. It never fails: as long as at
// least one handler is registered it returns a registered mode, and with an
// empty registry it returns DefaultMode.
func (r *Resolver) DetectMode(tc *core.TurnContext, fallbackMode string) string {
	mode, _ := r.DetectModeTier(tc, fallbackMode)
	return mode
}

// DetectModeTier resolves the mode and reports which precedence tier chose
// it. Tiers are evaluated top-to-bottom, first match wins; a tier whose
// candidate mode is not registered silently falls through to the next tier,
// which keeps resolution robust to classifier/handler skew during deploys.
func (r *Resolver) DetectModeTier(tc *core.TurnContext, fallbackMode string) (string, Tier) {
	// Tier 1: classifier metadata.
	if mode, ok := r.classifierMode(tc); ok {
		return mode, TierClassifier
	}

	// Tier 2: direct lexical heuristics.
	folded := strings.ToLower(tc.Query)
	for _, rule := range lexicalRules {
		if strings.Contains(folded, rule.substr) && r.reg.Has(rule.mode) {
			return rule.mode, TierLexical
		}
	}

	// Tier 3: keyword index.
	if mode, ok := r.reg.MatchKeyword(tc.Query); ok {
		return mode, TierKeyword
	}

	// Tier 4: caller-provided fallback.
	if fallbackMode != "" && r.reg.Has(fallbackMode) {
		return fallbackMode, TierFallback
	}

	// Tier 5: first registered handler.
	if h, ok := r.reg.First(); ok {
		return h.Mode(), TierFirstRegistered
	}

	// Tier 6: empty registry.
	r.logger.Warn("resolver: empty registry, using default mode %q", DefaultMode)
	return DefaultMode, TierDefault
}

// classifierMode extracts a registered mode from the opaque classifier
// payload: first the heuristic rule's explicit mode, then the LLM action
// mapped through the fixed action table. Malformed payloads are no signal.
func (r *Resolver) classifierMode(tc *core.TurnContext) (string, bool) {
	raw, ok := tc.MetadataString(core.MetaIntentRawOutput)
	if !ok {
		return "", false
	}

	sig, ok := core.ParseIntentSignal(raw)
	if !ok {
		return "", false
	}

	if mode := sig.Heuristic.Mode(); mode != "" && r.reg.Has(mode) {
		return mode, true
	}

	if sig.LLM != nil && sig.LLM.Action != "" {
		if mode, ok := actionModes[strings.ToLower(sig.LLM.Action)]; ok && r.reg.Has(mode) {
			return mode, true
		}
	}

	return "", false
}
