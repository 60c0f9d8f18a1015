package route

import (
	"testing"

	"github.com/campusmesh/campusmesh/core"
	"github.com/campusmesh/campusmesh/internal/testutil"
	"github.com/campusmesh/campusmesh/registry"
	"github.com/stretchr/testify/assert"
)

func newRegistry(modes ...string) *registry.Registry {
	reg := registry.New()
	for _, m := range modes {
		reg.Register(testutil.NewStaticHandler(m))
	}
	return reg
}

func turn(query string) *core.TurnContext {
	return core.NewTurnContext("sess-1", query)
}

func turnWithRaw(query, raw string) *core.TurnContext {
	tc := turn(query)
	tc.Metadata[core.MetaIntentRawOutput] = raw
	return tc
}

func TestDetectMode_ClassifierLLMAction(t *testing.T) {
	// Scenario A: the classifier action signal wins over everything else.
	reg := newRegistry("students", "materials")
	r := NewResolver(reg)

	mode, tier := r.DetectModeTier(turnWithRaw("anything at all", `{"llm":{"action":"show_materials_list"}}`), "students")
	assert.Equal(t, "materials", mode)
	assert.Equal(t, TierClassifier, tier)
	assert.True(t, tier.Informed())
}

func TestDetectMode_ClassifierHeuristicModeWinsOverAction(t *testing.T) {
	reg := newRegistry("students", "materials", "meetings")
	r := NewResolver(reg)

	raw := `{"heuristic":{"name":"calendar_rule","metadata":{"mode":"meetings"}},"llm":{"action":"show_materials_list"}}`
	mode := r.DetectMode(turnWithRaw("irrelevant", raw), "students")
	assert.Equal(t, "meetings", mode)
}

func TestDetectMode_ClassifierBeatsLexicalAndKeyword(t *testing.T) {
	// P1: a registered classifier mode wins regardless of what lexical
	// heuristics or keywords would otherwise match.
	reg := registry.New()
	reg.Register(testutil.NewStaticHandler("students", "student"))
	reg.Register(testutil.NewStaticHandler("materials", "material"))
	r := NewResolver(reg)

	mode := r.DetectMode(turnWithRaw("show me the materials please", `{"llm":{"action":"show_students_list"}}`), "")
	assert.Equal(t, "students", mode)
}

func TestDetectMode_FlatClassifierCompletion(t *testing.T) {
	// The OpenAI adapter stores the completion JSON unwrapped; the action at
	// the top level must still drive tier 1.
	reg := newRegistry("students", "payments")
	r := NewResolver(reg)

	raw := `{"intent":"data_query","action":"show_payments_list","action_confidence":0.91,"urgency":"low","urgency_confidence":0.8,"tone_major":"neutral","tone_major_confidence":0.7,"tone_minor":"none","tone_minor_confidence":0.5}`
	mode, tier := r.DetectModeTier(turnWithRaw("can you check that for me", raw), "students")
	assert.Equal(t, "payments", mode)
	assert.Equal(t, TierClassifier, tier)
}

func TestDetectMode_UnregisteredClassifierModeFallsThrough(t *testing.T) {
	reg := newRegistry("materials")
	r := NewResolver(reg)

	// live_scorings is not registered; the classifier signal is skipped and
	// the lexical tier picks materials.
	mode, tier := r.DetectModeTier(turnWithRaw("materials for class", `{"llm":{"action":"show_live_scores"}}`), "")
	assert.Equal(t, "materials", mode)
	assert.Equal(t, TierLexical, tier)
}

func TestDetectMode_MalformedMetadataIsNoSignal(t *testing.T) {
	reg := newRegistry("materials")
	r := NewResolver(reg)

	for _, raw := range []string{"", "{not json", `"just a string"`, `{"other":1}`} {
		mode := r.DetectMode(turnWithRaw("materials", raw), "")
		assert.Equal(t, "materials", mode, "raw=%q", raw)
	}
}

func TestDetectMode_DirectLexicalHeuristic(t *testing.T) {
	// Scenario B: the direct heuristic fires before the keyword index even
	// though the keyword would also match.
	reg := registry.New()
	reg.Register(testutil.NewStaticHandler("live_scorings", "live score"))
	r := NewResolver(reg)

	mode, tier := r.DetectModeTier(turn("show me live scores"), "")
	assert.Equal(t, "live_scorings", mode)
	assert.Equal(t, TierLexical, tier)
}

func TestDetectMode_KeywordIndex(t *testing.T) {
	reg := registry.New()
	reg.Register(testutil.NewStaticHandler("students", "pupil"))
	r := NewResolver(reg)

	mode, tier := r.DetectModeTier(turn("how many pupils are enrolled"), "")
	assert.Equal(t, "students", mode)
	assert.Equal(t, TierKeyword, tier)
}

func TestDetectMode_FallbackPrecedence(t *testing.T) {
	reg := newRegistry("meetings", "payments")
	r := NewResolver(reg)

	tests := []struct {
		name     string
		fallback string
		wantMode string
		wantTier Tier
	}{
		{"registered fallback", "payments", "payments", TierFallback},
		{"unregistered fallback", "students", "meetings", TierFirstRegistered},
		{"empty fallback", "", "meetings", TierFirstRegistered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, tier := r.DetectModeTier(turn("no signal here"), tt.fallback)
			assert.Equal(t, tt.wantMode, mode)
			assert.Equal(t, tt.wantTier, tier)
			assert.False(t, tier.Informed())
		})
	}
}

func TestDetectMode_EmptyRegistryUsesDefault(t *testing.T) {
	r := NewResolver(registry.New())

	mode, tier := r.DetectModeTier(turn("anything"), "whatever")
	assert.Equal(t, DefaultMode, mode)
	assert.Equal(t, TierDefault, tier)
}

func TestDetectMode_Totality(t *testing.T) {
	// P2: never panics, always returns a registered mode when one exists,
	// even for garbage input.
	reg := newRegistry("students")
	r := NewResolver(reg)

	queries := []string{"", "   ", "\x00\xff", "ｍａｔｅｒｉａｌｓ", "🤖🤖🤖"}
	for _, q := range queries {
		tc := turnWithRaw(q, `{"llm":{"action":12345}}`)
		mode := r.DetectMode(tc, "")
		assert.True(t, reg.Has(mode), "query=%q resolved to unregistered mode %q", q, mode)
	}
}
