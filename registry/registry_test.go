package registry

import (
	"testing"

	"github.com/campusmesh/campusmesh/core"
	"github.com/campusmesh/campusmesh/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ core.QueryHandler = (*testutil.StaticHandler)(nil)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := New()
	reg.Register(testutil.NewStaticHandler("students", "student"))
	reg.Register(testutil.NewStaticHandler("materials", "material", "handout"))

	h, ok := reg.Get("materials")
	require.True(t, ok)
	assert.Equal(t, "materials", h.Mode())

	_, ok = reg.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_ReRegisterKeepsOthers(t *testing.T) {
	reg := New()
	a1 := testutil.NewStaticHandler("students", "student")
	b := testutil.NewStaticHandler("materials", "material")
	a2 := testutil.NewStaticHandler("students", "pupil")

	reg.Register(a1)
	reg.Register(b)
	reg.Register(a2)

	// Re-registering A must not remove B.
	h, ok := reg.Get("materials")
	require.True(t, ok)
	assert.Equal(t, b, h)

	// Last registration for the same mode wins.
	h, ok = reg.Get("students")
	require.True(t, ok)
	assert.Equal(t, a2, h)

	// Mode keeps its original iteration position.
	assert.Equal(t, []string{"students", "materials"}, reg.Modes())
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_FirstFollowsRegistrationOrder(t *testing.T) {
	reg := New()
	_, ok := reg.First()
	assert.False(t, ok)

	reg.Register(testutil.NewStaticHandler("meetings", "meeting"))
	reg.Register(testutil.NewStaticHandler("students", "student"))

	h, ok := reg.First()
	require.True(t, ok)
	assert.Equal(t, "meetings", h.Mode())
}

func TestRegistry_MatchKeyword(t *testing.T) {
	reg := New()
	reg.Register(testutil.NewStaticHandler("live_scorings", "live score", "score"))
	reg.Register(testutil.NewStaticHandler("materials", "material"))

	tests := []struct {
		name     string
		query    string
		wantMode string
		wantOK   bool
	}{
		{"single match", "where are the materials", "materials", true},
		{"case folded", "Show me the MATERIAL list", "materials", true},
		{"longest keyword wins", "what is the live score today", "live_scorings", true},
		{"no match", "hello there", "", false},
		{"empty query", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, ok := reg.MatchKeyword(tt.query)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMode, mode)
		})
	}
}

func TestRegistry_MatchKeywordDeterministicTieBreak(t *testing.T) {
	reg := New()
	reg.Register(testutil.NewStaticHandler("meetings", "meet"))
	reg.Register(testutil.NewStaticHandler("materials", "mate"))

	// Both 4-char keywords match "meet your mate"; the lexicographically
	// smaller one must win every time.
	for i := 0; i < 50; i++ {
		mode, ok := reg.MatchKeyword("meet your mate")
		require.True(t, ok)
		assert.Equal(t, "materials", mode)
	}
}

func TestRegistry_KeywordOverwriteLastWins(t *testing.T) {
	reg := New()
	reg.Register(testutil.NewStaticHandler("students", "roster"))
	reg.Register(testutil.NewStaticHandler("teachers", "roster"))

	mode, ok := reg.MatchKeyword("show the roster")
	require.True(t, ok)
	assert.Equal(t, "teachers", mode)
}
