package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmesh/campusmesh/core"
)

var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStore_GetCreatesLazily(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	sess, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sess.ID)
	assert.Empty(t, sess.StateSnapshot())

	again, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, again.ID)
}

func TestInMemoryStore_ReturnsClones(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	sess, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	sess.SetState("active_flow", "registration")

	// Mutating the returned clone must not leak into the store.
	fresh, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	_, ok := fresh.GetState("active_flow")
	assert.False(t, ok)
}

func TestInMemoryStore_SaveRoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	sess := core.NewSession("sess-1")
	sess.SetState("mode", "payments")
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	v, ok := got.GetState("mode")
	require.True(t, ok)
	assert.Equal(t, "payments", v)
}

func TestInMemoryStore_ApplyDelta(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.ApplyDelta(ctx, "sess-1", map[string]any{"a": 1, "b": "x"}))
	require.NoError(t, store.ApplyDelta(ctx, "sess-1", map[string]any{"b": "y"}))

	sess, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	a, _ := sess.GetState("a")
	b, _ := sess.GetState("b")
	assert.Equal(t, 1, a)
	assert.Equal(t, "y", b)
}

func TestInMemoryStore_AppendTurn(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, "sess-1", core.TurnRecord{ID: "t1", Query: "hello"}))
	require.NoError(t, store.AppendTurn(ctx, "sess-1", core.TurnRecord{ID: "t2", Query: "again"}))

	sess, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	turns := sess.GetTurns()
	require.Len(t, turns, 2)
	assert.Equal(t, "t1", turns[0].ID)
	assert.Equal(t, "t2", turns[1].ID)
}

func TestInMemoryStore_TouchIsGet(t *testing.T) {
	store := NewInMemoryStore()
	sess, err := store.Touch(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sess.ID)
}
