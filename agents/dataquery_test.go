package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmesh/campusmesh/core"
	"github.com/campusmesh/campusmesh/internal/testutil"
	"github.com/campusmesh/campusmesh/registry"
	"github.com/campusmesh/campusmesh/trace"
)

func newDataQueryFixture(handlers ...core.QueryHandler) (*DataQueryAgent, *registry.Registry) {
	reg := registry.New()
	for _, h := range handlers {
		reg.Register(h)
	}
	return NewDataQueryAgent(reg), reg
}

func TestDataQueryAgent_CanHandle(t *testing.T) {
	agent, _ := newDataQueryFixture(
		testutil.NewStaticHandler("students", "student"),
		testutil.NewStaticHandler("payments", "payment"),
	)
	sess := core.NewSession("sess-1")

	t.Run("classifier intent claims", func(t *testing.T) {
		tc := core.NewTurnContext("sess-1", "what do I owe?")
		tc.SetExec(core.ExecKeyIntent, &core.IntentResult{Intent: "data_query"})
		assert.True(t, agent.CanHandle(tc, sess))
	})

	t.Run("keyword signal claims", func(t *testing.T) {
		tc := core.NewTurnContext("sess-1", "show me the payment overview")
		assert.True(t, agent.CanHandle(tc, sess))
	})

	t.Run("uninformed turn declines", func(t *testing.T) {
		tc := core.NewTurnContext("sess-1", "what a lovely day")
		assert.False(t, agent.CanHandle(tc, sess))
	})
}

func TestDataQueryAgent_HandleRendersTable(t *testing.T) {
	h := testutil.NewStaticHandler("students", "student").
		WithRows(core.Row{"first_name": "Ada"}, core.Row{"first_name": "Alan"})
	agent, _ := newDataQueryFixture(h)

	tc := core.NewTurnContext("sess-1", "list all students")
	rec := trace.New()

	result, err := agent.Handle(context.Background(), tc, core.NewSession("sess-1"), rec)
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, result.Status)
	assert.Equal(t, DataQueryAgentID, result.AgentID)
	assert.Contains(t, result.AnswerText, "students: 2 rows")
	assert.Equal(t, 1, h.FetchCalls)

	mode, ok := tc.GetExec(core.ExecKeyResolvedMode)
	require.True(t, ok)
	assert.Equal(t, "students", mode)

	out, ok := tc.GetExec(core.ExecKeyAgentOutput)
	require.True(t, ok)
	assert.Equal(t, true, out.(map[string]any)["ok"])

	require.GreaterOrEqual(t, rec.Len(), 2)
	assert.Equal(t, "2 rows", rec.Steps()[1].Observation)
}

func TestDataQueryAgent_FetchFailureStillAnswers(t *testing.T) {
	h := testutil.NewStaticHandler("payments", "payment").WithErr(errors.New("upstream down"))
	agent, _ := newDataQueryFixture(h)

	tc := core.NewTurnContext("sess-1", "show payments")
	rec := trace.New()

	result, err := agent.Handle(context.Background(), tc, core.NewSession("sess-1"), rec)
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, result.Status)
	assert.Contains(t, result.AnswerText, "could not retrieve")

	out, ok := tc.GetExec(core.ExecKeyAgentOutput)
	require.True(t, ok)
	output := out.(map[string]any)
	assert.Equal(t, false, output["ok"])
	assert.Equal(t, "upstream down", output["error"])
	assert.Empty(t, output["rows"])
}

func TestDataQueryAgent_EmptyRegistryErrors(t *testing.T) {
	agent, _ := newDataQueryFixture()

	tc := core.NewTurnContext("sess-1", "anything")
	_, err := agent.Handle(context.Background(), tc, core.NewSession("sess-1"), trace.New())
	assert.Error(t, err)
}
