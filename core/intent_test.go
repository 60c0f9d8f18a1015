package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntentSignal(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantOK     bool
		wantAction string
		wantMode   string
	}{
		{
			name:       "wrapped llm action",
			raw:        `{"llm":{"action":"show_payments_list","confidence":0.9}}`,
			wantOK:     true,
			wantAction: "show_payments_list",
		},
		{
			name:     "wrapped heuristic mode",
			raw:      `{"heuristic":{"name":"calendar_rule","metadata":{"mode":"meetings"}}}`,
			wantOK:   true,
			wantMode: "meetings",
		},
		{
			name:       "flat completion",
			raw:        `{"intent":"data_query","action":"show_payments_list","action_confidence":0.91,"urgency":"low","urgency_confidence":0.8}`,
			wantOK:     true,
			wantAction: "show_payments_list",
		},
		{name: "flat without action", raw: `{"intent":"smalltalk","action":""}`},
		{name: "empty", raw: ""},
		{name: "not json", raw: "{not json"},
		{name: "scalar", raw: `"just a string"`},
		{name: "unrelated object", raw: `{"other":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := ParseIntentSignal(tt.raw)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, sig)
				return
			}
			if tt.wantAction != "" {
				require.NotNil(t, sig.LLM)
				assert.Equal(t, tt.wantAction, sig.LLM.Action)
			}
			if tt.wantMode != "" {
				assert.Equal(t, tt.wantMode, sig.Heuristic.Mode())
			}
		})
	}
}

func TestParseIntentSignal_FlatConfidenceCarriedOver(t *testing.T) {
	sig, ok := ParseIntentSignal(`{"action":"show_meetings_list","action_confidence":0.75}`)
	require.True(t, ok)
	require.NotNil(t, sig.LLM)
	assert.InDelta(t, 0.75, sig.LLM.Confidence, 1e-9)
}
