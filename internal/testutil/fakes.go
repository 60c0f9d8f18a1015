package testutil

import (
	"context"
	"fmt"

	"github.com/campusmesh/campusmesh/core"
)

// StaticHandler is a canned core.QueryHandler returning fixed rows (or a
// fixed error) regardless of pagination. Rendering is intentionally crude;
// resolver and router tests only assert on mode selection and row plumbing.
type StaticHandler struct {
	HandlerMode     string
	HandlerKeywords []string
	HandlerLabel    string
	Rows            []core.Row
	Err             error
	FetchCalls      int
}

// NewStaticHandler creates a handler answering for mode with the given keywords.
func NewStaticHandler(mode string, keywords ...string) *StaticHandler {
	return &StaticHandler{HandlerMode: mode, HandlerKeywords: keywords, HandlerLabel: mode}
}

// WithRows sets the canned rows (chainable).
func (h *StaticHandler) WithRows(rows ...core.Row) *StaticHandler {
	h.Rows = rows
	return h
}

// WithErr makes every Fetch fail with err (chainable).
func (h *StaticHandler) WithErr(err error) *StaticHandler {
	h.Err = err
	return h
}

// Mode returns the handler's mode key.
func (h *StaticHandler) Mode() string { return h.HandlerMode }

// Keywords returns the handler's lexical triggers.
func (h *StaticHandler) Keywords() []string { return h.HandlerKeywords }

// Label returns the handler's display name.
func (h *StaticHandler) Label() string { return h.HandlerLabel }

// Fetch returns the canned rows or error.
func (h *StaticHandler) Fetch(_ context.Context, _ *core.TurnContext, skip, limit int) (*core.FetchResult, error) {
	h.FetchCalls++
	if h.Err != nil {
		return nil, h.Err
	}
	return &core.FetchResult{
		Rows: h.Rows,
		Meta: core.FetchMeta{Skip: skip, Limit: limit, Count: len(h.Rows), Source: h.HandlerMode},
	}, nil
}

// ToMarkdown renders a one-line summary of the rows.
func (h *StaticHandler) ToMarkdown(rows []core.Row) string {
	return fmt.Sprintf("%s: %d rows", h.HandlerMode, len(rows))
}

// ToCSV renders a one-line summary of the rows.
func (h *StaticHandler) ToCSV(rows []core.Row) string {
	return fmt.Sprintf("%s,%d", h.HandlerMode, len(rows))
}

// FakeClassifier returns a fixed IntentResult (or error) for every turn.
type FakeClassifier struct {
	Result *core.IntentResult
	Err    error
	Calls  int
}

// Resolve returns the canned result or error.
func (f *FakeClassifier) Resolve(_ context.Context, _ string, _ *core.Session, _ *core.TurnContext) (*core.IntentResult, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Result != nil {
		return f.Result, nil
	}
	return &core.IntentResult{Intent: "unknown"}, nil
}

// FakeAnswerer returns fixed answer text (or error) for every request.
type FakeAnswerer struct {
	Text  string
	Err   error
	Calls int
	Last  core.AnswerRequest
}

// Answer returns the canned text or error.
func (f *FakeAnswerer) Answer(_ context.Context, req core.AnswerRequest) (string, error) {
	f.Calls++
	f.Last = req
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}
