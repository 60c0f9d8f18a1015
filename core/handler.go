package core

import "context"

// Row is one uniform-shaped record returned by a data source.
type Row = map[string]any

// FetchMeta describes pagination and provenance for one fetch.
type FetchMeta struct {
	Skip   int    `json:"skip"`
	Limit  int    `json:"limit"`
	Count  int    `json:"count"`
	Source string `json:"source"`
}

// FetchResult is the normalized payload returned by a QueryHandler fetch.
// Rows contains only structurally valid records; anything in the upstream
// payload that fails the record-shape check is dropped, not propagated.
type FetchResult struct {
	Rows []Row     `json:"rows"`
	Meta FetchMeta `json:"meta"`
}

// QueryHandler is the fetch/render capability bound to one data source and
// one mode. Implementations are registered once at startup via an explicit
// bootstrap call; the registry is append-only for the process lifetime.
//
// Fetch performs a single attempt (no built-in retry) and translates every
// transport-boundary failure into one domain error kind carrying the
// offending URL. ToMarkdown and ToCSV must be deterministic pure functions of
// their rows: no I/O, a friendly "no records" rendering on empty input, and
// an explicit truncation notice when the displayed row count is capped.
type QueryHandler interface {
	// Mode is the unique string key this handler answers for.
	Mode() string
	// Keywords are the lexical triggers indexed by the registry (case-folded).
	Keywords() []string
	// Label is the human-readable name used in rendered output and logs.
	Label() string

	Fetch(ctx context.Context, tc *TurnContext, skip, limit int) (*FetchResult, error)
	ToMarkdown(rows []Row) string
	ToCSV(rows []Row) string
}
