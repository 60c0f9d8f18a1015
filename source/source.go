package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/campusmesh/campusmesh/core"
	"github.com/campusmesh/campusmesh/logging"
)

var bodyJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Read caps applied to upstream payloads.
const (
	maxBodyBytes    = 4 << 20 // 4MB
	defaultMarkdown = 25
	defaultCSV      = 500
)

// FetchError is the single error kind produced at the data-source transport
// boundary. Network failures, non-2xx statuses, malformed bodies and
// wrong-shaped payloads all collapse into it; the offending URL is retained
// for debug/log context only and is never shown to the end user.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *FetchError) Unwrap() error { return e.Err }

// componentLogger and fetchLogger are the optional structured surfaces of
// logging.RouterLogger; plain loggers keep the printf-style records.
type componentLogger interface {
	WithComponent(c string) *logging.RouterLogger
}

type fetchLogger interface {
	LogFetch(mode string, rows int, dur time.Duration, err error)
}

// Options configures an HTTPSource.
type Options struct {
	// Client performs the requests; defaults to a client with a sane timeout.
	Client *http.Client
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
	// Label is the human-readable table name used in rendered output.
	Label string
	// Keywords are the registry's lexical triggers for this handler.
	Keywords []string
	// PreferredColumns lists identifying columns to render first; columns
	// not in the list are appended in first-seen order.
	PreferredColumns []string
	// MaxMarkdownRows / MaxCSVRows cap rendered output with an explicit
	// truncation notice.
	MaxMarkdownRows int
	MaxCSVRows      int
}

// HTTPSource is a QueryHandler backed by one HTTP endpoint serving a JSON
// array of records. Fetch performs a single attempt; the caller decides
// whether to surface the error text or retry.
type HTTPSource struct {
	mode     string
	endpoint string
	label    string
	keywords []string

	client    *http.Client
	logger    logging.Logger
	preferred []string
	maxMD     int
	maxCSV    int
}

// New constructs an HTTPSource answering for mode against endpoint.
func New(mode, endpoint string, optFns ...func(o *Options)) *HTTPSource {
	opts := Options{
		Client:          &http.Client{Timeout: 15 * time.Second},
		Logger:          logging.NoOpLogger{},
		Label:           mode,
		MaxMarkdownRows: defaultMarkdown,
		MaxCSVRows:      defaultCSV,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if cl, ok := logger.(componentLogger); ok {
		logger = cl.WithComponent("source")
	}

	return &HTTPSource{
		mode:      mode,
		endpoint:  endpoint,
		label:     opts.Label,
		keywords:  opts.Keywords,
		client:    opts.Client,
		logger:    logger,
		preferred: opts.PreferredColumns,
		maxMD:     opts.MaxMarkdownRows,
		maxCSV:    opts.MaxCSVRows,
	}
}

// Mode returns the handler's mode key.
func (s *HTTPSource) Mode() string { return s.mode }

// Keywords returns the handler's lexical triggers.
func (s *HTTPSource) Keywords() []string { return s.keywords }

// Label returns the handler's display name.
func (s *HTTPSource) Label() string { return s.label }

// Fetch performs GET <endpoint>?skip=<skip>&limit=<limit> and normalizes the
// payload. Every element of the upstream array that is not a structured
// record (a JSON object) is dropped, not propagated. The normalized result
// is also staged into the turn's execution state for downstream stages.
func (s *HTTPSource) Fetch(ctx context.Context, tc *core.TurnContext, skip, limit int) (*core.FetchResult, error) {
	reqURL, err := s.buildURL(skip, limit)
	if err != nil {
		return nil, &FetchError{URL: s.endpoint, Err: err}
	}

	start := time.Now()

	rows, ferr := s.doRequest(ctx, reqURL)
	if ferr != nil {
		if fl, ok := s.logger.(fetchLogger); ok {
			fl.LogFetch(s.mode, 0, time.Since(start), ferr)
		} else {
			s.logger.Error("source %s: fetch failed url=%s err=%v", s.mode, reqURL, ferr)
		}
		return nil, ferr
	}

	result := &core.FetchResult{
		Rows: rows,
		Meta: core.FetchMeta{Skip: skip, Limit: limit, Count: len(rows), Source: s.mode},
	}
	if tc != nil {
		tc.SetExec(core.ExecKeyLastFetch, result)
	}

	if fl, ok := s.logger.(fetchLogger); ok {
		fl.LogFetch(s.mode, len(rows), time.Since(start), nil)
	} else {
		s.logger.Debug("source %s: fetched %d rows in %s", s.mode, len(rows), time.Since(start))
	}

	return result, nil
}

func (s *HTTPSource) buildURL(skip, limit int) (string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *HTTPSource) doRequest(ctx context.Context, reqURL string) ([]core.Row, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FetchError{URL: reqURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: reqURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: reqURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{URL: reqURL, Err: err}
	}

	var payload []any
	if err := bodyJSON.Unmarshal(body, &payload); err != nil {
		return nil, &FetchError{URL: reqURL, Err: fmt.Errorf("payload is not a JSON array: %w", err)}
	}

	rows := make([]core.Row, 0, len(payload))
	for _, el := range payload {
		rec, ok := el.(map[string]any)
		if !ok {
			s.logger.Warn("source %s: dropping non-record payload element", s.mode)
			continue
		}
		rows = append(rows, rec)
	}

	return rows, nil
}

// ToMarkdown renders rows as a markdown table using the handler's preferred
// column order.
func (s *HTTPSource) ToMarkdown(rows []core.Row) string {
	return RenderMarkdown(rows, s.preferred, s.maxMD)
}

// ToCSV renders rows as CSV using the handler's preferred column order.
func (s *HTTPSource) ToCSV(rows []core.Row) string {
	return RenderCSV(rows, s.preferred, s.maxCSV)
}
