// Package registry holds the process-wide table mapping a mode name to its
// QueryHandler, plus a keyword index built at registration time. Handlers are
// registered once, in a fixed declared order, by an explicit bootstrap call
// (see source.RegisterAll); after startup the registry is read-only.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/campusmesh/campusmesh/core"
	"github.com/campusmesh/campusmesh/logging"
)

// Options configures a Registry.
type Options struct {
	// Logger receives overwrite warnings; defaults to NoOpLogger.
	Logger logging.Logger
}

// Registry maps mode names to handlers and case-folded keywords to modes.
// Registration is append-only for the process lifetime: there is no removal
// operation. A later registration for an existing mode or keyword overwrites
// the earlier one; the overwrite is logged but not rejected.
//
// Reads vastly outnumber writes (writes happen only at bootstrap), but the
// registry is still guarded by a RWMutex so misuse cannot corrupt it.
type Registry struct {
	mu       sync.RWMutex
	logger   logging.Logger
	handlers map[string]core.QueryHandler
	order    []string          // modes in first-registration order
	keywords map[string]string // folded keyword -> mode
}

// New constructs an empty Registry.
func New(optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		logger:   opts.Logger,
		handlers: map[string]core.QueryHandler{},
		keywords: map[string]string{},
	}
}

// Register inserts the handler under its mode and indexes each of its
// keywords (case-folded). Re-registering an existing mode replaces the
// handler in place without disturbing other registrations; the mode keeps its
// original position in iteration order.
func (r *Registry) Register(h core.QueryHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mode := h.Mode()
	if _, exists := r.handlers[mode]; exists {
		r.logger.Warn("registry: overwriting handler for mode %q", mode)
	} else {
		r.order = append(r.order, mode)
	}
	r.handlers[mode] = h

	for _, kw := range h.Keywords() {
		folded := strings.ToLower(strings.TrimSpace(kw))
		if folded == "" {
			continue
		}
		if prev, exists := r.keywords[folded]; exists && prev != mode {
			r.logger.Warn("registry: keyword %q moved from mode %q to %q", folded, prev, mode)
		}
		r.keywords[folded] = mode
	}
}

// Get returns the handler registered for mode.
func (r *Registry) Get(mode string) (core.QueryHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[mode]
	return h, ok
}

// Has reports whether a handler is registered for mode.
func (r *Registry) Has(mode string) bool {
	_, ok := r.Get(mode)
	return ok
}

// Handlers returns all registered handlers in first-registration order.
func (r *Registry) Handlers() []core.QueryHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.QueryHandler, 0, len(r.order))
	for _, mode := range r.order {
		out = append(out, r.handlers[mode])
	}
	return out
}

// Modes returns all registered mode names in first-registration order.
func (r *Registry) Modes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// First returns the earliest-registered handler, if any.
func (r *Registry) First() (core.QueryHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil, false
	}
	return r.handlers[r.order[0]], true
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// MatchKeyword scans the keyword index for a keyword contained in the
// lower-cased query text and returns its mode. Map iteration order is not
// deterministic, so candidates are ranked explicitly: longest keyword first,
// then lexicographic. Only keywords whose mode is still registered can win.
func (r *Registry) MatchKeyword(query string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	folded := strings.ToLower(query)

	candidates := make([]string, 0, len(r.keywords))
	for kw := range r.keywords {
		if strings.Contains(folded, kw) {
			candidates = append(candidates, kw)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}

	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) > len(candidates[j])
		}
		return candidates[i] < candidates[j]
	})

	for _, kw := range candidates {
		mode := r.keywords[kw]
		if _, ok := r.handlers[mode]; ok {
			return mode, true
		}
	}
	return "", false
}
