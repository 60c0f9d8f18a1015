// Package source implements the QueryHandler capability for HTTP-backed
// school data tables. Each handler wraps one endpoint returning a JSON array
// of records and renders fetched rows as markdown or CSV. All handlers are
// registered through RegisterAll in a single fixed, declared order so the
// registry's "last wins" behavior is deterministic and testable instead of
// import-order dependent.
package source
