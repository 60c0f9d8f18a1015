// Package core provides the foundational domain types, interfaces and
// per-turn execution contexts used by CampusMesh. It defines the core
// abstractions for:
//
//   - Turns (TurnContext: the mutable, single-turn execution scope)
//   - Sessions (stateful conversational containers with turn history)
//   - Results (the response contract returned for every turn)
//   - Query handlers (fetch/render capabilities bound to one data source)
//   - The typed classifier view (IntentResult / IntentSignal)
//   - Pluggable session stores and model boundaries (Classifier, Answerer)
//
// The package intentionally keeps implementation concerns (persistence,
// routing, concrete handlers) out of scope, exposing small interfaces to
// enable custom backends and extensions.
package core
