// Package agents contains the specialized turn handlers the router dispatches
// to: the data-query agent answering tabular school-data questions, the
// intake agent driving the registration dialog, and the retrieval-augmented
// fallback that answers everything the specialists decline.
//
// Agents share one claim/handle shape: CanHandle inspects the turn without
// side effects, Handle produces exactly one core.Result. The router tries
// agents in its configured order and stops at the first claim.
package agents
