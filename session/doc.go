// Package session houses concrete implementations of the core.SessionStore.
// The interface itself (and the Session struct) live in the core package to
// centralize domain contracts; keeping only implementations here prevents
// higher level packages (agents, router) from depending on concrete storage.
//
// Two backends ship by default: a volatile in-memory store for tests and
// single-process deployments, and a Redis store with per-session TTL for
// anything that needs to survive restarts or span replicas.
package session
