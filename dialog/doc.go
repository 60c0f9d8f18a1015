// Package dialog implements the turn-based slot-filling state machine used
// for structured intake flows (e.g. student registration). A Flow is a static
// ordered list of steps, each binding a prompt, an optional parser and an
// optional branch table to a named slot on the session's dialog state. The
// Engine drives one transition per user turn: parse the reply for the last
// asked step, write the slot, pick the next unfilled step and render its
// prompt. Parse failures re-prompt the same step; there is deliberately no
// retry limit so a user is never dead-ended.
package dialog
