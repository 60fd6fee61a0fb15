// Package rebuild turns change notifications into debounced build cycles.
//
// A Trigger owns a single loop with three states. While Idle it blocks until
// the first signal arrives. While Coalescing it keeps absorbing signals until
// a full window passes without one. While Running it executes exactly one
// build cycle and publishes per-file diagnostics for the in-memory files, then
// returns to Idle. Signals posted during Running wait in the queue and start
// the next Coalescing phase.
package rebuild
