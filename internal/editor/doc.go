// Package editor serves build diagnostics to an editor over the language
// server protocol on stdio.
//
// Open buffers become the in-memory overlay of the docset. Every open, change,
// save or close posts a signal to a rebuild trigger, and the diagnostics of
// each cycle are published per file with textDocument/publishDiagnostics.
// Nothing but protocol messages is ever written to the output stream.
package editor
