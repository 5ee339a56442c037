// Package store provides the table store: a uniform key/value contract over
// named tables with three interchangeable backends.
//
//   - memory: concurrent in-process maps; volatile, fastest, the default
//   - appendlog: one durable append-only JSON-lines file per table
//   - sqlite: one relation per table in an embedded SQLite database
//
// Tables are created lazily on first use; no pre-registration step exists.
// Every backend returns List entries in ascending key order, which event
// tables rely on for replay correctness (sequence numbers are zero-padded
// into keys so lexical order equals append order).
//
// # Error model
//
// Open failures are fatal at startup: there is no handle to fall back to.
// Put/Get/Delete/List propagate I/O errors to the caller; a put that
// returns nil has been applied (and, for durable backends, written out).
// A missing key is an absent value, never an error.
//
// # Concurrency
//
// Stores are safe for concurrent use. Readers of a table never block other
// readers; writers to a table serialize against each other and against
// readers so a reader cannot observe a partially-applied write. None of the
// backends offers compare-and-swap: read-modify-write sequences are not
// atomic, and callers that need one-writer-per-key semantics must serialize
// through a single owner (the match service holds a per-match mutex).
package store
