// Package document provides the opaque value model stored by the table
// store: a string-keyed mapping of scalars, nested mappings, and sequences.
//
// Documents are backend-neutral. Backends that persist through JSON hand
// back float64 where a writer stored an int; comparison therefore goes
// through canonical bytes (Equal), never reflect.DeepEqual.
//
// # Canonical JSON
//
// MarshalCanonical produces deterministic bytes for a document:
//   - Object keys sorted
//   - No HTML escaping (< > & are NOT escaped)
//   - Strings NFC normalized
//   - Integral floats rendered as integers
//
// Canonical bytes are what the append-log and sqlite backends persist, and
// what golden tests compare against.
package document
