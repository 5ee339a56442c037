package document

// Document is an opaque structured value: string fields mapping to scalars,
// nested Documents, or sequences. It is the unit of storage for the table
// store and the shape of engine snapshot state and event payloads.
type Document map[string]any

// Clone returns a deep copy of the document. Mutating the copy never
// affects the original; the in-memory backend relies on this so readers
// cannot observe a writer's partially-applied update.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Document:
		return val.Clone()
	case map[string]any:
		return Document(val).Clone()
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		// Scalars are immutable.
		return val
	}
}

// Equal reports whether two documents have identical canonical form.
// This is the only correct cross-backend comparison: a round trip through
// JSON turns int into float64, which canonical bytes normalize away.
func Equal(a, b Document) bool {
	ab, err := MarshalCanonical(a)
	if err != nil {
		return false
	}
	bb, err := MarshalCanonical(b)
	if err != nil {
		return false
	}
	return string(ab) == string(bb)
}

// String returns the string value of a field, or "" if absent or not a
// string.
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Int64 returns the integer value of a field, tolerating the numeric types
// a JSON round trip can produce. Returns 0 if absent or non-numeric.
func (d Document) Int64(key string) int64 {
	switch n := d[key].(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// Child returns a nested document field, or nil if absent or not a mapping.
func (d Document) Child(key string) Document {
	switch m := d[key].(type) {
	case Document:
		return m
	case map[string]any:
		return Document(m)
	default:
		return nil
	}
}
