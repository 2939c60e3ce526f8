package database

// Row is a read-only view over one result row, addressable by column name
// or ordinal position. A Row obtained from Rows.Row() is valid only until
// the next call to Next() on the same Rows; QueryRow/QueryRow-style helpers
// Clone() it before returning so callers don't hold a reference into a
// cursor that has already moved on.
type Row struct {
	columnNames []string
	values      map[string]any
	ordered     []any
}

func newRow(columnNames []string, raw []any) *Row {
	values := make(map[string]any, len(columnNames))
	ordered := make([]any, len(columnNames))
	for i, name := range columnNames {
		var v any
		if i < len(raw) {
			v = raw[i]
		}
		values[name] = v
		ordered[i] = v
	}
	return &Row{columnNames: columnNames, values: values, ordered: ordered}
}

// ByName returns the value of the named column and whether that column
// exists in this row.
func (r *Row) ByName(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// ByOrdinal returns the value at the given zero-based column position.
func (r *Row) ByOrdinal(i int) (any, bool) {
	if i < 0 || i >= len(r.ordered) {
		return nil, false
	}
	return r.ordered[i], true
}

// ToObject returns a fresh map from column name to value.
func (r *Row) ToObject() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// ToArray returns a fresh slice of values in column order.
func (r *Row) ToArray() []any {
	out := make([]any, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Clone returns a copy of this Row that is safe to retain past the
// lifetime of the cursor it came from.
func (r *Row) Clone() *Row {
	names := make([]string, len(r.columnNames))
	copy(names, r.columnNames)
	return newRow(names, r.ToArray())
}
