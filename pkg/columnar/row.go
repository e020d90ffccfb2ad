package columnar

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/ajitpratap0/csvcols/pkg/errors"
)

// Row is a view of one row of a Document. It shares the Document's name
// index and is accessible by position or by column name.
type Row[T comparable] struct {
	values []T
	names  []string
	index  map[string]int
}

// Len returns the number of fields in the row
func (r Row[T]) Len() int {
	return len(r.values)
}

// At returns the field at column position i.
func (r Row[T]) At(i int) (T, error) {
	if i < 0 || i >= len(r.values) {
		var zero T
		return zero, errors.Newf(errors.ErrorTypeOutOfRange, "row index %d out of range [0, %d)", i, len(r.values)).
			WithDetail("index", i)
	}
	return r.values[i], nil
}

// Get returns the field of the named column.
func (r Row[T]) Get(name string) (T, error) {
	i, ok := r.index[canonicalName(name)]
	if !ok {
		var zero T
		return zero, errors.Newf(errors.ErrorTypeLookup, "row has no field named %q", name).
			WithDetail("name", name).
			WithDetail("names", slices.Clone(r.names))
	}
	return r.values[i], nil
}

// Lookup accepts an int position or a string name.
func (r Row[T]) Lookup(key any) (T, error) {
	switch k := key.(type) {
	case int:
		return r.At(k)
	case string:
		return r.Get(k)
	default:
		var zero T
		return zero, keyTypeError(key)
	}
}

// Values returns a copy of the row's fields in column order.
func (r Row[T]) Values() []T {
	return slices.Clone(r.values)
}

// Names returns the column names in order.
func (r Row[T]) Names() []string {
	return slices.Clone(r.names)
}

// All iterates over (name, value) pairs in column order.
func (r Row[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for i, v := range r.values {
			if !yield(r.names[i], v) {
				return
			}
		}
	}
}

// Map returns the row as a name to value map.
func (r Row[T]) Map() map[string]T {
	m := make(map[string]T, len(r.values))
	for i, v := range r.values {
		m[r.names[i]] = v
	}
	return m
}

// Equal compares field values only, like a tuple.
func (r Row[T]) Equal(other Row[T]) bool {
	return slices.Equal(r.values, other.values)
}

func (r Row[T]) String() string {
	var b strings.Builder
	b.WriteString("Row(")
	for i, v := range r.values {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", r.names[i], v)
	}
	b.WriteString(")")
	return b.String()
}

func keyTypeError(key any) *errors.Error {
	cause := errors.Newf(errors.ErrorTypeTypeMismatch, "unsupported key type %T", key)
	return errors.Wrap(cause, errors.ErrorTypeLookup, "key must be an int position or a string name").
		WithDetail("key", key)
}
