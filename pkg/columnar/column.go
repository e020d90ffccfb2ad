package columnar

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/ajitpratap0/csvcols/pkg/errors"
)

// Column is an immutable ordered sequence of values. Columns are shared by
// pointer between every Document that references them.
type Column[T comparable] struct {
	values []T

	uniqueOnce sync.Once
	unique     ValueSet[T]
}

// NewColumn creates a Column holding a copy of values.
func NewColumn[T comparable](values ...T) *Column[T] {
	return newColumn(slices.Clone(values))
}

// ColumnOf creates a Column from every value produced by seq.
func ColumnOf[T comparable](seq iter.Seq[T]) *Column[T] {
	return newColumn(slices.Collect(seq))
}

// newColumn takes ownership of values.
func newColumn[T comparable](values []T) *Column[T] {
	return &Column[T]{values: values}
}

// Len returns the number of values in the column
func (c *Column[T]) Len() int {
	return len(c.values)
}

// At returns the value at position i.
func (c *Column[T]) At(i int) (T, error) {
	if i < 0 || i >= len(c.values) {
		var zero T
		return zero, errors.Newf(errors.ErrorTypeOutOfRange, "column index %d out of range [0, %d)", i, len(c.values)).
			WithDetail("index", i).
			WithDetail("length", len(c.values))
	}
	return c.values[i], nil
}

// All iterates over (position, value) pairs in order.
func (c *Column[T]) All() iter.Seq2[int, T] {
	return slices.All(c.values)
}

// Seq iterates over the values in order.
func (c *Column[T]) Seq() iter.Seq[T] {
	return slices.Values(c.values)
}

// Values returns a copy of the column's values.
func (c *Column[T]) Values() []T {
	return slices.Clone(c.values)
}

// Equal reports whether other holds the same values in the same order.
func (c *Column[T]) Equal(other *Column[T]) bool {
	if other == nil {
		return false
	}
	if c == other {
		return true
	}
	return slices.Equal(c.values, other.values)
}

// EqualSeq reports whether seq produces exactly the column's values, in
// order and with nothing left over.
func (c *Column[T]) EqualSeq(seq iter.Seq[T]) bool {
	if seq == nil {
		return false
	}
	i := 0
	for v := range seq {
		if i >= len(c.values) || c.values[i] != v {
			return false
		}
		i++
	}
	return i == len(c.values)
}

// EqualValues reports whether values matches the column element-wise.
func (c *Column[T]) EqualValues(values ...T) bool {
	return slices.Equal(c.values, values)
}

// Unique returns the set of distinct values. The set is computed on first
// use and reused afterwards.
func (c *Column[T]) Unique() ValueSet[T] {
	c.uniqueOnce.Do(func() {
		set := make(map[T]struct{}, len(c.values))
		for _, v := range c.values {
			set[v] = struct{}{}
		}
		c.unique = ValueSet[T]{set: set}
	})
	return c.unique
}

// Map returns a new Column with f applied to every value.
func (c *Column[T]) Map(f func(T) T) *Column[T] {
	out := make([]T, len(c.values))
	for i, v := range c.values {
		out[i] = f(v)
	}
	return newColumn(out)
}

func (c *Column[T]) String() string {
	return fmt.Sprintf("Column%v", c.values)
}

// ValueSet is a read-only set of column values.
type ValueSet[T comparable] struct {
	set map[T]struct{}
}

// Len returns the number of distinct values
func (s ValueSet[T]) Len() int {
	return len(s.set)
}

// Has reports whether v is in the set
func (s ValueSet[T]) Has(v T) bool {
	_, ok := s.set[v]
	return ok
}

// All iterates over the set in unspecified order.
func (s ValueSet[T]) All() iter.Seq[T] {
	return maps.Keys(s.set)
}

// Sorted returns the set's values ordered by cmp.
func (s ValueSet[T]) Sorted(cmp func(a, b T) int) []T {
	return slices.SortedFunc(maps.Keys(s.set), cmp)
}

// Equal reports whether both sets hold the same values.
func (s ValueSet[T]) Equal(other ValueSet[T]) bool {
	if len(s.set) != len(other.set) {
		return false
	}
	for v := range s.set {
		if _, ok := other.set[v]; !ok {
			return false
		}
	}
	return true
}
