package columnar

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/ajitpratap0/csvcols/pkg/errors"
)

// Pair binds a column name to a Column.
type Pair[T comparable] struct {
	Name   string
	Column *Column[T]
}

// P is shorthand for Pair{Name: name, Column: col}.
func P[T comparable](name string, col *Column[T]) Pair[T] {
	return Pair[T]{Name: name, Column: col}
}

// Document is an immutable, ordered, name-unique collection of equal-length
// Columns. Every derivation returns a new Document; unchanged Columns are
// shared with the source.
type Document[T comparable] struct {
	names   []string
	columns []*Column[T]
	index   map[string]int

	rowsOnce sync.Once
	rows     []Row[T]
}

// NameLength reports the length of one column in a construction error.
type NameLength struct {
	Name   string
	Length int
}

func (nl NameLength) String() string {
	return fmt.Sprintf("%s=%d", nl.Name, nl.Length)
}

// canonicalName folds a name to Unicode NFC so that visually identical names
// compare equal.
func canonicalName(name string) string {
	return norm.NFC.String(name)
}

// New builds a Document from pairs, in order. It fails when pairs is empty,
// when two names collide or when the columns differ in length.
func New[T comparable](pairs ...Pair[T]) (*Document[T], error) {
	if len(pairs) == 0 {
		return nil, errors.New(errors.ErrorTypeConstruction, "Document must have at least one Column")
	}

	names := make([]string, len(pairs))
	columns := make([]*Column[T], len(pairs))
	index := make(map[string]int, len(pairs))
	var duplicates []string

	for i, p := range pairs {
		if p.Column == nil {
			return nil, errors.Newf(errors.ErrorTypeConstruction, "Column %q is nil", p.Name).
				WithDetail("position", i)
		}
		name := canonicalName(p.Name)
		names[i] = name
		columns[i] = p.Column
		if _, seen := index[name]; seen {
			if !slices.Contains(duplicates, name) {
				duplicates = append(duplicates, name)
			}
			continue
		}
		index[name] = i
	}

	if len(duplicates) > 0 {
		return nil, errors.Newf(errors.ErrorTypeConstruction,
			"Document must have unique names for Columns: %s (duplicated: %s)",
			strings.Join(quoteAll(names), ", "), strings.Join(quoteAll(duplicates), ", ")).
			WithDetail("names", names).
			WithDetail("duplicates", duplicates)
	}

	rows := columns[0].Len()
	for _, c := range columns[1:] {
		if c.Len() != rows {
			lengths := make([]NameLength, len(columns))
			parts := make([]string, len(columns))
			for i, col := range columns {
				lengths[i] = NameLength{Name: names[i], Length: col.Len()}
				parts[i] = lengths[i].String()
			}
			return nil, errors.Newf(errors.ErrorTypeConstruction,
				"Document's Columns must have the same length: %s", strings.Join(parts, ", ")).
				WithDetail("lengths", lengths)
		}
	}

	return &Document[T]{names: names, columns: columns, index: index}, nil
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}

// FromRows transposes rows into Columns named by names. Every row must have
// exactly len(names) fields. With no rows every Column is empty.
func FromRows[T comparable](names []string, rows [][]T) (*Document[T], error) {
	values := make([][]T, len(names))
	for k := range values {
		values[k] = make([]T, 0, len(rows))
	}
	for i, row := range rows {
		if len(row) != len(names) {
			return nil, errors.Newf(errors.ErrorTypeConstruction,
				"row %d has %d fields, expected %d", i, len(row), len(names)).
				WithDetail("row", i).
				WithDetail("width", len(row))
		}
		for k, v := range row {
			values[k] = append(values[k], v)
		}
	}

	pairs := make([]Pair[T], len(names))
	for k, name := range names {
		pairs[k] = P(name, newColumn(values[k]))
	}
	return New(pairs...)
}

// Names returns the column names in order.
func (d *Document[T]) Names() []string {
	return slices.Clone(d.names)
}

// Columns returns the Columns in order.
func (d *Document[T]) Columns() []*Column[T] {
	return slices.Clone(d.columns)
}

// Len returns the number of columns.
func (d *Document[T]) Len() int {
	return len(d.columns)
}

// NumRows returns the length shared by every column.
func (d *Document[T]) NumRows() int {
	return d.columns[0].Len()
}

// Column returns the Column at position i.
func (d *Document[T]) Column(i int) (*Column[T], error) {
	if i < 0 || i >= len(d.columns) {
		return nil, errors.Newf(errors.ErrorTypeOutOfRange, "column position %d out of range [0, %d)", i, len(d.columns)).
			WithDetail("index", i)
	}
	return d.columns[i], nil
}

// Get returns the named Column.
func (d *Document[T]) Get(name string) (*Column[T], error) {
	i, ok := d.index[canonicalName(name)]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeLookup, "no column named %q", name).
			WithDetail("name", name).
			WithDetail("names", d.Names())
	}
	return d.columns[i], nil
}

// Lookup accepts an int position or a string name. Any other key type is a
// lookup error wrapping a type mismatch.
func (d *Document[T]) Lookup(key any) (*Column[T], error) {
	switch k := key.(type) {
	case int:
		return d.Column(k)
	case string:
		return d.Get(k)
	default:
		return nil, keyTypeError(key)
	}
}

// HasName reports whether a column is called name.
func (d *Document[T]) HasName(name string) bool {
	_, ok := d.index[canonicalName(name)]
	return ok
}

// HasColumn reports whether any column equals col by content.
func (d *Document[T]) HasColumn(col *Column[T]) bool {
	for _, c := range d.columns {
		if c.Equal(col) {
			return true
		}
	}
	return false
}

// Contains reports whether v is one of the names, or equals one of the
// columns by content. A []T or iter.Seq[T] is compared against each column.
func (d *Document[T]) Contains(v any) bool {
	switch x := v.(type) {
	case string:
		return d.HasName(x)
	case *Column[T]:
		return d.HasColumn(x)
	case []T:
		return slices.ContainsFunc(d.columns, func(c *Column[T]) bool { return c.EqualValues(x...) })
	case iter.Seq[T]:
		values := slices.Collect(x)
		return slices.ContainsFunc(d.columns, func(c *Column[T]) bool { return c.EqualValues(values...) })
	}
	return false
}

// Equal reports whether both Documents have the same names and the same
// column contents, in order.
func (d *Document[T]) Equal(other *Document[T]) bool {
	if other == nil {
		return false
	}
	if d == other {
		return true
	}
	if !slices.Equal(d.names, other.names) {
		return false
	}
	for i, c := range d.columns {
		if !c.Equal(other.columns[i]) {
			return false
		}
	}
	return true
}

// All iterates over (name, Column) pairs in column order.
func (d *Document[T]) All() iter.Seq2[string, *Column[T]] {
	return func(yield func(string, *Column[T]) bool) {
		for i, c := range d.columns {
			if !yield(d.names[i], c) {
				return
			}
		}
	}
}

func (d *Document[T]) row(i int) Row[T] {
	values := make([]T, len(d.columns))
	for k, c := range d.columns {
		values[k] = c.values[i]
	}
	return Row[T]{values: values, names: d.names, index: d.index}
}

// Row returns the row at position i.
func (d *Document[T]) Row(i int) (Row[T], error) {
	if i < 0 || i >= d.NumRows() {
		return Row[T]{}, errors.Newf(errors.ErrorTypeOutOfRange, "row %d out of range [0, %d)", i, d.NumRows()).
			WithDetail("index", i)
	}
	return d.row(i), nil
}

// IterRows lazily yields one Row per row index. Each call starts a fresh
// pass; nothing is cached.
func (d *Document[T]) IterRows() iter.Seq[Row[T]] {
	return func(yield func(Row[T]) bool) {
		n := d.NumRows()
		for i := 0; i < n; i++ {
			if !yield(d.row(i)) {
				return
			}
		}
	}
}

// Rows materializes every Row on first use and returns the cached rows on
// later calls.
func (d *Document[T]) Rows() []Row[T] {
	d.rowsOnce.Do(func() {
		d.rows = slices.Collect(d.IterRows())
	})
	return slices.Clone(d.rows)
}

// Map returns a new Document where each column named in funcs is replaced by
// the function applied to its values. Other columns are shared. A key that
// names no column is a lookup error.
func (d *Document[T]) Map(funcs map[string]func(T) T) (*Document[T], error) {
	byIndex := make(map[int]func(T) T, len(funcs))
	for name, f := range funcs {
		i, ok := d.index[canonicalName(name)]
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeLookup, "cannot map unknown column %q", name).
				WithDetail("name", name).
				WithDetail("names", d.Names())
		}
		byIndex[i] = f
	}

	pairs := make([]Pair[T], len(d.columns))
	for i, c := range d.columns {
		if f, ok := byIndex[i]; ok && f != nil {
			c = c.Map(f)
		}
		pairs[i] = P(d.names[i], c)
	}
	return New(pairs...)
}

// MapAll returns a new Document where every column is replaced by f applied
// to its values.
func (d *Document[T]) MapAll(f func(T) T) (*Document[T], error) {
	pairs := make([]Pair[T], len(d.columns))
	for i, c := range d.columns {
		pairs[i] = P(d.names[i], c.Map(f))
	}
	return New(pairs...)
}

// Select builds a new Document from selector specs. Each spec is a column
// name, a [2]string{source, rename} or a Selector; see SelectorOf.
func (d *Document[T]) Select(specs ...any) (*Document[T], error) {
	selectors := make([]Selector[T], len(specs))
	for i, spec := range specs {
		s, err := SelectorOf[T](spec)
		if err != nil {
			return nil, err
		}
		selectors[i] = s
	}
	return d.SelectBy(selectors...)
}

// SelectBy applies selectors in order and builds a new Document from the
// resulting pairs. Output names must be unique; the same source may be
// selected more than once.
func (d *Document[T]) SelectBy(selectors ...Selector[T]) (*Document[T], error) {
	pairs := make([]Pair[T], len(selectors))
	for i, s := range selectors {
		p, err := s.Apply(d)
		if err != nil {
			return nil, err
		}
		pairs[i] = p
	}
	return New(pairs...)
}

// ColsSorted returns the Document with its columns reordered by name. A nil
// compare orders names lexically. Names that compare equal keep their order.
func (d *Document[T]) ColsSorted(compare func(a, b string) int, reverse bool) (*Document[T], error) {
	if compare == nil {
		compare = strings.Compare
	}
	order := d.Names()
	slices.SortStableFunc(order, func(a, b string) int {
		if reverse {
			return compare(b, a)
		}
		return compare(a, b)
	})

	selectors := make([]Selector[T], len(order))
	for i, name := range order {
		selectors[i] = S[T](name)
	}
	return d.SelectBy(selectors...)
}

// Concat returns a Document holding d's columns followed by other's. Names
// must not overlap.
func (d *Document[T]) Concat(other *Document[T]) (*Document[T], error) {
	if other == nil {
		return nil, errors.New(errors.ErrorTypeConstruction, "cannot concatenate a nil Document")
	}
	pairs := make([]Pair[T], 0, len(d.columns)+len(other.columns))
	for name, c := range d.All() {
		pairs = append(pairs, P(name, c))
	}
	for name, c := range other.All() {
		pairs = append(pairs, P(name, c))
	}
	return New(pairs...)
}

func (d *Document[T]) String() string {
	return fmt.Sprintf("Document[%d cols x %d rows]", d.Len(), d.NumRows())
}

// SortKey adapts a key function into a comparator for ColsSorted.
func SortKey[K cmp.Ordered](key func(string) K) func(a, b string) int {
	return func(a, b string) int {
		return cmp.Compare(key(a), key(b))
	}
}
