package columnar

import (
	"github.com/ajitpratap0/csvcols/pkg/errors"
)

// Selector describes one output column of Select: the source column, an
// optional output name and an optional element-wise transform.
type Selector[T comparable] struct {
	Source    string
	Rename    string    // empty keeps Source
	Transform func(T) T // nil shares the source column
}

// S starts a Selector for the named source column.
func S[T comparable](source string) Selector[T] {
	return Selector[T]{Source: source}
}

// As sets the output name.
func (s Selector[T]) As(name string) Selector[T] {
	s.Rename = name
	return s
}

// Via sets the transform applied to every value.
func (s Selector[T]) Via(f func(T) T) Selector[T] {
	s.Transform = f
	return s
}

// Name returns the output column name.
func (s Selector[T]) Name() string {
	if s.Rename != "" {
		return s.Rename
	}
	return s.Source
}

// Apply resolves the selector against doc. Without a transform the returned
// pair holds the source Column itself.
func (s Selector[T]) Apply(doc *Document[T]) (Pair[T], error) {
	col, err := doc.Get(s.Source)
	if err != nil {
		return Pair[T]{}, err
	}
	if s.Transform != nil {
		col = col.Map(s.Transform)
	}
	return P(s.Name(), col), nil
}

// SelectorOf normalizes a selector spec. Accepted shapes:
//
//	"name"                    select unchanged
//	[2]string{"src", "dst"}   select and rename
//	[]string{"src"}           select unchanged
//	[]string{"src", "dst"}    select and rename
//	Selector[T], *Selector[T] as given
//
// Anything else is a type mismatch.
func SelectorOf[T comparable](spec any) (Selector[T], error) {
	switch v := spec.(type) {
	case string:
		return S[T](v), nil
	case [2]string:
		return S[T](v[0]).As(v[1]), nil
	case []string:
		switch len(v) {
		case 1:
			return S[T](v[0]), nil
		case 2:
			return S[T](v[0]).As(v[1]), nil
		}
		return Selector[T]{}, errors.Newf(errors.ErrorTypeTypeMismatch,
			"selector slice must have 1 or 2 names, got %d", len(v)).
			WithDetail("spec", v)
	case Selector[T]:
		return v, nil
	case *Selector[T]:
		if v != nil {
			return *v, nil
		}
	}
	return Selector[T]{}, errors.Newf(errors.ErrorTypeTypeMismatch,
		"unsupported selector spec %T", spec).
		WithDetail("spec", spec)
}
