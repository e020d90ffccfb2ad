// Package strings provides string interning for values read from delimited
// text, where the same value tends to repeat down a column.
package strings

import (
	"strings"
)

// DefaultInternLimit bounds how many distinct values an Intern keeps.
const DefaultInternLimit = 1 << 16

// Intern deduplicates equal strings and returns owned copies, so a value no
// longer pins the record buffer it was sliced from. It is not safe for
// concurrent use.
type Intern struct {
	strings map[string]string
	limit   int
}

// NewIntern creates an interner that keeps at most limit distinct values.
// A limit of zero or less means no limit.
func NewIntern(limit int) *Intern {
	return &Intern{
		strings: make(map[string]string),
		limit:   limit,
	}
}

// Get returns the interned copy of s. Once the limit is reached, values not
// already interned are cloned but not remembered.
func (intern *Intern) Get(s string) string {
	if s == "" {
		return ""
	}
	if interned, exists := intern.strings[s]; exists {
		return interned
	}

	cloned := strings.Clone(s)
	if intern.limit <= 0 || len(intern.strings) < intern.limit {
		intern.strings[cloned] = cloned
	}
	return cloned
}

// Size returns the number of interned strings
func (intern *Intern) Size() int {
	return len(intern.strings)
}
