package columnar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/csvcols/pkg/errors"
)

func TestSelectorOf(t *testing.T) {
	upper := S[string]("a").As("b").Via(strings.ToUpper)

	tests := []struct {
		name   string
		spec   any
		source string
		output string
		mapped bool
	}{
		{"bare name", "email", "email", "email", false},
		{"pair", [2]string{"email", "mail"}, "email", "mail", false},
		{"slice of one", []string{"email"}, "email", "email", false},
		{"slice of two", []string{"email", "mail"}, "email", "mail", false},
		{"selector", upper, "a", "b", true},
		{"selector pointer", &upper, "a", "b", true},
		{"empty rename keeps source", [2]string{"email", ""}, "email", "email", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := SelectorOf[string](tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.source, s.Source)
			assert.Equal(t, tt.output, s.Name())
			assert.Equal(t, tt.mapped, s.Transform != nil)
		})
	}
}

func TestSelectorOfRejects(t *testing.T) {
	var nilSelector *Selector[string]

	for _, spec := range []any{
		nil,
		42,
		[]string{},
		[]string{"a", "b", "c"},
		[3]string{"a", "b", "c"},
		nilSelector,
		S[int]("wrong element type"),
	} {
		_, err := SelectorOf[string](spec)
		require.Error(t, err, "spec %#v", spec)
		assert.True(t, errors.IsType(err, errors.ErrorTypeTypeMismatch))
	}
}

func TestSelectorApply(t *testing.T) {
	doc := people(t)
	src, _ := doc.Get("first_name")

	p, err := S[string]("first_name").Apply(doc)
	require.NoError(t, err)
	assert.Equal(t, "first_name", p.Name)
	assert.Same(t, src, p.Column)

	p, err = S[string]("first_name").As("F").Via(strings.ToLower).Apply(doc)
	require.NoError(t, err)
	assert.Equal(t, "F", p.Name)
	assert.True(t, p.Column.EqualValues("david", "brian", "samantha"))
	assert.True(t, src.EqualValues("David", "Brian", "Samantha"))

	_, err = S[string]("nope").Apply(doc)
	assert.True(t, errors.IsType(err, errors.ErrorTypeLookup))
}

func TestSelectorIsValue(t *testing.T) {
	base := S[string]("a")
	renamed := base.As("b")

	assert.Equal(t, "a", base.Name())
	assert.Equal(t, "b", renamed.Name())
}
