package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/ajitpratap0/csvcols/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "email,first,last\n" +
	"alice@x.com,Alice,Smith\n" +
	"bob@x.com,Bob,Jones\n" +
	"carol@x.com,Carol,White\n"

func TestRoundTrip(t *testing.T) {
	original := []byte(strings.Repeat(sampleCSV, 50))

	for _, alg := range Algorithms {
		for _, level := range []Level{Fastest, Default, Better, Best} {
			t.Run(alg.String(), func(t *testing.T) {
				var buf bytes.Buffer
				w, err := NewWriter(&buf, alg, level)
				require.NoError(t, err)
				_, err = w.Write(original)
				require.NoError(t, err)
				require.NoError(t, w.Close())

				if alg != None {
					assert.Less(t, buf.Len(), len(original))
				}

				r, err := NewReader(&buf, alg)
				require.NoError(t, err)
				defer r.Close()

				got, err := io.ReadAll(r)
				require.NoError(t, err)
				assert.Equal(t, original, got)
			})
		}
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		name string
		want Algorithm
	}{
		{"", None},
		{"none", None},
		{"GZIP", Gzip},
		{"gz", Gzip},
		{" zstd ", Zstd},
		{"zst", Zstd},
		{"snappy", Snappy},
		{"s2", S2},
		{"lz4", LZ4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseAlgorithm("brotli")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("best")
	require.NoError(t, err)
	assert.Equal(t, Best, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, Default, level)

	_, err = ParseLevel("max")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestFromExtension(t *testing.T) {
	tests := []struct {
		path string
		want Algorithm
	}{
		{"users.csv", None},
		{"users.csv.gz", Gzip},
		{"USERS.CSV.GZ", Gzip},
		{"users.csv.zst", Zstd},
		{"users.csv.zstd", Zstd},
		{"users.csv.sz", Snappy},
		{"users.csv.snappy", Snappy},
		{"users.csv.s2", S2},
		{"/tmp/data/users.csv.lz4", LZ4},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FromExtension(tt.path))
		})
	}
}

func TestTrimExtension(t *testing.T) {
	assert.Equal(t, "users.csv", TrimExtension("users.csv.gz"))
	assert.Equal(t, "users.csv", TrimExtension("users.csv"))
	assert.Equal(t, ".zst", Zstd.Extension())
	assert.Equal(t, "", None.Extension())
}

func TestUnsupportedAlgorithm(t *testing.T) {
	_, err := NewReader(strings.NewReader(""), Algorithm("brotli"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCompression))

	_, err = NewWriter(io.Discard, Algorithm("brotli"), Default)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCompression))
}

func TestCorruptGzip(t *testing.T) {
	_, err := NewReader(strings.NewReader("not gzip at all"), Gzip)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCompression))
}
