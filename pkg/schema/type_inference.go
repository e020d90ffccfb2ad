// Package schema infers value types for the string columns of a Document.
// Every value read from CSV is text; inference reports what the text looks
// like (integers, dates, e-mail addresses) without changing the Document.
package schema

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/json"
)

// Type is an inferred column type.
type Type string

const (
	// TypeEmpty marks a column with no non-empty values
	TypeEmpty Type = "empty"
	// TypeBoolean marks true/false/yes/no values
	TypeBoolean Type = "boolean"
	// TypeInteger marks base-10 integers
	TypeInteger Type = "integer"
	// TypeFloat marks decimal numbers, integers included
	TypeFloat Type = "float"
	// TypeDate marks calendar dates
	TypeDate Type = "date"
	// TypeTimestamp marks date-times and unix timestamps
	TypeTimestamp Type = "timestamp"
	// TypeString is the fallback for anything else
	TypeString Type = "string"
)

// Field describes one inferred column.
type Field struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
	// Format refines TypeString: email, url, uuid or json
	Format string `json:"format,omitempty"`
	// Nullable is set when some sampled values are empty
	Nullable bool `json:"nullable"`
	// Confidence is the share of non-empty samples that match Type
	Confidence  float64        `json:"confidence"`
	Cardinality int            `json:"cardinality"`
	Numeric     *NumericStats  `json:"numeric_stats,omitempty"`
	Strings     *StringStats   `json:"string_stats,omitempty"`
	Temporal    *TemporalStats `json:"temporal_stats,omitempty"`
}

// NumericStats holds statistics for numeric types
type NumericStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// StringStats holds statistics for string types
type StringStats struct {
	MinLength int     `json:"min_length"`
	MaxLength int     `json:"max_length"`
	AvgLength float64 `json:"avg_length"`
}

// TemporalStats holds the range of date and timestamp values
type TemporalStats struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// Schema is the inferred description of a Document, one Field per column in
// column order.
type Schema struct {
	Fields  []Field `json:"fields"`
	Sampled int     `json:"sampled"`
}

// Field returns the field called name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// InferenceEngine infers column types from a sample of each column.
type InferenceEngine struct {
	logger *zap.Logger

	// Type detection patterns
	datePatterns      []*regexp.Regexp
	timestampPatterns []*regexp.Regexp
	emailPattern      *regexp.Regexp
	urlPattern        *regexp.Regexp
	uuidPattern       *regexp.Regexp
	jsonPattern       *regexp.Regexp

	// Configuration
	sampleSize          int
	confidenceThreshold float64
	formatThreshold     float64
}

// Option configures an InferenceEngine.
type Option func(*InferenceEngine)

// WithSampleSize limits inference to the first n values of each column.
// n <= 0 samples every value.
func WithSampleSize(n int) Option {
	return func(e *InferenceEngine) { e.sampleSize = n }
}

// WithConfidenceThreshold sets the share of samples the dominant type needs
// before it is reported instead of TypeString.
func WithConfidenceThreshold(t float64) Option {
	return func(e *InferenceEngine) { e.confidenceThreshold = t }
}

// NewInferenceEngine creates an engine sampling 1000 values per column with
// a 0.95 confidence threshold.
func NewInferenceEngine(logger *zap.Logger, opts ...Option) *InferenceEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &InferenceEngine{
		logger:              logger,
		sampleSize:          1000,
		confidenceThreshold: 0.95,
		formatThreshold:     0.8,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.initializePatterns()
	return e
}

// Infer describes every column of doc.
func (e *InferenceEngine) Infer(doc *columnar.Document[string]) *Schema {
	s := &Schema{Fields: make([]Field, 0, doc.Len()), Sampled: doc.NumRows()}
	if e.sampleSize > 0 {
		s.Sampled = min(s.Sampled, e.sampleSize)
	}
	for name, col := range doc.All() {
		s.Fields = append(s.Fields, e.InferColumn(name, col))
	}
	e.logger.Debug("inferred schema",
		zap.Int("columns", len(s.Fields)),
		zap.Int("sampled", s.Sampled))
	return s
}

// InferColumn infers the type of one column. Empty strings count as nulls.
func (e *InferenceEngine) InferColumn(name string, col *columnar.Column[string]) Field {
	values := e.sample(col)
	field := Field{Name: name, Type: TypeEmpty}

	nonNull := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			field.Nullable = true
			continue
		}
		nonNull = append(nonNull, v)
	}
	if len(nonNull) == 0 {
		if len(values) > 0 {
			field.Confidence = 1
		}
		return field
	}

	typeCounts := make(map[Type]int)
	distinct := make(map[string]struct{}, len(nonNull))
	for _, v := range nonNull {
		typeCounts[e.detectValueType(v)]++
		distinct[v] = struct{}{}
	}
	field.Cardinality = len(distinct)

	// Integers are floats too
	if typeCounts[TypeFloat] > 0 {
		typeCounts[TypeFloat] += typeCounts[TypeInteger]
		delete(typeCounts, TypeInteger)
	}

	// Find dominant type
	var dominant Type
	maxCount := 0
	for _, typ := range []Type{TypeInteger, TypeFloat, TypeBoolean, TypeTimestamp, TypeDate, TypeString} {
		if typeCounts[typ] > maxCount {
			maxCount = typeCounts[typ]
			dominant = typ
		}
	}

	field.Type = dominant
	field.Confidence = float64(maxCount) / float64(len(nonNull))
	if field.Confidence < e.confidenceThreshold {
		// Mixed types, default to string
		field.Type = TypeString
		field.Confidence = 1
	}

	switch field.Type {
	case TypeInteger, TypeFloat:
		field.Numeric = numericStats(nonNull)
	case TypeDate, TypeTimestamp:
		field.Temporal = temporalStats(nonNull)
	case TypeString:
		field.Strings = stringStats(nonNull)
		field.Format = e.detectStringFormat(nonNull)
	}
	return field
}

func (e *InferenceEngine) sample(col *columnar.Column[string]) []string {
	n := col.Len()
	if e.sampleSize > 0 {
		n = min(n, e.sampleSize)
	}
	values := make([]string, 0, n)
	for v := range col.Seq() {
		if len(values) == n {
			break
		}
		values = append(values, v)
	}
	return values
}

// detectValueType detects the type of a single non-empty value
func (e *InferenceEngine) detectValueType(v string) Type {
	if isBoolean(v) {
		return TypeBoolean
	}
	for _, pattern := range e.timestampPatterns {
		if pattern.MatchString(v) {
			return TypeTimestamp
		}
	}
	if isInteger(v) {
		return TypeInteger
	}
	if isFloat(v) {
		return TypeFloat
	}
	for _, pattern := range e.datePatterns {
		if pattern.MatchString(v) {
			return TypeDate
		}
	}
	return TypeString
}

// detectStringFormat returns the format shared by most values, if any
func (e *InferenceEngine) detectStringFormat(values []string) string {
	formatCounts := make(map[string]int)
	for _, v := range values {
		if format := e.detectFormat(v); format != "" {
			formatCounts[format]++
		}
	}

	threshold := int(math.Ceil(float64(len(values)) * e.formatThreshold))
	for _, format := range []string{"email", "url", "uuid", "json"} {
		if formatCounts[format] > 0 && formatCounts[format] >= threshold {
			return format
		}
	}
	return ""
}

func (e *InferenceEngine) detectFormat(value string) string {
	switch {
	case e.emailPattern.MatchString(value):
		return "email"
	case e.urlPattern.MatchString(value):
		return "url"
	case e.uuidPattern.MatchString(value):
		return "uuid"
	case e.jsonPattern.MatchString(value):
		var js json.RawMessage
		if err := json.Unmarshal([]byte(value), &js); err == nil {
			return "json"
		}
	}
	return ""
}

// Helper methods for type detection
func isBoolean(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "yes", "no":
		return true
	}
	return false
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// initializePatterns initializes regex patterns for format detection
func (e *InferenceEngine) initializePatterns() {
	// Date patterns
	e.datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), // YYYY-MM-DD
		regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`), // MM/DD/YYYY
		regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`), // DD-MM-YYYY
		regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`), // YYYY/MM/DD
	}

	// Timestamp patterns
	e.timestampPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`), // ISO 8601
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`), // SQL timestamp
	}

	// Other patterns
	e.emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	e.urlPattern = regexp.MustCompile(`^https?://[^\s]+$`)
	e.uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	e.jsonPattern = regexp.MustCompile(`^[\{\[].*[\}\]]$`)
}

func numericStats(values []string) *NumericStats {
	var stats *NumericStats
	sum, count := 0.0, 0
	for _, v := range values {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		if stats == nil {
			stats = &NumericStats{Min: n, Max: n}
		}
		stats.Min = math.Min(stats.Min, n)
		stats.Max = math.Max(stats.Max, n)
		sum += n
		count++
	}
	if stats != nil {
		stats.Mean = sum / float64(count)
	}
	return stats
}

func stringStats(values []string) *StringStats {
	stats := &StringStats{MinLength: math.MaxInt}
	total := 0
	for _, v := range values {
		length := len([]rune(v))
		stats.MinLength = min(stats.MinLength, length)
		stats.MaxLength = max(stats.MaxLength, length)
		total += length
	}
	stats.AvgLength = float64(total) / float64(len(values))
	return stats
}

func temporalStats(values []string) *TemporalStats {
	var stats *TemporalStats
	for _, v := range values {
		t, ok := Time(v)
		if !ok {
			continue
		}
		if stats == nil {
			stats = &TemporalStats{Min: t, Max: t}
		}
		if t.Before(stats.Min) {
			stats.Min = t
		}
		if t.After(stats.Max) {
			stats.Max = t
		}
	}
	return stats
}

// Time parses a value of TypeDate or TypeTimestamp. ok is false for other
// text.
func Time(v string) (t time.Time, ok bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02", "2006/01/02", "01/02/2006"} {
		if parsed, err := time.Parse(layout, v); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
