package formats

import (
	"fmt"
	"io"
	"strings"

	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/csvio"
	"github.com/ajitpratap0/csvcols/pkg/errors"
	"github.com/ajitpratap0/csvcols/pkg/json"
)

// AvroNamesKey is the container file metadata key holding the JSON array
// of original column names, in field order.
const AvroNamesKey = "csvcols.names"

type avroField struct {
	Name string `json:"name"`
	Type any    `json:"type"`
}

type avroSchema struct {
	Type      string      `json:"type"`
	Name      string      `json:"name"`
	Namespace string      `json:"namespace,omitempty"`
	Fields    []avroField `json:"fields"`
}

// AvroFieldName maps a column name onto the Avro name grammar
// [A-Za-z_][A-Za-z0-9_]*: every other character becomes '_' and a leading
// digit gets a '_' prefix.
func AvroFieldName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if b.Len() == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

func avroCompression(name string) (string, error) {
	switch name {
	case "", "snappy":
		return goavro.CompressionSnappyLabel, nil
	case "deflate":
		return goavro.CompressionDeflateLabel, nil
	case "none", "null":
		return goavro.CompressionNullLabel, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unsupported avro compression: %q", name)
	}
}

func writeAvro(w io.Writer, doc *columnar.Document[string], cfg WriterConfig) error {
	compressionName, err := avroCompression(cfg.Compression)
	if err != nil {
		return err
	}

	names := doc.Names()
	fieldNames := make([]string, len(names))
	for i, name := range names {
		fieldNames[i] = AvroFieldName(name)
	}
	fieldNames = csvio.UniqueNames(fieldNames)

	schema := avroSchema{Type: "record", Name: "Row", Namespace: "csvcols"}
	for _, name := range fieldNames {
		schema.Fields = append(schema.Fields, avroField{Name: name, Type: "string"})
	}
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFormat, "failed to encode Avro schema")
	}
	namesJSON, err := json.Marshal(names)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFormat, "failed to encode column names")
	}

	codec, err := goavro.NewCodec(string(schemaJSON))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFormat, "failed to create Avro codec")
	}

	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Codec:           codec,
		CompressionName: compressionName,
		MetaData:        map[string][]byte{AvroNamesKey: namesJSON},
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFormat, "failed to create Avro writer")
	}

	batch := make([]interface{}, 0, min(cfg.BatchSize, doc.NumRows()))
	for row := range doc.IterRows() {
		datum := make(map[string]interface{}, len(fieldNames))
		for i, v := range row.Values() {
			datum[fieldNames[i]] = v
		}
		batch = append(batch, datum)
		if len(batch) == cfg.BatchSize {
			if err := ocf.Append(batch); err != nil {
				return errors.Wrap(err, errors.ErrorTypeFormat, "failed to write Avro block")
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := ocf.Append(batch); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFormat, "failed to write Avro block")
		}
	}
	return nil
}

func readAvro(r io.Reader) (*columnar.Document[string], error) {
	ocf, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "failed to create Avro reader")
	}

	var schema avroSchema
	if err := json.Unmarshal([]byte(ocf.Codec().Schema()), &schema); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "failed to parse Avro schema")
	}
	if schema.Type != "record" {
		return nil, errors.Newf(errors.ErrorTypeFormat, "Avro schema must be a record, got %q", schema.Type)
	}

	fieldNames := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		fieldNames[i] = f.Name
	}
	names := fieldNames
	if raw, ok := ocf.MetaData()[AvroNamesKey]; ok {
		var original []string
		if err := json.Unmarshal(raw, &original); err == nil && len(original) == len(fieldNames) {
			names = original
		}
	}

	values := make([][]string, len(fieldNames))
	for ocf.Scan() {
		datum, err := ocf.Read()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFormat, "failed to read Avro record")
		}
		record, ok := datum.(map[string]interface{})
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeFormat, "unexpected Avro datum %T", datum)
		}
		for i, name := range fieldNames {
			text, err := avroText(record[name])
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeFormat, "failed to render Avro value").
					WithDetail("field", name)
			}
			values[i] = append(values[i], text)
		}
	}
	if err := ocf.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "failed to scan Avro blocks")
	}
	return fromColumns(names, values)
}

// avroText unwraps union values, which goavro decodes as a one-entry map
// keyed by the branch type name.
func avroText(v interface{}) (string, error) {
	if union, ok := v.(map[string]interface{}); ok && len(union) == 1 {
		for _, inner := range union {
			v = inner
		}
	}
	switch t := v.(type) {
	case []byte:
		return string(t), nil
	case int32, int64, float32:
		return fmt.Sprint(t), nil
	default:
		return json.Text(t)
	}
}
