// Package csvio converts between delimited text and columnar Documents.
//
// # Loading
//
// Load and Loads read a header row followed by data rows. Each data row
// passes through four steps, in this order:
//
//  1. strip surrounding whitespace from every field (StripSpaces)
//  2. pad with empty fields up to the header width
//  3. decode every field from the configured Encoding
//  4. drop the row if every field is empty (SkipBlankLines)
//
// Header fields are always stripped. With ForceUniqueColNames, a repeated
// header name gets its zero-based column index appended (see UniqueNames).
// Rows wider than the header keep their extra fields until the blank check;
// the extras never reach a column.
//
// # Encodings
//
// Encoding names are resolved through the IANA and WHATWG registries, with
// a few common aliases such as "latin-1". Only encodings that represent the
// delimiter, the quote and line breaks as plain ASCII are accepted.
//
// # Dumping
//
// Dump and Dumps write the inverse: header, then one record per row, in the
// same delimiter and encoding. Reloading the output with matching options
// yields an equal Document.
package csvio
