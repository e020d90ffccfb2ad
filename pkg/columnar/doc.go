// Package columnar implements csvcols' immutable tabular data model: named,
// equal-length Columns collected into a Document.
//
// # Overview
//
// A Document is built once and never changes. Every operation that looks
// like a modification returns a new Document:
//   - Map and MapAll replace columns with transformed copies
//   - Select and SelectBy pick, rename and transform columns
//   - ColsSorted reorders columns by name
//   - Concat joins the columns of two Documents
//
// Columns that an operation leaves untouched are shared by pointer with the
// source Document, so deriving a narrow view of a wide Document costs one
// slice of pointers.
//
// # Invariants
//
// Every construction path goes through New, which rejects:
//
//  1. a Document with no columns;
//  2. two columns with the same name (names are compared in Unicode NFC);
//  3. columns of different lengths.
//
// A Document with zero rows is legal.
//
// # Rows
//
// Rows are views across the columns at one index. IterRows yields them
// lazily on every call; Rows materializes them once and caches the result.
// A Row answers positional (At) and named (Get) lookups through the name
// index of the Document that produced it.
//
// # Usage Example
//
//	doc, err := columnar.New(
//		columnar.P("first_name", columnar.NewColumn("David", "Brian")),
//		columnar.P("last_name", columnar.NewColumn("Ormsbee", "Jones")),
//	)
//	if err != nil {
//		return err
//	}
//
//	short, err := doc.Select(
//		"first_name",
//		[2]string{"last_name", "surname"},
//		columnar.S[string]("first_name").As("upper").Via(strings.ToUpper),
//	)
//
//	for row := range short.IterRows() {
//		name, _ := row.Get("surname")
//		fmt.Println(name)
//	}
//
// # Concurrency
//
// Documents, Columns and Rows are safe to share across goroutines. The two
// lazily built caches (Document.Rows and Column.Unique) are guarded by
// sync.Once.
package columnar
