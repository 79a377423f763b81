// Package treehugger extracts symbols and diagnostics from source files
// using tree-sitter grammars and declarative queries. Languages are data:
// each one is a set of query files (locals, references, lint, comments,
// imports, exports) loaded from an embedded tree and compiled once per
// process.
//
// # Single files
//
// Open or Parse a file and ask it questions:
//
//	f, err := treehugger.Open(ctx, "main.go")
//	if err != nil { ... }
//	defer f.Close()
//
//	syms, err := f.Symbols()
//	diags, err := f.Diagnostics(ctx)
//
// Every accessor recomputes from the syntax tree, so repeated calls return
// equal results.
//
// # Diagnostics
//
// Three categories run independently:
//
//   - Syntax: ERROR and MISSING nodes in the tree.
//   - Lint: matches of the lint query plus any Risor rule scripts.
//   - Semantic: undefined-symbol, unused-symbol, unused-import, dead-code
//     and undefined-module.
//
// A language without a lint or references query degrades that category to
// a [Report] warning instead of failing. Malformed queries are errors.
// Diagnostics are filtered by ignore directives in comments:
//
//	// tree-hugger-ignore: unused-symbol
//	x := 1
//
//	// tree-hugger-ignore-file: fmt-print
//
// # Batch analysis
//
// [Engine] analyzes a whole tree into a SQLite cache, skipping files whose
// content hash is unchanged:
//
//	e, err := treehugger.New(".treehugger/cache.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	err = e.AnalyzeDirectory(ctx, ".")
//	diags, err := e.AllDiagnostics()
package treehugger
