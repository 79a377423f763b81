package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/treehugger/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestFile is a helper that inserts a file and returns it with ID set.
func insertTestFile(t *testing.T, s *Store, path, lang string) *File {
	t.Helper()
	f := &File{Path: path, Language: lang, Hash: "abc123", LineCount: 10, LastAnalyzed: time.Now().Truncate(time.Second)}
	id, err := s.InsertFile(f)
	require.NoError(t, err)
	require.Positive(t, id)
	return f
}

func testDiagnostic(rule string, line int) model.Diagnostic {
	return model.Diagnostic{
		Kind:     model.DiagnosticSemantic,
		Severity: model.SeverityWarning,
		Rule:     rule,
		Message:  "message for " + rule,
		Range: model.CodeRange{
			StartLine: line, StartColumn: 4, EndLine: line, EndColumn: 9,
			StartByte: line * 10, EndByte: line*10 + 5,
		},
		Context: &model.SourceContext{LineNumber: line, LineText: "    total := 1", UnderlineColumn: 4, UnderlineLength: 5},
	}
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"files", "symbols", "imports", "diagnostics", "metadata"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestNewStore_WALMode(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

// =============================================================================
// Files
// =============================================================================

func TestFileByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/main.go", "go")

	got, err := s.FileByPath("/src/main.go")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, "go", got.Language)
	assert.Equal(t, "abc123", got.Hash)
	assert.Equal(t, 10, got.LineCount)
	assert.Empty(t, got.Error)

	missing, err := s.FileByPath("/nope.go")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInsertFile_DuplicatePath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "/a.go", "go")

	_, err := s.InsertFile(&File{Path: "/a.go", Language: "go"})
	require.Error(t, err)
}

func TestFiles_OrderedByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "/b.py", "python")
	insertTestFile(t, s, "/a.go", "go")
	insertTestFile(t, s, "/c.go", "go")

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "/a.go", files[0].Path)
	assert.Equal(t, "/c.go", files[2].Path)

	goFiles, err := s.FilesByLanguage("go")
	require.NoError(t, err)
	assert.Len(t, goFiles, 2)
}

func TestSetFileError(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.rs", "rust")

	require.NoError(t, s.SetFileError(f.ID, "invalid lint query"))
	got, err := s.FileByPath("/a.rs")
	require.NoError(t, err)
	assert.Equal(t, "invalid lint query", got.Error)
}

// =============================================================================
// Symbols & Imports
// =============================================================================

func TestSymbols_InsertAndQuery(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.go", "go")

	sym := NewSymbol(f.ID, model.SymbolInfo{
		Name: "Greet", Kind: model.KindFunction, Visibility: model.VisibilityPublic, Doc: "Greet says hi.",
		Range:     model.CodeRange{StartLine: 3, StartColumn: 5, EndLine: 3, EndColumn: 10},
		Signature: &model.FunctionSignature{Parameters: []model.ParameterInfo{{Name: "name", Type: "string"}}, ReturnType: "string"},
	}, true)
	id, err := s.InsertSymbol(sym)
	require.NoError(t, err)
	assert.Equal(t, id, sym.ID)

	_, err = s.InsertSymbol(NewSymbol(f.ID, model.SymbolInfo{
		Name: "helper", Kind: model.KindFunction, Range: model.CodeRange{StartLine: 1, StartColumn: 5},
	}, false))
	require.NoError(t, err)

	syms, err := s.SymbolsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, syms, 2)
	assert.Equal(t, "helper", syms[0].Name)
	assert.Equal(t, "Greet", syms[1].Name)
	assert.True(t, syms[1].Exported)
	assert.Equal(t, "function", syms[1].Kind)
	assert.Equal(t, "public", syms[1].Visibility)
	assert.Equal(t, "Greet says hi.", syms[1].Doc)
	assert.Equal(t, "(name string) string", syms[1].Signature)

	byName, err := s.SymbolsByName("Greet")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, sym.ID, byName[0].ID)
}

func TestImports_InsertAndQuery(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.py", "python")

	_, err := s.InsertImport(NewImport(f.ID, model.ImportSymbol{
		Name: "np", Original: "numpy", Alias: "np", Source: "numpy",
		Range: model.CodeRange{StartLine: 2, StartColumn: 16},
	}))
	require.NoError(t, err)
	_, err = s.InsertImport(NewImport(f.ID, model.ImportSymbol{
		Name: "os", Source: "os", Range: model.CodeRange{StartLine: 1, StartColumn: 7},
	}))
	require.NoError(t, err)

	imps, err := s.ImportsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, imps, 2)
	assert.Equal(t, "os", imps[0].Name)
	assert.Empty(t, imps[0].Alias)
	assert.Equal(t, "np", imps[1].Alias)
	assert.Equal(t, "numpy", imps[1].Original)
	assert.Equal(t, 2, imps[1].StartLine)
}

// =============================================================================
// Diagnostics
// =============================================================================

func TestDiagnostics_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.go", "go")

	want := testDiagnostic("unused-symbol", 4)
	_, err := s.InsertDiagnostic(NewDiagnostic(f.ID, want))
	require.NoError(t, err)

	syntax := model.Diagnostic{
		Kind: model.DiagnosticSyntax, Severity: model.SeverityError,
		Message: "Syntax error: missing }",
		Range:   model.CodeRange{StartLine: 1, EndLine: 1, StartByte: 0, EndByte: 1},
	}
	_, err = s.InsertDiagnostic(NewDiagnostic(f.ID, syntax))
	require.NoError(t, err)

	rows, err := s.DiagnosticsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, syntax, rows[0].Model())
	assert.Equal(t, want, rows[1].Model())
}

func TestAllDiagnostics_OrderedByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	b := insertTestFile(t, s, "/b.go", "go")
	a := insertTestFile(t, s, "/a.go", "go")

	for _, d := range []struct {
		file *File
		rule string
		line int
	}{
		{b, "dead-code", 2},
		{a, "unused-import", 9},
		{a, "undefined-symbol", 3},
	} {
		_, err := s.InsertDiagnostic(NewDiagnostic(d.file.ID, testDiagnostic(d.rule, d.line)))
		require.NoError(t, err)
	}

	all, err := s.AllDiagnostics()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "/a.go", all[0].Path)
	assert.Equal(t, "undefined-symbol", all[0].Diagnostic.Rule)
	assert.Equal(t, "unused-import", all[1].Diagnostic.Rule)
	assert.Equal(t, "/b.go", all[2].Path)

	counts, err := s.RuleCounts()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"dead-code": 1, "unused-import": 1, "undefined-symbol": 1}, counts)
}

func TestDiagnosticModel_UnknownSeverity(t *testing.T) {
	t.Parallel()
	d := &Diagnostic{Kind: "lint", Severity: "fatal", Rule: "x", Message: "m"}
	got := d.Model()
	assert.Equal(t, model.SeverityWarning, got.Severity)
	assert.Nil(t, got.Context)
}

// =============================================================================
// Deletion
// =============================================================================

func TestDeleteFileData(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	keep := insertTestFile(t, s, "/keep.go", "go")
	drop := insertTestFile(t, s, "/drop.go", "go")

	for _, f := range []*File{keep, drop} {
		_, err := s.InsertSymbol(&Symbol{FileID: f.ID, Name: "x", Kind: "variable"})
		require.NoError(t, err)
		_, err = s.InsertImport(&Import{FileID: f.ID, Name: "fmt", Source: "fmt"})
		require.NoError(t, err)
		_, err = s.InsertDiagnostic(NewDiagnostic(f.ID, testDiagnostic("unused-symbol", 1)))
		require.NoError(t, err)
	}

	require.NoError(t, s.DeleteFileData(drop.ID))

	got, err := s.FileByPath("/drop.go")
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, table := range []string{"symbols", "imports", "diagnostics"} {
		var n int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE file_id = ?", drop.ID).Scan(&n))
		assert.Zero(t, n, table)
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE file_id = ?", keep.ID).Scan(&n))
		assert.Equal(t, 1, n, table)
	}
}

func TestDeleteFiles(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestFile(t, s, "/a.go", "go")
	b := insertTestFile(t, s, "/b.go", "go")
	insertTestFile(t, s, "/c.go", "go")

	require.NoError(t, s.DeleteFiles(nil))
	require.NoError(t, s.DeleteFiles([]int64{a.ID, b.ID}))

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "/c.go", files[0].Path)
}

func TestReset_KeepsMetadata(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.go", "go")
	_, err := s.InsertDiagnostic(NewDiagnostic(f.ID, testDiagnostic("dead-code", 1)))
	require.NoError(t, err)
	require.NoError(t, s.SetMetadata("queries_hash", "123"))

	require.NoError(t, s.Reset())

	files, err := s.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
	all, err := s.AllDiagnostics()
	require.NoError(t, err)
	assert.Empty(t, all)

	v, err := s.GetMetadata("queries_hash")
	require.NoError(t, err)
	assert.Equal(t, "123", v)
}

// =============================================================================
// Metadata & hashing
// =============================================================================

func TestMetadata(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("k", "one"))
	require.NoError(t, s.SetMetadata("k", "two"))
	v, err = s.GetMetadata("k")
	require.NoError(t, err)
	assert.Equal(t, "two", v)
}

func TestContentHash(t *testing.T) {
	t.Parallel()
	a := ContentHash([]byte("package main\n"))
	assert.Len(t, a, 16)
	assert.Equal(t, a, ContentHash([]byte("package main\n")))
	assert.NotEqual(t, a, ContentHash([]byte("package main\n\n")))
}
