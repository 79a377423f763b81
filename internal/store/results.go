package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

const fileColumns = "id, path, language, hash, line_count, last_analyzed, error"

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, language, hash, line_count, last_analyzed, error) VALUES (?, ?, ?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.LineCount, f.LastAnalyzed, f.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

// SetFileError records why a file could not be analyzed.
func (s *Store) SetFileError(fileID int64, msg string) error {
	if _, err := s.db.Exec("UPDATE files SET error = ? WHERE id = ?", msg, fileID); err != nil {
		return fmt.Errorf("set file error: %w", err)
	}
	return nil
}

func scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	var lastAnalyzed sql.NullTime
	var errMsg sql.NullString
	if err := scanner.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LineCount, &lastAnalyzed, &errMsg); err != nil {
		return nil, err
	}
	f.LastAnalyzed = lastAnalyzed.Time
	f.Error = errMsg.String
	return f, nil
}

// FileByPath returns the file recorded at path, or nil.
func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileColumns+" FROM files WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) queryFiles(query string, args ...any) ([]*File, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Files lists every recorded file ordered by path.
func (s *Store) Files() ([]*File, error) {
	return s.queryFiles("SELECT " + fileColumns + " FROM files ORDER BY path")
}

func (s *Store) FilesByLanguage(language string) ([]*File, error) {
	return s.queryFiles("SELECT "+fileColumns+" FROM files WHERE language = ? ORDER BY path", language)
}

// --- Symbol operations ---

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO symbols (file_id, name, kind, visibility, exported, doc, signature,
			start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.FileID, sym.Name, sym.Kind, sym.Visibility, sym.Exported, sym.Doc, sym.Signature,
		sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol,
	)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	sym.ID = id
	return id, nil
}

const symbolColumns = "id, file_id, name, kind, visibility, exported, doc, signature, start_line, start_col, end_line, end_col"

func scanSymbol(scanner interface{ Scan(...any) error }) (*Symbol, error) {
	sym := &Symbol{}
	var vis, doc, sig sql.NullString
	err := scanner.Scan(
		&sym.ID, &sym.FileID, &sym.Name, &sym.Kind, &vis, &sym.Exported, &doc, &sig,
		&sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.EndCol,
	)
	if err != nil {
		return nil, err
	}
	sym.Visibility, sym.Doc, sym.Signature = vis.String, doc.String, sig.String
	return sym, nil
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()
	var syms []*Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		syms = append(syms, sym)
	}
	return syms, rows.Err()
}

func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolColumns+" FROM symbols WHERE file_id = ? ORDER BY start_line, start_col", fileID)
}

func (s *Store) SymbolsByName(name string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolColumns+" FROM symbols WHERE name = ? ORDER BY id", name)
}

// --- Import operations ---

func (s *Store) InsertImport(imp *Import) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO imports (file_id, name, original, alias, source, start_line, start_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		imp.FileID, imp.Name, imp.Original, imp.Alias, imp.Source, imp.StartLine, imp.StartCol,
	)
	if err != nil {
		return 0, fmt.Errorf("insert import: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	imp.ID = id
	return id, nil
}

func (s *Store) ImportsByFile(fileID int64) ([]*Import, error) {
	rows, err := s.db.Query(
		`SELECT id, file_id, name, original, alias, source, start_line, start_col
		 FROM imports WHERE file_id = ? ORDER BY start_line, start_col`, fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("imports by file: %w", err)
	}
	defer rows.Close()
	var imps []*Import
	for rows.Next() {
		imp := &Import{}
		var name, original, alias, source sql.NullString
		if err := rows.Scan(&imp.ID, &imp.FileID, &name, &original, &alias, &source, &imp.StartLine, &imp.StartCol); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imp.Name, imp.Original, imp.Alias, imp.Source = name.String, original.String, alias.String, source.String
		imps = append(imps, imp)
	}
	return imps, rows.Err()
}

// --- Diagnostic operations ---

func (s *Store) InsertDiagnostic(d *Diagnostic) (int64, error) {
	id, err := insertDiagnostic(s.db, d)
	if err != nil {
		return 0, fmt.Errorf("insert diagnostic: %w", err)
	}
	d.ID = id
	return id, nil
}

const diagnosticColumns = `d.id, d.file_id, d.kind, d.severity, d.rule, d.message,
	d.start_line, d.start_col, d.end_line, d.end_col, d.start_byte, d.end_byte,
	d.line_text, d.underline_col, d.underline_len`

func scanDiagnostic(scanner interface{ Scan(...any) error }, extra ...any) (*Diagnostic, error) {
	d := &Diagnostic{}
	var rule, lineText sql.NullString
	dest := []any{
		&d.ID, &d.FileID, &d.Kind, &d.Severity, &rule, &d.Message,
		&d.StartLine, &d.StartCol, &d.EndLine, &d.EndCol, &d.StartByte, &d.EndByte,
		&lineText, &d.UnderlineCol, &d.UnderlineLen,
	}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	d.Rule, d.LineText = rule.String, lineText.String
	return d, nil
}

// DiagnosticsByFile returns a file's diagnostics in source order.
func (s *Store) DiagnosticsByFile(fileID int64) ([]*Diagnostic, error) {
	rows, err := s.db.Query(
		"SELECT "+diagnosticColumns+" FROM diagnostics d WHERE d.file_id = ? ORDER BY d.start_byte, d.rule", fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("diagnostics by file: %w", err)
	}
	defer rows.Close()
	var out []*Diagnostic
	for rows.Next() {
		d, err := scanDiagnostic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// AllDiagnostics returns every stored diagnostic ordered by path, then
// position.
func (s *Store) AllDiagnostics() ([]FileDiagnostic, error) {
	rows, err := s.db.Query(
		"SELECT " + diagnosticColumns + `, f.path FROM diagnostics d
		 JOIN files f ON f.id = d.file_id
		 ORDER BY f.path, d.start_byte, d.rule`,
	)
	if err != nil {
		return nil, fmt.Errorf("all diagnostics: %w", err)
	}
	defer rows.Close()
	var out []FileDiagnostic
	for rows.Next() {
		var path string
		d, err := scanDiagnostic(rows, &path)
		if err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		out = append(out, FileDiagnostic{Path: path, Diagnostic: *d})
	}
	return out, rows.Err()
}

// RuleCounts returns how many stored diagnostics each rule produced.
// Syntax diagnostics are counted under "".
func (s *Store) RuleCounts() (map[string]int, error) {
	rows, err := s.db.Query("SELECT COALESCE(rule, ''), COUNT(*) FROM diagnostics GROUP BY rule")
	if err != nil {
		return nil, fmt.Errorf("rule counts: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var rule string
		var n int
		if err := rows.Scan(&rule, &n); err != nil {
			return nil, fmt.Errorf("scan rule count: %w", err)
		}
		counts[rule] += n
	}
	return counts, rows.Err()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertDiagnostic(db execer, d *Diagnostic) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO diagnostics (file_id, kind, severity, rule, message,
			start_line, start_col, end_line, end_col, start_byte, end_byte,
			line_text, underline_col, underline_len)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.FileID, d.Kind, d.Severity, d.Rule, d.Message,
		d.StartLine, d.StartCol, d.EndLine, d.EndCol, d.StartByte, d.EndByte,
		d.LineText, d.UnderlineCol, d.UnderlineLen,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
