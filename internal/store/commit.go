package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch inserts all buffered rows from a BatchedStore into SQLite
// within a single transaction. Fake IDs are replaced by the real ones
// SQLite assigns. The file row must already exist.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	batch.mu.Lock()
	defer batch.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	for i := range batch.Symbols {
		sym := &batch.Symbols[i]
		realID, err := insertSymbolTx(tx, sym)
		if err != nil {
			return fmt.Errorf("commit batch: symbol %q: %w", sym.Name, err)
		}
		sym.ID = realID
	}

	for i := range batch.Imports {
		imp := &batch.Imports[i]
		realID, err := insertImportTx(tx, imp)
		if err != nil {
			return fmt.Errorf("commit batch: import %q: %w", imp.Source, err)
		}
		imp.ID = realID
	}

	for i := range batch.Diagnostics {
		d := &batch.Diagnostics[i]
		realID, err := insertDiagnostic(tx, d)
		if err != nil {
			return fmt.Errorf("commit batch: diagnostic %q: %w", d.Rule, err)
		}
		d.ID = realID
	}

	return tx.Commit()
}

// --- Transaction-scoped insert helpers ---
// These mirror the Store insert methods but accept *sql.Tx instead of using s.db.

func insertSymbolTx(tx *sql.Tx, sym *Symbol) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO symbols (file_id, name, kind, visibility, exported, doc, signature,
			start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.FileID, sym.Name, sym.Kind, sym.Visibility, sym.Exported, sym.Doc, sym.Signature,
		sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertImportTx(tx *sql.Tx, imp *Import) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO imports (file_id, name, original, alias, source, start_line, start_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		imp.FileID, imp.Name, imp.Original, imp.Alias, imp.Source, imp.StartLine, imp.StartCol,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
