package store

import "sync"

// Writer receives the result rows of one analyzed file. Store writes them
// straight to SQLite; BatchedStore holds them until CommitBatch.
type Writer interface {
	InsertSymbol(sym *Symbol) (int64, error)
	InsertImport(imp *Import) (int64, error)
	InsertDiagnostic(d *Diagnostic) (int64, error)
}

var (
	_ Writer = (*Store)(nil)
	_ Writer = (*BatchedStore)(nil)
)

// BatchedStore buffers one file's rows for an analysis worker. Rows get
// negative placeholder IDs until CommitBatch assigns real ones.
type BatchedStore struct {
	store *Store

	mu          sync.Mutex
	lastID      int64
	Symbols     []Symbol
	Imports     []Import
	Diagnostics []Diagnostic
}

// NewBatchedStore returns an empty batch that reads through to s.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{store: s}
}

// placeholder must be called with mu held.
func (b *BatchedStore) placeholder() int64 {
	b.lastID--
	return b.lastID
}

func (b *BatchedStore) InsertSymbol(sym *Symbol) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sym.ID = b.placeholder()
	b.Symbols = append(b.Symbols, *sym)
	return sym.ID, nil
}

func (b *BatchedStore) InsertImport(imp *Import) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	imp.ID = b.placeholder()
	b.Imports = append(b.Imports, *imp)
	return imp.ID, nil
}

func (b *BatchedStore) InsertDiagnostic(d *Diagnostic) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d.ID = b.placeholder()
	b.Diagnostics = append(b.Diagnostics, *d)
	return d.ID, nil
}

// Len is the number of buffered rows.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Symbols) + len(b.Imports) + len(b.Diagnostics)
}

// SymbolsByFile returns the committed symbols of fileID followed by the
// ones still buffered here.
func (b *BatchedStore) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	syms, err := b.store.SymbolsByFile(fileID)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Symbols {
		if b.Symbols[i].FileID == fileID {
			syms = append(syms, &b.Symbols[i])
		}
	}
	return syms, nil
}
