package treehugger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/jward/treehugger/internal/diagnostics"
	"github.com/jward/treehugger/internal/store"
)

// fingerprintKey is the metadata key holding the fingerprint of the
// queries, scripts and rule settings the stored results were computed with.
const fingerprintKey = "analysis_fingerprint"

// ErrNotAnalyzed is returned for a path the Engine has no results for.
var ErrNotAnalyzed = errors.New("treehugger: file not analyzed")

// Engine analyzes many files into a SQLite cache. Files are re-analyzed
// only when their content hash changes, or when the queries, rule scripts
// or rule settings differ from those the cache was built with.
type Engine struct {
	store *store.Store
	opts  options
}

// FileError is a file that could not be analyzed. The rest of the batch is
// unaffected.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return e.Path + ": " + e.Err.Error() }
func (e *FileError) Unwrap() error { return e.Err }

// Summary describes one AnalyzeFiles or AnalyzeDirectory run.
type Summary struct {
	Analyzed  int
	Unchanged int
	Removed   int
	Failed    []*FileError
	// Rebuilt is set when a changed fingerprint discarded the whole cache.
	Rebuilt  bool
	Duration time.Duration
}

// PathDiagnostic is a stored diagnostic with the path it belongs to.
type PathDiagnostic struct {
	Path       string     `json:"path"`
	Diagnostic Diagnostic `json:"diagnostic"`
}

// New creates an Engine backed by a SQLite database at dbPath. The
// database's directory is created if needed.
func New(dbPath string, opts ...Option) (*Engine, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("treehugger: create store dir: %w", err)
		}
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("treehugger: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("treehugger: migrate: %w", err)
	}

	o := newOptions(opts)
	// One runtime serves every worker.
	o.scripts = o.scriptRunner()
	return &Engine{store: s, opts: o}, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *store.Store {
	return e.store
}

// fingerprint hashes everything besides file content that shapes the
// stored results.
func (e *Engine) fingerprint() (string, error) {
	qfp, err := e.opts.cache.Fingerprint()
	if err != nil {
		return "", err
	}
	h := xxhash.New()
	_, _ = h.WriteString(qfp)
	writeRules(h, e.opts.rules)
	if err := writeScripts(h, e.scriptsFS()); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

func writeRules(h *xxhash.Digest, r diagnostics.Rules) {
	var lines []string
	for rule, off := range r.Disabled {
		if off {
			lines = append(lines, "disabled "+rule)
		}
	}
	for rule, sev := range r.Severity {
		lines = append(lines, "severity "+rule+" "+sev.String())
	}
	sort.Strings(lines)
	for _, l := range lines {
		_, _ = h.WriteString(l)
		_, _ = h.Write([]byte{0})
	}
}

func (e *Engine) scriptsFS() fs.FS {
	if e.opts.scriptsFS != nil {
		return e.opts.scriptsFS
	}
	if e.opts.scriptsDir == "" {
		return nil
	}
	if _, err := os.Stat(e.opts.scriptsDir); err != nil {
		return nil
	}
	return os.DirFS(e.opts.scriptsDir)
}

// writeScripts hashes every .risor file in fsys, helpers included.
func writeScripts(h *xxhash.Digest, fsys fs.FS) error {
	if fsys == nil {
		return nil
	}
	var paths []string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".risor") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk scripts: %w", err)
	}
	sort.Strings(paths)
	for _, p := range paths {
		src, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read script %s: %w", p, err)
		}
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(src)
	}
	return nil
}

// QueriesChanged reports whether the queries, rule scripts or rule
// settings differ from what was used to build the current database. It is
// true for a database that has never completed an analysis.
func (e *Engine) QueriesChanged() (bool, error) {
	current, err := e.fingerprint()
	if err != nil {
		return false, err
	}
	stored, err := e.store.GetMetadata(fingerprintKey)
	if err != nil {
		return false, err
	}
	return stored != current, nil
}

func (e *Engine) storeFingerprint() error {
	fp, err := e.fingerprint()
	if err != nil {
		return err
	}
	return e.store.SetMetadata(fingerprintKey, fp)
}

// Diagnostics returns the stored diagnostics for path in position order.
func (e *Engine) Diagnostics(path string) ([]Diagnostic, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, err := e.store.FileByPath(abs)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotAnalyzed, path)
	}
	rows, err := e.store.DiagnosticsByFile(f.ID)
	if err != nil {
		return nil, err
	}
	out := make([]Diagnostic, len(rows))
	for i, d := range rows {
		out[i] = d.Model()
	}
	return out, nil
}

// AllDiagnostics returns every stored diagnostic ordered by path, then
// position.
func (e *Engine) AllDiagnostics() ([]PathDiagnostic, error) {
	rows, err := e.store.AllDiagnostics()
	if err != nil {
		return nil, err
	}
	out := make([]PathDiagnostic, len(rows))
	for i, r := range rows {
		out[i] = PathDiagnostic{Path: r.Path, Diagnostic: r.Diagnostic.Model()}
	}
	return out, nil
}

// Files returns every analyzed file, including those that failed.
func (e *Engine) Files() ([]*StoredFile, error) {
	return e.store.Files()
}
