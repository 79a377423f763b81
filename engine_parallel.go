package treehugger

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/store"
	"github.com/jward/treehugger/internal/symbols"
)

// errPending marks a file record whose results are not committed yet, so
// an interrupted batch re-analyzes it on the next run.
const errPending = "analysis pending"

// workItem holds everything an analysis worker needs.
type workItem struct {
	path     string
	language Language
	source   []byte
	fileID   int64
	batch    *store.BatchedStore
}

type workResult struct {
	item workItem
	err  error
}

// AnalyzeDirectory discovers the source files under root and analyzes
// them. Stored results for files under root that no longer exist, or no
// longer pass the configured filters, are removed.
func (e *Engine) AnalyzeDirectory(ctx context.Context, root string) (*Summary, error) {
	start := time.Now()
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	paths, err := e.listFiles(ctx, abs)
	if err != nil {
		return nil, err
	}
	summary, err := e.AnalyzeFiles(ctx, paths)
	if err != nil {
		return summary, err
	}
	removed, err := e.prune(abs, paths)
	summary.Removed = removed
	summary.Duration = time.Since(start)
	return summary, err
}

// AnalyzeFiles analyzes the given paths using a three-phase pipeline:
//
//	Phase A (serial):   hash check, delete stale rows, insert file records.
//	Phase B (parallel): parse and analyze on a worker pool, buffering rows.
//	Phase C (serial):   commit each file's rows in one transaction.
//
// A file that fails to analyze is recorded with its error and reported in
// the Summary; only store failures and cancellation abort the batch.
func (e *Engine) AnalyzeFiles(ctx context.Context, paths []string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	changed, err := e.QueriesChanged()
	if err != nil {
		return nil, err
	}
	if changed {
		files, err := e.store.Files()
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			if err := e.store.Reset(); err != nil {
				return nil, err
			}
			summary.Rebuilt = true
			e.opts.logger.Info("analysis settings changed, rebuilding cache", "files", len(files))
		}
	}

	// ---- Phase A: Serial file preparation ----
	var items []workItem
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		item, skip, err := e.prepareFile(path)
		if err != nil {
			return summary, fmt.Errorf("prepare %s: %w", path, err)
		}
		if skip {
			if item.path != "" {
				summary.Unchanged++
			}
			continue
		}
		items = append(items, item)
	}

	if len(items) > 0 {
		if err := e.runWorkers(ctx, items, summary); err != nil {
			return summary, err
		}
	}

	if err := e.storeFingerprint(); err != nil {
		return summary, err
	}
	summary.Duration = time.Since(start)
	return summary, nil
}

func (e *Engine) runWorkers(ctx context.Context, items []workItem, summary *Summary) error {
	// ---- Phase B: Parallel analysis ----
	numWorkers := e.opts.workers
	if numWorkers < 1 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = min(numWorkers, len(items))

	workCh := make(chan workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	resultCh := make(chan workResult, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				if ctx.Err() != nil {
					resultCh <- workResult{item: item, err: ctx.Err()}
					continue
				}
				resultCh <- workResult{item: item, err: e.analyzeFile(ctx, item)}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: Serial commit ----
	var storeErr error
	for res := range resultCh {
		if storeErr != nil {
			continue
		}
		if res.err != nil {
			if ctx.Err() != nil {
				storeErr = ctx.Err()
				continue
			}
			e.opts.logger.Warn("analysis failed", "path", res.item.path, "err", res.err)
			summary.Failed = append(summary.Failed, &FileError{Path: res.item.path, Err: res.err})
			if err := e.store.SetFileError(res.item.fileID, res.err.Error()); err != nil {
				storeErr = err
			}
			continue
		}
		if err := e.store.CommitBatch(res.item.batch); err != nil {
			storeErr = fmt.Errorf("commit %s: %w", res.item.path, err)
			continue
		}
		if err := e.store.SetFileError(res.item.fileID, ""); err != nil {
			storeErr = err
			continue
		}
		summary.Analyzed++
	}
	return storeErr
}

// prepareFile does Phase A work for a single file. skip is set for
// unsupported, filtered and unchanged files; item.path is kept for
// unchanged ones so they can be counted.
func (e *Engine) prepareFile(path string) (workItem, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return workItem{}, false, err
	}
	l := e.opts.language
	if l == "" {
		if l, err = lang.ForPath(abs); err != nil {
			return workItem{}, true, nil
		}
	}
	if e.opts.languages != nil && !e.opts.languages[l] {
		return workItem{}, true, nil
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := store.ContentHash(content)

	existing, err := e.store.FileByPath(abs)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash && existing.Error == "" {
		return workItem{path: abs}, true, nil
	}
	if existing != nil {
		if err := e.store.DeleteFileData(existing.ID); err != nil {
			return workItem{}, false, fmt.Errorf("delete old data: %w", err)
		}
	}

	fileID, err := e.store.InsertFile(&store.File{
		Path:         abs,
		Language:     l.String(),
		Hash:         hash,
		LineCount:    bytes.Count(content, []byte{'\n'}) + 1,
		LastAnalyzed: time.Now(),
		Error:        errPending,
	})
	if err != nil {
		return workItem{}, false, fmt.Errorf("insert file: %w", err)
	}

	return workItem{
		path:     abs,
		language: l,
		source:   content,
		fileID:   fileID,
		batch:    store.NewBatchedStore(e.store),
	}, false, nil
}

// analyzeFile parses one file and buffers its results into the item's
// batch. Each call parses with its own parser.
func (e *Engine) analyzeFile(ctx context.Context, item workItem) error {
	o := e.opts
	o.language = item.language
	f, err := parse(ctx, item.path, item.source, o)
	if err != nil {
		return err
	}
	defer f.Close()
	return e.record(ctx, f, item.fileID, item.batch)
}

// record writes the symbols, imports and diagnostics of f as rows of fileID.
func (e *Engine) record(ctx context.Context, f *File, fileID int64, w store.Writer) error {
	syms, err := f.Symbols()
	if err != nil {
		return err
	}
	exported, err := symbols.Exports(f.cache, f.symbolInput())
	if err != nil {
		return err
	}
	for _, s := range syms {
		if _, err := w.InsertSymbol(store.NewSymbol(fileID, s, exported.Has(s))); err != nil {
			return err
		}
	}

	imps, err := f.ImportedSymbols()
	if err != nil {
		return err
	}
	for _, imp := range imps {
		if _, err := w.InsertImport(store.NewImport(fileID, imp)); err != nil {
			return err
		}
	}

	report, err := f.Analyze(ctx)
	if err != nil {
		return err
	}
	for _, warn := range report.Warnings {
		e.opts.logger.Debug("diagnostics degraded", "path", f.Path(), "err", warn)
	}
	for _, d := range report.Diagnostics {
		if _, err := w.InsertDiagnostic(store.NewDiagnostic(fileID, d)); err != nil {
			return err
		}
	}
	return nil
}

// prune removes stored files under root that are not in keep.
func (e *Engine) prune(root string, keep []string) (int, error) {
	files, err := e.store.Files()
	if err != nil {
		return 0, err
	}
	kept := make(map[string]bool, len(keep))
	for _, p := range keep {
		if abs, err := filepath.Abs(p); err == nil {
			kept[abs] = true
		}
	}
	prefix := root + string(filepath.Separator)
	var stale []int64
	for _, f := range files {
		if strings.HasPrefix(f.Path, prefix) && !kept[f.Path] {
			stale = append(stale, f.ID)
		}
	}
	if err := e.store.DeleteFiles(stale); err != nil {
		return 0, err
	}
	return len(stale), nil
}
