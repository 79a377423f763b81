package runtime

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/treehugger/internal/diagnostics"
	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/model"
	"github.com/jward/treehugger/internal/queries"
)

// Runtime embeds a Risor VM and runs lint rule scripts against parsed
// files. Each script is one rule: it receives the file's root node and
// calls report() for every finding.
//
// Scripts at the top of the scripts directory run for every language;
// scripts under a directory named after a language (go/, python/, ...)
// run only for that language. Files whose name starts with "_" are helper
// modules for import and are never run as rules.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	cache      *queries.Cache
	logger     *slog.Logger
	sources    *sourceStore
}

var _ diagnostics.Scripts = (*Runtime)(nil)

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithQueryCache sets the cache used by the comments, symbols, imports
// and references host functions.
func WithQueryCache(c *queries.Cache) RuntimeOption {
	return func(r *Runtime) {
		r.cache = c
	}
}

// WithLogger sets the logger behind the scripts' log global.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates a Runtime that loads rule scripts from scriptsDir.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		scriptsDir: scriptsDir,
		sources:    newSourceStore(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = queries.Default()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run executes every rule script that applies to the file's language and
// returns their reports. A failing script does not stop the others; the
// failures are returned joined.
func (r *Runtime) Run(ctx context.Context, in diagnostics.Input) ([]model.Diagnostic, error) {
	paths, err := r.ScriptPaths(in.Language)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 || in.Root == nil {
		return nil, nil
	}

	r.sources.store(in.Root, in.Source, in.Language)
	defer r.sources.remove(in.Root)

	f := newFileFacts(r.cache, in)
	var out []model.Diagnostic
	var errs []error
	for _, p := range paths {
		rule := strings.TrimSuffix(path.Base(p), ".risor")
		c := &collector{rule: rule, source: in.Source}
		if err := r.RunScript(ctx, p, f.globals(c)); err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c.diags...)
	}
	return out, errors.Join(errs...)
}

// ScriptPaths lists the rule scripts that apply to l, in a stable order.
func (r *Runtime) ScriptPaths(l lang.Language) ([]string, error) {
	fsys := r.scriptFS()
	if fsys == nil {
		return nil, nil
	}
	var out []string
	for _, pattern := range []string{"*.risor", string(l) + "/**/*.risor"} {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("runtime: listing scripts %s: %w", pattern, err)
		}
		for _, m := range matches {
			if !strings.HasPrefix(path.Base(m), "_") {
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *Runtime) scriptFS() fs.FS {
	if r.fsys != nil {
		return r.fsys
	}
	if r.scriptsDir == "" {
		return nil
	}
	if _, err := os.Stat(r.scriptsDir); err != nil {
		return nil
	}
	return os.DirFS(r.scriptsDir)
}

// RunScript loads and executes a Risor script with all standard globals
// plus any extra globals provided by the caller.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source code directly with all standard globals
// plus any extra globals. Useful for testing without script files.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) error {
	globals := r.buildGlobals(label, extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	_, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on that filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		// For fs.FS, strip any leading path separator so the path is
		// relative within the FS (e.g., "/go/no-init.risor" -> "go/no-init.risor").
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// buildGlobals constructs the globals shared by every script. Per-file
// globals arrive in extra.
func (r *Runtime) buildGlobals(label string, extra map[string]any) map[string]any {
	globals := map[string]any{
		"parse_src":  makeParseSrcFn(r.sources),
		"node_text":  makeNodeTextFn(r.sources),
		"node_child": makeNodeChildFn(),
		"query":      makeQueryFn(r.sources),
		"log":        mustProxy(&logObject{logger: r.logger.With("script", label)}),
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
