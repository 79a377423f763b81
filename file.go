package treehugger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/config"
	"github.com/jward/treehugger/internal/deadcode"
	"github.com/jward/treehugger/internal/diagnostics"
	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/model"
	"github.com/jward/treehugger/internal/queries"
	"github.com/jward/treehugger/internal/runtime"
	"github.com/jward/treehugger/internal/store"
	"github.com/jward/treehugger/internal/symbols"
)

// File is one parsed source file. Every accessor is computed from the
// syntax tree on demand; a File holds no analysis state of its own and is
// safe for concurrent reads until Close.
type File struct {
	path     string
	language Language
	source   []byte
	hash     string
	tree     *sitter.Tree

	cache  *queries.Cache
	engine *diagnostics.Engine
	logger *slog.Logger
}

// Option configures Open, Parse and New. Options that only make sense for
// batch analysis are ignored by Open and Parse.
type Option func(*options)

type options struct {
	language   Language
	cache      *queries.Cache
	rules      RuleConfig
	scriptsDir string
	scriptsFS  fs.FS
	scripts    diagnostics.Scripts
	logger     *slog.Logger

	config    *config.Config
	workers   int
	languages map[Language]bool
	debounce  time.Duration
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.config != nil {
		if o.rules.Disabled == nil && o.rules.Severity == nil {
			o.rules = o.config.RuleConfig()
		}
		if o.scriptsDir == "" {
			o.scriptsDir = o.config.ScriptsDir()
		}
		if o.workers == 0 {
			o.workers = o.config.Workers()
		}
	}
	if o.debounce <= 0 {
		o.debounce = defaultDebounce
	}
	if o.cache == nil {
		o.cache = queries.Default()
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// scriptRunner builds the rule script runtime, or returns nil when no
// scripts are configured.
func (o options) scriptRunner() diagnostics.Scripts {
	if o.scripts != nil {
		return o.scripts
	}
	if o.scriptsDir == "" && o.scriptsFS == nil {
		return nil
	}
	rtOpts := []runtime.RuntimeOption{
		runtime.WithQueryCache(o.cache),
		runtime.WithLogger(o.logger),
	}
	if o.scriptsFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(o.scriptsFS))
	}
	return runtime.NewRuntime(o.scriptsDir, rtOpts...)
}

// WithLanguage forces the language instead of detecting it from the file
// extension.
func WithLanguage(l Language) Option {
	return func(o *options) { o.language = l }
}

// WithQueryCache shares a query cache between files. The default is the
// process-wide cache over the embedded queries.
func WithQueryCache(c *QueryCache) Option {
	return func(o *options) { o.cache = c }
}

// WithRuleConfig disables rules and overrides their severities. It takes
// precedence over the rules of WithConfig.
func WithRuleConfig(r RuleConfig) Option {
	return func(o *options) { o.rules = r }
}

// WithScripts runs the Risor rule scripts under dir as part of the lint
// category.
func WithScripts(dir string) Option {
	return func(o *options) { o.scriptsDir = dir }
}

// WithScriptsFS loads rule scripts from fsys instead of a directory, for
// example an embed.FS.
func WithScriptsFS(fsys fs.FS) Option {
	return func(o *options) { o.scriptsFS = fsys }
}

// WithLogger sets the logger for degraded categories and skipped captures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithConfig applies a project configuration: rule settings, the scripts
// directory, the worker count and the include and exclude globs.
func WithConfig(c *config.Config) Option {
	return func(o *options) { o.config = c }
}

// WithWorkers sets the number of files analyzed in parallel by an Engine.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLanguages restricts an Engine to the given languages.
func WithLanguages(languages ...Language) Option {
	return func(o *options) {
		o.languages = make(map[Language]bool, len(languages))
		for _, l := range languages {
			o.languages[l] = true
		}
	}
}

// WithDebounce sets how long Engine.Watch waits for file events to settle
// before re-analyzing.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// NewQueryCache returns a cache over the embedded queries for sharing
// between files with WithQueryCache.
func NewQueryCache(logger *slog.Logger) *QueryCache {
	if logger == nil {
		logger = slog.Default()
	}
	return queries.NewCache(queries.WithLogger(logger))
}

// Open reads and parses the file at path.
func Open(ctx context.Context, path string, opts ...Option) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("treehugger: read %s: %w", path, err)
	}
	return Parse(ctx, path, src, opts...)
}

// Parse parses source as the contents of path. The path only selects the
// language and labels results; it is never read.
func Parse(ctx context.Context, path string, source []byte, opts ...Option) (*File, error) {
	return parse(ctx, path, source, newOptions(opts))
}

func parse(ctx context.Context, path string, source []byte, o options) (*File, error) {
	l := o.language
	if l == "" {
		var err error
		if l, err = lang.ForPath(path); err != nil {
			return nil, err
		}
	}
	tree, err := lang.ParseSource(ctx, l, source)
	if err != nil {
		return nil, fmt.Errorf("treehugger: parse %s: %w", path, err)
	}

	engineOpts := []diagnostics.Option{
		diagnostics.WithCache(o.cache),
		diagnostics.WithRules(o.rules),
		diagnostics.WithLogger(o.logger),
	}
	if scripts := o.scriptRunner(); scripts != nil {
		engineOpts = append(engineOpts, diagnostics.WithScripts(scripts))
	}

	return &File{
		path:     path,
		language: l,
		source:   source,
		hash:     store.ContentHash(source),
		tree:     tree,
		cache:    o.cache,
		engine:   diagnostics.New(engineOpts...),
		logger:   o.logger.With("path", path),
	}, nil
}

// Close releases the syntax tree.
func (f *File) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

func (f *File) Path() string       { return f.path }
func (f *File) Language() Language { return f.language }
func (f *File) Source() []byte     { return f.source }

// Hash is the xxhash of the source, as stored by the batch engine.
func (f *File) Hash() string { return f.hash }

// Root is the root node of the syntax tree.
func (f *File) Root() *sitter.Node { return f.tree.RootNode() }

func (f *File) symbolInput() symbols.Input {
	return symbols.Input{
		Root:     f.Root(),
		Source:   f.source,
		Language: f.language,
		File:     f.path,
		Logger:   f.logger,
	}
}

func (f *File) diagInput() diagnostics.Input {
	return diagnostics.Input{
		Root:     f.Root(),
		Source:   f.source,
		Language: f.language,
		Path:     f.path,
	}
}

// Symbols returns every definition in source order.
func (f *File) Symbols() ([]SymbolInfo, error) {
	return symbols.Extract(f.cache, f.symbolInput())
}

// ImportedSymbols returns the names brought in by import statements. A
// language without an imports query has none.
func (f *File) ImportedSymbols() ([]ImportSymbol, error) {
	imps, err := symbols.Imports(f.cache, f.symbolInput())
	if errors.Is(err, queries.ErrMissingQuery) {
		f.logger.Debug("no imports query", "language", f.language)
		return nil, nil
	}
	return imps, err
}

// ExportedSymbols returns the definitions visible outside the file.
func (f *File) ExportedSymbols() ([]SymbolInfo, error) {
	pub, _, err := f.partition()
	return pub, err
}

// LocalSymbols returns the definitions that are not exported.
func (f *File) LocalSymbols() ([]SymbolInfo, error) {
	_, local, err := f.partition()
	return local, err
}

func (f *File) partition() (pub, local []SymbolInfo, err error) {
	syms, err := f.Symbols()
	if err != nil {
		return nil, nil, err
	}
	exported, err := symbols.Exports(f.cache, f.symbolInput())
	if err != nil {
		return nil, nil, err
	}
	pub, local = symbols.Partition(syms, exported)
	return pub, local, nil
}

// ReferencedSymbols returns every identifier use in source order.
func (f *File) ReferencedSymbols() ([]ReferencedSymbol, error) {
	return symbols.References(f.cache, f.symbolInput())
}

// Analyze runs every diagnostic category and returns the report, including
// warnings for degraded categories.
func (f *File) Analyze(ctx context.Context) (*Report, error) {
	return f.engine.All(ctx, f.diagInput())
}

// Diagnostics returns the lint, semantic and syntax diagnostics together.
func (f *File) Diagnostics(ctx context.Context) ([]Diagnostic, error) {
	return f.diagnostics(f.engine.All(ctx, f.diagInput()))
}

// LintDiagnostics returns lint query and rule script findings.
func (f *File) LintDiagnostics(ctx context.Context) ([]Diagnostic, error) {
	return f.diagnostics(f.engine.Lint(ctx, f.diagInput()))
}

// SemanticDiagnostics returns undefined, unused and dead code findings.
func (f *File) SemanticDiagnostics() ([]Diagnostic, error) {
	return f.diagnostics(f.engine.Semantic(f.diagInput()))
}

// SyntaxDiagnostics returns parse errors.
func (f *File) SyntaxDiagnostics() ([]Diagnostic, error) {
	return f.diagnostics(f.engine.Syntax(f.diagInput()))
}

func (f *File) diagnostics(r *Report, err error) ([]Diagnostic, error) {
	if err != nil {
		return nil, err
	}
	for _, w := range r.Warnings {
		f.logger.Debug("diagnostics degraded", "err", w)
	}
	return r.Diagnostics, nil
}

// DeadCode returns statements that can never run.
func (f *File) DeadCode() []DeadCode {
	return deadcode.Find(f.Root(), f.source, f.language)
}

// Functions returns the callable definitions.
func (f *File) Functions() ([]SymbolInfo, error) {
	return f.filter(func(k SymbolKind) bool { return k.IsCallable() })
}

// Types returns the type-like definitions.
func (f *File) Types() ([]SymbolInfo, error) {
	return f.filter(func(k SymbolKind) bool { return k.IsTypeLike() })
}

func (f *File) filter(keep func(SymbolKind) bool) ([]SymbolInfo, error) {
	syms, err := f.Symbols()
	if err != nil {
		return nil, err
	}
	var out []SymbolInfo
	for _, s := range syms {
		if keep(s.Kind) {
			out = append(out, s)
		}
	}
	return out, nil
}

func isClassLike(k SymbolKind) bool {
	switch k {
	case model.KindClass, model.KindType, model.KindInterface, model.KindTrait:
		return true
	}
	return false
}

// Classes returns each class-like definition with its methods and fields.
// A method belongs to the innermost class whose definition contains it.
// Methods declared outside any class body, such as Go methods, belong to
// the nearest class declared above them.
func (f *File) Classes() ([]ClassSummary, error) {
	syms, err := f.Symbols()
	if err != nil {
		return nil, err
	}
	var classes []SymbolInfo
	var methods []SymbolInfo
	for _, s := range syms {
		switch {
		case isClassLike(s.Kind):
			classes = append(classes, s)
		case s.Kind == model.KindMethod:
			methods = append(methods, s)
		}
	}
	sort.SliceStable(classes, func(i, j int) bool {
		return classes[i].Range.StartLine < classes[j].Range.StartLine
	})

	out := make([]ClassSummary, len(classes))
	for i, c := range classes {
		out[i].Class = c
		if c.Type != nil {
			for _, fld := range c.Type.Fields {
				if fld.IsStatic {
					out[i].StaticFields = append(out[i].StaticFields, fld)
				} else {
					out[i].InstanceFields = append(out[i].InstanceFields, fld)
				}
			}
		}
	}
	for _, m := range methods {
		i := owningClass(classes, m)
		if i < 0 {
			continue
		}
		if m.Signature != nil && m.Signature.IsStatic {
			out[i].StaticMethods = append(out[i].StaticMethods, m)
		} else {
			out[i].InstanceMethods = append(out[i].InstanceMethods, m)
		}
	}
	return out, nil
}

func owningClass(classes []SymbolInfo, m SymbolInfo) int {
	owner, best := -1, 0
	for i, c := range classes {
		if c.DefinitionRange == nil || !c.DefinitionRange.Contains(m.Range) {
			continue
		}
		if size := c.DefinitionRange.EndByte - c.DefinitionRange.StartByte; owner < 0 || size < best {
			owner, best = i, size
		}
	}
	if owner >= 0 {
		return owner
	}
	for i, c := range classes {
		if c.Range.StartLine >= m.Range.StartLine {
			break
		}
		owner = i
	}
	return owner
}
