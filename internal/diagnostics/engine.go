// Package diagnostics turns a parsed file into lint, semantic and syntax
// diagnostics, filtered through the file's ignore directives.
package diagnostics

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/ignore"
	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/model"
	"github.com/jward/treehugger/internal/queries"
	"github.com/jward/treehugger/internal/symbols"
)

// Input is one parsed file.
type Input struct {
	Root     *sitter.Node
	Source   []byte
	Language lang.Language
	Path     string
}

// Report is the outcome of one diagnostics pass. Warnings hold degraded
// categories, such as a language without a lint query, and script
// failures. They never stop the other categories from running.
type Report struct {
	Diagnostics []model.Diagnostic
	Warnings    []error
}

func (r *Report) merge(o *Report) {
	r.Diagnostics = append(r.Diagnostics, o.Diagnostics...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// HasErrors reports whether any diagnostic has Error severity.
func (r *Report) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == model.SeverityError {
			return true
		}
	}
	return false
}

// Scripts runs user rule scripts over a file and returns their reports as
// lint diagnostics.
type Scripts interface {
	Run(ctx context.Context, in Input) ([]model.Diagnostic, error)
}

// Engine computes diagnostics. It holds no per-file state and is safe for
// concurrent use.
type Engine struct {
	cache   *queries.Cache
	rules   Rules
	scripts Scripts
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache sets the query cache. The default is queries.Default().
func WithCache(c *queries.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithRules sets disabled rules and severity overrides.
func WithRules(r Rules) Option {
	return func(e *Engine) { e.rules = r }
}

// WithScripts adds rule scripts to the lint category.
func WithScripts(s Scripts) Option {
	return func(e *Engine) { e.scripts = s }
}

// WithLogger sets the logger used for degraded categories.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, o := range opts {
		o(e)
	}
	if e.cache == nil {
		e.cache = queries.Default()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e
}

// All runs every category and returns the combined, filtered report.
func (e *Engine) All(ctx context.Context, in Input) (*Report, error) {
	dirs, err := e.directives(in)
	if err != nil {
		return nil, err
	}
	report := &Report{Diagnostics: e.syntax(in)}

	lint, err := e.lint(ctx, in)
	if err != nil {
		return nil, err
	}
	report.merge(lint)

	sem, err := e.semantic(in)
	if err != nil {
		return nil, err
	}
	report.merge(sem)

	return e.finish(in, report, dirs), nil
}

// Syntax reports ERROR and MISSING nodes.
func (e *Engine) Syntax(in Input) (*Report, error) {
	return e.finish(in, &Report{Diagnostics: e.syntax(in)}, nil), nil
}

// Lint runs the lint query and any rule scripts.
func (e *Engine) Lint(ctx context.Context, in Input) (*Report, error) {
	dirs, err := e.directives(in)
	if err != nil {
		return nil, err
	}
	report, err := e.lint(ctx, in)
	if err != nil {
		return nil, err
	}
	return e.finish(in, report, dirs), nil
}

// Semantic reports undefined and unused names and dead code.
func (e *Engine) Semantic(in Input) (*Report, error) {
	dirs, err := e.directives(in)
	if err != nil {
		return nil, err
	}
	report, err := e.semantic(in)
	if err != nil {
		return nil, err
	}
	return e.finish(in, report, dirs), nil
}

func (e *Engine) directives(in Input) (*ignore.Directives, error) {
	return ignore.Parse(e.cache, in.Root, in.Source, in.Language)
}

func (e *Engine) symbolInput(in Input) symbols.Input {
	return symbols.Input{Root: in.Root, Source: in.Source, Language: in.Language, File: in.Path, Logger: e.logger}
}

// degrade records a missing optional query as a report warning. Any other
// error is returned.
func (e *Engine) degrade(report *Report, err error, category string, in Input) error {
	if !errors.Is(err, queries.ErrMissingQuery) {
		return err
	}
	e.logger.Debug("category degraded", "category", category, "language", in.Language, "path", in.Path, "err", err)
	report.Warnings = append(report.Warnings, err)
	return nil
}

// finish applies rule configuration and ignore directives, attaches source
// context and orders the result by position.
func (e *Engine) finish(in Input, report *Report, dirs *ignore.Directives) *Report {
	out := make([]model.Diagnostic, 0, len(report.Diagnostics))
	for _, d := range report.Diagnostics {
		d, keep := e.rules.apply(d)
		if !keep || dirs.Suppressed(d.Range.StartLine, d.Rule) {
			continue
		}
		if d.Context == nil {
			d.Context = model.NewSourceContext(in.Source, d.Range)
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Range.StartByte != out[j].Range.StartByte {
			return out[i].Range.StartByte < out[j].Range.StartByte
		}
		return out[i].Rule < out[j].Rule
	})
	report.Diagnostics = out
	return report
}
