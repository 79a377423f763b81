package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/risor-io/risor/object"

	"github.com/jward/treehugger/internal/diagnostics"
	"github.com/jward/treehugger/internal/model"
	"github.com/jward/treehugger/internal/queries"
	"github.com/jward/treehugger/internal/symbols"
)

// fileFacts exposes one file's analysis to scripts. Risor scripts cannot
// read Go structs field by field, so symbols, imports and references are
// handed over as lists of maps with primitive values. Each list is built on
// first use and shared by every script run against the file.
type fileFacts struct {
	cache *queries.Cache
	in    diagnostics.Input

	syms    object.Object
	imports object.Object
	refs    object.Object
}

func newFileFacts(cache *queries.Cache, in diagnostics.Input) *fileFacts {
	return &fileFacts{cache: cache, in: in}
}

func (f *fileFacts) symbolInput() symbols.Input {
	return symbols.Input{Root: f.in.Root, Source: f.in.Source, Language: f.in.Language, File: f.in.Path}
}

// globals are the per-file globals of one script run.
func (f *fileFacts) globals(c *collector) map[string]any {
	return map[string]any{
		"root":       mustProxy(f.in.Root),
		"language":   f.in.Language.String(),
		"file_path":  f.in.Path,
		"source":     string(f.in.Source),
		"report":     makeReportFn(c),
		"comments":   f.makeCommentsFn(),
		"symbols":    f.makeSymbolsFn(),
		"imports":    f.makeImportsFn(),
		"references": f.makeReferencesFn(),
	}
}

// collector gathers the reports of one script.
type collector struct {
	rule   string
	source []byte
	diags  []model.Diagnostic
}

// makeReportFn creates the "report" host function.
//
// report({node, message, rule?, severity?, line?})
// report(node, message)
//
// rule defaults to the script's file name; severity to the rule's default.
func makeReportFn(c *collector) *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		var m map[string]object.Object
		switch len(args) {
		case 1:
			var err error
			if m, err = extractMap(args[0]); err != nil {
				return object.Errorf("report: %v", err)
			}
		case 2:
			m = map[string]object.Object{"node": args[0], "message": args[1]}
		default:
			return object.NewArgsError("report", 1, len(args))
		}

		d := model.Diagnostic{
			Kind:    model.DiagnosticLint,
			Rule:    getStringDefault(m, "rule", c.rule),
			Message: getString(m, "message"),
		}
		if d.Message == "" {
			return object.Errorf("report: message is required")
		}

		d.Severity = diagnostics.DefaultSeverity(d.Rule)
		if s := getString(m, "severity"); s != "" {
			sev, err := model.ParseSeverity(s)
			if err != nil {
				return object.Errorf("report: %v", err)
			}
			d.Severity = sev
		}

		if v, ok := m["node"]; ok {
			node, ok := nodeArg(v)
			if !ok {
				return object.Errorf("report: node must be a node, got %s", v.Type())
			}
			d.Range = model.RangeOf(node)
		} else if line := getInt(m, "line"); line > 0 {
			d.Range = lineRange(c.source, line)
		} else {
			return object.Errorf("report: node or line is required")
		}

		c.diags = append(c.diags, d)
		return object.Nil
	})
}

// lineRange spans the whole of a 1-based line.
func lineRange(src []byte, line int) model.CodeRange {
	start, current := 0, 1
	for i := 0; i < len(src) && current < line; i++ {
		if src[i] == '\n' {
			current++
			start = i + 1
		}
	}
	end := start
	for end < len(src) && src[end] != '\n' {
		end++
	}
	return model.CodeRange{
		StartLine: line, EndLine: line,
		StartColumn: 0, EndColumn: end - start,
		StartByte: start, EndByte: end,
	}
}

// makeCommentsFn creates "comments", listing the file's comment nodes in
// source order. Languages without a comments query have none.
//
// comments() → []Node
func (f *fileFacts) makeCommentsFn() *object.Builtin {
	return object.NewBuiltin("comments", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("comments", 0, len(args))
		}
		q, err := f.cache.Get(f.in.Language, queries.Comments)
		if errors.Is(err, queries.ErrMissingQuery) {
			return object.NewList([]object.Object{})
		}
		if err != nil {
			return object.Errorf("comments: %v", err)
		}

		matches := q.Matches(f.in.Root, f.in.Source)
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].Captures[0].Node.StartByte() < matches[j].Captures[0].Node.StartByte()
		})
		results := []object.Object{}
		for _, m := range matches {
			if n := m.Find("comment"); n != nil {
				results = append(results, mustProxy(n))
			}
		}
		return object.NewList(results)
	})
}

// makeSymbolsFn creates "symbols".
//
// symbols() → []{name, kind, visibility, doc, signature?, definition?, line, column, ...}
func (f *fileFacts) makeSymbolsFn() *object.Builtin {
	return object.NewBuiltin("symbols", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("symbols", 0, len(args))
		}
		if f.syms != nil {
			return f.syms
		}
		syms, err := symbols.Extract(f.cache, f.symbolInput())
		if err != nil {
			return object.Errorf("symbols: %v", err)
		}
		results := make([]object.Object, 0, len(syms))
		for _, s := range syms {
			m := rangeMap(s.Range)
			m["name"] = object.NewString(s.Name)
			m["kind"] = object.NewString(string(s.Kind))
			m["visibility"] = object.NewString(string(s.Visibility))
			m["doc"] = object.NewString(s.Doc)
			if s.Signature != nil {
				m["signature"] = object.NewString(s.Signature.String())
			}
			if s.DefinitionRange != nil {
				m["definition"] = object.NewMap(rangeMap(*s.DefinitionRange))
			}
			results = append(results, object.NewMap(m))
		}
		f.syms = object.NewList(results)
		return f.syms
	})
}

// makeImportsFn creates "imports".
//
// imports() → []{name, source, alias, original, line, column, ...}
func (f *fileFacts) makeImportsFn() *object.Builtin {
	return object.NewBuiltin("imports", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("imports", 0, len(args))
		}
		if f.imports != nil {
			return f.imports
		}
		imps, err := symbols.Imports(f.cache, f.symbolInput())
		if err != nil && !errors.Is(err, queries.ErrMissingQuery) {
			return object.Errorf("imports: %v", err)
		}
		results := make([]object.Object, 0, len(imps))
		for _, imp := range imps {
			m := rangeMap(imp.Range)
			m["name"] = object.NewString(imp.Name)
			m["source"] = object.NewString(imp.Source)
			m["alias"] = object.NewString(imp.Alias)
			m["original"] = object.NewString(imp.Original)
			results = append(results, object.NewMap(m))
		}
		f.imports = object.NewList(results)
		return f.imports
	})
}

// makeReferencesFn creates "references".
//
// references() → []{name, qualifier, qualified, kind, line, column, ...}
func (f *fileFacts) makeReferencesFn() *object.Builtin {
	return object.NewBuiltin("references", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("references", 0, len(args))
		}
		if f.refs != nil {
			return f.refs
		}
		refs, err := symbols.References(f.cache, f.symbolInput())
		if err != nil && !errors.Is(err, queries.ErrMissingQuery) {
			return object.Errorf("references: %v", err)
		}
		results := make([]object.Object, 0, len(refs))
		for _, ref := range refs {
			m := rangeMap(ref.Range)
			m["name"] = object.NewString(ref.Name)
			m["qualifier"] = object.NewString(ref.Qualifier)
			m["qualified"] = object.NewBool(ref.IsQualified)
			m["kind"] = object.NewString(ref.Kind)
			results = append(results, object.NewMap(m))
		}
		f.refs = object.NewList(results)
		return f.refs
	})
}

func rangeMap(r model.CodeRange) map[string]object.Object {
	return map[string]object.Object{
		"line":       object.NewInt(int64(r.StartLine)),
		"column":     object.NewInt(int64(r.StartColumn)),
		"end_line":   object.NewInt(int64(r.EndLine)),
		"end_column": object.NewInt(int64(r.EndColumn)),
	}
}

// --- Map extraction helpers ---

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func getString(m map[string]object.Object, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	if s, ok := v.(*object.String); ok {
		return s.Value()
	}
	return ""
}

func getStringDefault(m map[string]object.Object, key, def string) string {
	v := getString(m, key)
	if v == "" {
		return def
	}
	return v
}

func getInt(m map[string]object.Object, key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	if i, ok := v.(*object.Int); ok {
		return int(i.Value())
	}
	if f, ok := v.(*object.Float); ok {
		return int(f.Value())
	}
	return 0
}
