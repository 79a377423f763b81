// Package symbols turns query captures into definitions, imports, exports
// and references.
package symbols

import (
	"log/slog"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/model"
	"github.com/jward/treehugger/internal/queries"
)

// Input is one parsed file.
type Input struct {
	Root     *sitter.Node
	Source   []byte
	Language lang.Language
	File     string
	Logger   *slog.Logger
}

func (in Input) logger() *slog.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return slog.Default()
}

const (
	definitionPrefix = "definition."
	localPrefix      = "local."
	contextSuffix    = ".context"
)

type definition struct {
	sym     model.SymbolInfo
	pattern int
}

// Extract returns every definition captured by the locals query, in source
// order. A name node captured by several patterns yields one symbol, built
// from the pattern that appears last in the query.
func Extract(cache *queries.Cache, in Input) ([]model.SymbolInfo, error) {
	q, err := cache.Get(in.Language, queries.Locals)
	if err != nil {
		return nil, err
	}

	var defs []definition
	seen := make(map[span]int)
	for _, m := range q.Matches(in.Root, in.Source) {
		name, ctx, suffix := definitionCaptures(m)
		if name == nil {
			continue
		}
		if text(name, in.Source) == "" {
			in.logger().Debug("skipping definition with empty name",
				"file", in.File, "line", name.StartPoint().Row+1)
			continue
		}

		key := spanOf(name)
		if idx, ok := seen[key]; ok {
			if m.PatternIndex > defs[idx].pattern {
				defs[idx] = definition{sym: buildSymbol(in, name, ctx, suffix), pattern: m.PatternIndex}
			}
			continue
		}
		seen[key] = len(defs)
		defs = append(defs, definition{sym: buildSymbol(in, name, ctx, suffix), pattern: m.PatternIndex})
	}

	out := make([]model.SymbolInfo, len(defs))
	for i, d := range defs {
		out[i] = d.sym
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Range.StartByte != out[j].Range.StartByte {
			return out[i].Range.StartByte < out[j].Range.StartByte
		}
		return out[i].Range.EndByte < out[j].Range.EndByte
	})
	return out, nil
}

func definitionCaptures(m queries.Match) (name, ctx *sitter.Node, suffix string) {
	for _, c := range m.Captures {
		capName := strings.TrimPrefix(c.Name, localPrefix)
		rest, ok := strings.CutPrefix(capName, definitionPrefix)
		if !ok {
			continue
		}
		if strings.HasSuffix(rest, contextSuffix) {
			ctx = c.Node
			continue
		}
		if name == nil {
			name, suffix = c.Node, rest
		}
	}
	return name, ctx, suffix
}

func buildSymbol(in Input, name, ctx *sitter.Node, suffix string) model.SymbolInfo {
	kind := KindForSuffix(suffix)
	sym := model.SymbolInfo{
		Name:     text(name, in.Source),
		Kind:     kind,
		Range:    model.RangeOf(name),
		Language: in.Language,
		File:     in.File,
	}

	anchor := ctx
	if ctx != nil {
		r := model.RangeOf(ctx)
		sym.DefinitionRange = &r
	} else {
		anchor = name.Parent()
	}

	if kind != model.KindParameter && anchor != nil {
		sym.Doc = docComment(anchor, in.Source, in.Language)
	}

	mods := modifiersOf(anchor, in.Source)
	sym.Visibility = visibilityFor(mods, in.Language, sym.Name)

	switch {
	case kind.IsCallable() && ctx != nil:
		sym.Signature = signatureOf(ctx, in.Source, in.Language)
		sym.Signature.Visibility = sym.Visibility
		sym.Signature.IsStatic = mods.static || isPythonStatic(ctx, in.Source)
	case kind.IsTypeLike() && ctx != nil:
		sym.Type = typeMetadataOf(ctx, kind, in.Source, in.Language)
	}
	return sym
}
