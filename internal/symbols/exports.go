package symbols

import (
	"errors"

	"github.com/jward/treehugger/internal/model"
	"github.com/jward/treehugger/internal/queries"
)

// ExportSet holds the name spans captured by an exports query.
type ExportSet map[span]bool

// Has reports whether sym's name node was captured as exported.
func (s ExportSet) Has(sym model.SymbolInfo) bool {
	return s[span{uint32(sym.Range.StartByte), uint32(sym.Range.EndByte)}]
}

// Exports runs the exports query. A language without one exports nothing.
func Exports(cache *queries.Cache, in Input) (ExportSet, error) {
	q, err := cache.Get(in.Language, queries.Exports)
	if errors.Is(err, queries.ErrMissingQuery) {
		return ExportSet{}, nil
	}
	if err != nil {
		return nil, err
	}

	set := make(ExportSet)
	for _, m := range q.Matches(in.Root, in.Source) {
		if internalLinkage(m, in.Source) {
			continue
		}
		for _, c := range m.Captures {
			if c.Name == "export" {
				set[spanOf(c.Node)] = true
			}
		}
	}
	return set, nil
}

// internalLinkage reports whether a match's export.storage captures
// include static.
func internalLinkage(m queries.Match, src []byte) bool {
	for _, c := range m.Captures {
		if c.Name == "export.storage" && text(c.Node, src) == "static" {
			return true
		}
	}
	return false
}

// Partition splits symbols into exported and local, preserving order.
func Partition(syms []model.SymbolInfo, exported ExportSet) (pub, local []model.SymbolInfo) {
	for _, s := range syms {
		if exported.Has(s) {
			pub = append(pub, s)
		} else {
			local = append(local, s)
		}
	}
	return pub, local
}
