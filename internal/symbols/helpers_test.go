package symbols

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/model"
	"github.com/jward/treehugger/internal/queries"
)

func parse(t *testing.T, l lang.Language, src string) Input {
	t.Helper()
	tree, err := lang.ParseSource(context.Background(), l, []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return Input{Root: tree.RootNode(), Source: []byte(src), Language: l, File: "test"}
}

func extract(t *testing.T, l lang.Language, src string) []model.SymbolInfo {
	t.Helper()
	syms, err := Extract(queries.Default(), parse(t, l, src))
	require.NoError(t, err)
	return syms
}

func find(t *testing.T, syms []model.SymbolInfo, name string) model.SymbolInfo {
	t.Helper()
	for _, s := range syms {
		if s.Name == name {
			return s
		}
	}
	require.FailNow(t, "symbol not found", name)
	return model.SymbolInfo{}
}

func countNamed(syms []model.SymbolInfo, name string) int {
	n := 0
	for _, s := range syms {
		if s.Name == name {
			n++
		}
	}
	return n
}
