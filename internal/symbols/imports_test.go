package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/model"
	"github.com/jward/treehugger/internal/queries"
)

func importNames(imps []model.ImportSymbol) []string {
	out := make([]string, len(imps))
	for i, imp := range imps {
		out[i] = imp.Name
	}
	return out
}

func TestImportsGo(t *testing.T) {
	t.Parallel()
	in := parse(t, lang.Go, `package p

import (
	"fmt"
	str "strings"
	"github.com/x/y/v2"
	"gopkg.in/yaml.v3"
)
`)
	imps, err := Imports(queries.Default(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"fmt", "str", "y", "yaml"}, importNames(imps))

	assert.Equal(t, "fmt", imps[0].Source)
	assert.Equal(t, "str", imps[1].Alias)
	assert.Equal(t, "strings", imps[1].Source)
	require.NotNil(t, imps[1].StatementRange)
	assert.Equal(t, 5, imps[1].StatementRange.StartLine)
}

func TestImportsPython(t *testing.T) {
	t.Parallel()
	in := parse(t, lang.Python, `import os.path
from typing import List as L, Dict
import numpy as np
`)
	imps, err := Imports(queries.Default(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"os", "L", "Dict", "np"}, importNames(imps))

	assert.Equal(t, "os.path", imps[0].Source)
	assert.Equal(t, "List", imps[1].Original)
	assert.Equal(t, "typing", imps[1].Source)
	assert.Equal(t, "typing", imps[2].Source)
	assert.Equal(t, "numpy", imps[3].Original)
	assert.Equal(t, "np", imps[3].Alias)
}

func TestImportsJavaScript(t *testing.T) {
	t.Parallel()
	in := parse(t, lang.JavaScript, `import fs from "fs";
import { readFile, writeFile as wf } from "fs/promises";
import * as path from "path";
`)
	imps, err := Imports(queries.Default(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"fs", "readFile", "wf", "path"}, importNames(imps))
	assert.Equal(t, "fs/promises", imps[1].Source)
	assert.Equal(t, "writeFile", imps[2].Original)
	assert.Equal(t, "path", imps[3].Source)
}

func TestImportsRust(t *testing.T) {
	t.Parallel()
	in := parse(t, lang.Rust, `use std::collections::HashMap;
use std::io::Read as R;
use serde;
`)
	imps, err := Imports(queries.Default(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"HashMap", "R", "serde"}, importNames(imps))
	assert.Equal(t, "std::collections", imps[0].Source)
	assert.Equal(t, "Read", imps[1].Original)
}

func TestImportsRustUseList(t *testing.T) {
	t.Parallel()
	in := parse(t, lang.Rust, `use std::io::{Read as R, Write, fmt::Display};
use a::{b::{C as D, F}};
`)
	imps, err := Imports(queries.Default(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"R", "Write", "Display", "D", "F"}, importNames(imps))
	assert.Equal(t, "Read", imps[0].Original)
	assert.Equal(t, "C", imps[3].Original)
}

func TestImportsCBindNothing(t *testing.T) {
	t.Parallel()
	in := parse(t, lang.C, "#include <stdio.h>\n#include \"local.h\"\n")
	imps, err := Imports(queries.Default(), in)
	require.NoError(t, err)
	require.Len(t, imps, 2)
	assert.Empty(t, imps[0].Name)
	assert.Equal(t, "stdio.h", imps[0].Source)
	assert.Equal(t, "local.h", imps[1].Source)
}

func TestImportsMissingQuery(t *testing.T) {
	t.Parallel()
	in := parse(t, lang.Lua, "local x = 1\n")
	_, err := Imports(queries.Default(), in)
	assert.ErrorIs(t, err, queries.ErrMissingQuery)
}

func TestPackageName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "http", packageName("net/http"))
	assert.Equal(t, "y", packageName("github.com/x/y/v2"))
	assert.Equal(t, "yaml", packageName("gopkg.in/yaml.v3"))
	assert.Equal(t, "sqlite3", packageName("github.com/mattn/go-sqlite3"))
}

func TestExportsAndPartition(t *testing.T) {
	t.Parallel()
	in := parse(t, lang.Go, goShapes)
	syms, err := Extract(queries.Default(), in)
	require.NoError(t, err)
	exported, err := Exports(queries.Default(), in)
	require.NoError(t, err)

	pub, local := Partition(syms, exported)
	pubNames := map[string]bool{}
	for _, s := range pub {
		pubNames[s.Name] = true
	}
	assert.True(t, pubNames["Shape"])
	assert.True(t, pubNames["Rect"])
	assert.True(t, pubNames["NewRect"])
	assert.True(t, pubNames["Area"])
	assert.True(t, pubNames["W"])
	assert.False(t, pubNames["maxSides"])
	assert.False(t, pubNames["label"])
	assert.Len(t, pub, len(syms)-len(local))
}

func TestExportsJavaScript(t *testing.T) {
	t.Parallel()
	in := parse(t, lang.JavaScript, "export function add() {}\nfunction hidden() {}\nexport const k = 1;\n")
	syms, err := Extract(queries.Default(), in)
	require.NoError(t, err)
	exported, err := Exports(queries.Default(), in)
	require.NoError(t, err)

	pub, _ := Partition(syms, exported)
	var names []string
	for _, s := range pub {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"add", "k"}, names)
}

func TestExportsCStaticLinkage(t *testing.T) {
	t.Parallel()
	for _, l := range []lang.Language{lang.C, lang.Cpp} {
		t.Run(string(l), func(t *testing.T) {
			in := parse(t, l, `static int hidden(void) { return 0; }
static inline int *ptr(void) { return 0; }
int visible(void) { return hidden(); }
extern int shared(void) { return 1; }
`)
			syms, err := Extract(queries.Default(), in)
			require.NoError(t, err)
			exported, err := Exports(queries.Default(), in)
			require.NoError(t, err)

			pub, _ := Partition(syms, exported)
			var names []string
			for _, s := range pub {
				names = append(names, s.Name)
			}
			assert.ElementsMatch(t, []string{"visible", "shared"}, names)
		})
	}
}

func TestExportsMissingQueryExportsNothing(t *testing.T) {
	t.Parallel()
	in := parse(t, lang.Lua, "function f() end\n")
	exported, err := Exports(queries.Default(), in)
	require.NoError(t, err)
	assert.Empty(t, exported)
}
