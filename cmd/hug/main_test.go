package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serverSource = `package server

import "fmt"

type Point struct {
	X int
	Y int
}

func Add(a, b int) int {
	return a + b
}

func (p Point) String() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

func helper() {}
`

const greeterSource = `class Greeter:
    greeting: str = "hi"

    def greet(self, name):
        return self.greeting + name

    @staticmethod
    def build():
        return Greeter()
`

// resetFlags restores every flag to its default between runs of the
// shared command tree.
func resetFlags() {
	flagLanguage, flagIgnore, flagJSON, flagPlain = "", nil, false, false
	flagConfig, flagScripts, flagNoBundled, flagVerbose = "", "", false, false
	flagClassName, flagStaticOnly, flagInstanceOnly = "", false, false
	flagLintOnly, flagSyntaxOnly = false, false
	flagDB, flagForce, flagWorkers, flagWatch = "", false, 0, false

	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		unset := func(f *pflag.Flag) { f.Changed = false }
		c.Flags().VisitAll(unset)
		c.PersistentFlags().VisitAll(unset)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

// runHug runs hug in dir and returns its stdout and stderr.
func runHug(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(dir)
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	t.Setenv("TREEHUGGER_CONFIG", "")
	resetFlags()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return dir
}

func TestFunctions(t *testing.T) {
	dir := writeFiles(t, map[string]string{"server.go": serverSource})

	out, _, err := runHug(t, dir, "functions", "--plain", "--no-bundled-rules")
	require.NoError(t, err)
	assert.Contains(t, out, "server.go (go)")
	assert.Contains(t, out, "function Add(")
	assert.Contains(t, out, "[10:5]")
	assert.Contains(t, out, "method String(")
	assert.NotContains(t, out, "type Point")
}

func TestTypes(t *testing.T) {
	dir := writeFiles(t, map[string]string{"server.go": serverSource})

	out, _, err := runHug(t, dir, "types", "--plain", "--no-bundled-rules")
	require.NoError(t, err)
	assert.Contains(t, out, "type Point")
	assert.NotContains(t, out, "function Add")
}

func TestSymbols_JSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{"server.go": serverSource})

	out, _, err := runHug(t, dir, "symbols", "--json", "--no-bundled-rules")
	require.NoError(t, err)

	var got PackageSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Files, 1)
	f := got.Files[0]
	assert.Equal(t, filepath.Join(dir, "server.go"), f.File)
	assert.Len(t, f.Hash, 16)

	var exports, locals []string
	for _, s := range f.Exports {
		exports = append(exports, s.Name)
	}
	for _, s := range f.Locals {
		locals = append(locals, s.Name)
	}
	assert.Contains(t, exports, "Add")
	assert.Contains(t, exports, "Point")
	assert.Contains(t, locals, "helper")
	assert.NotContains(t, exports, "helper")
	require.Len(t, f.Imports, 1)
	assert.Equal(t, "fmt", f.Imports[0].Source)
}

func TestExports(t *testing.T) {
	dir := writeFiles(t, map[string]string{"server.go": serverSource})

	out, _, err := runHug(t, dir, "exports", "--plain", "--no-bundled-rules")
	require.NoError(t, err)
	assert.Contains(t, out, "Add")
	assert.NotContains(t, out, "helper")
}

func TestImports(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"server.go": serverSource,
		"empty.go":  "package server\n",
	})

	out, _, err := runHug(t, dir, "imports", "--plain", "--no-bundled-rules")
	require.NoError(t, err)
	assert.Contains(t, out, "  - fmt [3:")
	assert.Contains(t, out, "(no imports)")
}

func TestGlobsAndIgnore(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"server.go":         serverSource,
		"gen/generated.go":  "package gen\n\nfunc Generated() {}\n",
		"scripts/tool.py":   "def tool():\n    pass\n",
		"node_modules/x.js": "function x() {}\n",
	})

	out, _, err := runHug(t, dir, "functions", "--plain", "--no-bundled-rules", "--ignore", "gen/**")
	require.NoError(t, err)
	assert.Contains(t, out, "server.go (go)")
	assert.Contains(t, out, "tool.py (python)")
	assert.NotContains(t, out, "generated.go")
	assert.NotContains(t, out, "x.js")

	out, _, err = runHug(t, dir, "functions", "--plain", "--no-bundled-rules", "*.py")
	require.NoError(t, err)
	assert.Contains(t, out, "tool.py (python)")
	assert.NotContains(t, out, "server.go")

	out, _, err = runHug(t, dir, "functions", "--plain", "--no-bundled-rules", "--language", "python")
	require.NoError(t, err)
	assert.NotContains(t, out, "server.go")
}

func TestNoSourceFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{"README.md": "# hi\n"})

	_, _, err := runHug(t, dir, "symbols")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no source files found")
}

func TestUnknownLanguage(t *testing.T) {
	dir := writeFiles(t, map[string]string{"server.go": serverSource})

	_, _, err := runHug(t, dir, "symbols", "--language", "cobol")
	require.Error(t, err)
}

func TestClasses(t *testing.T) {
	dir := writeFiles(t, map[string]string{"greeter.py": greeterSource})

	out, _, err := runHug(t, dir, "classes", "--plain", "--no-bundled-rules")
	require.NoError(t, err)
	assert.Contains(t, out, "class Greeter")
	assert.Contains(t, out, "static methods:")
	assert.Contains(t, out, "instance methods:")
	assert.Contains(t, out, "instance fields:")

	out, _, err = runHug(t, dir, "classes", "--json", "--no-bundled-rules", "--static-only")
	require.NoError(t, err)
	var got []FileClasses
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	require.Len(t, got[0].Classes, 1)
	c := got[0].Classes[0]
	assert.Equal(t, "Greeter", c.Class.Name)
	require.Len(t, c.StaticMethods, 1)
	assert.Equal(t, "build", c.StaticMethods[0].Name)
	assert.Empty(t, c.InstanceMethods)
	assert.Empty(t, c.InstanceFields)

	out, _, err = runHug(t, dir, "classes", "--json", "--no-bundled-rules", "--name", "Missing")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	_, _, err = runHug(t, dir, "classes", "--static-only", "--instance-only")
	require.Error(t, err)
}

func TestLint_ErrorExitsNonZero(t *testing.T) {
	dir := writeFiles(t, map[string]string{"lib.rs": "fn foo() { bar(); }\n"})

	out, _, err := runHug(t, dir, "lint", "--plain", "--no-bundled-rules")
	require.ErrorIs(t, err, errFindings)
	assert.Contains(t, out, "[semantic] error [undefined-symbol]")
	assert.Contains(t, out, "--> lib.rs:1:11")
	assert.Contains(t, out, "fn foo() { bar(); }")
	assert.Contains(t, out, "^^^")
}

func TestLint_SyntaxOnly(t *testing.T) {
	dir := writeFiles(t, map[string]string{"lib.rs": "fn foo() { bar(); }\n"})

	out, _, err := runHug(t, dir, "lint", "--plain", "--no-bundled-rules", "--syntax-only")
	require.NoError(t, err)
	assert.Contains(t, out, "(no syntax diagnostics)")

	_, _, err = runHug(t, dir, "lint", "--lint-only", "--syntax-only")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errFindings)
}

func TestLint_SyntaxError(t *testing.T) {
	dir := writeFiles(t, map[string]string{"broken.go": "package p\n\nfunc f( {\n"})

	out, _, err := runHug(t, dir, "lint", "--json", "--no-bundled-rules", "--syntax-only")
	require.ErrorIs(t, err, errFindings)

	var got PackageSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Files, 1)
	assert.NotEmpty(t, got.Files[0].Syntax)
	assert.Empty(t, got.Files[0].Lint)
}

func TestLint_BundledRules(t *testing.T) {
	dir := writeFiles(t, map[string]string{"todo.py": "# TODO: remove\nx = 1\nprint(x)\n"})

	out, _, err := runHug(t, dir, "lint", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "[lint] info [todo-comment]")

	out, _, err = runHug(t, dir, "lint", "--plain", "--no-bundled-rules")
	require.NoError(t, err)
	assert.NotContains(t, out, "todo-comment")
}

func TestLint_ScriptsFlag(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"server.go":          serverSource,
		"rules/no-add.risor": "report({\"line\": 10, \"message\": \"no Add\", \"severity\": \"error\"})\n",
	})

	out, _, err := runHug(t, dir, "lint", "--plain", "--scripts", filepath.Join(dir, "rules"), "*.go")
	require.ErrorIs(t, err, errFindings)
	assert.Contains(t, out, "[lint] error [no-add]: no Add")
}

func TestLint_ConfigFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"lib.rs": "fn foo() { bar(); }\n",
		".treehugger.toml": `[rules]
disabled = ["unused-symbol"]

[rules.severity]
undefined-symbol = "warning"
`,
	})

	out, _, err := runHug(t, dir, "lint", "--plain", "--no-bundled-rules")
	require.NoError(t, err)
	assert.Contains(t, out, "[semantic] warning [undefined-symbol]")
	assert.NotContains(t, out, "unused-symbol")
}

func TestLint_ConfigFlag(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"lib.rs":        "fn foo() { bar(); }\n",
		"conf/hug.toml": "[rules]\ndisabled = [\"undefined-symbol\"]\n",
	})

	_, _, err := runHug(t, dir, "lint", "--plain", "--no-bundled-rules", "--config", filepath.Join(dir, "conf", "hug.toml"))
	require.NoError(t, err)

	_, _, err = runHug(t, dir, "lint", "--config", filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}

func TestCheck(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"lib.rs":   "fn foo() { bar(); }\n",
		"clean.go": "package p\n\nfunc Clean() {}\n",
	})
	db := filepath.Join(t.TempDir(), "cache.db")

	out, stderr, err := runHug(t, dir, "check", "--json", "--no-bundled-rules", "--db", db)
	require.ErrorIs(t, err, errFindings)
	assert.Contains(t, stderr, "2 analyzed")

	var got CheckResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Analyzed)
	assert.Empty(t, got.Failed)
	var rules []string
	for _, d := range got.Diagnostics {
		assert.Equal(t, filepath.Join(dir, "lib.rs"), d.Path)
		rules = append(rules, d.Diagnostic.Rule)
	}
	assert.Contains(t, rules, "undefined-symbol")

	out, stderr, err = runHug(t, dir, "check", "--plain", "--no-bundled-rules", "--db", db)
	require.ErrorIs(t, err, errFindings)
	assert.Contains(t, stderr, "0 analyzed, 2 unchanged")
	assert.Contains(t, out, "lib.rs\n")
	assert.Contains(t, out, "[semantic] error [undefined-symbol]")

	_, stderr, err = runHug(t, dir, "check", "--plain", "--no-bundled-rules", "--db", db, "--force")
	require.ErrorIs(t, err, errFindings)
	assert.Contains(t, stderr, "2 analyzed")
}

func TestCheck_CleanDirectory(t *testing.T) {
	dir := writeFiles(t, map[string]string{"clean.go": "package p\n\nfunc Clean() {}\n"})

	out, _, err := runHug(t, dir, "check", "--plain", "--no-bundled-rules")
	require.NoError(t, err)
	assert.Contains(t, out, "(no diagnostics)")
	assert.FileExists(t, filepath.Join(dir, ".treehugger", "cache.db"))
}

func TestCheck_NotADirectory(t *testing.T) {
	dir := writeFiles(t, map[string]string{"clean.go": "package p\n"})

	_, _, err := runHug(t, dir, "check", filepath.Join(dir, "clean.go"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestDisplayPath(t *testing.T) {
	t.Parallel()
	root := filepath.Join(string(filepath.Separator), "repo")
	assert.Equal(t, filepath.Join("src", "a.go"), displayPath(root, filepath.Join(root, "src", "a.go")))
	outside := filepath.Join(string(filepath.Separator), "elsewhere", "b.go")
	assert.Equal(t, outside, displayPath(root, outside))
}

func TestMatchAny(t *testing.T) {
	t.Parallel()
	tests := []struct {
		glob string
		rel  string
		want bool
	}{
		{"*.go", "a.go", true},
		{"*.go", "pkg/deep/a.go", true},
		{"pkg/*.go", "pkg/a.go", true},
		{"pkg/*.go", "pkg/deep/a.go", false},
		{"pkg/**", "pkg/deep/a.go", true},
		{"*.py", "a.go", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchAny([]string{tt.glob}, tt.rel), "%s vs %s", tt.glob, tt.rel)
	}
	assert.False(t, matchAny(nil, "a.go"))
}
