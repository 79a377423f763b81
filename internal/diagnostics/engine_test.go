package diagnostics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/model"
	"github.com/jward/treehugger/internal/queries"
)

func input(t *testing.T, l lang.Language, src string) Input {
	t.Helper()
	tree, err := lang.ParseSource(context.Background(), l, []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return Input{Root: tree.RootNode(), Source: []byte(src), Language: l, Path: "test"}
}

func withRule(diags []model.Diagnostic, rule string) []model.Diagnostic {
	var out []model.Diagnostic
	for _, d := range diags {
		if d.Rule == rule {
			out = append(out, d)
		}
	}
	return out
}

func semantic(t *testing.T, l lang.Language, src string, opts ...Option) []model.Diagnostic {
	t.Helper()
	report, err := New(opts...).Semantic(input(t, l, src))
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)
	return report.Diagnostics
}

func TestUndefinedCallScenario(t *testing.T) {
	t.Parallel()
	diags := semantic(t, lang.Rust, "fn foo() { bar(); }\n")

	undefined := withRule(diags, RuleUndefinedSymbol)
	require.Len(t, undefined, 1)
	assert.Equal(t, model.SeverityError, undefined[0].Severity)
	assert.Equal(t, model.DiagnosticSemantic, undefined[0].Kind)
	assert.Equal(t, 1, undefined[0].Range.StartLine)
	assert.Equal(t, 11, undefined[0].Range.StartColumn)
	assert.Equal(t, 14, undefined[0].Range.EndColumn)
	assert.Contains(t, undefined[0].Message, "'bar'")

	unused := withRule(diags, RuleUnusedSymbol)
	require.Len(t, unused, 1)
	assert.Contains(t, unused[0].Message, "'foo'")

	diags = semantic(t, lang.Rust, "fn foo() { bar(); }\n\nfn main() { foo(); }\n")
	assert.Len(t, withRule(diags, RuleUndefinedSymbol), 1)
	assert.Empty(t, withRule(diags, RuleUnusedSymbol))
}

func TestFileLevelUnusedImportSuppression(t *testing.T) {
	t.Parallel()
	diags := semantic(t, lang.JavaScript, "import { foo } from \"bar\";\n")
	require.Len(t, withRule(diags, RuleUnusedImport), 1)

	for _, src := range []string{
		"// tree-hugger-ignore-file: unused-import\nimport { foo } from \"bar\";\n",
		"import { foo } from \"bar\";\n\n\n// tree-hugger-ignore-file: unused-import\n",
	} {
		diags := semantic(t, lang.JavaScript, src)
		assert.Empty(t, withRule(diags, RuleUnusedImport), src)
	}
}

func TestBuiltinsAreNeverUndefined(t *testing.T) {
	t.Parallel()
	diags := semantic(t, lang.Python, "print(len([]), isinstance(1, int))\n")
	assert.Empty(t, withRule(diags, RuleUndefinedSymbol))

	diags = semantic(t, lang.JavaScript, "console.log(missing);\n")
	undefined := withRule(diags, RuleUndefinedSymbol)
	require.Len(t, undefined, 1)
	assert.Contains(t, undefined[0].Message, "'missing'")
}

func TestUnusedSymbol(t *testing.T) {
	t.Parallel()
	diags := semantic(t, lang.Go, `package p

func Run() int {
	x := 1
	return 2
}
`)
	require.Len(t, diags, 1)
	assert.Equal(t, RuleUnusedSymbol, diags[0].Rule)
	assert.Equal(t, model.SeverityWarning, diags[0].Severity)
	assert.Equal(t, 4, diags[0].Range.StartLine)

	diags = semantic(t, lang.Go, `package p

func Run() int {
	x := 1
	return x
}
`)
	assert.Empty(t, diags)
}

func TestUnusedSkipsConventionalNames(t *testing.T) {
	t.Parallel()
	diags := semantic(t, lang.Python, `def _private():
    pass

class Thing:
    def method(self, unused_param):
        pass
`)
	assert.Empty(t, withRule(diags, RuleUnusedSymbol))
}

func TestUnusedPrivateMethod(t *testing.T) {
	t.Parallel()
	diags := semantic(t, lang.Java, `public class Box {
    private int helper() { return 1; }
    private int used() { return 2; }
    public int size() { return used(); }
    int pkg() { return 3; }
}
`)
	unused := withRule(diags, RuleUnusedSymbol)
	require.Len(t, unused, 1)
	assert.Contains(t, unused[0].Message, "'helper'")
	assert.Equal(t, 2, unused[0].Range.StartLine)
}

func TestUnusedRustImplMethodsAreReachable(t *testing.T) {
	t.Parallel()
	diags := semantic(t, lang.Rust, `pub struct Meter(u32);

impl std::fmt::Display for Meter {
    fn fmt(&self, f: &mut std::fmt::Formatter) -> std::fmt::Result {
        Ok(())
    }
}
`)
	assert.Empty(t, withRule(diags, RuleUnusedSymbol))
}

func TestUnusedStaticFunction(t *testing.T) {
	t.Parallel()
	diags := semantic(t, lang.C, `static int hidden(void) { return 0; }

int visible(void) { return 1; }
`)
	unused := withRule(diags, RuleUnusedSymbol)
	require.Len(t, unused, 1)
	assert.Contains(t, unused[0].Message, "'hidden'")
}

func TestRustUseListNamesAreDefined(t *testing.T) {
	t.Parallel()
	diags := semantic(t, lang.Rust, `use std::io::{Read as R, Write};

pub fn copy(src: &mut dyn R, dst: &mut dyn Write) -> usize {
    0
}
`)
	assert.Empty(t, withRule(diags, RuleUndefinedSymbol))
	assert.Empty(t, withRule(diags, RuleUnusedImport))
}

func TestLuaScopes(t *testing.T) {
	t.Parallel()
	diags := semantic(t, lang.Lua, `local function helper(a, ...)
  for i = 1, a do print(i) end
  return a
end

print(helper(1))
`)
	assert.Empty(t, withRule(diags, RuleUndefinedSymbol))
	assert.Empty(t, withRule(diags, RuleUnusedSymbol))

	diags = semantic(t, lang.Lua, "local function f()\n  error(\"boom\")\n  print(missing)\nend\n\nf()\n")
	undefined := withRule(diags, RuleUndefinedSymbol)
	require.Len(t, undefined, 1)
	assert.Contains(t, undefined[0].Message, "'missing'")
	dead := withRule(diags, RuleDeadCode)
	require.Len(t, dead, 1)
	assert.Equal(t, 3, dead[0].Range.StartLine)
}

func TestUnusedImport(t *testing.T) {
	t.Parallel()
	diags := semantic(t, lang.Python, `import os
import sys as system
from typing import List

def main() -> List[int]:
    return os.getpid()
`)
	unused := withRule(diags, RuleUnusedImport)
	require.Len(t, unused, 1)
	assert.Contains(t, unused[0].Message, "'system'")
	assert.Equal(t, 2, unused[0].Range.StartLine)
	assert.Empty(t, withRule(diags, RuleUndefinedSymbol))
}

func TestUndefinedModule(t *testing.T) {
	t.Parallel()
	diags := semantic(t, lang.Rust, `fn main() {
    unknown_module::call();
    std::io::stdin();
    Self::x();
}
`)
	require.Len(t, diags, 1)
	assert.Equal(t, RuleUndefinedModule, diags[0].Rule)
	assert.Equal(t, model.SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "'unknown_module'")
	assert.Equal(t, 2, diags[0].Range.StartLine)

	diags = semantic(t, lang.Rust, `mod util {
    pub fn f() {}
}

fn main() {
    util::f();
}
`)
	assert.Empty(t, diags)
}

func TestUndefinedSuggestsClosestName(t *testing.T) {
	t.Parallel()
	diags := semantic(t, lang.Go, `package p

func Compute() int {
	total := 1
	return totl
}
`)
	undefined := withRule(diags, RuleUndefinedSymbol)
	require.Len(t, undefined, 1)
	assert.Equal(t, "Reference to undefined symbol 'totl', did you mean 'total'?", undefined[0].Message)
}

func TestSuggest(t *testing.T) {
	t.Parallel()
	names := []string{"count", "handler", "total"}
	assert.Equal(t, "handler", suggest("handlr", names))
	assert.Equal(t, "", suggest("zzz", names))
	assert.Equal(t, "", suggest("count", []string{"count"}))
}

func TestDeadCodeDiagnostic(t *testing.T) {
	t.Parallel()
	diags := semantic(t, lang.Go, `package p

func Run() int {
	return 1
	Run()
}
`)
	dead := withRule(diags, RuleDeadCode)
	require.Len(t, dead, 1)
	assert.Equal(t, 5, dead[0].Range.StartLine)
	assert.Equal(t, "Unreachable code after unconditional exit", dead[0].Message)
}

func TestIgnoreRoundTrip(t *testing.T) {
	t.Parallel()
	src := func(rule string) string {
		return "package p\n\nfunc Run() {\n\t// tree-hugger-ignore: " + rule + "\n\tmissing()\n}\n"
	}
	assert.Empty(t, withRule(semantic(t, lang.Go, src(RuleUndefinedSymbol)), RuleUndefinedSymbol))
	assert.Len(t, withRule(semantic(t, lang.Go, src(RuleUnusedSymbol)), RuleUndefinedSymbol), 1)
}

func TestSourceContextAttached(t *testing.T) {
	t.Parallel()
	diags := semantic(t, lang.Go, "package p\n\nfunc Run() {\n\tmissing()\n}\n")
	require.Len(t, diags, 1)
	require.NotNil(t, diags[0].Context)
	assert.Equal(t, 4, diags[0].Context.LineNumber)
	assert.Equal(t, "\tmissing()", diags[0].Context.LineText)
}

func TestRulesConfig(t *testing.T) {
	t.Parallel()
	src := "fn foo() { bar(); }\n"
	diags := semantic(t, lang.Rust, src, WithRules(Rules{
		Disabled: map[string]bool{RuleUnusedSymbol: true},
		Severity: map[string]model.Severity{RuleUndefinedSymbol: model.SeverityInfo},
	}))
	require.Len(t, diags, 1)
	assert.Equal(t, RuleUndefinedSymbol, diags[0].Rule)
	assert.Equal(t, model.SeverityInfo, diags[0].Severity)
}

func TestLint(t *testing.T) {
	t.Parallel()
	report, err := New().Lint(context.Background(), input(t, lang.Rust, "fn main() {\n    let x = Some(1).unwrap();\n}\n"))
	require.NoError(t, err)
	require.Len(t, report.Diagnostics, 1)
	d := report.Diagnostics[0]
	assert.Equal(t, model.DiagnosticLint, d.Kind)
	assert.Equal(t, "unwrap-call", d.Rule)
	assert.Equal(t, model.SeverityWarning, d.Severity)
	assert.Equal(t, "Explicit unwrap() call", d.Message)
	assert.Equal(t, 2, d.Range.StartLine)

	report, err = New().Lint(context.Background(), input(t, lang.JavaScript, "if (a == b) {}\n"))
	require.NoError(t, err)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, "loose-equality", report.Diagnostics[0].Rule)
	assert.Equal(t, model.SeverityInfo, report.Diagnostics[0].Severity)
}

func TestLintIgnored(t *testing.T) {
	t.Parallel()
	report, err := New().Lint(context.Background(), input(t, lang.Rust, `fn main() {
    // tree-hugger-ignore: unwrap-call
    let x = Some(1).unwrap();
    let y = Some(2).unwrap();
}
`))
	require.NoError(t, err)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, 4, report.Diagnostics[0].Range.StartLine)
}

func TestMessageFallback(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "pattern matched: custom-rule", Message("custom-rule"))
	assert.Equal(t, model.SeverityWarning, DefaultSeverity("custom-rule"))
	assert.Equal(t, model.SeverityError, DefaultSeverity(RuleUndefinedSymbol))
}

func TestSyntax(t *testing.T) {
	t.Parallel()
	report, err := New().Syntax(input(t, lang.Go, "package p\n\nfunc f( {\n"))
	require.NoError(t, err)
	require.NotEmpty(t, report.Diagnostics)
	for _, d := range report.Diagnostics {
		assert.Equal(t, model.DiagnosticSyntax, d.Kind)
		assert.Equal(t, model.SeverityError, d.Severity)
		assert.Empty(t, d.Rule)
		assert.Contains(t, d.Message, "Syntax error")
	}

	report, err = New().Syntax(input(t, lang.Go, "package p\n"))
	require.NoError(t, err)
	assert.Empty(t, report.Diagnostics)
}

func TestTruncateKeepsRunes(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("é", maxSnippet+5)
	got := truncate(long, maxSnippet)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", maxSnippet)+"...", got)
	assert.Equal(t, "short", truncate("short", maxSnippet))
}

func TestSyntaxIsNeverSuppressed(t *testing.T) {
	t.Parallel()
	report, err := New().All(context.Background(), input(t, lang.Go, "// tree-hugger-ignore-file\npackage p\n\nfunc f( {\n"))
	require.NoError(t, err)
	require.NotEmpty(t, report.Diagnostics)
	for _, d := range report.Diagnostics {
		assert.Equal(t, model.DiagnosticSyntax, d.Kind)
	}
	assert.True(t, report.HasErrors())
}

func TestAllOrdersByPosition(t *testing.T) {
	t.Parallel()
	report, err := New().All(context.Background(), input(t, lang.Rust, `fn main() {
    let x = Some(1).unwrap();
    return;
    missing();
}
`))
	require.NoError(t, err)
	var rules []string
	for _, d := range report.Diagnostics {
		rules = append(rules, d.Rule)
	}
	assert.Equal(t, []string{RuleUnusedSymbol, "unwrap-call", RuleDeadCode, RuleUndefinedSymbol}, rules)
	assert.True(t, report.HasErrors())
}

func TestMissingQueriesDegrade(t *testing.T) {
	t.Parallel()
	cache := queries.NewCache(queries.WithSource(fstest.MapFS{
		"go/locals.scm": {Data: []byte("(function_declaration name: (identifier) @definition.function)\n")},
	}))
	e := New(WithCache(cache))
	in := input(t, lang.Go, "package p\n\nfunc Run() {\n\treturn\n\tmissing()\n}\n")

	lint, err := e.Lint(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, lint.Diagnostics)
	require.Len(t, lint.Warnings, 1)
	assert.ErrorIs(t, lint.Warnings[0], queries.ErrMissingQuery)

	sem, err := e.Semantic(in)
	require.NoError(t, err)
	require.Len(t, sem.Warnings, 1)
	var missing *queries.MissingQueryError
	require.ErrorAs(t, sem.Warnings[0], &missing)
	assert.Equal(t, queries.References, missing.Kind)
	require.Len(t, sem.Diagnostics, 1)
	assert.Equal(t, RuleDeadCode, sem.Diagnostics[0].Rule)
}

func TestConfigurationErrorsAreReturned(t *testing.T) {
	t.Parallel()
	cache := queries.NewCache(queries.WithSource(fstest.MapFS{
		"go/locals.scm": {Data: []byte("(no_such_node) @definition.function\n")},
	}))
	_, err := New(WithCache(cache)).Semantic(input(t, lang.Go, "package p\n"))
	var qe *queries.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, queries.Locals, qe.Kind)

	_, err = New(WithCache(cache)).All(context.Background(), input(t, lang.Go, "package p\n"))
	assert.Error(t, err)
}

type fakeScripts struct {
	diags []model.Diagnostic
	err   error
}

func (f fakeScripts) Run(context.Context, Input) ([]model.Diagnostic, error) {
	return f.diags, f.err
}

func TestScriptsFeedLint(t *testing.T) {
	t.Parallel()
	scripts := fakeScripts{
		diags: []model.Diagnostic{
			{Severity: model.SeverityError, Message: "no foo", Range: model.CodeRange{StartLine: 1, EndLine: 1}},
			{Rule: "custom", Severity: model.SeverityInfo, Range: model.CodeRange{StartLine: 1, EndLine: 1}},
		},
		err: errors.New("second script failed"),
	}
	report, err := New(WithScripts(scripts)).Lint(context.Background(), input(t, lang.Go, "package p\n"))
	require.NoError(t, err)
	require.Len(t, report.Diagnostics, 2)
	assert.Equal(t, "custom", report.Diagnostics[0].Rule)
	assert.Equal(t, "pattern matched: custom", report.Diagnostics[0].Message)
	assert.Equal(t, "script", report.Diagnostics[1].Rule)
	for _, d := range report.Diagnostics {
		assert.Equal(t, model.DiagnosticLint, d.Kind)
	}
	require.Len(t, report.Warnings, 1)
	assert.EqualError(t, report.Warnings[0], "second script failed")
}
