package diagnostics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/jward/treehugger/internal/builtins"
	"github.com/jward/treehugger/internal/deadcode"
	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/model"
	"github.com/jward/treehugger/internal/queries"
	"github.com/jward/treehugger/internal/symbols"
)

// nonBinding are reference kinds that name a member, a command or a label
// rather than something bound in the file's scope.
var nonBinding = map[string]bool{
	"field":     true,
	"property":  true,
	"command":   true,
	"lifetime":  true,
	"attribute": true,
	"label":     true,
	"key":       true,
}

// neverUnused are kinds that are routinely declared without a reference in
// the same file. Methods are handled by methodReachable.
var neverUnused = map[model.SymbolKind]bool{
	model.KindParameter: true,
	model.KindField:     true,
	model.KindModule:    true,
	model.KindNamespace: true,
}

// methodReachable reports whether a method may be called from outside the
// file. Rust trait impl methods carry no pub yet are reached through the
// trait.
func methodReachable(l lang.Language, s model.SymbolInfo) bool {
	return s.Visibility != model.VisibilityPrivate || l == lang.Rust
}

var moduleExempt = map[string]bool{
	"self": true, "Self": true, "super": true, "crate": true, "this": true,
}

// scope is what a file defines, imports and references.
type scope struct {
	syms    []model.SymbolInfo
	local   []model.SymbolInfo
	imports []model.ImportSymbol
	refs    []model.ReferencedSymbol
	hasRefs bool

	defined map[string]bool
	names   []string
	// defSites are definition name ranges; namespaces also cover the
	// dotted or scoped names inside them.
	defSites   map[model.CodeRange]bool
	namespaces []model.CodeRange
}

func (e *Engine) semantic(in Input) (*Report, error) {
	report := &Report{}
	sc, err := e.scope(in, report)
	if err != nil {
		return nil, err
	}

	if sc.hasRefs {
		report.Diagnostics = append(report.Diagnostics, e.undefined(in, sc)...)
		report.Diagnostics = append(report.Diagnostics, unusedSymbols(in, sc)...)
		report.Diagnostics = append(report.Diagnostics, unusedImports(sc)...)
	}
	for _, f := range deadcode.Find(in.Root, in.Source, in.Language) {
		report.Diagnostics = append(report.Diagnostics, semanticDiagnostic(RuleDeadCode, Message(RuleDeadCode), f.Range))
	}
	return report, nil
}

func (e *Engine) scope(in Input, report *Report) (*scope, error) {
	sin := e.symbolInput(in)
	syms, err := symbols.Extract(e.cache, sin)
	if err != nil {
		return nil, err
	}
	sc := &scope{syms: syms, defined: make(map[string]bool), defSites: make(map[model.CodeRange]bool)}

	exported, err := symbols.Exports(e.cache, sin)
	if err != nil {
		return nil, err
	}
	_, sc.local = symbols.Partition(syms, exported)

	sc.imports, err = symbols.Imports(e.cache, sin)
	if errors.Is(err, queries.ErrMissingQuery) {
		e.logger.Debug("no imports query", "language", in.Language)
	} else if err != nil {
		return nil, err
	}

	sc.refs, err = symbols.References(e.cache, sin)
	if err != nil {
		if err := e.degrade(report, err, "references", in); err != nil {
			return nil, err
		}
	} else {
		sc.hasRefs = true
	}

	for _, s := range syms {
		sc.defined[s.Name] = true
		sc.defSites[s.Range] = true
		if s.Kind == model.KindNamespace || s.Kind == model.KindModule {
			sc.namespaces = append(sc.namespaces, s.Range)
		}
	}
	for _, imp := range sc.imports {
		if imp.Name != "" {
			sc.defined[imp.Name] = true
		}
	}
	for name := range sc.defined {
		sc.names = append(sc.names, name)
	}
	sort.Strings(sc.names)
	return sc, nil
}

// inImport reports whether r lies inside an import statement.
func (sc *scope) inImport(r model.CodeRange) bool {
	for _, imp := range sc.imports {
		if imp.StatementRange != nil && imp.StatementRange.Contains(r) {
			return true
		}
		if imp.Range.Contains(r) {
			return true
		}
	}
	return false
}

// atDefinition reports whether r is a definition's own name.
func (sc *scope) atDefinition(r model.CodeRange) bool {
	if sc.defSites[r] {
		return true
	}
	for _, ns := range sc.namespaces {
		if ns.Contains(r) {
			return true
		}
	}
	return false
}

func (sc *scope) known(in Input, name string) bool {
	return sc.defined[name] || builtins.IsBuiltin(in.Language, name)
}

func (e *Engine) undefined(in Input, sc *scope) []model.Diagnostic {
	var out []model.Diagnostic
	for _, ref := range sc.refs {
		if ref.IsQualified || nonBinding[ref.Kind] || sc.inImport(ref.Range) || sc.atDefinition(ref.Range) {
			continue
		}
		if ref.Kind == symbols.NamespaceKind {
			if moduleExempt[ref.Name] || len(ref.Name) == 1 || sc.known(in, ref.Name) {
				continue
			}
			msg := fmt.Sprintf("%s '%s'", Message(RuleUndefinedModule), ref.Name)
			out = append(out, semanticDiagnostic(RuleUndefinedModule, msg, ref.Range))
			continue
		}
		if sc.known(in, ref.Name) {
			continue
		}
		msg := fmt.Sprintf("%s '%s'", Message(RuleUndefinedSymbol), ref.Name)
		if s := suggest(ref.Name, sc.names); s != "" {
			msg += fmt.Sprintf(", did you mean '%s'?", s)
		}
		out = append(out, semanticDiagnostic(RuleUndefinedSymbol, msg, ref.Range))
	}
	return out
}

// suggest returns the defined name closest to name by edit distance, or ""
// when nothing is close enough to be a likely typo.
func suggest(name string, candidates []string) string {
	limit := min(max(len(name)/3, 1), 3)
	best, bestDist := "", limit+1
	for _, c := range candidates {
		if c == name {
			continue
		}
		if d := edlib.LevenshteinDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func skipUnused(name string) bool {
	switch {
	case name == "main" || name == "init":
		return true
	case strings.HasPrefix(name, "_"):
		return true
	}
	return false
}

func unusedSymbols(in Input, sc *scope) []model.Diagnostic {
	uses := make(map[string]int)
	for _, ref := range sc.refs {
		if !sc.defSites[ref.Range] {
			uses[ref.Name]++
		}
	}

	var out []model.Diagnostic
	for _, s := range sc.local {
		if neverUnused[s.Kind] || skipUnused(s.Name) || uses[s.Name] > 0 {
			continue
		}
		if s.Kind == model.KindMethod && methodReachable(in.Language, s) {
			continue
		}
		msg := fmt.Sprintf("%s: '%s'", Message(RuleUnusedSymbol), s.Name)
		out = append(out, semanticDiagnostic(RuleUnusedSymbol, msg, s.Range))
	}
	return out
}

func unusedImports(sc *scope) []model.Diagnostic {
	var out []model.Diagnostic
	for _, imp := range sc.imports {
		switch imp.Name {
		case "", "_", ".", "*":
			continue
		}
		stmt := imp.Range
		if imp.StatementRange != nil {
			stmt = *imp.StatementRange
		}
		used := false
		for _, ref := range sc.refs {
			if ref.Name == imp.Name && !stmt.Contains(ref.Range) {
				used = true
				break
			}
		}
		if !used {
			msg := fmt.Sprintf("%s: '%s'", Message(RuleUnusedImport), imp.Name)
			out = append(out, semanticDiagnostic(RuleUnusedImport, msg, imp.Range))
		}
	}
	return out
}

func semanticDiagnostic(rule, msg string, r model.CodeRange) model.Diagnostic {
	return model.Diagnostic{
		Kind:     model.DiagnosticSemantic,
		Severity: DefaultSeverity(rule),
		Rule:     rule,
		Message:  msg,
		Range:    r,
	}
}
