package diagnostics

import (
	"github.com/jward/treehugger/internal/model"
)

// Semantic rule identifiers.
const (
	RuleUndefinedSymbol = "undefined-symbol"
	RuleUndefinedModule = "undefined-module"
	RuleUnusedSymbol    = "unused-symbol"
	RuleUnusedImport    = "unused-import"
	RuleDeadCode        = "dead-code"
)

var severities = map[string]model.Severity{
	RuleUndefinedSymbol: model.SeverityError,
	RuleUndefinedModule: model.SeverityWarning,
	RuleUnusedSymbol:    model.SeverityWarning,
	RuleUnusedImport:    model.SeverityWarning,
	RuleDeadCode:        model.SeverityWarning,

	"loose-equality": model.SeverityInfo,
	"fmt-print":      model.SeverityInfo,
	"panic-call":     model.SeverityInfo,
	"system-print":   model.SeverityInfo,
}

var messages = map[string]string{
	RuleUndefinedSymbol: "Reference to undefined symbol",
	RuleUndefinedModule: "Reference to undefined module or namespace",
	RuleUnusedSymbol:    "Symbol defined but never used",
	RuleUnusedImport:    "Imported symbol is never used",
	RuleDeadCode:        "Unreachable code after unconditional exit",

	"unwrap-call":        "Explicit unwrap() call",
	"expect-call":        "Explicit expect() call",
	"dbg-macro":          "Debug macro dbg!() call",
	"todo-macro":         "Unfinished todo!() macro",
	"eval-call":          "Use of eval() is discouraged",
	"exec-call":          "Use of exec() is discouraged",
	"debugger-statement": "Debugger statement found",
	"breakpoint-call":    "Breakpoint call found",
	"loose-equality":     "Loose equality comparison, prefer === or !==",
	"fmt-print":          "Direct print to standard output",
	"panic-call":         "Call to panic",
	"system-print":       "Direct print to System.out or System.err",
	"print-stack-trace":  "printStackTrace() call",
	"debug-dump":         "Debug dump call",
	"unsafe-call":        "Call to an unbounded C string function",
}

// DefaultSeverity is the severity of rule before configuration overrides.
// Rules without an entry are warnings.
func DefaultSeverity(rule string) model.Severity {
	if s, ok := severities[rule]; ok {
		return s
	}
	return model.SeverityWarning
}

// Message is the human-readable text for rule.
func Message(rule string) string {
	if m, ok := messages[rule]; ok {
		return m
	}
	return "pattern matched: " + rule
}

// Rules adjusts the built-in rule table: disabled rules are dropped and
// severities are overridden per rule.
type Rules struct {
	Disabled map[string]bool
	Severity map[string]model.Severity
}

func (r Rules) apply(d model.Diagnostic) (model.Diagnostic, bool) {
	if d.Rule == "" {
		return d, true
	}
	if r.Disabled[d.Rule] {
		return d, false
	}
	if s, ok := r.Severity[d.Rule]; ok {
		d.Severity = s
	}
	return d, true
}
