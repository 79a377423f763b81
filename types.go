package treehugger

import (
	"github.com/jward/treehugger/internal/deadcode"
	"github.com/jward/treehugger/internal/diagnostics"
	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/model"
	"github.com/jward/treehugger/internal/queries"
	"github.com/jward/treehugger/internal/store"
)

// Public type aliases for the internal model. These are Go type aliases
// (=), identical to the internal types at compile time, so callers outside
// the module can name every value the API returns.

type (
	Language          = lang.Language
	CodeRange         = model.CodeRange
	SymbolKind        = model.SymbolKind
	Visibility        = model.Visibility
	SymbolInfo        = model.SymbolInfo
	FunctionSignature = model.FunctionSignature
	ParameterInfo     = model.ParameterInfo
	TypeMetadata      = model.TypeMetadata
	FieldInfo         = model.FieldInfo
	VariantInfo       = model.VariantInfo
	ImportSymbol      = model.ImportSymbol
	ReferencedSymbol  = model.ReferencedSymbol
	Diagnostic        = model.Diagnostic
	DiagnosticKind    = model.DiagnosticKind
	Severity          = model.Severity
	SourceContext     = model.SourceContext
	Report            = diagnostics.Report
	RuleConfig        = diagnostics.Rules
	DeadCode          = deadcode.Finding
	StoredFile        = store.File
	QueryCache        = queries.Cache
)

// ClassSummary is a class-like definition with its members split into
// static and instance sections.
type ClassSummary struct {
	Class           SymbolInfo   `json:"class"`
	StaticMethods   []SymbolInfo `json:"static_methods"`
	InstanceMethods []SymbolInfo `json:"instance_methods"`
	StaticFields    []FieldInfo  `json:"static_fields"`
	InstanceFields  []FieldInfo  `json:"instance_fields"`
}
