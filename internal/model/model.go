// Package model defines the values treehugger produces: symbols, imports,
// references and diagnostics, all positioned by CodeRange.
package model

import (
	"encoding/json"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/lang"
)

// CodeRange is a half-open span of source. Lines are 1-based, columns are
// 0-based byte offsets within their line.
type CodeRange struct {
	StartLine   int `json:"start_line"`
	StartColumn int `json:"start_column"`
	EndLine     int `json:"end_line"`
	EndColumn   int `json:"end_column"`
	StartByte   int `json:"start_byte"`
	EndByte     int `json:"end_byte"`
}

// RangeOf converts a node position into a CodeRange.
func RangeOf(n *sitter.Node) CodeRange {
	sp, ep := n.StartPoint(), n.EndPoint()
	return CodeRange{
		StartLine:   int(sp.Row) + 1,
		StartColumn: int(sp.Column),
		EndLine:     int(ep.Row) + 1,
		EndColumn:   int(ep.Column),
		StartByte:   int(n.StartByte()),
		EndByte:     int(n.EndByte()),
	}
}

// Contains reports whether other lies entirely inside r.
func (r CodeRange) Contains(other CodeRange) bool {
	return r.StartByte <= other.StartByte && other.EndByte <= r.EndByte
}

func (r CodeRange) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.StartLine, r.StartColumn, r.EndLine, r.EndColumn)
}

// SymbolKind classifies a definition.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindType      SymbolKind = "type"
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindEnum      SymbolKind = "enum"
	KindTrait     SymbolKind = "trait"
	KindModule    SymbolKind = "module"
	KindNamespace SymbolKind = "namespace"
	KindVariable  SymbolKind = "variable"
	KindParameter SymbolKind = "parameter"
	KindField     SymbolKind = "field"
	KindMacro     SymbolKind = "macro"
	KindConstant  SymbolKind = "constant"
	KindUnknown   SymbolKind = "unknown"
)

// IsCallable reports whether symbols of kind k carry a signature.
func (k SymbolKind) IsCallable() bool {
	return k == KindFunction || k == KindMethod
}

// IsTypeLike reports whether symbols of kind k carry type metadata.
func (k SymbolKind) IsTypeLike() bool {
	switch k {
	case KindType, KindClass, KindInterface, KindEnum, KindTrait:
		return true
	}
	return false
}

// Visibility of a definition.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
	VisibilityInternal  Visibility = "internal"
	VisibilityPackage   Visibility = "package"
)

// SymbolInfo is one definition found by the locals query.
type SymbolInfo struct {
	Name            string             `json:"name"`
	Kind            SymbolKind         `json:"kind"`
	Range           CodeRange          `json:"range"`
	DefinitionRange *CodeRange         `json:"definition_range,omitempty"`
	Language        lang.Language      `json:"language"`
	File            string             `json:"file,omitempty"`
	Doc             string             `json:"doc,omitempty"`
	Signature       *FunctionSignature `json:"signature,omitempty"`
	Type            *TypeMetadata      `json:"type,omitempty"`
	Visibility      Visibility         `json:"visibility,omitempty"`
}

// FunctionSignature describes a function or method.
type FunctionSignature struct {
	Parameters []ParameterInfo `json:"parameters"`
	ReturnType string          `json:"return_type,omitempty"`
	Visibility Visibility      `json:"visibility,omitempty"`
	IsStatic   bool            `json:"is_static,omitempty"`
}

// String renders the signature as "(a int, b ...string) error".
func (s *FunctionSignature) String() string {
	parts := make([]string, 0, len(s.Parameters))
	for _, p := range s.Parameters {
		parts = append(parts, p.String())
	}
	out := "(" + strings.Join(parts, ", ") + ")"
	if s.ReturnType != "" {
		out += " " + s.ReturnType
	}
	return out
}

// ParameterInfo is one formal parameter.
type ParameterInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	Default    string `json:"default,omitempty"`
	IsVariadic bool   `json:"is_variadic,omitempty"`
}

func (p ParameterInfo) String() string {
	s := p.Name
	if p.IsVariadic {
		s = "..." + s
	}
	if p.Type != "" {
		s += " " + p.Type
	}
	if p.Default != "" {
		s += " = " + p.Default
	}
	return s
}

// TypeMetadata describes the members of a type-like definition.
type TypeMetadata struct {
	Fields         []FieldInfo   `json:"fields,omitempty"`
	Variants       []VariantInfo `json:"variants,omitempty"`
	TypeParameters []string      `json:"type_parameters,omitempty"`
}

// FieldInfo is a field of a struct, class or record.
type FieldInfo struct {
	Name       string     `json:"name"`
	Type       string     `json:"type,omitempty"`
	Visibility Visibility `json:"visibility,omitempty"`
	IsStatic   bool       `json:"is_static,omitempty"`
}

// VariantInfo is one enum variant. Tuple-style variants fill TupleFields,
// struct-style variants fill StructFields.
type VariantInfo struct {
	Name         string      `json:"name"`
	TupleFields  []string    `json:"tuple_fields,omitempty"`
	StructFields []FieldInfo `json:"struct_fields,omitempty"`
}

// ImportSymbol is one name brought into scope by an import statement.
// Name is the locally bound name and may be empty for imports that bind
// nothing (C includes, C# using directives).
type ImportSymbol struct {
	Name           string     `json:"name,omitempty"`
	Original       string     `json:"original,omitempty"`
	Alias          string     `json:"alias,omitempty"`
	Source         string     `json:"source,omitempty"`
	Range          CodeRange  `json:"range"`
	StatementRange *CodeRange `json:"statement_range,omitempty"`
}

// ReferencedSymbol is one identifier use. Kind carries the suffix of the
// capture that produced it ("" for plain references). Scoped is set when
// the qualifier is a namespace path (a::b) rather than a member access.
type ReferencedSymbol struct {
	Name        string    `json:"name"`
	Range       CodeRange `json:"range"`
	IsQualified bool      `json:"is_qualified,omitempty"`
	Qualifier   string    `json:"qualifier,omitempty"`
	Scoped      bool      `json:"scoped,omitempty"`
	Kind        string    `json:"kind,omitempty"`
}

// DiagnosticKind is the category that produced a diagnostic.
type DiagnosticKind string

const (
	DiagnosticLint     DiagnosticKind = "lint"
	DiagnosticSemantic DiagnosticKind = "semantic"
	DiagnosticSyntax   DiagnosticKind = "syntax"
)

// Severity orders diagnostics from Info up to Error.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

var severityNames = [...]string{"info", "warning", "error"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity accepts "info", "warning"/"warn" and "error".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info", "hint", "note":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error", "err":
		return SeverityError, nil
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", s)
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Diagnostic is a single finding. Syntax diagnostics have no Rule; lint and
// semantic diagnostics always do.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Severity Severity       `json:"severity"`
	Rule     string         `json:"rule,omitempty"`
	Message  string         `json:"message"`
	Range    CodeRange      `json:"range"`
	Context  *SourceContext `json:"context,omitempty"`
}
