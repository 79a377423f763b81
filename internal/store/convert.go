package store

import (
	"github.com/jward/treehugger/internal/model"
)

// NewSymbol builds the row for a symbol found in fileID.
func NewSymbol(fileID int64, s model.SymbolInfo, exported bool) *Symbol {
	sym := &Symbol{
		FileID:     fileID,
		Name:       s.Name,
		Kind:       string(s.Kind),
		Visibility: string(s.Visibility),
		Exported:   exported,
		Doc:        s.Doc,
		StartLine:  s.Range.StartLine,
		StartCol:   s.Range.StartColumn,
		EndLine:    s.Range.EndLine,
		EndCol:     s.Range.EndColumn,
	}
	if s.Signature != nil {
		sym.Signature = s.Signature.String()
	}
	return sym
}

// NewImport builds the row for an import found in fileID.
func NewImport(fileID int64, imp model.ImportSymbol) *Import {
	return &Import{
		FileID:    fileID,
		Name:      imp.Name,
		Original:  imp.Original,
		Alias:     imp.Alias,
		Source:    imp.Source,
		StartLine: imp.Range.StartLine,
		StartCol:  imp.Range.StartColumn,
	}
}

// NewDiagnostic builds the row for a diagnostic reported in fileID.
func NewDiagnostic(fileID int64, d model.Diagnostic) *Diagnostic {
	row := &Diagnostic{
		FileID:    fileID,
		Kind:      string(d.Kind),
		Severity:  d.Severity.String(),
		Rule:      d.Rule,
		Message:   d.Message,
		StartLine: d.Range.StartLine,
		StartCol:  d.Range.StartColumn,
		EndLine:   d.Range.EndLine,
		EndCol:    d.Range.EndColumn,
		StartByte: d.Range.StartByte,
		EndByte:   d.Range.EndByte,
	}
	if d.Context != nil {
		row.LineText = d.Context.LineText
		row.UnderlineCol = d.Context.UnderlineColumn
		row.UnderlineLen = d.Context.UnderlineLength
	}
	return row
}

// Model converts the row back into a diagnostic. An unreadable severity
// falls back to warning.
func (d *Diagnostic) Model() model.Diagnostic {
	sev, err := model.ParseSeverity(d.Severity)
	if err != nil {
		sev = model.SeverityWarning
	}
	out := model.Diagnostic{
		Kind:     model.DiagnosticKind(d.Kind),
		Severity: sev,
		Rule:     d.Rule,
		Message:  d.Message,
		Range: model.CodeRange{
			StartLine:   d.StartLine,
			StartColumn: d.StartCol,
			EndLine:     d.EndLine,
			EndColumn:   d.EndCol,
			StartByte:   d.StartByte,
			EndByte:     d.EndByte,
		},
	}
	if d.UnderlineLen > 0 {
		out.Context = &model.SourceContext{
			LineNumber:      d.StartLine,
			LineText:        d.LineText,
			UnderlineColumn: d.UnderlineCol,
			UnderlineLength: d.UnderlineLen,
		}
	}
	return out
}
