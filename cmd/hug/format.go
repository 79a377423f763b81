package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/jward/treehugger"
	"github.com/jward/treehugger/internal/model"
)

// Output styles. Only applied when color is on.
var (
	styleBold    = pterm.NewStyle(pterm.Bold)
	styleDim     = pterm.NewStyle(pterm.Fuzzy)
	styleRed     = pterm.NewStyle(pterm.FgRed)
	styleError   = pterm.NewStyle(pterm.FgRed, pterm.Bold)
	styleGreen   = pterm.NewStyle(pterm.FgGreen)
	styleYellow  = pterm.NewStyle(pterm.FgYellow)
	styleBlue    = pterm.NewStyle(pterm.FgBlue)
	styleMagenta = pterm.NewStyle(pterm.FgMagenta)
	styleCyan    = pterm.NewStyle(pterm.FgCyan)
)

// printer renders command output. The first write error is kept in err
// and later writes are skipped.
type printer struct {
	w     io.Writer
	root  string
	color bool
	err   error
}

func newPrinter(w io.Writer, root string) *printer {
	return &printer{w: w, root: root, color: useColor(w)}
}

// useColor is true for a terminal unless --plain, --json or NO_COLOR.
func useColor(w io.Writer) bool {
	if flagPlain || flagJSON || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) blank() { p.printf("\n") }

func (p *printer) style(s string, st *pterm.Style) string {
	if !p.color || st == nil {
		return s
	}
	return st.Sprint(s)
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) fileHeader(path string, l treehugger.Language) {
	p.printf("%s (%s)\n", p.style(displayPath(p.root, path), styleBold), p.style(l.String(), styleDim))
}

func kindStyle(k model.SymbolKind) *pterm.Style {
	switch k {
	case model.KindFunction, model.KindMethod:
		return styleGreen
	case model.KindType, model.KindClass, model.KindInterface:
		return styleMagenta
	case model.KindEnum, model.KindField:
		return styleCyan
	case model.KindTrait, model.KindNamespace, model.KindModule:
		return styleYellow
	case model.KindVariable, model.KindParameter, model.KindConstant:
		return styleBlue
	case model.KindMacro:
		return styleRed
	}
	return nil
}

func (p *printer) symbols(syms []treehugger.SymbolInfo) {
	if len(syms) == 0 {
		p.printf("  %s\n", p.style("(no symbols)", styleDim))
		return
	}
	for _, s := range syms {
		kind := p.style(string(s.Kind), kindStyle(s.Kind))
		if s.Signature != nil && s.Signature.Visibility != "" {
			kind = string(s.Signature.Visibility) + " " + kind
		}
		loc := fmt.Sprintf("[%d:%d]", s.Range.StartLine, s.Range.StartColumn)
		p.printf("  - %s %s %s\n", kind, p.style(symbolName(s), styleBold), p.style(loc, styleDim))
	}
}

// symbolName renders a function with its signature and a type with its
// type parameters and members.
func symbolName(s treehugger.SymbolInfo) string {
	switch {
	case s.Kind.IsCallable() && s.Signature != nil:
		return s.Name + formatSignature(s.Signature, s.Language)
	case s.Kind.IsTypeLike() && s.Type != nil:
		return s.Name + formatType(s.Type, s.Language)
	}
	return s.Name
}

// goStyle languages write "name type" rather than "name: type".
func goStyle(l treehugger.Language) bool {
	return l == "go"
}

func formatSignature(sig *treehugger.FunctionSignature, l treehugger.Language) string {
	params := make([]string, 0, len(sig.Parameters))
	for _, prm := range sig.Parameters {
		params = append(params, formatParam(prm, l))
	}
	out := "(" + strings.Join(params, ", ") + ")"
	if sig.ReturnType == "" {
		return out
	}
	switch l {
	case "go":
		return out + " " + sig.ReturnType
	case "javascript", "typescript":
		return out + ": " + sig.ReturnType
	}
	return out + " -> " + sig.ReturnType
}

func formatParam(prm treehugger.ParameterInfo, l treehugger.Language) string {
	var b strings.Builder
	if prm.IsVariadic {
		switch l {
		case "python":
			b.WriteString("*")
		case "go", "javascript", "typescript":
			b.WriteString("...")
		}
	}
	b.WriteString(prm.Name)
	if prm.Type != "" {
		if goStyle(l) {
			b.WriteString(" " + prm.Type)
		} else {
			b.WriteString(": " + prm.Type)
		}
	}
	if prm.Default != "" {
		b.WriteString(" = " + prm.Default)
	}
	return b.String()
}

func formatType(meta *treehugger.TypeMetadata, l treehugger.Language) string {
	var b strings.Builder
	if len(meta.TypeParameters) > 0 {
		b.WriteString("<" + strings.Join(meta.TypeParameters, ", ") + ">")
	}
	switch {
	case len(meta.Variants) > 0:
		parts := make([]string, 0, len(meta.Variants))
		for _, v := range meta.Variants {
			parts = append(parts, formatVariant(v))
		}
		b.WriteString(" { " + strings.Join(parts, ", ") + " }")
	case len(meta.Fields) > 0:
		parts := make([]string, 0, len(meta.Fields))
		for _, f := range meta.Fields {
			parts = append(parts, formatField(f, l))
		}
		b.WriteString(" { " + strings.Join(parts, ", ") + " }")
	}
	return b.String()
}

func formatField(f treehugger.FieldInfo, l treehugger.Language) string {
	switch {
	case f.Type == "":
		return f.Name
	case goStyle(l):
		return f.Name + " " + f.Type
	}
	return f.Name + ": " + f.Type
}

func formatVariant(v treehugger.VariantInfo) string {
	switch {
	case len(v.TupleFields) > 0:
		return v.Name + "(" + strings.Join(v.TupleFields, ", ") + ")"
	case len(v.StructFields) > 0:
		parts := make([]string, 0, len(v.StructFields))
		for _, f := range v.StructFields {
			parts = append(parts, formatField(f, ""))
		}
		return v.Name + " { " + strings.Join(parts, ", ") + " }"
	}
	return v.Name
}

// imports prints one line per import statement.
func (p *printer) imports(imps []treehugger.ImportSymbol) {
	if len(imps) == 0 {
		p.printf("  %s\n", p.style("(no imports)", styleDim))
		return
	}
	for _, group := range groupImports(imps) {
		p.printf("  - %s %s\n", p.style(formatImportGroup(group), styleCyan), p.style(importLocations(group), styleDim))
	}
}

// groupImports groups imports by the statement that declared them, in
// source order.
func groupImports(imps []treehugger.ImportSymbol) [][]treehugger.ImportSymbol {
	type key struct{ line, col int }
	groups := make(map[key][]treehugger.ImportSymbol)
	var order []key
	for _, imp := range imps {
		r := imp.Range
		if imp.StatementRange != nil {
			r = *imp.StatementRange
		}
		k := key{r.StartLine, r.StartColumn}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], imp)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].line != order[j].line {
			return order[i].line < order[j].line
		}
		return order[i].col < order[j].col
	})
	out := make([][]treehugger.ImportSymbol, 0, len(order))
	for _, k := range order {
		out = append(out, groups[k])
	}
	return out
}

func formatImportGroup(group []treehugger.ImportSymbol) string {
	source := group[0].Source
	names := make([]string, 0, len(group))
	for _, imp := range group {
		switch {
		case imp.Alias != "" && imp.Original != "":
			names = append(names, imp.Original+" as "+imp.Alias)
		case imp.Name != "" && imp.Name != source:
			names = append(names, imp.Name)
		}
	}
	switch {
	case source == "":
		return strings.Join(names, ", ")
	case len(names) == 0:
		return source
	}
	return source + ": " + strings.Join(names, ", ")
}

// importLocations renders "[line:col, col]" when the group is on one
// line, otherwise "[line:col, line:col]".
func importLocations(group []treehugger.ImportSymbol) string {
	line := group[0].Range.StartLine
	oneLine := true
	for _, imp := range group {
		if imp.Range.StartLine != line {
			oneLine = false
		}
	}
	parts := make([]string, 0, len(group))
	for _, imp := range group {
		if oneLine {
			parts = append(parts, strconv.Itoa(imp.Range.StartColumn))
		} else {
			parts = append(parts, fmt.Sprintf("%d:%d", imp.Range.StartLine, imp.Range.StartColumn))
		}
	}
	if oneLine {
		return fmt.Sprintf("[%d:%s]", line, strings.Join(parts, ", "))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func severityStyle(s model.Severity) *pterm.Style {
	switch s {
	case model.SeverityError:
		return styleError
	case model.SeverityWarning:
		return styleYellow
	}
	return styleBlue
}

func diagKindStyle(k model.DiagnosticKind) *pterm.Style {
	switch k {
	case model.DiagnosticLint:
		return styleCyan
	case model.DiagnosticSemantic:
		return styleMagenta
	}
	return styleRed
}

// diagnostics prints each diagnostic with its location and an underlined
// source excerpt.
func (p *printer) diagnostics(path string, diags []treehugger.Diagnostic, empty string) {
	if len(diags) == 0 {
		p.printf("  %s\n", p.style(empty, styleDim))
		return
	}
	for _, d := range diags {
		p.diagnostic(path, d)
	}
}

func (p *printer) diagnostic(path string, d treehugger.Diagnostic) {
	rule := ""
	if d.Rule != "" {
		rule = p.style(" ["+d.Rule+"]", styleDim)
	}
	p.printf("%s %s%s: %s\n",
		p.style("["+string(d.Kind)+"]", diagKindStyle(d.Kind)),
		p.style(d.Severity.String(), severityStyle(d.Severity)),
		rule, d.Message)
	p.printf("  %s %s:%d:%d\n", p.style("-->", styleBlue), displayPath(p.root, path), d.Range.StartLine, d.Range.StartColumn)
	if d.Context != nil {
		p.sourceContext(d.Context)
	}
	p.blank()
}

func (p *printer) sourceContext(c *model.SourceContext) {
	num := strconv.Itoa(c.LineNumber)
	width := max(len(num), 4)
	bar := p.style("|", styleBlue)
	p.printf("%*s %s\n", width, "", bar)
	p.printf("%s %s %s\n", p.style(fmt.Sprintf("%*s", width, num), styleBlue), bar, c.LineText)
	underline := strings.Repeat("^", max(c.UnderlineLength, 1))
	p.printf("%*s %s %s%s\n", width, "", bar, strings.Repeat(" ", c.UnderlineColumn), p.style(underline, styleYellow))
}

// pathDiagnostics prints stored diagnostics grouped under their files.
func (p *printer) pathDiagnostics(diags []treehugger.PathDiagnostic) {
	if len(diags) == 0 {
		p.printf("%s\n", p.style("(no diagnostics)", styleDim))
		return
	}
	current := ""
	for _, d := range diags {
		if d.Path != current {
			if current != "" {
				p.blank()
			}
			current = d.Path
			p.printf("%s\n", p.style(displayPath(p.root, d.Path), styleBold))
		}
		p.diagnostic(d.Path, d.Diagnostic)
	}
}

// class prints a class with its members split into static and instance
// sections. Empty sections are omitted.
func (p *printer) class(c treehugger.ClassSummary) {
	loc := fmt.Sprintf("[%d:%d]", c.Class.Range.StartLine, c.Class.Range.StartColumn)
	p.printf("  %s %s %s\n", p.style(string(c.Class.Kind), kindStyle(c.Class.Kind)), p.style(c.Class.Name, styleBold), p.style(loc, styleDim))
	p.fields("static fields", c.StaticFields, c.Class.Language)
	p.fields("instance fields", c.InstanceFields, c.Class.Language)
	p.methods("static methods", c.StaticMethods)
	p.methods("instance methods", c.InstanceMethods)
}

func (p *printer) fields(label string, fields []treehugger.FieldInfo, l treehugger.Language) {
	if len(fields) == 0 {
		return
	}
	p.printf("    %s:\n", label)
	for _, f := range fields {
		p.printf("      - %s\n", formatField(f, l))
	}
}

func (p *printer) methods(label string, methods []treehugger.SymbolInfo) {
	if len(methods) == 0 {
		return
	}
	p.printf("    %s:\n", label)
	for _, m := range methods {
		p.printf("      - %s %s\n", symbolName(m), p.style(fmt.Sprintf("[%d:%d]", m.Range.StartLine, m.Range.StartColumn), styleDim))
	}
}
