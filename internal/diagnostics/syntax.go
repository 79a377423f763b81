package diagnostics

import (
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/model"
)

const maxSnippet = 40

func (e *Engine) syntax(in Input) []model.Diagnostic {
	if in.Root == nil || !in.Root.HasError() {
		return nil
	}
	var out []model.Diagnostic
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch {
		case n.IsMissing():
			out = append(out, syntaxDiagnostic(n, fmt.Sprintf("Syntax error: missing %s", describe(n))))
			return
		case n.Type() == "ERROR":
			out = append(out, syntaxDiagnostic(n, fmt.Sprintf("Syntax error: unexpected %s", snippet(n, in.Source))))
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c.HasError() || c.IsMissing() {
				walk(c)
			}
		}
	}
	walk(in.Root)
	return out
}

func syntaxDiagnostic(n *sitter.Node, msg string) model.Diagnostic {
	return model.Diagnostic{
		Kind:     model.DiagnosticSyntax,
		Severity: model.SeverityError,
		Message:  msg,
		Range:    model.RangeOf(n),
	}
}

func describe(n *sitter.Node) string {
	if n.IsNamed() {
		return n.Type()
	}
	return fmt.Sprintf("%q", n.Type())
}

func snippet(n *sitter.Node, src []byte) string {
	text := strings.Join(strings.Fields(n.Content(src)), " ")
	if text == "" {
		return "input"
	}
	return fmt.Sprintf("%q", truncate(text, maxSnippet))
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
