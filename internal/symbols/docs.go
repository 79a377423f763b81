package symbols

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/lang"
)

// wrappers are nodes that enclose a definition without starting on its
// line: decorators, export keywords and templates sit in front of it.
var wrappers = map[string]bool{
	"decorated_definition": true,
	"export_statement":     true,
	"template_declaration": true,
}

// docComment returns the comment block directly above a definition. The
// definition is first widened to its outermost same-line ancestor so that
// comments attached to e.g. a Go type_declaration are found from the
// type_spec inside it.
func docComment(def *sitter.Node, src []byte, l lang.Language) string {
	node := def
	row := def.StartPoint().Row
	for p := node.Parent(); p != nil && p.Parent() != nil; p = p.Parent() {
		if p.StartPoint().Row != row && !wrappers[p.Type()] {
			break
		}
		node = p
		row = p.StartPoint().Row
	}

	var lines []string
	expect := node.StartPoint().Row
	for s := node.PrevSibling(); s != nil; s = s.PrevSibling() {
		if isAttribute(s) {
			expect = s.StartPoint().Row
			continue
		}
		if !isComment(s) {
			break
		}
		if commentEndRow(s)+1 != expect {
			break
		}
		lines = append(cleanComment(s.Content(src)), lines...)
		expect = s.StartPoint().Row
	}
	if doc := strings.TrimSpace(strings.Join(lines, "\n")); doc != "" {
		return doc
	}
	if l == lang.Python {
		return docstring(def, src)
	}
	return ""
}

func isAttribute(n *sitter.Node) bool {
	switch n.Type() {
	case "attribute_item", "decorator", "annotation", "marker_annotation", "attribute_list":
		return true
	}
	return false
}

// commentEndRow is the last row holding comment text. Some grammars end
// line comments at column 0 of the following row.
func commentEndRow(n *sitter.Node) uint32 {
	end := n.EndPoint()
	if end.Column == 0 && end.Row > n.StartPoint().Row {
		return end.Row - 1
	}
	return end.Row
}

var linePrefixes = []string{"///", "//!", "//", "#!", "#", "--", ";;", ";"}

// cleanComment strips comment markers and a leading "*" gutter from every
// line of a comment.
func cleanComment(raw string) []string {
	raw = strings.TrimSpace(raw)
	block := false
	if rest, ok := strings.CutPrefix(raw, "/**"); ok {
		raw, block = rest, true
	} else if rest, ok := strings.CutPrefix(raw, "/*"); ok {
		raw, block = rest, true
	}
	if block {
		raw = strings.TrimSuffix(raw, "*/")
	}

	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if block {
			line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		} else {
			for _, p := range linePrefixes {
				if rest, ok := strings.CutPrefix(line, p); ok {
					line = strings.TrimSpace(rest)
					break
				}
			}
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

// docstring reads the string literal that opens a Python function or
// class body.
func docstring(def *sitter.Node, src []byte) string {
	body := def.ChildByFieldName("body")
	if body == nil {
		return ""
	}
	kids := namedChildren(body)
	if len(kids) == 0 || kids[0].Type() != "expression_statement" {
		return ""
	}
	str := kids[0].NamedChild(0)
	if str == nil || str.Type() != "string" {
		return ""
	}
	s := strings.TrimSpace(str.Content(src))
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			s = s[len(q) : len(s)-len(q)]
			break
		}
	}
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, "\n")
}
