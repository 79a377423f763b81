package symbols

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

func isComment(n *sitter.Node) bool {
	return strings.Contains(n.Type(), "comment")
}

func isIdentifier(n *sitter.Node) bool {
	t := n.Type()
	return strings.HasSuffix(t, "identifier") || t == "name" || t == "word" || t == "variable_name"
}

// namedChildren returns n's named children, comments excluded.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c == nil || isComment(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// fieldChildren returns every child of n attached under field.
func fieldChildren(n *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) == field {
			out = append(out, n.Child(i))
		}
	}
	return out
}

// firstField returns the first non-nil child among the given fields.
func firstField(n *sitter.Node, fields ...string) *sitter.Node {
	if n == nil {
		return nil
	}
	for _, f := range fields {
		if c := n.ChildByFieldName(f); c != nil {
			return c
		}
	}
	return nil
}

// childOfType returns the first named child of n whose type is t.
func childOfType(n *sitter.Node, t string) *sitter.Node {
	for _, c := range namedChildren(n) {
		if c.Type() == t {
			return c
		}
	}
	return nil
}

// declaredName digs through declarator wrappers (pointers, references,
// initialisers) to the identifier they declare.
func declaredName(n *sitter.Node) *sitter.Node {
	for depth := 0; n != nil && depth < 8; depth++ {
		if isIdentifier(n) {
			return n
		}
		if next := firstField(n, "declarator", "name", "pattern", "left"); next != nil {
			n = next
			continue
		}
		var found *sitter.Node
		for _, c := range namedChildren(n) {
			if isIdentifier(c) {
				found = c
				break
			}
		}
		if found != nil {
			return found
		}
		kids := namedChildren(n)
		if len(kids) == 0 {
			return nil
		}
		n = kids[0]
	}
	return nil
}

func text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Content(src))
}

// typeText normalises a type annotation: TypeScript and Python wrap the
// type in a node that keeps the leading colon or arrow.
func typeText(n *sitter.Node, src []byte) string {
	s := text(n, src)
	s = strings.TrimPrefix(s, ":")
	s = strings.TrimPrefix(s, "->")
	return strings.TrimSpace(s)
}

type span struct{ start, end uint32 }

func spanOf(n *sitter.Node) span { return span{n.StartByte(), n.EndByte()} }
