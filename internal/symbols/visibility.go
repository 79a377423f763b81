package symbols

import (
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/model"
)

type modifiers struct {
	visibility model.Visibility
	static     bool
}

// modifiersOf collects visibility and static keywords written on a
// definition. When the node itself carries none, its declaration
// ancestors are checked (a Java field name sits two levels below the
// field_declaration that owns the modifiers).
func modifiersOf(n *sitter.Node, src []byte) modifiers {
	for depth := 0; n != nil && depth < 3; depth++ {
		if m, ok := scanModifiers(n, src); ok {
			return m
		}
		p := n.Parent()
		if p == nil || isContainer(p) {
			break
		}
		n = p
	}
	return modifiers{}
}

func isContainer(n *sitter.Node) bool {
	t := n.Type()
	return n.Parent() == nil ||
		strings.Contains(t, "block") ||
		strings.Contains(t, "body") ||
		strings.HasSuffix(t, "_list")
}

func scanModifiers(n *sitter.Node, src []byte) (modifiers, bool) {
	var m modifiers
	found := false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		t := c.Type()
		var words []string
		switch {
		case strings.Contains(t, "modifier"):
			words = strings.Fields(c.Content(src))
		case !c.IsNamed():
			words = []string{t}
		default:
			continue
		}
		for _, w := range words {
			switch {
			case strings.HasPrefix(w, "pub(") || w == "internal":
				m.visibility, found = model.VisibilityInternal, true
			case w == "pub" || w == "public" || w == "open":
				m.visibility, found = model.VisibilityPublic, true
			case w == "private" || w == "fileprivate":
				m.visibility, found = model.VisibilityPrivate, true
			case w == "protected":
				m.visibility, found = model.VisibilityProtected, true
			case w == "static":
				m.static, found = true, true
			}
		}
	}
	return m, found
}

// visibilityFor applies the explicit modifier when present, otherwise the
// language default:
//
//	go                 exported when capitalised, else private
//	python             private when underscore-prefixed (not dunder)
//	rust, c_sharp      private
//	java               package
//	swift              internal
//	everything else    public
func visibilityFor(m modifiers, l lang.Language, name string) model.Visibility {
	if m.visibility != "" {
		return m.visibility
	}
	switch l {
	case lang.Go:
		r, _ := utf8.DecodeRuneInString(name)
		if unicode.IsUpper(r) {
			return model.VisibilityPublic
		}
		return model.VisibilityPrivate
	case lang.Python:
		if strings.HasPrefix(name, "_") && !(strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")) {
			return model.VisibilityPrivate
		}
		return model.VisibilityPublic
	case lang.Rust, lang.CSharp:
		return model.VisibilityPrivate
	case lang.Java:
		return model.VisibilityPackage
	case lang.Swift:
		return model.VisibilityInternal
	}
	return model.VisibilityPublic
}

// isPythonStatic reports a @staticmethod or @classmethod decorator.
func isPythonStatic(def *sitter.Node, src []byte) bool {
	p := def.Parent()
	if p == nil || p.Type() != "decorated_definition" {
		return false
	}
	for _, c := range namedChildren(p) {
		if c.Type() != "decorator" {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(c.Content(src), "@"))
		if name == "staticmethod" || name == "classmethod" {
			return true
		}
	}
	return false
}
