package symbols

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/model"
	"github.com/jward/treehugger/internal/queries"
)

// memberParents are access nodes whose left operand is an object: a.b.
var memberParents = map[string]bool{
	"selector_expression":      true,
	"attribute":                true,
	"field_expression":         true,
	"member_expression":        true,
	"field_access":             true,
	"method_invocation":        true,
	"member_access_expression": true,
	"member_call_expression":   true,
	"dot_index_expression":     true,
	"method_index_expression":  true,
	"navigation_suffix":        true,
}

// scopedParents are path nodes whose left operand is a namespace: a::b.
var scopedParents = map[string]bool{
	"scoped_identifier":                true,
	"scoped_type_identifier":           true,
	"qualified_identifier":             true,
	"qualified_type":                   true,
	"qualified_name":                   true,
	"scoped_call_expression":           true,
	"class_constant_access_expression": true,
	"nested_type_identifier":           true,
	"nested_identifier":                true,
}

// NamespaceKind marks a reference that is the namespace operand of a
// scoped path.
const NamespaceKind = "namespace"

// References returns one ReferencedSymbol per captured identifier node, in
// source order. When several patterns capture the same node, the capture
// with a kind suffix wins over a plain @reference.
func References(cache *queries.Cache, in Input) ([]model.ReferencedSymbol, error) {
	q, err := cache.Get(in.Language, queries.References)
	if err != nil {
		return nil, err
	}

	var out []model.ReferencedSymbol
	seen := make(map[span]int)
	for _, m := range q.Matches(in.Root, in.Source) {
		for _, c := range m.Captures {
			kind, ok := referenceKind(c.Name)
			if !ok {
				continue
			}
			name := text(c.Node, in.Source)
			if name == "" {
				continue
			}
			key := spanOf(c.Node)
			if idx, dup := seen[key]; dup {
				if kind != "" && (out[idx].Kind == "" || out[idx].Kind == NamespaceKind) {
					out[idx].Kind = kind
				}
				continue
			}
			seen[key] = len(out)

			ref := model.ReferencedSymbol{Name: name, Range: model.RangeOf(c.Node), Kind: kind}
			qualify(c.Node, in.Source, &ref)
			out = append(out, ref)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Range.StartByte < out[j].Range.StartByte
	})
	return out, nil
}

func referenceKind(capture string) (string, bool) {
	if capture == "reference" {
		return "", true
	}
	kind, ok := strings.CutPrefix(capture, "reference.")
	return kind, ok
}

// qualify marks ref as qualified when n is the right-hand side of a member
// or scoped access. The namespace operand of a scoped path gets
// NamespaceKind so it is judged as a module rather than a plain symbol.
func qualify(n *sitter.Node, src []byte, ref *model.ReferencedSymbol) {
	p := n.Parent()
	if p == nil {
		return
	}
	pt := p.Type()
	if !memberParents[pt] && !scopedParents[pt] {
		return
	}

	left := leftOperand(p)
	if left == nil {
		return
	}
	if spanOf(left) == spanOf(n) {
		if scopedParents[pt] && ref.Kind == "" {
			ref.Kind = NamespaceKind
		}
		return
	}
	ref.IsQualified = true
	ref.Qualifier = text(left, src)
	ref.Scoped = scopedParents[pt]
}

func leftOperand(p *sitter.Node) *sitter.Node {
	if p.Type() == "navigation_suffix" {
		if gp := p.Parent(); gp != nil {
			return gp.NamedChild(0)
		}
		return nil
	}
	return p.NamedChild(0)
}
