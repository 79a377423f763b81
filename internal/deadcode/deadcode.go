// Package deadcode finds statements that follow an unconditional exit in
// the same block.
//
// Only direct siblings are flagged. A return inside an if branch or a loop
// body leaves the code after the if or loop alone.
package deadcode

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/model"
)

// Finding is one unreachable statement.
type Finding struct {
	Range    model.CodeRange `json:"range"`
	NodeType string          `json:"node_type"`
	// Terminal is the range of the statement that made it unreachable.
	Terminal model.CodeRange `json:"terminal"`
}

var blockTypes = map[string]bool{
	"compound_statement":           true,
	"statement_list":               true,
	"statements":                   true,
	"do_group":                     true,
	"expression_case":              true,
	"default_case":                 true,
	"type_case":                    true,
	"communication_case":           true,
	"switch_case":                  true,
	"switch_default":               true,
	"case_statement":               true,
	"switch_block_statement_group": true,
	"switch_section":               true,
	"function_body":                true,
}

func isBlock(n *sitter.Node) bool {
	if n.Parent() == nil {
		return true
	}
	t := n.Type()
	if strings.Contains(t, "comment") {
		return false
	}
	return blockTypes[t] || strings.Contains(t, "block")
}

// Find returns the dead statements under root in source order. Languages
// without terminal rules have no findings.
func Find(root *sitter.Node, source []byte, l lang.Language) []Finding {
	t, ok := registry[l]
	if !ok || root == nil {
		return nil
	}
	var out []Finding
	t.walk(root, source, &out)
	return out
}

func (t terminals) walk(n *sitter.Node, src []byte, out *[]Finding) {
	if !isBlock(n) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			t.walk(n.NamedChild(i), src, out)
		}
		return
	}

	var terminal *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if strings.Contains(c.Type(), "comment") {
			continue
		}
		if terminal != nil {
			*out = append(*out, Finding{
				Range:    model.RangeOf(c),
				NodeType: c.Type(),
				Terminal: model.RangeOf(terminal),
			})
			continue
		}
		t.walk(c, src, out)
		if t.isTerminal(c, src) {
			terminal = c
		}
	}
}
