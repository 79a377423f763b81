package symbols

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/model"
)

// functionNode finds the node that owns the parameter list. It is the
// definition itself for most grammars; C declarators and JavaScript arrow
// functions bound to a variable nest it further down.
func functionNode(def *sitter.Node) *sitter.Node {
	n := def
	for depth := 0; n != nil && depth < 6; depth++ {
		if firstField(n, "parameters", "parameter") != nil {
			return n
		}
		next := firstField(n, "declarator", "value", "definition")
		if next == nil {
			break
		}
		n = next
	}
	return def
}

var returnFields = []string{"result", "return_type", "returns", "type"}

func signatureOf(def *sitter.Node, src []byte, l lang.Language) *model.FunctionSignature {
	fn := functionNode(def)
	sig := &model.FunctionSignature{Parameters: []model.ParameterInfo{}}

	if params := fn.ChildByFieldName("parameters"); params != nil {
		for _, p := range namedChildren(params) {
			sig.Parameters = append(sig.Parameters, parametersOf(p, src)...)
		}
	} else if single := fn.ChildByFieldName("parameter"); single != nil {
		sig.Parameters = append(sig.Parameters, model.ParameterInfo{Name: text(single, src)})
	} else if list := childOfType(fn, "parameter_list"); list != nil {
		// Lua leaves its parameter list unnamed.
		for _, p := range namedChildren(list) {
			sig.Parameters = append(sig.Parameters, parametersOf(p, src)...)
		}
	}

	if rt := firstField(fn, returnFields...); rt != nil {
		sig.ReturnType = typeText(rt, src)
	} else if fn != def {
		// C keeps the return type on the function_definition, above the
		// declarator chain.
		sig.ReturnType = typeText(def.ChildByFieldName("type"), src)
	}
	if l == lang.Go && strings.HasPrefix(sig.ReturnType, "(") {
		sig.ReturnType = strings.Join(strings.Fields(sig.ReturnType), " ")
	}
	return sig
}

// parametersOf expands one parameter node. Go declares several names with
// a single type (a, b int), so one node may yield several parameters.
func parametersOf(p *sitter.Node, src []byte) []model.ParameterInfo {
	t := p.Type()
	variadic := isVariadic(p, src)

	switch t {
	case "self_parameter":
		return []model.ParameterInfo{{Name: "self", Type: text(p, src)}}
	case "identifier", "simple_identifier", "variable_name":
		return []model.ParameterInfo{{Name: strings.TrimPrefix(text(p, src), "$")}}
	case "ellipsis":
		return []model.ParameterInfo{{Name: "...", IsVariadic: true}}
	case "spread_parameter":
		// Java varargs: String... names carries no type field.
		info := model.ParameterInfo{IsVariadic: true}
		for _, c := range namedChildren(p) {
			switch {
			case c.Type() == "variable_declarator":
				info.Name = text(declaredName(c), src)
			case c.Type() != "modifiers" && info.Type == "":
				info.Type = typeText(c, src)
			}
		}
		return []model.ParameterInfo{info}
	}
	if isIdentifier(p) {
		return []model.ParameterInfo{{Name: text(p, src)}}
	}

	typeNode := p.ChildByFieldName("type")
	typ := typeText(typeNode, src)
	def := text(firstField(p, "value", "default_value", "default", "right"), src)

	var names []string
	for _, n := range fieldChildren(p, "name") {
		names = append(names, strings.TrimPrefix(text(declaredName(n), src), "$"))
	}
	if len(names) == 0 {
		if n := declaredName(p); n != nil && !within(n, typeNode) {
			names = append(names, strings.TrimPrefix(text(n, src), "$"))
		}
	}
	if len(names) == 0 {
		if typ == "" {
			// C prototypes such as f(int) and Go's unnamed parameters.
			typ = text(p, src)
		}
		return []model.ParameterInfo{{Type: typ, IsVariadic: variadic}}
	}

	out := make([]model.ParameterInfo, 0, len(names))
	for _, name := range names {
		out = append(out, model.ParameterInfo{Name: name, Type: typ, Default: def, IsVariadic: variadic})
	}
	return out
}

func isVariadic(p *sitter.Node, src []byte) bool {
	t := p.Type()
	for _, marker := range []string{"variadic", "splat", "rest", "spread"} {
		if strings.Contains(t, marker) {
			return true
		}
	}
	for _, c := range namedChildren(p) {
		ct := c.Type()
		if strings.Contains(ct, "splat") || strings.Contains(ct, "rest_pattern") {
			return true
		}
	}
	return strings.HasPrefix(text(p, src), "...")
}

func within(n, outer *sitter.Node) bool {
	return outer != nil && n.StartByte() >= outer.StartByte() && n.EndByte() <= outer.EndByte()
}
