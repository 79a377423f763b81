package symbols

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/model"
)

func typeMetadataOf(def *sitter.Node, kind model.SymbolKind, src []byte, l lang.Language) *model.TypeMetadata {
	tm := &model.TypeMetadata{TypeParameters: typeParameters(def, src)}

	body := typeBody(def)
	if body == nil {
		return tm
	}
	if body.Type() == "ordered_field_declaration_list" {
		tm.Fields = tupleFields(body, src)
		return tm
	}

	for _, m := range namedChildren(body) {
		if kind == model.KindEnum {
			if v, ok := variantOf(m, src, l); ok {
				tm.Variants = append(tm.Variants, v)
			}
			continue
		}
		tm.Fields = append(tm.Fields, fieldsOf(m, src, l)...)
	}
	return tm
}

// typeBody locates the member list of a type definition. Go hides it one
// level down, inside the struct_type of a type_spec.
func typeBody(def *sitter.Node) *sitter.Node {
	if b := def.ChildByFieldName("body"); b != nil {
		return b
	}
	if t := def.ChildByFieldName("type"); t != nil {
		if list := childOfType(t, "field_declaration_list"); list != nil {
			return list
		}
	}
	return nil
}

func typeParameters(def *sitter.Node, src []byte) []string {
	tp := firstField(def, "type_parameters")
	if tp == nil {
		return nil
	}
	var out []string
	for _, p := range namedChildren(tp) {
		if isIdentifier(p) || p.Type() == "lifetime" {
			out = append(out, text(p, src))
			continue
		}
		names := fieldChildren(p, "name")
		if len(names) == 0 {
			if left := firstField(p, "left"); left != nil {
				names = append(names, left)
			}
		}
		if len(names) == 0 {
			if n := declaredName(p); n != nil {
				names = append(names, n)
			}
		}
		for _, n := range names {
			out = append(out, text(n, src))
		}
	}
	return out
}

func tupleFields(body *sitter.Node, src []byte) []model.FieldInfo {
	var out []model.FieldInfo
	i := 0
	for _, c := range namedChildren(body) {
		if c.Type() == "visibility_modifier" || isAttribute(c) {
			continue
		}
		out = append(out, model.FieldInfo{Name: strconv.Itoa(i), Type: text(c, src)})
		i++
	}
	return out
}

// fieldsOf reads the fields declared by one member of a type body. Members
// that declare no fields (methods, nested types) yield nothing.
func fieldsOf(m *sitter.Node, src []byte, l lang.Language) []model.FieldInfo {
	t := m.Type()
	switch {
	case t == "expression_statement":
		// Python class attributes: `name: int = 0`.
		a := childOfType(m, "assignment")
		if a == nil {
			return nil
		}
		left := a.ChildByFieldName("left")
		if left == nil || left.Type() != "identifier" {
			return nil
		}
		name := text(left, src)
		return []model.FieldInfo{{
			Name:       name,
			Type:       typeText(a.ChildByFieldName("type"), src),
			Visibility: visibilityFor(modifiers{}, l, name),
		}}
	case !isFieldDeclaration(t):
		return nil
	}

	mods := modifiersOf(m, src)
	typ := typeText(m.ChildByFieldName("type"), src)

	var names []*sitter.Node
	for _, f := range []string{"name", "property", "declarator"} {
		for _, c := range fieldChildren(m, f) {
			if n := declaredName(c); n != nil {
				names = append(names, n)
			}
		}
		if len(names) > 0 {
			break
		}
	}
	if len(names) == 0 {
		// C# and PHP nest declarators inside a declaration node.
		for _, c := range namedChildren(m) {
			switch c.Type() {
			case "variable_declaration":
				if typ == "" {
					typ = typeText(c.ChildByFieldName("type"), src)
				}
				for _, d := range namedChildren(c) {
					if d.Type() == "variable_declarator" {
						if n := declaredName(d); n != nil {
							names = append(names, n)
						}
					}
				}
			case "property_element":
				if n := declaredName(c); n != nil {
					names = append(names, n)
				}
			}
		}
	}

	out := make([]model.FieldInfo, 0, len(names))
	for _, n := range names {
		name := strings.TrimPrefix(text(n, src), "$")
		out = append(out, model.FieldInfo{
			Name:       name,
			Type:       typ,
			Visibility: visibilityFor(mods, l, name),
			IsStatic:   mods.static,
		})
	}
	return out
}

func isFieldDeclaration(t string) bool {
	switch t {
	case "field_declaration", "field_definition", "public_field_definition",
		"property_declaration", "property_signature":
		return true
	}
	return false
}

// variantOf reads one enum member. Rust variants may carry tuple or struct
// payloads; other languages only name them.
func variantOf(m *sitter.Node, src []byte, l lang.Language) (model.VariantInfo, bool) {
	t := m.Type()
	if strings.HasSuffix(t, "declarations") || isAttribute(m) {
		return model.VariantInfo{}, false
	}

	var name string
	switch {
	case isIdentifier(m):
		name = text(m, src)
	case m.ChildByFieldName("name") != nil:
		name = text(m.ChildByFieldName("name"), src)
	default:
		if n := declaredName(m); n != nil {
			name = text(n, src)
		}
	}
	if name == "" {
		return model.VariantInfo{}, false
	}

	v := model.VariantInfo{Name: name}
	if body := m.ChildByFieldName("body"); body != nil {
		switch body.Type() {
		case "ordered_field_declaration_list":
			for _, f := range tupleFields(body, src) {
				v.TupleFields = append(v.TupleFields, f.Type)
			}
		case "field_declaration_list":
			for _, f := range namedChildren(body) {
				v.StructFields = append(v.StructFields, fieldsOf(f, src, l)...)
			}
		}
	}
	return v, true
}
