package symbols

import "github.com/jward/treehugger/internal/model"

// suffixKinds maps the suffix of a @definition.<suffix> capture to a kind.
var suffixKinds = map[string]model.SymbolKind{
	"function":  model.KindFunction,
	"method":    model.KindMethod,
	"type":      model.KindType,
	"struct":    model.KindType,
	"class":     model.KindClass,
	"interface": model.KindInterface,
	"enum":      model.KindEnum,
	"trait":     model.KindTrait,
	"module":    model.KindModule,
	"namespace": model.KindNamespace,
	"var":       model.KindVariable,
	"variable":  model.KindVariable,
	"parameter": model.KindParameter,
	"field":     model.KindField,
	"macro":     model.KindMacro,
	"constant":  model.KindConstant,
	"const":     model.KindConstant,
}

// KindForSuffix classifies a capture suffix. Unknown suffixes yield
// KindUnknown.
func KindForSuffix(suffix string) model.SymbolKind {
	if k, ok := suffixKinds[suffix]; ok {
		return k
	}
	return model.KindUnknown
}
