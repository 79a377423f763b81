package deadcode

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/lang"
)

// terminals is the closed set of statements after which control never
// falls through, for one language.
type terminals struct {
	// kinds are node types that are terminal on their own.
	kinds []string
	// callKinds are the node types of calls and macro invocations.
	callKinds []string
	// callees are the callee texts that make a call terminal.
	callees []string
}

var (
	cFamily = terminals{
		kinds:     []string{"return_statement", "break_statement", "continue_statement", "goto_statement"},
		callKinds: []string{"call_expression"},
		callees:   []string{"exit", "_exit", "_Exit", "abort", "quick_exit"},
	}
	ecma = terminals{
		kinds:     []string{"return_statement", "throw_statement", "break_statement", "continue_statement"},
		callKinds: []string{"call_expression"},
		callees:   []string{"process.exit"},
	}
	shell = terminals{
		callKinds: []string{"command"},
		callees:   []string{"exit", "return", "break", "continue"},
	}
)

var registry = map[lang.Language]terminals{
	lang.Go: {
		kinds:     []string{"return_statement", "break_statement", "continue_statement", "goto_statement"},
		callKinds: []string{"call_expression"},
		callees:   []string{"panic", "os.Exit", "log.Fatal", "log.Fatalf", "log.Fatalln", "log.Panic", "log.Panicf", "log.Panicln"},
	},
	lang.Rust: {
		kinds:     []string{"return_expression", "break_expression", "continue_expression"},
		callKinds: []string{"call_expression", "macro_invocation"},
		callees:   []string{"panic", "unreachable", "todo", "unimplemented", "process::exit", "std::process::exit"},
	},
	lang.Python: {
		kinds:     []string{"return_statement", "raise_statement", "break_statement", "continue_statement"},
		callKinds: []string{"call"},
		callees:   []string{"sys.exit", "exit", "quit", "os._exit"},
	},
	lang.JavaScript: ecma,
	lang.TypeScript: ecma,
	lang.Java: {
		kinds:     []string{"return_statement", "throw_statement", "break_statement", "continue_statement", "yield_statement"},
		callKinds: []string{"method_invocation"},
		callees:   []string{"System.exit"},
	},
	lang.CSharp: {
		kinds:     []string{"return_statement", "throw_statement", "break_statement", "continue_statement", "goto_statement"},
		callKinds: []string{"invocation_expression"},
		callees:   []string{"Environment.Exit"},
	},
	lang.C: cFamily,
	lang.Cpp: {
		kinds:     append([]string{"throw_statement"}, cFamily.kinds...),
		callKinds: cFamily.callKinds,
		callees:   append([]string{"std::exit", "std::abort", "std::terminate"}, cFamily.callees...),
	},
	lang.Swift: {
		kinds:     []string{"control_transfer_statement"},
		callKinds: []string{"call_expression"},
		callees:   []string{"fatalError", "preconditionFailure", "exit"},
	},
	lang.Scala: {
		kinds:     []string{"return_expression", "throw_expression"},
		callKinds: []string{"call_expression"},
		callees:   []string{"sys.exit", "System.exit"},
	},
	lang.PHP: {
		kinds:     []string{"return_statement", "throw_expression", "break_statement", "continue_statement", "exit_statement"},
		callKinds: []string{"function_call_expression"},
		callees:   []string{"exit", "die"},
	},
	lang.Lua: {
		kinds:     []string{"return_statement", "break_statement"},
		callKinds: []string{"function_call"},
		callees:   []string{"error", "os.exit"},
	},
	lang.Bash: shell,
	lang.Zsh:  shell,
}

// isTerminal reports whether n, after unwrapping an expression statement,
// unconditionally leaves the enclosing block.
func (t terminals) isTerminal(n *sitter.Node, src []byte) bool {
	n = unwrap(n)
	typ := n.Type()
	for _, k := range t.kinds {
		if typ == k {
			return true
		}
	}
	for _, k := range t.callKinds {
		if typ != k {
			continue
		}
		name := callee(n, src)
		for _, c := range t.callees {
			if name == c {
				return true
			}
		}
	}
	return false
}

func unwrap(n *sitter.Node) *sitter.Node {
	for n.Type() == "expression_statement" && n.NamedChildCount() == 1 {
		n = n.NamedChild(0)
	}
	return n
}

// callee returns the text naming what n calls: `panic`, `os.Exit`,
// `System.exit`, the macro name of `todo!()` or the command of `exit 1`.
func callee(n *sitter.Node, src []byte) string {
	for _, field := range []string{"function", "macro", "name"} {
		c := n.ChildByFieldName(field)
		if c == nil {
			continue
		}
		name := c.Content(src)
		if obj := n.ChildByFieldName("object"); obj != nil {
			name = obj.Content(src) + "." + name
		}
		return strings.TrimSpace(name)
	}
	if n.NamedChildCount() > 0 {
		return strings.TrimSpace(n.NamedChild(0).Content(src))
	}
	return ""
}
