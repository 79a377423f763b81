// Package lang holds the closed set of languages treehugger understands,
// the grammar behind each one, and the small per-language tables the rest
// of the analysis consults (comment markers, default visibility).
package lang

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/lua"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/scala"
	"github.com/smacker/go-tree-sitter/swift"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language identifies a supported source language. The zero value is not a
// valid language.
type Language string

const (
	Rust       Language = "rust"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Go         Language = "go"
	Python     Language = "python"
	Java       Language = "java"
	PHP        Language = "php"
	Bash       Language = "bash"
	Zsh        Language = "zsh"
	C          Language = "c"
	Cpp        Language = "cpp"
	CSharp     Language = "c_sharp"
	Swift      Language = "swift"
	Scala      Language = "scala"
	Lua        Language = "lua"
)

// All lists every supported language in a stable order.
var All = []Language{
	Rust, JavaScript, TypeScript, Go, Python, Java, PHP,
	Bash, Zsh, C, Cpp, CSharp, Swift, Scala, Lua,
}

// extToLanguage maps lower-cased file extensions to languages.
var extToLanguage = map[string]Language{
	".rs":    Rust,
	".js":    JavaScript,
	".jsx":   JavaScript,
	".mjs":   JavaScript,
	".cjs":   JavaScript,
	".ts":    TypeScript,
	".mts":   TypeScript,
	".cts":   TypeScript,
	".go":    Go,
	".py":    Python,
	".pyi":   Python,
	".java":  Java,
	".php":   PHP,
	".sh":    Bash,
	".bash":  Bash,
	".zsh":   Zsh,
	".c":     C,
	".h":     C,
	".cpp":   Cpp,
	".cc":    Cpp,
	".cxx":   Cpp,
	".hpp":   Cpp,
	".hh":    Cpp,
	".hxx":   Cpp,
	".cs":    CSharp,
	".swift": Swift,
	".scala": Scala,
	".sc":    Scala,
	".lua":   Lua,
}

// aliases accepts the names users commonly type on the command line.
var aliases = map[string]Language{
	"js":     JavaScript,
	"ts":     TypeScript,
	"golang": Go,
	"py":     Python,
	"rs":     Rust,
	"sh":     Bash,
	"shell":  Bash,
	"c++":    Cpp,
	"csharp": CSharp,
	"cs":     CSharp,
	"c#":     CSharp,
}

var (
	grammars     map[Language]*sitter.Language
	grammarsOnce sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		grammars = map[Language]*sitter.Language{
			Rust:       rust.GetLanguage(),
			JavaScript: javascript.GetLanguage(),
			TypeScript: ts.GetLanguage(),
			Go:         golang.GetLanguage(),
			Python:     python.GetLanguage(),
			Java:       java.GetLanguage(),
			PHP:        php.GetLanguage(),
			Bash:       bash.GetLanguage(),
			Zsh:        bash.GetLanguage(),
			C:          c.GetLanguage(),
			Cpp:        cpp.GetLanguage(),
			CSharp:     csharp.GetLanguage(),
			Swift:      swift.GetLanguage(),
			Scala:      scala.GetLanguage(),
			Lua:        lua.GetLanguage(),
		}
	})
}

// UnsupportedError reports a path or name that maps to no language.
type UnsupportedError struct {
	Input string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported language for %q", e.Input)
}

// ForPath detects a file's language from its extension.
func ForPath(path string) (Language, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if l, ok := extToLanguage[ext]; ok {
		return l, nil
	}
	return "", &UnsupportedError{Input: path}
}

// Parse resolves a language name given by a user. Matching is
// case-insensitive and accepts a handful of aliases.
func Parse(name string) (Language, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, l := range All {
		if string(l) == n {
			return l, nil
		}
	}
	if l, ok := aliases[n]; ok {
		return l, nil
	}
	return "", &UnsupportedError{Input: name}
}

// Extensions returns the file extensions mapped to l, sorted.
func Extensions(l Language) []string {
	var out []string
	for ext, el := range extToLanguage {
		if el == l {
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}

// Supported reports whether path has an extension treehugger understands.
func Supported(path string) bool {
	_, err := ForPath(path)
	return err == nil
}

// Grammar returns the tree-sitter grammar for l.
func (l Language) Grammar() (*sitter.Language, bool) {
	initGrammars()
	g, ok := grammars[l]
	return g, ok
}

// QueryDir is the directory under the embedded query tree that holds l's
// queries. Zsh shares the Bash grammar and therefore its queries.
func (l Language) QueryDir() string {
	if l == Zsh {
		return string(Bash)
	}
	return string(l)
}

func (l Language) String() string { return string(l) }

// ParseSource parses src with l's grammar. The caller owns the returned tree
// and must Close it.
func ParseSource(ctx context.Context, l Language, src []byte) (*sitter.Tree, error) {
	g, ok := l.Grammar()
	if !ok {
		return nil, &UnsupportedError{Input: string(l)}
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s source: %w", l, err)
	}
	return tree, nil
}
