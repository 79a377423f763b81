package symbols

import (
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/model"
	"github.com/jward/treehugger/internal/queries"
)

// Imports returns the names brought into scope by the imports query, in
// source order.
func Imports(cache *queries.Cache, in Input) ([]model.ImportSymbol, error) {
	q, err := cache.Get(in.Language, queries.Imports)
	if err != nil {
		return nil, err
	}

	var out []model.ImportSymbol
	seen := make(map[span]bool)
	for _, m := range q.Matches(in.Root, in.Source) {
		name := m.Find("import.name")
		orig := m.Find("import.original")
		alias := m.Find("import.alias")
		source := m.Find("import.source")
		stmt := m.Find("import.statement")

		var imp model.ImportSymbol
		var at *sitter.Node
		if source != nil {
			imp.Source = unquote(text(source, in.Source))
		}
		if orig != nil {
			imp.Original = text(orig, in.Source)
		}
		switch {
		case alias != nil:
			imp.Alias = text(alias, in.Source)
			imp.Name = imp.Alias
			at = alias
		case name != nil:
			imp.Name = text(name, in.Source)
			at = name
		case orig != nil:
			imp.Name = lastSegment(imp.Original)
			at = orig
		case source != nil:
			if in.Language.ImportNameFromPath() {
				imp.Name = packageName(imp.Source)
			}
			at = source
		case stmt != nil:
			// The statement alone: it binds nothing we can name, but
			// references inside it are not uses.
			at = stmt
		default:
			continue
		}

		key := spanOf(at)
		if seen[key] {
			continue
		}
		seen[key] = true

		imp.Range = model.RangeOf(at)
		if stmt != nil {
			r := model.RangeOf(stmt)
			imp.StatementRange = &r
		}
		out = append(out, imp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Range.StartByte < out[j].Range.StartByte
	})
	return out, nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'' || first == '`') && first == last {
			return s[1 : len(s)-1]
		}
		if first == '<' && last == '>' {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func lastSegment(path string) string {
	i := strings.LastIndexAny(path, ".:/\\")
	return path[i+1:]
}

var (
	majorVersion = regexp.MustCompile(`^v[0-9]+$`)
	dotVersion   = regexp.MustCompile(`\.v[0-9]+$`)
)

// packageName guesses the identifier a Go import path binds: the last
// element, skipping a major-version suffix and the customary go- prefix.
func packageName(path string) string {
	parts := strings.Split(path, "/")
	name := parts[len(parts)-1]
	if majorVersion.MatchString(name) && len(parts) > 1 {
		name = parts[len(parts)-2]
	}
	name = dotVersion.ReplaceAllString(name, "")
	name = strings.TrimPrefix(name, "go-")
	name = strings.TrimSuffix(name, "-go")
	return strings.ReplaceAll(name, "-", "")
}
