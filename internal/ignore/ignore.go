// Package ignore reads tree-hugger-ignore directives out of source comments.
//
//	// tree-hugger-ignore: unused-symbol, dead-code   next line, listed rules
//	// tree-hugger-ignore                             next line, every rule
//	// tree-hugger-ignore-file: unused-import         whole file, listed rules
//	// tree-hugger-ignore-file                        whole file, every rule
package ignore

import (
	"bufio"
	"bytes"
	"errors"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/model"
	"github.com/jward/treehugger/internal/queries"
)

// All is the rule key meaning every rule.
const All = "all"

const (
	linePrefix = "tree-hugger-ignore"
	filePrefix = "tree-hugger-ignore-file"
)

// Directives is the parsed suppression state of one file. It is not
// modified after Parse returns.
type Directives struct {
	lines map[int]map[string]bool
	file  map[string]bool
}

func newDirectives() *Directives {
	return &Directives{
		lines: make(map[int]map[string]bool),
		file:  make(map[string]bool),
	}
}

// Parse collects the directives of a file. Comment nodes come from the
// language's comments query; a language without one is scanned line by
// line for its comment prefixes, which can be fooled by directive text
// inside string literals.
func Parse(cache *queries.Cache, root *sitter.Node, source []byte, l lang.Language) (*Directives, error) {
	if root == nil {
		return ParseText(source, l), nil
	}
	q, err := cache.Get(l, queries.Comments)
	if errors.Is(err, queries.ErrMissingQuery) {
		return ParseText(source, l), nil
	}
	if err != nil {
		return nil, err
	}

	d := newDirectives()
	var comments []*sitter.Node
	for _, m := range q.Matches(root, source) {
		if n := m.Find("comment"); n != nil {
			comments = append(comments, n)
		}
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].StartByte() < comments[j].StartByte()
	})
	for _, n := range comments {
		// The directive applies to the line after the comment ends.
		target := int(n.EndPoint().Row) + 2
		for _, line := range strings.Split(n.Content(source), "\n") {
			d.apply(commentBody(line), target)
		}
	}
	return d, nil
}

// ParseText scans source line by line, recognising line comments that
// start with one of l's prefixes and single-line /* */ block comments.
func ParseText(source []byte, l lang.Language) *Directives {
	d := newDirectives()
	prefixes := l.CommentPrefixes()
	sc := bufio.NewScanner(bytes.NewReader(source))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		body, ok := "", false
		for _, p := range prefixes {
			if rest, found := strings.CutPrefix(line, p); found {
				body, ok = strings.TrimSpace(rest), true
				break
			}
		}
		if !ok && l.HasBlockComments() && strings.HasPrefix(line, "/*") {
			body, ok = commentBody(line), true
		}
		if ok {
			d.apply(body, lineNum+1)
		}
	}
	return d
}

var markers = []string{"/**", "/*", "///", "//!", "//", "#", "--", ";;", ";", "*"}

// commentBody strips comment markers from one line of comment text.
func commentBody(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimSpace(strings.TrimSuffix(line, "*/"))
	for _, m := range markers {
		if rest, ok := strings.CutPrefix(line, m); ok {
			return strings.TrimSpace(rest)
		}
	}
	return line
}

func (d *Directives) apply(body string, target int) {
	if rest, ok := directive(body, filePrefix); ok {
		for _, r := range rules(rest) {
			d.file[r] = true
		}
		return
	}
	if rest, ok := directive(body, linePrefix); ok {
		set := make(map[string]bool)
		for _, r := range rules(rest) {
			set[r] = true
		}
		// A later directive for the same line replaces the earlier one.
		d.lines[target] = set
	}
}

// directive reports whether body starts with prefix as a whole word.
func directive(body, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(body, prefix)
	if !ok {
		return "", false
	}
	if rest != "" && rest[0] != ':' && rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return rest, true
}

func rules(rest string) []string {
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), ":"))
	var out []string
	for _, r := range strings.Split(rest, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return []string{All}
	}
	return out
}

// Suppressed reports whether rule is silenced at the 1-based line. The
// empty rule, used by syntax diagnostics, is never suppressed.
func (d *Directives) Suppressed(line int, rule string) bool {
	if d == nil || rule == "" {
		return false
	}
	if d.file[All] || d.file[rule] {
		return true
	}
	set := d.lines[line]
	return set[All] || set[rule]
}

// Empty reports whether the file carries no directives.
func (d *Directives) Empty() bool {
	return d == nil || (len(d.lines) == 0 && len(d.file) == 0)
}

// Filter drops the diagnostics suppressed at their start line.
func (d *Directives) Filter(diags []model.Diagnostic) []model.Diagnostic {
	if d.Empty() {
		return diags
	}
	out := make([]model.Diagnostic, 0, len(diags))
	for _, diag := range diags {
		if !d.Suppressed(diag.Range.StartLine, diag.Rule) {
			out = append(out, diag)
		}
	}
	return out
}
