package queries

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/lang"
)

// Query is a compiled query owned by a Cache. A Query built from text with
// no patterns is valid and never matches.
type Query struct {
	Language lang.Language
	Kind     Kind
	query    *sitter.Query
}

// Capture is one named node of a match.
type Capture struct {
	Name string
	Node *sitter.Node
}

// Match is one predicate-filtered match, in the order tree-sitter reports
// them.
type Match struct {
	PatternIndex int
	Captures     []Capture
}

// Find returns the first capture called name, or nil.
func (m Match) Find(name string) *sitter.Node {
	for _, c := range m.Captures {
		if c.Name == name {
			return c.Node
		}
	}
	return nil
}

// Empty reports whether the query has no patterns.
func (q *Query) Empty() bool { return q.query == nil }

// PatternCount is the number of patterns in the query.
func (q *Query) PatternCount() int {
	if q.query == nil {
		return 0
	}
	return int(q.query.PatternCount())
}

// Matches runs the query over root. Each call uses its own cursor, so a
// Query may be shared between goroutines.
func (q *Query) Matches(root *sitter.Node, source []byte) []Match {
	if q.query == nil || root == nil {
		return nil
	}
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q.query, root)

	var out []Match
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		m = cursor.FilterPredicates(m, source)
		if len(m.Captures) == 0 {
			continue
		}
		match := Match{PatternIndex: int(m.PatternIndex), Captures: make([]Capture, 0, len(m.Captures))}
		for _, c := range m.Captures {
			match.Captures = append(match.Captures, Capture{
				Name: q.query.CaptureNameForId(c.Index),
				Node: c.Node,
			})
		}
		out = append(out, match)
	}
	return out
}
