package queries

// Kind names one of the per-language query files.
type Kind string

const (
	// Locals captures definitions (@definition.<kind>) and their context
	// nodes. Every language must provide it.
	Locals Kind = "locals"
	// Imports captures @import.name/.original/.alias/.source/.statement.
	Imports Kind = "imports"
	// Exports captures the name nodes of exported definitions (@export).
	Exports Kind = "exports"
	// References captures identifier uses (@reference, @reference.<kind>).
	References Kind = "references"
	// Lint captures rule violations (@diagnostic.<rule-id>).
	Lint Kind = "lint"
	// Comments captures comment nodes (@comment).
	Comments Kind = "comments"
)

// Kinds lists every query kind.
var Kinds = []Kind{Locals, Imports, Exports, References, Lint, Comments}

func (k Kind) fileName() string { return string(k) + ".scm" }

func (k Kind) String() string { return string(k) }
