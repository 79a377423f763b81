package lang

// CommentPrefixes returns the line-comment markers of l, longest first so
// that ";;" is stripped before ";".
func (l Language) CommentPrefixes() []string {
	switch l {
	case Python, Bash, Zsh:
		return []string{"#"}
	case PHP:
		return []string{"//", "#"}
	case Lua:
		return []string{"--"}
	default:
		return []string{"//"}
	}
}

// HasBlockComments reports whether l supports /* ... */ comments.
func (l Language) HasBlockComments() bool {
	switch l {
	case Python, Bash, Zsh, Lua:
		return false
	}
	return true
}

// ImportNameFromPath reports whether an import in l binds the last segment
// of its path when no explicit name is given (Go's `import "net/http"`
// binds http).
func (l Language) ImportNameFromPath() bool {
	return l == Go
}
