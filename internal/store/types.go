package store

import "time"

type File struct {
	ID           int64
	Path         string
	Language     string
	Hash         string
	LineCount    int
	LastAnalyzed time.Time
	// Error is set when analysis failed with a configuration-class error.
	Error string
}

type Symbol struct {
	ID         int64
	FileID     int64
	Name       string
	Kind       string
	Visibility string
	Exported   bool
	Doc        string
	Signature  string
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
}

type Import struct {
	ID        int64
	FileID    int64
	Name      string
	Original  string
	Alias     string
	Source    string
	StartLine int
	StartCol  int
}

type Diagnostic struct {
	ID           int64
	FileID       int64
	Kind         string
	Severity     string
	Rule         string
	Message      string
	StartLine    int
	StartCol     int
	EndLine      int
	EndCol       int
	StartByte    int
	EndByte      int
	LineText     string
	UnderlineCol int
	UnderlineLen int
}

// FileDiagnostic pairs a stored diagnostic with its file's path.
type FileDiagnostic struct {
	Path       string
	Diagnostic Diagnostic
}
