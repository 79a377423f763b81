package main

import (
	"github.com/jward/treehugger"
)

// FileSummary is one file's section of the JSON output. Only the fields
// the command asked for are filled.
type FileSummary struct {
	File     string                    `json:"file"`
	Language treehugger.Language       `json:"language"`
	Hash     string                    `json:"hash"`
	Symbols  []treehugger.SymbolInfo   `json:"symbols,omitempty"`
	Imports  []treehugger.ImportSymbol `json:"imports,omitempty"`
	Exports  []treehugger.SymbolInfo   `json:"exports,omitempty"`
	Locals   []treehugger.SymbolInfo   `json:"locals,omitempty"`
	Lint     []treehugger.Diagnostic   `json:"lint,omitempty"`
	Syntax   []treehugger.Diagnostic   `json:"syntax,omitempty"`
}

// PackageSummary is the JSON output of the per-file commands.
type PackageSummary struct {
	RootDir string        `json:"root_dir"`
	Files   []FileSummary `json:"files"`
}

// FileClasses is one file's section of the classes JSON output.
type FileClasses struct {
	File     string                    `json:"file"`
	Language treehugger.Language       `json:"language"`
	Classes  []treehugger.ClassSummary `json:"classes"`
}

// CheckResult is the JSON output of check.
type CheckResult struct {
	Analyzed    int                         `json:"analyzed"`
	Unchanged   int                         `json:"unchanged"`
	Removed     int                         `json:"removed"`
	Rebuilt     bool                        `json:"rebuilt,omitempty"`
	Failed      []CheckFailure              `json:"failed,omitempty"`
	Diagnostics []treehugger.PathDiagnostic `json:"diagnostics"`
}

// CheckFailure is a file check could not analyze.
type CheckFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}
