package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/treehugger"
	"github.com/jward/treehugger/internal/lang"
)

// symbolCommand selects what a per-file listing command fills in.
type symbolCommand int

const (
	cmdFunctions symbolCommand = iota
	cmdTypes
	cmdSymbols
	cmdExports
	cmdImports
)

func newSymbolCmd(use, short string, which symbolCommand) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [GLOB...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSymbols(cmd.Context(), cmd.OutOrStdout(), args, which)
		},
	}
}

var (
	functionsCmd = newSymbolCmd("functions", "List functions and methods", cmdFunctions)
	typesCmd     = newSymbolCmd("types", "List types, classes, interfaces and enums", cmdTypes)
	symbolsCmd   = newSymbolCmd("symbols", "List every symbol with imports, exports and locals", cmdSymbols)
	exportsCmd   = newSymbolCmd("exports", "List exported symbols", cmdExports)
	importsCmd   = newSymbolCmd("imports", "List imported symbols", cmdImports)
)

// session is what every file command needs: the working root, the files
// to visit and the options to open them with.
type session struct {
	root  string
	files []string
	opts  []treehugger.Option
}

func newSession(ctx context.Context, args []string) (*session, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	logger := newLogger()
	opts := fileOptions(cfg, logger)
	if flagLanguage != "" {
		l, err := lang.Parse(flagLanguage)
		if err != nil {
			return nil, err
		}
		opts = append(opts, treehugger.WithLanguage(l))
	}
	// One query cache for the whole run.
	opts = append(opts, treehugger.WithQueryCache(treehugger.NewQueryCache(logger)))
	files, err := collectFiles(ctx, root, args, cfg)
	if err != nil {
		return nil, err
	}
	return &session{root: root, files: files, opts: opts}, nil
}

// each opens every file in turn and calls fn with it.
func (s *session) each(ctx context.Context, fn func(f *treehugger.File) error) error {
	for _, path := range s.files {
		f, err := treehugger.Open(ctx, path, s.opts...)
		if err != nil {
			return err
		}
		err = fn(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func runSymbols(ctx context.Context, w io.Writer, args []string, which symbolCommand) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := newSession(ctx, args)
	if err != nil {
		return err
	}

	var summaries []FileSummary
	err = s.each(ctx, func(f *treehugger.File) error {
		summary, err := summarize(f, which)
		if err != nil {
			return err
		}
		summaries = append(summaries, summary)
		return nil
	})
	if err != nil {
		return err
	}

	out := newPrinter(w, s.root)
	if flagJSON {
		return out.json(PackageSummary{RootDir: s.root, Files: summaries})
	}
	for _, summary := range summaries {
		out.fileHeader(summary.File, summary.Language)
		switch which {
		case cmdImports:
			out.imports(summary.Imports)
		case cmdExports:
			out.symbols(summary.Exports)
		default:
			out.symbols(summary.Symbols)
		}
		out.blank()
	}
	return out.err
}

func summarize(f *treehugger.File, which symbolCommand) (FileSummary, error) {
	summary := FileSummary{File: f.Path(), Language: f.Language(), Hash: f.Hash()}
	var err error
	switch which {
	case cmdFunctions:
		summary.Symbols, err = f.Functions()
	case cmdTypes:
		summary.Symbols, err = f.Types()
	case cmdSymbols:
		if summary.Symbols, err = f.Symbols(); err != nil {
			return summary, err
		}
		if summary.Imports, err = f.ImportedSymbols(); err != nil {
			return summary, err
		}
		if summary.Exports, err = f.ExportedSymbols(); err != nil {
			return summary, err
		}
		summary.Locals, err = f.LocalSymbols()
	case cmdExports:
		summary.Exports, err = f.ExportedSymbols()
	case cmdImports:
		summary.Imports, err = f.ImportedSymbols()
	}
	return summary, err
}
