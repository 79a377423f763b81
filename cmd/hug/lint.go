package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/jward/treehugger"
	"github.com/jward/treehugger/internal/model"
)

var (
	flagLintOnly   bool
	flagSyntaxOnly bool
)

var lintCmd = &cobra.Command{
	Use:   "lint [GLOB...]",
	Short: "Report syntax, semantic and lint diagnostics",
	Long:  "Reports diagnostics for each file. Exits 1 when any Error-severity diagnostic is found.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLint(cmd.Context(), cmd.OutOrStdout(), args)
	},
}

func init() {
	lintCmd.Flags().BoolVar(&flagLintOnly, "lint-only", false, "show only lint and semantic diagnostics")
	lintCmd.Flags().BoolVar(&flagSyntaxOnly, "syntax-only", false, "show only syntax diagnostics")
	lintCmd.MarkFlagsMutuallyExclusive("lint-only", "syntax-only")
}

func runLint(ctx context.Context, w io.Writer, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := newSession(ctx, args)
	if err != nil {
		return err
	}

	var (
		summaries []FileSummary
		failed    bool
	)
	err = s.each(ctx, func(f *treehugger.File) error {
		report, err := f.Analyze(ctx)
		if err != nil {
			return err
		}
		summary := FileSummary{File: f.Path(), Language: f.Language(), Hash: f.Hash()}
		for _, d := range report.Diagnostics {
			switch {
			case d.Kind == model.DiagnosticSyntax && !flagLintOnly:
				summary.Syntax = append(summary.Syntax, d)
			case d.Kind != model.DiagnosticSyntax && !flagSyntaxOnly:
				summary.Lint = append(summary.Lint, d)
			default:
				continue
			}
			if d.Severity == model.SeverityError {
				failed = true
			}
		}
		summaries = append(summaries, summary)
		return nil
	})
	if err != nil {
		return err
	}

	out := newPrinter(w, s.root)
	if flagJSON {
		if err := out.json(PackageSummary{RootDir: s.root, Files: summaries}); err != nil {
			return err
		}
	} else {
		for _, summary := range summaries {
			out.fileHeader(summary.File, summary.Language)
			diags := append(append([]treehugger.Diagnostic{}, summary.Lint...), summary.Syntax...)
			out.diagnostics(summary.File, diags, emptyLabel())
			out.blank()
		}
		if out.err != nil {
			return out.err
		}
	}
	if failed {
		return errFindings
	}
	return nil
}

func emptyLabel() string {
	switch {
	case flagLintOnly:
		return "(no lint diagnostics)"
	case flagSyntaxOnly:
		return "(no syntax diagnostics)"
	}
	return "(no diagnostics)"
}
