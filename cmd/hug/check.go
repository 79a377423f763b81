package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/treehugger"
	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/internal/model"
)

var (
	flagDB      string
	flagForce   bool
	flagWorkers int
	flagWatch   bool
)

var checkCmd = &cobra.Command{
	Use:   "check [DIR]",
	Short: "Analyze a directory into the SQLite cache and report its diagnostics",
	Long: "Analyzes every supported file under DIR, re-analyzing only files whose content changed " +
		"since the last run. Exits 1 when any Error-severity diagnostic is stored or a file fails to analyze.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
	},
}

func init() {
	checkCmd.Flags().StringVar(&flagDB, "db", "", "cache database (default: from configuration)")
	checkCmd.Flags().BoolVar(&flagForce, "force", false, "delete the cache and analyze from scratch")
	checkCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel workers (default: from configuration)")
	checkCmd.Flags().BoolVar(&flagWatch, "watch", false, "keep running and re-check when files change")
}

func runCheck(ctx context.Context, w, stderr io.Writer, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving path %q: %w", dir, err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", root)
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	cfg.Files.Exclude = append(cfg.Files.Exclude, flagIgnore...)
	logger := newLogger()
	opts := fileOptions(cfg, logger)
	if flagLanguage != "" {
		l, err := lang.Parse(flagLanguage)
		if err != nil {
			return err
		}
		opts = append(opts, treehugger.WithLanguages(l))
	}
	if flagWorkers > 0 {
		opts = append(opts, treehugger.WithWorkers(flagWorkers))
	}

	dbPath := cfg.DatabasePath()
	if flagDB != "" {
		if dbPath, err = filepath.Abs(flagDB); err != nil {
			return err
		}
	}
	if flagForce {
		for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing database for --force: %w", err)
			}
		}
	}

	engine, err := treehugger.New(dbPath, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	if flagWatch {
		return engine.Watch(ctx, root, func(summary *treehugger.Summary, err error) {
			if err != nil {
				fmt.Fprintf(stderr, "Error: analyzing: %s\n", err)
				return
			}
			if err := reportCheck(engine, root, summary, w, stderr); err != nil && !errors.Is(err, errFindings) {
				fmt.Fprintf(stderr, "Error: %s\n", err)
			}
		})
	}

	summary, err := engine.AnalyzeDirectory(ctx, root)
	if err != nil {
		return fmt.Errorf("analyzing: %w", err)
	}
	return reportCheck(engine, root, summary, w, stderr)
}

// reportCheck prints the stored diagnostics and a run summary. It returns
// errFindings when a file failed or an Error diagnostic is stored.
func reportCheck(engine *treehugger.Engine, root string, summary *treehugger.Summary, w, stderr io.Writer) error {
	diags, err := engine.AllDiagnostics()
	if err != nil {
		return err
	}

	result := CheckResult{
		Analyzed:    summary.Analyzed,
		Unchanged:   summary.Unchanged,
		Removed:     summary.Removed,
		Rebuilt:     summary.Rebuilt,
		Diagnostics: diags,
	}
	if result.Diagnostics == nil {
		result.Diagnostics = []treehugger.PathDiagnostic{}
	}
	for _, f := range summary.Failed {
		result.Failed = append(result.Failed, CheckFailure{Path: f.Path, Error: f.Err.Error()})
	}

	out := newPrinter(w, root)
	if flagJSON {
		if err := out.json(result); err != nil {
			return err
		}
	} else {
		out.pathDiagnostics(diags)
		if out.err != nil {
			return out.err
		}
	}

	for _, f := range result.Failed {
		fmt.Fprintf(stderr, "failed: %s: %s\n", displayPath(root, f.Path), f.Error)
	}
	fmt.Fprintf(stderr, "Checked %s in %s: %d analyzed, %d unchanged, %d removed\n",
		root, summary.Duration.Round(time.Millisecond), result.Analyzed, result.Unchanged, result.Removed)
	if summary.Rebuilt {
		fmt.Fprintln(stderr, "Analysis settings changed; cache rebuilt")
	}

	if len(result.Failed) > 0 {
		return errFindings
	}
	for _, d := range diags {
		if d.Diagnostic.Severity == model.SeverityError {
			return errFindings
		}
	}
	return nil
}
