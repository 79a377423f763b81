package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jward/treehugger"
	"github.com/jward/treehugger/internal/config"
	"github.com/jward/treehugger/internal/lang"
	"github.com/jward/treehugger/scripts"
)

var (
	flagLanguage  string
	flagIgnore    []string
	flagJSON      bool
	flagPlain     bool
	flagConfig    string
	flagScripts   string
	flagNoBundled bool
	flagVerbose   bool
)

// errFindings reports that Error-severity diagnostics were printed. main
// exits 1 without printing anything further.
var errFindings = errors.New("error-severity diagnostics reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "hug",
	Short:         "Tree-sitter symbols and diagnostics",
	Long:          "hug lists the symbols, imports and exports of source files and reports syntax, semantic and lint diagnostics using tree-sitter queries.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		if flagJSON && flagPlain {
			return errors.New("--json and --plain are mutually exclusive")
		}
		if flagLanguage != "" {
			if _, err := lang.Parse(flagLanguage); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagLanguage, "language", "", "force a language instead of detecting it from the extension")
	pf.StringArrayVar(&flagIgnore, "ignore", nil, "glob of files to ignore (repeatable)")
	pf.BoolVar(&flagJSON, "json", false, "output JSON")
	pf.BoolVar(&flagPlain, "plain", false, "disable colors")
	pf.StringVar(&flagConfig, "config", "", "configuration file (default: .treehugger.toml, or $"+config.EnvPath+")")
	pf.StringVar(&flagScripts, "scripts", "", "directory of Risor rule scripts")
	pf.BoolVar(&flagNoBundled, "no-bundled-rules", false, "do not run the bundled rule scripts")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(functionsCmd, typesCmd, symbolsCmd, exportsCmd, importsCmd)
	rootCmd.AddCommand(classesCmd, lintCmd, checkCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads --config when given, otherwise looks for the project
// configuration under root.
func loadConfig(root string) (*config.Config, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	return config.Find(root)
}

// fileOptions builds the options shared by every command.
func fileOptions(cfg *config.Config, logger *slog.Logger) []treehugger.Option {
	opts := []treehugger.Option{
		treehugger.WithConfig(cfg),
		treehugger.WithLogger(logger),
	}
	switch {
	case flagScripts != "":
		opts = append(opts, treehugger.WithScripts(flagScripts))
	case cfg.ScriptsDir() != "":
		// WithConfig supplies it.
	case !flagNoBundled:
		opts = append(opts, treehugger.WithScriptsFS(scripts.FS))
	}
	return opts
}

// displayPath shortens path relative to root for output.
func displayPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
