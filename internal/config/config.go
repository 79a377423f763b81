// Package config loads the project configuration file, .treehugger.toml.
//
//	[rules]
//	disabled = ["fmt-print"]
//
//	[rules.severity]
//	unused-import = "error"
//
//	[files]
//	include = ["src/**"]
//	exclude = ["**/testdata/**"]
//
//	[analysis]
//	workers = 4
//	database = ".treehugger/cache.db"
//
//	[scripts]
//	dir = "rules"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"

	"github.com/jward/treehugger/internal/diagnostics"
	"github.com/jward/treehugger/internal/model"
)

const (
	// FileName is looked up in the analyzed directory.
	FileName = ".treehugger.toml"
	// EnvPath names a config file to use instead of FileName.
	EnvPath = "TREEHUGGER_CONFIG"
	// DefaultDatabase is the cache location, relative to the config's
	// directory.
	DefaultDatabase = ".treehugger/cache.db"
)

type Config struct {
	Rules    Rules    `toml:"rules"`
	Files    Files    `toml:"files"`
	Analysis Analysis `toml:"analysis"`
	Scripts  Scripts  `toml:"scripts"`

	// Dir is the directory relative paths are resolved against: the
	// directory holding the file, or the analyzed root for the default.
	Dir string `toml:"-"`
	// Path is the file the configuration was read from, if any.
	Path string `toml:"-"`
}

type Rules struct {
	Disabled []string          `toml:"disabled"`
	Severity map[string]string `toml:"severity"`
}

type Files struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

type Analysis struct {
	Workers  int    `toml:"workers"` // 0 = NumCPU
	Database string `toml:"database"`
}

type Scripts struct {
	Dir string `toml:"dir"`
}

// Error reports a configuration file that could not be used.
type Error struct {
	Path  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config %s: %s: %v", e.Path, e.Field, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Default is the configuration used when no file exists.
func Default(dir string) *Config {
	return &Config{
		Dir:      dir,
		Analysis: Analysis{Database: DefaultDatabase},
	}
}

// Find loads the configuration for the project rooted at root. The file
// named by TREEHUGGER_CONFIG wins; otherwise root/.treehugger.toml is used
// when present, and the defaults when not.
func Find(root string) (*Config, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return Load(p)
	}
	p := filepath.Join(root, FileName)
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		return Default(root), nil
	}
	return Load(p)
}

// Load reads and validates a configuration file. Unknown keys are errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	cfg.Path = path
	cfg.Dir = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML text on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default("")
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%s", strict.String())
		}
		return nil, err
	}
	if cfg.Analysis.Database == "" {
		cfg.Analysis.Database = DefaultDatabase
	}
	return cfg, nil
}

// Validate checks severities, globs and the worker count.
func (c *Config) Validate() error {
	for rule, sev := range c.Rules.Severity {
		if _, err := model.ParseSeverity(sev); err != nil {
			return &Error{Path: c.Path, Field: "rules.severity." + rule, Err: err}
		}
	}
	for _, g := range c.Files.Include {
		if !doublestar.ValidatePattern(g) {
			return &Error{Path: c.Path, Field: "files.include", Err: fmt.Errorf("invalid glob %q", g)}
		}
	}
	for _, g := range c.Files.Exclude {
		if !doublestar.ValidatePattern(g) {
			return &Error{Path: c.Path, Field: "files.exclude", Err: fmt.Errorf("invalid glob %q", g)}
		}
	}
	if c.Analysis.Workers < 0 {
		return &Error{Path: c.Path, Field: "analysis.workers", Err: fmt.Errorf("must not be negative, got %d", c.Analysis.Workers)}
	}
	return nil
}

// RuleConfig converts the [rules] table for the diagnostics engine.
// Severities are assumed valid; Validate rejects the others.
func (c *Config) RuleConfig() diagnostics.Rules {
	r := diagnostics.Rules{
		Disabled: make(map[string]bool, len(c.Rules.Disabled)),
		Severity: make(map[string]model.Severity, len(c.Rules.Severity)),
	}
	for _, rule := range c.Rules.Disabled {
		r.Disabled[rule] = true
	}
	for rule, s := range c.Rules.Severity {
		if sev, err := model.ParseSeverity(s); err == nil {
			r.Severity[rule] = sev
		}
	}
	return r
}

// Workers is the analysis worker count.
func (c *Config) Workers() int {
	if c.Analysis.Workers > 0 {
		return c.Analysis.Workers
	}
	return runtime.NumCPU()
}

// DatabasePath is the cache database, resolved against Dir.
func (c *Config) DatabasePath() string {
	return c.resolve(c.Analysis.Database)
}

// ScriptsDir is the rule script directory resolved against Dir, or "".
func (c *Config) ScriptsDir() string {
	if c.Scripts.Dir == "" {
		return ""
	}
	return c.resolve(c.Scripts.Dir)
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Match reports whether a slash-separated path relative to the project
// root passes the include and exclude globs. An empty include list
// admits everything.
func (c *Config) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	if len(c.Files.Include) > 0 && !matchAny(c.Files.Include, rel) {
		return false
	}
	return !matchAny(c.Files.Exclude, rel)
}

func matchAny(globs []string, rel string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}
