package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jward/treehugger"
	"github.com/jward/treehugger/internal/config"
	"github.com/jward/treehugger/internal/lang"
)

// collectFiles resolves the positional globs against root. With no globs
// every supported file is used. --ignore globs, the configuration's
// include and exclude globs and --language all narrow the result.
func collectFiles(ctx context.Context, root string, inputs []string, cfg *config.Config) ([]string, error) {
	for _, g := range append(append([]string{}, inputs...), flagIgnore...) {
		if !doublestar.ValidatePattern(filepath.ToSlash(g)) {
			return nil, fmt.Errorf("invalid glob %q", g)
		}
	}

	all, err := treehugger.ListFiles(ctx, root)
	if err != nil {
		return nil, err
	}

	var forced lang.Language
	if flagLanguage != "" {
		if forced, err = lang.Parse(flagLanguage); err != nil {
			return nil, err
		}
	}

	var files []string
	for _, path := range all {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if len(inputs) > 0 && !matchAny(inputs, rel) {
			continue
		}
		if matchAny(flagIgnore, rel) || !cfg.Match(rel) {
			continue
		}
		l, err := lang.ForPath(path)
		if err != nil {
			continue
		}
		if forced != "" && l != forced {
			continue
		}
		files = append(files, path)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no source files found in %s", root)
	}
	return files, nil
}

// matchAny matches rel against each glob. A glob without a slash also
// matches the base name, so "*.go" finds Go files at any depth.
func matchAny(globs []string, rel string) bool {
	base := filepath.Base(rel)
	for _, g := range globs {
		g = filepath.ToSlash(g)
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
		if !strings.Contains(g, "/") {
			if ok, _ := doublestar.Match(g, base); ok {
				return true
			}
		}
	}
	return false
}
