package treehugger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/treehugger/internal/lang"
)

// skipDirs are never descended into by the filesystem walk.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	"target":       true,
}

// skipped reports whether a directory named dirName is left out of
// discovery and watching.
func skipped(dirName string) bool {
	return strings.HasPrefix(dirName, ".") || skipDirs[dirName]
}

// ListFiles returns every file under root that is not ignored. Inside a
// git repository it uses git ls-files; otherwise it walks the tree
// honouring .gitignore files, skipping hidden and dependency directories.
// Paths are absolute and sorted.
func ListFiles(ctx context.Context, root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	paths, err := gitListFiles(ctx, abs)
	if err != nil {
		if paths, err = walkListFiles(abs); err != nil {
			return nil, err
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// listFiles returns the supported source files under root that pass the
// configured include and exclude globs.
func (e *Engine) listFiles(ctx context.Context, root string) ([]string, error) {
	paths, err := ListFiles(ctx, root)
	if err != nil {
		return nil, err
	}
	out := paths[:0]
	for _, p := range paths {
		if e.admits(root, p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (e *Engine) admits(root, path string) bool {
	if e.opts.language == "" && !lang.Supported(path) {
		return false
	}
	if e.opts.config == nil {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return e.opts.config.Match(rel)
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root.
func gitListFiles(ctx context.Context, root string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		abs := filepath.Join(root, filepath.FromSlash(line))
		// Deleted but still tracked files are listed too.
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		paths = append(paths, abs)
	}
	return paths, nil
}

// ignoreScope is a .gitignore file and the directory it applies to.
type ignoreScope struct {
	dir     string
	matcher *gitignore.GitIgnore
}

func (s ignoreScope) ignores(path string) bool {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return s.matcher.MatchesPath(filepath.ToSlash(rel))
}

// walkListFiles discovers files by walking the filesystem, used when git
// is not available. Hidden directories, skipDirs and paths matched by any
// enclosing .gitignore are skipped.
func walkListFiles(root string) ([]string, error) {
	var (
		paths  []string
		scopes []ignoreScope
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		for len(scopes) > 0 && !within(path, scopes[len(scopes)-1].dir) {
			scopes = scopes[:len(scopes)-1]
		}
		for _, s := range scopes {
			if s.ignores(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if !d.IsDir() {
			paths = append(paths, path)
			return nil
		}
		if path != root && skipped(d.Name()) {
			return filepath.SkipDir
		}
		m, err := gitignore.CompileIgnoreFile(filepath.Join(path, ".gitignore"))
		switch {
		case err == nil:
			scopes = append(scopes, ignoreScope{dir: path, matcher: m})
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("read %s: %w", filepath.Join(path, ".gitignore"), err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}
