package queries

import (
	"bufio"
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

//go:embed scm
var embedded embed.FS

// Source returns the query tree bundled with the binary, rooted so that
// paths look like "go/locals.scm".
func Source() fs.FS {
	sub, err := fs.Sub(embedded, "scm")
	if err != nil {
		panic(fmt.Sprintf("queries: embedded tree: %v", err))
	}
	return sub
}

const inheritsPrefix = "; inherits:"

// loadText reads dir/kind.scm and prepends the text of every base it
// inherits from. Bases are loaded depth first and each is included once.
func loadText(fsys fs.FS, dir string, kind Kind) ([]byte, error) {
	var buf bytes.Buffer
	seen := map[string]bool{}
	if err := appendText(fsys, dir, kind, seen, &buf, true); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendText(fsys fs.FS, dir string, kind Kind, seen map[string]bool, buf *bytes.Buffer, top bool) error {
	if seen[dir] {
		return nil
	}
	seen[dir] = true

	data, err := fs.ReadFile(fsys, path.Join(dir, kind.fileName()))
	if errors.Is(err, fs.ErrNotExist) {
		if kind == Locals || !top {
			return &MissingVendorQueryError{Name: dir}
		}
		return errMissingText
	}
	if err != nil {
		return fmt.Errorf("reading %s/%s: %w", dir, kind.fileName(), err)
	}

	for _, base := range inherits(data) {
		if err := appendText(fsys, base, kind, seen, buf, false); err != nil {
			return err
		}
	}
	buf.Write(data)
	buf.WriteByte('\n')
	return nil
}

var errMissingText = errors.New("query text not found")

// inherits returns the base names listed on "; inherits: a, b" lines.
func inherits(data []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		rest, ok := strings.CutPrefix(line, inheritsPrefix)
		if !ok {
			continue
		}
		for _, name := range strings.Split(rest, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// isBlank reports whether text holds nothing but whitespace and ";"
// comments.
func isBlank(text []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, ";") {
			return false
		}
	}
	return true
}

// Fingerprint hashes every query file in fsys. It changes whenever any
// query is added, removed or edited.
func Fingerprint(fsys fs.FS) (string, error) {
	var paths []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".scm") {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking query tree: %w", err)
	}
	sort.Strings(paths)

	h := xxhash.New()
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", p, err)
		}
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(data)
	}
	return strconv.FormatUint(h.Sum64(), 16), nil
}
