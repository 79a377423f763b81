package treehugger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// benchSource builds a Go file with n small functions.
func benchSource(n int) []byte {
	var b strings.Builder
	b.WriteString("package bench\n\nimport \"fmt\"\n\n")
	for i := range n {
		fmt.Fprintf(&b, "func F%d(x int) int {\n\ty := x + %d\n\tfmt.Println(y)\n\treturn y\n}\n\n", i, i)
	}
	return []byte(b.String())
}

func BenchmarkParse(b *testing.B) {
	src := benchSource(200)
	ctx := context.Background()
	b.ResetTimer()
	for range b.N {
		f, err := Parse(ctx, "bench.go", src)
		if err != nil {
			b.Fatal(err)
		}
		f.Close()
	}
}

func BenchmarkDiagnostics(b *testing.B) {
	src := benchSource(200)
	ctx := context.Background()
	b.ResetTimer()
	for range b.N {
		f, err := Parse(ctx, "bench.go", src)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := f.Diagnostics(ctx); err != nil {
			b.Fatal(err)
		}
		f.Close()
	}
}

func BenchmarkAnalyzeFiles(b *testing.B) {
	dir := b.TempDir()
	var paths []string
	for i := range 50 {
		p := filepath.Join(dir, fmt.Sprintf("f%d.go", i))
		if err := os.WriteFile(p, benchSource(20), 0o644); err != nil {
			b.Fatal(err)
		}
		paths = append(paths, p)
	}
	ctx := context.Background()
	b.ResetTimer()
	for range b.N {
		b.StopTimer()
		e, err := New(filepath.Join(b.TempDir(), "bench.db"))
		if err != nil {
			b.Fatal(err)
		}
		b.StartTimer()
		if _, err := e.AnalyzeFiles(ctx, paths); err != nil {
			b.Fatal(err)
		}
		b.StopTimer()
		e.Close()
		b.StartTimer()
	}
}
