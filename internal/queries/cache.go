// Package queries compiles and caches the per-language tree-sitter queries
// that drive every analysis in treehugger.
package queries

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/singleflight"

	"github.com/jward/treehugger/internal/lang"
)

type cacheKey struct {
	language lang.Language
	kind     Kind
}

func (k cacheKey) String() string { return string(k.language) + "/" + string(k.kind) }

// Cache maps (language, kind) to a compiled Query. Entries live for the
// life of the cache. Concurrent misses on one key compile once and share
// the result.
type Cache struct {
	source  fs.FS
	logger  *slog.Logger
	compile func(text []byte, grammar *sitter.Language) (*sitter.Query, error)

	mu       sync.RWMutex
	entries  map[cacheKey]*Query
	group    singleflight.Group
	poisoned atomic.Bool
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithSource loads query text from fsys instead of the embedded tree.
func WithSource(fsys fs.FS) CacheOption {
	return func(c *Cache) { c.source = fsys }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

// NewCache returns an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		source:  Source(),
		logger:  slog.Default(),
		compile: sitter.NewQuery,
		entries: make(map[cacheKey]*Query),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	defaultCache *Cache
	defaultOnce  sync.Once
)

// Default returns the process-wide cache over the embedded queries.
func Default() *Cache {
	defaultOnce.Do(func() { defaultCache = NewCache() })
	return defaultCache
}

// Get returns the compiled query for (l, kind), compiling it on first use.
func (c *Cache) Get(l lang.Language, kind Kind) (*Query, error) {
	if c.poisoned.Load() {
		return nil, ErrCachePoisoned
	}
	key := cacheKey{language: l, kind: kind}

	c.mu.RLock()
	q, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return q, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		c.mu.RLock()
		q, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return q, nil
		}

		q, err := c.build(key)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = q
		c.mu.Unlock()
		c.logger.Debug("compiled query", "language", l, "kind", kind, "patterns", q.PatternCount())
		return q, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Query), nil
}

// Fingerprint hashes the query files the cache compiles from.
func (c *Cache) Fingerprint() (string, error) {
	return Fingerprint(c.source)
}

// Has reports whether (l, kind) resolves to a query without error.
func (c *Cache) Has(l lang.Language, kind Kind) bool {
	_, err := c.Get(l, kind)
	return err == nil
}

func (c *Cache) build(key cacheKey) (q *Query, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.poisoned.Store(true)
			q, err = nil, fmt.Errorf("%w: compiling %s: %v", ErrCachePoisoned, key, r)
		}
	}()

	text, err := loadText(c.source, key.language.QueryDir(), key.kind)
	if errors.Is(err, errMissingText) {
		return nil, &MissingQueryError{Language: key.language, Kind: key.kind}
	}
	if err != nil {
		return nil, err
	}

	q = &Query{Language: key.language, Kind: key.kind}
	if isBlank(text) {
		return q, nil
	}

	grammar, ok := key.language.Grammar()
	if !ok {
		return nil, &lang.UnsupportedError{Input: string(key.language)}
	}
	compiled, err := c.compile(text, grammar)
	if err != nil {
		return nil, &QueryError{Language: key.language, Kind: key.kind, Err: err}
	}
	q.query = compiled
	return q, nil
}
