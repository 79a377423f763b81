package runtime

import (
	"context"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treehugger/internal/lang"
)

// sourceStore tracks source bytes and language for each tree a script can
// reach. node_text and query need to recover source/language from a Node,
// but smacker/go-tree-sitter doesn't expose Node.Tree(). We store mappings
// keyed by root node pointer and find the root by walking up Parent() at
// lookup time.
type sourceStore struct {
	mu      sync.RWMutex
	sources map[uintptr][]byte
	langs   map[uintptr]lang.Language
}

func newSourceStore() *sourceStore {
	return &sourceStore{
		sources: make(map[uintptr][]byte),
		langs:   make(map[uintptr]lang.Language),
	}
}

func (s *sourceStore) store(root *sitter.Node, src []byte, l lang.Language) {
	key := uintptr(unsafe.Pointer(root))
	s.mu.Lock()
	s.sources[key] = src
	s.langs[key] = l
	s.mu.Unlock()
}

func (s *sourceStore) remove(root *sitter.Node) {
	key := uintptr(unsafe.Pointer(root))
	s.mu.Lock()
	delete(s.sources, key)
	delete(s.langs, key)
	s.mu.Unlock()
}

// rootOf walks a node up to its root via Parent().
func rootOf(node *sitter.Node) *sitter.Node {
	for node.Parent() != nil {
		node = node.Parent()
	}
	return node
}

func (s *sourceStore) sourceForNode(node *sitter.Node) ([]byte, bool) {
	key := uintptr(unsafe.Pointer(rootOf(node)))
	s.mu.RLock()
	src, ok := s.sources[key]
	s.mu.RUnlock()
	return src, ok
}

func (s *sourceStore) languageForNode(node *sitter.Node) (lang.Language, bool) {
	key := uintptr(unsafe.Pointer(rootOf(node)))
	s.mu.RLock()
	l, ok := s.langs[key]
	s.mu.RUnlock()
	return l, ok
}

// nodeArg unwraps a proxied *sitter.Node.
func nodeArg(obj object.Object) (*sitter.Node, bool) {
	proxy, ok := obj.(*object.Proxy)
	if !ok {
		return nil, false
	}
	node, ok := proxy.Interface().(*sitter.Node)
	return node, ok && node != nil
}

// builtin wraps fn with an arity check and hands it the arguments.
func builtin(name string, arity int, fn func(ctx context.Context, args []object.Object) object.Object) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != arity {
			return object.NewArgsError(name, arity, len(args))
		}
		return fn(ctx, args)
	})
}

func proxy(fn string, v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		return object.Errorf("%s: proxy error: %v", fn, err)
	}
	return p
}

// parse_src(source, language) parses a second tree. Rule scripts get
// their own file already parsed; helpers and tests use this.
func makeParseSrcFn(ss *sourceStore) *object.Builtin {
	return builtin("parse_src", 2, func(ctx context.Context, args []object.Object) object.Object {
		src, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("parse_src: source must be a string, got %s", args[0].Type())
		}
		name, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("parse_src: language must be a string, got %s", args[1].Type())
		}
		l, err := lang.Parse(name.Value())
		if err != nil {
			return object.Errorf("parse_src: %v", err)
		}
		b := []byte(src.Value())
		tree, err := lang.ParseSource(ctx, l, b)
		if err != nil {
			return object.Errorf("parse_src: %v", err)
		}
		ss.store(tree.RootNode(), b, l)
		return proxy("parse_src", tree)
	})
}

// node_text(node) returns the node's source text. Scripts cannot call
// node.Content themselves because Risor proxies don't convert to []byte.
func makeNodeTextFn(ss *sourceStore) *object.Builtin {
	return builtin("node_text", 1, func(_ context.Context, args []object.Object) object.Object {
		node, ok := nodeArg(args[0])
		if !ok {
			return object.Errorf("node_text: expected a node, got %s", args[0].Type())
		}
		src, ok := ss.sourceForNode(node)
		if !ok {
			return object.Errorf("node_text: no source found for node's tree")
		}
		return object.NewString(node.Content(src))
	})
}

// query(pattern, node) runs an ad hoc pattern under node and returns one
// map per match from capture name to node.
func makeQueryFn(ss *sourceStore) *object.Builtin {
	return builtin("query", 2, func(_ context.Context, args []object.Object) object.Object {
		pattern, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("query: pattern must be a string, got %s", args[0].Type())
		}
		node, ok := nodeArg(args[1])
		if !ok {
			return object.Errorf("query: node must be a node, got %s", args[1].Type())
		}
		l, ok := ss.languageForNode(node)
		if !ok {
			return object.Errorf("query: no language found for node's tree")
		}
		src, _ := ss.sourceForNode(node)
		grammar, ok := l.Grammar()
		if !ok {
			return object.Errorf("query: no grammar for %s", l)
		}

		q, err := sitter.NewQuery([]byte(pattern.Value()), grammar)
		if err != nil {
			return object.Errorf("query: invalid pattern: %v", err)
		}
		defer q.Close()
		cursor := sitter.NewQueryCursor()
		defer cursor.Close()
		cursor.Exec(q, node)

		results := []object.Object{}
		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			match = cursor.FilterPredicates(match, src)
			if len(match.Captures) == 0 {
				continue
			}
			captures := make(map[string]object.Object, len(match.Captures))
			for _, c := range match.Captures {
				captures[q.CaptureNameForId(c.Index)] = proxy("query", c.Node)
			}
			results = append(results, object.NewMap(captures))
		}
		return object.NewList(results)
	})
}

// node_child(node, field) is ChildByFieldName returning nil instead of a
// proxied nil pointer.
func makeNodeChildFn() *object.Builtin {
	return builtin("node_child", 2, func(_ context.Context, args []object.Object) object.Object {
		node, ok := nodeArg(args[0])
		if !ok {
			return object.Errorf("node_child: expected a node, got %s", args[0].Type())
		}
		field, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("node_child: field must be a string, got %s", args[1].Type())
		}
		child := node.ChildByFieldName(field.Value())
		if child == nil {
			return object.Nil
		}
		return proxy("node_child", child)
	})
}

// logObject provides log.Info/Warn/Error/Debug methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Debug(msg string) { l.logger.Debug(msg) }

func (l *logObject) Info(msg string) { l.logger.Info(msg) }

func (l *logObject) Warn(msg string) { l.logger.Warn(msg) }

func (l *logObject) Error(msg string) { l.logger.Error(msg) }
