package model

import (
	"strings"
)

// ProjectOption configures Project.
type ProjectOption func(*projection)

type projection struct {
	include         *fieldTree
	exclude         *fieldTree
	excludeUnset    bool
	excludeDefaults bool
	excludeNone     bool
}

// Include keeps only the given dot-separated field paths. A path naming an
// object field keeps its whole subtree; "image.url" keeps only url inside
// image. Paths apply to every element of lists and sets, and segments match
// the keys of maps.
func Include(paths ...string) ProjectOption {
	return func(p *projection) {
		if p.include == nil {
			p.include = newFieldTree()
		}
		for _, path := range paths {
			p.include.add(path)
		}
	}
}

// Exclude drops the given dot-separated field paths.
func Exclude(paths ...string) ProjectOption {
	return func(p *projection) {
		if p.exclude == nil {
			p.exclude = newFieldTree()
		}
		for _, path := range paths {
			p.exclude.add(path)
		}
	}
}

// ExcludeUnset drops object fields that were filled from defaults rather than
// supplied in the raw input.
func ExcludeUnset() ProjectOption {
	return func(p *projection) { p.excludeUnset = true }
}

// ExcludeDefaults drops object fields whose value equals the declared default.
func ExcludeDefaults() ProjectOption {
	return func(p *projection) { p.excludeDefaults = true }
}

// ExcludeNone drops object fields whose value is nil.
func ExcludeNone() ProjectOption {
	return func(p *projection) { p.excludeNone = true }
}

// Project filters a value previously returned by s.Validate down to the
// requested fields. It never re-validates. Supplying both Include and Exclude,
// or a value whose top-level object came from a different schema, returns a
// *ConfigurationError.
func (s *Schema) Project(value any, opts ...ProjectOption) (any, error) {
	var p projection
	for _, opt := range opts {
		opt(&p)
	}
	if p.include != nil && p.exclude != nil {
		return nil, &ConfigurationError{Reason: "include and exclude are mutually exclusive"}
	}
	if !s.produced(s.root, value) {
		return nil, &ConfigurationError{Reason: "value was not produced by this schema"}
	}
	return p.value(value, p.include, p.exclude), nil
}

// produced reports whether v has the top-level shape Validate returns for n.
// Objects match by node; other values are not inspected.
func (s *Schema) produced(n *Node, v any) bool {
	n = s.resolve(n)
	switch n.kind {
	case KindOptional:
		return v == nil || s.produced(n.elem, v)
	case KindUnion:
		for _, cand := range n.candidates {
			if s.produced(cand, v) {
				return true
			}
		}
		return false
	case KindObject:
		o, ok := v.(*ObjectValue)
		return ok && o.node == n
	default:
		return true
	}
}

// Project is shorthand for s.Project(value, opts...).
func Project(s *Schema, value any, opts ...ProjectOption) (any, error) {
	return s.Project(value, opts...)
}

func (p *projection) value(v any, inc, exc *fieldTree) any {
	switch x := v.(type) {
	case *ObjectValue:
		return p.object(x, inc, exc)
	case *MapValue:
		return p.mapping(x, inc, exc)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = p.value(e, inc, exc)
		}
		return out
	case SetValue:
		out := make(SetValue, len(x))
		for i, e := range x {
			out[i] = p.value(e, inc, exc)
		}
		return out
	default:
		return v
	}
}

func (p *projection) object(o *ObjectValue, inc, exc *fieldTree) *ObjectValue {
	out := newObjectValue(o.node, len(o.keys))
	for _, name := range o.keys {
		incSub, excSub, keep := selectKey(name, inc, exc)
		if !keep {
			continue
		}
		fv := o.vals[name]
		if p.excludeUnset && !o.setBy[name] {
			continue
		}
		if p.excludeNone && fv == nil {
			continue
		}
		if p.excludeDefaults && o.node != nil {
			if f, ok := o.node.Field(name); ok && f.hasDefault && Equal(fv, f.def) {
				continue
			}
		}
		out.put(name, p.value(fv, incSub, excSub), o.setBy[name])
	}
	return out
}

func (p *projection) mapping(m *MapValue, inc, exc *fieldTree) *MapValue {
	out := &MapValue{entries: make([]MapEntry, 0, len(m.entries))}
	for _, e := range m.entries {
		incSub, excSub, keep := selectKey(keyString(e.Key), inc, exc)
		if !keep {
			continue
		}
		if p.excludeNone && e.Value == nil {
			continue
		}
		out.entries = append(out.entries, MapEntry{Key: e.Key, Value: p.value(e.Value, incSub, excSub)})
	}
	return out
}

// selectKey decides whether key survives the include/exclude trees and
// returns the subtrees that apply beneath it.
func selectKey(key string, inc, exc *fieldTree) (*fieldTree, *fieldTree, bool) {
	var incSub, excSub *fieldTree
	if inc != nil {
		sub, ok := inc.children[key]
		if !ok {
			return nil, nil, false
		}
		if !sub.leaf {
			incSub = sub
		}
	}
	if exc != nil {
		if sub, ok := exc.children[key]; ok {
			if sub.leaf {
				return nil, nil, false
			}
			excSub = sub
		}
	}
	return incSub, excSub, true
}

// fieldTree is a parsed set of dot-separated field paths. A leaf selects the
// whole subtree below it.
type fieldTree struct {
	leaf     bool
	children map[string]*fieldTree
}

func newFieldTree() *fieldTree {
	return &fieldTree{children: make(map[string]*fieldTree)}
}

func (t *fieldTree) add(path string) {
	if path == "" {
		return
	}
	node := t
	for _, seg := range strings.Split(path, ".") {
		if node.leaf {
			return
		}
		next, ok := node.children[seg]
		if !ok {
			next = newFieldTree()
			node.children[seg] = next
		}
		node = next
	}
	node.leaf = true
	node.children = make(map[string]*fieldTree)
}
