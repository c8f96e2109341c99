package model

import (
	"fmt"
)

// DefaultMaxDepth bounds the nesting of raw input accepted by Validate.
const DefaultMaxDepth = 64

// Schema is a compiled, immutable schema. It is safe for concurrent use.
type Schema struct {
	root     *Node
	defs     map[string]*Node
	maxDepth int
}

// Option configures Compile.
type Option func(*compileConfig)

type compileConfig struct {
	defs     map[string]*Node
	maxDepth int
}

// WithDefinition registers a named node that Ref(name) resolves to.
func WithDefinition(name string, n *Node) Option {
	return func(c *compileConfig) {
		if c.defs == nil {
			c.defs = make(map[string]*Node)
		}
		c.defs[name] = n
	}
}

// WithDefinitions registers several named nodes.
func WithDefinitions(defs map[string]*Node) Option {
	return func(c *compileConfig) {
		for name, n := range defs {
			WithDefinition(name, n)(c)
		}
	}
}

// WithMaxDepth sets the maximum nesting depth of raw input. Values below 1
// are ignored.
func WithMaxDepth(depth int) Option {
	return func(c *compileConfig) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// Compile checks the node tree rooted at root and returns a Schema. Malformed
// definitions yield a *SchemaDefinitionError.
func Compile(root *Node, opts ...Option) (*Schema, error) {
	cfg := compileConfig{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &compiler{defs: cfg.defs, seen: make(map[*Node]bool)}
	if err := c.check(root, Path{}); err != nil {
		return nil, err
	}
	for name, def := range cfg.defs {
		if err := c.check(def, Path{"$defs", name}); err != nil {
			return nil, err
		}
	}
	if err := c.checkCycles(); err != nil {
		return nil, err
	}

	return &Schema{root: root, defs: cfg.defs, maxDepth: cfg.maxDepth}, nil
}

// MustCompile is like Compile but panics on error. Use it for schemas
// declared at package level.
func MustCompile(root *Node, opts ...Option) *Schema {
	s, err := Compile(root, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Root returns the root node.
func (s *Schema) Root() *Node { return s.root }

// Definition returns a named definition.
func (s *Schema) Definition(name string) (*Node, bool) {
	n, ok := s.defs[name]
	return n, ok
}

// MaxDepth returns the configured nesting limit.
func (s *Schema) MaxDepth() int { return s.maxDepth }

// resolve follows ref nodes to their definitions.
func (s *Schema) resolve(n *Node) *Node {
	for hops := 0; n != nil && n.kind == KindRef && hops <= len(s.defs); hops++ {
		n = s.defs[n.name]
	}
	return n
}

// required reports whether f must be present in raw input. Without an
// explicit requirement a Ref field follows its definition.
func (s *Schema) required(f Field) bool {
	if f.hasDefault || f.requiredSet || f.node == nil || f.node.kind != KindRef {
		return f.required
	}
	return s.resolve(f.node).kind != KindOptional
}

type compiler struct {
	defs map[string]*Node
	seen map[*Node]bool
	refs []*Node
}

func (c *compiler) check(n *Node, path Path) error {
	if n == nil {
		return &SchemaDefinitionError{Path: path, Reason: "nil node"}
	}
	if c.seen[n] {
		return nil
	}
	c.seen[n] = true

	if n.invalid != "" {
		return &SchemaDefinitionError{Path: path, Reason: n.invalid}
	}
	if err := compileConstraints(n, path); err != nil {
		return err
	}

	switch n.kind {
	case KindScalar:
		if _, ok := coercers[n.scalar]; !ok {
			return &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("unknown scalar type %q", n.scalar)}
		}
	case KindOptional, KindList, KindSet:
		return c.check(n.elem, path.child("[]"))
	case KindMap:
		if err := c.check(n.key, path.child("{key}")); err != nil {
			return err
		}
		switch k := c.resolve(n.key); k.kind {
		case KindScalar, KindEnum, KindLiteral:
		default:
			return &SchemaDefinitionError{
				Path:   path,
				Reason: fmt.Sprintf("map key must be a scalar, enum, or literal, not %s", k.kind),
			}
		}
		return c.check(n.elem, path.child("{value}"))
	case KindObject:
		return c.checkObject(n, path)
	case KindUnion:
		if len(n.candidates) == 0 {
			return &SchemaDefinitionError{Path: path, Reason: "union has no candidates"}
		}
		for i, cand := range n.candidates {
			if err := c.check(cand, path.child(i)); err != nil {
				return err
			}
		}
	case KindEnum, KindLiteral:
		if len(n.values) == 0 {
			return &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("%s has no values", n.kind)}
		}
	case KindRef:
		if _, ok := c.defs[n.name]; !ok {
			return &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("undefined reference %q", n.name)}
		}
		c.refs = append(c.refs, n)
	default:
		return &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("unknown node kind %d", int(n.kind))}
	}
	return nil
}

func (c *compiler) checkObject(n *Node, path Path) error {
	names := make(map[string]bool, len(n.fields))
	keys := make(map[string]bool, len(n.fields))
	for _, f := range n.fields {
		if f.name == "" {
			return &SchemaDefinitionError{Path: path, Reason: "field with empty name"}
		}
		if names[f.name] {
			return &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("duplicate field %q", f.name)}
		}
		names[f.name] = true
		if keys[f.Alias()] {
			return &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("duplicate input key %q", f.Alias())}
		}
		keys[f.Alias()] = true
		if err := c.check(f.node, path.child(f.name)); err != nil {
			return err
		}
	}
	return nil
}

// checkCycles rejects references that reach themselves without passing
// through an object, list, set, or map.
func (c *compiler) checkCycles() error {
	checked := make(map[string]bool)
	for _, ref := range c.refs {
		if checked[ref.name] {
			continue
		}
		checked[ref.name] = true
		if c.loops(c.defs[ref.name], ref.name, map[*Node]bool{}) {
			return &SchemaDefinitionError{
				Path:   Path{"$defs", ref.name},
				Reason: fmt.Sprintf("reference %q is recursive without an object, list, set, or map boundary", ref.name),
			}
		}
	}
	return nil
}

func (c *compiler) loops(n *Node, name string, visiting map[*Node]bool) bool {
	if n == nil || visiting[n] {
		return false
	}
	visiting[n] = true
	switch n.kind {
	case KindOptional:
		return c.loops(n.elem, name, visiting)
	case KindUnion:
		for _, cand := range n.candidates {
			if c.loops(cand, name, visiting) {
				return true
			}
		}
	case KindRef:
		if n.name == name {
			return true
		}
		return c.loops(c.defs[n.name], name, visiting)
	}
	return false
}

// resolve follows ref nodes to their definitions.
func (c *compiler) resolve(n *Node) *Node {
	for hops := 0; n != nil && n.kind == KindRef && hops <= len(c.defs); hops++ {
		n = c.defs[n.name]
	}
	return n
}
