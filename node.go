package model

import (
	"fmt"
)

// Kind tags the variant of a Node.
type Kind int

// Node kinds.
const (
	KindScalar Kind = iota
	KindOptional
	KindList
	KindSet
	KindMap
	KindObject
	KindUnion
	KindEnum
	KindLiteral
	KindRef
)

var kindNames = [...]string{
	KindScalar:   "scalar",
	KindOptional: "optional",
	KindList:     "list",
	KindSet:      "set",
	KindMap:      "map",
	KindObject:   "object",
	KindUnion:    "union",
	KindEnum:     "enum",
	KindLiteral:  "literal",
	KindRef:      "ref",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Type is the primitive type of a scalar node.
type Type string

// Scalar types.
const (
	TypeString   Type = "string"
	TypeInteger  Type = "integer"
	TypeFloat    Type = "float"
	TypeBoolean  Type = "boolean"
	TypeDateTime Type = "date-time"
	TypeURL      Type = "url"
	TypeEmail    Type = "email"
	TypeUUID     Type = "uuid"
	TypeAny      Type = "any"
)

// ExtraPolicy controls how an object treats raw keys it does not declare.
type ExtraPolicy int

// Extra field policies.
const (
	ExtraIgnore ExtraPolicy = iota // drop undeclared keys silently
	ExtraForbid                    // report UnexpectedField
)

// Node describes the expected shape of a value. Nodes are built with the
// constructor functions in this package and are never mutated after Compile.
type Node struct {
	kind   Kind
	scalar Type

	// elem is the element node for list and set, the inner node for optional,
	// and the value node for map.
	elem *Node
	key  *Node

	name       string
	fields     []Field
	extra      ExtraPolicy
	candidates []*Node
	values     []any

	constraints []Constraint

	title       string
	description string

	// invalid is set by constructors that cannot build the node they were
	// asked for; Compile reports it.
	invalid string
}

// Kind returns the node's variant tag.
func (n *Node) Kind() Kind { return n.kind }

// Type returns the scalar type; empty for non-scalar nodes.
func (n *Node) Type() Type { return n.scalar }

// Name returns the declared name of an object, enum, or ref node.
func (n *Node) Name() string { return n.name }

// Elem returns the element node of a list, set, or optional, or the value node
// of a map.
func (n *Node) Elem() *Node { return n.elem }

// Key returns the key node of a map.
func (n *Node) Key() *Node { return n.key }

// Fields returns the declared fields of an object in order.
func (n *Node) Fields() []Field {
	out := make([]Field, len(n.fields))
	copy(out, n.fields)
	return out
}

// Field returns the field with the given name.
func (n *Node) Field(name string) (Field, bool) {
	for _, f := range n.fields {
		if f.name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Extra returns the object's extra field policy.
func (n *Node) Extra() ExtraPolicy { return n.extra }

// Candidates returns the union candidates in declared order.
func (n *Node) Candidates() []*Node { return n.candidates }

// Values returns the accepted values of an enum or literal node.
func (n *Node) Values() []any { return n.values }

// Constraints returns the node's declared constraints.
func (n *Node) Constraints() []Constraint { return n.constraints }

// Title returns the node's title.
func (n *Node) Title() string { return n.title }

// Description returns the node's description.
func (n *Node) Description() string { return n.description }

// NodeOption configures a Node at construction.
type NodeOption func(*Node)

// Title sets a human-readable title.
func Title(title string) NodeOption {
	return func(n *Node) { n.title = title }
}

// Description sets a human-readable description.
func Description(desc string) NodeOption {
	return func(n *Node) { n.description = desc }
}

// Forbid rejects undeclared keys on an object with UnexpectedField.
func Forbid() NodeOption {
	return func(n *Node) { n.extra = ExtraForbid }
}

// Ignore silently drops undeclared keys on an object. This is the default.
func Ignore() NodeOption {
	return func(n *Node) { n.extra = ExtraIgnore }
}

func newNode(kind Kind, opts []NodeOption) *Node {
	n := &Node{kind: kind}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func scalar(t Type, opts []NodeOption) *Node {
	n := newNode(KindScalar, opts)
	n.scalar = t
	return n
}

// String returns a string node.
func String(opts ...NodeOption) *Node { return scalar(TypeString, opts) }

// Int returns an integer node.
func Int(opts ...NodeOption) *Node { return scalar(TypeInteger, opts) }

// Float returns a float node.
func Float(opts ...NodeOption) *Node { return scalar(TypeFloat, opts) }

// Bool returns a boolean node.
func Bool(opts ...NodeOption) *Node { return scalar(TypeBoolean, opts) }

// DateTime returns a date-time node.
func DateTime(opts ...NodeOption) *Node { return scalar(TypeDateTime, opts) }

// URL returns an http(s) URL string node.
func URL(opts ...NodeOption) *Node { return scalar(TypeURL, opts) }

// Email returns an email address string node.
func Email(opts ...NodeOption) *Node { return scalar(TypeEmail, opts) }

// UUID returns a UUID node.
func UUID(opts ...NodeOption) *Node { return scalar(TypeUUID, opts) }

// Any returns a node that accepts any raw value unchanged.
func Any(opts ...NodeOption) *Node { return scalar(TypeAny, opts) }

// Optional wraps inner so that null is accepted and an absent value resolves
// to nil.
func Optional(inner *Node, opts ...NodeOption) *Node {
	n := newNode(KindOptional, opts)
	n.elem = inner
	return n
}

// List returns a sequence node.
func List(elem *Node, opts ...NodeOption) *Node {
	n := newNode(KindList, opts)
	n.elem = elem
	return n
}

// Set returns a sequence node whose coerced elements are deduplicated by
// structural equality. Input order is not preserved beyond first occurrence.
func Set(elem *Node, opts ...NodeOption) *Node {
	n := newNode(KindSet, opts)
	n.elem = elem
	return n
}

// Map returns a mapping node. Raw keys are coerced through key, so a map with
// Int keys accepts {"1": ...}.
func Map(key, value *Node, opts ...NodeOption) *Node {
	n := newNode(KindMap, opts)
	n.key = key
	n.elem = value
	return n
}

// Object returns a named object node with the given fields in order.
func Object(name string, fields []Field, opts ...NodeOption) *Node {
	n := newNode(KindObject, opts)
	n.name = name
	n.fields = append([]Field(nil), fields...)
	return n
}

// Union returns a node that accepts the first candidate to fully validate.
// Put the more specific candidates first.
func Union(candidates ...*Node) *Node {
	n := newNode(KindUnion, nil)
	n.candidates = candidates
	return n
}

// Enum returns a named node accepting exactly the given values.
func Enum(name string, values ...any) *Node {
	n := newNode(KindEnum, nil)
	n.name = name
	n.values = values
	return n
}

// Literal returns a node accepting exactly the given values.
func Literal(values ...any) *Node {
	n := newNode(KindLiteral, nil)
	n.values = values
	return n
}

// Ref returns a reference to a named definition supplied at Compile time.
// Refs allow recursive schemas.
func Ref(name string) *Node {
	n := newNode(KindRef, nil)
	n.name = name
	return n
}

// Field declares one member of an object node.
type Field struct {
	name        string
	alias       string
	node        *Node
	required    bool
	requiredSet bool
	def         any
	hasDefault  bool
	title       string
	description string
}

// Name returns the field name used in output values.
func (f Field) Name() string { return f.name }

// Alias returns the raw input key, or the name if no alias was set.
func (f Field) Alias() string {
	if f.alias != "" {
		return f.alias
	}
	return f.name
}

// Node returns the field's schema node.
func (f Field) Node() *Node { return f.node }

// Required reports whether the field must be present in raw input, as
// declared. A field holding a Ref to an optional definition is treated as
// optional by the compiled schema unless it was explicitly required.
func (f Field) Required() bool { return f.required }

func (f *Field) setRequired(required bool) {
	f.required = required
	f.requiredSet = true
}

// Default returns the declared default and whether one exists.
func (f Field) Default() (any, bool) { return f.def, f.hasDefault }

// Title returns the field title.
func (f Field) Title() string { return f.title }

// Description returns the field description.
func (f Field) Description() string { return f.description }

// FieldOption configures a Field.
type FieldOption func(*Field)

// Default makes the field optional, substituting v when it is absent.
// Defaults are trusted and never validated.
func Default(v any) FieldOption {
	return func(f *Field) {
		f.def = v
		f.hasDefault = true
		f.required = false
	}
}

// Alias reads the field from a different raw key.
func Alias(key string) FieldOption {
	return func(f *Field) { f.alias = key }
}

// Doc sets the field title and description.
func Doc(title, description string) FieldOption {
	return func(f *Field) {
		f.title = title
		f.description = description
	}
}

// F declares a field. It is required unless node is Optional or a Default is
// given.
func F(name string, node *Node, opts ...FieldOption) Field {
	f := Field{
		name:     name,
		node:     node,
		required: node == nil || node.kind != KindOptional,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Fields is shorthand for building a field list.
func Fields(fields ...Field) []Field { return fields }
