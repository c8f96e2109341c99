package model

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SchemaFor derives a schema from the Go type T, usually a struct declaring
// a model. Fields are read the way Bind writes them, by json tag name.
//
// A field is required unless it is a pointer, declares a default, is tagged
// omitempty, or says required:"false". Other tags:
//
//	alias:"item-query"        read the field from a different raw key
//	default:"10.5"            default value, parsed for the field's type
//	doc:"..." title:"..."     field documentation
//	format:"email"            email, uri, uuid, or date-time on a string field
//	enum:"a,b,c"              accepted values; named types become an enum
//	unique:"true"             a slice field is a set
//	minLength maxLength minItems maxItems minimum maximum
//	exclusiveMinimum exclusiveMaximum multipleOf pattern
//
// A blank field sets the extra-field policy of its struct:
//
//	type Item struct {
//	    _     struct{} `extra:"forbid"`
//	    Name  string   `json:"name" minLength:"1"`
//	    Price float64  `json:"price" exclusiveMinimum:"0"`
//	    Tax   *float64 `json:"tax"`
//	    Tags  []string `json:"tags" unique:"true" default:"[]"`
//	}
//
// Self-referencing struct types become definitions named after the type.
func SchemaFor[T any](opts ...Option) (*Schema, error) {
	return SchemaOf(reflect.TypeFor[T](), opts...)
}

// MustSchemaFor is like SchemaFor but panics on error.
func MustSchemaFor[T any](opts ...Option) *Schema {
	s, err := SchemaFor[T](opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// SchemaOf is SchemaFor for a reflect.Type.
func SchemaOf(t reflect.Type, opts ...Option) (*Schema, error) {
	d := &deriver{
		defs:      make(map[string]*Node),
		owners:    make(map[string]reflect.Type),
		visiting:  make(map[reflect.Type]bool),
		recursive: make(map[reflect.Type]bool),
	}
	root, err := d.node(t, Path{}, nil)
	if err != nil {
		return nil, err
	}
	return Compile(root, append([]Option{WithDefinitions(d.defs)}, opts...)...)
}

// deriver builds nodes from Go types.
type deriver struct {
	defs      map[string]*Node
	owners    map[string]reflect.Type
	visiting  map[reflect.Type]bool
	recursive map[reflect.Type]bool
}

func (d *deriver) node(t reflect.Type, path Path, opts []NodeOption) (*Node, error) {
	if t.Kind() == reflect.Pointer {
		inner, err := d.node(t.Elem(), path, opts)
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	}

	switch t {
	case timeType:
		return DateTime(opts...), nil
	case uuidType:
		return UUID(opts...), nil
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.String:
		return String(opts...), nil
	case reflect.Bool:
		return Bool(opts...), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(opts...), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(append([]NodeOption{Ge(0)}, opts...)...), nil
	case reflect.Float32, reflect.Float64:
		return Float(opts...), nil
	case reflect.Interface:
		return Any(opts...), nil
	case reflect.Slice, reflect.Array:
		elem, err := d.node(t.Elem(), path, nil)
		if err != nil {
			return nil, err
		}
		return List(elem, opts...), nil
	case reflect.Map:
		key, err := d.node(t.Key(), path, nil)
		if err != nil {
			return nil, err
		}
		value, err := d.node(t.Elem(), path, nil)
		if err != nil {
			return nil, err
		}
		return Map(key, value, opts...), nil
	case reflect.Struct:
		return d.object(t, path, opts)
	default:
		return nil, &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("unsupported Go type %s", t)}
	}
}

func (d *deriver) object(t reflect.Type, path Path, opts []NodeOption) (*Node, error) {
	name := t.Name()
	if d.visiting[t] {
		d.recursive[t] = true
		return Ref(name), nil
	}
	d.visiting[t] = true
	defer delete(d.visiting, t)

	var fields []Field
	for i := range t.NumField() {
		sf := t.Field(i)
		if sf.Name == "_" {
			switch extra := sf.Tag.Get("extra"); extra {
			case "":
			case "forbid":
				opts = append(opts, Forbid())
			case "ignore":
				opts = append(opts, Ignore())
			default:
				return nil, &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("unknown extra policy %q", extra)}
			}
			if doc := sf.Tag.Get("doc"); doc != "" {
				opts = append(opts, Description(doc))
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		fname := fieldName(sf)
		if fname == "-" {
			continue
		}
		f, err := d.field(sf, fname, path.child(fname))
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}

	n := Object(name, fields, opts...)
	if d.recursive[t] {
		if owner, ok := d.owners[name]; ok && owner != t {
			return nil, &SchemaDefinitionError{
				Path:   path,
				Reason: fmt.Sprintf("recursive types %s and %s share the name %s", owner, t, name),
			}
		}
		d.owners[name] = t
		d.defs[name] = n
	}
	return n, nil
}

func (d *deriver) field(sf reflect.StructField, name string, path Path) (Field, error) {
	opts, err := tagConstraints(sf.Tag)
	if err != nil {
		return Field{}, &SchemaDefinitionError{Path: path, Reason: err.Error()}
	}
	n, err := d.fieldNode(sf, path, opts)
	if err != nil {
		return Field{}, err
	}

	var fopts []FieldOption
	if alias := sf.Tag.Get("alias"); alias != "" {
		fopts = append(fopts, Alias(alias))
	}
	if title, doc := sf.Tag.Get("title"), sf.Tag.Get("doc"); title != "" || doc != "" {
		fopts = append(fopts, Doc(title, doc))
	}
	if text, ok := sf.Tag.Lookup("default"); ok {
		v, err := parseDefault(text, n)
		if err != nil {
			return Field{}, &SchemaDefinitionError{Path: path, Reason: "default: " + err.Error()}
		}
		fopts = append(fopts, Default(v))
	}

	f := F(name, n, fopts...)
	if text, ok := sf.Tag.Lookup("required"); ok {
		required, err := strconv.ParseBool(text)
		if err != nil {
			return Field{}, &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("tag required: %q is not a boolean", text)}
		}
		if required && f.hasDefault {
			return Field{}, &SchemaDefinitionError{Path: path, Reason: "required field cannot declare a default"}
		}
		f.setRequired(required)
	} else if _, jopts := tagOptions(sf.Tag.Get("json")); tagContains(jopts, "omitempty") {
		f.setRequired(false)
	}
	return f, nil
}

// fieldNode builds the node for a struct field, applying the tags that
// change which node a Go type maps to.
func (d *deriver) fieldNode(sf reflect.StructField, path Path, opts []NodeOption) (*Node, error) {
	t := sf.Type
	pointer := t.Kind() == reflect.Pointer
	if pointer {
		t = t.Elem()
	}

	var n *Node
	var err error
	switch {
	case sf.Tag.Get("enum") != "":
		if len(opts) > 0 {
			return nil, &SchemaDefinitionError{Path: path, Reason: "constraint tags do not apply to an enum"}
		}
		n, err = enumNode(t, sf.Tag.Get("enum"))
		if err != nil {
			return nil, &SchemaDefinitionError{Path: path, Reason: err.Error()}
		}
	case sf.Tag.Get("format") != "":
		n, err = formatNode(t, sf.Tag.Get("format"), opts)
		if err != nil {
			return nil, &SchemaDefinitionError{Path: path, Reason: err.Error()}
		}
	case sf.Tag.Get("unique") == "true":
		if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
			return nil, &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("unique applies to slices, not %s", t)}
		}
		elem, err := d.node(t.Elem(), path, nil)
		if err != nil {
			return nil, err
		}
		n = Set(elem, opts...)
	default:
		n, err = d.node(t, path, opts)
		if err != nil {
			return nil, err
		}
	}

	if pointer {
		return Optional(n), nil
	}
	return n, nil
}

func formatNode(t reflect.Type, format string, opts []NodeOption) (*Node, error) {
	if t.Kind() != reflect.String {
		return nil, fmt.Errorf("format applies to strings, not %s", t)
	}
	switch format {
	case "email":
		return Email(opts...), nil
	case "uri", "url":
		return URL(opts...), nil
	case "uuid":
		return UUID(opts...), nil
	case "date-time":
		return DateTime(opts...), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// enumNode parses a comma-separated value list for a field of type t. A
// named type yields an enum carrying the type's name; otherwise a literal.
func enumNode(t reflect.Type, list string) (*Node, error) {
	var target Type
	//exhaustive:ignore
	switch t.Kind() {
	case reflect.String:
		target = TypeString
	case reflect.Bool:
		target = TypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		target = TypeInteger
	case reflect.Float32, reflect.Float64:
		target = TypeFloat
	default:
		return nil, fmt.Errorf("enum applies to scalar fields, not %s", t)
	}

	parts := strings.Split(list, ",")
	values := make([]any, len(parts))
	for i, p := range parts {
		v, ok := coerceScalar(target, strings.TrimSpace(p))
		if !ok {
			return nil, fmt.Errorf("enum value %q is not a valid %s", p, target)
		}
		values[i] = v
	}

	if t.Name() != "" && t.PkgPath() != "" {
		return Enum(t.Name(), values...), nil
	}
	return Literal(values...), nil
}

// parseDefault converts a default tag to a value of n's type. String-like
// scalars take the text as is; everything else is read as YAML.
func parseDefault(text string, n *Node) (any, error) {
	if n.kind == KindOptional {
		if text == "null" || text == "~" {
			return nil, nil
		}
		n = n.elem
	}

	switch n.kind {
	case KindScalar:
		switch n.scalar {
		case TypeString, TypeURL, TypeEmail, TypeUUID, TypeDateTime:
			return coerceDefault(text, n)
		}
	case KindEnum, KindLiteral:
		for _, want := range n.values {
			if fmt.Sprint(want) == text {
				return want, nil
			}
		}
		return nil, fmt.Errorf("%q is not one of %s", text, describe(n))
	}

	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	return coerceDefault(v, n)
}

// coerceDefault converts a decoded default to the value types Validate
// produces for n. Scalars, enums and literals are checked; list and set
// elements are converted one by one. Maps, objects, unions and refs keep
// the decoded form.
func coerceDefault(v any, n *Node) (any, error) {
	if n.kind == KindOptional {
		if v == nil {
			return nil, nil
		}
		n = n.elem
	}

	switch n.kind {
	case KindScalar:
		out, ok := coerceScalar(n.scalar, v)
		if !ok {
			return nil, fmt.Errorf("%s is not a valid %s", quote(v), n.scalar)
		}
		return out, nil
	case KindEnum, KindLiteral:
		for _, want := range n.values {
			if Equal(v, want) {
				return want, nil
			}
			if got, ok := coerceLike(want, v); ok && Equal(got, want) {
				return want, nil
			}
		}
		return nil, fmt.Errorf("%s is not one of %s", quote(v), describe(n))
	case KindList, KindSet:
		items, ok := asSlice(v)
		if !ok {
			return nil, fmt.Errorf("%s is not a %s", quote(v), n.kind)
		}
		out := make([]any, 0, len(items))
		for i, e := range items {
			ev, err := coerceDefault(e, n.elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out = append(out, ev)
		}
		if n.kind == KindList {
			return out, nil
		}
		set := make(SetValue, 0, len(out))
		for _, e := range out {
			if !set.Contains(e) {
				set = append(set, e)
			}
		}
		return set, nil
	default:
		return v, nil
	}
}

func quote(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}
