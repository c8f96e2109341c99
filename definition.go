package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// definitionDoc is a schema definition document. JSON documents parse too,
// since JSON is valid YAML.
//
//	root: Item
//	definitions:
//	  Item:
//	    type: object
//	    extra: forbid
//	    fields:
//	      - name: name
//	        type: string
//	        min_length: 1
//	      - name: tags
//	        type: set
//	        of: {type: string}
//	        default: []
type definitionDoc struct {
	Root        yaml.Node           `yaml:"root"`
	Definitions map[string]*nodeDoc `yaml:"definitions"`
}

type nodeDoc struct {
	Type        string     `yaml:"type"`
	Model       string     `yaml:"model"`
	Ref         string     `yaml:"ref"`
	Of          *nodeDoc   `yaml:"of"`
	Key         *nodeDoc   `yaml:"key"`
	Value       *nodeDoc   `yaml:"value"`
	Fields      []fieldDoc `yaml:"fields"`
	Extra       string     `yaml:"extra"`
	Candidates  []*nodeDoc `yaml:"candidates"`
	Values      []any      `yaml:"values"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`

	MinLength  *int     `yaml:"min_length"`
	MaxLength  *int     `yaml:"max_length"`
	Gt         *float64 `yaml:"gt"`
	Ge         *float64 `yaml:"ge"`
	Lt         *float64 `yaml:"lt"`
	Le         *float64 `yaml:"le"`
	MultipleOf *float64 `yaml:"multiple_of"`
	Pattern    *string  `yaml:"pattern"`
}

type fieldDoc struct {
	Name     string    `yaml:"name"`
	Alias    string    `yaml:"alias"`
	Default  yaml.Node `yaml:"default"`
	Required *bool     `yaml:"required"`
	nodeDoc  `yaml:",inline"`
}

var scalarNames = map[string]Type{
	"string":    TypeString,
	"str":       TypeString,
	"integer":   TypeInteger,
	"int":       TypeInteger,
	"float":     TypeFloat,
	"number":    TypeFloat,
	"boolean":   TypeBoolean,
	"bool":      TypeBoolean,
	"date-time": TypeDateTime,
	"datetime":  TypeDateTime,
	"url":       TypeURL,
	"email":     TypeEmail,
	"uuid":      TypeUUID,
	"any":       TypeAny,
}

// LoadDefinition reads a schema definition document from a file and compiles
// it. opts are applied after the document's definitions.
func LoadDefinition(path string, opts ...Option) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load definition: %w", err)
	}
	return ParseDefinition(data, opts...)
}

// ParseDefinition parses a YAML or JSON schema definition document and
// compiles it. The document's root is either the name of one of its
// definitions or an inline node. Unknown keys and malformed nodes yield a
// *SchemaDefinitionError.
func ParseDefinition(data []byte, opts ...Option) (*Schema, error) {
	var doc definitionDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SchemaDefinitionError{Reason: "empty definition document"}
		}
		return nil, &SchemaDefinitionError{Reason: err.Error()}
	}

	defs := make(map[string]*Node, len(doc.Definitions))
	for name, d := range doc.Definitions {
		n, err := buildNode(d, Path{"definitions", name})
		if err != nil {
			return nil, err
		}
		if n.kind == KindObject && n.name == "" {
			n.name = name
		}
		defs[name] = n
	}

	var root *Node
	switch doc.Root.Kind {
	case 0:
		return nil, &SchemaDefinitionError{Path: Path{"root"}, Reason: "missing root"}
	case yaml.ScalarNode:
		n, ok := defs[doc.Root.Value]
		if !ok {
			return nil, &SchemaDefinitionError{
				Path:   Path{"root"},
				Reason: fmt.Sprintf("undefined definition %q", doc.Root.Value),
			}
		}
		root = n
	default:
		var d nodeDoc
		if err := decodeStrict(&doc.Root, &d); err != nil {
			return nil, &SchemaDefinitionError{Path: Path{"root"}, Reason: err.Error()}
		}
		n, err := buildNode(&d, Path{"root"})
		if err != nil {
			return nil, err
		}
		root = n
	}

	return Compile(root, append([]Option{WithDefinitions(defs)}, opts...)...)
}

// decodeStrict decodes n into out, rejecting unknown keys. yaml.Node.Decode
// does not honor KnownFields, so the node takes a round trip through text.
func decodeStrict(n *yaml.Node, out any) error {
	data, err := yaml.Marshal(n)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

func buildNode(d *nodeDoc, path Path) (*Node, error) {
	if d == nil {
		return nil, &SchemaDefinitionError{Path: path, Reason: "missing node"}
	}
	opts, err := d.options(path)
	if err != nil {
		return nil, err
	}

	if t, ok := scalarNames[d.Type]; ok {
		return scalar(t, opts), nil
	}

	switch d.Type {
	case "optional", "list", "set":
		elem, err := buildNode(d.Of, path.child("of"))
		if err != nil {
			return nil, err
		}
		switch d.Type {
		case "optional":
			return Optional(elem, opts...), nil
		case "list":
			return List(elem, opts...), nil
		default:
			return Set(elem, opts...), nil
		}
	case "map":
		key, err := buildNode(d.Key, path.child("key"))
		if err != nil {
			return nil, err
		}
		value, err := buildNode(d.Value, path.child("value"))
		if err != nil {
			return nil, err
		}
		return Map(key, value, opts...), nil
	case "object":
		fields := make([]Field, 0, len(d.Fields))
		for i := range d.Fields {
			f, err := buildField(&d.Fields[i], path.child("fields").child(i))
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
		return Object(d.Model, fields, opts...), nil
	case "union":
		cands := make([]*Node, 0, len(d.Candidates))
		for i, c := range d.Candidates {
			n, err := buildNode(c, path.child("candidates").child(i))
			if err != nil {
				return nil, err
			}
			cands = append(cands, n)
		}
		n := Union(cands...)
		n.title, n.description = d.Title, d.Description
		return n, nil
	case "enum":
		n := Enum(d.Model, d.Values...)
		n.title, n.description = d.Title, d.Description
		return n, nil
	case "literal":
		n := Literal(d.Values...)
		n.title, n.description = d.Title, d.Description
		return n, nil
	case "ref", "":
		if d.Ref == "" {
			return nil, &SchemaDefinitionError{Path: path, Reason: "node has no type"}
		}
		return Ref(d.Ref), nil
	default:
		return nil, &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("unknown type %q", d.Type)}
	}
}

// options converts the document's extra policy, docs, and constraint keys
// into node options.
func (d *nodeDoc) options(path Path) ([]NodeOption, error) {
	var opts []NodeOption
	switch d.Extra {
	case "":
	case "forbid":
		opts = append(opts, Forbid())
	case "ignore":
		opts = append(opts, Ignore())
	default:
		return nil, &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("unknown extra policy %q", d.Extra)}
	}
	if d.Title != "" {
		opts = append(opts, Title(d.Title))
	}
	if d.Description != "" {
		opts = append(opts, Description(d.Description))
	}
	if d.MinLength != nil {
		opts = append(opts, MinLength(*d.MinLength))
	}
	if d.MaxLength != nil {
		opts = append(opts, MaxLength(*d.MaxLength))
	}
	if d.Gt != nil {
		opts = append(opts, Gt(*d.Gt))
	}
	if d.Ge != nil {
		opts = append(opts, Ge(*d.Ge))
	}
	if d.Lt != nil {
		opts = append(opts, Lt(*d.Lt))
	}
	if d.Le != nil {
		opts = append(opts, Le(*d.Le))
	}
	if d.MultipleOf != nil {
		opts = append(opts, MultipleOf(*d.MultipleOf))
	}
	if d.Pattern != nil {
		opts = append(opts, Pattern(*d.Pattern))
	}
	return opts, nil
}

func buildField(d *fieldDoc, path Path) (Field, error) {
	if d.Name == "" {
		return Field{}, &SchemaDefinitionError{Path: path, Reason: "field has no name"}
	}

	// Title and description written on a field describe the field, not its node.
	nd := d.nodeDoc
	nd.Title, nd.Description = "", ""
	n, err := buildNode(&nd, path)
	if err != nil {
		return Field{}, err
	}

	var opts []FieldOption
	if d.Alias != "" {
		opts = append(opts, Alias(d.Alias))
	}
	if d.Title != "" || d.Description != "" {
		opts = append(opts, Doc(d.Title, d.Description))
	}
	if d.Default.Kind != 0 {
		var raw any
		if err := d.Default.Decode(&raw); err != nil {
			return Field{}, &SchemaDefinitionError{Path: path.child("default"), Reason: err.Error()}
		}
		def, err := coerceDefault(raw, n)
		if err != nil {
			return Field{}, &SchemaDefinitionError{Path: path.child("default"), Reason: err.Error()}
		}
		opts = append(opts, Default(def))
	}

	f := F(d.Name, n, opts...)
	if d.Required != nil {
		if *d.Required && f.hasDefault {
			return Field{}, &SchemaDefinitionError{Path: path, Reason: "required field cannot declare a default"}
		}
		f.setRequired(*d.Required)
	}
	return f, nil
}
