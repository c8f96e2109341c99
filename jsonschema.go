package model

import (
	"sort"
)

// JSONSchemaDialect is the $schema URI emitted by (*Schema).JSONSchema.
const JSONSchemaDialect = "https://json-schema.org/draft/2020-12/schema"

// JSONSchema represents a JSON Schema object (the subset this package emits).
type JSONSchema struct {
	Schema      string `json:"$schema,omitempty" yaml:"$schema,omitempty"`
	Ref         string `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string `json:"format,omitempty" yaml:"format,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty" yaml:"enum,omitempty"`

	Properties map[string]JSONSchema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required   []string              `json:"required,omitempty" yaml:"required,omitempty"`

	// AdditionalProperties is false for objects that forbid extra fields, or
	// a *JSONSchema describing map values.
	AdditionalProperties any         `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
	PropertyNames        *JSONSchema `json:"propertyNames,omitempty" yaml:"propertyNames,omitempty"`

	Items       *JSONSchema  `json:"items,omitempty" yaml:"items,omitempty"`
	UniqueItems bool         `json:"uniqueItems,omitempty" yaml:"uniqueItems,omitempty"`
	AnyOf       []JSONSchema `json:"anyOf,omitempty" yaml:"anyOf,omitempty"`

	MinLength     *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength     *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	MinItems      *int     `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems      *int     `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	MinProperties *int     `json:"minProperties,omitempty" yaml:"minProperties,omitempty"`
	MaxProperties *int     `json:"maxProperties,omitempty" yaml:"maxProperties,omitempty"`
	Pattern       string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Minimum       *float64 `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum       *float64 `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	ExclusiveMin  *float64 `json:"exclusiveMinimum,omitempty" yaml:"exclusiveMinimum,omitempty"`
	ExclusiveMax  *float64 `json:"exclusiveMaximum,omitempty" yaml:"exclusiveMaximum,omitempty"`
	MultipleOf    *float64 `json:"multipleOf,omitempty" yaml:"multipleOf,omitempty"`

	Defs map[string]JSONSchema `json:"$defs,omitempty" yaml:"$defs,omitempty"`
}

// JSONSchema describes the canonical wire form of the schema as a JSON
// Schema 2020-12 document, with definitions under $defs.
func (s *Schema) JSONSchema() JSONSchema {
	out := s.nodeToSchema(s.root)
	out.Schema = JSONSchemaDialect
	if len(s.defs) > 0 {
		out.Defs = make(map[string]JSONSchema, len(s.defs))
		for name, def := range s.defs {
			out.Defs[name] = s.nodeToSchema(def)
		}
	}
	return out
}

// nodeToSchema converts a Node to a JSONSchema.
func (s *Schema) nodeToSchema(n *Node) JSONSchema {
	var out JSONSchema

	switch n.kind {
	case KindScalar:
		out = scalarToSchema(n.scalar)
	case KindOptional:
		out = JSONSchema{AnyOf: []JSONSchema{s.nodeToSchema(n.elem), {Type: "null"}}}
	case KindList, KindSet:
		items := s.nodeToSchema(n.elem)
		out = JSONSchema{Type: "array", Items: &items, UniqueItems: n.kind == KindSet}
	case KindMap:
		values := s.nodeToSchema(n.elem)
		out = JSONSchema{Type: "object", AdditionalProperties: &values}
		if k := n.key; k.kind == KindScalar && k.scalar == TypeInteger {
			out.PropertyNames = &JSONSchema{Pattern: intLiteral.String()}
		}
	case KindObject:
		out = s.objectToSchema(n)
	case KindUnion:
		out.AnyOf = make([]JSONSchema, len(n.candidates))
		for i, c := range n.candidates {
			out.AnyOf[i] = s.nodeToSchema(c)
		}
	case KindEnum, KindLiteral:
		out.Enum = make([]any, len(n.values))
		for i, v := range n.values {
			out.Enum[i] = Encode(v)
		}
		if n.kind == KindEnum {
			out.Title = n.name
		}
	case KindRef:
		out.Ref = "#/$defs/" + n.name
	}

	if n.title != "" {
		out.Title = n.title
	}
	if n.description != "" {
		out.Description = n.description
	}
	applyConstraints(n, &out)
	return out
}

func scalarToSchema(t Type) JSONSchema {
	switch t {
	case TypeString:
		return JSONSchema{Type: "string"}
	case TypeInteger:
		return JSONSchema{Type: "integer"}
	case TypeFloat:
		return JSONSchema{Type: "number"}
	case TypeBoolean:
		return JSONSchema{Type: "boolean"}
	case TypeDateTime:
		return JSONSchema{Type: "string", Format: "date-time"}
	case TypeURL:
		return JSONSchema{Type: "string", Format: "uri"}
	case TypeEmail:
		return JSONSchema{Type: "string", Format: "email"}
	case TypeUUID:
		return JSONSchema{Type: "string", Format: "uuid"}
	default:
		return JSONSchema{}
	}
}

// objectToSchema converts an object node to a JSONSchema with properties.
func (s *Schema) objectToSchema(n *Node) JSONSchema {
	schema := JSONSchema{
		Type:       "object",
		Title:      n.name,
		Properties: make(map[string]JSONSchema, len(n.fields)),
	}
	for _, f := range n.fields {
		prop := s.nodeToSchema(f.node)
		if f.title != "" {
			prop.Title = f.title
		}
		if f.description != "" {
			prop.Description = f.description
		}
		if f.hasDefault {
			prop.Default = Encode(f.def)
		}
		schema.Properties[f.Alias()] = prop
		if s.required(f) {
			schema.Required = append(schema.Required, f.Alias())
		}
	}
	if n.extra == ExtraForbid {
		schema.AdditionalProperties = false
	}
	return schema
}

// applyConstraints maps declared constraints onto JSON Schema keywords.
func applyConstraints(n *Node, s *JSONSchema) {
	for _, c := range n.constraints {
		switch c.Name {
		case CMinLength, CMaxLength:
			l := c.Param.(int)
			isMin := c.Name == CMinLength
			switch {
			case n.kind == KindMap && isMin:
				s.MinProperties = &l
			case n.kind == KindMap:
				s.MaxProperties = &l
			case (n.kind == KindList || n.kind == KindSet) && isMin:
				s.MinItems = &l
			case n.kind == KindList || n.kind == KindSet:
				s.MaxItems = &l
			case isMin:
				s.MinLength = &l
			default:
				s.MaxLength = &l
			}
		case CGe:
			b := c.Param.(float64)
			s.Minimum = &b
		case CGt:
			b := c.Param.(float64)
			s.ExclusiveMin = &b
		case CLe:
			b := c.Param.(float64)
			s.Maximum = &b
		case CLt:
			b := c.Param.(float64)
			s.ExclusiveMax = &b
		case CMultipleOf:
			b := c.Param.(float64)
			s.MultipleOf = &b
		case CPattern:
			s.Pattern, _ = c.Param.(string)
		}
	}
}

// DefinitionNames returns the names of the schema's definitions, sorted.
func (s *Schema) DefinitionNames() []string {
	names := make([]string, 0, len(s.defs))
	for name := range s.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
