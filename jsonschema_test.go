package model_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/model"
	"github.com/bjaus/model/modeltest"
)

func ptr[T any](v T) *T { return &v }

func TestJSONSchema_nodes(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		node *model.Node
		want model.JSONSchema
	}{
		"string": {
			node: model.String(model.MinLength(1), model.MaxLength(50), model.Pattern(`^\w+$`)),
			want: model.JSONSchema{Type: "string", MinLength: ptr(1), MaxLength: ptr(50), Pattern: `^\w+$`},
		},
		"integer bounds": {
			node: model.Int(model.Ge(0), model.Lt(1000)),
			want: model.JSONSchema{Type: "integer", Minimum: ptr(0.0), ExclusiveMax: ptr(1000.0)},
		},
		"float bounds": {
			node: model.Float(model.Gt(0), model.Le(10.5), model.MultipleOf(0.5)),
			want: model.JSONSchema{Type: "number", ExclusiveMin: ptr(0.0), Maximum: ptr(10.5), MultipleOf: ptr(0.5)},
		},
		"formats": {
			node: model.List(model.URL()),
			want: model.JSONSchema{Type: "array", Items: &model.JSONSchema{Type: "string", Format: "uri"}},
		},
		"set with size": {
			node: model.Set(model.Email(), model.MinLength(1)),
			want: model.JSONSchema{
				Type:        "array",
				Items:       &model.JSONSchema{Type: "string", Format: "email"},
				UniqueItems: true,
				MinItems:    ptr(1),
			},
		},
		"optional": {
			node: model.Optional(model.DateTime()),
			want: model.JSONSchema{AnyOf: []model.JSONSchema{{Type: "string", Format: "date-time"}, {Type: "null"}}},
		},
		"map with int keys": {
			node: model.Map(model.Int(), model.Float(), model.MaxLength(3)),
			want: model.JSONSchema{
				Type:                 "object",
				AdditionalProperties: &model.JSONSchema{Type: "number"},
				PropertyNames:        &model.JSONSchema{Pattern: `^-?[0-9]+$`},
				MaxProperties:        ptr(3),
			},
		},
		"enum": {
			node: model.Enum("ModelName", "alexnet", "resnet"),
			want: model.JSONSchema{Title: "ModelName", Enum: []any{"alexnet", "resnet"}},
		},
		"union": {
			node: model.Union(model.UUID(), model.Bool()),
			want: model.JSONSchema{AnyOf: []model.JSONSchema{{Type: "string", Format: "uuid"}, {Type: "boolean"}}},
		},
		"ref": {
			node: model.List(model.Ref("Image")),
			want: model.JSONSchema{Type: "array", Items: &model.JSONSchema{Ref: "#/$defs/Image"}},
		},
		"any with docs": {
			node: model.Any(model.Title("Payload"), model.Description("free-form")),
			want: model.JSONSchema{Title: "Payload", Description: "free-form"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := model.MustCompile(tc.node, model.WithDefinition("Image", imageNode))
			got := s.JSONSchema()
			assert.Equal(t, model.JSONSchemaDialect, got.Schema)
			got.Schema = ""
			got.Defs = nil
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestJSONSchema_object(t *testing.T) {
	t.Parallel()

	s := model.MustCompile(model.Object("Query", model.Fields(
		model.F("q", model.Optional(model.String()), model.Alias("item-query"), model.Doc("Query string", "Items to search")),
		model.F("limit", model.Int(), model.Default(100)),
		model.F("order_by", model.Literal("created_at", "updated_at")),
		model.F("start", model.DateTime()),
	), model.Forbid()))

	got := s.JSONSchema()
	assert.Equal(t, "object", got.Type)
	assert.Equal(t, "Query", got.Title)
	assert.Equal(t, false, got.AdditionalProperties)
	assert.Equal(t, []string{"order_by", "start"}, got.Required)

	require.Contains(t, got.Properties, "item-query")
	q := got.Properties["item-query"]
	assert.Equal(t, "Query string", q.Title)
	assert.Equal(t, "Items to search", q.Description)

	assert.Equal(t, 100, got.Properties["limit"].Default)
	assert.Equal(t, []any{"created_at", "updated_at"}, got.Properties["order_by"].Enum)
}

func compileExport(t *testing.T, s *model.Schema) *jsonschema.Schema {
	t.Helper()
	doc, err := json.Marshal(s.JSONSchema())
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	require.NoError(t, compiler.AddResource("schema.json", bytes.NewReader(doc)))
	compiled, err := compiler.Compile("schema.json")
	require.NoError(t, err)
	return compiled
}

// Every value produced by Validate, once encoded, satisfies the exported
// JSON Schema.
func TestJSONSchema_describesEncodedValues(t *testing.T) {
	t.Parallel()

	tree := model.Object("Tree", model.Fields(
		model.F("value", model.Int(model.Ge(0))),
		model.F("children", model.List(model.Ref("Tree")), model.Default([]any{})),
	))

	tests := map[string]struct {
		schema *model.Schema
		doc    string
	}{
		"item": {
			schema: itemSchema,
			doc:    `{"name":"Foo","price":"35.4","tags":["b","b"],"images":[{"url":"https://example.com/a.png","name":"A"}]}`,
		},
		"map int keys": {
			schema: model.MustCompile(model.Map(model.Int(), model.Float())),
			doc:    `{"1": "2", "-3": 3.5}`,
		},
		"recursive": {
			schema: model.MustCompile(model.Ref("Tree"), model.WithDefinition("Tree", tree)),
			doc:    `{"value": "1", "children": [{"value": 2}]}`,
		},
		"forbid extra": {
			schema: model.MustCompile(model.Object("F", model.Fields(
				model.F("order_by", model.Literal("created_at", "updated_at"), model.Default("created_at")),
				model.F("when", model.Optional(model.DateTime())),
			), model.Forbid())),
			doc: `{"when": "2024-01-01 10:00:00"}`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			compiled := compileExport(t, tc.schema)

			v := modeltest.RequireValid(t, tc.schema, modeltest.JSON(t, tc.doc))
			data, err := json.Marshal(model.Encode(v))
			require.NoError(t, err)
			var plain any
			require.NoError(t, json.Unmarshal(data, &plain))
			assert.NoError(t, compiled.Validate(plain))
		})
	}
}

func TestJSONSchema_rejectsWhatValidateRejects(t *testing.T) {
	t.Parallel()

	compiled := compileExport(t, itemSchema)

	var plain any
	require.NoError(t, json.Unmarshal([]byte(`{"name":"","price":-1}`), &plain))
	require.Error(t, compiled.Validate(plain))

	_, err := itemSchema.Validate(plain)
	require.Error(t, err)
}
