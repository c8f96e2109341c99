package model_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/model"
	"github.com/bjaus/model/modeltest"
)

type ModelName string

type catalogItem struct {
	_           struct{}  `extra:"forbid" doc:"An item in the catalog"`
	Name        string    `json:"name" minLength:"1"`
	Description *string   `json:"description" maxLength:"300" doc:"Item description"`
	Price       float64   `json:"price" exclusiveMinimum:"0"`
	Tax         float64   `json:"tax" default:"10.5"`
	Tags        []string  `json:"tags" unique:"true" default:"[]"`
	Quantity    uint      `json:"quantity,omitempty"`
	Model       ModelName `json:"model" enum:"alexnet,resnet,lenet" default:"alexnet"`
	OrderBy     string    `json:"order_by" alias:"orderBy" enum:"created_at,updated_at" default:"created_at"`
	Contact     string    `json:"contact" format:"email" required:"false"`
	ID          uuid.UUID `json:"id" required:"false"`
	Created     time.Time `json:"created"`
	Ignored     string    `json:"-"`
	internal    int
}

type treeNode struct {
	Value    int        `json:"value"`
	Children []treeNode `json:"children" default:"[]"`
	Parent   *treeNode  `json:"parent"`
}

func TestSchemaFor_struct(t *testing.T) {
	t.Parallel()

	s, err := model.SchemaFor[catalogItem]()
	require.NoError(t, err)
	root := s.Root()

	assert.Equal(t, model.KindObject, root.Kind())
	assert.Equal(t, "catalogItem", root.Name())
	assert.Equal(t, model.ExtraForbid, root.Extra())
	assert.Equal(t, "An item in the catalog", root.Description())
	assert.Equal(t,
		[]string{"name", "description", "price", "tax", "tags", "quantity", "model", "order_by", "contact", "id", "created"},
		fieldNames(root))

	tests := map[string]struct {
		field    string
		kind     model.Kind
		required bool
		def      any
	}{
		"constrained string": {field: "name", kind: model.KindScalar, required: true},
		"pointer":            {field: "description", kind: model.KindOptional},
		"float default":      {field: "tax", kind: model.KindScalar, def: 10.5},
		"unique slice":       {field: "tags", kind: model.KindSet, def: model.SetValue{}},
		"omitempty":          {field: "quantity", kind: model.KindScalar},
		"named enum":         {field: "model", kind: model.KindEnum, def: "alexnet"},
		"literal":            {field: "order_by", kind: model.KindLiteral, def: "created_at"},
		"format":             {field: "contact", kind: model.KindScalar},
		"time":               {field: "created", kind: model.KindScalar, required: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			f, ok := root.Field(tc.field)
			require.True(t, ok)
			assert.Equal(t, tc.kind, f.Node().Kind())
			assert.Equal(t, tc.required, f.Required())
			def, hasDefault := f.Default()
			assert.Equal(t, tc.def != nil, hasDefault)
			if tc.def != nil {
				assert.Equal(t, tc.def, def)
			}
		})
	}

	t.Run("node details", func(t *testing.T) {
		t.Parallel()
		desc, _ := root.Field("description")
		assert.Equal(t, "Item description", desc.Description())
		assert.Len(t, desc.Node().Elem().Constraints(), 1)

		enum, _ := root.Field("model")
		assert.Equal(t, "ModelName", enum.Node().Name())
		assert.Equal(t, []any{"alexnet", "resnet", "lenet"}, enum.Node().Values())

		order, _ := root.Field("order_by")
		assert.Equal(t, "orderBy", order.Alias())

		quantity, _ := root.Field("quantity")
		require.Len(t, quantity.Node().Constraints(), 1)
		assert.Equal(t, 0.0, quantity.Node().Constraints()[0].Param)

		contact, _ := root.Field("contact")
		assert.Equal(t, model.TypeEmail, contact.Node().Type())
	})
}

func TestSchemaFor_validateAndBind(t *testing.T) {
	t.Parallel()

	s := model.MustSchemaFor[catalogItem]()

	v := modeltest.RequireValid(t, s, modeltest.JSON(t, `{
		"name": "Foo",
		"description": "A very nice Item",
		"price": "35.4",
		"tags": ["a", "b", "a"],
		"quantity": "3",
		"model": "resnet",
		"orderBy": "updated_at",
		"contact": "foo@example.com",
		"created": "2024-01-02T03:04:05Z"
	}`))

	var got catalogItem
	require.NoError(t, model.Bind(v, &got))
	assert.Equal(t, "Foo", got.Name)
	require.NotNil(t, got.Description)
	assert.Equal(t, "A very nice Item", *got.Description)
	assert.Equal(t, 35.4, got.Price)
	assert.Equal(t, 10.5, got.Tax)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.Equal(t, uint(3), got.Quantity)
	assert.Equal(t, ModelName("resnet"), got.Model)
	assert.Equal(t, "updated_at", got.OrderBy)
	assert.Equal(t, "foo@example.com", got.Contact)
	assert.Equal(t, uuid.Nil, got.ID)
	assert.True(t, got.Created.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))

	ve := modeltest.RequireInvalid(t, s, modeltest.JSON(t, `{
		"name": "",
		"price": 0,
		"quantity": -1,
		"model": "vgg",
		"contact": "not-an-email",
		"created": "yesterday",
		"Ignored": "x"
	}`), "body")
	assert.Equal(t, []model.ErrorKind{
		model.ConstraintViolation,
		model.ConstraintViolation,
		model.ConstraintViolation,
		model.TypeCoercionError,
		model.TypeCoercionError,
		model.TypeCoercionError,
		model.UnexpectedField,
	}, ve.Kinds())
	modeltest.ErrorsAt(t, ve, "body", "Ignored")
}

func TestSchemaFor_recursive(t *testing.T) {
	t.Parallel()

	s, err := model.SchemaFor[treeNode]()
	require.NoError(t, err)
	assert.Equal(t, []string{"treeNode"}, s.DefinitionNames())

	v := modeltest.RequireValid(t, s, map[string]any{
		"value": 1,
		"children": []any{
			map[string]any{"value": "2", "children": []any{map[string]any{"value": 3}}},
		},
	})

	var got treeNode
	require.NoError(t, model.Bind(v, &got))
	assert.Equal(t, 1, got.Value)
	require.Len(t, got.Children, 1)
	assert.Equal(t, 2, got.Children[0].Value)
	require.Len(t, got.Children[0].Children, 1)
	assert.Equal(t, 3, got.Children[0].Children[0].Value)
	assert.Nil(t, got.Parent)

	ve := modeltest.RequireInvalid(t, s, map[string]any{"value": 1, "parent": map[string]any{"value": "x"}})
	modeltest.ErrorsAt(t, ve, "parent", "value")
}

func TestSchemaFor_nonStruct(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		typ  reflect.Type
		kind model.Kind
		raw  any
	}{
		"slice":         {typ: reflect.TypeFor[[]int](), kind: model.KindList, raw: []any{"1", 2}},
		"map":           {typ: reflect.TypeFor[map[string]float64](), kind: model.KindMap, raw: map[string]any{"a": "1.5"}},
		"map int keys":  {typ: reflect.TypeFor[map[int]bool](), kind: model.KindMap, raw: map[string]any{"1": "true"}},
		"pointer":       {typ: reflect.TypeFor[*string](), kind: model.KindOptional, raw: nil},
		"interface":     {typ: reflect.TypeFor[any](), kind: model.KindScalar, raw: []any{1, "x"}},
		"array of time": {typ: reflect.TypeFor[[2]time.Time](), kind: model.KindList, raw: []any{"2024-01-01T00:00:00Z"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s, err := model.SchemaOf(tc.typ)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, s.Root().Kind())
			modeltest.RequireValid(t, s, tc.raw)
		})
	}
}

func TestSchemaFor_errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		typ      reflect.Type
		wantPath model.Path
		wantMsg  string
	}{
		"unsupported type": {
			typ:      reflect.TypeOf(struct{ C chan int }{}),
			wantPath: model.Path{"C"},
			wantMsg:  "unsupported Go type chan int",
		},
		"bad constraint tag": {
			typ: reflect.TypeOf(struct {
				Name string `minLength:"x"`
			}{}),
			wantPath: model.Path{"Name"},
			wantMsg:  `tag minLength: "x" is not an integer`,
		},
		"constraint on wrong type": {
			typ: reflect.TypeOf(struct {
				Flag bool `minLength:"1"`
			}{}),
			wantMsg: "constraint min_length does not apply to boolean",
		},
		"bad default": {
			typ: reflect.TypeOf(struct {
				N int `default:"abc"`
			}{}),
			wantPath: model.Path{"N"},
			wantMsg:  `default: "abc" is not a valid integer`,
		},
		"default not in enum": {
			typ: reflect.TypeOf(struct {
				S string `enum:"a,b" default:"c"`
			}{}),
			wantPath: model.Path{"S"},
			wantMsg:  `"c" is not one of`,
		},
		"unknown format": {
			typ: reflect.TypeOf(struct {
				IP string `format:"ipv4"`
			}{}),
			wantMsg: `unknown format "ipv4"`,
		},
		"format on int": {
			typ: reflect.TypeOf(struct {
				N int `format:"email"`
			}{}),
			wantMsg: "format applies to strings, not int",
		},
		"bad enum value": {
			typ: reflect.TypeOf(struct {
				N int `enum:"1,x"`
			}{}),
			wantMsg: `enum value "x" is not a valid integer`,
		},
		"enum with constraints": {
			typ: reflect.TypeOf(struct {
				S string `enum:"a,b" minLength:"1"`
			}{}),
			wantMsg: "constraint tags do not apply to an enum",
		},
		"unique on string": {
			typ: reflect.TypeOf(struct {
				S string `unique:"true"`
			}{}),
			wantMsg: "unique applies to slices, not string",
		},
		"required with default": {
			typ: reflect.TypeOf(struct {
				N int `default:"1" required:"true"`
			}{}),
			wantMsg: "required field cannot declare a default",
		},
		"required not boolean": {
			typ: reflect.TypeOf(struct {
				N int `required:"maybe"`
			}{}),
			wantMsg: `tag required: "maybe" is not a boolean`,
		},
		"unknown extra policy": {
			typ: reflect.TypeOf(struct {
				_ struct{} `extra:"allow"`
			}{}),
			wantMsg: `unknown extra policy "allow"`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s, err := model.SchemaOf(tc.typ)
			assert.Nil(t, s)
			require.ErrorIs(t, err, model.ErrSchemaDefinition)
			var sde *model.SchemaDefinitionError
			require.ErrorAs(t, err, &sde)
			assert.Contains(t, sde.Reason, tc.wantMsg)
			if tc.wantPath != nil {
				assert.Equal(t, tc.wantPath, sde.Path)
			}
		})
	}
}

func TestMustSchemaFor_panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		model.MustSchemaFor[chan int]()
	})
}
