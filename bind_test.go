package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/model"
	"github.com/bjaus/model/modeltest"
)

type image struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type item struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Price       float64  `json:"price"`
	Tax         *float64 `json:"tax"`
	Tags        []string `json:"tags"`
	Images      []image  `json:"images"`
}

var errTaxExceedsPrice = errors.New("tax exceeds price")

// Validate implements model.SelfValidator.
func (i *item) Validate() error {
	if i.Tax != nil && *i.Tax > i.Price {
		return errTaxExceedsPrice
	}
	return nil
}

func TestBind(t *testing.T) {
	t.Parallel()

	t.Run("struct", func(t *testing.T) {
		t.Parallel()
		v := modeltest.RequireValid(t, itemSchema, modeltest.JSON(t, `{
			"name": "Foo",
			"price": "35.4",
			"tax": 3.2,
			"tags": ["a", "b", "a"],
			"images": [{"url": "https://example.com/a.png", "name": "A"}]
		}`))

		var got item
		require.NoError(t, model.Bind(v, &got))
		assert.Equal(t, "Foo", got.Name)
		assert.Nil(t, got.Description)
		assert.Equal(t, 35.4, got.Price)
		require.NotNil(t, got.Tax)
		assert.Equal(t, 3.2, *got.Tax)
		assert.Equal(t, []string{"a", "b"}, got.Tags)
		assert.Equal(t, []image{{URL: "https://example.com/a.png", Name: "A"}}, got.Images)
	})

	t.Run("self validation", func(t *testing.T) {
		t.Parallel()
		v := modeltest.RequireValid(t, itemSchema, map[string]any{"name": "Foo", "price": 1, "tax": 2})

		var got item
		err := model.Bind(v, &got)
		assert.ErrorIs(t, err, errTaxExceedsPrice)
	})

	t.Run("map with integer keys", func(t *testing.T) {
		t.Parallel()
		s := model.MustCompile(model.Map(model.Int(), model.Float()))
		v := modeltest.RequireValid(t, s, modeltest.JSON(t, `{"1": "2.5", "-3": 4}`))

		var got map[int64]float64
		require.NoError(t, model.Bind(v, &got))
		assert.Equal(t, map[int64]float64{1: 2.5, -3: 4}, got)
	})

	t.Run("time and uuid", func(t *testing.T) {
		t.Parallel()
		s := model.MustCompile(model.Object("Event", model.Fields(
			model.F("id", model.UUID()),
			model.F("at", model.DateTime()),
			model.F("label", model.UUID()),
		)))
		v := modeltest.RequireValid(t, s, map[string]any{
			"id":    "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			"at":    "2024-01-02T03:04:05Z",
			"label": "6ba7b811-9dad-11d1-80b4-00c04fd430c8",
		})

		var got struct {
			ID    uuid.UUID `json:"id"`
			At    time.Time `json:"at"`
			Label string    `json:"label"`
		}
		require.NoError(t, model.Bind(v, &got))
		assert.Equal(t, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), got.ID)
		assert.True(t, got.At.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
		assert.Equal(t, "6ba7b811-9dad-11d1-80b4-00c04fd430c8", got.Label)
	})

	t.Run("incompatible target", func(t *testing.T) {
		t.Parallel()
		v := modeltest.RequireValid(t, itemSchema, map[string]any{"name": "Foo", "price": 1})

		var got struct {
			Name int `json:"name"`
		}
		err := model.Bind(v, &got)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bind:")
	})

	t.Run("non-pointer target", func(t *testing.T) {
		t.Parallel()
		err := model.Bind(map[string]any{}, item{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bind:")
	})
}
