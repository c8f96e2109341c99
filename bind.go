package model

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// Bind decodes a value returned by Validate into target, a pointer to a Go
// struct, map, or slice. Struct fields are matched by their json tag, or by
// name when untagged. After decoding, target's Validate method runs if it
// implements SelfValidator.
//
//	var item struct {
//	    Name  string   `json:"name"`
//	    Price float64  `json:"price"`
//	    Tags  []string `json:"tags"`
//	}
//	err := model.Bind(v, &item)
func Bind(v, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     target,
		DecodeHook: mapstructure.DecodeHookFuncType(stringHook),
	})
	if err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	if err := dec.Decode(native(v)); err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	if sv, ok := target.(SelfValidator); ok {
		if err := sv.Validate(); err != nil {
			return err
		}
	}
	return nil
}

var (
	timeType = reflect.TypeFor[time.Time]()
	uuidType = reflect.TypeFor[uuid.UUID]()
)

// stringHook renders time.Time and uuid.UUID values as strings when the
// target field is a string.
func stringHook(from, to reflect.Type, data any) (any, error) {
	if (from == timeType || from == uuidType) && to.Kind() == reflect.String {
		return Encode(data), nil
	}
	return data, nil
}

// native converts the value tree into plain Go maps and slices that
// mapstructure understands.
func native(v any) any {
	switch x := v.(type) {
	case *ObjectValue:
		out := make(map[string]any, len(x.keys))
		for _, k := range x.keys {
			out[k] = native(x.vals[k])
		}
		return out
	case *MapValue:
		out := make(map[any]any, len(x.entries))
		for _, e := range x.entries {
			out[e.Key] = native(e.Value)
		}
		return out
	case SetValue:
		return nativeSlice(x)
	case []any:
		return nativeSlice(x)
	default:
		return v
	}
}

func nativeSlice(items []any) []any {
	out := make([]any, len(items))
	for i, e := range items {
		out[i] = native(e)
	}
	return out
}
