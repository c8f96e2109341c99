package model

import (
	"fmt"
	"reflect"
)

// SelfValidator is implemented by values that validate themselves after
// structural validation, such as types produced by Bind.
type SelfValidator interface {
	Validate() error
}

// Validator validates raw input against a schema.
type Validator interface {
	Validate(raw any, path ...any) (any, error)
}

var _ Validator = (*Schema)(nil)

// Validate coerces raw against the schema. On success it returns the typed
// value tree; otherwise it returns a *ValidationError holding every violation
// in document order, and a nil value. path prefixes every error location.
func (s *Schema) Validate(raw any, path ...any) (any, error) {
	v := &validation{schema: s}
	out, errs := v.node(s.root, raw, Path(append([]any(nil), path...)), 0)
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return out, nil
}

// Validate is shorthand for s.Validate(raw, path...).
func Validate(s *Schema, raw any, path ...any) (any, error) {
	return s.Validate(raw, path...)
}

// validation holds the state of a single Validate call.
type validation struct {
	schema *Schema
}

func (v *validation) node(n *Node, raw any, path Path, depth int) (any, []FieldError) {
	n = v.schema.resolve(n)

	if raw == Absent {
		if n.kind == KindOptional {
			return nil, nil
		}
		return nil, []FieldError{{
			Path:    path,
			Kind:    MissingRequiredField,
			Message: "field required",
		}}
	}

	if depth > v.schema.maxDepth {
		return nil, []FieldError{{
			Path:    path,
			Kind:    TooDeeplyNested,
			Message: fmt.Sprintf("nesting exceeds maximum depth %d", v.schema.maxDepth),
		}}
	}

	switch n.kind {
	case KindOptional:
		if raw == nil {
			return nil, nil
		}
		return v.node(n.elem, raw, path, depth)
	case KindScalar:
		return v.scalar(n, raw, path)
	case KindEnum, KindLiteral:
		return v.choice(n, raw, path)
	case KindList, KindSet:
		return v.sequence(n, raw, path, depth)
	case KindMap:
		return v.mapping(n, raw, path, depth)
	case KindObject:
		return v.object(n, raw, path, depth)
	case KindUnion:
		return v.union(n, raw, path, depth)
	default:
		return nil, []FieldError{typeError(n, raw, path)}
	}
}

func typeError(n *Node, raw any, path Path) FieldError {
	expected := describe(n)
	observed := observe(raw)
	return FieldError{
		Path:     path,
		Kind:     TypeCoercionError,
		Message:  fmt.Sprintf("expected %s, got %s", expected, observed),
		Expected: expected,
		Observed: observed,
		Input:    raw,
	}
}

func (v *validation) scalar(n *Node, raw any, path Path) (any, []FieldError) {
	out, ok := coerceScalar(n.scalar, raw)
	if !ok {
		return nil, []FieldError{typeError(n, raw, path)}
	}
	if errs := checkConstraints(n, out, path); len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func (v *validation) choice(n *Node, raw any, path Path) (any, []FieldError) {
	for _, want := range n.values {
		if Equal(raw, want) {
			return want, nil
		}
		if got, ok := coerceLike(want, raw); ok && Equal(got, want) {
			return want, nil
		}
	}
	return nil, []FieldError{typeError(n, raw, path)}
}

// coerceLike coerces raw to the scalar type of want, so that enum and literal
// members match wire strings such as query parameters.
func coerceLike(want, raw any) (any, bool) {
	switch want.(type) {
	case bool:
		return coerceBool(raw)
	case float32, float64:
		return coerceFloat(raw)
	}
	if _, ok := asInt(want); ok {
		return coerceInt(raw)
	}
	return nil, false
}

func (v *validation) sequence(n *Node, raw any, path Path, depth int) (any, []FieldError) {
	items, ok := asSlice(raw)
	if !ok {
		return nil, []FieldError{typeError(n, raw, path)}
	}

	var errs []FieldError
	var failed []any
	out := make([]any, 0, len(items))
	for i, item := range items {
		ev, eerrs := v.node(n.elem, item, path.child(i), depth+1)
		if len(eerrs) > 0 {
			errs = append(errs, eerrs...)
			failed = append(failed, item)
			continue
		}
		out = append(out, ev)
	}

	var result any = out
	if n.kind == KindSet {
		set := make(SetValue, 0, len(out))
		for _, e := range out {
			if !set.Contains(e) {
				set = append(set, e)
			}
		}
		result = set
	}

	if len(errs) > 0 {
		// Size constraints still apply so that every violation is reported.
		// Failed elements count once each; valid set members after
		// deduplication.
		var sized any = append(out, failed...)
		if set, ok := result.(SetValue); ok {
			sized = append(set, failed...)
		}
		return nil, append(checkConstraints(n, sized, path), errs...)
	}
	if cerrs := checkConstraints(n, result, path); len(cerrs) > 0 {
		return nil, cerrs
	}
	return result, nil
}

func asSlice(raw any) ([]any, bool) {
	switch x := raw.(type) {
	case []any:
		return x, true
	case SetValue:
		return x, true
	case nil, string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func (v *validation) mapping(n *Node, raw any, path Path, depth int) (any, []FieldError) {
	keys, get, ok := rawEntries(raw)
	if !ok {
		return nil, []FieldError{typeError(n, raw, path)}
	}

	var errs []FieldError
	var failed []MapEntry
	out := &MapValue{entries: make([]MapEntry, 0, len(keys))}
	for _, k := range keys {
		at := path.child(k)
		kv, kerrs := v.node(n.key, k, at, depth+1)
		rv, _ := get(k)
		if len(kerrs) == 0 {
			if _, dup := out.Get(kv); dup {
				kerrs = append(kerrs, FieldError{
					Path:    at,
					Kind:    ConstraintViolation,
					Message: fmt.Sprintf("key %q duplicates an earlier key once coerced", k),
					Actual:  kv,
					Input:   rv,
				})
			}
		}
		vv, verrs := v.node(n.elem, rv, at, depth+1)
		if len(kerrs) > 0 || len(verrs) > 0 {
			errs = append(errs, kerrs...)
			errs = append(errs, verrs...)
			failed = append(failed, MapEntry{Key: k, Value: rv})
			continue
		}
		out.put(kv, vv)
	}

	if len(errs) > 0 {
		// As with sequences, size constraints count every entry.
		sized := &MapValue{entries: append(out.entries, failed...)}
		return nil, append(checkConstraints(n, sized, path), errs...)
	}
	if cerrs := checkConstraints(n, out, path); len(cerrs) > 0 {
		return nil, cerrs
	}
	return out, nil
}

func (v *validation) object(n *Node, raw any, path Path, depth int) (any, []FieldError) {
	keys, get, ok := rawEntries(raw)
	if !ok {
		return nil, []FieldError{typeError(n, raw, path)}
	}

	var errs []FieldError
	out := newObjectValue(n, len(n.fields))
	for _, f := range n.fields {
		key := f.Alias()
		rv, present := get(key)
		if !present {
			if f.hasDefault {
				out.put(f.name, f.def, false)
				continue
			}
			if !v.schema.required(f) {
				out.put(f.name, nil, false)
				continue
			}
			rv = Absent
		}
		fv, ferrs := v.node(f.node, rv, path.child(key), depth+1)
		if len(ferrs) > 0 {
			errs = append(errs, ferrs...)
			continue
		}
		out.put(f.name, fv, true)
	}

	if n.extra == ExtraForbid {
		for _, k := range keys {
			if declaresKey(n, k) {
				continue
			}
			rv, _ := get(k)
			errs = append(errs, FieldError{
				Path:    path.child(k),
				Kind:    UnexpectedField,
				Message: "extra inputs are not permitted",
				Input:   rv,
			})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func declaresKey(n *Node, key string) bool {
	for _, f := range n.fields {
		if f.Alias() == key {
			return true
		}
	}
	return false
}

func (v *validation) union(n *Node, raw any, path Path, depth int) (any, []FieldError) {
	variants := make([][]FieldError, 0, len(n.candidates))
	for _, cand := range n.candidates {
		out, errs := v.node(cand, raw, path, depth)
		if len(errs) == 0 {
			return out, nil
		}
		variants = append(variants, errs)
	}
	return nil, []FieldError{{
		Path:     path,
		Kind:     NoUnionVariantMatched,
		Message:  fmt.Sprintf("input matched none of %d union variants", len(n.candidates)),
		Input:    raw,
		Variants: variants,
	}}
}
