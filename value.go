package model

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
)

type absent struct{}

func (absent) String() string { return "<absent>" }

// Absent marks a value that was not supplied at all, as distinct from an
// explicit null.
var Absent any = absent{}

// Mapping is an ordered raw mapping. The decoders in this package produce it
// so that errors for undeclared keys and map entries follow input order.
type Mapping struct {
	keys []string
	vals map[string]any
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{vals: make(map[string]any)}
}

// Set assigns key, keeping its first position if it already exists.
func (m *Mapping) Set(key string, v any) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Get returns the value for key.
func (m *Mapping) Get(key string) (any, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string { return append([]string(nil), m.keys...) }

// Len returns the number of keys.
func (m *Mapping) Len() int { return len(m.keys) }

// rawEntries returns the entries of a raw mapping in a deterministic order:
// insertion order for *Mapping, sorted keys for Go maps with string keys.
func rawEntries(raw any) ([]string, func(string) (any, bool), bool) {
	switch m := raw.(type) {
	case *Mapping:
		return m.keys, m.Get, true
	case *ObjectValue:
		return m.keys, m.Get, true
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, func(k string) (any, bool) {
			v, ok := m[k]
			return v, ok
		}, true
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, nil, false
	}
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	kt := rv.Type().Key()
	return keys, func(k string) (any, bool) {
		v := rv.MapIndex(reflect.ValueOf(k).Convert(kt))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	}, true
}

// ObjectValue is the coerced value of an object node. Fields appear in
// declared order.
type ObjectValue struct {
	node  *Node
	keys  []string
	vals  map[string]any
	setBy map[string]bool
}

func newObjectValue(node *Node, capacity int) *ObjectValue {
	return &ObjectValue{
		node:  node,
		keys:  make([]string, 0, capacity),
		vals:  make(map[string]any, capacity),
		setBy: make(map[string]bool, capacity),
	}
}

func (o *ObjectValue) put(key string, v any, explicit bool) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
	if explicit {
		o.setBy[key] = true
	}
}

// Schema returns the object node that produced the value.
func (o *ObjectValue) Schema() *Node { return o.node }

// Get returns a field value.
func (o *ObjectValue) Get(name string) (any, bool) {
	v, ok := o.vals[name]
	return v, ok
}

// Keys returns the field names in order.
func (o *ObjectValue) Keys() []string { return append([]string(nil), o.keys...) }

// Len returns the number of fields.
func (o *ObjectValue) Len() int { return len(o.keys) }

// IsSet reports whether the field was supplied in the raw input rather than
// filled from a default.
func (o *ObjectValue) IsSet(name string) bool { return o.setBy[name] }

// MarshalJSON encodes the object with fields in declared order.
func (o *ObjectValue) MarshalJSON() ([]byte, error) {
	return marshalOrdered(o.keys, func(k string) any { return o.vals[k] })
}

// MapEntry is one key/value pair of a MapValue.
type MapEntry struct {
	Key   any
	Value any
}

// MapValue is the coerced value of a map node. Entries keep input order.
type MapValue struct {
	entries []MapEntry
}

// Entries returns the entries in order.
func (m *MapValue) Entries() []MapEntry { return append([]MapEntry(nil), m.entries...) }

// Len returns the number of entries.
func (m *MapValue) Len() int { return len(m.entries) }

// Get returns the value stored under a key equal to key.
func (m *MapValue) Get(key any) (any, bool) {
	for _, e := range m.entries {
		if Equal(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

func (m *MapValue) put(key, v any) {
	for i, e := range m.entries {
		if Equal(e.Key, key) {
			m.entries[i].Value = v
			return
		}
	}
	m.entries = append(m.entries, MapEntry{Key: key, Value: v})
}

// MarshalJSON encodes the map as a JSON object with stringified keys.
func (m *MapValue) MarshalJSON() ([]byte, error) {
	keys := make([]string, len(m.entries))
	vals := make(map[string]any, len(m.entries))
	for i, e := range m.entries {
		k := keyString(e.Key)
		keys[i] = k
		vals[k] = e.Value
	}
	return marshalOrdered(keys, func(k string) any { return vals[k] })
}

// SetValue is the coerced value of a set node: unique elements in order of
// first occurrence. It encodes as a JSON array.
type SetValue []any

// Contains reports whether the set holds an element equal to v.
func (s SetValue) Contains(v any) bool {
	for _, e := range s {
		if Equal(e, v) {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the set as an array.
func (s SetValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(Encode([]any(s)))
}

func marshalOrdered(keys []string, get func(string) any) ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(Encode(get(k)))
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	return append(buf, '}'), nil
}

// Equal reports structural equality of two values. Numbers compare by value
// regardless of representation; objects compare field by field; sets ignore
// order.
func Equal(a, b any) bool {
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		if !ok {
			return false
		}
		if ia, aok := asInt(a); aok {
			if ib, bok := asInt(b); bok {
				return ia == ib
			}
		}
		return fa == fb
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case uuid.UUID:
		y, ok := b.(uuid.UUID)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		return ok && equalSlices(x, y)
	case SetValue:
		y, ok := b.(SetValue)
		if !ok || len(x) != len(y) {
			return false
		}
		for _, e := range x {
			if !y.Contains(e) {
				return false
			}
		}
		return true
	case *ObjectValue:
		y, ok := b.(*ObjectValue)
		if !ok || len(x.keys) != len(y.keys) {
			return false
		}
		for _, k := range x.keys {
			yv, ok := y.vals[k]
			if !ok || !Equal(x.vals[k], yv) {
				return false
			}
		}
		return true
	case *MapValue:
		y, ok := b.(*MapValue)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, e := range x.entries {
			yv, ok := y.Get(e.Key)
			if !ok || !Equal(e.Value, yv) {
				return false
			}
		}
		return true
	case *Mapping:
		return equalRawMappings(a, b)
	case map[string]any:
		return equalRawMappings(a, b)
	default:
		return reflect.DeepEqual(a, b)
	}
}

func equalSlices(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalRawMappings(a, b any) bool {
	ak, aget, ok := rawEntries(a)
	if !ok {
		return false
	}
	bk, bget, ok := rawEntries(b)
	if !ok || len(ak) != len(bk) {
		return false
	}
	for _, k := range ak {
		av, _ := aget(k)
		bv, ok := bget(k)
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	if u, ok := v.(uint64); ok {
		return float64(u), true
	}
	return 0, false
}

// asInt reports native Go integers that fit in int64.
func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case json.Number:
		i, err := x.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
