package model

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	intLiteral   = regexp.MustCompile(`^-?(0|[1-9][0-9]*)$`)
	floatLiteral = regexp.MustCompile(`^-?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][-+]?[0-9]+)?$`)
)

// naiveLayouts are accepted for date-time strings without a zone; they are
// interpreted as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// coercer converts a raw value to the target representation of a scalar type.
// ok is false when raw has no accepted source form.
type coercer func(raw any) (v any, ok bool)

var coercers = map[Type]coercer{
	TypeString:   coerceString,
	TypeInteger:  coerceInt,
	TypeFloat:    coerceFloat,
	TypeBoolean:  coerceBool,
	TypeDateTime: coerceDateTime,
	TypeURL:      coerceURL,
	TypeEmail:    coerceEmail,
	TypeUUID:     coerceUUID,
	TypeAny:      func(raw any) (any, bool) { return raw, true },
}

func coerceScalar(t Type, raw any) (any, bool) {
	c, ok := coercers[t]
	if !ok {
		return nil, false
	}
	return c(raw)
}

func coerceString(raw any) (any, bool) {
	s, ok := raw.(string)
	return s, ok
}

func coerceInt(raw any) (any, bool) {
	switch x := raw.(type) {
	case string:
		if !intLiteral.MatchString(x) {
			return nil, false
		}
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	case float64:
		return integralFloat(x)
	case float32:
		return integralFloat(float64(x))
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		f, err := x.Float64()
		if err != nil {
			return nil, false
		}
		return integralFloat(f)
	case bool:
		return nil, false
	}
	if n, ok := asInt(raw); ok {
		return n, true
	}
	return nil, false
}

func integralFloat(f float64) (any, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, false
	}
	return int64(f), true
}

func coerceFloat(raw any) (any, bool) {
	switch x := raw.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, false
		}
		return f, true
	case string:
		if !floatLiteral.MatchString(x) {
			return nil, false
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case bool:
		return nil, false
	}
	if n, ok := asInt(raw); ok {
		return float64(n), true
	}
	if u, ok := raw.(uint64); ok {
		return float64(u), true
	}
	return nil, false
}

func coerceBool(raw any) (any, bool) {
	switch x := raw.(type) {
	case bool:
		return x, true
	case string:
		switch x {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return nil, false
}

func coerceDateTime(raw any) (any, bool) {
	switch x := raw.(type) {
	case time.Time:
		return x, true
	case string:
		if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return t, true
		}
		for _, layout := range naiveLayouts {
			if t, err := time.ParseInLocation(layout, x, time.UTC); err == nil {
				return t, true
			}
		}
	}
	return nil, false
}

func coerceURL(raw any) (any, bool) {
	s, ok := raw.(string)
	if !ok {
		return nil, false
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return nil, false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return s, true
	default:
		return nil, false
	}
}

func coerceEmail(raw any) (any, bool) {
	s, ok := raw.(string)
	if !ok {
		return nil, false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return nil, false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || !strings.Contains(s[at+1:], ".") {
		return nil, false
	}
	return s, true
}

func coerceUUID(raw any) (any, bool) {
	switch x := raw.(type) {
	case uuid.UUID:
		return x, true
	case string:
		id, err := uuid.Parse(x)
		if err != nil {
			return nil, false
		}
		return id, true
	default:
		return nil, false
	}
}

// observe names the kind of a raw value for TypeCoercionError messages.
func observe(raw any) string {
	switch x := raw.(type) {
	case nil:
		return "null"
	case absent:
		return "absent"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float32, float64:
		return "float"
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return "integer"
		}
		return "float"
	case time.Time:
		return "date-time"
	case uuid.UUID:
		return "uuid"
	case []any, SetValue:
		return "array"
	case *Mapping, *ObjectValue, *MapValue, map[string]any:
		return "object"
	}
	if _, ok := asInt(raw); ok {
		return "integer"
	}
	return fmt.Sprintf("%T", raw)
}

// describe names the kind a node expects.
func describe(n *Node) string {
	switch n.kind {
	case KindScalar:
		return string(n.scalar)
	case KindOptional:
		return "optional " + describe(n.elem)
	case KindList:
		return "array"
	case KindSet:
		return "set"
	case KindMap:
		return "object"
	case KindObject:
		if n.name != "" {
			return n.name
		}
		return "object"
	case KindEnum, KindLiteral:
		vals := make([]string, len(n.values))
		for i, v := range n.values {
			vals[i] = fmt.Sprintf("%v", v)
		}
		prefix := "literal"
		if n.kind == KindEnum {
			prefix = "enum"
			if n.name != "" {
				prefix = n.name
			}
		}
		return prefix + "[" + strings.Join(vals, ", ") + "]"
	case KindUnion:
		return "union"
	case KindRef:
		return n.name
	default:
		return n.kind.String()
	}
}
