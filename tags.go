package model

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// constraintTags are the struct tags SchemaFor turns into constraints, in the
// order they are applied. minItems and maxItems are the sequence spellings of
// the size constraints.
var constraintTags = []struct {
	tag   string
	parse func(string) (NodeOption, error)
}{
	{"minLength", intTag(MinLength)},
	{"maxLength", intTag(MaxLength)},
	{"minItems", intTag(MinLength)},
	{"maxItems", intTag(MaxLength)},
	{"exclusiveMinimum", floatTag(Gt)},
	{"minimum", floatTag(Ge)},
	{"exclusiveMaximum", floatTag(Lt)},
	{"maximum", floatTag(Le)},
	{"multipleOf", floatTag(MultipleOf)},
	{"pattern", func(s string) (NodeOption, error) { return Pattern(s), nil }},
}

func intTag(opt func(int) NodeOption) func(string) (NodeOption, error) {
	return func(s string) (NodeOption, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		return opt(n), nil
	}
}

func floatTag(opt func(float64) NodeOption) func(string) (NodeOption, error) {
	return func(s string) (NodeOption, error) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		return opt(f), nil
	}
}

// tagConstraints collects the constraint options declared on a struct field.
func tagConstraints(tag reflect.StructTag) ([]NodeOption, error) {
	var opts []NodeOption
	for _, ct := range constraintTags {
		v, ok := tag.Lookup(ct.tag)
		if !ok {
			continue
		}
		opt, err := ct.parse(v)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", ct.tag, err)
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

// fieldName returns the wire name of a struct field: its json tag name, or
// the Go field name when the tag has none. "-" marks a skipped field.
func fieldName(f reflect.StructField) string {
	name, _ := tagOptions(f.Tag.Get("json"))
	if name == "" {
		return f.Name
	}
	return name
}

// tagOptions splits a struct tag value on comma and returns
// the name and remaining options.
func tagOptions(tag string) (string, string) {
	name, opts, _ := strings.Cut(tag, ",")
	return name, opts
}

// tagContains reports whether a comma-separated list of options
// contains a particular option.
func tagContains(opts string, name string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == name {
			return true
		}
	}
	return false
}
