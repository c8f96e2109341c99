package model

import (
	"net/url"
	"sort"
)

// FromQuery builds raw input for s from query parameters. The schema root
// must be an object (possibly behind Optional or Ref). Declared fields are
// looked up by alias: list and set fields receive every value, other fields
// the last one. Fields with no values stay absent. Undeclared parameters are
// passed through, sorted by name, so that a Forbid policy can report them.
//
//	q, _ := url.ParseQuery("tags=a&tags=b&limit=10")
//	v, err := s.Validate(model.FromQuery(s, q), "query")
func FromQuery(s *Schema, values url.Values) *Mapping {
	m := NewMapping()
	root := s.object(s.root)
	if root == nil {
		return m
	}

	for _, f := range root.fields {
		key := f.Alias()
		vals, ok := values[key]
		if !ok || len(vals) == 0 {
			continue
		}
		if s.multiValued(f.node) {
			items := make([]any, len(vals))
			for i, v := range vals {
				items[i] = v
			}
			m.Set(key, items)
			continue
		}
		m.Set(key, vals[len(vals)-1])
	}

	extra := make([]string, 0, len(values))
	for key := range values {
		if !declaresKey(root, key) {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		vals := values[key]
		if len(vals) == 1 {
			m.Set(key, vals[0])
			continue
		}
		items := make([]any, len(vals))
		for i, v := range vals {
			items[i] = v
		}
		m.Set(key, items)
	}
	return m
}

// object unwraps optional and ref nodes down to an object node.
func (s *Schema) object(n *Node) *Node {
	for hops := 0; n != nil && hops <= len(s.defs)+1; hops++ {
		switch n.kind {
		case KindObject:
			return n
		case KindOptional:
			n = n.elem
		case KindRef:
			n = s.defs[n.name]
		default:
			return nil
		}
	}
	return nil
}

func (s *Schema) multiValued(n *Node) bool {
	for hops := 0; n != nil && hops <= len(s.defs)+1; hops++ {
		switch n.kind {
		case KindList, KindSet:
			return true
		case KindOptional:
			n = n.elem
		case KindRef:
			n = s.defs[n.name]
		default:
			return false
		}
	}
	return false
}
