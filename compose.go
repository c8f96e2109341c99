package model

import "fmt"

// Extend returns a new object node named name with the fields of base
// followed by fields. A field in fields replaces a base field of the same
// name in place, so UserIn can narrow a field declared on UserBase.
// The extra-field policy, title, and description carry over from base.
// base must be an object node; Compile rejects anything else.
func Extend(base *Node, name string, fields ...Field) *Node {
	out := derive(base, name)
	out.fields = append(out.fields, base.fields...)
	for _, f := range fields {
		replaced := false
		for i := range out.fields {
			if out.fields[i].name == f.name {
				out.fields[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			out.fields = append(out.fields, f)
		}
	}
	return out
}

// Omit returns a new object node named name with every field of base except
// the named ones.
func Omit(base *Node, name string, names ...string) *Node {
	drop := nameSet(names)
	out := derive(base, name)
	for _, f := range base.fields {
		if !drop[f.name] {
			out.fields = append(out.fields, f)
		}
	}
	return out
}

// Pick returns a new object node named name with only the named fields of
// base, in base's declared order. Names base does not declare are ignored.
func Pick(base *Node, name string, names ...string) *Node {
	keep := nameSet(names)
	out := derive(base, name)
	for _, f := range base.fields {
		if keep[f.name] {
			out.fields = append(out.fields, f)
		}
	}
	return out
}

// derive starts an object node from base. A base that is not an object
// yields a node that Compile rejects.
func derive(base *Node, name string) *Node {
	out := &Node{
		kind:        KindObject,
		name:        name,
		extra:       base.extra,
		title:       base.title,
		description: base.description,
	}
	if base.kind != KindObject {
		out.invalid = fmt.Sprintf("%s must derive from an object, not %s", name, base.kind)
	}
	return out
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
