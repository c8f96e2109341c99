// Package model is a declarative schema validation and coercion engine. A
// schema is a tree of typed nodes with constraints; it turns untyped raw input
// (decoded JSON, YAML, or query strings) into a typed value tree, or into a
// complete list of located field errors.
//
// Schemas are declared with constructor functions and compiled once:
//
//	image := model.Object("Image", model.Fields(
//	    model.F("url", model.URL()),
//	    model.F("name", model.String()),
//	))
//	item := model.MustCompile(model.Object("Item", model.Fields(
//	    model.F("name", model.String(model.MinLength(1))),
//	    model.F("price", model.Float(model.Gt(0))),
//	    model.F("tags", model.Set(model.String()), model.Default(model.SetValue{})),
//	    model.F("images", model.Optional(model.List(image))),
//	), model.Forbid()))
//
// Validate is fail-slow: every violation is collected in document order and
// returned together as a *ValidationError, which converts to an RFC 9457
// problem document:
//
//	v, err := item.Validate(raw, "body")
//	if err != nil {
//	    var ve *model.ValidationError
//	    if errors.As(err, &ve) {
//	        return ve.Problem()
//	    }
//	}
//
// Project shapes an already validated value for output without validating
// it again:
//
//	out, err := item.Project(v, model.Include("name", "images.url"))
//
// A compiled Schema is immutable and safe for concurrent use.
package model
