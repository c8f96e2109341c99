package model

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Sentinel errors for errors.Is matching.
var (
	ErrValidation       = errors.New("validation failed")
	ErrSchemaDefinition = errors.New("schema definition")
	ErrConfiguration    = errors.New("configuration")
)

// ErrorKind classifies a FieldError.
type ErrorKind string

// Field error kinds.
const (
	MissingRequiredField  ErrorKind = "missing"
	TypeCoercionError     ErrorKind = "type_error"
	ConstraintViolation   ErrorKind = "constraint"
	UnexpectedField       ErrorKind = "extra_forbidden"
	NoUnionVariantMatched ErrorKind = "union_no_match"
	TooDeeplyNested       ErrorKind = "too_deep"
)

// Path locates a value from the document root. Elements are field names or
// map keys (string) and sequence indices (int).
type Path []any

// String renders the path as name.child[2].leaf.
func (p Path) String() string {
	var b strings.Builder
	for _, elem := range p {
		switch e := elem.(type) {
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(e))
			b.WriteByte(']')
		default:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, e)
		}
	}
	return b.String()
}

// Equal reports whether two paths address the same location.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

func (p Path) child(elem any) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, elem)
}

// FieldError describes a single located validation failure.
type FieldError struct {
	Path    Path
	Kind    ErrorKind
	Message string

	// Expected and Observed are set for TypeCoercionError.
	Expected string
	Observed string

	// Constraint, Param and Actual are set for ConstraintViolation.
	Constraint string
	Param      any
	Actual     any

	// Input is the raw value at Path, when one was present.
	Input any

	// Variants holds the errors of every rejected union candidate, in
	// candidate order.
	Variants [][]FieldError
}

// Error returns "path: message".
func (e FieldError) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return e.Path.String() + ": " + e.Message
}

// ValidationError is returned by Validate when the raw input does not conform
// to the schema. It holds every violation found, in document order.
type ValidationError struct {
	Errors []FieldError
}

// Error summarizes the violations.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Has reports whether any error is located at path.
func (e *ValidationError) Has(path ...any) bool {
	return len(e.At(path...)) > 0
}

// At returns the errors located at path.
func (e *ValidationError) At(path ...any) []FieldError {
	var out []FieldError
	for _, fe := range e.Errors {
		if fe.Path.Equal(path) {
			out = append(out, fe)
		}
	}
	return out
}

// Kinds returns the error kinds in order.
func (e *ValidationError) Kinds() []ErrorKind {
	kinds := make([]ErrorKind, len(e.Errors))
	for i, fe := range e.Errors {
		kinds[i] = fe.Kind
	}
	return kinds
}

// Problem converts the error into an RFC 9457 problem details document.
func (e *ValidationError) Problem() *ProblemDetail {
	pd := &ProblemDetail{
		Type:   "about:blank",
		Title:  "Validation Failed",
		Status: http.StatusUnprocessableEntity,
		Detail: fmt.Sprintf("%d validation error(s)", len(e.Errors)),
		Errors: make([]ProblemError, len(e.Errors)),
	}
	for i, fe := range e.Errors {
		pd.Errors[i] = problemError(fe)
	}
	return pd
}

func problemError(fe FieldError) ProblemError {
	loc := make([]any, len(fe.Path))
	copy(loc, fe.Path)
	pe := ProblemError{
		Loc:     loc,
		Type:    string(fe.Kind),
		Message: fe.Message,
	}
	if fe.Input != nil && fe.Input != Absent {
		pe.Input = Encode(fe.Input)
	}
	if fe.Constraint != "" {
		pe.Context = map[string]any{fe.Constraint: Encode(fe.Param)}
	}
	return pe
}

// ProblemDetail is an RFC 9457 problem details document.
//
//nolint:errname // RFC 9457 standard name
type ProblemDetail struct {
	Type     string         `json:"type,omitempty"`
	Title    string         `json:"title,omitempty"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Errors   []ProblemError `json:"errors,omitempty"`
}

// Error returns the detail message (or title if detail is empty).
func (p *ProblemDetail) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

// StatusCode returns the HTTP status code.
func (p *ProblemDetail) StatusCode() int { return p.Status }

// ProblemError is the wire form of a FieldError.
type ProblemError struct {
	Loc     []any          `json:"loc"`
	Type    string         `json:"type"`
	Message string         `json:"msg"`
	Input   any            `json:"input,omitempty"`
	Context map[string]any `json:"ctx,omitempty"`
}

// SchemaDefinitionError reports a malformed schema. It is returned by Compile
// and never by Validate.
type SchemaDefinitionError struct {
	Path   Path
	Reason string
}

// Error returns the reason prefixed with the offending node path.
func (e *SchemaDefinitionError) Error() string {
	if len(e.Path) == 0 {
		return "schema definition: " + e.Reason
	}
	return fmt.Sprintf("schema definition: %s: %s", e.Path, e.Reason)
}

// Is matches ErrSchemaDefinition.
func (e *SchemaDefinitionError) Is(target error) bool { return target == ErrSchemaDefinition }

// ConfigurationError reports misuse of Project.
type ConfigurationError struct {
	Reason string
}

// Error returns the reason.
func (e *ConfigurationError) Error() string { return "configuration: " + e.Reason }

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// Problems extracts the field errors from err, or nil if err is not a
// *ValidationError.
func Problems(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Errors
	}
	return nil
}
