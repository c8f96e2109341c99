package model

import (
	"fmt"
	"math"
	"regexp"
	"unicode/utf8"
)

// Constraint names.
const (
	CMinLength  = "min_length"
	CMaxLength  = "max_length"
	CGt         = "gt"
	CGe         = "ge"
	CLt         = "lt"
	CLe         = "le"
	CMultipleOf = "multiple_of"
	CPattern    = "pattern"
)

// Constraint is a named, parameterized predicate on a coerced value.
type Constraint struct {
	Name  string
	Param any

	re *regexp.Regexp
}

// constraintPhase orders evaluation: size, then numeric range, then pattern.
type constraintPhase int

const (
	phaseSize constraintPhase = iota
	phaseRange
	phasePattern
)

// checker validates one constraint against a coerced value. ok is false when
// the value violates the constraint; actual is the measured quantity.
type checker struct {
	phase   constraintPhase
	applies func(n *Node) bool
	check   func(c Constraint, v any) (ok bool, actual any, msg string)
}

var checkers = map[string]checker{
	CMinLength: {phase: phaseSize, applies: sized, check: checkMinLength},
	CMaxLength: {phase: phaseSize, applies: sized, check: checkMaxLength},
	CGt:        {phase: phaseRange, applies: numeric, check: checkBound(CGt)},
	CGe:        {phase: phaseRange, applies: numeric, check: checkBound(CGe)},
	CLt:        {phase: phaseRange, applies: numeric, check: checkBound(CLt)},
	CLe:        {phase: phaseRange, applies: numeric, check: checkBound(CLe)},
	CMultipleOf: {
		phase: phaseRange, applies: numeric, check: checkMultipleOf,
	},
	CPattern: {phase: phasePattern, applies: textual, check: checkPattern},
}

// MinLength requires at least n characters (runes) for strings, or n
// elements for lists, sets, and maps.
func MinLength(n int) NodeOption { return withConstraint(Constraint{Name: CMinLength, Param: n}) }

// MaxLength requires at most n characters or elements.
func MaxLength(n int) NodeOption { return withConstraint(Constraint{Name: CMaxLength, Param: n}) }

// Gt requires value > bound.
func Gt(bound float64) NodeOption { return withConstraint(Constraint{Name: CGt, Param: bound}) }

// Ge requires value >= bound.
func Ge(bound float64) NodeOption { return withConstraint(Constraint{Name: CGe, Param: bound}) }

// Lt requires value < bound.
func Lt(bound float64) NodeOption { return withConstraint(Constraint{Name: CLt, Param: bound}) }

// Le requires value <= bound.
func Le(bound float64) NodeOption { return withConstraint(Constraint{Name: CLe, Param: bound}) }

// MultipleOf requires value to be an integral multiple of step.
func MultipleOf(step float64) NodeOption {
	return withConstraint(Constraint{Name: CMultipleOf, Param: step})
}

// Pattern requires a string value to match the regular expression expr.
// An invalid expression is reported by Compile.
func Pattern(expr string) NodeOption {
	c := Constraint{Name: CPattern, Param: expr}
	c.re, _ = regexp.Compile(expr)
	return withConstraint(c)
}

func withConstraint(c Constraint) NodeOption {
	return func(n *Node) {
		n.constraints = append(n.constraints, c)
	}
}

func sized(n *Node) bool {
	switch n.kind {
	case KindList, KindSet, KindMap:
		return true
	case KindScalar:
		return textual(n)
	default:
		return false
	}
}

func numeric(n *Node) bool {
	return n.kind == KindScalar && (n.scalar == TypeInteger || n.scalar == TypeFloat)
}

func textual(n *Node) bool {
	if n.kind != KindScalar {
		return false
	}
	switch n.scalar {
	case TypeString, TypeURL, TypeEmail:
		return true
	default:
		return false
	}
}

// checkConstraints evaluates every constraint on n against v in phase order
// and returns one FieldError per failure.
func checkConstraints(n *Node, v any, path Path) []FieldError {
	if len(n.constraints) == 0 {
		return nil
	}
	var errs []FieldError
	for phase := phaseSize; phase <= phasePattern; phase++ {
		for _, c := range n.constraints {
			ch := checkers[c.Name]
			if ch.phase != phase {
				continue
			}
			ok, actual, msg := ch.check(c, v)
			if ok {
				continue
			}
			errs = append(errs, FieldError{
				Path:       path,
				Kind:       ConstraintViolation,
				Message:    msg,
				Constraint: c.Name,
				Param:      c.Param,
				Actual:     actual,
				Input:      v,
			})
		}
	}
	return errs
}

// compileConstraints reports constraints that cannot apply to n or carry a
// bad parameter.
func compileConstraints(n *Node, path Path) error {
	var minLen, maxLen = -1, -1
	for _, c := range n.constraints {
		ch, ok := checkers[c.Name]
		if !ok {
			return &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("unknown constraint %q", c.Name)}
		}
		if !ch.applies(n) {
			return &SchemaDefinitionError{
				Path:   path,
				Reason: fmt.Sprintf("constraint %s does not apply to %s", c.Name, describe(n)),
			}
		}
		switch c.Name {
		case CMinLength, CMaxLength:
			l, ok := c.Param.(int)
			if !ok || l < 0 {
				return &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("%s must be a non-negative integer", c.Name)}
			}
			if c.Name == CMinLength {
				minLen = l
			} else {
				maxLen = l
			}
		case CMultipleOf:
			step, _ := c.Param.(float64)
			if !(step > 0) || math.IsInf(step, 0) {
				return &SchemaDefinitionError{Path: path, Reason: "multiple_of must be positive"}
			}
		case CGt, CGe, CLt, CLe:
			b, ok := c.Param.(float64)
			if !ok || math.IsNaN(b) {
				return &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("%s must be a number", c.Name)}
			}
		case CPattern:
			if c.re == nil {
				return &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("invalid pattern %q", c.Param)}
			}
		}
	}
	if minLen >= 0 && maxLen >= 0 && minLen > maxLen {
		return &SchemaDefinitionError{
			Path:   path,
			Reason: fmt.Sprintf("min_length %d exceeds max_length %d", minLen, maxLen),
		}
	}
	return nil
}

func length(v any) int {
	switch x := v.(type) {
	case string:
		return utf8.RuneCountInString(x)
	case []any:
		return len(x)
	case SetValue:
		return len(x)
	case *MapValue:
		return x.Len()
	default:
		return 0
	}
}

func checkMinLength(c Constraint, v any) (bool, any, string) {
	n := c.Param.(int)
	l := length(v)
	if l >= n {
		return true, l, ""
	}
	if _, ok := v.(string); ok {
		return false, l, fmt.Sprintf("must be at least %d characters", n)
	}
	return false, l, fmt.Sprintf("must have at least %d items", n)
}

func checkMaxLength(c Constraint, v any) (bool, any, string) {
	n := c.Param.(int)
	l := length(v)
	if l <= n {
		return true, l, ""
	}
	if _, ok := v.(string); ok {
		return false, l, fmt.Sprintf("must be at most %d characters", n)
	}
	return false, l, fmt.Sprintf("must have at most %d items", n)
}

// compareBound compares a coerced number against a float bound without
// rounding the value. It returns -1, 0, or 1.
func compareBound(v any, bound float64) int {
	switch x := v.(type) {
	case int64:
		// Bounds with a fractional part or outside int64 range compare in
		// float space, where they cannot collide with an integer.
		if bound != math.Trunc(bound) || bound >= math.MaxInt64 || bound < math.MinInt64 {
			return cmpFloat(float64(x), bound)
		}
		b := int64(bound)
		switch {
		case x < b:
			return -1
		case x > b:
			return 1
		default:
			return 0
		}
	case float64:
		return cmpFloat(x, bound)
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func checkBound(name string) func(Constraint, any) (bool, any, string) {
	return func(c Constraint, v any) (bool, any, string) {
		bound := c.Param.(float64)
		if f, ok := v.(float64); ok && math.IsNaN(f) {
			return false, v, fmt.Sprintf("must be a number comparable to %s", formatNumber(bound))
		}
		cmp := compareBound(v, bound)
		var ok bool
		var msg string
		switch name {
		case CGt:
			ok, msg = cmp > 0, "must be greater than "
		case CGe:
			ok, msg = cmp >= 0, "must be greater than or equal to "
		case CLt:
			ok, msg = cmp < 0, "must be less than "
		case CLe:
			ok, msg = cmp <= 0, "must be less than or equal to "
		}
		return ok, v, msg + formatNumber(bound)
	}
}

func checkMultipleOf(c Constraint, v any) (bool, any, string) {
	step := c.Param.(float64)
	msg := "must be a multiple of " + formatNumber(step)
	switch x := v.(type) {
	case int64:
		if step == math.Trunc(step) && step < math.MaxInt64 {
			return x%int64(step) == 0, v, msg
		}
		return isMultiple(float64(x), step), v, msg
	case float64:
		return isMultiple(x, step), v, msg
	default:
		return true, v, ""
	}
}

// isMultiple tolerates the representation error of decimal steps such as 0.1.
func isMultiple(v, step float64) bool {
	q := v / step
	return math.Abs(q-math.Round(q)) < 1e-9
}

func checkPattern(c Constraint, v any) (bool, any, string) {
	s, _ := v.(string)
	if c.re.MatchString(s) {
		return true, s, ""
	}
	return false, s, fmt.Sprintf("must match pattern %s", c.Param)
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
