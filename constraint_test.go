package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/model"
)

func TestConstraints_minLength(t *testing.T) {
	t.Parallel()

	s := model.MustCompile(model.String(model.MinLength(3)))

	tests := map[string]struct {
		input   any
		wantErr bool
	}{
		"too short":           {input: "ab", wantErr: true},
		"exact minimum":       {input: "abc"},
		"longer than minimum": {input: "abcdef"},
		"counts runes":        {input: "héé"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := s.Validate(tc.input)
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}
			var ve *model.ValidationError
			require.True(t, errors.As(err, &ve))
			require.Len(t, ve.Errors, 1)
			fe := ve.Errors[0]
			assert.Equal(t, model.ConstraintViolation, fe.Kind)
			assert.Equal(t, model.CMinLength, fe.Constraint)
			assert.Equal(t, 3, fe.Param)
			assert.Equal(t, 2, fe.Actual)
			assert.Contains(t, fe.Message, "at least 3 characters")
		})
	}
}

func TestConstraints_maxLength(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		node    *model.Node
		input   any
		wantErr bool
		wantMsg string
	}{
		"string over": {
			node:    model.String(model.MaxLength(2)),
			input:   "abc",
			wantErr: true,
			wantMsg: "at most 2 characters",
		},
		"string at limit": {
			node:  model.String(model.MaxLength(2)),
			input: "ab",
		},
		"list over": {
			node:    model.List(model.Int(), model.MaxLength(1)),
			input:   []any{1, 2},
			wantErr: true,
			wantMsg: "at most 1 items",
		},
		"set counts unique elements": {
			node:  model.Set(model.Int(), model.MaxLength(1)),
			input: []any{1, 1, "1"},
		},
		"map over": {
			node:    model.Map(model.String(), model.Int(), model.MaxLength(1)),
			input:   map[string]any{"a": 1, "b": 2},
			wantErr: true,
			wantMsg: "at most 1 items",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := model.MustCompile(tc.node)
			_, err := s.Validate(tc.input)
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}
			errs := model.Problems(err)
			require.Len(t, errs, 1)
			assert.Equal(t, model.CMaxLength, errs[0].Constraint)
			assert.Contains(t, errs[0].Message, tc.wantMsg)
		})
	}
}

func TestConstraints_numeric(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		node    *model.Node
		input   any
		wantErr string
	}{
		"gt pass":             {node: model.Float(model.Gt(0)), input: 0.5},
		"gt at bound":         {node: model.Float(model.Gt(0)), input: 0, wantErr: model.CGt},
		"ge at bound":         {node: model.Int(model.Ge(1)), input: 1},
		"ge below":            {node: model.Int(model.Ge(1)), input: 0, wantErr: model.CGe},
		"lt pass":             {node: model.Int(model.Lt(10)), input: 9},
		"lt at bound":         {node: model.Int(model.Lt(10)), input: 10, wantErr: model.CLt},
		"le at bound":         {node: model.Float(model.Le(1000)), input: "1000"},
		"le above":            {node: model.Float(model.Le(1000)), input: 1000.01, wantErr: model.CLe},
		"int fractional gt":   {node: model.Int(model.Gt(1.5)), input: 2},
		"int fractional fail": {node: model.Int(model.Gt(1.5)), input: 1, wantErr: model.CGt},
		"multiple of int":     {node: model.Int(model.MultipleOf(5)), input: 15},
		"not multiple":        {node: model.Int(model.MultipleOf(5)), input: 16, wantErr: model.CMultipleOf},
		"decimal step":        {node: model.Float(model.MultipleOf(0.1)), input: 0.3},
		"decimal step fail":   {node: model.Float(model.MultipleOf(0.1)), input: 0.35, wantErr: model.CMultipleOf},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := model.MustCompile(tc.node)
			_, err := s.Validate(tc.input)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			errs := model.Problems(err)
			require.Len(t, errs, 1)
			assert.Equal(t, tc.wantErr, errs[0].Constraint)
		})
	}
}

func TestConstraints_pattern(t *testing.T) {
	t.Parallel()

	s := model.MustCompile(model.String(model.Pattern(`^fixedquery$`)))

	_, err := s.Validate("fixedquery")
	require.NoError(t, err)

	_, err = s.Validate("other")
	errs := model.Problems(err)
	require.Len(t, errs, 1)
	assert.Equal(t, model.CPattern, errs[0].Constraint)
	assert.Equal(t, "other", errs[0].Actual)
}

func TestConstraints_allFailuresInPhaseOrder(t *testing.T) {
	t.Parallel()

	// Pattern is declared first but size constraints are checked first.
	s := model.MustCompile(model.String(
		model.Pattern(`^[a-z]+$`),
		model.MaxLength(3),
		model.MinLength(1),
	))

	_, err := s.Validate("ABCDE")
	errs := model.Problems(err)
	require.Len(t, errs, 2)
	assert.Equal(t, model.CMaxLength, errs[0].Constraint)
	assert.Equal(t, model.CPattern, errs[1].Constraint)
}

func TestConstraints_compileErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]*model.Node{
		"ge on string":         model.String(model.Ge(1)),
		"pattern on int":       model.Int(model.Pattern(`\d`)),
		"length on bool":       model.Bool(model.MinLength(1)),
		"negative length":      model.String(model.MinLength(-1)),
		"min exceeds max":      model.List(model.Int(), model.MinLength(3), model.MaxLength(2)),
		"zero multiple":        model.Float(model.MultipleOf(0)),
		"bad regex":            model.String(model.Pattern(`(`)),
		"length on object":     model.Object("O", nil, model.MinLength(1)),
		"range on date-time":   model.DateTime(model.Gt(0)),
		"pattern on list":      model.List(model.String(), model.Pattern(`x`)),
		"nested bad parameter": model.List(model.String(model.MaxLength(-2))),
	}

	for name, node := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := model.Compile(node)
			require.ErrorIs(t, err, model.ErrSchemaDefinition)
			var sde *model.SchemaDefinitionError
			require.ErrorAs(t, err, &sde)
		})
	}
}

func TestCompareBound(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		v     any
		bound float64
		want  int
	}{
		"int below":           {v: int64(1), bound: 2, want: -1},
		"int equal":           {v: int64(2), bound: 2, want: 0},
		"int above":           {v: int64(3), bound: 2, want: 1},
		"large int exact":     {v: int64(9007199254740993), bound: 9007199254740992, want: 1},
		"int vs fraction":     {v: int64(2), bound: 2.5, want: -1},
		"float equal":         {v: 2.5, bound: 2.5, want: 0},
		"unsupported is zero": {v: "x", bound: 1, want: 0},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, model.CompareBound(tc.v, tc.bound))
		})
	}
}

func TestLength(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, model.Length("日本語"))
	assert.Equal(t, 2, model.Length([]any{1, 2}))
	assert.Equal(t, 1, model.Length(model.SetValue{"a"}))
	assert.Equal(t, 0, model.Length(42))
	assert.Equal(t, "5", model.FormatNumber(5))
	assert.Equal(t, "0.1", model.FormatNumber(0.1))
}
