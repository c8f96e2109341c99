// Package modeltest provides typed test helpers for schemas built with the
// model package.
package modeltest

import (
	"errors"
	"testing"

	"github.com/bjaus/model"
)

// JSON decodes a JSON document into raw input, preserving key order.
func JSON(t testing.TB, doc string) any {
	t.Helper()
	raw, err := model.DecodeJSON([]byte(doc))
	if err != nil {
		t.Fatalf("modeltest: decode json: %v", err)
	}
	return raw
}

// YAML decodes a YAML document into raw input, preserving key order.
func YAML(t testing.TB, doc string) any {
	t.Helper()
	raw, err := model.DecodeYAML([]byte(doc))
	if err != nil {
		t.Fatalf("modeltest: decode yaml: %v", err)
	}
	return raw
}

// RequireValid validates raw and fails the test if any error is reported.
func RequireValid(t testing.TB, s *model.Schema, raw any, path ...any) any {
	t.Helper()
	v, err := s.Validate(raw, path...)
	if err != nil {
		t.Fatalf("modeltest: expected valid input, got %v", err)
	}
	return v
}

// RequireInvalid validates raw and fails the test unless a *ValidationError
// is reported.
func RequireInvalid(t testing.TB, s *model.Schema, raw any, path ...any) *model.ValidationError {
	t.Helper()
	v, err := s.Validate(raw, path...)
	if err == nil {
		t.Fatalf("modeltest: expected validation errors, got value %v", v)
	}
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("modeltest: expected *model.ValidationError, got %T: %v", err, err)
	}
	if v != nil {
		t.Errorf("modeltest: invalid input returned a value: %v", v)
	}
	return ve
}

// ErrorsAt returns the errors located at path, failing the test if there are
// none.
func ErrorsAt(t testing.TB, ve *model.ValidationError, path ...any) []model.FieldError {
	t.Helper()
	errs := ve.At(path...)
	if len(errs) == 0 {
		t.Fatalf("modeltest: no error at %s; errors: %v", model.Path(path), ve)
	}
	return errs
}

// RequireKinds fails the test unless the error kinds match want in order.
func RequireKinds(t testing.TB, ve *model.ValidationError, want ...model.ErrorKind) {
	t.Helper()
	got := ve.Kinds()
	if len(got) != len(want) {
		t.Fatalf("modeltest: got %d errors %v, want %v", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("modeltest: error %d is %s, want %s (all: %v)", i, got[i], want[i], got)
		}
	}
}
