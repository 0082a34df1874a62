package common

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatorCollectsErrors(t *testing.T) {
	v := NewValidator().
		Field("document_id", "not-a-uuid", Required, UUID).
		Field("user_id", "  ", Required).
		Field("note", strings.Repeat("x", 5), MaxLength(3))

	if got := len(v.Errors()); got != 3 {
		t.Fatalf("expected 3 errors, got %d: %s", got, v.ErrorMessage())
	}
	err := v.Error()
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if CodeOf(err) != "INVALID_INPUT" {
		t.Fatalf("unexpected code %q", CodeOf(err))
	}
}

func TestValidatorPasses(t *testing.T) {
	v := NewValidator().
		Field("document_id", "4b3c2f8e-8f40-4c5d-9a43-0d1c6f7b8a90", Required, UUID).
		Field("user_id", "user-1", Required)
	if v.HasErrors() {
		t.Fatalf("unexpected errors: %s", v.ErrorMessage())
	}
	if v.Error() != nil {
		t.Fatal("expected nil error")
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "x") != nil {
		t.Fatal("wrapping nil must stay nil")
	}
	err := WrapError(ErrNotFound, "load document")
	if !errors.Is(err, ErrNotFound) || err.Error() != "load document: resource not found" {
		t.Fatalf("unexpected wrap: %v", err)
	}
}
