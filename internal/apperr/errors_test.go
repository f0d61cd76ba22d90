package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	v := &ValidationError{}
	if v.Err() != nil {
		t.Fatal("empty validation error must be nil")
	}
	v.Add("title", "this field is required")
	v.Add("title", "second message is dropped")
	v.Add("price", "must not be negative")

	err := fmt.Errorf("create item: %w", v.Err())
	var got *ValidationError
	if !errors.As(err, &got) {
		t.Fatalf("errors.As failed on %v", err)
	}
	if got.Fields["title"] != "this field is required" {
		t.Errorf("title = %q", got.Fields["title"])
	}
	want := "validation failed: price: must not be negative; title: this field is required"
	if got.Error() != want {
		t.Errorf("Error() = %q", got.Error())
	}
}
