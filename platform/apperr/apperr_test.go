package apperr

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	if got := Validation("bad date").HTTPStatus(); got != http.StatusBadRequest {
		t.Fatalf("expected 400 for validation errors, got %d", got)
	}
	if got := New(KindInternal, "boom").HTTPStatus(); got != http.StatusInternalServerError {
		t.Fatalf("expected 500 for internal errors, got %d", got)
	}
	if got := New(KindUnknown, "boom").HTTPStatus(); got != http.StatusBadRequest {
		t.Fatalf("expected 400 fallback for unknown kinds, got %d", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindInternal, "reminder run failed", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped error to match its cause")
	}
	if err.Error() != "reminder run failed: connection refused" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}
