package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConflict(t *testing.T) {
	err := Conflict("room is busy")

	if err.Code != CodeConflict {
		t.Errorf("expected code %s, got %s", CodeConflict, err.Code)
	}
	if err.StatusCode() != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, err.StatusCode())
	}
	if !IsConflict(err) {
		t.Error("IsConflict should report true for a conflict error")
	}
}

func TestIsConflictThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("saga step failed: %w", Conflict("dates overlap"))
	if !IsConflict(wrapped) {
		t.Error("IsConflict should see through fmt.Errorf wrapping")
	}
}

func TestUnavailableUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("hotel service", cause)

	if !errors.Is(err, cause) {
		t.Error("Unavailable should wrap its cause")
	}
	if err.StatusCode() != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, err.StatusCode())
	}
}

func TestAsAppErrorFallback(t *testing.T) {
	plain := errors.New("something broke")
	appErr := AsAppError(plain)

	if appErr.Code != CodeInternal {
		t.Errorf("plain errors should map to %s, got %s", CodeInternal, appErr.Code)
	}
	if !errors.Is(appErr, plain) {
		t.Error("fallback AppError should wrap the original error")
	}
}

func TestAsAppErrorPassthrough(t *testing.T) {
	original := NotFoundWithID("booking", "abc")
	got := AsAppError(fmt.Errorf("lookup: %w", original))

	if got != original {
		t.Error("AsAppError should return the wrapped AppError, not a new one")
	}
}

func TestHasCode(t *testing.T) {
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Error("plain error carries no code")
	}
	if !HasCode(Validation("bad input", nil), CodeValidation) {
		t.Error("expected validation code")
	}
}
