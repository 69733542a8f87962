package derrors

import (
	"errors"
	"fmt"
	"testing"
)

// TestKindOf verifies kind extraction, including through wrapping
func TestKindOf(t *testing.T) {
	err := New(KindInvalidTransfer, "new owner is already the current owner")
	if KindOf(err) != KindInvalidTransfer {
		t.Errorf("expected invalid_transfer, got %s", KindOf(err))
	}

	wrapped := fmt.Errorf("handling request: %w", err)
	if KindOf(wrapped) != KindInvalidTransfer {
		t.Errorf("expected kind to survive wrapping, got %s", KindOf(wrapped))
	}

	if KindOf(errors.New("plain")) != KindPersistence {
		t.Errorf("expected unclassified errors to default to persistence")
	}
}

// TestIsKind verifies the predicate on plain and wrapped errors
func TestIsKind(t *testing.T) {
	err := Wrap(errors.New("no rows"), KindNotFound, "parcel not found")

	if !IsKind(err, KindNotFound) {
		t.Error("expected IsKind to match")
	}
	if IsKind(err, KindConflict) {
		t.Error("expected IsKind to reject a different kind")
	}
	if IsKind(errors.New("plain"), KindNotFound) {
		t.Error("expected IsKind to reject an unkinded error")
	}
}

// TestRetryable verifies only conflicts and store failures are retryable
func TestRetryable(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindValidation, false},
		{KindInvalidTransfer, false},
		{KindNotFound, false},
		{KindConflict, true},
		{KindPersistence, true},
	}

	for _, tt := range tests {
		if got := Retryable(New(tt.kind, "x")); got != tt.want {
			t.Errorf("Retryable(%s): expected %v, got %v", tt.kind, tt.want, got)
		}
	}
}

// TestUnwrap verifies the cause stays reachable
func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, KindPersistence, "failed to query parcels")

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if err.Error() != "persistence: failed to query parcels: connection refused" {
		t.Errorf("unexpected error string: %q", err.Error())
	}
}
