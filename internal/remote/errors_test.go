package remote_test

import (
	"errors"
	"strings"
	"testing"

	"fieldsync/internal/remote"
)

func TestWrapTagsMarkerAndDetail(t *testing.T) {
	cause := errors.New("connection refused")
	err := remote.Wrap(remote.ErrUnavailable, "insert incidents", "request failed", cause)

	if !errors.Is(err, remote.ErrUnavailable) {
		t.Fatalf("expected marker to survive wrapping: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to survive wrapping: %v", err)
	}
	if !strings.Contains(err.Error(), "insert incidents") {
		t.Fatalf("expected operation in message, got %q", err.Error())
	}
}

func TestRetryableClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unavailable", remote.Wrap(remote.ErrUnavailable, "op", "", nil), true},
		{"timeout", remote.Wrap(remote.ErrTimeout, "op", "", nil), true},
		{"rejected", remote.Wrap(remote.ErrRejected, "op", "", nil), false},
		{"configuration", remote.Wrap(remote.ErrConfiguration, "op", "", nil), false},
		{"plain", errors.New("something else"), true},
	}
	for _, tc := range tests {
		if got := remote.Retryable(tc.err); got != tc.want {
			t.Fatalf("%s: Retryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}
