package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrUnavailable marks transport-level failures: the backend could not
	// be reached or answered with a server error. Retrying later may help.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrRejected marks requests the backend refused (4xx). Retrying the
	// same payload will fail again until an operator intervenes.
	ErrRejected = errors.New("backend rejected request")
	// ErrTimeout marks commits that exceeded their deadline.
	ErrTimeout = errors.New("backend timeout")
	// ErrConfiguration marks requests that cannot be built from the current
	// configuration, e.g. a missing base URL.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether an error is worth retrying automatically.
// Rejections and configuration problems will not resolve on their own.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrRejected), errors.Is(err, ErrConfiguration):
		return false
	default:
		return true
	}
}

func classifyTransportError(operation string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(ErrTimeout, operation, "request deadline exceeded", err)
	case isTimeout(err):
		return Wrap(ErrTimeout, operation, "request timed out", err)
	default:
		return Wrap(ErrUnavailable, operation, "request failed", err)
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "backend failure"
	}
	return strings.Join(parts, ": ")
}
