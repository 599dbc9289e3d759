package ai

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/genai"

	"github.com/Najo0116/AI-Chatbot/pkg/breaker"
)

// FailureKind classifies why a completion failed.
type FailureKind string

const (
	FailureTimeout     FailureKind = "timeout"
	FailureCanceled    FailureKind = "canceled"
	FailureCircuitOpen FailureKind = "circuit_open"
	FailureProvider    FailureKind = "provider"
	FailureNetwork     FailureKind = "network"
	FailureMalformed   FailureKind = "malformed"
	FailureUnknown     FailureKind = "unknown"
)

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("ai provider not configured")

// errMalformed marks a response the SDK decoded but that carries no candidates.
var errMalformed = errors.New("malformed provider response")

// UpstreamError is a classified completion failure. It never leaves the
// gateway as an error; Complete turns it into the fallback reply.
type UpstreamError struct {
	Kind FailureKind
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ai upstream %s: %v", e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// classify maps err to a FailureKind. parent is the caller's context, used
// to tell a client disconnect from the gateway's own deadline.
func classify(parent context.Context, err error) FailureKind {
	var apiErr genai.APIError
	var netErr net.Error
	switch {
	case errors.Is(err, breaker.ErrOpen):
		return FailureCircuitOpen
	case errors.Is(err, context.Canceled) || parent.Err() != nil:
		return FailureCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, errMalformed):
		return FailureMalformed
	case errors.As(err, &apiErr):
		return FailureProvider
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return FailureTimeout
		}
		return FailureNetwork
	default:
		return FailureUnknown
	}
}

// countsTowardBreaker excludes failures the upstream is not responsible for.
func countsTowardBreaker(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != 429 {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, ErrNotConfigured)
}
