// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package invoke

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Prompt is one fully formed request to the model.
type Prompt struct {
	// System is the system instruction (may be empty).
	System string

	// User is the user message.
	User string

	// Task is a short label for logs and offline backends
	// (e.g. "questions", "competitor", "answer", "section").
	Task string
}

// Request is what a ModelClient receives for a single attempt.
type Request struct {
	Prompt

	// Structured asks the backend for a JSON response where supported.
	Structured bool
}

// ModelClient is the model boundary: one request, one response. It is the
// capability both stages share; retry behavior lives in Invoker, not here.
// Implementations should return a *CallError so failures are classified.
type ModelClient interface {
	Call(ctx context.Context, req Request) (string, error)
}

// ModelClientFunc adapts a function to ModelClient.
type ModelClientFunc func(ctx context.Context, req Request) (string, error)

// Call implements ModelClient.
func (f ModelClientFunc) Call(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Class is the retry classification of a model failure.
type Class string

const (
	ClassRateLimited Class = "rate_limited"
	ClassTransient   Class = "transient"
	ClassFatal       Class = "fatal"
)

// Retryable reports whether a failure of this class may be retried.
func (c Class) Retryable() bool {
	return c == ClassRateLimited || c == ClassTransient
}

// CallError is a classified model failure.
type CallError struct {
	Class Class
	Err   error

	// RetryAfter is a server-provided minimum wait, if any.
	RetryAfter time.Duration
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// RateLimited wraps err as a rate-limit failure.
func RateLimited(err error) error { return &CallError{Class: ClassRateLimited, Err: err} }

// Transient wraps err as a retryable failure.
func Transient(err error) error { return &CallError{Class: ClassTransient, Err: err} }

// Fatal wraps err as a non-retryable failure.
func Fatal(err error) error { return &CallError{Class: ClassFatal, Err: err} }

// ErrMalformedResponse is returned when a structured response cannot be
// decoded even after fragment extraction. It is retryable.
var ErrMalformedResponse = errors.New("malformed structured response")

// Classify returns the retry class of err. Unclassified errors count as
// transient (network faults); attempt timeouts are transient; cancellation
// of the caller's context is fatal.
func Classify(err error) Class {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Class
	}
	switch {
	case errors.Is(err, context.Canceled):
		return ClassFatal
	case errors.Is(err, context.DeadlineExceeded):
		return ClassTransient
	default:
		return ClassTransient
	}
}
