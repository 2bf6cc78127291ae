// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrorKind is the taxonomy a run failure belongs to.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindModelTransient ErrorKind = "model_transient"
	KindModelFatal     ErrorKind = "model_fatal"
	KindConfiguration  ErrorKind = "configuration"
)

// Stage names where a failure happened.
type Stage string

const (
	StageInput     Stage = "input"
	StageAnalyst   Stage = "analyst"
	StagePublisher Stage = "publisher"
	StageConfig    Stage = "config"
)

// Error carries a taxonomy kind and the stage at which it occurred.
type Error struct {
	Kind  ErrorKind
	Stage Stage
	Err   error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrModelTransient = &Error{Kind: KindModelTransient}
	ErrModelFatal     = &Error{Kind: KindModelFatal}
	ErrConfiguration  = &Error{Kind: KindConfiguration}
)

// NewError wraps err with a kind and stage.
func NewError(kind ErrorKind, stage Stage, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// Validationf builds a validation error for the input stage.
func Validationf(format string, args ...any) *Error {
	return NewError(KindValidation, StageInput, fmt.Errorf(format, args...))
}

// Configurationf builds a configuration error for the config stage.
func Configurationf(format string, args ...any) *Error {
	return NewError(KindConfiguration, StageConfig, fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil && e.Stage == "":
		return string(e.Kind) + " error"
	case e.Err == nil:
		return fmt.Sprintf("%s: %s error", e.Stage, e.Kind)
	case e.Stage == "":
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s error: %v", e.Stage, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same kind. A target with a stage set
// also requires the stage to match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Stage == "" || t.Stage == e.Stage
}

// KindOf returns the taxonomy kind of err, or "" if err carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, k := range []*Error{ErrValidation, ErrConfiguration, ErrModelFatal, ErrModelTransient} {
		if errors.Is(err, k) {
			return k.Kind
		}
	}
	return ""
}

// StageOf returns the outermost stage recorded on err, or "".
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// WithStage returns err tagged with stage. An *Error that already names a
// stage is returned unchanged; one without a stage keeps its kind. Any other
// error is wrapped with kind.
func WithStage(err error, kind ErrorKind, stage Stage) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Stage != "" {
			return err
		}
		inner := err
		if err == error(e) {
			inner = e.Err
		}
		return &Error{Kind: e.Kind, Stage: stage, Err: inner}
	}
	if k := KindOf(err); k != "" {
		kind = k
	}
	return NewError(kind, stage, err)
}

// AtStage returns err re-tagged with stage, keeping its kind. It is used
// when a lower layer's error surfaces at a later pipeline stage, such as an
// unknown template reported while publishing.
func AtStage(err error, stage Stage) error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	if e.Stage == stage {
		return err
	}
	inner := err
	if err == error(e) {
		inner = e.Err
	}
	return &Error{Kind: e.Kind, Stage: stage, Err: inner}
}
