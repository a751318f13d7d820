package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/ziadkadry99/knowstore/internal/vectordb"
)

// Kind is a stable error category surfaced to callers. Only backend_unavailable
// and timeout are appropriate to retry; every other kind is a caller-input
// problem.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindSchemaValidation   Kind = "schema_validation"
	KindImmutableField     Kind = "immutable_field"
	KindInvalidTransition  Kind = "invalid_transition"
	KindDanglingReference  Kind = "dangling_reference"
	KindBackendUnavailable Kind = "backend_unavailable"
	KindTimeout            Kind = "timeout"
)

// Error is the uniform failure shape for every knowledge-store operation.
// Extractable via errors.As.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errorf builds a typed error for the given kind. field may be empty.
func Errorf(kind Kind, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func schemaErrf(field, format string, args ...any) *Error {
	return &Error{Kind: KindSchemaValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func immutableErr(field string) *Error {
	return &Error{Kind: KindImmutableField, Field: field, Message: "field is write-once and cannot be updated"}
}

func transitionErrf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidTransition, Field: "status", Message: fmt.Sprintf(format, args...)}
}

func danglingErrf(format string, args ...any) *Error {
	return &Error{Kind: KindDanglingReference, Field: "superseded_by", Message: fmt.Sprintf(format, args...)}
}

// backendErr wraps a similarity-backend failure, mapping context expiry to the
// timeout kind so callers can tell the two retryable cases apart.
func backendErr(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: fmt.Sprintf("%s: %v", op, err)}
	}
	return &Error{Kind: KindBackendUnavailable, Message: fmt.Sprintf("%s: %v", op, err)}
}

// Convert maps any error to an *Error, preserving an existing *Error as-is.
// Unclassified failures are reported as backend_unavailable since caller-input
// problems are always raised as typed errors before any side effect.
func Convert(err error) *Error {
	var ke *Error
	if errors.As(err, &ke) {
		return ke
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: err.Error()}
	}
	if errors.Is(err, vectordb.ErrNotFound) {
		return &Error{Kind: KindNotFound, Message: err.Error()}
	}
	return &Error{Kind: KindBackendUnavailable, Message: err.Error()}
}

// KindOf returns the kind of err, or an empty Kind for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return Convert(err).Kind
}
