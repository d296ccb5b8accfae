// FILE: zkpauth/src/internal/auth/errors.go
package auth

import (
	"errors"
	"fmt"
)

// Code classifies an authentication failure.
type Code int

const (
	CodeOK Code = iota
	// CodeInvalidArgument: malformed or empty request fields
	CodeInvalidArgument
	// CodeNotFound: unknown username or auth id
	CodeNotFound
	// CodePermissionDenied: the proof did not verify
	CodePermissionDenied
	// CodeUnavailable: request refused by a rate limiter
	CodeUnavailable
	// CodeInternal: invariant violation
	CodeInternal
)

var codeNames = map[Code]string{
	CodeOK:               "ok",
	CodeInvalidArgument:  "invalid_argument",
	CodeNotFound:         "not_found",
	CodePermissionDenied: "permission_denied",
	CodeUnavailable:      "unavailable",
	CodeInternal:         "internal",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// ParseCode maps a wire name back to a Code. Unknown names map to CodeInternal.
func ParseCode(name string) Code {
	for code, n := range codeNames {
		if n == name {
			return code
		}
	}
	return CodeInternal
}

// Error is the typed outcome of a failed protocol operation.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds an *Error.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the Code from err. Nil maps to CodeOK, untyped errors to CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return CodeInternal
}
