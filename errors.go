// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 the app-identity-go developers. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package appidentity

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

var (
	// ErrValidation indicates that an input field failed its shape check.
	ErrValidation = ErrCodeValidation.New("")

	// ErrVersion indicates a version allowance or compatibility failure.
	ErrVersion = ErrCodeVersion.New("")

	// ErrProof indicates a structural problem with a proof.
	ErrProof = ErrCodeProof.New("")

	// ErrApplication indicates that an application record could not be built.
	ErrApplication = ErrCodeApplication.New("")

	// ErrProofDecode indicates a proof string that is not valid URL-safe base64.
	ErrProofDecode = ErrCodeProof.New("cannot decode proof string")

	// ErrProofParts indicates a decoded proof payload with the wrong number of fields.
	ErrProofParts = ErrCodeProof.New("proof must have 3 parts (version 1) or 4 parts (any version)")

	// ErrProofAppMismatch indicates that a proof names a different app than the candidate.
	ErrProofAppMismatch = ErrCodeProof.New("proof and app do not match")

	// ErrProofVersionMismatch indicates a proof version below the app's minimum.
	ErrProofVersionMismatch = ErrCodeProof.New("proof and app version mismatch")

	// ErrProofInput indicates that a proof was neither a wire string nor a parsed Proof.
	ErrProofInput = ErrCodeProof.New("cannot parse a proof from this value")

	// ErrAppInput indicates an application input of an unusable type.
	ErrAppInput = ErrCodeApplication.New("cannot create an app from this value")
)

// ErrorCode represents the class of a protocol error. It is used to categorize
// errors and provide a consistent way to handle error conditions.
type ErrorCode byte //nolint:errname // This is an error code, not an error type.

const (
	// ErrCodeUnknown represents an unknown error.
	ErrCodeUnknown ErrorCode = iota

	// ErrCodeValidation represents a field-level shape or normalization failure.
	ErrCodeValidation

	// ErrCodeVersion represents a version allowance or compatibility failure.
	ErrCodeVersion

	// ErrCodeProof represents a structural failure of a wire proof.
	ErrCodeProof

	// ErrCodeApplication represents a failure to build or resolve an application record.
	ErrCodeApplication
)

// New creates a new Error with the given message and errors.
func (c ErrorCode) New(message string, errs ...error) *Error {
	if message == "" {
		message = strings.ReplaceAll(c.String(), "_", " ")
	}

	return &Error{
		Code:    c,
		Message: message,
		Err:     errors.Join(errs...),
	}
}

// String returns the string representation of the ErrorCode. If the code is not recognized, it returns "unknown_error".
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeUnknown:
		return "unknown_error"
	case ErrCodeValidation:
		return "validation_error"
	case ErrCodeVersion:
		return "version_error"
	case ErrCodeProof:
		return "proof_error"
	case ErrCodeApplication:
		return "application_error"
	default:
		return "unknown_error"
	}
}

// Error implements the error interface for the ErrorCode type. It returns a string representation of the error code.
func (c ErrorCode) Error() string {
	return c.String()
}

// Is implements the errors.Is method for the ErrorCode type.
// It allows checking if the error is of a specific ErrorCode.
func (c ErrorCode) Is(target error) bool {
	var errCode ErrorCode
	if errors.As(target, &errCode) {
		return byte(c) == byte(errCode)
	}

	var protoErr *Error
	if errors.As(target, &protoErr) {
		return byte(c) == byte(protoErr.Code)
	}

	return false
}

// As implements the errors.As method for the Error type. It allows type assertion to specific error types.
func (c ErrorCode) As(target any) bool {
	switch t := target.(type) {
	case ErrorCode:
		return true
	case *ErrorCode:
		*t = c
		return true
	default:
		return false
	}
}

// Error represents an error in the app identity protocol.
type Error struct {
	Err     error
	Message string
	Code    ErrorCode
}

// Error implements the error interface for the Error type. By convention, we return only the concise form of the
// current error, without the cause. The cause can be retrieved with the Unwrap() method.
func (e *Error) Error() string { return e.Message }

// Unwrap implements the errors.Unwrap method for the Error type. It allows retrieving the underlying error, if any.
func (e *Error) Unwrap() error { return e.Err }

// Join wraps the provided error to the current error.
func (e *Error) Join(errs ...error) error {
	return errors.Join(e, errors.Join(errs...))
}

// LogValue implements the slog.LogValuer interface for the Error type.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("code", int(e.Code)),
		slog.String("code_name", e.Code.String()),
		slog.String("message", e.Message),
	}
	if e.Err != nil {
		attrs = append(attrs, slog.Any("error", e.Err))
	}

	return slog.GroupValue(attrs...)
}

// Format implements the fmt.Formatter interface for the Error type. It allows formatting the error in different ways.
func (e *Error) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if f.Flag('+') {
			e.formatV(f)
			return
		}

		fallthrough
	case 's':
		_, _ = io.WriteString(f, e.Error()) //nolint:errcheck // safe to ignore // human-readable
	case 'q':
		_, _ = fmt.Fprintf(f, "%q", e.Error()) //nolint:errcheck // safe to ignore // quoted string
	default:
		_, _ = io.WriteString(f, e.Error()) //nolint:errcheck // safe to ignore // safe default
	}
}

// Is implements the errors.Is method for the Error type. It allows checking if the error is of a specific ErrorCode.
func (e *Error) Is(target error) bool {
	return e.Code.Is(target) && strings.EqualFold(e.Message, target.Error())
}

// As implements the errors.As method for the Error type. It allows type assertion to specific error types.
func (e *Error) As(target any) bool {
	switch t := target.(type) {
	case *ErrorCode:
		*t = e.Code
		return true
	case **Error:
		*t = e
		return true
	default:
		return false
	}
}

func printV(f fmt.State, err error, depth int) {
	if err == nil {
		return
	}

	prefix := strings.Repeat("  ", depth)
	_, _ = fmt.Fprintf(f, "\n%s↳ %v", prefix, err) //nolint:errcheck // safe to ignore

	// Check for errors that can unwrap multiple errors
	var multiUnwrapper interface{ Unwrap() []error }
	if errors.As(err, &multiUnwrapper) {
		for _, child := range multiUnwrapper.Unwrap() {
			printV(f, child, depth+1)
		}

		return
	}

	// Check for errors that can unwrap a single error
	var singleUnwrapper interface{ Unwrap() error }
	if errors.As(err, &singleUnwrapper) {
		printV(f, singleUnwrapper.Unwrap(), depth+1)
	}
}

func (e *Error) formatV(f fmt.State) {
	// header with code
	_, _ = fmt.Fprintf(f, "code=%d(%s)", e.Code, e.Code.String()) //nolint:errcheck // safe to ignore
	if e.Message != "" {
		_, _ = fmt.Fprintf(f, " message=%q", e.Message) //nolint:errcheck // safe to ignore
	}

	// unwrap error chain
	if e.Err != nil {
		printV(f, e.Err, 0)
	}
}

// errRequestedVersion reports a nonce request below the app's own version.
func errRequestedVersion(app, requested int) error {
	return ErrCodeVersion.New(fmt.Sprintf("app version %d is not compatible with requested version %d", app, requested))
}

// errProofVersion reports a proof generation request below the app's own version.
func errProofVersion(app, proof int) error {
	return ErrCodeVersion.New(fmt.Sprintf("app version %d is not compatible with proof version %d", app, proof))
}
