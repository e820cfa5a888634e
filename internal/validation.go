// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 the app-identity-go developers. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package internal provides input validation and helpers that are not part of the public API.
package internal

import (
	"errors"
	"fmt"
	"strings"
)

// Validation sentinels. These messages are stable: conformance suites for other
// implementations of the protocol test against them verbatim.
var (
	// ErrIDNil happens when an app is built without an id.
	ErrIDNil = errors.New("id must not be nil")

	// ErrIDEmpty happens when an app id normalizes to an empty string.
	ErrIDEmpty = errors.New("id must not be an empty string")

	// ErrIDColon happens when an app id contains a colon, the wire field separator.
	ErrIDColon = errors.New("id must not contain colon characters")

	// ErrSecretNil happens when an app is built without a secret.
	ErrSecretNil = errors.New("secret must not be nil")

	// ErrSecretType happens when a secret is neither string-like nor a secret thunk.
	ErrSecretType = errors.New("secret must be a binary string value")

	// ErrSecretEmpty happens when a secret resolves to an empty value.
	ErrSecretEmpty = errors.New("secret must not be an empty string")

	// ErrSecretColon happens when a secret contains a colon.
	ErrSecretColon = errors.New("secret must not contain colon characters")

	// ErrNonceEmpty happens when a nonce is empty.
	ErrNonceEmpty = errors.New("nonce must not be an empty string")

	// ErrNonceColon happens when a nonce contains a colon.
	ErrNonceColon = errors.New("nonce must not contain colon characters")

	// ErrPadlockEmpty happens when a padlock is empty.
	ErrPadlockEmpty = errors.New("padlock must not be an empty string")

	// ErrPadlockColon happens when a padlock contains a colon.
	ErrPadlockColon = errors.New("padlock must not contain colon characters")

	// ErrConfigType happens when an app config is neither absent nor map-shaped.
	ErrConfigType = errors.New("config must be nil or a map")

	// ErrFuzzValue happens when a config fuzz is not a positive integer.
	ErrFuzzValue = errors.New("config fuzz must be a positive integer")
)

// CheckID normalizes and validates an application identifier. Non-string values
// are converted to their string form before the safe-string rule applies.
func CheckID(value any) (string, error) {
	if value == nil {
		return "", ErrIDNil
	}

	var id string

	switch v := value.(type) {
	case string:
		id = v
	case []byte:
		id = string(v)
	default:
		id = fmt.Sprint(v)
	}

	switch {
	case id == "":
		return "", ErrIDEmpty
	case strings.ContainsRune(id, ':'):
		return "", ErrIDColon
	}

	return id, nil
}

// CheckSecret validates a secret value and returns it in thunk form. A callable
// input is invoked once to validate its content, but the callable itself is
// returned so that the raw value is only materialized at digest time.
func CheckSecret(value any) (func() []byte, error) {
	if value == nil {
		return nil, ErrSecretNil
	}

	switch v := value.(type) {
	case func() []byte:
		if err := checkSecretContent(v()); err != nil {
			return nil, err
		}

		return v, nil
	case func() string:
		if err := checkSecretContent([]byte(v())); err != nil {
			return nil, err
		}

		return func() []byte { return []byte(v()) }, nil
	case string:
		if err := checkSecretContent([]byte(v)); err != nil {
			return nil, err
		}

		return func() []byte { return []byte(v) }, nil
	case []byte:
		if err := checkSecretContent(v); err != nil {
			return nil, err
		}

		s := make([]byte, len(v))
		copy(s, v)

		return func() []byte { return s }, nil
	default:
		return nil, ErrSecretType
	}
}

func checkSecretContent(secret []byte) error {
	switch {
	case len(secret) == 0:
		return ErrSecretEmpty
	case strings.ContainsRune(string(secret), ':'):
		return ErrSecretColon
	}

	return nil
}

// CheckNonce applies the generic safe-string rule to a nonce. Version-specific
// shape and freshness checks are the registry's concern.
func CheckNonce(nonce string) error {
	switch {
	case nonce == "":
		return ErrNonceEmpty
	case strings.ContainsRune(nonce, ':'):
		return ErrNonceColon
	}

	return nil
}

// CheckPadlock applies the generic safe-string rule to a padlock.
func CheckPadlock(padlock string) error {
	switch {
	case padlock == "":
		return ErrPadlockEmpty
	case strings.ContainsRune(padlock, ':'):
		return ErrPadlockColon
	}

	return nil
}

// CheckFuzz validates a config fuzz value, in seconds.
func CheckFuzz(value any) (int, error) {
	var fuzz int

	switch v := value.(type) {
	case int:
		fuzz = v
	case int64:
		fuzz = int(v)
	case float64:
		if v != float64(int(v)) {
			return 0, ErrFuzzValue
		}

		fuzz = int(v)
	default:
		return 0, ErrFuzzValue
	}

	if fuzz <= 0 {
		return 0, ErrFuzzValue
	}

	return fuzz, nil
}
