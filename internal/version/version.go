// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 the app-identity-go developers. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package version implements the algorithm version registry: for every protocol
// version it binds a nonce strategy to a digest function, and tracks the
// process-wide set of administratively disallowed versions.
package version

import (
	"crypto"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytemare/hash"
	"github.com/jonboulle/clockwork"

	"github.com/appidentity/appidentity-go/internal"
)

// Version identifies one of the protocol's algorithm versions.
type Version int

const (
	// V1 uses a random nonce and a SHA-256 padlock.
	V1 Version = iota + 1

	// V2 uses a timestamp nonce and a SHA-256 padlock.
	V2

	// V3 uses a timestamp nonce and a SHA-384 padlock.
	V3

	// V4 uses a timestamp nonce and a SHA-512 padlock.
	V4
)

// DefaultFuzz is the clock-skew tolerance, in seconds, applied to timestamp
// nonces when the app config does not set one.
const DefaultFuzz = 600

// Sentinel errors of the registry. The messages are stable: conformance suites
// for other implementations of the protocol test against them verbatim.
var (
	// ErrVersionFormat happens when a version value cannot be read as an integer at all.
	ErrVersionFormat = errors.New("version cannot be converted to a positive integer")

	// ErrVersionValue happens when a version value is an integer but not a positive one.
	ErrVersionValue = errors.New("version must be a positive integer")

	// ErrNonceFormat happens when a timestamp-version nonce does not have the
	// ISO 8601 basic shape.
	ErrNonceFormat = errors.New("nonce does not look like a timestamp")

	// ErrNonceInvalid happens when a timestamp nonce is outside the fuzz window.
	ErrNonceInvalid = errors.New("nonce is invalid")
)

// UnsupportedError reports a positive version number outside the registry.
func UnsupportedError(version int) error {
	return fmt.Errorf("unsupported version %d", version)
}

// DisallowedError reports a supported version barred by the global or per-call
// disallowed set.
func DisallowedError(version Version) error {
	return fmt.Errorf("version %d is disallowed", int(version))
}

type scheme struct {
	nonce  nonceStrategy
	digest crypto.Hash
}

type nonceStrategy interface {
	generate() string
	validate(nonce string, fuzz int) error
}

var registry = map[Version]scheme{
	V1: {nonce: randomNonce{}, digest: crypto.SHA256},
	V2: {nonce: timestampNonce{}, digest: crypto.SHA256},
	V3: {nonce: timestampNonce{}, digest: crypto.SHA384},
	V4: {nonce: timestampNonce{}, digest: crypto.SHA512},
}

// clock is replaced by a fake in tests exercising the fuzz window.
var clock clockwork.Clock = clockwork.NewRealClock()

// Supported reports whether v is a registered algorithm version.
func (v Version) Supported() bool {
	_, ok := registry[v]
	return ok
}

// Parse reads an algorithm version from an integer or integer-like string
// value. Unparseable values, non-positive integers, and unregistered versions
// fail distinctly.
func Parse(value any) (Version, error) {
	var n int

	switch v := value.(type) {
	case Version:
		n = int(v)
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if v != float64(int(v)) {
			return 0, ErrVersionFormat
		}

		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, ErrVersionFormat
		}

		n = parsed
	case nil:
		return 0, ErrVersionValue
	default:
		return 0, ErrVersionFormat
	}

	if n <= 0 {
		return 0, ErrVersionValue
	}

	if !Version(n).Supported() {
		return 0, UnsupportedError(n)
	}

	return Version(n), nil
}

// GenerateNonce produces a fresh nonce in the shape required by v.
func (v Version) GenerateNonce() string {
	return registry[v].nonce.generate()
}

// ValidateNonce checks a candidate nonce against v's strategy. fuzz is the
// clock-skew tolerance in seconds; values <= 0 select DefaultFuzz. The generic
// safe-string rule applies for every version; timestamp versions additionally
// check shape and freshness.
func (v Version) ValidateNonce(nonce string, fuzz int) error {
	if err := internal.CheckNonce(nonce); err != nil {
		return err
	}

	return registry[v].nonce.validate(nonce, fuzz)
}

// Digest computes the padlock for the given fields: the upper-case hex encoding
// of v's digest over "id:nonce:secret".
func (v Version) Digest(id, nonce string, secret []byte) string {
	h := hash.FromCrypto(registry[v].digest).GetHashFunction()
	_, _ = h.Write([]byte(id))
	_, _ = h.Write([]byte(":"))
	_, _ = h.Write([]byte(nonce))
	_, _ = h.Write([]byte(":"))
	_, _ = h.Write(secret)

	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}

// Allowed reports whether v may be used, considering the registry, the global
// disallowed set, and the caller's own disallowed list.
func (v Version) Allowed(perCall []Version) error {
	if !v.Supported() {
		return UnsupportedError(int(v))
	}

	if isDisallowed(v) || slices.Contains(perCall, v) {
		return DisallowedError(v)
	}

	return nil
}

// randomNonce is the version 1 strategy: 16 bytes of CSPRNG output, URL-safe
// base64 without padding. Colon-free by construction.
type randomNonce struct{}

func (randomNonce) generate() string {
	return base64.RawURLEncoding.EncodeToString(internal.RandomBytes(16))
}

func (randomNonce) validate(string, int) error {
	return nil
}

// timestampNonce is the version >= 2 strategy: the current UTC instant in
// ISO 8601 basic form with fractional seconds and a literal Z suffix.
type timestampNonce struct{}

// Extended ISO 8601 (with separators) and offset timezones are rejected.
var timestampShape = regexp.MustCompile(`^\d{8}T\d{6}(\.\d+)?Z$`)

const timestampLayout = "20060102T150405"

func (timestampNonce) generate() string {
	return clock.Now().UTC().Format(timestampLayout+".000000") + "Z"
}

func (timestampNonce) validate(nonce string, fuzz int) error {
	if !timestampShape.MatchString(nonce) {
		return ErrNonceFormat
	}

	// The fractional part never moves the nonce across the fuzz boundary, so
	// skew is compared in whole seconds.
	at, err := time.Parse(timestampLayout, nonce[:len(timestampLayout)])
	if err != nil {
		return ErrNonceFormat
	}

	if fuzz <= 0 {
		fuzz = DefaultFuzz
	}

	skew := clock.Now().UTC().Unix() - at.Unix()
	if skew < 0 {
		skew = -skew
	}

	if skew > int64(fuzz) {
		return ErrNonceInvalid
	}

	return nil
}

// disallowed is the process-wide disallowed set. Administrative state, mutated
// rarely; the lock is held only for set and contains checks.
var disallowed = struct {
	set map[Version]struct{}
	mu  sync.Mutex
}{set: make(map[Version]struct{})}

// Allow removes versions from the global disallowed set.
func Allow(versions ...Version) {
	disallowed.mu.Lock()
	defer disallowed.mu.Unlock()

	for _, v := range versions {
		delete(disallowed.set, v)
	}
}

// Disallow adds versions to the global disallowed set.
func Disallow(versions ...Version) {
	disallowed.mu.Lock()
	defer disallowed.mu.Unlock()

	for _, v := range versions {
		disallowed.set[v] = struct{}{}
	}
}

func isDisallowed(v Version) bool {
	disallowed.mu.Lock()
	defer disallowed.mu.Unlock()

	_, ok := disallowed.set[v]

	return ok
}
