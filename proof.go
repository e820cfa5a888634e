// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 the app-identity-go developers. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package appidentity

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/appidentity/appidentity-go/internal"
	"github.com/appidentity/appidentity-go/internal/version"
)

// Proof is one wire-format authentication assertion: an id, a nonce, the
// padlock digest over them, and the algorithm version that produced the
// padlock. A Proof is immutable and never holds a secret.
type Proof struct {
	id      string
	nonce   string
	padlock string
	version version.Version
}

// Finder resolves a parsed Proof to an application input, typically by looking
// the proof's id up in a store. It is called at most once per verification and
// its result is not cached. Returning a nil input reports "app not found",
// which verification treats as a failed proof, not an error. A non-nil error,
// such as an unreachable store, aborts verification and is returned to the
// caller.
type Finder func(*Proof) (any, error)

// NewProof computes a proof for the app. The proof version is the app's own
// unless overridden upward through the Version option; the nonce is generated
// for that version unless supplied through the Nonce option.
func NewProof(app any, opts ...*GenerateOptions) (*Proof, error) {
	a, err := New(app)
	if err != nil {
		return nil, err
	}

	o := resolveGenerate(opts)

	v := a.version
	if o.Version != 0 {
		requested, err := version.Parse(o.Version)
		if err != nil {
			return nil, ErrValidation.Join(err)
		}

		v = requested
	}

	nonce := o.Nonce
	if nonce == "" {
		if nonce, err = a.GenerateNonce(int(v)); err != nil {
			return nil, err
		}
	}

	return proofFromApp(a, v, nonce, o.disallowed())
}

// proofFromApp is the generation path: version allowance, strict
// upgradeability, nonce validation, then the padlock digest.
func proofFromApp(a *App, v version.Version, nonce string, disallowed []version.Version) (*Proof, error) {
	if err := v.Allowed(disallowed); err != nil {
		return nil, ErrVersion.Join(err)
	}

	if a.version > v {
		return nil, errProofVersion(int(a.version), int(v))
	}

	if err := v.ValidateNonce(nonce, fuzz(a.config)); err != nil {
		return nil, ErrValidation.Join(err)
	}

	return &Proof{
		version: v,
		id:      a.id,
		nonce:   nonce,
		padlock: v.Digest(a.id, nonce, a.secret.Reveal()),
	}, nil
}

// parseProof is the parse path: base64 decode, split on the field separator
// keeping empty segments, then field-by-field validation, first failure wins.
func parseProof(wire string) (*Proof, error) {
	raw, err := base64.RawURLEncoding.DecodeString(wire)
	if err != nil {
		return nil, ErrProofDecode.Join(err)
	}

	var v version.Version

	parts := strings.Split(string(raw), ":")

	switch len(parts) {
	case 3:
		// The original 3-part wire format carries no version field.
		v = version.V1
	case 4:
		if v, err = version.Parse(parts[0]); err != nil {
			return nil, ErrValidation.Join(err)
		}

		parts = parts[1:]
	default:
		return nil, ErrProofParts
	}

	id, err := internal.CheckID(parts[0])
	if err != nil {
		return nil, ErrValidation.Join(err)
	}

	if err := internal.CheckNonce(parts[1]); err != nil {
		return nil, ErrValidation.Join(err)
	}

	if err := internal.CheckPadlock(parts[2]); err != nil {
		return nil, ErrValidation.Join(err)
	}

	return &Proof{version: v, id: id, nonce: parts[1], padlock: parts[2]}, nil
}

// ID returns the application identifier the proof asserts.
func (p *Proof) ID() string { return p.id }

// Nonce returns the proof nonce.
func (p *Proof) Nonce() string { return p.nonce }

// Padlock returns the hex-encoded padlock digest.
func (p *Proof) Padlock() string { return p.padlock }

// Version returns the algorithm version the proof was built with.
func (p *Proof) Version() int { return int(p.version) }

// String returns the wire form: URL-safe base64, without padding, of the
// colon-joined fields. Version 1 proofs keep the original 3-part format; later
// versions lead with the version number.
func (p *Proof) String() string {
	payload := p.id + ":" + p.nonce + ":" + p.padlock
	if p.version != version.V1 {
		payload = strconv.Itoa(int(p.version)) + ":" + payload
	}

	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// Verify checks the proof against an application: app is an application input
// as accepted by New, or a Finder. A verified copy of the app is returned when
// the padlock matches.
//
// A padlock mismatch, and a Finder that does not locate an app, return
// (nil, nil): authentication simply failed. Every structural problem, wrong
// version, stale nonce, or mismatched id is an error, so callers can tell a
// malformed request apart from a wrong secret.
func (p *Proof) Verify(app any, opts ...*VerifyOptions) (*App, error) {
	a, err := p.resolveApp(app)
	if err != nil || a == nil {
		return nil, err
	}

	if p.id != a.id {
		return nil, ErrProofAppMismatch
	}

	if a.version > p.version {
		return nil, ErrProofVersionMismatch
	}

	if err := p.version.Allowed(resolveVerify(opts).disallowed()); err != nil {
		return nil, ErrVersion.Join(err)
	}

	if err := p.version.ValidateNonce(p.nonce, fuzz(a.config)); err != nil {
		return nil, ErrValidation.Join(err)
	}

	if err := internal.CheckPadlock(p.padlock); err != nil {
		return nil, ErrValidation.Join(err)
	}

	// A padlock that is not hex-shaped can never match a computed digest, so it
	// short-circuits to the same negative outcome a mismatch would reach.
	if !hexShaped(p.padlock) {
		return nil, nil
	}

	expected := p.version.Digest(a.id, p.nonce, a.secret.Reveal())
	if !padlockEqual(expected, p.padlock) {
		return nil, nil
	}

	return a.Verify(), nil
}

func (p *Proof) resolveApp(app any) (*App, error) {
	var find Finder

	switch t := app.(type) {
	case Finder:
		find = t
	case func(*Proof) (any, error):
		find = t
	default:
		return New(app)
	}

	input, err := find(p)
	if err != nil {
		return nil, ErrApplication.Join(err)
	}

	if input == nil {
		// An unknown id is indistinguishable from an invalid proof.
		return nil, nil
	}

	return New(input)
}

func fuzz(c *Config) int {
	if c == nil {
		return 0
	}

	return c.Fuzz
}

func hexShaped(padlock string) bool {
	if len(padlock)%2 != 0 {
		return false
	}

	_, err := hex.DecodeString(padlock)

	return err == nil
}

// padlockEqual compares two padlocks case-insensitively in constant time.
// Length is not secret, so unequal or empty inputs may reject early; equal
// lengths are compared byte for byte over the whole string.
func padlockEqual(a, b string) bool {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return false
	}

	return subtle.ConstantTimeCompare(
		[]byte(strings.ToUpper(a)),
		[]byte(strings.ToUpper(b)),
	) == 1
}
