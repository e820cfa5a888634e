// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 the app-identity-go developers. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package appidentity

import (
	"github.com/appidentity/appidentity-go/internal/version"
)

// GenerateProof computes a wire-format proof string for the app. app is
// anything New accepts: an *AppInput, a map, an *App, or a Loader.
func GenerateProof(app any, opts ...*GenerateOptions) (string, error) {
	proof, err := NewProof(app, opts...)
	if err != nil {
		return "", err
	}

	return proof.String(), nil
}

// ParseProof decodes a wire proof string. A *Proof passes through unchanged.
func ParseProof(input any) (*Proof, error) {
	switch p := input.(type) {
	case *Proof:
		if p == nil {
			return nil, ErrProofInput
		}

		return p, nil
	case string:
		return parseProof(p)
	case []byte:
		return parseProof(string(p))
	default:
		return nil, ErrProofInput
	}
}

// VerifyProof checks a proof against an application. proof is a wire string or
// a parsed *Proof; app is an application input as accepted by New, or a Finder.
//
// The result is three-valued: (app, nil) with a verified app on success;
// (nil, nil) when the proof is well-formed but does not authenticate (padlock
// mismatch, or the Finder found no app); (nil, err) for every structural,
// validation, or version-compatibility failure.
func VerifyProof(proof, app any, opts ...*VerifyOptions) (*App, error) {
	p, err := ParseProof(proof)
	if err != nil {
		return nil, err
	}

	return p.Verify(app, opts...)
}

// ValidProof reports whether the proof authenticates against the app,
// collapsing every failure into false. Use VerifyProof when the reason
// matters, for instance to log malformed requests apart from failed ones.
func ValidProof(proof, app any, opts ...*VerifyOptions) bool {
	verified, err := VerifyProof(proof, app, opts...)

	return err == nil && verified != nil
}

// AllowVersion removes algorithm versions from the process-wide disallowed
// set.
func AllowVersion(versions ...int) {
	version.Allow(asVersions(versions)...)
}

// DisallowVersion adds algorithm versions to the process-wide disallowed set.
// Disallowing a version retires it for every call in this process; individual
// calls may bar further versions through the Disallowed option, but never
// fewer.
func DisallowVersion(versions ...int) {
	version.Disallow(asVersions(versions)...)
}
