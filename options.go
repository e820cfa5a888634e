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

// GenerateOptions override proof-generation defaults.
type GenerateOptions struct {
	// Nonce is used instead of a freshly generated one. It must match the shape
	// the target version requires.
	Nonce string

	// Version requests an algorithm version above the app's own minimum.
	Version int

	// Disallowed bars versions for this call only, on top of the global
	// disallowed set.
	Disallowed []int
}

// VerifyOptions override proof-verification defaults.
type VerifyOptions struct {
	// Disallowed bars versions for this call only, on top of the global
	// disallowed set.
	Disallowed []int
}

func resolveGenerate(opts []*GenerateOptions) *GenerateOptions {
	if len(opts) == 0 || opts[0] == nil {
		return &GenerateOptions{}
	}

	return opts[0]
}

func resolveVerify(opts []*VerifyOptions) *VerifyOptions {
	if len(opts) == 0 || opts[0] == nil {
		return &VerifyOptions{}
	}

	return opts[0]
}

func (o *GenerateOptions) disallowed() []version.Version {
	return asVersions(o.Disallowed)
}

func (o *VerifyOptions) disallowed() []version.Version {
	return asVersions(o.Disallowed)
}

func asVersions(numbers []int) []version.Version {
	if len(numbers) == 0 {
		return nil
	}

	versions := make([]version.Version, 0, len(numbers))
	for _, n := range numbers {
		versions = append(versions, version.Version(n))
	}

	return versions
}
