// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 the app-identity-go developers. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package internal

import (
	cryptorand "crypto/rand"
	"fmt"
)

// RandomBytes returns length bytes from crypto/rand. It panics if the source
// fails; a process without working randomness must not mint nonces.
func RandomBytes(length int) []byte {
	r := make([]byte, length)
	if _, err := cryptorand.Read(r); err != nil {
		panic(fmt.Errorf("reading crypto/rand: %w", err))
	}

	return r
}
