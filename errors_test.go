// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 the app-identity-go developers. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package appidentity_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/appidentity/appidentity-go"
	"github.com/appidentity/appidentity-go/internal"
)

func TestErrorJoin_IsAndAs(t *testing.T) {
	// Compose a typical error chain from a high-level code with internal causes
	err := appidentity.ErrValidation.Join(internal.ErrIDColon)

	// Verify top-level sentinel and internal cause are discoverable via errors.Is
	if !errors.Is(err, appidentity.ErrValidation) {
		t.Fatal("expected errors.Is(err, ErrValidation) to be true")
	}
	if !errors.Is(err, internal.ErrIDColon) {
		t.Fatal("expected errors.Is(err, internal.ErrIDColon) to be true")
	}

	// Verify errors.As can extract the ErrorCode and *Error
	var code appidentity.ErrorCode
	if !errors.As(err, &code) {
		t.Fatal("expected errors.As(err, *ErrorCode) to succeed")
	}
	if !errors.Is(code, appidentity.ErrCodeValidation) {
		t.Fatalf("expected code %v, got %v", appidentity.ErrCodeValidation, code)
	}

	var ae *appidentity.Error
	if !errors.As(err, &ae) {
		t.Fatal("expected errors.As(err, **Error) to succeed")
	}
	if !errors.Is(ae.Code, appidentity.ErrCodeValidation) {
		t.Fatalf("expected *Error.Code %v, got %v", appidentity.ErrCodeValidation, ae.Code)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		err  error
		want appidentity.ErrorCode
		name string
	}{
		{name: "decode", err: appidentity.ErrProofDecode, want: appidentity.ErrCodeProof},
		{name: "parts", err: appidentity.ErrProofParts, want: appidentity.ErrCodeProof},
		{name: "app mismatch", err: appidentity.ErrProofAppMismatch, want: appidentity.ErrCodeProof},
		{name: "version mismatch", err: appidentity.ErrProofVersionMismatch, want: appidentity.ErrCodeProof},
		{name: "validation", err: appidentity.ErrValidation, want: appidentity.ErrCodeValidation},
		{name: "version", err: appidentity.ErrVersion, want: appidentity.ErrCodeVersion},
		{name: "application", err: appidentity.ErrApplication, want: appidentity.ErrCodeApplication},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var code appidentity.ErrorCode
			if !errors.As(test.err, &code) {
				t.Fatal("expected errors.As to extract the code")
			}
			if code != test.want {
				t.Fatalf("expected code %v, got %v", test.want, code)
			}
		})
	}
}

func TestErrorFormat(t *testing.T) {
	err := appidentity.ErrCodeProof.New("cannot decode proof string", errors.New("illegal base64 data"))

	if got := fmt.Sprintf("%s", err); got != "cannot decode proof string" {
		t.Fatalf("%%s: got %q", got)
	}
	if got := fmt.Sprintf("%q", err); got != `"cannot decode proof string"` {
		t.Fatalf("%%q: got %q", got)
	}

	verbose := fmt.Sprintf("%+v", err)
	if !strings.Contains(verbose, "proof_error") || !strings.Contains(verbose, "illegal base64 data") {
		t.Fatalf("%%+v: expected the code and cause, got %q", verbose)
	}
}

// Example: telling a malformed request apart from a failed authentication.
func Example_errorHandling() {
	app := &appidentity.AppInput{ID: "decaf", Secret: "not-telling", Version: 2}

	// A request that is not even a proof.
	_, err := appidentity.VerifyProof("!!! not base64 !!!", app)

	switch {
	case errors.Is(err, appidentity.ErrProofDecode):
		fmt.Println("malformed request: reject with 400")
	case err != nil:
		fmt.Println("structural failure: reject with 400")
	}

	// A well-formed proof for the wrong secret.
	proof, _ := appidentity.GenerateProof(&appidentity.AppInput{ID: "decaf", Secret: "wrong-guess", Version: 2})

	verified, err := appidentity.VerifyProof(proof, app)
	if err == nil && verified == nil {
		fmt.Println("authentication failed: reject with 401")
	}
	// Output:
	// malformed request: reject with 400
	// authentication failed: reject with 401
}
