// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 the app-identity-go developers. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package appidentity_test

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/appidentity/appidentity-go"
	"github.com/appidentity/appidentity-go/internal"
	"github.com/appidentity/appidentity-go/internal/version"
)

func TestNewFieldValidation(t *testing.T) {
	valid := appidentity.AppInput{ID: "decaf", Secret: "bad", Version: 1}

	tests := []struct {
		mutate func(*appidentity.AppInput)
		want   error
		name   string
	}{
		{name: "nil id", mutate: func(in *appidentity.AppInput) { in.ID = nil }, want: internal.ErrIDNil},
		{name: "empty id", mutate: func(in *appidentity.AppInput) { in.ID = "" }, want: internal.ErrIDEmpty},
		{name: "colon id", mutate: func(in *appidentity.AppInput) { in.ID = "de:caf" }, want: internal.ErrIDColon},
		{name: "nil secret", mutate: func(in *appidentity.AppInput) { in.Secret = nil }, want: internal.ErrSecretNil},
		{name: "non-string secret", mutate: func(in *appidentity.AppInput) { in.Secret = 42 }, want: internal.ErrSecretType},
		{name: "empty secret", mutate: func(in *appidentity.AppInput) { in.Secret = "" }, want: internal.ErrSecretEmpty},
		{name: "colon secret", mutate: func(in *appidentity.AppInput) { in.Secret = "b:ad" }, want: internal.ErrSecretColon},
		{name: "nil version", mutate: func(in *appidentity.AppInput) { in.Version = nil }, want: version.ErrVersionValue},
		{name: "zero version", mutate: func(in *appidentity.AppInput) { in.Version = 0 }, want: version.ErrVersionValue},
		{name: "negative version", mutate: func(in *appidentity.AppInput) { in.Version = -2 }, want: version.ErrVersionValue},
		{
			name:   "fractional version string",
			mutate: func(in *appidentity.AppInput) { in.Version = "3.5" },
			want:   version.ErrVersionFormat,
		},
		{
			name:   "non-numeric version",
			mutate: func(in *appidentity.AppInput) { in.Version = "two" },
			want:   version.ErrVersionFormat,
		},
		{
			name:   "negative fuzz",
			mutate: func(in *appidentity.AppInput) { in.Config = map[string]any{"fuzz": -300} },
			want:   internal.ErrFuzzValue,
		},
		{
			name:   "non-integer fuzz",
			mutate: func(in *appidentity.AppInput) { in.Config = map[string]any{"fuzz": "soon"} },
			want:   internal.ErrFuzzValue,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			in := valid
			test.mutate(&in)

			if _, err := appidentity.New(&in); !errors.Is(err, test.want) {
				t.Fatalf("expected %q, got %v", test.want, err)
			}
		})
	}
}

func TestNewUnsupportedVersion(t *testing.T) {
	_, err := appidentity.New(&appidentity.AppInput{ID: "decaf", Secret: "bad", Version: 5})
	if err == nil || !strings.Contains(err.Error(), "unsupported version 5") {
		t.Fatalf("expected an unsupported version failure, got %v", err)
	}
}

func TestNewNormalizesID(t *testing.T) {
	app, err := appidentity.New(&appidentity.AppInput{ID: 1, Secret: "bad", Version: 1})
	if err != nil {
		t.Fatalf("building app: %v", err)
	}
	if app.ID() != "1" {
		t.Fatalf("expected the integer id to normalize to %q, got %q", "1", app.ID())
	}
}

func TestNewFromMap(t *testing.T) {
	app, err := appidentity.New(map[string]any{
		"id":      "decaf",
		"secret":  "bad",
		"version": float64(2), // JSON-decoded numbers arrive as float64
		"config":  map[string]any{"fuzz": float64(300)},
	})
	if err != nil {
		t.Fatalf("building app: %v", err)
	}
	if app.Version() != 2 {
		t.Fatalf("expected version 2, got %d", app.Version())
	}
	if cfg := app.Config(); cfg == nil || cfg.Fuzz != 300 {
		t.Fatalf("expected fuzz 300, got %+v", cfg)
	}

	_, err = appidentity.New(map[string]any{
		"id":      "decaf",
		"secret":  "bad",
		"version": 1,
		"config":  "soon",
	})
	if !errors.Is(err, internal.ErrConfigType) {
		t.Fatalf("expected a non-map config to be rejected, got %v", err)
	}
}

func TestNewFromLoader(t *testing.T) {
	app, err := appidentity.New(appidentity.Loader(func() (any, error) {
		return &appidentity.AppInput{ID: "decaf", Secret: "bad", Version: 1}, nil
	}))
	if err != nil {
		t.Fatalf("building app from loader: %v", err)
	}
	if app.ID() != "decaf" {
		t.Fatalf("unexpected id %q", app.ID())
	}

	boom := errors.New("store unavailable")

	_, err = appidentity.New(func() (any, error) { return nil, boom })
	if !errors.Is(err, boom) || !errors.Is(err, appidentity.ErrApplication) {
		t.Fatalf("expected the loader failure to propagate, got %v", err)
	}
}

func TestNewPassThrough(t *testing.T) {
	app, err := appidentity.New(&appidentity.AppInput{ID: "decaf", Secret: "bad", Version: 1})
	if err != nil {
		t.Fatalf("building app: %v", err)
	}

	same, err := appidentity.New(app)
	if err != nil {
		t.Fatalf("rebuilding app: %v", err)
	}
	if same != app {
		t.Fatal("expected an unverified app to pass through unchanged")
	}

	fresh, err := appidentity.New(app.Verify())
	if err != nil {
		t.Fatalf("rebuilding verified app: %v", err)
	}
	if fresh.Verified() {
		t.Fatal("expected a verified app to be treated as a fresh, unverified source")
	}
}

func TestVerifyUnverifyCopyOnWrite(t *testing.T) {
	app, err := appidentity.New(&appidentity.AppInput{ID: "decaf", Secret: "bad", Version: 1})
	if err != nil {
		t.Fatalf("building app: %v", err)
	}

	verified := app.Verify()

	if app.Verified() {
		t.Fatal("expected Verify not to mutate the receiver")
	}
	if !verified.Verified() {
		t.Fatal("expected the returned copy to be verified")
	}
	if verified.Verify() != verified {
		t.Fatal("expected Verify on a verified app to return itself")
	}
	if verified.Unverify().Verified() {
		t.Fatal("expected Unverify to clear the flag on a copy")
	}
	if app.Unverify() != app {
		t.Fatal("expected Unverify on an unverified app to return itself")
	}
}

func TestAppEquality(t *testing.T) {
	a, err := appidentity.New(&appidentity.AppInput{ID: "decaf", Secret: "bad", Version: 1})
	if err != nil {
		t.Fatalf("building app: %v", err)
	}

	// Same fields behind a different secret wrapper.
	b, err := appidentity.New(&appidentity.AppInput{
		ID:      "decaf",
		Secret:  func() []byte { return []byte("bad") },
		Version: 1,
	})
	if err != nil {
		t.Fatalf("building app: %v", err)
	}

	if !a.Equal(b) {
		t.Fatal("expected apps with the same identity to be equal")
	}
	if a.Equal(b.Verify()) {
		t.Fatal("expected the verified flag to participate in equality")
	}

	c, err := appidentity.New(&appidentity.AppInput{ID: "decaf", Secret: "worse", Version: 1})
	if err != nil {
		t.Fatalf("building app: %v", err)
	}

	if a.Equal(c) {
		t.Fatal("expected apps with different secrets not to be equal")
	}
}

func TestSecretRedaction(t *testing.T) {
	app, err := appidentity.New(&appidentity.AppInput{ID: "decaf", Secret: "hunter2", Version: 1})
	if err != nil {
		t.Fatalf("building app: %v", err)
	}

	for _, format := range []string{"%v", "%+v", "%s", "%#v"} {
		for _, value := range []any{app, app.Secret()} {
			if out := fmt.Sprintf(format, value); strings.Contains(out, "hunter2") {
				t.Fatalf("format %s leaked the secret: %s", format, out)
			}
		}
	}

	if string(app.Secret().Reveal()) != "hunter2" {
		t.Fatal("expected Reveal to return the raw secret")
	}
}

func TestToPublicRoundTrip(t *testing.T) {
	app, err := appidentity.New(&appidentity.AppInput{
		ID:      "decaf",
		Secret:  "bad",
		Version: 2,
		Config:  map[string]any{"fuzz": 300},
	})
	if err != nil {
		t.Fatalf("building app: %v", err)
	}

	public := app.ToPublic()
	if public.Secret != "bad" {
		t.Fatalf("expected the exported secret to be unwrapped, got %q", public.Secret)
	}

	again, err := appidentity.New(&appidentity.AppInput{
		ID:      public.ID,
		Secret:  public.Secret,
		Version: public.Version,
		Config:  map[string]any{"fuzz": public.Config.Fuzz},
	})
	if err != nil {
		t.Fatalf("rebuilding app: %v", err)
	}
	if !app.Equal(again) {
		t.Fatal("expected the exported app to round-trip")
	}
}

func TestGenerateNonceShapes(t *testing.T) {
	timestampShape := regexp.MustCompile(`^\d{8}T\d{6}(\.\d+)?Z$`)

	v1, err := appidentity.New(&appidentity.AppInput{ID: "decaf", Secret: "bad", Version: 1})
	if err != nil {
		t.Fatalf("building app: %v", err)
	}

	nonce, err := v1.GenerateNonce()
	if err != nil {
		t.Fatalf("generating nonce: %v", err)
	}
	if strings.Contains(nonce, ":") {
		t.Fatalf("random nonce %q contains a colon", nonce)
	}
	if raw, err := base64.RawURLEncoding.DecodeString(nonce); err != nil || len(raw) < 16 {
		t.Fatalf("expected at least 16 bytes of URL-safe base64, got %q (%v)", nonce, err)
	}

	// A version 1 app may request nonces for any later version.
	nonce, err = v1.GenerateNonce(3)
	if err != nil {
		t.Fatalf("generating nonce for version 3: %v", err)
	}
	if !timestampShape.MatchString(nonce) {
		t.Fatalf("expected a timestamp nonce, got %q", nonce)
	}

	v2, err := appidentity.New(&appidentity.AppInput{ID: "decaf", Secret: "bad", Version: 2})
	if err != nil {
		t.Fatalf("building app: %v", err)
	}

	if nonce, err = v2.GenerateNonce(); err != nil || !timestampShape.MatchString(nonce) {
		t.Fatalf("expected a timestamp nonce, got %q (%v)", nonce, err)
	}

	_, err = v2.GenerateNonce(1)
	if err == nil {
		t.Fatal("expected a version 2 app to refuse a version 1 nonce")
	}

	var pe *appidentity.Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected an *Error, got %T", err)
	}
	if pe.Message != "app version 2 is not compatible with requested version 1" {
		t.Fatalf("unexpected message %q", pe.Message)
	}
}
