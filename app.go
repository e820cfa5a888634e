// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 the app-identity-go developers. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package appidentity

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/appidentity/appidentity-go/internal"
	"github.com/appidentity/appidentity-go/internal/version"
)

// Secret holds a shared secret behind a thunk so that the raw value is only
// materialized at digest time. Its only operation is Reveal; String, GoString,
// and LogValue deliberately redact, so generic formatting and logging of an App
// never exposes the secret.
type Secret struct {
	reveal func() []byte
}

// NewSecret wraps a copy of the given secret bytes.
func NewSecret(value []byte) Secret {
	s := make([]byte, len(value))
	copy(s, value)

	return Secret{reveal: func() []byte { return s }}
}

// SecretFunc wraps a thunk producing the secret on demand, for callers that do
// not want to hold secret material in memory between calls.
func SecretFunc(reveal func() []byte) Secret {
	return Secret{reveal: reveal}
}

// Reveal returns the raw secret. Explicit, auditable access only.
func (s Secret) Reveal() []byte {
	if s.reveal == nil {
		return nil
	}

	return s.reveal()
}

// String implements fmt.Stringer and always redacts.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer and always redacts.
func (s Secret) GoString() string { return "appidentity.Secret{[REDACTED]}" }

// LogValue implements the slog.LogValuer interface and always redacts.
func (s Secret) LogValue() slog.Value { return slog.StringValue("[REDACTED]") }

// Config is the optional per-app configuration. Fuzz is the clock-skew
// tolerance for timestamp nonces, in seconds; zero selects the default of 600.
type Config struct {
	Fuzz int `json:"fuzz,omitempty"`
}

// AppInput is the record shape an App is built from. ID and Version accept
// non-string and string forms respectively and are normalized during
// construction; Secret accepts a string, a byte slice, a Secret, or a
// zero-argument thunk.
type AppInput struct {
	ID      any            `json:"id"`
	Secret  any            `json:"secret"`
	Version any            `json:"version"`
	Config  map[string]any `json:"config,omitempty"`
}

// PublicApp is the exported form of an App with the secret unwrapped. It is
// intended for persistence only and is not safe to log.
type PublicApp struct {
	ID      string  `json:"id"`
	Secret  string  `json:"secret"`
	Version int     `json:"version"`
	Config  *Config `json:"config,omitempty"`
}

// Loader defers the construction of an application input, so that secret
// material is not held before it is needed.
type Loader func() (any, error)

// App is one party's validated, immutable record of a shared-secret
// configuration. A zero App is not valid; use New.
type App struct {
	source   any
	config   *Config
	secret   Secret
	id       string
	version  version.Version
	verified bool
}

// New builds a validated App from input: an *AppInput (or AppInput value), a
// map with "id", "secret", "version", and optional "config" keys, another *App
// (passed through when unverified, used as a fresh source otherwise), or a
// Loader. Construction fails on the first invalid field; nothing is coerced or
// defaulted besides config.
func New(input any) (*App, error) {
	switch in := input.(type) {
	case *App:
		if in == nil {
			return nil, ErrAppInput
		}

		if !in.verified {
			return in, nil
		}

		return in.Unverify(), nil
	case App:
		return New(&in)
	case *AppInput:
		if in == nil {
			return nil, ErrAppInput
		}

		return fromInput(in, in)
	case AppInput:
		return fromInput(&in, in)
	case map[string]any:
		config, err := asConfigMap(in["config"])
		if err != nil {
			return nil, ErrValidation.Join(err)
		}

		return fromInput(&AppInput{
			ID:      in["id"],
			Secret:  in["secret"],
			Version: in["version"],
			Config:  config,
		}, in)
	case Loader:
		return load(in)
	case func() (any, error):
		return load(in)
	default:
		return nil, ErrAppInput.Join(fmt.Errorf("unsupported input type %T", input))
	}
}

func load(loader Loader) (*App, error) {
	input, err := loader()
	if err != nil {
		return nil, ErrApplication.Join(err)
	}

	return New(input)
}

func asConfigMap(value any) (map[string]any, error) {
	if value == nil {
		return nil, nil
	}

	if m, ok := value.(map[string]any); ok {
		return m, nil
	}

	return nil, internal.ErrConfigType
}

func fromInput(in *AppInput, source any) (*App, error) {
	id, err := internal.CheckID(in.ID)
	if err != nil {
		return nil, ErrValidation.Join(err)
	}

	secret, err := checkSecret(in.Secret)
	if err != nil {
		return nil, ErrValidation.Join(err)
	}

	v, err := version.Parse(in.Version)
	if err != nil {
		return nil, ErrValidation.Join(err)
	}

	config, err := checkConfig(in.Config)
	if err != nil {
		return nil, ErrValidation.Join(err)
	}

	return &App{
		id:      id,
		secret:  secret,
		version: v,
		config:  config,
		source:  source,
	}, nil
}

func checkSecret(value any) (Secret, error) {
	if s, ok := value.(Secret); ok {
		if s.reveal == nil {
			return Secret{}, internal.ErrSecretNil
		}

		value = s.reveal
	}

	reveal, err := internal.CheckSecret(value)
	if err != nil {
		return Secret{}, err
	}

	return Secret{reveal: reveal}, nil
}

func checkConfig(config map[string]any) (*Config, error) {
	if config == nil {
		return nil, nil
	}

	// "fuzz" is the only recognized key; anything else stays in source only.
	fuzz, ok := config["fuzz"]
	if !ok || fuzz == nil {
		return &Config{}, nil
	}

	seconds, err := internal.CheckFuzz(fuzz)
	if err != nil {
		return nil, err
	}

	return &Config{Fuzz: seconds}, nil
}

// ID returns the application identifier.
func (a *App) ID() string { return a.id }

// Secret returns the wrapped secret.
func (a *App) Secret() Secret { return a.secret }

// Version returns the minimum algorithm version this app supports.
func (a *App) Version() int { return int(a.version) }

// Config returns a copy of the app configuration, or nil when absent.
func (a *App) Config() *Config {
	if a.config == nil {
		return nil
	}

	c := *a.config

	return &c
}

// Source returns the input this record was built from. Round-tripping and
// debugging only; it plays no part in the protocol.
func (a *App) Source() any { return a.source }

// Verified reports whether this record is the result of a successful proof
// verification.
func (a *App) Verified() bool { return a.verified }

// Verify returns a verified copy of the app, or the app itself when already
// verified. The receiver is never mutated.
func (a *App) Verify() *App {
	if a.verified {
		return a
	}

	cp := *a
	cp.verified = true

	return &cp
}

// Unverify returns an unverified copy of the app, or the app itself when
// already unverified.
func (a *App) Unverify() *App {
	if !a.verified {
		return a
	}

	cp := *a
	cp.verified = false

	return &cp
}

// GenerateNonce produces a nonce in the shape required by the app's version, or
// by the requested version when given. Requesting a version below the app's own
// fails: versions are strictly upgradeable.
func (a *App) GenerateNonce(requestedVersion ...int) (string, error) {
	v := a.version

	if len(requestedVersion) > 0 {
		requested, err := version.Parse(requestedVersion[0])
		if err != nil {
			return "", ErrValidation.Join(err)
		}

		if requested < a.version {
			return "", errRequestedVersion(int(a.version), int(requested))
		}

		v = requested
	}

	return v.GenerateNonce(), nil
}

// ToPublic exports the app with the secret unwrapped. Not safe for logs;
// intended for persistence only.
func (a *App) ToPublic() *PublicApp {
	return &PublicApp{
		ID:      a.id,
		Secret:  string(a.secret.Reveal()),
		Version: int(a.version),
		Config:  a.Config(),
	}
}

// Equal reports whether two apps carry the same identity: id, version, config,
// verified flag, and unwrapped secret. The secret wrapper identity is
// irrelevant.
func (a *App) Equal(other *App) bool {
	if a == nil || other == nil {
		return a == other
	}

	if a.id != other.id || a.version != other.version || a.verified != other.verified {
		return false
	}

	switch {
	case a.config == nil && other.config != nil:
		return false
	case a.config != nil && other.config == nil:
		return false
	case a.config != nil && *a.config != *other.config:
		return false
	}

	return bytes.Equal(a.secret.Reveal(), other.secret.Reveal())
}

// String implements fmt.Stringer. The secret is redacted.
func (a *App) String() string {
	return fmt.Sprintf("App{id=%s, version=%d, verified=%t}", a.id, a.version, a.verified)
}

// LogValue implements the slog.LogValuer interface. The secret is redacted.
func (a *App) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", a.id),
		slog.Int("version", int(a.version)),
		slog.Bool("verified", a.verified),
	)
}
