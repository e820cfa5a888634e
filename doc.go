// Package appidentity implements the App Identity mutual-proof protocol.
//
// A client application proves possession of a shared secret to a server
// without transmitting the secret: it digests an identifier, a nonce, and the
// secret into a "padlock" and presents the result as a compact encoded proof.
// The server recomputes the padlock from its own copy of the secret and
// compares in constant time.
//
// This package is the protocol engine only: application records, algorithm
// versions 1 through 4, nonce handling, padlock computation, and proof
// generation, parsing, and verification. Transport, secret storage, and key
// rotation are the caller's concern.
package appidentity
