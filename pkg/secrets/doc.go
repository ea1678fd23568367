// Package secrets encrypts small local payloads such as stored portal
// credentials.
//
// A 32-byte master key is never used directly. Seal and Open derive a
// per-namespace AES-256 key with HKDF-SHA256 and encrypt with AES-GCM; the
// random nonce is prepended to the ciphertext. Using a different namespace
// per store file means one leaked file key cannot decrypt another.
//
// Keys are usually supplied through the environment as base64 or hex;
// ParseKey accepts both.
package secrets
