// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package audit

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveSigningKey derives a 32-byte HMAC key for NewSigner from a
// master secret via HKDF-SHA256, rather than using the secret directly.
// salt distinguishes keys derived for different WAL instances sharing
// the same master secret; info binds the key to its purpose.
func DeriveSigningKey(secret, salt []byte, info string) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, salt, []byte(info))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("audit: derive signing key: %w", err)
	}
	return key, nil
}

// NewSignerFromSecret derives a signing key from secret/salt/info via
// DeriveSigningKey and constructs a Signer from it.
func NewSignerFromSecret(secret, salt []byte, info string) (*Signer, error) {
	key, err := DeriveSigningKey(secret, salt, info)
	if err != nil {
		return nil, err
	}
	return NewSigner(key)
}
