// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"fmt"

	"github.com/controlplaneio-fluxcd/license-kit/internal/license"
)

// PublicKey is an envelope for an Ed25519 or RSA public key
// and its key ID. It implements license.Verifier.
type PublicKey struct {
	// Key is the Ed25519 or RSA public key.
	Key crypto.PublicKey

	// KeyID is the unique identifier for the key.
	KeyID string

	// Algorithm is the signing algorithm of the key.
	Algorithm string
}

// PrivateKey is an envelope for an Ed25519 or RSA private key,
// including its key ID and issuer information.
// It implements license.Signer.
type PrivateKey struct {
	// Key is the Ed25519 or RSA private key.
	Key crypto.Signer

	// KeyID is the unique identifier for the key.
	KeyID string

	// Algorithm is the signing algorithm of the key.
	Algorithm string

	// Issuer is the identifier of the entity that issued the key.
	Issuer string
}

var (
	_ license.Signer   = (*PrivateKey)(nil)
	_ license.Verifier = (*PublicKey)(nil)
	_ license.Hasher   = (*DigestRegistry)(nil)
)

// CanSign reports whether the key is usable for signing.
func (k *PrivateKey) CanSign() error {
	if k == nil || k.Key == nil {
		return ErrPrivateKeyRequired
	}
	switch key := k.Key.(type) {
	case ed25519.PrivateKey:
		if len(key) != ed25519.PrivateKeySize {
			return fmt.Errorf("%w: Ed25519 private key has %d bytes", ErrKeyInvalid, len(key))
		}
	case *rsa.PrivateKey:
		if err := key.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrKeyInvalid, err)
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedAlgorithm, k.Key)
	}
	return nil
}

// Sign signs the digest with the private key.
func (k *PrivateKey) Sign(digest []byte) ([]byte, error) {
	if err := k.CanSign(); err != nil {
		return nil, err
	}
	switch key := k.Key.(type) {
	case ed25519.PrivateKey:
		return ed25519.Sign(key, digest), nil
	case *rsa.PrivateKey:
		// Hash zero signs the digest as is, without a DigestInfo prefix.
		sig, err := rsa.SignPKCS1v15(nil, key, crypto.Hash(0), digest)
		if err != nil {
			return nil, fmt.Errorf("failed to sign digest: %w", err)
		}
		return sig, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedAlgorithm, k.Key)
}

// Public returns the public half of the key.
func (k *PrivateKey) Public() *PublicKey {
	return &PublicKey{
		Key:       k.Key.Public(),
		KeyID:     k.KeyID,
		Algorithm: k.Algorithm,
	}
}

// Verify checks that the signature was produced over the digest
// by the private key matching this public key.
func (k *PublicKey) Verify(digest, signature []byte) error {
	if k == nil || k.Key == nil {
		return ErrPublicKeyRequired
	}
	switch key := k.Key.(type) {
	case ed25519.PublicKey:
		if len(key) != ed25519.PublicKeySize {
			return fmt.Errorf("%w: Ed25519 public key has %d bytes", ErrKeyInvalid, len(key))
		}
		if !ed25519.Verify(key, digest, signature) {
			return ErrVerifySig
		}
		return nil
	case *rsa.PublicKey:
		if err := rsa.VerifyPKCS1v15(key, crypto.Hash(0), digest, signature); err != nil {
			return fmt.Errorf("%w: %w", ErrVerifySig, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %T", ErrUnsupportedAlgorithm, k.Key)
}
