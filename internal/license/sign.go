// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"fmt"
)

// Hasher computes message digests by algorithm name.
// Unknown algorithm names must result in an error.
type Hasher interface {
	Digest(algorithm string, data []byte) ([]byte, error)
}

// Signer produces a signature over a digest with a private key.
type Signer interface {
	Sign(digest []byte) ([]byte, error)
}

// Verifier checks that a signature was produced over a digest
// by the private key matching its public key.
type Verifier interface {
	Verify(digest, signature []byte) error
}

// Sign stores the digest algorithm name in the license, computes the digest
// of the unsigned binary form with h and stores the signature produced by s.
// Signing an already signed license replaces the previous signature.
// On error the license is left unchanged.
func (l *License) Sign(h Hasher, s Signer, algorithm string) error {
	if h == nil {
		return ErrHasherRequired
	}
	if s == nil {
		return ErrSignerRequired
	}

	signed := l.Clone()
	df, err := NewString(DigestFeature, algorithm)
	if err != nil {
		return err
	}
	if _, err := signed.Add(df); err != nil {
		return err
	}

	digest, err := h.Digest(algorithm, signed.Unsigned())
	if err != nil {
		return fmt.Errorf("failed to compute %s digest: %w", algorithm, err)
	}

	signature, err := s.Sign(digest)
	if err != nil {
		return fmt.Errorf("failed to sign license: %w", err)
	}

	sf, err := NewBinary(SignatureFeature, signature)
	if err != nil {
		return err
	}
	if _, err := signed.Add(sf); err != nil {
		return err
	}

	l.features = signed.features
	return nil
}

// Verify recomputes the digest of the unsigned binary form with the
// algorithm named in the license and checks the embedded signature with v.
// Panics raised by the collaborators are returned as errors.
func (l *License) Verify(h Hasher, v Verifier) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrVerification, r)
		}
	}()

	if h == nil {
		return ErrHasherRequired
	}
	if v == nil {
		return fmt.Errorf("%w: verifier is required", ErrVerification)
	}

	algorithm, ok := l.DigestAlgorithm()
	if !ok {
		return fmt.Errorf("%w: %s feature is missing", ErrNotSigned, DigestFeature)
	}
	signature, ok := l.Signature()
	if !ok {
		return fmt.Errorf("%w: %s feature is missing", ErrNotSigned, SignatureFeature)
	}

	digest, err := h.Digest(algorithm, l.Unsigned())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	if err := v.Verify(digest, signature); err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	return nil
}

// IsOK reports whether the license carries a valid signature for v.
// It never panics, any failure is reported as false.
func (l *License) IsOK(h Hasher, v Verifier) bool {
	return l.Verify(h, v) == nil
}
