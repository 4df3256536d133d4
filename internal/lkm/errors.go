// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"errors"
	"fmt"
)

// ErrDigestNotFound is returned when a digest algorithm is not registered.
var ErrDigestNotFound = errors.New("digest algorithm not found")

// ErrPublicKeyRequired is returned when a public key is required but not provided.
var ErrPublicKeyRequired = errors.New("public key is required")

// ErrPrivateKeyRequired is returned when a private key is required but not provided.
var ErrPrivateKeyRequired = errors.New("private key is required")

// ErrUnsupportedAlgorithm is returned when a signing key algorithm is not supported.
var ErrUnsupportedAlgorithm = errors.New("unsupported key algorithm")

// ErrVerifySig is returned when signature verification fails.
var ErrVerifySig = errors.New("failed to verify signature")

// ErrKeySetEmpty is returned when a key set holds no keys.
var ErrKeySetEmpty = errors.New("key set is empty")

// ErrKeyNotFound is returned when no suitable key is found in a key set.
var ErrKeyNotFound = errors.New("key not found")

// ErrKeyInvalid is returned when a key fails validation.
var ErrKeyInvalid = errors.New("key is invalid")

// ErrKIDMissing is returned when a key has no key ID.
var ErrKIDMissing = errors.New("key ID is missing")

// ErrKIDNotFoundInHeaders is returned when a JWE token has no key ID header.
var ErrKIDNotFoundInHeaders = errors.New("no key ID found in JWE headers")

// ErrPayloadEmpty is returned when there is nothing to encrypt or decrypt.
var ErrPayloadEmpty = errors.New("payload is empty")

// ErrParseJWE is returned when a JWE token cannot be parsed.
var ErrParseJWE = errors.New("failed to parse JWE token")

// ErrCreateEncrypter is returned when the JWE encrypter cannot be created.
var ErrCreateEncrypter = errors.New("failed to create encrypter")

// ErrEncryptPayload is returned when the payload cannot be encrypted.
var ErrEncryptPayload = errors.New("failed to encrypt payload")

// ErrDecryptPayload is returned when the payload cannot be decrypted.
var ErrDecryptPayload = errors.New("failed to decrypt payload")

// ErrLicenseIDMissing is returned when a license has no license ID feature.
var ErrLicenseIDMissing = errors.New("license ID is missing")

// InvalidKeySetError wraps an error with the "invalid key set" prefix.
func InvalidKeySetError(err error) error {
	return fmt.Errorf("invalid key set: %w", err)
}

// InvalidRevocationSetError wraps an error with the "invalid revocation set" prefix.
func InvalidRevocationSetError(err error) error {
	return fmt.Errorf("invalid revocation set: %w", err)
}
