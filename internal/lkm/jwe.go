// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"fmt"

	"github.com/go-jose/go-jose/v4"

	"github.com/controlplaneio-fluxcd/license-kit/internal/license"
)

// findEncryptionKey returns the first ECDH-ES+A128KW key of the set
// matching the key ID (any key ID when empty) and the key visibility.
func findEncryptionKey(keySet *jose.JSONWebKeySet, kid string, public bool) *jose.JSONWebKey {
	for i := range keySet.Keys {
		key := &keySet.Keys[i]
		if kid != "" && key.KeyID != kid {
			continue
		}
		if key.Use == UseTypeEnc && key.Algorithm == string(jose.ECDH_ES_A128KW) && key.IsPublic() == public {
			return key
		}
	}
	return nil
}

// EncryptTokenWithKeySet encrypts a payload using ECDH-ES+A128KW with the provided public key set.
// If kid is empty, uses the first public key in the set.
// Returns a JWE compact serialization string.
func EncryptTokenWithKeySet(payload []byte, keySet *jose.JSONWebKeySet, kid string) (string, error) {
	if len(payload) == 0 {
		return "", ErrPayloadEmpty
	}
	if keySet == nil || len(keySet.Keys) == 0 {
		return "", ErrKeySetEmpty
	}

	publicKey := findEncryptionKey(keySet, kid, true)
	if publicKey == nil {
		return "", ErrKeyNotFound
	}
	if publicKey.KeyID == "" {
		return "", fmt.Errorf("public key is invalid: %w", ErrKIDMissing)
	}
	if !publicKey.Valid() {
		return "", ErrKeyInvalid
	}

	encrypter, err := jose.NewEncrypter(
		jose.A128GCM,
		jose.Recipient{
			Algorithm: jose.ECDH_ES_A128KW,
			Key:       publicKey.Key,
			KeyID:     publicKey.KeyID,
		},
		(&jose.EncrypterOptions{}).WithContentType(jose.ContentType(ContentTypeLicense)),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCreateEncrypter, err)
	}

	jwe, err := encrypter.Encrypt(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncryptPayload, err)
	}

	return jwe.CompactSerialize()
}

// DecryptTokenWithKeySet decrypts a JWE token using ECDH-ES+A128KW with the provided key set.
// It extracts the private key from the key set using the KID from the JWE headers.
func DecryptTokenWithKeySet(jweData []byte, keySet *jose.JSONWebKeySet) ([]byte, error) {
	if len(jweData) == 0 {
		return nil, ErrPayloadEmpty
	}
	if keySet == nil || len(keySet.Keys) == 0 {
		return nil, ErrKeySetEmpty
	}

	jwe, err := jose.ParseEncrypted(string(jweData), []jose.KeyAlgorithm{jose.ECDH_ES_A128KW}, []jose.ContentEncryption{jose.A128GCM})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseJWE, err)
	}

	kid := jwe.Header.KeyID
	if kid == "" {
		return nil, ErrKIDNotFoundInHeaders
	}

	privateKey := findEncryptionKey(keySet, kid, false)
	if privateKey == nil {
		return nil, ErrKeyNotFound
	}
	if !privateKey.Valid() {
		return nil, ErrKeyInvalid
	}

	payload, err := jwe.Decrypt(privateKey.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptPayload, err)
	}

	return payload, nil
}

// EncryptLicense encrypts the binary form of the license for the
// holder of the private key matching kid in the public key set.
func EncryptLicense(lic *license.License, keySet *jose.JSONWebKeySet, kid string) (string, error) {
	return EncryptTokenWithKeySet(lic.Serialized(), keySet, kid)
}

// DecryptLicense decrypts a JWE token produced by EncryptLicense
// and decodes the license it carries.
func DecryptLicense(jweData []byte, keySet *jose.JSONWebKeySet) (*license.License, error) {
	payload, err := DecryptTokenWithKeySet(jweData, keySet)
	if err != nil {
		return nil, err
	}
	return license.FromBinary(payload)
}
