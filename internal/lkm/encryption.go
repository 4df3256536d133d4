// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"
)

// NewEncryptionKeySet generates a P-256 key pair for ECDH-ES+A128KW
// and returns the public and the private JWK sets holding it.
func NewEncryptionKeySet() (publicKeySet *jose.JSONWebKeySet, privateKeySet *jose.JSONWebKeySet, err error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate ECDH key: %w", err)
	}

	kid, err := uuid.NewV6()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key ID: %w", err)
	}

	privateJWK := jose.JSONWebKey{
		Key:       privateKey,
		KeyID:     kid.String(),
		Algorithm: string(jose.ECDH_ES_A128KW),
		Use:       UseTypeEnc,
	}
	publicJWK := privateJWK.Public()

	publicKeySet = &jose.JSONWebKeySet{Keys: []jose.JSONWebKey{publicJWK}}
	privateKeySet = &jose.JSONWebKeySet{Keys: []jose.JSONWebKey{privateJWK}}
	return
}

// WriteECDHKeySet writes an encryption key set to the specified file in JSON format.
// Sets holding a private key are written with owner only permissions (0600)
// and never overwrite an existing file.
func WriteECDHKeySet(filePath string, keySet *jose.JSONWebKeySet) error {
	if keySet == nil || len(keySet.Keys) == 0 {
		return ErrKeySetEmpty
	}

	data, err := json.MarshalIndent(keySet, "", "  ")
	if err != nil {
		return err
	}

	perm := os.FileMode(0644)
	for _, key := range keySet.Keys {
		if !key.IsPublic() {
			perm = os.FileMode(0600)
			if _, err := os.Stat(filePath); !os.IsNotExist(err) {
				return fmt.Errorf("file %s already exists, refusing to overwrite", filePath)
			}
			break
		}
	}

	return os.WriteFile(filePath, data, perm)
}

// ECDHKeySetFromJSON parses an encryption key set and checks
// that every key is a valid ECDH-ES+A128KW key with a key ID.
func ECDHKeySetFromJSON(data []byte) (*jose.JSONWebKeySet, error) {
	var keySet jose.JSONWebKeySet
	if err := json.Unmarshal(data, &keySet); err != nil {
		return nil, InvalidKeySetError(err)
	}
	if len(keySet.Keys) == 0 {
		return nil, InvalidKeySetError(ErrKeySetEmpty)
	}
	for _, key := range keySet.Keys {
		if key.KeyID == "" {
			return nil, InvalidKeySetError(ErrKIDMissing)
		}
		if key.Use != UseTypeEnc || key.Algorithm != string(jose.ECDH_ES_A128KW) {
			return nil, InvalidKeySetError(fmt.Errorf("key with ID %s is not an %s encryption key", key.KeyID, jose.ECDH_ES_A128KW))
		}
		if !key.Valid() {
			return nil, InvalidKeySetError(fmt.Errorf("key with ID %s: %w", key.KeyID, ErrKeyInvalid))
		}
	}
	return &keySet, nil
}
