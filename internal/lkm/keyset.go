// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-jose/go-jose/v4"
)

const (
	// AlgorithmEdDSA signs license digests with Ed25519 keys.
	AlgorithmEdDSA = string(jose.EdDSA)

	// AlgorithmRSA signs license digests with RSA keys using the
	// PKCS #1 v1.5 private key transform over the raw digest.
	AlgorithmRSA = "RSA-PKCS1-v1_5"

	// UseTypeSig is the JWK use of signing keys.
	UseTypeSig = "sig"

	// UseTypeEnc is the JWK use of encryption keys.
	UseTypeEnc = "enc"
)

// KeySet represents a JWK Set object for holding the public
// or private keys used to sign and verify licenses.
type KeySet struct {
	// Issuer is the identifier of the entity that issued the keys.
	// It should be present when the set contains a private key.
	// If the set contains only public keys, this field must be empty.
	Issuer string `json:"issuer,omitempty"`
	// Keys is a list of JSON Web Keys (JWKs) that make up the set.
	Keys []jose.JSONWebKey `json:"keys"`
}

// NewPublicKeySet creates a new KeySet for holding public keys.
func NewPublicKeySet() *KeySet {
	return &KeySet{
		Keys: []jose.JSONWebKey{},
	}
}

// NewPrivateKeySet creates a new KeySet for holding a private key.
func NewPrivateKeySet(issuer string) *KeySet {
	return &KeySet{
		Issuer: issuer,
		Keys:   []jose.JSONWebKey{},
	}
}

// keyAlgorithm returns the signing algorithm matching the key type.
func keyAlgorithm(key any) (string, error) {
	switch key.(type) {
	case ed25519.PublicKey, ed25519.PrivateKey:
		return AlgorithmEdDSA, nil
	case *rsa.PublicKey, *rsa.PrivateKey:
		return AlgorithmRSA, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedAlgorithm, key)
	}
}

// AddPublicKey adds a new Ed25519 or RSA public key to the KeySet.
// The key set is designed to hold multiple public keys.
func (k *KeySet) AddPublicKey(key crypto.PublicKey, keyID string) error {
	if k.Issuer != "" {
		return fmt.Errorf("cannot add public key to KeySet with issuer set")
	}

	alg, err := keyAlgorithm(key)
	if err != nil {
		return err
	}

	for _, existingKey := range k.Keys {
		if existingKey.KeyID == keyID {
			return fmt.Errorf("key with ID %s already exists in the set", keyID)
		}
	}

	jwk := jose.JSONWebKey{
		Key:       key,
		KeyID:     keyID,
		Algorithm: alg,
		Use:       UseTypeSig,
	}

	// Prepend the key to the set to ensure the most recent key is first.
	k.Keys = append([]jose.JSONWebKey{jwk}, k.Keys...)
	return nil
}

// AddPrivateKey adds a new Ed25519 or RSA private key to the KeySet.
// The key set is designed to hold a single private key.
func (k *KeySet) AddPrivateKey(key crypto.Signer, keyID string) error {
	if k.Issuer == "" {
		return fmt.Errorf("issuer must be set before adding a private key")
	}

	if len(k.Keys) > 0 {
		return fmt.Errorf("KeySet already contains a private key, cannot add another")
	}

	alg, err := keyAlgorithm(key)
	if err != nil {
		return err
	}

	jwk := jose.JSONWebKey{
		Key:       key,
		KeyID:     keyID,
		Algorithm: alg,
		Use:       UseTypeSig,
	}

	k.Keys = append(k.Keys, jwk)
	return nil
}

// ToJSON converts the KeySet to a JSON byte slice.
func (k *KeySet) ToJSON() ([]byte, error) {
	return json.MarshalIndent(*k, "", "  ")
}

// WriteFile writes the KeySet to the specified file in JSON format.
// A private key set is written with owner only permissions (0600)
// and never overwrites an existing file. A public key set is written
// with 0644 permissions and merged into an existing public key set,
// rejecting duplicate key IDs.
func (k *KeySet) WriteFile(filePath string) error {
	if len(k.Keys) == 0 {
		return fmt.Errorf("cannot write empty KeySet to file")
	}

	data, err := k.ToJSON()
	if err != nil {
		return err
	}

	perm := os.FileMode(0644)

	if k.Issuer != "" {
		perm = os.FileMode(0600)

		if _, err := os.Stat(filePath); !os.IsNotExist(err) {
			return fmt.Errorf("file %s already exists, refusing to overwrite", filePath)
		}
	} else if _, err := os.Stat(filePath); !os.IsNotExist(err) {
		existingKeySet, err := KeySetFromFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read existing key set from file %s: %w", filePath, err)
		}

		if existingKeySet.Issuer != "" {
			return fmt.Errorf("file %s contains a private key set, cannot append public keys", filePath)
		}

		for _, newKey := range k.Keys {
			for _, existingKey := range existingKeySet.Keys {
				if existingKey.KeyID == newKey.KeyID {
					return fmt.Errorf("key with ID %s already exists in file %s", newKey.KeyID, filePath)
				}
			}
		}

		// New keys go first, the newest key is the default verification key.
		existingKeySet.Keys = append(k.Keys, existingKeySet.Keys...)
		data, err = existingKeySet.ToJSON()
		if err != nil {
			return err
		}
	}

	return os.WriteFile(filePath, data, perm)
}

// KeySetFromJSON creates a KeySet from a JSON byte slice.
func KeySetFromJSON(data []byte) (*KeySet, error) {
	var keySet KeySet
	if err := json.Unmarshal(data, &keySet); err != nil {
		return nil, InvalidKeySetError(fmt.Errorf("failed to unmarshal KeySet: %w", err))
	}
	if len(keySet.Keys) == 0 {
		return nil, InvalidKeySetError(ErrKeySetEmpty)
	}

	if keySet.Issuer != "" && len(keySet.Keys) > 1 {
		return nil, InvalidKeySetError(fmt.Errorf("KeySet with issuer %s cannot contain multiple keys", keySet.Issuer))
	}

	return &keySet, nil
}

// KeySetFromFile reads a KeySet from a JSON file.
func KeySetFromFile(filePath string) (*KeySet, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read KeySet from file %s: %w", filePath, err)
	}
	return KeySetFromJSON(data)
}

// PublicKeyFromSet extracts a public key by key ID from a byte slice
// representing a KeySet in JSON format. If keyID is empty, the first
// key of the set, which is the most recent one, is returned.
func PublicKeyFromSet(data []byte, keyID string) (*PublicKey, error) {
	keySet, err := KeySetFromJSON(data)
	if err != nil {
		return nil, err
	}

	for _, key := range keySet.Keys {
		if keyID != "" && key.KeyID != keyID {
			continue
		}
		if key.Use != UseTypeSig {
			return nil, fmt.Errorf("key with ID %s has unsupported use %s, expected '%s'", key.KeyID, key.Use, UseTypeSig)
		}
		if !key.IsPublic() {
			return nil, fmt.Errorf("key with ID %s is not a public key", key.KeyID)
		}

		alg, err := keyAlgorithm(key.Key)
		if err != nil {
			return nil, err
		}
		if key.Algorithm != alg {
			return nil, fmt.Errorf("key with ID %s has unsupported algorithm %s, expected %s", key.KeyID, key.Algorithm, alg)
		}

		return &PublicKey{
			Key:       key.Key,
			KeyID:     key.KeyID,
			Algorithm: alg,
		}, nil
	}

	return nil, fmt.Errorf("%w: no public key found with ID %s", ErrKeyNotFound, keyID)
}

// PrivateKeyFromSet extracts the private key from a byte slice
// representing a KeySet in JSON format.
func PrivateKeyFromSet(data []byte) (*PrivateKey, error) {
	keySet, err := KeySetFromJSON(data)
	if err != nil {
		return nil, err
	}

	firstKey := keySet.Keys[0]
	if firstKey.KeyID == "" {
		return nil, ErrKIDMissing
	}

	if firstKey.Use != UseTypeSig {
		return nil, fmt.Errorf("key has unsupported use %s, expected '%s'", firstKey.Use, UseTypeSig)
	}

	signer, ok := firstKey.Key.(crypto.Signer)
	if !ok || firstKey.IsPublic() {
		return nil, ErrPrivateKeyRequired
	}

	alg, err := keyAlgorithm(signer)
	if err != nil {
		return nil, err
	}
	if firstKey.Algorithm != alg {
		return nil, fmt.Errorf("key has unsupported algorithm %s, expected %s", firstKey.Algorithm, alg)
	}

	return &PrivateKey{
		Key:       signer,
		KeyID:     firstKey.KeyID,
		Algorithm: alg,
		Issuer:    keySet.Issuer,
	}, nil
}
