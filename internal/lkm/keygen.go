// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"fmt"

	"github.com/google/uuid"
)

// DefaultRSABits is the RSA modulus size used when none is specified.
const DefaultRSABits = 3072

// NewKeySetPair generates a new key pair for the given algorithm and
// returns a public KeySet and a private KeySet with the given issuer.
// The key ID is generated using a UUID v6.
func NewKeySetPair(issuer, algorithm string, rsaBits int) (publicKeySet *KeySet, privateKeySet *KeySet, err error) {
	var privateKey crypto.Signer
	switch algorithm {
	case AlgorithmEdDSA, "":
		_, privateKey, err = ed25519.GenerateKey(rand.Reader)
	case AlgorithmRSA:
		if rsaBits == 0 {
			rsaBits = DefaultRSABits
		}
		if rsaBits < 2048 {
			return nil, nil, fmt.Errorf("RSA key size must be at least 2048 bits, got %d", rsaBits)
		}
		privateKey, err = rsa.GenerateKey(rand.Reader, rsaBits)
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}
	if err != nil {
		return nil, nil, err
	}

	kid, err := uuid.NewV6()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key ID: %w", err)
	}

	privateKeySet = NewPrivateKeySet(issuer)
	err = privateKeySet.AddPrivateKey(privateKey, kid.String())
	if err != nil {
		return nil, nil, err
	}

	publicKeySet = NewPublicKeySet()
	err = publicKeySet.AddPublicKey(privateKey.Public(), kid.String())
	if err != nil {
		return nil, nil, err
	}
	return
}
