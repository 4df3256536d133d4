// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package lkm (License Key Management) provides the cryptographic
// collaborators used to sign, verify, distribute and revoke licenses.
//
// The lkm package is built on standard primitives:
//
//   - Ed25519 signatures and RSA PKCS #1 v1.5 signatures over raw digests
//   - SHA-1, SHA-2, SHA-3, BLAKE2b and MD5 digests selected by name
//   - JSON Web Key (JWK) format for interoperable key management
//   - JSON Web Encryption (JWE) with ECDH-ES+A128KW for license delivery
//   - UUID v6 for unique, chronologically sortable key identifiers
//
// A DigestRegistry implements license.Hasher, a PrivateKey implements
// license.Signer and a PublicKey implements license.Verifier, so a
// license is signed with:
//
//	key, _ := lkm.PrivateKeyFromSet(privateKeySetJSON)
//	err := lic.Sign(lkm.DefaultDigests(), key, lkm.DefaultDigest)
//
// and verified with:
//
//	key, _ := lkm.PublicKeyFromSet(publicKeySetJSON, "")
//	ok := lic.IsOK(lkm.DefaultDigests(), key)
//
// Revoked license IDs are tracked in a RevocationKeySet, and key sets,
// revocation sets and licenses can be fetched over HTTPS with Fetch.
package lkm
