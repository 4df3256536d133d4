// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-jose/go-jose/v4"
	. "github.com/onsi/gomega"
)

var (
	testRSAKey     *rsa.PrivateKey
	testRSAKeyOnce sync.Once
)

// rsaTestKey returns a 2048-bit RSA key shared by the package tests.
func rsaTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testRSAKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("failed to generate RSA key: %v", err)
		}
		testRSAKey = key
	})
	return testRSAKey
}

func TestNewPublicKeySet(t *testing.T) {
	g := NewWithT(t)

	keySet := NewPublicKeySet()

	g.Expect(keySet).ToNot(BeNil())
	g.Expect(keySet.Issuer).To(BeEmpty())
	g.Expect(keySet.Keys).To(BeEmpty())
}

func TestNewPrivateKeySet(t *testing.T) {
	g := NewWithT(t)

	issuer := "test-issuer"
	keySet := NewPrivateKeySet(issuer)

	g.Expect(keySet).ToNot(BeNil())
	g.Expect(keySet.Issuer).To(Equal(issuer))
	g.Expect(keySet.Keys).To(BeEmpty())
}

func TestKeySet_AddPublicKey(t *testing.T) {
	g := NewWithT(t)

	publicKey, _, err := ed25519.GenerateKey(rand.Reader)
	g.Expect(err).ToNot(HaveOccurred())

	publicKey2, _, err := ed25519.GenerateKey(rand.Reader)
	g.Expect(err).ToNot(HaveOccurred())

	t.Run("successfully adds public key", func(t *testing.T) {
		g := NewWithT(t)
		keySet := NewPublicKeySet()

		err := keySet.AddPublicKey(publicKey, "key1")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(keySet.Keys).To(HaveLen(1))
		g.Expect(keySet.Keys[0].KeyID).To(Equal("key1"))
		g.Expect(keySet.Keys[0].Key).To(Equal(publicKey))
		g.Expect(keySet.Keys[0].Algorithm).To(Equal("EdDSA"))
		g.Expect(keySet.Keys[0].Use).To(Equal("sig"))
	})

	t.Run("adds RSA public key", func(t *testing.T) {
		g := NewWithT(t)
		keySet := NewPublicKeySet()

		err := keySet.AddPublicKey(&rsaTestKey(t).PublicKey, "rsa1")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(keySet.Keys[0].Algorithm).To(Equal(AlgorithmRSA))
	})

	t.Run("adds multiple public keys", func(t *testing.T) {
		g := NewWithT(t)
		keySet := NewPublicKeySet()

		err := keySet.AddPublicKey(publicKey, "key1")
		g.Expect(err).ToNot(HaveOccurred())

		err = keySet.AddPublicKey(publicKey2, "key2")
		g.Expect(err).ToNot(HaveOccurred())

		g.Expect(keySet.Keys).To(HaveLen(2))
		// Most recent key should be first (prepended)
		g.Expect(keySet.Keys[0].KeyID).To(Equal("key2"))
		g.Expect(keySet.Keys[1].KeyID).To(Equal("key1"))
	})

	t.Run("fails when adding duplicate key ID", func(t *testing.T) {
		g := NewWithT(t)
		keySet := NewPublicKeySet()

		err := keySet.AddPublicKey(publicKey, "key1")
		g.Expect(err).ToNot(HaveOccurred())

		err = keySet.AddPublicKey(publicKey2, "key1")
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("key with ID key1 already exists"))
	})

	t.Run("fails when issuer is set", func(t *testing.T) {
		g := NewWithT(t)
		keySet := NewPrivateKeySet("test-issuer")

		err := keySet.AddPublicKey(publicKey, "key1")
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("cannot add public key to KeySet with issuer set"))
	})

	t.Run("fails with unsupported key type", func(t *testing.T) {
		g := NewWithT(t)
		ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		g.Expect(err).ToNot(HaveOccurred())

		keySet := NewPublicKeySet()
		err = keySet.AddPublicKey(&ecKey.PublicKey, "key1")
		g.Expect(err).To(MatchError(ErrUnsupportedAlgorithm))
		g.Expect(keySet.Keys).To(BeEmpty())
	})
}

func TestKeySet_AddPrivateKey(t *testing.T) {
	g := NewWithT(t)

	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	g.Expect(err).ToNot(HaveOccurred())

	_, privateKey2, err := ed25519.GenerateKey(rand.Reader)
	g.Expect(err).ToNot(HaveOccurred())

	t.Run("successfully adds private key", func(t *testing.T) {
		g := NewWithT(t)
		keySet := NewPrivateKeySet("test-issuer")

		err := keySet.AddPrivateKey(privateKey, "key1")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(keySet.Keys).To(HaveLen(1))
		g.Expect(keySet.Keys[0].KeyID).To(Equal("key1"))
		g.Expect(keySet.Keys[0].Key).To(Equal(privateKey))
		g.Expect(keySet.Keys[0].Algorithm).To(Equal("EdDSA"))
		g.Expect(keySet.Keys[0].Use).To(Equal("sig"))
	})

	t.Run("fails when issuer is not set", func(t *testing.T) {
		g := NewWithT(t)
		keySet := NewPublicKeySet()

		err := keySet.AddPrivateKey(privateKey, "key1")
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("issuer must be set before adding a private key"))
	})

	t.Run("fails when adding second private key", func(t *testing.T) {
		g := NewWithT(t)
		keySet := NewPrivateKeySet("test-issuer")

		err := keySet.AddPrivateKey(privateKey, "key1")
		g.Expect(err).ToNot(HaveOccurred())

		err = keySet.AddPrivateKey(privateKey2, "key2")
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("KeySet already contains a private key"))
	})
}

func TestKeySet_ToJSON(t *testing.T) {
	g := NewWithT(t)

	publicKey, _, err := ed25519.GenerateKey(rand.Reader)
	g.Expect(err).ToNot(HaveOccurred())

	keySet := NewPublicKeySet()
	err = keySet.AddPublicKey(publicKey, "key1")
	g.Expect(err).ToNot(HaveOccurred())

	jsonData, err := keySet.ToJSON()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(string(jsonData)).To(ContainSubstring(`"keys"`))
	g.Expect(string(jsonData)).To(ContainSubstring(`"key1"`))
	g.Expect(string(jsonData)).ToNot(ContainSubstring(`"issuer"`))
}

func TestKeySet_WriteFile(t *testing.T) {
	g := NewWithT(t)
	tempDir := t.TempDir()

	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	g.Expect(err).ToNot(HaveOccurred())

	t.Run("writes public key set to file", func(t *testing.T) {
		g := NewWithT(t)
		keySet := NewPublicKeySet()
		err := keySet.AddPublicKey(publicKey, "key1")
		g.Expect(err).ToNot(HaveOccurred())

		filePath := filepath.Join(tempDir, "public_keys.json")
		err = keySet.WriteFile(filePath)
		g.Expect(err).ToNot(HaveOccurred())

		info, err := os.Stat(filePath)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(info.Mode().Perm()).To(Equal(os.FileMode(0644)))

		data, err := os.ReadFile(filePath)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(string(data)).To(ContainSubstring(`"key1"`))
	})

	t.Run("writes private key set to file", func(t *testing.T) {
		g := NewWithT(t)
		keySet := NewPrivateKeySet("test-issuer")
		err := keySet.AddPrivateKey(privateKey, "key1")
		g.Expect(err).ToNot(HaveOccurred())

		filePath := filepath.Join(tempDir, "private_keys.json")
		err = keySet.WriteFile(filePath)
		g.Expect(err).ToNot(HaveOccurred())

		info, err := os.Stat(filePath)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(info.Mode().Perm()).To(Equal(os.FileMode(0600)))
	})

	t.Run("prevents overwriting existing private key file", func(t *testing.T) {
		g := NewWithT(t)
		keySet := NewPrivateKeySet("test-issuer")
		err := keySet.AddPrivateKey(privateKey, "key1")
		g.Expect(err).ToNot(HaveOccurred())

		filePath := filepath.Join(tempDir, "existing_private.json")
		err = os.WriteFile(filePath, []byte("existing"), 0600)
		g.Expect(err).ToNot(HaveOccurred())

		err = keySet.WriteFile(filePath)
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("already exists, refusing to overwrite"))
	})

	t.Run("fails to write empty key set", func(t *testing.T) {
		g := NewWithT(t)
		keySet := NewPublicKeySet()

		err := keySet.WriteFile(filepath.Join(tempDir, "empty.json"))
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("cannot write empty KeySet"))
	})

	t.Run("prepends new keys to existing public key file", func(t *testing.T) {
		g := NewWithT(t)
		publicKey1, _, err := ed25519.GenerateKey(rand.Reader)
		g.Expect(err).ToNot(HaveOccurred())

		keySet1 := NewPublicKeySet()
		err = keySet1.AddPublicKey(publicKey1, "key1")
		g.Expect(err).ToNot(HaveOccurred())

		filePath := filepath.Join(tempDir, "append_test.json")
		err = keySet1.WriteFile(filePath)
		g.Expect(err).ToNot(HaveOccurred())

		keySet2 := NewPublicKeySet()
		err = keySet2.AddPublicKey(&rsaTestKey(t).PublicKey, "key2")
		g.Expect(err).ToNot(HaveOccurred())

		err = keySet2.WriteFile(filePath)
		g.Expect(err).ToNot(HaveOccurred())

		finalKeySet, err := KeySetFromFile(filePath)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(finalKeySet.Keys).To(HaveLen(2))
		g.Expect(finalKeySet.Keys[0].KeyID).To(Equal("key2"))
		g.Expect(finalKeySet.Keys[1].KeyID).To(Equal("key1"))

		data, err := os.ReadFile(filePath)
		g.Expect(err).ToNot(HaveOccurred())
		key, err := PublicKeyFromSet(data, "")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(key.Algorithm).To(Equal(AlgorithmRSA))
	})

	t.Run("fails when appending duplicate key ID", func(t *testing.T) {
		g := NewWithT(t)
		publicKey1, _, err := ed25519.GenerateKey(rand.Reader)
		g.Expect(err).ToNot(HaveOccurred())

		publicKey2, _, err := ed25519.GenerateKey(rand.Reader)
		g.Expect(err).ToNot(HaveOccurred())

		keySet1 := NewPublicKeySet()
		err = keySet1.AddPublicKey(publicKey1, "duplicate-key")
		g.Expect(err).ToNot(HaveOccurred())

		filePath := filepath.Join(tempDir, "duplicate_test.json")
		err = keySet1.WriteFile(filePath)
		g.Expect(err).ToNot(HaveOccurred())

		keySet2 := NewPublicKeySet()
		err = keySet2.AddPublicKey(publicKey2, "duplicate-key")
		g.Expect(err).ToNot(HaveOccurred())

		err = keySet2.WriteFile(filePath)
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("key with ID duplicate-key already exists"))
	})

	t.Run("refuses to append public keys to a private key file", func(t *testing.T) {
		g := NewWithT(t)
		privateSet := NewPrivateKeySet("test-issuer")
		err := privateSet.AddPrivateKey(privateKey, "key1")
		g.Expect(err).ToNot(HaveOccurred())

		filePath := filepath.Join(tempDir, "mixed.json")
		data, err := privateSet.ToJSON()
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(os.WriteFile(filePath, data, 0644)).To(Succeed())

		publicSet := NewPublicKeySet()
		err = publicSet.AddPublicKey(publicKey, "key2")
		g.Expect(err).ToNot(HaveOccurred())

		err = publicSet.WriteFile(filePath)
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("contains a private key set"))
	})

	t.Run("handles corrupted existing file gracefully", func(t *testing.T) {
		g := NewWithT(t)

		filePath := filepath.Join(tempDir, "corrupted.json")
		err := os.WriteFile(filePath, []byte("invalid json"), 0644)
		g.Expect(err).ToNot(HaveOccurred())

		keySet := NewPublicKeySet()
		err = keySet.AddPublicKey(publicKey, "key1")
		g.Expect(err).ToNot(HaveOccurred())

		err = keySet.WriteFile(filePath)
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("failed to read existing key set"))
	})
}

func TestKeySetFromJSON(t *testing.T) {
	g := NewWithT(t)

	publicKey, _, err := ed25519.GenerateKey(rand.Reader)
	g.Expect(err).ToNot(HaveOccurred())

	originalKeySet := NewPublicKeySet()
	err = originalKeySet.AddPublicKey(publicKey, "key1")
	g.Expect(err).ToNot(HaveOccurred())

	jsonData, err := originalKeySet.ToJSON()
	g.Expect(err).ToNot(HaveOccurred())

	t.Run("successfully parses valid JSON", func(t *testing.T) {
		g := NewWithT(t)
		keySet, err := KeySetFromJSON(jsonData)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(keySet.Keys).To(HaveLen(1))
		g.Expect(keySet.Keys[0].KeyID).To(Equal("key1"))
	})

	t.Run("fails on invalid JSON", func(t *testing.T) {
		g := NewWithT(t)
		_, err := KeySetFromJSON([]byte("invalid json"))
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("invalid key set: failed to unmarshal KeySet"))
	})

	t.Run("fails on empty keys", func(t *testing.T) {
		g := NewWithT(t)
		_, err := KeySetFromJSON([]byte(`{"keys": []}`))
		g.Expect(err).To(MatchError(ErrKeySetEmpty))
	})

	t.Run("fails on private key set with multiple keys", func(t *testing.T) {
		g := NewWithT(t)
		publicKey2, _, err := ed25519.GenerateKey(rand.Reader)
		g.Expect(err).ToNot(HaveOccurred())

		multiKeySet := KeySet{
			Issuer: "test",
			Keys: []jose.JSONWebKey{
				{Key: publicKey, KeyID: "key1", Algorithm: AlgorithmEdDSA, Use: UseTypeSig},
				{Key: publicKey2, KeyID: "key2", Algorithm: AlgorithmEdDSA, Use: UseTypeSig},
			},
		}
		multiKeyJSON, err := json.Marshal(multiKeySet)
		g.Expect(err).ToNot(HaveOccurred())

		_, err = KeySetFromJSON(multiKeyJSON)
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("cannot contain multiple keys"))
	})
}

func TestKeySetFromFile(t *testing.T) {
	g := NewWithT(t)
	tempDir := t.TempDir()

	publicKey, _, err := ed25519.GenerateKey(rand.Reader)
	g.Expect(err).ToNot(HaveOccurred())

	t.Run("successfully reads from file", func(t *testing.T) {
		g := NewWithT(t)
		originalKeySet := NewPublicKeySet()
		err := originalKeySet.AddPublicKey(publicKey, "key1")
		g.Expect(err).ToNot(HaveOccurred())

		filePath := filepath.Join(tempDir, "test_keys.json")
		err = originalKeySet.WriteFile(filePath)
		g.Expect(err).ToNot(HaveOccurred())

		keySet, err := KeySetFromFile(filePath)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(keySet.Keys).To(HaveLen(1))
		g.Expect(keySet.Keys[0].KeyID).To(Equal("key1"))
	})

	t.Run("fails on non-existent file", func(t *testing.T) {
		g := NewWithT(t)
		_, err := KeySetFromFile(filepath.Join(tempDir, "nonexistent.json"))
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("failed to read KeySet from file"))
	})
}

func TestPublicKeyFromSet(t *testing.T) {
	g := NewWithT(t)

	publicKey1, _, err := ed25519.GenerateKey(rand.Reader)
	g.Expect(err).ToNot(HaveOccurred())

	rsaKey := rsaTestKey(t)

	keySet := NewPublicKeySet()
	err = keySet.AddPublicKey(publicKey1, "key1")
	g.Expect(err).ToNot(HaveOccurred())
	err = keySet.AddPublicKey(&rsaKey.PublicKey, "key2")
	g.Expect(err).ToNot(HaveOccurred())

	jsonData, err := keySet.ToJSON()
	g.Expect(err).ToNot(HaveOccurred())

	t.Run("successfully extracts existing public key", func(t *testing.T) {
		g := NewWithT(t)
		key, err := PublicKeyFromSet(jsonData, "key1")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(key.KeyID).To(Equal("key1"))
		g.Expect(key.Key).To(Equal(publicKey1))
		g.Expect(key.Algorithm).To(Equal(AlgorithmEdDSA))
	})

	t.Run("returns the newest key for an empty key ID", func(t *testing.T) {
		g := NewWithT(t)
		key, err := PublicKeyFromSet(jsonData, "")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(key.KeyID).To(Equal("key2"))
		g.Expect(rsaKey.PublicKey.Equal(key.Key)).To(BeTrue())
	})

	t.Run("fails on non-existent key ID", func(t *testing.T) {
		g := NewWithT(t)
		_, err := PublicKeyFromSet(jsonData, "nonexistent")
		g.Expect(err).To(MatchError(ErrKeyNotFound))
		g.Expect(err.Error()).To(ContainSubstring("no public key found with ID nonexistent"))
	})

	t.Run("fails on private key set", func(t *testing.T) {
		g := NewWithT(t)
		_, privateSet, err := NewKeySetPair("test-issuer", AlgorithmEdDSA, 0)
		g.Expect(err).ToNot(HaveOccurred())
		data, err := privateSet.ToJSON()
		g.Expect(err).ToNot(HaveOccurred())

		_, err = PublicKeyFromSet(data, "")
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("is not a public key"))
	})

	t.Run("fails on invalid JSON", func(t *testing.T) {
		g := NewWithT(t)
		_, err := PublicKeyFromSet([]byte("invalid"), "key1")
		g.Expect(err).To(HaveOccurred())
	})
}

func TestPrivateKeyFromSet(t *testing.T) {
	g := NewWithT(t)

	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	g.Expect(err).ToNot(HaveOccurred())

	keySet := NewPrivateKeySet("test-issuer")
	err = keySet.AddPrivateKey(privateKey, "key1")
	g.Expect(err).ToNot(HaveOccurred())

	jsonData, err := keySet.ToJSON()
	g.Expect(err).ToNot(HaveOccurred())

	t.Run("successfully extracts private key", func(t *testing.T) {
		g := NewWithT(t)
		key, err := PrivateKeyFromSet(jsonData)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(key.KeyID).To(Equal("key1"))
		g.Expect(key.Key).To(Equal(privateKey))
		g.Expect(key.Algorithm).To(Equal(AlgorithmEdDSA))
		g.Expect(key.Issuer).To(Equal("test-issuer"))
	})

	t.Run("successfully extracts RSA private key", func(t *testing.T) {
		g := NewWithT(t)
		rsaSet := NewPrivateKeySet("test-issuer")
		err := rsaSet.AddPrivateKey(rsaTestKey(t), "rsa1")
		g.Expect(err).ToNot(HaveOccurred())
		data, err := rsaSet.ToJSON()
		g.Expect(err).ToNot(HaveOccurred())

		key, err := PrivateKeyFromSet(data)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(key.Algorithm).To(Equal(AlgorithmRSA))
		g.Expect(rsaTestKey(t).Equal(key.Key)).To(BeTrue())
	})

	t.Run("fails on public key set", func(t *testing.T) {
		g := NewWithT(t)
		publicSet, _, err := NewKeySetPair("test-issuer", AlgorithmEdDSA, 0)
		g.Expect(err).ToNot(HaveOccurred())
		data, err := publicSet.ToJSON()
		g.Expect(err).ToNot(HaveOccurred())

		_, err = PrivateKeyFromSet(data)
		g.Expect(err).To(MatchError(ErrPrivateKeyRequired))
	})

	t.Run("fails on invalid JSON", func(t *testing.T) {
		g := NewWithT(t)
		_, err := PrivateKeyFromSet([]byte("invalid"))
		g.Expect(err).To(HaveOccurred())
	})

	t.Run("fails on empty key set", func(t *testing.T) {
		g := NewWithT(t)
		_, err := PrivateKeyFromSet([]byte(`{"keys": []}`))
		g.Expect(err).To(HaveOccurred())
	})
}
