// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"maps"
	"slices"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// DefaultDigest is the digest algorithm used when none is specified.
const DefaultDigest = "SHA-512"

// DigestRegistry maps digest algorithm names to hash constructors.
// Names are matched ignoring case. It implements license.Hasher.
type DigestRegistry struct {
	mu        sync.RWMutex
	factories map[string]func() hash.Hash
}

// NewDigestRegistry returns an empty registry.
func NewDigestRegistry() *DigestRegistry {
	return &DigestRegistry{factories: make(map[string]func() hash.Hash)}
}

var (
	defaultDigests     *DigestRegistry
	defaultDigestsOnce sync.Once
)

// DefaultDigests returns the shared registry holding the SHA-1, SHA-2,
// SHA-3, BLAKE2b and MD5 algorithms. The registration happens once,
// on the first call.
func DefaultDigests() *DigestRegistry {
	defaultDigestsOnce.Do(func() {
		r := NewDigestRegistry()
		r.Register("SHA-1", sha1.New)
		r.Register("SHA-224", sha256.New224)
		r.Register("SHA-256", sha256.New)
		r.Register("SHA-384", sha512.New384)
		r.Register("SHA-512", sha512.New)
		r.Register("SHA-512/256", sha512.New512_256)
		r.Register("SHA3-256", sha3.New256)
		r.Register("SHA3-384", sha3.New384)
		r.Register("SHA3-512", sha3.New512)
		r.Register("BLAKE2B-256", newBlake2b(blake2b.New256))
		r.Register("BLAKE2B-512", newBlake2b(blake2b.New512))
		r.Register("MD5", md5.New)
		defaultDigests = r
	})
	return defaultDigests
}

func newBlake2b(fn func(key []byte) (hash.Hash, error)) func() hash.Hash {
	return func() hash.Hash {
		// Unkeyed constructors never fail.
		h, _ := fn(nil)
		return h
	}
}

// normalizeDigest maps "SHA512", "sha-512" and "SHA-512" to the same key.
func normalizeDigest(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	if strings.HasPrefix(n, "SHA") && !strings.HasPrefix(n, "SHA-") && !strings.HasPrefix(n, "SHA3") {
		n = "SHA-" + n[3:]
	}
	return n
}

// Register adds or replaces a digest algorithm.
func (r *DigestRegistry) Register(name string, factory func() hash.Hash) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[normalizeDigest(name)] = factory
}

// Algorithms returns the registered algorithm names, sorted.
func (r *DigestRegistry) Algorithms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// Supports reports whether the algorithm is registered.
func (r *DigestRegistry) Supports(algorithm string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[normalizeDigest(algorithm)]
	return ok
}

// Digest returns the digest of data computed with the named algorithm.
func (r *DigestRegistry) Digest(algorithm string, data []byte) ([]byte, error) {
	r.mu.RLock()
	factory, ok := r.factories[normalizeDigest(algorithm)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDigestNotFound, algorithm)
	}

	h := factory()
	h.Write(data)
	return h.Sum(nil), nil
}
