// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	// SignatureFeature holds the signature bytes of a signed license.
	SignatureFeature = "licenseSignature"

	// DigestFeature holds the name of the digest algorithm used for signing.
	DigestFeature = "signatureDigest"

	// ExpiryFeature holds the expiry date of the license.
	ExpiryFeature = "expiryDate"

	// IDFeature holds the unique identifier of the license.
	IDFeature = "licenseId"
)

// reservedTypes maps the reserved feature names to their required type.
var reservedTypes = map[string]Type{
	SignatureFeature: Binary,
	DigestFeature:    String,
	ExpiryFeature:    Date,
	IDFeature:        UUID,
}

// License is a name-keyed set of features. Every encoded form
// of a License lists the features ordered by name.
type License struct {
	features map[string]*Feature
}

// New returns an empty License.
func New() *License {
	return &License{features: make(map[string]*Feature)}
}

// Clone returns a shallow copy of the license. Features are immutable
// and shared between the copies.
func (l *License) Clone() *License {
	return &License{features: maps.Clone(l.features)}
}

// Add stores the feature under its name and returns the feature
// it replaced, if any. Reserved names only accept their own type.
func (l *License) Add(f *Feature) (*Feature, error) {
	if f == nil {
		return nil, valueError(fmt.Errorf("%w: feature", ErrNilValue))
	}
	if t, ok := reservedTypes[f.name]; ok && f.typ != t {
		return nil, valueError(fmt.Errorf("%w: %q must be %s, not %s", ErrReservedName, f.name, t, f.typ))
	}
	if l.features == nil {
		l.features = make(map[string]*Feature)
	}
	previous := l.features[f.name]
	l.features[f.name] = f
	return previous, nil
}

// Get returns the feature with the given name.
func (l *License) Get(name string) (*Feature, bool) {
	f, ok := l.features[name]
	return f, ok
}

// Remove deletes the feature with the given name and returns it.
func (l *License) Remove(name string) *Feature {
	f := l.features[name]
	delete(l.features, name)
	return f
}

// Names returns the feature names in lexicographic order.
func (l *License) Names() []string {
	return slices.Sorted(maps.Keys(l.features))
}

// Features returns the features ordered by name.
func (l *License) Features() []*Feature {
	return l.featuresExcept()
}

func (l *License) featuresExcept(excluded ...string) []*Feature {
	features := make([]*Feature, 0, len(l.features))
	for name, f := range l.features {
		if !slices.Contains(excluded, name) {
			features = append(features, f)
		}
	}
	slices.SortFunc(features, func(a, b *Feature) int {
		return strings.Compare(a.name, b.name)
	})
	return features
}

// Len returns the number of features.
func (l *License) Len() int {
	return len(l.features)
}

// Equal reports whether both licenses hold the same features.
func (l *License) Equal(o *License) bool {
	if l == nil || o == nil {
		return l == o
	}
	return maps.EqualFunc(l.features, o.features, (*Feature).Equal)
}
