// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"crypto/sha512"
	"time"

	"github.com/google/uuid"
)

// SetExpiry stores the expiry date of the license.
func (l *License) SetExpiry(t time.Time) error {
	f, err := NewDate(ExpiryFeature, t)
	if err != nil {
		return err
	}
	_, err = l.Add(f)
	return err
}

// Expiry returns the expiry date of the license, if set.
func (l *License) Expiry() (time.Time, bool) {
	f, ok := l.Get(ExpiryFeature)
	if !ok {
		return time.Time{}, false
	}
	t, err := f.AsDate()
	return t, err == nil
}

// ExpiredAt reports whether the license has an expiry date before now.
// Licenses without an expiry date never expire.
func (l *License) ExpiredAt(now time.Time) bool {
	expiry, ok := l.Expiry()
	return ok && expiry.Before(now)
}

// IsExpired reports whether the license expiry date has passed.
func (l *License) IsExpired() bool {
	return l.ExpiredAt(time.Now())
}

// SetLicenseID stores the unique identifier of the license.
func (l *License) SetLicenseID(id uuid.UUID) error {
	f, err := NewUUID(IDFeature, id)
	if err != nil {
		return err
	}
	_, err = l.Add(f)
	return err
}

// NewLicenseID generates a chronologically sortable UUID v6,
// stores it as the license identifier and returns it.
func (l *License) NewLicenseID() (uuid.UUID, error) {
	id, err := uuid.NewV6()
	if err != nil {
		return uuid.Nil, err
	}
	return id, l.SetLicenseID(id)
}

// LicenseID returns the unique identifier of the license, if set.
func (l *License) LicenseID() (uuid.UUID, bool) {
	f, ok := l.Get(IDFeature)
	if !ok {
		return uuid.Nil, false
	}
	id, err := f.AsUUID()
	return id, err == nil
}

// Fingerprint returns a UUID made of the first 16 bytes of the SHA-512
// digest of the unsigned binary form. Signing does not change the
// fingerprint of a license, unless it changes the digest algorithm.
func (l *License) Fingerprint() uuid.UUID {
	sum := sha512.Sum512(l.Unsigned())
	var id uuid.UUID
	copy(id[:], sum[:16])
	return id
}

// Signature returns the signature bytes of a signed license.
func (l *License) Signature() ([]byte, bool) {
	f, ok := l.Get(SignatureFeature)
	if !ok {
		return nil, false
	}
	sig, err := f.AsBinary()
	return sig, err == nil
}

// DigestAlgorithm returns the name of the digest algorithm used for signing.
func (l *License) DigestAlgorithm() (string, bool) {
	f, ok := l.Get(DigestFeature)
	if !ok {
		return "", false
	}
	alg, err := f.AsString()
	return alg, err == nil
}
