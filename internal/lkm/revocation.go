// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/controlplaneio-fluxcd/license-kit/internal/license"
)

// RevocationKeySet represents a set of licenses that have been revoked.
type RevocationKeySet struct {
	// Issuer is the identifier of the entity
	// that issued the revoked licenses.
	Issuer string `json:"issuer"`

	// Keys is a map of license IDs and their revocation unix timestamps.
	Keys map[string]int64 `json:"keys"`
}

// NewRevocationKeySet creates a new RevocationKeySet for holding revoked license IDs.
func NewRevocationKeySet(issuer string) *RevocationKeySet {
	return &RevocationKeySet{
		Issuer: issuer,
		Keys:   make(map[string]int64),
	}
}

// AddKey adds a license ID to the set, revoked as of now.
func (r *RevocationKeySet) AddKey(licenseID string) error {
	id, err := uuid.Parse(licenseID)
	if err != nil {
		return fmt.Errorf("invalid license ID %q: %w", licenseID, err)
	}

	r.Keys[id.String()] = time.Now().Unix()
	return nil
}

// AddLicense adds the license ID of the license to the set.
func (r *RevocationKeySet) AddLicense(lic *license.License) error {
	id, ok := lic.LicenseID()
	if !ok {
		return ErrLicenseIDMissing
	}
	return r.AddKey(id.String())
}

// IsRevoked checks if a License is present in the revocation set.
// It returns true if the license is revoked, along with the
// revocation timestamp in RFC3339 format.
func (r *RevocationKeySet) IsRevoked(lic *license.License) (bool, string) {
	if lic == nil {
		return false, "license is nil"
	}

	id, ok := lic.LicenseID()
	if !ok {
		return false, ErrLicenseIDMissing.Error()
	}

	ts, exists := r.Keys[id.String()]
	if !exists {
		return false, ""
	}
	return true, time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

// ToJSON serializes the RevocationKeySet to JSON format.
func (r *RevocationKeySet) ToJSON() ([]byte, error) {
	return json.MarshalIndent(*r, "", "  ")
}

// WriteFile writes the RevocationKeySet to a file in JSON format.
// If the file already exists, the keys are merged with the existing set.
func (r *RevocationKeySet) WriteFile(filename string) error {
	toWrite := r

	if _, err := os.Stat(filename); err == nil {
		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read existing revocation file: %w", err)
		}

		existing, err := RevocationKeySetFromJSON(data)
		if err != nil {
			return fmt.Errorf("failed to parse existing revocation file: %w", err)
		}

		if existing.Issuer != r.Issuer {
			return fmt.Errorf("issuer mismatch: existing %q, current %q", existing.Issuer, r.Issuer)
		}

		// Current keys take precedence for timestamp updates.
		for id, timestamp := range r.Keys {
			existing.Keys[id] = timestamp
		}
		toWrite = existing
	}

	data, err := toWrite.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize revocation set: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write revocation file: %w", err)
	}

	return nil
}

// RevocationKeySetFromJSON deserializes a JSON byte slice into a RevocationKeySet.
// It returns an error if the JSON is invalid or if the issuer is missing.
func RevocationKeySetFromJSON(data []byte) (*RevocationKeySet, error) {
	var rks RevocationKeySet
	if err := json.Unmarshal(data, &rks); err != nil {
		return nil, InvalidRevocationSetError(err)
	}
	if rks.Issuer == "" {
		return nil, InvalidRevocationSetError(fmt.Errorf("missing issuer"))
	}
	if rks.Keys == nil {
		rks.Keys = make(map[string]int64)
	}
	return &rks, nil
}
