// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package config loads the license-kit CLI defaults from
// a YAML file and LICENSE_KIT_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"sigs.k8s.io/yaml"

	"github.com/controlplaneio-fluxcd/license-kit/internal/license"
	"github.com/controlplaneio-fluxcd/license-kit/internal/lkm"
)

const (
	// EnvPrefix is the prefix of the environment variables read by Load.
	EnvPrefix = "LICENSE_KIT"

	// EnvConfigFile names the config file when no path is given to Load.
	EnvConfigFile = EnvPrefix + "_CONFIG"

	// DefaultTimeout is the default timeout of network operations.
	DefaultTimeout = time.Minute
)

// Duration is a time.Duration read from strings like "30s" in YAML and env vars.
type Duration struct {
	time.Duration
}

// UnmarshalJSON parses a duration string.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.Decode(s)
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Decode implements envconfig.Decoder.
func (d *Duration) Decode(value string) error {
	v, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config holds the defaults of the license-kit commands.
type Config struct {
	// Issuer is the default issuer of generated signing keys.
	Issuer string `json:"issuer,omitempty" envconfig:"ISSUER"`

	// SigningKeySet is the path of the private signing key set.
	SigningKeySet string `json:"signingKeySet,omitempty" envconfig:"SIGNING_KEYSET"`

	// PublicKeySet is the path or HTTPS URL of the public signing key set.
	PublicKeySet string `json:"publicKeySet,omitempty" envconfig:"PUBLIC_KEYSET"`

	// EncryptionPublicKeySet is the path or HTTPS URL of the public encryption key set.
	EncryptionPublicKeySet string `json:"encryptionPublicKeySet,omitempty" envconfig:"ENCRYPTION_PUBLIC_KEYSET"`

	// EncryptionPrivateKeySet is the path of the private encryption key set.
	EncryptionPrivateKeySet string `json:"encryptionPrivateKeySet,omitempty" envconfig:"ENCRYPTION_PRIVATE_KEYSET"`

	// Digest is the digest algorithm used for signing.
	Digest string `json:"digest,omitempty" envconfig:"DIGEST"`

	// Format is the default license IO format.
	Format string `json:"format,omitempty" envconfig:"FORMAT"`

	// Ledger is the SQLite DSN of the issuance ledger.
	Ledger string `json:"ledger,omitempty" envconfig:"LEDGER"`

	// RevocationSet is the path or HTTPS URL of the revocation set.
	RevocationSet string `json:"revocationSet,omitempty" envconfig:"REVOCATION_SET"`

	// Timeout bounds network operations.
	Timeout Duration `json:"timeout,omitzero" envconfig:"TIMEOUT"`
}

// New returns a config holding the built-in defaults.
func New() *Config {
	return &Config{
		Digest:  lkm.DefaultDigest,
		Format:  license.FormatText.String(),
		Timeout: Duration{DefaultTimeout},
	}
}

// Load returns the defaults overlaid with the YAML file at path and then
// with the environment. When path is empty, the file named by
// LICENSE_KIT_CONFIG is read, if set.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the format, the digest algorithm and the timeout.
func (c *Config) Validate() error {
	var errs []error
	if _, err := license.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if !lkm.DefaultDigests().Supports(c.Digest) {
		errs = append(errs, fmt.Errorf("%w: %q", lkm.ErrDigestNotFound, c.Digest))
	}
	if c.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LicenseFormat returns the parsed default license format.
func (c *Config) LicenseFormat() license.Format {
	f, err := license.ParseFormat(c.Format)
	if err != nil {
		return license.FormatText
	}
	return f
}
