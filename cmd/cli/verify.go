// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/license-kit/internal/license"
	"github.com/controlplaneio-fluxcd/license-kit/internal/lkm"
)

// maxVersionFeature names the feature holding the highest product
// version, or a semver constraint, the license is valid for.
const maxVersionFeature = "maxVersion"

var verifyCmd = &cobra.Command{
	Use:   "verify [LICENSE]",
	Short: "Verify the signature, expiry and revocation status of a license",
	Example: `  # Verify a license with the public key set from the environment
  export LICENSE_KIT_SIG_PUBLIC_JWKS="$(cat /path/to/public.jwks)"
  license-kit verify license.txt

  # Verify a license with a remote key set and revocation set
  license-kit verify license.b64 \
    --key-set=https://licenses.example.com/keys.jwks \
    --revocation-set=https://licenses.example.com/revocations.json

  # Verify that a license covers a product version
  license-kit verify license.txt -k public.jwks --product-version=1.4.2
`,
	Args: cobra.ExactArgs(1),
	RunE: verifyCmdRun,
}

type verifyFlags struct {
	keySet         string
	keyID          string
	inputFormat    formatFlag
	revocationSet  string
	productVersion string
}

var verifyArgs verifyFlags

func init() {
	verifyCmd.Flags().StringVarP(&verifyArgs.keySet, "key-set", "k", "",
		"path or URL of the public key set, defaults to the config value or the "+sigPublicKeySetEnvVar+" environment variable")
	verifyCmd.Flags().StringVar(&verifyArgs.keyID, "kid", "",
		"ID of the key to verify with, when not set every key of the set is tried")
	verifyCmd.Flags().Var(&verifyArgs.inputFormat, "input-format", formatFlagUsage("input")+", detected when not set")
	verifyCmd.Flags().StringVar(&verifyArgs.revocationSet, "revocation-set", "",
		"path or URL of the revocation set, defaults to the config value")
	verifyCmd.Flags().StringVar(&verifyArgs.productVersion, "product-version", "",
		"product version checked against the "+maxVersionFeature+" feature")
	_ = verifyCmd.RegisterFlagCompletionFunc("input-format", formatCompletionFunc)

	rootCmd.AddCommand(verifyCmd)
}

func verifyCmdRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), rootArgs.timeout)
	defer cancel()

	keyData, err := loadKeySet(ctx, verifyArgs.keySet, rootConfig.PublicKeySet, sigPublicKeySetEnvVar)
	if err != nil {
		return err
	}

	lic, err := readLicense(ctx, args[0], verifyArgs.inputFormat.Format())
	if err != nil {
		return err
	}

	keyID, err := verifySignature(ctx, lic, keyData, verifyArgs.keyID)
	if err != nil {
		return err
	}

	id, hasID := lic.LicenseID()
	if hasID {
		rootCmd.Printf("✔ license %s signed by key %s\n", id, keyID)
	} else {
		rootCmd.Printf("✔ license signed by key %s\n", keyID)
	}

	if expiry, ok := lic.Expiry(); ok {
		if lic.IsExpired() {
			return fmt.Errorf("license expired on %s", expiry.Format(time.RFC3339))
		}
		rootCmd.Printf("✔ license expires on %s\n", expiry.Format(time.RFC3339))
	}

	revocationSetPath := verifyArgs.revocationSet
	if revocationSetPath == "" {
		revocationSetPath = rootConfig.RevocationSet
	}
	if revocationSetPath != "" {
		if err := checkRevocation(ctx, lic, revocationSetPath); err != nil {
			return err
		}
		rootCmd.Println("✔ license is not revoked")
	}

	if verifyArgs.productVersion != "" {
		if err := checkProductVersion(lic, verifyArgs.productVersion); err != nil {
			return err
		}
		rootCmd.Printf("✔ license is valid for version %s\n", verifyArgs.productVersion)
	}

	return nil
}

// verifySignature checks the license signature with the key of the given ID,
// or with every key of the set when the ID is empty, and returns the ID of
// the key that verified it.
func verifySignature(ctx context.Context, lic *license.License, keyData []byte, keyID string) (string, error) {
	log := logr.FromContextOrDiscard(ctx)

	if keyID != "" {
		publicKey, err := lkm.PublicKeyFromSet(keyData, keyID)
		if err != nil {
			return "", err
		}
		if err := lic.Verify(lkm.DefaultDigests(), publicKey); err != nil {
			return "", err
		}
		return publicKey.KeyID, nil
	}

	keySet, err := lkm.KeySetFromJSON(keyData)
	if err != nil {
		return "", err
	}

	var errs []error
	for _, key := range keySet.Keys {
		publicKey, err := lkm.PublicKeyFromSet(keyData, key.KeyID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		err = lic.Verify(lkm.DefaultDigests(), publicKey)
		if err == nil {
			return publicKey.KeyID, nil
		}
		if errors.Is(err, license.ErrNotSigned) {
			return "", err
		}
		log.V(1).Info("key did not verify the license", "kid", key.KeyID, "error", err.Error())
		errs = append(errs, err)
	}
	return "", fmt.Errorf("no key in the set verifies the license: %w", errors.Join(errs...))
}

// checkRevocation returns an error if the license is listed in the revocation set.
func checkRevocation(ctx context.Context, lic *license.License, path string) error {
	data, err := readInput(ctx, path, lkm.ContentTypeRevocationSet)
	if err != nil {
		return fmt.Errorf("failed to read revocation set: %w", err)
	}

	rks, err := lkm.RevocationKeySetFromJSON(data)
	if err != nil {
		return err
	}

	if revoked, at := rks.IsRevoked(lic); revoked {
		return fmt.Errorf("license was revoked on %s", at)
	} else if at != "" {
		return fmt.Errorf("cannot check revocation: %s", at)
	}
	return nil
}

// checkProductVersion validates the product version against the maxVersion
// feature. A plain version is the highest version allowed, any other value
// is read as a semver constraint. Licenses without the feature cover all versions.
func checkProductVersion(lic *license.License, productVersion string) error {
	version, err := semver.NewVersion(productVersion)
	if err != nil {
		return fmt.Errorf("invalid product version %q: %w", productVersion, err)
	}

	f, ok := lic.Get(maxVersionFeature)
	if !ok {
		return nil
	}
	value, err := f.AsString()
	if err != nil {
		return fmt.Errorf("invalid %s feature: %w", maxVersionFeature, err)
	}

	var constraint *semver.Constraints
	if maxVersion, err := semver.NewVersion(value); err == nil {
		constraint, err = semver.NewConstraint("<= " + maxVersion.String())
		if err != nil {
			return err
		}
	} else {
		constraint, err = semver.NewConstraint(value)
		if err != nil {
			return fmt.Errorf("invalid %s feature %q: %w", maxVersionFeature, value, err)
		}
	}

	if ok, errs := constraint.Validate(version); !ok {
		return fmt.Errorf("license does not cover version %s: %w", version, errors.Join(errs...))
	}
	return nil
}
