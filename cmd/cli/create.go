// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/license-kit/internal/license"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an unsigned license from typed features",
	Example: `  # Create a license valid for one year and print it in text format
  license-kit create \
    -f customer=ACME \
    -f seats:INT=25 \
    -f maxVersion="<2.0.0" \
    --expiry-days=365

  # Create a license from a text template and add a feature
  license-kit create --from=template.txt -f edition=enterprise -o license.txt

  # Create a license in base64 format with a random license ID
  license-kit create -f customer=ACME --id --output-format=base64 -o license.b64
`,
	Args: cobra.NoArgs,
	RunE: createCmdRun,
}

type createFlags struct {
	from         string
	features     []string
	expiryDays   int
	expiry       string
	id           bool
	outputFormat formatFlag
	output       string
}

var createArgs = createFlags{
	output: "-",
}

func init() {
	createCmd.Flags().StringVar(&createArgs.from, "from", "",
		"path or URL of a license used as template, in any format")
	createCmd.Flags().StringArrayVarP(&createArgs.features, "feature", "f", nil,
		"feature in the name[:TYPE]=value form, can be specified multiple times")
	createCmd.Flags().IntVar(&createArgs.expiryDays, "expiry-days", 0,
		"number of days from now until the license expires")
	createCmd.Flags().StringVar(&createArgs.expiry, "expiry", "",
		"expiry date in the yyyy-MM-dd[ HH:mm[:ss[.SSS]]] form (UTC)")
	createCmd.Flags().BoolVar(&createArgs.id, "id", false,
		"generate a UUID v6 license ID")
	createCmd.Flags().Var(&createArgs.outputFormat, "output-format", formatFlagUsage("output"))
	createCmd.Flags().StringVarP(&createArgs.output, "output", "o", createArgs.output,
		"path to the output file, defaults to stdout")
	_ = createCmd.RegisterFlagCompletionFunc("output-format", formatCompletionFunc)
	createCmd.MarkFlagsMutuallyExclusive("expiry-days", "expiry")

	rootCmd.AddCommand(createCmd)
}

func createCmdRun(cmd *cobra.Command, args []string) error {
	if createArgs.from == "" && len(createArgs.features) == 0 {
		return fmt.Errorf("at least one feature or a template is required")
	}

	ctx := cmd.Context()
	lic := license.New()
	if createArgs.from != "" {
		var err error
		lic, err = readLicense(ctx, createArgs.from, "")
		if err != nil {
			return fmt.Errorf("failed to load template: %w", err)
		}
		// A template may be a signed license.
		lic.Remove(license.SignatureFeature)
		lic.Remove(license.DigestFeature)
	}

	for _, text := range createArgs.features {
		f, err := license.FeatureFromString(text)
		if err != nil {
			return fmt.Errorf("invalid feature %q: %w", text, err)
		}
		if f.Name() == license.SignatureFeature || f.Name() == license.DigestFeature {
			return fmt.Errorf("feature %s is set by the sign command", f.Name())
		}
		if _, err := lic.Add(f); err != nil {
			return err
		}
	}

	switch {
	case createArgs.expiryDays > 0:
		if err := lic.SetExpiry(time.Now().UTC().AddDate(0, 0, createArgs.expiryDays)); err != nil {
			return err
		}
	case createArgs.expiryDays < 0:
		return fmt.Errorf("--expiry-days must be positive")
	case createArgs.expiry != "":
		expiry, err := license.ParseDate(createArgs.expiry)
		if err != nil {
			return err
		}
		if err := lic.SetExpiry(expiry); err != nil {
			return err
		}
	}

	if createArgs.id {
		if _, err := lic.NewLicenseID(); err != nil {
			return fmt.Errorf("failed to generate license ID: %w", err)
		}
	}

	if err := writeLicense(createArgs.output, lic, createArgs.outputFormat.Format()); err != nil {
		return err
	}

	if !isStdout(createArgs.output) {
		id, _ := lic.LicenseID()
		if id == uuid.Nil {
			rootCmd.Printf("✔ license with %d features written to: %s\n", lic.Len(), createArgs.output)
		} else {
			rootCmd.Printf("✔ license %s written to: %s\n", id, createArgs.output)
		}
	}
	return nil
}
