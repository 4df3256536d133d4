// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"

	"github.com/controlplaneio-fluxcd/license-kit/internal/license"
	"github.com/controlplaneio-fluxcd/license-kit/internal/lkm"
)

const (
	sigPrivateKeySetEnvVar = "LICENSE_KIT_SIG_PRIVATE_JWKS"
	sigPublicKeySetEnvVar  = "LICENSE_KIT_SIG_PUBLIC_JWKS"
	encPrivateKeySetEnvVar = "LICENSE_KIT_ENC_PRIVATE_JWKS"
	encPublicKeySetEnvVar  = "LICENSE_KIT_ENC_PUBLIC_JWKS"
)

// isDir validates that the given path exists and is a directory
func isDir(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to check path %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", path)
	}
	return nil
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func isStdout(path string) bool {
	return path == "-" || path == "/dev/stdout"
}

// loadKeySet reads the JWKS from file path, HTTP URL, or environment variable.
// An empty path falls back to the config value before the environment variable.
func loadKeySet(ctx context.Context, keySetPath, configPath, envVarName string) ([]byte, error) {
	if keySetPath == "" {
		keySetPath = configPath
	}
	if keySetPath != "" {
		if isURL(keySetPath) {
			return lkm.Fetch(ctx, keySetPath, lkm.FetchOpt.WithContentType(lkm.ContentTypeKeySet))
		}
		// Load from file or /dev/stdin
		return os.ReadFile(keySetPath)
	} else if keyData := os.Getenv(envVarName); keyData != "" {
		return []byte(keyData), nil
	}
	return nil, fmt.Errorf("JWKS must be specified with --key-set flag or %s environment variable",
		envVarName)
}

// readInput reads a file, an HTTP URL or stdin ("-").
func readInput(ctx context.Context, path string, contentType lkm.ContentType) ([]byte, error) {
	switch {
	case path == "-":
		return io.ReadAll(rootCmd.InOrStdin())
	case isURL(path):
		return lkm.Fetch(ctx, path, lkm.FetchOpt.WithContentType(contentType))
	default:
		return os.ReadFile(path)
	}
}

// readLicense loads a license in the given format, or in the
// detected format when the format is empty.
func readLicense(ctx context.Context, path string, format license.Format) (*license.License, error) {
	data, err := readInput(ctx, path, lkm.ContentTypeLicense)
	if err != nil {
		return nil, fmt.Errorf("failed to read license: %w", err)
	}
	if format == "" {
		format = detectFormat(data)
	}

	lic, err := license.Decode(data, format)
	if err != nil {
		return nil, err
	}

	logr.FromContextOrDiscard(ctx).V(1).Info("license loaded",
		"path", path, "format", format, "features", lic.Len())
	return lic, nil
}

// writeOutput writes data to a file, or to the command output for "-" and /dev/stdout.
func writeOutput(path string, data []byte) error {
	if isStdout(path) {
		_, err := rootCmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// writeLicense encodes the license in the given format, or in the
// configured format when the format is empty.
func writeLicense(path string, lic *license.License, format license.Format) error {
	if format == "" {
		format = rootConfig.LicenseFormat()
	}
	data, err := license.Encode(lic, format)
	if err != nil {
		return err
	}
	if err := writeOutput(path, data); err != nil {
		return fmt.Errorf("failed to write license: %w", err)
	}
	return nil
}
