// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/controlplaneio-fluxcd/license-kit/internal/config"
	"github.com/controlplaneio-fluxcd/license-kit/internal/lkm"
)

func executeCommand(args []string) (string, error) {
	return executeCommandWithIn(args, nil)
}

func executeCommandWithIn(args []string, in io.Reader) (string, error) {
	defer resetCmdArgs()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(in)
	rootCmd.SetArgs(args)

	_, err := rootCmd.ExecuteC()
	result := buf.String()

	return result, err
}

func resetCmdArgs() {
	rootArgs = rootFlags{
		timeout: config.DefaultTimeout,
	}
	rootConfig = config.New()
	keygenArgs = keygenFlags{
		outputDir: ".",
		algorithm: lkm.AlgorithmEdDSA,
		rsaBits:   lkm.DefaultRSABits,
	}
	createArgs = createFlags{output: "-"}
	signArgs = signFlags{output: "-"}
	verifyArgs = verifyFlags{}
	showArgs = showFlags{output: "text"}
	convertArgs = convertFlags{output: "-"}
	fingerprintArgs = fingerprintFlags{}
	diffArgs = diffFlags{output: "json-patch-yaml"}
	revokeArgs = revokeFlags{}
	encryptArgs = encryptFlags{output: "-"}
	decryptArgs = decryptFlags{output: "-"}
	ledgerArgs = ledgerFlags{output: "table"}
	versionArgs = versionFlags{}
	resetFlagState(rootCmd)
	rootCmd.SetIn(os.Stdin)
}

// resetFlagState clears the changed state of every flag in the command tree,
// so required and mutually exclusive flag checks start fresh.
func resetFlagState(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlagState(c)
	}
}

// testKeys holds the paths of a generated signing key pair.
type testKeys struct {
	dir     string
	private string
	public  string
}

// generateKeys runs keygen sig in a temporary directory.
func generateKeys(t *testing.T, extraArgs ...string) testKeys {
	t.Helper()
	g := NewWithT(t)
	dir := t.TempDir()

	args := append([]string{"keygen", "sig", "licenses.example.com", "-o", dir}, extraArgs...)
	_, err := executeCommand(args)
	g.Expect(err).ToNot(HaveOccurred())

	private, err := filepath.Glob(filepath.Join(dir, "*-sig-private.jwks"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(private).To(HaveLen(1))
	public, err := filepath.Glob(filepath.Join(dir, "*-sig-public.jwks"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(public).To(HaveLen(1))

	return testKeys{dir: dir, private: private[0], public: public[0]}
}

// writeFile writes content to a file in a temporary directory and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// createSignedLicense writes a signed license in text format and returns its path.
func createSignedLicense(t *testing.T, keys testKeys, features ...string) string {
	t.Helper()
	g := NewWithT(t)
	dir := t.TempDir()
	unsigned := filepath.Join(dir, "license.txt")
	signed := filepath.Join(dir, "license-signed.txt")

	args := []string{"create", "-o", unsigned}
	for _, f := range features {
		args = append(args, "-f", f)
	}
	_, err := executeCommand(args)
	g.Expect(err).ToNot(HaveOccurred())

	_, err = executeCommand([]string{"sign", unsigned, "-k", keys.private, "-o", signed})
	g.Expect(err).ToNot(HaveOccurred())
	return signed
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func lines(output string) []string {
	return strings.Split(strings.TrimSpace(output), "\n")
}

func bytesReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}
