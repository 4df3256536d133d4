// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/license-kit/internal/config"
)

var (
	VERSION = "0.0.0-dev.0"
)

var rootCmd = &cobra.Command{
	Use:               "license-kit",
	Version:           VERSION,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
	Short:             "Command line utility for issuing and verifying signed licenses",
	Long: `The license-kit command creates licenses made of typed features,
signs them with Ed25519 or RSA keys, verifies and revokes them, and converts
them between the binary, base64, text and JSON formats.`,
	PersistentPreRunE: rootCmdPreRun,
}

type rootFlags struct {
	timeout    time.Duration
	configPath string
	verbose    int
}

var (
	rootArgs = rootFlags{
		timeout: config.DefaultTimeout,
	}
	rootConfig = config.New()
)

func init() {
	rootCmd.PersistentFlags().DurationVar(&rootArgs.timeout, "timeout", rootArgs.timeout,
		"The length of time to wait before giving up on the current operation.")
	rootCmd.PersistentFlags().StringVar(&rootArgs.configPath, "config", "",
		"Path to the config file, defaults to the value of the "+config.EnvConfigFile+" environment variable.")
	rootCmd.PersistentFlags().CountVarP(&rootArgs.verbose, "verbose", "v",
		"Log verbosity, repeat the flag to increase it.")
	rootCmd.SetOut(os.Stdout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrf("✗ %v\n", err)
		os.Exit(1)
	}
}

// rootCmdPreRun loads the config and stores the logger in the command context.
func rootCmdPreRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(rootArgs.configPath)
	if err != nil {
		return err
	}
	rootConfig = cfg
	if !cmd.Flags().Changed("timeout") {
		rootArgs.timeout = cfg.Timeout.Duration
	}

	log := funcr.New(func(prefix, args string) {
		if prefix != "" {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", prefix, args)
			return
		}
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), args)
	}, funcr.Options{Verbosity: rootArgs.verbose}).WithName(cmd.Root().Name())

	cmd.SetContext(logr.NewContext(cmd.Context(), log))
	return nil
}
