// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the remixblog CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remixblog",
		Short: "Remixblog - a small blog service",
		Long: `Remixblog serves a minimal blog with account registration,
cookie sessions, and posts backed by PostgreSQL.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
