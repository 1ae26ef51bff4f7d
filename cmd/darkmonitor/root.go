// Package main provides the entry point for the darkmonitor CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for darkmonitor.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "darkmonitor",
		Short: "Dark web monitoring and triage daemon",
		Long: `darkmonitor continuously crawls clearnet and anonymized-network sites,
normalizes and deduplicates the pages it finds, classifies the remainder
into threat and safe categories, and serves the triaged stream over a
local HTTP API with a live feed.

Anonymized (.onion) targets are fetched through a local Tor SOCKS proxy.
darkmonitor probes the standard loopback ports at startup; use
--embedded-tor to bootstrap a Tor daemon when none is running.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
