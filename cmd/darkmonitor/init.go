package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/darkmonitor.yaml
var monitorTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new monitor file",
		Long: `Init creates a new .darkmonitor monitor file in the current directory.

The generated file includes:
- An empty seed list ready to fill in
- Commented defaults for the threat, safe, and sensitive label sets
- Documentation for the similarity threshold and confidence floor

Examples:
  # Create .darkmonitor in current directory
  darkmonitor init

  # Create the monitor file at a specific path
  darkmonitor init -o mymonitor.yaml

  # Force overwrite existing file
  darkmonitor init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultMonitorFile,
		"Output file path for the monitor file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing monitor file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("monitor file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := monitorTemplate.ReadFile("templates/darkmonitor.yaml")
	if err != nil {
		return fmt.Errorf("failed to read monitor file template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write monitor file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created monitor file: %s\n", outputPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit this file to configure:")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Seed URLs to crawl")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Threat, safe, and sensitive label sets")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Similarity threshold and confidence floor")

	return nil
}
