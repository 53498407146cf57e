package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wplinks.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wplinks",
		Short: "Internal link analyzer for WordPress sites",
		Long: `wplinks analyzes the internal link structure of WordPress sites.

It reads published articles through the public REST API, extracts
article-to-article links from rendered content and ACF related-post
fields, and reports which articles attract the most internal links.

No credentials are required; wplinks only reads public endpoints.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewHistoryCmd())
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
