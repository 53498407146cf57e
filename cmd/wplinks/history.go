package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/wplinks/internal/config"
	"github.com/nao1215/wplinks/internal/database"
	"github.com/nao1215/wplinks/internal/model"
	"github.com/nao1215/wplinks/internal/report"
)

// NewHistoryCmd creates the history command.
// This command lists and re-prints analysis runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site]",
		Short: "Show stored analysis runs",
		Long: `History lists the analysis runs stored in the local database.

Every 'wplinks analyze' invocation stores its result, so history lets you
revisit earlier reports and watch how a site's link graph evolves.

Examples:
  # List all analyzed sites
  wplinks history --list-sites

  # List all runs for a site
  wplinks history example

  # Re-print a stored run by ID
  wplinks history --id 5

  # Re-print the latest run for a site as JSON
  wplinks history --latest --json example`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-sites", "L", false,
		"List all analyzed sites in the database")
	cmd.Flags().Int64P("id", "i", 0,
		"Re-print the stored run with this ID")
	cmd.Flags().BoolP("latest", "l", false,
		"Re-print the latest run for the specified site")
	cmd.Flags().BoolP("json", "j", false,
		"Output re-printed runs in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output re-printed runs in Markdown format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listSites, err := cmd.Flags().GetBool("list-sites")
	if err != nil {
		return err
	}

	runID, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}

	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}

	var site string
	if len(args) > 0 {
		site = args[0]
	}

	// Everything except --id and --list-sites needs a site argument.
	if !listSites && runID == 0 && site == "" {
		return errors.New("site name is required (use --list-sites to see analyzed sites)")
	}

	// Runs are stored under the XDG data directory; a missing database
	// just means nothing was analyzed yet.
	db, err := database.Open(config.XDGDataDir(), database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no stored runs found (analyze a site first): %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if listSites {
		return listAnalyzedSites(ctx, db)
	}
	if runID > 0 {
		return printRunByID(ctx, cmd, db, runID)
	}
	if latest {
		return printLatestRun(ctx, cmd, db, site)
	}
	return listRuns(ctx, db, site)
}

// listAnalyzedSites lists all sites that have stored runs.
func listAnalyzedSites(ctx context.Context, db *database.LinkDB) error {
	sites, err := db.ListSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	if len(sites) == 0 {
		fmt.Println("No analyzed sites found in the database.")
		fmt.Println("\nUse 'wplinks analyze <url>' to analyze a site.")
		return nil
	}

	fmt.Printf("Analyzed sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Printf("  • %s\n", site)
	}
	fmt.Println("\nUse 'wplinks history <site>' to see the runs for a site.")

	return nil
}

// listRuns lists stored run metadata for one site.
func listRuns(ctx context.Context, db *database.LinkDB, site string) error {
	runs, err := db.RunsForSite(ctx, site)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Printf("No runs found for %s\n", site)
		fmt.Println("\nUse 'wplinks analyze' to analyze this site.")
		return nil
	}

	fmt.Printf("Runs for %s (%d):\n\n", site, len(runs))
	fmt.Printf("  %-6s  %-20s  %-9s  %-7s  %s\n", "ID", "Date", "Articles", "Links", "Status")
	fmt.Println("  " + strings.Repeat("-", 60))

	for _, meta := range runs {
		fmt.Printf("  %-6d  %-20s  %-9d  %-7d  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.ArticleCount,
			meta.LinkCount,
			formatRunStatus(meta),
		)
	}

	fmt.Println("\nUse 'wplinks history --id <id>' to re-print a stored run.")

	return nil
}

// formatRunStatus summarizes a run's health for the history listing.
func formatRunStatus(meta database.RunMetadata) string {
	switch {
	case meta.Error != "":
		return "error: " + meta.Error
	case meta.Partial:
		return "partial"
	default:
		return "ok"
	}
}

// printRunByID re-prints one stored run in the requested format.
func printRunByID(ctx context.Context, cmd *cobra.Command, db *database.LinkDB, runID int64) error {
	stored, err := db.RunByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", runID, err)
	}
	if stored == nil {
		return fmt.Errorf("run %d not found", runID)
	}

	return printStoredRun(cmd, stored)
}

// printLatestRun re-prints the most recent stored run for a site.
func printLatestRun(ctx context.Context, cmd *cobra.Command, db *database.LinkDB, site string) error {
	stored, err := db.LatestRun(ctx, site)
	if err != nil {
		return fmt.Errorf("failed to get latest run: %w", err)
	}
	if stored == nil {
		return fmt.Errorf("no runs found for %s", site)
	}

	return printStoredRun(cmd, stored)
}

// printStoredRun writes a stored report using the format flags.
func printStoredRun(cmd *cobra.Command, stored *model.SiteReport) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	var writer report.Writer
	switch {
	case jsonOutput:
		writer = report.NewJSONWriter(os.Stdout, report.WithPrettyPrint())
	case markdownOutput:
		writer = report.NewMarkdownWriter(os.Stdout)
	default:
		writer = report.NewSimpleWriter(os.Stdout, report.WithVerbose(true))
	}

	_, err = writer.Write(stored)
	return err
}
