package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/catecismo-search/internal/search"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the index once and print the report",
	Long: `Loads every configured document in order and prints the build report.
Exits with status 1 when no document could be loaded.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	rep, _ := a.session.Rebuild(ctx)
	if indexJSON {
		if err := printJSON(cmd, rep); err != nil {
			return err
		}
	} else {
		printReport(cmd, rep)
	}

	if rep.State == search.StateFailed {
		return errors.New(rep.Message())
	}
	return nil
}

func printReport(cmd *cobra.Command, rep search.Report) {
	cmd.Printf("State: %s\n", rep.State)
	cmd.Printf("Documents: %d/%d loaded\n", rep.DocumentsLoaded, rep.DocumentsTotal)
	for _, d := range rep.Documents {
		line := fmt.Sprintf("  %-10s %5d entries  %s", d.Source.Label, d.Entries, d.Source.URL)
		if !d.Loaded {
			line += "  (" + d.ErrorText() + ")"
		}
		cmd.Println(line)
	}
	cmd.Println(rep.Message())
}
