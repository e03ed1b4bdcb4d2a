package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbourn/catecismo-search/internal/services"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search the catechism",
	Long: `Builds the index once and prints the entries containing the term,
ignoring accents and case, in document order. Matches are shown in [brackets].`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if _, err := a.session.Rebuild(ctx); err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	page, err := a.session.Search(ctx, args[0], 1, searchLimit)
	if err != nil {
		if msg := services.UserMessage(err); msg != "" {
			return errors.New(msg)
		}
		return err
	}

	if searchJSON {
		return printJSON(cmd, page)
	}
	if page.Count == 0 {
		cmd.Println(page.Notice)
		return nil
	}

	cmd.Println(page.Header)
	cmd.Println()
	for i, r := range page.Results {
		cmd.Printf("  [%d] %s\n", page.Page.Start+i+1, r.Location)
		cmd.Printf("      %s\n", plainPreview(r.Preview))
		cmd.Println()
	}
	return nil
}

var markReplacer = strings.NewReplacer("<mark>", "[", "</mark>", "]")

// plainPreview turns an HTML preview into terminal text.
func plainPreview(s string) string {
	return html.UnescapeString(markReplacer.Replace(s))
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
