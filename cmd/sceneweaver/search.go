package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seojin/sceneweaver/internal/tui/styles"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search characters and scene content",
		Long: `Search runs a full-text query over the project's character
descriptions, scene metadata and timeline events.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearchCmd,
	}
	cmd.Flags().IntP("limit", "n", 10, "Maximum number of results")
	return cmd
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")

	application, proj, err := openProject()
	if err != nil {
		return err
	}
	defer application.Close()

	results, err := proj.Store.Search(query, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Printf("No results for %q\n", query)
		return nil
	}

	for _, r := range results {
		kind := styles.StatusKey.Render(r.Kind)
		fmt.Printf("%s  %s\n", kind, snippet(r.Content, 120))
	}
	return nil
}

// snippet trims content to a single display line.
func snippet(content string, max int) string {
	content = strings.Join(strings.Fields(content), " ")
	if len(content) > max {
		content = content[:max] + "..."
	}
	return content
}
