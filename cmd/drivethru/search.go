package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"drivethru/internal/menu"
)

var (
	searchThreshold int
	searchLimit     int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Fuzzy-search the menu from the command line",
	Long: `Runs the same fuzzy match the agent uses against the menu catalog.
Useful for checking what a spoken phrase would resolve to.

Example:
  drivethru search "big mak"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchThreshold, "threshold", menu.DefaultThreshold, "minimum match score (0-100)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum results to print")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	results := catalog.SearchItems(query, searchThreshold, searchLimit)
	if len(results) == 0 {
		fmt.Printf("no matches for %q at threshold %d\n", query, searchThreshold)
		return nil
	}

	for _, res := range results {
		fmt.Printf("%3d  %s (%s)", res.Score, res.Item.Name, res.Item.Category)
		if mods := res.Item.ModifierNames(); len(mods) > 0 {
			fmt.Printf("  [%s]", strings.Join(mods, ", "))
		}
		fmt.Println()
	}
	return nil
}
