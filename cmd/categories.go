package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sooqdata/souq-ingest/config"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Show the category families the crawl is configured with",
	RunE:  runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(_ *cobra.Command, _ []string) error {
	families, err := config.LoadFamilies(cfg.CategoriesFile)
	if err != nil {
		return err
	}

	for _, fam := range families {
		if fam.Discover {
			fmt.Printf("%s  (subcategories discovered from %s)\n", fam.Name, fam.Path)
			continue
		}
		fmt.Printf("%s  (%d subcategories)\n", fam.Name, len(fam.Subcategories))
		for _, sub := range fam.Subcategories {
			fmt.Printf("  %-30s %s\n", sub.Label, sub.Path)
		}
	}
	return nil
}
