package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"brokerscope/internal/database"
	"brokerscope/internal/seed"
)

func seedCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert brokers, categories and blog posts from a YAML document",
		Long: `Upsert every entry of a seed document keyed by slug. Without --file the
built-in default document is loaded. Running it twice is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := loadSeed(file)
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}

			ctx := cmd.Context()
			res, err := database.Seed(ctx, a.db, doc)
			if err != nil {
				return err
			}
			a.invalidateCache(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d brokers, %d categories, %d blog categories, %d blog posts\n",
				res.Brokers, res.Categories, res.BlogCategories, res.BlogPosts)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed document (YAML); default is the built-in document")
	return cmd
}

// loadSeed parses the document at path, or the built-in one when path is
// empty. It runs before any connection is opened so bad files fail fast.
func loadSeed(path string) (*seed.Document, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.ParseFile(path)
}
