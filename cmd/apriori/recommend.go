package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"apriori-backend/internal/catalog"
	"apriori-backend/internal/service"
	"apriori-backend/internal/storage"
)

func newRecommendCmd(opts *cliOptions) *cobra.Command {
	var dataDir string
	cmd := &cobra.Command{
		Use:   "recommend <service>",
		Short: "Recommend packages for a service using saved rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := dataDir
			if dir == "" {
				dir = opts.cfg.DataDir
			}
			return runRecommend(cmd.OutOrStdout(), opts, dir, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVarP(&dataDir, "data", "d", "", "directory holding saved rules (default from config)")
	return cmd
}

func runRecommend(w io.Writer, opts *cliOptions, dir, query string) error {
	store, err := storage.NewFileStore(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	rules, err := store.LoadRules()
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	entries, err := store.LoadCatalog()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	rec := service.NewRecommender(opts.h).Recommend(query, rules, catalog.New(entries))
	if rec.Details != nil {
		fmt.Fprintf(w, "%s (%s)\n", rec.Details.Name, rec.Details.Key)
	}
	for i, r := range rec.Results {
		line := fmt.Sprintf("%d. %s  %s", i+1, r.Item, r.Confidence)
		if r.Details != nil && r.Details.Price > 0 {
			line += fmt.Sprintf("  %.0f", r.Details.Price)
		}
		fmt.Fprintln(w, line)
	}
	if rec.Message != "" {
		fmt.Fprintln(w, rec.Message)
	}
	if len(rec.Suggestions) > 0 {
		fmt.Fprintf(w, "Did you mean: %s\n", strings.Join(rec.Suggestions, ", "))
	}
	return nil
}
