package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"apriori-backend/internal/analysis"
	"apriori-backend/internal/catalog"
	"apriori-backend/internal/mining"
	"apriori-backend/internal/models"
	"apriori-backend/internal/storage"
)

type mineFlags struct {
	catalog       string
	catalogSheet  string
	sheet         string
	minSupport    float64
	minConfidence float64
	maxLen        int
	out           string
}

func newMineCmd(opts *cliOptions) *cobra.Command {
	f := &mineFlags{}
	cmd := &cobra.Command{
		Use:   "mine <dataset>",
		Short: "Extract transactions from a CSV/XLSX file and mine association rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := mining.Params{
				MinSupport:    opts.cfg.MinSupport,
				MinConfidence: opts.cfg.MinConfidence,
				MaxLen:        f.maxLen,
			}
			if cmd.Flags().Changed("min-support") {
				params.MinSupport = f.minSupport
			}
			if cmd.Flags().Changed("min-confidence") {
				params.MinConfidence = f.minConfidence
			}
			return runMine(cmd.OutOrStdout(), opts, f, args[0], params)
		},
	}
	cmd.Flags().StringVar(&f.catalog, "catalog", "", "catalog file (.sql dump, CSV or XLSX)")
	cmd.Flags().StringVar(&f.catalogSheet, "catalog-sheet", "", "sheet to read from an XLSX catalog")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "sheet to read from an XLSX dataset")
	cmd.Flags().Float64Var(&f.minSupport, "min-support", 0, "minimum itemset support (default from config)")
	cmd.Flags().Float64Var(&f.minConfidence, "min-confidence", 0, "minimum rule confidence (default from config)")
	cmd.Flags().IntVar(&f.maxLen, "max-len", 0, "largest itemset size, 0 for no limit")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "directory to save rules, items and catalog as JSON")
	return cmd
}

func runMine(w io.Writer, opts *cliOptions, f *mineFlags, path string, params mining.Params) error {
	svc := analysis.NewService(opts.h)

	cat := catalog.New(nil)
	if f.catalog != "" {
		data, err := os.ReadFile(f.catalog)
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		entries, err := svc.CatalogEntries(filepath.Base(f.catalog), data, f.catalogSheet)
		if err != nil {
			return fmt.Errorf("catalog %s: %w", f.catalog, err)
		}
		cat = catalog.New(entries)
		fmt.Fprintf(w, "Loaded %d catalog entries\n", cat.Len())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	ds, err := svc.PrepareDataset(filepath.Base(path), data, f.sheet)
	if err != nil {
		return fmt.Errorf("dataset %s: %w", path, err)
	}

	var prog analysis.Progress
	if !opts.quiet {
		prog = &barProgress{}
	}
	run, err := svc.AnalyzeProgress(ds, cat, params, prog)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Shape %s, id column %q, item columns %s\n",
		run.Extraction.Shape, run.Schema.IDName, strings.Join(run.Schema.ItemNames, ", "))
	fmt.Fprintf(w, "%d baskets, %d transactions, %d dropped\n",
		run.Extraction.Baskets, len(run.Extraction.Transactions), run.Extraction.Dropped)
	fmt.Fprintln(w, run.Mining.Message)
	if len(run.Mining.Rules) > 0 {
		printRules(w, run.Mining.Rules)
	}

	if f.out != "" {
		if err := saveRun(f.out, run, cat); err != nil {
			return err
		}
		fmt.Fprintf(w, "Saved results to %s\n", f.out)
	}
	return nil
}

func printRules(w io.Writer, rules []models.AssociationRule) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "IF\tTHEN\tSUPPORT\tCONFIDENCE\tLIFT")
	for _, r := range rules {
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\t%.3f\n",
			strings.Join(r.Antecedents, " + "), strings.Join(r.Consequents, " + "),
			r.Support, r.Confidence, r.Lift)
	}
	tw.Flush()
}

func saveRun(dir string, run *analysis.Run, cat *catalog.Catalog) error {
	store, err := storage.NewFileStore(dir)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.SaveRules(run.Mining.Rules); err != nil {
		return err
	}
	if err := store.SaveItems(run.Extraction.Items); err != nil {
		return err
	}
	return store.SaveCatalog(cat.Entries())
}

// barProgress draws extraction progress on stderr.
type barProgress struct {
	bar *progressbar.ProgressBar
}

func (p *barProgress) Start(total int) {
	p.bar = progressbar.Default(int64(total), "extracting")
}

func (p *barProgress) Step() {
	_ = p.bar.Add(1)
}
