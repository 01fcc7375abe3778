package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sooqdata/souq-ingest/config"
	"github.com/sooqdata/souq-ingest/internal/crawl"
	"github.com/sooqdata/souq-ingest/internal/fetch"
	"github.com/sooqdata/souq-ingest/internal/logging"
	"github.com/sooqdata/souq-ingest/internal/store"
	"github.com/sooqdata/souq-ingest/internal/ui"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run the daily ingest for the target day",
	RunE:  runCrawl,
}

func init() {
	crawlCmd.Flags().Bool("json", false, "Print the run summary as JSON")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	log := logging.New(cfg.LogLevel)

	families, err := config.LoadFamilies(cfg.CategoriesFile)
	if err != nil {
		return err
	}

	st, err := buildStore(cmd.Context())
	if err != nil {
		return err
	}

	client := fetch.NewClient(buildHTTPClient(), cfg.MaxRetries, log)
	engine := crawl.NewEngine(cfg, families, client, st, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Crawling %d category families...", len(families)))
	ctx = crawl.WithProgress(ctx, spin.Update)

	summary, runErr := engine.Run(ctx)
	spin.Stop()

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		printSummaryJSON(summary)
	} else {
		printSummary(summary)
	}
	return runErr
}

// buildStore picks the object store: in-memory for dry runs, S3 otherwise.
func buildStore(ctx context.Context) (store.ObjectStore, error) {
	if cfg.DryRun {
		return store.NewMemory(), nil
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("no bucket configured; set SOUQ_STORE_BUCKET or pass --bucket (or --dry-run)")
	}
	return store.NewS3(ctx, cfg.Bucket, cfg.Region)
}
