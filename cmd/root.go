package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/sooqdata/souq-ingest/config"
	"github.com/sooqdata/souq-ingest/internal/fetch"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "souq-ingest",
	Short: "Daily classifieds ingest - crawl, dedup and persist marketplace listings",
	Long:  "Crawls paginated category pages of a classifieds marketplace, keeps the listings of one target day, resolves sellers into a deduplicated profile store and persists everything into partitioned object storage.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("target-date", "", "Target day YYYY-MM-DD (default: yesterday)")
	rootCmd.PersistentFlags().String("categories", "", "Path to the category families YAML file")
	rootCmd.PersistentFlags().Int("concurrency", 0, "Worker pool size for categories, members and media")
	rootCmd.PersistentFlags().Int("max-retries", -1, "Per-fetch retry bound")
	rootCmd.PersistentFlags().String("store-root", "", "Key prefix inside the bucket")
	rootCmd.PersistentFlags().String("bucket", "", "Object store bucket name")
	rootCmd.PersistentFlags().Bool("respect-robots", true, "Respect robots.txt rules")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Crawl into an in-memory store, persist nothing")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	// Override from flags
	if v, _ := rootCmd.PersistentFlags().GetString("target-date"); v != "" {
		cfg.TargetDate = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("categories"); v != "" {
		cfg.CategoriesFile = v
	}
	if v, _ := rootCmd.PersistentFlags().GetInt("concurrency"); v > 0 {
		cfg.Concurrency = v
	}
	if v, _ := rootCmd.PersistentFlags().GetInt("max-retries"); v >= 0 {
		cfg.MaxRetries = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("store-root"); v != "" {
		cfg.StoreRoot = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("bucket"); v != "" {
		cfg.Bucket = v
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("respect-robots"); !v {
		cfg.RespectRobots = false
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("dry-run"); v {
		cfg.DryRun = true
	}
}

// buildHTTPClient creates the politeness-wrapped HTTP client from config.
func buildHTTPClient() *http.Client {
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	robots := fetch.NewRobotsChecker(&http.Client{Timeout: 10 * time.Second}, cfg.RespectRobots)

	transport := &fetch.PoliteTransport{
		Base: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
		},
		Robots:      robots,
		RateLimiter: limiter,
	}
	return fetch.NewHTTPClient(transport, time.Duration(cfg.TimeoutSec)*time.Second)
}
