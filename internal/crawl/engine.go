// Package crawl drives the daily ingest pipeline: paginated category
// crawls, member resolution and partitioned persistence.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sooqdata/souq-ingest/config"
	"github.com/sooqdata/souq-ingest/internal/member"
	"github.com/sooqdata/souq-ingest/internal/models"
	"github.com/sooqdata/souq-ingest/internal/opensooq"
	"github.com/sooqdata/souq-ingest/internal/store"
)

// Engine runs the whole pipeline for one target day. Categories crawl
// concurrently up to the configured bound; a failure in one category never
// cancels the others. Store-level write errors are the only fatal outcome.
type Engine struct {
	cfg      *config.Config
	families []config.Family
	fetcher  PageFetcher
	store    store.ObjectStore
	urls     opensooq.URLs
	log      *slog.Logger
	now      func() time.Time
}

// NewEngine wires a run engine.
func NewEngine(cfg *config.Config, families []config.Family, fetcher PageFetcher, st store.ObjectStore, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		families: families,
		fetcher:  fetcher,
		store:    st,
		urls:     opensooq.URLs{Base: cfg.BaseURL, Lang: cfg.Lang},
		log:      log,
		now:      time.Now,
	}
}

// Run executes the pipeline and returns the run summary. The summary is the
// caller's contract: it is returned even when the run ends fatally.
func (e *Engine) Run(ctx context.Context) (*models.RunSummary, error) {
	started := e.now()
	summary := &models.RunSummary{
		RunID:           uuid.NewString(),
		StartedAt:       started,
		ListingsDropped: make(map[string]int),
	}

	target, err := e.cfg.ResolveTargetDate(started)
	if err != nil {
		summary.FatalError = err.Error()
		summary.FinishedAt = e.now()
		return summary, err
	}
	window := opensooq.NewWindow(target, e.cfg.Location())
	summary.TargetDate = window.TargetDate()
	e.log.Info("run started", "run_id", summary.RunID, "target_date", summary.TargetDate)

	targets, failed := e.expandTargets(ctx)
	summary.Categories = append(summary.Categories, failed...)

	paginator := NewPaginator(e.fetcher, e.urls, window, e.cfg.MaxPages, e.log)

	var (
		mu      sync.Mutex
		results []CategoryResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			res := paginator.Crawl(gctx, t)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i].Status, results[j].Status
		if a.Family != b.Family {
			return a.Family < b.Family
		}
		return a.Subcategory < b.Subcategory
	})

	var (
		listings []models.Listing
		refs     []models.MemberRef
	)
	for _, res := range results {
		summary.Categories = append(summary.Categories, res.Status)
		listings = append(listings, res.Listings...)
		refs = append(refs, res.Refs...)
		for reason, n := range res.Dropped {
			summary.ListingsDropped[reason] += n
		}
	}
	summary.ListingsEmitted = len(listings)

	ReportProgress(ctx, fmt.Sprintf("resolving %d member refs", len(refs)))
	resolver := member.NewResolver(e.fetchMember, e.cfg.Concurrency, e.log)
	resolved := resolver.Resolve(ctx, refs)
	summary.MembersResolved = len(resolved.Members)
	summary.MembersSkipped = len(resolved.Skipped)

	ReportProgress(ctx, fmt.Sprintf("writing %d listings", len(listings)))
	writer := store.NewWriter(e.store, e.fetcher, e.cfg.StoreRoot, e.cfg.Domain, e.cfg.Concurrency, e.log)
	report, err := writer.Write(ctx, listings, resolved.Members, target)
	if err != nil {
		summary.FatalError = err.Error()
		summary.FinishedAt = e.now()
		return summary, err
	}
	summary.Write = report
	summary.FinishedAt = e.now()

	e.log.Info("run finished",
		"run_id", summary.RunID,
		"listings", summary.ListingsEmitted,
		"members", summary.MembersResolved,
		"partitions", len(report.PartitionsWritten))
	return summary, nil
}

// expandTargets turns configured families into crawl targets, discovering
// subcategories from landing-page facets where requested. A failed
// discovery aborts only that family.
func (e *Engine) expandTargets(ctx context.Context) ([]Target, []models.CategoryStatus) {
	var (
		targets []Target
		failed  []models.CategoryStatus
	)
	for _, fam := range e.families {
		if !fam.Discover {
			for _, sub := range fam.Subcategories {
				targets = append(targets, Target{Family: fam.Name, Label: sub.Label, Path: sub.Path})
			}
			continue
		}

		facets, err := e.discoverSubcategories(ctx, fam)
		if err != nil {
			e.log.Error("subcategory discovery failed", "family", fam.Name, "err", err)
			failed = append(failed, models.CategoryStatus{
				Family:      fam.Name,
				Aborted:     true,
				AbortReason: fmt.Sprintf("subcategory discovery: %v", err),
			})
			continue
		}
		targets = append(targets, facets...)
	}
	return targets, failed
}

func (e *Engine) discoverSubcategories(ctx context.Context, fam config.Family) ([]Target, error) {
	body, err := e.fetcher.GetPage(ctx, e.urls.CategoryPage(fam.Path, 1))
	if err != nil {
		return nil, err
	}
	props, err := opensooq.ExtractPageProps(body)
	if err != nil {
		return nil, err
	}
	serp, err := opensooq.DecodeSerp(props)
	if err != nil {
		return nil, err
	}

	var targets []Target
	for _, facet := range serp.Facets {
		path := facet.URLAr
		if path == "" {
			path = facet.URL
		}
		if facet.Label == "" || path == "" {
			continue
		}
		targets = append(targets, Target{Family: fam.Name, Label: facet.Label, Path: path})
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("landing page lists no subcategories")
	}
	return targets, nil
}

// fetchMember pulls one profile page and normalizes it.
func (e *Engine) fetchMember(ctx context.Context, memberID string) (models.Member, error) {
	body, err := e.fetcher.GetPage(ctx, e.urls.Member(memberID))
	if err != nil {
		return models.Member{}, err
	}
	props, err := opensooq.ExtractPageProps(body)
	if err != nil {
		return models.Member{}, err
	}
	profile, err := opensooq.DecodeProfile(props)
	if err != nil {
		return models.Member{}, err
	}
	return opensooq.NormalizeMember(profile, memberID, e.now())
}
