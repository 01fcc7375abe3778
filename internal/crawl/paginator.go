package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sooqdata/souq-ingest/internal/models"
	"github.com/sooqdata/souq-ingest/internal/opensooq"
)

// PageFetcher performs a single HTTP GET with timeout/retry and returns the
// raw page content.
type PageFetcher interface {
	GetPage(ctx context.Context, url string) ([]byte, error)
}

// Target is one category crawl unit: a subcategory of a family.
type Target struct {
	Family string
	Label  string
	Path   string
}

// CategoryResult is the outcome of crawling one target.
type CategoryResult struct {
	Status   models.CategoryStatus
	Listings []models.Listing
	Refs     []models.MemberRef
	Dropped  map[string]int
}

// Paginator walks the pages of one category and emits the listings inside
// the target window. Pages within a category are strictly sequential: the
// stop decision for page n+1 needs page n processed first.
type Paginator struct {
	fetch    PageFetcher
	urls     opensooq.URLs
	window   opensooq.Window
	maxPages int
	now      func() time.Time
	log      *slog.Logger
}

// NewPaginator wires a cutoff-aware paginator for one run window.
func NewPaginator(fetch PageFetcher, urls opensooq.URLs, window opensooq.Window, maxPages int, log *slog.Logger) *Paginator {
	if maxPages <= 0 {
		maxPages = 100
	}
	if log == nil {
		log = slog.Default()
	}
	return &Paginator{
		fetch:    fetch,
		urls:     urls,
		window:   window,
		maxPages: maxPages,
		now:      time.Now,
		log:      log,
	}
}

// Crawl enumerates the target's listings for the run window. Pages arrive
// newest-first, so a non-empty page with only older-than-window entries
// ends the category: no later page can contain qualifying entries. Fetch or
// extraction failures abort the category; it is reported as partial rather
// than silently truncated.
func (p *Paginator) Crawl(ctx context.Context, t Target) CategoryResult {
	res := CategoryResult{
		Status:  models.CategoryStatus{Family: t.Family, Subcategory: t.Label},
		Dropped: make(map[string]int),
	}
	seen := make(map[string]struct{})

	for page := 1; page <= p.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			p.abort(&res, err)
			break
		}

		pageURL := p.urls.CategoryPage(t.Path, page)
		body, err := p.fetch.GetPage(ctx, pageURL)
		if err != nil {
			p.abort(&res, fmt.Errorf("page %d: %w", page, err))
			break
		}
		res.Status.PagesFetched++

		props, err := opensooq.ExtractPageProps(body)
		if err != nil {
			p.abort(&res, fmt.Errorf("page %d: %w", page, err))
			break
		}
		serp, err := opensooq.DecodeSerp(props)
		if err != nil {
			p.abort(&res, fmt.Errorf("page %d: %w", page, err))
			break
		}

		if len(serp.Items) == 0 {
			break
		}

		allOlder := true
		for _, item := range serp.Items {
			switch p.window.Classify(item) {
			case opensooq.RecencyOlder:
				continue
			case opensooq.RecencyNewer, opensooq.RecencyUnknown:
				allOlder = false
				continue
			}
			allOlder = false

			id := item.ID.String()
			if _, dup := seen[id]; dup {
				continue
			}

			listing, ref, err := p.fetchListing(ctx, item, t)
			if err != nil {
				var vErr *opensooq.ValidationError
				if errors.As(err, &vErr) {
					p.log.Warn("listing dropped", "id", id, "reason", vErr.Error())
					res.Dropped[models.DropValidation]++
				} else {
					p.log.Warn("listing dropped", "id", id, "reason", "detail fetch", "err", err)
					res.Dropped[models.DropDetailFetch]++
				}
				continue
			}
			seen[listing.ID] = struct{}{}
			res.Listings = append(res.Listings, listing)
			res.Refs = append(res.Refs, ref)
		}

		ReportProgress(ctx, fmt.Sprintf("%s/%s page %d: %d in window", t.Family, t.Label, page, len(res.Listings)))

		if allOlder {
			break
		}
		if serp.Meta.Pages > 0 && page >= serp.Meta.Pages {
			break
		}
	}

	res.Status.Emitted = len(res.Listings)
	return res
}

// fetchListing pulls a detail page and normalizes it into the canonical
// Listing. Failures here are local to the listing, never to the category.
func (p *Paginator) fetchListing(ctx context.Context, item opensooq.SerpItem, t Target) (models.Listing, models.MemberRef, error) {
	body, err := p.fetch.GetPage(ctx, p.urls.Detail(item.ID.String()))
	if err != nil {
		return models.Listing{}, models.MemberRef{}, err
	}
	props, err := opensooq.ExtractPageProps(body)
	if err != nil {
		return models.Listing{}, models.MemberRef{}, err
	}
	detail, err := opensooq.DecodeDetail(props)
	if err != nil {
		return models.Listing{}, models.MemberRef{}, err
	}

	inserted := item.InsertedDate
	if len(inserted) > 10 {
		inserted = inserted[:10]
	}
	if inserted == "" {
		inserted = p.window.TargetDate()
	}
	return opensooq.NormalizeListing(detail, item, t.Family, inserted, p.now())
}

func (p *Paginator) abort(res *CategoryResult, err error) {
	res.Status.Aborted = true
	res.Status.AbortReason = err.Error()
	p.log.Error("category crawl aborted",
		"family", res.Status.Family, "subcategory", res.Status.Subcategory, "err", err)
}
