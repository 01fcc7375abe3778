package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sooqdata/souq-ingest/internal/models"
	"github.com/sooqdata/souq-ingest/internal/opensooq"
)

// membersObject is the single incrementally-merged member store, keyed
// internally by member_id.
const membersObject = "members/members.json"

// MediaFetcher downloads remote media referenced by listings.
type MediaFetcher interface {
	GetPage(ctx context.Context, url string) ([]byte, error)
}

// Writer persists a run's output: listings grouped into day partitions,
// their media, and the merged member store.
//
// The member store merge is a whole-object read-modify-write. It is safe
// only under single-writer scheduling; two pipeline runs racing on the same
// store root is an accepted hazard left to external scheduling.
type Writer struct {
	store       ObjectStore
	media       MediaFetcher
	root        string
	domain      string
	concurrency int
	log         *slog.Logger
}

// NewWriter wires a partitioned writer. A nil media fetcher disables media
// downloads (listings are still written).
func NewWriter(store ObjectStore, media MediaFetcher, root, domain string, concurrency int, log *slog.Logger) *Writer {
	if concurrency <= 0 {
		concurrency = 4
	}
	if log == nil {
		log = slog.Default()
	}
	return &Writer{
		store:       store,
		media:       media,
		root:        root,
		domain:      domain,
		concurrency: concurrency,
		log:         log,
	}
}

// Write persists listings and resolved members, returning the write report.
// Store-level errors abort the run; media failures only count as skipped.
func (w *Writer) Write(ctx context.Context, listings []models.Listing, members map[string]models.Member, target time.Time) (*models.WriteReport, error) {
	report := &models.WriteReport{}
	var (
		mu         sync.Mutex
		partitions = make(map[string]struct{})
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for i := range listings {
		listing := listings[i]
		g.Go(func() error {
			prefix := w.partitionPrefix(listing.Category, target)
			stored, skipped := w.storeMedia(gctx, prefix, listing)
			listing.StoredMedia = stored

			body, err := json.MarshalIndent(listing, "", "  ")
			if err != nil {
				return fmt.Errorf("encode listing %s: %w", listing.ID, err)
			}
			key := path.Join(prefix, listing.ID+".json")
			if err := w.store.Put(gctx, key, body, "application/json"); err != nil {
				return &WriteError{Key: key, Err: err}
			}

			mu.Lock()
			report.ListingsWritten++
			report.MediaStored += len(stored)
			report.MediaSkipped += skipped
			partitions[prefix] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged, err := w.mergeMembers(ctx, members)
	if err != nil {
		return nil, err
	}
	report.MembersMerged = merged
	if merged > 0 {
		partitions[path.Join(w.root, w.domain, "members")] = struct{}{}
	}

	for p := range partitions {
		report.PartitionsWritten = append(report.PartitionsWritten, p)
	}
	sort.Strings(report.PartitionsWritten)
	return report, nil
}

// storeMedia downloads and stores a listing's media under its partition.
// Keys derive from (listing_id, media_index) so repeated runs overwrite
// rather than duplicate.
func (w *Writer) storeMedia(ctx context.Context, prefix string, listing models.Listing) (stored []string, skipped int) {
	if w.media == nil {
		return nil, 0
	}
	for _, ref := range listing.MediaRefs {
		url := opensooq.MediaURL(ref.URI)
		body, err := w.media.GetPage(ctx, url)
		if err != nil {
			w.log.Warn("media fetch skipped", "listing", listing.ID, "index", ref.Index, "err", err)
			skipped++
			continue
		}
		ext := opensooq.MediaExt(url)
		key := path.Join(prefix, "media", fmt.Sprintf("%s_%d.%s", listing.ID, ref.Index, ext))
		if err := w.store.Put(ctx, key, body, mediaContentType(ext)); err != nil {
			w.log.Warn("media store skipped", "listing", listing.ID, "key", key, "err", err)
			skipped++
			continue
		}
		stored = append(stored, key)
	}
	return stored, skipped
}

// mergeMembers performs the read-merge-write cycle on the member store:
// last write wins per member_id, never duplicating a key.
func (w *Writer) mergeMembers(ctx context.Context, members map[string]models.Member) (int, error) {
	if len(members) == 0 {
		return 0, nil
	}
	key := path.Join(w.root, w.domain, membersObject)

	existing := make(map[string]models.Member)
	body, err := w.store.Get(ctx, key)
	switch {
	case err == nil:
		if err := json.Unmarshal(body, &existing); err != nil {
			return 0, fmt.Errorf("decode member store %s: %w", key, err)
		}
	case errors.Is(err, ErrNotFound):
		// first run against this store root
	default:
		return 0, fmt.Errorf("read member store %s: %w", key, err)
	}

	for id, m := range members {
		existing[id] = m
	}

	out, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode member store: %w", err)
	}
	if err := w.store.Put(ctx, key, out, "application/json"); err != nil {
		return 0, &WriteError{Key: key, Err: err}
	}
	return len(members), nil
}

func (w *Writer) partitionPrefix(cat models.CategoryPath, target time.Time) string {
	return path.Join(
		w.root,
		w.domain,
		keySegment(cat.Family),
		target.Format("2006"),
		target.Format("01"),
		target.Format("02"),
		keySegment(cat.Cat1Label),
		keySegment(cat.Cat2Label),
	)
}

// keySegment makes a taxonomy label safe as a single key path segment.
func keySegment(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "_"
	}
	return strings.ReplaceAll(label, "/", "-")
}

func mediaContentType(ext string) string {
	switch ext {
	case "webp":
		return "image/webp"
	case "png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}
