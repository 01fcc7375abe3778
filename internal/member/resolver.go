// Package member resolves posting members into deduplicated profiles.
package member

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sooqdata/souq-ingest/internal/models"
)

// FetchFunc fetches and normalizes one member profile.
type FetchFunc func(ctx context.Context, memberID string) (models.Member, error)

// Result is the outcome of resolving a run's member references.
type Result struct {
	Members map[string]models.Member
	Skipped []string
}

// Resolver collapses a run's member references into a unique id set and
// fetches each profile at most once, with a bounded worker pool. Profile
// fetch failures skip the member; listings keep their raw member_ref.
type Resolver struct {
	fetch   FetchFunc
	workers int
	log     *slog.Logger
}

// NewResolver wires a resolver with the given fan-out bound.
func NewResolver(fetch FetchFunc, workers int, log *slog.Logger) *Resolver {
	if workers <= 0 {
		workers = 4
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{fetch: fetch, workers: workers, log: log}
}

// Resolve fetches the profile of every unique member id among refs.
// Member fetches are independent; one failure never affects the others.
func (r *Resolver) Resolve(ctx context.Context, refs []models.MemberRef) Result {
	unique := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if ref.MemberID != "" {
			unique[ref.MemberID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(unique))
	for id := range unique {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := Result{Members: make(map[string]models.Member, len(ids))}
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			m, err := r.fetch(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.log.Warn("member fetch skipped", "member_id", id, "err", err)
				result.Skipped = append(result.Skipped, id)
				return nil
			}
			result.Members[id] = m
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(result.Skipped)
	return result
}
