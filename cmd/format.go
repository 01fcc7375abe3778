package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sooqdata/souq-ingest/internal/models"
)

// printSummary prints a run summary in a human-friendly layout.
func printSummary(s *models.RunSummary) {
	fmt.Fprintf(os.Stdout, "Run %s - target day %s (%s)\n\n",
		s.RunID, s.TargetDate, s.FinishedAt.Sub(s.StartedAt).Round(1e9))

	for _, cat := range s.Categories {
		status := fmt.Sprintf("%d pages, %d listings", cat.PagesFetched, cat.Emitted)
		if cat.Aborted {
			status = "ABORTED: " + cat.AbortReason
		}
		name := cat.Family
		if cat.Subcategory != "" {
			name += "/" + cat.Subcategory
		}
		fmt.Fprintf(os.Stdout, "  %-50s %s\n", name, status)
	}

	fmt.Fprintf(os.Stdout, "\nListings emitted: %d\n", s.ListingsEmitted)
	if len(s.ListingsDropped) > 0 {
		var parts []string
		reasons := make([]string, 0, len(s.ListingsDropped))
		for r := range s.ListingsDropped {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		for _, r := range reasons {
			parts = append(parts, fmt.Sprintf("%s=%d", r, s.ListingsDropped[r]))
		}
		fmt.Fprintf(os.Stdout, "Listings dropped: %s\n", strings.Join(parts, ", "))
	}
	fmt.Fprintf(os.Stdout, "Members resolved: %d (skipped %d)\n", s.MembersResolved, s.MembersSkipped)

	if s.Write != nil {
		fmt.Fprintf(os.Stdout, "Written: %d listings, %d media (%d skipped), %d members merged\n",
			s.Write.ListingsWritten, s.Write.MediaStored, s.Write.MediaSkipped, s.Write.MembersMerged)
		fmt.Fprintf(os.Stdout, "Partitions:\n")
		for _, p := range s.Write.PartitionsWritten {
			fmt.Fprintf(os.Stdout, "  %s\n", p)
		}
	}
	if s.FatalError != "" {
		fmt.Fprintf(os.Stdout, "\nFATAL: %s\n", s.FatalError)
	}
}

// printSummaryJSON prints the summary as indented JSON for machine callers.
func printSummaryJSON(s *models.RunSummary) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
}
