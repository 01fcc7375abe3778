package models

import "time"

// CategoryPath identifies where a listing sits in the site taxonomy:
// a category family (the crawl unit from configuration) plus the
// primary/secondary category codes and display labels reported by the site.
type CategoryPath struct {
	Family    string `json:"family"`
	Cat1Code  string `json:"cat1_code,omitempty"`
	Cat1Label string `json:"cat1_label"`
	Cat2Code  string `json:"cat2_code,omitempty"`
	Cat2Label string `json:"cat2_label"`
}

// MediaRef is a remote image reference attached to a listing, not yet fetched.
type MediaRef struct {
	ID    string `json:"id,omitempty"`
	URI   string `json:"uri"`
	Index int    `json:"index"`
}

// Listing is one marketplace post, assembled from a detail-page fetch.
// Immutable after creation; each run writes a fresh day partition.
type Listing struct {
	ID           string         `json:"listing_id"`
	Title        string         `json:"title"`
	Category     CategoryPath   `json:"category"`
	PostedAt     string         `json:"posted_at"`     // as rendered by the site
	InsertedDate string         `json:"inserted_date"` // normalized YYYY-MM-DD
	Fields       map[string]any `json:"fields,omitempty"`
	MediaRefs    []MediaRef     `json:"media,omitempty"`
	MemberID     string         `json:"member_id"`
	StoredMedia  []string       `json:"stored_media,omitempty"`
	ScrapedAt    time.Time      `json:"scraped_at"`
}

// MemberRef is a weak pointer to the posting member, collected during
// normalization. Many listings may share one ref.
type MemberRef struct {
	MemberID string `json:"member_id"`
}

// MemberRating aggregates a seller's rating data.
type MemberRating struct {
	Average float64            `json:"average,omitempty"`
	Count   int                `json:"count,omitempty"`
	Aspects map[string]float64 `json:"aspects,omitempty"`
}

// MemberActivity holds a seller's activity counters.
type MemberActivity struct {
	Posts     int `json:"posts,omitempty"`
	Views     int `json:"views,omitempty"`
	Followers int `json:"followers,omitempty"`
}

// Member is a resolved seller profile. The persisted member store is keyed
// by MemberID; re-encountering a member overwrites its record.
type Member struct {
	MemberID          string         `json:"member_id"`
	DisplayName       string         `json:"display_name"`
	MemberSince       string         `json:"member_since,omitempty"`
	Rating            MemberRating   `json:"rating"`
	Activity          MemberActivity `json:"activity"`
	VerificationLevel int            `json:"verification_level,omitempty"`
	IsShop            bool           `json:"is_shop,omitempty"`
	LastUpdated       time.Time      `json:"last_updated"`
}

// Drop reasons recorded per discarded record in the run summary.
const (
	DropValidation  = "validation"
	DropDetailFetch = "detail_fetch"
)

// CategoryStatus summarizes one category crawl in the run report.
type CategoryStatus struct {
	Family       string `json:"family"`
	Subcategory  string `json:"subcategory,omitempty"`
	PagesFetched int    `json:"pages_fetched"`
	Emitted      int    `json:"emitted"`
	Aborted      bool   `json:"aborted,omitempty"`
	AbortReason  string `json:"abort_reason,omitempty"`
}

// WriteReport is returned by the partitioned writer.
type WriteReport struct {
	ListingsWritten   int      `json:"listings_written"`
	MediaStored       int      `json:"media_stored"`
	MediaSkipped      int      `json:"media_skipped"`
	MembersMerged     int      `json:"members_merged"`
	PartitionsWritten []string `json:"partitions_written"`
}

// RunSummary is the caller-facing contract of a pipeline run.
type RunSummary struct {
	RunID           string           `json:"run_id"`
	TargetDate      string           `json:"target_date"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	Categories      []CategoryStatus `json:"categories"`
	ListingsEmitted int              `json:"listings_emitted"`
	ListingsDropped map[string]int   `json:"listings_dropped,omitempty"`
	MembersResolved int              `json:"members_resolved"`
	MembersSkipped  int              `json:"members_skipped"`
	Write           *WriteReport     `json:"write,omitempty"`
	FatalError      string           `json:"fatal_error,omitempty"`
}
