package opensooq

import (
	"fmt"
	"time"

	"github.com/sooqdata/souq-ingest/internal/models"
)

// ValidationError reports a normalized record missing a required field.
// The record is dropped and counted; the run continues.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "listing missing required field: " + e.Field
}

// keys lifted into the typed Listing, excluded from the open Fields map
var liftedKeys = map[string]struct{}{
	"listing_id": {},
	"title":      {},
	"media":      {},
	"seller":     {},
	"member_id":  {},
}

// NormalizeListing maps a decoded detail payload and the SERP entry it came
// from into the canonical Listing plus its MemberRef. Required fields are
// id, category, posted_at and member_id; everything else passes through
// opportunistically.
func NormalizeListing(detail *Detail, item SerpItem, family string, insertedDate string, now time.Time) (models.Listing, models.MemberRef, error) {
	id := detail.ListingID.String()
	if id == "" || id == "0" {
		id = item.ID.String()
	}
	if id == "" || id == "0" {
		return models.Listing{}, models.MemberRef{}, &ValidationError{Field: "id"}
	}

	cat := models.CategoryPath{
		Family:    family,
		Cat1Code:  item.Cat1Code,
		Cat1Label: item.Cat1Label,
		Cat2Code:  item.Cat2Code,
		Cat2Label: item.Cat2Label,
	}
	if cat.Cat1Label == "" {
		cat.Cat1Label = detail.Category.Label
	}
	if cat.Cat2Label == "" {
		cat.Cat2Label = detail.SubCategory.Label
	}
	if cat.Cat1Label == "" {
		return models.Listing{}, models.MemberRef{}, &ValidationError{Field: "category_path"}
	}

	postedAt := item.PostedAt
	if postedAt == "" {
		postedAt = detail.PostedDate
	}
	if postedAt == "" {
		return models.Listing{}, models.MemberRef{}, &ValidationError{Field: "posted_at"}
	}

	memberID := detail.MemberID.String()
	if memberID == "" || memberID == "0" {
		return models.Listing{}, models.MemberRef{}, &ValidationError{Field: "member_ref"}
	}

	fields := make(map[string]any, len(detail.Raw))
	for k, v := range detail.Raw {
		if _, lifted := liftedKeys[k]; lifted {
			continue
		}
		fields[k] = v
	}
	if cond := detail.Condition(); cond != "" {
		fields["condition"] = cond
	}

	media := make([]models.MediaRef, 0, len(detail.Media))
	for i, m := range detail.Media {
		if m.URI == "" {
			continue
		}
		media = append(media, models.MediaRef{
			ID:    m.ID.String(),
			URI:   m.URI,
			Index: i,
		})
	}

	listing := models.Listing{
		ID:           id,
		Title:        detail.Title,
		Category:     cat,
		PostedAt:     postedAt,
		InsertedDate: insertedDate,
		Fields:       fields,
		MediaRefs:    media,
		MemberID:     memberID,
		ScrapedAt:    now,
	}
	return listing, models.MemberRef{MemberID: memberID}, nil
}

// NormalizeMember maps a decoded profile payload into the canonical Member.
func NormalizeMember(profile *Profile, memberID string, now time.Time) (models.Member, error) {
	id := profile.ID.String()
	if id == "" || id == "0" {
		id = memberID
	}
	if id == "" {
		return models.Member{}, fmt.Errorf("member profile without id")
	}

	avg, _ := profile.Rating.Average.Float64()
	return models.Member{
		MemberID:    id,
		DisplayName: profile.DisplayName(),
		MemberSince: profile.MemberSince,
		Rating: models.MemberRating{
			Average: avg,
			Count:   profile.Rating.Count,
			Aspects: profile.Rating.Stats,
		},
		Activity: models.MemberActivity{
			Posts:     profile.PostsCount,
			Views:     profile.ViewsCount,
			Followers: profile.Following.Followers,
		},
		VerificationLevel: profile.Verification,
		IsShop:            profile.IsShop,
		LastUpdated:       now,
	}, nil
}
