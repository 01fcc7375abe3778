package opensooq

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func sampleDetail() *Detail {
	return &Detail{
		ListingID:   json.Number("55129"),
		Title:       "غرفة نوم كاملة",
		Description: "بحالة ممتازة",
		PriceAmount: json.Number("120"),
		MemberID:    json.Number("9087"),
		Category:    labelObj{Label: "أثاث"},
		SubCategory: labelObj{Label: "غرف نوم"},
		Media: []MediaItem{
			{ID: json.Number("1"), URI: "kw/55129_a"},
			{ID: json.Number("2"), URI: ""},
			{ID: json.Number("3"), URI: "kw/55129_c"},
		},
		BasicInfo: []basicInfo{{FieldName: "ConditionUsed", OptionLabel: "مستعمل"}},
		Raw: map[string]any{
			"listing_id":           float64(55129),
			"title":                "غرفة نوم كاملة",
			"media":                []any{},
			"member_id":            float64(9087),
			"price_amount":         float64(120),
			"has_delivery_service": true,
		},
	}
}

func TestNormalizeListing(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 29, 6, 0, 0, 0, time.UTC)
	item := SerpItem{
		ID:           json.Number("55129"),
		PostedAt:     "أمس",
		Cat1Code:     "furniture",
		Cat1Label:    "أثاث منزلي",
		Cat2Code:     "bedrooms",
		Cat2Label:    "غرف نوم",
		InsertedDate: "2026-08-28",
	}

	listing, ref, err := NormalizeListing(sampleDetail(), item, "home-garden", "2026-08-28", now)
	if err != nil {
		t.Fatalf("NormalizeListing error: %v", err)
	}

	if listing.ID != "55129" {
		t.Fatalf("unexpected id %s", listing.ID)
	}
	if listing.Category.Family != "home-garden" || listing.Category.Cat1Label != "أثاث منزلي" {
		t.Fatalf("unexpected category %+v", listing.Category)
	}
	if listing.PostedAt != "أمس" || listing.InsertedDate != "2026-08-28" {
		t.Fatalf("unexpected timing fields %+v", listing)
	}
	if ref.MemberID != "9087" || listing.MemberID != "9087" {
		t.Fatalf("unexpected member ref %+v", ref)
	}
	if !listing.ScrapedAt.Equal(now) {
		t.Fatalf("unexpected scraped_at %v", listing.ScrapedAt)
	}

	// lifted keys stay out of the passthrough map, the rest stays in
	for _, k := range []string{"listing_id", "title", "media", "member_id"} {
		if _, ok := listing.Fields[k]; ok {
			t.Errorf("lifted key %q leaked into fields", k)
		}
	}
	if listing.Fields["price_amount"] != float64(120) {
		t.Errorf("passthrough field missing: %v", listing.Fields)
	}
	if listing.Fields["condition"] != "مستعمل" {
		t.Errorf("condition not promoted: %v", listing.Fields["condition"])
	}

	// empty-URI media entries are dropped, indices keep source order
	if len(listing.MediaRefs) != 2 {
		t.Fatalf("expected 2 media refs, got %d", len(listing.MediaRefs))
	}
	if listing.MediaRefs[0].Index != 0 || listing.MediaRefs[1].Index != 2 {
		t.Fatalf("unexpected media indices %+v", listing.MediaRefs)
	}
}

func TestNormalizeListingFallbacks(t *testing.T) {
	t.Parallel()

	detail := sampleDetail()
	detail.ListingID = json.Number("0")
	detail.PostedDate = "2026-08-28"

	item := SerpItem{ID: json.Number("918")}
	listing, _, err := NormalizeListing(detail, item, "home-garden", "2026-08-28", time.Now())
	if err != nil {
		t.Fatalf("NormalizeListing error: %v", err)
	}
	if listing.ID != "918" {
		t.Fatalf("expected serp id fallback, got %s", listing.ID)
	}
	if listing.Category.Cat1Label != "أثاث" {
		t.Fatalf("expected detail category fallback, got %s", listing.Category.Cat1Label)
	}
	if listing.PostedAt != "2026-08-28" {
		t.Fatalf("expected detail posted date fallback, got %s", listing.PostedAt)
	}
}

func TestNormalizeListingValidation(t *testing.T) {
	t.Parallel()

	item := SerpItem{ID: json.Number("55129"), PostedAt: "أمس", Cat1Label: "أثاث"}

	cases := []struct {
		name   string
		detail func() *Detail
		item   SerpItem
		field  string
	}{
		{
			name: "missing id",
			detail: func() *Detail {
				d := sampleDetail()
				d.ListingID = json.Number("")
				return d
			},
			item:  SerpItem{PostedAt: "أمس", Cat1Label: "أثاث"},
			field: "id",
		},
		{
			name: "missing category",
			detail: func() *Detail {
				d := sampleDetail()
				d.Category = labelObj{}
				return d
			},
			item:  SerpItem{ID: json.Number("55129"), PostedAt: "أمس"},
			field: "category_path",
		},
		{
			name: "missing posted_at",
			detail: func() *Detail {
				return sampleDetail()
			},
			item:  SerpItem{ID: json.Number("55129"), Cat1Label: "أثاث"},
			field: "posted_at",
		},
		{
			name: "missing member",
			detail: func() *Detail {
				d := sampleDetail()
				d.MemberID = json.Number("0")
				return d
			},
			item:  item,
			field: "member_ref",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := NormalizeListing(tc.detail(), tc.item, "home-garden", "2026-08-28", time.Now())
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, vErr.Field)
			}
		})
	}
}

func TestNormalizeMember(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 29, 6, 0, 0, 0, time.UTC)
	profile := &Profile{
		ID:          json.Number("9087"),
		FullName:    "أبو فهد",
		MemberSince: "2019-04-02",
		PostsCount:  83,
		ViewsCount:  10233,
		IsShop:      true,
	}
	profile.Branding.Name = "معرض الفهد"
	profile.Rating.Average = json.Number("4.4")
	profile.Rating.Count = 31
	profile.Following.Followers = 112

	member, err := NormalizeMember(profile, "9087", now)
	if err != nil {
		t.Fatalf("NormalizeMember error: %v", err)
	}
	if member.MemberID != "9087" || member.DisplayName != "معرض الفهد" {
		t.Fatalf("unexpected member %+v", member)
	}
	if member.Rating.Average != 4.4 || member.Rating.Count != 31 {
		t.Fatalf("unexpected rating %+v", member.Rating)
	}
	if member.Activity.Posts != 83 || member.Activity.Followers != 112 {
		t.Fatalf("unexpected activity %+v", member.Activity)
	}
	if !member.IsShop || !member.LastUpdated.Equal(now) {
		t.Fatalf("unexpected flags %+v", member)
	}
}

func TestNormalizeMemberFallbackID(t *testing.T) {
	t.Parallel()

	member, err := NormalizeMember(&Profile{FullName: "مجهول"}, "441", time.Now())
	if err != nil {
		t.Fatalf("NormalizeMember error: %v", err)
	}
	if member.MemberID != "441" {
		t.Fatalf("expected fallback id, got %s", member.MemberID)
	}
}
