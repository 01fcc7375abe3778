package opensooq

import (
	"encoding/json"
	"errors"
	"testing"
)

func wrapNextData(t *testing.T, pageProps any) []byte {
	t.Helper()
	doc := map[string]any{"props": map[string]any{"pageProps": pageProps}}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal pageProps: %v", err)
	}
	return []byte(`<html><head></head><body><div id="__next"></div>` +
		`<script id="__NEXT_DATA__" type="application/json">` + string(raw) + `</script></body></html>`)
}

func TestExtractPageProps(t *testing.T) {
	t.Parallel()

	page := wrapNextData(t, map[string]any{"hello": "world"})
	props, err := ExtractPageProps(page)
	if err != nil {
		t.Fatalf("ExtractPageProps error: %v", err)
	}

	var decoded map[string]string
	if err := json.Unmarshal(props, &decoded); err != nil {
		t.Fatalf("decode pageProps: %v", err)
	}
	if decoded["hello"] != "world" {
		t.Fatalf("unexpected pageProps: %v", decoded)
	}
}

func TestExtractPagePropsMissingBlock(t *testing.T) {
	t.Parallel()

	_, err := ExtractPageProps([]byte(`<html><body><p>maintenance</p></body></html>`))
	if err == nil {
		t.Fatal("expected error for page without state block")
	}
	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError, got %T", err)
	}
}

func TestExtractPagePropsMalformedBlock(t *testing.T) {
	t.Parallel()

	page := []byte(`<html><body><script id="__NEXT_DATA__" type="application/json">{not json</script></body></html>`)
	var extErr *ExtractionError
	if _, err := ExtractPageProps(page); !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestDecodeSerp(t *testing.T) {
	t.Parallel()

	props := wrapNextData(t, map[string]any{
		"serpApiResponse": map[string]any{
			"listings": map[string]any{
				"items": []map[string]any{
					{"id": 101, "title": "First", "posted_at": "أمس", "cat1_label": "Cars"},
					{"id": 102, "title": "Second", "record_insert_date": "2026-08-28"},
				},
				"meta": map[string]any{"pages": 7, "count": 193},
			},
			"facets": map[string]any{
				"items": []map[string]any{
					{"label": "Sedans", "url": "cars/sedans", "url_ar": "سيارات/سيدان", "count": 40},
				},
			},
		},
	})

	raw, err := ExtractPageProps(props)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	serp, err := DecodeSerp(raw)
	if err != nil {
		t.Fatalf("DecodeSerp error: %v", err)
	}

	if len(serp.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(serp.Items))
	}
	if serp.Items[0].ID.String() != "101" || serp.Items[0].PostedAt != "أمس" {
		t.Fatalf("unexpected first item: %+v", serp.Items[0])
	}
	if serp.Items[1].InsertedDate != "2026-08-28" {
		t.Fatalf("unexpected insert date: %s", serp.Items[1].InsertedDate)
	}
	if serp.Meta.Pages != 7 {
		t.Fatalf("expected 7 pages, got %d", serp.Meta.Pages)
	}
	if len(serp.Facets) != 1 || serp.Facets[0].URLAr != "سيارات/سيدان" {
		t.Fatalf("unexpected facets: %+v", serp.Facets)
	}
}

func TestDecodeDetail(t *testing.T) {
	t.Parallel()

	props := wrapNextData(t, map[string]any{
		"postData": map[string]any{
			"listing": map[string]any{
				"listing_id":         55129,
				"title":              "غرفة نوم",
				"masked_description": "بحالة ممتازة",
				"price_amount":       120,
				"member_id":          9087,
				"city":               map[string]any{"id": 2, "label": "الكويت"},
				"media": []map[string]any{
					{"id": 1, "uri": "kw/55129_a", "mime_type": "image/webp"},
				},
				"basic_info": []map[string]any{
					{"field_name": "ConditionUsed", "option_label": "مستعمل"},
				},
				"has_delivery_service": true,
			},
		},
	})

	raw, err := ExtractPageProps(props)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	detail, err := DecodeDetail(raw)
	if err != nil {
		t.Fatalf("DecodeDetail error: %v", err)
	}

	if detail.ListingID.String() != "55129" {
		t.Fatalf("unexpected listing id: %s", detail.ListingID)
	}
	if detail.MemberID.String() != "9087" {
		t.Fatalf("unexpected member id: %s", detail.MemberID)
	}
	if detail.Condition() != "مستعمل" {
		t.Fatalf("unexpected condition: %s", detail.Condition())
	}
	if len(detail.Media) != 1 || detail.Media[0].URI != "kw/55129_a" {
		t.Fatalf("unexpected media: %+v", detail.Media)
	}
	if v, ok := detail.Raw["has_delivery_service"]; !ok || v != true {
		t.Fatalf("raw passthrough missing has_delivery_service: %v", detail.Raw)
	}
}

func TestDecodeDetailWithoutListing(t *testing.T) {
	t.Parallel()

	raw, err := ExtractPageProps(wrapNextData(t, map[string]any{"postData": map[string]any{}}))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	var extErr *ExtractionError
	if _, err := DecodeDetail(raw); !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestDecodeProfile(t *testing.T) {
	t.Parallel()

	props := wrapNextData(t, map[string]any{
		"userInfo": map[string]any{
			"member": map[string]any{
				"id":           9087,
				"full_name":    "أبو فهد",
				"member_since": "2019-04-02",
				"posts_count":  83,
				"views_count":  10233,
				"is_shop":      true,
				"branding":     map[string]any{"name": "معرض الفهد"},
				"rating": map[string]any{
					"average_rating":   4.4,
					"number_of_rating": 31,
					"stats":            map[string]any{"n_star_5_percentage": 72.5},
				},
				"following": map[string]any{"followers_count": 112},
			},
		},
	})

	raw, err := ExtractPageProps(props)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	profile, err := DecodeProfile(raw)
	if err != nil {
		t.Fatalf("DecodeProfile error: %v", err)
	}

	if profile.DisplayName() != "معرض الفهد" {
		t.Fatalf("expected branded name, got %s", profile.DisplayName())
	}
	if avg, _ := profile.Rating.Average.Float64(); avg != 4.4 {
		t.Fatalf("unexpected rating: %v", avg)
	}
	if profile.Following.Followers != 112 {
		t.Fatalf("unexpected followers: %d", profile.Following.Followers)
	}
}
