package opensooq

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// stateBlockSelector locates the single inline script block the site uses to
// ship its client-side state with every server-rendered page.
const stateBlockSelector = "script#__NEXT_DATA__"

// ExtractionError reports an absent or malformed embedded state block.
// A page without the block almost always means the site layout changed,
// so it surfaces as a fetch-level failure instead of an empty result.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract state payload: %s: %v", e.Reason, e.Err)
	}
	return "extract state payload: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ExtractPageProps locates the embedded state block in a rendered page and
// returns its pageProps subtree undecoded.
func ExtractPageProps(page []byte) (json.RawMessage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, &ExtractionError{Reason: "parse html", Err: err}
	}

	sel := doc.Find(stateBlockSelector).First()
	if sel.Length() == 0 {
		return nil, &ExtractionError{Reason: "state block not found"}
	}

	var envelope struct {
		Props struct {
			PageProps json.RawMessage `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(sel.Text()), &envelope); err != nil {
		return nil, &ExtractionError{Reason: "decode state block", Err: err}
	}
	if len(envelope.Props.PageProps) == 0 {
		return nil, &ExtractionError{Reason: "state block has no pageProps"}
	}
	return envelope.Props.PageProps, nil
}

// SerpItem is one listing entry on a category results page.
type SerpItem struct {
	ID           json.Number `json:"id"`
	Title        string      `json:"title"`
	PostedAt     string      `json:"posted_at"`
	InsertedDate string      `json:"record_insert_date"`
	Cat1Code     string      `json:"cat1_code"`
	Cat1Label    string      `json:"cat1_label"`
	Cat2Code     string      `json:"cat2_code"`
	Cat2Label    string      `json:"cat2_label"`
	PostURL      string      `json:"post_url"`
}

// SerpMeta carries result-set pagination info.
type SerpMeta struct {
	Pages int `json:"pages"`
	Count int `json:"count"`
}

// Facet is a subcategory entry on a category landing page.
type Facet struct {
	Label string `json:"label"`
	URL   string `json:"url"`
	URLAr string `json:"url_ar"`
	Count int    `json:"count"`
}

// SerpPage is the decoded listings view of a category results page.
type SerpPage struct {
	Items  []SerpItem
	Meta   SerpMeta
	Facets []Facet
}

// DecodeSerp unpacks the listings and facets of a category page payload.
func DecodeSerp(pageProps json.RawMessage) (*SerpPage, error) {
	var props struct {
		SerpAPIResponse struct {
			Listings struct {
				Items []SerpItem `json:"items"`
				Meta  SerpMeta   `json:"meta"`
			} `json:"listings"`
			Facets struct {
				Items []Facet `json:"items"`
			} `json:"facets"`
		} `json:"serpApiResponse"`
	}
	if err := json.Unmarshal(pageProps, &props); err != nil {
		return nil, &ExtractionError{Reason: "decode serp payload", Err: err}
	}
	return &SerpPage{
		Items:  props.SerpAPIResponse.Listings.Items,
		Meta:   props.SerpAPIResponse.Listings.Meta,
		Facets: props.SerpAPIResponse.Facets.Items,
	}, nil
}

type labelObj struct {
	ID    json.Number `json:"id"`
	Label string      `json:"label"`
}

// MediaItem is one remote image attached to a listing detail payload.
type MediaItem struct {
	ID       json.Number `json:"id"`
	URI      string      `json:"uri"`
	MimeType string      `json:"mime_type"`
}

type basicInfo struct {
	FieldName   string `json:"field_name"`
	OptionLabel string `json:"option_label"`
}

// Detail is the decoded listing view of a detail page payload. Raw keeps the
// full listing object for opportunistic field passthrough.
type Detail struct {
	ListingID    json.Number `json:"listing_id"`
	Title        string      `json:"title"`
	Description  string      `json:"masked_description"`
	PriceAmount  json.Number `json:"price_amount"`
	PostedDate   string      `json:"posted_date"`
	PublishDate  string      `json:"publish_date"`
	City         labelObj    `json:"city"`
	Neighborhood labelObj    `json:"neighborhood"`
	Category     labelObj    `json:"category"`
	SubCategory  labelObj    `json:"sub_category"`
	MemberID     json.Number `json:"member_id"`
	Media        []MediaItem `json:"media"`
	BasicInfo    []basicInfo `json:"basic_info"`

	Raw map[string]any `json:"-"`
}

// Condition returns the used/new condition label when the detail carries one.
func (d *Detail) Condition() string {
	for _, info := range d.BasicInfo {
		if info.FieldName == "ConditionUsed" {
			return info.OptionLabel
		}
	}
	return ""
}

// DecodeDetail unpacks the postData.listing subtree of a detail page payload.
func DecodeDetail(pageProps json.RawMessage) (*Detail, error) {
	var props struct {
		PostData struct {
			Listing json.RawMessage `json:"listing"`
		} `json:"postData"`
	}
	if err := json.Unmarshal(pageProps, &props); err != nil {
		return nil, &ExtractionError{Reason: "decode detail payload", Err: err}
	}
	if len(props.PostData.Listing) == 0 {
		return nil, &ExtractionError{Reason: "detail payload has no listing"}
	}

	var detail Detail
	if err := json.Unmarshal(props.PostData.Listing, &detail); err != nil {
		return nil, &ExtractionError{Reason: "decode listing", Err: err}
	}
	if err := json.Unmarshal(props.PostData.Listing, &detail.Raw); err != nil {
		return nil, &ExtractionError{Reason: "decode listing fields", Err: err}
	}
	return &detail, nil
}

// Profile is the decoded member view of a profile page payload.
type Profile struct {
	ID           json.Number `json:"id"`
	FullName     string      `json:"full_name"`
	MemberSince  string      `json:"member_since"`
	PostsCount   int         `json:"posts_count"`
	ViewsCount   int         `json:"views_count"`
	IsShop       bool        `json:"is_shop"`
	Verification int         `json:"verification_level"`
	Branding     struct {
		Name string `json:"name"`
	} `json:"branding"`
	Rating struct {
		Average json.Number        `json:"average_rating"`
		Count   int                `json:"number_of_rating"`
		Stats   map[string]float64 `json:"stats"`
	} `json:"rating"`
	Following struct {
		Followers int `json:"followers_count"`
	} `json:"following"`
}

// DisplayName prefers the branded shop name over the account name.
func (p *Profile) DisplayName() string {
	if p.Branding.Name != "" {
		return p.Branding.Name
	}
	return p.FullName
}

// DecodeProfile unpacks the userInfo.member subtree of a profile page payload.
func DecodeProfile(pageProps json.RawMessage) (*Profile, error) {
	var props struct {
		UserInfo struct {
			Member json.RawMessage `json:"member"`
		} `json:"userInfo"`
	}
	if err := json.Unmarshal(pageProps, &props); err != nil {
		return nil, &ExtractionError{Reason: "decode profile payload", Err: err}
	}
	if len(props.UserInfo.Member) == 0 {
		return nil, &ExtractionError{Reason: "profile payload has no member"}
	}

	var profile Profile
	if err := json.Unmarshal(props.UserInfo.Member, &profile); err != nil {
		return nil, &ExtractionError{Reason: "decode member", Err: err}
	}
	return &profile, nil
}
