package opensooq

import (
	"fmt"
	"strings"
)

// mediaCDN is the preview endpoint bare media URIs expand through.
const mediaCDN = "https://opensooq-images.os-cdn.com/previews/300x0"

// URLs builds the site URLs the engine fetches.
type URLs struct {
	Base string // e.g. https://kw.opensooq.com
	Lang string // e.g. ar
}

// CategoryPage returns the paginated URL of a category results page.
func (u URLs) CategoryPage(path string, page int) string {
	base := fmt.Sprintf("%s/%s/%s", strings.TrimRight(u.Base, "/"), u.Lang, strings.Trim(path, "/"))
	if page <= 1 {
		return base
	}
	return fmt.Sprintf("%s?page=%d", base, page)
}

// Detail returns the URL of a listing detail page.
func (u URLs) Detail(listingID string) string {
	return fmt.Sprintf("%s/%s/search/%s", strings.TrimRight(u.Base, "/"), u.Lang, listingID)
}

// Member returns the URL of a member profile page. Profile paths carry a
// "member-" prefix before the id.
func (u URLs) Member(memberID string) string {
	return fmt.Sprintf("%s/%s/mid/member-%s", strings.TrimRight(u.Base, "/"), u.Lang, memberID)
}

// MediaURL expands a media reference into a fetchable CDN URL. References
// that already point at a preview pass through unchanged.
func MediaURL(uri string) string {
	if strings.Contains(uri, "previews") || strings.HasPrefix(uri, "http") {
		return uri
	}
	return fmt.Sprintf("%s/%s.webp", mediaCDN, strings.TrimLeft(uri, "/"))
}

// MediaExt derives the stored file extension from a media URL.
func MediaExt(url string) string {
	switch {
	case strings.Contains(url, ".webp"):
		return "webp"
	case strings.Contains(url, ".png"):
		return "png"
	default:
		return "jpg"
	}
}
