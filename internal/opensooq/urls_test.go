package opensooq

import "testing"

func TestCategoryPage(t *testing.T) {
	t.Parallel()

	u := URLs{Base: "https://kw.opensooq.com/", Lang: "ar"}
	if got := u.CategoryPage("/عقارات-للبيع/", 1); got != "https://kw.opensooq.com/ar/عقارات-للبيع" {
		t.Fatalf("unexpected first page url %s", got)
	}
	if got := u.CategoryPage("عقارات-للبيع", 4); got != "https://kw.opensooq.com/ar/عقارات-للبيع?page=4" {
		t.Fatalf("unexpected paged url %s", got)
	}
}

func TestDetailAndMemberURLs(t *testing.T) {
	t.Parallel()

	u := URLs{Base: "https://kw.opensooq.com", Lang: "ar"}
	if got := u.Detail("55129"); got != "https://kw.opensooq.com/ar/search/55129" {
		t.Fatalf("unexpected detail url %s", got)
	}
	if got := u.Member("9087"); got != "https://kw.opensooq.com/ar/mid/member-9087" {
		t.Fatalf("unexpected member url %s", got)
	}
}

func TestMediaURL(t *testing.T) {
	t.Parallel()

	if got := MediaURL("kw/55129_a"); got != "https://opensooq-images.os-cdn.com/previews/300x0/kw/55129_a.webp" {
		t.Fatalf("unexpected expanded url %s", got)
	}
	full := "https://opensooq-images.os-cdn.com/previews/300x0/kw/55129_a.webp"
	if got := MediaURL(full); got != full {
		t.Fatalf("full url should pass through, got %s", got)
	}
}

func TestMediaExt(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://cdn/previews/a.webp": "webp",
		"https://cdn/previews/a.png":  "png",
		"https://cdn/previews/a.jpeg": "jpg",
	}
	for url, want := range cases {
		if got := MediaExt(url); got != want {
			t.Errorf("MediaExt(%q) = %q, want %q", url, got, want)
		}
	}
}
