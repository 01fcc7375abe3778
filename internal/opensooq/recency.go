package opensooq

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Recency classifies a listing entry against the run's target window.
type Recency int

const (
	// RecencyIn — inside the target window, emit.
	RecencyIn Recency = iota
	// RecencyNewer — posted after the window (e.g. today when targeting
	// yesterday); skipped but never triggers the category cutoff.
	RecencyNewer
	// RecencyOlder — posted before the window; a fully-older page stops
	// the category, since pages arrive newest-first.
	RecencyOlder
	// RecencyUnknown — unparseable representation; skipped, no cutoff.
	RecencyUnknown
)

// relative-phrase patterns as the site renders them (Arabic)
var (
	hoursExpr  = regexp.MustCompile(`قبل (\d+) ساع`)
	daysExpr   = regexp.MustCompile(`قبل (\d+) (?:يوم|أيام)`)
	weeksExpr  = regexp.MustCompile(`قبل (\d+) (?:أسبوع|أسابيع)`)
	monthsExpr = regexp.MustCompile(`قبل (\d+) (?:شهر|أشهر|شهور)`)
)

// maxRelativeHours is the band within which hour-granularity phrases are
// accepted as in-window. The site rounds relative phrases, so an "hour ago"
// entry on a page crawled shortly after midnight may well belong to the
// target day; hour counts up to 48 are taken at face value.
const maxRelativeHours = 48

// Window is the target calendar day, [Start, Start+24h) in its location.
type Window struct {
	Start time.Time
	Loc   *time.Location

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewWindow builds the window for one target calendar day.
func NewWindow(target time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := target.In(loc).Date()
	return Window{
		Start: time.Date(y, m, d, 0, 0, 0, 0, loc),
		Loc:   loc,
		Now:   time.Now,
	}
}

// TargetDate returns the window's day formatted as YYYY-MM-DD.
func (w Window) TargetDate() string {
	return w.Start.Format("2006-01-02")
}

// Classify decides where a SERP entry falls relative to the window, using
// the explicit insert date when present and otherwise falling back to the
// relative-time phrase. Both paths reduce to the same boolean decision.
func (w Window) Classify(item SerpItem) Recency {
	if item.InsertedDate != "" {
		return w.classifyDate(item.InsertedDate)
	}
	if item.PostedAt != "" {
		return w.classifyPhrase(item.PostedAt)
	}
	return RecencyUnknown
}

func (w Window) classifyDate(value string) Recency {
	// explicit dates may carry a time part; the calendar day decides
	if len(value) > 10 {
		value = value[:10]
	}
	d, err := time.ParseInLocation("2006-01-02", value, w.Loc)
	if err != nil {
		return RecencyUnknown
	}
	switch {
	case d.Equal(w.Start):
		return RecencyIn
	case d.Before(w.Start):
		return RecencyOlder
	default:
		return RecencyNewer
	}
}

func (w Window) classifyPhrase(phrase string) Recency {
	hours, days, ok := parseRelativePhrase(phrase)
	if !ok {
		return RecencyUnknown
	}
	if days < 0 {
		if hours <= maxRelativeHours {
			return RecencyIn
		}
		days = hours / 24
	}
	return w.classifyDate(w.now().AddDate(0, 0, -days).Format("2006-01-02"))
}

func (w Window) now() time.Time {
	if w.Now != nil {
		return w.Now().In(w.Loc)
	}
	return time.Now().In(w.Loc)
}

// parseRelativePhrase reduces a relative-time phrase to an hour count or a
// day count. Exactly one of the two is meaningful: days is -1 for
// hour-granularity phrases, hours is 0 for day-granularity ones.
func parseRelativePhrase(phrase string) (hours, days int, ok bool) {
	phrase = strings.TrimSpace(phrase)

	switch {
	case strings.Contains(phrase, "الآن"),
		strings.Contains(phrase, "دقيقة"),
		strings.Contains(phrase, "دقائق"):
		return 0, -1, true
	case strings.Contains(phrase, "أمس"):
		return 0, 1, true
	}

	if m := hoursExpr.FindStringSubmatch(phrase); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, -1, true
	}
	// dual forms carry no digit
	if strings.Contains(phrase, "ساعتين") || strings.Contains(phrase, "ساعتان") {
		return 2, -1, true
	}
	if strings.Contains(phrase, "قبل ساعة") {
		return 1, -1, true
	}

	if m := daysExpr.FindStringSubmatch(phrase); m != nil {
		n, _ := strconv.Atoi(m[1])
		return 0, n, true
	}
	if strings.Contains(phrase, "يومين") {
		return 0, 2, true
	}
	if strings.Contains(phrase, "قبل يوم") {
		return 0, 1, true
	}

	if m := weeksExpr.FindStringSubmatch(phrase); m != nil {
		n, _ := strconv.Atoi(m[1])
		return 0, 7 * n, true
	}
	if strings.Contains(phrase, "أسبوعين") {
		return 0, 14, true
	}
	if strings.Contains(phrase, "قبل أسبوع") {
		return 0, 7, true
	}

	if m := monthsExpr.FindStringSubmatch(phrase); m != nil {
		n, _ := strconv.Atoi(m[1])
		return 0, 30 * n, true
	}
	if strings.Contains(phrase, "شهرين") {
		return 0, 60, true
	}
	if strings.Contains(phrase, "قبل شهر") {
		return 0, 30, true
	}

	return 0, 0, false
}
