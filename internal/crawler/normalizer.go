package crawler

import (
	"net/url"
	"regexp"
	"strings"

	"sjsage522/listingwatch/helpers"
)

// NormalizeContext carries what a candidate needs to become a listing
type NormalizeContext struct {
	PageURL string
	Profile *SiteProfile
	Term    SearchTerm
}

const months = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?|januar|februar|marts|maj|juni|juli|oktober)`

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d{1,2}\.?\s*` + months + `\.?\s*\d{2,4}\b`),
		regexp.MustCompile(`(?i)\b` + months + `\.?\s*\d{1,2},?\s*\d{2,4}\b`),
		regexp.MustCompile(`\b\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}\b`),
		regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`),
	}

	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:fra\s*)?(?:kr\.?\s*)?` + amount(`[.\s]`) + `(?:,\d{2})?\s*(?:kr\.?|dkk|,-)`),
		regexp.MustCompile(`€\s*` + amount(`[.,\s]`) + `(?:[.,]\d{2})?`),
		regexp.MustCompile(`£\s*` + amount(`[.,\s]`) + `(?:[.,]\d{2})?`),
		regexp.MustCompile(`(?i)\bSEK\s*` + amount(`[.\s]`)),
		regexp.MustCompile(`(?i)\bNOK\s*` + amount(`[.\s]`)),
		regexp.MustCompile(`\$\s*` + amount(`,`) + `(?:\.\d{2})?`),
	}

	venuePattern = regexp.MustCompile(`(?i)(?:venue|location|where|spillested)\s*:\s*([^\n|•·]{2,80})`)

	soldOutPattern = regexp.MustCompile(`(?i)sold\s*out|udsolgt|slutsåld|utsolgt|ausverkauft|agotado`)
	presalePattern = regexp.MustCompile(`(?i)pre-?sale|f[oø]rsalg|förköp|vorverkauf`)

	malformedPrefixes = []string{"https:///", "http:///", "https:/", "http:/", "://"}
)

// amount matches a whole number, grouped in thousands by sep or ungrouped
func amount(sep string) string {
	return `(?:\d{1,3}(?:` + sep + `\d{3})+|\d+)`
}

// Normalize turns a candidate into a listing: URL repair, date/price/venue
// backfill from the container text and status classification
func Normalize(c Candidate, ctx NormalizeContext) Listing {
	l := Listing{
		Title:    helpers.CollapseSpace(c.Title),
		URL:      ResolveURL(c.Link, ctx.PageURL),
		Venue:    helpers.CollapseSpace(c.Venue),
		City:     helpers.CollapseSpace(c.City),
		Date:     helpers.CollapseSpace(c.Date),
		Price:    helpers.CollapseSpace(c.Price),
		Status:   ClassifyStatus(c.Text),
		Term:     ctx.Term.Label(),
		Category: ctx.Term.Category,
		Kind:     ctx.Term.Kind,
	}
	if ctx.Profile != nil {
		l.Site = ctx.Profile.Name
		l.SiteID = ctx.Profile.ID
		l.Region = ctx.Profile.Region
	}
	if l.Kind == "" {
		l.Kind = KindConcert
	}

	if l.Date == "" {
		l.Date, _ = ExtractDate(c.Text)
	}
	if l.Price == "" {
		l.Price, _ = ExtractPrice(c.Text)
	}
	if l.Venue == "" && l.Kind == KindConcert {
		l.Venue, _ = ExtractVenue(c.Text)
	}

	return l
}

// ResolveURL repairs href against the page it was found on; absolute URLs are returned untouched
func ResolveURL(href, base string) string {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)

	switch {
	case href == "":
		return ""
	case isAbsolute(lower):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(lower, "www."):
		return "https://" + href
	}

	for _, prefix := range malformedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return "https://" + strings.TrimLeft(href[len(prefix):], "/")
		}
	}

	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

func isAbsolute(lower string) bool {
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, scheme) && !strings.HasPrefix(lower[len(scheme):], "/") {
			return true
		}
	}
	return false
}

func regexStrategy(re *regexp.Regexp) Strategy[string, string] {
	return func(text string) (string, bool) {
		m := strings.TrimSpace(re.FindString(text))
		return m, m != ""
	}
}

func regexStrategies(patterns []*regexp.Regexp) Strategy[string, string] {
	strategies := make([]Strategy[string, string], 0, len(patterns))
	for _, re := range patterns {
		strategies = append(strategies, regexStrategy(re))
	}
	return FirstMatch(strategies...)
}

var (
	extractDate  = regexStrategies(datePatterns)
	extractPrice = regexStrategies(pricePatterns)
)

// ExtractDate returns the first date-looking substring of text
func ExtractDate(text string) (string, bool) {
	return extractDate(text)
}

// ExtractPrice returns the first currency-tagged price in text
func ExtractPrice(text string) (string, bool) {
	return extractPrice(text)
}

// ExtractVenue returns the text following a venue/location label
func ExtractVenue(text string) (string, bool) {
	m := venuePattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	venue := helpers.CollapseSpace(m[1])
	return venue, venue != ""
}

// ClassifyStatus looks for sold-out then presale keywords; the default is Available
func ClassifyStatus(text string) Status {
	switch {
	case soldOutPattern.MatchString(text):
		return StatusSoldOut
	case presalePattern.MatchString(text):
		return StatusPresale
	default:
		return StatusAvailable
	}
}
