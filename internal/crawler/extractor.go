package crawler

import (
	"fmt"
	"io"
	"iter"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/listingwatch/helpers"
)

const (
	defaultMaxResults = 20
	maxResultsCeiling = 50
)

var (
	// genericContainerPattern matches class attributes of likely listing containers
	genericContainerPattern = regexp.MustCompile(`(?i)item|lot|listing|product|result|event|concert|show`)

	// linkHintPattern matches hrefs that look like a detail page
	linkHintPattern = regexp.MustCompile(`(?i)event|show|concert|lot|item|listing|product|ticket`)

	defaultTitleSelectors = []string{"h1", "h2", "h3", "h4", "h5", "strong"}
)

type containerStrategy = Strategy[*goquery.Document, *goquery.Selection]

type fieldStrategy = Strategy[*goquery.Selection, string]

// Extract parses html and returns a lazy sequence of candidates taken from the
// first extraction strategy that matches anything, capped at the profile's limit.
// Structured data only counts as a match when one of its candidates is about term;
// otherwise the page markup is searched instead.
func Extract(html io.Reader, profile *SiteProfile, term SearchTerm) (iter.Seq[Candidate], error) {
	doc, err := goquery.NewDocumentFromReader(html)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var structured []Candidate
	if profile.StructuredData {
		structured = structuredCandidates(doc)
		if !slices.ContainsFunc(structured, func(c Candidate) bool { return Validate(c.Text, term) }) {
			structured = nil
		}
	}

	doc.Find("script, style, noscript, template").Remove()

	limit := profile.limit()
	containers := containersFor(profile.Selectors)
	fields := newFieldExtractor(profile.Selectors)

	return func(yield func(Candidate) bool) {
		if len(structured) > 0 {
			for i, c := range structured {
				if i >= limit || !yield(c) {
					return
				}
			}
			return
		}

		found, ok := containers(doc)
		if !ok {
			return
		}
		found.EachWithBreak(func(i int, s *goquery.Selection) bool {
			if i >= limit {
				return false
			}
			return yield(fields.candidate(s))
		})
	}, nil
}

func (p *SiteProfile) limit() int {
	switch {
	case p.MaxResults <= 0:
		return defaultMaxResults
	case p.MaxResults > maxResultsCeiling:
		return maxResultsCeiling
	default:
		return p.MaxResults
	}
}

// containersFor tries each profile container selector in order, then the generic class heuristic
func containersFor(fs FieldSelectors) containerStrategy {
	strategies := make([]containerStrategy, 0, len(fs.Container)+1)
	for _, selector := range fs.Container {
		strategies = append(strategies, selectorContainers(selector))
	}
	strategies = append(strategies, genericContainers)
	return FirstMatch(strategies...)
}

func selectorContainers(selector string) containerStrategy {
	return func(doc *goquery.Document) (*goquery.Selection, bool) {
		found := doc.Find(selector)
		return found, found.Length() > 0
	}
}

func genericContainers(doc *goquery.Document) (*goquery.Selection, bool) {
	found := doc.Find("body [class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return genericContainerPattern.MatchString(class)
	})
	return found, found.Length() > 0
}

// fieldExtractor holds one combined strategy per field
type fieldExtractor struct {
	title fieldStrategy
	link  fieldStrategy
	venue fieldStrategy
	city  fieldStrategy
	date  fieldStrategy
	price fieldStrategy
}

func newFieldExtractor(fs FieldSelectors) *fieldExtractor {
	titles := append(slices.Clone(fs.Title), defaultTitleSelectors...)

	links := make([]fieldStrategy, 0, len(fs.Link)+3)
	for _, selector := range fs.Link {
		links = append(links, selectorLink(selector))
	}
	links = append(links, ownLink, hintedLink, firstLink)

	return &fieldExtractor{
		title: textStrategies(titles, true),
		link:  FirstMatch(links...),
		venue: textStrategies(fs.Venue, false),
		city:  textStrategies(fs.City, false),
		date:  textStrategies(fs.Date, false),
		price: textStrategies(fs.Price, false),
	}
}

func (f *fieldExtractor) candidate(s *goquery.Selection) Candidate {
	c := Candidate{Text: visibleText(s)}
	c.Title, _ = f.title(s)
	c.Link, _ = f.link(s)
	c.Venue, _ = f.venue(s)
	c.City, _ = f.city(s)
	c.Date, _ = f.date(s)
	c.Price, _ = f.price(s)
	return c
}

// visibleText collapses whitespace within each line but keeps line breaks,
// which end label values such as "Venue: ..."
func visibleText(s *goquery.Selection) string {
	lines := strings.Split(s.Text(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = helpers.CollapseSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func textStrategies(selectors []string, preferTitleAttr bool) fieldStrategy {
	strategies := make([]fieldStrategy, 0, len(selectors))
	for _, selector := range selectors {
		strategies = append(strategies, selectorText(selector, preferTitleAttr))
	}
	return FirstMatch(strategies...)
}

// selectorText returns the text of the first non-empty element matching selector
func selectorText(selector string, preferTitleAttr bool) fieldStrategy {
	return func(s *goquery.Selection) (string, bool) {
		var out string
		s.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if preferTitleAttr {
				if attr, ok := el.Attr("title"); ok {
					out = helpers.CollapseSpace(attr)
				}
			}
			if out == "" {
				out = helpers.CollapseSpace(el.Text())
			}
			return out == ""
		})
		return out, out != ""
	}
}

func selectorLink(selector string) fieldStrategy {
	return func(s *goquery.Selection) (string, bool) {
		var out string
		s.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			out = usableHref(el)
			if out == "" {
				out = usableHref(el.Find("a[href]").First())
			}
			return out == ""
		})
		return out, out != ""
	}
}

// ownLink covers containers that are themselves anchors
func ownLink(s *goquery.Selection) (string, bool) {
	href := usableHref(s)
	return href, href != ""
}

func hintedLink(s *goquery.Selection) (string, bool) {
	var out string
	s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if href := usableHref(a); href != "" && linkHintPattern.MatchString(href) {
			out = href
		}
		return out == ""
	})
	return out, out != ""
}

func firstLink(s *goquery.Selection) (string, bool) {
	var out string
	s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		out = usableHref(a)
		return out == ""
	})
	return out, out != ""
}

func usableHref(s *goquery.Selection) string {
	href, ok := s.Attr("href")
	if !ok {
		return ""
	}
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
		return ""
	}
	return href
}
