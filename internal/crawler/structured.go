package crawler

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/listingwatch/helpers"
)

// structuredCandidates reads schema.org Event and Product objects from JSON-LD scripts
func structuredCandidates(doc *goquery.Document) []Candidate {
	var out []Candidate
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		for _, obj := range flattenLD(data) {
			if c, ok := ldCandidate(obj); ok {
				out = append(out, c)
			}
		}
	})
	return out
}

// flattenLD unwraps arrays and @graph containers into a flat object list
func flattenLD(data any) []map[string]any {
	switch v := data.(type) {
	case []any:
		var out []map[string]any
		for _, item := range v {
			out = append(out, flattenLD(item)...)
		}
		return out
	case map[string]any:
		if graph, ok := v["@graph"]; ok {
			return flattenLD(graph)
		}
		return []map[string]any{v}
	default:
		return nil
	}
}

func ldCandidate(obj map[string]any) (Candidate, bool) {
	if !ldTypeMatches(obj["@type"]) {
		return Candidate{}, false
	}

	c := Candidate{
		Title: ldString(obj["name"]),
		Link:  ldString(obj["url"]),
		Date:  ldString(obj["startDate"]),
	}

	if loc, ok := obj["location"].(map[string]any); ok {
		c.Venue = ldString(loc["name"])
		switch addr := loc["address"].(type) {
		case map[string]any:
			c.City = ldString(addr["addressLocality"])
		case string:
			c.City = helpers.CollapseSpace(addr)
		}
	}

	var availability string
	if offer := firstOffer(obj["offers"]); offer != nil {
		if price := ldString(offer["price"]); price != "" {
			c.Price = strings.TrimSpace(price + " " + ldString(offer["priceCurrency"]))
		}
		availability = ldString(offer["availability"])
	}

	parts := []string{c.Title, c.Venue, c.City, c.Date, ldString(obj["description"])}
	if p, ok := obj["performer"].(map[string]any); ok {
		parts = append(parts, ldString(p["name"]))
	}
	switch {
	case strings.Contains(availability, "SoldOut"):
		parts = append(parts, "sold out")
	case strings.Contains(availability, "PreOrder"), strings.Contains(availability, "PreSale"):
		parts = append(parts, "presale")
	}
	c.Text = helpers.CollapseSpace(strings.Join(parts, " "))

	return c, c.Title != ""
}

func ldTypeMatches(t any) bool {
	switch v := t.(type) {
	case string:
		return strings.HasSuffix(v, "Event") || v == "Product"
	case []any:
		for _, item := range v {
			if ldTypeMatches(item) {
				return true
			}
		}
	}
	return false
}

func firstOffer(v any) map[string]any {
	switch o := v.(type) {
	case map[string]any:
		return o
	case []any:
		for _, item := range o {
			if m, ok := item.(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

func ldString(v any) string {
	switch s := v.(type) {
	case string:
		return helpers.CollapseSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}
