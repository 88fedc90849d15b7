package crawler

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"

	"sjsage522/listingwatch/helpers"
)

// IdentityHash is the dedup key of a listing.
//
// Concerts are identified by term, venue, date and city so title drift between
// runs does not re-report a show; the URL joins in when venue or date is
// unknown, since those alone cannot tell two shows apart. Auction items are identified by term and canonical URL, with the
// title standing in when no URL was found.
func (l Listing) IdentityHash() string {
	var parts []string
	switch l.Kind {
	case KindItem:
		id := CanonicalURL(l.URL)
		if id == "" {
			id = identityField(l.Title)
		}
		parts = []string{string(KindItem), identityField(l.Term), id}
	default:
		parts = []string{
			string(KindConcert),
			identityField(l.Term),
			identityField(l.Venue),
			identityField(l.Date),
			identityField(l.City),
		}
		if l.Venue == "" || l.Date == "" {
			id := CanonicalURL(l.URL)
			if id == "" {
				id = identityField(l.Title)
			}
			parts = append(parts, id)
		}
	}

	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func identityField(s string) string {
	return strings.ToLower(helpers.CollapseSpace(s))
}

var trackingParams = map[string]bool{"fbclid": true, "gclid": true, "ref": true, "_ga": true}

// CanonicalURL lower-cases scheme and host, drops the fragment, tracking
// parameters and trailing slash, and sorts the remaining query
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	query := u.Query()
	for key := range query {
		lower := strings.ToLower(key)
		if trackingParams[lower] || strings.HasPrefix(lower, "utm_") {
			query.Del(key)
		}
	}
	u.RawQuery = query.Encode()
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return u.String()
}
