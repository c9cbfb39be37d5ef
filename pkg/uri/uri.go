package uri

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// normalizationFlags is the purell flag set applied to every http(s) URI:
// lowercase scheme and host, uppercase percent-escapes, drop default ports,
// fragments, dot segments and trailing slashes, and sort the query string.
const normalizationFlags = purell.FlagsSafe |
	purell.FlagRemoveDotSegments |
	purell.FlagRemoveFragment |
	purell.FlagRemoveDefaultPort |
	purell.FlagRemoveTrailingSlash |
	purell.FlagSortQuery

// queryBlacklist holds query parameters that carry session or campaign
// tracking state rather than identifying the document.
var queryBlacklist = map[string]struct{}{
	"gclid":      {},
	"fbclid":     {},
	"phpsessid":  {},
	"jsessionid": {},
	"cfid":       {},
	"cftoken":    {},
}

// Normalize returns the canonical form of a URI, used to match annotations
// against trivially different spellings of the same document address.
//
// Only http and https URIs are rewritten. Other schemes (urn:, doi:, ...)
// and unparseable strings are returned unchanged.
func Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return raw
	}

	stripTrackingParams(u)

	normalized, err := purell.NormalizeURLString(u.String(), normalizationFlags)
	if err != nil {
		return raw
	}
	return normalized
}

func stripTrackingParams(u *url.URL) {
	if u.RawQuery == "" {
		return
	}

	q := u.Query()
	for name := range q {
		lower := strings.ToLower(name)
		if _, blacklisted := queryBlacklist[lower]; blacklisted || strings.HasPrefix(lower, "utm_") {
			q.Del(name)
		}
	}
	u.RawQuery = q.Encode()
}
