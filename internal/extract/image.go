package extract

import "strings"

// DefaultImage replaces rejected or absent artwork URLs.
const DefaultImage = "https://www.mako.co.il/assets/images/svg/mako_logo.svg"

// Artwork under these prefixes is a known placeholder, not real art.
var placeholderPrefixes = []string{
	"/assets/images/placeholder",
	"/images/default",
}

// NormalizeImageURL canonicalizes an artwork URL scraped off a card.
// Absolute URLs pass through, protocol-relative ones gain https:,
// root-relative ones join the site origin, anything else resolves to the
// default image.
func NormalizeImageURL(raw, origin string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		for _, p := range placeholderPrefixes {
			if strings.HasPrefix(raw, p) {
				return DefaultImage
			}
		}
		return origin + raw
	default:
		return DefaultImage
	}
}
