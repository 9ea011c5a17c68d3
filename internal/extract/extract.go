// Package extract turns the portal's unstructured markup into typed
// show, season, and episode records.
//
// Each content kind has an ordered list of selector strategies; the first
// selector matching at least one element is used exclusively for that
// call. Each field then has its own ordered sub-strategies, and the first
// one yielding a non-empty trimmed string wins. Extraction never fails:
// markup nothing matches yields an empty result.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Kind selects which strategy table an extraction call uses.
type Kind string

const (
	Shows    Kind = "shows"
	Seasons  Kind = "seasons"
	Episodes Kind = "episodes"
)

// Item is one extracted record. Poster and Background are only populated
// for shows; GUID only for episodes.
type Item struct {
	Name       string
	URL        string
	GUID       string
	Poster     string
	Background string
}

// strategy is one way to pull a field value out of a matched element:
// optionally descend to a sub-selector, then read an attribute or the
// element's trimmed text.
type strategy struct {
	selector string
	attr     string
}

var (
	guidPathPattern  = regexp.MustCompile(`/VOD-([\w-]+)\.htm`)
	guidQueryPattern = regexp.MustCompile(`(?i)[?&](?:guid|videoGuid)=([\w-]+)`)
)

// Extract parses markup and returns the records of the requested kind.
// Relative URLs are resolved against baseURL.
func Extract(markup, baseURL string, kind Kind) []Item {
	cfg, ok := configs[kind]
	if !ok {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var matched *goquery.Selection
	for _, sel := range cfg.selectors {
		if m := doc.Find(sel); m.Length() > 0 {
			matched = m
			break
		}
	}
	if matched == nil {
		return nil
	}

	origin := base.Scheme + "://" + base.Host
	seen := make(map[string]bool)
	var items []Item

	matched.Each(func(_ int, el *goquery.Selection) {
		href := firstValue(el, cfg.url)
		abs := resolveURL(base, href)
		if abs == "" {
			return
		}

		item := Item{Name: firstValue(el, cfg.name)}

		if kind == Episodes {
			// The guid lives in the path or the query string, so it is
			// derived before the query is stripped.
			item.GUID = guidFromURL(abs)
			if item.GUID == "" {
				return
			}
		}

		item.URL = stripQueryFragment(abs)

		if kind == Shows {
			item.Poster = NormalizeImageURL(firstValue(el, cfg.poster), origin)
			item.Background = NormalizeImageURL(firstValue(el, cfg.background), origin)
		}

		if cfg.filter != nil && !cfg.filter(item) {
			return
		}

		key := item.URL
		if kind == Episodes {
			key = item.GUID
		}
		if seen[key] {
			return
		}
		seen[key] = true

		items = append(items, item)
	})

	return items
}

// firstValue evaluates field sub-strategies in order and returns the
// first non-empty trimmed result.
func firstValue(el *goquery.Selection, strategies []strategy) string {
	for _, s := range strategies {
		target := el
		if s.selector != "" {
			target = el.Find(s.selector).First()
			if target.Length() == 0 {
				continue
			}
		}

		var v string
		if s.attr != "" {
			v, _ = target.Attr(s.attr)
		} else {
			v = target.Text()
		}

		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// guidFromURL extracts the portal's per-episode identifier from an
// episode URL. Episodes without one are unusable for streaming.
func guidFromURL(u string) string {
	if m := guidPathPattern.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	if m := guidQueryPattern.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	return ""
}

func resolveURL(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func stripQueryFragment(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}
