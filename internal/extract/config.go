package extract

import "strings"

// Seasons dropdowns carry an "all episodes" pseudo-entry that is not a
// season.
const allEpisodesLabel = "כל הפרקים"

type kindConfig struct {
	selectors  []string
	name       []strategy
	url        []strategy
	poster     []strategy
	background []strategy
	filter     func(Item) bool
}

// The selector chains mirror the portal's markup variants, most specific
// first. Only the first selector that matches anything is used.
var configs = map[Kind]kindConfig{
	Shows: {
		selectors: []string{
			`li > a[href^="/mako-vod-"]`,
			`li a[href^="/mako-vod-"]`,
		},
		url: []strategy{{attr: "href"}},
		name: []strategy{
			{selector: "img", attr: "alt"},
			{selector: "strong.title"},
			{},
		},
		poster: []strategy{
			{selector: "img", attr: "src"},
			{selector: "img", attr: "data-src"},
		},
		background: []strategy{
			{selector: "img", attr: "data-src"},
			{selector: "img", attr: "src"},
		},
		filter: func(it Item) bool {
			return !strings.Contains(it.URL, "/mako-vod-index") &&
				!strings.Contains(it.URL, "purchase")
		},
	},
	Seasons: {
		selectors: []string{`div#seasonDropdown ul ul li a`},
		url:       []strategy{{attr: "href"}},
		name: []strategy{
			{selector: "span"},
			{},
		},
		filter: func(it Item) bool {
			return it.Name != allEpisodesLabel
		},
	},
	Episodes: {
		selectors: []string{
			`li.card a`,
			`a[href*="videoGuid="]`,
			`.vod_item a`,
			`.vod_item_wrap a`,
		},
		url: []strategy{{attr: "href"}},
		name: []strategy{
			{selector: "strong.title"},
			{selector: "img", attr: "alt"},
			{},
		},
	},
}
