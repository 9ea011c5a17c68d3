package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NameSource records where a show's name came from, for observability.
type NameSource string

const (
	NameStructured   NameSource = "structured"
	NameHTMLFallback NameSource = "html-fallback"
	NameError        NameSource = "error"
)

// Details is the descriptive metadata scraped from a single show page.
type Details struct {
	Name        string
	Description string
	Poster      string
	SeasonCount int
	NameSource  NameSource
}

type jsonLD struct {
	Type           string          `json:"@type"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Image          json.RawMessage `json:"image"`
	ContainsSeason json.RawMessage `json:"containsSeason"`
	PartOfTVSeries *struct {
		Name string `json:"name"`
	} `json:"partOfTVSeries"`
}

// ShowDetails parses a show page's JSON-LD block. Season pages carry a
// TVSeason document whose series name lives under partOfTVSeries; type
// matching is case-insensitive because the portal is inconsistent about
// it. When no structured data yields a name, the page heading is used and
// the provenance marked html-fallback.
func ShowDetails(markup string) Details {
	d := Details{NameSource: NameError}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return d
	}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var ld jsonLD
		if err := json.Unmarshal([]byte(s.Text()), &ld); err != nil {
			return true
		}

		name := ld.Name
		if strings.EqualFold(ld.Type, "TVSeason") && ld.PartOfTVSeries != nil && ld.PartOfTVSeries.Name != "" {
			name = ld.PartOfTVSeries.Name
		}
		if name == "" {
			return true
		}

		d.Name = name
		d.Description = ld.Description
		d.Poster = rawString(ld.Image)
		d.SeasonCount = seasonCount(ld.ContainsSeason)
		d.NameSource = NameStructured
		return false
	})

	if d.NameSource != NameStructured {
		if h := strings.TrimSpace(doc.Find("h1").First().Text()); h != "" {
			d.Name = h
			d.NameSource = NameHTMLFallback
		}
	}

	return d
}

// seasonCount handles containsSeason being either a list or a single
// object.
func seasonCount(raw json.RawMessage) int {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return 0
		}
		return len(list)
	}
	return 1
}

// rawString decodes a JSON value that may be a plain string; anything
// else yields "".
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
