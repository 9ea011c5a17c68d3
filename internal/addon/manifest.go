package addon

import "net/http"

// Manifest describes the addon to a consuming client.
type Manifest struct {
	ID          string         `json:"id"`
	Version     string         `json:"version"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Types       []string       `json:"types"`
	Catalogs    []CatalogEntry `json:"catalogs"`
	Resources   []string       `json:"resources"`
}

// CatalogEntry names one catalog the addon serves.
type CatalogEntry struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

var manifest = Manifest{
	ID:          "il.co.mako.vod",
	Version:     "1.0.0",
	Name:        "Mako VOD",
	Description: "Series and episodes from the mako.co.il VOD portal",
	Types:       []string{"series"},
	Catalogs: []CatalogEntry{
		{Type: "series", ID: "mako-vod", Name: "Mako VOD"},
	},
	Resources: []string{"catalog", "meta", "stream"},
}

func (s *Server) getManifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, manifest)
}
