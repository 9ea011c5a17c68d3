package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client wraps HTTP calls to the makovod server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new makovod API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// API response types (mirror server types)

type ShowMeta struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Poster      string `json:"poster,omitempty"`
	Background  string `json:"background,omitempty"`
	Description string `json:"description,omitempty"`
	Seasons     int    `json:"seasons,omitempty"`
}

type CatalogResponse struct {
	Metas []ShowMeta `json:"metas"`
}

type EpisodeMeta struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
}

type MetaResponse struct {
	Meta     ShowMeta      `json:"meta"`
	Episodes []EpisodeMeta `json:"episodes"`
}

type StreamResponse struct {
	URL string `json:"url"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func (c *Client) post(path string, result any) error {
	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// Catalog lists shows, optionally filtered by a search query.
func (c *Client) Catalog(search string) (*CatalogResponse, error) {
	path := "/catalog.json"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}

	var resp CatalogResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Show returns a show's metadata and episode list.
func (c *Client) Show(id string) (*MetaResponse, error) {
	var resp MetaResponse
	if err := c.get("/meta/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stream resolves an episode id to a playable URL.
func (c *Client) Stream(id string) (*StreamResponse, error) {
	var resp StreamResponse
	if err := c.get("/stream/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh asks the server to refresh a show's cached metadata now.
func (c *Client) Refresh(id string) error {
	return c.post("/refresh/"+url.PathEscape(id), nil)
}

// Health checks server liveness.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get("/healthz", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
