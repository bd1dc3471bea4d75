// Package geocode resolves free-text addresses to coordinates through
// a Geoapify-style autocomplete API. The service is optional: without
// credentials the client reports itself disabled and callers fall back
// to manual address entry with no coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.geoapify.com"

// Place is one autocomplete candidate.
type Place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether the client has credentials to call out with.
func (c *Client) Enabled() bool {
	return c != nil && strings.TrimSpace(c.APIKey) != ""
}

// Search returns autocomplete candidates for a free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("geocoding is not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	params := url.Values{}
	params.Set("text", query)
	params.Set("limit", "5")
	params.Set("format", "json")
	params.Set("apiKey", c.APIKey)

	endpoint := fmt.Sprintf("%s/v1/geocode/autocomplete?%s", baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create geocode request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute geocode request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read geocode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geocode request failed with status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	places := make([]Place, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		name := strings.TrimSpace(r.Formatted)
		if name == "" {
			continue
		}
		places = append(places, Place{Name: name, Lat: r.Lat, Lng: r.Lon})
	}
	return places, nil
}

// Resolve returns the best candidate for an address, or false when the
// service is disabled, errors out, or finds nothing. Callers treat a
// false as "enter coordinates manually", never as a failure.
func (c *Client) Resolve(ctx context.Context, address string) (Place, bool) {
	if !c.Enabled() {
		return Place{}, false
	}
	places, err := c.Search(ctx, address)
	if err != nil || len(places) == 0 {
		return Place{}, false
	}
	return places[0], true
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Formatted string  `json:"formatted"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
}
