// Package location is a small client for the Nominatim geocoding API.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"crechespots/pkg/geo"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "crechespots-nominatim-client/1.0"
)

// ErrNoResults is returned when a lookup succeeds but matches nothing.
var ErrNoResults = errors.New("no results")

type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	language   string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithUserAgent sets the User-Agent header. Nominatim's usage policy rejects
// requests without an identifying agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLanguage sets the language of returned names and addresses.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		language:   "en",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search forward-geocodes free text. Matches come back in Nominatim's
// ranking order; limit <= 0 leaves the server default.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var results []Place
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("search %q: %w", query, ErrNoResults)
	}
	return results, nil
}

// Reverse looks up the address at a coordinate.
func (c *Client) Reverse(ctx context.Context, at geo.Coordinate) (*Place, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(at.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(at.Longitude, 'f', -1, 64))
	params.Set("format", "json")

	var resp reverseResponse
	if err := c.get(ctx, "/reverse", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("reverse %v: %s: %w", at, resp.Error, ErrNoResults)
	}
	return &resp.Place, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.language != "" {
		params.Set("accept-language", c.language)
	}
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
