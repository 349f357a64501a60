package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"crechespots/internal/models"
)

// galleryOrder keeps images in upload order.
const galleryOrder = "id.asc"

const centreColumns = "id,name,address,phone_number,capacity,logo,latitude,longitude,registered,monthly_price,weekly_price"

// RESTSource reads the catalog through the backend's PostgREST data API.
type RESTSource struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewRESTSource creates a source for the project at baseURL
// (e.g. https://xyz.supabase.co) authenticated with apiKey.
func NewRESTSource(httpClient *http.Client, baseURL, apiKey string) *RESTSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RESTSource{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

func (s *RESTSource) Centres(ctx context.Context) ([]models.Centre, error) {
	params := url.Values{}
	params.Set("select", centreColumns)
	params.Set("order", "id.asc")

	var centres []models.Centre
	if err := s.get(ctx, "creches", params, &centres); err != nil {
		return nil, err
	}
	return centres, nil
}

func (s *RESTSource) Gallery(ctx context.Context, centreID int64) ([]string, error) {
	params := url.Values{}
	params.Set("select", "image_url")
	params.Set("creche_id", "eq."+strconv.FormatInt(centreID, 10))
	params.Set("order", galleryOrder)

	var rows []struct {
		ImageURL string `json:"image_url"`
	}
	if err := s.get(ctx, "creche_gallery", params, &rows); err != nil {
		return nil, err
	}
	images := make([]string, 0, len(rows))
	for _, row := range rows {
		images = append(images, row.ImageURL)
	}
	return images, nil
}

func (s *RESTSource) get(ctx context.Context, table string, params url.Values, out any) error {
	reqURL := fmt.Sprintf("%s/rest/v1/%s?%s", s.baseURL, table, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("querying %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("querying %s: unexpected status %s: %s", table, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s rows: %w", table, err)
	}
	return nil
}
