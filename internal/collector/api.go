package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"jobradar/internal/model"
)

const (
	adzunaBaseURL = "https://api.adzuna.com/v1/api/jobs"
	apiPageSize   = 50
)

// APICollector fetches listings from the Adzuna search API, one page per
// Collect call. A page shorter than apiPageSize marks natural exhaustion;
// HTTP 429 and 403 are the provider's quota signals.
type APICollector struct {
	appID   string
	appKey  string
	country string // "us", "gb", "de", ...
	client  HTTPClient
}

// NewAPICollector creates an Adzuna collector with the given credentials.
func NewAPICollector(appID, appKey, country string, client HTTPClient) *APICollector {
	if country == "" {
		country = "us"
	}
	return &APICollector{
		appID:   appID,
		appKey:  appKey,
		country: country,
		client:  client,
	}
}

// adzunaResponse mirrors the top-level Adzuna JSON response.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
}

type adzunaResult struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Company     adzunaNamed  `json:"company"`
	Location    adzunaNamed  `json:"location"`
	RedirectURL string       `json:"redirect_url"`
	Created     string       `json:"created"`
}

type adzunaNamed struct {
	DisplayName string `json:"display_name"`
}

// Collect fetches one result page. The rotation keyword wins over the
// source's own query; a query of "all" (the seeded default source) means
// no keyword filter at all.
func (c *APICollector) Collect(ctx context.Context, src model.Source, query string, page int) ([]model.Job, Status, error) {
	if c.appID == "" || c.appKey == "" {
		return nil, StatusError, errors.New("adzuna credentials not configured")
	}

	what := query
	if what == "" {
		what = src.Query
	}
	if what == "all" {
		what = ""
	}

	params := url.Values{}
	params.Set("app_id", c.appID)
	params.Set("app_key", c.appKey)
	params.Set("results_per_page", strconv.Itoa(apiPageSize))
	params.Set("content-type", "application/json")
	if what != "" {
		params.Set("what", what)
	}
	reqURL := fmt.Sprintf("%s/%s/search/%d?%s", adzunaBaseURL, c.country, page, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, StatusError, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, StatusError, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests, http.StatusForbidden:
		// Adzuna answers 403 once the daily call budget is spent.
		return nil, StatusRateLimited, nil
	default:
		return nil, StatusError, fmt.Errorf("adzuna returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, StatusError, fmt.Errorf("read body: %w", err)
	}

	var apiResp adzunaResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, StatusError, fmt.Errorf("parse response: %w", err)
	}

	name := sourceName(src)
	jobs := make([]model.Job, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		if r.RedirectURL == "" {
			continue
		}
		jobs = append(jobs, model.Job{
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			Location:    r.Location.DisplayName,
			Description: r.Description,
			URL:         r.RedirectURL,
			Source:      model.SourceAPI,
			SourceName:  name,
			Level:       DetectLevel(r.Title, r.Description),
			PostedDate:  parseAdzunaDate(r.Created),
		})
	}

	status := StatusOK
	if len(apiResp.Results) < apiPageSize {
		status = StatusExhausted
	}
	return jobs, status, nil
}

func parseAdzunaDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
