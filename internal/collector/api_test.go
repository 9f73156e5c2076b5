package collector

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/h2non/gock"

	"jobradar/internal/model"
)

func apiSource() model.Source {
	return model.Source{
		ID:       3,
		Type:     model.SourceAPI,
		Query:    "all",
		Name:     "Adzuna",
		IsActive: true,
	}
}

func newAPICollector() (*APICollector, *http.Client) {
	client := &http.Client{}
	gock.InterceptClient(client)
	return NewAPICollector("test-id", "test-key", "us", client), client
}

// adzunaPage builds a response body with n listings.
func adzunaPage(n int, offset int) map[string]any {
	results := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		id := offset + i
		results = append(results, map[string]any{
			"title":        fmt.Sprintf("Engineer %d", id),
			"description":  "builds things",
			"company":      map[string]any{"display_name": "Acme"},
			"location":     map[string]any{"display_name": "Austin, TX"},
			"redirect_url": fmt.Sprintf("https://adzuna.example/jobs/%d", id),
			"created":      "2026-03-02T09:00:00Z",
		})
	}
	return map[string]any{"results": results}
}

func TestAPICollectFullPage(t *testing.T) {
	defer gock.Off()
	c, _ := newAPICollector()

	gock.New("https://api.adzuna.com").
		Get("/v1/api/jobs/us/search/1").
		MatchParam("what", "software engineer").
		Reply(200).
		JSON(adzunaPage(apiPageSize, 0))

	jobs, status, err := c.Collect(context.Background(), apiSource(), "software engineer", 1)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if status != StatusOK {
		t.Fatalf("status = %v, want ok for a full page", status)
	}
	if len(jobs) != apiPageSize {
		t.Fatalf("got %d jobs, want %d", len(jobs), apiPageSize)
	}

	first := jobs[0]
	if diff := cmp.Diff("Engineer 0", first.Title); diff != "" {
		t.Errorf("title mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("https://adzuna.example/jobs/0", first.URL); diff != "" {
		t.Errorf("url mismatch (-want +got):\n%s", diff)
	}
	if first.Company != "Acme" || first.Location != "Austin, TX" {
		t.Errorf("company/location = %q/%q", first.Company, first.Location)
	}
	if first.Source != model.SourceAPI || first.SourceName != "Adzuna" {
		t.Errorf("source fields = %q/%q", first.Source, first.SourceName)
	}
	if first.PostedDate == nil {
		t.Error("expected posted date parsed from created")
	}
}

func TestAPICollectShortPageIsExhausted(t *testing.T) {
	defer gock.Off()
	c, _ := newAPICollector()

	gock.New("https://api.adzuna.com").
		Get("/v1/api/jobs/us/search/2").
		Reply(200).
		JSON(adzunaPage(7, 50))

	jobs, status, err := c.Collect(context.Background(), apiSource(), "software engineer", 2)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if status != StatusExhausted {
		t.Fatalf("status = %v, want exhausted for a short page", status)
	}
	if len(jobs) != 7 {
		t.Fatalf("got %d jobs, want 7", len(jobs))
	}
}

func TestAPICollectRateLimited(t *testing.T) {
	for _, code := range []int{429, 403} {
		t.Run(fmt.Sprintf("status %d", code), func(t *testing.T) {
			defer gock.Off()
			c, _ := newAPICollector()

			gock.New("https://api.adzuna.com").
				Get("/v1/api/jobs/us/search/1").
				Reply(code).
				BodyString("quota exceeded")

			jobs, status, err := c.Collect(context.Background(), apiSource(), "nurse", 1)
			if err != nil {
				t.Fatalf("collect: %v", err)
			}
			if status != StatusRateLimited {
				t.Errorf("status = %v, want rate-limited", status)
			}
			if len(jobs) != 0 {
				t.Errorf("expected no jobs, got %d", len(jobs))
			}
		})
	}
}

func TestAPICollectServerError(t *testing.T) {
	defer gock.Off()
	c, _ := newAPICollector()

	gock.New("https://api.adzuna.com").
		Get("/v1/api/jobs/us/search/1").
		Reply(500).
		BodyString("boom")

	_, status, err := c.Collect(context.Background(), apiSource(), "nurse", 1)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if status != StatusError {
		t.Errorf("status = %v, want error", status)
	}
}

func TestAPICollectMissingCredentials(t *testing.T) {
	c := NewAPICollector("", "", "us", http.DefaultClient)
	_, status, err := c.Collect(context.Background(), apiSource(), "nurse", 1)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if status != StatusError {
		t.Errorf("status = %v, want error", status)
	}
}

func TestAPICollectQueryFallback(t *testing.T) {
	defer gock.Off()
	c, _ := newAPICollector()

	// No rotation keyword and a catch-all source: the request carries no
	// "what" parameter at all.
	gock.New("https://api.adzuna.com").
		Get("/v1/api/jobs/us/search/1").
		AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
			return !req.URL.Query().Has("what"), nil
		}).
		Reply(200).
		JSON(adzunaPage(1, 0))

	jobs, status, err := c.Collect(context.Background(), apiSource(), "", 1)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if status != StatusExhausted {
		t.Fatalf("status = %v, want exhausted", status)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(jobs))
	}
}

func TestAPICollectSkipsResultsWithoutURL(t *testing.T) {
	defer gock.Off()
	c, _ := newAPICollector()

	page := adzunaPage(3, 0)
	page["results"].([]map[string]any)[1]["redirect_url"] = ""

	gock.New("https://api.adzuna.com").
		Get("/v1/api/jobs/us/search/1").
		Reply(200).
		JSON(page)

	jobs, _, err := c.Collect(context.Background(), apiSource(), "nurse", 1)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2 after dropping the identity-less result", len(jobs))
	}
}
