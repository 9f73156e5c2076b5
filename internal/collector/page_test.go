package collector

import (
	"context"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"jobradar/internal/model"
)

func pageSource() model.Source {
	return model.Source{
		ID:       2,
		Type:     model.SourcePage,
		Query:    "https://globex.example/careers",
		Name:     "Globex",
		IsActive: true,
	}
}

func TestPageCollect(t *testing.T) {
	html := loadFixture(t, "testdata/careers.html")

	c := NewPageCollector(&mockTransport{body: html, statusCode: 200})
	jobs, status, err := c.Collect(context.Background(), pageSource(), "", 1)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if status != StatusExhausted {
		t.Fatalf("status = %v, want exhausted", status)
	}

	var gotURLs, gotTitles []string
	for _, j := range jobs {
		gotURLs = append(gotURLs, j.URL)
		gotTitles = append(gotTitles, j.Title)
	}

	wantURLs := []string{
		"https://globex.example/jobs/senior-widget-engineer",
		"https://boards.example.com/globex/position/42",
		"https://globex.example/careers/internship-program",
	}
	if diff := cmp.Diff(wantURLs, gotURLs); diff != "" {
		t.Errorf("urls mismatch (-want +got):\n%s", diff)
	}

	wantTitles := []string{
		"Senior Widget Engineer",
		"Customer Service Representative",
		"Internship Program",
	}
	if diff := cmp.Diff(wantTitles, gotTitles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}

	for _, j := range jobs {
		if j.Source != model.SourcePage {
			t.Errorf("job %s: source = %q, want page", j.URL, j.Source)
		}
		if j.SourceName != "Globex" {
			t.Errorf("job %s: source name = %q, want Globex", j.URL, j.SourceName)
		}
	}

	// The duplicated anchor collapses to one listing; the navigation,
	// privacy, and short-titled links never match.
	if len(jobs) != 3 {
		t.Errorf("got %d jobs, want 3", len(jobs))
	}
}

func TestPageCollectErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       model.Source
		transport *mockTransport
	}{
		{name: "http error status", src: pageSource(), transport: &mockTransport{body: "oops", statusCode: 500}},
		{name: "network error", src: pageSource(), transport: &mockTransport{err: io.ErrUnexpectedEOF}},
		{
			name:      "unparseable source url",
			src:       model.Source{Type: model.SourcePage, Query: "://not-a-url"},
			transport: &mockTransport{body: "", statusCode: 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPageCollector(tt.transport)
			_, status, err := c.Collect(context.Background(), tt.src, "", 1)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if status != StatusError {
				t.Errorf("status = %v, want error", status)
			}
		})
	}
}
