package collector

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"jobradar/internal/model"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
}

func (m *mockTransport) Do(_ *http.Request) (*http.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func loadFixture(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func feedSource() model.Source {
	return model.Source{
		ID:       1,
		Type:     model.SourceFeed,
		Query:    "https://careers.acme.example/jobs.xml",
		Name:     "Acme Careers",
		IsActive: true,
	}
}

func TestFeedCollect(t *testing.T) {
	xml := loadFixture(t, "testdata/jobs.xml")

	c := NewFeedCollector(&mockTransport{body: xml, statusCode: 200})
	jobs, status, err := c.Collect(context.Background(), feedSource(), "", 1)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if status != StatusExhausted {
		t.Fatalf("status = %v, want exhausted", status)
	}

	want := []model.Job{
		{
			Title:      "Senior Platform Engineer",
			Company:    "Acme Corp",
			Location:   "Berlin, Germany",
			URL:        "https://careers.acme.example/jobs/101",
			Source:     model.SourceFeed,
			SourceName: "Acme Careers",
			Level:      model.LevelSenior,
		},
		{
			Title:      "Field Service Technician",
			Location:   "Austin, TX",
			URL:        "https://careers.acme.example/jobs/102",
			Source:     model.SourceFeed,
			SourceName: "Acme Careers",
			Level:      model.LevelMid,
		},
		{
			Title:      "Internship - Data Team",
			URL:        "https://careers.acme.example/jobs/103",
			Source:     model.SourceFeed,
			SourceName: "Acme Careers",
			Level:      model.LevelEntry,
		},
	}
	ignore := cmpopts.IgnoreFields(model.Job{}, "Description", "PostedDate")
	if diff := cmp.Diff(want, jobs, ignore); diff != "" {
		t.Errorf("jobs mismatch (-want +got):\n%s", diff)
	}

	if jobs[0].PostedDate == nil {
		t.Error("expected posted date parsed from pubDate")
	}
	if jobs[2].PostedDate != nil {
		t.Error("expected nil posted date for item without pubDate")
	}
}

func TestFeedCollectErrors(t *testing.T) {
	tests := []struct {
		name      string
		transport *mockTransport
	}{
		{name: "http error status", transport: &mockTransport{body: "gone", statusCode: 410}},
		{name: "network error", transport: &mockTransport{err: io.ErrUnexpectedEOF}},
		{name: "invalid xml", transport: &mockTransport{body: "not a feed", statusCode: 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewFeedCollector(tt.transport)
			jobs, status, err := c.Collect(context.Background(), feedSource(), "", 1)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if status != StatusError {
				t.Errorf("status = %v, want error", status)
			}
			if len(jobs) != 0 {
				t.Errorf("expected no jobs, got %d", len(jobs))
			}
		})
	}
}

func TestExtractLocation(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want string
	}{
		{name: "plain label", desc: "Great role. Location: Austin, TX", want: "Austin, TX"},
		{name: "stops at newline", desc: "Location: Berlin\nMore text", want: "Berlin"},
		{name: "stops at markup", desc: "Location: Remote<br/>apply now", want: "Remote"},
		{name: "case insensitive", desc: "LOCATION: Oslo", want: "Oslo"},
		{name: "absent", desc: "No structured fields here", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, extractLocation(tt.desc)); diff != "" {
				t.Errorf("location mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
