package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"jobradar/internal/model"
)

const feedBodyLimit = 5 * 1024 * 1024

// FeedCollector collects listings from an RSS/Atom feed. One bounded fetch
// per pass; feeds have no pagination and no quota.
type FeedCollector struct {
	client HTTPClient
}

// NewFeedCollector creates a feed collector with the given HTTP client.
func NewFeedCollector(client HTTPClient) *FeedCollector {
	return &FeedCollector{client: client}
}

// Collect downloads and parses the feed at the source's URL. The item link
// is the listing identity; items without one are dropped.
func (c *FeedCollector) Collect(ctx context.Context, src model.Source, _ string, _ int) ([]model.Job, Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Query, nil)
	if err != nil {
		return nil, StatusError, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "jobradar/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, StatusError, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, StatusError, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, feedBodyLimit))
	if err != nil {
		return nil, StatusError, fmt.Errorf("read body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, StatusError, fmt.Errorf("parse feed: %w", err)
	}

	name := sourceName(src)
	var jobs []model.Job
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		desc := item.Description
		if desc == "" {
			desc = item.Content
		}
		jobs = append(jobs, model.Job{
			Title:       item.Title,
			Company:     feedItemCompany(item),
			Location:    extractLocation(desc),
			Description: desc,
			URL:         item.Link,
			Source:      model.SourceFeed,
			SourceName:  name,
			Level:       DetectLevel(item.Title, desc),
			PostedDate:  item.PublishedParsed,
		})
	}
	return jobs, StatusExhausted, nil
}

func feedItemCompany(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0].Name != "" {
		return item.Authors[0].Name
	}
	return ""
}

// extractLocation scans a description for a "location:" label and takes the
// remainder of that line. Best effort; most feeds carry no structured location.
func extractLocation(description string) string {
	lower := strings.ToLower(description)
	idx := strings.Index(lower, "location:")
	if idx < 0 {
		return ""
	}
	rest := description[idx+len("location:"):]
	if nl := strings.IndexAny(rest, "\n<"); nl >= 0 {
		rest = rest[:nl]
	}
	rest = strings.TrimSpace(rest)
	if len(rest) > 100 {
		rest = rest[:100]
	}
	return rest
}
