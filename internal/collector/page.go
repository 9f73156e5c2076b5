package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobradar/internal/model"
)

const pageListingCap = 50

var jobHrefRe = regexp.MustCompile(`(?i)job|position|career|opening|vacanc`)

// PageCollector scrapes listings out of an arbitrary careers page. One
// bounded fetch per pass; extraction is heuristic and best effort.
type PageCollector struct {
	client HTTPClient
}

// NewPageCollector creates a page collector with the given HTTP client.
func NewPageCollector(client HTTPClient) *PageCollector {
	return &PageCollector{client: client}
}

// Collect fetches the source URL and extracts up to pageListingCap listings
// from anchors whose href looks like a job posting. Relative hrefs are
// resolved against the page URL, which then serves as the listing identity.
func (c *PageCollector) Collect(ctx context.Context, src model.Source, _ string, _ int) ([]model.Job, Status, error) {
	base, err := url.Parse(src.Query)
	if err != nil {
		return nil, StatusError, fmt.Errorf("parse source url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Query, nil)
	if err != nil {
		return nil, StatusError, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, StatusError, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, StatusError, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, StatusError, fmt.Errorf("parse html: %w", err)
	}

	name := sourceName(src)
	seen := make(map[string]bool)
	var jobs []model.Job

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") || !jobHrefRe.MatchString(href) {
			return true
		}

		title := strings.Join(strings.Fields(a.Text()), " ")
		if len(title) < 5 {
			return true
		}

		u, err := base.Parse(href)
		if err != nil {
			return true
		}
		link := u.String()
		if seen[link] {
			return true
		}
		seen[link] = true

		desc := containerText(a)
		jobs = append(jobs, model.Job{
			Title:       title,
			Location:    extractLocation(desc),
			Description: desc,
			URL:         link,
			Source:      model.SourcePage,
			SourceName:  name,
			Level:       DetectLevel(title, desc),
		})
		return len(jobs) < pageListingCap
	})

	return jobs, StatusExhausted, nil
}

// containerText returns the text of the anchor's nearest block container,
// trimmed to a sane description length.
func containerText(a *goquery.Selection) string {
	container := a.Closest("div, li, article, tr")
	text := a.Text()
	if container.Length() > 0 {
		text = container.Text()
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 500 {
		text = text[:500]
	}
	return text
}
