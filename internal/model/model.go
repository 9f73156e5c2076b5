// Package model defines the domain types used across the application.
package model

import (
	"errors"
	"time"
)

// SourceType identifies the collection strategy for a source.
type SourceType string

// Supported source types.
const (
	SourceAPI  SourceType = "api"  // paginated search API, counts against a daily quota
	SourceFeed SourceType = "feed" // RSS/Atom feed, single fetch per pass
	SourcePage SourceType = "page" // ad-hoc careers page, single fetch per pass
)

// ValidSourceType reports whether t is one of the supported source types.
func ValidSourceType(t SourceType) bool {
	switch t {
	case SourceAPI, SourceFeed, SourcePage:
		return true
	}
	return false
}

// Seniority levels assigned by keyword classification.
const (
	LevelEntry     = "entry"
	LevelMid       = "mid"
	LevelSenior    = "senior"
	LevelExecutive = "executive"
)

// Job is one external job posting. The canonical URL is its identity:
// the store never holds two rows with the same URL.
type Job struct {
	ID          int64
	Title       string
	Company     string
	Location    string
	Description string
	URL         string
	Source      SourceType
	SourceName  string
	Level       string
	PostedDate  *time.Time
	CollectedAt time.Time
	IsActive    bool
}

// Validate checks the fields required before a job can be persisted.
func (j *Job) Validate() error {
	if j.URL == "" {
		return errors.New("job has no url")
	}
	if j.Title == "" {
		return errors.New("job has no title")
	}
	return nil
}

// Source is a configured collection target.
type Source struct {
	ID        int64
	Type      SourceType
	Query     string // search query for api sources, URL for feed/page sources
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// RefreshState is the single persisted row of cross-pass scheduler state.
// QuotaExhaustedOn holds the date the daily quota tripped and is only
// meaningful while QuotaExhausted is true.
type RefreshState struct {
	LastRefreshAt    *time.Time
	JobsCount        int
	SourcesCount     int
	QuotaExhausted   bool
	QuotaExhaustedOn *time.Time
	RotationCursor   int
}

// ResetQuotaIfNewDay clears the quota flag when today falls on a different
// date than the one it tripped on. This lazy check is the only daily-reset
// mechanism. Returns true when the state changed.
func (s *RefreshState) ResetQuotaIfNewDay(today time.Time) bool {
	if !s.QuotaExhausted {
		return false
	}
	if s.QuotaExhaustedOn != nil && sameDay(*s.QuotaExhaustedOn, today) {
		return false
	}
	s.QuotaExhausted = false
	s.QuotaExhaustedOn = nil
	return true
}

// MarkQuotaExhausted records that the daily quota tripped at t.
func (s *RefreshState) MarkQuotaExhausted(t time.Time) {
	d := t.UTC()
	s.QuotaExhausted = true
	s.QuotaExhaustedOn = &d
}

// Keyword returns the rotation keyword selected by the current cursor.
// A cursor left out of range by a shrunk keyword list wraps safely.
func (s *RefreshState) Keyword(keywords []string) string {
	if len(keywords) == 0 {
		return ""
	}
	return keywords[s.RotationCursor%len(keywords)]
}

// AdvanceRotation moves the cursor forward by one, wrapping at n.
func (s *RefreshState) AdvanceRotation(n int) {
	if n <= 0 {
		s.RotationCursor = 0
		return
	}
	s.RotationCursor = (s.RotationCursor + 1) % n
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Snapshot is the read-only status view served to the presentation layer.
type Snapshot struct {
	LastRefreshAt    *time.Time
	JobsCount        int
	SourcesCount     int
	CompaniesCount   int
	QuotaExhausted   bool
	QuotaExhaustedOn *time.Time
}
