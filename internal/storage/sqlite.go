package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"jobradar/internal/model"
	"jobradar/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// UpsertJobs commits a batch keyed by URL. Every record runs in its own
// transaction: a read by URL followed by an insert or an in-place update,
// so a failure partway through the batch leaves earlier records committed.
// A URL appearing twice in the same batch updates the row it created.
func (s *SQLite) UpsertJobs(ctx context.Context, jobs []model.Job) (UpsertStats, error) {
	var stats UpsertStats
	for i := range jobs {
		job := &jobs[i]
		if err := job.Validate(); err != nil {
			stats.Skipped++
			continue
		}
		created, err := s.upsertJob(ctx, job)
		if err != nil {
			stats.Failed++
			continue
		}
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}
	return stats, nil
}

func (s *SQLite) upsertJob(ctx context.Context, job *model.Job) (created bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(timeLayout)

	var (
		id             int64
		existingLevel  string
		existingPosted sql.NullString
	)
	row := tx.QueryRowContext(ctx,
		`SELECT id, level, posted_date FROM jobs WHERE url = ?`, job.URL,
	)
	err = row.Scan(&id, &existingLevel, &existingPosted)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx,
			`INSERT INTO jobs (title, company, location, description, url, source, source_name,
			                   level, posted_date, collected_at, is_active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
			job.Title, job.Company, job.Location, job.Description, job.URL,
			string(job.Source), job.SourceName, job.Level, formatTimePtr(job.PostedDate), now,
		)
		if err != nil {
			return false, fmt.Errorf("insert job: %w", err)
		}
		job.ID, _ = res.LastInsertId()
		created = true

	case err != nil:
		return false, fmt.Errorf("lookup job: %w", err)

	default:
		// Re-observation: overwrite mutable fields, keep the existing level
		// when the new record has none, and only move posted_date forward.
		level := job.Level
		if level == "" {
			level = existingLevel
		}
		posted := existingPosted
		if p := formatTimePtr(job.PostedDate); p != nil && (!posted.Valid || *p > posted.String) {
			posted = sql.NullString{String: *p, Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE jobs SET title = ?, company = ?, location = ?, description = ?,
			                 level = ?, posted_date = ?, collected_at = ?, is_active = 1
			 WHERE id = ?`,
			job.Title, job.Company, job.Location, job.Description,
			level, nullStringPtr(posted), now, id,
		)
		if err != nil {
			return false, fmt.Errorf("update job: %w", err)
		}
		job.ID = id
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit job: %w", err)
	}
	return created, nil
}

// ListJobs returns one page of active jobs plus the total count for the
// filters, newest collections first.
func (s *SQLite) ListJobs(ctx context.Context, q JobQuery) ([]model.Job, int, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 20
	}

	conds := []string{"is_active = 1"}
	var args []any
	if q.Search != "" {
		like := "%" + q.Search + "%"
		conds = append(conds, "(title LIKE ? OR company LIKE ? OR description LIKE ?)")
		args = append(args, like, like, like)
	}
	if q.Location != "" {
		conds = append(conds, "location LIKE ?")
		args = append(args, "%"+q.Location+"%")
	}
	if q.Level != "" {
		conds = append(conds, "level = ?")
		args = append(args, q.Level)
	}
	where := strings.Join(conds, " AND ")

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jobs WHERE `+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, company, location, description, url, source, source_name,
		        level, posted_date, collected_at, is_active
		 FROM jobs WHERE `+where+`
		 ORDER BY collected_at DESC, posted_date DESC
		 LIMIT ? OFFSET ?`,
		append(args, q.PerPage, (q.Page-1)*q.PerPage)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, j)
	}
	return jobs, total, rows.Err()
}

// CountActiveJobs returns the number of active job rows.
func (s *SQLite) CountActiveJobs(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE is_active = 1`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active jobs: %w", err)
	}
	return n, nil
}

// CountCompanies returns the number of distinct non-empty companies among active jobs.
func (s *SQLite) CountCompanies(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT company) FROM jobs WHERE is_active = 1 AND company != ''`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count companies: %w", err)
	}
	return n, nil
}

// DeactivateStale marks jobs not re-observed since olderThan as inactive
// and returns how many rows changed.
func (s *SQLite) DeactivateStale(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET is_active = 0 WHERE is_active = 1 AND collected_at < ?`,
		olderThan.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("deactivate stale: %w", err)
	}
	return res.RowsAffected()
}

// CreateSource inserts a new source and populates its ID and CreatedAt.
func (s *SQLite) CreateSource(ctx context.Context, src *model.Source) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sources (type, query, name, is_active, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(src.Type), src.Query, src.Name, boolToInt(src.IsActive), now,
	)
	if err != nil {
		return fmt.Errorf("insert source: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	src.ID = id
	src.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListActiveSources returns all active sources in insertion order.
func (s *SQLite) ListActiveSources(ctx context.Context) ([]model.Source, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, query, name, is_active, created_at
		 FROM sources WHERE is_active = 1 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sources []model.Source
	for rows.Next() {
		var src model.Source
		var typ, created string
		var isActive int
		if err := rows.Scan(&src.ID, &typ, &src.Query, &src.Name, &isActive, &created); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		src.Type = model.SourceType(typ)
		src.IsActive = isActive == 1
		src.CreatedAt, _ = time.Parse(timeLayout, created)
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// DeactivateSource soft-deletes a source. Returns false when no active
// source had the given ID.
func (s *SQLite) DeactivateSource(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sources SET is_active = 0 WHERE id = ? AND is_active = 1`, id,
	)
	if err != nil {
		return false, fmt.Errorf("deactivate source: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// GetRefreshState reads the single quota/rotation state row. A missing row
// (fresh database) yields a zero-value state.
func (s *SQLite) GetRefreshState(ctx context.Context) (*model.RefreshState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT last_refresh_at, jobs_count, sources_count, quota_exhausted,
		        quota_exhausted_on, rotation_cursor
		 FROM refresh_state WHERE id = 1`,
	)

	var state model.RefreshState
	var lastRefresh, quotaOn sql.NullString
	var exhausted int
	err := row.Scan(&lastRefresh, &state.JobsCount, &state.SourcesCount,
		&exhausted, &quotaOn, &state.RotationCursor)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.RefreshState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan refresh state: %w", err)
	}
	state.QuotaExhausted = exhausted == 1
	state.LastRefreshAt = parseNullTime(lastRefresh)
	state.QuotaExhaustedOn = parseNullTime(quotaOn)
	return &state, nil
}

// SaveRefreshState persists the quota/rotation state row, creating it if needed.
func (s *SQLite) SaveRefreshState(ctx context.Context, state *model.RefreshState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_state (id, last_refresh_at, jobs_count, sources_count,
		                            quota_exhausted, quota_exhausted_on, rotation_cursor)
		 VALUES (1, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   last_refresh_at = excluded.last_refresh_at,
		   jobs_count = excluded.jobs_count,
		   sources_count = excluded.sources_count,
		   quota_exhausted = excluded.quota_exhausted,
		   quota_exhausted_on = excluded.quota_exhausted_on,
		   rotation_cursor = excluded.rotation_cursor`,
		formatTimePtr(state.LastRefreshAt), state.JobsCount, state.SourcesCount,
		boolToInt(state.QuotaExhausted), formatTimePtr(state.QuotaExhaustedOn),
		state.RotationCursor,
	)
	if err != nil {
		return fmt.Errorf("save refresh state: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(timeLayout)
	return &v
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

type scannable interface {
	Scan(dest ...any) error
}

func scanJob(row scannable) (model.Job, error) {
	var j model.Job
	var source string
	var posted, collected sql.NullString
	var isActive int
	err := row.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.Description, &j.URL,
		&source, &j.SourceName, &j.Level, &posted, &collected, &isActive)
	if err != nil {
		return j, fmt.Errorf("scan job: %w", err)
	}
	j.Source = model.SourceType(source)
	j.IsActive = isActive == 1
	j.PostedDate = parseNullTime(posted)
	if collected.Valid {
		j.CollectedAt, _ = time.Parse(timeLayout, collected.String)
	}
	return j, nil
}
