package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/soaringjerry/Talentflow/internal/services"
)

const jobColumns = `id, title, slug, status, tags, sort_order`

func scanJob(row interface{ Scan(...any) error }) (*services.Job, error) {
	var (
		j    services.Job
		tags string
	)
	if err := row.Scan(&j.ID, &j.Title, &j.Slug, &j.Status, &tags, &j.Order); err != nil {
		return nil, err
	}
	decoded, err := decodeStrings(tags)
	if err != nil {
		return nil, fmt.Errorf("decode tags of job %d: %w", j.ID, err)
	}
	j.Tags = decoded
	return &j, nil
}

func listJobs(ctx context.Context, q querier) ([]*services.Job, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()
	out := []*services.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func findJobBySlug(ctx context.Context, q querier, slug string, excludeID int64) (*services.Job, error) {
	row := q.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE slug = ? AND id != ? LIMIT 1`, slug, excludeID)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find job by slug: %w", err)
	}
	return j, nil
}

func (s *SQLiteStore) ListJobs(ctx context.Context) ([]*services.Job, error) {
	return listJobs(ctx, s.db)
}

func (s *SQLiteStore) GetJob(ctx context.Context, id int64) (*services.Job, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return j, nil
}

func (s *SQLiteStore) FindJobBySlug(ctx context.Context, slug string, excludeID int64) (*services.Job, error) {
	return findJobBySlug(ctx, s.db, slug, excludeID)
}

// UpdateJobs serialises job writers and runs fn in one transaction.
func (s *SQLiteStore) UpdateJobs(ctx context.Context, fn func(tx services.JobTx) error) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	return s.withTx(ctx, "update jobs", func(tx *sql.Tx) error {
		return fn(&jobTx{tx: tx})
	})
}

type jobTx struct {
	tx *sql.Tx
}

func (t *jobTx) ListJobs(ctx context.Context) ([]*services.Job, error) {
	return listJobs(ctx, t.tx)
}

func (t *jobTx) FindJobBySlug(ctx context.Context, slug string, excludeID int64) (*services.Job, error) {
	return findJobBySlug(ctx, t.tx, slug, excludeID)
}

func (t *jobTx) InsertJob(ctx context.Context, j *services.Job) error {
	tags, err := encodeJSON(nonNilStrings(j.Tags))
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO jobs(title, slug, status, tags, sort_order) VALUES(?, ?, ?, ?, ?)`,
		j.Title, j.Slug, string(j.Status), tags, j.Order)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert job id: %w", err)
	}
	j.ID = id
	return nil
}

func (t *jobTx) UpdateJob(ctx context.Context, j *services.Job) error {
	tags, err := encodeJSON(nonNilStrings(j.Tags))
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE jobs SET title = ?, slug = ?, status = ?, tags = ? WHERE id = ?`,
		j.Title, j.Slug, string(j.Status), tags, j.ID)
	if err != nil {
		return fmt.Errorf("update job %d: %w", j.ID, err)
	}
	return requireRow(res, "job", j.ID)
}

func (t *jobTx) SetJobOrder(ctx context.Context, id int64, order int) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE jobs SET sort_order = ? WHERE id = ?`, order, id)
	if err != nil {
		return fmt.Errorf("set order of job %d: %w", id, err)
	}
	return requireRow(res, "job", id)
}

func requireRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, sql.ErrNoRows)
	}
	return nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
