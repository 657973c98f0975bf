package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/soaringjerry/Talentflow/internal/services"
)

func (s *SQLiteStore) GetAssessment(ctx context.Context, jobID int64) (*services.Assessment, error) {
	var (
		a         services.Assessment
		updatedAt int64
		sections  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT job_id, version, updated_at, sections FROM assessments WHERE job_id = ?`, jobID).
		Scan(&a.JobID, &a.Version, &updatedAt, &sections)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment %d: %w", jobID, err)
	}
	a.UpdatedAt = fromMillis(updatedAt)
	if err := json.Unmarshal([]byte(sections), &a.Sections); err != nil {
		return nil, fmt.Errorf("decode sections of assessment %d: %w", jobID, err)
	}
	if a.Sections == nil {
		a.Sections = []services.Section{}
	}
	return &a, nil
}

// SaveAssessment upserts the assessment keyed by job id and reports whether it was inserted.
func (s *SQLiteStore) SaveAssessment(ctx context.Context, a *services.Assessment) (bool, error) {
	sections := a.Sections
	if sections == nil {
		sections = []services.Section{}
	}
	raw, err := encodeJSON(sections)
	if err != nil {
		return false, fmt.Errorf("encode sections: %w", err)
	}
	created := false
	err = s.withTx(ctx, "save assessment", func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM assessments WHERE job_id = ?`, a.JobID).Scan(&n); err != nil {
			return fmt.Errorf("check assessment: %w", err)
		}
		created = n == 0
		_, err := tx.ExecContext(ctx,
			`INSERT INTO assessments(job_id, version, updated_at, sections) VALUES(?, ?, ?, ?)
			 ON CONFLICT(job_id) DO UPDATE SET version = excluded.version,
			     updated_at = excluded.updated_at, sections = excluded.sections`,
			a.JobID, a.Version, toMillis(a.UpdatedAt), raw)
		if err != nil {
			return fmt.Errorf("upsert assessment: %w", err)
		}
		return nil
	})
	return created, err
}

func (s *SQLiteStore) InsertSubmission(ctx context.Context, sub *services.Submission) error {
	answers := sub.Answers
	if answers == nil {
		answers = services.Answers{}
	}
	raw, err := encodeJSON(answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	var candidate sql.NullInt64
	if sub.CandidateID != nil {
		candidate = sql.NullInt64{Int64: *sub.CandidateID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions(job_id, candidate_id, answers, created_at) VALUES(?, ?, ?, ?)`,
		sub.JobID, candidate, raw, toMillis(sub.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("submission id: %w", err)
	}
	sub.ID = id
	return nil
}

// ListSubmissions returns a job's submissions newest first, optionally for one candidate.
func (s *SQLiteStore) ListSubmissions(ctx context.Context, jobID int64, candidateID *int64) ([]*services.Submission, error) {
	query := `SELECT id, job_id, candidate_id, answers, created_at FROM submissions WHERE job_id = ?`
	args := []any{jobID}
	if candidateID != nil {
		query += ` AND candidate_id = ?`
		args = append(args, *candidateID)
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()
	out := []*services.Submission{}
	for rows.Next() {
		var (
			sub       services.Submission
			candidate sql.NullInt64
			answers   string
			createdAt int64
		)
		if err := rows.Scan(&sub.ID, &sub.JobID, &candidate, &answers, &createdAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if candidate.Valid {
			id := candidate.Int64
			sub.CandidateID = &id
		}
		if err := json.Unmarshal([]byte(answers), &sub.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of submission %d: %w", sub.ID, err)
		}
		sub.CreatedAt = fromMillis(createdAt)
		out = append(out, &sub)
	}
	return out, rows.Err()
}
