package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/soaringjerry/Talentflow/internal/services"
)

const candidateColumns = `id, name, email, job_id, stage`

func scanCandidate(row interface{ Scan(...any) error }) (*services.Candidate, error) {
	var c services.Candidate
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.JobID, &c.Stage); err != nil {
		return nil, err
	}
	return &c, nil
}

func getCandidate(ctx context.Context, q querier, id int64) (*services.Candidate, error) {
	c, err := scanCandidate(q.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate %d: %w", id, err)
	}
	return c, nil
}

// ListCandidates returns candidates in id order; an empty stage lists everyone.
func (s *SQLiteStore) ListCandidates(ctx context.Context, stage services.Stage) ([]*services.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates`
	args := []any{}
	if stage != "" {
		query += ` WHERE stage = ?`
		args = append(args, string(stage))
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()
	out := []*services.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetCandidate(ctx context.Context, id int64) (*services.Candidate, error) {
	return getCandidate(ctx, s.db, id)
}

func (s *SQLiteStore) ListTimeline(ctx context.Context, candidateID int64) ([]*services.TimelineEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, candidate_id, at, from_stage, to_stage, note FROM timeline_events
		 WHERE candidate_id = ? ORDER BY at, id`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	defer rows.Close()
	out := []*services.TimelineEvent{}
	for rows.Next() {
		var (
			ev services.TimelineEvent
			at int64
		)
		if err := rows.Scan(&ev.ID, &ev.CandidateID, &at, &ev.FromStage, &ev.ToStage, &ev.Note); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		ev.At = fromMillis(at)
		out = append(out, &ev)
	}
	return out, rows.Err()
}

// UpdateCandidates serialises candidate writers so a stage change and its timeline entry
// commit together.
func (s *SQLiteStore) UpdateCandidates(ctx context.Context, fn func(tx services.CandidateTx) error) error {
	s.candidatesMu.Lock()
	defer s.candidatesMu.Unlock()
	return s.withTx(ctx, "update candidates", func(tx *sql.Tx) error {
		return fn(&candidateTx{tx: tx})
	})
}

type candidateTx struct {
	tx *sql.Tx
}

func (t *candidateTx) GetCandidate(ctx context.Context, id int64) (*services.Candidate, error) {
	return getCandidate(ctx, t.tx, id)
}

func (t *candidateTx) InsertCandidate(ctx context.Context, c *services.Candidate) error {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO candidates(name, email, job_id, stage) VALUES(?, ?, ?, ?)`,
		c.Name, c.Email, c.JobID, string(c.Stage))
	if err != nil {
		return fmt.Errorf("insert candidate: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert candidate id: %w", err)
	}
	c.ID = id
	return nil
}

func (t *candidateTx) UpdateCandidate(ctx context.Context, c *services.Candidate) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE candidates SET name = ?, email = ?, job_id = ?, stage = ? WHERE id = ?`,
		c.Name, c.Email, c.JobID, string(c.Stage), c.ID)
	if err != nil {
		return fmt.Errorf("update candidate %d: %w", c.ID, err)
	}
	return requireRow(res, "candidate", c.ID)
}

func (t *candidateTx) AppendTimelineEvent(ctx context.Context, ev *services.TimelineEvent) error {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO timeline_events(candidate_id, at, from_stage, to_stage, note) VALUES(?, ?, ?, ?, ?)`,
		ev.CandidateID, toMillis(ev.At), string(ev.FromStage), string(ev.ToStage), ev.Note)
	if err != nil {
		return fmt.Errorf("append timeline event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("timeline event id: %w", err)
	}
	ev.ID = id
	return nil
}
