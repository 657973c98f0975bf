package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/soaringjerry/Talentflow/internal/services"
)

// Snapshot is a JSON export of every collection, as produced by the browser app's
// IndexedDB export. Ids are preserved on import.
type Snapshot struct {
	Jobs        []*services.Job           `json:"jobs"`
	Candidates  []*services.Candidate     `json:"candidates"`
	Timelines   []*services.TimelineEvent `json:"timelines"`
	Assessments []*services.Assessment    `json:"assessments"`
	Submissions []*services.Submission    `json:"submissions"`
	Notes       []*services.Note          `json:"notes"`
}

func LoadSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// ImportSnapshot copies snap into an empty store in a single transaction and returns a
// conflict error when jobs already exist. Ids are kept, job orders
// are renumbered densely in (order, id) sequence, unknown stages become applied and assessments
// are normalized the way saving one through the API would.
func (s *SQLiteStore) ImportSnapshot(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return nil
	}
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	s.candidatesMu.Lock()
	defer s.candidatesMu.Unlock()

	return s.withTx(ctx, "import snapshot", func(tx *sql.Tx) error {
		var existing int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&existing); err != nil {
			return fmt.Errorf("count jobs: %w", err)
		}
		if existing > 0 {
			return services.NewConflictError(fmt.Sprintf("database already holds %d jobs", existing))
		}
		for i, j := range denseJobs(snap.Jobs) {
			tags, err := encodeJSON(nonNilStrings(j.Tags))
			if err != nil {
				return err
			}
			status := j.Status
			if status == "" {
				status = services.JobActive
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO jobs(id, title, slug, status, tags, sort_order) VALUES(?, ?, ?, ?, ?, ?)`,
				j.ID, j.Title, j.Slug, string(status), tags, i); err != nil {
				return fmt.Errorf("import job %d: %w", j.ID, err)
			}
		}
		for _, c := range snap.Candidates {
			if c == nil {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO candidates(id, name, email, job_id, stage) VALUES(?, ?, ?, ?, ?)`,
				c.ID, c.Name, c.Email, c.JobID, string(knownStage(c.Stage))); err != nil {
				return fmt.Errorf("import candidate %d: %w", c.ID, err)
			}
		}
		for _, ev := range snap.Timelines {
			if ev == nil {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO timeline_events(id, candidate_id, at, from_stage, to_stage, note) VALUES(?, ?, ?, ?, ?, ?)`,
				optionalID(ev.ID), ev.CandidateID, toMillis(ev.At),
				string(knownStage(ev.FromStage)), string(knownStage(ev.ToStage)), ev.Note); err != nil {
				return fmt.Errorf("import timeline event: %w", err)
			}
		}
		for _, a := range snap.Assessments {
			if a == nil {
				continue
			}
			normalized, err := services.NormalizeSections(a.Sections, nil)
			if err != nil {
				return fmt.Errorf("import assessment %d: %w", a.JobID, err)
			}
			sections, err := encodeJSON(normalized)
			if err != nil {
				return err
			}
			version := a.Version
			if version <= 0 {
				version = 1
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO assessments(job_id, version, updated_at, sections) VALUES(?, ?, ?, ?)`,
				a.JobID, version, toMillis(a.UpdatedAt), sections); err != nil {
				return fmt.Errorf("import assessment %d: %w", a.JobID, err)
			}
		}
		for _, sub := range snap.Submissions {
			if sub == nil {
				continue
			}
			answers, err := encodeJSON(sub.Answers)
			if err != nil {
				return err
			}
			var candidate sql.NullInt64
			if sub.CandidateID != nil {
				candidate = sql.NullInt64{Int64: *sub.CandidateID, Valid: true}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO submissions(id, job_id, candidate_id, answers, created_at) VALUES(?, ?, ?, ?, ?)`,
				optionalID(sub.ID), sub.JobID, candidate, answers, toMillis(sub.CreatedAt)); err != nil {
				return fmt.Errorf("import submission: %w", err)
			}
		}
		for _, n := range snap.Notes {
			if n == nil {
				continue
			}
			mentions, err := encodeJSON(nonNilStrings(n.Mentions))
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO notes(id, candidate_id, text, mentions, created_at) VALUES(?, ?, ?, ?, ?)`,
				optionalID(n.ID), n.CandidateID, n.Text, mentions, toMillis(n.CreatedAt)); err != nil {
				return fmt.Errorf("import note: %w", err)
			}
		}
		return nil
	})
}

func denseJobs(in []*services.Job) []*services.Job {
	out := make([]*services.Job, 0, len(in))
	for _, j := range in {
		if j != nil {
			out = append(out, j)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Order != out[b].Order {
			return out[a].Order < out[b].Order
		}
		return out[a].ID < out[b].ID
	})
	return out
}

func knownStage(st services.Stage) services.Stage {
	if parsed, ok := services.ParseStage(string(st)); ok {
		return parsed
	}
	return services.StageApplied
}

// optionalID lets SQLite assign a row id when the snapshot carries none.
func optionalID(id int64) any {
	if id > 0 {
		return id
	}
	return nil
}
