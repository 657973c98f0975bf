package db

import (
	"context"
	"fmt"

	"github.com/soaringjerry/Talentflow/internal/services"
)

func (s *SQLiteStore) ListNotes(ctx context.Context, candidateID int64) ([]*services.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, candidate_id, text, mentions, created_at FROM notes
		 WHERE candidate_id = ? ORDER BY created_at, id`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()
	out := []*services.Note{}
	for rows.Next() {
		var (
			n         services.Note
			mentions  string
			createdAt int64
		)
		if err := rows.Scan(&n.ID, &n.CandidateID, &n.Text, &mentions, &createdAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		if n.Mentions, err = decodeStrings(mentions); err != nil {
			return nil, fmt.Errorf("decode mentions of note %d: %w", n.ID, err)
		}
		n.CreatedAt = fromMillis(createdAt)
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertNote(ctx context.Context, n *services.Note) error {
	mentions, err := encodeJSON(nonNilStrings(n.Mentions))
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notes(candidate_id, text, mentions, created_at) VALUES(?, ?, ?, ?)`,
		n.CandidateID, n.Text, mentions, toMillis(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("note id: %w", err)
	}
	n.ID = id
	return nil
}

func (s *SQLiteStore) DeleteNote(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete note %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
