package services

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"
)

type NoteStore interface {
	ListNotes(ctx context.Context, candidateID int64) ([]*Note, error)
	InsertNote(ctx context.Context, n *Note) error
	// DeleteNote reports whether a note was removed.
	DeleteNote(ctx context.Context, id int64) (bool, error)
}

type CandidateLookup interface {
	GetCandidate(ctx context.Context, id int64) (*Candidate, error)
}

type NewNote struct {
	Text     string
	Mentions []string
}

type NoteService struct {
	store      NoteStore
	candidates CandidateLookup
	now        func() time.Time
}

func NewNoteService(store NoteStore, candidates CandidateLookup) *NoteService {
	return &NoteService{
		store:      store,
		candidates: candidates,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *NoteService) List(ctx context.Context, candidateID int64) ([]*Note, error) {
	if err := s.requireCandidate(ctx, candidateID); err != nil {
		return nil, err
	}
	notes, err := s.store.ListNotes(ctx, candidateID)
	if err != nil {
		return nil, NewInternalError("list notes", err)
	}
	sort.SliceStable(notes, func(a, b int) bool {
		if notes[a].CreatedAt.Equal(notes[b].CreatedAt) {
			return notes[a].ID < notes[b].ID
		}
		return notes[a].CreatedAt.Before(notes[b].CreatedAt)
	})
	return notes, nil
}

func (s *NoteService) Create(ctx context.Context, candidateID int64, in NewNote) (*Note, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, NewInvalidError("text is required")
	}
	if err := s.requireCandidate(ctx, candidateID); err != nil {
		return nil, err
	}
	mentions := normalizeTags(in.Mentions)
	if len(mentions) == 0 {
		mentions = ExtractMentions(text)
	}
	n := &Note{CandidateID: candidateID, Text: text, Mentions: mentions, CreatedAt: s.now()}
	if err := s.store.InsertNote(ctx, n); err != nil {
		return nil, NewInternalError("insert note", err)
	}
	return n, nil
}

func (s *NoteService) Delete(ctx context.Context, id int64) error {
	ok, err := s.store.DeleteNote(ctx, id)
	if err != nil {
		return NewInternalError("delete note", err)
	}
	if !ok {
		return NewNotFoundError("Not found")
	}
	return nil
}

func (s *NoteService) requireCandidate(ctx context.Context, id int64) error {
	c, err := s.candidates.GetCandidate(ctx, id)
	if err != nil {
		return NewInternalError("get candidate", err)
	}
	if c == nil {
		return NewNotFoundError("Candidate not found")
	}
	return nil
}

var mentionPattern = regexp.MustCompile(`(?i)@([a-z0-9_]+)`)

// ExtractMentions returns the distinct @handles in text, lowercased, in order of appearance.
func ExtractMentions(text string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		h := strings.ToLower(m[1])
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}
