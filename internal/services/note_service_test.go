package services

import (
	"context"
	"testing"
	"time"
)

type stubNoteStore struct {
	notes  []*Note
	nextID int64
}

func (s *stubNoteStore) ListNotes(_ context.Context, candidateID int64) ([]*Note, error) {
	out := []*Note{}
	for _, n := range s.notes {
		if n.CandidateID == candidateID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *stubNoteStore) InsertNote(_ context.Context, n *Note) error {
	s.nextID++
	n.ID = s.nextID
	s.notes = append(s.notes, n)
	return nil
}

func (s *stubNoteStore) DeleteNote(_ context.Context, id int64) (bool, error) {
	for i, n := range s.notes {
		if n.ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func TestNoteLifecycle(t *testing.T) {
	candidates := newStubCandidateStore(&Candidate{ID: 1, Name: "Ada", Email: "a@x", JobID: 1, Stage: StageApplied})
	store := &stubNoteStore{}
	svc := NewNoteService(store, candidates)
	clock := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(-time.Minute)
		return clock
	}
	ctx := context.Background()

	first, err := svc.Create(ctx, 1, NewNote{Text: "  Great call, looping in @Maria and @dev_lead, cc @maria "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Text != "Great call, looping in @Maria and @dev_lead, cc @maria" {
		t.Fatalf("text not trimmed: %q", first.Text)
	}
	if len(first.Mentions) != 2 || first.Mentions[0] != "maria" || first.Mentions[1] != "dev_lead" {
		t.Fatalf("mentions = %v", first.Mentions)
	}
	second, _ := svc.Create(ctx, 1, NewNote{Text: "explicit", Mentions: []string{"sam"}})
	if len(second.Mentions) != 1 || second.Mentions[0] != "sam" {
		t.Fatalf("explicit mentions = %v", second.Mentions)
	}

	notes, err := svc.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// the clock runs backwards so the second note is older
	if len(notes) != 2 || notes[0].ID != second.ID {
		t.Fatalf("notes not ascending by createdAt: %+v", notes)
	}

	if err := svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, first.ID); !IsNotFound(err) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestNoteValidation(t *testing.T) {
	svc := NewNoteService(&stubNoteStore{}, newStubCandidateStore())
	if _, err := svc.Create(context.Background(), 1, NewNote{Text: "   "}); err == nil {
		t.Fatalf("expected blank text to fail")
	}
	if _, err := svc.Create(context.Background(), 1, NewNote{Text: "hi"}); !IsNotFound(err) {
		t.Fatalf("expected missing candidate, got %v", err)
	}
	if _, err := svc.List(context.Background(), 1); !IsNotFound(err) {
		t.Fatalf("expected missing candidate on list, got %v", err)
	}
}
