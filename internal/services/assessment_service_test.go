package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubAssessmentStore struct {
	assessments map[int64]*Assessment
	submissions []*Submission
	nextSub     int64
	saveErr     error
}

func newStubAssessmentStore() *stubAssessmentStore {
	return &stubAssessmentStore{assessments: map[int64]*Assessment{}}
}

func (s *stubAssessmentStore) GetAssessment(_ context.Context, jobID int64) (*Assessment, error) {
	a, ok := s.assessments[jobID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *stubAssessmentStore) SaveAssessment(_ context.Context, a *Assessment) (bool, error) {
	if s.saveErr != nil {
		return false, s.saveErr
	}
	_, existed := s.assessments[a.JobID]
	cp := *a
	s.assessments[a.JobID] = &cp
	return !existed, nil
}

func (s *stubAssessmentStore) InsertSubmission(_ context.Context, sub *Submission) error {
	s.nextSub++
	sub.ID = s.nextSub
	s.submissions = append(s.submissions, sub)
	return nil
}

func (s *stubAssessmentStore) ListSubmissions(_ context.Context, jobID int64, candidateID *int64) ([]*Submission, error) {
	out := []*Submission{}
	for i := len(s.submissions) - 1; i >= 0; i-- {
		sub := s.submissions[i]
		if sub.JobID != jobID {
			continue
		}
		if candidateID != nil && (sub.CandidateID == nil || *sub.CandidateID != *candidateID) {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newAssessmentFixture(strict bool) (*AssessmentService, *stubAssessmentStore, *recordingPublisher) {
	store := newStubAssessmentStore()
	pub := &recordingPublisher{}
	svc := NewAssessmentService(store, pub, strict)
	svc.now = func() time.Time { return fixedNow }
	n := 0
	svc.idGenerator = func() string {
		n++
		return "gen" + string(rune('0'+n))
	}
	return svc, store, pub
}

func TestGetAssessmentSkeleton(t *testing.T) {
	svc, _, _ := newAssessmentFixture(false)
	a, err := svc.Get(context.Background(), 4)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.JobID != 4 || a.Version != 1 || len(a.Sections) != 0 || !a.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected skeleton: %+v", a)
	}
	if a.Sections == nil {
		t.Fatalf("sections should encode as an empty array")
	}
}

func TestSaveAssessmentReplaces(t *testing.T) {
	svc, store, _ := newAssessmentFixture(false)
	ctx := context.Background()

	a, created, err := svc.Save(ctx, 3, SaveAssessmentRequest{Sections: []Section{{
		Questions: []Question{{Type: "numeric"}, {ID: "keep", Type: QuestionMulti, Title: "Stack"}},
	}}})
	if err != nil || !created {
		t.Fatalf("first save: created=%v err=%v", created, err)
	}
	sec := a.Sections[0]
	if sec.ID != "gen1" || sec.Title != "Section" {
		t.Fatalf("section defaults: %+v", sec)
	}
	q := sec.Questions[0]
	if q.Type != QuestionNumber || q.ID != "gen2" || q.Title != "Untitled question" {
		t.Fatalf("question defaults: %+v", q)
	}
	if a.Version != 1 {
		t.Fatalf("version = %d", a.Version)
	}

	_, created, err = svc.Save(ctx, 3, SaveAssessmentRequest{Sections: []Section{}, Version: 4})
	if err != nil || created {
		t.Fatalf("second save: created=%v err=%v", created, err)
	}
	if len(store.assessments[3].Sections) != 0 || store.assessments[3].Version != 4 {
		t.Fatalf("save should replace wholesale: %+v", store.assessments[3])
	}

	if _, _, err := svc.Save(ctx, 3, SaveAssessmentRequest{Sections: []Section{{Questions: []Question{{Type: "slider"}}}}}); err == nil {
		t.Fatalf("expected unknown type to fail")
	}

	store.saveErr = errors.New("locked")
	_, _, err = svc.Save(ctx, 3, SaveAssessmentRequest{})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInternal || len(se.Stack) == 0 {
		t.Fatalf("expected internal error with stack, got %v", err)
	}
}

func TestExists(t *testing.T) {
	svc, store, _ := newAssessmentFixture(false)
	store.assessments[1] = &Assessment{JobID: 1, Sections: []Section{{ID: "s"}}}
	store.assessments[2] = &Assessment{JobID: 2, Sections: []Section{}}

	got, err := svc.Exists(context.Background(), []int64{1, 2, 3, 0})
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !got[1] || got[2] || got[3] || len(got) != 3 {
		t.Fatalf("unexpected exists map: %v", got)
	}
}

func TestSubmitTrustsClientByDefault(t *testing.T) {
	svc, store, pub := newAssessmentFixture(false)
	store.assessments[1] = screeningAssessment()
	cand := int64(9)

	sub, err := svc.Submit(context.Background(), 1, SubmitRequest{CandidateID: &cand, Answers: Answers{"q6": "abc"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.ID != 1 || !sub.CreatedAt.Equal(fixedNow) || *sub.CandidateID != 9 {
		t.Fatalf("unexpected submission: %+v", sub)
	}
	if len(pub.events) != 1 || pub.events[0].Type != EventAssessmentSubmitted {
		t.Fatalf("published %+v", pub.events)
	}
}

func TestSubmitStrictRejectsInvalid(t *testing.T) {
	svc, store, _ := newAssessmentFixture(true)
	store.assessments[1] = screeningAssessment()

	_, err := svc.Submit(context.Background(), 1, SubmitRequest{Answers: Answers{"q1": "Ada", "q6": "abc", "q9": []any{"Go"}}})
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid || se.Fields["q6"] != "Must be a number" {
		t.Fatalf("expected field errors, got %v", err)
	}
	if len(store.submissions) != 0 {
		t.Fatalf("invalid submission stored")
	}

	if _, err := svc.Submit(context.Background(), 1, SubmitRequest{Answers: Answers{"q1": "Ada", "q6": 4.0, "q9": []any{"Go"}}}); err != nil {
		t.Fatalf("valid strict submit: %v", err)
	}
}

func TestListSubmissionsNewestFirst(t *testing.T) {
	svc, _, _ := newAssessmentFixture(false)
	ctx := context.Background()
	a, b := int64(1), int64(2)
	for _, c := range []*int64{&a, &b, &a} {
		if _, err := svc.Submit(ctx, 5, SubmitRequest{CandidateID: c}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	all, _ := svc.ListSubmissions(ctx, 5, nil)
	if len(all) != 3 || all[0].ID != 3 {
		t.Fatalf("unexpected list: %+v", all)
	}
	onlyA, _ := svc.ListSubmissions(ctx, 5, &a)
	if len(onlyA) != 2 || onlyA[0].ID != 3 || onlyA[1].ID != 1 {
		t.Fatalf("candidate filter: %+v", onlyA)
	}
}

func TestValidateEndpointResult(t *testing.T) {
	svc, store, _ := newAssessmentFixture(false)
	store.assessments[1] = screeningAssessment()
	res, err := svc.Validate(context.Background(), 1, Answers{"q1": "Ada", "q6": 3.0, "q9": []any{"Rust"}})
	if err != nil || !res.Valid || len(res.Errors) != 0 {
		t.Fatalf("expected valid: %+v %v", res, err)
	}
	res, _ = svc.Validate(context.Background(), 1, Answers{})
	if res.Valid || res.Errors["q1"] != "Required" {
		t.Fatalf("expected invalid: %+v", res)
	}
}
