package services

import (
	"context"
	"errors"
	"sort"
)

type stubJobStore struct {
	jobs   []*Job
	nextID int64
	// failOrderWrites makes the nth SetJobOrder call inside a transaction fail.
	failOrderWrites int
}

func newStubJobStore(jobs ...*Job) *stubJobStore {
	s := &stubJobStore{}
	for _, j := range jobs {
		if j.ID > s.nextID {
			s.nextID = j.ID
		}
		s.jobs = append(s.jobs, j)
	}
	return s
}

func cloneJobs(in []*Job) []*Job {
	out := make([]*Job, 0, len(in))
	for _, j := range in {
		cp := *j
		cp.Tags = append([]string(nil), j.Tags...)
		out = append(out, &cp)
	}
	return out
}

func (s *stubJobStore) ListJobs(context.Context) ([]*Job, error) { return cloneJobs(s.jobs), nil }

func (s *stubJobStore) GetJob(_ context.Context, id int64) (*Job, error) {
	for _, j := range s.jobs {
		if j.ID == id {
			cp := *j
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubJobStore) FindJobBySlug(ctx context.Context, slug string, excludeID int64) (*Job, error) {
	return (&stubJobTx{jobs: s.jobs}).FindJobBySlug(ctx, slug, excludeID)
}

func (s *stubJobStore) UpdateJobs(_ context.Context, fn func(tx JobTx) error) error {
	tx := &stubJobTx{store: s, jobs: cloneJobs(s.jobs), nextID: s.nextID, failAt: s.failOrderWrites}
	if err := fn(tx); err != nil {
		return err
	}
	s.jobs = tx.jobs
	s.nextID = tx.nextID
	return nil
}

func (s *stubJobStore) orders() map[int64]int {
	out := map[int64]int{}
	for _, j := range s.jobs {
		out[j.ID] = j.Order
	}
	return out
}

type stubJobTx struct {
	store  *stubJobStore
	jobs   []*Job
	nextID int64
	writes int
	failAt int
}

func (t *stubJobTx) ListJobs(context.Context) ([]*Job, error) { return cloneJobs(t.jobs), nil }

func (t *stubJobTx) FindJobBySlug(_ context.Context, slug string, excludeID int64) (*Job, error) {
	for _, j := range t.jobs {
		if j.Slug == slug && j.ID != excludeID {
			cp := *j
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *stubJobTx) InsertJob(_ context.Context, j *Job) error {
	t.nextID++
	j.ID = t.nextID
	cp := *j
	t.jobs = append(t.jobs, &cp)
	return nil
}

func (t *stubJobTx) UpdateJob(_ context.Context, j *Job) error {
	for i, cur := range t.jobs {
		if cur.ID == j.ID {
			cp := *j
			t.jobs[i] = &cp
			return nil
		}
	}
	return errors.New("missing job")
}

func (t *stubJobTx) SetJobOrder(_ context.Context, id int64, order int) error {
	t.writes++
	if t.failAt > 0 && t.writes == t.failAt {
		return errors.New("disk full")
	}
	for _, j := range t.jobs {
		if j.ID == id {
			j.Order = order
			return nil
		}
	}
	return errors.New("missing job")
}

type stubCandidateStore struct {
	candidates map[int64]*Candidate
	timeline   []*TimelineEvent
	nextID     int64
	nextEvent  int64
	failAppend bool
}

func newStubCandidateStore(cs ...*Candidate) *stubCandidateStore {
	s := &stubCandidateStore{candidates: map[int64]*Candidate{}}
	for _, c := range cs {
		s.candidates[c.ID] = c
		if c.ID > s.nextID {
			s.nextID = c.ID
		}
	}
	return s
}

func (s *stubCandidateStore) ListCandidates(_ context.Context, stage Stage) ([]*Candidate, error) {
	out := []*Candidate{}
	for _, c := range s.candidates {
		if stage != "" && c.Stage != stage {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (s *stubCandidateStore) GetCandidate(_ context.Context, id int64) (*Candidate, error) {
	c, ok := s.candidates[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *stubCandidateStore) ListTimeline(_ context.Context, id int64) ([]*TimelineEvent, error) {
	out := []*TimelineEvent{}
	for _, ev := range s.timeline {
		if ev.CandidateID == id {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubCandidateStore) UpdateCandidates(_ context.Context, fn func(tx CandidateTx) error) error {
	tx := &stubCandidateTx{
		candidates: map[int64]*Candidate{},
		timeline:   append([]*TimelineEvent(nil), s.timeline...),
		nextID:     s.nextID,
		nextEvent:  s.nextEvent,
		failAppend: s.failAppend,
	}
	for id, c := range s.candidates {
		cp := *c
		tx.candidates[id] = &cp
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.candidates = tx.candidates
	s.timeline = tx.timeline
	s.nextID = tx.nextID
	s.nextEvent = tx.nextEvent
	return nil
}

type stubCandidateTx struct {
	candidates map[int64]*Candidate
	timeline   []*TimelineEvent
	nextID     int64
	nextEvent  int64
	failAppend bool
}

func (t *stubCandidateTx) GetCandidate(_ context.Context, id int64) (*Candidate, error) {
	c, ok := t.candidates[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (t *stubCandidateTx) InsertCandidate(_ context.Context, c *Candidate) error {
	t.nextID++
	c.ID = t.nextID
	cp := *c
	t.candidates[c.ID] = &cp
	return nil
}

func (t *stubCandidateTx) UpdateCandidate(_ context.Context, c *Candidate) error {
	cp := *c
	t.candidates[c.ID] = &cp
	return nil
}

func (t *stubCandidateTx) AppendTimelineEvent(_ context.Context, ev *TimelineEvent) error {
	if t.failAppend {
		return errors.New("timeline unavailable")
	}
	t.nextEvent++
	ev.ID = t.nextEvent
	cp := *ev
	t.timeline = append(t.timeline, &cp)
	return nil
}

type recordingPublisher struct {
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) {
	p.events = append(p.events, ev)
}
