package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// CandidateTx is the view of candidates and their timelines inside one atomic write.
type CandidateTx interface {
	GetCandidate(ctx context.Context, id int64) (*Candidate, error)
	InsertCandidate(ctx context.Context, c *Candidate) error
	UpdateCandidate(ctx context.Context, c *Candidate) error
	AppendTimelineEvent(ctx context.Context, ev *TimelineEvent) error
}

type CandidateStore interface {
	ListCandidates(ctx context.Context, stage Stage) ([]*Candidate, error)
	GetCandidate(ctx context.Context, id int64) (*Candidate, error)
	ListTimeline(ctx context.Context, candidateID int64) ([]*TimelineEvent, error)
	UpdateCandidates(ctx context.Context, fn func(tx CandidateTx) error) error
}

// JobLookup is the read-only slice of the job store candidates need for enrichment.
type JobLookup interface {
	ListJobs(ctx context.Context) ([]*Job, error)
	GetJob(ctx context.Context, id int64) (*Job, error)
}

type NewCandidate struct {
	Name  string
	Email string
	Stage string
	JobID int64
}

type CandidatePatch struct {
	Name  *string
	Email *string
	JobID *int64
	Stage *string
}

type CandidateList struct {
	Data  []CandidateView `json:"data"`
	Total int             `json:"total"`
}

type CandidateService struct {
	store  CandidateStore
	jobs   JobLookup
	events EventPublisher
	now    func() time.Time
}

func NewCandidateService(store CandidateStore, jobs JobLookup, events EventPublisher) *CandidateService {
	return &CandidateService{
		store:  store,
		jobs:   jobs,
		events: publisherOrNop(events),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *CandidateService) List(ctx context.Context, stage string) (CandidateList, error) {
	items, err := s.store.ListCandidates(ctx, Stage(stage))
	if err != nil {
		return CandidateList{}, NewInternalError("list candidates", err)
	}
	jobs, err := s.jobs.ListJobs(ctx)
	if err != nil {
		return CandidateList{}, NewInternalError("list jobs", err)
	}
	titles := make(map[int64]string, len(jobs))
	for _, j := range jobs {
		titles[j.ID] = j.Title
	}
	data := make([]CandidateView, 0, len(items))
	for _, c := range items {
		data = append(data, CandidateView{Candidate: *c, JobTitle: jobTitle(titles[c.JobID], c.JobID)})
	}
	return CandidateList{Data: data, Total: len(data)}, nil
}

func (s *CandidateService) Get(ctx context.Context, id int64) (*CandidateView, error) {
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return nil, NewInternalError("get candidate", err)
	}
	if c == nil {
		return nil, NewNotFoundError("Not found")
	}
	return s.view(ctx, c)
}

// Create inserts a candidate and its "Created" timeline entry in one transaction.
// An unknown stage falls back to applied.
func (s *CandidateService) Create(ctx context.Context, in NewCandidate) (*CandidateView, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" {
		return nil, NewInvalidError("name and email are required")
	}
	stage, ok := ParseStage(in.Stage)
	if !ok {
		stage = StageApplied
	}
	if err := s.requireJob(ctx, in.JobID); err != nil {
		return nil, err
	}
	c := &Candidate{Name: name, Email: email, JobID: in.JobID, Stage: stage}
	err := s.store.UpdateCandidates(ctx, func(tx CandidateTx) error {
		if err := tx.InsertCandidate(ctx, c); err != nil {
			return err
		}
		return tx.AppendTimelineEvent(ctx, &TimelineEvent{
			CandidateID: c.ID,
			At:          s.now(),
			FromStage:   StageApplied,
			ToStage:     stage,
			Note:        NoteCreated,
		})
	})
	if err != nil {
		return nil, wrapStoreError("create candidate", err)
	}
	return s.view(ctx, c)
}

// Update applies identity edits and an optional stage change atomically. A stage change to a
// different stage appends exactly one timeline event; the same stage appends nothing.
func (s *CandidateService) Update(ctx context.Context, id int64, patch CandidatePatch) (*CandidateView, error) {
	if patch.JobID != nil {
		if err := s.requireJob(ctx, *patch.JobID); err != nil {
			return nil, err
		}
	}
	var (
		out *Candidate
		ev  *TimelineEvent
	)
	err := s.store.UpdateCandidates(ctx, func(tx CandidateTx) error {
		c, err := tx.GetCandidate(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return NewNotFoundError("Not found")
		}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return NewInvalidError("name cannot be empty")
			}
			c.Name = name
		}
		if patch.Email != nil {
			email := normalizeEmail(*patch.Email)
			if email == "" {
				return NewInvalidError("email cannot be empty")
			}
			c.Email = email
		}
		if patch.JobID != nil {
			c.JobID = *patch.JobID
		}
		if patch.Stage != nil {
			ev, err = PlanStageChange(c, *patch.Stage, s.now())
			if err != nil {
				return err
			}
			if ev != nil {
				if err := tx.AppendTimelineEvent(ctx, ev); err != nil {
					return err
				}
			}
		}
		if err := tx.UpdateCandidate(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("update candidate", err)
	}
	if ev != nil {
		s.events.Publish(ctx, Event{Type: EventCandidateStage, At: ev.At, Data: StageChangedData{
			CandidateID: id,
			FromStage:   ev.FromStage,
			ToStage:     ev.ToStage,
		}})
	}
	return s.view(ctx, out)
}

func (s *CandidateService) ChangeStage(ctx context.Context, id int64, stage string) (*CandidateView, error) {
	return s.Update(ctx, id, CandidatePatch{Stage: &stage})
}

// Timeline returns a candidate's events oldest first.
func (s *CandidateService) Timeline(ctx context.Context, id int64) ([]*TimelineEvent, error) {
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return nil, NewInternalError("get candidate", err)
	}
	if c == nil {
		return nil, NewNotFoundError("Not found")
	}
	events, err := s.store.ListTimeline(ctx, id)
	if err != nil {
		return nil, NewInternalError("list timeline", err)
	}
	sort.SliceStable(events, func(a, b int) bool {
		if events[a].At.Equal(events[b].At) {
			return events[a].ID < events[b].ID
		}
		return events[a].At.Before(events[b].At)
	})
	return events, nil
}

func (s *CandidateService) requireJob(ctx context.Context, jobID int64) error {
	if jobID <= 0 {
		return NewInvalidError("jobId is required")
	}
	j, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return NewInternalError("get job", err)
	}
	if j == nil {
		return NewNotFoundError(fmt.Sprintf("job %d not found", jobID))
	}
	return nil
}

func (s *CandidateService) view(ctx context.Context, c *Candidate) (*CandidateView, error) {
	j, err := s.jobs.GetJob(ctx, c.JobID)
	if err != nil {
		return nil, NewInternalError("get job", err)
	}
	title := ""
	if j != nil {
		title = j.Title
	}
	return &CandidateView{Candidate: *c, JobTitle: jobTitle(title, c.JobID)}, nil
}

func jobTitle(title string, jobID int64) string {
	if title != "" {
		return title
	}
	return fmt.Sprintf("Job #%d", jobID)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
