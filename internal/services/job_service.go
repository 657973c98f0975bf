package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// JobTx is the view of the job collection available inside one atomic write.
type JobTx interface {
	ListJobs(ctx context.Context) ([]*Job, error)
	FindJobBySlug(ctx context.Context, slug string, excludeID int64) (*Job, error)
	InsertJob(ctx context.Context, j *Job) error
	UpdateJob(ctx context.Context, j *Job) error
	SetJobOrder(ctx context.Context, id int64, order int) error
}

// JobStore abstracts persistence operations required by JobService.
// UpdateJobs runs fn inside a serialized transaction; any error rolls back every write fn made.
type JobStore interface {
	ListJobs(ctx context.Context) ([]*Job, error)
	GetJob(ctx context.Context, id int64) (*Job, error)
	FindJobBySlug(ctx context.Context, slug string, excludeID int64) (*Job, error)
	UpdateJobs(ctx context.Context, fn func(tx JobTx) error) error
}

type NewJob struct {
	Title string
	Tags  []string
}

// JobPatch carries optional job edits. A nil field leaves the stored value untouched.
type JobPatch struct {
	Title  *string
	Tags   []string
	Status *string
}

type JobService struct {
	store  JobStore
	events EventPublisher
	now    func() time.Time
}

func NewJobService(store JobStore, events EventPublisher) *JobService {
	return &JobService{
		store:  store,
		events: publisherOrNop(events),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *JobService) List(ctx context.Context, q JobQuery) (JobPage, error) {
	all, err := s.store.ListJobs(ctx)
	if err != nil {
		return JobPage{}, NewInternalError("list jobs", err)
	}
	return QueryJobs(all, q), nil
}

func (s *JobService) Get(ctx context.Context, id int64) (*Job, error) {
	j, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, NewInternalError("get job", err)
	}
	if j == nil {
		return nil, NewNotFoundError("Not found")
	}
	return j, nil
}

// SlugAvailable reports whether slug is free, ignoring excludeID, and which job holds it otherwise.
func (s *JobService) SlugAvailable(ctx context.Context, slug string, excludeID int64) (bool, int64, error) {
	j, err := s.store.FindJobBySlug(ctx, strings.ToLower(slug), excludeID)
	if err != nil {
		return false, 0, NewInternalError("find job by slug", err)
	}
	if j == nil {
		return true, 0, nil
	}
	return false, j.ID, nil
}

func (s *JobService) Create(ctx context.Context, in NewJob) (*Job, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, NewInvalidError("Title is required")
	}
	job := &Job{Title: title, Status: JobActive, Tags: normalizeTags(in.Tags)}
	err := s.store.UpdateJobs(ctx, func(tx JobTx) error {
		all, err := tx.ListJobs(ctx)
		if err != nil {
			return err
		}
		slug, err := uniqueSlug(ctx, tx, Slugify(title), 0)
		if err != nil {
			return err
		}
		job.Slug = slug
		job.Order = len(all)
		return tx.InsertJob(ctx, job)
	})
	if err != nil {
		return nil, wrapStoreError("create job", err)
	}
	return job, nil
}

func (s *JobService) Update(ctx context.Context, id int64, patch JobPatch) (*Job, error) {
	var out *Job
	err := s.store.UpdateJobs(ctx, func(tx JobTx) error {
		job, err := findJob(ctx, tx, id)
		if err != nil {
			return err
		}
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return NewInvalidError("Title cannot be empty")
			}
			slug, err := uniqueSlug(ctx, tx, Slugify(title), id)
			if err != nil {
				return err
			}
			job.Title = title
			job.Slug = slug
		}
		if patch.Tags != nil {
			job.Tags = normalizeTags(patch.Tags)
		}
		if patch.Status != nil {
			switch st := JobStatus(*patch.Status); st {
			case JobActive, JobArchived:
				job.Status = st
			default:
				return NewInvalidError(fmt.Sprintf("invalid status %q", *patch.Status))
			}
		}
		if err := tx.UpdateJob(ctx, job); err != nil {
			return err
		}
		out = job
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("update job", err)
	}
	return out, nil
}

// Reorder moves a job to toOrder. fromOrder is the caller's view and only short-circuits
// the no-op case; the shift is computed from the stored order inside the transaction.
func (s *JobService) Reorder(ctx context.Context, id int64, fromOrder, toOrder int) error {
	var realFrom int
	moved := false
	err := s.store.UpdateJobs(ctx, func(tx JobTx) error {
		all, err := tx.ListJobs(ctx)
		if err != nil {
			return err
		}
		var current *Job
		for _, j := range all {
			if j.ID == id {
				current = j
				break
			}
		}
		if current == nil {
			return NewNotFoundError("Not found")
		}
		if fromOrder == toOrder {
			return nil
		}
		moves, err := PlanReorder(all, id, toOrder)
		if err != nil {
			return err
		}
		for _, m := range moves {
			if err := tx.SetJobOrder(ctx, m.JobID, m.Order); err != nil {
				return err
			}
		}
		realFrom = current.Order
		moved = realFrom != toOrder
		return nil
	})
	if err != nil {
		return wrapStoreError("reorder jobs", err)
	}
	if moved {
		s.events.Publish(ctx, Event{Type: EventJobReordered, At: s.now(), Data: JobReorderedData{JobID: id, FromOrder: realFrom, ToOrder: toOrder}})
	}
	return nil
}

func findJob(ctx context.Context, tx JobTx, id int64) (*Job, error) {
	all, err := tx.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	for _, j := range all {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, NewNotFoundError("Not found")
}

var (
	slugStrip = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpace = regexp.MustCompile(`\s+`)
)

const maxSlugLen = 60

// Slugify lowercases title, drops everything but ASCII letters, digits, spaces and dashes,
// and joins words with dashes.
func Slugify(title string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(title), "")
	s = slugSpace.ReplaceAllString(strings.TrimSpace(s), "-")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	if s == "" {
		s = "job"
	}
	return s
}

func uniqueSlug(ctx context.Context, tx JobTx, base string, excludeID int64) (string, error) {
	slug := base
	for n := 2; ; n++ {
		taken, err := tx.FindJobBySlug(ctx, slug, excludeID)
		if err != nil {
			return "", err
		}
		if taken == nil {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(n)
	}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// wrapStoreError passes service errors through and marks everything else internal.
func wrapStoreError(op string, err error) error {
	if _, ok := AsServiceError(err); ok {
		return err
	}
	return NewInternalError(op, err)
}
