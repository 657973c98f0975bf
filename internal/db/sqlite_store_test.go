package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/soaringjerry/Talentflow/internal/services"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	sqlDB, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if _, err := RunMigrations(context.Background(), sqlDB, ""); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store, err := NewSQLiteStore(sqlDB, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	sqlDB, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sqlDB.Close()
	ctx := context.Background()

	applied, err := RunMigrations(ctx, sqlDB, "")
	if err != nil || len(applied) == 0 || applied[0] != "001_init.sql" {
		t.Fatalf("first run: %v %v", applied, err)
	}
	applied, err = RunMigrations(ctx, sqlDB, "")
	if err != nil || len(applied) != 0 {
		t.Fatalf("second run should apply nothing: %v %v", applied, err)
	}
}

func TestJobsServiceOverSQLite(t *testing.T) {
	store := newTestStore(t)
	svc := services.NewJobService(store, nil)
	ctx := context.Background()

	for _, title := range []string{"Alpha", "Beta", "Gamma", "Delta"} {
		if _, err := svc.Create(ctx, services.NewJob{Title: title, Tags: []string{"x"}}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	dup, err := svc.Create(ctx, services.NewJob{Title: "alpha"})
	if err != nil || dup.Slug != "alpha-2" || dup.Order != 4 {
		t.Fatalf("duplicate slug: %+v %v", dup, err)
	}

	if err := svc.Reorder(ctx, 1, 0, 3); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	jobs, err := store.ListJobs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Beta", "Gamma", "Delta", "Alpha", "alpha"}
	for i, j := range jobs {
		if j.Title != want[i] || j.Order != i {
			t.Fatalf("position %d = %s/%d, want %s", i, j.Title, j.Order, want[i])
		}
	}
	if len(jobs[0].Tags) != 1 || jobs[0].Tags[0] != "x" {
		t.Fatalf("tags round trip: %v", jobs[0].Tags)
	}

	if err := svc.Reorder(ctx, 1, 3, 9); err == nil {
		t.Fatalf("expected out of range")
	}
	got, _ := store.GetJob(ctx, 1)
	if got.Order != 3 {
		t.Fatalf("failed reorder changed order to %d", got.Order)
	}
	missing, err := store.GetJob(ctx, 404)
	if err != nil || missing != nil {
		t.Fatalf("missing job: %v %v", missing, err)
	}
}

func TestUpdateJobsRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.UpdateJobs(ctx, func(tx services.JobTx) error {
		if err := tx.InsertJob(ctx, &services.Job{Title: "Temp", Slug: "temp", Status: services.JobActive}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	jobs, _ := store.ListJobs(ctx)
	if len(jobs) != 0 {
		t.Fatalf("rolled back insert is visible: %+v", jobs)
	}
}

func TestCandidatesServiceOverSQLite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	jobs := services.NewJobService(store, nil)
	job, err := jobs.Create(ctx, services.NewJob{Title: "Platform Engineer"})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	svc := services.NewCandidateService(store, store, nil)
	c, err := svc.Create(ctx, services.NewCandidate{Name: "Ada", Email: "ADA@x.io", Stage: "screen", JobID: job.ID})
	if err != nil {
		t.Fatalf("create candidate: %v", err)
	}
	if c.JobTitle != "Platform Engineer" || c.Email != "ada@x.io" {
		t.Fatalf("unexpected view: %+v", c)
	}
	if _, err := svc.ChangeStage(ctx, c.ID, "screen"); err != nil {
		t.Fatalf("same stage: %v", err)
	}
	if _, err := svc.ChangeStage(ctx, c.ID, "offer"); err != nil {
		t.Fatalf("change stage: %v", err)
	}
	events, err := svc.Timeline(ctx, c.ID)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(events) != 2 || events[0].Note != services.NoteCreated || events[1].FromStage != services.StageScreen || events[1].ToStage != services.StageOffer {
		t.Fatalf("unexpected timeline: %+v", events)
	}

	list, err := svc.List(ctx, "offer")
	if err != nil || list.Total != 1 {
		t.Fatalf("stage filter: %+v %v", list, err)
	}
}

func TestAssessmentsAndNotesOverSQLite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 5, 4, 3, 2, 1, 0, time.UTC)

	lo, hi := 0.0, 20.0
	a := &services.Assessment{JobID: 7, Version: 2, UpdatedAt: now, Sections: []services.Section{{
		ID: "s1", Title: "Main",
		Questions: []services.Question{{ID: "q1", Type: services.QuestionNumber, Title: "Years", Min: &lo, Max: &hi,
			Condition: &services.Condition{QuestionID: "q0", EqualsValue: "Yes"}}},
	}}}
	created, err := store.SaveAssessment(ctx, a)
	if err != nil || !created {
		t.Fatalf("save: %v %v", created, err)
	}
	created, err = store.SaveAssessment(ctx, a)
	if err != nil || created {
		t.Fatalf("resave: %v %v", created, err)
	}
	got, err := store.GetAssessment(ctx, 7)
	if err != nil || got.Version != 2 || !got.UpdatedAt.Equal(now) {
		t.Fatalf("get: %+v %v", got, err)
	}
	q := got.Sections[0].Questions[0]
	if *q.Max != 20 || q.Condition.EqualsValue != "Yes" {
		t.Fatalf("question round trip: %+v", q)
	}

	cand := int64(3)
	for i := 0; i < 3; i++ {
		sub := &services.Submission{JobID: 7, Answers: services.Answers{"q1": float64(i)}, CreatedAt: now.Add(time.Duration(i) * time.Minute)}
		if i == 1 {
			sub.CandidateID = &cand
		}
		if err := store.InsertSubmission(ctx, sub); err != nil {
			t.Fatalf("insert submission: %v", err)
		}
	}
	subs, _ := store.ListSubmissions(ctx, 7, nil)
	if len(subs) != 3 || subs[0].Answers["q1"] != float64(2) {
		t.Fatalf("submissions newest first: %+v", subs)
	}
	subs, _ = store.ListSubmissions(ctx, 7, &cand)
	if len(subs) != 1 || *subs[0].CandidateID != 3 {
		t.Fatalf("candidate filter: %+v", subs)
	}

	jobs := services.NewJobService(store, nil)
	job, _ := jobs.Create(ctx, services.NewJob{Title: "Ops"})
	candidates := services.NewCandidateService(store, store, nil)
	c, err := candidates.Create(ctx, services.NewCandidate{Name: "Lin", Email: "lin@x.io", JobID: job.ID})
	if err != nil {
		t.Fatalf("create candidate: %v", err)
	}
	notes := services.NewNoteService(store, store)
	n, err := notes.Create(ctx, c.ID, services.NewNote{Text: "ping @ops_lead"})
	if err != nil || len(n.Mentions) != 1 {
		t.Fatalf("create note: %+v %v", n, err)
	}
	listed, err := notes.List(ctx, c.ID)
	if err != nil || len(listed) != 1 || listed[0].Mentions[0] != "ops_lead" {
		t.Fatalf("list notes: %+v %v", listed, err)
	}
	if err := notes.Delete(ctx, n.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := notes.Delete(ctx, n.ID); !services.IsNotFound(err) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestImportSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	candidateID := int64(20)
	snap := &Snapshot{
		Jobs: []*services.Job{
			{ID: 11, Title: "Second", Slug: "second", Order: 7},
			{ID: 10, Title: "Imported", Slug: "imported", Order: 3},
		},
		Candidates: []*services.Candidate{
			{ID: 20, Name: "Imp", Email: "imp@x.io", JobID: 10, Stage: services.StageTech},
			{ID: 21, Name: "Odd", Email: "odd@x.io", JobID: 11, Stage: "bogus"},
		},
		Timelines: []*services.TimelineEvent{{ID: 55, CandidateID: 20, At: time.Unix(100, 0), FromStage: services.StageApplied, ToStage: services.StageTech}},
		Assessments: []*services.Assessment{{JobID: 10, Sections: []services.Section{{ID: "s1", Title: "Basics", Questions: []services.Question{
			{ID: "q1", Type: "numeric", Title: "Years"},
		}}}}},
		Submissions: []*services.Submission{{ID: 77, JobID: 10, CandidateID: &candidateID, Answers: services.Answers{"q1": float64(3)}, CreatedAt: time.Unix(200, 0)}},
		Notes:       []*services.Note{{ID: 99, CandidateID: 20, Text: "hello", CreatedAt: time.Unix(300, 0)}},
	}
	if err := store.ImportSnapshot(ctx, snap); err != nil {
		t.Fatalf("import: %v", err)
	}

	jobs, err := store.ListJobs(ctx)
	if err != nil || len(jobs) != 2 {
		t.Fatalf("imported jobs: %+v %v", jobs, err)
	}
	if jobs[0].ID != 10 || jobs[0].Order != 0 || jobs[1].ID != 11 || jobs[1].Order != 1 {
		t.Fatalf("orders were not renumbered densely: %+v %+v", jobs[0], jobs[1])
	}
	if jobs[0].Status != services.JobActive {
		t.Fatalf("imported job status: %q", jobs[0].Status)
	}

	odd, _ := store.GetCandidate(ctx, 21)
	if odd == nil || odd.Stage != services.StageApplied {
		t.Fatalf("unknown stage should import as applied: %+v", odd)
	}

	events, _ := store.ListTimeline(ctx, 20)
	if len(events) != 1 || events[0].ID != 55 || events[0].ToStage != services.StageTech {
		t.Fatalf("imported timeline: %+v", events)
	}
	subs, _ := store.ListSubmissions(ctx, 10, nil)
	if len(subs) != 1 || subs[0].ID != 77 {
		t.Fatalf("imported submissions: %+v", subs)
	}
	notes, _ := store.ListNotes(ctx, 20)
	if len(notes) != 1 || notes[0].ID != 99 {
		t.Fatalf("imported notes: %+v", notes)
	}
	a, _ := store.GetAssessment(ctx, 10)
	if a == nil || a.Version != 1 || a.Sections[0].Questions[0].Type != services.QuestionNumber {
		t.Fatalf("imported assessment was not normalized: %+v", a)
	}

	again := store.ImportSnapshot(ctx, &Snapshot{Jobs: []*services.Job{{ID: 12, Title: "Late", Slug: "late"}}})
	if se, ok := services.AsServiceError(again); !ok || se.Code != services.ErrorConflict {
		t.Fatalf("import into a populated store: %v", again)
	}

	// a later reorder keeps the dense permutation
	if err := services.NewJobService(store, nil).Reorder(ctx, 11, 1, 0); err != nil {
		t.Fatalf("reorder after import: %v", err)
	}
	first, _ := store.GetJob(ctx, 11)
	if first.Order != 0 {
		t.Fatalf("job 11 order = %d", first.Order)
	}
}

func TestConcurrentReordersKeepOrdersDense(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	svc := services.NewJobService(store, nil)
	const n = 8
	for i := 0; i < n; i++ {
		if _, err := svc.Create(ctx, services.NewJob{Title: fmt.Sprintf("Job %d", i)}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := int64(i%n) + 1
			if err := svc.Reorder(ctx, id, -1, (i*3)%n); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("reorder: %v", err)
	}

	jobs, err := store.ListJobs(ctx)
	if err != nil || len(jobs) != n {
		t.Fatalf("list: %d %v", len(jobs), err)
	}
	seen := make(map[int]bool, n)
	for _, j := range jobs {
		if j.Order < 0 || j.Order >= n || seen[j.Order] {
			t.Fatalf("orders are not a permutation of 0..%d: %+v", n-1, jobs)
		}
		seen[j.Order] = true
	}
}

type stageCounter struct {
	mu      sync.Mutex
	changes int
}

func (c *stageCounter) Publish(_ context.Context, ev services.Event) {
	if ev.Type != services.EventCandidateStage {
		return
	}
	c.mu.Lock()
	c.changes++
	c.mu.Unlock()
}

func TestConcurrentStageChangesRecordOneEventPerChange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	job, err := services.NewJobService(store, nil).Create(ctx, services.NewJob{Title: "Ops"})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	counter := &stageCounter{}
	svc := services.NewCandidateService(store, store, counter)
	c, err := svc.Create(ctx, services.NewCandidate{Name: "Ada", Email: "ada@x.io", JobID: job.ID})
	if err != nil {
		t.Fatalf("create candidate: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stage := services.Stages[i%len(services.Stages)]
			if _, err := svc.ChangeStage(ctx, c.ID, string(stage)); err != nil {
				t.Errorf("change stage: %v", err)
			}
		}(i)
	}
	wg.Wait()

	events, err := store.ListTimeline(ctx, c.ID)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(events)-1 != counter.changes {
		t.Fatalf("%d stage events stored, %d changes published", len(events)-1, counter.changes)
	}
	prev := events[0].ToStage
	for _, ev := range events[1:] {
		if ev.FromStage != prev || ev.FromStage == ev.ToStage {
			t.Fatalf("broken timeline chain: %+v", events)
		}
		prev = ev.ToStage
	}
	final, _ := store.GetCandidate(ctx, c.ID)
	if final.Stage != prev {
		t.Fatalf("candidate stage %q, timeline ends at %q", final.Stage, prev)
	}
}
