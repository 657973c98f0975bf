package services

import (
	"context"
	"sort"
)

// AnalyticsStore is the read side needed to summarise the stage board.
type AnalyticsStore interface {
	ListCandidates(ctx context.Context, stage Stage) ([]*Candidate, error)
	ListJobs(ctx context.Context) ([]*Job, error)
}

type AnalyticsService struct {
	store AnalyticsStore
}

type StageCount struct {
	Stage Stage `json:"stage"`
	Count int   `json:"count"`
}

type JobPipeline struct {
	JobID    int64        `json:"jobId"`
	JobTitle string       `json:"jobTitle"`
	Status   JobStatus    `json:"status"`
	Total    int          `json:"total"`
	Stages   []StageCount `json:"stages"`
}

// PipelineSummary counts candidates per stage, overall and per job, in board order.
type PipelineSummary struct {
	Total  int           `json:"total"`
	Stages []StageCount  `json:"stages"`
	Jobs   []JobPipeline `json:"jobs"`
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// Pipeline summarises every job, or only jobID when it is positive. Jobs are listed in board
// order; candidates pointing at a job that no longer exists are counted under "Job #<id>".
func (s *AnalyticsService) Pipeline(ctx context.Context, jobID int64) (*PipelineSummary, error) {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, NewInternalError("list jobs", err)
	}
	candidates, err := s.store.ListCandidates(ctx, "")
	if err != nil {
		return nil, NewInternalError("list candidates", err)
	}

	byJob := map[int64]map[Stage]int{}
	overall := map[Stage]int{}
	total := 0
	for _, c := range candidates {
		if jobID > 0 && c.JobID != jobID {
			continue
		}
		if byJob[c.JobID] == nil {
			byJob[c.JobID] = map[Stage]int{}
		}
		byJob[c.JobID][c.Stage]++
		overall[c.Stage]++
		total++
	}

	sorted := append([]*Job(nil), jobs...)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Order < sorted[b].Order })
	known := map[int64]bool{}
	out := &PipelineSummary{Total: total, Stages: stageCounts(overall), Jobs: []JobPipeline{}}
	for _, j := range sorted {
		known[j.ID] = true
		if jobID > 0 && j.ID != jobID {
			continue
		}
		out.Jobs = append(out.Jobs, jobPipeline(j.ID, j.Title, j.Status, byJob[j.ID]))
	}

	var orphans []int64
	for id := range byJob {
		if !known[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Slice(orphans, func(a, b int) bool { return orphans[a] < orphans[b] })
	for _, id := range orphans {
		out.Jobs = append(out.Jobs, jobPipeline(id, jobTitle("", id), "", byJob[id]))
	}
	return out, nil
}

func jobPipeline(id int64, title string, status JobStatus, counts map[Stage]int) JobPipeline {
	total := 0
	for _, n := range counts {
		total += n
	}
	return JobPipeline{JobID: id, JobTitle: title, Status: status, Total: total, Stages: stageCounts(counts)}
}

func stageCounts(counts map[Stage]int) []StageCount {
	out := make([]StageCount, 0, len(Stages))
	for _, st := range Stages {
		out = append(out, StageCount{Stage: st, Count: counts[st]})
	}
	return out
}
