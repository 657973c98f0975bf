package services

import (
	"context"
	"time"
)

const (
	EventJobReordered        = "jobs.reordered"
	EventCandidateStage      = "candidates.stage_changed"
	EventAssessmentSubmitted = "assessments.submitted"
)

// Event is emitted after a write has committed. Publishing is best effort and never
// affects the outcome of the operation that produced it.
type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

type EventPublisher interface {
	Publish(ctx context.Context, ev Event)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}

type JobReorderedData struct {
	JobID     int64 `json:"jobId"`
	FromOrder int   `json:"fromOrder"`
	ToOrder   int   `json:"toOrder"`
}

type StageChangedData struct {
	CandidateID int64 `json:"candidateId"`
	FromStage   Stage `json:"fromStage"`
	ToStage     Stage `json:"toStage"`
}

type SubmissionData struct {
	SubmissionID int64  `json:"submissionId"`
	JobID        int64  `json:"jobId"`
	CandidateID  *int64 `json:"candidateId"`
}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return NopPublisher{}
	}
	return p
}
