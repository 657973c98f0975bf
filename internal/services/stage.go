package services

import (
	"fmt"
	"time"
)

const (
	NoteCreated     = "Created"
	NoteStageChange = "Stage change"
)

// ParseStage reports whether s names one of the pipeline stages.
func ParseStage(s string) (Stage, bool) {
	for _, st := range Stages {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// PlanStageChange moves c to the requested stage and returns the timeline event that must be
// stored with it. Moving to the current stage returns a nil event and leaves c untouched.
func PlanStageChange(c *Candidate, to string, at time.Time) (*TimelineEvent, error) {
	st, ok := ParseStage(to)
	if !ok {
		return nil, NewInvalidError(fmt.Sprintf("invalid stage %q", to))
	}
	if st == c.Stage {
		return nil, nil
	}
	ev := &TimelineEvent{
		CandidateID: c.ID,
		At:          at,
		FromStage:   c.Stage,
		ToStage:     st,
		Note:        NoteStageChange,
	}
	c.Stage = st
	return ev, nil
}
