package services

import (
	"fmt"
	"sort"
)

// OrderMove assigns a new order index to one job.
type OrderMove struct {
	JobID int64
	Order int
}

// PlanReorder computes the order writes that move jobID to toOrder while keeping the
// orders a dense 0..N-1 permutation. The source position is read from jobs, never from the
// caller. Shifted jobs come first (in ascending original order) and the moved job last.
func PlanReorder(jobs []*Job, jobID int64, toOrder int) ([]OrderMove, error) {
	var moving *Job
	for _, j := range jobs {
		if j.ID == jobID {
			moving = j
			break
		}
	}
	if moving == nil {
		return nil, NewNotFoundError(fmt.Sprintf("job %d not found", jobID))
	}
	if toOrder < 0 || toOrder > len(jobs)-1 {
		return nil, NewInvalidError("toOrder out of range")
	}
	realFrom := moving.Order

	affected := make([]*Job, 0)
	delta := 0
	switch {
	case toOrder > realFrom:
		delta = -1
		for _, j := range jobs {
			if j.Order > realFrom && j.Order <= toOrder {
				affected = append(affected, j)
			}
		}
	case toOrder < realFrom:
		delta = 1
		for _, j := range jobs {
			if j.Order >= toOrder && j.Order < realFrom {
				affected = append(affected, j)
			}
		}
	}
	sort.Slice(affected, func(a, b int) bool { return affected[a].Order < affected[b].Order })

	moves := make([]OrderMove, 0, len(affected)+1)
	for _, j := range affected {
		moves = append(moves, OrderMove{JobID: j.ID, Order: j.Order + delta})
	}
	moves = append(moves, OrderMove{JobID: moving.ID, Order: toOrder})
	return moves, nil
}
