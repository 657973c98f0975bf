package api

import "github.com/soaringjerry/Talentflow/internal/services"

// Store is everything the gateway needs from persistence. The SQLite store satisfies it;
// tests may substitute any implementation.
type Store interface {
	services.JobStore
	services.CandidateStore
	services.AssessmentStore
	services.NoteStore
}

// Services bundles the domain services behind the HTTP routes.
type Services struct {
	Jobs        *services.JobService
	Candidates  *services.CandidateService
	Assessments *services.AssessmentService
	Notes       *services.NoteService
	Analytics   *services.AnalyticsService
	// JobLookup lists jobs for resolving a candidate without a jobId.
	JobLookup services.JobLookup
}

// NewServices wires every service onto store. assessments overrides the assessment
// persistence (for example with a read-through cache); nil uses store directly.
func NewServices(store Store, assessments services.AssessmentStore, events services.EventPublisher, strictSubmit bool) *Services {
	if assessments == nil {
		assessments = store
	}
	return &Services{
		Jobs:        services.NewJobService(store, events),
		Candidates:  services.NewCandidateService(store, store, events),
		Assessments: services.NewAssessmentService(assessments, events, strictSubmit),
		Notes:       services.NewNoteService(store, store),
		Analytics:   services.NewAnalyticsService(store),
		JobLookup:   store,
	}
}
