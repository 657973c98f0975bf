package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AssessmentStore persists one assessment per job plus its append-only submissions.
// GetAssessment returns nil, nil when the job has no assessment yet.
type AssessmentStore interface {
	GetAssessment(ctx context.Context, jobID int64) (*Assessment, error)
	SaveAssessment(ctx context.Context, a *Assessment) (created bool, err error)
	InsertSubmission(ctx context.Context, sub *Submission) error
	ListSubmissions(ctx context.Context, jobID int64, candidateID *int64) ([]*Submission, error)
}

type SaveAssessmentRequest struct {
	Sections []Section
	Version  int
}

type SubmitRequest struct {
	CandidateID *int64
	Answers     Answers
}

// ValidationResult is the outcome of checking answers without storing them.
type ValidationResult struct {
	Valid  bool        `json:"valid"`
	Errors FieldErrors `json:"errors"`
}

type AssessmentService struct {
	store  AssessmentStore
	events EventPublisher
	// strict re-validates answers on submit and enforces option membership.
	strict      bool
	now         func() time.Time
	idGenerator func() string
}

func NewAssessmentService(store AssessmentStore, events EventPublisher, strict bool) *AssessmentService {
	return &AssessmentService{
		store:       store,
		events:      publisherOrNop(events),
		strict:      strict,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: defaultQuestionID,
	}
}

func defaultQuestionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Get returns the stored assessment or an empty version 1 skeleton.
func (s *AssessmentService) Get(ctx context.Context, jobID int64) (*Assessment, error) {
	a, err := s.store.GetAssessment(ctx, jobID)
	if err != nil {
		return nil, NewInternalError("get assessment", err)
	}
	if a == nil {
		return &Assessment{JobID: jobID, Version: 1, UpdatedAt: s.now(), Sections: []Section{}}, nil
	}
	return a, nil
}

// Save replaces the job's assessment wholesale and reports whether it was newly created.
func (s *AssessmentService) Save(ctx context.Context, jobID int64, req SaveAssessmentRequest) (*Assessment, bool, error) {
	if jobID <= 0 {
		return nil, false, NewInvalidError("invalid job id")
	}
	sections, err := s.normalizeSections(req.Sections)
	if err != nil {
		return nil, false, err
	}
	version := req.Version
	if version <= 0 {
		version = 1
	}
	a := &Assessment{JobID: jobID, Version: version, UpdatedAt: s.now(), Sections: sections}
	created, err := s.store.SaveAssessment(ctx, a)
	if err != nil {
		return nil, false, NewInternalError("save assessment", err)
	}
	return a, created, nil
}

// Validate runs the visibility-aware checks against the stored assessment.
func (s *AssessmentService) Validate(ctx context.Context, jobID int64, answers Answers) (ValidationResult, error) {
	a, err := s.Get(ctx, jobID)
	if err != nil {
		return ValidationResult{}, err
	}
	errs := Validate(a, answers)
	if s.strict {
		errs = ValidateStrict(a, answers)
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}, nil
}

// Submit appends an immutable submission. Answers are only checked when strict mode is on.
func (s *AssessmentService) Submit(ctx context.Context, jobID int64, req SubmitRequest) (*Submission, error) {
	if jobID <= 0 {
		return nil, NewInvalidError("invalid job id")
	}
	answers := req.Answers
	if answers == nil {
		answers = Answers{}
	}
	if s.strict {
		a, err := s.Get(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if errs := ValidateStrict(a, answers); len(errs) > 0 {
			return nil, NewFieldsError("Please fix the highlighted answers", errs)
		}
	}
	sub := &Submission{JobID: jobID, CandidateID: req.CandidateID, Answers: answers, CreatedAt: s.now()}
	if err := s.store.InsertSubmission(ctx, sub); err != nil {
		return nil, NewInternalError("insert submission", err)
	}
	s.events.Publish(ctx, Event{Type: EventAssessmentSubmitted, At: sub.CreatedAt, Data: SubmissionData{
		SubmissionID: sub.ID,
		JobID:        jobID,
		CandidateID:  sub.CandidateID,
	}})
	return sub, nil
}

func (s *AssessmentService) ListSubmissions(ctx context.Context, jobID int64, candidateID *int64) ([]*Submission, error) {
	subs, err := s.store.ListSubmissions(ctx, jobID, candidateID)
	if err != nil {
		return nil, NewInternalError("list submissions", err)
	}
	return subs, nil
}

// ExportSubmissions renders a job's submissions as CSV in the requested format.
func (s *AssessmentService) ExportSubmissions(ctx context.Context, jobID int64, candidateID *int64, format string) ([]byte, error) {
	a, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	subs, err := s.ListSubmissions(ctx, jobID, candidateID)
	if err != nil {
		return nil, err
	}
	return ExportSubmissionsCSV(a, subs, format)
}

// Exists reports, per job, whether an assessment with at least one section is stored.
func (s *AssessmentService) Exists(ctx context.Context, jobIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(jobIDs))
	for _, id := range jobIDs {
		if id <= 0 {
			continue
		}
		a, err := s.store.GetAssessment(ctx, id)
		if err != nil {
			return nil, NewInternalError("get assessment", err)
		}
		out[id] = a != nil && len(a.Sections) > 0
	}
	return out, nil
}

func (s *AssessmentService) normalizeSections(in []Section) ([]Section, error) {
	return NormalizeSections(in, s.idGenerator)
}

// NormalizeSections fills missing ids and titles, maps legacy question types and drops
// non-positive maxLength values. newID may be nil to use random short ids.
func NormalizeSections(in []Section, newID func() string) ([]Section, error) {
	if newID == nil {
		newID = defaultQuestionID
	}
	out := make([]Section, 0, len(in))
	for _, sec := range in {
		if sec.ID == "" {
			sec.ID = newID()
		}
		if strings.TrimSpace(sec.Title) == "" {
			sec.Title = "Section"
		}
		qs := make([]Question, 0, len(sec.Questions))
		for _, q := range sec.Questions {
			switch q.Type {
			case "":
				q.Type = QuestionShort
			case "numeric":
				q.Type = QuestionNumber
			case QuestionSingle, QuestionMulti, QuestionShort, QuestionLong, QuestionNumber, QuestionFile:
			default:
				return nil, NewInvalidError(fmt.Sprintf("unknown question type %q", q.Type))
			}
			if q.ID == "" {
				q.ID = newID()
			}
			if q.MaxLength != nil && *q.MaxLength <= 0 {
				q.MaxLength = nil
			}
			if strings.TrimSpace(q.Title) == "" {
				q.Title = "Untitled question"
			}
			if q.Options == nil {
				q.Options = []string{}
			}
			qs = append(qs, q)
		}
		sec.Questions = qs
		out = append(out, sec)
	}
	return out, nil
}
