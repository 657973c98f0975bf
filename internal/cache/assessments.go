package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/Talentflow/internal/services"
	"github.com/soaringjerry/Talentflow/internal/telemetry"
)

var tracer = telemetry.GetTracer("talentflow/internal/cache")

// AssessmentStore serves assessment reads from the cache and invalidates on save.
// Cache failures degrade to the underlying store; they are logged, never returned.
type AssessmentStore struct {
	next  services.AssessmentStore
	cache Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewAssessmentStore(next services.AssessmentStore, c Cache, ttl time.Duration, log *zap.Logger) *AssessmentStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &AssessmentStore{next: next, cache: c, ttl: ttl, log: log.Named("assessment_cache")}
}

func assessmentKey(jobID int64) string {
	return "assessment:" + strconv.FormatInt(jobID, 10)
}

func (s *AssessmentStore) GetAssessment(ctx context.Context, jobID int64) (*services.Assessment, error) {
	ctx, span := tracer.Start(ctx, "GetAssessment")
	defer span.End()
	key := assessmentKey(jobID)

	raw, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var a services.Assessment
		if jerr := json.Unmarshal(raw, &a); jerr == nil {
			span.SetAttributes(telemetry.String("cache.result", "hit"))
			return &a, nil
		}
		s.log.Warn("dropping undecodable cache entry", zap.String("key", key))
		_ = s.cache.Delete(ctx, key)
	case errors.Is(err, ErrNotFound):
		span.SetAttributes(telemetry.String("cache.result", "miss"))
	default:
		span.SetAttributes(telemetry.String("cache.result", "error"))
		s.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}

	a, err := s.next.GetAssessment(ctx, jobID)
	if err != nil || a == nil {
		return a, err
	}
	if b, jerr := json.Marshal(a); jerr == nil {
		if serr := s.cache.Set(ctx, key, b, s.ttl); serr != nil {
			s.log.Warn("cache set failed", zap.String("key", key), zap.Error(serr))
		}
	}
	return a, nil
}

func (s *AssessmentStore) SaveAssessment(ctx context.Context, a *services.Assessment) (bool, error) {
	created, err := s.next.SaveAssessment(ctx, a)
	if err != nil {
		return created, err
	}
	if derr := s.cache.Delete(ctx, assessmentKey(a.JobID)); derr != nil {
		s.log.Warn("cache invalidation failed", zap.Int64("job_id", a.JobID), zap.Error(derr))
	}
	return created, nil
}

func (s *AssessmentStore) InsertSubmission(ctx context.Context, sub *services.Submission) error {
	return s.next.InsertSubmission(ctx, sub)
}

func (s *AssessmentStore) ListSubmissions(ctx context.Context, jobID int64, candidateID *int64) ([]*services.Submission, error) {
	return s.next.ListSubmissions(ctx, jobID, candidateID)
}
