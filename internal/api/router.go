package api

import (
	"math/rand/v2"
	"net/http"

	"go.uber.org/zap"

	"github.com/soaringjerry/Talentflow/internal/middleware"
	"github.com/soaringjerry/Talentflow/internal/utils"
)

// BuildInfo is reported by /health and /version.
type BuildInfo struct {
	Commit    string
	BuildTime string
}

type Router struct {
	svcs  *Services
	log   *zap.Logger
	build BuildInfo
	// pick returns a random index in [0, n); it chooses a job for candidates created without one.
	pick func(n int) int
}

func NewRouter(svcs *Services, log *zap.Logger, build BuildInfo) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{svcs: svcs, log: log.Named("api"), build: build, pick: rand.IntN}
}

// WithPicker replaces the random job picker, mainly for tests.
func (rt *Router) WithPicker(pick func(n int) int) *Router {
	rt.pick = pick
	return rt
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /jobs", rt.handleListJobs)
	mux.HandleFunc("POST /jobs", rt.handleCreateJob)
	mux.HandleFunc("GET /jobs/slug/{slug}", rt.handleSlugAvailable)
	mux.HandleFunc("GET /jobs/{id}", rt.handleGetJob)
	mux.HandleFunc("PATCH /jobs/{id}", rt.handleUpdateJob)
	mux.HandleFunc("PATCH /jobs/{id}/reorder", rt.handleReorderJob)

	mux.HandleFunc("GET /candidates", rt.handleListCandidates)
	mux.HandleFunc("GET /candidates/pipeline", rt.handlePipeline)
	mux.HandleFunc("POST /candidates", rt.handleCreateCandidate)
	mux.HandleFunc("GET /candidates/{id}", rt.handleGetCandidate)
	mux.HandleFunc("PATCH /candidates/{id}", rt.handleUpdateCandidate)
	mux.HandleFunc("GET /candidates/{id}/timeline", rt.handleTimeline)
	mux.HandleFunc("GET /candidates/{id}/notes", rt.handleListNotes)
	mux.HandleFunc("POST /candidates/{id}/notes", rt.handleCreateNote)
	mux.HandleFunc("DELETE /notes/{noteId}", rt.handleDeleteNote)

	mux.HandleFunc("GET /assessments/exists", rt.handleAssessmentsExist)
	mux.HandleFunc("GET /assessments/{jobId}", rt.handleGetAssessment)
	mux.HandleFunc("PUT /assessments/{jobId}", rt.handleSaveAssessment)
	mux.HandleFunc("POST /assessments/{jobId}/validate", rt.handleValidateAnswers)
	mux.HandleFunc("POST /assessments/{jobId}/submit", rt.handleSubmit)
	mux.HandleFunc("GET /assessments/{jobId}/submissions", rt.handleListSubmissions)
	mux.HandleFunc("GET /assessments/{jobId}/submissions/export", rt.handleExportSubmissions)

	mux.HandleFunc("GET /health", rt.handleHealth)
	mux.HandleFunc("GET /version", rt.handleVersion)
}

// HandlerOptions selects the optional layers of the middleware chain.
type HandlerOptions struct {
	Auth  *middleware.Auth
	Chaos *middleware.Chaos
}

// Handler returns the fully wrapped gateway. Chaos sits innermost so simulated failures
// are still logged, traced and localised like real ones.
func (rt *Router) Handler(opts HandlerOptions) http.Handler {
	mux := http.NewServeMux()
	rt.Register(mux)

	var h http.Handler = mux
	if opts.Chaos != nil {
		h = opts.Chaos.Middleware(h)
	}
	if opts.Auth != nil {
		h = opts.Auth.WithAuth(opts.Auth.GuardWrites(h))
	}
	h = middleware.SecureHeaders(h)
	h = middleware.NoStore(h)
	h = middleware.LocaleMiddleware(h)
	h = middleware.Trace(mux)(h)
	h = middleware.RequestLogger(rt.log)(h)
	return middleware.CORS(h)
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"name":       "Talentflow API",
		"locale":     locale,
		"msg":        utils.T(locale, "health.ok"),
		"commit":     rt.build.Commit,
		"build_time": rt.build.BuildTime,
	})
}

func (rt *Router) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"commit":     rt.build.Commit,
		"build_time": rt.build.BuildTime,
	})
}
