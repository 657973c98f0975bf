package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/soaringjerry/Talentflow/internal/services"
)

// GET /assessments/exists?jobIds=1,2,3
func (rt *Router) handleAssessmentsExist(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	for _, part := range strings.Split(r.URL.Query().Get("jobIds"), ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	exists, err := rt.svcs.Assessments.Exists(r.Context(), ids)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exists": exists})
}

func (rt *Router) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(r, "jobId")
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_id")
		return
	}
	a, err := rt.svcs.Assessments.Get(r.Context(), jobID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// PUT /assessments/{jobId} replaces the builder state: 201 when created, 200 when replaced.
func (rt *Router) handleSaveAssessment(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(r, "jobId")
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_id")
		return
	}
	var body struct {
		Sections []services.Section `json:"sections"`
		Version  int                `json:"version"`
	}
	if err := decode(r, &body); err != nil {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_body")
		return
	}
	a, created, err := rt.svcs.Assessments.Save(r.Context(), jobID, services.SaveAssessmentRequest{
		Sections: body.Sections,
		Version:  body.Version,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, a)
}

func (rt *Router) handleValidateAnswers(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(r, "jobId")
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_id")
		return
	}
	var body struct {
		Answers services.Answers `json:"answers"`
	}
	if err := decode(r, &body); err != nil {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_body")
		return
	}
	res, err := rt.svcs.Assessments.Validate(r.Context(), jobID, body.Answers)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if res.Errors == nil {
		res.Errors = services.FieldErrors{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(r, "jobId")
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_id")
		return
	}
	var body struct {
		CandidateID *int64           `json:"candidateId"`
		Answers     services.Answers `json:"answers"`
	}
	if err := decode(r, &body); err != nil {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_body")
		return
	}
	sub, err := rt.svcs.Assessments.Submit(r.Context(), jobID, services.SubmitRequest{
		CandidateID: body.CandidateID,
		Answers:     body.Answers,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		ID          int64     `json:"id"`
		JobID       int64     `json:"jobId"`
		CandidateID *int64    `json:"candidateId"`
		CreatedAt   time.Time `json:"createdAt"`
	}{sub.ID, sub.JobID, sub.CandidateID, sub.CreatedAt})
}

// GET /assessments/{jobId}/submissions?candidateId
func (rt *Router) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(r, "jobId")
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_id")
		return
	}
	candidate, ok := candidateFilter(r)
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_filter")
		return
	}
	subs, err := rt.svcs.Assessments.ListSubmissions(r.Context(), jobID, candidate)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": subs})
}

// GET /assessments/{jobId}/submissions/export?format=long|wide&candidateId
func (rt *Router) handleExportSubmissions(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(r, "jobId")
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_id")
		return
	}
	candidate, ok := candidateFilter(r)
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_filter")
		return
	}
	format := r.URL.Query().Get("format")
	b, err := rt.svcs.Assessments.ExportSubmissions(r.Context(), jobID, candidate, format)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if format == "" {
		format = services.ExportLong
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=submissions-%d-%s.csv", jobID, format))
	_, _ = w.Write(b)
}

func candidateFilter(r *http.Request) (*int64, bool) {
	raw := r.URL.Query().Get("candidateId")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return &id, true
}
