package api

import (
	"net/http"
	"strconv"

	"github.com/soaringjerry/Talentflow/internal/services"
)

// GET /candidates?stage
func (rt *Router) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	list, err := rt.svcs.Candidates.List(r.Context(), r.URL.Query().Get("stage"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /candidates/pipeline?jobId counts candidates per stage for the board.
func (rt *Router) handlePipeline(w http.ResponseWriter, r *http.Request) {
	jobID, _ := strconv.ParseInt(r.URL.Query().Get("jobId"), 10, 64)
	sum, err := rt.svcs.Analytics.Pipeline(r.Context(), jobID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (rt *Router) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Stage string `json:"stage"`
		JobID int64  `json:"jobId"`
	}
	if err := decode(r, &body); err != nil {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_body")
		return
	}
	if body.JobID <= 0 {
		jobs, err := rt.svcs.JobLookup.ListJobs(r.Context())
		if err != nil {
			rt.writeError(w, r, services.NewInternalError("list jobs", err))
			return
		}
		if len(jobs) == 0 {
			rt.writeKey(w, r, http.StatusBadRequest, "error.no_jobs")
			return
		}
		body.JobID = jobs[rt.pick(len(jobs))].ID
	}
	c, err := rt.svcs.Candidates.Create(r.Context(), services.NewCandidate{
		Name:  body.Name,
		Email: body.Email,
		Stage: body.Stage,
		JobID: body.JobID,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (rt *Router) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_id")
		return
	}
	c, err := rt.svcs.Candidates.Get(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// PATCH /candidates/{id} accepts any of name, email, jobId and stage.
func (rt *Router) handleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_id")
		return
	}
	var body struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
		JobID *int64  `json:"jobId"`
		Stage *string `json:"stage"`
	}
	if err := decode(r, &body); err != nil {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_body")
		return
	}
	c, err := rt.svcs.Candidates.Update(r.Context(), id, services.CandidatePatch{
		Name:  body.Name,
		Email: body.Email,
		JobID: body.JobID,
		Stage: body.Stage,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (rt *Router) handleTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_id")
		return
	}
	events, err := rt.svcs.Candidates.Timeline(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": events})
}

func (rt *Router) handleListNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_id")
		return
	}
	notes, err := rt.svcs.Notes.List(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": notes})
}

func (rt *Router) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_id")
		return
	}
	var body struct {
		Text     string   `json:"text"`
		Mentions []string `json:"mentions"`
	}
	if err := decode(r, &body); err != nil {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_body")
		return
	}
	n, err := rt.svcs.Notes.Create(r.Context(), id, services.NewNote{Text: body.Text, Mentions: body.Mentions})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (rt *Router) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "noteId")
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_id")
		return
	}
	if err := rt.svcs.Notes.Delete(r.Context(), id); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
