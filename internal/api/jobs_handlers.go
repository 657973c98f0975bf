package api

import (
	"net/http"
	"strconv"

	"github.com/soaringjerry/Talentflow/internal/middleware"
	"github.com/soaringjerry/Talentflow/internal/services"
)

// GET /jobs?search&status&page&pageSize&sort
func (rt *Router) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := rt.svcs.Jobs.List(r.Context(), services.JobQuery{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "pageSize"),
		Sort:     q.Get("sort"),
		Locale:   middleware.LocaleFromContext(r.Context()),
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *Router) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_id")
		return
	}
	j, err := rt.svcs.Jobs.Get(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// GET /jobs/slug/{slug}?excludeId
func (rt *Router) handleSlugAvailable(w http.ResponseWriter, r *http.Request) {
	exclude, _ := strconv.ParseInt(r.URL.Query().Get("excludeId"), 10, 64)
	available, conflictID, err := rt.svcs.Jobs.SlugAvailable(r.Context(), r.PathValue("slug"), exclude)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	var conflict *int64
	if !available {
		conflict = &conflictID
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": available, "conflictId": conflict})
}

func (rt *Router) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
	}
	if err := decode(r, &body); err != nil {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_body")
		return
	}
	j, err := rt.svcs.Jobs.Create(r.Context(), services.NewJob{Title: body.Title, Tags: body.Tags})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

func (rt *Router) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_id")
		return
	}
	var body struct {
		Title  *string  `json:"title"`
		Tags   []string `json:"tags"`
		Status *string  `json:"status"`
	}
	if err := decode(r, &body); err != nil {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_body")
		return
	}
	j, err := rt.svcs.Jobs.Update(r.Context(), id, services.JobPatch{Title: body.Title, Tags: body.Tags, Status: body.Status})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// PATCH /jobs/{id}/reorder {fromOrder, toOrder}
func (rt *Router) handleReorderJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_id")
		return
	}
	var body struct {
		FromOrder *int `json:"fromOrder"`
		ToOrder   *int `json:"toOrder"`
	}
	if err := decode(r, &body); err != nil {
		rt.writeKey(w, r, http.StatusBadRequest, "error.bad_body")
		return
	}
	if body.FromOrder == nil || body.ToOrder == nil {
		rt.writeError(w, r, services.NewInvalidError("fromOrder and toOrder are required"))
		return
	}
	if err := rt.svcs.Jobs.Reorder(r.Context(), id, *body.FromOrder, *body.ToOrder); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "fromOrder": *body.FromOrder, "toOrder": *body.ToOrder})
}
